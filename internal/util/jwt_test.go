package util

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestJWTManagerGenerateAndParse(t *testing.T) {
	manager := NewJWTManager("top-secret", time.Minute)

	userID := uuid.New()
	username := "player1"
	token, expiresAt, err := manager.Generate(userID, "user@example.com", &username, true)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token to be non-empty")
	}
	if expiresAt.Before(time.Now()) {
		t.Fatalf("expected expiry in the future")
	}

	claims, err := manager.Parse(token)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("expected user id %s, got %s", userID, claims.UserID)
	}
	if claims.Email != "user@example.com" {
		t.Fatalf("unexpected email claim %q", claims.Email)
	}
	if claims.Username == nil || *claims.Username != username {
		t.Fatalf("expected username claim to be set")
	}
}

func TestJWTManagerParseExpiredToken(t *testing.T) {
	manager := NewJWTManager("secret", time.Millisecond)
	token, _, err := manager.Generate(uuid.New(), "user@example.com", nil, false)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, err := manager.Parse(token); err == nil {
		t.Fatalf("expected parse error for expired token")
	}
}

func TestJWTManagerParseRejectsForeignSignature(t *testing.T) {
	issuer := NewJWTManager("secret-a", time.Minute)
	verifier := NewJWTManager("secret-b", time.Minute)

	token, _, err := issuer.Generate(uuid.New(), "user@example.com", nil, false)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if _, err := verifier.Parse(token); err == nil {
		t.Fatal("expected parse error for token signed with another secret")
	}
	if _, err := verifier.Parse("not-a-token"); err == nil {
		t.Fatal("expected parse error for malformed token")
	}
}
