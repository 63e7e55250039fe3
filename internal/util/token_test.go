package util

import "testing"

func TestNewResetToken(t *testing.T) {
	plain, digest, err := NewResetToken()
	if err != nil {
		t.Fatalf("NewResetToken returned error: %v", err)
	}
	if len(plain) != resetTokenBytes*2 {
		t.Fatalf("expected %d hex chars, got %d", resetTokenBytes*2, len(plain))
	}
	if digest != HashResetToken(plain) {
		t.Fatal("expected digest to match re-hashed plaintext")
	}
	if digest == plain {
		t.Fatal("digest must differ from plaintext")
	}

	_, digest2, err := NewResetToken()
	if err != nil {
		t.Fatalf("NewResetToken returned error: %v", err)
	}
	if digest == digest2 {
		t.Fatal("expected distinct tokens per call")
	}
}

func TestHashResetTokenDeterministic(t *testing.T) {
	if HashResetToken("abc") != HashResetToken("abc") {
		t.Fatal("expected deterministic hashing")
	}
	if HashResetToken("abc") == HashResetToken("abd") {
		t.Fatal("expected different inputs to hash differently")
	}
}
