package util

import "testing"

func TestDeriveAndVerifyPassword(t *testing.T) {
	hash, salt, err := DerivePassword("Secret123!")
	if err != nil {
		t.Fatalf("DerivePassword returned error: %v", err)
	}
	if len(hash) == 0 || len(salt) == 0 {
		t.Fatalf("expected hash and salt to be populated")
	}
	if !VerifyPassword("Secret123!", salt, hash) {
		t.Fatalf("expected verification to succeed for the right password")
	}
	if VerifyPassword("Secret123?", salt, hash) {
		t.Fatalf("expected verification to fail for a wrong password")
	}
}

func TestDerivePasswordSaltsDiffer(t *testing.T) {
	hashA, saltA, _ := DerivePassword("Secret123!")
	hashB, saltB, _ := DerivePassword("Secret123!")
	if string(saltA) == string(saltB) {
		t.Fatal("expected fresh salt per derivation")
	}
	if string(hashA) == string(hashB) {
		t.Fatal("expected different salts to produce different hashes")
	}
}

func TestHashPasswordEmptyInput(t *testing.T) {
	if _, err := HashPassword("", []byte{1, 2, 3}); err == nil {
		t.Fatalf("expected error when password empty")
	}
	if _, err := HashPassword("secret", nil); err == nil {
		t.Fatalf("expected error when salt empty")
	}
}

func TestValidatePassword(t *testing.T) {
	cases := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "accepts mixed", password: "Secret123!", wantErr: false},
		{name: "too short", password: "S3cr3t!", wantErr: true},
		{name: "no uppercase", password: "secret123!", wantErr: true},
		{name: "no digit", password: "SecretPass!", wantErr: true},
		{name: "no special", password: "SecretPass123", wantErr: true},
	}
	for _, tc := range cases {
		err := ValidatePassword(tc.password)
		if tc.wantErr && err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !tc.wantErr && err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
	}
}
