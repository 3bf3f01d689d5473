package auth

import "testing"

func TestPasswordHashAndMatch(t *testing.T) {
	digest, err := HashPassword("correcthorse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if digest == "correcthorse" {
		t.Fatal("digest must not equal plaintext")
	}
	if !PasswordMatches("correcthorse", digest) {
		t.Fatal("expected matching password to verify")
	}
	if PasswordMatches("wronghorse", digest) {
		t.Fatal("expected mismatching password to fail")
	}
}

func TestPasswordHashIsSalted(t *testing.T) {
	first, err := HashPassword("samepassword")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := HashPassword("samepassword")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if first == second {
		t.Fatal("two hashes of the same password must differ")
	}
}
