package auth

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "s3cret" {
		t.Fatalf("hash must not equal the plaintext")
	}
	if !CheckPassword("s3cret", hash) {
		t.Fatalf("correct password rejected")
	}
	if CheckPassword("wrong", hash) {
		t.Fatalf("wrong password accepted")
	}
}

func TestGenerateSessionToken(t *testing.T) {
	a, err := GenerateSessionToken()
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	b, err := GenerateSessionToken()
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if len(a) != sessionTokenBytes*2 {
		t.Fatalf("token length = %d", len(a))
	}
	if a == b {
		t.Fatalf("tokens must be unique")
	}
}
