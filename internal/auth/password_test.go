package auth

import "testing"

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPassword("secret1")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if hash == "secret1" {
		t.Fatal("hash must not equal the plaintext")
	}

	if !ComparePassword(hash, "secret1") {
		t.Error("correct password rejected")
	}
	if ComparePassword(hash, "wrong") {
		t.Error("wrong password accepted")
	}
}

func TestHashPassword_DistinctSalts(t *testing.T) {
	h1, err := HashPassword("secret1")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	h2, err := HashPassword("secret1")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if h1 == h2 {
		t.Error("two hashes of the same password should differ")
	}
}
