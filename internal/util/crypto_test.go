package util

import (
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	password := "MyPassword123"

	hashed, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !strings.HasPrefix(hashed, "pbkdf2$") {
		t.Errorf("hash %q missing pbkdf2$ prefix", hashed)
	}

	// empty password is rejected
	if _, err := HashPassword(""); err == nil {
		t.Error("HashPassword(\"\") error = nil, want error")
	}

	// random salt: same password, different hash
	hashed2, _ := HashPassword(password)
	if hashed == hashed2 {
		t.Error("same password produced identical hashes, salt not random")
	}
}

func TestCheckPassword(t *testing.T) {
	password := "TestPass456"
	hashed, _ := HashPassword(password)

	if !CheckPassword(password, hashed) {
		t.Error("correct password did not verify")
	}
	if CheckPassword("WrongPass", hashed) {
		t.Error("wrong password verified")
	}
	if CheckPassword("", hashed) {
		t.Error("empty password verified")
	}
	if CheckPassword(password, "not-a-hash") {
		t.Error("malformed stored value verified")
	}
}

func TestLooksHashed(t *testing.T) {
	hashed, _ := HashPassword("secret123")
	if !LooksHashed(hashed) {
		t.Error("LooksHashed(hash) = false, want true")
	}
	if LooksHashed("plaintext-password") {
		t.Error("LooksHashed(plaintext) = true, want false")
	}
}

func TestRandomOTPCode(t *testing.T) {
	code, err := RandomOTPCode()
	if err != nil {
		t.Fatalf("RandomOTPCode() error = %v", err)
	}
	if len(code) != 6 {
		t.Errorf("code length = %d, want 6", len(code))
	}
	if code != strings.ToUpper(code) {
		t.Errorf("code %q is not uppercase", code)
	}
	for _, ch := range code {
		if !strings.ContainsRune("0123456789ABCDEF", ch) {
			t.Errorf("code %q contains non-hex character %q", code, ch)
		}
	}
}

func TestRandomString(t *testing.T) {
	s, err := RandomString(16)
	if err != nil {
		t.Fatalf("RandomString(16) error = %v", err)
	}
	if len(s) != 16 {
		t.Errorf("length = %d, want 16", len(s))
	}

	s2, _ := RandomString(16)
	if s == s2 {
		t.Error("two random strings were identical")
	}

	if _, err := RandomString(0); err == nil {
		t.Error("RandomString(0) error = nil, want error")
	}
}
