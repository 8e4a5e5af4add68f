package models

import (
	"testing"

	"github.com/MuthonduG/reports-api/internal/util"
)

func TestNormalizeEmail(t *testing.T) {
	cases := map[string]string{
		"  jane@GMAIL.COM ": "jane@gmail.com",
		"Jane@Gmail.com":    "Jane@gmail.com", // local part preserved
		"no-at-sign":        "no-at-sign",
	}
	for in, want := range cases {
		if got := NormalizeEmail(in); got != want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestComputeAnonymousIDDeterministic(t *testing.T) {
	a := ComputeAnonymousID("blue", "jane@gmail.com")
	b := ComputeAnonymousID("blue", "jane@gmail.com")
	if a != b {
		t.Error("same inputs produced different anonymous ids")
	}
	if len(a) != 64 {
		t.Errorf("anonymous id length = %d, want 64 hex chars", len(a))
	}

	if ComputeAnonymousID("red", "jane@gmail.com") == a {
		t.Error("changed security response did not change anonymous id")
	}
	if ComputeAnonymousID("blue", "john@gmail.com") == a {
		t.Error("changed email did not change anonymous id")
	}
}

func TestDeriveUsername(t *testing.T) {
	if got := DeriveUsername("jane.doe@gmail.com"); got != "jane.doe" {
		t.Errorf("DeriveUsername = %q, want jane.doe", got)
	}
}

func TestValidateEmailDomain(t *testing.T) {
	if err := ValidateEmailDomain("jane@gmail.com", "gmail.com"); err != nil {
		t.Errorf("allowed domain rejected: %v", err)
	}
	if err := ValidateEmailDomain("jane@example.org", "gmail.com"); err == nil {
		t.Error("other domain accepted")
	}
}

func TestNormalizeNewUser(t *testing.T) {
	u := User{
		Email:            "Jane@GMAIL.com",
		Password:         "plain-secret",
		SecurityResponse: "blue",
	}
	if err := u.Normalize(nil); err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	if u.Email != "Jane@gmail.com" {
		t.Errorf("email not normalized: %q", u.Email)
	}
	if u.AnonymousID != ComputeAnonymousID("blue", "Jane@gmail.com") {
		t.Error("anonymous id not derived from security_response:email")
	}
	if !util.LooksHashed(u.Password) {
		t.Error("password was not hashed")
	}
	if !u.CheckPassword("plain-secret") {
		t.Error("hashed password does not verify")
	}
	if u.Username != "Jane" {
		t.Errorf("username = %q, want Jane", u.Username)
	}
}

func TestNormalizeUnchangedKeepsAnonymousID(t *testing.T) {
	u := User{Email: "jane@gmail.com", Password: "plain-secret", SecurityResponse: "blue"}
	if err := u.Normalize(nil); err != nil {
		t.Fatal(err)
	}
	prev := u

	// re-save without touching email or security response
	if err := u.Normalize(&prev); err != nil {
		t.Fatal(err)
	}
	if u.AnonymousID != prev.AnonymousID {
		t.Error("anonymous id changed on a no-op save")
	}
	if u.Password != prev.Password {
		t.Error("already-hashed password was re-hashed")
	}
}

func TestNormalizeIdentityChangeRecomputes(t *testing.T) {
	u := User{Email: "jane@gmail.com", Password: "plain-secret", SecurityResponse: "blue"}
	if err := u.Normalize(nil); err != nil {
		t.Fatal(err)
	}
	prev := u

	u.SecurityResponse = "red"
	if err := u.Normalize(&prev); err != nil {
		t.Fatal(err)
	}
	if u.AnonymousID == prev.AnonymousID {
		t.Error("anonymous id unchanged after security response change")
	}
	if u.AnonymousID != ComputeAnonymousID("red", "jane@gmail.com") {
		t.Error("recomputed anonymous id not deterministic")
	}
	// username follows the email only
	if u.Username != "jane" {
		t.Errorf("username = %q, want jane", u.Username)
	}

	prev = u
	u.Email = "john@gmail.com"
	if err := u.Normalize(&prev); err != nil {
		t.Fatal(err)
	}
	if u.Username != "john" {
		t.Errorf("username = %q, want john after email change", u.Username)
	}
	if u.AnonymousID != ComputeAnonymousID("red", "john@gmail.com") {
		t.Error("anonymous id not recomputed after email change")
	}
}
