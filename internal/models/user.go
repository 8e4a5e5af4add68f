package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/MuthonduG/reports-api/internal/util"
)

// User represents a reporting-platform account. Accounts start inactive and
// are activated through OTP email verification.
type User struct {
	ID               uint   `gorm:"primaryKey"`
	Email            string `gorm:"size:254;uniqueIndex;not null"`
	Password         string `gorm:"size:255;not null"` // always a pbkdf2$salt$hash string
	AnonymousID      string `gorm:"size:256;index"`    // sha256(security_response:email)
	SecurityResponse string `gorm:"size:256"`
	Username         string `gorm:"size:256"` // derived from email local-part when unset
	Department       string `gorm:"size:256"`
	IsActive         bool   `gorm:"default:false"`
	IsStaff          bool   `gorm:"default:false"`
	DateJoined       time.Time
}

// NormalizeEmail trims surrounding whitespace and lowercases the domain part.
// The local part is preserved as entered.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

// ComputeAnonymousID derives the pseudonymous identifier used in place of a
// real identity on reports. Deterministic: same inputs, same id.
func ComputeAnonymousID(securityResponse, email string) string {
	sum := sha256.Sum256([]byte(securityResponse + ":" + email))
	return hex.EncodeToString(sum[:])
}

// DeriveUsername returns the display name derived from the email local-part.
func DeriveUsername(email string) string {
	if at := strings.Index(email, "@"); at >= 0 {
		return email[:at]
	}
	return email
}

// ValidateEmailDomain rejects addresses outside the allowed domain.
func ValidateEmailDomain(email, allowedDomain string) error {
	if !strings.HasSuffix(strings.ToLower(email), "@"+strings.ToLower(allowedDomain)) {
		return fmt.Errorf("only @%s emails are allowed", allowedDomain)
	}
	return nil
}

// Normalize applies the derivation rules before the user is persisted:
// the email is canonicalized, the anonymous id is recomputed when unset or
// when the email/security-response pair changed, the password is hashed when
// it is not already a hash, and the username falls back to the email
// local-part. prev carries the previously stored values (zero for a new user).
func (u *User) Normalize(prev *User) error {
	u.Email = NormalizeEmail(u.Email)

	identityChanged := prev == nil ||
		prev.Email != u.Email ||
		prev.SecurityResponse != u.SecurityResponse
	if u.AnonymousID == "" || identityChanged {
		u.AnonymousID = ComputeAnonymousID(u.SecurityResponse, u.Email)
	}

	if !util.LooksHashed(u.Password) {
		hashed, err := util.HashPassword(u.Password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		u.Password = hashed
	}

	emailChanged := prev == nil || prev.Email != u.Email
	if u.Username == "" || emailChanged {
		u.Username = DeriveUsername(u.Email)
	}
	return nil
}

// CheckPassword verifies a raw password against the stored hash.
func (u *User) CheckPassword(raw string) bool {
	return util.CheckPassword(raw, u.Password)
}
