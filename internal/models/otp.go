package models

import "time"

// OtpToken is a one-time email verification code. A user accumulates rows
// over time; only the most recently created one counts as current.
type OtpToken struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index;not null"`
	Code      string `gorm:"size:6;not null"`
	CreatedAt time.Time
	ExpiresAt time.Time `gorm:"index;not null"`

	User User `gorm:"constraint:OnDelete:CASCADE"`
}

// IsValid reports whether the code can still be redeemed.
func (t *OtpToken) IsValid(now time.Time) bool {
	return now.Before(t.ExpiresAt)
}
