package models

import "time"

// Guest is an anonymous session record. Not linked to User; swept once past
// its expiry.
type Guest struct {
	ID        uint   `gorm:"primaryKey"`
	GuestID   string `gorm:"size:32;uniqueIndex;not null"`
	CreatedAt time.Time
	ExpiryAt  time.Time `gorm:"index;not null"`
}

// IsExpired reports whether the guest record is past its expiry.
func (g *Guest) IsExpired(now time.Time) bool {
	return now.After(g.ExpiryAt)
}
