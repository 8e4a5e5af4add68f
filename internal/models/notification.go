package models

import "time"

// Notification is a per-user activity entry (report created, status changed).
type Notification struct {
	ID          uint   `gorm:"primaryKey"`
	ActorID     uint   `gorm:"index;not null"`
	RecipientID uint   `gorm:"index;not null"`
	Verb        string `gorm:"size:150;not null"`
	Description string `gorm:"size:1000"`
	ReportID    *uint  `gorm:"index"`
	Read        bool   `gorm:"default:false"`
	CreatedAt   time.Time
}
