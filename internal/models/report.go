package models

import "time"

// Report is a whistle-blowing submission. Status stays false until a staff
// member resolves it; media keys point at the object store and are only set
// after the upload passed face-detection validation.
type Report struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      uint   `gorm:"index;not null"`
	Title       string `gorm:"size:150;not null"`
	Type        string `gorm:"size:150;not null"`
	Description string `gorm:"size:1000;not null"`
	Status      bool   `gorm:"default:false"`
	ImageKey    string `gorm:"size:255"`
	AudioKey    string `gorm:"size:255"`
	VideoKey    string `gorm:"size:255"`
	UploadedAt  time.Time

	User User `gorm:"constraint:OnDelete:CASCADE"`
}
