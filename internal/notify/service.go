package notify

import (
	"fmt"

	"github.com/MuthonduG/reports-api/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service fans out in-app notifications. Failures are logged, never fatal:
// a report must not fail to save because its notification row did not.
type Service struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{DB: db, Logger: logger}
}

// Send records a notification from actor to recipient about a report.
func (s *Service) Send(actorID, recipientID uint, verb, description string, reportID *uint) {
	n := models.Notification{
		ActorID:     actorID,
		RecipientID: recipientID,
		Verb:        verb,
		Description: description,
		ReportID:    reportID,
	}
	if err := s.DB.Create(&n).Error; err != nil {
		s.Logger.Error("failed to record notification",
			zap.Uint("recipient", recipientID),
			zap.String("verb", verb),
			zap.Error(err))
	}
}

// ForUser returns the user's notifications, newest first.
func (s *Service) ForUser(userID uint) ([]models.Notification, error) {
	var out []models.Notification
	if err := s.DB.Where("recipient_id = ?", userID).
		Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}
