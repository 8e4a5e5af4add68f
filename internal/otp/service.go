package otp

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MuthonduG/reports-api/internal/mailer"
	"github.com/MuthonduG/reports-api/internal/models"
	"github.com/MuthonduG/reports-api/internal/util"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Sentinel errors mapped to HTTP statuses by the handlers.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrNoToken      = errors.New("No OTP found for this user.")
	ErrExpired      = errors.New("The OTP has expired. Please request a new one.")
	ErrInvalidCode  = errors.New("Invalid OTP. Please try again.")
)

// Service owns the OTP token lifecycle: issue, verify, resend.
type Service struct {
	DB     *gorm.DB
	Mailer mailer.Mailer
	TTL    time.Duration
	Logger *zap.Logger

	// Now is overridable in tests.
	Now func() time.Time
}

func NewService(db *gorm.DB, m mailer.Mailer, ttl time.Duration, logger *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{DB: db, Mailer: m, TTL: ttl, Logger: logger, Now: time.Now}
}

// Issue creates a fresh token for the user and emails the code. The token
// row is persisted even when the email fails; the error is returned so the
// resend path can surface it.
func (s *Service) Issue(user *models.User) (*models.OtpToken, error) {
	code, err := util.RandomOTPCode()
	if err != nil {
		return nil, fmt.Errorf("generate otp code: %w", err)
	}

	now := s.Now()
	token := models.OtpToken{
		UserID:    user.ID,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(s.TTL),
	}
	if err := s.DB.Create(&token).Error; err != nil {
		return nil, fmt.Errorf("create otp token: %w", err)
	}

	body := fmt.Sprintf(
		"Hi %s, welcome to Anonymous.\nYour OTP is: %s\nIt expires in exactly one hour.",
		user.Email, code,
	)
	if err := s.Mailer.Send(user.Email, "Anonymous Email Verification", body); err != nil {
		return &token, fmt.Errorf("send otp email: %w", err)
	}
	return &token, nil
}

// Verify validates (email, code) and on success activates the user, sends a
// best-effort confirmation email, and deletes the consumed token.
func (s *Service) Verify(email, code string) error {
	email = models.NormalizeEmail(email)

	var user models.User
	if err := s.DB.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	// most recently created token counts as current
	var token models.OtpToken
	if err := s.DB.Where("user_id = ?", user.ID).
		Order("created_at DESC").First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoToken
		}
		return fmt.Errorf("lookup otp token: %w", err)
	}

	if s.Now().After(token.ExpiresAt) {
		// expired tokens are not consumed; resend replaces them
		return ErrExpired
	}

	if !strings.EqualFold(token.Code, code) {
		return ErrInvalidCode
	}

	user.IsActive = true
	if err := s.DB.Save(&user).Error; err != nil {
		return fmt.Errorf("activate user: %w", err)
	}
	s.Logger.Info("account activated via OTP", zap.String("email", user.Email))

	// confirmation is best effort; the activation stands either way
	if err := s.Mailer.Send(user.Email, "Account Activated",
		"Your account has been successfully activated!"); err != nil {
		s.Logger.Error("failed to send activation email",
			zap.String("email", user.Email), zap.Error(err))
	}

	if err := s.DB.Delete(&token).Error; err != nil {
		return fmt.Errorf("delete consumed token: %w", err)
	}
	return nil
}

// Resend invalidates all of the user's prior tokens and issues a fresh one.
// A mail failure here is surfaced to the caller.
func (s *Service) Resend(email string) error {
	email = models.NormalizeEmail(email)

	var user models.User
	if err := s.DB.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	if err := s.DB.Where("user_id = ?", user.ID).
		Delete(&models.OtpToken{}).Error; err != nil {
		return fmt.Errorf("delete superseded tokens: %w", err)
	}

	if _, err := s.Issue(&user); err != nil {
		s.Logger.Error("failed to generate/send OTP",
			zap.String("email", user.Email), zap.Error(err))
		return err
	}
	s.Logger.Info("generated and sent new OTP", zap.String("email", user.Email))
	return nil
}
