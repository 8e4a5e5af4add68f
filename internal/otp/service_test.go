package otp

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/MuthonduG/reports-api/internal/database"
	"github.com/MuthonduG/reports-api/internal/models"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeMailer struct {
	sent []string // "to|subject"
	fail bool
}

func (m *fakeMailer) Send(to, subject, body string) error {
	if m.fail {
		return errors.New("smtp down")
	}
	m.sent = append(m.sent, to+"|"+subject)
	return nil
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func newTestService(t *testing.T) (*Service, *fakeMailer, *models.User) {
	t.Helper()
	db := openTestDB(t)

	user := models.User{Email: "jane@gmail.com", Password: "pbkdf2$x$y", SecurityResponse: "blue"}
	require.NoError(t, db.Create(&user).Error)

	m := &fakeMailer{}
	svc := NewService(db, m, time.Hour, zap.NewNop())
	return svc, m, &user
}

func TestIssueCreatesTokenAndSendsMail(t *testing.T) {
	svc, m, user := newTestService(t)

	token, err := svc.Issue(user)
	require.NoError(t, err)
	require.Len(t, token.Code, 6)
	require.WithinDuration(t, token.CreatedAt.Add(time.Hour), token.ExpiresAt, time.Second)
	require.Len(t, m.sent, 1)
	require.Equal(t, "jane@gmail.com|Anonymous Email Verification", m.sent[0])
}

func TestIssueMailFailureKeepsToken(t *testing.T) {
	svc, m, user := newTestService(t)
	m.fail = true

	_, err := svc.Issue(user)
	require.Error(t, err)

	var count int64
	require.NoError(t, svc.DB.Model(&models.OtpToken{}).Count(&count).Error)
	require.EqualValues(t, 1, count, "token row must survive the mail failure")
}

func TestVerifySuccessActivatesAndConsumes(t *testing.T) {
	svc, m, user := newTestService(t)
	token, err := svc.Issue(user)
	require.NoError(t, err)

	// thirty minutes in: still valid, case-insensitive match
	svc.Now = func() time.Time { return token.CreatedAt.Add(30 * time.Minute) }
	require.NoError(t, svc.Verify("jane@gmail.com", token.Code))

	var reloaded models.User
	require.NoError(t, svc.DB.First(&reloaded, user.ID).Error)
	require.True(t, reloaded.IsActive)
	require.False(t, reloaded.IsStaff, "activation must not grant staff")

	var count int64
	require.NoError(t, svc.DB.Model(&models.OtpToken{}).Count(&count).Error)
	require.EqualValues(t, 0, count, "consumed token must be deleted")

	// verification + activation confirmation
	require.Len(t, m.sent, 2)
	require.Equal(t, "jane@gmail.com|Account Activated", m.sent[1])
}

func TestVerifyCaseInsensitiveCode(t *testing.T) {
	svc, _, user := newTestService(t)
	token, err := svc.Issue(user)
	require.NoError(t, err)

	lower := ""
	for _, ch := range token.Code {
		if ch >= 'A' && ch <= 'Z' {
			ch += 'a' - 'A'
		}
		lower += string(ch)
	}
	require.NoError(t, svc.Verify("jane@gmail.com", lower))
}

func TestVerifyExpiredNotConsumed(t *testing.T) {
	svc, _, user := newTestService(t)
	token, err := svc.Issue(user)
	require.NoError(t, err)

	svc.Now = func() time.Time { return token.CreatedAt.Add(61 * time.Minute) }
	err = svc.Verify("jane@gmail.com", token.Code)
	require.ErrorIs(t, err, ErrExpired)

	var count int64
	require.NoError(t, svc.DB.Model(&models.OtpToken{}).Count(&count).Error)
	require.EqualValues(t, 1, count, "expired token is rejected without being consumed")

	var reloaded models.User
	require.NoError(t, svc.DB.First(&reloaded, user.ID).Error)
	require.False(t, reloaded.IsActive)
}

func TestVerifyWrongCode(t *testing.T) {
	svc, _, user := newTestService(t)
	_, err := svc.Issue(user)
	require.NoError(t, err)

	require.ErrorIs(t, svc.Verify("jane@gmail.com", "ZZZZZZ"), ErrInvalidCode)
}

func TestVerifyUnknownUserAndMissingToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	require.ErrorIs(t, svc.Verify("nobody@gmail.com", "ABC123"), ErrUserNotFound)

	// user exists, never issued a token
	require.ErrorIs(t, svc.Verify("jane@gmail.com", "ABC123"), ErrNoToken)
}

func TestVerifyUsesLatestToken(t *testing.T) {
	svc, _, user := newTestService(t)

	base := time.Now()
	svc.Now = func() time.Time { return base }
	first, err := svc.Issue(user)
	require.NoError(t, err)

	svc.Now = func() time.Time { return base.Add(time.Minute) }
	second, err := svc.Issue(user)
	require.NoError(t, err)

	if first.Code != second.Code {
		require.ErrorIs(t, svc.Verify("jane@gmail.com", first.Code), ErrInvalidCode)
	}
	require.NoError(t, svc.Verify("jane@gmail.com", second.Code))
}

func TestResendSupersedesPriorTokens(t *testing.T) {
	svc, m, user := newTestService(t)
	_, err := svc.Issue(user)
	require.NoError(t, err)
	_, err = svc.Issue(user)
	require.NoError(t, err)

	require.NoError(t, svc.Resend("jane@gmail.com"))

	var count int64
	require.NoError(t, svc.DB.Model(&models.OtpToken{}).Count(&count).Error)
	require.EqualValues(t, 1, count, "resend leaves exactly one current token")
	require.Len(t, m.sent, 3)
}

func TestResendMailFailureSurfaces(t *testing.T) {
	svc, m, _ := newTestService(t)
	m.fail = true
	require.Error(t, svc.Resend("jane@gmail.com"))
}

func TestResendUnknownUser(t *testing.T) {
	svc, _, _ := newTestService(t)
	require.ErrorIs(t, svc.Resend("nobody@gmail.com"), ErrUserNotFound)
}
