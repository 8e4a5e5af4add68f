package handler

import (
	"net/http"
	"time"

	"github.com/MuthonduG/reports-api/internal/middleware"
	"github.com/MuthonduG/reports-api/internal/models"
	"github.com/MuthonduG/reports-api/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GuestHandler mints anonymous guest sessions.
type GuestHandler struct {
	DB         *gorm.DB
	JWTSecret  string
	JWTIssuer  string
	ExpireDays int
}

func NewGuestHandler(db *gorm.DB, jwtSecret, jwtIssuer string, expireDays int) *GuestHandler {
	if expireDays <= 0 {
		expireDays = 30
	}
	return &GuestHandler{
		DB:         db,
		JWTSecret:  jwtSecret,
		JWTIssuer:  jwtIssuer,
		ExpireDays: expireDays,
	}
}

// GuestToken issues a guest identifier and bearer token. No login required.
func (h *GuestHandler) GuestToken(c *gin.Context) {
	suffix, err := util.RandomString(16)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Failed to generate guest id.")
		return
	}
	guestID := "guest_" + suffix

	now := time.Now()
	ttl := time.Duration(h.ExpireDays) * 24 * time.Hour
	guest := models.Guest{
		GuestID:   guestID,
		CreatedAt: now,
		ExpiryAt:  now.Add(ttl),
	}
	if err := h.DB.Create(&guest).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Failed to create guest.")
		return
	}

	token, err := util.GenerateGuestToken(h.JWTSecret, h.JWTIssuer, guest.GuestID, ttl)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Failed to generate token.")
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.CookieName, token, int(ttl.Seconds()), "/", "", true, true)

	util.Created(c, util.Response{
		"access_token": token,
	})
}
