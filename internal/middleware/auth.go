package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/MuthonduG/reports-api/internal/models"
	"github.com/MuthonduG/reports-api/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CookieName is where guest/user tokens land on the client.
const CookieName = "jwt"

const (
	ctxUserKey  = "currentUser"
	ctxGuestKey = "guestID"
)

func extractToken(c *gin.Context) string {
	// 1) Header: Authorization: Bearer xxx
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}

	// 2) URL query param ?token=xxx (downloads and other header-less cases)
	if t := c.Query("token"); t != "" {
		return t
	}

	// 3) Cookie set by the guest-token and login endpoints
	if cookie, err := c.Cookie(CookieName); err == nil {
		return cookie
	}
	return ""
}

// AuthMiddleware verifies the JWT and puts the current principal in the
// context. User tokens load the user row and require an active account;
// guest tokens carry only the guest identifier.
func AuthMiddleware(jwtSecret string, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := extractToken(c)
		if tokenStr == "" {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "Authentication credentials were not provided.")
			c.Abort()
			return
		}

		claims, err := util.ParseToken(jwtSecret, tokenStr)
		if err != nil || claims.ExpiresAt == nil || claims.ExpiresAt.Before(time.Now()) {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "Token is invalid or expired.")
			c.Abort()
			return
		}

		if claims.GuestID != "" {
			c.Set(ctxGuestKey, claims.GuestID)
			c.Next()
			return
		}

		var user models.User
		if err := db.First(&user, claims.UserID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				util.Error(c, http.StatusUnauthorized, util.CodeAuth, "No such user.")
			} else {
				util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Failed to load user.")
			}
			c.Abort()
			return
		}
		if !user.IsActive {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "Account is not activated.")
			c.Abort()
			return
		}

		c.Set(ctxUserKey, &user)
		c.Next()
	}
}

// RequireUser blocks guest principals from write endpoints.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			util.Error(c, http.StatusForbidden, util.CodeForbidden, "Guests cannot perform this action.")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireStaff blocks everyone but staff users.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok || !user.IsStaff {
			util.Error(c, http.StatusForbidden, util.CodeForbidden, "You do not have permission to perform this action.")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user, if the principal is one.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}

// CurrentGuestID returns the guest identifier, if the principal is a guest.
func CurrentGuestID(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxGuestKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
