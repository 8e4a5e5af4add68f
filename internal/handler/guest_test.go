package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MuthonduG/reports-api/internal/models"
	"github.com/MuthonduG/reports-api/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestGuestToken(t *testing.T) {
	db := openTestDB(t)
	h := NewGuestHandler(db, "test-secret", "reports-api", 30)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/guest-token/", nil)
	h.GuestToken(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, w.Body.String(), "access_token")

	// guest row: expiry exactly 30 days after creation
	var guest models.Guest
	require.NoError(t, db.First(&guest).Error)
	require.True(t, strings.HasPrefix(guest.GuestID, "guest_"))
	require.Len(t, guest.GuestID, len("guest_")+16)
	require.True(t, guest.ExpiryAt.Equal(guest.CreatedAt.Add(30*24*time.Hour)),
		"expiry must be exactly 30 days after creation")

	// cookie: HttpOnly, Secure, strict same-site, key jwt
	res := w.Result()
	var cookie *http.Cookie
	for _, ck := range res.Cookies() {
		if ck.Name == "jwt" {
			cookie = ck
		}
	}
	require.NotNil(t, cookie, "jwt cookie not set")
	require.True(t, cookie.HttpOnly)
	require.True(t, cookie.Secure)
	require.Equal(t, http.SameSiteStrictMode, cookie.SameSite)

	// token carries the guest identifier as a claim
	claims, err := util.ParseToken("test-secret", cookie.Value)
	require.NoError(t, err)
	require.Equal(t, guest.GuestID, claims.GuestID)
}
