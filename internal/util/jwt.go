package util

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the JWT payload. User tokens carry email/is_staff/anonymous id;
// guest tokens carry only guest_id.
type Claims struct {
	UserID      uint   `json:"user_id,omitempty"`
	Email       string `json:"email,omitempty"`
	IsStaff     bool   `json:"is_staff,omitempty"`
	AnonymousID string `json:"anonymous_unique_id,omitempty"`
	GuestID     string `json:"guest_id,omitempty"`
	jwt.RegisteredClaims
}

func sign(secret, issuer string, claims *Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    issuer,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// GenerateUserToken mints an HS256 token with the user's custom claims.
func GenerateUserToken(secret, issuer string, userID uint, email string, isStaff bool, anonymousID string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return sign(secret, issuer, &Claims{
		UserID:      userID,
		Email:       email,
		IsStaff:     isStaff,
		AnonymousID: anonymousID,
	}, ttl)
}

// GenerateGuestToken mints an HS256 token carrying only the guest identifier.
func GenerateGuestToken(secret, issuer, guestID string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return sign(secret, issuer, &Claims{GuestID: guestID}, ttl)
}

// ParseToken parses and verifies a token, returning its claims.
func ParseToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
