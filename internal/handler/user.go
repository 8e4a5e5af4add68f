package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/MuthonduG/reports-api/internal/config"
	"github.com/MuthonduG/reports-api/internal/middleware"
	"github.com/MuthonduG/reports-api/internal/models"
	"github.com/MuthonduG/reports-api/internal/otp"
	"github.com/MuthonduG/reports-api/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserHandler covers account management: registration (staff-only), login,
// OTP verification/resend and user CRUD.
type UserHandler struct {
	DB            *gorm.DB
	OTP           *otp.Service
	JWT           config.JWTConfig
	AllowedDomain string
	Logger        *zap.Logger
}

func NewUserHandler(db *gorm.DB, otpSvc *otp.Service, jwtCfg config.JWTConfig, allowedDomain string, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		DB:            db,
		OTP:           otpSvc,
		JWT:           jwtCfg,
		AllowedDomain: allowedDomain,
		Logger:        logger,
	}
}

type userResp struct {
	ID          uint      `json:"id"`
	Email       string    `json:"email"`
	AnonymousID string    `json:"anonymous_unique_id"`
	Username    string    `json:"username"`
	Department  string    `json:"department"`
	IsActive    bool      `json:"is_active"`
	IsStaff     bool      `json:"is_staff"`
	DateJoined  time.Time `json:"date_joined"`
}

func toUserResp(u *models.User) userResp {
	return userResp{
		ID:          u.ID,
		Email:       u.Email,
		AnonymousID: u.AnonymousID,
		Username:    u.Username,
		Department:  u.Department,
		IsActive:    u.IsActive,
		IsStaff:     u.IsStaff,
		DateJoined:  u.DateJoined,
	}
}

func (h *UserHandler) tokens(u *models.User) (access, refresh string, err error) {
	access, err = util.GenerateUserToken(h.JWT.Secret, h.JWT.Issuer,
		u.ID, u.Email, u.IsStaff, u.AnonymousID,
		time.Duration(h.JWT.AccessExpireHours)*time.Hour)
	if err != nil {
		return "", "", err
	}
	refresh, err = util.GenerateUserToken(h.JWT.Secret, h.JWT.Issuer,
		u.ID, u.Email, u.IsStaff, u.AnonymousID,
		time.Duration(h.JWT.RefreshExpireHours)*time.Hour)
	return access, refresh, err
}

// ---------- login ----------

type loginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login exchanges email+password for access/refresh tokens carrying the
// custom claims (email, is_staff, anonymous_unique_id).
func (h *UserHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "Email and password are required.")
		return
	}

	var user models.User
	if err := h.DB.Where("email = ?", models.NormalizeEmail(req.Email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "Invalid email or password.")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Failed to load user.")
		}
		return
	}

	if !user.CheckPassword(req.Password) {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "Invalid email or password.")
		return
	}
	if !user.IsActive {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "Account is not activated.")
		return
	}

	access, refresh, err := h.tokens(&user)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Failed to generate token.")
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.CookieName, access, int(time.Duration(h.JWT.AccessExpireHours)*time.Hour/time.Second), "/", "", true, true)

	util.Success(c, util.Response{
		"access":  access,
		"refresh": refresh,
		"user":    toUserResp(&user),
	})
}

// ---------- registration (staff-only) ----------

type registerReq struct {
	Email            string `json:"email" binding:"required,email"`
	Password         string `json:"password" binding:"required,min=8,max=64"`
	SecurityResponse string `json:"security_query_response" binding:"required"`
	Department       string `json:"department" binding:"max=256"`
	IsStaff          bool   `json:"is_staff"`
}

// Register creates an account. Only staff reach this handler (RequireStaff
// on the route). Non-staff accounts get an OTP issued right after creation.
func (h *UserHandler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "Invalid registration payload.")
		return
	}

	email := models.NormalizeEmail(req.Email)
	if err := models.ValidateEmailDomain(email, h.AllowedDomain); err != nil {
		util.FieldError(c, "email", "Only @"+h.AllowedDomain+" emails are allowed.")
		return
	}

	var count int64
	if err := h.DB.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Failed to check email.")
		return
	}
	if count > 0 {
		util.FieldError(c, "email", "This email address is already in use.")
		return
	}

	user := models.User{
		Email:            email,
		Password:         req.Password,
		SecurityResponse: req.SecurityResponse,
		Department:       req.Department,
		IsStaff:          req.IsStaff,
		DateJoined:       time.Now(),
	}
	if err := user.Normalize(nil); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Failed to prepare user.")
		return
	}
	if err := h.DB.Create(&user).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Failed to create user.")
		return
	}

	// create-then-issue, in that order: new non-staff accounts must verify
	// their address before they can do anything
	if !user.IsStaff {
		if _, err := h.OTP.Issue(&user); err != nil {
			h.Logger.Error("failed to issue OTP for new user",
				zap.String("email", user.Email), zap.Error(err))
		}
	}

	access, refresh, err := h.tokens(&user)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Failed to generate token.")
		return
	}

	util.Created(c, util.Response{
		"user":    toUserResp(&user),
		"access":  access,
		"refresh": refresh,
	})
}

// ---------- OTP ----------

type verifyEmailReq struct {
	Email   string `json:"email" binding:"required"`
	OTPCode string `json:"otp_code" binding:"required"`
}

// VerifyEmail activates an account with a one-time code.
func (h *UserHandler) VerifyEmail(c *gin.Context) {
	var req verifyEmailReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "Email and OTP code are required.")
		return
	}

	switch err := h.OTP.Verify(req.Email, req.OTPCode); {
	case err == nil:
		util.Success(c, util.Response{"message": "Account has been activated successfully!"})
	case errors.Is(err, otp.ErrUserNotFound):
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "User not found.")
	case errors.Is(err, otp.ErrNoToken):
		util.Error(c, http.StatusNotFound, util.CodeNotFound, err.Error())
	case errors.Is(err, otp.ErrExpired), errors.Is(err, otp.ErrInvalidCode):
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
	default:
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Failed to verify OTP.")
	}
}

// ResendOTP invalidates prior codes and emails a fresh one.
func (h *UserHandler) ResendOTP(c *gin.Context) {
	email := c.Param("email")

	switch err := h.OTP.Resend(email); {
	case err == nil:
		util.Success(c, util.Response{"message": "A new OTP has been sent to your email address."})
	case errors.Is(err, otp.ErrUserNotFound):
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "User not found.")
	default:
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Failed to send OTP. Please try again later.")
	}
}

// ---------- CRUD ----------

// ListUsers returns all users.
func (h *UserHandler) ListUsers(c *gin.Context) {
	var users []models.User
	if err := h.DB.Find(&users).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Failed to list users.")
		return
	}

	out := make([]userResp, 0, len(users))
	for i := range users {
		out = append(out, toUserResp(&users[i]))
	}
	util.Success(c, util.Response{"users": out})
}

// GetUser returns one user by id.
func (h *UserHandler) GetUser(c *gin.Context) {
	var user models.User
	if err := h.DB.First(&user, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "User not found.")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Failed to load user.")
		}
		return
	}
	util.Success(c, util.Response{"user": toUserResp(&user)})
}

type updateUserReq struct {
	Email            *string `json:"email"`
	Password         *string `json:"password"`
	SecurityResponse *string `json:"security_query_response"`
	Department       *string `json:"department"`
}

// UpdateUser applies a partial update and re-runs the derivation rules, so
// an email or security-response change recomputes the anonymous id.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var user models.User
	if err := h.DB.First(&user, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "User not found.")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Failed to load user.")
		}
		return
	}

	var req updateUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "Invalid update payload.")
		return
	}

	prev := user
	if req.Email != nil {
		email := models.NormalizeEmail(*req.Email)
		if err := models.ValidateEmailDomain(email, h.AllowedDomain); err != nil {
			util.FieldError(c, "email", "Only @"+h.AllowedDomain+" emails are allowed.")
			return
		}
		var count int64
		if err := h.DB.Model(&models.User{}).
			Where("email = ? AND id <> ?", email, user.ID).
			Count(&count).Error; err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Failed to check email.")
			return
		}
		if count > 0 {
			util.FieldError(c, "email", "This email address is already in use.")
			return
		}
		user.Email = email
	}
	if req.Password != nil {
		user.Password = *req.Password
	}
	if req.SecurityResponse != nil {
		user.SecurityResponse = *req.SecurityResponse
	}
	if req.Department != nil {
		user.Department = *req.Department
	}

	if err := user.Normalize(&prev); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Failed to prepare user.")
		return
	}
	if err := h.DB.Save(&user).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Failed to update user.")
		return
	}
	util.Success(c, util.Response{"user": toUserResp(&user)})
}

// DeleteUser removes a user; OTP tokens and reports cascade.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	var user models.User
	if err := h.DB.First(&user, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "User not found.")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Failed to load user.")
		}
		return
	}

	if err := h.DB.Delete(&user).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Failed to delete user.")
		return
	}
	util.Success(c, util.Response{"message": "User account successfully deleted!"})
}
