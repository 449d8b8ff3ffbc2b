package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/dansduels/community-backend/internal/database"
	"github.com/dansduels/community-backend/internal/middleware"
	"github.com/dansduels/community-backend/internal/models"
	"github.com/dansduels/community-backend/internal/utils"
	"github.com/dansduels/community-backend/pkg/jwt"
)

// AuthHandler handles local credential authentication
type AuthHandler struct {
	jwtService *jwt.Service
	users      *database.UserRepository
	bcryptCost int
	logger     *logrus.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(jwtService *jwt.Service, users *database.UserRepository, bcryptCost int, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		jwtService: jwtService,
		users:      users,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// LoginRequest represents a username and password login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents a successful login
type LoginResponse struct {
	Message string            `json:"message"`
	Token   string            `json:"token"`
	User    models.PublicUser `json:"user"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Username and password are required",
		})
		return
	}

	user, err := h.users.GetUserByUsername(req.Username)
	if err != nil {
		h.logger.WithError(err).Error("Failed to look up user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Login failed",
		})
		return
	}

	// Discord-linked accounts have no local password.
	if user == nil || !user.PasswordHash.Valid {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_credentials",
			Message: "Invalid username or password",
		})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash.String), []byte(req.Password)); err != nil {
		h.logger.WithFields(logrus.Fields{
			"username": req.Username,
			"ip":       utils.GetRealIP(c),
		}).Warn("Failed login attempt")
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_credentials",
			Message: "Invalid username or password",
		})
		return
	}

	if user.Status != "active" {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "account_disabled",
			Message: "This account has been disabled",
		})
		return
	}

	token, err := h.jwtService.GenerateToken(user.ID, user.Username, user.DiscordID.String, user.Role)
	if err != nil {
		h.logger.WithError(err).Error("Failed to issue token")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Login failed",
		})
		return
	}

	if err := h.users.UpdateLastLogin(user.ID); err != nil {
		h.logger.WithError(err).Warn("Failed to record last login")
	}

	device := utils.ParseUserAgent(utils.GetUserAgent(c))
	h.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"ip":      utils.GetRealIP(c),
		"device":  device.DeviceType,
		"os":      device.OS,
		"browser": device.Browser,
	}).Info("Local login completed")

	c.JSON(http.StatusOK, LoginResponse{
		Message: "Login successful",
		Token:   token,
		User:    user.Public(),
	})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	user, err := h.users.GetUserByID(userCtx.UserID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load account")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to load account",
		})
		return
	}
	if user == nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Account no longer exists",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user.Public()})
}

// RegisterRequest represents a new local account
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// Register handles POST /api/auth/register. New accounts always start
// as plain members; roles are raised by an admin afterwards.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "username, email and a password of at least 8 characters are required",
		})
		return
	}

	existing, err := h.users.GetUserByUsername(req.Username)
	if err == nil && existing != nil {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "username_taken",
			Message: "That username is already in use",
		})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.bcryptCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to create account",
		})
		return
	}

	user, err := h.users.CreateLocalUser(req.Username, req.Email, string(hash), models.RoleMember)
	if err != nil {
		h.logger.WithError(err).Error("Registration failed")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "registration_failed",
			Message: err.Error(),
		})
		return
	}

	token, err := h.jwtService.GenerateToken(user.ID, user.Username, "", user.Role)
	if err != nil {
		h.logger.WithError(err).Error("Failed to issue session after registration")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Account created but login failed",
		})
		return
	}

	h.logger.WithField("user_id", user.ID).Info("Local account registered")

	c.JSON(http.StatusCreated, LoginResponse{
		Message: "Account created",
		Token:   token,
		User:    user.Public(),
	})
}

// ChangePasswordRequest represents a password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

// ChangePassword handles POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Current and new passwords are required; the new password must be at least 8 characters",
		})
		return
	}

	user, err := h.users.GetUserByID(userCtx.UserID)
	if err != nil || user == nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to load account",
		})
		return
	}

	if !user.PasswordHash.Valid {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "no_local_password",
			Message: "This account signs in through Discord",
		})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash.String), []byte(req.CurrentPassword)); err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_credentials",
			Message: "Current password is incorrect",
		})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), h.bcryptCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to update password",
		})
		return
	}

	if err := h.users.UpdatePassword(user.ID, string(hash)); err != nil {
		h.logger.WithError(err).Error("Failed to update password")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to update password",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}
