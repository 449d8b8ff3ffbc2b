package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/dansduels/community-backend/internal/database"
	"github.com/dansduels/community-backend/internal/middleware"
	"github.com/dansduels/community-backend/internal/models"
)

// UserHandler handles admin account management
type UserHandler struct {
	users      *database.UserRepository
	posts      *database.PostRepository
	events     *database.EventRepository
	pastStaff  *database.PastStaffRepository
	bcryptCost int
	logger     *logrus.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(
	users *database.UserRepository,
	posts *database.PostRepository,
	events *database.EventRepository,
	pastStaff *database.PastStaffRepository,
	bcryptCost int,
	logger *logrus.Logger,
) *UserHandler {
	return &UserHandler{
		users:      users,
		posts:      posts,
		events:     events,
		pastStaff:  pastStaff,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// List handles GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	limit, offset := parsePagination(c)

	users, err := h.users.ListUsers(limit, offset)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list users")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to load users",
		})
		return
	}

	total, err := h.users.CountUsers()
	if err != nil {
		total = len(users)
	}

	public := make([]models.PublicUser, 0, len(users))
	for _, u := range users {
		public = append(public, u.Public())
	}

	c.JSON(http.StatusOK, gin.H{
		"users": public,
		"total": total,
	})
}

// CreateUserRequest creates a local account
type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required"`
}

// Create handles POST /api/users
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "username, email, role and a password of at least 8 characters are required",
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
			Message: "Failed to create user",
		})
		return
	}

	user, err := h.users.CreateLocalUser(req.Username, req.Email, string(hash), req.Role)
	if err != nil {
		h.logger.WithError(err).Error("Failed to create user")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "create_failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user.Public()})
}

// Get handles GET /api/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "User id must be numeric",
		})
		return
	}

	user, err := h.users.GetUserByID(id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to load user",
		})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "User not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user.Public()})
}

// UpdateRoleRequest changes a user's role
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// UpdateRole handles PATCH /api/users/:id/role
func (h *UserHandler) UpdateRole(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "User id must be numeric",
		})
		return
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "role is required",
		})
		return
	}

	if err := h.users.UpdateUserRole(id, req.Role); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "update_failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User role updated"})
}

// UpdateUserRequest edits a user's account fields
type UpdateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Role     string `json:"role" binding:"required"`
	Status   string `json:"status" binding:"required"`
}

// Update handles PUT /api/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "User id must be numeric",
		})
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "username, email, role and status are required",
		})
		return
	}

	if err := h.users.UpdateUser(id, req.Username, req.Email, req.Role, req.Status); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "update_failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User updated"})
}

// Delete handles DELETE /api/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "User id must be numeric",
		})
		return
	}

	userCtx := middleware.MustGetUserContext(c)
	if userCtx.UserID == id {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "self_delete",
			Message: "You cannot delete your own account",
		})
		return
	}

	if err := h.users.DeleteUser(id); err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "User not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

// Overview handles GET /api/users/stats/overview. It summarizes site
// accounts and content for the admin dashboard.
func (h *UserHandler) Overview(c *gin.Context) {
	byRole, err := h.users.CountUsersByRole()
	if err != nil {
		h.logger.WithError(err).Error("Failed to count users by role")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to load overview",
		})
		return
	}

	total := 0
	for _, n := range byRole {
		total += n
	}

	recentLogins, err := h.users.CountRecentLogins(time.Now().Add(-7 * 24 * time.Hour))
	if err != nil {
		recentLogins = 0
	}

	postCount, err := h.posts.Count()
	if err != nil {
		postCount = 0
	}

	eventCount, err := h.events.Count()
	if err != nil {
		eventCount = 0
	}

	pastStaffCount, err := h.pastStaff.Count()
	if err != nil {
		pastStaffCount = 0
	}

	c.JSON(http.StatusOK, gin.H{
		"users": gin.H{
			"total":         total,
			"by_role":       byRole,
			"recent_logins": recentLogins,
		},
		"posts":      postCount,
		"events":     eventCount,
		"past_staff": pastStaffCount,
	})
}
