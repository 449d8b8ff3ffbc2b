package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/dansduels/community-backend/internal/database"
	"github.com/dansduels/community-backend/internal/middleware"
	"github.com/dansduels/community-backend/internal/models"
	"github.com/dansduels/community-backend/internal/services"
)

// DocumentHandler handles staff document access
type DocumentHandler struct {
	documents *services.DocumentService
	identity  *services.IdentityService
	users     *database.UserRepository
	logger    *logrus.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(
	documents *services.DocumentService,
	identity *services.IdentityService,
	users *database.UserRepository,
	logger *logrus.Logger,
) *DocumentHandler {
	return &DocumentHandler{
		documents: documents,
		identity:  identity,
		users:     users,
		logger:    logger,
	}
}

// clearance resolves the caller's document access level from their
// live Discord rank. Fails closed to zero.
func (h *DocumentHandler) clearance(c *gin.Context) (int, *middleware.UserContext, bool) {
	userCtx := middleware.MustGetUserContext(c)

	user, err := h.users.GetUserByID(userCtx.UserID)
	if err != nil || user == nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Account no longer exists",
		})
		return 0, nil, false
	}

	level, err := h.identity.Clearance(c.Request.Context(), user)
	if err != nil {
		h.logger.WithError(err).Error("Failed to resolve document clearance")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to check access level",
		})
		return 0, nil, false
	}

	return level, &userCtx, true
}

// List handles GET /api/staff-documents
func (h *DocumentHandler) List(c *gin.Context) {
	level, _, ok := h.clearance(c)
	if !ok {
		return
	}

	var (
		docs []*models.StaffDocument
		err  error
	)
	if category := c.Query("category"); category != "" {
		docs, err = h.documents.ListByCategory(category, level)
	} else {
		docs, err = h.documents.List(level)
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to list documents")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to load documents",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"documents":    docs,
		"access_level": level,
	})
}

// Categories handles GET /api/staff-documents/categories/list
func (h *DocumentHandler) Categories(c *gin.Context) {
	categories, err := h.documents.Categories()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to load categories",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// Get handles GET /api/staff-documents/:id
func (h *DocumentHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Document id must be numeric",
		})
		return
	}

	level, userCtx, ok := h.clearance(c)
	if !ok {
		return
	}

	callerID := userCtx.DiscordID
	if callerID == "" {
		callerID = strconv.FormatInt(userCtx.UserID, 10)
	}

	doc, err := h.documents.Get(id, callerID, level)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDocumentNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Document not found",
			})
		case errors.Is(err, services.ErrInsufficientLevel):
			c.JSON(http.StatusForbidden, ErrorResponse{
				Error:   "insufficient_level",
				Message: "Your rank does not grant access to this document",
			})
		default:
			h.logger.WithError(err).Error("Failed to get document")
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "internal_error",
				Message: "Failed to load document",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"document": doc})
}

// Create handles POST /api/staff-documents
func (h *DocumentHandler) Create(c *gin.Context) {
	var req models.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Title and content are required",
		})
		return
	}

	level, userCtx, ok := h.clearance(c)
	if !ok {
		return
	}

	authorID := userCtx.DiscordID
	if authorID == "" {
		authorID = strconv.FormatInt(userCtx.UserID, 10)
	}

	doc, err := h.documents.Create(&req, authorID, userCtx.Username, level)
	if err != nil {
		if errors.Is(err, services.ErrInsufficientLevel) {
			c.JSON(http.StatusForbidden, ErrorResponse{
				Error:   "insufficient_level",
				Message: "Creating documents requires Management rank or above",
			})
			return
		}
		h.logger.WithError(err).Error("Failed to create document")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to create document",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"document": doc})
}

// Update handles PUT /api/staff-documents/:id
func (h *DocumentHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Document id must be numeric",
		})
		return
	}

	var req models.UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	level, userCtx, ok := h.clearance(c)
	if !ok {
		return
	}

	authorID := userCtx.DiscordID
	if authorID == "" {
		authorID = strconv.FormatInt(userCtx.UserID, 10)
	}

	if err := h.documents.Update(id, &req, authorID, level); err != nil {
		switch {
		case errors.Is(err, services.ErrDocumentNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Document not found",
			})
		case errors.Is(err, services.ErrInsufficientLevel):
			c.JSON(http.StatusForbidden, ErrorResponse{
				Error:   "insufficient_level",
				Message: "You cannot edit this document",
			})
		default:
			h.logger.WithError(err).Error("Failed to update document")
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "internal_error",
				Message: "Failed to update document",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Document updated"})
}

// Delete handles DELETE /api/staff-documents/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Document id must be numeric",
		})
		return
	}

	level, userCtx, ok := h.clearance(c)
	if !ok {
		return
	}

	authorID := userCtx.DiscordID
	if authorID == "" {
		authorID = strconv.FormatInt(userCtx.UserID, 10)
	}

	if err := h.documents.Delete(id, authorID, level); err != nil {
		switch {
		case errors.Is(err, services.ErrDocumentNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Document not found",
			})
		case errors.Is(err, services.ErrInsufficientLevel):
			c.JSON(http.StatusForbidden, ErrorResponse{
				Error:   "insufficient_level",
				Message: "You cannot delete this document",
			})
		default:
			h.logger.WithError(err).Error("Failed to delete document")
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "internal_error",
				Message: "Failed to delete document",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Document deleted"})
}
