package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/dansduels/community-backend/internal/database"
	"github.com/dansduels/community-backend/internal/middleware"
	"github.com/dansduels/community-backend/internal/models"
)

// PostHandler handles community news posts
type PostHandler struct {
	posts  *database.PostRepository
	logger *logrus.Logger
}

// NewPostHandler creates a new post handler
func NewPostHandler(posts *database.PostRepository, logger *logrus.Logger) *PostHandler {
	return &PostHandler{posts: posts, logger: logger}
}

func parsePagination(c *gin.Context) (limit, offset int) {
	limit = 20
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}

// List handles GET /api/posts. Unauthenticated callers only see
// published posts; staff may pass ?all=true.
func (h *PostHandler) List(c *gin.Context) {
	limit, offset := parsePagination(c)

	publishedOnly := true
	if c.Query("all") == "true" {
		if _, authed := middleware.GetUserContext(c); authed {
			publishedOnly = false
		}
	}

	posts, err := h.posts.List(publishedOnly, limit, offset)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list posts")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to load posts",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// Get handles GET /api/posts/:id
func (h *PostHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Post id must be numeric",
		})
		return
	}

	post, err := h.posts.GetByID(id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get post")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to load post",
		})
		return
	}
	if post == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Post not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": post})
}

// Create handles POST /api/posts
func (h *PostHandler) Create(c *gin.Context) {
	var req models.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Title and content are required",
		})
		return
	}

	userCtx := middleware.MustGetUserContext(c)

	post := &models.Post{
		Title:      req.Title,
		Content:    req.Content,
		AuthorID:   userCtx.UserID,
		AuthorName: models.NewNullString(userCtx.Username),
		Published:  true,
	}
	if req.Category != "" {
		post.Category = models.NewNullString(req.Category)
	}
	if req.ImageURL != "" {
		post.ImageURL = models.NewNullString(req.ImageURL)
	}
	if req.Published != nil {
		post.Published = *req.Published
	}

	created, err := h.posts.Create(post)
	if err != nil {
		h.logger.WithError(err).Error("Failed to create post")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to create post",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"post": created})
}

// Update handles PUT /api/posts/:id
func (h *PostHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Post id must be numeric",
		})
		return
	}

	var req models.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	if err := h.posts.Update(id, &req); err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Post not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post updated"})
}

// Delete handles DELETE /api/posts/:id
func (h *PostHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Post id must be numeric",
		})
		return
	}

	if err := h.posts.Delete(id); err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Post not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted"})
}
