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

// EventHandler handles community events
type EventHandler struct {
	events *database.EventRepository
	logger *logrus.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler(events *database.EventRepository, logger *logrus.Logger) *EventHandler {
	return &EventHandler{events: events, logger: logger}
}

// List handles GET /api/events. Defaults to published upcoming events;
// ?past=true includes finished ones, staff may pass ?all=true.
func (h *EventHandler) List(c *gin.Context) {
	limit, offset := parsePagination(c)

	publishedOnly := true
	if c.Query("all") == "true" {
		if _, authed := middleware.GetUserContext(c); authed {
			publishedOnly = false
		}
	}

	upcomingOnly := c.Query("past") != "true"

	events, err := h.events.List(publishedOnly, upcomingOnly, limit, offset)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list events")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to load events",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

// Get handles GET /api/events/:id
func (h *EventHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Event id must be numeric",
		})
		return
	}

	event, err := h.events.GetByID(id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get event")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to load event",
		})
		return
	}
	if event == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Event not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"event": event})
}

// Create handles POST /api/events
func (h *EventHandler) Create(c *gin.Context) {
	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Title and starts_at are required",
		})
		return
	}

	userCtx := middleware.MustGetUserContext(c)

	event := &models.Event{
		Title:      req.Title,
		StartsAt:   req.StartsAt,
		AuthorID:   userCtx.UserID,
		AuthorName: models.NewNullString(userCtx.Username),
		Published:  true,
	}
	if req.Description != "" {
		event.Description = models.NewNullString(req.Description)
	}
	if req.Location != "" {
		event.Location = models.NewNullString(req.Location)
	}
	if req.ImageURL != "" {
		event.ImageURL = models.NewNullString(req.ImageURL)
	}
	if req.EndsAt != nil {
		event.EndsAt = models.NewNullTime(*req.EndsAt)
	}
	if req.Published != nil {
		event.Published = *req.Published
	}

	created, err := h.events.Create(event)
	if err != nil {
		h.logger.WithError(err).Error("Failed to create event")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to create event",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"event": created})
}

// Update handles PUT /api/events/:id
func (h *EventHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Event id must be numeric",
		})
		return
	}

	var req models.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	if err := h.events.Update(id, &req); err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Event not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Event updated"})
}

// Delete handles DELETE /api/events/:id
func (h *EventHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Event id must be numeric",
		})
		return
	}

	if err := h.events.Delete(id); err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Event not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Event deleted"})
}
