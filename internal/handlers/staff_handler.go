package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/dansduels/community-backend/internal/models"
	"github.com/dansduels/community-backend/internal/services"
	"github.com/dansduels/community-backend/pkg/validator"
)

// StaffHandler handles staff roster management
type StaffHandler struct {
	roster    *services.RosterService
	validator *validator.IDValidator
	logger    *logrus.Logger
}

// NewStaffHandler creates a new staff handler
func NewStaffHandler(roster *services.RosterService, idValidator *validator.IDValidator, logger *logrus.Logger) *StaffHandler {
	return &StaffHandler{
		roster:    roster,
		validator: idValidator,
		logger:    logger,
	}
}

// Roster handles GET /api/staff/roster
func (h *StaffHandler) Roster(c *gin.Context) {
	result, err := h.roster.Roster(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to assemble roster")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to load staff roster",
		})
		return
	}

	if result.Status == services.RosterRateLimited {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":      "rate_limited",
			"retryAfter": int(result.RetryAfter.Seconds()),
			"message":    "Discord is rate limiting roster reads. Try again shortly.",
		})
		return
	}

	// A degraded roster still answers 200 so the page renders.
	c.JSON(http.StatusOK, gin.H{
		"staff":     result.Staff,
		"pastStaff": result.PastStaff,
		"degraded":  result.Status == services.RosterDegraded,
	})
}

// ServerRoles handles GET /api/staff/server-roles
func (h *StaffHandler) ServerRoles(c *gin.Context) {
	roles, err := h.roster.ServerRoles(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch server roles")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to load server roles",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"roles": roles})
}

// SearchMembers handles GET /api/staff/search-members
func (h *StaffHandler) SearchMembers(c *gin.Context) {
	query := c.Query("query")

	results, err := h.roster.SearchMembers(c.Request.Context(), query)
	if err != nil {
		if errors.Is(err, services.ErrQueryTooShort) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "query_too_short",
				Message: "Search query must be at least 2 characters",
			})
			return
		}
		h.logger.WithError(err).Error("Member search failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Member search failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": results})
}

// DebugMembers handles GET /api/staff/debug-members
func (h *StaffHandler) DebugMembers(c *gin.Context) {
	members, err := h.roster.DebugMembers(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Member debug dump failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to read guild members",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":   len(members),
		"members": members,
	})
}

// ClearCache handles POST /api/staff/clear-cache
func (h *StaffHandler) ClearCache(c *gin.Context) {
	h.roster.InvalidateCache()
	c.JSON(http.StatusOK, gin.H{"message": "Member cache cleared"})
}

// RankChangeRequest targets a guild member and a staff rank
type RankChangeRequest struct {
	DiscordID string `json:"discord_id" binding:"required"`
	Rank      string `json:"rank" binding:"required"`
	Reason    string `json:"reason"`
}

// AddRole handles POST /api/staff/add-role
func (h *StaffHandler) AddRole(c *gin.Context) {
	var req RankChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "discord_id and rank are required",
		})
		return
	}

	if _, err := h.validator.ValidateSnowflake(req.DiscordID); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_discord_id",
			Message: err.Error(),
		})
		return
	}

	member, err := h.roster.Promote(c.Request.Context(), req.DiscordID, req.Rank)
	if err != nil {
		if errors.Is(err, services.ErrUnknownRank) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "unknown_rank",
				Message: "Unknown staff rank: " + req.Rank,
			})
			return
		}
		h.logger.WithError(err).Error("Promotion failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to promote member",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Member promoted to " + req.Rank,
		"member":  member,
	})
}

// RetireRequest removes a member from the active roster. A removal
// reason is mandatory so the archive never holds unexplained exits.
type RetireRequest struct {
	DiscordID string `json:"discord_id" binding:"required"`
	Rank      string `json:"rank" binding:"required"`
	Reason    string `json:"reason" binding:"required"`
}

// RemoveRole handles DELETE /api/staff/remove-role
func (h *StaffHandler) RemoveRole(c *gin.Context) {
	var req RetireRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "discord_id, rank and reason are required",
		})
		return
	}

	if _, err := h.validator.ValidateSnowflake(req.DiscordID); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_discord_id",
			Message: err.Error(),
		})
		return
	}

	record, err := h.roster.Retire(c.Request.Context(), req.DiscordID, req.Rank, req.Reason)
	if err != nil {
		if errors.Is(err, services.ErrUnknownRank) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "unknown_rank",
				Message: "Unknown staff rank: " + req.Rank,
			})
			return
		}
		if errors.Is(err, services.ErrEmptyReason) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "empty_reason",
				Message: "A removal reason is required",
			})
			return
		}
		h.logger.WithError(err).Error("Retirement failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to retire member",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Member retired",
		"pastStaff": record,
	})
}

// ChangeRankRequest moves a member between staff ranks
type ChangeRankRequest struct {
	DiscordID string `json:"discord_id" binding:"required"`
	FromRank  string `json:"from_rank" binding:"required"`
	ToRank    string `json:"to_rank" binding:"required"`
}

// ChangeRank handles POST /api/staff/change-rank
func (h *StaffHandler) ChangeRank(c *gin.Context) {
	var req ChangeRankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "discord_id, from_rank and to_rank are required",
		})
		return
	}

	if _, err := h.validator.ValidateSnowflake(req.DiscordID); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_discord_id",
			Message: err.Error(),
		})
		return
	}

	member, err := h.roster.ChangeRank(c.Request.Context(), req.DiscordID, req.FromRank, req.ToRank)
	if err != nil {
		var partial *services.PartialRankChangeError
		if errors.As(err, &partial) {
			// The old rank is gone but the new one was not granted.
			h.logger.WithError(err).WithField("discord_id", partial.DiscordID).
				Error("Rank change left member rankless")
			c.JSON(http.StatusConflict, gin.H{
				"error":      "partial_rank_change",
				"message":    "Removed " + partial.RevokedRank + " but could not grant " + partial.FailedRank + ". Re-apply the rank manually.",
				"discord_id": partial.DiscordID,
			})
			return
		}
		if errors.Is(err, services.ErrUnknownRank) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "unknown_rank",
				Message: "Unknown staff rank",
			})
			return
		}
		h.logger.WithError(err).Error("Rank change failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to change rank",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Rank changed to " + req.ToRank,
		"member":  member,
	})
}

// UpdateStaffRequest carries the locally stored staff profile fields
type UpdateStaffRequest struct {
	DiscordID       string `json:"discord_id" binding:"required"`
	PlayfabID       string `json:"playfab_id"`
	Steam64ID       string `json:"steam64_id"`
	RecruitmentDate string `json:"recruitment_date"`
	Notes           string `json:"notes"`
	Status          string `json:"status"`
}

// UpdateStaff handles PUT /api/staff/update-staff
func (h *StaffHandler) UpdateStaff(c *gin.Context) {
	var req UpdateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "discord_id is required",
		})
		return
	}

	if _, err := h.validator.ValidateSnowflake(req.DiscordID); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_discord_id",
			Message: err.Error(),
		})
		return
	}

	playfabID, err := h.validator.ValidatePlayfab(req.PlayfabID)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_playfab_id",
			Message: err.Error(),
		})
		return
	}

	steam64ID, err := h.validator.ValidateSteam64(req.Steam64ID)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_steam64_id",
			Message: err.Error(),
		})
		return
	}

	if req.Status != "" && !models.ValidStaffStatus(req.Status) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_status",
			Message: "status must be Active, Exempt, Inactive or On Leave",
		})
		return
	}

	profile := models.StaffProfile{DiscordID: req.DiscordID, Status: req.Status}
	if playfabID != "" {
		profile.PlayfabID = models.NewNullString(playfabID)
	}
	if steam64ID != "" {
		profile.Steam64ID = models.NewNullString(steam64ID)
	}
	if req.Notes != "" {
		profile.Notes = models.NewNullString(req.Notes)
	}
	if req.RecruitmentDate != "" {
		recruited, err := time.Parse("2006-01-02", req.RecruitmentDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_date",
				Message: "recruitment_date must be YYYY-MM-DD",
			})
			return
		}
		profile.RecruitmentDate = models.NewNullTime(recruited)
	}

	if err := h.roster.UpdateStaffDetails(req.DiscordID, profile); err != nil {
		h.logger.WithError(err).Error("Staff profile update failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to update staff details",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Staff details updated"})
}

// PastStaffRequest manually records a departed staff member
type PastStaffRequest struct {
	DiscordID       string `json:"discord_id" binding:"required"`
	Username        string `json:"username" binding:"required"`
	Name            string `json:"name"`
	Rank            string `json:"rank" binding:"required"`
	PlayfabID       string `json:"playfab_id"`
	RecruitmentDate string `json:"recruitment_date"`
	RemovalDate     string `json:"removal_date"`
	RemovalReason   string `json:"removal_reason"`
}

// AddPastStaff handles POST /api/staff/add-past-staff
func (h *StaffHandler) AddPastStaff(c *gin.Context) {
	var req PastStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "discord_id, username and rank are required",
		})
		return
	}

	record := &models.PastStaff{
		DiscordID:   req.DiscordID,
		Username:    req.Username,
		Name:        req.Name,
		Rank:        req.Rank,
		RemovalDate: time.Now(),
	}
	if record.Name == "" {
		record.Name = req.Username
	}
	if req.PlayfabID != "" {
		record.PlayfabID = models.NewNullString(req.PlayfabID)
	}
	if req.RemovalReason != "" {
		record.RemovalReason = models.NewNullString(req.RemovalReason)
	}
	if req.RecruitmentDate != "" {
		recruited, err := time.Parse("2006-01-02", req.RecruitmentDate)
		if err == nil {
			record.RecruitmentDate = models.NewNullTime(recruited)
		}
	}
	if req.RemovalDate != "" {
		removed, err := time.Parse("2006-01-02", req.RemovalDate)
		if err == nil {
			record.RemovalDate = removed
		}
	}

	created, err := h.roster.AddPastStaff(record)
	if err != nil {
		h.logger.WithError(err).Error("Failed to add past staff record")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to add past staff record",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Past staff record added",
		"pastStaff": created,
	})
}

// UpdatePastStaff handles PUT /api/staff/past-staff/:discordID
func (h *StaffHandler) UpdatePastStaff(c *gin.Context) {
	discordID := c.Param("discordID")

	var req PastStaffRequest
	req.DiscordID = discordID
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "username and rank are required",
		})
		return
	}

	record := &models.PastStaff{
		DiscordID: discordID,
		Username:  req.Username,
		Name:      req.Name,
		Rank:      req.Rank,
	}
	if req.RemovalReason != "" {
		record.RemovalReason = models.NewNullString(req.RemovalReason)
	}

	if err := h.roster.UpdatePastStaff(record); err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "No past staff record for that member",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Past staff record updated"})
}

// RemovePastStaff handles DELETE /api/staff/past-staff/:discordID
func (h *StaffHandler) RemovePastStaff(c *gin.Context) {
	discordID := c.Param("discordID")

	if _, err := h.validator.ValidateSnowflake(discordID); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_discord_id",
			Message: err.Error(),
		})
		return
	}

	if err := h.roster.RemovePastStaff(discordID); err != nil {
		h.logger.WithError(err).Error("Failed to remove past staff record")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to remove past staff record",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Past staff record removed"})
}
