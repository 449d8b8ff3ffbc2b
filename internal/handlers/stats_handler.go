package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/dansduels/community-backend/pkg/discord"
)

// Discord audit log action types surfaced on the activity feed.
const (
	auditMemberKick       = 20
	auditMemberBanAdd     = 22
	auditMemberBanRemove  = 23
	auditMemberRoleUpdate = 25
	auditChannelCreate    = 10
	auditChannelDelete    = 12
)

// StatsGateway is the slice of the Discord API the stats endpoints
// read from.
type StatsGateway interface {
	Guild(ctx context.Context, guildID string) (*discord.Guild, error)
	GuildChannels(ctx context.Context, guildID string) ([]discord.Channel, error)
	GuildRoles(ctx context.Context, guildID string) ([]discord.Role, error)
	GuildAuditLog(ctx context.Context, guildID string, limit int) (*discord.AuditLog, error)
}

// StatsHandler serves live Discord server statistics
type StatsHandler struct {
	gateway StatsGateway
	guildID string
	logger  *logrus.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(gateway StatsGateway, guildID string, logger *logrus.Logger) *StatsHandler {
	return &StatsHandler{
		gateway: gateway,
		guildID: guildID,
		logger:  logger,
	}
}

// ServerStats handles GET /api/discord-stats/server-stats
func (h *StatsHandler) ServerStats(c *gin.Context) {
	ctx := c.Request.Context()

	guild, err := h.gateway.Guild(ctx, h.guildID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch guild")
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "discord_unavailable",
			Message: "Could not reach Discord",
		})
		return
	}

	stats := gin.H{
		"name":          guild.Name,
		"member_count":  guild.ApproximateMemberCount,
		"online_count":  guild.ApproximatePresenceCount,
		"channel_count": 0,
		"role_count":    0,
	}

	if channels, err := h.gateway.GuildChannels(ctx, h.guildID); err == nil {
		stats["channel_count"] = len(channels)
	} else {
		h.logger.WithError(err).Warn("Failed to count channels")
	}

	if roles, err := h.gateway.GuildRoles(ctx, h.guildID); err == nil {
		stats["role_count"] = len(roles)
	} else {
		h.logger.WithError(err).Warn("Failed to count roles")
	}

	c.JSON(http.StatusOK, gin.H{"server": stats})
}

type activityEntry struct {
	Action   string `json:"action"`
	Actor    string `json:"actor"`
	TargetID string `json:"target_id,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// RecentActivity handles GET /api/discord-stats/recent-activity
func (h *StatsHandler) RecentActivity(c *gin.Context) {
	log, err := h.gateway.GuildAuditLog(c.Request.Context(), h.guildID, 25)
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch audit log")
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "discord_unavailable",
			Message: "Could not reach Discord",
		})
		return
	}

	usernames := make(map[string]string, len(log.Users))
	for _, u := range log.Users {
		usernames[u.ID] = u.Username
	}

	activity := make([]activityEntry, 0, len(log.Entries))
	for _, entry := range log.Entries {
		action := describeAuditAction(entry.ActionType)
		if action == "" {
			continue
		}
		activity = append(activity, activityEntry{
			Action:   action,
			Actor:    usernames[entry.UserID],
			TargetID: entry.TargetID,
			Reason:   entry.Reason,
		})
	}

	c.JSON(http.StatusOK, gin.H{"activity": activity})
}

func describeAuditAction(actionType int) string {
	switch actionType {
	case auditMemberKick:
		return "member_kicked"
	case auditMemberBanAdd:
		return "member_banned"
	case auditMemberBanRemove:
		return "member_unbanned"
	case auditMemberRoleUpdate:
		return "roles_updated"
	case auditChannelCreate:
		return "channel_created"
	case auditChannelDelete:
		return "channel_deleted"
	default:
		return ""
	}
}

// Ping handles GET /api/discord-stats/test. Confirms the bot can reach the
// guild at all.
func (h *StatsHandler) Ping(c *gin.Context) {
	guild, err := h.gateway.Guild(c.Request.Context(), h.guildID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"ok":    false,
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":    true,
		"guild": guild.Name,
	})
}
