package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/dansduels/community-backend/internal/middleware"
	"github.com/dansduels/community-backend/internal/services"
	"github.com/dansduels/community-backend/pkg/jwt"
)

const oauthStateCookie = "oauth_state"

// DiscordAuthHandler handles the Discord OAuth login flow
type DiscordAuthHandler struct {
	identity    *services.IdentityService
	frontendURL string
	logger      *logrus.Logger
}

// NewDiscordAuthHandler creates a new Discord auth handler
func NewDiscordAuthHandler(identity *services.IdentityService, frontendURL string, logger *logrus.Logger) *DiscordAuthHandler {
	return &DiscordAuthHandler{
		identity:    identity,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

// Begin handles GET /api/discord-auth/login. The front end navigates
// to the returned authUrl itself.
func (h *DiscordAuthHandler) Begin(c *gin.Context) {
	authURL, state, err := h.identity.BeginLogin()
	if err != nil {
		h.logger.WithError(err).Error("Failed to begin Discord login")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to start Discord login",
		})
		return
	}

	// The state round-trips via cookie to bind the callback to this
	// browser.
	c.SetCookie(oauthStateCookie, state, 600, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"authUrl": authURL,
		"state":   state,
	})
}

// Callback handles GET /api/discord-auth/callback
func (h *DiscordAuthHandler) Callback(c *gin.Context) {
	if errParam := c.Query("error"); errParam != "" {
		h.redirectWithError(c, "access_denied")
		return
	}

	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		h.redirectWithError(c, "invalid_callback")
		return
	}

	expectedState, err := c.Cookie(oauthStateCookie)
	if err != nil || expectedState != state {
		h.logger.WithField("ip", c.ClientIP()).Warn("OAuth state mismatch")
		h.redirectWithError(c, "state_mismatch")
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, "/", "", false, true)

	session, err := h.identity.CompleteLogin(c.Request.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotGuildMember):
			h.redirectWithError(c, "not_a_member")
		case errors.Is(err, services.ErrNotAllowed):
			h.redirectWithError(c, "not_authorized")
		default:
			h.logger.WithError(err).Error("Discord login failed")
			h.redirectWithError(c, "login_failed")
		}
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"/admin?token="+url.QueryEscape(session.Token))
}

func (h *DiscordAuthHandler) redirectWithError(c *gin.Context, code string) {
	c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"/staff-login?error="+url.QueryEscape(code))
}

// Verify handles GET /api/discord-auth/verify. It re-checks the
// session's Discord account against live guild roles.
func (h *DiscordAuthHandler) Verify(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	claims := &jwt.Claims{
		UserID:    userCtx.UserID,
		Username:  userCtx.Username,
		DiscordID: userCtx.DiscordID,
		Role:      userCtx.Role,
	}

	session, err := h.identity.Verify(c.Request.Context(), claims)
	if err != nil {
		if errors.Is(err, services.ErrNotGuildMember) {
			c.JSON(http.StatusForbidden, ErrorResponse{
				Error:   "not_a_member",
				Message: "This account is no longer in the community server",
			})
			return
		}
		h.logger.WithError(err).Error("Session verification failed")
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_session",
			Message: "Session could not be verified",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":          session.User.Public(),
		"rank":          session.Rank,
		"discord_roles": session.DiscordRoles,
	})
}
