package discord

import (
	"errors"
	"fmt"
	"time"
)

// User represents a Discord user object.
type User struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"`
	GlobalName    string `json:"global_name"`
	Avatar        string `json:"avatar"`
}

// DisplayName returns the user's global display name, falling back to
// the username.
func (u User) DisplayName() string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

// AvatarURL returns the CDN URL for the user's avatar, or empty when
// the user has no custom avatar.
func (u User) AvatarURL() string {
	if u.Avatar == "" {
		return ""
	}
	return fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.png", u.ID, u.Avatar)
}

// Member represents a Discord guild member object.
type Member struct {
	User     User      `json:"user"`
	Nick     string    `json:"nick"`
	Roles    []string  `json:"roles"`
	JoinedAt time.Time `json:"joined_at"`
}

// HasRole reports whether the member carries the given role id.
func (m Member) HasRole(roleID string) bool {
	for _, r := range m.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}

// DisplayName returns the member's nickname, falling back to the
// user's display name.
func (m Member) DisplayName() string {
	if m.Nick != "" {
		return m.Nick
	}
	return m.User.DisplayName()
}

// Guild represents a Discord guild object.
type Guild struct {
	ID                       string `json:"id"`
	Name                     string `json:"name"`
	Icon                     string `json:"icon"`
	MemberCount              int    `json:"member_count"`
	ApproximateMemberCount   int    `json:"approximate_member_count"`
	ApproximatePresenceCount int    `json:"approximate_presence_count"`
}

// Role represents a Discord guild role object.
type Role struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Color    int    `json:"color"`
	Position int    `json:"position"`
	Managed  bool   `json:"managed"`
}

// Channel represents a Discord guild channel object.
type Channel struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     int    `json:"type"`
	Position int    `json:"position"`
}

// AuditLogEntry represents one entry from a guild audit log.
type AuditLogEntry struct {
	ID         string `json:"id"`
	ActionType int    `json:"action_type"`
	UserID     string `json:"user_id"`
	TargetID   string `json:"target_id"`
	Reason     string `json:"reason"`
}

// AuditLog represents a guild audit log response.
type AuditLog struct {
	Entries []AuditLogEntry `json:"audit_log_entries"`
	Users   []User          `json:"users"`
}

// APIError is returned when Discord responds with a non-success status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("discord API error: status %d: %s", e.StatusCode, e.Body)
}

// RateLimitError is returned when Discord keeps responding 429 after
// the retry budget is spent. RetryAfter carries the last advised wait.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("discord rate limited: retry after %s", e.RetryAfter)
}

// IsForbidden reports whether err is a Discord 403 response.
func IsForbidden(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 403
}

// IsNotFound reports whether err is a Discord 404 response.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}

// IsRateLimited reports whether err is an exhausted rate limit, and if
// so returns the advised wait.
func IsRateLimited(err error) (time.Duration, bool) {
	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		return rlErr.RetryAfter, true
	}
	return 0, false
}
