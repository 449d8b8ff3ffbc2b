package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://discord.com/api/v10"

// membersPageSize is the maximum page size Discord allows on the guild
// members listing endpoint.
const membersPageSize = 1000

// Client is a bot-token REST client for the Discord API. Requests are
// paced through a token-bucket limiter and 429 responses are retried
// honoring the advised wait.
type Client struct {
	baseURL    string
	botToken   string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int

	// sleep is replaceable so retry behavior can be observed without
	// waiting in real time.
	sleep func(ctx context.Context, d time.Duration) error
}

// Config holds Discord REST client configuration.
type Config struct {
	BotToken string
	BaseURL  string
}

// NewClient creates a Discord REST client authenticated with a bot token.
func NewClient(config Config) *Client {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:  baseURL,
		botToken: config.BotToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		// Pages of 1000 members arrive roughly ten per second at most.
		limiter:    rate.NewLimiter(rate.Every(100*time.Millisecond), 1),
		maxRetries: 3,
		sleep:      sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// do performs one authorized request, retrying on 429 up to maxRetries
// times. The caller owns decoding; a nil out skips decoding.
func (c *Client) do(ctx context.Context, method, path string, auth string, out interface{}) error {
	var lastRetryAfter time.Duration

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("waiting for rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", auth)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to send request: %w", err)
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastRetryAfter = retryAfter(resp)
			if attempt == c.maxRetries {
				break
			}
			if err := c.sleep(ctx, lastRetryAfter); err != nil {
				return err
			}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
		}

		if out == nil {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
		return nil
	}

	return &RateLimitError{RetryAfter: lastRetryAfter}
}

func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 {
			return time.Duration(secs * float64(time.Second))
		}
	}
	return time.Second
}

func (c *Client) botAuth() string {
	return "Bot " + c.botToken
}

// GuildMembers fetches the complete member list of a guild, walking
// pagination until a short page is returned.
func (c *Client) GuildMembers(ctx context.Context, guildID string) ([]Member, error) {
	var members []Member
	after := ""

	for {
		path := fmt.Sprintf("/guilds/%s/members?limit=%d", guildID, membersPageSize)
		if after != "" {
			path += "&after=" + after
		}

		var page []Member
		if err := c.do(ctx, http.MethodGet, path, c.botAuth(), &page); err != nil {
			return nil, fmt.Errorf("failed to fetch guild members: %w", err)
		}

		members = append(members, page...)
		if len(page) < membersPageSize {
			return members, nil
		}
		after = page[len(page)-1].User.ID
	}
}

// GuildMember fetches a single guild member.
func (c *Client) GuildMember(ctx context.Context, guildID, userID string) (*Member, error) {
	var member Member
	path := fmt.Sprintf("/guilds/%s/members/%s", guildID, userID)
	if err := c.do(ctx, http.MethodGet, path, c.botAuth(), &member); err != nil {
		return nil, fmt.Errorf("failed to fetch guild member %s: %w", userID, err)
	}
	return &member, nil
}

// AddMemberRole grants a role to a guild member.
func (c *Client) AddMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	path := fmt.Sprintf("/guilds/%s/members/%s/roles/%s", guildID, userID, roleID)
	if err := c.do(ctx, http.MethodPut, path, c.botAuth(), nil); err != nil {
		return fmt.Errorf("failed to add role %s to member %s: %w", roleID, userID, err)
	}
	return nil
}

// RemoveMemberRole revokes a role from a guild member.
func (c *Client) RemoveMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	path := fmt.Sprintf("/guilds/%s/members/%s/roles/%s", guildID, userID, roleID)
	if err := c.do(ctx, http.MethodDelete, path, c.botAuth(), nil); err != nil {
		return fmt.Errorf("failed to remove role %s from member %s: %w", roleID, userID, err)
	}
	return nil
}

// Guild fetches a guild with approximate member and presence counts.
func (c *Client) Guild(ctx context.Context, guildID string) (*Guild, error) {
	var guild Guild
	path := fmt.Sprintf("/guilds/%s?with_counts=true", guildID)
	if err := c.do(ctx, http.MethodGet, path, c.botAuth(), &guild); err != nil {
		return nil, fmt.Errorf("failed to fetch guild: %w", err)
	}
	return &guild, nil
}

// GuildRoles fetches all roles of a guild.
func (c *Client) GuildRoles(ctx context.Context, guildID string) ([]Role, error) {
	var roles []Role
	path := fmt.Sprintf("/guilds/%s/roles", guildID)
	if err := c.do(ctx, http.MethodGet, path, c.botAuth(), &roles); err != nil {
		return nil, fmt.Errorf("failed to fetch guild roles: %w", err)
	}
	return roles, nil
}

// GuildChannels fetches all channels of a guild.
func (c *Client) GuildChannels(ctx context.Context, guildID string) ([]Channel, error) {
	var channels []Channel
	path := fmt.Sprintf("/guilds/%s/channels", guildID)
	if err := c.do(ctx, http.MethodGet, path, c.botAuth(), &channels); err != nil {
		return nil, fmt.Errorf("failed to fetch guild channels: %w", err)
	}
	return channels, nil
}

// GuildAuditLog fetches the most recent audit log entries of a guild.
func (c *Client) GuildAuditLog(ctx context.Context, guildID string, limit int) (*AuditLog, error) {
	var log AuditLog
	path := fmt.Sprintf("/guilds/%s/audit-logs?limit=%d", guildID, limit)
	if err := c.do(ctx, http.MethodGet, path, c.botAuth(), &log); err != nil {
		return nil, fmt.Errorf("failed to fetch audit log: %w", err)
	}
	return &log, nil
}

// CurrentUser fetches the identity behind a user OAuth access token.
func (c *Client) CurrentUser(ctx context.Context, accessToken string) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/users/@me", "Bearer "+accessToken, &user); err != nil {
		return nil, fmt.Errorf("failed to fetch current user: %w", err)
	}
	return &user, nil
}

// CurrentUserGuildMember fetches the caller's member object in a guild
// using a user OAuth access token with the guilds.members.read scope.
func (c *Client) CurrentUserGuildMember(ctx context.Context, accessToken, guildID string) (*Member, error) {
	var member Member
	path := fmt.Sprintf("/users/@me/guilds/%s/member", url.PathEscape(guildID))
	if err := c.do(ctx, http.MethodGet, path, "Bearer "+accessToken, &member); err != nil {
		return nil, fmt.Errorf("failed to fetch member identity: %w", err)
	}
	return &member, nil
}
