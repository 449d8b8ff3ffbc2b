package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *[]time.Duration) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(Config{BotToken: "test-token", BaseURL: server.URL})
	// No pacing delays in tests.
	client.limiter = rate.NewLimiter(rate.Inf, 1)

	var sleeps []time.Duration
	client.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}
	return client, &sleeps
}

func makeMembers(start, count int) []Member {
	members := make([]Member, count)
	for i := 0; i < count; i++ {
		id := start + i
		members[i] = Member{
			User:  User{ID: fmt.Sprintf("%d", id), Username: fmt.Sprintf("user%d", id)},
			Roles: []string{},
		}
	}
	return members
}

func TestGuildMembers_SinglePage(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bot test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "/guilds/g1/members", r.URL.Path)
		assert.Equal(t, "1000", r.URL.Query().Get("limit"))

		json.NewEncoder(w).Encode(makeMembers(1, 3))
	}))

	members, err := client.GuildMembers(context.Background(), "g1")

	require.NoError(t, err)
	assert.Len(t, members, 3)
	assert.Equal(t, "1", members[0].User.ID)
}

func TestGuildMembers_Paginated(t *testing.T) {
	var requests []string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		after := r.URL.Query().Get("after")
		requests = append(requests, after)

		if after == "" {
			json.NewEncoder(w).Encode(makeMembers(1, 1000))
			return
		}
		json.NewEncoder(w).Encode(makeMembers(1001, 5))
	}))

	members, err := client.GuildMembers(context.Background(), "g1")

	require.NoError(t, err)
	assert.Len(t, members, 1005)
	require.Len(t, requests, 2)
	assert.Equal(t, "", requests[0])
	assert.Equal(t, "1000", requests[1])
}

func TestDo_RetriesAfterRateLimit(t *testing.T) {
	attempts := 0
	client, sleeps := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts <= 2 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(makeMembers(1, 1))
	}))

	members, err := client.GuildMembers(context.Background(), "g1")

	require.NoError(t, err)
	assert.Len(t, members, 1)
	assert.Equal(t, 3, attempts)

	var total time.Duration
	for _, d := range *sleeps {
		total += d
	}
	assert.GreaterOrEqual(t, total, 4*time.Second)
}

func TestDo_RateLimitBudgetExhausted(t *testing.T) {
	attempts := 0
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := client.GuildMembers(context.Background(), "g1")

	require.Error(t, err)
	retryAfter, ok := IsRateLimited(err)
	require.True(t, ok)
	assert.Equal(t, 7*time.Second, retryAfter)
	assert.Equal(t, 4, attempts)
}

func TestDo_ForbiddenIsAPIError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"Missing Access","code":50001}`))
	}))

	_, err := client.GuildMembers(context.Background(), "g1")

	require.Error(t, err)
	assert.True(t, IsForbidden(err))
}

func TestAddMemberRole(t *testing.T) {
	var method, path string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))

	err := client.AddMemberRole(context.Background(), "g1", "u1", "r1")

	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/guilds/g1/members/u1/roles/r1", path)
}

func TestRemoveMemberRole_NotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Unknown Member","code":10007}`))
	}))

	err := client.RemoveMemberRole(context.Background(), "g1", "u1", "r1")

	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestCurrentUser_UsesBearerToken(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer user-access", r.Header.Get("Authorization"))
		assert.Equal(t, "/users/@me", r.URL.Path)
		json.NewEncoder(w).Encode(User{ID: "42", Username: "dan", GlobalName: "BigDan"})
	}))

	user, err := client.CurrentUser(context.Background(), "user-access")

	require.NoError(t, err)
	assert.Equal(t, "42", user.ID)
	assert.Equal(t, "BigDan", user.DisplayName())
}

func TestGuild_WithCounts(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("with_counts"))
		json.NewEncoder(w).Encode(Guild{ID: "g1", Name: "Duels", ApproximateMemberCount: 321})
	}))

	guild, err := client.Guild(context.Background(), "g1")

	require.NoError(t, err)
	assert.Equal(t, 321, guild.ApproximateMemberCount)
}

func TestRetryAfter_MissingHeaderDefaultsToOneSecond(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	assert.Equal(t, time.Second, retryAfter(resp))

	resp.Header.Set("Retry-After", "2.5")
	assert.Equal(t, 2500*time.Millisecond, retryAfter(resp))
}

func TestMemberDisplayName(t *testing.T) {
	tests := []struct {
		name     string
		member   Member
		expected string
	}{
		{
			name:     "nickname wins",
			member:   Member{Nick: "Nick", User: User{Username: "name", GlobalName: "Global"}},
			expected: "Nick",
		},
		{
			name:     "global name over username",
			member:   Member{User: User{Username: "name", GlobalName: "Global"}},
			expected: "Global",
		},
		{
			name:     "username fallback",
			member:   Member{User: User{Username: "name"}},
			expected: "name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.member.DisplayName())
		})
	}
}
