package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/dansduels/community-backend/internal/models"
	"github.com/dansduels/community-backend/pkg/discord"
	"github.com/dansduels/community-backend/pkg/jwt"
)

type fakeOAuthFlow struct {
	exchangeErr error
}

func (f *fakeOAuthFlow) AuthURL(state string) string {
	return "https://discord.com/oauth2/authorize?state=" + state
}

func (f *fakeOAuthFlow) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return &oauth2.Token{AccessToken: "access-" + code}, nil
}

type fakeIdentityGateway struct {
	user      *discord.User
	member    *discord.Member
	memberErr error
}

func (g *fakeIdentityGateway) CurrentUser(ctx context.Context, accessToken string) (*discord.User, error) {
	return g.user, nil
}

func (g *fakeIdentityGateway) GuildMember(ctx context.Context, guildID, userID string) (*discord.Member, error) {
	if g.memberErr != nil {
		return nil, g.memberErr
	}
	return g.member, nil
}

type fakeAccountStore struct {
	upserted *models.User
	byID     map[int64]*models.User
}

func (s *fakeAccountStore) UpsertDiscordUser(discordID, username, email, avatarURL string) (*models.User, error) {
	s.upserted = &models.User{
		ID:        7,
		Username:  username,
		Email:     email,
		Role:      models.RoleStaff,
		DiscordID: models.NewNullString(discordID),
	}
	return s.upserted, nil
}

func (s *fakeAccountStore) GetUserByID(id int64) (*models.User, error) {
	return s.byID[id], nil
}

func newIdentityService(flow *fakeOAuthFlow, gateway *fakeIdentityGateway, store *fakeAccountStore) *IdentityService {
	roleMap := discord.NewRoleMap([]discord.RoleMapping{
		{RoleID: "100", Name: "Founder", Level: 3},
		{RoleID: "200", Name: "Management", Level: 2},
		{RoleID: "300", Name: "Admin", Level: 1},
	}, "900")
	return NewIdentityService(
		flow,
		gateway,
		testGuildID,
		roleMap,
		[]string{"100", "200", "300"},
		store,
		jwt.NewService("identity-test-secret", 24*time.Hour),
		testLogger(),
	)
}

func TestBeginLogin_StatesDiffer(t *testing.T) {
	svc := newIdentityService(&fakeOAuthFlow{}, &fakeIdentityGateway{}, &fakeAccountStore{})

	url1, state1, err := svc.BeginLogin()
	require.NoError(t, err)
	_, state2, err := svc.BeginLogin()
	require.NoError(t, err)

	assert.Contains(t, url1, state1)
	assert.NotEqual(t, state1, state2)
}

func TestCompleteLogin_IssuesSession(t *testing.T) {
	gateway := &fakeIdentityGateway{
		user:   &discord.User{ID: "42", Username: "dan"},
		member: &discord.Member{User: discord.User{ID: "42", Username: "dan"}, Roles: []string{"200"}},
	}
	store := &fakeAccountStore{}
	svc := newIdentityService(&fakeOAuthFlow{}, gateway, store)

	session, err := svc.CompleteLogin(context.Background(), "code-1")

	require.NoError(t, err)
	assert.Equal(t, "Management", session.Rank)
	assert.Equal(t, []string{"200"}, session.DiscordRoles)
	require.NotNil(t, store.upserted)
	assert.Equal(t, "discord_42@discord.com", store.upserted.Email)

	claims, err := jwt.NewService("identity-test-secret", 24*time.Hour).ValidateToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "42", claims.DiscordID)
	assert.Equal(t, models.RoleStaff, claims.Role)
}

func TestCompleteLogin_NotGuildMember(t *testing.T) {
	gateway := &fakeIdentityGateway{
		user:      &discord.User{ID: "42", Username: "dan"},
		memberErr: &discord.APIError{StatusCode: 404, Body: "Unknown Member"},
	}
	svc := newIdentityService(&fakeOAuthFlow{}, gateway, &fakeAccountStore{})

	_, err := svc.CompleteLogin(context.Background(), "code-1")

	assert.ErrorIs(t, err, ErrNotGuildMember)
}

func TestCompleteLogin_NoAllowedRole(t *testing.T) {
	gateway := &fakeIdentityGateway{
		user:   &discord.User{ID: "42", Username: "dan"},
		member: &discord.Member{User: discord.User{ID: "42"}, Roles: []string{"555"}},
	}
	svc := newIdentityService(&fakeOAuthFlow{}, gateway, &fakeAccountStore{})

	_, err := svc.CompleteLogin(context.Background(), "code-1")

	assert.ErrorIs(t, err, ErrNotAllowed)
}

func TestVerify_LiveRolesRefreshed(t *testing.T) {
	gateway := &fakeIdentityGateway{
		member: &discord.Member{User: discord.User{ID: "42"}, Roles: []string{"100"}},
	}
	store := &fakeAccountStore{byID: map[int64]*models.User{
		7: {ID: 7, Username: "dan", Role: models.RoleStaff, DiscordID: models.NewNullString("42")},
	}}
	svc := newIdentityService(&fakeOAuthFlow{}, gateway, store)

	session, err := svc.Verify(context.Background(), &jwt.Claims{UserID: 7})

	require.NoError(t, err)
	assert.Equal(t, "Founder", session.Rank)
	assert.Equal(t, []string{"100"}, session.DiscordRoles)
}

func TestVerify_GatewayOutageKeepsSession(t *testing.T) {
	gateway := &fakeIdentityGateway{
		memberErr: &discord.APIError{StatusCode: 500, Body: "upstream down"},
	}
	store := &fakeAccountStore{byID: map[int64]*models.User{
		7: {ID: 7, Username: "dan", Role: models.RoleStaff, DiscordID: models.NewNullString("42")},
	}}
	svc := newIdentityService(&fakeOAuthFlow{}, gateway, store)

	session, err := svc.Verify(context.Background(), &jwt.Claims{UserID: 7})

	require.NoError(t, err)
	assert.Empty(t, session.Rank)
	assert.Empty(t, session.DiscordRoles)
}

func TestVerify_LocalAccountSkipsGuildCheck(t *testing.T) {
	store := &fakeAccountStore{byID: map[int64]*models.User{
		7: {ID: 7, Username: "admin", Role: models.RoleAdmin},
	}}
	svc := newIdentityService(&fakeOAuthFlow{}, &fakeIdentityGateway{}, store)

	session, err := svc.Verify(context.Background(), &jwt.Claims{UserID: 7})

	require.NoError(t, err)
	assert.Empty(t, session.Rank)
	assert.Nil(t, session.DiscordRoles)
}

func TestVerify_MissingAccount(t *testing.T) {
	svc := newIdentityService(&fakeOAuthFlow{}, &fakeIdentityGateway{}, &fakeAccountStore{})

	_, err := svc.Verify(context.Background(), &jwt.Claims{UserID: 99})

	assert.Error(t, err)
}

func TestClearance(t *testing.T) {
	tests := []struct {
		name     string
		user     *models.User
		member   *discord.Member
		expected int
	}{
		{
			name:     "local admin clears management",
			user:     &models.User{ID: 1, Role: models.RoleAdmin},
			expected: models.AccessManagement,
		},
		{
			name:     "local staff has no clearance",
			user:     &models.User{ID: 2, Role: models.RoleStaff},
			expected: 0,
		},
		{
			name:     "founder role clears founder level",
			user:     &models.User{ID: 3, DiscordID: models.NewNullString("42")},
			member:   &discord.Member{Roles: []string{"100"}},
			expected: models.AccessFounder,
		},
		{
			name:     "unranked guild member has no clearance",
			user:     &models.User{ID: 4, DiscordID: models.NewNullString("42")},
			member:   &discord.Member{Roles: []string{"555"}},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newIdentityService(&fakeOAuthFlow{}, &fakeIdentityGateway{member: tt.member}, &fakeAccountStore{})

			level, err := svc.Clearance(context.Background(), tt.user)

			require.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestClearance_DepartedMember(t *testing.T) {
	gateway := &fakeIdentityGateway{memberErr: &discord.APIError{StatusCode: 404, Body: "Unknown Member"}}
	svc := newIdentityService(&fakeOAuthFlow{}, gateway, &fakeAccountStore{})

	level, err := svc.Clearance(context.Background(), &models.User{ID: 3, DiscordID: models.NewNullString("42")})

	require.NoError(t, err)
	assert.Equal(t, 0, level)
}

func TestClearance_GatewayOutageGrantsNothing(t *testing.T) {
	gateway := &fakeIdentityGateway{memberErr: &discord.APIError{StatusCode: 502, Body: "bad gateway"}}
	svc := newIdentityService(&fakeOAuthFlow{}, gateway, &fakeAccountStore{})

	level, err := svc.Clearance(context.Background(), &models.User{ID: 3, DiscordID: models.NewNullString("42")})

	require.NoError(t, err)
	assert.Equal(t, 0, level)
}
