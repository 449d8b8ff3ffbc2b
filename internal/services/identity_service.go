package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/dansduels/community-backend/internal/models"
	"github.com/dansduels/community-backend/internal/utils"
	"github.com/dansduels/community-backend/pkg/discord"
	"github.com/dansduels/community-backend/pkg/jwt"
)

// Identity errors.
var (
	// ErrNotGuildMember means the Discord account is not in the guild.
	ErrNotGuildMember = errors.New("not a guild member")
	// ErrNotAllowed means the account holds none of the allowed roles.
	ErrNotAllowed = errors.New("not authorized for staff access")
)

// OAuthFlow drives the Discord authorization-code exchange.
type OAuthFlow interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

// IdentityGateway is the slice of the Discord API identity checks use.
type IdentityGateway interface {
	CurrentUser(ctx context.Context, accessToken string) (*discord.User, error)
	GuildMember(ctx context.Context, guildID, userID string) (*discord.Member, error)
}

// AccountStore is the user storage identity flows read and write.
type AccountStore interface {
	UpsertDiscordUser(discordID, username, email, avatarURL string) (*models.User, error)
	GetUserByID(id int64) (*models.User, error)
}

// Session is an authenticated Discord login: the site account, its
// signed token, and the live guild roles that justified it.
type Session struct {
	Token        string
	User         *models.User
	Rank         string
	DiscordRoles []string
}

// IdentityService runs the Discord OAuth login flow and verifies
// existing sessions against live guild data.
type IdentityService struct {
	flow         OAuthFlow
	gateway      IdentityGateway
	guildID      string
	roleMap      *discord.RoleMap
	allowedRoles []string
	users        AccountStore
	tokens       *jwt.Service
	logger       *logrus.Logger
}

// NewIdentityService creates an identity service.
func NewIdentityService(
	flow OAuthFlow,
	gateway IdentityGateway,
	guildID string,
	roleMap *discord.RoleMap,
	allowedRoles []string,
	users AccountStore,
	tokens *jwt.Service,
	logger *logrus.Logger,
) *IdentityService {
	return &IdentityService{
		flow:         flow,
		gateway:      gateway,
		guildID:      guildID,
		roleMap:      roleMap,
		allowedRoles: allowedRoles,
		users:        users,
		tokens:       tokens,
		logger:       logger,
	}
}

// BeginLogin returns the authorization URL and the state value the
// callback must echo.
func (s *IdentityService) BeginLogin() (authURL, state string, err error) {
	state, err = utils.GenerateOAuthState()
	if err != nil {
		return "", "", fmt.Errorf("failed to begin login: %w", err)
	}
	return s.flow.AuthURL(state), state, nil
}

// CompleteLogin exchanges an authorization code, checks the Discord
// account against the guild's allowed roles, and issues a session.
func (s *IdentityService) CompleteLogin(ctx context.Context, code string) (*Session, error) {
	token, err := s.flow.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to complete login: %w", err)
	}

	identity, err := s.gateway.CurrentUser(ctx, token.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve Discord identity: %w", err)
	}

	member, err := s.gateway.GuildMember(ctx, s.guildID, identity.ID)
	if err != nil {
		if discord.IsNotFound(err) {
			return nil, ErrNotGuildMember
		}
		return nil, fmt.Errorf("failed to check guild membership: %w", err)
	}

	if !s.holdsAllowedRole(member.Roles) {
		return nil, ErrNotAllowed
	}

	rank := ""
	if resolved, ok := s.roleMap.Resolve(member.Roles); ok {
		rank = resolved.Name
	}

	email := fmt.Sprintf("discord_%s@discord.com", identity.ID)
	user, err := s.users.UpsertDiscordUser(identity.ID, identity.Username, email, identity.AvatarURL())
	if err != nil {
		return nil, fmt.Errorf("failed to store Discord account: %w", err)
	}

	sessionToken, err := s.tokens.GenerateToken(user.ID, user.Username, identity.ID, models.RoleStaff)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":    user.ID,
		"discord_id": identity.ID,
		"rank":       rank,
	}).Info("Discord login completed")

	return &Session{
		Token:        sessionToken,
		User:         user,
		Rank:         rank,
		DiscordRoles: member.Roles,
	}, nil
}

// Verify confirms a session still belongs to a guild member and
// returns the account with its live Discord roles. Token role claims
// are informational; clearance always comes from the live roles.
func (s *IdentityService) Verify(ctx context.Context, claims *jwt.Claims) (*Session, error) {
	user, err := s.users.GetUserByID(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("account no longer exists")
	}

	session := &Session{User: user}

	if !user.DiscordID.Valid {
		return session, nil
	}

	member, err := s.gateway.GuildMember(ctx, s.guildID, user.DiscordID.String)
	if err != nil {
		if discord.IsNotFound(err) {
			return nil, ErrNotGuildMember
		}
		// A flaky gateway must not lock staff out of their session.
		// The session stands, with no live roles and no rank.
		s.logger.WithError(err).WithField("discord_id", user.DiscordID.String).
			Warn("Could not check guild membership, continuing without live roles")
		return session, nil
	}

	session.DiscordRoles = member.Roles
	if rank, ok := s.roleMap.Resolve(member.Roles); ok {
		session.Rank = rank.Name
	}

	return session, nil
}

// Clearance returns the document access level the account's live
// guild roles grant. Zero means no staff clearance.
func (s *IdentityService) Clearance(ctx context.Context, user *models.User) (int, error) {
	if !user.DiscordID.Valid {
		if user.IsAdmin() {
			// Local admins clear management-level documents.
			return models.AccessManagement, nil
		}
		return 0, nil
	}

	member, err := s.gateway.GuildMember(ctx, s.guildID, user.DiscordID.String)
	if err != nil {
		if !discord.IsNotFound(err) {
			s.logger.WithError(err).WithField("discord_id", user.DiscordID.String).
				Warn("Could not check guild roles, treating clearance as none")
		}
		return 0, nil
	}

	rank, ok := s.roleMap.Resolve(member.Roles)
	if !ok {
		return 0, nil
	}
	return rank.Level, nil
}

func (s *IdentityService) holdsAllowedRole(roles []string) bool {
	for _, roleID := range roles {
		for _, allowed := range s.allowedRoles {
			if roleID == allowed {
				return true
			}
		}
	}
	return false
}
