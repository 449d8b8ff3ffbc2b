package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dansduels/community-backend/internal/models"
	"github.com/dansduels/community-backend/pkg/discord"
)

// Staff roster errors.
var (
	ErrUnknownRank   = errors.New("unknown staff rank")
	ErrEmptyReason   = errors.New("removal reason is required")
	ErrQueryTooShort = errors.New("search query must be at least 2 characters")
)

// PartialRankChangeError reports a rank change that revoked the old
// role but failed to grant the new one, leaving the member rankless.
type PartialRankChangeError struct {
	DiscordID   string
	RevokedRank string
	FailedRank  string
	Err         error
}

func (e *PartialRankChangeError) Error() string {
	return fmt.Sprintf("rank change for %s incomplete: revoked %s but failed to grant %s: %v",
		e.DiscordID, e.RevokedRank, e.FailedRank, e.Err)
}

func (e *PartialRankChangeError) Unwrap() error {
	return e.Err
}

// RosterStatus tags how a roster read was assembled.
type RosterStatus string

const (
	// RosterFull means live guild data backed the roster.
	RosterFull RosterStatus = "full"
	// RosterDegraded means the guild was unreachable due to missing
	// bot permissions and stored fallback data was served.
	RosterDegraded RosterStatus = "degraded"
	// RosterRateLimited means Discord refused the read even after
	// retries.
	RosterRateLimited RosterStatus = "rate_limited"
)

// RosterResult is the outcome of a roster read.
type RosterResult struct {
	Status     RosterStatus
	Staff      []models.StaffMember
	PastStaff  []*models.PastStaff
	RetryAfter time.Duration
}

// MemberSearchResult is one non-staff guild member matching a search.
type MemberSearchResult struct {
	ID          string            `json:"id"`
	Username    string            `json:"username"`
	DisplayName string            `json:"displayName"`
	AvatarURL   models.NullString `json:"avatar"`
}

// MemberDebug is the raw view of one guild member, with the rank its
// roles resolve to.
type MemberDebug struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Nickname string   `json:"nickname,omitempty"`
	Roles    []string `json:"roles"`
	Rank     string   `json:"rank,omitempty"`
}

// DiscordGateway is the slice of the Discord API the roster service
// drives.
type DiscordGateway interface {
	GuildMembers(ctx context.Context, guildID string) ([]discord.Member, error)
	GuildMember(ctx context.Context, guildID, userID string) (*discord.Member, error)
	AddMemberRole(ctx context.Context, guildID, userID, roleID string) error
	RemoveMemberRole(ctx context.Context, guildID, userID, roleID string) error
	GuildRoles(ctx context.Context, guildID string) ([]discord.Role, error)
}

// StaffProfileStore is the user storage the roster service reads
// profile details from.
type StaffProfileStore interface {
	GetStaffProfiles() (map[string]models.StaffProfile, error)
	EnsureDiscordPlaceholder(discordID string) (*models.User, error)
	UpdateStaffProfile(discordID string, profile models.StaffProfile) error
}

// PastStaffStore records staff departures.
type PastStaffStore interface {
	Create(record *models.PastStaff) (*models.PastStaff, error)
	List() ([]*models.PastStaff, error)
	UpdateByDiscordID(record *models.PastStaff) error
	DeleteByDiscordID(discordID string) error
}

// RosterService reconciles the staff roster against Discord guild
// roles and maintains the past staff archive.
type RosterService struct {
	gateway   DiscordGateway
	guildID   string
	cache     *discord.MemberCache
	roleMap   *discord.RoleMap
	users     StaffProfileStore
	pastStaff PastStaffStore
	logger    *logrus.Logger
}

// NewRosterService creates a roster service.
func NewRosterService(
	gateway DiscordGateway,
	guildID string,
	cache *discord.MemberCache,
	roleMap *discord.RoleMap,
	users StaffProfileStore,
	pastStaff PastStaffStore,
	logger *logrus.Logger,
) *RosterService {
	return &RosterService{
		gateway:   gateway,
		guildID:   guildID,
		cache:     cache,
		roleMap:   roleMap,
		users:     users,
		pastStaff: pastStaff,
		logger:    logger,
	}
}

// guildMembers returns the member list, serving the cached snapshot
// when it is still fresh.
func (s *RosterService) guildMembers(ctx context.Context) ([]discord.Member, error) {
	if members, ok := s.cache.Get(); ok {
		return members, nil
	}

	members, err := s.gateway.GuildMembers(ctx, s.guildID)
	if err != nil {
		return nil, err
	}

	s.cache.Set(members)
	return members, nil
}

// InvalidateCache drops the cached member snapshot.
func (s *RosterService) InvalidateCache() {
	s.cache.Invalidate()
}

// Roster assembles the current staff roster and the past staff
// archive. Missing bot permissions degrade to stored fallback data
// instead of failing; an exhausted rate limit is reported with the
// advised wait.
func (s *RosterService) Roster(ctx context.Context) (*RosterResult, error) {
	pastStaff, err := s.pastStaff.List()
	if err != nil {
		s.logger.WithError(err).Error("Failed to load past staff")
		pastStaff = []*models.PastStaff{}
	}

	members, err := s.guildMembers(ctx)
	if err != nil {
		if discord.IsForbidden(err) {
			s.logger.WithError(err).Warn("Guild members unreadable, serving fallback roster")
			return &RosterResult{
				Status:    RosterDegraded,
				Staff:     s.fallbackRoster(),
				PastStaff: pastStaff,
			}, nil
		}
		if retryAfter, ok := discord.IsRateLimited(err); ok {
			return &RosterResult{
				Status:     RosterRateLimited,
				RetryAfter: retryAfter,
			}, nil
		}
		return nil, fmt.Errorf("failed to read guild members: %w", err)
	}

	profiles, err := s.users.GetStaffProfiles()
	if err != nil {
		s.logger.WithError(err).Error("Failed to load staff profiles")
		profiles = map[string]models.StaffProfile{}
	}

	staff := make([]models.StaffMember, 0)
	for _, member := range members {
		rank, ok := s.roleMap.Resolve(member.Roles)
		if !ok {
			continue
		}
		staff = append(staff, s.buildStaffMember(member, rank, profiles[member.User.ID]))
	}

	// Highest rank first, then by display name.
	sort.Slice(staff, func(i, j int) bool {
		if staff[i].RankLevel != staff[j].RankLevel {
			return staff[i].RankLevel > staff[j].RankLevel
		}
		return strings.ToLower(staff[i].Name) < strings.ToLower(staff[j].Name)
	})

	return &RosterResult{
		Status:    RosterFull,
		Staff:     staff,
		PastStaff: pastStaff,
	}, nil
}

// fallbackRoster is served when the bot cannot read guild members.
func (s *RosterService) fallbackRoster() []models.StaffMember {
	names := s.roleMap.RankNames()
	rank := "Founder"
	if len(names) > 0 {
		rank = names[0]
	}
	return []models.StaffMember{
		{
			ID:        "1394520034700693534",
			Username:  "BigDan",
			Name:      "BigDan",
			Rank:      rank,
			Status:    models.StaffStatusActive,
			RankLevel: s.roleMap.Level(rank),
		},
	}
}

func (s *RosterService) buildStaffMember(member discord.Member, rank discord.Rank, profile models.StaffProfile) models.StaffMember {
	sm := models.StaffMember{
		ID:              member.User.ID,
		Username:        member.User.Username,
		Name:            member.DisplayName(),
		Rank:            rank.Name,
		RankLevel:       rank.Level,
		Status:          staffStatusOrDefault(profile.Status),
		PlayfabID:       profile.PlayfabID,
		Steam64ID:       profile.Steam64ID,
		RecruitmentDate: profile.RecruitmentDate,
		Notes:           profile.Notes,
	}
	if member.Nick != "" {
		sm.Nickname = models.NewNullString(member.Nick)
	}
	if url := member.User.AvatarURL(); url != "" {
		sm.AvatarURL = models.NewNullString(url)
	}
	return sm
}

// Accounts created before a duty status was ever set report Active.
func staffStatusOrDefault(status string) string {
	if status == "" {
		return models.StaffStatusActive
	}
	return status
}

// Promote grants a staff rank to a guild member. The retired role, if
// present, is cleared first on a best effort basis. Returns the
// member's refreshed roster entry.
func (s *RosterService) Promote(ctx context.Context, discordID, rankName string) (*models.StaffMember, error) {
	roleID, ok := s.roleMap.RoleIDForRank(rankName)
	if !ok {
		return nil, ErrUnknownRank
	}

	if retired := s.roleMap.RetiredRoleID(); retired != "" {
		if err := s.gateway.RemoveMemberRole(ctx, s.guildID, discordID, retired); err != nil {
			// The member may simply not carry the retired role.
			s.logger.WithError(err).WithField("discord_id", discordID).
				Debug("Could not clear retired role before promotion")
		}
	}

	if err := s.gateway.AddMemberRole(ctx, s.guildID, discordID, roleID); err != nil {
		return nil, fmt.Errorf("failed to grant %s: %w", rankName, err)
	}

	s.cache.Invalidate()

	member, err := s.gateway.GuildMember(ctx, s.guildID, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh promoted member: %w", err)
	}

	profiles, err := s.users.GetStaffProfiles()
	if err != nil {
		s.logger.WithError(err).Error("Failed to load staff profiles")
		profiles = map[string]models.StaffProfile{}
	}

	rank, ok := s.roleMap.Resolve(member.Roles)
	if !ok {
		rank = discord.Rank{Name: rankName, Level: s.roleMap.Level(rankName)}
	}

	sm := s.buildStaffMember(*member, rank, profiles[discordID])
	return &sm, nil
}

// Retire revokes a member's staff rank, applies the retired role on a
// best effort basis, and archives the departure.
func (s *RosterService) Retire(ctx context.Context, discordID, rankName, reason string) (*models.PastStaff, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrEmptyReason
	}

	roleID, ok := s.roleMap.RoleIDForRank(rankName)
	if !ok {
		return nil, ErrUnknownRank
	}

	member, err := s.gateway.GuildMember(ctx, s.guildID, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch member for retirement: %w", err)
	}

	if err := s.gateway.RemoveMemberRole(ctx, s.guildID, discordID, roleID); err != nil {
		return nil, fmt.Errorf("failed to revoke %s: %w", rankName, err)
	}

	if retired := s.roleMap.RetiredRoleID(); retired != "" {
		if err := s.gateway.AddMemberRole(ctx, s.guildID, discordID, retired); err != nil {
			// The departure is still archived when this fails.
			s.logger.WithError(err).WithField("discord_id", discordID).
				Warn("Could not apply retired role")
		}
	}

	s.cache.Invalidate()

	profiles, err := s.users.GetStaffProfiles()
	if err != nil {
		s.logger.WithError(err).Error("Failed to load staff profiles")
		profiles = map[string]models.StaffProfile{}
	}
	profile := profiles[discordID]

	record := &models.PastStaff{
		DiscordID:       discordID,
		Username:        member.User.Username,
		Name:            member.DisplayName(),
		Rank:            rankName,
		PlayfabID:       profile.PlayfabID,
		RecruitmentDate: profile.RecruitmentDate,
		RemovalDate:     time.Now(),
	}
	record.RemovalReason = models.NewNullString(reason)

	created, err := s.pastStaff.Create(record)
	if err != nil {
		return nil, fmt.Errorf("failed to archive departure: %w", err)
	}

	return created, nil
}

// ChangeRank moves a member from one staff rank to another. When the
// old rank is revoked but the new grant fails, the error identifies
// the half-applied state so callers can surface it distinctly.
func (s *RosterService) ChangeRank(ctx context.Context, discordID, fromRank, toRank string) (*models.StaffMember, error) {
	fromRoleID, ok := s.roleMap.RoleIDForRank(fromRank)
	if !ok {
		return nil, ErrUnknownRank
	}
	toRoleID, ok := s.roleMap.RoleIDForRank(toRank)
	if !ok {
		return nil, ErrUnknownRank
	}

	if err := s.gateway.RemoveMemberRole(ctx, s.guildID, discordID, fromRoleID); err != nil {
		return nil, fmt.Errorf("failed to revoke %s: %w", fromRank, err)
	}

	if err := s.gateway.AddMemberRole(ctx, s.guildID, discordID, toRoleID); err != nil {
		s.cache.Invalidate()
		return nil, &PartialRankChangeError{
			DiscordID:   discordID,
			RevokedRank: fromRank,
			FailedRank:  toRank,
			Err:         err,
		}
	}

	s.cache.Invalidate()

	member, err := s.gateway.GuildMember(ctx, s.guildID, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh member after rank change: %w", err)
	}

	profiles, err := s.users.GetStaffProfiles()
	if err != nil {
		profiles = map[string]models.StaffProfile{}
	}

	rank := discord.Rank{Name: toRank, Level: s.roleMap.Level(toRank)}
	sm := s.buildStaffMember(*member, rank, profiles[discordID])
	return &sm, nil
}

// UpdateStaffDetails stores locally edited staff profile fields. A
// credential-less account is created for the Discord id when none
// exists yet.
func (s *RosterService) UpdateStaffDetails(discordID string, profile models.StaffProfile) error {
	if _, err := s.users.EnsureDiscordPlaceholder(discordID); err != nil {
		return fmt.Errorf("failed to ensure staff account: %w", err)
	}

	if err := s.users.UpdateStaffProfile(discordID, profile); err != nil {
		return fmt.Errorf("failed to update staff details: %w", err)
	}

	return nil
}

// SearchMembers finds non-staff guild members matching a query. The
// query must be at least two characters; at most 20 results return.
func (s *RosterService) SearchMembers(ctx context.Context, query string) ([]MemberSearchResult, error) {
	if len(query) < 2 {
		return nil, ErrQueryTooShort
	}

	members, err := s.guildMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read guild members: %w", err)
	}

	needle := strings.ToLower(query)
	results := make([]MemberSearchResult, 0)

	for _, member := range members {
		if _, isStaff := s.roleMap.Resolve(member.Roles); isStaff {
			continue
		}

		displayName := member.DisplayName()
		if !strings.Contains(strings.ToLower(displayName), needle) &&
			!strings.Contains(strings.ToLower(member.User.Username), needle) &&
			!strings.Contains(member.User.ID, query) {
			continue
		}

		result := MemberSearchResult{
			ID:          member.User.ID,
			Username:    member.User.Username,
			DisplayName: displayName,
		}
		if url := member.User.AvatarURL(); url != "" {
			result.AvatarURL = models.NewNullString(url)
		}
		results = append(results, result)

		if len(results) == 20 {
			break
		}
	}

	return results, nil
}

// DebugMembers dumps every guild member the bot sees together with
// the rank its roles resolve to, for diagnosing mapping problems.
func (s *RosterService) DebugMembers(ctx context.Context) ([]MemberDebug, error) {
	members, err := s.guildMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read guild members: %w", err)
	}

	out := make([]MemberDebug, 0, len(members))
	for _, member := range members {
		entry := MemberDebug{
			ID:       member.User.ID,
			Username: member.User.Username,
			Nickname: member.Nick,
			Roles:    member.Roles,
		}
		if rank, ok := s.roleMap.Resolve(member.Roles); ok {
			entry.Rank = rank.Name
		}
		out = append(out, entry)
	}

	return out, nil
}

// ServerRoles lists the guild's roles alongside the configured rank
// mappings, for wiring new ranks up.
func (s *RosterService) ServerRoles(ctx context.Context) ([]discord.Role, error) {
	roles, err := s.gateway.GuildRoles(ctx, s.guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch server roles: %w", err)
	}
	return roles, nil
}

// AddPastStaff manually archives a departure.
func (s *RosterService) AddPastStaff(record *models.PastStaff) (*models.PastStaff, error) {
	created, err := s.pastStaff.Create(record)
	if err != nil {
		return nil, fmt.Errorf("failed to add past staff record: %w", err)
	}
	return created, nil
}

// UpdatePastStaff rewrites an archived departure.
func (s *RosterService) UpdatePastStaff(record *models.PastStaff) error {
	if err := s.pastStaff.UpdateByDiscordID(record); err != nil {
		return fmt.Errorf("failed to update past staff record: %w", err)
	}
	return nil
}

// RemovePastStaff deletes the archived departures of a Discord id.
func (s *RosterService) RemovePastStaff(discordID string) error {
	if err := s.pastStaff.DeleteByDiscordID(discordID); err != nil {
		return fmt.Errorf("failed to remove past staff record: %w", err)
	}
	return nil
}
