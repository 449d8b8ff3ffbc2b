package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dansduels/community-backend/internal/models"
)

// UserRepository handles user database operations
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

const userColumns = `id, username, email, password_hash, role, discord_id,
	       avatar_url, playfab_id, steam64_id, recruitment_date, notes,
	       status, last_login, created_at, updated_at`

// CreateLocalUser creates a user with local password credentials
func (r *UserRepository) CreateLocalUser(username, email, passwordHash, role string) (*models.User, error) {
	validRoles := map[string]bool{
		models.RoleAdmin:  true,
		models.RoleStaff:  true,
		models.RoleMember: true,
	}
	if !validRoles[role] {
		return nil, fmt.Errorf("invalid role: %s", role)
	}

	var user models.User

	query := `
		INSERT INTO users (username, email, password_hash, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'active', $5, $5)
		RETURNING ` + userColumns

	err := r.db.Get(&user, query, username, email, passwordHash, role, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

// UpsertDiscordUser creates or refreshes the account backing a Discord
// identity and stamps last_login.
func (r *UserRepository) UpsertDiscordUser(discordID, username, email, avatarURL string) (*models.User, error) {
	var user models.User

	query := `
		INSERT INTO users (username, email, role, discord_id, avatar_url, status, last_login, created_at, updated_at)
		VALUES ($1, $2, 'staff', $3, NULLIF($4, ''), 'active', $5, $5, $5)
		ON CONFLICT (discord_id) DO UPDATE
		SET username = EXCLUDED.username,
		    avatar_url = EXCLUDED.avatar_url,
		    last_login = EXCLUDED.last_login,
		    updated_at = EXCLUDED.updated_at
		RETURNING ` + userColumns

	err := r.db.Get(&user, query, username, email, discordID, avatarURL, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to upsert discord user: %w", err)
	}

	return &user, nil
}

// EnsureDiscordPlaceholder creates a credential-less account for a
// Discord id when none exists yet. Existing accounts are untouched.
func (r *UserRepository) EnsureDiscordPlaceholder(discordID string) (*models.User, error) {
	user, err := r.GetUserByDiscordID(discordID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	var created models.User

	query := `
		INSERT INTO users (username, email, role, discord_id, status, created_at, updated_at)
		VALUES ($1, $2, 'staff', $3, 'active', $4, $4)
		RETURNING ` + userColumns

	username := fmt.Sprintf("discord_%s", discordID)
	email := fmt.Sprintf("discord_%s@discord.com", discordID)

	err = r.db.Get(&created, query, username, email, discordID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to create placeholder user: %w", err)
	}

	return &created, nil
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(id int64) (*models.User, error) {
	var user models.User

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	err := r.db.Get(&user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found, return nil without error
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return &user, nil
}

// GetUserByUsername retrieves a user by username
func (r *UserRepository) GetUserByUsername(username string) (*models.User, error) {
	var user models.User

	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	err := r.db.Get(&user, query, username)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return &user, nil
}

// GetUserByEmail retrieves a user by email
func (r *UserRepository) GetUserByEmail(email string) (*models.User, error) {
	var user models.User

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	err := r.db.Get(&user, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &user, nil
}

// GetUserByDiscordID retrieves a user by Discord id
func (r *UserRepository) GetUserByDiscordID(discordID string) (*models.User, error) {
	var user models.User

	query := `SELECT ` + userColumns + ` FROM users WHERE discord_id = $1`

	err := r.db.Get(&user, query, discordID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by discord id: %w", err)
	}

	return &user, nil
}

// UpdateStaffProfile updates the locally stored staff details of a
// Discord-linked account.
func (r *UserRepository) UpdateStaffProfile(discordID string, profile models.StaffProfile) error {
	query := `
		UPDATE users
		SET playfab_id = $1,
		    steam64_id = $2,
		    recruitment_date = $3,
		    notes = $4,
		    staff_status = COALESCE(NULLIF($5, ''), staff_status),
		    updated_at = $6
		WHERE discord_id = $7
	`

	result, err := r.db.Exec(query, profile.PlayfabID, profile.Steam64ID, profile.RecruitmentDate, profile.Notes, profile.Status, time.Now(), discordID)
	if err != nil {
		return fmt.Errorf("failed to update staff profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

// GetStaffProfiles returns the stored staff details of all
// Discord-linked accounts, keyed by Discord id.
func (r *UserRepository) GetStaffProfiles() (map[string]models.StaffProfile, error) {
	var profiles []models.StaffProfile

	query := `
		SELECT discord_id, playfab_id, steam64_id, recruitment_date, notes, staff_status
		FROM users
		WHERE discord_id IS NOT NULL
	`

	err := r.db.Select(&profiles, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get staff profiles: %w", err)
	}

	byID := make(map[string]models.StaffProfile, len(profiles))
	for _, p := range profiles {
		byID[p.DiscordID] = p
	}

	return byID, nil
}

// UpdateLastLogin stamps the user's last login time
func (r *UserRepository) UpdateLastLogin(id int64) error {
	query := `UPDATE users SET last_login = $1, updated_at = $1 WHERE id = $2`

	_, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	return nil
}

// UpdatePassword replaces a user's password hash
func (r *UserRepository) UpdatePassword(id int64, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.Exec(query, passwordHash, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

// UpdateUser updates the editable account fields of a user
func (r *UserRepository) UpdateUser(id int64, username, email, role, status string) error {
	validRoles := map[string]bool{
		models.RoleAdmin:  true,
		models.RoleStaff:  true,
		models.RoleMember: true,
	}
	if !validRoles[role] {
		return fmt.Errorf("invalid role: %s", role)
	}

	validStatuses := map[string]bool{
		"active":    true,
		"inactive":  true,
		"suspended": true,
	}
	if !validStatuses[status] {
		return fmt.Errorf("invalid status: %s", status)
	}

	query := `
		UPDATE users
		SET username = $1,
		    email = $2,
		    role = $3,
		    status = $4,
		    updated_at = $5
		WHERE id = $6
	`

	result, err := r.db.Exec(query, username, email, role, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

// UpdateUserRole changes only the role of a user
func (r *UserRepository) UpdateUserRole(id int64, role string) error {
	validRoles := map[string]bool{
		models.RoleAdmin:  true,
		models.RoleStaff:  true,
		models.RoleMember: true,
	}
	if !validRoles[role] {
		return fmt.Errorf("invalid role: %s", role)
	}

	query := `UPDATE users SET role = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.Exec(query, role, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update user role: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

// DeleteUser removes a user account
func (r *UserRepository) DeleteUser(id int64) error {
	query := `DELETE FROM users WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

// ListUsers retrieves all users with pagination
func (r *UserRepository) ListUsers(limit, offset int) ([]*models.User, error) {
	var users []*models.User

	query := `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	err := r.db.Select(&users, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

// CountUsers returns the total number of users
func (r *UserRepository) CountUsers() (int, error) {
	var count int

	query := `SELECT COUNT(*) FROM users`

	err := r.db.QueryRow(query).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}

	return count, nil
}

// CountUsersByRole returns user counts grouped by role
func (r *UserRepository) CountUsersByRole() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT role, COUNT(*) FROM users GROUP BY role`)
	if err != nil {
		return nil, fmt.Errorf("failed to count users by role: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var role string
		var count int
		if err := rows.Scan(&role, &count); err != nil {
			return nil, fmt.Errorf("failed to scan role count: %w", err)
		}
		counts[role] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read role counts: %w", err)
	}

	return counts, nil
}

// CountRecentLogins returns the number of users who logged in within
// the given window.
func (r *UserRepository) CountRecentLogins(since time.Time) (int, error) {
	var count int

	query := `SELECT COUNT(*) FROM users WHERE last_login >= $1`

	err := r.db.QueryRow(query, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent logins: %w", err)
	}

	return count, nil
}
