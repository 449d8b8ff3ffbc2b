package database

import (
	"fmt"
	"time"

	"github.com/dansduels/community-backend/internal/models"
)

// PastStaffRepository handles past staff records
type PastStaffRepository struct {
	db DB
}

// NewPastStaffRepository creates a new past staff repository
func NewPastStaffRepository(db DB) *PastStaffRepository {
	return &PastStaffRepository{
		db: db,
	}
}

// Create records a staff departure. A Discord id may be recorded more
// than once across separate stints; every departure gets its own row.
func (r *PastStaffRepository) Create(record *models.PastStaff) (*models.PastStaff, error) {
	var created models.PastStaff

	query := `
		INSERT INTO past_staff (discord_id, username, display_name, rank, playfab_id,
		                        recruitment_date, removal_date, removal_reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, discord_id, username, display_name, rank, playfab_id,
		          recruitment_date, removal_date, removal_reason, created_at
	`

	err := r.db.Get(&created, query,
		record.DiscordID,
		record.Username,
		record.Name,
		record.Rank,
		record.PlayfabID,
		record.RecruitmentDate,
		record.RemovalDate,
		record.RemovalReason,
		time.Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create past staff record: %w", err)
	}

	return &created, nil
}

// List returns all past staff records, most recent departure first
func (r *PastStaffRepository) List() ([]*models.PastStaff, error) {
	var records []*models.PastStaff

	query := `
		SELECT id, discord_id, username, display_name, rank, playfab_id,
		       recruitment_date, removal_date, removal_reason, created_at
		FROM past_staff
		ORDER BY removal_date DESC
	`

	err := r.db.Select(&records, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list past staff: %w", err)
	}

	return records, nil
}

// UpdateByDiscordID rewrites the recorded details of a former member's
// departure records.
func (r *PastStaffRepository) UpdateByDiscordID(record *models.PastStaff) error {
	query := `
		UPDATE past_staff
		SET username = $1,
		    display_name = $2,
		    rank = $3,
		    playfab_id = $4,
		    recruitment_date = $5,
		    removal_reason = $6
		WHERE discord_id = $7
	`

	result, err := r.db.Exec(query,
		record.Username,
		record.Name,
		record.Rank,
		record.PlayfabID,
		record.RecruitmentDate,
		record.RemovalReason,
		record.DiscordID,
	)
	if err != nil {
		return fmt.Errorf("failed to update past staff record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("past staff record not found")
	}

	return nil
}

// DeleteByDiscordID removes all departure records for a Discord id.
// Used when a former member rejoins the staff team.
func (r *PastStaffRepository) DeleteByDiscordID(discordID string) error {
	query := `DELETE FROM past_staff WHERE discord_id = $1`

	_, err := r.db.Exec(query, discordID)
	if err != nil {
		return fmt.Errorf("failed to delete past staff records: %w", err)
	}

	return nil
}

// Count returns the total number of past staff records
func (r *PastStaffRepository) Count() (int, error) {
	var count int

	err := r.db.QueryRow(`SELECT COUNT(*) FROM past_staff`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count past staff: %w", err)
	}

	return count, nil
}
