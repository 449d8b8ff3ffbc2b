package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dansduels/community-backend/internal/models"
)

// EventRepository handles event database operations
type EventRepository struct {
	db DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db DB) *EventRepository {
	return &EventRepository{
		db: db,
	}
}

const eventColumns = `e.id, e.title, e.description, e.location, e.starts_at, e.ends_at,
	       e.image_url, e.author_id, u.username AS author_name, e.published, e.created_at, e.updated_at`

// Create inserts a new event
func (r *EventRepository) Create(event *models.Event) (*models.Event, error) {
	var created models.Event

	query := `
		INSERT INTO events (title, description, location, starts_at, ends_at,
		                    image_url, author_id, published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING id, title, description, location, starts_at, ends_at,
		          image_url, author_id, published, created_at, updated_at
	`

	err := r.db.Get(&created, query,
		event.Title,
		event.Description,
		event.Location,
		event.StartsAt,
		event.EndsAt,
		event.ImageURL,
		event.AuthorID,
		event.Published,
		time.Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	return &created, nil
}

// GetByID retrieves an event with its author name
func (r *EventRepository) GetByID(id int64) (*models.Event, error) {
	var event models.Event

	query := `
		SELECT ` + eventColumns + `
		FROM events e
		LEFT JOIN users u ON u.id = e.author_id
		WHERE e.id = $1
	`

	err := r.db.Get(&event, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return &event, nil
}

// List returns events soonest first. When publishedOnly is set, drafts
// are excluded. When upcomingOnly is set, past events are excluded.
func (r *EventRepository) List(publishedOnly, upcomingOnly bool, limit, offset int) ([]*models.Event, error) {
	var events []*models.Event

	query := `
		SELECT ` + eventColumns + `
		FROM events e
		LEFT JOIN users u ON u.id = e.author_id
		WHERE 1=1
	`
	args := []interface{}{}
	if publishedOnly {
		query += ` AND e.published = true`
	}
	if upcomingOnly {
		args = append(args, time.Now())
		query += fmt.Sprintf(` AND e.starts_at >= $%d`, len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY e.starts_at ASC LIMIT $%d`, len(args))
	args = append(args, offset)
	query += fmt.Sprintf(` OFFSET $%d`, len(args))

	err := r.db.Select(&events, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	return events, nil
}

// Update applies non-nil fields of the request to an event
func (r *EventRepository) Update(id int64, req *models.UpdateEventRequest) error {
	event, err := r.GetByID(id)
	if err != nil {
		return err
	}
	if event == nil {
		return fmt.Errorf("event not found")
	}

	if req.Title != nil {
		event.Title = *req.Title
	}
	if req.Description != nil {
		event.Description = models.NewNullString(*req.Description)
	}
	if req.Location != nil {
		event.Location = models.NewNullString(*req.Location)
	}
	if req.StartsAt != nil {
		event.StartsAt = *req.StartsAt
	}
	if req.EndsAt != nil {
		event.EndsAt = models.NewNullTime(*req.EndsAt)
	}
	if req.ImageURL != nil {
		event.ImageURL = models.NewNullString(*req.ImageURL)
	}
	if req.Published != nil {
		event.Published = *req.Published
	}

	query := `
		UPDATE events
		SET title = $1,
		    description = $2,
		    location = $3,
		    starts_at = $4,
		    ends_at = $5,
		    image_url = $6,
		    published = $7,
		    updated_at = $8
		WHERE id = $9
	`

	_, err = r.db.Exec(query,
		event.Title,
		event.Description,
		event.Location,
		event.StartsAt,
		event.EndsAt,
		event.ImageURL,
		event.Published,
		time.Now(),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}

	return nil
}

// Delete removes an event
func (r *EventRepository) Delete(id int64) error {
	query := `DELETE FROM events WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("event not found")
	}

	return nil
}

// Count returns the total number of events
func (r *EventRepository) Count() (int, error) {
	var count int

	err := r.db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}

	return count, nil
}
