package models

import "time"

// Post is a community news post.
type Post struct {
	ID         int64      `json:"id" db:"id"`
	Title      string     `json:"title" db:"title"`
	Content    string     `json:"content" db:"content"`
	Category   NullString `json:"category" db:"category"`
	ImageURL   NullString `json:"image_url" db:"image_url"`
	AuthorID   int64      `json:"author_id" db:"author_id"`
	AuthorName NullString `json:"author_name" db:"author_name"`
	Published  bool       `json:"published" db:"published"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// Event is a scheduled community event.
type Event struct {
	ID          int64      `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Description NullString `json:"description" db:"description"`
	Location    NullString `json:"location" db:"location"`
	StartsAt    time.Time  `json:"starts_at" db:"starts_at"`
	EndsAt      NullTime   `json:"ends_at" db:"ends_at"`
	ImageURL    NullString `json:"image_url" db:"image_url"`
	AuthorID    int64      `json:"author_id" db:"author_id"`
	AuthorName  NullString `json:"author_name" db:"author_name"`
	Published   bool       `json:"published" db:"published"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// CreatePostRequest is the payload for creating a post.
type CreatePostRequest struct {
	Title     string `json:"title" binding:"required"`
	Content   string `json:"content" binding:"required"`
	Category  string `json:"category"`
	ImageURL  string `json:"image_url"`
	Published *bool  `json:"published"`
}

// UpdatePostRequest is the payload for updating a post. Nil fields are
// left unchanged.
type UpdatePostRequest struct {
	Title     *string `json:"title"`
	Content   *string `json:"content"`
	Category  *string `json:"category"`
	ImageURL  *string `json:"image_url"`
	Published *bool   `json:"published"`
}

// CreateEventRequest is the payload for creating an event.
type CreateEventRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	StartsAt    time.Time  `json:"starts_at" binding:"required"`
	EndsAt      *time.Time `json:"ends_at"`
	ImageURL    string     `json:"image_url"`
	Published   *bool      `json:"published"`
}

// UpdateEventRequest is the payload for updating an event.
type UpdateEventRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Location    *string    `json:"location"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	ImageURL    *string    `json:"image_url"`
	Published   *bool      `json:"published"`
}
