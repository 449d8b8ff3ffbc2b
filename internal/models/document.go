package models

import "time"

// Access levels for staff documents. Higher levels see more.
const (
	AccessAdmin      = 1
	AccessManagement = 2
	AccessFounder    = 3
)

// StaffDocument is an internal document visible to staff whose rank
// clearance meets the document's access level.
type StaffDocument struct {
	ID          int64      `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Content     string     `json:"content" db:"content"`
	Category    string     `json:"category" db:"category"`
	AccessLevel int        `json:"access_level" db:"access_level"`
	AuthorID    NullString `json:"author_id" db:"author_id"`
	AuthorName  NullString `json:"author_name" db:"author_name"`
	Published   bool       `json:"published" db:"published"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// CreateDocumentRequest is the payload for creating a staff document.
type CreateDocumentRequest struct {
	Title       string `json:"title" binding:"required"`
	Content     string `json:"content" binding:"required"`
	Category    string `json:"category"`
	AccessLevel int    `json:"access_level"`
	Published   *bool  `json:"published"`
}

// UpdateDocumentRequest is the payload for updating a staff document.
// Nil fields are left unchanged.
type UpdateDocumentRequest struct {
	Title       *string `json:"title"`
	Content     *string `json:"content"`
	Category    *string `json:"category"`
	AccessLevel *int    `json:"access_level"`
	Published   *bool   `json:"published"`
}
