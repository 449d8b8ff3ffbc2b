package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dansduels/community-backend/internal/models"
)

// DocumentRepository handles staff document database operations
type DocumentRepository struct {
	db DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db DB) *DocumentRepository {
	return &DocumentRepository{
		db: db,
	}
}

const documentColumns = `id, title, content, category, access_level,
	       author_id, author_name, published, created_at, updated_at`

// Create inserts a new staff document
func (r *DocumentRepository) Create(doc *models.StaffDocument) (*models.StaffDocument, error) {
	var created models.StaffDocument

	query := `
		INSERT INTO staff_documents (title, content, category, access_level,
		                             author_id, author_name, published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING ` + documentColumns

	err := r.db.Get(&created, query,
		doc.Title,
		doc.Content,
		doc.Category,
		doc.AccessLevel,
		doc.AuthorID,
		doc.AuthorName,
		doc.Published,
		time.Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	return &created, nil
}

// GetByID retrieves a document by ID
func (r *DocumentRepository) GetByID(id int64) (*models.StaffDocument, error) {
	var doc models.StaffDocument

	query := `SELECT ` + documentColumns + ` FROM staff_documents WHERE id = $1`

	err := r.db.Get(&doc, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return &doc, nil
}

// ListAccessible returns published documents at or below the given
// access level, newest first.
func (r *DocumentRepository) ListAccessible(maxLevel int) ([]*models.StaffDocument, error) {
	var docs []*models.StaffDocument

	query := `
		SELECT ` + documentColumns + `
		FROM staff_documents
		WHERE published = true AND access_level <= $1
		ORDER BY created_at DESC
	`

	err := r.db.Select(&docs, query, maxLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	return docs, nil
}

// ListByCategory returns accessible published documents in a category
func (r *DocumentRepository) ListByCategory(category string, maxLevel int) ([]*models.StaffDocument, error) {
	var docs []*models.StaffDocument

	query := `
		SELECT ` + documentColumns + `
		FROM staff_documents
		WHERE published = true AND access_level <= $1 AND category = $2
		ORDER BY created_at DESC
	`

	err := r.db.Select(&docs, query, maxLevel, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents by category: %w", err)
	}

	return docs, nil
}

// Categories returns the distinct categories of published documents
func (r *DocumentRepository) Categories() ([]string, error) {
	var categories []string

	query := `
		SELECT DISTINCT category
		FROM staff_documents
		WHERE published = true
		ORDER BY category
	`

	err := r.db.Select(&categories, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list document categories: %w", err)
	}

	return categories, nil
}

// Update applies non-nil fields of the request to a document
func (r *DocumentRepository) Update(id int64, req *models.UpdateDocumentRequest) error {
	doc, err := r.GetByID(id)
	if err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("document not found")
	}

	if req.Title != nil {
		doc.Title = *req.Title
	}
	if req.Content != nil {
		doc.Content = *req.Content
	}
	if req.Category != nil {
		doc.Category = *req.Category
	}
	if req.AccessLevel != nil {
		doc.AccessLevel = *req.AccessLevel
	}
	if req.Published != nil {
		doc.Published = *req.Published
	}

	query := `
		UPDATE staff_documents
		SET title = $1,
		    content = $2,
		    category = $3,
		    access_level = $4,
		    published = $5,
		    updated_at = $6
		WHERE id = $7
	`

	_, err = r.db.Exec(query, doc.Title, doc.Content, doc.Category, doc.AccessLevel, doc.Published, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}

	return nil
}

// Delete removes a document
func (r *DocumentRepository) Delete(id int64) error {
	query := `DELETE FROM staff_documents WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("document not found")
	}

	return nil
}
