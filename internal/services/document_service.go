package services

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/dansduels/community-backend/internal/models"
)

// Document errors.
var (
	ErrDocumentNotFound  = errors.New("document not found")
	ErrInsufficientLevel = errors.New("insufficient access level")
)

// DocumentStore is the storage documents live in.
type DocumentStore interface {
	Create(doc *models.StaffDocument) (*models.StaffDocument, error)
	GetByID(id int64) (*models.StaffDocument, error)
	ListAccessible(maxLevel int) ([]*models.StaffDocument, error)
	ListByCategory(category string, maxLevel int) ([]*models.StaffDocument, error)
	Categories() ([]string, error)
	Update(id int64, req *models.UpdateDocumentRequest) error
	Delete(id int64) error
}

// DocumentService gates staff documents behind rank access levels.
// Levels are Admin=1, Management=2, Founder=3; a document is visible
// to clearance at or above its access level.
type DocumentService struct {
	docs   DocumentStore
	logger *logrus.Logger
}

// NewDocumentService creates a document service.
func NewDocumentService(docs DocumentStore, logger *logrus.Logger) *DocumentService {
	return &DocumentService{docs: docs, logger: logger}
}

// List returns the published documents the clearance can see.
func (s *DocumentService) List(clearance int) ([]*models.StaffDocument, error) {
	docs, err := s.docs.ListAccessible(clearance)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

// ListByCategory returns the visible published documents of a category.
func (s *DocumentService) ListByCategory(category string, clearance int) ([]*models.StaffDocument, error) {
	docs, err := s.docs.ListByCategory(category, clearance)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

// Categories returns the distinct categories of published documents.
func (s *DocumentService) Categories() ([]string, error) {
	categories, err := s.docs.Categories()
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// Get returns a document when the clearance covers its access level.
// Unpublished drafts are visible to their author only; to anyone else
// they do not exist.
func (s *DocumentService) Get(id int64, callerID string, clearance int) (*models.StaffDocument, error) {
	doc, err := s.docs.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	if !doc.Published {
		isAuthor := doc.AuthorID.Valid && doc.AuthorID.String == callerID
		if !isAuthor {
			return nil, ErrDocumentNotFound
		}
	}
	if doc.AccessLevel > clearance {
		return nil, ErrInsufficientLevel
	}
	return doc, nil
}

// Create stores a new document. Requires management clearance; the
// document's access level cannot exceed the author's own clearance.
func (s *DocumentService) Create(req *models.CreateDocumentRequest, authorID, authorName string, clearance int) (*models.StaffDocument, error) {
	if clearance < models.AccessManagement {
		return nil, ErrInsufficientLevel
	}

	accessLevel := req.AccessLevel
	if accessLevel == 0 {
		accessLevel = models.AccessAdmin
	}
	if accessLevel > clearance {
		return nil, ErrInsufficientLevel
	}

	category := req.Category
	if category == "" {
		category = "general"
	}

	published := true
	if req.Published != nil {
		published = *req.Published
	}

	doc := &models.StaffDocument{
		Title:       req.Title,
		Content:     req.Content,
		Category:    category,
		AccessLevel: accessLevel,
		AuthorID:    models.NewNullString(authorID),
		AuthorName:  models.NewNullString(authorName),
		Published:   published,
	}

	created, err := s.docs.Create(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"document_id":  created.ID,
		"access_level": created.AccessLevel,
		"author":       authorName,
	}).Info("Staff document created")

	return created, nil
}

// Update edits a document. Management clearance or authorship is
// required; changing the access level always needs management
// clearance, and never above the caller's own.
func (s *DocumentService) Update(id int64, req *models.UpdateDocumentRequest, authorID string, clearance int) error {
	doc, err := s.docs.GetByID(id)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}
	if doc == nil {
		return ErrDocumentNotFound
	}

	isAuthor := doc.AuthorID.Valid && doc.AuthorID.String == authorID
	if clearance < models.AccessManagement && !isAuthor {
		return ErrInsufficientLevel
	}

	if req.AccessLevel != nil && *req.AccessLevel != doc.AccessLevel {
		if clearance < models.AccessManagement || *req.AccessLevel > clearance {
			return ErrInsufficientLevel
		}
	}

	if err := s.docs.Update(id, req); err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}

	return nil
}

// Delete removes a document. Management clearance or authorship is
// required.
func (s *DocumentService) Delete(id int64, authorID string, clearance int) error {
	doc, err := s.docs.GetByID(id)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}
	if doc == nil {
		return ErrDocumentNotFound
	}

	isAuthor := doc.AuthorID.Valid && doc.AuthorID.String == authorID
	if clearance < models.AccessManagement && !isAuthor {
		return ErrInsufficientLevel
	}

	if err := s.docs.Delete(id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	return nil
}
