package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dansduels/community-backend/internal/models"
)

// PostRepository handles post database operations
type PostRepository struct {
	db DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db DB) *PostRepository {
	return &PostRepository{
		db: db,
	}
}

const postColumns = `p.id, p.title, p.content, p.category, p.image_url,
	       p.author_id, u.username AS author_name, p.published, p.created_at, p.updated_at`

// Create inserts a new post
func (r *PostRepository) Create(post *models.Post) (*models.Post, error) {
	var created models.Post

	query := `
		INSERT INTO posts (title, content, category, image_url, author_id, published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING id, title, content, category, image_url, author_id, published, created_at, updated_at
	`

	err := r.db.Get(&created, query,
		post.Title,
		post.Content,
		post.Category,
		post.ImageURL,
		post.AuthorID,
		post.Published,
		time.Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	return &created, nil
}

// GetByID retrieves a post with its author name
func (r *PostRepository) GetByID(id int64) (*models.Post, error) {
	var post models.Post

	query := `
		SELECT ` + postColumns + `
		FROM posts p
		LEFT JOIN users u ON u.id = p.author_id
		WHERE p.id = $1
	`

	err := r.db.Get(&post, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return &post, nil
}

// List returns posts newest first. When publishedOnly is set, drafts
// are excluded.
func (r *PostRepository) List(publishedOnly bool, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post

	query := `
		SELECT ` + postColumns + `
		FROM posts p
		LEFT JOIN users u ON u.id = p.author_id
	`
	if publishedOnly {
		query += ` WHERE p.published = true`
	}
	query += ` ORDER BY p.created_at DESC LIMIT $1 OFFSET $2`

	err := r.db.Select(&posts, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	return posts, nil
}

// Update applies non-nil fields of the request to a post
func (r *PostRepository) Update(id int64, req *models.UpdatePostRequest) error {
	post, err := r.GetByID(id)
	if err != nil {
		return err
	}
	if post == nil {
		return fmt.Errorf("post not found")
	}

	if req.Title != nil {
		post.Title = *req.Title
	}
	if req.Content != nil {
		post.Content = *req.Content
	}
	if req.Category != nil {
		post.Category = models.NewNullString(*req.Category)
	}
	if req.ImageURL != nil {
		post.ImageURL = models.NewNullString(*req.ImageURL)
	}
	if req.Published != nil {
		post.Published = *req.Published
	}

	query := `
		UPDATE posts
		SET title = $1,
		    content = $2,
		    category = $3,
		    image_url = $4,
		    published = $5,
		    updated_at = $6
		WHERE id = $7
	`

	_, err = r.db.Exec(query, post.Title, post.Content, post.Category, post.ImageURL, post.Published, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}

	return nil
}

// Delete removes a post
func (r *PostRepository) Delete(id int64) error {
	query := `DELETE FROM posts WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("post not found")
	}

	return nil
}

// Count returns the total number of posts
func (r *PostRepository) Count() (int, error) {
	var count int

	err := r.db.QueryRow(`SELECT COUNT(*) FROM posts`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}

	return count, nil
}
