package database

import (
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dansduels/community-backend/internal/models"
)

func documentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "content", "category", "access_level",
		"author_id", "author_name", "published", "created_at", "updated_at",
	})
}

func TestDocumentListAccessible_PassesLevel(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDocumentRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE published = true AND access_level <= $1`)).
		WithArgs(2).
		WillReturnRows(documentRows().
			AddRow(1, "Guide", "body", "guides", 1, "42", "BigDan", true, now, now).
			AddRow(2, "Policy", "body", "policy", 2, "42", "BigDan", true, now, now))

	docs, err := repo.ListAccessible(2)

	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "Guide", docs[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentCreate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDocumentRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO staff_documents`)).
		WithArgs("Guide", "body", "guides", 1, sqlmock.AnyArg(), sqlmock.AnyArg(), true, sqlmock.AnyArg()).
		WillReturnRows(documentRows().AddRow(1, "Guide", "body", "guides", 1, "42", "BigDan", true, now, now))

	created, err := repo.Create(&models.StaffDocument{
		Title:       "Guide",
		Content:     "body",
		Category:    "guides",
		AccessLevel: 1,
		AuthorID:    models.NewNullString("42"),
		AuthorName:  models.NewNullString("BigDan"),
		Published:   true,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentUpdate_PartialFields(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDocumentRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM staff_documents WHERE id = $1`)).
		WithArgs(int64(1)).
		WillReturnRows(documentRows().AddRow(1, "Old Title", "body", "guides", 1, "42", "BigDan", true, now, now))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE staff_documents`)).
		WithArgs("New Title", "body", "guides", 1, true, sqlmock.AnyArg(), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	title := "New Title"
	err := repo.Update(1, &models.UpdateDocumentRequest{Title: &title})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentUpdate_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDocumentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM staff_documents WHERE id = $1`)).
		WithArgs(int64(9)).
		WillReturnRows(documentRows())

	title := "x"
	err := repo.Update(9, &models.UpdateDocumentRequest{Title: &title})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestDocumentCategories(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDocumentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT DISTINCT category`)).
		WillReturnRows(sqlmock.NewRows([]string{"category"}).AddRow("guides").AddRow("policy"))

	categories, err := repo.Categories()

	require.NoError(t, err)
	assert.Equal(t, []string{"guides", "policy"}, categories)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentDelete_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDocumentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM staff_documents`)).
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(9)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
