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

func pastStaffRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "discord_id", "username", "display_name", "rank", "playfab_id",
		"recruitment_date", "removal_date", "removal_reason", "created_at",
	})
}

func TestPastStaffCreate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPastStaffRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO past_staff`)).
		WithArgs("42", "olduser", "Old User", "Admin", sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(pastStaffRows().AddRow(
			1, "42", "olduser", "Old User", "Admin", nil, nil, now, "inactivity", now,
		))

	created, err := repo.Create(&models.PastStaff{
		DiscordID:     "42",
		Username:      "olduser",
		Name:          "Old User",
		Rank:          "Admin",
		RemovalDate:   now,
		RemovalReason: models.NewNullString("inactivity"),
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1), created.RecordID)
	assert.Equal(t, "42", created.DiscordID)
	assert.Equal(t, "inactivity", created.RemovalReason.String)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPastStaffCreate_SameDiscordIDTwice(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPastStaffRepository(db)

	now := time.Now()
	for i := int64(1); i <= 2; i++ {
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO past_staff`)).
			WillReturnRows(pastStaffRows().AddRow(
				i, "42", "olduser", "Old User", "Admin", nil, nil, now, nil, now,
			))
	}

	first, err := repo.Create(&models.PastStaff{DiscordID: "42", Username: "olduser", Name: "Old User", Rank: "Admin", RemovalDate: now})
	require.NoError(t, err)
	second, err := repo.Create(&models.PastStaff{DiscordID: "42", Username: "olduser", Name: "Old User", Rank: "Admin", RemovalDate: now})
	require.NoError(t, err)

	assert.NotEqual(t, first.RecordID, second.RecordID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPastStaffList(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPastStaffRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM past_staff`)).
		WillReturnRows(pastStaffRows().
			AddRow(2, "43", "newer", "Newer", "Management", nil, nil, now, nil, now).
			AddRow(1, "42", "older", "Older", "Admin", nil, nil, now.Add(-time.Hour), nil, now))

	records, err := repo.List()

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "43", records[0].DiscordID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPastStaffDeleteByDiscordID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPastStaffRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM past_staff WHERE discord_id = $1`)).
		WithArgs("42").
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := repo.DeleteByDiscordID("42")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
