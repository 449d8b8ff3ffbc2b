package database

import (
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dansduels/community-backend/internal/models"
)

func newMockDB(t *testing.T) (DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return &PostgresDB{DB: sqlx.NewDb(mockDB, "sqlmock")}, mock
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "username", "email", "password_hash", "role", "discord_id",
		"avatar_url", "playfab_id", "steam64_id", "recruitment_date", "notes",
		"status", "last_login", "created_at", "updated_at",
	})
}

func stubProfile() models.StaffProfile {
	return models.StaffProfile{
		DiscordID: "42",
		PlayfabID: models.NewNullString("PF42"),
		Notes:     models.NewNullString("promoted last month"),
	}
}

func TestGetUserByDiscordID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT`)).
		WithArgs("765079181666156500").
		WillReturnRows(userRows().AddRow(
			1, "bigdan", "dan@example.com", nil, "staff", "765079181666156500",
			nil, "PF123", nil, nil, nil, "active", nil, now, now,
		))

	user, err := repo.GetUserByDiscordID("765079181666156500")

	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, "bigdan", user.Username)
	assert.False(t, user.PasswordHash.Valid)
	assert.Equal(t, "PF123", user.PlayfabID.String)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByDiscordID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT`)).
		WithArgs("unknown").
		WillReturnError(sql.ErrNoRows)

	user, err := repo.GetUserByDiscordID("unknown")

	require.NoError(t, err)
	assert.Nil(t, user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureDiscordPlaceholder_CreatesWhenMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT`)).
		WithArgs("999").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs("discord_999", "discord_999@discord.com", "999", sqlmock.AnyArg()).
		WillReturnRows(userRows().AddRow(
			5, "discord_999", "discord_999@discord.com", nil, "staff", "999",
			nil, nil, nil, nil, nil, "active", nil, now, now,
		))

	user, err := repo.EnsureDiscordPlaceholder("999")

	require.NoError(t, err)
	assert.Equal(t, "discord_999", user.Username)
	assert.Equal(t, "staff", user.Role)
	assert.False(t, user.PasswordHash.Valid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureDiscordPlaceholder_ExistingUntouched(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT`)).
		WithArgs("42").
		WillReturnRows(userRows().AddRow(
			7, "existing", "e@example.com", "hash", "staff", "42",
			nil, nil, nil, nil, nil, "active", nil, now, now,
		))

	user, err := repo.EnsureDiscordPlaceholder("42")

	require.NoError(t, err)
	assert.Equal(t, "existing", user.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateLocalUser_RejectsInvalidRole(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewUserRepository(db)

	_, err := repo.CreateLocalUser("u", "e@example.com", "hash", "superuser")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid role")
}

func TestUpdateStaffProfile_UserNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStaffProfile("missing", stubProfile())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "user not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUser_RejectsInvalidStatus(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewUserRepository(db)

	err := repo.UpdateUser(1, "u", "e@example.com", "staff", "frozen")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid status")
}

func TestUpdateUserRole(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET role`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateUserRole(1, "staff")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUserRole_RejectsInvalidRole(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewUserRepository(db)

	err := repo.UpdateUserRole(1, "overlord")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid role")
}

func TestGetStaffProfiles(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT discord_id, playfab_id, steam64_id, recruitment_date, notes, staff_status`)).
		WillReturnRows(sqlmock.NewRows([]string{"discord_id", "playfab_id", "steam64_id", "recruitment_date", "notes", "staff_status"}).
			AddRow("42", "PF42", nil, nil, nil, "On Leave").
			AddRow("43", nil, "7656119800000000", nil, nil, "Active"))

	profiles, err := repo.GetStaffProfiles()

	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "PF42", profiles["42"].PlayfabID.String)
	assert.Equal(t, "On Leave", profiles["42"].Status)
	assert.Equal(t, "7656119800000000", profiles["43"].Steam64ID.String)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountUsersByRole(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT role, COUNT(*)`)).
		WillReturnRows(sqlmock.NewRows([]string{"role", "count"}).
			AddRow("admin", 2).
			AddRow("staff", 9))

	counts, err := repo.CountUsersByRole()

	require.NoError(t, err)
	assert.Equal(t, 2, counts["admin"])
	assert.Equal(t, 9, counts["staff"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
