package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dansduels/community-backend/internal/database"
	"github.com/dansduels/community-backend/internal/models"
	"github.com/dansduels/community-backend/pkg/jwt"
)

func newAuthRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := &database.PostgresDB{DB: sqlx.NewDb(mockDB, "sqlmock")}
	users := database.NewUserRepository(db)
	jwtService := jwt.NewService("auth-handler-test-secret", time.Hour)
	handler := NewAuthHandler(jwtService, users, bcrypt.MinCost, discardLogger())

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/auth/login", handler.Login)
	router.POST("/api/auth/register", handler.Register)
	return router, mock
}

func localUserRows(t *testing.T, username, password, role, status string) *sqlmock.Rows {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "username", "email", "password_hash", "role", "discord_id",
		"avatar_url", "playfab_id", "steam64_id", "recruitment_date", "notes",
		"status", "last_login", "created_at", "updated_at",
	}).AddRow(
		1, username, username+"@dansduels.net", string(hash), role, nil,
		nil, nil, nil, nil, nil,
		status, nil, now, now,
	)
}

func TestLogin_Success(t *testing.T) {
	router, mock := newAuthRouter(t)

	mock.ExpectQuery("SELECT").
		WithArgs("dan").
		WillReturnRows(localUserRows(t, "dan", "hunter22x", models.RoleAdmin, "active"))
	mock.ExpectExec("UPDATE users SET last_login").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := postJSON(router, "/api/auth/login", gin.H{
		"username": "dan",
		"password": "hunter22x",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"token"`)
	assert.Contains(t, w.Body.String(), `"username":"dan"`)
	assert.NotContains(t, w.Body.String(), "password_hash")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_WrongPassword(t *testing.T) {
	router, mock := newAuthRouter(t)

	mock.ExpectQuery("SELECT").
		WithArgs("dan").
		WillReturnRows(localUserRows(t, "dan", "hunter22x", models.RoleAdmin, "active"))

	w := postJSON(router, "/api/auth/login", gin.H{
		"username": "dan",
		"password": "wrong-password",
	})

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_credentials")
}

func TestLogin_UnknownUser(t *testing.T) {
	router, mock := newAuthRouter(t)

	mock.ExpectQuery("SELECT").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	w := postJSON(router, "/api/auth/login", gin.H{
		"username": "ghost",
		"password": "whatever1",
	})

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_credentials")
}

func TestLogin_DisabledAccount(t *testing.T) {
	router, mock := newAuthRouter(t)

	mock.ExpectQuery("SELECT").
		WithArgs("dan").
		WillReturnRows(localUserRows(t, "dan", "hunter22x", models.RoleAdmin, "disabled"))

	w := postJSON(router, "/api/auth/login", gin.H{
		"username": "dan",
		"password": "hunter22x",
	})

	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "account_disabled")
}

func TestLogin_MissingFields(t *testing.T) {
	router, _ := newAuthRouter(t)

	w := postJSON(router, "/api/auth/login", gin.H{"username": "dan"})

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation_error")
}

func TestRegister_CreatesMemberAccount(t *testing.T) {
	router, mock := newAuthRouter(t)

	mock.ExpectQuery("SELECT").
		WithArgs("newcomer").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery("INSERT INTO users").
		WillReturnRows(localUserRows(t, "newcomer", "hunter22x", models.RoleMember, "active"))

	w := postJSON(router, "/api/auth/register", gin.H{
		"username": "newcomer",
		"email":    "newcomer@dansduels.net",
		"password": "hunter22x",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"token"`)
	assert.Contains(t, w.Body.String(), `"role":"member"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_UsernameTaken(t *testing.T) {
	router, mock := newAuthRouter(t)

	mock.ExpectQuery("SELECT").
		WithArgs("dan").
		WillReturnRows(localUserRows(t, "dan", "hunter22x", models.RoleAdmin, "active"))

	w := postJSON(router, "/api/auth/register", gin.H{
		"username": "dan",
		"email":    "dan@dansduels.net",
		"password": "hunter22x",
	})

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "username_taken")
}

func TestRegister_ShortPassword(t *testing.T) {
	router, _ := newAuthRouter(t)

	w := postJSON(router, "/api/auth/register", gin.H{
		"username": "newcomer",
		"email":    "newcomer@dansduels.net",
		"password": "short",
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation_error")
}
