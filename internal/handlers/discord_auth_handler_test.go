package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dansduels/community-backend/internal/services"
	"github.com/dansduels/community-backend/pkg/discord"
	"github.com/dansduels/community-backend/pkg/jwt"
)

func TestDiscordLoginBegin_ReturnsAuthURL(t *testing.T) {
	flow := discord.NewOAuthFlow(discord.OAuthConfig{
		ClientID:     "client-1",
		ClientSecret: "shh",
		RedirectURL:  "http://localhost:8080/api/discord-auth/callback",
	})
	identity := services.NewIdentityService(
		flow,
		nil,
		"guild-1",
		discord.NewRoleMap([]discord.RoleMapping{{RoleID: "100", Name: "Founder", Level: 3}}, ""),
		nil,
		nil,
		jwt.NewService("test-secret", time.Hour),
		discardLogger(),
	)
	handler := NewDiscordAuthHandler(identity, "http://localhost:3000", discardLogger())

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/api/discord-auth/login", handler.Begin)

	req := httptest.NewRequest(http.MethodGet, "/api/discord-auth/login", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		AuthURL string `json:"authUrl"`
		State   string `json:"state"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.AuthURL, "client_id=client-1")
	assert.Contains(t, resp.AuthURL, "state="+resp.State)

	stateCookie := ""
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == "oauth_state" {
			stateCookie = cookie.Value
		}
	}
	assert.Equal(t, resp.State, stateCookie)
}
