package discord

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
)

// OAuth endpoints for Discord.
var oauthEndpoint = oauth2.Endpoint{
	AuthURL:  "https://discord.com/api/oauth2/authorize",
	TokenURL: "https://discord.com/api/oauth2/token",
}

// OAuthConfig holds Discord OAuth2 application settings.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// OAuthFlow drives the Discord authorization-code flow.
type OAuthFlow struct {
	config *oauth2.Config
}

// NewOAuthFlow creates an OAuth flow for the given application.
func NewOAuthFlow(config OAuthConfig) *OAuthFlow {
	scopes := config.Scopes
	if len(scopes) == 0 {
		scopes = []string{"identify", "guilds.members.read"}
	}
	return &OAuthFlow{
		config: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Endpoint:     oauthEndpoint,
			Scopes:       scopes,
		},
	}
}

// AuthURL returns the authorization URL carrying the given state.
func (f *OAuthFlow) AuthURL(state string) string {
	return f.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for an access token.
func (f *OAuthFlow) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := f.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return token, nil
}
