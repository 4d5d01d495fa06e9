package configuration

import (
	"encoding/json"
	"os"
)

// YouTubeConfig carries the credentials the Data API client is built from.
type YouTubeConfig struct {
	APIKey       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AccessToken  string
	RefreshToken string
	Scopes       []string
}

// UsesOAuth reports whether both OAuth tokens are available. Without them the client runs read-only on the API key.
func (y *YouTubeConfig) UsesOAuth() bool {
	return y.AccessToken != "" && y.RefreshToken != ""
}

// GetYouTubeConfig resolves YouTube credentials from config, environment and token.json.
func GetYouTubeConfig() *YouTubeConfig {
	config := &YouTubeConfig{
		APIKey:       C.YouTube.APIKey,
		ClientID:     C.YouTube.ClientID,
		ClientSecret: C.YouTube.ClientSecret,
		RedirectURL:  C.YouTube.RedirectURI,
		AccessToken:  getEnv("YOUTUBE_ACCESS_TOKEN", ""),
		RefreshToken: getEnv("YOUTUBE_REFRESH_TOKEN", ""),
		Scopes:       C.YouTube.Scopes,
	}

	// token.json is written by an out-of-band OAuth consent flow
	if !config.UsesOAuth() {
		if data, err := os.ReadFile(getEnv("YOUTUBE_TOKEN_FILE", "token.json")); err == nil {
			var tokenFile struct {
				AccessToken  string `json:"access_token"`
				RefreshToken string `json:"refresh_token"`
			}
			if jsonErr := json.Unmarshal(data, &tokenFile); jsonErr == nil {
				if config.AccessToken == "" {
					config.AccessToken = tokenFile.AccessToken
				}
				if config.RefreshToken == "" {
					config.RefreshToken = tokenFile.RefreshToken
				}
			}
		}
	}

	return config
}
