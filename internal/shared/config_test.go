package shared

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()
		if config.Database.Path != "./spm.db" {
			t.Errorf("expected database path ./spm.db, got %s", config.Database.Path)
		}
		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}
		if config.Session.PageSize != 50 {
			t.Errorf("expected page size 50, got %d", config.Session.PageSize)
		}
		if config.Session.SearchLimit != 10 {
			t.Errorf("expected search limit 10, got %d", config.Session.SearchLimit)
		}
		if config.Credentials.Spotify.ClientID != "" {
			t.Errorf("expected placeholder client_id to be cleared, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.Credentials.Spotify.RedirectURI != "http://127.0.0.1:3000/callback" {
			t.Errorf("unexpected redirect uri %s", config.Credentials.Spotify.RedirectURI)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}
		if config.Database.Path != DefaultConfig().Database.Path {
			t.Error("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		testConfig := `[database]
path = "/custom/path.db"

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"
redirect_uri = "http://localhost:3000/callback"

[session]
search_limit = 25
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}
		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}
		if config.Credentials.Spotify.ClientID != "test_client_id" {
			t.Errorf("expected spotify client_id test_client_id, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.Session.SearchLimit != 25 {
			t.Errorf("expected search limit 25, got %d", config.Session.SearchLimit)
		}
		if config.Session.PageSize != 50 {
			t.Errorf("expected default page size to survive, got %d", config.Session.PageSize)
		}
	})

	t.Run("LoadConfig rejects invalid TOML", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[database\npath ="), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		if _, err := LoadConfig(configPath); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("SaveConfig round trips tokens", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		config := DefaultConfig()
		config.Credentials.Spotify.ClientID = "id"
		expiry := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
		if err := config.Credentials.Spotify.Update(&oauth2.Token{
			AccessToken:  "access",
			RefreshToken: "refresh",
			TokenType:    "Bearer",
			Expiry:       expiry,
		}); err != nil {
			t.Fatalf("failed to update token: %v", err)
		}

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("failed to save config: %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load saved config: %v", err)
		}
		token := loaded.Credentials.Spotify.Token()
		if token == nil {
			t.Fatal("expected token to be restored")
		}
		if token.AccessToken != "access" || token.RefreshToken != "refresh" {
			t.Errorf("unexpected token %+v", token)
		}
		if !token.Expiry.Equal(expiry) {
			t.Errorf("expected expiry %v, got %v", expiry, token.Expiry)
		}
	})
}

func TestSpotifyConfig(t *testing.T) {
	t.Run("Validate names every missing field", func(t *testing.T) {
		err := SpotifyConfig{ClientID: "id", ClientSecret: "  "}.Validate()

		var cfgErr *ConfigurationError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("expected ConfigurationError, got %v", err)
		}
		if len(cfgErr.Missing) != 2 {
			t.Fatalf("expected 2 missing fields, got %v", cfgErr.Missing)
		}
		if !strings.Contains(err.Error(), "client_secret") || !strings.Contains(err.Error(), "redirect_uri") {
			t.Errorf("expected field names in message, got %q", err.Error())
		}
		if strings.Contains(err.Error(), "client_id (") {
			t.Errorf("client_id is present and should not be reported, got %q", err.Error())
		}
		if !errors.Is(err, ErrMissingCredentials) {
			t.Error("expected error to wrap ErrMissingCredentials")
		}
	})

	t.Run("Validate accepts complete credentials", func(t *testing.T) {
		cfg := SpotifyConfig{ClientID: "id", ClientSecret: "secret", RedirectURI: "http://localhost/cb"}
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("Token is nil without stored values", func(t *testing.T) {
		if tok := (SpotifyConfig{}).Token(); tok != nil {
			t.Errorf("expected nil token, got %+v", tok)
		}
	})

	t.Run("Update keeps refresh token when omitted", func(t *testing.T) {
		cfg := SpotifyConfig{RefreshToken: "keep"}
		if err := cfg.Update(&oauth2.Token{AccessToken: "new"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.RefreshToken != "keep" {
			t.Errorf("expected refresh token to be kept, got %s", cfg.RefreshToken)
		}
		if err := cfg.Update(nil); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for nil token, got %v", err)
		}
	})

	t.Run("ApplyEnv overlays credentials", func(t *testing.T) {
		env := map[string]string{
			EnvClientID:     "env-id",
			EnvClientSecret: " env-secret ",
			EnvRedirectURI:  "",
			EnvYouTubeKey:   "yt-key",
		}
		config := DefaultConfig()
		config.Credentials.Spotify.RedirectURI = "http://file/callback"
		config.ApplyEnv(func(k string) (string, bool) {
			v, ok := env[k]
			return v, ok
		})

		if config.Credentials.Spotify.ClientID != "env-id" {
			t.Errorf("expected env client id, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.Credentials.Spotify.ClientSecret != "env-secret" {
			t.Errorf("expected trimmed env secret, got %q", config.Credentials.Spotify.ClientSecret)
		}
		if config.Credentials.Spotify.RedirectURI != "http://file/callback" {
			t.Errorf("blank env value should not override file, got %s", config.Credentials.Spotify.RedirectURI)
		}
		if config.Credentials.YouTube.APIKey != "yt-key" {
			t.Errorf("expected youtube key from env, got %s", config.Credentials.YouTube.APIKey)
		}
	})
}
