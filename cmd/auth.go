package main

import (
	"context"

	"github.com/desertthunder/spm/internal/services"
	"github.com/urfave/cli/v3"
)

// Auth performs the OAuth2 authorization code flow and saves the tokens to the config file.
//
// Starts a local HTTP server on the configured host and port, opens the browser for user
// authorization and exchanges the returned code for tokens.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	svc, err := services.NewSpotifyService(r.config.Credentials.Spotify)
	if err != nil {
		return err
	}

	token, err := r.login(ctx, svc)
	if err != nil {
		return err
	}

	if err := r.saveTokens(token); err != nil {
		return err
	}

	r.logger.Info("spotify authorization complete", "expiry", token.Expiry)
	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Tokens saved to %s\n\n", r.configPath)
	r.writePlain("You can now use: spm playlists\n")
	return nil
}
