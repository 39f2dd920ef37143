package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/spm/internal/shared"
	"github.com/urfave/cli/v3"
)

// YouTube looks up a video for the joined arguments and opens it in the browser.
func (r *Runner) YouTube(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}

	lookup := r.lookupFor(ctx)
	if lookup == nil {
		return &shared.ConfigurationError{Missing: []string{
			"api_key (" + shared.EnvYouTubeKey + ") or proxy_url in [credentials.youtube]",
		}}
	}

	r.logger.Debug("looking up video", "service", lookup.Name(), "query", query)
	url, err := lookup.LookupVideo(ctx, query)
	if err != nil {
		return err
	}

	r.writePlain("%s\n", url)
	if cmd.Bool("no-open") {
		return nil
	}
	if err := r.open(url); err != nil {
		r.logger.Warn("failed to open browser", "error", err)
		r.writePlainln("⚠ Could not open browser automatically.")
	}
	return nil
}
