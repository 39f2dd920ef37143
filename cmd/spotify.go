package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/spm/internal/formatter"
	"github.com/desertthunder/spm/internal/models"
	"github.com/desertthunder/spm/internal/session"
	"github.com/desertthunder/spm/internal/shared"
	"github.com/urfave/cli/v3"
)

// Playlists lists the user's playlists.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	mgr, err := r.newSession(ctx, nil, nil)
	if err != nil {
		return err
	}

	var playlists []models.PlaylistSummary
	if err := r.withReauth(ctx, func() (err error) {
		playlists, err = mgr.LoadPlaylists(ctx)
		return err
	}); err != nil {
		return err
	}

	if limit := cmd.Int("limit"); limit > 0 && limit < len(playlists) {
		playlists = playlists[:limit]
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d playlists:\n\n", len(playlists))
	for i, p := range playlists {
		r.writePlain("%d. %s (%d tracks, %s)\n", i+1, p.Name, p.TotalTracks, formatter.Visibility(p.Public))
		r.writePlain("   ID: %s\n", p.ID)
		if p.Description != "" {
			r.writePlain("   %s\n", p.Description)
		}
	}
	return nil
}

// Tracks resolves a playlist by name or id and prints or exports its tracks.
func (r *Runner) Tracks(ctx context.Context, cmd *cli.Command) error {
	ref := strings.TrimSpace(cmd.StringArg("playlist"))
	if ref == "" {
		return fmt.Errorf("%w: playlist name or id", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	mgr, err := r.newSession(ctx, nil, nil)
	if err != nil {
		return err
	}

	var viewed *session.Viewed
	if err := r.withReauth(ctx, func() error {
		if _, err := mgr.LoadPlaylists(ctx); err != nil {
			return err
		}
		summary, err := mgr.ResolvePlaylist(ref)
		if err != nil {
			return err
		}
		viewed, err = mgr.FetchPlaylistTracks(ctx, summary.ID)
		return err
	}); err != nil {
		return err
	}

	listing := &formatter.Listing{Playlist: viewed.Summary, Tracks: viewed.Tracks, Fetched: viewed.Fetched}
	r.logger.Debug("fetched playlist", "id", viewed.Summary.ID, "fetched", viewed.Fetched, "rows", len(viewed.Tracks))

	if path := cmd.String("output"); path != "" || cmd.Bool("save") {
		written, err := formatter.WriteExport(listing, format, path)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Exported %d tracks to %s\n", len(viewed.Tracks), written)
	}

	data, err := formatter.Export(listing, format)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// Search prints catalog search results for the joined arguments.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.Join(cmd.Args().Slice(), " ")

	mgr, err := r.newSession(ctx, nil, nil)
	if err != nil {
		return err
	}

	var results []models.Track
	if err := r.withReauth(ctx, func() (err error) {
		results, err = mgr.SearchTracks(ctx, query, cmd.Int("limit"))
		return err
	}); err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(results, cmd.Bool("pretty"))
	}

	if len(results) == 0 {
		return r.writePlain("No tracks found for %q\n", strings.TrimSpace(query))
	}
	for i, t := range results {
		r.writePlain("%d. %s\n", i+1, t)
		details := []string{}
		if t.Album != "" {
			details = append(details, t.Album)
		}
		if t.DurationMS > 0 {
			details = append(details, formatter.FormatDuration(t.DurationMS))
		}
		details = append(details, t.URI)
		r.writePlain("   %s\n", strings.Join(details, " • "))
	}
	return nil
}

// Create stages the top result of every --query and creates a playlist from them.
func (r *Runner) Create(ctx context.Context, cmd *cli.Command) error {
	queries := cmd.StringSlice("query")
	if len(queries) == 0 {
		return fmt.Errorf("%w: at least one --query", shared.ErrMissingArgument)
	}

	progress := make(chan session.ProgressUpdate, 16)
	mgr, err := r.newSession(ctx, progress, nil)
	if err != nil {
		return err
	}

	for _, q := range queries {
		var results []models.Track
		if err := r.withReauth(ctx, func() (err error) {
			results, err = mgr.SearchTracks(ctx, q, 1)
			return err
		}); err != nil {
			if shared.KindOf(err) == shared.KindInvalidInput {
				r.logger.Warn("skipping empty query")
				continue
			}
			return err
		}
		if len(results) == 0 {
			r.writePlain("✗ No match for %q\n", q)
			continue
		}

		added, err := mgr.StageTrack(0)
		if err != nil {
			return err
		}
		if added {
			r.writePlain("+ %s\n", results[0])
		} else {
			r.writePlain("= %s (already staged)\n", results[0])
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.writePlain("→ %s\n", update.Message)
		}
	}()

	result, err := mgr.CreatePlaylist(ctx, cmd.String("name"), cmd.String("description"), !cmd.Bool("private"))
	close(progress)
	<-done

	if result != nil && result.Playlist != nil {
		r.writePlain("\nPlaylist: %s\n", result.Name)
		r.writePlain("ID: %s\n", result.Playlist.ID)
		r.writePlain("URL: %s\n", result.Playlist.URL)
		r.writePlain("Tracks: %d/%d\n", result.Confirmed, result.Requested)
	}
	if err != nil {
		return err
	}

	r.writePlainln("✓ Playlist created")
	if result.RefreshErr != nil {
		r.writePlain("⚠ Could not refresh your playlists: %v\n", result.RefreshErr)
	}
	return nil
}
