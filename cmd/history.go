package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/spm/internal/models"
	"github.com/desertthunder/spm/internal/shared"
	"github.com/urfave/cli/v3"
)

// History lists recorded playlist creations, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	criteria := map[string]any{"limit": cmd.Int("limit")}
	if status := cmd.String("status"); status != "" {
		switch s := models.CreationStatus(status); s {
		case models.CreationComplete, models.CreationPartial, models.CreationFailed:
			criteria["status"] = s
		default:
			return fmt.Errorf("%w: status %q", shared.ErrInvalidArgument, status)
		}
	}

	store, err := r.historyFor()
	if err != nil {
		return err
	}

	records, err := store.List(ctx, criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(records, true)
	}

	if len(records) == 0 {
		return r.writePlain("No playlists created yet\n")
	}
	for _, rec := range records {
		r.writePlain("%s  %-8s  %s (%d/%d tracks)\n",
			rec.CreatedAt.Local().Format("2006-01-02 15:04"), rec.Status, rec.Name, rec.Confirmed, rec.Requested)
		if rec.URL != "" {
			r.writePlain("    %s\n", rec.URL)
		}
		if rec.Error != "" {
			r.writePlain("    error: %s\n", rec.Error)
		}
	}
	return nil
}
