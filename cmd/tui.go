package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/spm/internal/session"
	"github.com/desertthunder/spm/internal/shared"
	"github.com/desertthunder/spm/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive session.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	if cmd.Bool("verbose") {
		shared.SetLogLevel(fileLogger, log.DebugLevel)
	}
	r.SetLogger(fileLogger)

	progress := make(chan session.ProgressUpdate, 32)
	mgr, err := r.newSession(ctx, progress, fileLogger)
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, mgr, ui.Options{Progress: progress, Open: r.open, Logger: fileLogger})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
