package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/desertthunder/spm/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp(runner).Run(ctx, os.Args); err != nil {
		var cfgErr *shared.ConfigurationError
		if errors.As(err, &cfgErr) {
			logger.Error("missing configuration", "fields", cfgErr.Missing)
			logger.Info("set them in config.toml or the environment, then run 'spm auth'")
			os.Exit(2)
		}
		logger.Fatal("application error", "error", err)
	}
}
