package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spm/internal/shared"
	"golang.org/x/oauth2"
)

// DefaultLoginTimeout bounds how long [Login] waits for the browser callback.
const DefaultLoginTimeout = 2 * time.Minute

// LoginOptions configures a single authorization code flow.
type LoginOptions struct {
	Config  *oauth2.Config
	AuthURL func(state string) string // builds the authorization URL, defaults to Config.AuthCodeURL
	Open    func(url string) error    // opens the authorization URL
	Prompt  func(url string)          // shows the URL when Open fails or is nil
	Timeout time.Duration
	Logger  *log.Logger
}

// Login serves the OAuth callback on ln, sends the user to the authorization page and waits for a token.
// The server is shut down before Login returns.
func Login(ctx context.Context, ln net.Listener, opts LoginOptions) (*oauth2.Token, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("%w: oauth config", shared.ErrMissingArgument)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultLoginTimeout
	}

	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	handler := NewOAuthHandler(opts.Config, state)
	router := NewBasicRouter()
	router.Use(RequestLogger(logger))
	router.Handler(handler)

	srv := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting OAuth callback server", "addr", ln.Addr().String(), "routes", handler.Routes())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("error shutting down server", "error", err)
		}
	}()

	authURL := opts.Config.AuthCodeURL(state)
	if opts.AuthURL != nil {
		authURL = opts.AuthURL(state)
	}
	if opts.Open == nil || opts.Open(authURL) != nil {
		if opts.Prompt != nil {
			opts.Prompt(authURL)
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var result OAuthResult
	select {
	case result = <-handler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timer.C:
		return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, result.Error()
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}
	return result.Token, nil
}
