package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spm/internal/models"
	"github.com/desertthunder/spm/internal/repositories"
	"github.com/desertthunder/spm/internal/server"
	"github.com/desertthunder/spm/internal/services"
	"github.com/desertthunder/spm/internal/session"
	"github.com/desertthunder/spm/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const defaultConfigPath = "config.toml"

// HistoryStore records playlist creations and lists them back.
type HistoryStore interface {
	session.Recorder
	List(ctx context.Context, criteria map[string]any) ([]*models.CreationRecord, error)
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Remote clients and the history database are built on first use so commands like "setup" and
// "auth" work without tokens.
type Runner struct {
	config     *shared.Config
	configPath string
	loaded     bool
	catalog    services.Catalog
	spotify    *services.SpotifyService
	lookup     services.VideoLookup
	history    HistoryStore
	db         *sql.DB
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	open       func(string) error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Catalog    services.Catalog
	Lookup     services.VideoLookup
	History    HistoryStore
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Open       func(url string) error
}

// NewRunner creates a new Runner with the provided configuration.
// A nil Config is loaded from ConfigPath when the CLI starts.
func NewRunner(opts RunnerOpts) *Runner {
	loaded := opts.Config != nil
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Open == nil {
		opts.Open = shared.OpenBrowser
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		loaded:     loaded,
		catalog:    opts.Catalog,
		lookup:     opts.Lookup,
		history:    opts.History,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		open:       opts.Open,
	}
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Before loads configuration and applies global flags.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	if cmd.IsSet("config") || r.configPath == "" {
		r.configPath = cmd.String("config")
	}

	if !r.loaded {
		config, err := shared.ResolveConfig(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
		r.loaded = true
		r.logger.Debug("configuration loaded", "path", r.configPath)
	}

	return context.WithValue(ctx, oauth2.HTTPClient, r.httpClient), nil
}

// Close releases the history database.
func (r *Runner) Close(ctx context.Context, cmd *cli.Command) error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// catalogFor returns the Spotify client, authenticated with the stored token.
func (r *Runner) catalogFor(ctx context.Context) (services.Catalog, error) {
	if r.catalog != nil {
		return r.catalog, nil
	}

	creds := r.config.Credentials.Spotify
	svc, err := services.NewSpotifyService(creds)
	if err != nil {
		return nil, err
	}
	svc.SetRateLimit(r.config.Session.RequestsPerSecond)
	svc.SetTokenRefreshCallback(func(token *oauth2.Token) {
		if err := r.saveTokens(token); err != nil {
			r.logger.Warn("failed to persist refreshed token", "error", err)
			return
		}
		r.logger.Debug("refreshed token saved", "path", r.configPath)
	})

	if err := svc.OAuthenticate(ctx, creds.Token()); err != nil {
		return nil, fmt.Errorf("%w (run 'spm auth' first)", err)
	}

	r.spotify = svc
	r.catalog = svc
	return svc, nil
}

// lookupFor returns the configured video lookup, or nil when none is configured.
func (r *Runner) lookupFor(ctx context.Context) services.VideoLookup {
	if r.lookup != nil {
		return r.lookup
	}

	lookup, err := services.NewVideoLookup(ctx, r.config.Credentials.YouTube)
	if err != nil {
		r.logger.Warn("video lookup unavailable", "error", err)
		return nil
	}
	if lookup == nil {
		r.logger.Debug("no youtube api_key or proxy_url configured")
		return nil
	}
	r.lookup = lookup
	return lookup
}

// historyFor opens the history database and applies migrations.
func (r *Runner) historyFor() (HistoryStore, error) {
	if r.history != nil {
		return r.history, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	r.db = db
	r.history = repositories.NewCreationRepository(db)
	return r.history, nil
}

// newSession builds a session manager over the remote catalog. progress and logger may be nil.
func (r *Runner) newSession(ctx context.Context, progress chan<- session.ProgressUpdate, logger *log.Logger) (*session.Manager, error) {
	if err := r.config.Credentials.Spotify.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = r.logger
	}

	catalog, err := r.catalogFor(ctx)
	if err != nil {
		return nil, err
	}

	opts := session.Options{
		Catalog:     catalog,
		Logger:      logger,
		Progress:    progress,
		PageSize:    r.config.Session.PageSize,
		SearchLimit: r.config.Session.SearchLimit,
	}
	if lookup := r.lookupFor(ctx); lookup != nil {
		opts.Lookup = lookup
	}
	if history, err := r.historyFor(); err != nil {
		logger.Warn("creation history disabled", "error", err)
	} else {
		opts.Recorder = history
	}

	return session.New(r.config.Credentials.Spotify, opts)
}

// withReauth runs fn and, when the token was rejected, logs in again and retries once.
func (r *Runner) withReauth(ctx context.Context, fn func() error) error {
	err := fn()
	if err == nil || !errors.Is(err, shared.ErrTokenExpired) || r.spotify == nil {
		return err
	}

	r.writePlainln("⚠ Authentication token expired. Starting reauthorization...")
	token, loginErr := r.login(ctx, r.spotify)
	if loginErr != nil {
		return fmt.Errorf("reauthorization failed: %w", loginErr)
	}
	if err := r.saveTokens(token); err != nil {
		return err
	}
	if err := r.spotify.OAuthenticate(ctx, token); err != nil {
		return fmt.Errorf("failed to authenticate with new tokens: %w", err)
	}
	return fn()
}

// login runs the browser authorization flow on the configured callback address.
func (r *Runner) login(ctx context.Context, svc *services.SpotifyService) (*oauth2.Token, error) {
	addr := net.JoinHostPort(r.config.Server.Host, strconv.Itoa(r.config.Server.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	r.writePlain("→ Waiting for authorization (%s timeout)...\n", server.DefaultLoginTimeout)

	return server.Login(ctx, ln, server.LoginOptions{
		Config:  svc.GetOAuthConfig(),
		AuthURL: svc.GetAuthURL,
		Open:    r.open,
		Prompt: func(url string) {
			r.writePlainln("⚠ Could not open browser automatically.")
			r.writePlain("Please open this URL in your browser:\n%s\n\n", url)
		},
		Timeout: server.DefaultLoginTimeout,
		Logger:  r.logger,
	})
}

// saveTokens stores token on the config and writes it back to the config file.
func (r *Runner) saveTokens(token *oauth2.Token) error {
	if r.config == nil {
		return fmt.Errorf("%w: no configuration loaded", shared.ErrMissingConfig)
	}
	path := r.configPath
	if path == "" {
		path = defaultConfigPath
	}

	if err := r.config.Credentials.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to update spotify configuration: %w", err)
	}
	if err := shared.SaveConfig(path, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
