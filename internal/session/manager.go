package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spm/internal/models"
	"github.com/desertthunder/spm/internal/services"
	"github.com/desertthunder/spm/internal/shared"
)

const (
	// DefaultPageSize is the page size hint used when listing playlists.
	DefaultPageSize = 50
	// DefaultTrackPageSize is the page size hint used when listing a playlist's items.
	DefaultTrackPageSize = services.MaxPlaylistTracksPageSize
	// DefaultSearchLimit is the number of results a search returns when no limit is given.
	DefaultSearchLimit = 10
	// MaxSearchLimit is the most results a single search may return.
	MaxSearchLimit = services.MaxPageSize
	// ChunkSize is the most tracks submitted in one add-items request.
	ChunkSize = services.MaxItemsPerRequest
)

// Recorder persists playlist creation attempts.
type Recorder interface {
	RecordCreation(ctx context.Context, rec *models.CreationRecord) error
}

// Options configures a [Manager]. Catalog is required; everything else is optional.
type Options struct {
	Catalog     services.Catalog
	Lookup      services.VideoLookup
	Recorder    Recorder
	Logger      *log.Logger
	Progress    chan<- ProgressUpdate
	PageSize    int
	SearchLimit int
}

// Viewed is the currently inspected playlist. Fetched counts every item the service returned,
// including removed tracks that have no row in Tracks.
type Viewed struct {
	Summary models.PlaylistSummary
	Tracks  []models.Track
	Fetched int
}

// Draft holds the create-playlist form fields.
type Draft struct {
	Name        string
	Description string
	Public      bool
}

// Snapshot is a copy of the session state for rendering.
type Snapshot struct {
	Playlists []models.PlaylistSummary
	Viewed    Viewed
	Results   []models.Track
	Query     string
	Selection []models.Track
	Draft     Draft
}

// CreateResult describes a create attempt. After a failure it reports what the service already holds.
type CreateResult struct {
	Playlist   *models.CreatedPlaylist // nil when the remote playlist was never created
	Name       string
	Requested  int   // tracks staged at submission
	Confirmed  int   // tracks acknowledged by the service
	Chunks     int   // add-items requests that succeeded
	RefreshErr error // playlist refresh failure after a successful create
}

// Complete reports whether every requested track was confirmed.
func (r *CreateResult) Complete() bool {
	return r.Playlist != nil && r.Confirmed == r.Requested
}

// Manager mediates every read and write of session state and drives the remote catalog.
//
// Operations are synchronous and must not overlap. The lock only guarantees that [Manager.Snapshot]
// never observes a half-replaced collection.
type Manager struct {
	catalog     services.Catalog
	lookup      services.VideoLookup
	recorder    Recorder
	logger      *log.Logger
	progress    chan<- ProgressUpdate
	pageSize    int
	searchLimit int

	mu        sync.RWMutex
	playlists []models.PlaylistSummary
	viewed    Viewed
	results   []models.Track
	query     string
	selection []models.Track
	draft     Draft
}

// New validates creds and builds a Manager. Missing credentials produce a [*shared.ConfigurationError]
// naming every absent field.
func New(creds shared.SpotifyConfig, opts Options) (*Manager, error) {
	var missing []string
	if err := creds.Validate(); err != nil {
		var cfgErr *shared.ConfigurationError
		if !errors.As(err, &cfgErr) {
			return nil, err
		}
		missing = append(missing, cfgErr.Missing...)
	}
	if opts.Catalog == nil {
		missing = append(missing, "catalog")
	}
	if len(missing) > 0 {
		return nil, &shared.ConfigurationError{Missing: missing}
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	pageSize := opts.PageSize
	if pageSize <= 0 || pageSize > services.MaxPageSize {
		pageSize = DefaultPageSize
	}
	searchLimit := opts.SearchLimit
	if searchLimit <= 0 {
		searchLimit = DefaultSearchLimit
	}

	return &Manager{
		catalog:     opts.Catalog,
		lookup:      opts.Lookup,
		recorder:    opts.Recorder,
		logger:      logger,
		progress:    opts.Progress,
		pageSize:    pageSize,
		searchLimit: min(searchLimit, MaxSearchLimit),
	}, nil
}

// sendProgress sends update without blocking.
func (m *Manager) sendProgress(update ProgressUpdate) {
	if m.progress == nil {
		return
	}
	select {
	case m.progress <- update:
	default:
	}
}

// LoadPlaylists fetches every page of the user's playlists and replaces the collection.
// On failure the previous collection is kept.
func (m *Manager) LoadPlaylists(ctx context.Context) ([]models.PlaylistSummary, error) {
	const op = "load playlists"

	var all []models.PlaylistSummary
	cursor := ""
	seen := map[string]struct{}{}
	for page := 1; ; page++ {
		res, err := m.catalog.UserPlaylists(ctx, cursor, m.pageSize)
		if err != nil {
			m.logger.Error("failed to load playlists", "page", page, "error", err)
			return nil, shared.NewError(shared.KindRemoteFetch, op, err)
		}

		all = append(all, res.Items...)
		m.sendProgress(fetchPlaylistsUpdate(page, res.Total, len(all)))

		if res.Next == "" {
			break
		}
		if _, ok := seen[res.Next]; ok {
			m.logger.Warn("pagination cursor repeated", "cursor", res.Next)
			break
		}
		seen[res.Next] = struct{}{}
		cursor = res.Next
	}

	m.mu.Lock()
	m.playlists = all
	m.mu.Unlock()

	m.logger.Info("loaded playlists", "count", len(all))
	return slices.Clone(all), nil
}

// ResolvePlaylist maps a display name or ID to a loaded playlist. Exact matches win over
// case-insensitive ones.
func (m *Manager) ResolvePlaylist(nameOrID string) (models.PlaylistSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.playlists {
		if p.ID == nameOrID || p.Name == nameOrID {
			return p, nil
		}
	}
	for _, p := range m.playlists {
		if strings.EqualFold(p.Name, nameOrID) {
			return p, nil
		}
	}
	return models.PlaylistSummary{}, shared.Errorf(shared.KindNotFound, "resolve playlist", "%q", nameOrID)
}

func (m *Manager) findPlaylist(id string) (models.PlaylistSummary, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.playlists {
		if p.ID == id {
			return p, true
		}
	}
	return models.PlaylistSummary{}, false
}

// FetchPlaylistTracks fetches every item of a loaded playlist and makes it the viewed playlist.
// Removed tracks are counted but produce no row.
func (m *Manager) FetchPlaylistTracks(ctx context.Context, playlistID string) (*Viewed, error) {
	const op = "fetch playlist tracks"

	summary, ok := m.findPlaylist(playlistID)
	if !ok {
		return nil, shared.Errorf(shared.KindNotFound, op, "playlist %q is not loaded", playlistID)
	}

	tracks := []models.Track{}
	fetched := 0
	cursor := ""
	seen := map[string]struct{}{}
	for page := 1; ; page++ {
		res, err := m.catalog.PlaylistTracks(ctx, playlistID, cursor, DefaultTrackPageSize)
		if err != nil {
			m.logger.Error("failed to fetch playlist tracks", "playlist", summary.Name, "page", page, "error", err)
			return nil, shared.NewError(shared.KindRemoteFetch, op, err)
		}

		fetched += len(res.Items)
		for _, item := range res.Items {
			if item.Track == nil {
				continue
			}
			tracks = append(tracks, *item.Track)
		}
		m.sendProgress(fetchTracksUpdate(page, res.Total, fetched, summary.Name))

		if res.Next == "" {
			break
		}
		if _, ok := seen[res.Next]; ok {
			m.logger.Warn("pagination cursor repeated", "cursor", res.Next)
			break
		}
		seen[res.Next] = struct{}{}
		cursor = res.Next
	}

	viewed := Viewed{Summary: summary, Tracks: tracks, Fetched: fetched}

	m.mu.Lock()
	m.viewed = viewed
	m.mu.Unlock()

	m.logger.Info("fetched playlist tracks", "playlist", summary.Name, "fetched", fetched, "rows", len(tracks))
	out := viewed
	out.Tracks = cloneTracks(tracks)
	return &out, nil
}

// SearchTracks runs one catalog search and replaces the result set. limit <= 0 uses the configured
// default; larger limits are clamped to [MaxSearchLimit].
func (m *Manager) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	const op = "search tracks"

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, shared.Errorf(shared.KindInvalidInput, op, "query is empty")
	}
	if limit <= 0 {
		limit = m.searchLimit
	}
	limit = min(limit, MaxSearchLimit)

	found, err := m.catalog.SearchTracks(ctx, query, limit)
	if err != nil {
		m.logger.Error("search failed", "query", query, "error", err)
		return nil, shared.NewError(shared.KindRemoteFetch, op, err)
	}
	if len(found) > limit {
		found = found[:limit]
	}

	m.mu.Lock()
	m.results = found
	m.query = query
	m.mu.Unlock()

	m.logger.Debug("search complete", "query", query, "results", len(found))
	return cloneTracks(found), nil
}

// StageTrack adds the i-th search result to the selection. It returns false without error
// when a track with the same URI is already staged.
func (m *Manager) StageTrack(i int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i < 0 || i >= len(m.results) {
		return false, shared.Errorf(shared.KindIndex, "stage track", "result %d of %d", i, len(m.results))
	}

	track := m.results[i]
	for _, t := range m.selection {
		if t.URI == track.URI {
			return false, nil
		}
	}
	m.selection = append(m.selection, track)
	return true, nil
}

// UnstageTrack removes and returns the i-th staged track. Later entries shift down by one.
func (m *Manager) UnstageTrack(i int) (models.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i < 0 || i >= len(m.selection) {
		return models.Track{}, shared.Errorf(shared.KindIndex, "unstage track", "selection %d of %d", i, len(m.selection))
	}

	removed := m.selection[i]
	m.selection = slices.Delete(slices.Clone(m.selection), i, i+1)
	return removed, nil
}

// SetDraft stores the create form so a failed attempt can be retried without re-entry.
func (m *Manager) SetDraft(name, description string, public bool) {
	m.mu.Lock()
	m.draft = Draft{Name: name, Description: description, Public: public}
	m.mu.Unlock()
}

// Reset clears search results, query, selection and draft.
func (m *Manager) Reset() {
	m.mu.Lock()
	m.results = nil
	m.query = ""
	m.selection = nil
	m.draft = Draft{}
	m.mu.Unlock()
}

// CreatePlaylist creates a playlist from the staged tracks.
//
// Tracks are submitted in selection order, in sequential chunks of at most [ChunkSize]. The first failing
// chunk stops submission; the returned result then reports the confirmed prefix alongside the error, and
// the selection and draft are kept. Nothing is rolled back.
func (m *Manager) CreatePlaylist(ctx context.Context, name, description string, public bool) (*CreateResult, error) {
	const op = "create playlist"

	m.mu.Lock()
	m.draft = Draft{Name: name, Description: description, Public: public}
	staged := cloneTracks(m.selection)
	m.mu.Unlock()

	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if name == "" {
		return nil, shared.Errorf(shared.KindInvalidInput, op, "playlist name is required")
	}
	if len(staged) == 0 {
		return nil, shared.Errorf(shared.KindInvalidInput, op, "no tracks staged")
	}

	uris := make([]string, len(staged))
	for i, t := range staged {
		uris[i] = t.URI
	}
	chunks := chunk(uris, ChunkSize)
	steps := len(chunks) + 3
	result := &CreateResult{Name: name, Requested: len(uris)}

	m.sendProgress(resolveUserUpdate(1, steps))
	userID, err := m.catalog.CurrentUserID(ctx)
	if err != nil {
		return m.createFailed(ctx, result, public, "resolve user", err)
	}

	m.sendProgress(createRemoteUpdate(2, steps, name))
	created, err := m.catalog.CreatePlaylist(ctx, userID, models.NewPlaylist{Name: name, Description: description, Public: public})
	if err != nil {
		return m.createFailed(ctx, result, public, "create remote playlist", err)
	}
	result.Playlist = created
	m.logger.Info("created remote playlist", "name", name, "id", created.ID)

	for k, batch := range chunks {
		m.sendProgress(addItemsUpdate(3+k, steps, k+1, len(chunks), result.Confirmed+len(batch), len(uris)))
		if err := m.catalog.AddPlaylistItems(ctx, created.ID, batch); err != nil {
			cause := fmt.Errorf("chunk %d of %d: %w", k+1, len(chunks), err)
			return m.createFailed(ctx, result, public, "add items", cause)
		}
		result.Chunks++
		result.Confirmed += len(batch)
		m.logger.Debug("submitted chunk", "chunk", k+1, "of", len(chunks), "size", len(batch), "confirmed", result.Confirmed)
	}

	m.record(ctx, result, public, models.CreationComplete, nil)

	m.sendProgress(refreshUpdate(steps, steps))
	if _, err := m.LoadPlaylists(ctx); err != nil {
		m.logger.Warn("playlist created but refresh failed", "id", created.ID, "error", err)
		result.RefreshErr = err
	}

	m.Reset()
	m.logger.Info("playlist complete", "name", name, "url", created.URL, "tracks", result.Confirmed)
	return result, nil
}

// createFailed logs and records a failed create, leaving selection and draft in place.
func (m *Manager) createFailed(ctx context.Context, result *CreateResult, public bool, stage string, err error) (*CreateResult, error) {
	m.logger.Error("create playlist failed", "stage", stage, "name", result.Name,
		"confirmed", result.Confirmed, "requested", result.Requested, "error", err)

	status := models.CreationFailed
	if result.Playlist != nil {
		status = models.CreationPartial
	}
	m.record(ctx, result, public, status, err)

	return result, shared.NewError(shared.KindRemoteFetch, "create playlist: "+stage, err)
}

// record persists a creation attempt. Failures are logged and otherwise ignored.
func (m *Manager) record(ctx context.Context, result *CreateResult, public bool, status models.CreationStatus, cause error) {
	if m.recorder == nil {
		return
	}

	rec := &models.CreationRecord{
		Name:      result.Name,
		Public:    public,
		Requested: result.Requested,
		Confirmed: result.Confirmed,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
	if result.Playlist != nil {
		rec.PlaylistID = result.Playlist.ID
		rec.URL = result.Playlist.URL
	}
	if cause != nil {
		rec.Error = cause.Error()
	}

	if err := m.recorder.RecordCreation(ctx, rec); err != nil {
		m.logger.Warn("failed to record playlist creation", "name", result.Name, "error", err)
	}
}

// ResolveVideo finds a playable video for track. Lookup failures are logged and reported as ok=false.
func (m *Manager) ResolveVideo(ctx context.Context, track models.Track) (string, bool) {
	if m.lookup == nil {
		m.logger.Debug("video lookup not configured")
		return "", false
	}

	query := VideoQuery(track)
	url, err := m.lookup.LookupVideo(ctx, query)
	if err != nil {
		m.logger.Warn("video lookup failed", "query", query, "service", m.lookup.Name(), "error", err)
		return "", false
	}
	return url, true
}

// VideoQuery builds the free-text video search for track.
func VideoQuery(track models.Track) string {
	if len(track.Artists) == 0 {
		return track.Name + " audio"
	}
	return fmt.Sprintf("%s - %s audio", track.Name, track.ArtistLine())
}

// Snapshot returns a copy of the session state that shares no slices with the manager.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	viewed := m.viewed
	viewed.Tracks = cloneTracks(m.viewed.Tracks)

	return Snapshot{
		Playlists: slices.Clone(m.playlists),
		Viewed:    viewed,
		Results:   cloneTracks(m.results),
		Query:     m.query,
		Selection: cloneTracks(m.selection),
		Draft:     m.draft,
	}
}

// chunk splits items into consecutive slices of at most size elements.
func chunk(items []string, size int) [][]string {
	chunks := make([][]string, 0, (len(items)+size-1)/size)
	for i := 0; i < len(items); i += size {
		chunks = append(chunks, items[i:min(i+size, len(items))])
	}
	return chunks
}

func cloneTracks(tracks []models.Track) []models.Track {
	if tracks == nil {
		return nil
	}
	out := make([]models.Track, len(tracks))
	for i, t := range tracks {
		t.Artists = slices.Clone(t.Artists)
		out[i] = t
	}
	return out
}
