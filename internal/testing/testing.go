// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/spm/internal/models"
	"github.com/desertthunder/spm/internal/shared"
)

// StubCatalog is a scriptable test double for [services.Catalog] that counts every call.
//
// Pages are served in order; cursors are generated so callers only need to pass Next back.
type StubCatalog struct {
	UserID        string
	PlaylistPages []models.Page[models.PlaylistSummary]
	TrackPages    map[string][]models.Page[models.PlaylistItem]
	SearchResults []models.Track
	Created       models.CreatedPlaylist

	UserErr        error
	PlaylistsErr   error // returned from page PlaylistsErrAt (1-based, 0 means every page)
	PlaylistsErrAt int
	TracksErr      error
	SearchErr      error
	CreateErr      error
	AddErr         error // returned from the AddErrAt-th add-items call (1-based)
	AddErrAt       int

	mu           sync.Mutex
	calls        map[string]int
	Added        [][]string
	Queries      []string
	PageLimits   []int
	SearchLimits []int
	Playlists    []models.NewPlaylist
}

func (s *StubCatalog) count(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[method]++
	return s.calls[method]
}

// Calls returns how many times method was invoked.
func (s *StubCatalog) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

// TotalCalls returns the number of calls across all methods.
func (s *StubCatalog) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

func pageIndex(cursor string) int {
	if cursor == "" {
		return 0
	}
	i, err := strconv.Atoi(strings.TrimPrefix(cursor, "cursor-"))
	if err != nil {
		return -1
	}
	return i
}

func nextCursor(i, pages int) string {
	if i+1 >= pages {
		return ""
	}
	return "cursor-" + strconv.Itoa(i+1)
}

func (s *StubCatalog) CurrentUserID(ctx context.Context) (string, error) {
	s.count("CurrentUserID")
	if s.UserErr != nil {
		return "", s.UserErr
	}
	if s.UserID == "" {
		return "stub-user", nil
	}
	return s.UserID, nil
}

func (s *StubCatalog) UserPlaylists(ctx context.Context, cursor string, limit int) (*models.Page[models.PlaylistSummary], error) {
	n := s.count("UserPlaylists")
	s.mu.Lock()
	s.PageLimits = append(s.PageLimits, limit)
	s.mu.Unlock()

	if s.PlaylistsErr != nil && (s.PlaylistsErrAt == 0 || s.PlaylistsErrAt == n) {
		return nil, s.PlaylistsErr
	}
	if len(s.PlaylistPages) == 0 {
		return &models.Page[models.PlaylistSummary]{}, nil
	}

	i := pageIndex(cursor)
	if i < 0 || i >= len(s.PlaylistPages) {
		return nil, fmt.Errorf("%w: bad cursor %q", shared.ErrInvalidArgument, cursor)
	}
	page := s.PlaylistPages[i]
	page.Next = nextCursor(i, len(s.PlaylistPages))
	return &page, nil
}

func (s *StubCatalog) PlaylistTracks(ctx context.Context, playlistID, cursor string, limit int) (*models.Page[models.PlaylistItem], error) {
	s.count("PlaylistTracks")
	if s.TracksErr != nil {
		return nil, s.TracksErr
	}

	pages, ok := s.TrackPages[playlistID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}
	if len(pages) == 0 {
		return &models.Page[models.PlaylistItem]{}, nil
	}

	i := pageIndex(cursor)
	if i < 0 || i >= len(pages) {
		return nil, fmt.Errorf("%w: bad cursor %q", shared.ErrInvalidArgument, cursor)
	}
	page := pages[i]
	page.Next = nextCursor(i, len(pages))
	return &page, nil
}

func (s *StubCatalog) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	s.count("SearchTracks")
	s.mu.Lock()
	s.Queries = append(s.Queries, query)
	s.SearchLimits = append(s.SearchLimits, limit)
	s.mu.Unlock()

	if s.SearchErr != nil {
		return nil, s.SearchErr
	}
	results := s.SearchResults
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return append([]models.Track(nil), results...), nil
}

func (s *StubCatalog) CreatePlaylist(ctx context.Context, userID string, playlist models.NewPlaylist) (*models.CreatedPlaylist, error) {
	s.count("CreatePlaylist")
	s.mu.Lock()
	s.Playlists = append(s.Playlists, playlist)
	s.mu.Unlock()

	if s.CreateErr != nil {
		return nil, s.CreateErr
	}
	created := s.Created
	if created.ID == "" {
		created = models.CreatedPlaylist{ID: "created-1", URL: "https://open.spotify.com/playlist/created-1"}
	}
	return &created, nil
}

func (s *StubCatalog) AddPlaylistItems(ctx context.Context, playlistID string, uris []string) error {
	n := s.count("AddPlaylistItems")
	if s.AddErr != nil && s.AddErrAt == n {
		return s.AddErr
	}

	s.mu.Lock()
	s.Added = append(s.Added, append([]string(nil), uris...))
	s.mu.Unlock()
	return nil
}

func (s *StubCatalog) Name() string { return "stub" }

// StubLookup is a test double for [services.VideoLookup].
type StubLookup struct {
	URL     string
	Err     error
	Queries []string
}

func (l *StubLookup) LookupVideo(ctx context.Context, query string) (string, error) {
	l.Queries = append(l.Queries, query)
	if l.Err != nil {
		return "", l.Err
	}
	if l.URL == "" {
		return "", shared.ErrNoVideo
	}
	return l.URL, nil
}

func (l *StubLookup) Name() string { return "stub" }

// StubRecorder collects creation records in memory.
type StubRecorder struct {
	Records []models.CreationRecord
	Err     error
}

func (r *StubRecorder) RecordCreation(ctx context.Context, rec *models.CreationRecord) error {
	if r.Err != nil {
		return r.Err
	}
	r.Records = append(r.Records, *rec)
	return nil
}

// Tracks builds n tracks with URIs spotify:track:<prefix><i>.
func Tracks(prefix string, n int) []models.Track {
	tracks := make([]models.Track, n)
	for i := range tracks {
		id := fmt.Sprintf("%s%d", prefix, i)
		tracks[i] = models.Track{
			URI:     "spotify:track:" + id,
			Name:    "Track " + id,
			Artists: []string{"Artist " + prefix},
		}
	}
	return tracks
}

// PlaylistPages builds one page per size with sequentially numbered playlists.
func PlaylistPages(sizes ...int) []models.Page[models.PlaylistSummary] {
	total := 0
	for _, n := range sizes {
		total += n
	}

	pages := make([]models.Page[models.PlaylistSummary], len(sizes))
	seq := 0
	for p, n := range sizes {
		items := make([]models.PlaylistSummary, n)
		for i := range items {
			seq++
			items[i] = models.PlaylistSummary{ID: fmt.Sprintf("pl-%d", seq), Name: fmt.Sprintf("Playlist %d", seq), TotalTracks: seq}
		}
		pages[p] = models.Page[models.PlaylistSummary]{Items: items, Total: total}
	}
	return pages
}

// ItemPages splits items into pages of the given sizes.
func ItemPages(items []models.PlaylistItem, sizes ...int) []models.Page[models.PlaylistItem] {
	pages := make([]models.Page[models.PlaylistItem], 0, len(sizes))
	start := 0
	for _, n := range sizes {
		end := min(start+n, len(items))
		pages = append(pages, models.Page[models.PlaylistItem]{Items: items[start:end], Total: len(items)})
		start = end
	}
	return pages
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
