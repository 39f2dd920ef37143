// Spotify Web API implementation of [Catalog]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/desertthunder/spm/internal/models"
	"github.com/desertthunder/spm/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// MaxItemsPerRequest is the most track URIs the add-items endpoint accepts at once.
	MaxItemsPerRequest = 100
	// MaxPageSize is the largest page the listing and search endpoints return.
	MaxPageSize = 50
	// MaxPlaylistTracksPageSize is the largest page the playlist items endpoint returns.
	MaxPlaylistTracksPageSize = 100
)

// Scopes requested during authorization.
var spotifyScopes = []string{
	"playlist-read-private",
	"playlist-read-collaborative",
	"playlist-modify-public",
	"playlist-modify-private",
	"user-library-read",
	"user-top-read",
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyArtist represents a simplified Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a simplified Spotify album.
type SpotifyAlbum struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	URI        string          `json:"uri"`
}

// SpotifyPlaylistTrack represents a track within a playlist context. Track is null for removed tracks.
type SpotifyPlaylistTrack struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

type owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type simplePlaylistTracks struct {
	Total int `json:"total"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Description  string               `json:"description"`
	Owner        owner                `json:"owner"`
	Public       bool                 `json:"public"`
	Tracks       simplePlaylistTracks `json:"tracks"`
	ExternalURLs externalURLs         `json:"external_urls"`
	URI          string               `json:"uri"`
}

// spotifyPaging is the envelope every paginated Spotify response shares.
type spotifyPaging[T any] struct {
	Items []T     `json:"items"`
	Total int     `json:"total"`
	Next  *string `json:"next"`
}

type spotifySearchResponse struct {
	Tracks spotifyPaging[SpotifyTrack] `json:"tracks"`
}

type spotifyErrorResponse struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// SpotifyService implements [Catalog] for the Spotify Web API.
// Uses [oauth2] for authentication and a [rate.Limiter] to pace requests.
type SpotifyService struct {
	config         *oauth2.Config
	token          *oauth2.Token
	httpClient     *http.Client
	baseURL        string
	limiter        *rate.Limiter
	onTokenRefresh func(*oauth2.Token)
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
//
// All three of client_id, client_secret and redirect_uri are required.
func NewSpotifyService(cfg shared.SpotifyConfig) (*SpotifyService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       spotifyScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: http.DefaultClient,
		baseURL:    spotifyBaseURL,
		limiter:    rate.NewLimiter(rate.Inf, 1),
	}, nil
}

// SetRateLimit paces outgoing requests to rps per second. Zero or less disables pacing.
func (s *SpotifyService) SetRateLimit(rps float64) {
	if rps <= 0 {
		s.limiter = rate.NewLimiter(rate.Inf, 1)
		return
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

// SetTokenRefreshCallback registers fn to receive every new token the client obtains, so it can be persisted.
func (s *SpotifyService) SetTokenRefreshCallback(fn func(*oauth2.Token)) {
	s.onTokenRefresh = fn
}

// OAuthenticate installs token and builds an HTTP client that refreshes it as needed.
func (s *SpotifyService) OAuthenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("%w: no token", shared.ErrNotAuthenticated)
	}

	source := oauth2.ReuseTokenSource(token, s.config.TokenSource(ctx, token))
	if s.onTokenRefresh != nil {
		source = &refreshableTokenSource{source: source, callback: s.onTokenRefresh, last: token.AccessToken}
	}

	s.token = token
	s.httpClient = oauth2.NewClient(ctx, source)
	return nil
}

// Name returns the service name.
func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("show_dialog", "true"))
}

// GetOAuthConfig exposes the OAuth2 configuration for the callback handler.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// doRequest performs an authenticated request. endpoint is either a path under the API base URL
// or an absolute "next" URL returned by a previous page.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call OAuthenticate first", shared.ErrNotAuthenticated)
	}

	apiURL := endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		apiURL = s.baseURL + endpoint
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// statusError maps a non-2xx response to a sentinel-wrapped error carrying Spotify's message.
func statusError(resp *http.Response) error {
	var errResp spotifyErrorResponse
	msg := ""
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
		msg = errResp.Error.Message
	}

	sentinel := shared.ErrAPIRequest
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		sentinel = shared.ErrTokenExpired
	case http.StatusNotFound:
		sentinel = shared.ErrPlaylistNotFound
	case http.StatusTooManyRequests:
		if after := resp.Header.Get("Retry-After"); after != "" {
			msg = strings.TrimSpace(msg + " (retry after " + after + "s)")
		}
	}

	if msg != "" {
		return fmt.Errorf("%w: spotify status %d: %s", sentinel, resp.StatusCode, msg)
	}
	return fmt.Errorf("%w: spotify status %d", sentinel, resp.StatusCode)
}

func clampLimit(limit, max int) int {
	if limit <= 0 || limit > max {
		return max
	}
	return limit
}

func nextCursor(next *string) string {
	if next == nil {
		return ""
	}
	return *next
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CurrentUserID returns the authenticated user's Spotify ID.
func (s *SpotifyService) CurrentUserID(ctx context.Context) (string, error) {
	user, err := s.UserProfile(ctx)
	if err != nil {
		return "", err
	}
	if user.ID == "" {
		return "", fmt.Errorf("%w: profile has no id", shared.ErrAPIRequest)
	}
	return user.ID, nil
}

// UserPlaylists retrieves one page of the current user's playlists.
func (s *SpotifyService) UserPlaylists(ctx context.Context, cursor string, limit int) (*models.Page[models.PlaylistSummary], error) {
	endpoint := cursor
	if endpoint == "" {
		endpoint = fmt.Sprintf("/me/playlists?limit=%d", clampLimit(limit, MaxPageSize))
	}

	var response spotifyPaging[SpotifySimplePlaylist]
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	page := &models.Page[models.PlaylistSummary]{
		Items: make([]models.PlaylistSummary, 0, len(response.Items)),
		Next:  nextCursor(response.Next),
		Total: response.Total,
	}
	for _, sp := range response.Items {
		page.Items = append(page.Items, models.PlaylistSummary{
			ID:          sp.ID,
			Name:        sp.Name,
			Description: sp.Description,
			TotalTracks: sp.Tracks.Total,
			Public:      sp.Public,
			Owner:       sp.Owner.DisplayName,
		})
	}

	return page, nil
}

// PlaylistTracks retrieves one page of a playlist's items. Removed tracks come back with a nil Track.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, playlistID, cursor string, limit int) (*models.Page[models.PlaylistItem], error) {
	endpoint := cursor
	if endpoint == "" {
		endpoint = fmt.Sprintf("/playlists/%s/tracks?limit=%d", url.PathEscape(playlistID), clampLimit(limit, MaxPlaylistTracksPageSize))
	}

	var response spotifyPaging[SpotifyPlaylistTrack]
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	page := &models.Page[models.PlaylistItem]{
		Items: make([]models.PlaylistItem, 0, len(response.Items)),
		Next:  nextCursor(response.Next),
		Total: response.Total,
	}
	for _, item := range response.Items {
		entry := models.PlaylistItem{AddedAt: item.AddedAt}
		if item.Track != nil && item.Track.URI != "" {
			track := toTrack(*item.Track)
			entry.Track = &track
		}
		page.Items = append(page.Items, entry)
	}

	return page, nil
}

// SearchTracks runs a single track search capped at limit results.
func (s *SpotifyService) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", fmt.Sprint(clampLimit(limit, MaxPageSize)))

	var response spotifySearchResponse
	if err := s.doRequest(ctx, http.MethodGet, "/search?"+params.Encode(), nil, &response); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(response.Tracks.Items))
	for _, st := range response.Tracks.Items {
		tracks = append(tracks, toTrack(st))
	}
	return tracks, nil
}

// CreatePlaylist creates an empty playlist for userID and returns its ID and public URL.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, userID string, playlist models.NewPlaylist) (*models.CreatedPlaylist, error) {
	body := struct {
		Name        string `json:"name"`
		Public      bool   `json:"public"`
		Description string `json:"description"`
	}{playlist.Name, playlist.Public, playlist.Description}

	var response SpotifySimplePlaylist
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID))
	if err := s.doRequest(ctx, http.MethodPost, endpoint, body, &response); err != nil {
		return nil, err
	}

	return &models.CreatedPlaylist{ID: response.ID, URL: response.ExternalURLs.Spotify}, nil
}

// AddPlaylistItems appends uris to the end of a playlist in one request.
func (s *SpotifyService) AddPlaylistItems(ctx context.Context, playlistID string, uris []string) error {
	if len(uris) == 0 {
		return nil
	}
	if len(uris) > MaxItemsPerRequest {
		return fmt.Errorf("%w: %d items exceeds the limit of %d per request", shared.ErrInvalidArgument, len(uris), MaxItemsPerRequest)
	}

	body := struct {
		URIs []string `json:"uris"`
	}{uris}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	return s.doRequest(ctx, http.MethodPost, endpoint, body, nil)
}

func toTrack(st SpotifyTrack) models.Track {
	artists := make([]string, 0, len(st.Artists))
	for _, a := range st.Artists {
		artists = append(artists, a.Name)
	}
	return models.Track{
		URI:        st.URI,
		Name:       st.Name,
		Artists:    artists,
		Album:      st.Album.Name,
		DurationMS: st.DurationMS,
	}
}

// refreshableTokenSource reports each newly issued token to callback.
type refreshableTokenSource struct {
	source   oauth2.TokenSource
	callback func(*oauth2.Token)
	mu       sync.Mutex
	last     string
}

func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := r.source.Token()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	changed := token.AccessToken != r.last
	r.last = token.AccessToken
	r.mu.Unlock()

	if changed && r.callback != nil {
		r.callback(token)
	}
	return token, nil
}
