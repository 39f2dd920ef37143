// package services defines the remote capabilities the session manager consumes
//
// Spotify (catalog), YouTube (video lookup)
package services

import (
	"context"

	"github.com/desertthunder/spm/internal/models"
	"github.com/desertthunder/spm/internal/shared"
)

// Catalog is the remote music catalog the session manager reads from and writes to.
//
// Listing methods are cursor-paginated: an empty cursor requests the first page, and the returned
// [models.Page.Next] is passed back verbatim until it comes back empty.
type Catalog interface {
	// CurrentUserID returns the identifier of the authenticated user.
	CurrentUserID(ctx context.Context) (string, error)

	// UserPlaylists returns one page of the authenticated user's playlists.
	UserPlaylists(ctx context.Context, cursor string, limit int) (*models.Page[models.PlaylistSummary], error)

	// PlaylistTracks returns one page of a playlist's items.
	PlaylistTracks(ctx context.Context, playlistID, cursor string, limit int) (*models.Page[models.PlaylistItem], error)

	// SearchTracks returns at most limit tracks matching query.
	SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error)

	// CreatePlaylist creates an empty playlist owned by userID.
	CreatePlaylist(ctx context.Context, userID string, playlist models.NewPlaylist) (*models.CreatedPlaylist, error)

	// AddPlaylistItems appends up to [MaxItemsPerRequest] track URIs to a playlist.
	AddPlaylistItems(ctx context.Context, playlistID string, uris []string) error

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// VideoLookup resolves free text to a playable video URL.
type VideoLookup interface {
	// LookupVideo returns the best match for query, or an error wrapping [shared.ErrNoVideo].
	LookupVideo(ctx context.Context, query string) (string, error)

	Name() string
}

// NewVideoLookup picks the YouTube Data API when an API key is configured and the
// YouTube Music proxy otherwise. It returns nil when neither is available.
func NewVideoLookup(ctx context.Context, cfg shared.YouTubeConfig) (VideoLookup, error) {
	if cfg.APIKey != "" {
		svc, err := NewYouTubeDataService(ctx, cfg.APIKey)
		if err != nil {
			return nil, err
		}
		return svc, nil
	}
	if cfg.ProxyURL != "" {
		return NewYouTubeService(cfg.ProxyURL), nil
	}
	return nil, nil
}
