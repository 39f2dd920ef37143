package models

import (
	"fmt"
	"strings"
	"time"
)

// PlaylistSummary describes one of the user's playlists.
type PlaylistSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	TotalTracks int    `json:"total_tracks"`
	Public      bool   `json:"public"`
	Owner       string `json:"owner,omitempty"`
}

// Track is a catalog track. Two tracks are the same track when their URIs match.
type Track struct {
	URI        string   `json:"uri"`
	Name       string   `json:"name"`
	Artists    []string `json:"artists"`
	Album      string   `json:"album,omitempty"`
	DurationMS int      `json:"duration_ms,omitempty"`
}

// ID returns the bare identifier from a "spotify:track:<id>" URI, or the URI itself.
func (t Track) ID() string {
	if i := strings.LastIndex(t.URI, ":"); i >= 0 {
		return t.URI[i+1:]
	}
	return t.URI
}

// ArtistLine joins artist names with ", ".
func (t Track) ArtistLine() string {
	return strings.Join(t.Artists, ", ")
}

// String renders the track as "Name - Artist, Artist".
func (t Track) String() string {
	if len(t.Artists) == 0 {
		return t.Name
	}
	return fmt.Sprintf("%s - %s", t.Name, t.ArtistLine())
}

// PlaylistItem is one entry of a playlist listing. Track is nil when the service no longer resolves it.
type PlaylistItem struct {
	AddedAt string `json:"added_at,omitempty"`
	Track   *Track `json:"track"`
}

// Page is one page of a cursor-paginated listing. An empty Next marks the last page.
type Page[T any] struct {
	Items []T
	Next  string
	Total int
}

// NewPlaylist holds the fields needed to create a playlist.
type NewPlaylist struct {
	Name        string
	Description string
	Public      bool
}

// CreatedPlaylist identifies a playlist created on the service.
type CreatedPlaylist struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreationStatus is the outcome of a creation attempt.
type CreationStatus string

const (
	CreationComplete CreationStatus = "complete"
	CreationPartial  CreationStatus = "partial"
	CreationFailed   CreationStatus = "failed"
)

// CreationRecord is a history entry for one playlist creation attempt.
//
// Confirmed counts the tracks the service acknowledged, which may be fewer than Requested after a failure.
type CreationRecord struct {
	ID         string         `json:"id"`
	Sequence   int            `json:"sequence"`
	PlaylistID string         `json:"playlist_id,omitempty"`
	Name       string         `json:"name"`
	URL        string         `json:"url,omitempty"`
	Public     bool           `json:"public"`
	Requested  int            `json:"requested"`
	Confirmed  int            `json:"confirmed"`
	Status     CreationStatus `json:"status"`
	Error      string         `json:"error,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Validate checks the record before it is persisted.
func (r *CreationRecord) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if r.Confirmed < 0 || r.Confirmed > r.Requested {
		return fmt.Errorf("confirmed %d outside [0, %d]", r.Confirmed, r.Requested)
	}
	switch r.Status {
	case CreationComplete, CreationPartial, CreationFailed:
	default:
		return fmt.Errorf("unknown status %q", r.Status)
	}
	return nil
}
