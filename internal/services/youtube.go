// YouTube Music proxy implementation of [VideoLookup]
//
// Communicates with a ytmusicapi-backed HTTP proxy (default port 8080).
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/spm/internal/shared"
)

const (
	defaultYTBaseURL  string = "http://localhost:8080"
	youtubeMusicWatch string = "https://music.youtube.com/watch?v="
)

// YouTubeArtist represents an artist in YouTube Music responses.
type YouTubeArtist struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// YouTubeSong is a single song result from the proxy's search endpoint.
type YouTubeSong struct {
	VideoID  string          `json:"videoId"`
	Title    string          `json:"title"`
	Artists  []YouTubeArtist `json:"artists"`
	Duration string          `json:"duration"`
}

// YouTubeService implements [VideoLookup] for YouTube Music via proxy.
type YouTubeService struct {
	baseURL    string
	httpClient *http.Client
}

// NewYouTubeService creates a new YouTube Music proxy client.
func NewYouTubeService(baseURL string) *YouTubeService {
	if baseURL == "" {
		baseURL = defaultYTBaseURL
	}

	return &YouTubeService{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
	}
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube Music"
}

func (y *YouTubeService) doRequest(ctx context.Context, endpoint string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, y.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Detail != "" {
			return fmt.Errorf("%w: youtube music status %d: %s", shared.ErrAPIRequest, resp.StatusCode, errResp.Detail)
		}
		return fmt.Errorf("%w: youtube music status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// LookupVideo returns the watch URL of the first song matching query.
//
// Calls GET /api/search?q={query}&filter=songs on the proxy.
func (y *YouTubeService) LookupVideo(ctx context.Context, query string) (string, error) {
	endpoint := fmt.Sprintf("/api/search?q=%s&filter=songs", url.QueryEscape(query))

	var results []YouTubeSong
	if err := y.doRequest(ctx, endpoint, &results); err != nil {
		return "", err
	}

	for _, r := range results {
		if r.VideoID != "" {
			return youtubeMusicWatch + r.VideoID, nil
		}
	}
	return "", fmt.Errorf("%w: %q", shared.ErrNoVideo, query)
}
