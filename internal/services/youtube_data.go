// YouTube Data API v3 implementation of [VideoLookup]
package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/spm/internal/shared"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const youtubeWatch string = "https://www.youtube.com/watch?v="

// YouTubeDataService resolves queries with the YouTube Data API search endpoint.
type YouTubeDataService struct {
	svc *youtube.Service
}

// NewYouTubeDataService creates a Data API client authenticated with apiKey.
// Additional options (endpoint, HTTP client) are appended after the key.
func NewYouTubeDataService(ctx context.Context, apiKey string, opts ...option.ClientOption) (*YouTubeDataService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: youtube api key", shared.ErrMissingCredentials)
	}

	svc, err := youtube.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube client: %w", err)
	}
	return &YouTubeDataService{svc: svc}, nil
}

// Name returns the service name.
func (y *YouTubeDataService) Name() string {
	return "YouTube"
}

// LookupVideo returns the watch URL of the top video result for query.
func (y *YouTubeDataService) LookupVideo(ctx context.Context, query string) (string, error) {
	resp, err := y.svc.Search.List([]string{"id", "snippet"}).
		Q(query).
		Type("video").
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("%w: youtube search: %v", shared.ErrAPIRequest, err)
	}

	for _, item := range resp.Items {
		if item.Id != nil && item.Id.VideoId != "" {
			return youtubeWatch + item.Id.VideoId, nil
		}
	}
	return "", fmt.Errorf("%w: %q", shared.ErrNoVideo, query)
}
