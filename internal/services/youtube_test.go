package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/spm/internal/shared"
)

func TestYouTubeService(t *testing.T) {
	ctx := context.Background()

	t.Run("NewYouTubeService", func(t *testing.T) {
		t.Run("creates service with default URL", func(t *testing.T) {
			if svc := NewYouTubeService(""); svc.baseURL != defaultYTBaseURL {
				t.Errorf("expected baseURL to be %s, got %s", defaultYTBaseURL, svc.baseURL)
			}
		})

		t.Run("creates service with custom URL", func(t *testing.T) {
			customURL := "http://localhost:9000"
			if svc := NewYouTubeService(customURL); svc.baseURL != customURL {
				t.Errorf("expected baseURL to be %s, got %s", customURL, svc.baseURL)
			}
		})
	})

	t.Run("Name", func(t *testing.T) {
		if svc := NewYouTubeService(""); svc.Name() != "YouTube Music" {
			t.Errorf("expected name to be 'YouTube Music', got %s", svc.Name())
		}
	})

	t.Run("LookupVideo", func(t *testing.T) {
		t.Run("returns the first song with a video id", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/search" {
					t.Errorf("expected path /api/search, got %s", r.URL.Path)
				}
				if r.URL.Query().Get("q") != "Song - Artist audio" || r.URL.Query().Get("filter") != "songs" {
					t.Errorf("unexpected query: %s", r.URL.RawQuery)
				}
				json.NewEncoder(w).Encode([]map[string]any{
					{"videoId": "", "title": "Episode"},
					{"videoId": "vid123", "title": "Song"},
				})
			}))
			defer server.Close()

			svc := NewYouTubeService(server.URL)
			got, err := svc.LookupVideo(ctx, "Song - Artist audio")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != "https://music.youtube.com/watch?v=vid123" {
				t.Errorf("unexpected url %s", got)
			}
		})

		t.Run("no results", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`[]`))
			}))
			defer server.Close()

			_, err := NewYouTubeService(server.URL).LookupVideo(ctx, "nothing")
			if !errors.Is(err, shared.ErrNoVideo) {
				t.Errorf("expected ErrNoVideo, got %v", err)
			}
		})

		t.Run("proxy error detail", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				w.Write([]byte(`{"detail":"ytmusic offline"}`))
			}))
			defer server.Close()

			_, err := NewYouTubeService(server.URL).LookupVideo(ctx, "q")
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Fatalf("expected ErrAPIRequest, got %v", err)
			}
			if !strings.Contains(err.Error(), "ytmusic offline") {
				t.Errorf("expected detail in error, got %v", err)
			}
		})

		t.Run("unreachable proxy", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
			url := server.URL
			server.Close()

			_, err := NewYouTubeService(url).LookupVideo(ctx, "q")
			if !errors.Is(err, shared.ErrServiceUnavailable) {
				t.Errorf("expected ErrServiceUnavailable, got %v", err)
			}
		})
	})
}
