// Package services implements the remote capabilities behind a session: the [Catalog] (Spotify Web API) and
// [VideoLookup] (YouTube).
//
// # Catalog
//
// [SpotifyService] talks to the Web API over plain net/http with an [oauth2] client that refreshes
// expired tokens using the refresh token. Refreshed tokens are reported through
// [SpotifyService.SetTokenRefreshCallback] so callers can persist them.
//
// Listing endpoints are cursor-paginated. The "next" URL Spotify returns is used as the cursor and is
// requested verbatim, so callers never build offsets themselves.
//
// Outgoing requests are paced with a token bucket ([SpotifyService.SetRateLimit]).
//
// # Video Lookup
//
// Two implementations:
//   - [YouTubeDataService] uses the YouTube Data API v3 search endpoint and needs an API key
//   - [YouTubeService] calls a ytmusicapi proxy (GET /api/search?filter=songs) and needs no credentials
//
// [NewVideoLookup] picks one from config.
//
// # Error Handling
//
// Services wrap sentinels from the shared package:
//   - [shared.ErrNotAuthenticated] : OAuthenticate() not called
//   - [shared.ErrTokenExpired] : HTTP 401, reauthorization needed
//   - [shared.ErrPlaylistNotFound] : HTTP 404
//   - [shared.ErrAPIRequest] : any other non-2xx response
//   - [shared.ErrNoVideo] : lookup returned nothing playable
package services
