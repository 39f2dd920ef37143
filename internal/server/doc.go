// Package server provides the routing and OAuth callback handling used by "spm auth".
//
// # Router Infrastructure
//
// [BasicRouter] registers "METHOD /path" patterns on an [http.ServeMux] and wraps them in [Middleware].
// The first middleware added runs outermost. [RequestLogger] logs each request at debug level.
//
// # OAuth Callback Handler
//
// [OAuthHandler] serves the redirect URL's path for one authorization code flow. It validates the state
// parameter, exchanges the code for a token and publishes exactly one [OAuthResult] on [OAuthHandler.Result].
// Later callbacks are rejected.
//
// The CLI starts a temporary server on the configured host and port, opens the authorization URL in a
// browser, waits for the result and shuts the server down.
package server
