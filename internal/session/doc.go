// Package session implements the state manager behind the CLI and TUI.
//
// A [Manager] exclusively owns four collections:
//   - the user's playlists, loaded once at startup and after every successful create
//   - the tracks of the currently viewed playlist
//   - the current search result set
//   - the selection staged for a new playlist
//
// The presentation layer reads [Snapshot] values and forwards intents (query, index, create request);
// it never mutates state directly.
//
// # Pagination
//
// Listing follows the service's cursor until it comes back empty, accumulating every page before
// replacing state. A failure at any page leaves the previous collection untouched.
//
// # Playlist Creation
//
// [Manager.CreatePlaylist] validates locally first, so an empty name or empty selection never reaches the
// network. Track URIs are then submitted in order, in sequential chunks of at most [ChunkSize]. A failing chunk
// stops submission and the [CreateResult] reports the confirmed prefix. Partially populated playlists
// are not deleted; every attempt is passed to the optional [Recorder] so they can be found later.
//
// # Errors
//
// Every failure is a [*shared.Error] tagged with a [shared.ErrorKind]; use [shared.KindOf] to choose messaging.
// Video lookup is a convenience and never returns an error: [Manager.ResolveVideo] reports ok=false instead.
//
// # Progress Reporting
//
// [ProgressUpdate] values are sent to [Options.Progress] with select/default and are dropped when the
// channel is full.
package session
