// Package models defines the value types exchanged between the remote catalog, the session manager and the presentation layer.
//
// Catalog values:
//   - [PlaylistSummary] : read-only playlist metadata, replaced wholesale on refresh
//   - [Track] : immutable track identified by its URI
//   - [PlaylistItem] : a playlist entry whose track may be missing (removed or unavailable)
//   - [Page] : one page of a cursor-paginated listing
//
// Creation values:
//   - [NewPlaylist] : name, description and visibility for a playlist to be created
//   - [CreatedPlaylist] : identifier and shareable URL returned by the service
//   - [CreationRecord] : persisted history entry for a creation attempt
package models
