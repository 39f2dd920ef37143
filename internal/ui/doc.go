// Package ui implements the interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI has two tabs:
//  1. [BrowseTab] : list the user's playlists and open one to see its tracks
//  2. [CreateTab] : search tracks, stage results and create a playlist from the selection
//
// The [Model] never keeps its own copy of session data. After each operation it reads a
// [session.Snapshot] and rebuilds its lists from it. Remote operations run as tea.Cmd values and
// report back through the [Msg] union; progress updates arrive on the channel the manager writes to.
//
// Keys follow the bubbles list defaults (j/k, /, enter) plus control chords for actions, so text
// inputs stay usable. Logs go to a file because the terminal belongs to the UI.
package ui
