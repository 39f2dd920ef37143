package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spm/internal/models"
	"github.com/desertthunder/spm/internal/session"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
	err  error
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPlaylistsLoaded MsgKind = iota
	MsgTracksFetched
	MsgSearchDone
	MsgCreateDone
	MsgProgressUpdate
	MsgVideoResolved
)

// playlistsLoadedMsg is the constructor for [MsgPlaylistsLoaded]
func playlistsLoadedMsg(playlists []models.PlaylistSummary, err error) Msg {
	return Msg{kind: MsgPlaylistsLoaded, data: playlists, err: err}
}

// tracksFetchedMsg is the constructor for [MsgTracksFetched]
func tracksFetchedMsg(viewed *session.Viewed, err error) Msg {
	return Msg{kind: MsgTracksFetched, data: viewed, err: err}
}

// searchDoneMsg is the constructor for [MsgSearchDone]
func searchDoneMsg(results []models.Track, err error) Msg {
	return Msg{kind: MsgSearchDone, data: results, err: err}
}

// createDoneMsg is the constructor for [MsgCreateDone]
func createDoneMsg(result *session.CreateResult, err error) Msg {
	return Msg{kind: MsgCreateDone, data: result, err: err}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update session.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

type videoResult struct {
	track models.Track
	url   string
	ok    bool
}

// videoResolvedMsg is the constructor for [MsgVideoResolved]. err reports a failure to open the URL.
func videoResolvedMsg(track models.Track, url string, ok bool, err error) Msg {
	return Msg{kind: MsgVideoResolved, data: videoResult{track: track, url: url, ok: ok}, err: err}
}
