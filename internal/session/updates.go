package session

import "fmt"

// ProgressUpdate represents a progress event during a multi-request operation.
//
// Sent to the CLI or TUI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number
	Total   int    // Total steps, 0 when unknown
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	FetchPlaylists Phase = iota
	FetchTracks
	ResolveUser
	CreateRemote
	AddItems
	Refresh
)

func (p Phase) String() string {
	switch p {
	case FetchPlaylists:
		return "fetch_playlists"
	case FetchTracks:
		return "fetch_tracks"
	case ResolveUser:
		return "resolve_user"
	case CreateRemote:
		return "create_remote"
	case AddItems:
		return "add_items"
	case Refresh:
		return "refresh"
	default:
		return ""
	}
}

func fetchPlaylistsUpdate(page, total, loaded int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylists,
		Step:    loaded,
		Total:   total,
		Message: fmt.Sprintf("Loaded page %d (%d playlists)...", page, loaded),
	}
}

func fetchTracksUpdate(page, total, fetched int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    fetched,
		Total:   total,
		Message: fmt.Sprintf("Fetching %s: page %d (%d items)...", name, page, fetched),
	}
}

func resolveUserUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveUser,
		Step:    step,
		Total:   total,
		Message: "Resolving current user...",
	}
}

func createRemoteUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreateRemote,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Creating playlist %q...", name),
	}
}

func addItemsUpdate(step, total, chunk, chunks, through, requested int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddItems,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Adding tracks (%d of %d)...", chunk, chunks, through, requested),
	}
}

func refreshUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Refresh,
		Step:    step,
		Total:   total,
		Message: "Refreshing playlists...",
	}
}
