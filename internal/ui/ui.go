package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/spm/internal/formatter"
	"github.com/desertthunder/spm/internal/models"
	"github.com/desertthunder/spm/internal/session"
	"github.com/desertthunder/spm/internal/shared"
)

// Tab is one of the two top-level screens.
type Tab int

const (
	BrowseTab Tab = iota
	CreateTab
)

func (t Tab) String() string {
	if t == CreateTab {
		return "Create"
	}
	return "Browse"
}

// ViewState represents the current view in the browse tab.
type ViewState int

const (
	PlaylistListView ViewState = iota
	TrackListView
)

// Field is the focused component of the create tab.
type Field int

const (
	QueryField Field = iota
	ResultsField
	SelectionField
	NameField
	DescriptionField
	fieldCount
)

const busyStatus = "Still working, try again when the current request finishes"

// Options configures a [Model].
type Options struct {
	Progress <-chan session.ProgressUpdate // the same channel the manager was built with
	Open     func(url string) error        // opens video URLs, usually [shared.OpenBrowser]
	Logger   *log.Logger
}

// Model represents the TUI application state.
//
// Everything shown is read from [session.Manager.Snapshot]; every change goes through a manager operation.
type Model struct {
	ctx      context.Context
	manager  *session.Manager
	progress <-chan session.ProgressUpdate
	open     func(string) error
	logger   *log.Logger

	tab    Tab
	view   ViewState
	field  Field
	width  int
	height int
	busy   bool

	playlistList  list.Model
	trackList     list.Model
	resultList    list.Model
	selectionList list.Model
	query         textinput.Model
	name          textinput.Model
	description   textinput.Model
	public        bool

	update session.ProgressUpdate
	status string
	err    error
	help   help.Model
	keys   keyMap
}

// NewModel creates a new TUI model over manager.
func NewModel(ctx context.Context, manager *session.Manager, opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	query := textinput.New()
	query.Placeholder = "Search tracks"
	query.CharLimit = 200
	name := textinput.New()
	name.Placeholder = "Playlist name"
	name.CharLimit = 100
	description := textinput.New()
	description.Placeholder = "Description (optional)"
	description.CharLimit = 300

	m := &Model{
		ctx:           ctx,
		manager:       manager,
		progress:      opts.Progress,
		open:          opts.Open,
		logger:        logger,
		playlistList:  newList("Spotify Playlists", nil, true),
		trackList:     newList("Tracks", nil, true),
		resultList:    newList("Results", nil, false),
		selectionList: newList("Selection", nil, false),
		query:         query,
		name:          name,
		description:   description,
		public:        true,
		help:          help.New(),
		keys:          newKeyMap(),
	}
	m.resize(80, 24)
	return m
}

// Init initializes the TUI by loading the user's playlists.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadPlaylists(), m.waitForProgress())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case Msg:
		return m.handleMsg(msg)
	case tea.KeyMsg:
		return m.handleKeys(msg)
	}
	return m.forward(msg)
}

func (m *Model) resize(w, h int) {
	m.width, m.height = w, h
	m.playlistList.SetSize(max(w-4, 20), max(h-8, 5))
	m.trackList.SetSize(max(w-4, 20), max(h-8, 5))
	half := max(w/2-4, 20)
	m.resultList.SetSize(half, max(h-16, 5))
	m.selectionList.SetSize(half, max(h-16, 5))
	m.query.Width = max(w-12, 20)
	m.name.Width = max(w-18, 20)
	m.description.Width = max(w-18, 20)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgProgressUpdate:
		m.update = msg.data.(session.ProgressUpdate)
		m.status = m.update.Message
		return m, m.waitForProgress()

	case MsgPlaylistsLoaded:
		m.busy = false
		if msg.err != nil {
			m.fail(msg.err)
		} else {
			m.info(fmt.Sprintf("Loaded %d playlists", len(msg.data.([]models.PlaylistSummary))))
		}

	case MsgTracksFetched:
		m.busy = false
		if msg.err != nil {
			m.fail(msg.err)
			break
		}
		viewed := msg.data.(*session.Viewed)
		m.view = TrackListView
		m.trackList.Title = fmt.Sprintf("Tracks in '%s'", viewed.Summary.Name)
		m.trackList.ResetSelected()
		status := fmt.Sprintf("%d tracks", len(viewed.Tracks))
		if skipped := viewed.Fetched - len(viewed.Tracks); skipped > 0 {
			status = fmt.Sprintf("%s (%d unavailable)", status, skipped)
		}
		m.info(status)

	case MsgSearchDone:
		m.busy = false
		if msg.err != nil {
			m.fail(msg.err)
			break
		}
		results := msg.data.([]models.Track)
		m.resultList.ResetSelected()
		if len(results) > 0 {
			m.setField(ResultsField)
		}
		m.info(fmt.Sprintf("%d results for '%s'", len(results), strings.TrimSpace(m.query.Value())))

	case MsgCreateDone:
		m.busy = false
		result, _ := msg.data.(*session.CreateResult)
		m.finishCreate(result, msg.err)

	case MsgVideoResolved:
		m.busy = false
		video := msg.data.(videoResult)
		switch {
		case !video.ok:
			m.warn(fmt.Sprintf("No video found for %s", video.track))
		case msg.err != nil:
			m.warn(fmt.Sprintf("Open this URL to play %s: %s", video.track.Name, video.url))
		default:
			m.info(fmt.Sprintf("Playing %s: %s", video.track.Name, video.url))
		}
	}

	return m, m.sync()
}

func (m *Model) finishCreate(result *session.CreateResult, err error) {
	if err != nil {
		if result != nil && result.Playlist != nil {
			m.fail(fmt.Errorf("playlist '%s' was created but only %d of %d tracks were added (%s): %w",
				result.Name, result.Confirmed, result.Requested, result.Playlist.URL, err))
			return
		}
		m.fail(err)
		return
	}

	draft := m.manager.Snapshot().Draft
	m.name.SetValue(draft.Name)
	m.description.SetValue(draft.Description)
	m.query.SetValue("")
	m.public = draft.Public || draft == (session.Draft{})
	m.setField(QueryField)

	status := fmt.Sprintf("✓ Created '%s' with %d tracks: %s", result.Name, result.Confirmed, result.Playlist.URL)
	if result.RefreshErr != nil {
		m.warn(status + " (playlist list could not be refreshed)")
		return
	}
	m.ok(status)
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.tab):
		if m.tab == BrowseTab {
			m.tab = CreateTab
			return m, m.setField(m.field)
		}
		m.tab = BrowseTab
		m.blurInputs()
		return m, nil
	}

	if m.tab == CreateTab {
		return m.handleCreateKeys(msg)
	}
	return m.handleBrowseKeys(msg)
}

func (m *Model) handleBrowseKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	current := &m.playlistList
	if m.view == TrackListView {
		current = &m.trackList
	}
	if current.FilterState() == list.Filtering {
		return m.forward(msg)
	}

	switch m.view {
	case PlaylistListView:
		switch {
		case msg.String() == "q":
			return m, tea.Quit
		case key.Matches(msg, m.keys.reload):
			return m, m.loadPlaylists()
		case key.Matches(msg, m.keys.enter):
			if pl, ok := m.playlistList.SelectedItem().(playlistItem); ok {
				return m, m.fetchTracks(pl.playlist)
			}
			return m, nil
		}
	case TrackListView:
		switch {
		case msg.String() == "q":
			return m, tea.Quit
		case key.Matches(msg, m.keys.back):
			m.view = PlaylistListView
			return m, nil
		case key.Matches(msg, m.keys.play):
			if t, ok := m.trackList.SelectedItem().(trackItem); ok {
				return m, m.playVideo(t.track)
			}
			return m, nil
		}
	}
	return m.forward(msg)
}

func (m *Model) handleCreateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.focus):
		return m, m.setField((m.field + 1) % fieldCount)
	case key.Matches(msg, m.keys.create):
		return m, m.createPlaylist()
	case key.Matches(msg, m.keys.public):
		m.public = !m.public
		return m, nil
	case key.Matches(msg, m.keys.clear):
		if m.busy {
			m.warn(busyStatus)
			return m, nil
		}
		m.manager.Reset()
		m.query.SetValue("")
		m.name.SetValue("")
		m.description.SetValue("")
		m.public = true
		m.info("Cleared search and selection")
		return m, tea.Batch(m.sync(), m.setField(QueryField))
	}

	switch m.field {
	case QueryField:
		if key.Matches(msg, m.keys.enter) {
			return m, m.search()
		}
	case ResultsField:
		switch {
		case key.Matches(msg, m.keys.stage):
			return m, m.stageSelected()
		case key.Matches(msg, m.keys.play):
			if t, ok := m.resultList.SelectedItem().(trackItem); ok {
				return m, m.playVideo(t.track)
			}
			return m, nil
		}
	case SelectionField:
		switch {
		case key.Matches(msg, m.keys.unstage):
			return m, m.unstageSelected()
		case key.Matches(msg, m.keys.play):
			if t, ok := m.selectionList.SelectedItem().(trackItem); ok {
				return m, m.playVideo(t.track)
			}
			return m, nil
		}
	case NameField, DescriptionField:
		if key.Matches(msg, m.keys.enter) {
			return m, m.setField((m.field + 1) % fieldCount)
		}
	}
	return m.forward(msg)
}

// forward passes msg to the focused component.
func (m *Model) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.tab == BrowseTab {
		if m.view == TrackListView {
			m.trackList, cmd = m.trackList.Update(msg)
		} else {
			m.playlistList, cmd = m.playlistList.Update(msg)
		}
		return m, cmd
	}

	switch m.field {
	case QueryField:
		m.query, cmd = m.query.Update(msg)
	case ResultsField:
		m.resultList, cmd = m.resultList.Update(msg)
	case SelectionField:
		m.selectionList, cmd = m.selectionList.Update(msg)
	case NameField:
		m.name, cmd = m.name.Update(msg)
	case DescriptionField:
		m.description, cmd = m.description.Update(msg)
	}
	return m, cmd
}

func (m *Model) setField(f Field) tea.Cmd {
	m.blurInputs()
	m.field = f
	switch f {
	case QueryField:
		return m.query.Focus()
	case NameField:
		return m.name.Focus()
	case DescriptionField:
		return m.description.Focus()
	}
	return nil
}

func (m *Model) blurInputs() {
	m.query.Blur()
	m.name.Blur()
	m.description.Blur()
}

// sync rebuilds list contents from a fresh snapshot.
func (m *Model) sync() tea.Cmd {
	snap := m.manager.Snapshot()
	m.resultList.Title = fmt.Sprintf("Results (%d)", len(snap.Results))
	m.selectionList.Title = fmt.Sprintf("Selection (%d)", len(snap.Selection))
	return tea.Batch(
		m.playlistList.SetItems(playlistItems(snap.Playlists)),
		m.trackList.SetItems(trackItems(snap.Viewed.Tracks)),
		m.resultList.SetItems(trackItems(snap.Results)),
		m.selectionList.SetItems(trackItems(snap.Selection)),
	)
}

func (m *Model) stageSelected() tea.Cmd {
	if m.busy {
		m.warn(busyStatus)
		return nil
	}
	t, ok := m.resultList.SelectedItem().(trackItem)
	if !ok {
		return nil
	}
	added, err := m.manager.StageTrack(m.resultList.GlobalIndex())
	switch {
	case err != nil:
		m.fail(err)
	case !added:
		m.warn(fmt.Sprintf("%s is already staged", t.track))
	default:
		m.info(fmt.Sprintf("Added %s", t.track))
	}
	return m.sync()
}

func (m *Model) unstageSelected() tea.Cmd {
	if m.busy {
		m.warn(busyStatus)
		return nil
	}
	if m.selectionList.SelectedItem() == nil {
		return nil
	}
	removed, err := m.manager.UnstageTrack(m.selectionList.GlobalIndex())
	if err != nil {
		m.fail(err)
		return nil
	}
	m.info(fmt.Sprintf("Removed %s", removed))
	return m.sync()
}

func (m *Model) loadPlaylists() tea.Cmd {
	if m.busy {
		return nil
	}
	m.busy = true
	return func() tea.Msg {
		playlists, err := m.manager.LoadPlaylists(m.ctx)
		return playlistsLoadedMsg(playlists, err)
	}
}

func (m *Model) fetchTracks(pl models.PlaylistSummary) tea.Cmd {
	if m.busy {
		return nil
	}
	m.busy = true
	m.info(fmt.Sprintf("Loading '%s'...", pl.Name))
	return func() tea.Msg {
		viewed, err := m.manager.FetchPlaylistTracks(m.ctx, pl.ID)
		return tracksFetchedMsg(viewed, err)
	}
}

func (m *Model) search() tea.Cmd {
	if m.busy {
		return nil
	}
	m.busy = true
	q := m.query.Value()
	return func() tea.Msg {
		results, err := m.manager.SearchTracks(m.ctx, q, 0)
		return searchDoneMsg(results, err)
	}
}

func (m *Model) createPlaylist() tea.Cmd {
	if m.busy {
		return nil
	}
	m.busy = true
	name, description, public := m.name.Value(), m.description.Value(), m.public
	return func() tea.Msg {
		result, err := m.manager.CreatePlaylist(m.ctx, name, description, public)
		return createDoneMsg(result, err)
	}
}

func (m *Model) playVideo(track models.Track) tea.Cmd {
	if m.busy {
		return nil
	}
	m.busy = true
	m.info(fmt.Sprintf("Looking up %s...", track))
	return func() tea.Msg {
		url, ok := m.manager.ResolveVideo(m.ctx, track)
		if !ok {
			return videoResolvedMsg(track, "", false, nil)
		}
		var err error
		if m.open != nil {
			err = m.open(url)
		} else {
			err = errors.New("no browser")
		}
		if err != nil {
			m.logger.Warn("failed to open video", "url", url, "error", err)
		}
		return videoResolvedMsg(track, url, true, err)
	}
}

func (m *Model) waitForProgress() tea.Cmd {
	if m.progress == nil {
		return nil
	}
	return func() tea.Msg {
		update, ok := <-m.progress
		if !ok {
			return nil
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) info(s string) { m.status, m.err = s, nil }
func (m *Model) ok(s string)   { m.status, m.err = styles.ok.Render(s), nil }
func (m *Model) warn(s string) { m.status, m.err = styles.warn.Render(s), nil }

func (m *Model) fail(err error) {
	m.logger.Error("operation failed", "kind", shared.KindOf(err), "error", err)
	m.status, m.err = "", err
}

// describeError turns err into a user-facing line based on its kind.
func describeError(err error) string {
	switch kind := shared.KindOf(err); {
	case errors.Is(err, shared.ErrTokenExpired):
		return "Your Spotify session expired. Run 'spm auth' and try again."
	case kind == shared.KindInvalidInput:
		var tagged *shared.Error
		if errors.As(err, &tagged) && tagged.Err != nil {
			return "Check the form: " + tagged.Err.Error()
		}
		return err.Error()
	case kind == shared.KindIndex:
		return "Nothing is selected."
	case kind == shared.KindNotFound:
		return "Playlist not found. Reload with ctrl+r."
	case kind == shared.KindConfiguration:
		return "Missing configuration: " + err.Error()
	default:
		return "Spotify request failed: " + err.Error()
	}
}

// View renders the UI based on the current tab.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	if m.tab == CreateTab {
		b.WriteString(m.renderCreate())
	} else {
		b.WriteString(m.renderBrowse())
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.helpKeys()))
	return b.String()
}

func (m *Model) renderTabs() string {
	tabs := make([]string, 0, 2)
	for _, t := range []Tab{BrowseTab, CreateTab} {
		style := styles.tab
		if t == m.tab {
			style = styles.activeTab
		}
		tabs = append(tabs, style.Render(t.String()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *Model) renderBrowse() string {
	if m.view == TrackListView {
		return m.trackList.View()
	}
	return m.playlistList.View()
}

func (m *Model) renderCreate() string {
	pane := func(l list.Model, f Field) string {
		if m.field == f {
			return styles.focused.Render(l.View())
		}
		return styles.pane.Render(l.View())
	}

	lists := lipgloss.JoinHorizontal(lipgloss.Top,
		pane(m.resultList, ResultsField),
		pane(m.selectionList, SelectionField),
	)
	form := fmt.Sprintf("Name:        %s\nDescription: %s\nVisibility:  %s",
		m.name.View(), m.description.View(), formatter.Visibility(m.public))

	return fmt.Sprintf("Search: %s\n\n%s\n\n%s", m.query.View(), lists, form)
}

func (m *Model) renderStatus() string {
	if m.err != nil {
		return styles.err.Render("Error: " + describeError(m.err))
	}
	if m.busy && m.update.Total > 0 {
		return fmt.Sprintf("%s [%d/%d]", m.status, m.update.Step, m.update.Total)
	}
	return m.status
}

func (m *Model) helpKeys() []key.Binding {
	if m.tab == BrowseTab {
		if m.view == TrackListView {
			return []key.Binding{m.keys.play, m.keys.back, m.keys.tab, m.keys.quit}
		}
		return []key.Binding{m.keys.enter, m.keys.reload, m.keys.tab, m.keys.quit}
	}

	keys := []key.Binding{m.keys.focus}
	switch m.field {
	case ResultsField:
		keys = append(keys, m.keys.stage, m.keys.play)
	case SelectionField:
		keys = append(keys, m.keys.unstage, m.keys.play)
	}
	return append(keys, m.keys.public, m.keys.create, m.keys.clear, m.keys.tab, m.keys.quit)
}
