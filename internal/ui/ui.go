package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/scorify/internal/dashboard"
	"github.com/desertthunder/scorify/internal/models"
	"github.com/desertthunder/scorify/internal/pagination"
	"github.com/desertthunder/scorify/internal/shared"
)

// Screen is the view the TUI is showing.
type Screen int

const (
	DashboardScreen Screen = iota
	LeaderboardScreen
)

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	orch        *dashboard.Orchestrator
	updates     <-chan dashboard.ProgressUpdate
	openURL     func(string) error
	screen      Screen
	width       int
	height      int
	spinner     spinner.Model
	progress    dashboard.ProgressUpdate
	loadErr     error
	notice      string
	board       *dashboard.LeaderboardView
	boardList   list.Model
	loadingList bool
	help        help.Model
	keys        keyMap
}

// NewModel creates a TUI over orch. updates must be the channel orch reports progress on; it may be nil.
func NewModel(ctx context.Context, orch *dashboard.Orchestrator, updates <-chan dashboard.ProgressUpdate) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.ok

	return &Model{
		ctx:     ctx,
		orch:    orch,
		updates: updates,
		openURL: shared.OpenBrowser,
		spinner: sp,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init starts the mount sequence and the loading indicator.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load(), m.waitForProgress())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.orch.Resize(pagination.Viewport{Width: msg.Width, Height: msg.Height})
		if m.board != nil {
			m.boardList.SetSize(msg.Width-4, msg.Height-6)
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			return m, tea.Quit
		}
		if m.screen == LeaderboardScreen {
			return m.handleLeaderboardKeys(msg)
		}
		return m.handleDashboardKeys(msg)

	case spinner.TickMsg:
		if m.orch.Snapshot().Status != dashboard.Loading && !m.orch.Fetching() && !m.loadingList {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	if m.screen == LeaderboardScreen && m.board != nil {
		var cmd tea.Cmd
		m.boardList, cmd = m.boardList.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgLoaded:
		m.loadErr = errData(msg.data)
		if errors.Is(m.loadErr, dashboard.ErrRedirect) {
			return m, m.openLogin()
		}
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(dashboard.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgFetched:
		data := msg.data.(fetchedData)
		switch {
		case errors.Is(data.err, dashboard.ErrFetchInFlight):
		case data.err != nil:
			m.notice = fmt.Sprintf("Fetch failed: %v", data.err)
		case data.changed:
			m.notice = "History updated"
		default:
			m.notice = "Already up to date"
		}
		return m, nil

	case MsgLeaderboard:
		view := msg.data.(dashboard.LeaderboardView)
		m.board = &view
		m.loadingList = false
		m.boardList = list.New(entryItems(view.Entries), list.NewDefaultDelegate(), 0, 0)
		m.boardList.Title = "Leaderboard"
		m.boardList.SetSize(m.width-4, m.height-6)
		return m, nil

	case MsgBrowserOpened:
		if err := errData(msg.data); err != nil {
			m.notice = fmt.Sprintf("Could not open browser: %v", err)
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleDashboardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.first):
		m.orch.First()
	case key.Matches(msg, m.keys.prev):
		m.orch.Prev()
	case key.Matches(msg, m.keys.next):
		m.orch.Next()
	case key.Matches(msg, m.keys.last):
		m.orch.Last()
	case key.Matches(msg, m.keys.slot):
		m.orch.GoToSlot(int(msg.String()[0]-'1'))
	case key.Matches(msg, m.keys.fetch):
		if m.orch.Snapshot().Status == dashboard.Ready && !m.orch.Fetching() {
			m.notice = ""
			return m, tea.Batch(m.fetchNow(), m.spinner.Tick)
		}
	case key.Matches(msg, m.keys.leaderboard):
		m.screen = LeaderboardScreen
		if m.board == nil && !m.loadingList {
			m.loadingList = true
			return m, tea.Batch(m.fetchLeaderboard(), m.spinner.Tick)
		}
	case key.Matches(msg, m.keys.login):
		if nav := m.orch.Snapshot().Navigation; nav.Required() {
			return m, m.openLogin()
		}
	}
	return m, nil
}

func (m *Model) handleLeaderboardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.leaderboard):
		m.screen = DashboardScreen
		return m, nil
	case key.Matches(msg, m.keys.login) && m.board != nil && m.board.Unavailable:
		return m, m.open(m.board.Navigation.URL)
	}

	if m.board == nil {
		return m, nil
	}
	var cmd tea.Cmd
	m.boardList, cmd = m.boardList.Update(msg)
	return m, cmd
}

func (m *Model) load() tea.Cmd {
	return func() tea.Msg {
		return loadedMsg(m.orch.Load(m.ctx))
	}
}

func (m *Model) fetchNow() tea.Cmd {
	return func() tea.Msg {
		return fetchedMsg(m.orch.FetchNow(m.ctx))
	}
}

func (m *Model) fetchLeaderboard() tea.Cmd {
	return func() tea.Msg {
		return leaderboardMsg(m.orch.Leaderboard(m.ctx))
	}
}

func (m *Model) openLogin() tea.Cmd {
	return m.open(m.orch.Snapshot().Navigation.URL)
}

func (m *Model) open(url string) tea.Cmd {
	if url == "" {
		return nil
	}
	return func() tea.Msg {
		return browserOpenedMsg(m.openURL(url))
	}
}

func (m *Model) waitForProgress() tea.Cmd {
	if m.updates == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case update, ok := <-m.updates:
			if !ok {
				return nil
			}
			return progressUpdateMsg(update)
		case <-m.ctx.Done():
			return nil
		}
	}
}

// View renders the UI based on the current screen.
func (m *Model) View() string {
	if m.screen == LeaderboardScreen {
		return m.renderLeaderboard()
	}

	v := m.orch.Snapshot()
	switch v.Status {
	case dashboard.Idle, dashboard.Loading:
		return m.renderLoading()
	case dashboard.Redirecting:
		return m.renderRedirect(v)
	default:
		return m.renderDashboard(v)
	}
}

func (m *Model) renderLoading() string {
	msg := m.progress.Message
	if msg == "" {
		msg = "Loading dashboard..."
	}
	return fmt.Sprintf("%s %s\n\n%s", m.spinner.View(), msg, m.help.ShortHelpView([]key.Binding{m.keys.quit}))
}

func (m *Model) renderRedirect(v dashboard.View) string {
	var b strings.Builder
	b.WriteString(styles.err.Render("Your session has ended."))
	b.WriteString("\n\n")
	if m.loadErr != nil {
		b.WriteString(styles.help.Render(m.loadErr.Error()))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Log in again at %s\n", v.Navigation.URL)
	if m.notice != "" {
		b.WriteString(styles.warn.Render(m.notice) + "\n")
	}
	b.WriteString("\n" + m.help.ShortHelpView([]key.Binding{m.keys.login, m.keys.quit}))
	return b.String()
}

func (m *Model) renderDashboard(v dashboard.View) string {
	var b strings.Builder

	title := fmt.Sprintf("%s's dashboard", v.Owner.DisplayName)
	if v.ViewingOther() {
		title = fmt.Sprintf("%s's dashboard (signed in as %s)", v.Subject.DisplayName, v.Owner.DisplayName)
	}
	b.WriteString(styles.title.Render(title))
	b.WriteString("\n")

	fmt.Fprintf(&b, "Diversity %s   Taste %s\n", v.Diversity, v.Taste)
	if v.SongOfDay != nil {
		fmt.Fprintf(&b, "Song of the day: %s by %s\n", v.SongOfDay.TrackName, v.SongOfDay.Artists)
	} else {
		fmt.Fprintf(&b, "Song of the day: %s\n", models.ScorePlaceholder)
	}
	b.WriteString("\n")

	switch {
	case v.HistoryErr != nil:
		b.WriteString(styles.warn.Render(fmt.Sprintf("Listening history unavailable: %s", v.HistoryErr.Message)))
		b.WriteString("\n")
	case v.Empty:
		b.WriteString(styles.help.Render("No listening history yet. Play something and press f."))
		b.WriteString("\n")
	default:
		start := (v.Page.CurrentPage - 1) * v.Page.TracksPerPage
		for i, t := range v.Tracks {
			fmt.Fprintf(&b, "%3d. %s\n     %s\n", start+i+1, t.TrackName, styles.help.Render(t.Artists.String()))
		}
		b.WriteString("\n")
		b.WriteString(renderPager(v))
		b.WriteString("\n")
	}

	if m.orch.Fetching() {
		b.WriteString(m.spinner.View() + " Fetching recent plays...\n")
	} else if m.notice != "" {
		b.WriteString(styles.ok.Render(m.notice) + "\n")
	}

	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

// renderPager draws « ‹ [buttons] › » with the current page highlighted.
func renderPager(v dashboard.View) string {
	control := func(label string, disabled bool) string {
		if disabled {
			return styles.disabled.Render(label)
		}
		return styles.button.Render(label)
	}

	parts := []string{control("«", v.Controls.First), control("‹", v.Controls.Prev)}
	for _, btn := range v.Buttons {
		switch {
		case btn.Active:
			parts = append(parts, styles.active.Render(btn.String()))
		case btn.Disabled:
			parts = append(parts, styles.disabled.Render(btn.String()))
		default:
			parts = append(parts, styles.button.Render(btn.String()))
		}
	}
	parts = append(parts, control("›", v.Controls.Next), control("»", v.Controls.Last))

	status := styles.help.Render(fmt.Sprintf("page %d of %d", v.Page.CurrentPage, v.Page.TotalPages))
	return strings.Join(parts, "") + "  " + status
}

func (m *Model) renderLeaderboard() string {
	switch {
	case m.board == nil:
		return fmt.Sprintf("%s Loading leaderboard...\n\n%s", m.spinner.View(), m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit}))
	case m.board.Unavailable:
		msg := "Leaderboard unavailable"
		if m.board.Err != nil {
			msg = fmt.Sprintf("%s: %s", msg, m.board.Err.Message)
		}
		return fmt.Sprintf("%s\n\nLog in at %s\n\n%s",
			styles.err.Render(msg),
			m.board.Navigation.URL,
			m.help.ShortHelpView([]key.Binding{m.keys.login, m.keys.back, m.keys.quit}),
		)
	}
	return fmt.Sprintf("%s\n\n%s", m.boardList.View(), m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit}))
}
