package ui

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/scorify/internal/dashboard"
	"github.com/desertthunder/scorify/internal/models"
	"github.com/desertthunder/scorify/internal/pagination"
	"github.com/desertthunder/scorify/internal/services"
	"github.com/desertthunder/scorify/internal/shared"
)

type stubFetcher struct {
	profile     services.Result[models.Profile]
	history     []models.Track
	fresh       []models.Track
	leaderboard services.Result[models.LeaderboardData]
}

func ok[T any](v T) services.Result[T] { return services.Success(v, http.StatusOK) }

func (s *stubFetcher) Profile(context.Context) services.Result[models.Profile] { return s.profile }
func (s *stubFetcher) ProfileByID(_ context.Context, id string) services.Result[models.Profile] {
	return ok(models.Profile{SubjectID: id, DisplayName: id})
}
func (s *stubFetcher) History(context.Context, string) services.Result[[]models.Track] {
	return ok(s.history)
}
func (s *stubFetcher) FetchHistory(context.Context, string) services.Result[[]models.Track] {
	return ok(s.fresh)
}
func (s *stubFetcher) DiversityScore(context.Context, string) services.Result[models.Score] {
	return ok(models.NewScore(0.5))
}
func (s *stubFetcher) TasteScore(context.Context, string) services.Result[models.Score] {
	return ok(models.NewScore(0.25))
}
func (s *stubFetcher) SongOfDay(context.Context) services.Result[*models.SongOfDay] {
	return ok(&models.SongOfDay{TrackName: "Hey Jude", Artists: models.Artists{"The Beatles"}})
}
func (s *stubFetcher) Leaderboard(context.Context) services.Result[models.LeaderboardData] {
	return s.leaderboard
}

func tracks(n int) []models.Track {
	out := make([]models.Track, n)
	for i := range out {
		out[i] = models.Track{ID: fmt.Sprint(i), TrackName: fmt.Sprintf("Song%d", n-i), Artists: models.Artists{"A"}}
	}
	return out
}

func newTestModel(t *testing.T, f *stubFetcher) (*Model, *[]string) {
	t.Helper()
	orch := dashboard.New(f, dashboard.Options{
		LoginURL: "http://backend/login",
		Layout:   pagination.DefaultLayout(),
		Logger:   shared.NewLogger(io.Discard),
	})

	m := NewModel(context.Background(), orch, nil)
	var opened []string
	m.openURL = func(url string) error {
		opened = append(opened, url)
		return nil
	}
	return m, &opened
}

// run executes cmd and feeds every resulting message except spinner ticks back into the model.
func run(m *Model, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			run(m, c)
		}
	case Msg:
		_, next := m.Update(msg)
		run(m, next)
	}
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m *Model, s string) {
	_, cmd := m.Update(keyPress(s))
	run(m, cmd)
}

func readyModel(t *testing.T, f *stubFetcher) (*Model, *[]string) {
	t.Helper()
	m, opened := newTestModel(t, f)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 22})
	run(m, m.load())
	return m, opened
}

func TestModel(t *testing.T) {
	base := func() *stubFetcher {
		return &stubFetcher{
			profile: ok(models.Profile{SubjectID: "ada", DisplayName: "Ada"}),
			history: tracks(30),
			fresh:   []models.Track{{TrackName: "Song31"}},
		}
	}

	t.Run("Loading", func(t *testing.T) {
		m, _ := newTestModel(t, base())
		if m.Init() == nil {
			t.Fatal("expected init command")
		}
		if !strings.Contains(m.View(), "Loading dashboard") {
			t.Errorf("expected loading view, got %q", m.View())
		}
	})

	t.Run("Ready", func(t *testing.T) {
		m, _ := readyModel(t, base())
		view := m.View()
		for _, want := range []string{"Ada's dashboard", "50.00%", "25.00%", "Hey Jude", "Song30", "page 1 of"} {
			if !strings.Contains(view, want) {
				t.Errorf("expected %q in view:\n%s", want, view)
			}
		}
	})

	t.Run("Page Keys", func(t *testing.T) {
		m, _ := readyModel(t, base())

		press(m, "l")
		if got := m.orch.Snapshot().Page.CurrentPage; got != 2 {
			t.Errorf("expected page 2 after next, got %d", got)
		}

		press(m, "G")
		v := m.orch.Snapshot()
		if v.Page.CurrentPage != v.Page.TotalPages {
			t.Errorf("expected last page, got %d of %d", v.Page.CurrentPage, v.Page.TotalPages)
		}

		press(m, "g")
		if got := m.orch.Snapshot().Page.CurrentPage; got != 1 {
			t.Errorf("expected first page, got %d", got)
		}

		press(m, "2")
		if got := m.orch.Snapshot().Page.CurrentPage; got != 2 {
			t.Errorf("expected slot 2 to show page 2, got %d", got)
		}
	})

	t.Run("Resize Clamps Page", func(t *testing.T) {
		m, _ := readyModel(t, base())
		press(m, "G")

		m.Update(tea.WindowSizeMsg{Width: 100, Height: 60})
		v := m.orch.Snapshot()
		if v.Page.CurrentPage > v.Page.TotalPages {
			t.Errorf("page %d beyond total %d", v.Page.CurrentPage, v.Page.TotalPages)
		}
	})

	t.Run("Fetch Now", func(t *testing.T) {
		m, _ := readyModel(t, base())

		press(m, "f")
		if m.notice != "History updated" {
			t.Errorf("expected update notice, got %q", m.notice)
		}
		if h := m.orch.History(); len(h) != 31 || h[0].TrackName != "Song31" {
			t.Errorf("unexpected history head %v", h[0])
		}
	})

	t.Run("Redirect Opens Login", func(t *testing.T) {
		f := base()
		f.profile = services.Failure[models.Profile](&services.TransportError{
			Kind:       services.KindUnauthorized,
			Status:     http.StatusUnauthorized,
			Message:    "Not authenticated",
			Navigation: services.Navigation{Kind: services.NavigateLogin, URL: "http://backend/login"},
		})
		m, opened := readyModel(t, f)

		if len(*opened) != 1 || (*opened)[0] != "http://backend/login" {
			t.Errorf("expected login page to be opened once, got %v", *opened)
		}
		if !strings.Contains(m.View(), "session has ended") {
			t.Errorf("expected redirect view, got %q", m.View())
		}
	})

	t.Run("Leaderboard", func(t *testing.T) {
		f := base()
		f.leaderboard = ok(models.LeaderboardData{
			Profiles: []models.Profile{{SubjectID: "ada", DisplayName: "Ada"}, {SubjectID: "grace", DisplayName: "Grace"}},
			Scores:   []models.ScoreRow{{SubjectID: "ada", Value: 0.5}, {SubjectID: "grace", Value: 0.9}},
		})
		m, _ := readyModel(t, f)

		press(m, "tab")
		if m.screen != LeaderboardScreen || m.board == nil {
			t.Fatal("expected leaderboard to load")
		}
		view := m.View()
		if !strings.Contains(view, "1. Grace") || !strings.Contains(view, "2. Ada") {
			t.Errorf("unexpected leaderboard view:\n%s", view)
		}

		press(m, "esc")
		if m.screen != DashboardScreen {
			t.Error("expected esc to return to the dashboard")
		}
	})

	t.Run("Leaderboard Unavailable", func(t *testing.T) {
		f := base()
		f.leaderboard = ok(models.LeaderboardData{})
		m, opened := readyModel(t, f)

		press(m, "tab")
		if !strings.Contains(m.View(), "Leaderboard unavailable") {
			t.Errorf("expected error page, got %q", m.View())
		}

		press(m, "o")
		if len(*opened) != 1 {
			t.Errorf("expected login link to open, got %v", *opened)
		}
	})

	t.Run("Quit", func(t *testing.T) {
		m, _ := newTestModel(t, base())
		_, cmd := m.Update(keyPress("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})
}
