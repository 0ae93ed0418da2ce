package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/scorify/internal/dashboard"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgLoaded MsgKind = iota
	MsgProgressUpdate
	MsgFetched
	MsgLeaderboard
	MsgBrowserOpened
)

type fetchedData struct {
	changed bool
	err     error
}

// loadedMsg is the constructor for [MsgLoaded]
func loadedMsg(err error) Msg {
	return Msg{kind: MsgLoaded, data: err}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update dashboard.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// fetchedMsg is the constructor for [MsgFetched]
func fetchedMsg(changed bool, err error) Msg {
	return Msg{kind: MsgFetched, data: fetchedData{changed, err}}
}

// leaderboardMsg is the constructor for [MsgLeaderboard]
func leaderboardMsg(view dashboard.LeaderboardView) Msg {
	return Msg{kind: MsgLeaderboard, data: view}
}

// browserOpenedMsg is the constructor for [MsgBrowserOpened]
func browserOpenedMsg(err error) Msg {
	return Msg{kind: MsgBrowserOpened, data: err}
}

func errData(data any) error {
	err, _ := data.(error)
	return err
}
