// Package ui implements the interactive terminal dashboard using bubbletea's Elm architecture.
//
// The TUI has two screens:
//  1. [DashboardScreen] : profile, scores, song of the day and the paginated listening history
//  2. [LeaderboardScreen] : ranked peers
//
// The [Model] is a thin shell over [dashboard.Orchestrator]: every state change goes through the orchestrator and
// the view renders its [dashboard.View] snapshot. Window size messages resize the pagination engine, so the number
// of tracks per page and the number of page buttons follow the terminal.
//
// Load progress arrives through a channel and drives the spinner text. When the orchestrator asks for a login
// redirect the shell opens the login page in the browser.
package ui
