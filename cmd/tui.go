package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/scorify/internal/dashboard"
	"github.com/desertthunder/scorify/internal/shared"
	"github.com/desertthunder/scorify/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive dashboard.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	updates := make(chan dashboard.ProgressUpdate, 16)
	orch, err := r.orchestrator(dashboard.Options{
		Subject:   cmd.String("subject"),
		LoadDelay: r.config.Dashboard.LoadDelay,
		Updates:   updates,
	})
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, orch, updates)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
