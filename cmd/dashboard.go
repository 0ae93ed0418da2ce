package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/scorify/internal/dashboard"
	"github.com/desertthunder/scorify/internal/formatter"
	"github.com/desertthunder/scorify/internal/models"
	"github.com/desertthunder/scorify/internal/pagination"
	"github.com/desertthunder/scorify/internal/services"
	"github.com/desertthunder/scorify/internal/shared"
	"github.com/urfave/cli/v3"
)

// load mounts a dashboard for the --subject flag and waits for it to settle. Progress is logged, never printed,
// so stdout stays clean for JSON and exports.
//
// The orchestrator keeps sending progress after Load (FetchNow does), so the channel is never closed; stop ends
// the logging goroutine once the caller is done with the orchestrator.
func (r *Runner) load(ctx context.Context, cmd *cli.Command) (orch *dashboard.Orchestrator, view dashboard.View, stop func(), err error) {
	progressCh := make(chan dashboard.ProgressUpdate, 16)
	orch, err = r.orchestrator(dashboard.Options{Subject: cmd.String("subject"), Updates: progressCh})
	if err != nil {
		return nil, dashboard.View{}, func() {}, err
	}

	quit := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case update := <-progressCh:
				r.logger.Debug(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
			case <-quit:
				return
			}
		}
	}()
	stop = func() {
		close(quit)
		<-done
	}

	err = orch.Load(ctx)
	view = orch.Snapshot()
	if err != nil {
		stop()
		return nil, view, func() {}, r.redirect(cmd, view.Navigation, err)
	}
	return orch, view, stop, nil
}

// redirect reports an unrecoverable session and opens the login page when --open is set.
func (r *Runner) redirect(cmd *cli.Command, nav services.Navigation, err error) error {
	if !nav.Required() {
		return err
	}

	r.logger.Warn("session could not be recovered", "login", nav.URL)
	if cmd.Bool("open") {
		if oerr := r.openURL(nav.URL); oerr != nil {
			r.logger.Warn("failed to open browser", "error", oerr)
		}
	}

	if errors.Is(err, dashboard.ErrRedirect) {
		return err
	}
	return fmt.Errorf("%w: %w", dashboard.ErrRedirect, err)
}

// failure turns a failed fetch into a command error, redirecting when the session is gone.
func failure[T any](r *Runner, cmd *cli.Command, what string, res services.Result[T]) error {
	err := fmt.Errorf("failed to fetch %s: %w", what, res.Err)
	if res.Err.Redirect() {
		return r.redirect(cmd, res.Err.Navigation, err)
	}
	return err
}

// Profile prints the session owner's profile, or the profile of --subject.
func (r *Runner) Profile(ctx context.Context, cmd *cli.Command) error {
	fetcher, err := r.client()
	if err != nil {
		return err
	}

	subject := cmd.String("subject")
	if subject == "" {
		subject = r.config.Dashboard.Subject
	}

	var res services.Result[models.Profile]
	if subject == "" {
		res = fetcher.Profile(ctx)
	} else {
		res = fetcher.ProfileByID(ctx, subject)
	}
	if !res.OK() {
		return failure(r, cmd, "profile", res)
	}

	p := res.Value
	if cmd.Bool("json") {
		return r.writeJSON(p, cmd.Bool("pretty"))
	}

	r.writePlain("%s\n", p.DisplayName)
	r.writePlain("ID:     %s\n", p.SubjectID)
	if p.AvatarURL != "" {
		r.writePlain("Avatar: %s\n", p.AvatarURL)
	}
	return nil
}

// History prints or exports the reconciled listening history.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	format := strings.ToLower(cmd.String("format"))
	output := cmd.String("output")
	page := int(cmd.Int("page"))

	if page < 0 {
		return fmt.Errorf("%w: --page must not be negative", shared.ErrInvalidFlag)
	}
	if _, err := formatter.Export(&formatter.HistoryExport{}, format); err != nil {
		return err
	}

	orch, view, stop, err := r.load(ctx, cmd)
	if err != nil {
		return err
	}
	defer stop()
	if view.HistoryErr != nil {
		return fmt.Errorf("failed to fetch history: %w", view.HistoryErr)
	}

	tracks := orch.History()
	var state pagination.State
	if page > 0 {
		orch.Resize(pagination.Viewport{Width: int(cmd.Int("width")), Height: int(cmd.Int("height"))})
		state = orch.GoTo(page)
		tracks = orch.Snapshot().Tracks
	}

	r.logger.Info("history loaded", "subject", view.Subject.SubjectID, "tracks", view.TrackCount)

	export := &formatter.HistoryExport{
		Profile:   view.Subject,
		Tracks:    tracks,
		Diversity: view.Diversity,
		Taste:     view.Taste,
	}

	if output != "" {
		return r.writeExport(ctx, export, format, output)
	}

	data, err := formatter.Export(export, format)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if page > 0 && (format == formatter.FormatText || format == "txt") {
		r.writePlainln("Page %d of %d (%d tracks)", state.CurrentPage, state.TotalPages, state.ItemCount)
	}
	return nil
}

func (r *Runner) writeExport(ctx context.Context, export *formatter.HistoryExport, format, output string) error {
	switch format {
	case formatter.FormatCSV:
		result, err := formatter.WriteCSVExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Tracks:  %s\n", result.TracksFile)
		r.writePlain("✓ Profile: %s\n", result.ProfileFile)
	case formatter.FormatMarkdown, "md":
		result, err := formatter.WriteMarkdownExport(ctx, export, output)
		if err != nil {
			return err
		}
		for _, f := range result.Files {
			r.writePlain("✓ %s\n", f)
		}
	case formatter.FormatText, "txt":
		path, err := formatter.WriteTextExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ %s\n", path)
	default:
		data, err := formatter.ExportToJSON(export)
		if err != nil {
			return err
		}
		if err := os.WriteFile(output, data, 0644); err != nil {
			return fmt.Errorf("failed to write JSON file: %w", err)
		}
		r.writePlain("✓ %s\n", output)
	}
	return nil
}

// FetchNow loads the dashboard and pulls the latest plays into it.
func (r *Runner) FetchNow(ctx context.Context, cmd *cli.Command) error {
	orch, view, stop, err := r.load(ctx, cmd)
	if err != nil {
		return err
	}
	defer stop()

	before := view.TrackCount
	changed, err := orch.FetchNow(ctx)
	if err != nil {
		var terr *services.TransportError
		if errors.As(err, &terr) && terr.Redirect() {
			return r.redirect(cmd, terr.Navigation, err)
		}
		return fmt.Errorf("fetch failed: %w", err)
	}

	if !changed {
		r.writePlain("✓ History is up to date (%d tracks)\n", before)
		return nil
	}

	after := orch.Snapshot()
	r.writePlain("✓ Added %d tracks (%d total)\n", after.TrackCount-before, after.TrackCount)
	for i, t := range orch.History()[:after.TrackCount-before] {
		r.writePlain("  %d. %s - %s\n", i+1, t.TrackName, t.Artists)
	}
	return nil
}

// Scores prints the diversity and taste scores of the subject.
func (r *Runner) Scores(ctx context.Context, cmd *cli.Command) error {
	_, view, stop, err := r.load(ctx, cmd)
	if err != nil {
		return err
	}
	stop()

	if cmd.Bool("json") {
		score := func(s models.Score) *float64 {
			if !s.Available {
				return nil
			}
			return &s.Value
		}
		return r.writeJSON(map[string]any{
			"id":              view.Subject.SubjectID,
			"diversity_score": score(view.Diversity),
			"taste_score":     score(view.Taste),
		}, cmd.Bool("pretty"))
	}

	r.writePlainHeader(view.Subject.DisplayName)
	r.writePlain("Diversity: %s\n", view.Diversity)
	r.writePlain("Taste:     %s\n", view.Taste)
	return nil
}

// SongOfTheDay prints the featured track.
func (r *Runner) SongOfTheDay(ctx context.Context, cmd *cli.Command) error {
	fetcher, err := r.client()
	if err != nil {
		return err
	}

	res := fetcher.SongOfDay(ctx)
	if !res.OK() {
		return failure(r, cmd, "song of the day", res)
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{"song_of_the_day": res.Value}, cmd.Bool("pretty"))
	}

	song := res.Value
	if song == nil {
		return r.writePlain("No song of the day yet\n")
	}

	r.writePlain("♪ %s - %s\n", song.TrackName, song.Artists)
	if song.AlbumName != "" {
		r.writePlain("  %s\n", song.AlbumName)
	}
	if song.ExternalURL != "" {
		r.writePlain("  %s\n", song.ExternalURL)
	}
	return nil
}

func (r *Runner) leaderboard(ctx context.Context, cmd *cli.Command) ([]models.LeaderboardEntry, error) {
	orch, err := r.orchestrator(dashboard.Options{})
	if err != nil {
		return nil, err
	}

	board := orch.Leaderboard(ctx)
	if board.Unavailable {
		err := fmt.Errorf("leaderboard unavailable: %w", board.Err)
		if board.Err.Redirect() {
			return nil, r.redirect(cmd, board.Navigation, err)
		}
		return nil, err
	}
	return board.Entries, nil
}

// Leaderboard prints peers ranked by taste score.
func (r *Runner) Leaderboard(ctx context.Context, cmd *cli.Command) error {
	entries, err := r.leaderboard(ctx, cmd)
	if err != nil {
		return err
	}

	if limit := int(cmd.Int("limit")); limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, cmd.Bool("pretty"))
	}

	data, err := formatter.LeaderboardToText(entries)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
