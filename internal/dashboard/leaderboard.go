package dashboard

import (
	"cmp"
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/desertthunder/scorify/internal/models"
	"github.com/desertthunder/scorify/internal/services"
)

// LeaderboardView is the ranked peer list. Unavailable is set when the bulk fetch produced nothing usable, in
// which case the shell shows a full-page error with Navigation as the login link.
type LeaderboardView struct {
	Entries     []models.LeaderboardEntry
	Unavailable bool
	Err         *services.TransportError
	Navigation  services.Navigation
}

// Leaderboard fetches and ranks the bulk leaderboard data.
func (o *Orchestrator) Leaderboard(ctx context.Context) LeaderboardView {
	res := o.fetcher.Leaderboard(ctx)
	if !res.OK() {
		o.logger.Warn("leaderboard unavailable", "kind", res.Err.Kind, "status", res.Status, "message", res.Err.Message)
		return o.unavailable(res.Err)
	}

	entries := RankLeaderboard(res.Value)
	if len(entries) == 0 {
		return o.unavailable(&services.TransportError{
			Kind:    services.KindUnknown,
			Status:  http.StatusNoContent,
			Message: "no leaderboard data",
		})
	}
	return LeaderboardView{Entries: entries}
}

func (o *Orchestrator) unavailable(err *services.TransportError) LeaderboardView {
	nav := err.Navigation
	if !nav.Required() {
		nav = services.Navigation{Kind: services.NavigateLogin, URL: o.loginURL}
	}
	return LeaderboardView{Unavailable: true, Err: err, Navigation: nav}
}

// RankLeaderboard joins scores to profiles and orders them by score, highest first. Ties are broken by display
// name. Scores without a profile keep their bare identifier; profiles without a score are ranked last as
// unavailable.
func RankLeaderboard(data models.LeaderboardData) []models.LeaderboardEntry {
	profiles := make(map[string]models.Profile, len(data.Profiles))
	for _, p := range data.Profiles {
		if p.SubjectID != "" {
			profiles[p.SubjectID] = p
		}
	}

	entries := make([]models.LeaderboardEntry, 0, max(len(data.Scores), len(profiles)))
	scored := make(map[string]bool, len(data.Scores))
	for _, row := range data.Scores {
		if row.SubjectID == "" || scored[row.SubjectID] {
			continue
		}
		scored[row.SubjectID] = true

		p, ok := profiles[row.SubjectID]
		if !ok {
			p = models.Profile{SubjectID: row.SubjectID}
		}
		entries = append(entries, models.LeaderboardEntry{Profile: p, Score: models.NewScore(row.Value)})
	}

	for _, p := range data.Profiles {
		if p.SubjectID == "" || scored[p.SubjectID] {
			continue
		}
		scored[p.SubjectID] = true
		entries = append(entries, models.LeaderboardEntry{Profile: p})
	}

	slices.SortStableFunc(entries, func(a, b models.LeaderboardEntry) int {
		if a.Score.Available != b.Score.Available {
			if a.Score.Available {
				return -1
			}
			return 1
		}
		if c := cmp.Compare(b.Score.Value, a.Score.Value); c != 0 {
			return c
		}
		return strings.Compare(strings.ToLower(a.Profile.DisplayName), strings.ToLower(b.Profile.DisplayName))
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
