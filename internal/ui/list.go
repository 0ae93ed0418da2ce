package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/scorify/internal/models"
)

var _ list.Item = entryItem{}

// entryItem wraps [models.LeaderboardEntry] to implement [list.Item].
type entryItem struct {
	entry models.LeaderboardEntry
}

func (i entryItem) FilterValue() string { return i.entry.Profile.DisplayName }
func (i entryItem) Title() string {
	name := i.entry.Profile.DisplayName
	if name == "" {
		name = i.entry.Profile.SubjectID
	}
	return fmt.Sprintf("%d. %s", i.entry.Rank, name)
}
func (i entryItem) Description() string {
	return fmt.Sprintf("Taste %s", i.entry.Score)
}

func entryItems(entries []models.LeaderboardEntry) []list.Item {
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = entryItem{entry: e}
	}
	return items
}
