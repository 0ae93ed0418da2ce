package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Profile identifies a user of the score service.
type Profile struct {
	SubjectID   string `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// UnmarshalJSON accepts the streaming-provider profile object ({id, display_name, images}),
// a positional row [id, name, picUrl], or a list holding one such row.
func (p *Profile) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		return p.unmarshalRow(data)
	}

	var obj struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
		AvatarURL   string `json:"avatar_url"`
		Images      []struct {
			URL string `json:"url"`
		} `json:"images"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}

	*p = Profile{SubjectID: obj.ID, DisplayName: obj.DisplayName, AvatarURL: obj.AvatarURL}
	if p.AvatarURL == "" && len(obj.Images) > 0 {
		p.AvatarURL = obj.Images[0].URL
	}
	return nil
}

func (p *Profile) unmarshalRow(data []byte) error {
	var row []json.RawMessage
	if err := json.Unmarshal(data, &row); err != nil {
		return err
	}
	if len(row) == 0 {
		return fmt.Errorf("empty profile row")
	}

	first := bytes.TrimSpace(row[0])
	if len(first) > 0 && first[0] == '[' {
		return p.unmarshalRow(first)
	}

	fields := make([]string, 3)
	for i := 0; i < len(row) && i < len(fields); i++ {
		var s *string
		if err := json.Unmarshal(row[i], &s); err != nil {
			return fmt.Errorf("profile row field %d: %w", i, err)
		}
		if s != nil {
			fields[i] = *s
		}
	}

	*p = Profile{SubjectID: fields[0], DisplayName: fields[1], AvatarURL: fields[2]}
	return nil
}

// Artists is the list of performers on a track. The backend sends either a
// pre-joined string or an array.
type Artists []string

// UnmarshalJSON accepts a string, an array of strings, or null.
func (a *Artists) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*a = nil
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*a = nil
			return nil
		}
		*a = Artists{s}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*a = list
	return nil
}

func (a Artists) String() string {
	return strings.Join(a, ", ")
}

// Track is one listening-history entry. Identity is ID; reconciliation compares TrackName only.
type Track struct {
	ID          string  `json:"id"`
	TrackName   string  `json:"track_name"`
	Artists     Artists `json:"artists"`
	AlbumImage  string  `json:"album_image,omitempty"`
	AlbumName   string  `json:"album_name,omitempty"`
	ExternalURL string  `json:"spotify_url,omitempty"`
	PlayedAt    string  `json:"played_at,omitempty"`
}

// trackFields has Track's layout without its methods.
type trackFields Track

// UnmarshalJSON additionally accepts external_url as an alias of spotify_url.
func (t *Track) UnmarshalJSON(data []byte) error {
	var raw struct {
		trackFields
		ExternalURL string `json:"external_url"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*t = Track(raw.trackFields)
	if t.ExternalURL == "" {
		t.ExternalURL = raw.ExternalURL
	}
	return nil
}

// SongOfDay is the daily featured track.
type SongOfDay struct {
	TrackName   string  `json:"track_name"`
	Artists     Artists `json:"artists"`
	AlbumImage  string  `json:"album_image,omitempty"`
	AlbumName   string  `json:"album_name,omitempty"`
	ExternalURL string  `json:"spotify_url,omitempty"`
}

// ScorePlaceholder is rendered for scores that could not be fetched.
const ScorePlaceholder = "…"

// Score is a backend value in [0,1]. The zero value is unavailable.
type Score struct {
	Value     float64
	Available bool
}

// NewScore wraps an available backend value.
func NewScore(v float64) Score {
	return Score{Value: v, Available: true}
}

// Percent converts the value to 0–100 rounded to two decimals.
func (s Score) Percent() float64 {
	return math.Round(s.Value*100*100) / 100
}

// String renders the percentage, or [ScorePlaceholder] when unavailable.
func (s Score) String() string {
	if !s.Available {
		return ScorePlaceholder
	}
	return fmt.Sprintf("%.2f%%", s.Percent())
}

// ScoreRow is one [id, score] pair from the leaderboard payload.
type ScoreRow struct {
	SubjectID string
	Value     float64
}

func (r *ScoreRow) UnmarshalJSON(data []byte) error {
	var row []json.RawMessage
	if err := json.Unmarshal(data, &row); err != nil {
		return err
	}
	if len(row) < 2 {
		return fmt.Errorf("score row needs 2 fields, got %d", len(row))
	}
	if err := json.Unmarshal(row[0], &r.SubjectID); err != nil {
		return fmt.Errorf("score row id: %w", err)
	}
	if err := json.Unmarshal(row[1], &r.Value); err != nil {
		return fmt.Errorf("score row value: %w", err)
	}
	return nil
}

func (r ScoreRow) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{r.SubjectID, r.Value})
}

// LeaderboardData is the bulk payload of /get-leaderboard-data.
type LeaderboardData struct {
	Profiles []Profile  `json:"profiles"`
	Scores   []ScoreRow `json:"scores"`
}

// LeaderboardEntry is one ranked row.
type LeaderboardEntry struct {
	Rank    int
	Profile Profile
	Score   Score
}
