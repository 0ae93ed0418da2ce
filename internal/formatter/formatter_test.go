package formatter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/scorify/internal/models"
	"github.com/desertthunder/scorify/internal/shared"
	th "github.com/desertthunder/scorify/internal/testing"
)

func testExport() *HistoryExport {
	return &HistoryExport{
		Profile: models.Profile{SubjectID: "u1", DisplayName: "Ada"},
		Tracks: []models.Track{
			{
				ID:          "track1",
				TrackName:   "Song One",
				Artists:     models.Artists{"Artist One", "Guest"},
				AlbumName:   "Album One",
				ExternalURL: "https://open/track1",
				PlayedAt:    "2025-11-20T10:00:00Z",
			},
			{
				ID:        "track2",
				TrackName: "Song Two",
				Artists:   models.Artists{"Artist Two"},
			},
		},
		Diversity: models.NewScore(0.5),
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(testExport())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "ID,Track,Artists,Album,Played At,URL") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, `track1,Song One,"Artist One, Guest",Album One,2025-11-20T10:00:00Z,https://open/track1`) {
			t.Errorf("CSV missing track1 row, got: %s", output)
		}
		if !strings.Contains(output, "track2,Song Two,Artist Two,,,") {
			t.Errorf("CSV missing track2 row, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		t.Run("without avatar", func(t *testing.T) {
			data, err := ExportToMarkdown(testExport(), "")
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}

			output := string(data)

			if !strings.Contains(output, "# Ada") {
				t.Errorf("Markdown missing title")
			}
			if !strings.Contains(output, "**Diversity**: 50.00%") {
				t.Errorf("Markdown missing diversity")
			}
			if !strings.Contains(output, "**Taste**: "+models.ScorePlaceholder) {
				t.Errorf("Markdown missing taste placeholder")
			}
			if !strings.Contains(output, "1. Artist One, Guest - [Song One](https://open/track1) (Album One)") {
				t.Errorf("Markdown missing track1, got: %s", output)
			}
			if !strings.Contains(output, "2. Artist Two - Song Two\n") {
				t.Errorf("Markdown missing track2, got: %s", output)
			}
			if strings.Contains(output, "![Avatar]") {
				t.Errorf("Markdown should not reference an avatar")
			}
		})

		t.Run("with avatar", func(t *testing.T) {
			data, err := ExportToMarkdown(testExport(), "avatar.jpg")
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}
			if !strings.Contains(string(data), "![Avatar](avatar.jpg)") {
				t.Errorf("Markdown missing avatar reference")
			}
		})

		t.Run("empty history", func(t *testing.T) {
			data, _ := ExportToMarkdown(&HistoryExport{Profile: models.Profile{SubjectID: "u9"}}, "")
			output := string(data)
			if !strings.Contains(output, "# u9") || !strings.Contains(output, "No listening history yet") {
				t.Errorf("unexpected empty export: %s", output)
			}
		})
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(testExport())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "User: Ada") {
			t.Errorf("Text missing user")
		}
		if !strings.Contains(output, "Tracks: 2") {
			t.Errorf("Text missing track count")
		}
		if !strings.Contains(output, "1. Artist One, Guest - Song One") {
			t.Errorf("Text missing track1")
		}
		if !strings.Contains(output, "2. Artist Two - Song Two") {
			t.Errorf("Text missing track2")
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(testExport())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var decoded struct {
			Profile   models.Profile `json:"profile"`
			Tracks    []models.Track `json:"tracks"`
			Diversity *float64       `json:"diversity_score"`
			Taste     *float64       `json:"taste_score"`
		}
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, data)
		}

		if decoded.Profile.SubjectID != "u1" || len(decoded.Tracks) != 2 {
			t.Errorf("unexpected decoded export %+v", decoded)
		}
		if decoded.Tracks[0].ExternalURL != "https://open/track1" {
			t.Errorf("track url lost: %+v", decoded.Tracks[0])
		}
		if decoded.Diversity == nil || *decoded.Diversity != 0.5 {
			t.Errorf("expected diversity 0.5, got %v", decoded.Diversity)
		}
		if decoded.Taste != nil {
			t.Errorf("expected null taste, got %v", *decoded.Taste)
		}
	})

	t.Run("Export", func(t *testing.T) {
		for _, format := range append(Formats, "md", "txt", "CSV") {
			if _, err := Export(testExport(), format); err != nil {
				t.Errorf("format %q: unexpected error %v", format, err)
			}
		}

		if _, err := Export(testExport(), "yaml"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("LeaderboardToText", func(t *testing.T) {
		entries := []models.LeaderboardEntry{
			{Rank: 1, Profile: models.Profile{SubjectID: "u1", DisplayName: "Ada"}, Score: models.NewScore(0.9)},
			{Rank: 2, Profile: models.Profile{SubjectID: "u2"}},
		}

		data, err := LeaderboardToText(entries)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected header and 2 rows, got %q", lines)
		}
		if !strings.HasPrefix(lines[0], "RANK") || !strings.Contains(lines[1], "90.00%") {
			t.Errorf("unexpected table %q", lines)
		}
		if !strings.Contains(lines[2], "u2") || !strings.Contains(lines[2], models.ScorePlaceholder) {
			t.Errorf("expected fallback name and placeholder, got %q", lines[2])
		}
	})
}

func TestDownloadImage(t *testing.T) {
	t.Run("EmptyURL", func(t *testing.T) {
		if _, err := DownloadImage(context.Background(), ""); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("png"))
		}))
		defer srv.Close()

		data, err := DownloadImage(context.Background(), srv.URL)
		if err != nil || string(data) != "png" {
			t.Errorf("unexpected result %q, %v", data, err)
		}
	})

	t.Run("BadStatus", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		if _, err := DownloadImage(context.Background(), srv.URL); err == nil {
			t.Error("expected error for 404")
		}
	})
}

func TestWriters(t *testing.T) {
	t.Run("WriteCSVExport", func(t *testing.T) {
		t.Run("WithDefaultPath", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			result, err := WriteCSVExport(testExport(), "")
			if err != nil {
				t.Fatalf("WriteCSVExport failed: %v", err)
			}

			if result.TracksFile != "u1_history.csv" {
				t.Errorf("Expected tracks file 'u1_history.csv', got '%s'", result.TracksFile)
			}
			if result.ProfileFile != "u1_profile.json" {
				t.Errorf("Expected profile file 'u1_profile.json', got '%s'", result.ProfileFile)
			}

			th.AssertFileExists(t, result.TracksFile)
			th.AssertFileExists(t, result.ProfileFile)

			if content := th.MustReadFile(t, result.TracksFile); !strings.Contains(content, "Song One") {
				t.Errorf("CSV missing track data")
			}
			if content := th.MustReadFile(t, result.ProfileFile); !strings.Contains(content, `"display_name": "Ada"`) {
				t.Errorf("profile JSON missing display name: %s", content)
			}
		})

		t.Run("WithCustomPath", func(t *testing.T) {
			base := filepath.Join(t.TempDir(), "custom_export")

			result, err := WriteCSVExport(testExport(), base)
			if err != nil {
				t.Fatalf("WriteCSVExport failed: %v", err)
			}
			if result.TracksFile != base+"_history.csv" {
				t.Errorf("unexpected tracks file %s", result.TracksFile)
			}
			th.AssertFileExists(t, result.ProfileFile)
		})
	})

	t.Run("WriteMarkdownExport", func(t *testing.T) {
		t.Run("WithAvatar", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("jpeg"))
			}))
			defer srv.Close()

			export := testExport()
			export.Profile.AvatarURL = srv.URL + "/a.jpg"
			dir := filepath.Join(t.TempDir(), "out")

			result, err := WriteMarkdownExport(context.Background(), export, dir)
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}
			if len(result.Files) != 2 || result.Avatar == "" {
				t.Errorf("expected avatar and README, got %+v", result)
			}
			if content := th.MustReadFile(t, filepath.Join(dir, "README.md")); !strings.Contains(content, "![Avatar](avatar.jpg)") {
				t.Errorf("README missing avatar reference")
			}
		})

		t.Run("AvatarFailureIsNotFatal", func(t *testing.T) {
			srv := httptest.NewServer(http.NotFoundHandler())
			defer srv.Close()

			export := testExport()
			export.Profile.AvatarURL = srv.URL
			dir := t.TempDir()

			result, err := WriteMarkdownExport(context.Background(), export, dir)
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}
			if result.Avatar != "" || len(result.Files) != 1 {
				t.Errorf("expected README only, got %+v", result)
			}
		})
	})

	t.Run("WriteTextExport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "history.txt")

		got, err := WriteTextExport(testExport(), path)
		if err != nil {
			t.Fatalf("WriteTextExport failed: %v", err)
		}
		if got != path {
			t.Errorf("expected %s, got %s", path, got)
		}

		content, err := os.ReadFile(path)
		if err != nil || !strings.Contains(string(content), "User: Ada") {
			t.Errorf("unexpected file content %q (%v)", content, err)
		}
	})
}
