package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/desertthunder/scorify/internal/models"
	"github.com/desertthunder/scorify/internal/shared"
)

// Format names accepted by [Export].
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "text"
)

// Formats lists every supported export format.
var Formats = []string{FormatJSON, FormatCSV, FormatMarkdown, FormatText}

// HistoryExport is a subject's listening history with the scores shown beside it.
type HistoryExport struct {
	Profile   models.Profile `json:"profile"`
	Tracks    []models.Track `json:"tracks"`
	Diversity models.Score   `json:"-"`
	Taste     models.Score   `json:"-"`
}

// MarshalJSON renders unavailable scores as null.
func (e HistoryExport) MarshalJSON() ([]byte, error) {
	type alias HistoryExport
	return json.Marshal(struct {
		alias
		Diversity *float64 `json:"diversity_score"`
		Taste     *float64 `json:"taste_score"`
	}{alias(e), scoreValue(e.Diversity), scoreValue(e.Taste)})
}

func scoreValue(s models.Score) *float64 {
	if !s.Available {
		return nil
	}
	return &s.Value
}

// Export renders the history in the named format.
func Export(export *HistoryExport, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatJSON, "":
		return ExportToJSON(export)
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown, "md":
		return ExportToMarkdown(export, "")
	case FormatText, "txt":
		return ExportToText(export)
	default:
		return nil, fmt.Errorf("%w: unknown format %q (want one of %s)", shared.ErrInvalidFlag, format, strings.Join(Formats, ", "))
	}
}

// ExportToJSON converts a HistoryExport to indented JSON
func ExportToJSON(export *HistoryExport) ([]byte, error) {
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal history: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToCSV converts a HistoryExport to CSV format with columns: ID, Track, Artists, Album, Played At, URL
func ExportToCSV(export *HistoryExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Track", "Artists", "Album", "Played At", "URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range export.Tracks {
		record := []string{
			track.ID,
			track.TrackName,
			track.Artists.String(),
			track.AlbumName,
			track.PlayedAt,
			track.ExternalURL,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a HistoryExport to Markdown format with an optional avatar image
func ExportToMarkdown(export *HistoryExport, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", displayName(export.Profile))

	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Avatar](%s)\n\n", imageFilename)
	}

	fmt.Fprintf(&buf, "**Diversity**: %s\n", export.Diversity)
	fmt.Fprintf(&buf, "**Taste**: %s\n", export.Taste)
	fmt.Fprintf(&buf, "**Tracks**: %d\n\n", len(export.Tracks))

	buf.WriteString("## Listening History\n\n")
	if len(export.Tracks) == 0 {
		buf.WriteString("_No listening history yet._\n")
	}
	for i, track := range export.Tracks {
		title := track.TrackName
		if track.ExternalURL != "" {
			title = fmt.Sprintf("[%s](%s)", track.TrackName, track.ExternalURL)
		}
		albumPart := ""
		if track.AlbumName != "" {
			albumPart = fmt.Sprintf(" (%s)", track.AlbumName)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s\n", i+1, track.Artists, title, albumPart)
	}

	return buf.Bytes(), nil
}

// ExportToText converts a HistoryExport to plain text format
func ExportToText(export *HistoryExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "User: %s\n", displayName(export.Profile))
	fmt.Fprintf(&buf, "Diversity: %s\n", export.Diversity)
	fmt.Fprintf(&buf, "Taste: %s\n", export.Taste)
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(export.Tracks))

	for i, track := range export.Tracks {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, track.Artists, track.TrackName)
	}

	return buf.Bytes(), nil
}

// LeaderboardToText renders ranked entries as an aligned table.
func LeaderboardToText(entries []models.LeaderboardEntry) ([]byte, error) {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "RANK\tUSER\tSCORE")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\n", e.Rank, displayName(e.Profile), e.Score)
	}

	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("failed to write leaderboard: %w", err)
	}
	return buf.Bytes(), nil
}

func displayName(p models.Profile) string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.SubjectID
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty URL provided", shared.ErrInvalidArgument)
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create image request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	TracksFile  string
	ProfileFile string
}

// WriteCSVExport exports a history to CSV format with an accompanying profile JSON file.
//
// Defaults to the subject ID as the base filename & creates {base}_history.csv and {base}_profile.json
func WriteCSVExport(export *HistoryExport, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = export.Profile.SubjectID
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tracksFile := baseFilepath + "_history.csv"
	if err := os.WriteFile(tracksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	profileJSON, err := json.MarshalIndent(export.Profile, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to generate profile JSON: %w", err)
	}

	profileFile := baseFilepath + "_profile.json"
	if err := os.WriteFile(profileFile, profileJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write profile file: %w", err)
	}

	return &CSVExportResult{
		TracksFile:  tracksFile,
		ProfileFile: profileFile,
	}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Files     []string
	Avatar    string
}

// WriteMarkdownExport exports a history to Markdown format in a dedicated directory.
//
// Directory name defaults to the subject ID. When the profile has an avatar it is downloaded next to the
// README; a failed download only drops the image.
func WriteMarkdownExport(ctx context.Context, export *HistoryExport, outputDir string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = export.Profile.SubjectID
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	var avatarFilename string
	if export.Profile.AvatarURL != "" {
		imageData, err := DownloadImage(ctx, export.Profile.AvatarURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to download avatar: %v\n", err)
		} else {
			avatarFilename = "avatar.jpg"
			avatarPath := filepath.Join(outputDir, avatarFilename)
			if err := os.WriteFile(avatarPath, imageData, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save avatar: %v\n", err)
				avatarFilename = ""
			} else {
				result.Avatar = avatarPath
				result.Files = append(result.Files, avatarPath)
			}
		}
	}

	mdData, err := ExportToMarkdown(export, avatarFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteTextExport exports a history to plain text format.
//
// Defaults to {subject}_history.txt as the filename.
func WriteTextExport(export *HistoryExport, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_history.txt", export.Profile.SubjectID)
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}
