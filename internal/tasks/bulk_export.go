package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/scorify/internal/formatter"
	"github.com/desertthunder/scorify/internal/models"
	"github.com/desertthunder/scorify/internal/services"
	"github.com/desertthunder/scorify/internal/shared"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Fetcher is the part of the resource fetchers a bulk export reads from.
type Fetcher interface {
	ProfileByID(ctx context.Context, subjectID string) services.Result[models.Profile]
	History(ctx context.Context, subjectID string) services.Result[[]models.Track]
	DiversityScore(ctx context.Context, subjectID string) services.Result[models.Score]
	TasteScore(ctx context.Context, subjectID string) services.Result[models.Score]
}

// Exporter writes the listening history of many users at once.
type Exporter struct {
	fetcher Fetcher
	logger  *log.Logger
}

// NewExporter creates an [Exporter] over fetcher.
func NewExporter(fetcher Fetcher, logger *log.Logger) *Exporter {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Exporter{fetcher: fetcher, logger: shared.WithLogger(logger, "component", "export")}
}

// BulkExportOpts contains configuration for bulk history exports.
type BulkExportOpts struct {
	Format     string  // Export format: json, csv, markdown, text
	OutputDir  string  // Base output directory (default: scorify_export_{epoch})
	NumWorkers int     // Concurrent workers (default: 5, at most 10)
	RateLimit  float64 // History requests per second (default: 5)
}

// SubjectExportResult is the outcome for one user.
type SubjectExportResult struct {
	SubjectID   string   `json:"id"`
	DisplayName string   `json:"display_name"`
	Tracks      int      `json:"tracks"`
	Success     bool     `json:"success"`
	Files       []string `json:"files,omitempty"`
	Error       error    `json:"-"`
	Message     string   `json:"error,omitempty"`
}

// BulkExportResult summarizes a bulk export and is written as its manifest.
type BulkExportResult struct {
	Format            string                `json:"format"`
	ExportedAt        time.Time             `json:"exported_at"`
	TotalSubjects     int                   `json:"total_subjects"`
	SuccessfulExports int                   `json:"successful_exports"`
	FailedExports     int                   `json:"failed_exports"`
	OutputDirectory   string                `json:"output_directory"`
	ManifestPath      string                `json:"-"`
	Results           []SubjectExportResult `json:"results"`
}

// exportJob carries a fetched history from the producer to a worker.
type exportJob struct {
	export *formatter.HistoryExport
}

// BulkExport exports the history of every subject with a rate-limited producer feeding a pool of workers.
//
// The producer fetches profiles and histories; workers fetch scores and write files. A per-user failure is recorded
// and the export continues. A failure that needs the user to log in again stops the whole export and is returned.
// Results are sorted by subject and written to export_manifest.json in the output directory.
func (e *Exporter) BulkExport(ctx context.Context, prog chan<- ProgressUpdate, subjects []string, opts BulkExportOpts) (*BulkExportResult, error) {
	if len(subjects) == 0 {
		return nil, fmt.Errorf("%w: no users to export", shared.ErrMissingArgument)
	}
	if _, err := formatter.Export(&formatter.HistoryExport{}, opts.Format); err != nil {
		return nil, err
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("scorify_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		Format:          strings.ToLower(opts.Format),
		ExportedAt:      time.Now().UTC(),
		TotalSubjects:   len(subjects),
		OutputDirectory: opts.OutputDir,
		Results:         make([]SubjectExportResult, 0, len(subjects)),
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan exportJob, len(subjects))
	results := make(chan SubjectExportResult, len(subjects))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	// the producer reports fetch failures on results too, so it joins the wait group
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(jobs)
		sendProgress(prog, startUpdate(len(subjects)))
		for i, id := range subjects {
			if err := limiter.Wait(ctx); err != nil {
				return
			}

			export, err := e.fetch(ctx, id)
			if err != nil {
				var terr *services.TransportError
				if errors.As(err, &terr) && terr.Redirect() {
					cancel(err)
					return
				}
				results <- SubjectExportResult{SubjectID: id, DisplayName: id, Error: err}
				continue
			}

			jobs <- exportJob{export: export}
			sendProgress(prog, exportingUpdate(i+1, len(subjects), export.Profile.DisplayName))
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		if res.Error != nil {
			res.Message = res.Error.Error()
			result.FailedExports++
			sendProgress(prog, failedUpdate(completed, len(subjects), res.DisplayName, res.Error))
		} else {
			result.SuccessfulExports++
			sendProgress(prog, completedUpdate(completed, len(subjects), res.DisplayName, len(res.Files)))
		}
		result.Results = append(result.Results, res)
	}

	if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
		e.logger.Warn("bulk export stopped", "error", cause)
		return result, cause
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	slices.SortFunc(result.Results, func(a, b SubjectExportResult) int { return strings.Compare(a.SubjectID, b.SubjectID) })

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := writeManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	e.logger.Info("bulk export complete", "ok", result.SuccessfulExports, "failed", result.FailedExports)
	return result, nil
}

// fetch loads the profile and history of one user. A missing profile falls back to the bare id.
func (e *Exporter) fetch(ctx context.Context, id string) (*formatter.HistoryExport, error) {
	profile := models.Profile{SubjectID: id, DisplayName: id}
	if res := e.fetcher.ProfileByID(ctx, id); res.OK() {
		profile = res.Value
	} else if res.Err.Redirect() {
		return nil, res.Err
	} else {
		e.logger.Debug("profile unavailable", "subject", id, "error", res.Err)
	}

	res := e.fetcher.History(ctx, id)
	if !res.OK() {
		return nil, res.Err
	}

	return &formatter.HistoryExport{Profile: profile, Tracks: res.Value}, nil
}

// exportWorker exports histories from the jobs channel until it closes.
func (e *Exporter) exportWorker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan exportJob, results chan<- SubjectExportResult, opts BulkExportOpts) {
	defer wg.Done()

	for job := range jobs {
		if ctx.Err() != nil {
			return
		}
		results <- e.exportSingle(ctx, job, opts)
	}
}

// exportSingle fetches the scores of one user and writes their files. Score failures leave the score unavailable.
func (e *Exporter) exportSingle(ctx context.Context, j exportJob, opts BulkExportOpts) SubjectExportResult {
	export := j.export
	id := export.Profile.SubjectID

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if res := e.fetcher.DiversityScore(gctx, id); res.OK() {
			export.Diversity = res.Value
		}
		return nil
	})
	g.Go(func() error {
		if res := e.fetcher.TasteScore(gctx, id); res.OK() {
			export.Taste = res.Value
		}
		return nil
	})
	_ = g.Wait()

	result := SubjectExportResult{
		SubjectID:   id,
		DisplayName: export.Profile.DisplayName,
		Tracks:      len(export.Tracks),
		Files:       []string{},
	}

	base := filepath.Join(opts.OutputDir, id)
	switch strings.ToLower(opts.Format) {
	case formatter.FormatCSV:
		csvRes, err := formatter.WriteCSVExport(export, base)
		if err != nil {
			result.Error = fmt.Errorf("CSV export failed: %w", err)
			return result
		}
		result.Files = []string{csvRes.TracksFile, csvRes.ProfileFile}
	case formatter.FormatMarkdown, "md":
		mdRes, err := formatter.WriteMarkdownExport(ctx, export, base)
		if err != nil {
			result.Error = fmt.Errorf("markdown export failed: %w", err)
			return result
		}
		result.Files = mdRes.Files
	case formatter.FormatText, "txt":
		path, err := formatter.WriteTextExport(export, base+"_history.txt")
		if err != nil {
			result.Error = fmt.Errorf("text export failed: %w", err)
			return result
		}
		result.Files = []string{path}
	default:
		data, err := formatter.ExportToJSON(export)
		if err != nil {
			result.Error = fmt.Errorf("JSON marshal failed: %w", err)
			return result
		}
		path := base + ".json"
		if err := os.WriteFile(path, data, 0644); err != nil {
			result.Error = fmt.Errorf("JSON write failed: %w", err)
			return result
		}
		result.Files = []string{path}
	}

	result.Success = true
	return result
}

func writeManifest(result *BulkExportResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
