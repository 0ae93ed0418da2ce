package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/scorify/internal/services"
	"github.com/desertthunder/scorify/internal/shared"
	"github.com/desertthunder/scorify/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Export writes the history of the given users, or of everyone on the leaderboard with --all.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	subjects := cmd.Args().Slice()

	if cmd.Bool("all") {
		entries, err := r.leaderboard(ctx, cmd)
		if err != nil {
			return err
		}
		for _, e := range entries {
			subjects = append(subjects, e.Profile.SubjectID)
		}
	}

	if len(subjects) == 0 {
		return fmt.Errorf("%w: pass user IDs or --all", shared.ErrMissingArgument)
	}

	fetcher, err := r.client()
	if err != nil {
		return err
	}

	r.logger.Info("starting export", "users", len(subjects), "format", cmd.String("format"))
	r.writePlain("Exporting %d users...\n\n", len(subjects))

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			if update.Phase == tasks.ExportHistory {
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()

	result, err := tasks.NewExporter(fetcher, r.logger).BulkExport(ctx, progressCh, subjects, tasks.BulkExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output-dir"),
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  cmd.Float("rate"),
	})
	close(progressCh)
	<-done

	if err != nil {
		return r.redirect(cmd, navigationOf(err), err)
	}

	r.writePlain("\n")
	r.writePlainHeader("Export Complete!")
	r.writePlain("Directory: %s\n", result.OutputDirectory)
	r.writePlain("Exported:  %d/%d\n", result.SuccessfulExports, result.TotalSubjects)
	r.writePlain("Manifest:  %s\n", result.ManifestPath)

	if result.FailedExports > 0 {
		r.writePlain("\nFailed to export %d users:\n", result.FailedExports)
		for _, res := range result.Results {
			if !res.Success {
				r.writePlain("  - %s: %s\n", res.SubjectID, res.Message)
			}
		}
	}
	return nil
}

func navigationOf(err error) services.Navigation {
	var terr *services.TransportError
	if errors.As(err, &terr) {
		return terr.Navigation
	}
	return services.Navigation{}
}
