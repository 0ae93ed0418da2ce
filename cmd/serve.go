package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/scorify/internal/server"
	"github.com/desertthunder/scorify/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the development score service until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}
	path := cmd.String("database")
	if path == "" {
		path = r.config.Server.Database
	}

	r.logger.Info("opening database", "path", path)
	db, err := shared.OpenMigrated(path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if cmd.Bool("reset") {
		if err := shared.Reset(ctx, db); err != nil {
			return fmt.Errorf("failed to reset database: %w", err)
		}
		r.logger.Warn("database reset", "path", path)
	}

	if cmd.Bool("seed") {
		if err := server.Seed(ctx, db, time.Now().UTC()); err != nil {
			return fmt.Errorf("failed to seed database: %w", err)
		}
		r.logger.Info("database seeded")
	}

	backend := server.NewBackend(db, server.Options{
		TokenTTL: r.config.Server.TokenTTL,
		Logger:   r.logger,
	})
	handler := server.NewHandler(backend, r.config.Server.AllowedOrigins, r.logger)

	r.writePlain("Serving on http://%s (login at /login)\n", addr)
	return server.NewServer(addr, handler, r.logger).Run(ctx)
}
