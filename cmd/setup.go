package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/scorify/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes a config file from the embedded template when none exists, then initializes the stub backend
// database and runs migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	config := r.config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		r.logger.Info("config file created", "path", configPath)
		if config, err = shared.LoadConfig(configPath); err != nil {
			return fmt.Errorf("failed to load created config: %w", err)
		}
	}
	r.config = config

	r.logger.Info("initializing database", "path", config.Server.Database)

	db, err := shared.OpenMigrated(config.Server.Database)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}
	defer db.Close()

	r.logger.Infof("setup complete for database: %v", config.Server.Database)

	r.writePlain("✓ Config: %s\n", configPath)
	r.writePlain("✓ Database: %s\n", config.Server.Database)
	r.writePlainln("Next steps:")
	r.writePlain("1. Run 'scorify serve --seed' to start the development backend\n")
	r.writePlain("2. Run 'scorify login --dev' and copy the session cookie into backend.session_cookie\n")
	r.writePlain("3. Run 'scorify dashboard'\n")

	return nil
}
