// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/desertthunder/scorify/internal/formatter"
	"github.com/urfave/cli/v3"
)

func subjectFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "subject",
		Aliases: []string{"s"},
		Usage:   "User ID to view (default: dashboard.subject, then the logged-in user)",
	}
}

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
	}
}

func openFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "open",
		Usage: "Open the login page in a browser when the session cannot be recovered",
	}
}

// setupCommand creates the config file and the stub backend database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml and initialize the stub backend database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   defaultConfigPath,
			},
		},
		Action: r.Setup,
	}
}

// loginCommand opens the backend login page or performs a development login against the stub backend.
func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Open the backend login page",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "dev",
				Usage: "Log in against the stub backend and print the session cookie",
			},
			&cli.StringFlag{
				Name:  "user",
				Usage: "User ID for --dev (default: first user)",
			},
			&cli.StringFlag{
				Name:  "curl-file",
				Usage: "Check a cURL command copied from the browser for a session cookie",
			},
		},
		Action: r.Login,
	}
}

// dashboardCommand launches the interactive dashboard.
func dashboardCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "dashboard",
		Aliases: []string{"ui", "tui"},
		Usage:   "Launch the interactive dashboard",
		Flags: []cli.Flag{
			subjectFlag(),
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the dashboard is running",
				Value: "./tmp/scorify-tui.log",
			},
		},
		Action: r.TUI,
	}
}

func profileCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "profile",
		Usage:  "Show a user profile",
		Flags:  append([]cli.Flag{subjectFlag(), openFlag()}, jsonFlags()...),
		Action: r.Profile,
	}
}

// historyCommand prints or exports listening history.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show or export listening history",
		Flags: []cli.Flag{
			subjectFlag(),
			openFlag(),
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: " + strings.Join(formatter.Formats, ", "),
				Value:   formatter.FormatText,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the export to a file (csv: base name, markdown: directory)",
			},
			&cli.IntFlag{
				Name:  "page",
				Usage: "Print a single page of the history (0 prints everything)",
			},
			&cli.IntFlag{
				Name:  "height",
				Usage: "Terminal rows used to size --page",
				Value: 40,
			},
			&cli.IntFlag{
				Name:  "width",
				Usage: "Terminal columns used to size --page",
				Value: 120,
			},
		},
		Action: r.History,
	}
}

func fetchNowCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "fetch-now",
		Usage:  "Pull recent plays from the streaming provider and merge them into the history",
		Flags:  []cli.Flag{subjectFlag(), openFlag()},
		Action: r.FetchNow,
	}
}

func scoresCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "scores",
		Usage:  "Show diversity and taste scores",
		Flags:  append([]cli.Flag{subjectFlag(), openFlag()}, jsonFlags()...),
		Action: r.Scores,
	}
}

func songOfTheDayCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "song-of-the-day",
		Aliases: []string{"sotd"},
		Usage:   "Show the featured song of the day",
		Flags:   append([]cli.Flag{openFlag()}, jsonFlags()...),
		Action:  r.SongOfTheDay,
	}
}

func leaderboardCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "leaderboard",
		Aliases: []string{"lb"},
		Usage:   "Show the taste leaderboard",
		Flags: append([]cli.Flag{
			openFlag(),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of entries to show (0 shows all)",
			},
		}, jsonFlags()...),
		Action: r.Leaderboard,
	}
}

// exportCommand exports the history of several users at once.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Export the listening history of several users",
		ArgsUsage: "[user-id...]",
		Flags: []cli.Flag{
			openFlag(),
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Export everyone on the leaderboard",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: " + strings.Join(formatter.Formats, ", "),
				Value:   formatter.FormatJSON,
			},
			&cli.StringFlag{
				Name:    "output-dir",
				Aliases: []string{"o"},
				Usage:   "Output directory (default: scorify_export_{epoch})",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent workers",
				Value: 5,
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "History requests per second",
				Value: 5,
			},
		},
		Action: r.Export,
	}
}

// serveCommand runs the stub backend.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the development score service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (default: server.host:server.port)",
			},
			&cli.StringFlag{
				Name:  "database",
				Usage: "sqlite database path (default: server.database)",
			},
			&cli.BoolFlag{
				Name:  "seed",
				Usage: "Insert demo users when the database is empty",
			},
			&cli.BoolFlag{
				Name:  "reset",
				Usage: "Drop and recreate every table before serving (combine with --seed for fresh demo data)",
			},
		},
		Action: r.Serve,
	}
}
