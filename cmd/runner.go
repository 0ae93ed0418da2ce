package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/scorify/internal/dashboard"
	"github.com/desertthunder/scorify/internal/pagination"
	"github.com/desertthunder/scorify/internal/services"
	"github.com/desertthunder/scorify/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	fetcher    dashboard.Fetcher
	openURL    func(string) error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Fetcher    dashboard.Fetcher // built from Config on first use when nil
	OpenURL    func(string) error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.OpenURL == nil {
		opts.OpenURL = shared.OpenBrowser
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		fetcher:    opts.Fetcher,
		openURL:    opts.OpenURL,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, loginCommand, dashboardCommand, profileCommand, historyCommand, fetchNowCommand,
		scoresCommand, songOfTheDayCommand, leaderboardCommand, exportCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by the runner and everything it builds afterwards.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// client returns the fetcher backing every read command.
//
// The transport is built lazily so commands that never reach the backend (setup, serve) do not need a session.
func (r *Runner) client() (dashboard.Fetcher, error) {
	if r.fetcher != nil {
		return r.fetcher, nil
	}

	cookies, err := shared.ResolveSessionCookies(r.config.Backend)
	if err != nil {
		return nil, fmt.Errorf("%w: run 'scorify login' and set backend.session_cookie", err)
	}

	transport, err := services.NewTransport(services.TransportOptions{
		BaseURL:           r.config.Backend.BaseURL,
		LoginURL:          r.config.Backend.LoginURL(),
		Timeout:           r.config.Backend.Timeout,
		RequestsPerSecond: r.config.Backend.RequestsPerSecond,
		Cookies:           cookies,
		HTTPClient:        r.httpClient,
		Logger:            r.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}

	r.fetcher = services.NewClient(transport, r.logger)
	return r.fetcher, nil
}

// orchestrator builds a dashboard from opts, filling the subject, login URL and layout from the config.
func (r *Runner) orchestrator(opts dashboard.Options) (*dashboard.Orchestrator, error) {
	fetcher, err := r.client()
	if err != nil {
		return nil, err
	}

	if opts.Subject == "" {
		opts.Subject = r.config.Dashboard.Subject
	}
	opts.LoginURL = r.config.Backend.LoginURL()
	opts.Layout = pagination.LayoutFromConfig(r.config.Layout)
	opts.Logger = r.logger

	return dashboard.New(fetcher, opts), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
