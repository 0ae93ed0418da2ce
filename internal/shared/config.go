package shared

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Backend   BackendConfig   `toml:"backend"`
	Dashboard DashboardConfig `toml:"dashboard"`
	Layout    LayoutConfig    `toml:"layout"`
	Server    ServerConfig    `toml:"server"`
}

// BackendConfig describes how the client reaches the score service.
type BackendConfig struct {
	BaseURL           string        `toml:"base_url"`
	LoginPath         string        `toml:"login_path"`
	Timeout           time.Duration `toml:"timeout"`
	RequestsPerSecond float64       `toml:"requests_per_second"`
	SessionCookie     string        `toml:"session_cookie"`
	CurlPath          string        `toml:"curl_path"`
}

// LoginURL joins the base URL and login path.
func (b BackendConfig) LoginURL() string {
	return b.BaseURL + b.LoginPath
}

// DashboardConfig contains orchestration settings.
type DashboardConfig struct {
	LoadDelay time.Duration `toml:"load_delay"`
	Subject   string        `toml:"subject"`
}

// LayoutConfig holds the terminal geometry constants used for pagination.
type LayoutConfig struct {
	ReservedHeight int `toml:"reserved_height"`
	ItemHeight     int `toml:"item_height"`
	BaseWidth      int `toml:"base_width"`
	ButtonWidth    int `toml:"button_width"`
}

// ServerConfig contains stub backend settings.
type ServerConfig struct {
	Host           string        `toml:"host"`
	Port           int           `toml:"port"`
	Database       string        `toml:"database"`
	TokenTTL       time.Duration `toml:"token_ttl"`
	AllowedOrigins []string      `toml:"allowed_origins"`
}

// Addr returns the host:port pair the stub backend listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Validate reports the first invalid value as an [ErrInvalidConfig].
func (c *Config) Validate() error {
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: backend.base_url %q is not an absolute URL", ErrInvalidConfig, c.Backend.BaseURL)
	}

	switch {
	case c.Backend.Timeout < 0:
		return fmt.Errorf("%w: backend.timeout must not be negative", ErrInvalidConfig)
	case c.Backend.RequestsPerSecond < 0:
		return fmt.Errorf("%w: backend.requests_per_second must not be negative", ErrInvalidConfig)
	case c.Dashboard.LoadDelay < 0:
		return fmt.Errorf("%w: dashboard.load_delay must not be negative", ErrInvalidConfig)
	case c.Layout.ItemHeight <= 0:
		return fmt.Errorf("%w: layout.item_height must be positive", ErrInvalidConfig)
	case c.Layout.ButtonWidth <= 0:
		return fmt.Errorf("%w: layout.button_width must be positive", ErrInvalidConfig)
	case c.Layout.ReservedHeight < 0 || c.Layout.BaseWidth < 0:
		return fmt.Errorf("%w: layout values must not be negative", ErrInvalidConfig)
	case c.Server.TokenTTL < 0:
		return fmt.Errorf("%w: server.token_ttl must not be negative", ErrInvalidConfig)
	case c.Server.Port <= 0 || c.Server.Port > 65535:
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}

	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
