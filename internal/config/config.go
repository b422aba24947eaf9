package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir   string `toml:"data_dir"`
	CatalogDB string `toml:"catalog_db"`
	APIBind   string `toml:"api_bind"`
	APIToken  string `toml:"api_token"`
}

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Language       string `toml:"language"`
	ResultsPerPage int    `toml:"results_per_page"`
}

// Matching contains thresholds for the availability and reconciliation scoring.
type Matching struct {
	// Threshold is the combined score (0-100) at or above which a catalog
	// candidate counts as the requested movie.
	Threshold float64 `toml:"threshold"`
	// YearTolerance is the maximum release-year difference treated as the
	// same movie. Beyond it the availability score is halved and fallback
	// reconciliation rejects the pairing.
	YearTolerance int `toml:"year_tolerance"`
	// CandidateLimit bounds the catalog lookup per availability check.
	CandidateLimit int `toml:"candidate_limit"`
	// PendingScanLimit bounds the pending-request scan on the fallback
	// reconciliation path.
	PendingScanLimit int `toml:"pending_scan_limit"`
}

// Requests contains request lifecycle settings.
type Requests struct {
	// MaxPending is the per-requester pending request quota.
	MaxPending int `toml:"max_pending"`
}

// Ingest contains configuration for catalog announcement intake.
type Ingest struct {
	// WatchDir, when set, is monitored for newly created files whose names
	// are fed to the reconciler as announcements.
	WatchDir string `toml:"watch_dir"`
	// HandleTimeout bounds each announcement's processing, in seconds.
	HandleTimeout int `toml:"handle_timeout"`
}

// Notifications contains ntfy push notification settings.
type Notifications struct {
	// UserTopic is the ntfy topic URL for requester-facing messages.
	UserTopic string `toml:"user_topic"`
	// OperatorTopic is the ntfy topic URL for operator alerts.
	OperatorTopic  string `toml:"operator_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for reelgate.
type Config struct {
	Paths         Paths         `toml:"paths"`
	TMDB          TMDB          `toml:"tmdb"`
	Matching      Matching      `toml:"matching"`
	Requests      Requests      `toml:"requests"`
	Ingest        Ingest        `toml:"ingest"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/reelgate/config.toml")
}

// Load locates, parses, and validates a configuration file. A missing file is
// not an error: defaults apply. The returned bool reports whether a file was
// actually read.
func Load(path string) (*Config, bool, error) {
	cfg := Default()

	resolved := strings.TrimSpace(path)
	var err error
	if resolved == "" {
		resolved, err = DefaultConfigPath()
		if err != nil {
			return nil, false, err
		}
	} else if resolved, err = expandPath(resolved); err != nil {
		return nil, false, err
	}

	loaded := false
	data, err := os.ReadFile(resolved)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, false, fmt.Errorf("parse config %s: %w", resolved, err)
		}
		loaded = true
	case errors.Is(err, fs.ErrNotExist):
		// fall through to defaults
	default:
		return nil, false, fmt.Errorf("read config %s: %w", resolved, err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, loaded, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, loaded, err
	}
	return &cfg, loaded, nil
}

// EnsureDirectories creates the directories the process writes to.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DataDir}
	if c.Ingest.WatchDir != "" {
		dirs = append(dirs, c.Ingest.WatchDir)
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// RequestsDBPath returns the path of the request store database.
func (c *Config) RequestsDBPath() string {
	return filepath.Join(c.Paths.DataDir, "requests.db")
}

// WriteSample writes the embedded sample configuration to the target path.
// It refuses to overwrite an existing file.
func WriteSample(path string) error {
	resolved, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(resolved); err == nil {
		return fmt.Errorf("config file already exists at %s", resolved)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(resolved, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// ExpandPath resolves a leading ~ and returns an absolute path. Empty input
// stays empty.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path %q: %w", path, err)
	}
	return abs, nil
}
