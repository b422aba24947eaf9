package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateRequests(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if c.TMDB.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/reelgate/config.toml"
		}
		return fmt.Errorf("tmdb.api_key is required. Set TMDB_API_KEY env var or edit %s (create with 'reelgate config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.Threshold < 0 || c.Matching.Threshold > 100 {
		return errors.New("matching.threshold must be between 0 and 100")
	}
	if c.Matching.CandidateLimit <= 0 {
		return errors.New("matching.candidate_limit must be positive")
	}
	if c.Matching.PendingScanLimit <= 0 {
		return errors.New("matching.pending_scan_limit must be positive")
	}
	return nil
}

func (c *Config) validateRequests() error {
	if c.Requests.MaxPending <= 0 {
		return errors.New("requests.max_pending must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}
