package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeTMDB(); err != nil {
		return err
	}
	c.normalizeMatching()
	c.normalizeRequests()
	if err := c.normalizeIngest(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.CatalogDB, err = expandPath(c.Paths.CatalogDB); err != nil {
		return fmt.Errorf("paths.catalog_db: %w", err)
	}
	if c.Paths.CatalogDB == "" {
		c.Paths.CatalogDB = filepath.Join(c.Paths.DataDir, "catalog.db")
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeTMDB() error {
	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = value
		}
	}
	c.TMDB.BaseURL = strings.TrimSpace(c.TMDB.BaseURL)
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
	if c.TMDB.Language == "" {
		c.TMDB.Language = defaultTMDBLanguage
	}
	if c.TMDB.ResultsPerPage <= 0 {
		c.TMDB.ResultsPerPage = defaultResultsPerPage
	}
	return nil
}

func (c *Config) normalizeMatching() {
	if c.Matching.Threshold == 0 {
		c.Matching.Threshold = defaultMatchThreshold
	}
	if c.Matching.YearTolerance <= 0 {
		c.Matching.YearTolerance = defaultYearTolerance
	}
	if c.Matching.CandidateLimit <= 0 {
		c.Matching.CandidateLimit = defaultCandidateLimit
	}
	if c.Matching.PendingScanLimit <= 0 {
		c.Matching.PendingScanLimit = defaultPendingScanLimit
	}
}

func (c *Config) normalizeRequests() {
	if c.Requests.MaxPending <= 0 {
		c.Requests.MaxPending = defaultMaxPending
	}
}

func (c *Config) normalizeIngest() error {
	var err error
	if c.Ingest.WatchDir, err = expandPath(c.Ingest.WatchDir); err != nil {
		return fmt.Errorf("ingest.watch_dir: %w", err)
	}
	if c.Ingest.HandleTimeout <= 0 {
		c.Ingest.HandleTimeout = defaultHandleTimeout
	}
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.UserTopic = strings.TrimSpace(c.Notifications.UserTopic)
	c.Notifications.OperatorTopic = strings.TrimSpace(c.Notifications.OperatorTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
