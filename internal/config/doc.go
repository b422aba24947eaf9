// Package config loads, validates, and defaults reelgate configuration.
//
// Configuration lives in a TOML file (default ~/.config/reelgate/config.toml)
// with sections per subsystem: paths, tmdb, matching, requests, ingest,
// notifications, and logging. Load applies defaults, expands ~ paths, pulls
// the TMDB key from the environment when unset, and validates the result.
// A missing TMDB API key is a startup-fatal configuration error.
package config
