// Package tmdb provides the TMDB API client used to resolve requested
// titles to canonical movie metadata.
package tmdb
