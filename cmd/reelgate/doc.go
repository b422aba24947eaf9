// Package main hosts the reelgate CLI entrypoint and command graph.
//
// The Cobra-based command tree covers the daemon process (serve), TMDB
// lookups (search, check), request lifecycle maintenance (requests
// list/cancel), manual announcement ingestion, notification checks, and
// configuration scaffolding. It centralizes configuration resolution and
// store access so subcommands can focus on user experience instead of
// wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
