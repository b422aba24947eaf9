// Package daemon hosts the long-running reelgate process: the single
// instance lock, the token-authenticated HTTP API, and the watch-directory
// ingestion source that turns new files into announcements.
package daemon
