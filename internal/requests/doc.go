// Package requests persists the movie request lifecycle in SQLite.
//
// Each request belongs to one requester and moves from pending to exactly
// one terminal status, completed or rejected. The store enforces the
// per-requester pending quota at admission time and keeps a best-effort
// activity log for operator forensics.
package requests
