// Package notifications delivers request lifecycle events over ntfy.
//
// Two topics are configurable: a user topic for requester-facing lifecycle
// updates and an operator topic for new-request alerts and errors. Either
// may be left empty; an unconfigured topic silently drops its messages, and
// with both empty the service is a full noop. Callers treat delivery as
// best-effort and never roll back state on notification failure.
package notifications
