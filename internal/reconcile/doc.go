// Package reconcile closes the loop between file announcements and pending
// requests.
//
// An announcement carrying an explicit TMDB tag is authoritative: every
// pending request for that id completes, and fuzzy scoring never runs.
// Untagged announcements fall back to a lighter heuristic, a token-set
// comparison against a bounded scan of pending requests gated by a hard
// release-year window. One announcement may complete several requests;
// each transition stands on its own, and notification failures never roll
// a transition back.
package reconcile
