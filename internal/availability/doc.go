// Package availability answers the single user-facing question: is this
// movie already in the catalog? It resolves the movie through TMDB, pulls
// bounded candidates from the catalog, and scores them with the match
// engine. Collaborator failures degrade to a negative answer instead of
// surfacing to the caller.
package availability
