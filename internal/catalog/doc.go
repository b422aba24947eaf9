// Package catalog provides read access to the legacy movie catalog, a
// SQLite table of raw and cleaned filenames accumulated over years of
// uploads. The catalog is treated as an append-mostly collaborator: the
// daemon only ever queries it for match candidates and never rewrites
// existing rows.
package catalog
