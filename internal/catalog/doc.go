// Package catalog persists manga and chapter identity in SQLite.
//
// The Store owns the database connection, schema initialization, and the
// conflict-aware upserts that keep exactly one manga per (name, authors) and
// exactly one chapter per (number, manga). Identifiers are assigned on first
// insert and never change afterwards; re-upserting refreshes only the
// provider-derived columns.
//
// Multi-statement writes run inside a single transaction obtained from
// Store.WithTx so a manga and its chapter list commit together. Lookups that
// match no row return an error wrapping services.ErrNotFound.
//
// The table layout matches catalogs written by earlier mgdl releases, so an
// existing mgdl.db is adopted in place.
package catalog
