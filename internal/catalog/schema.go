package catalog

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		// New database, or one written before versioning: tables are created
		// with IF NOT EXISTS so legacy rows are kept.
		return s.WithTx(ctx, func(tx *Tx) error {
			return createSchema(ctx, tx.q)
		})
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (run 'mgdl catalog reset' or delete the database)",
			ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

func createSchema(ctx context.Context, q querier) error {
	if _, err := q.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := q.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return nil
}

// catalogTables lists every table in drop order (children first).
var catalogTables = []string{"chapters", "mangas", "schema_version"}

// Reset drops every catalog table and recreates an empty schema in one
// transaction, so a failed reset leaves the catalog as it was.
func (s *Store) Reset(ctx context.Context) error {
	return s.WithTx(ctx, func(tx *Tx) error {
		for _, table := range catalogTables {
			if _, err := tx.q.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
				return fmt.Errorf("drop %s: %w", table, err)
			}
		}
		return createSchema(ctx, tx.q)
	})
}
