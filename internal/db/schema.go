// Package db provides database schema management for ClubTrack Core.
package db

import (
	"database/sql"
	"fmt"
)

// schemaVersion is the current schema version, recorded in PRAGMA user_version.
const schemaVersion = 1

// schemaStatements holds the DDL for the current schema version.
// The operation_queue table is the durable operation queue: one row per
// pending mutation, keyed by id, ordered by created_at.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS operation_queue (
		id TEXT PRIMARY KEY CHECK(length(id) = 36),
		op_type TEXT NOT NULL CHECK(op_type IN ('create', 'update', 'delete')),
		resource TEXT NOT NULL CHECK(length(resource) > 0),
		data BLOB NOT NULL,
		created_at INTEGER NOT NULL CHECK(created_at > 0),
		retry_count INTEGER NOT NULL DEFAULT 0 CHECK(retry_count >= 0)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_operation_queue_created_at
		ON operation_queue (created_at);`,
}

// InitSchema creates or upgrades the schema to the current version.
func InitSchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if version >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range schemaStatements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}

	// PRAGMA does not accept bind parameters
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("failed to set schema version: %w", err)
	}

	return tx.Commit()
}
