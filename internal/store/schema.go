package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// SchemaVersion is the version a fresh or migrated database ends at.
const SchemaVersion = 2

// baseSchema creates version 1: runs with their layout and clock as JSON,
// and one row per recorder trace.
const baseSchema = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    source TEXT,
    nodes INTEGER NOT NULL,
    section_count INTEGER NOT NULL,
    resolution REAL NOT NULL,
    ra REAL NOT NULL,
    cm REAL NOT NULL,
    duration REAL NOT NULL,
    v_init REAL NOT NULL,
    dt REAL,
    sections TEXT NOT NULL,     -- JSON array of section geometry
    time_trace TEXT NOT NULL,   -- JSON array [ms]
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);

CREATE TABLE IF NOT EXISTS traces (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    key TEXT NOT NULL,
    node_id INTEGER NOT NULL,
    label TEXT,
    variable TEXT NOT NULL,
    section INTEGER NOT NULL,
    pos REAL NOT NULL,
    samples TEXT NOT NULL,      -- JSON array
    PRIMARY KEY (run_id, seq)
);
CREATE INDEX IF NOT EXISTS idx_traces_node ON traces(run_id, node_id);
`

// migrations upgrade a database from version-1 to version. They run in
// order, each in its own transaction.
var migrations = []struct {
	version int
	stmt    string
}{
	// model_id links a run to the journal events of the model that produced it.
	{2, `ALTER TABLE runs ADD COLUMN model_id TEXT;
CREATE INDEX IF NOT EXISTS idx_runs_model ON runs(model_id);`},
}

// InitSchema brings db to SchemaVersion. A database without a
// schema_version table is created from scratch; an existing one is
// checked for integrity and migrated forward. Newer databases are refused.
func InitSchema(ctx context.Context, db *sql.DB) error {
	current, err := getSchemaVersion(ctx, db)
	if err != nil {
		if err := applyStep(ctx, db, 1, baseSchema); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
		current = 1
	} else if err := ValidateIntegrity(ctx, db); err != nil {
		return fmt.Errorf("database integrity check failed: %w", err)
	}

	if current > SchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", current, SchemaVersion)
	}
	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := applyStep(ctx, db, m.version, m.stmt); err != nil {
			return fmt.Errorf("failed to migrate schema to version %d: %w", m.version, err)
		}
	}
	return nil
}

// getSchemaVersion returns the highest applied version. It fails when the
// schema_version table does not exist.
func getSchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version sql.NullInt64
	if err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_version`).Scan(&version); err != nil {
		return 0, err
	}
	if !version.Valid {
		return 0, errors.New("schema_version is empty")
	}
	return int(version.Int64), nil
}

// applyStep runs stmt and records version in one transaction.
func applyStep(ctx context.Context, db *sql.DB, version int, stmt string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_version (version, applied_at) VALUES (?, datetime('now'))`, version); err != nil {
		return fmt.Errorf("failed to record schema version %d: %w", version, err)
	}
	return tx.Commit()
}

// ValidateIntegrity fails when SQLite reports page corruption or dangling
// trace rows.
func ValidateIntegrity(ctx context.Context, db *sql.DB) error {
	var problems []string

	rows, err := db.QueryContext(ctx, `PRAGMA integrity_check`)
	if err != nil {
		return fmt.Errorf("failed to run integrity_check: %w", err)
	}
	for rows.Next() {
		var result string
		if err := rows.Scan(&result); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan integrity_check result: %w", err)
		}
		if result != "ok" {
			problems = append(problems, result)
		}
	}
	rows.Close()

	var orphans int
	if err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM traces t
		WHERE NOT EXISTS (SELECT 1 FROM runs r WHERE r.id = t.run_id)`).Scan(&orphans); err != nil {
		return fmt.Errorf("failed to check traces: %w", err)
	}
	if orphans > 0 {
		problems = append(problems, fmt.Sprintf("%d traces without a run", orphans))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}

// ResetSchema drops every table and recreates the schema. Tests only.
func ResetSchema(ctx context.Context, db *sql.DB) error {
	for _, table := range []string{"traces", "runs", "schema_version"} {
		if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return InitSchema(ctx, db)
}
