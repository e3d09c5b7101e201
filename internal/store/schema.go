// Package store records simulation episodes in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SchemaVersion is the current schema version.
const SchemaVersion = 1

const schemaV1 = `
CREATE TABLE IF NOT EXISTS episodes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    scenario TEXT NOT NULL,
    reward_function TEXT NOT NULL,
    controller TEXT NOT NULL,
    seed INTEGER NOT NULL,
    trial_time REAL NOT NULL,
    dt REAL NOT NULL,
    started_at TEXT NOT NULL,

    -- filled in by FinishEpisode
    finished_at TEXT,
    steps INTEGER DEFAULT 0,
    total_reward REAL DEFAULT 0,
    sim_time REAL DEFAULT 0,
    total_wait REAL DEFAULT 0,
    average_wait REAL DEFAULT 0,
    cars_passed INTEGER DEFAULT 0,
    num_crashes INTEGER DEFAULT 0,
    spawned INTEGER DEFAULT 0,
    truncated INTEGER DEFAULT 0,
    terminated INTEGER DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_episodes_scenario ON episodes(scenario);

CREATE TABLE IF NOT EXISTS ticks (
    episode_id INTEGER NOT NULL REFERENCES episodes(id) ON DELETE CASCADE,
    step INTEGER NOT NULL,
    sim_time REAL NOT NULL,
    reward REAL NOT NULL,
    horiz_light TEXT NOT NULL,
    vert_light TEXT NOT NULL,
    cars_lr INTEGER NOT NULL,
    cars_rl INTEGER NOT NULL,
    cars_ud INTEGER NOT NULL,
    cars_du INTEGER NOT NULL,
    total_wait REAL NOT NULL,
    cars_passed INTEGER NOT NULL,
    num_crashes INTEGER NOT NULL,
    PRIMARY KEY (episode_id, step)
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);
`

// InitSchema creates the tables on a fresh database and rejects databases
// written by a newer schema.
func InitSchema(ctx context.Context, db *sql.DB) error {
	version, err := getSchemaVersion(ctx, db)
	if err != nil {
		if err := createSchema(ctx, db); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
		return nil
	}
	if version > SchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, SchemaVersion)
	}
	return nil
}

func getSchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version sql.NullInt64
	if err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_version`).Scan(&version); err != nil {
		return 0, err
	}
	if !version.Valid {
		return 0, fmt.Errorf("schema_version is empty")
	}
	return int(version.Int64), nil
}

func createSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO schema_version (version, applied_at) VALUES (?, ?)`,
		SchemaVersion, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return tx.Commit()
}
