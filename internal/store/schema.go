package store

import (
	"context"
	"fmt"
)

// schemaVersion is bumped whenever a migration adds/changes a table. It
// is kept in a single schema_meta row that migrate overwrites; there is
// currently one revision.
const schemaVersion = 1

const createSchemaSQL = `
CREATE TABLE IF NOT EXISTS schema_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS samples (
	ts             INTEGER NOT NULL,
	host           TEXT NOT NULL,
	cpu_pct        REAL NOT NULL,
	mem_pct        REAL NOT NULL,
	disk_read_bps  REAL NOT NULL,
	disk_write_bps REAL NOT NULL,
	net_up_bps     REAL NOT NULL,
	net_down_bps   REAL NOT NULL,
	swap_pct       REAL NOT NULL,
	proc_count     INTEGER NOT NULL,
	cpu_temp       REAL,
	PRIMARY KEY (host, ts)
);
CREATE INDEX IF NOT EXISTS idx_samples_ts ON samples(ts);

CREATE TABLE IF NOT EXISTS events (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	ts           INTEGER NOT NULL,
	type         TEXT NOT NULL,
	score        REAL,
	metric_tags  TEXT NOT NULL DEFAULT '',
	explanation  TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts);
CREATE INDEX IF NOT EXISTS idx_events_type_ts ON events(type, ts);

CREATE TABLE IF NOT EXISTS models (
	name       TEXT PRIMARY KEY,
	algo       TEXT NOT NULL,
	version    TEXT NOT NULL,
	trained_at INTEGER NOT NULL,
	meta_json  TEXT NOT NULL DEFAULT '{}',
	blob       BLOB NOT NULL
);
`

// migrate creates the schema if absent and records the schema version.
// There is only one revision today; the schema_meta row exists so a
// future migration has somewhere to read the prior version from.
func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createSchemaSQL); err != nil {
		return fmt.Errorf("store: create schema: %w", err)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO schema_meta(key, value) VALUES ('version', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		fmt.Sprintf("%d", schemaVersion))
	if err != nil {
		return fmt.Errorf("store: record schema version: %w", err)
	}
	return nil
}
