// Package store persists Samples, Events, and Model Records in an
// embedded SQLite database opened in WAL mode, grounded on the
// sql.Open("sqlite", ...) + PRAGMA journal_mode=WAL idiom found in the
// retrieval pack's vstats agent store (no cgo; pure-Go driver, so the
// agent cross-compiles the way the teacher's own binaries do).
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/rs/zerolog/log"

	"github.com/oashraff/sysmon-ai/internal/sysmonerr"
)

// Store wraps a WAL-mode SQLite connection. All public methods are safe
// for concurrent use; SQLite serializes writers internally, and the
// mutex here only protects the maintenance/checkpoint operations from
// racing the retention task.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Options configures the pragmas applied at Open (spec §4.D).
type Options struct {
	// CacheSizeKiB sets SQLite's page cache in KiB (negative cache_size
	// pragma unit). Spec default is 64MiB (-65536).
	CacheSizeKiB int
	// BusyTimeoutMS bounds how long a writer waits on a lock before
	// returning SQLITE_BUSY, surfaced here as sysmonerr.ErrStoreBusy.
	BusyTimeoutMS int
}

// DefaultOptions matches spec §4.D's defaults.
func DefaultOptions() Options {
	return Options{CacheSizeKiB: 65536, BusyTimeoutMS: 5000}
}

// Open creates or attaches to the database file at path, applies the
// agent's WAL pragma set, and ensures the schema exists.
func Open(ctx context.Context, path string, opts Options) (*Store, error) {
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)", path, opts.BusyTimeoutMS)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// modernc.org/sqlite serializes access per connection; a single
	// connection avoids SQLITE_BUSY storms between goroutines sharing
	// one *sql.DB, at the cost of losing read/write concurrency we
	// don't need for a single-host sampler.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		fmt.Sprintf("PRAGMA cache_size=-%d", opts.CacheSizeKiB),
		"PRAGMA wal_autocheckpoint=1000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: apply pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	log.Info().Str("path", path).Msg("store: opened")
	return s, nil
}

// Close closes the underlying connection, checkpointing the WAL first
// so the main database file reflects all committed writes.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		log.Warn().Err(err).Msg("store: checkpoint on close failed")
	}
	return s.db.Close()
}

// classifyErr maps a driver error to a sysmonerr sentinel: lock/busy
// conditions are transient and retryable, everything else is fatal.
func classifyErr(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	for _, substr := range []string{"database is locked", "busy", "SQLITE_BUSY"} {
		if contains(msg, substr) {
			return fmt.Errorf("%w: %v", sysmonerr.ErrStoreBusy, err)
		}
	}
	return fmt.Errorf("%w: %v", sysmonerr.ErrStoreFatal, err)
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

// withTx runs fn inside a transaction, committing on success and rolling
// back and classifying the error on failure.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classifyErr(err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return classifyErr(err)
	}
	if err := tx.Commit(); err != nil {
		return classifyErr(err)
	}
	return nil
}
