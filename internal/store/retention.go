package store

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Prune deletes samples and events older than the caller-supplied
// retention windows (the run command passes storage.retention_days,
// default 30, for both) and
// checkpoints the WAL so disk usage doesn't grow unbounded between
// checkpoints. Called periodically by the maintenance loop, never
// concurrently with itself.
func (s *Store) Prune(ctx context.Context, sampleRetention, eventRetention time.Duration, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sampleCutoff := now.Add(-sampleRetention).Unix()
	eventCutoff := now.Add(-eventRetention).Unix()

	res, err := s.db.ExecContext(ctx, `DELETE FROM samples WHERE ts < ?`, sampleCutoff)
	if err != nil {
		return fmt.Errorf("store: prune samples: %w", classifyErr(err))
	}
	sampleRows, _ := res.RowsAffected()

	res, err = s.db.ExecContext(ctx, `DELETE FROM events WHERE ts < ?`, eventCutoff)
	if err != nil {
		return fmt.Errorf("store: prune events: %w", classifyErr(err))
	}
	eventRows, _ := res.RowsAffected()

	if _, err := s.db.ExecContext(ctx, `PRAGMA wal_checkpoint(PASSIVE)`); err != nil {
		log.Warn().Err(err).Msg("store: passive wal checkpoint failed")
	}

	log.Info().Int64("samples_pruned", sampleRows).Int64("events_pruned", eventRows).Msg("store: retention pass complete")
	return nil
}
