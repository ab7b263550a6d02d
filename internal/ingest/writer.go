package ingest

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/oashraff/sysmon-ai/internal/model"
	"github.com/oashraff/sysmon-ai/internal/sysmonerr"
)

// BatchStore is the subset of the store the batch writer needs. Defined
// here (rather than imported from internal/store) so ingest has no
// dependency on the storage engine; internal/store satisfies it.
type BatchStore interface {
	InsertBatch(ctx context.Context, samples []model.Sample) error
}

const (
	maxWriterAttempts  = 5
	writerBackoffCap   = 500 * time.Millisecond
	writerBackoffBase  = 20 * time.Millisecond
	shutdownFlushGrace = 2 * time.Second
)

// Writer drains the Queue on a size/timeout trigger and commits each
// batch to the store in a single transaction, retrying transient
// failures with exponential backoff and jitter. Grounded on the
// teacher's internal/orchestrator fan-in/shutdown pattern, generalized
// from collector result aggregation to a persistence batch loop.
type Writer struct {
	queue       *Queue
	store       BatchStore
	batchSize   int
	flushEvery  time.Duration
}

// NewWriter builds a Writer that drains up to batchSize samples every
// flushEvery (or sooner, once batchSize samples have queued).
func NewWriter(queue *Queue, store BatchStore, batchSize int, flushEvery time.Duration) *Writer {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Writer{queue: queue, store: store, batchSize: batchSize, flushEvery: flushEvery}
}

// pollInterval bounds how long a full batch can sit in the queue before
// the writer notices it, independent of the flushEvery timeout trigger.
const pollInterval = 50 * time.Millisecond

// Run blocks, flushing batches until ctx is canceled, then performs one
// final bounded flush so samples queued at shutdown aren't lost. A batch
// flushes on whichever trigger comes first: the queue reaching
// batchSize, or the flushEvery ticker firing (the ticker runs on a
// fixed period and is not reset by size-triggered flushes).
func (w *Writer) Run(ctx context.Context) {
	flushTimer := time.NewTicker(w.flushEvery)
	defer flushTimer.Stop()
	pollTimer := time.NewTicker(pollInterval)
	defer pollTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.finalFlush()
			return
		case <-flushTimer.C:
			w.drainAndCommit(ctx)
		case <-pollTimer.C:
			if w.queue.Len() >= w.batchSize {
				w.drainAndCommit(ctx)
			}
		}
	}
}

func (w *Writer) finalFlush() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownFlushGrace)
	defer cancel()
	for w.queue.Len() > 0 {
		if !w.drainAndCommit(ctx) {
			return
		}
	}
}

// drainAndCommit drains one batch and commits it, retrying on
// sysmonerr.ErrStoreBusy. Returns false if the batch was abandoned
// (store fatally failed or retries exhausted), a signal to the caller
// that further draining this cycle won't help.
func (w *Writer) drainAndCommit(ctx context.Context) bool {
	batch := w.queue.DrainUpTo(w.batchSize)
	if len(batch) == 0 {
		return true
	}

	var lastErr error
	for attempt := 0; attempt < maxWriterAttempts; attempt++ {
		if attempt > 0 {
			backoff := writerBackoffBase << uint(attempt-1)
			if backoff > writerBackoffCap {
				backoff = writerBackoffCap
			}
			jittered := backoff/2 + time.Duration(rand.Int63n(int64(backoff/2+1)))
			select {
			case <-time.After(jittered):
			case <-ctx.Done():
				return false
			}
		}

		err := w.store.InsertBatch(ctx, batch)
		if err == nil {
			return true
		}
		lastErr = err
		if !errors.Is(err, sysmonerr.ErrStoreBusy) {
			log.Error().Err(err).Int("batch_size", len(batch)).Msg("ingest: batch commit failed fatally, dropping batch")
			return false
		}
		log.Warn().Err(err).Int("attempt", attempt+1).Msg("ingest: store busy, retrying batch commit")
	}
	log.Error().Err(lastErr).Int("batch_size", len(batch)).Msg("ingest: batch commit exhausted retries, dropping batch")
	return false
}
