package ingest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/oashraff/sysmon-ai/internal/model"
	"github.com/oashraff/sysmon-ai/internal/sysmonerr"
)

type fakeStore struct {
	mu        sync.Mutex
	committed []model.Sample
	failNext  int32 // number of ErrStoreBusy failures to return before succeeding
	fatal     bool
}

func (f *fakeStore) InsertBatch(ctx context.Context, samples []model.Sample) error {
	if f.fatal {
		return fmt.Errorf("fatal: %w", sysmonerr.ErrStoreFatal)
	}
	if atomic.LoadInt32(&f.failNext) > 0 {
		atomic.AddInt32(&f.failNext, -1)
		return fmt.Errorf("busy: %w", sysmonerr.ErrStoreBusy)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.committed = append(f.committed, samples...)
	return nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.committed)
}

func TestWriterFlushesOnBatchSize(t *testing.T) {
	q := NewQueue(100)
	store := &fakeStore{}
	w := NewWriter(q, store, 5, time.Hour)

	for i := int64(1); i <= 5; i++ {
		q.Enqueue(sampleAt(i))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	go w.Run(ctx)

	deadline := time.Now().Add(150 * time.Millisecond)
	for time.Now().Before(deadline) {
		if store.count() == 5 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected 5 committed samples, got %d", store.count())
}

func TestWriterRetriesOnStoreBusy(t *testing.T) {
	q := NewQueue(10)
	store := &fakeStore{failNext: 2}
	w := NewWriter(q, store, 3, time.Hour)

	q.Enqueue(sampleAt(1))
	q.Enqueue(sampleAt(2))
	q.Enqueue(sampleAt(3))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	go w.Run(ctx)

	deadline := time.Now().Add(400 * time.Millisecond)
	for time.Now().Before(deadline) {
		if store.count() == 3 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected batch to eventually commit after transient busy errors, got %d", store.count())
}

func TestWriterFinalFlushOnShutdown(t *testing.T) {
	q := NewQueue(10)
	store := &fakeStore{}
	w := NewWriter(q, store, 100, time.Hour)

	q.Enqueue(sampleAt(1))
	q.Enqueue(sampleAt(2))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("writer did not shut down in time")
	}

	if store.count() != 2 {
		t.Fatalf("expected final flush to commit 2 samples, got %d", store.count())
	}
}
