package ingest

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/oashraff/sysmon-ai/internal/platform"
)

type fakeSampler struct {
	calls atomic.Int64
}

func (f *fakeSampler) ReadCounters(now time.Time) (platform.RawCounters, error) {
	n := f.calls.Add(1)
	return platform.RawCounters{
		Now:            now,
		CPUPct:         50,
		MemPct:         60,
		DiskReadBytes:  uint64(n) * 1000,
		NetUpBytes:     uint64(n) * 500,
		NetDownBytes:   uint64(n) * 500,
		DiskWriteBytes: uint64(n) * 1000,
	}, nil
}

func TestSamplerLoopEnqueuesOnEachTick(t *testing.T) {
	q := NewQueue(10)
	s := &fakeSampler{}
	loop := NewSamplerLoop(s, q, "host1", 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()
	loop.Run(ctx)

	if q.Len() == 0 {
		t.Fatalf("expected at least one sample enqueued")
	}
	samples := q.DrainUpTo(100)
	for _, s := range samples {
		if s.Host != "host1" {
			t.Fatalf("unexpected host %q", s.Host)
		}
	}
	// First tick has no prior dt, so its derived rates are 0; later ticks
	// should be non-negative (rate deriver never returns negative).
	for _, s := range samples {
		if s.DiskReadBps < 0 || s.NetUpBps < 0 {
			t.Fatalf("negative derived rate: %+v", s)
		}
	}
}
