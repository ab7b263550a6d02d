// Package ingest implements the sampler-thread and writer-thread halves
// of the pipeline: a bounded drop-oldest queue between them, and the
// batching commit loop that drains it into the store.
package ingest

import (
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"

	"github.com/oashraff/sysmon-ai/internal/model"
)

// queueDroppedTotal is the optional metric spec §4.C calls for alongside
// the mandatory log line: a counter a scrape target can track over time,
// shared across Queue instances the way a process has exactly one ingest
// queue.
var queueDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "sysmon_ingest_queue_dropped_total",
	Help: "Cumulative samples evicted from the ingest queue by overflow.",
})

// Queue is a bounded single-producer/single-consumer ring buffer of
// Samples. Enqueue never blocks: when full, the oldest entry is evicted
// to admit the new one (spec §4.C) and Dropped is incremented. Freshest
// data matters more than completeness for a live monitor, and this
// avoids starving the sampler if the writer stalls.
type Queue struct {
	mu      sync.Mutex
	buf     []model.Sample
	head    int // index of oldest element
	size    int
	cap     int
	dropped atomic.Int64
}

// NewQueue creates a Queue with the given capacity (spec default 10000).
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{buf: make([]model.Sample, capacity), cap: capacity}
}

// Enqueue adds a Sample, evicting the oldest entry if the queue is full.
func (q *Queue) Enqueue(s model.Sample) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == q.cap {
		// Drop the oldest: advance head, don't grow size.
		q.head = (q.head + 1) % q.cap
		dropped := q.dropped.Add(1)
		queueDroppedTotal.Inc()
		log.Warn().Int64("dropped_total", dropped).Int("capacity", q.cap).
			Msg("ingest: queue full, evicted oldest sample")
	} else {
		q.size++
	}
	tail := (q.head + q.size - 1) % q.cap
	q.buf[tail] = s
}

// DrainUpTo removes and returns up to n oldest Samples, in insertion
// order. Returns fewer than n if the queue holds less.
func (q *Queue) DrainUpTo(n int) []model.Sample {
	q.mu.Lock()
	defer q.mu.Unlock()

	if n > q.size {
		n = q.size
	}
	out := make([]model.Sample, n)
	for i := 0; i < n; i++ {
		out[i] = q.buf[(q.head+i)%q.cap]
	}
	q.head = (q.head + n) % q.cap
	q.size -= n
	return out
}

// Len reports the current number of queued Samples.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Dropped reports the cumulative number of Samples evicted by overflow.
func (q *Queue) Dropped() int64 {
	return q.dropped.Load()
}

// Cap reports the queue's fixed capacity.
func (q *Queue) Cap() int {
	return q.cap
}
