package ingest

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/oashraff/sysmon-ai/internal/model"
	"github.com/oashraff/sysmon-ai/internal/platform"
)

// SamplerLoop ticks at a fixed interval, reads one set of platform
// counters, derives rates for the cumulative byte counters, and enqueues
// a model.Sample. Grounded on the teacher's internal/orchestrator.Run
// signal-aware ticker loop, narrowed from a multi-collector fan-in to a
// single platform.Sampler plus rate state.
type SamplerLoop struct {
	sampler  platform.Sampler
	queue    *Queue
	host     string
	interval time.Duration

	diskRead  platform.RateTracker
	diskWrite platform.RateTracker
	netUp     platform.RateTracker
	netDown   platform.RateTracker

	lastTick time.Time
}

// NewSamplerLoop builds a loop that samples host counters into queue at
// the given interval (spec default 1s).
func NewSamplerLoop(sampler platform.Sampler, queue *Queue, host string, interval time.Duration) *SamplerLoop {
	return &SamplerLoop{sampler: sampler, queue: queue, host: host, interval: interval}
}

// Run blocks, sampling on each tick until ctx is canceled. A failed tick
// (sampler.ReadCounters error) is logged and skipped; sampling resumes on
// the next tick rather than aborting the loop, per spec §4.A ("a single
// failed read source does not halt sampling").
func (l *SamplerLoop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.tick(now)
		}
	}
}

func (l *SamplerLoop) tick(now time.Time) {
	rc, err := l.sampler.ReadCounters(now)
	if err != nil {
		log.Warn().Err(err).Msg("ingest: sampler tick failed, skipping")
		return
	}

	dt := l.dtSeconds(now)
	l.lastTick = now

	sample := model.Sample{
		Ts:           now.Unix(),
		Host:         l.host,
		CPUPct:       rc.CPUPct,
		MemPct:       rc.MemPct,
		SwapPct:      rc.SwapPct,
		ProcCount:    rc.ProcCount,
		DiskReadBps:  l.diskRead.Next(rc.DiskReadBytes, dt),
		DiskWriteBps: l.diskWrite.Next(rc.DiskWriteBytes, dt),
		NetUpBps:     l.netUp.Next(rc.NetUpBytes, dt),
		NetDownBps:   l.netDown.Next(rc.NetDownBytes, dt),
		CPUTemp:      rc.CPUTemp,
	}
	l.queue.Enqueue(sample)
}

func (l *SamplerLoop) dtSeconds(now time.Time) float64 {
	if l.lastTick.IsZero() {
		return 0
	}
	return now.Sub(l.lastTick).Seconds()
}
