// Package platform reads raw OS resource counters and turns two
// successive readings into a model.Sample via rate derivation. It is the
// sole place that knows how to talk to a particular operating system;
// everything above it works against the Sampler interface.
package platform

import "time"

// RawCounters bundles one platform read. Counters that are cumulative
// since boot (disk/network bytes) are converted to rates by Derive
// between two ticks; percentages and counts are used as-is.
type RawCounters struct {
	Now time.Time

	CPUPct    float64
	MemPct    float64
	SwapPct   float64
	ProcCount int64

	DiskReadBytes  uint64
	DiskWriteBytes uint64
	NetUpBytes     uint64
	NetDownBytes   uint64

	// CPUTemp is nil on platforms without sensor access; this is not an
	// error.
	CPUTemp *float64
}

// Sampler is the injectable platform adapter (spec §6.2). Each supported
// OS provides one implementation; the core never branches on OS itself.
type Sampler interface {
	ReadCounters(now time.Time) (RawCounters, error)
}
