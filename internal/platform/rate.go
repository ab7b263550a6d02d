package platform

import "github.com/rs/zerolog/log"

// Derive converts a monotonic byte counter pair into a bytes-per-second
// rate (spec §4.B). A negative delta (counter wrap or process restart)
// or a non-positive dt yields 0 and a logged warning rather than a
// negative or infinite rate. On the very first observation the caller
// has no prior counter; it should skip calling Derive and emit 0
// directly (see RateTracker below).
func Derive(prevCounter, curCounter uint64, dtSeconds float64) float64 {
	if dtSeconds <= 0 {
		log.Warn().Float64("dt", dtSeconds).Msg("rate deriver: non-positive interval")
		return 0
	}
	if curCounter < prevCounter {
		log.Warn().Uint64("prev", prevCounter).Uint64("cur", curCounter).Msg("rate deriver: counter wrapped or reset")
		return 0
	}
	return float64(curCounter-prevCounter) / dtSeconds
}

// RateTracker keeps the previous counter value for one monotonic
// counter and turns successive readings into rates, handling the
// "no prior observation" first tick per spec §4.B.
type RateTracker struct {
	prev  uint64
	ready bool
}

// Next returns the rate since the previous call, or 0 on the first
// call (no prior observation exists yet).
func (r *RateTracker) Next(cur uint64, dtSeconds float64) float64 {
	if !r.ready {
		r.prev = cur
		r.ready = true
		return 0
	}
	rate := Derive(r.prev, cur, dtSeconds)
	r.prev = cur
	return rate
}
