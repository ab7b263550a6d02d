// Package sysmonerr enumerates the error kinds used across the agent.
// Kinds are sentinel values checked with errors.Is, not distinct types —
// callers branch on what happened, not on which package raised it.
package sysmonerr

import "errors"

var (
	// ErrSampler marks a full sampler failure (no counter could be read).
	// The tick is dropped; sampling continues on the next tick.
	ErrSampler = errors.New("sysmon: sampler failed")

	// ErrStoreBusy marks a transient store failure, retried locally by
	// the batch writer with exponential backoff.
	ErrStoreBusy = errors.New("sysmon: store busy")

	// ErrStoreFatal marks a persistent store failure; the current batch
	// is dropped and an error event is raised, but the writer continues.
	ErrStoreFatal = errors.New("sysmon: store fatal")

	// ErrQueueOverflow is raised only as a counter increment, never
	// surfaced as a returned error; kept here for symmetry with the
	// other kinds.
	ErrQueueOverflow = errors.New("sysmon: queue overflow")

	// ErrInsufficientData marks a feature-building input shorter than
	// W_l + 5 samples.
	ErrInsufficientData = errors.New("sysmon: insufficient data")

	// ErrNotEnoughData marks a training baseline window below the
	// minimum row count required to fit a model.
	ErrNotEnoughData = errors.New("sysmon: not enough training data")

	// ErrModelNotTrained marks a missing Model Record.
	ErrModelNotTrained = errors.New("sysmon: model not trained")

	// ErrModelStale marks a feature-column mismatch between a trained
	// model and the columns the feature builder currently produces.
	ErrModelStale = errors.New("sysmon: model stale")

	// ErrCalibrationFailed marks an anomaly threshold calibration pass
	// that could not find any threshold meeting the target FPR.
	ErrCalibrationFailed = errors.New("sysmon: calibration failed")

	// ErrConfigInvalid is fatal at startup only.
	ErrConfigInvalid = errors.New("sysmon: invalid configuration")

	// ErrShutdownRequested marks a cooperative shutdown in progress.
	ErrShutdownRequested = errors.New("sysmon: shutdown requested")
)
