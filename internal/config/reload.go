package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Watcher applies live edits of a config file to a subset of fields
// (spec.md §9 open question (a)): thresholds, rules.cooldown_seconds,
// and forecast.horizon_hours reload without a restart. Every other
// field is compared against the running value and, if changed, logged
// at warn and left untouched. Grounded on 99souls-ariadne's
// HotReloadSystem (watch the containing directory, filter events to
// the exact path), simplified to this agent's narrower field set.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
}

// NewWatcher opens an fsnotify watcher on path's containing directory.
func NewWatcher(path string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, err
	}
	return &Watcher{path: path, watcher: w}, nil
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Run blocks, applying reloadable fields from path into *live whenever
// the file is written, until ctx is done. live is mutated in place;
// callers must guard concurrent reads with their own lock since the
// maintenance thread and sampler/writer threads all read live fields.
func (w *Watcher) Run(ctx context.Context, live *Config, apply func(Config)) {
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Name != w.path || ev.Op&fsnotify.Write == 0 {
				continue
			}
			next, err := Load(w.path, nil)
			if err != nil {
				log.Warn().Err(err).Str("path", w.path).Msg("config reload: reparse failed, keeping running config")
				continue
			}
			merged := mergeReloadable(*live, next)
			*live = merged
			apply(merged)
			log.Info().Str("path", w.path).Msg("config: reloaded thresholds/cooldown/horizon")

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("config watcher error")

		case <-ctx.Done():
			return
		}
	}
}

// mergeReloadable takes running as the base and copies across only the
// fields the conservative reload policy allows, warning about any other
// field that differs between running and edited.
func mergeReloadable(running, edited Config) Config {
	if running.Thresholds != edited.Thresholds {
		running.Thresholds = edited.Thresholds
	}
	if running.Rules.CooldownSeconds != edited.Rules.CooldownSeconds {
		running.Rules.CooldownSeconds = edited.Rules.CooldownSeconds
	}
	if running.Forecast.HorizonHours != edited.Forecast.HorizonHours {
		running.Forecast.HorizonHours = edited.Forecast.HorizonHours
	}

	warnIfChanged("sampling", running.Sampling, edited.Sampling)
	warnIfChanged("storage", running.Storage, edited.Storage)
	warnIfChanged("anomaly", running.Anomaly, edited.Anomaly)
	warnIfChanged("features", running.Features, edited.Features)
	if running.Forecast.Algo != edited.Forecast.Algo {
		log.Warn().Str("section", "forecast.algo").Msg("config: field changed in live-edited file but requires restart, ignoring")
	}

	return running
}

func warnIfChanged[T comparable](section string, running, edited T) {
	if running != edited {
		log.Warn().Str("section", section).Msg("config: field changed in live-edited file but requires restart, ignoring")
	}
}
