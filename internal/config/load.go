package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/oashraff/sysmon-ai/internal/sysmonerr"
)

// Load reads path (if it exists; a missing file falls back to Default),
// applies SYSMON_<SECTION>_<KEY> environment overrides, then flagOverrides
// (highest precedence, normally populated from cobra flags the caller
// actually set), and validates the result.
func Load(path string, flagOverrides map[string]string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("%w: read %s: %v", sysmonerr.ErrConfigInvalid, path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("%w: parse %s: %v", sysmonerr.ErrConfigInvalid, path, err)
		}
	}

	applyEnv(&cfg)
	if err := applyOverrides(&cfg, flagOverrides); err != nil {
		return Config{}, err
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envKey builds the SYSMON_<SECTION>_<KEY> name for a config field.
func envKey(section, key string) string {
	return "SYSMON_" + strings.ToUpper(section) + "_" + strings.ToUpper(key)
}

// applyEnv overlays any set SYSMON_<SECTION>_<KEY> variables onto cfg.
func applyEnv(cfg *Config) {
	for _, e := range fieldTable(cfg) {
		if v, ok := os.LookupEnv(envKey(e.section, e.key)); ok {
			if err := e.set(v); err != nil {
				// Malformed env values are ignored; the field keeps its
				// file/default value rather than aborting startup.
				continue
			}
		}
	}
}

// applyOverrides overlays explicit "section.key" -> value pairs,
// typically sourced from cobra flags the user actually set.
func applyOverrides(cfg *Config, overrides map[string]string) error {
	if len(overrides) == 0 {
		return nil
	}
	table := make(map[string]fieldRef, 32)
	for _, e := range fieldTable(cfg) {
		table[e.section+"."+e.key] = e
	}
	for path, v := range overrides {
		e, ok := table[path]
		if !ok {
			return fmt.Errorf("%w: unknown override key %q", sysmonerr.ErrConfigInvalid, path)
		}
		if err := e.set(v); err != nil {
			return fmt.Errorf("%w: override %q: %v", sysmonerr.ErrConfigInvalid, path, err)
		}
	}
	return nil
}

// fieldRef binds one section.key pair to a setter closure over cfg,
// giving env and flag overrides a uniform string-keyed view of the
// typed Config struct without reflection.
type fieldRef struct {
	section string
	key     string
	set     func(string) error
}

func fieldTable(cfg *Config) []fieldRef {
	return []fieldRef{
		{"sampling", "rate_seconds", floatSetter(&cfg.Sampling.RateSeconds)},
		{"sampling", "batch_size", intSetter(&cfg.Sampling.BatchSize)},
		{"sampling", "max_queue_size", intSetter(&cfg.Sampling.MaxQueueSize)},
		{"storage", "db_path", stringSetter(&cfg.Storage.DBPath)},
		{"storage", "retention_days", intSetter(&cfg.Storage.RetentionDays)},
		{"storage", "wal_checkpoint_interval", intSetter(&cfg.Storage.WALCheckpointInterval)},
		{"anomaly", "contamination", floatSetter(&cfg.Anomaly.Contamination)},
		{"anomaly", "n_estimators", intSetter(&cfg.Anomaly.NEstimators)},
		{"anomaly", "max_samples", intSetter(&cfg.Anomaly.MaxSamples)},
		{"anomaly", "baseline_window_days", intSetter(&cfg.Anomaly.BaselineWindowDays)},
		{"anomaly", "target_fpr", floatSetter(&cfg.Anomaly.TargetFPR)},
		{"forecast", "horizon_hours", floatSetter(&cfg.Forecast.HorizonHours)},
		{"forecast", "algo", stringSetter(&cfg.Forecast.Algo)},
		{"thresholds", "cpu_pct", floatSetter(&cfg.Thresholds.CPUPct)},
		{"thresholds", "mem_pct", floatSetter(&cfg.Thresholds.MemPct)},
		{"thresholds", "disk_pct", floatSetter(&cfg.Thresholds.DiskPct)},
		{"thresholds", "swap_pct", floatSetter(&cfg.Thresholds.SwapPct)},
		{"features", "short_window", intSetter(&cfg.Features.ShortWindow)},
		{"features", "long_window", intSetter(&cfg.Features.LongWindow)},
		{"rules", "cooldown_seconds", floatSetter(&cfg.Rules.CooldownSeconds)},
	}
}

func stringSetter(dst *string) func(string) error {
	return func(v string) error { *dst = v; return nil }
}

func intSetter(dst *int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

func floatSetter(dst *float64) func(string) error {
	return func(v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*dst = f
		return nil
	}
}

// Validate rejects a configuration that would make the agent's
// invariants impossible to hold (non-positive cadence, a forecast algo
// outside the two supported kinds, a db path that's empty).
func Validate(cfg Config) error {
	switch {
	case cfg.Sampling.RateSeconds <= 0:
		return fmt.Errorf("%w: sampling.rate_seconds must be positive", sysmonerr.ErrConfigInvalid)
	case cfg.Sampling.BatchSize <= 0:
		return fmt.Errorf("%w: sampling.batch_size must be positive", sysmonerr.ErrConfigInvalid)
	case cfg.Sampling.MaxQueueSize <= 0:
		return fmt.Errorf("%w: sampling.max_queue_size must be positive", sysmonerr.ErrConfigInvalid)
	case cfg.Storage.DBPath == "":
		return fmt.Errorf("%w: storage.db_path must not be empty", sysmonerr.ErrConfigInvalid)
	case cfg.Storage.RetentionDays <= 0:
		return fmt.Errorf("%w: storage.retention_days must be positive", sysmonerr.ErrConfigInvalid)
	case cfg.Anomaly.TargetFPR <= 0 || cfg.Anomaly.TargetFPR >= 1:
		return fmt.Errorf("%w: anomaly.target_fpr must be in (0,1)", sysmonerr.ErrConfigInvalid)
	case cfg.Anomaly.NEstimators <= 0:
		return fmt.Errorf("%w: anomaly.n_estimators must be positive", sysmonerr.ErrConfigInvalid)
	case cfg.Forecast.Algo != "linear" && cfg.Forecast.Algo != "gbrt":
		return fmt.Errorf("%w: forecast.algo must be \"linear\" or \"gbrt\", got %q", sysmonerr.ErrConfigInvalid, cfg.Forecast.Algo)
	case cfg.Features.ShortWindow <= 0 || cfg.Features.LongWindow <= cfg.Features.ShortWindow:
		return fmt.Errorf("%w: features.long_window must exceed features.short_window", sysmonerr.ErrConfigInvalid)
	}
	return nil
}
