// Package config holds the agent's configuration snapshot: one struct
// built once at startup from a YAML file, environment overrides, and
// CLI flags (highest precedence last), then passed explicitly to every
// subsystem (no hidden singletons). Grounded on 99souls-ariadne's
// engine/config package for the YAML+fsnotify shape, narrowed to the
// fields this agent actually has.
package config

// Sampling controls the tick cadence and ingress/writer sizing.
type Sampling struct {
	RateSeconds  float64 `yaml:"rate_seconds"`
	BatchSize    int     `yaml:"batch_size"`
	MaxQueueSize int     `yaml:"max_queue_size"`
}

// Storage controls the embedded store's file and retention.
type Storage struct {
	DBPath                string `yaml:"db_path"`
	RetentionDays         int    `yaml:"retention_days"`
	WALCheckpointInterval int    `yaml:"wal_checkpoint_interval"`
}

// Anomaly controls isolation-forest training and calibration.
type Anomaly struct {
	Contamination      float64 `yaml:"contamination"`
	NEstimators        int     `yaml:"n_estimators"`
	MaxSamples         int     `yaml:"max_samples"`
	BaselineWindowDays int     `yaml:"baseline_window_days"`
	TargetFPR          float64 `yaml:"target_fpr"`
}

// Forecast controls time-to-threshold projection.
type Forecast struct {
	HorizonHours float64 `yaml:"horizon_hours"`
	Algo         string  `yaml:"algo"`
}

// Thresholds are the breach values threshold rules evaluate.
type Thresholds struct {
	CPUPct  float64 `yaml:"cpu_pct"`
	MemPct  float64 `yaml:"mem_pct"`
	DiskPct float64 `yaml:"disk_pct"`
	SwapPct float64 `yaml:"swap_pct"`
}

// Features controls the feature builder's rolling window sizes.
type Features struct {
	ShortWindow int `yaml:"short_window"`
	LongWindow  int `yaml:"long_window"`
}

// Rules controls the rule engine's cooldown default.
type Rules struct {
	CooldownSeconds float64 `yaml:"cooldown_seconds"`
}

// Config is the full configuration surface (spec.md §6.4).
type Config struct {
	Sampling   Sampling   `yaml:"sampling"`
	Storage    Storage    `yaml:"storage"`
	Anomaly    Anomaly    `yaml:"anomaly"`
	Forecast   Forecast   `yaml:"forecast"`
	Thresholds Thresholds `yaml:"thresholds"`
	Features   Features   `yaml:"features"`
	Rules      Rules      `yaml:"rules"`
}

// Default returns the documented defaults (spec.md §6.4).
func Default() Config {
	return Config{
		Sampling:   Sampling{RateSeconds: 1.0, BatchSize: 100, MaxQueueSize: 10000},
		Storage:    Storage{DBPath: "sysmon.db", RetentionDays: 30, WALCheckpointInterval: 1000},
		Anomaly:    Anomaly{Contamination: 0.05, NEstimators: 100, MaxSamples: 256, BaselineWindowDays: 7, TargetFPR: 0.05},
		Forecast:   Forecast{HorizonHours: 72, Algo: "linear"},
		Thresholds: Thresholds{CPUPct: 90, MemPct: 90, DiskPct: 85, SwapPct: 80},
		Features:   Features{ShortWindow: 5, LongWindow: 30},
		Rules:      Rules{CooldownSeconds: 300},
	}
}
