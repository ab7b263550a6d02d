// sysmon-agentd — single-host resource monitor: samples OS counters,
// persists them to an embedded store, detects anomalies, forecasts
// time-to-threshold, and raises cooldown-muted alerts. Grounded on the
// teacher's cmd/melisai/main.go cobra wiring, reworked from a one-shot
// collect/diff tool into a long-lived daemon with train/export
// subcommands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/oashraff/sysmon-ai/internal/anomaly"
	"github.com/oashraff/sysmon-ai/internal/config"
	"github.com/oashraff/sysmon-ai/internal/dashboard"
	"github.com/oashraff/sysmon-ai/internal/export"
	"github.com/oashraff/sysmon-ai/internal/forecast"
	"github.com/oashraff/sysmon-ai/internal/ingest"
	"github.com/oashraff/sysmon-ai/internal/maintenance"
	"github.com/oashraff/sysmon-ai/internal/model"
	"github.com/oashraff/sysmon-ai/internal/notify"
	"github.com/oashraff/sysmon-ai/internal/platform"
	"github.com/oashraff/sysmon-ai/internal/rules"
	"github.com/oashraff/sysmon-ai/internal/store"
)

var version = "0.1.0"

func main() {
	var (
		configPath string
		verbose    bool
	)

	rootCmd := &cobra.Command{
		Use:     "sysmon-agentd",
		Short:   "Always-on host resource monitor with anomaly detection and forecasting",
		Version: version,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "sysmon.yaml", "configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug-level logging")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		level := zerolog.InfoLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		zerolog.SetGlobalLevel(level)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	rootCmd.AddCommand(
		newRunCmd(&configPath),
		newTrainCmd(&configPath),
		newExportCmd(&configPath),
		newDashboardCmd(&configPath),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(path string) (config.Config, error) {
	return config.Load(path, nil)
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "localhost"
	}
	return h
}

// newRunCmd wires the three long-lived goroutines (sampler, writer,
// maintenance) and blocks until SIGINT/SIGTERM, grounded on the
// teacher's signal-aware context cancellation in orchestrator.Run.
func newRunCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the agent: sample, persist, detect, forecast, alert",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			st, err := store.Open(ctx, cfg.Storage.DBPath, store.Options{
				CacheSizeKiB:  65536,
				BusyTimeoutMS: 5000,
			})
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			host := hostname()
			queue := ingest.NewQueue(cfg.Sampling.MaxQueueSize)
			sampler := platform.NewLinuxSampler("/proc", "/sys")
			interval := time.Duration(cfg.Sampling.RateSeconds * float64(time.Second))

			samplerLoop := ingest.NewSamplerLoop(sampler, queue, host, interval)
			writer := ingest.NewWriter(queue, st, cfg.Sampling.BatchSize, interval*time.Duration(cfg.Sampling.BatchSize))

			notifier := notify.NewLogNotifier()
			runner := maintenance.NewRunner(st, notifier, maintenance.Config{
				Host:            host,
				Tick:            maintenance.DefaultTick,
				SampleRetention: time.Duration(cfg.Storage.RetentionDays) * 24 * time.Hour,
				EventRetention:  time.Duration(cfg.Storage.RetentionDays) * 24 * time.Hour,
				WindowSize:      cfg.Features.LongWindow + 60,
				AnomalyConfig:   anomalyConfigFrom(cfg),
				ForecastConfig:  forecastConfigFrom(cfg),
				ForecastMetrics: []string{"cpu_pct", "mem_pct", "swap_pct"},
				ForecastThresholds: map[string]float64{
					"cpu_pct":  cfg.Thresholds.CPUPct,
					"mem_pct":  cfg.Thresholds.MemPct,
					"swap_pct": cfg.Thresholds.SwapPct,
				},
				Rules: defaultRules(cfg),
			})

			log.Info().Str("host", host).Str("db", cfg.Storage.DBPath).Msg("sysmon-agentd: starting")

			done := make(chan struct{}, 3)
			go func() { samplerLoop.Run(ctx); done <- struct{}{} }()
			go func() { writer.Run(ctx); done <- struct{}{} }()
			go func() { runner.Run(ctx); done <- struct{}{} }()

			<-ctx.Done()
			log.Info().Msg("sysmon-agentd: shutdown requested, draining")
			<-done
			<-done
			<-done
			return nil
		},
	}
}

// newTrainCmd fits the anomaly and forecast models against the stored
// baseline window and persists them as Model Records.
func newTrainCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Train the anomaly and forecast models from stored history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			ctx := context.Background()
			st, err := store.Open(ctx, cfg.Storage.DBPath, store.DefaultOptions())
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			host := hostname()
			baselineWindow := cfg.Anomaly.BaselineWindowDays * 24 * 3600 / int(cfg.Sampling.RateSeconds)
			samples, err := st.LatestN(ctx, host, baselineWindow)
			if err != nil {
				return fmt.Errorf("read baseline: %w", err)
			}

			now := time.Now()
			anomalyRec, err := anomaly.Train(samples, anomalyConfigFrom(cfg), now)
			if err != nil {
				return fmt.Errorf("train anomaly model: %w", err)
			}
			if err := st.SaveModel(ctx, anomalyRec); err != nil {
				return fmt.Errorf("save anomaly model: %w", err)
			}
			log.Info().Msg("trained anomaly model")

			for _, metric := range []string{"cpu_pct", "mem_pct", "swap_pct"} {
				rec, err := forecast.Train(samples, metric, forecastConfigFrom(cfg), now)
				if err != nil {
					log.Warn().Err(err).Str("metric", metric).Msg("skip forecast model")
					continue
				}
				if err := st.SaveModel(ctx, rec); err != nil {
					return fmt.Errorf("save forecast model %s: %w", metric, err)
				}
				log.Info().Str("metric", metric).Msg("trained forecast model")
			}
			return nil
		},
	}
}

// newExportCmd writes a window of stored samples as CSV or JSON.
func newExportCmd(configPath *string) *cobra.Command {
	var (
		format string
		output string
		from   int64
		to     int64
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored samples as CSV or JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			ctx := context.Background()
			st, err := store.Open(ctx, cfg.Storage.DBPath, store.DefaultOptions())
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			if to == 0 {
				to = time.Now().Unix()
			}
			samples, err := st.Window(ctx, hostname(), from, to)
			if err != nil {
				return fmt.Errorf("read window: %w", err)
			}

			var w = os.Stdout
			if output != "-" && output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				return writeExport(f, format, samples)
			}
			return writeExport(w, format, samples)
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "export format: csv or json")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output path, - for stdout")
	cmd.Flags().Int64Var(&from, "from", 0, "window start (unix seconds)")
	cmd.Flags().Int64Var(&to, "to", 0, "window end (unix seconds), default now")
	return cmd
}

func writeExport(w *os.File, format string, samples []model.Sample) error {
	if format == "csv" {
		return export.WriteCSV(w, samples)
	}
	return export.WriteJSON(w, samples)
}

// newDashboardCmd launches the bubbletea terminal view reading the
// store on a fixed refresh cadence.
func newDashboardCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Launch the live terminal dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			ctx := context.Background()
			st, err := store.Open(ctx, cfg.Storage.DBPath, store.DefaultOptions())
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			m := dashboard.New(st, hostname(), 2*time.Second, cfg.Thresholds)
			p := tea.NewProgram(m, tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
}

func anomalyConfigFrom(cfg config.Config) anomaly.Config {
	ac := anomaly.DefaultConfig()
	ac.NEstimators = cfg.Anomaly.NEstimators
	ac.MaxSamples = cfg.Anomaly.MaxSamples
	ac.TargetFPR = cfg.Anomaly.TargetFPR
	ac.Contamination = cfg.Anomaly.Contamination
	ac.ShortWindow = cfg.Features.ShortWindow
	ac.LongWindow = cfg.Features.LongWindow
	return ac
}

func forecastConfigFrom(cfg config.Config) forecast.Config {
	fc := forecast.DefaultConfig()
	fc.ShortWindow = cfg.Features.ShortWindow
	fc.LongWindow = cfg.Features.LongWindow
	fc.HorizonSeconds = cfg.Forecast.HorizonHours * 3600
	fc.TickSeconds = cfg.Sampling.RateSeconds
	if cfg.Forecast.Algo == "gbrt" {
		fc.Algo = model.AlgoGradientBoost
	} else {
		fc.Algo = model.AlgoLinearRegressor
	}
	return fc
}

func defaultRules(cfg config.Config) []rules.Rule {
	cooldown := time.Duration(cfg.Rules.CooldownSeconds * float64(time.Second))
	return []rules.Rule{
		{Name: "cpu-threshold", Kind: rules.KindThreshold, Metric: "cpu_pct", Op: rules.OpGreaterThan, Value: cfg.Thresholds.CPUPct, Cooldown: cooldown},
		{Name: "mem-threshold", Kind: rules.KindThreshold, Metric: "mem_pct", Op: rules.OpGreaterThan, Value: cfg.Thresholds.MemPct, Cooldown: cooldown},
		{Name: "swap-threshold", Kind: rules.KindThreshold, Metric: "swap_pct", Op: rules.OpGreaterThan, Value: cfg.Thresholds.SwapPct, Cooldown: cooldown},
		{Name: "anomaly", Kind: rules.KindAnomaly, MinScore: 0.6, Cooldown: cooldown},
		{Name: "forecast-cpu", Kind: rules.KindForecast, MinEtaSeconds: cfg.Forecast.HorizonHours * 3600 / 4, Cooldown: cooldown},
	}
}
