// Package maintenance runs the periodic background work the agent
// needs beyond sampling and writing: retention pruning, anomaly
// detection, forecast ticks, and rule evaluation. Grounded on the
// teacher's orchestrator.Run goroutine-with-signal-handling shape,
// narrowed from a parallel one-shot collector fan-out into a single
// cadence-driven loop (spec.md §4 ties these stages together at a
// default 60s tick).
package maintenance

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/oashraff/sysmon-ai/internal/anomaly"
	"github.com/oashraff/sysmon-ai/internal/forecast"
	"github.com/oashraff/sysmon-ai/internal/model"
	"github.com/oashraff/sysmon-ai/internal/notify"
	"github.com/oashraff/sysmon-ai/internal/platform"
	"github.com/oashraff/sysmon-ai/internal/rules"
)

// DefaultTick is the cadence at which maintenance runs a pass (spec.md
// §4's default 60s cadence for forecast/rule evaluation).
const DefaultTick = 60 * time.Second

// Self-footprint budget (spec.md §1): the agent must stay well under
// these figures on a live host. clockTicksPerSec assumes the common
// Linux SC_CLK_TCK of 100, same assumption the teacher's overhead
// tracker makes.
const (
	selfCPUBudgetPercent = 3.0
	selfRSSBudgetBytes   = 150 * 1024 * 1024
	clockTicksPerSec     = 100
)

// Store is the read/write surface maintenance needs, kept local and
// narrow per the ingest/dashboard packages' consumer-interface idiom.
type Store interface {
	LatestN(ctx context.Context, host string, n int) ([]model.Sample, error)
	InsertEvent(ctx context.Context, ev model.Event) (model.Event, error)
	EventsWindow(ctx context.Context, typ model.EventType, from, to int64) ([]model.Event, error)
	LoadModel(ctx context.Context, name string) (model.ModelRecord, error)
	Prune(ctx context.Context, sampleRetention, eventRetention time.Duration, now time.Time) error
}

// Config bundles the tuning knobs maintenance needs from each detector.
type Config struct {
	Host             string
	Tick             time.Duration
	SampleRetention  time.Duration
	EventRetention   time.Duration
	WindowSize       int
	AnomalyConfig    anomaly.Config
	ForecastConfig   forecast.Config
	ForecastMetrics  []string
	ForecastThresholds map[string]float64
	Rules            []rules.Rule
}

// Runner ties the store, detectors, rule engine, and notifier together
// on a ticker, mirroring the teacher's context-cancelable run loop.
type Runner struct {
	store    Store
	notifier notify.Notifier
	engine   *rules.Engine
	cfg      Config

	selfPrev   platform.SelfUsage
	selfPrevAt time.Time
}

// NewRunner builds a Runner. The rule engine's cooldown state starts
// fresh (Armed) regardless of prior process runs, per spec.md §4.I.
func NewRunner(store Store, notifier notify.Notifier, cfg Config) *Runner {
	return &Runner{
		store:    store,
		notifier: notifier,
		engine:   rules.NewEngine(cfg.Rules),
		cfg:      cfg,
	}
}

// Run blocks, ticking Config.Tick until ctx is canceled.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("maintenance: shutting down")
			return
		case now := <-ticker.C:
			r.pass(ctx, now)
		}
	}
}

// pass runs one maintenance cycle: prune, detect anomalies, forecast,
// evaluate rules on the latest sample and any freshly raised events.
func (r *Runner) pass(ctx context.Context, now time.Time) {
	r.checkSelfUsage(now)

	if err := r.store.Prune(ctx, r.cfg.SampleRetention, r.cfg.EventRetention, now); err != nil {
		log.Warn().Err(err).Msg("maintenance: prune failed")
	}

	samples, err := r.store.LatestN(ctx, r.cfg.Host, r.cfg.WindowSize)
	if err != nil {
		log.Warn().Err(err).Msg("maintenance: read latest samples failed")
		return
	}
	if len(samples) == 0 {
		return
	}

	r.detectAnomalies(ctx, samples, now)
	r.runForecasts(ctx, samples, now)

	latest := samples[len(samples)-1]
	for _, note := range r.engine.EvaluateSample(latest, now) {
		r.deliver(note)
	}
}

func (r *Runner) detectAnomalies(ctx context.Context, samples []model.Sample, now time.Time) {
	rec, err := r.store.LoadModel(ctx, anomaly.ModelName)
	if err != nil {
		log.Debug().Err(err).Msg("maintenance: anomaly model unavailable, skipping detection")
		return
	}
	events, err := anomaly.Detect(samples, rec, r.cfg.AnomalyConfig)
	if err != nil {
		log.Warn().Err(err).Msg("maintenance: anomaly detection failed")
		return
	}
	for _, ev := range events {
		stored, err := r.store.InsertEvent(ctx, ev)
		if err != nil {
			log.Warn().Err(err).Msg("maintenance: insert anomaly event failed")
			continue
		}
		for _, note := range r.engine.EvaluateEvent(stored, now) {
			r.deliver(note)
		}
	}
}

func (r *Runner) runForecasts(ctx context.Context, samples []model.Sample, now time.Time) {
	for _, metric := range r.cfg.ForecastMetrics {
		threshold, ok := r.cfg.ForecastThresholds[metric]
		if !ok {
			continue
		}
		rec, err := r.store.LoadModel(ctx, forecast.ModelName(metric))
		if err != nil {
			log.Debug().Err(err).Str("metric", metric).Msg("maintenance: forecast model unavailable, skipping")
			continue
		}
		result, err := forecast.Forecast(samples, metric, rec, r.cfg.ForecastConfig, threshold)
		if err != nil {
			log.Warn().Err(err).Str("metric", metric).Msg("maintenance: forecast failed")
			continue
		}
		if result.EtaSeconds == nil && result.LoEtaSeconds == nil {
			continue
		}
		// The event score is what forecast rules compare against, so it
		// carries the sooner upper-confidence ETA; the message keeps the
		// point estimate when there is one.
		score, shown := result.LoEtaSeconds, result.LoEtaSeconds
		if score == nil {
			score = result.EtaSeconds
		}
		if result.EtaSeconds != nil {
			shown = result.EtaSeconds
		}
		ev := model.NewEvent(now.Unix(), model.EventForecastBreach, score,
			[]string{metric}, metricBreachMessage(metric, *shown))
		stored, err := r.store.InsertEvent(ctx, ev)
		if err != nil {
			log.Warn().Err(err).Msg("maintenance: insert forecast event failed")
			continue
		}
		for _, note := range r.engine.EvaluateEvent(stored, now) {
			r.deliver(note)
		}
	}
}

// checkSelfUsage reads the agent's own CPU/RSS footprint and warns if
// either figure drifts past the spec.md §1 budget. CPU percent needs a
// delta across two reads since /proc/self/stat reports cumulative
// ticks; the first call in a run only seeds the baseline.
func (r *Runner) checkSelfUsage(now time.Time) {
	usage, err := platform.ReadSelfUsage()
	if err != nil {
		log.Debug().Err(err).Msg("maintenance: self usage unavailable")
		return
	}

	if !r.selfPrevAt.IsZero() {
		elapsed := now.Sub(r.selfPrevAt).Seconds()
		if elapsed > 0 {
			deltaTicks := (usage.UserTicks + usage.SystemTicks) - (r.selfPrev.UserTicks + r.selfPrev.SystemTicks)
			cpuPct := float64(deltaTicks) / clockTicksPerSec / elapsed * 100
			if cpuPct > selfCPUBudgetPercent {
				log.Warn().Float64("cpu_pct", cpuPct).Float64("budget_pct", selfCPUBudgetPercent).
					Msg("maintenance: self CPU usage exceeds budget")
			}
		}
	}
	if usage.RSSBytes > selfRSSBudgetBytes {
		log.Warn().Int64("rss_bytes", usage.RSSBytes).Int64("budget_bytes", selfRSSBudgetBytes).
			Msg("maintenance: self RSS exceeds budget")
	}

	r.selfPrev = usage
	r.selfPrevAt = now
}

func (r *Runner) deliver(note model.Notification) {
	if err := r.notifier.Notify(note); err != nil {
		log.Warn().Err(err).Str("title", note.Title).Msg("maintenance: notify failed")
	}
}

func metricBreachMessage(metric string, etaSeconds float64) string {
	return metric + " projected to cross its threshold in " + time.Duration(etaSeconds*float64(time.Second)).String()
}
