package main

import (
	"testing"
	"time"

	"github.com/oashraff/sysmon-ai/internal/config"
	"github.com/oashraff/sysmon-ai/internal/model"
	"github.com/oashraff/sysmon-ai/internal/rules"
)

func TestAnomalyConfigFromMapsConfigFields(t *testing.T) {
	cfg := config.Default()
	cfg.Anomaly.NEstimators = 50
	cfg.Features.ShortWindow = 7

	ac := anomalyConfigFrom(cfg)
	if ac.NEstimators != 50 {
		t.Errorf("NEstimators = %d, want 50", ac.NEstimators)
	}
	if ac.ShortWindow != 7 {
		t.Errorf("ShortWindow = %d, want 7", ac.ShortWindow)
	}
}

func TestForecastConfigFromPicksAlgoByName(t *testing.T) {
	cfg := config.Default()
	cfg.Forecast.Algo = "gbrt"
	fc := forecastConfigFrom(cfg)
	if fc.Algo != model.AlgoGradientBoost {
		t.Errorf("Algo = %v, want gradient boost", fc.Algo)
	}

	cfg.Forecast.Algo = "linear"
	fc = forecastConfigFrom(cfg)
	if fc.Algo != model.AlgoLinearRegressor {
		t.Errorf("Algo = %v, want linear regressor", fc.Algo)
	}
}

func TestForecastConfigFromConvertsHorizonHoursToSeconds(t *testing.T) {
	cfg := config.Default()
	cfg.Forecast.HorizonHours = 2
	fc := forecastConfigFrom(cfg)
	if fc.HorizonSeconds != 7200 {
		t.Errorf("HorizonSeconds = %v, want 7200", fc.HorizonSeconds)
	}
}

func TestDefaultRulesUsesConfiguredCooldown(t *testing.T) {
	cfg := config.Default()
	cfg.Rules.CooldownSeconds = 120
	rs := defaultRules(cfg)
	if len(rs) == 0 {
		t.Fatal("expected at least one default rule")
	}
	for _, r := range rs {
		if r.Cooldown != 120*time.Second {
			t.Errorf("rule %q cooldown = %v, want 120s", r.Name, r.Cooldown)
		}
	}
}

func TestDefaultRulesIncludesEveryKind(t *testing.T) {
	cfg := config.Default()
	rs := defaultRules(cfg)
	seen := map[rules.Kind]bool{}
	for _, r := range rs {
		seen[r.Kind] = true
	}
	for _, k := range []rules.Kind{rules.KindThreshold, rules.KindAnomaly, rules.KindForecast} {
		if !seen[k] {
			t.Errorf("expected a rule of kind %v", k)
		}
	}
}
