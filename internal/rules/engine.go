package rules

import (
	"fmt"
	"time"

	"github.com/oashraff/sysmon-ai/internal/model"
)

// ruleStatus is one rule's position in the Armed → Firing → Cooling →
// Armed state machine (spec §4.I). Firing is momentary (the same call
// that detects the breach both fires and transitions to Cooling), so
// only Armed and Cooling are retained between calls.
type ruleStatus int

const (
	statusArmed ruleStatus = iota
	statusCooling
)

type ruleState struct {
	status      ruleStatus
	cooldownEnd time.Time
}

// Engine owns cooldown state for a fixed rule set. Owned exclusively by
// the maintenance thread per spec §5 ("no cross-thread access"); it is
// not safe for concurrent use from multiple goroutines.
type Engine struct {
	rules []Rule
	state map[string]*ruleState
}

// NewEngine builds an Engine for rules, all starting Armed. On process
// restart (a fresh Engine), every rule is eligible again per spec §4.I
// ("cooldown state is in-memory").
func NewEngine(rules []Rule) *Engine {
	state := make(map[string]*ruleState, len(rules))
	for _, r := range rules {
		state[r.Name] = &ruleState{status: statusArmed}
	}
	return &Engine{rules: rules, state: state}
}

// EvaluateSample checks every threshold rule against sample, firing
// those whose condition is breached and whose cooldown has expired.
func (e *Engine) EvaluateSample(sample model.Sample, now time.Time) []model.Notification {
	var out []model.Notification
	for _, r := range e.rules {
		if r.Kind != KindThreshold {
			continue
		}
		if !e.armed(r.Name, now) {
			continue
		}
		v, ok := sample.Value(r.Metric)
		if !ok || !r.breaches(v) {
			continue
		}
		out = append(out, e.fire(r, now, fmt.Sprintf("%s %s %.2f (value %.2f)", r.Metric, r.Op, r.Value, v), nil))
	}
	return out
}

// EvaluateEvent checks anomaly and forecast rules against a newly
// written Event.
func (e *Engine) EvaluateEvent(ev model.Event, now time.Time) []model.Notification {
	var out []model.Notification
	for _, r := range e.rules {
		if !e.armed(r.Name, now) {
			continue
		}
		switch {
		case r.Kind == KindAnomaly && ev.Type == model.EventAnomaly:
			if ev.Score == nil || *ev.Score < r.MinScore {
				continue
			}
			out = append(out, e.fire(r, now,
				fmt.Sprintf("anomaly score %.3f >= %.3f: %s", *ev.Score, r.MinScore, ev.Explanation), &ev.ID))

		case r.Kind == KindForecast && ev.Type == model.EventForecastBreach:
			if ev.Score == nil || *ev.Score > r.MinEtaSeconds {
				continue
			}
			out = append(out, e.fire(r, now,
				fmt.Sprintf("forecast breach in %.0fs (rule min %.0fs): %s", *ev.Score, r.MinEtaSeconds, ev.Explanation), &ev.ID))
		}
	}
	return out
}

// armed reports whether rule name's cooldown has expired, transitioning
// Cooling → Armed if so.
func (e *Engine) armed(name string, now time.Time) bool {
	st := e.state[name]
	if st == nil {
		return false
	}
	if st.status == statusCooling && !now.Before(st.cooldownEnd) {
		st.status = statusArmed
	}
	return st.status == statusArmed
}

// fire transitions rule into Cooling and builds its Notification. ID is
// left blank; the notify package stamps a correlation ID on delivery.
func (e *Engine) fire(r Rule, now time.Time, body string, sourceEventID *int64) model.Notification {
	st := e.state[r.Name]
	st.status = statusCooling
	st.cooldownEnd = now.Add(r.Cooldown)

	return model.Notification{
		Severity:      severityFor(r.Kind),
		Title:         fmt.Sprintf("rule %q fired", r.Name),
		Body:          body,
		SourceEventID: sourceEventID,
	}
}

func severityFor(k Kind) string {
	switch k {
	case KindAnomaly, KindForecast:
		return "warning"
	default:
		return "critical"
	}
}
