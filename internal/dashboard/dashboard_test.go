package dashboard

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/oashraff/sysmon-ai/internal/config"
	"github.com/oashraff/sysmon-ai/internal/model"
)

type fakeSource struct {
	samples []model.Sample
	events  []model.Event
	err     error
}

func (f fakeSource) LatestN(ctx context.Context, host string, n int) ([]model.Sample, error) {
	return f.samples, f.err
}

func (f fakeSource) EventsWindow(ctx context.Context, typ model.EventType, from, to int64) ([]model.Event, error) {
	return f.events, f.err
}

func TestViewRendersNoDataPlaceholder(t *testing.T) {
	m := New(fakeSource{}, "h1", time.Second, config.Default().Thresholds)
	view := m.View()
	if !strings.Contains(view, "no samples yet") {
		t.Fatalf("expected placeholder, got: %s", view)
	}
}

func TestUpdateAppliesRefreshedSamples(t *testing.T) {
	m := New(fakeSource{}, "h1", time.Second, config.Default().Thresholds)
	sample := model.Sample{Ts: 1, Host: "h1", CPUPct: 95, MemPct: 50}
	updated, _ := m.Update(refreshedMsg{samples: []model.Sample{sample}})
	view := updated.(Model).View()
	if !strings.Contains(view, "cpu") {
		t.Fatalf("expected cpu row, got: %s", view)
	}
}

func TestUpdateAppliesErrMsg(t *testing.T) {
	m := New(fakeSource{}, "h1", time.Second, config.Default().Thresholds)
	updated, _ := m.Update(refreshErrMsg{err: context.DeadlineExceeded})
	view := updated.(Model).View()
	if !strings.Contains(view, "error reading store") {
		t.Fatalf("expected error view, got: %s", view)
	}
}

func TestQuitKeyReturnsQuitCmd(t *testing.T) {
	m := New(fakeSource{}, "h1", time.Second, config.Default().Thresholds)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected a quit command for 'q'")
	}
}
