// Package dashboard renders a terminal view of recent samples and
// events (spec.md §6.5's external renderer). Grounded on xtop's
// bubbletea.Model ticking an engine and re-rendering on each tick;
// narrowed here to poll the embedded store instead of live /proc reads.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/oashraff/sysmon-ai/internal/config"
	"github.com/oashraff/sysmon-ai/internal/model"
)

// DataSource is the read surface the dashboard needs from the store,
// kept narrow and local so this package doesn't need to import
// internal/store directly (matching internal/ingest's BatchStore
// idiom of a locally-defined consumer interface).
type DataSource interface {
	LatestN(ctx context.Context, host string, n int) ([]model.Sample, error)
	EventsWindow(ctx context.Context, typ model.EventType, from, to int64) ([]model.Event, error)
}

type tickMsg time.Time

// Model is the bubbletea.Model polling DataSource on a fixed cadence.
type Model struct {
	source   DataSource
	host     string
	interval time.Duration
	thresh   config.Thresholds

	samples []model.Sample
	events  []model.Event
	err     error
	width   int
	height  int
}

// New builds a dashboard Model polling source for host at interval.
func New(source DataSource, host string, interval time.Duration, thresh config.Thresholds) Model {
	return Model{source: source, host: host, interval: interval, thresh: thresh}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refresh(), tickEvery(m.interval))
}

func tickEvery(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) refresh() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		samples, err := m.source.LatestN(ctx, m.host, 60)
		if err != nil {
			return refreshErrMsg{err}
		}
		now := time.Now().Unix()
		events, err := m.source.EventsWindow(ctx, "", now-3600, now)
		if err != nil {
			return refreshErrMsg{err}
		}
		return refreshedMsg{samples: samples, events: events}
	}
}

type refreshedMsg struct {
	samples []model.Sample
	events  []model.Event
}
type refreshErrMsg struct{ err error }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
	case tickMsg:
		return m, tea.Batch(m.refresh(), tickEvery(m.interval))
	case refreshedMsg:
		m.samples = msg.samples
		m.events = msg.events
		m.err = nil
		return m, nil
	case refreshErrMsg:
		m.err = msg.err
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("sysmon-agentd — %s", m.host)))
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render("q to quit"))
	sb.WriteString("\n\n")

	if m.err != nil {
		sb.WriteString(critStyle.Render(fmt.Sprintf("error reading store: %v", m.err)))
		return sb.String()
	}

	sb.WriteString(renderLatest(m.samples, m.thresh))
	sb.WriteString("\n")
	sb.WriteString(renderEvents(m.events))
	return sb.String()
}

func renderLatest(samples []model.Sample, thresh config.Thresholds) string {
	if len(samples) == 0 {
		return dimStyle.Render("(no samples yet)")
	}
	latest := samples[len(samples)-1]

	row := func(label string, value, warn, crit float64, unit string) string {
		style := statusStyle(value, warn, crit)
		return fmt.Sprintf("%-12s %s", label, style.Render(fmt.Sprintf("%6.2f%s", value, unit)))
	}

	var sb strings.Builder
	sb.WriteString(borderStyle.Render(strings.Join([]string{
		row("cpu", latest.CPUPct, thresh.CPUPct*0.8, thresh.CPUPct, "%"),
		row("mem", latest.MemPct, thresh.MemPct*0.8, thresh.MemPct, "%"),
		row("swap", latest.SwapPct, thresh.SwapPct*0.8, thresh.SwapPct, "%"),
		fmt.Sprintf("%-12s %6.0f KB/s", "disk read", latest.DiskReadBps/1024),
		fmt.Sprintf("%-12s %6.0f KB/s", "disk write", latest.DiskWriteBps/1024),
		fmt.Sprintf("%-12s %6.0f KB/s", "net up", latest.NetUpBps/1024),
		fmt.Sprintf("%-12s %6.0f KB/s", "net down", latest.NetDownBps/1024),
		fmt.Sprintf("%-12s %6d", "procs", latest.ProcCount),
	}, "\n")))
	return sb.String()
}

func renderEvents(events []model.Event) string {
	if len(events) == 0 {
		return dimStyle.Render("(no events in the last hour)")
	}
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("recent events"))
	sb.WriteString("\n")
	// events arrive newest first; show the ten most recent.
	end := len(events)
	if end > 10 {
		end = 10
	}
	for _, ev := range events[:end] {
		style := warnStyle
		if ev.Type == model.EventForecastBreach {
			style = critStyle
		}
		sb.WriteString(style.Render(fmt.Sprintf("[%s] %s", ev.Type, ev.Explanation)))
		sb.WriteString("\n")
	}
	return sb.String()
}
