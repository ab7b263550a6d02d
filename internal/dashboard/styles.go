package dashboard

import "github.com/charmbracelet/lipgloss"

// Style vocabulary grounded on the xtop dashboard's okStyle/warnStyle/
// critStyle/titleStyle/dimStyle convention: a small fixed palette reused
// across every rendered page rather than ad hoc colors per call site.
var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	critStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	borderStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)
)

// statusStyle picks a style for a metric value against its warn/crit
// thresholds (warn <= value < crit is warnStyle, value >= crit is
// critStyle, otherwise okStyle).
func statusStyle(value, warn, crit float64) lipgloss.Style {
	switch {
	case value >= crit:
		return critStyle
	case value >= warn:
		return warnStyle
	default:
		return okStyle
	}
}
