package notify

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/oashraff/sysmon-ai/internal/model"
)

// LogNotifier is the default Notifier: it stamps a correlation ID and
// writes the notification as a structured zerolog event. Used by
// cmd/sysmon-agentd whenever no richer notifier is wired.
type LogNotifier struct{}

// NewLogNotifier returns the default, always-available Notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Notify(notification model.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	ev := log.Warn()
	if notification.Severity == "critical" {
		ev = log.Error()
	}
	ev = ev.Str("notification_id", notification.ID).
		Str("severity", notification.Severity).
		Str("title", notification.Title)
	if notification.SourceEventID != nil {
		ev = ev.Int64("source_event_id", *notification.SourceEventID)
	}
	ev.Msg(notification.Body)
	return nil
}
