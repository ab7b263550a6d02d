package notify

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/oashraff/sysmon-ai/internal/model"
)

func TestLogNotifierStampsIDWhenBlank(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = prev }()

	n := NewLogNotifier()
	note := model.Notification{Severity: "warning", Title: "t", Body: "b"}
	if err := n.Notify(note); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	var logged map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logged); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if id, _ := logged["notification_id"].(string); id == "" {
		t.Fatalf("notification_id = %q, want a stamped ID", id)
	}
}

func TestLogNotifierNeverErrors(t *testing.T) {
	n := NewLogNotifier()
	srcID := int64(42)
	note := model.Notification{ID: "preset", Severity: "critical", Title: "t", Body: "b", SourceEventID: &srcID}
	if err := n.Notify(note); err != nil {
		t.Fatalf("Notify: %v", err)
	}
}
