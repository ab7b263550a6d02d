// Package notify defines the external notification surface (spec.md
// §6.2-6.3): delivery is fire-and-forget, failures are logged and never
// propagated back to the rule engine that raised the Notification.
package notify

import "github.com/oashraff/sysmon-ai/internal/model"

// Notifier delivers a Notification to wherever the operator actually
// looks (a log stream, a desktop alert, a webhook). Implementations
// must not block the maintenance thread for long; Notify is called
// synchronously by the maintenance loop for each Notification the rule
// engine returns.
type Notifier interface {
	Notify(n model.Notification) error
}
