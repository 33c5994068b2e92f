package sink

import (
	"context"

	"vitalwatch/internal/logger"
	"vitalwatch/internal/metrics"
	"vitalwatch/internal/models"
)

// Console writes alerts to the service log. It is the default sink for
// local monitoring sessions.
type Console struct {
	decorations []Decoration
}

// NewConsole creates a console sink. Decorations, if any, are applied to
// the rendered display string only.
func NewConsole(decorations ...Decoration) *Console {
	return &Console{decorations: decorations}
}

func (c *Console) Name() string { return "console" }

// Publish logs the alert at warn level.
func (c *Console) Publish(ctx context.Context, alert models.Alert) error {
	log := logger.WithComponent("console_sink")
	log.Warn().
		Str("patient_id", alert.PatientID).
		Str("condition", alert.Condition).
		Str("rule", alert.Rule).
		Int64("timestamp", alert.Timestamp).
		Msg(Render(alert, c.decorations...))

	metrics.SinkPublishTotal.WithLabelValues(c.Name(), "success").Inc()
	return nil
}

func (c *Console) Close() error { return nil }
