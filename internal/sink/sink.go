// Package sink delivers alerts to notification targets. The core engine
// hands over finished alerts; everything from here on is presentation and
// transport and must not alter the alert's condition, timestamp, or
// patient id.
package sink

import (
	"context"

	"vitalwatch/internal/models"
)

// Sink receives alerts for delivery.
type Sink interface {
	// Name identifies the sink in logs and metrics.
	Name() string

	Publish(ctx context.Context, alert models.Alert) error
	Close() error
}
