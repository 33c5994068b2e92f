package rules

import (
	"strings"

	"vitalwatch/internal/models"
)

// Manual event status strings and the conditions they map to.
const (
	statusTriggered = "alert: triggered"
	statusResolved  = "alert: resolved"

	CondManualTriggered = "Manual Triggered Alert"
	CondManualResolved  = "Manual Resolved Alert"
)

// ManualAlert maps an externally supplied status string to an alert.
// Matching is case-insensitive and ignores surrounding whitespace. The
// second return value is false when the input is missing or irrelevant;
// that is a distinct outcome from a "none" alert, so callers can tell
// "rule ran, found nothing" apart from "input was invalid".
func ManualAlert(patientID string, message string, timestamp int64) (models.Alert, bool) {
	if patientID == "" || message == "" {
		return models.Alert{}, false
	}

	switch strings.ToLower(strings.TrimSpace(message)) {
	case statusTriggered:
		return models.Alert{
			PatientID: patientID,
			Condition: CondManualTriggered,
			Timestamp: timestamp,
			Rule:      "manual_event",
		}, true
	case statusResolved:
		return models.Alert{
			PatientID: patientID,
			Condition: CondManualResolved,
			Timestamp: timestamp,
			Rule:      "manual_event",
		}, true
	default:
		return models.Alert{}, false
	}
}

// ManualEvent surfaces staff-triggered alert events stored in the
// timeline. The first ManualEvent record (in timestamp order) with a
// recognized status wins; unrecognized statuses are skipped.
type ManualEvent struct{}

// NewManualEvent creates the manual event rule.
func NewManualEvent() *ManualEvent {
	return &ManualEvent{}
}

func (m *ManualEvent) Name() string {
	return "manual_event"
}

func (m *ManualEvent) Evaluate(patientID int, records []models.Record) models.Alert {
	filtered := ofKind(records, models.KindManualEvent)
	byTimestamp(filtered)

	for _, rec := range filtered {
		if alert, ok := ManualAlert(patientKey(patientID), rec.Status, rec.Timestamp); ok {
			return alert
		}
	}

	return none(patientID)
}
