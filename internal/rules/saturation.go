package rules

import (
	"fmt"

	"vitalwatch/internal/models"
)

// Rapid-drop defaults for blood oxygen saturation.
const (
	DefaultDropThreshold = 5.0
	DefaultDropWindowMs  = 600_000
	DefaultLowSaturation = 92.0
)

// RapidDrop detects a fall of at least DropThreshold between any two
// readings within WindowMs of each other. A rapid drop outranks the
// low-value fallback: only when no drop is found does the rule flag the
// first reading below LowThreshold.
type RapidDrop struct {
	Kind          models.Kind
	DropThreshold float64
	WindowMs      int64
	LowThreshold  float64
}

// NewRapidDrop creates the saturation rule with its clinical defaults.
func NewRapidDrop() *RapidDrop {
	return &RapidDrop{
		Kind:          models.KindSaturation,
		DropThreshold: DefaultDropThreshold,
		WindowMs:      DefaultDropWindowMs,
		LowThreshold:  DefaultLowSaturation,
	}
}

func (r *RapidDrop) Name() string {
	return "rapid_drop_" + string(r.Kind)
}

func (r *RapidDrop) Evaluate(patientID int, records []models.Record) models.Alert {
	filtered := ofKind(records, r.Kind)
	byTimestamp(filtered)

	for i := range filtered {
		earlier := filtered[i]
		for j := i + 1; j < len(filtered); j++ {
			later := filtered[j]
			// Records are time-sorted, so once the gap exceeds the
			// window no later pairing with this record can qualify.
			if later.Timestamp-earlier.Timestamp > r.WindowMs {
				break
			}

			if earlier.Value-later.Value >= r.DropThreshold {
				return models.Alert{
					PatientID: patientKey(patientID),
					Condition: fmt.Sprintf("Rapid Drop in %s: from %s to %s",
						displayName(r.Kind), fmtValue(earlier.Value), fmtValue(later.Value)),
					Timestamp: later.Timestamp,
					Rule:      r.Name(),
				}
			}
		}
	}

	for _, rec := range filtered {
		if rec.Value < r.LowThreshold {
			return models.Alert{
				PatientID: patientKey(patientID),
				Condition: fmt.Sprintf("Low %s: %s", displayName(r.Kind), fmtValue(rec.Value)),
				Timestamp: rec.Timestamp,
				Rule:      r.Name(),
			}
		}
	}

	return none(patientID)
}
