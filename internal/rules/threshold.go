package rules

import (
	"fmt"

	"vitalwatch/internal/models"
)

// Threshold flags the first record of a kind whose value falls outside
// the inclusive [Min, Max] range. Records are scanned in timestamp order
// so a redelivered history yields the same alert.
type Threshold struct {
	Kind models.Kind
	Min  float64
	Max  float64
}

// NewThreshold creates a threshold rule for one measurement kind.
func NewThreshold(kind models.Kind, min, max float64) *Threshold {
	return &Threshold{Kind: kind, Min: min, Max: max}
}

func (t *Threshold) Name() string {
	return "threshold_" + string(t.Kind)
}

func (t *Threshold) Evaluate(patientID int, records []models.Record) models.Alert {
	filtered := ofKind(records, t.Kind)
	byTimestamp(filtered)

	for _, rec := range filtered {
		if rec.Value < t.Min || rec.Value > t.Max {
			return models.Alert{
				PatientID: patientKey(patientID),
				Condition: fmt.Sprintf("Critical %s: %s", t.Kind, fmtValue(rec.Value)),
				Timestamp: rec.Timestamp,
				Rule:      t.Name(),
			}
		}
	}

	return none(patientID)
}
