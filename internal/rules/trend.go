package rules

import (
	"fmt"

	"vitalwatch/internal/models"
)

// DefaultTrendDelta is the minimum per-step change for a trend alert.
const DefaultTrendDelta = 10.0

// Trend detects three consecutive readings of a kind that each rise (or
// each fall) by more than Delta. Fewer than three readings never alert.
type Trend struct {
	Kind  models.Kind
	Delta float64
}

// NewTrend creates a trend rule with the default delta.
func NewTrend(kind models.Kind) *Trend {
	return &Trend{Kind: kind, Delta: DefaultTrendDelta}
}

func (t *Trend) Name() string {
	return "trend_" + string(t.Kind)
}

func (t *Trend) Evaluate(patientID int, records []models.Record) models.Alert {
	filtered := ofKind(records, t.Kind)
	if len(filtered) < 3 {
		return none(patientID)
	}

	byTimestamp(filtered)

	for i := 2; i < len(filtered); i++ {
		first := filtered[i-2].Value
		second := filtered[i-1].Value
		third := filtered[i].Value

		increasing := second-first > t.Delta && third-second > t.Delta
		decreasing := first-second > t.Delta && second-third > t.Delta

		if increasing {
			return models.Alert{
				PatientID: patientKey(patientID),
				Condition: fmt.Sprintf("Increasing Trend in %s", t.Kind),
				Timestamp: filtered[i].Timestamp,
				Rule:      t.Name(),
			}
		}
		if decreasing {
			return models.Alert{
				PatientID: patientKey(patientID),
				Condition: fmt.Sprintf("Decreasing Trend in %s", t.Kind),
				Timestamp: filtered[i].Timestamp,
				Rule:      t.Name(),
			}
		}
	}

	return none(patientID)
}
