// Package rules contains the clinical alerting rules. Each evaluator
// inspects one patient's record history and produces at most one alert
// per pass; the "none" sentinel condition means the rule ran and found
// nothing.
package rules

import (
	"sort"
	"strconv"

	"vitalwatch/internal/models"
)

// Evaluator is a single alerting rule. Evaluate receives the patient's
// full record history (any kinds, insertion order) and returns either a
// concrete alert or the "none" sentinel. Evaluators filter and sort the
// view themselves and must be safe for concurrent use.
type Evaluator interface {
	// Name identifies the rule in logs, metrics, and Alert.Rule.
	Name() string

	Evaluate(patientID int, records []models.Record) models.Alert
}

// ofKind filters records down to one kind, preserving order.
func ofKind(records []models.Record, kind models.Kind) []models.Record {
	out := make([]models.Record, 0, len(records))
	for _, rec := range records {
		if rec.Kind == kind {
			out = append(out, rec)
		}
	}
	return out
}

// byTimestamp sorts records chronologically in place, keeping insertion
// order for equal timestamps.
func byTimestamp(records []models.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp < records[j].Timestamp
	})
}

// fmtValue renders a measurement the shortest way that round-trips.
func fmtValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// displayName spells a kind out for human-readable alert conditions.
func displayName(kind models.Kind) string {
	switch kind {
	case models.KindHeartRate:
		return "Heart Rate"
	case models.KindSystolic:
		return "Systolic Blood Pressure"
	case models.KindDiastolic:
		return "Diastolic Blood Pressure"
	case models.KindSaturation:
		return "Blood Oxygen Saturation"
	case models.KindECG:
		return "ECG"
	default:
		return string(kind)
	}
}

func patientKey(patientID int) string {
	return strconv.Itoa(patientID)
}

func none(patientID int) models.Alert {
	return models.NoAlert(patientKey(patientID))
}
