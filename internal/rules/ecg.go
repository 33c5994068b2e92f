package rules

import (
	"fmt"

	"vitalwatch/internal/models"
)

// Sliding-window peak detection defaults.
const (
	DefaultECGWindowSize = 5
	DefaultECGMultiplier = 1.5
)

// ECGPeak flags an ECG sample that spikes above the moving average of
// the trailing window. The window average includes the sample under
// test: each value is added to the window (evicting the oldest once the
// window is full) before the comparison is made, so the detection is
// order-dependent and only starts once WindowSize samples have arrived.
type ECGPeak struct {
	Kind       models.Kind
	WindowSize int
	Multiplier float64
}

// NewECGPeak creates the peak rule with default window and multiplier.
func NewECGPeak() *ECGPeak {
	return &ECGPeak{
		Kind:       models.KindECG,
		WindowSize: DefaultECGWindowSize,
		Multiplier: DefaultECGMultiplier,
	}
}

func (e *ECGPeak) Name() string {
	return "ecg_peak"
}

func (e *ECGPeak) Evaluate(patientID int, records []models.Record) models.Alert {
	filtered := ofKind(records, e.Kind)
	byTimestamp(filtered)

	window := make([]float64, 0, e.WindowSize)
	sum := 0.0

	for _, rec := range filtered {
		window = append(window, rec.Value)
		sum += rec.Value

		if len(window) > e.WindowSize {
			sum -= window[0]
			window = window[1:]
		}

		if len(window) < e.WindowSize {
			continue
		}

		average := sum / float64(e.WindowSize)
		if rec.Value > average*e.Multiplier {
			return models.Alert{
				PatientID: patientKey(patientID),
				Condition: fmt.Sprintf("Abnormal ECG peak detected: %s (avg: %s)",
					fmtValue(rec.Value), fmtValue(average)),
				Timestamp: rec.Timestamp,
				Rule:      e.Name(),
			}
		}
	}

	return none(patientID)
}
