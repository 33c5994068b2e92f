package models

// CondNone is the sentinel condition meaning "rule ran, found nothing".
// It is not an error and must never reach a notification sink.
const CondNone = "none"

// Alert is a clinical alert produced by a rule evaluator. Alerts are
// immutable and carry no severity field; priority labelling is a
// presentation concern applied by the sink.
type Alert struct {
	// Patient identifier, stringified for transport
	PatientID string `json:"patient_id"`

	// Human-readable condition description, or CondNone
	Condition string `json:"condition"`

	// Milliseconds since the Unix epoch of the triggering record
	Timestamp int64 `json:"timestamp"`

	// Rule that produced the alert, e.g. "threshold", "ecg_peak"
	Rule string `json:"rule,omitempty"`
}

// NoAlert returns the sentinel alert for a patient with no detected condition.
func NoAlert(patientID string) Alert {
	return Alert{PatientID: patientID, Condition: CondNone}
}

// IsNone reports whether the alert is the "no condition detected" sentinel.
func (a Alert) IsNone() bool {
	return a.Condition == CondNone
}
