package models

import (
	"errors"
	"math"
)

// Kind identifies the type of a vital-sign measurement
type Kind string

const (
	KindHeartRate   Kind = "HeartRate"
	KindSystolic    Kind = "SystolicBloodPressure"
	KindDiastolic   Kind = "DiastolicBloodPressure"
	KindSaturation  Kind = "BloodOxygenSaturation"
	KindECG         Kind = "ECG"
	KindManualEvent Kind = "ManualEvent"
)

// Record represents a single timestamped measurement for one patient.
// Records are immutable once created.
type Record struct {
	// Patient identifier
	PatientID int `json:"patientId"`

	// Measurement kind
	Kind Kind `json:"recordType"`

	// Numeric measurement value (unused for ManualEvent records)
	Value float64 `json:"measurementValue"`

	// Status string carried by ManualEvent records, e.g. "alert: triggered"
	Status string `json:"status,omitempty"`

	// Milliseconds since the Unix epoch
	Timestamp int64 `json:"timestamp"`
}

// Validation errors
var (
	ErrInvalidPatientID  = errors.New("patient id must be positive")
	ErrInvalidKind       = errors.New("invalid record kind")
	ErrNonFiniteValue    = errors.New("measurement value must be finite")
	ErrNegativeTimestamp = errors.New("timestamp cannot be negative")
	ErrEmptyStatus       = errors.New("manual event status cannot be empty")
	ErrMalformedLine     = errors.New("malformed record line")
	ErrMalformedValue    = errors.New("malformed measurement value")
)

// Validate checks if the Record has valid field values
func (r *Record) Validate() error {
	if r.PatientID <= 0 {
		return ErrInvalidPatientID
	}

	if !r.Kind.IsValid() {
		return ErrInvalidKind
	}

	if r.Timestamp < 0 {
		return ErrNegativeTimestamp
	}

	if r.Kind == KindManualEvent {
		if r.Status == "" {
			return ErrEmptyStatus
		}
		return nil
	}

	if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
		return ErrNonFiniteValue
	}

	return nil
}

// IsValid checks if the kind is a known measurement type
func (k Kind) IsValid() bool {
	switch k {
	case KindHeartRate, KindSystolic, KindDiastolic, KindSaturation, KindECG, KindManualEvent:
		return true
	default:
		return false
	}
}

// Numeric reports whether records of this kind carry a numeric value.
func (k Kind) Numeric() bool {
	return k != KindManualEvent
}
