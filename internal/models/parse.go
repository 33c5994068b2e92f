package models

import (
	"fmt"
	"strconv"
	"strings"
)

// kindAliases maps lower-cased wire labels to canonical kinds. Simulators
// and older feeds use short labels ("Saturation", "Alert") while the JSON
// boundary uses the full names.
var kindAliases = map[string]Kind{
	"heartrate":              KindHeartRate,
	"systolicbloodpressure":  KindSystolic,
	"systolicpressure":       KindSystolic,
	"diastolicbloodpressure": KindDiastolic,
	"diastolicpressure":      KindDiastolic,
	"bloodoxygensaturation":  KindSaturation,
	"saturation":             KindSaturation,
	"ecg":                    KindECG,
	"manualevent":            KindManualEvent,
	"alert":                  KindManualEvent,
}

// NormalizeKind resolves a wire label to a canonical Kind,
// case-insensitively and ignoring surrounding whitespace.
func NormalizeKind(label string) (Kind, error) {
	k, ok := kindAliases[strings.ToLower(strings.TrimSpace(label))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, label)
	}
	return k, nil
}

// ParseLine parses one record from the text feed format:
//
//	Patient ID: <id>, Timestamp: <ms>, Label: <kind>, Data: <value>
//
// Saturation values may carry a trailing "%" and Alert lines carry a
// status string ("triggered"/"resolved") instead of a number.
func ParseLine(line string) (Record, error) {
	parts := strings.Split(strings.TrimSpace(line), ", ")
	if len(parts) != 4 {
		return Record{}, fmt.Errorf("%w: expected 4 fields, got %d", ErrMalformedLine, len(parts))
	}

	fields := make([]string, 0, 4)
	for _, part := range parts {
		_, value, ok := strings.Cut(part, ": ")
		if !ok {
			return Record{}, fmt.Errorf("%w: field %q", ErrMalformedLine, part)
		}
		fields = append(fields, strings.TrimSpace(value))
	}

	patientID, err := strconv.Atoi(fields[0])
	if err != nil {
		return Record{}, fmt.Errorf("%w: patient id %q", ErrMalformedLine, fields[0])
	}

	timestamp, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("%w: timestamp %q", ErrMalformedLine, fields[1])
	}

	kind, err := NormalizeKind(fields[2])
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		PatientID: patientID,
		Kind:      kind,
		Timestamp: timestamp,
	}

	if kind == KindManualEvent {
		// The simulator emits bare "triggered"/"resolved"; the manual
		// event evaluator expects the "alert: <status>" form.
		status := strings.ToLower(fields[3])
		if !strings.HasPrefix(status, "alert:") {
			status = "alert: " + status
		}
		rec.Status = status
		return rec, nil
	}

	value, err := strconv.ParseFloat(strings.TrimSuffix(fields[3], "%"), 64)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %q", ErrMalformedValue, fields[3])
	}
	rec.Value = value

	return rec, nil
}
