package store

import (
	"sync"

	"vitalwatch/internal/models"
)

// Timeline holds the append-only record history for one patient.
// Records are kept in insertion order; callers that need chronological
// order must sort by timestamp themselves.
type Timeline struct {
	patientID int
	mu        sync.RWMutex
	records   []models.Record

	// seen indexes the stored (kind, timestamp) pairs so the duplicate
	// check stays constant-time as the session history grows.
	seen map[dedupKey]struct{}
}

type dedupKey struct {
	kind      models.Kind
	timestamp int64
}

func newTimeline(patientID int) *Timeline {
	return &Timeline{
		patientID: patientID,
		seen:      make(map[dedupKey]struct{}),
	}
}

// Append adds a record unless a record with the same (kind, timestamp)
// pair is already present. It returns false when the record was dropped
// as a duplicate. The duplicate check and the append are atomic with
// respect to concurrent appends and readers.
func (t *Timeline) Append(rec models.Record) bool {
	key := dedupKey{kind: rec.Kind, timestamp: rec.Timestamp}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, dup := t.seen[key]; dup {
		return false
	}

	t.seen[key] = struct{}{}
	t.records = append(t.records, rec)
	return true
}

// Range returns the records with startTime <= Timestamp <= endTime,
// in insertion order. The returned slice is a copy and safe to retain.
func (t *Timeline) Range(startTime, endTime int64) []models.Record {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]models.Record, 0, len(t.records))
	for _, rec := range t.records {
		if rec.Timestamp >= startTime && rec.Timestamp <= endTime {
			out = append(out, rec)
		}
	}
	return out
}

// All returns every record for the patient in insertion order.
func (t *Timeline) All() []models.Record {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]models.Record, len(t.records))
	copy(out, t.records)
	return out
}

// Len returns the number of stored records.
func (t *Timeline) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}

// PatientID returns the id of the patient this timeline belongs to.
func (t *Timeline) PatientID() int {
	return t.patientID
}
