// Package store implements the concurrency-safe per-patient vital-sign
// time-series store. It is the ingestion boundary of the monitoring core:
// adapters parse their wire formats and call Record, evaluators read back
// through Query or Timeline.
package store

import (
	"math"
	"sort"
	"sync"

	"vitalwatch/internal/models"
)

// MaxTime is the largest queryable timestamp, used to request a patient's
// full history.
const MaxTime = int64(math.MaxInt64)

// Outcome describes the result of an ingestion attempt.
type Outcome int

const (
	// OutcomeStored means the record was appended to the timeline.
	OutcomeStored Outcome = iota

	// OutcomeDuplicate means a record with the same (kind, timestamp)
	// pair already existed and the new one was dropped. This is an
	// idempotent no-op, not an error: redelivering sources are expected.
	OutcomeDuplicate

	// OutcomeInvalid means the record failed validation and was dropped.
	OutcomeInvalid
)

// String returns the outcome label used in logs and metrics.
func (o Outcome) String() string {
	switch o {
	case OutcomeStored:
		return "stored"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Store is a thread-safe registry of patient timelines. Timelines are
// created lazily on first record and never evicted; the dataset is a
// monitoring session, not long-term storage. The registry lock only
// guards the patient map, so traffic for different patients never
// serializes on it.
type Store struct {
	mu        sync.RWMutex
	timelines map[int]*Timeline
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		timelines: make(map[int]*Timeline),
	}
}

// Record validates and ingests a single measurement. Invalid records
// (non-finite value, negative timestamp) are dropped with OutcomeInvalid
// and the validation error; duplicates of an already stored
// (kind, timestamp) pair are dropped with OutcomeDuplicate and a nil
// error. Ingestion of other patients and records always continues.
func (s *Store) Record(rec models.Record) (Outcome, error) {
	if err := rec.Validate(); err != nil {
		return OutcomeInvalid, err
	}

	if !s.timeline(rec.PatientID).Append(rec) {
		return OutcomeDuplicate, nil
	}
	return OutcomeStored, nil
}

// Add is a convenience wrapper over Record for numeric measurements.
func (s *Store) Add(patientID int, kind models.Kind, value float64, timestamp int64) (Outcome, error) {
	return s.Record(models.Record{
		PatientID: patientID,
		Kind:      kind,
		Value:     value,
		Timestamp: timestamp,
	})
}

// Query returns the patient's records with timestamps in
// [startTime, endTime], in insertion order. An unknown patient id yields
// an empty slice, never an error.
func (s *Store) Query(patientID int, startTime, endTime int64) []models.Record {
	s.mu.RLock()
	t, ok := s.timelines[patientID]
	s.mu.RUnlock()

	if !ok {
		return nil
	}
	return t.Range(startTime, endTime)
}

// History returns the patient's full record history in insertion order.
func (s *Store) History(patientID int) []models.Record {
	return s.Query(patientID, 0, MaxTime)
}

// AllPatientIDs returns the ids of every patient seen so far, sorted
// ascending for deterministic iteration.
func (s *Store) AllPatientIDs() []int {
	s.mu.RLock()
	ids := make([]int, 0, len(s.timelines))
	for id := range s.timelines {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	sort.Ints(ids)
	return ids
}

// Len returns the number of known patients.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.timelines)
}

// Clear drops all patients and records. Used for session resets.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timelines = make(map[int]*Timeline)
}

// timeline returns the patient's timeline, creating it on first use.
func (s *Store) timeline(patientID int) *Timeline {
	s.mu.RLock()
	t, ok := s.timelines[patientID]
	s.mu.RUnlock()
	if ok {
		return t
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok = s.timelines[patientID]; ok {
		return t
	}
	t = newTimeline(patientID)
	s.timelines[patientID] = t
	return t
}
