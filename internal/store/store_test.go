package store_test

import (
	"math"
	"sync"
	"testing"

	"vitalwatch/internal/models"
	"vitalwatch/internal/store"
)

func TestRecordAndQuery(t *testing.T) {
	s := store.New()

	outcome, err := s.Add(1, models.KindHeartRate, 72, 1000)
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if outcome != store.OutcomeStored {
		t.Fatalf("expected OutcomeStored, got %v", outcome)
	}

	records := s.Query(1, 0, 2000)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Value != 72 || records[0].Kind != models.KindHeartRate {
		t.Errorf("unexpected record: %+v", records[0])
	}
}

func TestDedupIdempotence(t *testing.T) {
	s := store.New()

	first, err := s.Add(1, models.KindHeartRate, 72, 1000)
	if err != nil || first != store.OutcomeStored {
		t.Fatalf("first Add: outcome %v, err %v", first, err)
	}

	second, err := s.Add(1, models.KindHeartRate, 72, 1000)
	if err != nil {
		t.Fatalf("duplicate Add returned error: %v", err)
	}
	if second != store.OutcomeDuplicate {
		t.Fatalf("expected OutcomeDuplicate, got %v", second)
	}

	if got := len(s.History(1)); got != 1 {
		t.Errorf("expected exactly 1 stored record, got %d", got)
	}
}

func TestDedupIsPerKind(t *testing.T) {
	s := store.New()

	s.Add(1, models.KindHeartRate, 72, 1000)

	// Same timestamp, different kind: not a duplicate.
	outcome, _ := s.Add(1, models.KindSaturation, 97, 1000)
	if outcome != store.OutcomeStored {
		t.Errorf("different kind at same timestamp should store, got %v", outcome)
	}

	// Same kind and value one millisecond later: not a duplicate.
	outcome, _ = s.Add(1, models.KindHeartRate, 72, 1001)
	if outcome != store.OutcomeStored {
		t.Errorf("same kind at different timestamp should store, got %v", outcome)
	}

	if got := len(s.History(1)); got != 3 {
		t.Errorf("expected 3 records, got %d", got)
	}
}

func TestDedupAcrossPatients(t *testing.T) {
	s := store.New()

	s.Add(1, models.KindHeartRate, 72, 1000)
	outcome, _ := s.Add(2, models.KindHeartRate, 72, 1000)
	if outcome != store.OutcomeStored {
		t.Errorf("same (kind, timestamp) for another patient should store, got %v", outcome)
	}
}

func TestInvalidRecords(t *testing.T) {
	s := store.New()

	tests := []struct {
		name  string
		value float64
		ts    int64
	}{
		{"NaN value", math.NaN(), 1000},
		{"infinite value", math.Inf(1), 1000},
		{"negative timestamp", 72, -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := s.Add(1, models.KindHeartRate, tt.value, tt.ts)
			if outcome != store.OutcomeInvalid {
				t.Errorf("expected OutcomeInvalid, got %v", outcome)
			}
			if err == nil {
				t.Error("expected validation error")
			}
		})
	}

	if got := len(s.History(1)); got != 0 {
		t.Errorf("invalid records must not be stored, got %d", got)
	}
}

func TestQueryRangeIsInclusive(t *testing.T) {
	s := store.New()

	for _, ts := range []int64{1000, 2000, 3000, 4000} {
		s.Add(1, models.KindHeartRate, 70, ts)
	}

	records := s.Query(1, 2000, 3000)
	if len(records) != 2 {
		t.Fatalf("expected 2 records in [2000, 3000], got %d", len(records))
	}
	if records[0].Timestamp != 2000 || records[1].Timestamp != 3000 {
		t.Errorf("unexpected range result: %+v", records)
	}
}

func TestQueryPreservesInsertionOrder(t *testing.T) {
	s := store.New()

	// Insert out of timestamp order.
	s.Add(1, models.KindHeartRate, 70, 3000)
	s.Add(1, models.KindHeartRate, 71, 1000)
	s.Add(1, models.KindHeartRate, 72, 2000)

	records := s.History(1)
	want := []int64{3000, 1000, 2000}
	for i, ts := range want {
		if records[i].Timestamp != ts {
			t.Fatalf("insertion order not preserved: got %+v", records)
		}
	}
}

func TestMaxTimeCoversFullHistory(t *testing.T) {
	s := store.New()

	if store.MaxTime != math.MaxInt64 {
		t.Fatalf("MaxTime = %d, want math.MaxInt64", store.MaxTime)
	}

	s.Add(1, models.KindHeartRate, 70, 0)
	s.Add(1, models.KindHeartRate, 71, store.MaxTime)

	records := s.History(1)
	if len(records) != 2 {
		t.Fatalf("expected both boundary records, got %d", len(records))
	}
	if records[1].Timestamp != store.MaxTime {
		t.Errorf("record at the maximum timestamp not returned: %+v", records)
	}
}

func TestQueryUnknownPatient(t *testing.T) {
	s := store.New()
	if records := s.Query(42, 0, store.MaxTime); len(records) != 0 {
		t.Errorf("unknown patient should yield empty result, got %d records", len(records))
	}
}

func TestAllPatientIDs(t *testing.T) {
	s := store.New()
	s.Add(3, models.KindHeartRate, 70, 1000)
	s.Add(1, models.KindHeartRate, 70, 1000)
	s.Add(2, models.KindHeartRate, 70, 1000)

	ids := s.AllPatientIDs()
	want := []int{1, 2, 3}
	if len(ids) != len(want) {
		t.Fatalf("expected %d ids, got %d", len(want), len(ids))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("expected sorted ids %v, got %v", want, ids)
			break
		}
	}
}

func TestClear(t *testing.T) {
	s := store.New()
	s.Add(1, models.KindHeartRate, 70, 1000)
	s.Clear()

	if s.Len() != 0 {
		t.Errorf("expected empty store after Clear, got %d patients", s.Len())
	}
	if records := s.History(1); len(records) != 0 {
		t.Errorf("expected no records after Clear, got %d", len(records))
	}
}

func TestDedupLongHistory(t *testing.T) {
	s := store.New()
	const n = 2000

	for i := 0; i < n; i++ {
		ts := int64(i)
		if outcome, _ := s.Add(1, models.KindHeartRate, 70, ts); outcome != store.OutcomeStored {
			t.Fatalf("Add(ts=%d) = %v, want OutcomeStored", ts, outcome)
		}
		// Replays of already stored pairs stay duplicates no matter how
		// long the history is.
		if outcome, _ := s.Add(1, models.KindHeartRate, 70, 0); outcome != store.OutcomeDuplicate {
			t.Fatalf("replay after %d records = %v, want OutcomeDuplicate", i+1, outcome)
		}
	}

	if got := len(s.History(1)); got != n {
		t.Errorf("expected %d records, got %d", n, got)
	}
}

func TestConcurrentIngestion(t *testing.T) {
	s := store.New()
	const n = 200

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(ts int64) {
			defer wg.Done()
			if outcome, err := s.Add(1, models.KindHeartRate, 70, ts); err != nil || outcome != store.OutcomeStored {
				t.Errorf("Add(ts=%d): outcome %v, err %v", ts, outcome, err)
			}
		}(int64(i))
	}
	wg.Wait()

	if got := len(s.Query(1, 0, n)); got != n {
		t.Errorf("expected %d records after concurrent ingestion, got %d", n, got)
	}
}

func TestConcurrentDuplicates(t *testing.T) {
	s := store.New()
	const n = 50

	stored := make(chan store.Outcome, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, _ := s.Add(1, models.KindHeartRate, 70, 1000)
			stored <- outcome
		}()
	}
	wg.Wait()
	close(stored)

	wins := 0
	for outcome := range stored {
		if outcome == store.OutcomeStored {
			wins++
		}
	}
	if wins != 1 {
		t.Errorf("exactly one concurrent identical Add should win, got %d", wins)
	}
	if got := len(s.History(1)); got != 1 {
		t.Errorf("expected 1 stored record, got %d", got)
	}
}
