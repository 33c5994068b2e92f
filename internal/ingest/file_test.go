package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"vitalwatch/internal/models"
	"vitalwatch/internal/store"
)

func writeFeed(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write feed file: %v", err)
	}
}

func TestFileReaderLoad(t *testing.T) {
	dir := t.TempDir()
	writeFeed(t, dir, "vitals.txt", `Patient ID: 1, Timestamp: 1000, Label: HeartRate, Data: 75.0
Patient ID: 1, Timestamp: 2000, Label: SystolicPressure, Data: 120.0
Patient ID: 2, Timestamp: 1000, Label: Saturation, Data: 97.0%
`)

	st := store.New()
	n, err := NewFileReader(dir, st).Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if n != 3 {
		t.Errorf("stored = %d, want 3", n)
	}

	records := st.History(2)
	if len(records) != 1 || records[0].Kind != models.KindSaturation || records[0].Value != 97.0 {
		t.Errorf("patient 2 history = %+v", records)
	}
}

func TestFileReaderSkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	writeFeed(t, dir, "vitals.txt", `Patient ID: 1, Timestamp: 1000, Label: HeartRate, Data: 75.0
this line is garbage
Patient ID: 1, Timestamp: 2000, Label: HeartRate, Data: not-a-number

Patient ID: 1, Timestamp: 3000, Label: HeartRate, Data: 80.0
`)

	st := store.New()
	n, err := NewFileReader(dir, st).Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if n != 2 {
		t.Errorf("stored = %d, want 2", n)
	}
}

func TestFileReaderDeduplicatesAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	line := "Patient ID: 1, Timestamp: 1000, Label: HeartRate, Data: 75.0\n"
	writeFeed(t, dir, "a.txt", line)
	writeFeed(t, dir, "b.txt", line)

	st := store.New()
	n, err := NewFileReader(dir, st).Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if n != 1 {
		t.Errorf("stored = %d, want 1 after dedup", n)
	}
}

func TestFileReaderIgnoresNonTxt(t *testing.T) {
	dir := t.TempDir()
	writeFeed(t, dir, "vitals.txt", "Patient ID: 1, Timestamp: 1000, Label: HeartRate, Data: 75.0\n")
	writeFeed(t, dir, "notes.md", "Patient ID: 9, Timestamp: 1000, Label: HeartRate, Data: 75.0\n")

	st := store.New()
	if _, err := NewFileReader(dir, st).Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if st.Query(9, 0, store.MaxTime) != nil {
		t.Error("records from non-.txt files must not be loaded")
	}
}

func TestFileReaderEmptyDirectory(t *testing.T) {
	st := store.New()
	if _, err := NewFileReader(t.TempDir(), st).Load(); err == nil {
		t.Error("expected error for directory without data files")
	}
}

func TestFileReaderMissingDirectory(t *testing.T) {
	st := store.New()
	if _, err := NewFileReader("/nonexistent/path", st).Load(); err == nil {
		t.Error("expected error for missing directory")
	}
}
