package ingest

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vitalwatch/internal/logger"
	"vitalwatch/internal/metrics"
	"vitalwatch/internal/models"
	"vitalwatch/internal/store"
)

// FileReader loads historic measurement feeds from a directory of .txt
// files in the line format produced by bedside recorders:
//
//	Patient ID: 1, Timestamp: 1714376789050, Label: HeartRate, Data: 75.0
//
// Malformed lines are skipped and logged; they never abort the load.
type FileReader struct {
	dir   string
	store *store.Store
}

// NewFileReader creates a reader over the given directory.
func NewFileReader(dir string, st *store.Store) *FileReader {
	return &FileReader{dir: dir, store: st}
}

// Load reads every .txt file in the directory into the store and returns
// the number of records stored.
func (f *FileReader) Load() (int, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return 0, fmt.Errorf("data directory %s: %w", f.dir, err)
	}

	log := logger.WithComponent("file_reader")
	stored := 0
	files := 0

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		files++

		n, err := f.loadFile(filepath.Join(f.dir, entry.Name()))
		if err != nil {
			return stored, err
		}
		stored += n
	}

	if files == 0 {
		return 0, fmt.Errorf("no data files found in directory: %s", f.dir)
	}

	log.Info().
		Int("files", files).
		Int("records", stored).
		Str("dir", f.dir).
		Msg("file load complete")
	return stored, nil
}

func (f *FileReader) loadFile(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	log := logger.WithComponent("file_reader")
	stored := 0

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		rec, err := models.ParseLine(line)
		if err != nil {
			log.Warn().Err(err).Str("line", line).Msg("skipping malformed line")
			metrics.ReaderMessagesTotal.WithLabelValues("file", "skipped").Inc()
			continue
		}
		metrics.ReaderMessagesTotal.WithLabelValues("file", "parsed").Inc()

		outcome, err := f.store.Record(rec)
		metrics.IngestRecordsTotal.WithLabelValues("file", outcome.String()).Inc()
		if outcome == store.OutcomeInvalid {
			log.Warn().Err(err).Str("line", line).Msg("dropping invalid record")
			continue
		}
		if outcome == store.OutcomeStored {
			stored++
		}
	}

	if err := scanner.Err(); err != nil {
		return stored, fmt.Errorf("read %s: %w", path, err)
	}
	return stored, nil
}
