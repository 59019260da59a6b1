package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/warren/config"
)

// csvStream appends records to one CSV file, writing the header once.
type csvStream struct {
	file          *os.File
	headerWritten bool
}

func openStream(dir, name string) (*csvStream, error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &csvStream{file: f}, nil
}

func (s *csvStream) write(records any) error {
	if !s.headerWritten {
		if err := gocsv.Marshal(records, s.file); err != nil {
			return err
		}
		s.headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, s.file)
}

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir       string
	stats     *csvStream
	resets    *csvStream
	perf      *csvStream
	bookmarks *csvStream
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	for _, s := range []struct {
		name string
		dst  **csvStream
	}{
		{"stats.csv", &om.stats},
		{"resets.csv", &om.resets},
		{"perf.csv", &om.perf},
		{"bookmarks.csv", &om.bookmarks},
	} {
		stream, err := openStream(dir, s.name)
		if err != nil {
			om.Close()
			return nil, err
		}
		*s.dst = stream
	}
	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteStats writes a window stats record to stats.csv.
func (om *OutputManager) WriteStats(stats WindowStats) error {
	if om == nil {
		return nil
	}
	if err := om.stats.write([]WindowStats{stats}); err != nil {
		return fmt.Errorf("writing stats: %w", err)
	}
	return nil
}

// WriteReset writes a reset event to resets.csv.
func (om *OutputManager) WriteReset(ev ResetEvent) error {
	if om == nil {
		return nil
	}
	if err := om.resets.write([]ResetEvent{ev}); err != nil {
		return fmt.Errorf("writing reset: %w", err)
	}
	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int32) error {
	if om == nil {
		return nil
	}
	if err := om.perf.write([]PerfStatsCSV{stats.ToCSV(windowEnd)}); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteBookmark writes a bookmark record to bookmarks.csv.
func (om *OutputManager) WriteBookmark(b Bookmark) error {
	if om == nil {
		return nil
	}
	if err := om.bookmarks.write([]Bookmark{b}); err != nil {
		return fmt.Errorf("writing bookmark: %w", err)
	}
	return nil
}

// DumpCounts rewrites counts.csv with the full history.
func (om *OutputManager) DumpCounts(records []CountsRecord) (string, error) {
	if om == nil {
		return "", nil
	}
	path := filepath.Join(om.dir, "counts.csv")
	if err := WriteCountsCSV(path, records); err != nil {
		return "", err
	}
	return path, nil
}

// WriteCountsCSV writes records with a header to path, replacing the file.
func WriteCountsCSV(path string, records []CountsRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating counts file: %w", err)
	}
	defer f.Close()
	if err := gocsv.Marshal(records, f); err != nil {
		return fmt.Errorf("writing counts: %w", err)
	}
	return nil
}

// ReadCountsCSV parses a counts file written by WriteCountsCSV.
func ReadCountsCSV(path string) ([]CountsRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening counts file: %w", err)
	}
	defer f.Close()
	var records []CountsRecord
	if err := gocsv.UnmarshalFile(f, &records); err != nil {
		return nil, fmt.Errorf("parsing counts: %w", err)
	}
	return records, nil
}

// SaveFrame writes a frame JSON under the output directory.
func (om *OutputManager) SaveFrame(f *Frame) (string, error) {
	if om == nil {
		return "", nil
	}
	return SaveFrame(filepath.Join(om.dir, "frames"), f)
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, s := range []*csvStream{om.stats, om.resets, om.perf, om.bookmarks} {
		if s == nil || s.file == nil {
			continue
		}
		if err := s.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
