package telemetry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// ConfigWriter is anything that can persist itself as YAML.
type ConfigWriter interface {
	WriteYAML(path string) error
}

// csvLog is an append-only CSV file whose header is written with the
// first record.
type csvLog struct {
	name   string
	f      *os.File
	header bool
}

func openCSV(dir, name string) (*csvLog, error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &csvLog{name: name, f: f}, nil
}

func (l *csvLog) write(records any) error {
	var err error
	if l.header {
		err = gocsv.MarshalWithoutHeaders(records, l.f)
	} else {
		err = gocsv.Marshal(records, l.f)
		l.header = err == nil
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", l.name, err)
	}
	return nil
}

// OutputManager writes run output: telemetry.csv, perf.csv and
// bookmarks.csv plus the resolved config and snapshots. A nil manager
// discards everything.
type OutputManager struct {
	dir       string
	telemetry *csvLog
	perf      *csvLog
	bookmarks *csvLog
}

// NewOutputManager creates dir and opens the CSV logs. It returns nil
// when dir is empty.
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	for _, target := range []struct {
		dst  **csvLog
		name string
	}{
		{&om.telemetry, "telemetry.csv"},
		{&om.perf, "perf.csv"},
		{&om.bookmarks, "bookmarks.csv"},
	} {
		l, err := openCSV(dir, target.name)
		if err != nil {
			om.Close()
			return nil, err
		}
		*target.dst = l
	}
	return om, nil
}

// WriteConfig saves the resolved configuration as config.yaml.
func (om *OutputManager) WriteConfig(cfg ConfigWriter) error {
	if om == nil || cfg == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteTelemetry appends a window to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}
	return om.telemetry.write([]WindowStats{stats})
}

// WritePerf appends a perf row to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int64) error {
	if om == nil {
		return nil
	}
	return om.perf.write([]PerfStatsCSV{stats.ToCSV(windowEnd)})
}

// WriteBookmark appends a bookmark to bookmarks.csv.
func (om *OutputManager) WriteBookmark(b Bookmark) error {
	if om == nil {
		return nil
	}
	return om.bookmarks.write([]Bookmark{b})
}

// WriteSnapshot stores a snapshot under the snapshots subdirectory.
func (om *OutputManager) WriteSnapshot(s *Snapshot) (string, error) {
	if om == nil || s == nil {
		return "", nil
	}
	return SaveSnapshot(s, filepath.Join(om.dir, "snapshots"))
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close closes every open file and returns the first error.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	var firstErr error
	for _, l := range []*csvLog{om.telemetry, om.perf, om.bookmarks} {
		if l == nil {
			continue
		}
		if err := l.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var _ io.Closer = (*OutputManager)(nil)
