package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type yamlStub struct{ body string }

func (y yamlStub) WriteYAML(path string) error {
	return os.WriteFile(path, []byte(y.body), 0644)
}

func TestOutputManagerNil(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v", om, err)
	}
	// Every method is a no-op on nil.
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := om.WriteBookmark(Bookmark{}); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
	if om.Dir() != "" {
		t.Error("nil manager has a dir")
	}
}

func TestOutputManagerWritesHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	for i := range 3 {
		if err := om.WriteTelemetry(WindowStats{WindowEndTick: int64(i * 60), Alive: i}); err != nil {
			t.Fatal(err)
		}
	}
	if err := om.WritePerf(PerfStats{}, 60); err != nil {
		t.Fatal(err)
	}
	if err := om.WriteBookmark(Bookmark{Type: BookmarkFinished, Tick: 60, Description: "done"}); err != nil {
		t.Fatal(err)
	}
	if err := om.WriteConfig(yamlStub{"seed: 1\n"}); err != nil {
		t.Fatal(err)
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("telemetry.csv has %d lines, want 4", len(lines))
	}
	if !strings.HasPrefix(lines[0], "window_end,sim_time,systems") {
		t.Errorf("header = %q", lines[0])
	}
	if strings.Count(string(data), "window_end") != 1 {
		t.Error("header written more than once")
	}

	bm, err := os.ReadFile(filepath.Join(dir, "bookmarks.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(bm), "system_finished,60,done") {
		t.Errorf("bookmarks.csv = %q", bm)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("config.yaml: %v", err)
	}
}
