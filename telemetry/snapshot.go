package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot captures the published frames of every particle system at
// one tick, for offline inspection.
type Snapshot struct {
	Version int    `json:"version"`
	Scene   string `json:"scene,omitempty"`
	Tick    int64  `json:"tick"`

	Systems []SystemState `json:"systems"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// SystemState is one system's published frame.
type SystemState struct {
	Name     string     `json:"name"`
	State    string     `json:"state"`
	Sequence uint64     `json:"sequence"`
	SimTime  float64    `json:"sim_time"`
	BoxMin   [3]float64 `json:"box_min"`
	BoxMax   [3]float64 `json:"box_max"`
	Center   [3]float64 `json:"center"`
	Radius   float64    `json:"radius"`

	Particles []ParticleState `json:"particles"`
}

// ParticleState is one particle in world space.
type ParticleState struct {
	Position    [3]float64 `json:"pos"`
	Velocity    [3]float64 `json:"vel"`
	Age         float64    `json:"age"`
	VisibleTime float64    `json:"visible_time"`
	Size        float64    `json:"size"`
	Color       [4]float64 `json:"color"`
	Orientation float64    `json:"orientation"`
	Tile        int        `json:"tile"`
}

// ParticleCount returns the total number of particles captured.
func (s *Snapshot) ParticleCount() int {
	n := 0
	for _, sys := range s.Systems {
		n += len(sys.Particles)
	}
	return n
}

// SaveSnapshot writes a snapshot into dir and returns its path.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Tick)
	if snapshot.Bookmark != nil {
		name += "_" + strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
	}
	path := filepath.Join(dir, name+".json")

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot %s: unsupported version %d", path, snapshot.Version)
	}
	return &snapshot, nil
}
