package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/biosphere/components"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// ErrSnapshotVersion is returned when loading a snapshot written by an
// incompatible version.
var ErrSnapshotVersion = errors.New("unsupported snapshot version")

// Snapshot holds the complete environment state.
type Snapshot struct {
	Version int    `json:"version"`
	RunID   string `json:"run_id,omitempty"`

	WorldWidth  float64 `json:"world_width"`
	WorldHeight float64 `json:"world_height"`

	Tick        int     `json:"tick"`
	NextID      uint32  `json:"next_id"`
	Temperature float64 `json:"temperature"`
	CO2         float64 `json:"co2"`
	Pollution   float64 `json:"pollution"`

	Food      []FoodState     `json:"food"`
	Organisms []OrganismState `json:"organisms"`
	Corpses   []OrganismState `json:"corpses"`
	Metrics   SeriesState     `json:"metrics"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// FoodState is one food item.
type FoodState struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Nutrition float64 `json:"nutrition"`
}

// OrganismState holds one organism's complete state. Memory lists the IDs of
// remembered predators that were alive when the snapshot was taken.
type OrganismState struct {
	ID         uint32                   `json:"id"`
	Variant    components.Variant       `json:"variant"`
	Autotroph  components.AutotrophKind `json:"autotroph"`
	Generation int                      `json:"generation"`

	X     float64          `json:"x"`
	Y     float64          `json:"y"`
	Size  float64          `json:"size"`
	Speed float64          `json:"speed"`
	Color components.Color `json:"color"`
	Shape components.Shape `json:"shape"`

	Aggression          float64 `json:"aggression"`
	Defense             float64 `json:"defense"`
	PollutionResistance float64 `json:"pollution_resistance"`
	ToxinAbsorption     bool    `json:"toxin_absorption"`

	Energy     float64               `json:"energy"`
	Health     float64               `json:"health"`
	Age        int                   `json:"age"`
	Experience int                   `json:"experience"`
	Alive      bool                  `json:"alive"`
	Infected   bool                  `json:"infected"`
	DiedTick   int                   `json:"died_tick,omitempty"`
	Cause      components.DeathCause `json:"cause,omitempty"`
	Recycled   bool                  `json:"recycled,omitempty"`

	Capabilities components.Capabilities `json:"capabilities"`
	Memory       []uint32                `json:"memory,omitempty"`

	Lifetime *LifetimeStats `json:"lifetime,omitempty"`
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	// Build filename
	name := fmt.Sprintf("snapshot_%d", snapshot.Tick)
	if snapshot.Bookmark != nil {
		// Sanitize bookmark type for filename
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Tick, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

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
		return nil, fmt.Errorf("%w: %d", ErrSnapshotVersion, snapshot.Version)
	}

	return &snapshot, nil
}
