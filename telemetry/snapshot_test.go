package telemetry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pthm-cable/biosphere/components"
)

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()

	snapshot := &Snapshot{
		Version:     SnapshotVersion,
		RunID:       "a1b2c3d4",
		WorldWidth:  800,
		WorldHeight: 600,
		Tick:        1000,
		NextID:      17,
		Temperature: 21.5,
		CO2:         48,
		Pollution:   1,
		Food:        []FoodState{{X: 10, Y: 20, Nutrition: 7.5}},
		Organisms: []OrganismState{
			{
				ID:           3,
				Variant:      components.VariantHerbivore,
				Generation:   2,
				X:            150,
				Y:            250,
				Size:         6.4,
				Speed:        1.8,
				Color:        components.Color{R: 10, G: 200, B: 30},
				Shape:        components.ShapeSquare,
				Aggression:   0.2,
				Energy:       55,
				Health:       90,
				Age:          42,
				Alive:        true,
				Capabilities: components.Capabilities{CanEat: true, CanReproduce: true, CanWander: true},
				Memory:       []uint32{9},
				Lifetime:     &LifetimeStats{BirthTick: 958, Children: 1, Meals: 4, PeakEnergy: 70},
			},
		},
		Corpses: []OrganismState{
			{ID: 9, Variant: components.VariantCarnivore, Health: -3, DiedTick: 999, Cause: components.CauseAge},
		},
		Metrics: SeriesState{
			Population:  []int{10, 11},
			Pollution:   []float64{0, 0},
			Temperature: []float64{20, 20},
		},
		Bookmark: &Bookmark{
			Type:        BookmarkPopulationCrash,
			Tick:        1000,
			Description: "Test bookmark",
		},
	}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Snapshot file not created at %s", path)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	if diff := cmp.Diff(snapshot, loaded); diff != "" {
		t.Errorf("snapshot round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotFilename(t *testing.T) {
	tmpDir := t.TempDir()

	snapshot := &Snapshot{
		Version: SnapshotVersion,
		Tick:    5000,
		Bookmark: &Bookmark{
			Type: BookmarkPopulationCrash,
			Tick: 5000,
		},
	}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	expected := filepath.Join(tmpDir, "snapshot_5000_population_crash.json")
	if path != expected {
		t.Errorf("Path mismatch: got %s, want %s", path, expected)
	}

	path, err = SaveSnapshot(&Snapshot{Version: SnapshotVersion, Tick: 3000}, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	expected = filepath.Join(tmpDir, "snapshot_3000.json")
	if path != expected {
		t.Errorf("Path mismatch: got %s, want %s", path, expected)
	}
}

func TestLoadSnapshotRejectsOtherVersions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.json")
	if err := os.WriteFile(path, []byte(`{"version": 99, "tick": 5}`), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadSnapshot(path)
	if !errors.Is(err, ErrSnapshotVersion) {
		t.Errorf("err = %v, want ErrSnapshotVersion", err)
	}
}

func TestSeriesStateRoundTrip(t *testing.T) {
	var s Series
	s.Append(5, 0, 20)
	s.Append(6, 1, 21)

	restored := SeriesFromState(s.State())

	var got []Sample
	for sample := range restored.All() {
		got = append(got, sample)
	}
	want := []Sample{
		{Tick: 1, Population: 5, Pollution: 0, Temperature: 20},
		{Tick: 2, Population: 6, Pollution: 1, Temperature: 21},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("samples mismatch (-want +got):\n%s", diff)
	}
}
