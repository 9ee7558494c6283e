package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("embedded defaults should validate: %v", err)
	}
	if cfg.World.Width != 800 || cfg.World.Height != 600 {
		t.Errorf("world = %gx%g, want 800x600", cfg.World.Width, cfg.World.Height)
	}
	for _, name := range VariantNames {
		if _, ok := cfg.Variants[name]; !ok {
			t.Errorf("default capability set missing for %s", name)
		}
	}
	if cfg.Food.PerUpdate != 10 {
		t.Errorf("food.per_update = %d, want 10", cfg.Food.PerUpdate)
	}
}

func TestLoadOverlaysUserFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.yaml")
	data := []byte("world:\n  width: 320\npopulation:\n  max: 12\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.World.Width != 320 {
		t.Errorf("width = %g, want 320", cfg.World.Width)
	}
	// Untouched fields keep their defaults
	if cfg.World.Height != 600 {
		t.Errorf("height = %g, want default 600", cfg.World.Height)
	}
	if cfg.Population.Max != 12 {
		t.Errorf("population.max = %d, want 12", cfg.Population.Max)
	}
	// The default source at (600,450) no longer fits and is dropped
	want := []Point{{X: 200, Y: 150}}
	if len(cfg.World.WaterSources) != 1 || cfg.World.WaterSources[0] != want[0] {
		t.Errorf("water sources = %v, want %v", cfg.World.WaterSources, want)
	}
}

func TestLoadRejectsUserWaterOutsideWorld(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.yaml")
	data := []byte("world:\n  width: 320\n  water_sources:\n    - {x: 400, y: 10}\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); !errors.Is(err, ErrInvalid) {
		t.Errorf("Load err = %v, want ErrInvalid", err)
	}
}

func TestLoadKeepsExplicitEmptyWater(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.yaml")
	data := []byte("world:\n  water_sources: []\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.World.WaterSources) != 0 {
		t.Errorf("water sources = %v, want none", cfg.World.WaterSources)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"negative width", func(c *Config) { c.World.Width = -1 }},
		{"zero height", func(c *Config) { c.World.Height = 0 }},
		{"zero cap", func(c *Config) { c.Population.Max = 0 }},
		{"unknown variant in mix", func(c *Config) { c.Population.InitialMix["dragon"] = 1 }},
		{"negative mix count", func(c *Config) { c.Population.InitialMix[VariantHerbivore] = -3 }},
		{"mix without capabilities", func(c *Config) { delete(c.Variants, VariantParasite) }},
		{"probability above one", func(c *Config) { c.Mutation.Chance = 1.5 }},
		{"size range beyond max", func(c *Config) { c.Organism.InitialSizeMax = c.Organism.MaxSize + 1 }},
		{"water outside world", func(c *Config) { c.World.WaterSources = []Point{{X: -5, Y: 10}} }},
		{"inverted nutrition", func(c *Config) { c.Food.NutritionMin = 30 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default().Clone()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("error %v should wrap ErrInvalid", err)
			}
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	base := Default()
	clone := base.Clone()
	clone.Population.InitialMix[VariantHerbivore] = 999
	clone.Variants[VariantHerbivore] = CapabilityConfig{}
	clone.World.WaterSources = nil

	if base.Population.InitialMix[VariantHerbivore] == 999 {
		t.Error("clone shares initial_mix with base")
	}
	if !base.Variants[VariantHerbivore].CanEat {
		t.Error("clone shares variants with base")
	}
	if len(base.World.WaterSources) == 0 {
		t.Error("clone shares water sources with base")
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := Default()
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Combat.AttackDamage != cfg.Combat.AttackDamage {
		t.Errorf("attack_damage = %g, want %g", loaded.Combat.AttackDamage, cfg.Combat.AttackDamage)
	}
}
