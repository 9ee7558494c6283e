package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/biosphere/components"
)

func TestComputeDistribution(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   Distribution
	}{
		{"empty slice", nil, Distribution{}},
		{"single element", []float64{5}, Distribution{Mean: 5, P10: 5, P50: 5, P90: 5}},
		{
			"one to ten",
			[]float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1},
			Distribution{Mean: 5.5, Std: 3.0277, P10: 1, P50: 5, P90: 9},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeDistribution(tt.values)
			check := func(field string, got, want float64) {
				if math.Abs(got-want) > 0.001 {
					t.Errorf("%s = %v, want %v", field, got, want)
				}
			}
			check("mean", got.Mean, tt.want.Mean)
			check("std", got.Std, tt.want.Std)
			check("p10", got.P10, tt.want.P10)
			check("p50", got.P50, tt.want.P50)
			check("p90", got.P90, tt.want.P90)
		})
	}
}

func TestComputeDistributionDoesNotReorderInput(t *testing.T) {
	values := []float64{3, 1, 2}
	ComputeDistribution(values)
	if values[0] != 3 || values[1] != 1 || values[2] != 2 {
		t.Errorf("input was modified: %v", values)
	}
}

func TestCollectorFlush(t *testing.T) {
	c := NewCollector(10)

	c.RecordBirth()
	c.RecordBirth()
	c.RecordDeath(components.CausePredation, 8, &LifetimeStats{BirthTick: 2, Children: 1})
	c.RecordDeath(components.CauseAge, 9, &LifetimeStats{BirthTick: 1, Children: 3})
	c.RecordDeath(components.CauseOther, 9, nil)
	c.RecordFeeding()
	c.RecordTruncation(4)

	if c.ShouldFlush(9) {
		t.Fatal("window of 10 should not flush at tick 9")
	}
	if !c.ShouldFlush(10) {
		t.Fatal("window of 10 should flush at tick 10")
	}

	stats := c.Flush(10, PopulationSample{
		Counts:   map[components.Variant]int{components.VariantHerbivore: 3, components.VariantCarnivore: 1},
		Food:     42,
		Energies: []float64{10, 20, 30, 40},
	})

	if stats.Population != 4 || stats.Herbivores != 3 || stats.Predators() != 1 {
		t.Errorf("counts = %d/%d/%d", stats.Population, stats.Herbivores, stats.Predators())
	}
	if stats.Births != 2 || stats.Deaths != 3 {
		t.Errorf("births=%d deaths=%d", stats.Births, stats.Deaths)
	}
	if stats.DeathsPredation != 1 || stats.DeathsAge != 1 || stats.DeathsOther != 1 {
		t.Errorf("causes predation=%d age=%d other=%d", stats.DeathsPredation, stats.DeathsAge, stats.DeathsOther)
	}
	if stats.MeanLifespan != 7 {
		t.Errorf("mean lifespan = %v, want 7", stats.MeanLifespan)
	}
	if stats.MeanChildren != 2 {
		t.Errorf("mean children = %v, want 2", stats.MeanChildren)
	}
	if stats.Truncated != 4 || stats.Feedings != 1 || stats.Food != 42 {
		t.Errorf("truncated=%d feedings=%d food=%d", stats.Truncated, stats.Feedings, stats.Food)
	}
	if stats.EnergyMean != 25 {
		t.Errorf("energy mean = %v, want 25", stats.EnergyMean)
	}

	next := c.Flush(20, PopulationSample{})
	if next.Births != 0 || next.Deaths != 0 || next.DeathsAge != 0 || next.WindowStartTick != 10 {
		t.Errorf("counters not reset: %+v", next)
	}
}
