package main

import (
	"math"

	"github.com/pthm-cable/biosphere/config"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value

	get func(*config.Config) float64
	set func(*config.Config, float64)
}

// ParamVector holds the set of all tunable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of tunable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Food pool
			{Name: "food_floor", Path: "food.floor", Min: 10, Max: 200, Default: 50,
				get: func(c *config.Config) float64 { return float64(c.Food.Floor) },
				set: func(c *config.Config, v float64) { c.Food.Floor = int(math.Round(v)) }},
			{Name: "food_per_update", Path: "food.per_update", Min: 1, Max: 40, Default: 10,
				get: func(c *config.Config) float64 { return float64(c.Food.PerUpdate) },
				set: func(c *config.Config, v float64) { c.Food.PerUpdate = int(math.Round(v)) }},
			{Name: "food_nutrition_max", Path: "food.nutrition_max", Min: 5, Max: 40, Default: 20,
				get: func(c *config.Config) float64 { return c.Food.NutritionMax },
				set: func(c *config.Config, v float64) { c.Food.NutritionMax = math.Max(v, c.Food.NutritionMin) }},
			// Energy
			{Name: "move_cost", Path: "energy.move_cost", Min: 0.005, Max: 0.08, Default: 0.02,
				get: func(c *config.Config) float64 { return c.Energy.MoveCost },
				set: func(c *config.Config, v float64) { c.Energy.MoveCost = v }},
			{Name: "base_decay", Path: "energy.base_decay", Min: 0.02, Max: 0.5, Default: 0.1,
				get: func(c *config.Config) float64 { return c.Energy.BaseDecay },
				set: func(c *config.Config, v float64) { c.Energy.BaseDecay = v }},
			{Name: "sunlight_gain", Path: "energy.sunlight_gain", Min: 0, Max: 1, Default: 0.1,
				get: func(c *config.Config) float64 { return c.Energy.SunlightGain },
				set: func(c *config.Config, v float64) { c.Energy.SunlightGain = v }},
			// Reproduction
			{Name: "repro_threshold", Path: "reproduction.energy_threshold", Min: 10, Max: 90, Default: 30,
				get: func(c *config.Config) float64 { return c.Reproduction.EnergyThreshold },
				set: func(c *config.Config, v float64) { c.Reproduction.EnergyThreshold = v }},
			{Name: "repro_chance", Path: "reproduction.chance", Min: 0.01, Max: 0.5, Default: 0.1,
				get: func(c *config.Config) float64 { return c.Reproduction.Chance },
				set: func(c *config.Config, v float64) { c.Reproduction.Chance = v }},
			// Mutation
			{Name: "mutation_chance", Path: "mutation.chance", Min: 0, Max: 0.5, Default: 0.1,
				get: func(c *config.Config) float64 { return c.Mutation.Chance },
				set: func(c *config.Config, v float64) { c.Mutation.Chance = v }},
			// Combat
			{Name: "attack_damage", Path: "combat.attack_damage", Min: 5, Max: 50, Default: 20,
				get: func(c *config.Config) float64 { return c.Combat.AttackDamage },
				set: func(c *config.Config, v float64) { c.Combat.AttackDamage = v }},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = math.Min(math.Max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into cfg.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	for i, v := range pv.Clamp(values) {
		pv.Specs[i].set(cfg, v)
	}
}

// ExtractFromConfig reads current parameter values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.get(cfg)
	}
	return v
}
