package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/biosphere/config"
	"github.com/pthm-cable/biosphere/telemetry"
)

func TestDefaultsMatchEmbeddedConfig(t *testing.T) {
	pv := NewParamVector()
	require.InDeltaSlice(t, pv.DefaultVector(), pv.ExtractFromConfig(config.Default()), 1e-9)
}

func TestApplyToConfigClamps(t *testing.T) {
	pv := NewParamVector()
	cfg := config.Default()

	values := pv.DefaultVector()
	values[0] = 1e6  // food_floor
	values[1] = 12.6 // food_per_update
	values[6] = -5   // repro_threshold
	pv.ApplyToConfig(cfg, values)

	require.Equal(t, 200, cfg.Food.Floor)
	require.Equal(t, 13, cfg.Food.PerUpdate)
	require.Equal(t, 10.0, cfg.Reproduction.EnergyThreshold)
	require.NoError(t, cfg.Validate())
}

func TestNormalizeDenormalize(t *testing.T) {
	pv := NewParamVector()
	def := pv.DefaultVector()
	norm := pv.Normalize(def)
	for _, v := range norm {
		require.GreaterOrEqual(t, v, 0.0)
		require.LessOrEqual(t, v, 1.0)
	}
	require.InDeltaSlice(t, def, pv.Denormalize(norm), 1e-9)
}

func TestComputeQuality(t *testing.T) {
	require.Zero(t, computeQuality(nil))

	steady := telemetry.WindowStats{
		Population: 80, Herbivores: 10, Carnivores: 10, Omnivores: 10, Autotrophs: 10,
		FilterFeeders: 10, Parasites: 10, Symbiotic: 10, Detritivores: 10,
		EnergyP50: 50,
	}
	sparse := telemetry.WindowStats{Population: 80, Herbivores: 80, EnergyP50: 5}

	good := computeQuality([]telemetry.WindowStats{steady, steady, steady, steady})
	poor := computeQuality([]telemetry.WindowStats{sparse, sparse, {Population: 2, Herbivores: 2}, sparse})

	require.InDelta(t, 1.0, good, 1e-9)
	require.Less(t, poor, good)
	require.GreaterOrEqual(t, poor, 0.0)
}

func TestRunSimulationRespectsMaxTicks(t *testing.T) {
	cfg := config.Default()
	cfg.Telemetry.WindowTicks = 10

	fe := NewFitnessEvaluator(NewParamVector(), 30, []int64{1}, cfg)
	result := fe.runSimulation(cfg, 1)

	require.LessOrEqual(t, result.survivalTicks, 30)
	require.Positive(t, result.survivalTicks)
	require.NotNil(t, result.snapshot)
	require.Equal(t, result.survivalTicks, result.snapshot.Tick)
}

func TestRunSimulationInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.World.Width = 0

	fe := NewFitnessEvaluator(NewParamVector(), 30, []int64{1}, cfg)
	result := fe.runSimulation(cfg, 1)

	require.Zero(t, result.survivalTicks)
	require.Nil(t, result.snapshot)
}

func TestEvaluateTracksBest(t *testing.T) {
	cfg := config.Default()
	pv := NewParamVector()

	fe := NewFitnessEvaluator(pv, 20, []int64{1, 2}, cfg)
	fitness := fe.Evaluate(pv.DefaultVector())

	require.Negative(t, fitness)
	require.NotNil(t, fe.BestSnapshot())
}
