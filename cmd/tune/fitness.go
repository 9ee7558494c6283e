package main

import (
	"math"
	"math/rand"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/biosphere/config"
	"github.com/pthm-cable/biosphere/environment"
	"github.com/pthm-cable/biosphere/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	maxTicks   int
	seeds      []int64
	baseConfig *config.Config

	// Best run tracking
	mu           sync.Mutex
	bestFitness  float64
	bestSnapshot *telemetry.Snapshot
	lastQuality  float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		bestFitness: math.Inf(1),
	}
}

// BestSnapshot returns the final state of the best evaluation.
func (fe *FitnessEvaluator) BestSnapshot() *telemetry.Snapshot {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestSnapshot
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// A population below minViablePop for graceTicks consecutive ticks counts as
// functionally extinct.
const (
	minViablePop = 3
	graceTicks   = 200
	warmupTicks  = 100
)

// runResult holds the results from a single simulation run.
type runResult struct {
	survivalTicks int // ticks before functional extinction (or maxTicks if survived)
	windowStats   []telemetry.WindowStats
	snapshot      *telemetry.Snapshot
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness  float64
	quality  float64
	snapshot *telemetry.Snapshot
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
// Fitness is negative survival ticks: longer survival = lower (better) fitness.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)

	// Seeds share one read-only config and run in parallel
	results := make([]seedResult, len(fe.seeds))
	var g errgroup.Group
	for i, seed := range fe.seeds {
		g.Go(func() error {
			result := fe.runSimulation(cfg, seed)
			quality := computeQuality(result.windowStats)
			results[i] = seedResult{
				fitness:  computeFitness(result.survivalTicks, quality),
				quality:  quality,
				snapshot: result.snapshot,
			}
			return nil
		})
	}
	_ = g.Wait()

	// Aggregate results
	var totalFitness, totalQuality float64
	bestSeedFitness := math.Inf(1)
	var bestSeedSnapshot *telemetry.Snapshot
	for _, r := range results {
		totalFitness += r.fitness
		totalQuality += r.quality
		if r.fitness < bestSeedFitness {
			bestSeedFitness = r.fitness
			bestSeedSnapshot = r.snapshot
		}
	}

	n := float64(len(fe.seeds))
	avgFitness := totalFitness / n

	fe.mu.Lock()
	if avgFitness < fe.bestFitness {
		fe.bestFitness = avgFitness
		fe.bestSnapshot = bestSeedSnapshot
	}
	fe.lastQuality = totalQuality / n
	fe.mu.Unlock()

	return avgFitness
}

// runSimulation executes a single headless run until functional extinction
// or maxTicks, whichever comes first. An invalid config survives zero ticks.
func (fe *FitnessEvaluator) runSimulation(cfg *config.Config, seed int64) *runResult {
	result := &runResult{}

	env, err := environment.New(cfg, rand.New(rand.NewSource(seed)))
	if err != nil {
		return result
	}

	belowTicks := 0
	for env.TickCount() < fe.maxTicks {
		env.Tick()

		frame := env.Frame()
		if frame.Window != nil {
			result.windowStats = append(result.windowStats, *frame.Window)
		}

		if frame.Population == 0 {
			break
		}
		if frame.Tick < warmupTicks {
			continue
		}
		if frame.Population < minViablePop {
			belowTicks++
		} else {
			belowTicks = 0
		}
		if belowTicks >= graceTicks {
			break
		}
	}

	result.survivalTicks = env.TickCount()
	result.snapshot = env.Snapshot("", nil)
	return result
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(survivalTicks × (1.0 + 0.2 × quality))
func computeFitness(survivalTicks int, quality float64) float64 {
	return -(float64(survivalTicks) * (1.0 + 0.2*quality))
}

// Quality component weights.
const (
	qualityWeightDiversity = 0.40
	qualityWeightStability = 0.35
	qualityWeightEnergy    = 0.25

	qualityWarmupWindows = 1 // skip first N windows
	variantKinds         = 8 // distinct counters in WindowStats
)

// computeQuality computes ecosystem quality ∈ [0, 1] from window stats.
func computeQuality(windows []telemetry.WindowStats) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}
	valid := windows[qualityWarmupWindows:]

	var diversitySum, energySum float64
	counts := make([]float64, 0, len(valid))
	for _, w := range valid {
		counts = append(counts, float64(w.Population))
		diversitySum += float64(presentVariants(w)) / variantKinds

		if w.Population > 0 {
			// Median energy near a comfortable level scores highest
			energySum += math.Exp(-math.Pow((w.EnergyP50-50)/30, 2))
		}
	}
	n := float64(len(valid))

	stabilityScore := 0.0
	if len(counts) >= 2 {
		mean, std := stat.MeanStdDev(counts, nil)
		if mean > 0 {
			cv := std / mean
			stabilityScore = math.Exp(-cv * cv)
		}
	}

	quality := qualityWeightDiversity*diversitySum/n +
		qualityWeightStability*stabilityScore +
		qualityWeightEnergy*energySum/n

	return clamp01(quality)
}

// presentVariants counts the variant groups with living members.
func presentVariants(w telemetry.WindowStats) int {
	n := 0
	for _, c := range []int{
		w.Herbivores, w.Carnivores, w.Omnivores, w.Autotrophs,
		w.FilterFeeders, w.Parasites, w.Symbiotic, w.Detritivores,
	} {
		if c > 0 {
			n++
		}
	}
	return n
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
