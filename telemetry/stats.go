package telemetry

import (
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int `csv:"-"`
	WindowEndTick   int `csv:"window_end"`

	// Population counts at window end
	Population    int `csv:"population"`
	Herbivores    int `csv:"herbivores"`
	Carnivores    int `csv:"carnivores"`
	Omnivores     int `csv:"omnivores"`
	Autotrophs    int `csv:"autotrophs"`
	FilterFeeders int `csv:"filter_feeders"`
	Parasites     int `csv:"parasites"`
	Symbiotic     int `csv:"symbiotic"`
	Detritivores  int `csv:"detritivores"`
	Infected      int `csv:"infected"`
	Food          int `csv:"food"`
	MaxGeneration int `csv:"max_generation"`

	// Events during window
	Births          int `csv:"births"`
	Deaths          int `csv:"deaths"`
	DeathsAge       int `csv:"deaths_age"`
	DeathsPollution int `csv:"deaths_pollution"`
	DeathsPredation int `csv:"deaths_predation"`
	DeathsParasite  int `csv:"deaths_parasite"`
	DeathsHostDeath int `csv:"deaths_host_death"`
	DeathsOther     int `csv:"deaths_other"`
	Feedings        int `csv:"feedings"`
	OffspringEaten  int `csv:"offspring_eaten"`
	CorpsesRecycled int `csv:"corpses_recycled"`
	Truncated       int `csv:"truncated"`
	Infections      int `csv:"infections"`

	// Lifetimes of organisms that died during the window
	MeanLifespan float64 `csv:"mean_lifespan"`
	MeanChildren float64 `csv:"mean_children"`

	// Climate at window end
	Temperature float64 `csv:"temperature"`
	CO2         float64 `csv:"co2"`
	Pollution   float64 `csv:"pollution"`

	// Distributions sampled at window end
	EnergyMean float64 `csv:"energy_mean"`
	EnergyStd  float64 `csv:"energy_std"`
	EnergyP10  float64 `csv:"energy_p10"`
	EnergyP50  float64 `csv:"energy_p50"`
	EnergyP90  float64 `csv:"energy_p90"`
	HealthMean float64 `csv:"health_mean"`
	HealthP10  float64 `csv:"health_p10"`
	SizeMean   float64 `csv:"size_mean"`
	SizeP90    float64 `csv:"size_p90"`
}

// Distribution summarizes a sample of values.
type Distribution struct {
	Mean, Std     float64
	P10, P50, P90 float64
}

// ComputeDistribution calculates mean, standard deviation and percentiles.
// An empty sample yields the zero Distribution; a single value has Std 0.
func ComputeDistribution(values []float64) Distribution {
	n := len(values)
	if n == 0 {
		return Distribution{}
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	var d Distribution
	if n == 1 {
		d.Mean = sorted[0]
	} else {
		d.Mean, d.Std = stat.MeanStdDev(sorted, nil)
	}
	d.P10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	d.P50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	d.P90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	return d
}

// Predators returns the number of organisms that hunt.
func (s WindowStats) Predators() int {
	return s.Carnivores + s.Omnivores
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStartTick),
		slog.Int("window_end", s.WindowEndTick),
		slog.Int("population", s.Population),
		slog.Int("herbivores", s.Herbivores),
		slog.Int("carnivores", s.Carnivores),
		slog.Int("omnivores", s.Omnivores),
		slog.Int("autotrophs", s.Autotrophs),
		slog.Int("filter_feeders", s.FilterFeeders),
		slog.Int("parasites", s.Parasites),
		slog.Int("symbiotic", s.Symbiotic),
		slog.Int("detritivores", s.Detritivores),
		slog.Int("infected", s.Infected),
		slog.Int("food", s.Food),
		slog.Int("max_generation", s.MaxGeneration),
		slog.Int("births", s.Births),
		slog.Int("deaths", s.Deaths),
		slog.Int("deaths_age", s.DeathsAge),
		slog.Int("deaths_pollution", s.DeathsPollution),
		slog.Int("deaths_predation", s.DeathsPredation),
		slog.Int("deaths_parasite", s.DeathsParasite),
		slog.Int("deaths_host_death", s.DeathsHostDeath),
		slog.Int("deaths_other", s.DeathsOther),
		slog.Int("feedings", s.Feedings),
		slog.Int("offspring_eaten", s.OffspringEaten),
		slog.Int("corpses_recycled", s.CorpsesRecycled),
		slog.Int("truncated", s.Truncated),
		slog.Int("infections", s.Infections),
		slog.Float64("mean_lifespan", s.MeanLifespan),
		slog.Float64("mean_children", s.MeanChildren),
		slog.Float64("temperature", s.Temperature),
		slog.Float64("co2", s.CO2),
		slog.Float64("pollution", s.Pollution),
		slog.Float64("energy_mean", s.EnergyMean),
		slog.Float64("energy_std", s.EnergyStd),
		slog.Float64("energy_p10", s.EnergyP10),
		slog.Float64("energy_p50", s.EnergyP50),
		slog.Float64("energy_p90", s.EnergyP90),
		slog.Float64("health_mean", s.HealthMean),
		slog.Float64("health_p10", s.HealthP10),
		slog.Float64("size_mean", s.SizeMean),
		slog.Float64("size_p90", s.SizeP90),
	)
}

// LogStats logs the headline window stats.
func (s WindowStats) LogStats(logger *slog.Logger) {
	logger.Info("stats",
		"window_end", s.WindowEndTick,
		"population", s.Population,
		"herbivores", s.Herbivores,
		"predators", s.Predators(),
		"food", s.Food,
		"births", s.Births,
		"deaths", s.Deaths,
		"deaths_predation", s.DeathsPredation,
		"deaths_age", s.DeathsAge,
		"max_generation", s.MaxGeneration,
		"temperature", s.Temperature,
		"pollution", s.Pollution,
		"energy_mean", s.EnergyMean,
		"energy_p50", s.EnergyP50,
	)
}
