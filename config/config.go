// Package config provides configuration loading and validation for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every configuration error. A config that fails
// validation cannot be used to build an environment.
var ErrInvalid = errors.New("invalid configuration")

// Variant names accepted in population.initial_mix and variants.
const (
	VariantHerbivore    = "herbivore"
	VariantCarnivore    = "carnivore"
	VariantOmnivore     = "omnivore"
	VariantPhototroph   = "phototroph"
	VariantChemotroph   = "chemotroph"
	VariantFilterFeeder = "filter_feeder"
	VariantParasite     = "parasite"
	VariantSymbiotic    = "symbiotic"
	VariantDetritivore  = "detritivore"
)

// VariantNames lists every known variant in spawn order.
var VariantNames = []string{
	VariantHerbivore,
	VariantCarnivore,
	VariantOmnivore,
	VariantPhototroph,
	VariantChemotroph,
	VariantFilterFeeder,
	VariantParasite,
	VariantSymbiotic,
	VariantDetritivore,
}

// Config holds all simulation configuration parameters.
// It is built once, validated, and then treated as read-only.
type Config struct {
	World        WorldConfig                 `yaml:"world"`
	Population   PopulationConfig            `yaml:"population"`
	Variants     map[string]CapabilityConfig `yaml:"variants"`
	Organism     OrganismConfig              `yaml:"organism"`
	Energy       EnergyConfig                `yaml:"energy"`
	Aging        AgingConfig                 `yaml:"aging"`
	Feeding      FeedingConfig               `yaml:"feeding"`
	Reproduction ReproductionConfig          `yaml:"reproduction"`
	Mutation     MutationConfig              `yaml:"mutation"`
	Combat       CombatConfig                `yaml:"combat"`
	Behavior     BehaviorConfig              `yaml:"behavior"`
	Climate      ClimateConfig               `yaml:"climate"`
	Food         FoodConfig                  `yaml:"food"`
	Disease      DiseaseConfig               `yaml:"disease"`
	Telemetry    TelemetryConfig             `yaml:"telemetry"`
}

// Point is a fixed location in world coordinates.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// WorldConfig holds world bounds and the starting climate.
type WorldConfig struct {
	Width              float64 `yaml:"width"`
	Height             float64 `yaml:"height"`
	InitialTemperature float64 `yaml:"initial_temperature"`
	InitialCO2         float64 `yaml:"initial_co2"`
	InitialPollution   float64 `yaml:"initial_pollution"`
	WaterSources       []Point `yaml:"water_sources"`
}

// PopulationConfig holds the population cap and the founder mix.
type PopulationConfig struct {
	Max        int            `yaml:"max"`
	InitialMix map[string]int `yaml:"initial_mix"`
}

// CapabilityConfig is the capability flag set given to a variant at construction.
type CapabilityConfig struct {
	CanAttack       bool `yaml:"can_attack"`
	CanEat          bool `yaml:"can_eat"`
	CanReproduce    bool `yaml:"can_reproduce"`
	CanChangeColor  bool `yaml:"can_change_color"`
	CanChangeShape  bool `yaml:"can_change_shape"`
	CanEatOffspring bool `yaml:"can_eat_offspring"`
	CanWander       bool `yaml:"can_wander"`
}

// OrganismConfig holds trait bounds and founder trait ranges.
type OrganismConfig struct {
	MaxSize            float64 `yaml:"max_size"`
	MaxSpeed           float64 `yaml:"max_speed"`
	MaxEnergy          float64 `yaml:"max_energy"`
	MaxHealth          float64 `yaml:"max_health"`
	EatingRadiusFactor float64 `yaml:"eating_radius_factor"`
	InitialEnergy      float64 `yaml:"initial_energy"`
	InitialSizeMin     float64 `yaml:"initial_size_min"`
	InitialSizeMax     float64 `yaml:"initial_size_max"`
	InitialSpeedMin    float64 `yaml:"initial_speed_min"`
	InitialSpeedMax    float64 `yaml:"initial_speed_max"`
}

// EnergyConfig holds energy accounting parameters.
type EnergyConfig struct {
	MoveCost            float64 `yaml:"move_cost"`             // per unit of size per tick
	OldAge              int     `yaml:"old_age"`               // age above which movement costs more
	OldAgeMultiplier    float64 `yaml:"old_age_multiplier"`    // movement cost multiplier when old
	LowEnergy           float64 `yaml:"low_energy"`            // energy below which movement costs more
	LowEnergyMultiplier float64 `yaml:"low_energy_multiplier"` // movement cost multiplier when starving
	BaseDecay           float64 `yaml:"base_decay"`            // unconditional drain per tick
	SunlightGain        float64 `yaml:"sunlight_gain"`
	FoodBonusFactor     float64 `yaml:"food_bonus_factor"` // recovery per food item in the pool
	SunlightChance      float64 `yaml:"sunlight_chance"`
}

// AgingConfig holds senescence parameters.
type AgingConfig struct {
	SenescenceAge     int     `yaml:"senescence_age"`
	SenescencePenalty float64 `yaml:"senescence_penalty"`
}

// FeedingConfig holds food conversion parameters.
type FeedingConfig struct {
	IntakeFactor   float64 `yaml:"intake_factor"`   // required intake = size * this
	FullGain       float64 `yaml:"full_gain"`       // energy per unit when intake is met
	GrowthFactor   float64 `yaml:"growth_factor"`   // size per unit when intake is met
	PartialGain    float64 `yaml:"partial_gain"`    // energy per unit when intake is not met
	FilterAmount   float64 `yaml:"filter_amount"`   // food units a filter feeder strains per tick
	CorpseGain     float64 `yaml:"corpse_gain"`     // food units a recycled corpse yields
	KillTransfer   float64 `yaml:"kill_transfer"`   // fraction of victim energy eaten on a kill
	OffspringShare float64 `yaml:"offspring_share"` // fraction of offspring energy gained
}

// ReproductionConfig holds reproduction parameters.
type ReproductionConfig struct {
	EnergyThreshold   float64 `yaml:"energy_threshold"`
	Chance            float64 `yaml:"chance"`
	ChildSizeFraction float64 `yaml:"child_size_fraction"`
	ParentSizeFactor  float64 `yaml:"parent_size_factor"`
	SpeedJitter       float64 `yaml:"speed_jitter"`
	AggressionJitter  float64 `yaml:"aggression_jitter"`
	ColorDrift        int     `yaml:"color_drift"`
	OffsetFactor      float64 `yaml:"offset_factor"` // displacement = U(-1,1) * size * this
}

// MutationConfig holds per-tick mutation parameters.
type MutationConfig struct {
	Chance     float64 `yaml:"chance"`
	SizeDelta  float64 `yaml:"size_delta"`
	SpeedDelta float64 `yaml:"speed_delta"`
	TraitDelta float64 `yaml:"trait_delta"` // aggression and defense
}

// CombatConfig holds attack parameters.
type CombatConfig struct {
	AttackDamage    float64 `yaml:"attack_damage"`
	ParasiteDamage  float64 `yaml:"parasite_damage"`
	ParasiteGain    float64 `yaml:"parasite_gain"`
	SymbiosisBonus  float64 `yaml:"symbiosis_bonus"`
	ParasiteInfects bool    `yaml:"parasite_infects"`
}

// BehaviorConfig holds movement policy parameters.
type BehaviorConfig struct {
	Jitter         float64 `yaml:"jitter"`
	FlockRadius    float64 `yaml:"flock_radius"`
	PhototrophGain float64 `yaml:"phototroph_gain"`
	ChemotrophGain float64 `yaml:"chemotroph_gain"`
	OffspringReach float64 `yaml:"offspring_reach"` // fraction of own size
}

// ClimateConfig holds environmental stress parameters.
type ClimateConfig struct {
	ComfortMin        float64 `yaml:"comfort_min"`
	ComfortMax        float64 `yaml:"comfort_max"`
	ColdEnergyLoss    float64 `yaml:"cold_energy_loss"`
	ColdSpeedFactor   float64 `yaml:"cold_speed_factor"`
	HeatEnergyLoss    float64 `yaml:"heat_energy_loss"`
	HeatSpeedFactor   float64 `yaml:"heat_speed_factor"`
	CO2Min            float64 `yaml:"co2_min"`
	CO2Max            float64 `yaml:"co2_max"`
	CO2EnergyLoss     float64 `yaml:"co2_energy_loss"`
	TemperatureMin    float64 `yaml:"temperature_min"`
	TemperatureMax    float64 `yaml:"temperature_max"`
	ShiftChance       float64 `yaml:"shift_chance"`
	TemperatureShift  float64 `yaml:"temperature_shift"`
	CO2Shift          float64 `yaml:"co2_shift"`
	PollutionInterval int     `yaml:"pollution_interval"`
	PollutionStep     float64 `yaml:"pollution_step"`
	PollutionDamage   float64 `yaml:"pollution_damage"`
}

// FoodConfig holds food pool parameters.
type FoodConfig struct {
	Initial      int     `yaml:"initial"`
	Floor        int     `yaml:"floor"`
	PerUpdate    int     `yaml:"per_update"`
	NutritionMin float64 `yaml:"nutrition_min"`
	NutritionMax float64 `yaml:"nutrition_max"`
}

// DiseaseConfig holds contagion parameters.
type DiseaseConfig struct {
	SpreadRadius    float64 `yaml:"spread_radius"`
	SpreadProb      float64 `yaml:"spread_prob"`
	SpontaneousProb float64 `yaml:"spontaneous_prob"`
	DrainMultiplier float64 `yaml:"drain_multiplier"`
	ExtraAging      int     `yaml:"extra_aging"`
	GridCellSize    float64 `yaml:"grid_cell_size"`
}

// TelemetryConfig holds reporting parameters.
type TelemetryConfig struct {
	WindowTicks         int `yaml:"window_ticks"`
	BookmarkHistorySize int `yaml:"bookmark_history_size"`
	PerfWindow          int `yaml:"perf_window"`
	FrameBuffer         int `yaml:"frame_buffer"`
}

// Default returns the embedded default configuration.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are broken: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}

		var overlay struct {
			World struct {
				WaterSources []Point `yaml:"water_sources"`
			} `yaml:"world"`
		}
		if err := yaml.Unmarshal(data, &overlay); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
		// Default water sources follow a resized world; user-supplied ones
		// are validated as given.
		if overlay.World.WaterSources == nil {
			cfg.World.WaterSources = cfg.World.sourcesInBounds()
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// sourcesInBounds returns the water sources that lie inside the world.
func (w WorldConfig) sourcesInBounds() []Point {
	var kept []Point
	for _, p := range w.WaterSources {
		if p.X >= 0 && p.X <= w.Width && p.Y >= 0 && p.Y <= w.Height {
			kept = append(kept, p)
		}
	}
	return kept
}

// Clone returns a deep copy so callers can derive variants without sharing maps.
func (c *Config) Clone() *Config {
	out := *c
	out.World.WaterSources = append([]Point(nil), c.World.WaterSources...)
	out.Population.InitialMix = make(map[string]int, len(c.Population.InitialMix))
	for k, v := range c.Population.InitialMix {
		out.Population.InitialMix[k] = v
	}
	out.Variants = make(map[string]CapabilityConfig, len(c.Variants))
	for k, v := range c.Variants {
		out.Variants[k] = v
	}
	return &out
}

// Validate reports the first structural problem in the configuration.
func (c *Config) Validate() error {
	if c.World.Width <= 0 || c.World.Height <= 0 {
		return fmt.Errorf("%w: world bounds must be positive, got %gx%g", ErrInvalid, c.World.Width, c.World.Height)
	}
	if c.Population.Max <= 0 {
		return fmt.Errorf("%w: population.max must be positive, got %d", ErrInvalid, c.Population.Max)
	}
	if c.Organism.MaxSize <= 0 {
		return fmt.Errorf("%w: organism.max_size must be positive", ErrInvalid)
	}
	if c.Organism.MaxSpeed < 0 {
		return fmt.Errorf("%w: organism.max_speed must not be negative", ErrInvalid)
	}
	if c.Organism.MaxHealth <= 0 {
		return fmt.Errorf("%w: organism.max_health must be positive", ErrInvalid)
	}
	if c.Organism.InitialSizeMin < 0 || c.Organism.InitialSizeMax > c.Organism.MaxSize ||
		c.Organism.InitialSizeMin > c.Organism.InitialSizeMax {
		return fmt.Errorf("%w: initial size range [%g,%g] outside [0,%g]", ErrInvalid,
			c.Organism.InitialSizeMin, c.Organism.InitialSizeMax, c.Organism.MaxSize)
	}
	if c.Organism.InitialSpeedMin < 0 || c.Organism.InitialSpeedMin > c.Organism.InitialSpeedMax {
		return fmt.Errorf("%w: initial speed range [%g,%g] is invalid", ErrInvalid,
			c.Organism.InitialSpeedMin, c.Organism.InitialSpeedMax)
	}
	if c.Climate.TemperatureMin > c.Climate.TemperatureMax {
		return fmt.Errorf("%w: climate temperature range is inverted", ErrInvalid)
	}
	if c.Food.NutritionMin > c.Food.NutritionMax {
		return fmt.Errorf("%w: food nutrition range is inverted", ErrInvalid)
	}
	if c.Food.Initial < 0 || c.Food.Floor < 0 || c.Food.PerUpdate < 0 {
		return fmt.Errorf("%w: food counts must not be negative", ErrInvalid)
	}
	for _, p := range []struct {
		name string
		v    float64
	}{
		{"mutation.chance", c.Mutation.Chance},
		{"reproduction.chance", c.Reproduction.Chance},
		{"climate.shift_chance", c.Climate.ShiftChance},
		{"energy.sunlight_chance", c.Energy.SunlightChance},
		{"disease.spread_prob", c.Disease.SpreadProb},
		{"disease.spontaneous_prob", c.Disease.SpontaneousProb},
	} {
		if p.v < 0 || p.v > 1 {
			return fmt.Errorf("%w: %s must be a probability, got %g", ErrInvalid, p.name, p.v)
		}
	}
	for _, name := range c.mixNames() {
		if c.Population.InitialMix[name] < 0 {
			return fmt.Errorf("%w: initial_mix.%s must not be negative", ErrInvalid, name)
		}
		if !knownVariant(name) {
			return fmt.Errorf("%w: unknown variant %q in initial_mix", ErrInvalid, name)
		}
		if _, ok := c.Variants[name]; !ok {
			return fmt.Errorf("%w: variant %q has no capability set", ErrInvalid, name)
		}
	}
	for name := range c.Variants {
		if !knownVariant(name) {
			return fmt.Errorf("%w: unknown variant %q in variants", ErrInvalid, name)
		}
	}
	for i, w := range c.World.WaterSources {
		if w.X < 0 || w.X > c.World.Width || w.Y < 0 || w.Y > c.World.Height {
			return fmt.Errorf("%w: water source %d at (%g,%g) is outside the world", ErrInvalid, i, w.X, w.Y)
		}
	}
	return nil
}

// mixNames returns the initial mix keys in a stable order.
func (c *Config) mixNames() []string {
	names := make([]string, 0, len(c.Population.InitialMix))
	for name := range c.Population.InitialMix {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func knownVariant(name string) bool {
	for _, v := range VariantNames {
		if v == name {
			return true
		}
	}
	return false
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
