package telemetry

import "github.com/pthm-cable/biosphere/components"

// PopulationSample is the end-of-window view of the population the caller
// hands to Flush.
type PopulationSample struct {
	Counts        map[components.Variant]int
	Food          int
	Infected      int
	MaxGeneration int
	Temperature   float64
	CO2           float64
	Pollution     float64
	Energies      []float64
	Healths       []float64
	Sizes         []float64
}

// Collector accumulates events within tick windows and produces WindowStats.
type Collector struct {
	windowTicks int

	// Current window tracking
	windowStartTick int

	// Event counters for current window
	births          int
	deaths          int
	deathsByCause   map[components.DeathCause]int
	feedings        int
	offspringEaten  int
	corpsesRecycled int
	truncated       int
	infections      int

	lifespanSum float64
	childrenSum float64
	lifetimes   int
}

// NewCollector creates a new stats collector flushing every windowTicks ticks.
func NewCollector(windowTicks int) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{
		windowTicks:   windowTicks,
		deathsByCause: make(map[components.DeathCause]int),
	}
}

// RecordBirth records a birth event.
func (c *Collector) RecordBirth() {
	c.births++
}

// RecordDeath records a death and, when known, the organism's lifetime.
func (c *Collector) RecordDeath(cause components.DeathCause, tick int, life *LifetimeStats) {
	c.deaths++
	c.deathsByCause[cause]++
	if life != nil {
		c.lifespanSum += float64(tick - life.BirthTick)
		c.childrenSum += float64(life.Children)
		c.lifetimes++
	}
}

// RecordFeeding records a feeding event.
func (c *Collector) RecordFeeding() {
	c.feedings++
}

// RecordOffspringEaten records a successful offspring predation.
func (c *Collector) RecordOffspringEaten() {
	c.offspringEaten++
}

// RecordRecycle records a corpse consumed by a detritivore.
func (c *Collector) RecordRecycle() {
	c.corpsesRecycled++
}

// RecordTruncation records organisms dropped by the population cap.
func (c *Collector) RecordTruncation(n int) {
	c.truncated += n
}

// RecordInfection records a new infection.
func (c *Collector) RecordInfection() {
	c.infections++
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int) bool {
	return currentTick-c.windowStartTick >= c.windowTicks
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int, pop PopulationSample) WindowStats {
	energy := ComputeDistribution(pop.Energies)
	health := ComputeDistribution(pop.Healths)
	size := ComputeDistribution(pop.Sizes)

	total := 0
	for _, n := range pop.Counts {
		total += n
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,

		Population:    total,
		Herbivores:    pop.Counts[components.VariantHerbivore],
		Carnivores:    pop.Counts[components.VariantCarnivore],
		Omnivores:     pop.Counts[components.VariantOmnivore],
		Autotrophs:    pop.Counts[components.VariantAutotroph],
		FilterFeeders: pop.Counts[components.VariantFilterFeeder],
		Parasites:     pop.Counts[components.VariantParasite],
		Symbiotic:     pop.Counts[components.VariantSymbiotic],
		Detritivores:  pop.Counts[components.VariantDetritivore],
		Infected:      pop.Infected,
		Food:          pop.Food,
		MaxGeneration: pop.MaxGeneration,

		Births:          c.births,
		Deaths:          c.deaths,
		DeathsAge:       c.deathsByCause[components.CauseAge],
		DeathsPollution: c.deathsByCause[components.CausePollution],
		DeathsPredation: c.deathsByCause[components.CausePredation],
		DeathsParasite:  c.deathsByCause[components.CauseParasite],
		DeathsHostDeath: c.deathsByCause[components.CauseHostDeath],
		DeathsOther:     c.deathsByCause[components.CauseOther] + c.deathsByCause[components.CauseNone],
		Feedings:        c.feedings,
		OffspringEaten:  c.offspringEaten,
		CorpsesRecycled: c.corpsesRecycled,
		Truncated:       c.truncated,
		Infections:      c.infections,

		Temperature: pop.Temperature,
		CO2:         pop.CO2,
		Pollution:   pop.Pollution,

		EnergyMean: energy.Mean,
		EnergyStd:  energy.Std,
		EnergyP10:  energy.P10,
		EnergyP50:  energy.P50,
		EnergyP90:  energy.P90,
		HealthMean: health.Mean,
		HealthP10:  health.P10,
		SizeMean:   size.Mean,
		SizeP90:    size.P90,
	}
	if c.lifetimes > 0 {
		stats.MeanLifespan = c.lifespanSum / float64(c.lifetimes)
		stats.MeanChildren = c.childrenSum / float64(c.lifetimes)
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.births = 0
	c.deaths = 0
	clear(c.deathsByCause)
	c.feedings = 0
	c.offspringEaten = 0
	c.corpsesRecycled = 0
	c.truncated = 0
	c.infections = 0
	c.lifespanSum = 0
	c.childrenSum = 0
	c.lifetimes = 0

	return stats
}

// WindowTicks returns the number of ticks per window.
func (c *Collector) WindowTicks() int {
	return c.windowTicks
}

// Restart moves the window start, used when resuming from a snapshot.
func (c *Collector) Restart(tick int) {
	c.windowStartTick = tick
}
