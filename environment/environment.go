// Package environment owns the organism population and drives the tick.
package environment

import (
	"fmt"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/biosphere/components"
	"github.com/pthm-cable/biosphere/config"
	"github.com/pthm-cable/biosphere/organism"
	"github.com/pthm-cable/biosphere/telemetry"
)

// Environment holds the complete simulation state.
type Environment struct {
	cfg   *config.Config
	rng   *rand.Rand
	world *ecs.World

	// Entity mapper over every organism component
	mapper *ecs.Map7[
		components.Position,
		components.Body,
		components.Temperament,
		components.Vitals,
		components.Lineage,
		components.Capabilities,
		components.Memory,
	]
	filter *ecs.Filter7[
		components.Position,
		components.Body,
		components.Temperament,
		components.Vitals,
		components.Lineage,
		components.Capabilities,
		components.Memory,
	]

	// Individual component mappers for lookups
	posMap     *ecs.Map1[components.Position]
	vitalsMap  *ecs.Map1[components.Vitals]
	lineageMap *ecs.Map1[components.Lineage]

	// order is the population in iteration order. It may hold organisms that
	// died this tick until the prune phase.
	order   []ecs.Entity
	corpses []ecs.Entity

	// Views are rebuilt after every structural change.
	views       []*organism.Organism
	corpseViews []*organism.Organism
	byEntity    map[ecs.Entity]*organism.Organism

	food    *FoodPool
	grid    *SpatialGrid
	disease *Contagion

	// State
	tick        int
	nextID      uint32
	temperature float64
	co2         float64
	pollution   float64
	metrics     telemetry.Series

	// Telemetry
	collector *telemetry.Collector
	lifetimes *telemetry.LifetimeTracker
	perf      *telemetry.PerfCollector
	window    *telemetry.WindowStats
	perfStats *telemetry.PerfStats
}

// New validates cfg and builds an environment with the configured founder
// population and food pool.
func New(cfg *config.Config, rng *rand.Rand) (*Environment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("creating environment: %w", err)
	}
	e := newEmpty(cfg, rng)
	e.temperature = cfg.World.InitialTemperature
	e.co2 = cfg.World.InitialCO2
	e.pollution = cfg.World.InitialPollution
	e.food.Spawn(cfg.Food.Initial, cfg.World.Width, cfg.World.Height, rng)
	e.spawnInitialPopulation()
	e.rebuildViews()
	return e, nil
}

func newEmpty(cfg *config.Config, rng *rand.Rand) *Environment {
	world := ecs.NewWorld()
	return &Environment{
		cfg:   cfg,
		rng:   rng,
		world: world,
		mapper: ecs.NewMap7[
			components.Position,
			components.Body,
			components.Temperament,
			components.Vitals,
			components.Lineage,
			components.Capabilities,
			components.Memory,
		](world),
		filter: ecs.NewFilter7[
			components.Position,
			components.Body,
			components.Temperament,
			components.Vitals,
			components.Lineage,
			components.Capabilities,
			components.Memory,
		](world),
		posMap:     ecs.NewMap1[components.Position](world),
		vitalsMap:  ecs.NewMap1[components.Vitals](world),
		lineageMap: ecs.NewMap1[components.Lineage](world),
		byEntity:   make(map[ecs.Entity]*organism.Organism),
		food:       NewFoodPool(cfg.Food.NutritionMin, cfg.Food.NutritionMax),
		grid:       NewSpatialGrid(cfg.World.Width, cfg.World.Height, cfg.Disease.GridCellSize),
		disease:    NewContagion(cfg.Disease),
		collector:  telemetry.NewCollector(cfg.Telemetry.WindowTicks),
		lifetimes:  telemetry.NewLifetimeTracker(),
		perf:       telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
	}
}

// Config returns the configuration the environment was built with.
func (e *Environment) Config() *config.Config {
	return e.cfg
}

// TickCount returns the number of completed ticks.
func (e *Environment) TickCount() int {
	return e.tick
}

// Bounds returns the world size.
func (e *Environment) Bounds() (width, height float64) {
	return e.cfg.World.Width, e.cfg.World.Height
}

// Climate returns the current temperature, CO2 and pollution.
func (e *Environment) Climate() (temperature, co2, pollution float64) {
	return e.temperature, e.co2, e.pollution
}

// Population returns views of the living organisms in iteration order. The
// views are valid until the next call to Tick.
func (e *Environment) Population() []*organism.Organism {
	out := make([]*organism.Organism, 0, len(e.views))
	for _, o := range e.views {
		if o.Alive() {
			out = append(out, o)
		}
	}
	return out
}

// Corpses returns views of dead organisms still lying in the world.
func (e *Environment) Corpses() []*organism.Organism {
	return append([]*organism.Organism(nil), e.corpseViews...)
}

// Food returns a copy of the food pool.
func (e *Environment) Food() []components.Food {
	return e.food.Snapshot()
}

// Metrics returns a copy of the metrics series.
func (e *Environment) Metrics() telemetry.Series {
	return e.metrics.Clone()
}

// IsExtinct reports whether no organism is alive.
func (e *Environment) IsExtinct() bool {
	for _, o := range e.views {
		if o.Alive() {
			return false
		}
	}
	return true
}

// Lifetime returns the lifetime stats of a living organism, or nil.
func (e *Environment) Lifetime(id uint32) *telemetry.LifetimeStats {
	return e.lifetimes.Get(id)
}

// Frame summarizes the last tick for the reporter. A closed stats window is
// attached only to the frame of the tick that closed it.
func (e *Environment) Frame() telemetry.Frame {
	f := telemetry.Frame{
		Tick:        e.tick,
		Population:  e.livingCount(),
		Food:        e.food.Len(),
		Temperature: e.temperature,
		CO2:         e.co2,
		Pollution:   e.pollution,
	}
	if e.window != nil {
		w := *e.window
		f.Window = &w
	}
	if e.perfStats != nil {
		p := *e.perfStats
		f.Perf = &p
	}
	return f
}

func (e *Environment) livingCount() int {
	n := 0
	for _, o := range e.views {
		if o.Alive() {
			n++
		}
	}
	return n
}

// rebuildViews refreshes organism views after entities were created or
// removed. Component pointers handed out before are stale afterwards.
func (e *Environment) rebuildViews() {
	clear(e.byEntity)
	e.views = e.views[:0]
	for _, ent := range e.order {
		o := e.bind(ent)
		e.views = append(e.views, o)
		e.byEntity[ent] = o
	}
	e.corpseViews = e.corpseViews[:0]
	for _, ent := range e.corpses {
		o := e.bind(ent)
		e.corpseViews = append(e.corpseViews, o)
		e.byEntity[ent] = o
	}
}

func (e *Environment) bind(ent ecs.Entity) *organism.Organism {
	pos, body, temper, vitals, lineage, caps, memory := e.mapper.Get(ent)
	return organism.Bind(e.cfg, ent, pos, body, temper, vitals, lineage, caps, memory)
}

// view resolves an entity handle to its current view.
func (e *Environment) view(ent ecs.Entity) (*organism.Organism, bool) {
	if !e.world.Alive(ent) {
		return nil, false
	}
	o, ok := e.byEntity[ent]
	return o, ok
}

// add creates an entity for a detached organism and appends it to the
// population. Callers must rebuild views afterwards.
func (e *Environment) add(o *organism.Organism) ecs.Entity {
	o.Lineage.ID = e.nextID
	e.nextID++
	organism.ClampToBounds(o.Pos, e.cfg.World.Width, e.cfg.World.Height)
	if o.Memory.Predators == nil {
		o.Memory.Predators = make(map[ecs.Entity]struct{})
	}
	ent := e.mapper.NewEntity(o.Pos, o.Body, o.Temper, o.Vitals, o.Lineage, o.Caps, o.Memory)
	e.order = append(e.order, ent)
	e.lifetimes.Register(o.Lineage.ID, e.tick)
	return ent
}

// remove deletes an entity from the world. Callers must rebuild views.
func (e *Environment) remove(ent ecs.Entity) {
	if e.world.Alive(ent) {
		e.world.RemoveEntity(ent)
	}
}
