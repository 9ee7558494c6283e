package environment

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/biosphere/components"
	"github.com/pthm-cable/biosphere/config"
	"github.com/pthm-cable/biosphere/organism"
	"github.com/pthm-cable/biosphere/telemetry"
)

// ErrSnapshotMismatch is returned when a snapshot cannot be resumed under the
// given configuration.
var ErrSnapshotMismatch = errors.New("snapshot does not match configuration")

// Snapshot captures the complete environment state.
func (e *Environment) Snapshot(runID string, bookmark *telemetry.Bookmark) *telemetry.Snapshot {
	snap := &telemetry.Snapshot{
		Version:     telemetry.SnapshotVersion,
		RunID:       runID,
		WorldWidth:  e.cfg.World.Width,
		WorldHeight: e.cfg.World.Height,
		Tick:        e.tick,
		NextID:      e.nextID,
		Temperature: e.temperature,
		CO2:         e.co2,
		Pollution:   e.pollution,
		Metrics:     e.metrics.State(),
		Bookmark:    bookmark,
	}

	for _, f := range e.food.Items() {
		snap.Food = append(snap.Food, telemetry.FoodState{X: f.X, Y: f.Y, Nutrition: f.Nutrition})
	}
	for _, o := range e.views {
		snap.Organisms = append(snap.Organisms, e.organismState(o))
	}
	for _, o := range e.corpseViews {
		snap.Corpses = append(snap.Corpses, e.organismState(o))
	}
	return snap
}

func (e *Environment) organismState(o *organism.Organism) telemetry.OrganismState {
	st := telemetry.OrganismState{
		ID:         o.Lineage.ID,
		Variant:    o.Lineage.Variant,
		Autotroph:  o.Lineage.Autotroph,
		Generation: o.Lineage.Generation,

		X:     o.Pos.X,
		Y:     o.Pos.Y,
		Size:  o.Body.Size,
		Speed: o.Body.Speed,
		Color: o.Body.Color,
		Shape: o.Body.Shape,

		Aggression:          o.Temper.Aggression,
		Defense:             o.Temper.Defense,
		PollutionResistance: o.Temper.PollutionResistance,
		ToxinAbsorption:     o.Temper.ToxinAbsorption,

		Energy:     o.Vitals.Energy,
		Health:     o.Vitals.Health,
		Age:        o.Vitals.Age,
		Experience: o.Vitals.Experience,
		Alive:      o.Vitals.Alive,
		Infected:   o.Vitals.Infected,
		DiedTick:   o.Vitals.DiedTick,
		Cause:      o.Vitals.Cause,
		Recycled:   o.Vitals.Recycled,

		Capabilities: *o.Caps,
	}

	for p := range o.Memory.Predators {
		if pred, ok := e.view(p); ok {
			st.Memory = append(st.Memory, pred.Lineage.ID)
		}
	}
	slices.Sort(st.Memory)

	if ls := e.lifetimes.Get(o.Lineage.ID); ls != nil {
		life := *ls
		st.Lifetime = &life
	}
	return st
}

// Restore rebuilds an environment from a snapshot. Ticking resumes from the
// snapshot's tick; the random history before it is not reproduced.
func Restore(cfg *config.Config, rng *rand.Rand, snap *telemetry.Snapshot) (*Environment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("restoring environment: %w", err)
	}
	if snap.Version != telemetry.SnapshotVersion {
		return nil, fmt.Errorf("restoring environment: %w: %d", telemetry.ErrSnapshotVersion, snap.Version)
	}
	if snap.WorldWidth != cfg.World.Width || snap.WorldHeight != cfg.World.Height {
		return nil, fmt.Errorf("%w: snapshot world %gx%g, configured %gx%g", ErrSnapshotMismatch,
			snap.WorldWidth, snap.WorldHeight, cfg.World.Width, cfg.World.Height)
	}

	e := newEmpty(cfg, rng)
	e.tick = snap.Tick
	e.nextID = snap.NextID
	e.temperature = snap.Temperature
	e.co2 = snap.CO2
	e.pollution = snap.Pollution
	e.metrics = telemetry.SeriesFromState(snap.Metrics)
	e.collector.Restart(snap.Tick)

	for _, f := range snap.Food {
		e.food.Add(components.Food{X: f.X, Y: f.Y, Nutrition: f.Nutrition})
	}

	byID := make(map[uint32]ecs.Entity, len(snap.Organisms)+len(snap.Corpses))
	for _, st := range snap.Organisms {
		ent := e.restoreOrganism(st)
		e.order = append(e.order, ent)
		byID[st.ID] = ent
		if st.ID >= e.nextID {
			e.nextID = st.ID + 1
		}
	}
	for _, st := range snap.Corpses {
		ent := e.restoreOrganism(st)
		e.corpses = append(e.corpses, ent)
		byID[st.ID] = ent
	}

	// Memory refers to other organisms, so it is resolved once all exist.
	for _, list := range [][]telemetry.OrganismState{snap.Organisms, snap.Corpses} {
		for _, st := range list {
			if len(st.Memory) == 0 {
				continue
			}
			_, _, _, _, _, _, memory := e.mapper.Get(byID[st.ID])
			for _, predID := range st.Memory {
				if pred, ok := byID[predID]; ok {
					memory.Record(pred)
				}
			}
		}
	}

	e.rebuildViews()
	return e, nil
}

func (e *Environment) restoreOrganism(st telemetry.OrganismState) ecs.Entity {
	pos := components.Position{X: st.X, Y: st.Y}
	body := components.Body{Size: st.Size, Speed: st.Speed, Color: st.Color, Shape: st.Shape}
	temper := components.Temperament{
		Aggression:          st.Aggression,
		Defense:             st.Defense,
		PollutionResistance: st.PollutionResistance,
		ToxinAbsorption:     st.ToxinAbsorption,
	}
	vitals := components.Vitals{
		Energy:     st.Energy,
		Health:     st.Health,
		Age:        st.Age,
		Experience: st.Experience,
		Alive:      st.Alive,
		Infected:   st.Infected,
		DiedTick:   st.DiedTick,
		Cause:      st.Cause,
		Recycled:   st.Recycled,
	}
	lineage := components.Lineage{
		ID:         st.ID,
		Generation: st.Generation,
		Variant:    st.Variant,
		Autotroph:  st.Autotroph,
	}
	caps := st.Capabilities
	memory := components.Memory{Predators: make(map[ecs.Entity]struct{})}

	ent := e.mapper.NewEntity(&pos, &body, &temper, &vitals, &lineage, &caps, &memory)
	if st.Lifetime != nil && st.Alive {
		e.lifetimes.Restore(st.ID, *st.Lifetime)
	}
	return ent
}
