package environment

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/biosphere/components"
	"github.com/pthm-cable/biosphere/organism"
	"github.com/pthm-cable/biosphere/telemetry"
)

// Tick advances the simulation by exactly one step. Phases run strictly in
// order over the current population and food pool.
func (e *Environment) Tick() {
	e.perf.StartTick()
	e.window, e.perfStats = nil, nil
	w := tickWorld{e}

	// 1-2. Clock, corpse expiry, pollution and climate drift
	e.perf.StartPhase(telemetry.PhaseClimate)
	e.tick++
	e.expireCorpses()
	if iv := e.cfg.Climate.PollutionInterval; iv > 0 && e.tick%iv == 0 {
		e.pollution = math.Min(100, e.pollution+e.cfg.Climate.PollutionStep)
	}
	e.shiftClimate()

	// 3. Food injection
	e.perf.StartPhase(telemetry.PhaseFood)
	fc := e.cfg.Food
	e.food.Replenish(fc.Floor, fc.PerUpdate, e.cfg.World.Width, e.cfg.World.Height, e.rng)

	// 4. Contagion, then movement, decay and environmental stress
	e.perf.StartPhase(telemetry.PhaseContagion)
	e.updateSpatialGrid()
	infections := e.disease.Update(e.views, e.grid, e.posMap, e.vitalsMap, e.lineageMap, e.rng)
	for range infections {
		e.collector.RecordInfection()
	}

	e.perf.StartPhase(telemetry.PhaseMovement)
	e.updateMovement(w)

	// 5-6. Feeding, then idle wandering
	e.perf.StartPhase(telemetry.PhaseFeeding)
	e.updateFeeding(w)
	e.updateWander(w)

	// 7. Pairwise combat
	e.perf.StartPhase(telemetry.PhaseCombat)
	e.updateCombat()

	// 8. Prune the dead
	e.perf.StartPhase(telemetry.PhasePrune)
	e.prune()

	// 9-11. Reproduction, offspring predation, population cap
	e.perf.StartPhase(telemetry.PhaseReproduction)
	e.reproduce()
	e.eatOffspring()
	e.enforceCap()

	// 12. Energy recovery
	e.perf.StartPhase(telemetry.PhaseRecovery)
	e.recoverEnergy()

	// 13. Metrics
	e.perf.StartPhase(telemetry.PhaseTelemetry)
	e.metrics.Append(e.livingCount(), e.pollution, e.temperature)
	e.flushTelemetry()

	e.perf.EndTick()
}

// expireCorpses removes corpses that have lain in the world for a full tick.
func (e *Environment) expireCorpses() {
	// First pass: collect (component pointers go stale on removal)
	var expired []ecs.Entity
	kept := e.corpses[:0]
	for i, ent := range e.corpses {
		if e.corpseViews[i].Vitals.DiedTick < e.tick-1 {
			expired = append(expired, ent)
		} else {
			kept = append(kept, ent)
		}
	}
	if len(expired) == 0 {
		return
	}
	e.corpses = kept

	// Second pass: remove
	for _, ent := range expired {
		e.remove(ent)
	}
	e.rebuildViews()
}

// shiftClimate perturbs temperature and CO2 with a small probability.
func (e *Environment) shiftClimate() {
	cl := e.cfg.Climate
	if e.rng.Float64() >= cl.ShiftChance {
		return
	}
	e.temperature = organism.Clamp(e.temperature+(e.rng.Float64()*2-1)*cl.TemperatureShift, cl.TemperatureMin, cl.TemperatureMax)
	e.co2 = organism.Clamp(e.co2+(e.rng.Float64()*2-1)*cl.CO2Shift, 0, 100)
}

// updateSpatialGrid rebuilds the spatial index over living organisms.
func (e *Environment) updateSpatialGrid() {
	e.grid.Clear()

	query := e.filter.Query()
	for query.Next() {
		entity := query.Entity()
		pos, _, _, vitals, _, _, _ := query.Get()

		if vitals.Alive {
			e.grid.Insert(entity, pos.X, pos.Y)
		}
	}
}

// updateMovement runs each living organism's movement policy followed by
// base decay and environmental adjustment.
func (e *Environment) updateMovement(w tickWorld) {
	for _, o := range e.views {
		o.Vitals.Steered = false
	}
	for _, o := range e.views {
		if !o.Alive() {
			continue
		}
		o.Policy().Move(o, w, e.rng)
		if !o.Alive() {
			continue
		}
		o.Decay()
		o.AdjustToEnvironment(e.temperature, e.co2, e.pollution, e.rng)
	}
	e.collectDead()
}

// updateFeeding gives every living organism at most one feeding event.
func (e *Environment) updateFeeding(w tickWorld) {
	for _, o := range e.views {
		if !o.Alive() {
			continue
		}
		if o.Policy().Feed(o, w) {
			e.collector.RecordFeeding()
			e.lifetimes.RecordMeal(o.Lineage.ID)
		}
	}
}

// updateWander lets organisms that did not steer this tick drift.
func (e *Environment) updateWander(w tickWorld) {
	for _, o := range e.views {
		o.Wander(w, e.rng)
	}
}

// updateCombat resolves every ordered pair of distinct living organisms.
// An attacker stops scanning once its policy reports it is done.
func (e *Environment) updateCombat() {
	for _, o := range e.views {
		if !o.Alive() {
			continue
		}
		policy := o.Policy()
		for _, target := range e.views {
			if !o.Alive() {
				break
			}
			if target.Is(o) || !target.Alive() {
				continue
			}
			wasInfected := target.Vitals.Infected
			done := policy.Engage(o, target, e.rng)
			if !wasInfected && target.Vitals.Infected {
				e.collector.RecordInfection()
			}
			if done {
				break
			}
		}
	}
}

// collectDead moves organisms that died since the last call onto the corpse
// list and records their deaths.
func (e *Environment) collectDead() {
	for _, o := range e.views {
		if o.Alive() || o.Vitals.DiedTick != 0 {
			continue
		}
		o.Vitals.DiedTick = e.tick
		e.corpses = append(e.corpses, o.Entity)
		e.corpseViews = append(e.corpseViews, o)
		e.collector.RecordDeath(o.Vitals.Cause, e.tick, e.lifetimes.Remove(o.Lineage.ID))
	}
}

// prune filters the population to living organisms, forgets predators that
// no longer exist and removes recycled corpses.
func (e *Environment) prune() {
	e.collectDead()

	living := make([]ecs.Entity, 0, len(e.order))
	for i, ent := range e.order {
		o := e.views[i]
		if !o.Alive() {
			continue
		}
		living = append(living, ent)
		for p := range o.Memory.Predators {
			if !e.world.Alive(p) {
				delete(o.Memory.Predators, p)
			}
		}
	}
	e.order = living

	var recycled []ecs.Entity
	kept := e.corpses[:0]
	for i, ent := range e.corpses {
		if e.corpseViews[i].Vitals.Recycled {
			recycled = append(recycled, ent)
		} else {
			kept = append(kept, ent)
		}
	}
	e.corpses = kept
	for _, ent := range recycled {
		e.remove(ent)
	}

	e.rebuildViews()
}

// reproduce collects offspring from every eligible organism and appends them
// after the pass, so children never reproduce in the tick they are born.
func (e *Environment) reproduce() {
	rc := e.cfg.Reproduction

	type birth struct {
		child  *organism.Organism
		parent uint32
	}
	var births []birth

	for _, o := range e.views {
		if !o.Alive() || o.Vitals.Energy <= rc.EnergyThreshold {
			continue
		}
		if e.rng.Float64() >= rc.Chance {
			continue
		}
		if child, ok := o.Reproduce(e.rng); ok {
			births = append(births, birth{child: child, parent: o.Lineage.ID})
		}
	}
	if len(births) == 0 {
		return
	}

	for _, b := range births {
		e.add(b.child)
		e.collector.RecordBirth()
		e.lifetimes.RecordChild(b.parent)
	}
	e.rebuildViews()
}

// eatOffspring lets every offspring eater scan the population, new children
// included.
func (e *Environment) eatOffspring() {
	for _, o := range e.views {
		if !o.Alive() || !o.Caps.CanEatOffspring {
			continue
		}
		for _, offspring := range e.views {
			if o.EatOffspring(offspring) {
				e.collector.RecordOffspringEaten()
			}
		}
	}
}

// enforceCap truncates the population from the end down to the maximum.
// Truncated organisms are removed outright and never become corpses.
func (e *Environment) enforceCap() {
	limit := e.cfg.Population.Max
	if len(e.order) <= limit {
		return
	}

	excess := e.order[limit:]
	for _, o := range e.views[limit:] {
		e.lifetimes.Remove(o.Lineage.ID)
	}
	for _, ent := range excess {
		e.remove(ent)
	}
	e.collector.RecordTruncation(len(excess))
	e.order = e.order[:limit]
	e.rebuildViews()
}

// recoverEnergy rolls sunlight per organism and applies recovery using the
// food pool size.
func (e *Environment) recoverEnergy() {
	available := e.food.Len()
	for _, o := range e.views {
		if !o.Alive() {
			continue
		}
		sunlight := e.rng.Float64() < e.cfg.Energy.SunlightChance
		o.RecoverEnergy(sunlight, available)
		e.lifetimes.UpdateEnergy(o.Lineage.ID, o.Vitals.Energy)
	}
}

// flushTelemetry closes the stats window when it is due.
func (e *Environment) flushTelemetry() {
	if !e.collector.ShouldFlush(e.tick) {
		return
	}
	stats := e.collector.Flush(e.tick, e.populationSample())
	perf := e.perf.Stats()
	e.window = &stats
	e.perfStats = &perf
}

// populationSample collects the end-of-window population view.
func (e *Environment) populationSample() telemetry.PopulationSample {
	sample := telemetry.PopulationSample{
		Counts:      make(map[components.Variant]int, components.VariantCount()),
		Food:        e.food.Len(),
		Temperature: e.temperature,
		CO2:         e.co2,
		Pollution:   e.pollution,
	}

	query := e.filter.Query()
	for query.Next() {
		_, body, _, vitals, lineage, _, _ := query.Get()

		if !vitals.Alive {
			continue
		}
		sample.Counts[lineage.Variant]++
		if vitals.Infected {
			sample.Infected++
		}
		sample.MaxGeneration = max(sample.MaxGeneration, lineage.Generation)
		sample.Energies = append(sample.Energies, vitals.Energy)
		sample.Healths = append(sample.Healths, vitals.Health)
		sample.Sizes = append(sample.Sizes, body.Size)
	}
	return sample
}
