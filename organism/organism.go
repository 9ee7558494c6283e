// Package organism implements organism behavior on top of the ECS components.
//
// An Organism is a view: a bundle of pointers into component storage plus the
// entity handle they belong to. Views built by the environment point into the
// ark world and are valid until the next structural change (spawn or remove).
// Views built with New own their components and are used for offspring and
// tests.
package organism

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/biosphere/components"
	"github.com/pthm-cable/biosphere/config"
)

// Organism is a view over one organism's components.
type Organism struct {
	Entity  ecs.Entity
	Pos     *components.Position
	Body    *components.Body
	Temper  *components.Temperament
	Vitals  *components.Vitals
	Lineage *components.Lineage
	Caps    *components.Capabilities
	Memory  *components.Memory

	cfg *config.Config
}

// World is what an organism can observe and change outside itself.
type World interface {
	Bounds() (width, height float64)
	// Population returns the living organisms in iteration order.
	Population() []*Organism
	// Food returns the food pool in iteration order. Callers must not retain it
	// across TakeFood.
	Food() []components.Food
	// TakeFood removes and returns the food at index i.
	TakeFood(i int) components.Food
	// Corpses returns dead organisms that have not been recycled yet.
	Corpses() []*Organism
	// Recycle marks a corpse as consumed.
	Recycle(corpse *Organism)
	// HasWater reports whether any water source exists.
	HasWater() bool
}

// New returns a detached organism with full health and the configured
// starting energy. All other state is zero.
func New(cfg *config.Config) *Organism {
	return &Organism{
		Pos:    &components.Position{},
		Body:   &components.Body{},
		Temper: &components.Temperament{},
		Vitals: &components.Vitals{
			Energy: cfg.Organism.InitialEnergy,
			Health: cfg.Organism.MaxHealth,
			Alive:  true,
		},
		Lineage: &components.Lineage{},
		Caps:    &components.Capabilities{},
		Memory:  &components.Memory{},
		cfg:     cfg,
	}
}

// Bind builds a view over components owned by an ECS world.
func Bind(
	cfg *config.Config,
	e ecs.Entity,
	pos *components.Position,
	body *components.Body,
	temper *components.Temperament,
	vitals *components.Vitals,
	lineage *components.Lineage,
	caps *components.Capabilities,
	memory *components.Memory,
) *Organism {
	return &Organism{
		Entity:  e,
		Pos:     pos,
		Body:    body,
		Temper:  temper,
		Vitals:  vitals,
		Lineage: lineage,
		Caps:    caps,
		Memory:  memory,
		cfg:     cfg,
	}
}

// CapabilitiesFrom converts a configured capability set.
func CapabilitiesFrom(c config.CapabilityConfig) components.Capabilities {
	return components.Capabilities{
		CanAttack:       c.CanAttack,
		CanEat:          c.CanEat,
		CanReproduce:    c.CanReproduce,
		CanChangeColor:  c.CanChangeColor,
		CanChangeShape:  c.CanChangeShape,
		CanEatOffspring: c.CanEatOffspring,
		CanWander:       c.CanWander,
	}
}

// Config returns the configuration the organism was built with.
func (o *Organism) Config() *config.Config {
	return o.cfg
}

// Alive reports whether the organism is alive.
func (o *Organism) Alive() bool {
	return o.Vitals.Alive
}

// Is reports whether both views refer to the same organism.
func (o *Organism) Is(other *Organism) bool {
	if o == other {
		return true
	}
	// Detached organisms have no entity; only pointer identity applies.
	if o.Entity.IsZero() || other.Entity.IsZero() {
		return false
	}
	return o.Entity == other.Entity
}

// EatingRadius is derived from size.
func (o *Organism) EatingRadius() float64 {
	return o.Body.Size * o.cfg.Organism.EatingRadiusFactor
}

// DistanceTo returns the distance to another organism.
func (o *Organism) DistanceTo(other *Organism) float64 {
	return Distance(*o.Pos, *other.Pos)
}

// Policy returns the behavior policy for the organism's variant.
func (o *Organism) Policy() Policy {
	return PolicyFor(o.Lineage.Variant)
}

// spend removes energy, flooring at zero. Energy alone never kills.
func (o *Organism) spend(amount float64) {
	o.Vitals.Energy -= amount
	if o.Vitals.Energy < 0 {
		o.Vitals.Energy = 0
	}
}

// jitter returns a uniform offset in [-Jitter, Jitter].
func (o *Organism) jitter(rng *rand.Rand) float64 {
	return (rng.Float64()*2 - 1) * o.cfg.Behavior.Jitter
}
