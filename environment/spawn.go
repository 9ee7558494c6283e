package environment

import (
	"github.com/pthm-cable/biosphere/components"
	"github.com/pthm-cable/biosphere/config"
	"github.com/pthm-cable/biosphere/organism"
)

// variantFor maps a configured variant name to its behavior tag.
func variantFor(name string) (components.Variant, components.AutotrophKind) {
	switch name {
	case config.VariantCarnivore:
		return components.VariantCarnivore, components.AutotrophNone
	case config.VariantOmnivore:
		return components.VariantOmnivore, components.AutotrophNone
	case config.VariantPhototroph:
		return components.VariantAutotroph, components.AutotrophPhototroph
	case config.VariantChemotroph:
		return components.VariantAutotroph, components.AutotrophChemotroph
	case config.VariantFilterFeeder:
		return components.VariantFilterFeeder, components.AutotrophNone
	case config.VariantParasite:
		return components.VariantParasite, components.AutotrophNone
	case config.VariantSymbiotic:
		return components.VariantSymbiotic, components.AutotrophNone
	case config.VariantDetritivore:
		return components.VariantDetritivore, components.AutotrophNone
	default:
		return components.VariantHerbivore, components.AutotrophNone
	}
}

// spawnInitialPopulation creates the founders in variant order.
func (e *Environment) spawnInitialPopulation() {
	for _, name := range config.VariantNames {
		for range e.cfg.Population.InitialMix[name] {
			e.add(e.newFounder(name))
		}
	}
}

// newFounder builds a detached generation-zero organism with random traits.
func (e *Environment) newFounder(name string) *organism.Organism {
	cfg := e.cfg.Organism
	rng := e.rng

	o := organism.New(e.cfg)
	o.Pos.X = rng.Float64() * e.cfg.World.Width
	o.Pos.Y = rng.Float64() * e.cfg.World.Height

	o.Body.Size = cfg.InitialSizeMin + rng.Float64()*(cfg.InitialSizeMax-cfg.InitialSizeMin)
	speed := cfg.InitialSpeedMin + rng.Float64()*(cfg.InitialSpeedMax-cfg.InitialSpeedMin)
	o.Body.Speed = organism.Clamp(speed, 0, cfg.MaxSpeed)
	o.Body.Color = components.Color{
		R: uint8(rng.Intn(256)),
		G: uint8(rng.Intn(256)),
		B: uint8(rng.Intn(256)),
	}
	o.Body.Shape = components.Shape(rng.Intn(components.ShapeCount))

	o.Temper.Aggression = rng.Float64()
	o.Temper.Defense = rng.Float64()
	o.Temper.PollutionResistance = rng.Float64()

	o.Lineage.Variant, o.Lineage.Autotroph = variantFor(name)
	*o.Caps = organism.CapabilitiesFrom(e.cfg.Variants[name])
	return o
}

// Spawn adds a detached organism to the end of the population and returns
// its bound view. Previously returned views are stale afterwards.
func (e *Environment) Spawn(o *organism.Organism) *organism.Organism {
	ent := e.add(o)
	e.rebuildViews()
	return e.byEntity[ent]
}
