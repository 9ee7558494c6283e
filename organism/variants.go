package organism

import (
	"math/rand"

	"github.com/pthm-cable/biosphere/components"
)

// Policy is the variant-specific behavior plugged into the tick phases.
type Policy interface {
	// Move runs during the movement phase.
	Move(o *Organism, w World, rng *rand.Rand)
	// Feed runs during the feeding phase and reports whether o ate.
	Feed(o *Organism, w World) bool
	// Engage resolves o acting on target during the combat phase. It reports
	// true when o is done engaging for this tick.
	Engage(o, target *Organism, rng *rand.Rand) bool
}

var policies = [...]Policy{
	components.VariantHerbivore:    herbivore{},
	components.VariantCarnivore:    carnivore{},
	components.VariantOmnivore:     omnivore{},
	components.VariantAutotroph:    autotroph{},
	components.VariantFilterFeeder: filterFeeder{},
	components.VariantParasite:     parasite{},
	components.VariantSymbiotic:    symbiotic{},
	components.VariantDetritivore:  detritivore{},
}

// PolicyFor returns the policy for v. Unknown variants get the generic one.
func PolicyFor(v components.Variant) Policy {
	if int(v) >= len(policies) {
		return generic{}
	}
	return policies[v]
}

// generic is the baseline: move, eat from the pool, attack when eligible.
type generic struct{}

func (generic) Move(o *Organism, w World, rng *rand.Rand) { o.Move(w, rng) }

func (generic) Feed(o *Organism, w World) bool { return o.feedFromPool(w) }

func (generic) Engage(o, target *Organism, rng *rand.Rand) bool {
	if !o.CanAttackOther(target, rng) {
		return false
	}
	return o.strike(target)
}

// passive never attacks.
type passive struct{ generic }

func (passive) Engage(*Organism, *Organism, *rand.Rand) bool { return false }

type herbivore struct{ passive }

// Move adds flocking: after the generic step, drift toward the centroid of
// herbivores within FlockRadius.
func (herbivore) Move(o *Organism, w World, rng *rand.Rand) {
	o.Move(w, rng)
	if !o.Vitals.Alive {
		return
	}

	radius := o.cfg.Behavior.FlockRadius
	var cx, cy float64
	n := 0
	for _, other := range w.Population() {
		if other.Is(o) || !other.Vitals.Alive || other.Lineage.Variant != components.VariantHerbivore {
			continue
		}
		if o.DistanceTo(other) > radius {
			continue
		}
		cx += other.Pos.X
		cy += other.Pos.Y
		n++
	}
	if n == 0 {
		return
	}
	centroid := components.Position{X: cx / float64(n), Y: cy / float64(n)}
	step(o.Pos, direction(*o.Pos, centroid), o.Body.Speed/2)
	width, height := w.Bounds()
	clampToBounds(o.Pos, width, height)
	o.Vitals.Steered = true
}

type carnivore struct{}

func isPrey(o *Organism) bool {
	v := o.Lineage.Variant
	return v == components.VariantHerbivore || v == components.VariantOmnivore
}

// Move hunts: after the generic step, pursue the weakest eligible prey and
// strike it if still in reach.
func (carnivore) Move(o *Organism, w World, rng *rand.Rand) {
	o.Move(w, rng)
	if !o.Vitals.Alive {
		return
	}

	var prey *Organism
	for _, other := range w.Population() {
		if !other.Vitals.Alive || !isPrey(other) {
			continue
		}
		if !o.CanAttackOther(other, rng) {
			continue
		}
		if prey == nil || other.Vitals.Health < prey.Vitals.Health {
			prey = other
		}
	}
	if prey == nil {
		return
	}

	o.approach(*prey.Pos, w)
	if o.DistanceTo(prey) < o.EatingRadius() {
		prey.LearnFromEncounter(o.Entity)
		o.strike(prey)
	}
}

func (carnivore) Feed(o *Organism, w World) bool { return o.feedFromPool(w) }

// Engage only targets herbivores and omnivores.
func (carnivore) Engage(o, target *Organism, rng *rand.Rand) bool {
	if !isPrey(target) || !o.CanAttackOther(target, rng) {
		return false
	}
	target.LearnFromEncounter(o.Entity)
	return o.strike(target)
}

type omnivore struct{ generic }

// Move seeks food without fleeing, then attacks everything it is eligible to
// attack.
func (omnivore) Move(o *Organism, w World, rng *rand.Rand) {
	o.upkeep()
	if !o.Vitals.Alive {
		return
	}
	o.seekFood(w, rng)
	for _, other := range w.Population() {
		if !other.Vitals.Alive {
			continue
		}
		if o.CanAttackOther(other, rng) {
			o.strike(other)
		}
	}
}

type autotroph struct{ passive }

// Move gains energy by photosynthesis or chemosynthesis before moving.
func (autotroph) Move(o *Organism, w World, rng *rand.Rand) {
	switch o.Lineage.Autotroph {
	case components.AutotrophPhototroph:
		o.Vitals.Energy += o.cfg.Behavior.PhototrophGain
	case components.AutotrophChemotroph:
		o.Vitals.Energy += o.cfg.Behavior.ChemotrophGain
	}
	o.Move(w, rng)
}

func (autotroph) Feed(*Organism, World) bool { return false }

type filterFeeder struct{ generic }

// Feed filters a fixed amount while any water source exists, otherwise it
// eats from the pool.
func (filterFeeder) Feed(o *Organism, w World) bool {
	if !o.Caps.CanEat {
		return false
	}
	if w.HasWater() {
		o.ConsumeFood(o.cfg.Feeding.FilterAmount)
		return true
	}
	return o.feedFromPool(w)
}

type parasite struct{ generic }

// Engage drains the host. A parasite whose host dies dies with it.
func (parasite) Engage(o, target *Organism, rng *rand.Rand) bool {
	if !target.Vitals.Alive || !o.CanAttackOther(target, rng) {
		return false
	}
	cb := o.cfg.Combat
	target.damage(cb.ParasiteDamage, components.CauseParasite)
	o.Vitals.Energy += cb.ParasiteGain
	o.Vitals.Experience++
	if cb.ParasiteInfects && target.Vitals.Alive {
		target.Vitals.Infected = true
	}
	if !target.Vitals.Alive {
		o.damage(o.Vitals.Health, components.CauseHostDeath)
		return true
	}
	return false
}

type symbiotic struct{ generic }

// Engage exchanges the symbiosis bonus with a symbiotic partner in range.
// Each pair interacts once per tick: the partner with the lower ID initiates.
func (symbiotic) Engage(o, target *Organism, rng *rand.Rand) bool {
	if target.Lineage.Variant == components.VariantSymbiotic &&
		target.Vitals.Alive &&
		o.Lineage.ID < target.Lineage.ID &&
		o.DistanceTo(target) < o.EatingRadius() {
		o.Interact(target)
	}
	return generic{}.Engage(o, target, rng)
}

type detritivore struct{ passive }

// Move heads for the nearest unrecycled corpse and consumes it on arrival.
func (detritivore) Move(o *Organism, w World, rng *rand.Rand) {
	o.upkeep()
	if !o.Vitals.Alive {
		return
	}

	var nearest *Organism
	best := 0.0
	for _, c := range w.Corpses() {
		if c.Vitals.Recycled {
			continue
		}
		d := o.DistanceTo(c)
		if nearest == nil || d < best {
			nearest, best = c, d
		}
	}
	if nearest == nil {
		return
	}

	o.approach(*nearest.Pos, w)
	if o.DistanceTo(nearest) <= o.EatingRadius() {
		w.Recycle(nearest)
		o.ConsumeFood(o.cfg.Feeding.CorpseGain)
	}
}

func (detritivore) Feed(*Organism, World) bool { return false }
