package organism

import (
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/biosphere/components"
)

// Move runs the generic movement step: pay the movement cost, age, then
// either flee remembered predators or seek food.
func (o *Organism) Move(w World, rng *rand.Rand) {
	o.upkeep()
	if !o.Vitals.Alive {
		return
	}
	if o.Caps.CanAttack {
		if predators := o.nearbyPredators(w, rng); len(predators) > 0 {
			o.flee(predators, w)
			return
		}
	}
	o.seekFood(w, rng)
}

// upkeep charges the movement cost and ages the organism by one tick.
func (o *Organism) upkeep() {
	cfg := o.cfg.Energy
	cost := cfg.MoveCost * o.Body.Size
	if o.Vitals.Age > cfg.OldAge {
		cost *= cfg.OldAgeMultiplier
	}
	if o.Vitals.Energy < cfg.LowEnergy {
		cost *= cfg.LowEnergyMultiplier
	}
	o.spend(cost)
	o.AgeOrganism()
}

// nearbyPredators returns living organisms currently able to attack o.
func (o *Organism) nearbyPredators(w World, rng *rand.Rand) []*Organism {
	var out []*Organism
	for _, other := range w.Population() {
		if other.Is(o) || !other.Vitals.Alive {
			continue
		}
		if other.CanAttackOther(o, rng) {
			out = append(out, other)
		}
	}
	return out
}

// flee steps away from every predator o remembers at half speed.
func (o *Organism) flee(predators []*Organism, w World) {
	width, height := w.Bounds()
	for _, p := range predators {
		if !o.Memory.Remembers(p.Entity) {
			continue
		}
		away := direction(*p.Pos, *o.Pos)
		step(o.Pos, away, o.Body.Speed/2)
		o.Vitals.Steered = true
	}
	clampToBounds(o.Pos, width, height)
}

// seekFood picks the food item maximizing radius/distance and steps toward
// it. Food at distance zero always wins. Reports whether food was found.
func (o *Organism) seekFood(w World, rng *rand.Rand) bool {
	food := w.Food()
	if len(food) == 0 {
		return false
	}

	radius := o.EatingRadius()
	best, bestScore := -1, math.Inf(-1)
	for i, f := range food {
		d := Distance(*o.Pos, components.Position{X: f.X, Y: f.Y})
		score := math.Inf(1)
		if d > 0 {
			score = radius / d
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}

	target := components.Position{X: food[best].X, Y: food[best].Y}
	step(o.Pos, direction(*o.Pos, target), o.Body.Speed)
	o.Pos.X += o.jitter(rng)
	o.Pos.Y += o.jitter(rng)

	width, height := w.Bounds()
	clampToBounds(o.Pos, width, height)
	o.Vitals.Steered = true
	return true
}

// approach steps toward target by up to Speed without overshooting.
func (o *Organism) approach(target components.Position, w World) {
	d := Distance(*o.Pos, target)
	step(o.Pos, direction(*o.Pos, target), math.Min(o.Body.Speed, d))
	width, height := w.Bounds()
	clampToBounds(o.Pos, width, height)
	o.Vitals.Steered = true
}

// Wander drifts an organism that did not steer this tick.
func (o *Organism) Wander(w World, rng *rand.Rand) {
	if !o.Caps.CanWander || o.Vitals.Steered || !o.Vitals.Alive {
		return
	}
	o.Pos.X += o.jitter(rng)
	o.Pos.Y += o.jitter(rng)
	width, height := w.Bounds()
	clampToBounds(o.Pos, width, height)
}

// ConsumeFood converts nutrition into energy and, for large meals, growth.
func (o *Organism) ConsumeFood(amount float64) {
	cfg := o.cfg.Feeding
	if amount >= o.Body.Size*cfg.IntakeFactor {
		o.Vitals.Energy += amount * cfg.FullGain
		o.Body.Size = math.Min(o.cfg.Organism.MaxSize, o.Body.Size+amount*cfg.GrowthFactor)
		return
	}
	o.Vitals.Energy += amount * cfg.PartialGain
}

// ReduceHealth applies damage. The first time health reaches zero or below
// the organism dies: energy is zeroed and its color darkens. Later calls do
// nothing.
func (o *Organism) ReduceHealth(amount float64) {
	o.damage(amount, components.CauseOther)
}

func (o *Organism) damage(amount float64, cause components.DeathCause) {
	if !o.Vitals.Alive {
		return
	}
	o.Vitals.Health -= amount
	if o.Vitals.Health <= 0 {
		o.Vitals.Alive = false
		o.Vitals.Energy = 0
		o.Vitals.Cause = cause
		o.Body.Color = o.Body.Color.Darken(50)
	}
}

// AgeOrganism advances age by one tick; past senescence every tick costs
// health.
func (o *Organism) AgeOrganism() {
	o.Vitals.Age++
	if o.Vitals.Age > o.cfg.Aging.SenescenceAge {
		o.damage(o.cfg.Aging.SenescencePenalty, components.CauseAge)
	}
}

// Decay applies the per-tick base energy decay.
func (o *Organism) Decay() {
	o.spend(o.cfg.Energy.BaseDecay)
}

// RecoverEnergy applies sunlight and the food-pool bonus, capped at
// MaxEnergy.
func (o *Organism) RecoverEnergy(sunlight bool, foodAvailable int) {
	cfg := o.cfg.Energy
	if sunlight {
		o.Vitals.Energy += cfg.SunlightGain
	}
	if o.Caps.CanEat && foodAvailable > 0 {
		o.Vitals.Energy += float64(foodAvailable) * cfg.FoodBonusFactor
	}
	o.Vitals.Energy = math.Min(o.Vitals.Energy, o.cfg.Organism.MaxEnergy)
}

// AdjustToEnvironment applies climate stress, pollution damage and the cost
// of infection, then gives the organism its chance to mutate.
func (o *Organism) AdjustToEnvironment(temperature, co2, pollution float64, rng *rand.Rand) {
	cl := o.cfg.Climate
	switch {
	case temperature < cl.ComfortMin:
		o.spend(cl.ColdEnergyLoss)
		o.Body.Speed *= cl.ColdSpeedFactor
	case temperature > cl.ComfortMax:
		o.spend(cl.HeatEnergyLoss)
		o.Body.Speed *= cl.HeatSpeedFactor
	}
	if co2 < cl.CO2Min || co2 > cl.CO2Max {
		o.spend(cl.CO2EnergyLoss)
	}

	if pollution > 0 {
		damage := (1 - o.Temper.PollutionResistance) * cl.PollutionDamage * pollution / 100
		if o.Temper.ToxinAbsorption {
			damage /= 2
		}
		if damage > 0 {
			o.damage(damage, components.CausePollution)
		}
	}

	if o.Vitals.Infected {
		d := o.cfg.Disease
		o.spend(o.cfg.Energy.BaseDecay * (d.DrainMultiplier - 1))
		o.Vitals.Age += d.ExtraAging
	}

	o.Mutate(rng)
}

// Reproduce produces one offspring when capable and above the energy
// threshold. The parent shrinks. The child is detached; the caller places it.
func (o *Organism) Reproduce(rng *rand.Rand) (*Organism, bool) {
	rc := o.cfg.Reproduction
	if !o.Caps.CanReproduce || o.Vitals.Energy < rc.EnergyThreshold {
		return nil, false
	}

	child := New(o.cfg)
	spread := o.Body.Size * rc.OffsetFactor
	child.Pos.X = o.Pos.X + (rng.Float64()*2-1)*spread
	child.Pos.Y = o.Pos.Y + (rng.Float64()*2-1)*spread

	child.Body.Size = o.Body.Size * rc.ChildSizeFraction
	child.Body.Speed = Clamp(o.Body.Speed+(rng.Float64()*2-1)*rc.SpeedJitter, 0, o.cfg.Organism.MaxSpeed)
	child.Body.Shape = o.Body.Shape
	child.Body.Color = driftColor(o.Body.Color, rc.ColorDrift, rng)

	child.Temper.Aggression = Clamp01(o.Temper.Aggression + (rng.Float64()*2-1)*rc.AggressionJitter)
	child.Temper.Defense = o.Temper.Defense
	child.Temper.PollutionResistance = o.Temper.PollutionResistance

	*child.Caps = *o.Caps
	child.Lineage.Variant = o.Lineage.Variant
	child.Lineage.Autotroph = o.Lineage.Autotroph
	child.Lineage.Generation = o.Lineage.Generation + 1

	o.Body.Size *= rc.ParentSizeFactor
	return child, true
}

func driftColor(c components.Color, drift int, rng *rand.Rand) components.Color {
	ch := func(v uint8) uint8 {
		if drift <= 0 {
			return v
		}
		n := int(v) + rng.Intn(2*drift+1) - drift
		return uint8(Clamp(float64(n), 0, 255))
	}
	return components.Color{R: ch(c.R), G: ch(c.G), B: ch(c.B)}
}

// Mutate perturbs one randomly chosen trait with probability Mutation.Chance.
func (o *Organism) Mutate(rng *rand.Rand) {
	mc := o.cfg.Mutation
	if rng.Float64() >= mc.Chance {
		return
	}
	signed := func(delta float64) float64 { return (rng.Float64()*2 - 1) * delta }
	switch rng.Intn(5) {
	case 0:
		o.Body.Size = Clamp(o.Body.Size+signed(mc.SizeDelta), 0, o.cfg.Organism.MaxSize)
	case 1:
		o.Body.Speed = Clamp(o.Body.Speed+signed(mc.SpeedDelta), 0, o.cfg.Organism.MaxSpeed)
	case 2:
		o.Temper.Aggression = Clamp01(o.Temper.Aggression + signed(mc.TraitDelta))
	case 3:
		o.Temper.Defense = Clamp01(o.Temper.Defense + signed(mc.TraitDelta))
	case 4:
		o.Temper.ToxinAbsorption = true
	}
}

// CanAttackOther reports whether o may attack other this tick. The check
// consumes one random draw when the organism is capable and in range.
func (o *Organism) CanAttackOther(other *Organism, rng *rand.Rand) bool {
	if !o.Caps.CanAttack || other.Is(o) {
		return false
	}
	if o.DistanceTo(other) >= o.EatingRadius() {
		return false
	}
	return rng.Float64() < o.Temper.Aggression
}

// Attack deals attack damage to other.
func (o *Organism) Attack(other *Organism) {
	if !o.Caps.CanAttack {
		return
	}
	other.damage(o.cfg.Combat.AttackDamage, components.CausePredation)
	o.Vitals.Experience++
}

// strike attacks other and, on a kill, absorbs a share of the victim's
// energy. Reports whether the victim died from this strike.
func (o *Organism) strike(other *Organism) bool {
	wasAlive := other.Vitals.Alive
	energy := other.Vitals.Energy
	o.Attack(other)
	if wasAlive && !other.Vitals.Alive {
		o.ConsumeFood(energy * o.cfg.Feeding.KillTransfer)
		return true
	}
	return false
}

// EatOffspring absorbs energy from a younger-generation organism in reach.
func (o *Organism) EatOffspring(offspring *Organism) bool {
	if !o.Caps.CanEatOffspring || offspring.Is(o) || !offspring.Vitals.Alive {
		return false
	}
	if offspring.Lineage.Generation <= o.Lineage.Generation {
		return false
	}
	if o.DistanceTo(offspring) >= o.Body.Size*o.cfg.Behavior.OffspringReach {
		return false
	}
	o.Vitals.Energy += offspring.Vitals.Energy * o.cfg.Feeding.OffspringShare
	offspring.Vitals.Energy = 0
	return true
}

// LearnFromEncounter remembers predator.
func (o *Organism) LearnFromEncounter(predator ecs.Entity) {
	o.Memory.Record(predator)
}

// Interact applies the symbiosis bonus to both partners.
func (o *Organism) Interact(other *Organism) {
	bonus := o.cfg.Combat.SymbiosisBonus
	o.Vitals.Energy += bonus
	other.Vitals.Energy += bonus
}

// feedFromPool eats the first food item within the eating radius.
func (o *Organism) feedFromPool(w World) bool {
	if !o.Caps.CanEat {
		return false
	}
	radius := o.EatingRadius()
	for i, f := range w.Food() {
		if Distance(*o.Pos, components.Position{X: f.X, Y: f.Y}) <= radius {
			eaten := w.TakeFood(i)
			o.ConsumeFood(eaten.Nutrition)
			return true
		}
	}
	return false
}
