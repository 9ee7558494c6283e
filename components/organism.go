package components

import "github.com/mlange-42/ark/ecs"

// Vitals tracks an organism's metabolic and life state.
// Alive must equal Health > 0 after every health change.
type Vitals struct {
	Energy     float64
	Health     float64
	Age        int // ticks
	Experience int
	Alive      bool
	Infected   bool
	Steered    bool // moved deliberately (food, prey, flock, corpse, flight) this tick
	DiedTick   int  // tick at which Alive became false
	Cause      DeathCause
	Recycled   bool // corpse already consumed by a detritivore
}

// DeathCause records what drove health to zero.
type DeathCause uint8

const (
	CauseNone DeathCause = iota
	CauseAge
	CausePollution
	CausePredation
	CauseParasite
	CauseHostDeath
	CauseOther
)

var deathCauseNames = [...]string{"none", "age", "pollution", "predation", "parasite", "host_death", "other"}

func (c DeathCause) String() string {
	if int(c) < len(deathCauseNames) {
		return deathCauseNames[c]
	}
	return "unknown"
}

// DeathCauses lists every cause that ends a life, in enum order.
func DeathCauses() []DeathCause {
	return []DeathCause{CauseAge, CausePollution, CausePredation, CauseParasite, CauseHostDeath, CauseOther}
}

// Lineage bundles identity, variant and ancestry.
type Lineage struct {
	ID         uint32
	Generation int
	Variant    Variant
	Autotroph  AutotrophKind
}

// Capabilities are the behavior gates fixed when an organism is created.
type Capabilities struct {
	CanAttack       bool
	CanEat          bool
	CanReproduce    bool
	CanChangeColor  bool
	CanChangeShape  bool
	CanEatOffspring bool
	CanWander       bool
}

// Memory holds predators this organism has encountered. Entries are
// generational entity handles: a remembered predator may be removed from the
// world at any time and must be resolved with World.Alive before use.
type Memory struct {
	Predators map[ecs.Entity]struct{}
}

// Remembers reports whether e was recorded as a predator.
func (m *Memory) Remembers(e ecs.Entity) bool {
	if m.Predators == nil {
		return false
	}
	_, ok := m.Predators[e]
	return ok
}

// Record stores e as a predator.
func (m *Memory) Record(e ecs.Entity) {
	if m.Predators == nil {
		m.Predators = make(map[ecs.Entity]struct{})
	}
	m.Predators[e] = struct{}{}
}
