package environment

import (
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/biosphere/components"
	"github.com/pthm-cable/biosphere/config"
	"github.com/pthm-cable/biosphere/organism"
)

const (
	sameVariantMultiplier      = 5.0 // spread within a variant
	differentVariantMultiplier = 0.1 // cross-variant spread is rare
)

// Contagion spreads infection between nearby organisms.
type Contagion struct {
	cfg config.DiseaseConfig

	// Reusable buffers to avoid allocations
	healthy   []*organism.Organism
	infect    []*organism.Organism
	neighbors []Neighbor
}

// NewContagion creates a contagion system.
func NewContagion(cfg config.DiseaseConfig) *Contagion {
	return &Contagion{
		cfg:     cfg,
		healthy: make([]*organism.Organism, 0, 256),
		infect:  make([]*organism.Organism, 0, 16),
	}
}

// Update spreads infection from infected to healthy living organisms and
// applies rare spontaneous infections. The grid must be current. Infections
// take effect after every organism was examined, so an organism infected this
// tick does not spread until the next. Returns the number of new infections.
func (c *Contagion) Update(
	pop []*organism.Organism,
	grid *SpatialGrid,
	posMap *ecs.Map1[components.Position],
	vitalsMap *ecs.Map1[components.Vitals],
	lineageMap *ecs.Map1[components.Lineage],
	rng *rand.Rand,
) int {
	c.healthy = c.healthy[:0]
	c.infect = c.infect[:0]

	for _, o := range pop {
		if o.Alive() && !o.Vitals.Infected {
			c.healthy = append(c.healthy, o)
		}
	}

	radius := c.cfg.SpreadRadius
	for _, o := range c.healthy {
		if radius <= 0 {
			break
		}
		c.neighbors = grid.QueryRadiusInto(c.neighbors[:0], o.Pos.X, o.Pos.Y, radius, o.Entity, posMap)

		for _, n := range c.neighbors {
			vitals := vitalsMap.Get(n.E)
			if vitals == nil || !vitals.Alive || !vitals.Infected {
				continue
			}

			prob := c.cfg.SpreadProb
			if lineage := lineageMap.Get(n.E); lineage != nil && lineage.Variant == o.Lineage.Variant {
				prob *= sameVariantMultiplier
			} else {
				prob *= differentVariantMultiplier
			}

			// Distance falloff - closer = more likely
			prob *= 1 - math.Sqrt(n.DistSq)/radius

			if rng.Float64() < prob {
				c.infect = append(c.infect, o)
				break // only get infected once per tick
			}
		}
	}

	for _, o := range c.healthy {
		if rng.Float64() < c.cfg.SpontaneousProb {
			c.infect = append(c.infect, o)
		}
	}

	n := 0
	for _, o := range c.infect {
		if !o.Vitals.Infected {
			o.Vitals.Infected = true
			n++
		}
	}
	return n
}
