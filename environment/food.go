package environment

import (
	"math/rand"
	"slices"

	"github.com/pthm-cable/biosphere/components"
)

// FoodPool is the ordered collection of food items. Order matters: feeding
// takes the first item in range.
type FoodPool struct {
	items []components.Food

	nutritionMin, nutritionMax float64
}

// NewFoodPool creates an empty pool producing food with nutrition in
// [min, max].
func NewFoodPool(nutritionMin, nutritionMax float64) *FoodPool {
	return &FoodPool{nutritionMin: nutritionMin, nutritionMax: nutritionMax}
}

// Len returns the number of food items.
func (p *FoodPool) Len() int {
	return len(p.items)
}

// Items returns the live pool. It must not be retained across Take.
func (p *FoodPool) Items() []components.Food {
	return p.items
}

// Snapshot returns a copy of the pool.
func (p *FoodPool) Snapshot() []components.Food {
	return slices.Clone(p.items)
}

// Take removes and returns the item at index i, preserving order.
func (p *FoodPool) Take(i int) components.Food {
	f := p.items[i]
	p.items = slices.Delete(p.items, i, i+1)
	return f
}

// Add appends an item.
func (p *FoodPool) Add(f components.Food) {
	p.items = append(p.items, f)
}

// Spawn appends n items at uniform random positions.
func (p *FoodPool) Spawn(n int, width, height float64, rng *rand.Rand) {
	for range n {
		p.items = append(p.items, components.Food{
			X:         rng.Float64() * width,
			Y:         rng.Float64() * height,
			Nutrition: p.nutritionMin + rng.Float64()*(p.nutritionMax-p.nutritionMin),
		})
	}
}

// Replenish spawns perUpdate items when the pool holds fewer than floor.
// Returns the number spawned.
func (p *FoodPool) Replenish(floor, perUpdate int, width, height float64, rng *rand.Rand) int {
	if len(p.items) >= floor {
		return 0
	}
	p.Spawn(perUpdate, width, height, rng)
	return perUpdate
}
