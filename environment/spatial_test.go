package environment

import (
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/biosphere/components"
)

func TestSpatialGridQueryRadius(t *testing.T) {
	world := ecs.NewWorld()
	mapper := ecs.NewMap1[components.Position](world)

	center := mapper.NewEntity(&components.Position{X: 50, Y: 50})
	near := mapper.NewEntity(&components.Position{X: 55, Y: 50})
	far := mapper.NewEntity(&components.Position{X: 90, Y: 90})
	edge := mapper.NewEntity(&components.Position{X: 0, Y: 0})

	grid := NewSpatialGrid(100, 100, 16)
	for _, e := range []ecs.Entity{center, near, far, edge} {
		p := mapper.Get(e)
		grid.Insert(e, p.X, p.Y)
	}

	got := grid.QueryRadiusInto(nil, 50, 50, 10, center, mapper)
	if len(got) != 1 || got[0].E != near {
		t.Fatalf("query = %+v, want only the near entity", got)
	}
	if got[0].DX != 5 || got[0].DY != 0 || got[0].DistSq != 25 {
		t.Errorf("neighbor delta = %+v", got[0])
	}

	// No wrap-around: the far corner is not a neighbor of the origin.
	got = grid.QueryRadiusInto(got[:0], 1, 1, 20, center, mapper)
	if len(got) != 1 || got[0].E != edge {
		t.Errorf("corner query = %+v, want only the edge entity", got)
	}

	grid.Clear()
	if got := grid.QueryRadiusInto(nil, 50, 50, 100, ecs.Entity{}, mapper); len(got) != 0 {
		t.Errorf("cleared grid returned %d neighbors", len(got))
	}
}

func TestFoodPoolTakePreservesOrder(t *testing.T) {
	p := NewFoodPool(5, 20)
	for i := range 4 {
		p.Add(components.Food{X: float64(i), Nutrition: 5})
	}

	taken := p.Take(1)
	if taken.X != 1 {
		t.Errorf("took %+v, want item 1", taken)
	}
	items := p.Items()
	if len(items) != 3 || items[0].X != 0 || items[1].X != 2 || items[2].X != 3 {
		t.Errorf("pool after take = %+v", items)
	}

	snap := p.Snapshot()
	snap[0].X = 99
	if p.Items()[0].X == 99 {
		t.Error("snapshot aliases the pool")
	}
}
