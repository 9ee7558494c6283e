package environment

import (
	"github.com/pthm-cable/biosphere/components"
	"github.com/pthm-cable/biosphere/organism"
)

// tickWorld is what organisms see of the environment during a tick. Unlike
// the exported accessors it hands out the live food pool and views.
type tickWorld struct {
	e *Environment
}

var _ organism.World = tickWorld{}

func (w tickWorld) Bounds() (float64, float64) {
	return w.e.Bounds()
}

func (w tickWorld) Population() []*organism.Organism {
	return w.e.views
}

func (w tickWorld) Food() []components.Food {
	return w.e.food.Items()
}

func (w tickWorld) TakeFood(i int) components.Food {
	return w.e.food.Take(i)
}

func (w tickWorld) Corpses() []*organism.Organism {
	return w.e.corpseViews
}

func (w tickWorld) Recycle(corpse *organism.Organism) {
	if corpse.Vitals.Recycled {
		return
	}
	corpse.Vitals.Recycled = true
	w.e.collector.RecordRecycle()
}

func (w tickWorld) HasWater() bool {
	return len(w.e.cfg.World.WaterSources) > 0
}
