package environment

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/biosphere/organism"
)

// ErrInvariant is wrapped by every invariant violation. A violation is a
// programming defect, never a runtime condition to recover from.
var ErrInvariant = errors.New("invariant violation")

// CheckInvariants verifies the state bounds that every tick must preserve and
// reports the first violation found.
func (e *Environment) CheckInvariants() error {
	cfg := e.cfg
	if n := e.livingCount(); n > cfg.Population.Max {
		return fmt.Errorf("%w: population %d exceeds max %d", ErrInvariant, n, cfg.Population.Max)
	}
	if e.pollution < 0 || e.pollution > 100 {
		return fmt.Errorf("%w: pollution %g outside [0,100]", ErrInvariant, e.pollution)
	}
	if e.temperature < cfg.Climate.TemperatureMin || e.temperature > cfg.Climate.TemperatureMax {
		return fmt.Errorf("%w: temperature %g outside [%g,%g]", ErrInvariant,
			e.temperature, cfg.Climate.TemperatureMin, cfg.Climate.TemperatureMax)
	}
	if e.co2 < 0 || e.co2 > 100 {
		return fmt.Errorf("%w: co2 %g outside [0,100]", ErrInvariant, e.co2)
	}
	for _, o := range e.views {
		if err := e.checkOrganism(o); err != nil {
			return err
		}
	}
	for _, o := range e.corpseViews {
		if err := e.checkOrganism(o); err != nil {
			return err
		}
	}
	return nil
}

func (e *Environment) checkOrganism(o *organism.Organism) error {
	oc := e.cfg.Organism
	id := o.Lineage.ID
	inUnit := func(v float64) bool { return v >= 0 && v <= 1 }

	switch {
	case o.Body.Size < 0 || o.Body.Size > oc.MaxSize:
		return fmt.Errorf("%w: organism %d size %g outside [0,%g]", ErrInvariant, id, o.Body.Size, oc.MaxSize)
	case o.Body.Speed < 0:
		return fmt.Errorf("%w: organism %d speed %g is negative", ErrInvariant, id, o.Body.Speed)
	case !inUnit(o.Temper.Aggression):
		return fmt.Errorf("%w: organism %d aggression %g outside [0,1]", ErrInvariant, id, o.Temper.Aggression)
	case !inUnit(o.Temper.Defense):
		return fmt.Errorf("%w: organism %d defense %g outside [0,1]", ErrInvariant, id, o.Temper.Defense)
	case !inUnit(o.Temper.PollutionResistance):
		return fmt.Errorf("%w: organism %d pollution resistance %g outside [0,1]", ErrInvariant, id, o.Temper.PollutionResistance)
	case o.Vitals.Health > oc.MaxHealth:
		return fmt.Errorf("%w: organism %d health %g above %g", ErrInvariant, id, o.Vitals.Health, oc.MaxHealth)
	case o.Vitals.Alive != (o.Vitals.Health > 0):
		return fmt.Errorf("%w: organism %d alive=%v with health %g", ErrInvariant, id, o.Vitals.Alive, o.Vitals.Health)
	case o.Vitals.Energy < 0:
		return fmt.Errorf("%w: organism %d energy %g is negative", ErrInvariant, id, o.Vitals.Energy)
	case o.Pos.X < 0 || o.Pos.X > e.cfg.World.Width || o.Pos.Y < 0 || o.Pos.Y > e.cfg.World.Height:
		return fmt.Errorf("%w: organism %d at (%g,%g) outside the world", ErrInvariant, id, o.Pos.X, o.Pos.Y)
	}
	return nil
}
