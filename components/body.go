package components

// Color is an 8-bit RGB triple.
type Color struct {
	R, G, B uint8
}

// Darken subtracts amount from every channel, flooring at 0.
func (c Color) Darken(amount uint8) Color {
	sub := func(v uint8) uint8 {
		if v < amount {
			return 0
		}
		return v - amount
	}
	return Color{R: sub(c.R), G: sub(c.G), B: sub(c.B)}
}

// Body holds physical properties of an organism.
type Body struct {
	Size  float64 // 0..MaxSize; eating radius is derived from it
	Speed float64 // distance per tick, >= 0
	Color Color
	Shape Shape
}

// Temperament holds the heritable behavioral traits, all in [0, 1].
type Temperament struct {
	Aggression          float64
	Defense             float64
	PollutionResistance float64
	ToxinAbsorption     bool // unlocked once by mutation, never lost
}
