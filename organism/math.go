package organism

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/biosphere/components"
)

// Clamp clamps v between lo and hi.
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp01 clamps v to the [0, 1] range.
func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}

func vec(p components.Position) r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b components.Position) float64 {
	return r2.Norm(r2.Sub(vec(a), vec(b)))
}

// direction returns the unit vector from a toward b, or the zero vector when
// the points coincide.
func direction(from, to components.Position) r2.Vec {
	d := r2.Sub(vec(to), vec(from))
	n := r2.Norm(d)
	if n == 0 {
		return r2.Vec{}
	}
	return r2.Scale(1/n, d)
}

// clampToBounds keeps p inside [0,width]x[0,height].
func clampToBounds(p *components.Position, width, height float64) {
	p.X = Clamp(p.X, 0, width)
	p.Y = Clamp(p.Y, 0, height)
}

// ClampToBounds is the exported form used when placing new organisms.
func ClampToBounds(p *components.Position, width, height float64) {
	clampToBounds(p, width, height)
}

// step advances p by dir scaled by dist.
func step(p *components.Position, dir r2.Vec, dist float64) {
	moved := r2.Add(vec(*p), r2.Scale(dist, dir))
	p.X, p.Y = moved.X, moved.Y
}
