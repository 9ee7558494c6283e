package components

// Position represents an entity's world position.
type Position struct {
	X, Y float64
}

// Food is a passive resource. It is not an ECS entity; the environment keeps
// food in an ordered pool so that "first food in range" is well defined.
type Food struct {
	X, Y      float64
	Nutrition float64
}
