// Package components defines ECS components for the simulation.
package components

// Variant is the behavioral tag selecting an organism's movement and feeding policy.
type Variant uint8

const (
	VariantHerbivore Variant = iota
	VariantCarnivore
	VariantOmnivore
	VariantAutotroph
	VariantFilterFeeder
	VariantParasite
	VariantSymbiotic
	VariantDetritivore
)

// String returns the display name for a Variant.
func (v Variant) String() string {
	names := VariantNames()
	if int(v) < len(names) {
		return names[v]
	}
	return "unknown"
}

// VariantNames returns the display names for all variants.
// The order matches the Variant constants.
func VariantNames() []string {
	return []string{
		"herbivore", "carnivore", "omnivore", "autotroph",
		"filter_feeder", "parasite", "symbiotic", "detritivore",
	}
}

// VariantCount returns the number of variants.
func VariantCount() int {
	return len(VariantNames())
}

// AutotrophKind distinguishes how an autotroph produces energy.
type AutotrophKind uint8

const (
	AutotrophNone AutotrophKind = iota
	AutotrophPhototroph
	AutotrophChemotroph
)

// String returns the display name for an AutotrophKind.
func (k AutotrophKind) String() string {
	switch k {
	case AutotrophPhototroph:
		return "phototroph"
	case AutotrophChemotroph:
		return "chemotroph"
	default:
		return "none"
	}
}

// Shape is the drawn outline of an organism.
type Shape uint8

const (
	ShapeCircle Shape = iota
	ShapeSquare
	ShapeTriangle
)

// ShapeCount is the number of shapes.
const ShapeCount = 3
