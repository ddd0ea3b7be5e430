// Package gamma carries byte<->linear pixel conversion as an explicit
// value instead of process-wide mutable state, so callers can run
// batches with different input gammas concurrently without corrupting
// each other's conversions.
package gamma

import "math"

// Table precomputes the byte-to-linear side of a gamma curve. The
// linear-to-byte side is cheap enough to compute directly.
type Table struct {
	gamma    float64
	toLinear [256]float64
}

// New builds a Table for the given gamma. A gamma of 0 is interpreted
// as "assume 1/2.2", matching the image-object contract in the API
// surface.
func New(g float64) *Table {
	if g <= 0 {
		g = 1.0 / 2.2
	}
	t := &Table{gamma: g}
	for i := range t.toLinear {
		t.toLinear[i] = math.Pow(float64(i)/255.0, g)
	}
	return t
}

// Gamma returns the exponent this table was built with.
func (t *Table) Gamma() float64 {
	return t.gamma
}

// ToLinear decodes a single gamma-encoded byte channel.
func (t *Table) ToLinear(b uint8) float64 {
	return t.toLinear[b]
}

// FromLinear inverse-gammas and rounds a linear channel back to a byte.
func (t *Table) FromLinear(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(math.Pow(v, 1.0/t.gamma)*255.0 + 0.5)
}
