package quant

import "picproc/quant/internal/gamma"

// Pixel is a single RGBA byte pixel, channel order matching image/color.RGBA.
type Pixel struct {
	R, G, B, A uint8
}

// FPixel is a pixel in linear-gamma float space, each channel in [0,1].
// Alpha is not gamma-transformed (C1).
type FPixel struct {
	R, G, B, A float64
}

// ToF decodes a byte pixel into linear-float space under t.
func ToF(t *gamma.Table, p Pixel) FPixel {
	return FPixel{
		R: t.ToLinear(p.R),
		G: t.ToLinear(p.G),
		B: t.ToLinear(p.B),
		A: float64(p.A) / 255.0,
	}
}

// ToRGB inverse-gammas a linear-float pixel into bytes under the output
// gamma table t, rounding each channel.
func ToRGB(t *gamma.Table, p FPixel) Pixel {
	a := p.A*255.0 + 0.5
	switch {
	case a < 0:
		a = 0
	case a > 255:
		a = 255
	}
	return Pixel{
		R: t.FromLinear(p.R),
		G: t.FromLinear(p.G),
		B: t.FromLinear(p.B),
		A: uint8(a),
	}
}

// ColorDifference is the weighted squared perceptual distance between a
// query color and a palette/reference color. The chroma channels are
// weighted by the reference color's alpha, so transparent palette
// entries are cheap to match along RGB; alpha mismatch is weighted 4x.
func ColorDifference(q, ref FPixel) float64 {
	dr := q.R - ref.R
	dg := q.G - ref.G
	db := q.B - ref.B
	da := q.A - ref.A
	return (dr*dr+dg*dg+db*db)*ref.A + da*da*4
}
