package quant

import (
	"fmt"
	"math"

	"picproc/parallel"
	"picproc/quant/internal/gamma"
)

// Result is the quantize outcome (C11): a finalized colormap/palette,
// output gamma, and the dithering knobs that control RemapInto. One
// Result may service many remap calls against images that share its
// palette.
type Result struct {
	colormap     *Colormap
	palette      *Palette
	outputGamma  *gamma.Table
	ditherLevel  float64
	useDitherMap bool
	minOpaqueVal float64
	lastIndexTransparent bool
	paletteErr   float64 // raw colordifference units, not yet scaled
	baseError    float64

	pool   *parallel.Pool
}

// SetDitheringLevel sets the Floyd-Steinberg amplitude, [0,1]; 0
// disables dithering entirely. Checked consistently at the boundary
// (§9's open question is resolved this way: reject out-of-range
// values at the setter, never after assignment).
func (r *Result) SetDitheringLevel(level float64) error {
	if level < 0 || level > 1 {
		return ErrValueOutOfRange
	}
	r.ditherLevel = level
	return nil
}

// DitheringLevel returns the current dithering amplitude.
func (r *Result) DitheringLevel() float64 { return r.ditherLevel }

// SetOutputGamma overrides the gamma integer palette entries are
// encoded under, open interval (0,1).
func (r *Result) SetOutputGamma(g float64) error {
	if g <= 0 || g >= 1 {
		return ErrValueOutOfRange
	}
	r.outputGamma = gamma.New(g)
	for i, e := range r.colormap.Palette {
		px := ToRGB(r.outputGamma, e.Color)
		r.palette.Entries[i] = px
		r.colormap.Palette[i].Color = ToF(r.outputGamma, px)
	}
	return nil
}

// OutputGamma returns the gamma exponent the integer palette is
// encoded under.
func (r *Result) OutputGamma() float64 { return r.outputGamma.Gamma() }

// Palette returns a copy of the finalized integer palette.
func (r *Result) Palette() []Pixel {
	out := make([]Pixel, len(r.palette.Entries))
	copy(out, r.palette.Entries)
	return out
}

// NumTransparent is the count of leading low-alpha entries (§4.10);
// zero when last_index_transparent was set.
func (r *Result) NumTransparent() int { return r.palette.NumTrans }

// Error reports the palette-construction MSE in the external unit
// (§6): raw squared-color-distance scaled by 65536/6.
func (r *Result) Error() float64 { return r.paletteErr * 65536.0 / 6.0 }

// RemapInto writes one byte-per-pixel index plane for im into out
// (row-major, len(out) >= im.Width()*im.Height()), using this result's
// palette and dithering settings, and returns the average squared
// remapping error for this image.
func (r *Result) RemapInto(im *Image, out []uint8) (float64, error) {
	if len(out) < im.width*im.height {
		return 0, fmt.Errorf("%w: need %d bytes, got %d", ErrBufferTooSmall, im.width*im.height, len(out))
	}

	if r.ditherLevel <= 0 {
		return RemapPlain(im, r.colormap, r.minOpaqueVal, out, r.pool), nil
	}

	maxDitherError := math.Max(2.4*r.baseError, 16.0/255.0)

	if r.useDitherMap && im.ditherMap == nil {
		RemapPlain(im, r.colormap, r.minOpaqueVal, out, r.pool)
		im.ditherMap = updateDitherMap(im, out, len(r.colormap.Palette))
		RemapDithered(im, r.colormap, r.minOpaqueVal, r.ditherLevel, maxDitherError, true, true, out)
		return averageError(im, r.colormap, out), nil
	}

	RemapDithered(im, r.colormap, r.minOpaqueVal, r.ditherLevel, maxDitherError, r.useDitherMap, false, out)
	return averageError(im, r.colormap, out), nil
}

// RemapRows is the row-pointer variant of RemapInto, for callers that
// do not want a contiguous output buffer.
func (r *Result) RemapRows(im *Image, rows [][]uint8) (float64, error) {
	if len(rows) < im.height {
		return 0, fmt.Errorf("%w: need %d rows, got %d", ErrBufferTooSmall, im.height, len(rows))
	}
	flat := make([]uint8, im.width*im.height)
	errv, err := r.RemapInto(im, flat)
	if err != nil {
		return 0, err
	}
	for y := 0; y < im.height; y++ {
		copy(rows[y], flat[y*im.width:(y+1)*im.width])
	}
	return errv, nil
}

func averageError(im *Image, cm *Colormap, out []uint8) float64 {
	var sum float64
	for y := 0; y < im.height; y++ {
		row := im.rows[y]
		for x := 0; x < im.width; x++ {
			px := ToF(im.gamma, row[x])
			idx := out[y*im.width+x]
			sum += ColorDifference(px, cm.Palette[idx].Color)
		}
	}
	return sum / float64(im.width*im.height)
}

// updateDitherMap down-weights dithering over regions whose plain
// remap already settled on a single palette index across a pixel's
// 4-neighborhood, since diffusing error into a flat, correctly-matched
// region only adds visible noise. Pixels on a boundary between indices
// keep the full edge-map amplitude.
func updateDitherMap(im *Image, plainIdx []uint8, numColors int) []float64 {
	cols, rows := im.width, im.height
	dm := make([]float64, cols*rows)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			idx := plainIdx[y*cols+x]
			flat := true
			for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || nx >= cols || ny < 0 || ny >= rows {
					continue
				}
				if plainIdx[ny*cols+nx] != idx {
					flat = false
					break
				}
			}
			edge := 15.0 / 16.0
			if im.edges != nil {
				edge = im.edges[y*cols+x]
			}
			if flat {
				dm[y*cols+x] = edge * 0.5
			} else {
				dm[y*cols+x] = edge
			}
		}
	}
	return dm
}
