package quant

import (
	"math"

	"picproc/parallel"
)

const transparentAlphaThreshold = 1.0 / 256.0

// RemapPlain assigns each pixel to its nearest palette entry (C8),
// writing indices into out (row-major, one byte per pixel, stride ==
// width). It also accumulates a Voronoi update so cm captures the
// actual color means of this image, and returns the average per-pixel
// squared error.
func RemapPlain(im *Image, cm *Colormap, minOpaqueVal float64, out []uint8, pool *parallel.Pool) float64 {
	nearest := NewNearestIndex(cm.Palette)
	transparentIdx, _ := nearest.Nearest(FPixel{0, 0, 0, 0}, minOpaqueVal)

	numWorkers := parallel.Workers(pool)
	type accumT struct {
		sumColor   []FPixel
		sumWeight  []float64
		errSum     float64
		remapped   int
	}
	accums := make([]accumT, numWorkers)
	for w := range accums {
		accums[w].sumColor = make([]FPixel, len(cm.Palette))
		accums[w].sumWeight = make([]float64, len(cm.Palette))
	}

	rows := im.height
	chunk := (rows + numWorkers - 1) / numWorkers
	if chunk < 1 {
		chunk = 1
	}

	run := func(w int) {
		startRow := w * chunk
		endRow := startRow + chunk
		if startRow >= rows {
			return
		}
		if endRow > rows {
			endRow = rows
		}
		acc := &accums[w]

		for y := startRow; y < endRow; y++ {
			row := im.rows[y]
			for x := 0; x < im.width; x++ {
				px := ToF(im.gamma, row[x])

				var match int
				if px.A < transparentAlphaThreshold {
					match = transparentIdx
				} else {
					var diff float64
					match, diff = nearest.Nearest(px, minOpaqueVal)
					acc.errSum += diff
					acc.remapped++
				}

				out[y*im.width+x] = uint8(match)

				acc.sumColor[match].R += px.R
				acc.sumColor[match].G += px.G
				acc.sumColor[match].B += px.B
				acc.sumColor[match].A += px.A
				acc.sumWeight[match]++
			}
		}
	}

	if numWorkers == 1 {
		run(0)
	} else {
		fns := make([]func(), numWorkers)
		for w := 0; w < numWorkers; w++ {
			w := w
			fns[w] = func() { run(w) }
		}
		pool.RunAll(fns)
	}

	var errSum float64
	var remapped int
	sumColor := make([]FPixel, len(cm.Palette))
	sumWeight := make([]float64, len(cm.Palette))
	for _, acc := range accums {
		errSum += acc.errSum
		remapped += acc.remapped
		for i := range sumColor {
			sumColor[i].R += acc.sumColor[i].R
			sumColor[i].G += acc.sumColor[i].G
			sumColor[i].B += acc.sumColor[i].B
			sumColor[i].A += acc.sumColor[i].A
			sumWeight[i] += acc.sumWeight[i]
		}
	}

	for i := range cm.Palette {
		if sumWeight[i] > 0 && !cm.Palette[i].Fixed {
			cm.Palette[i].Color = FPixel{
				R: sumColor[i].R / sumWeight[i],
				G: sumColor[i].G / sumWeight[i],
				B: sumColor[i].B / sumWeight[i],
				A: sumColor[i].A / sumWeight[i],
			}
			cm.Palette[i].Popularity = sumWeight[i]
		}
	}

	if remapped == 0 {
		return 0
	}
	return errSum / float64(remapped)
}

// ditherPRNG produces the same deterministic pseudo-random sequence on
// every call (§8 invariant 7 / S6): a linear congruential generator
// seeded with a fixed constant, matching the "srand(12345)" contract
// of the reference engine without depending on the platform's math/rand
// implementation remaining stable across Go versions.
type ditherPRNG struct{ state uint32 }

func newDitherPRNG() *ditherPRNG { return &ditherPRNG{state: 12345} }

func (p *ditherPRNG) next() float64 {
	p.state = p.state*1103515245 + 12345
	return float64(p.state%65536) / 65536.0
}

// RemapDithered performs serpentine Floyd-Steinberg remapping (C9)
// modulated by im's dither map (or edges, or a flat 15/16 level),
// writing indices into out. outputImageIsRemapped, when true, enables
// the "already remapped" shortcut that keeps a pixel's existing index
// when it is close enough to its current palette match.
func RemapDithered(im *Image, cm *Colormap, minOpaqueVal, ditherLevel, maxDitherError float64, useDitherMap, outputImageIsRemapped bool, out []uint8) {
	cols, rows := im.width, im.height
	nearest := NewNearestIndex(cm.Palette)
	transparentIdx, _ := nearest.Nearest(FPixel{0, 0, 0, 0}, minOpaqueVal)

	var ditherMap []float64
	if useDitherMap {
		if im.ditherMap != nil {
			ditherMap = im.ditherMap
		} else {
			ditherMap = im.edges
		}
	}

	tolerance := make([]float64, len(cm.Palette))
	if outputImageIsRemapped {
		for i := range cm.Palette {
			tolerance[i] = distanceFromClosestOther(cm.Palette, i) / 4
		}
	}

	thiserr := make([]FPixel, cols+2)
	nexterr := make([]FPixel, cols+2)

	rng := newDitherPRNG()
	for i := range thiserr {
		thiserr[i] = FPixel{
			R: (rng.next() - 0.5) / 255.0,
			G: (rng.next() - 0.5) / 255.0,
			B: (rng.next() - 0.5) / 255.0,
			A: (rng.next() - 0.5) / 255.0,
		}
	}

	leftToRight := true
	for y := 0; y < rows; y++ {
		for i := range nexterr {
			nexterr[i] = FPixel{}
		}

		row := im.rows[y]
		col := 0
		if !leftToRight {
			col = cols - 1
		}

		for {
			level := ditherLevel * 15.0 / 16.0
			if ditherMap != nil {
				level = ditherLevel * ditherMap[y*cols+col]
			}

			spx := getDitheredPixel(level, maxDitherError, thiserr[col+1], ToF(im.gamma, row[col]))

			var idx int
			if spx.A < transparentAlphaThreshold {
				idx = transparentIdx
			} else {
				currIdx := int(out[y*cols+col])
				if outputImageIsRemapped && ColorDifference(spx, cm.Palette[currIdx].Color) < tolerance[currIdx] {
					idx = currIdx
				} else {
					idx, _ = nearest.Nearest(spx, minOpaqueVal)
				}
			}
			out[y*cols+col] = uint8(idx)

			xp := cm.Palette[idx].Color
			errPx := FPixel{R: spx.R - xp.R, G: spx.G - xp.G, B: spx.B - xp.B, A: spx.A - xp.A}

			if errPx.R*errPx.R+errPx.G*errPx.G+errPx.B*errPx.B+errPx.A*errPx.A > maxDitherError {
				level *= 0.75
			}

			colorImportance := (3.0 + xp.A) / 4.0 * level
			errPx.R *= colorImportance
			errPx.G *= colorImportance
			errPx.B *= colorImportance
			errPx.A *= level

			distributeError(thiserr, nexterr, col, errPx, leftToRight)

			if leftToRight {
				col++
				if col >= cols {
					break
				}
			} else {
				if col <= 0 {
					break
				}
				col--
			}
		}

		thiserr, nexterr = nexterr, thiserr
		leftToRight = !leftToRight
	}
}

func distributeError(thiserr, nexterr []FPixel, col int, e FPixel, leftToRight bool) {
	add := func(p *FPixel, w float64) {
		p.R += e.R * w
		p.G += e.G * w
		p.B += e.B * w
		p.A += e.A * w
	}
	if leftToRight {
		add(&thiserr[col+2], 7.0/16.0)
		add(&nexterr[col], 3.0/16.0)
		add(&nexterr[col+1], 5.0/16.0)
		add(&nexterr[col+2], 1.0/16.0)
	} else {
		add(&thiserr[col], 7.0/16.0)
		add(&nexterr[col], 1.0/16.0)
		add(&nexterr[col+1], 5.0/16.0)
		add(&nexterr[col+2], 3.0/16.0)
	}
}

func getDitheredPixel(ditherLevel, maxDitherError float64, thiserr, px FPixel) FPixel {
	sr := thiserr.R * ditherLevel
	sg := thiserr.G * ditherLevel
	sb := thiserr.B * ditherLevel
	sa := thiserr.A * ditherLevel

	ratio := min4(
		ratioBound(sr, px.R),
		ratioBound(sg, px.G),
		ratioBound(sb, px.B),
		ratioBound(sa, px.A),
	)

	ditherError := sr*sr + sg*sg + sb*sb + sa*sa
	switch {
	case ditherError > maxDitherError:
		ratio *= 0.8
	case ditherError < 2.0/255.0/255.0:
		return px
	}

	if ratio > 1 {
		ratio = 1
	} else if ratio < 0 {
		ratio = 0
	}

	return FPixel{
		R: px.R + sr*ratio,
		G: px.G + sg*ratio,
		B: px.B + sb*ratio,
		A: px.A + sa*ratio,
	}
}

func ratioBound(s, px float64) float64 {
	switch {
	case s < 0:
		return px / -s
	case s > 0:
		return (1.0 - px) / s
	default:
		return 1.0
	}
}

func min4(a, b, c, d float64) float64 {
	return minf(minf(a, b), minf(c, d))
}

func distanceFromClosestOther(palette []ColormapEntry, i int) float64 {
	best := math.MaxFloat64
	for j := range palette {
		if i == j {
			continue
		}
		d := ColorDifference(palette[i].Color, palette[j].Color)
		if d < best {
			best = d
		}
	}
	return best
}
