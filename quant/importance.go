package quant

// computeImportanceMaps builds the noise and edges maps described in
// C2. Called only for images at least 4x4 and when the speed dial
// permits it (speed <= 7); callers gate that decision, this function
// always computes both maps.
func computeImportanceMaps(im *Image) (noise, edges []float64) {
	cols, rows := im.width, im.height
	noise = make([]float64, cols*rows)
	edges = make([]float64, cols*rows)
	tmp := make([]float64, cols*rows)

	for j := 0; j < rows; j++ {
		for i := 0; i < cols; i++ {
			prev := ToF(im.gamma, im.at(clampInt(i-1, 0, cols-1), j))
			curr := ToF(im.gamma, im.at(i, j))
			next := ToF(im.gamma, im.at(clampInt(i+1, 0, cols-1), j))

			a := absf(prev.A + next.A - curr.A*2)
			r := absf(prev.R + next.R - curr.R*2)
			g := absf(prev.G + next.G - curr.G*2)
			b := absf(prev.B + next.B - curr.B*2)

			above := ToF(im.gamma, im.at(i, clampInt(j-1, 0, rows-1)))
			below := ToF(im.gamma, im.at(i, clampInt(j+1, 0, rows-1)))

			a1 := absf(above.A + below.A - curr.A*2)
			r1 := absf(above.R + below.R - curr.R*2)
			g1 := absf(above.G + below.G - curr.G*2)
			b1 := absf(above.B + below.B - curr.B*2)

			horiz := maxf(maxf(a, r), maxf(g, b))
			vert := maxf(maxf(a1, r1), maxf(g1, b1))
			edge := maxf(horiz, vert)

			z := edge - absf(horiz-vert)*0.5
			z = 1 - maxf(z, minf(horiz, vert))
			if z < 0 {
				z = 0
			} else if z > 1 {
				z = 1
			}
			z *= z
			z *= z // squared twice to emphasize flats

			noise[j*cols+i] = z
			edges[j*cols+i] = 1 - edge
		}
	}

	// Shrink, expand, blur, then erode the noise map to remove thin
	// edges from flat regions; shape the edge map to exclude areas the
	// noise map already calls flat.
	max3(noise, tmp, cols, rows)
	max3(tmp, noise, cols, rows)

	blur3(noise, tmp, noise, cols, rows)

	max3(noise, tmp, cols, rows)

	min3(tmp, noise, cols, rows)
	min3(noise, tmp, cols, rows)
	min3(tmp, noise, cols, rows)

	min3(edges, tmp, cols, rows)
	max3(tmp, edges, cols, rows)
	for i := range edges {
		edges[i] = minf(noise[i], edges[i])
	}

	return noise, edges
}

// max3/min3 are 3x3 separable-max/min morphological filters (dilate/erode).
func max3(src, dst []float64, cols, rows int) {
	morph3(src, dst, cols, rows, maxf)
}

func min3(src, dst []float64, cols, rows int) {
	morph3(src, dst, cols, rows, minf)
}

func morph3(src, dst []float64, cols, rows int, op func(a, b float64) float64) {
	for j := 0; j < rows; j++ {
		for i := 0; i < cols; i++ {
			v := src[j*cols+i]
			for dy := -1; dy <= 1; dy++ {
				ny := clampInt(j+dy, 0, rows-1)
				for dx := -1; dx <= 1; dx++ {
					nx := clampInt(i+dx, 0, cols-1)
					v = op(v, src[ny*cols+nx])
				}
			}
			dst[j*cols+i] = v
		}
	}
}

// blur3 applies a 3-tap separable blur (1/4, 1/2, 1/4) horizontally
// then vertically, using tmp as scratch space distinct from src/dst.
func blur3(src, tmp, dst []float64, cols, rows int) {
	for j := 0; j < rows; j++ {
		for i := 0; i < cols; i++ {
			left := src[j*cols+clampInt(i-1, 0, cols-1)]
			mid := src[j*cols+i]
			right := src[j*cols+clampInt(i+1, 0, cols-1)]
			tmp[j*cols+i] = left*0.25 + mid*0.5 + right*0.25
		}
	}
	for j := 0; j < rows; j++ {
		for i := 0; i < cols; i++ {
			above := tmp[clampInt(j-1, 0, rows-1)*cols+i]
			mid := tmp[j*cols+i]
			below := tmp[clampInt(j+1, 0, rows-1)*cols+i]
			dst[j*cols+i] = above*0.25 + mid*0.5 + below*0.25
		}
	}
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
