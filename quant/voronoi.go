package quant

import "picproc/parallel"

type voronoiAccum struct {
	sumColor  FPixel
	sumWeight float64
	sumErr    float64
}

// VoronoiIteration runs one k-means-style refinement step against the
// histogram (C6): each entry is assigned to its nearest palette index
// via nearest, per-index sums accumulate in parallel over workers and
// are merged, then each palette color is replaced by its weighted
// centroid (entries whose index received no weight are left
// unchanged). adjust, if non-nil, is called once per histogram entry
// with its per-entry error so the palette search driver (C7) can
// reweight poorly matched colors for the next trial.
//
// Returns total weighted squared error / total weight.
func VoronoiIteration(hist *Histogram, cm *Colormap, minOpaqueVal float64, pool *parallel.Pool, adjust func(item *HistItem, diff float64)) float64 {
	nearest := NewNearestIndex(cm.Palette)

	numWorkers := 1
	if pool != nil {
		numWorkers = workerCount(pool)
	}
	accums := make([][]voronoiAccum, numWorkers)
	for w := range accums {
		accums[w] = make([]voronoiAccum, len(cm.Palette))
	}

	items := hist.Items
	chunk := (len(items) + numWorkers - 1) / numWorkers
	if chunk < 1 {
		chunk = 1
	}

	run := func(w int) {
		start := w * chunk
		end := start + chunk
		if start >= len(items) {
			return
		}
		if end > len(items) {
			end = len(items)
		}
		acc := accums[w]
		for i := start; i < end; i++ {
			it := &items[i]
			idx, diff := nearest.Nearest(it.Color, minOpaqueVal)

			weight := it.AdjustedWeight
			acc[idx].sumColor.R += it.Color.R * weight
			acc[idx].sumColor.G += it.Color.G * weight
			acc[idx].sumColor.B += it.Color.B * weight
			acc[idx].sumColor.A += it.Color.A * weight
			acc[idx].sumWeight += weight
			acc[idx].sumErr += diff * weight

			if adjust != nil {
				adjust(it, diff)
			}
		}
	}

	if pool == nil || numWorkers == 1 {
		run(0)
	} else {
		fns := make([]func(), numWorkers)
		for w := 0; w < numWorkers; w++ {
			w := w
			fns[w] = func() { run(w) }
		}
		pool.RunAll(fns)
	}

	merged := make([]voronoiAccum, len(cm.Palette))
	for _, acc := range accums {
		for i := range acc {
			merged[i].sumColor.R += acc[i].sumColor.R
			merged[i].sumColor.G += acc[i].sumColor.G
			merged[i].sumColor.B += acc[i].sumColor.B
			merged[i].sumColor.A += acc[i].sumColor.A
			merged[i].sumWeight += acc[i].sumWeight
			merged[i].sumErr += acc[i].sumErr
		}
	}

	var totalErr, totalWeight float64
	for i := range cm.Palette {
		m := merged[i]
		if m.sumWeight > 0 && !cm.Palette[i].Fixed {
			cm.Palette[i].Color = FPixel{
				R: m.sumColor.R / m.sumWeight,
				G: m.sumColor.G / m.sumWeight,
				B: m.sumColor.B / m.sumWeight,
				A: m.sumColor.A / m.sumWeight,
			}
			cm.Palette[i].Popularity = m.sumWeight
		}
		totalErr += m.sumErr
		totalWeight += m.sumWeight
	}

	if totalWeight == 0 {
		return 0
	}
	return totalErr / totalWeight
}

func workerCount(pool *parallel.Pool) int {
	return parallel.Workers(pool)
}
