package quant

import (
	"log/slog"
	"math"

	"picproc/parallel"
)

// searchParams collects the palette search driver's tunables (C7).
type searchParams struct {
	maxColors          int
	targetMSE          float64
	feedbackLoopTrials int
	minOpaqueVal       float64
	pool               *parallel.Pool
	logger             *slog.Logger
}

// FindBestPalette runs the C7 feedback loop around median-cut and
// Voronoi refinement, reweighting the histogram between trials to
// emphasize poorly matched colors, and returns the best palette seen
// and its error. When feedbackLoopTrials <= 0, trials are disabled
// entirely: a single median-cut pass runs with no Voronoi iteration,
// and the returned error is -1 (unknown — the caller is expected to
// run its own Voronoi refinement afterward).
func FindBestPalette(hist *Histogram, p searchParams) (*Colormap, float64) {
	maxColors := p.maxColors
	trials := p.feedbackLoopTrials
	leastError := math.MaxFloat64
	overshoot := 1.0
	if trials > 0 {
		overshoot = 1.05
	}

	var best *Colormap
	firstTrial := true

	for {
		acceptMSE := maxf(90.0/65536.0, p.targetMSE)
		if best != nil {
			acceptMSE = maxf(acceptMSE, leastError)
		}
		acceptMSE *= 1.2
		candidate := MedianCut(hist, maxColors, p.targetMSE*overshoot, acceptMSE)

		if trials <= 0 {
			return candidate, -1
		}

		firstRunOfTargetMSE := firstTrial && p.targetMSE > 0
		var adjust func(*HistItem, float64)
		if !firstRunOfTargetMSE {
			adjust = adjustHistogramCallback
		}
		totalError := VoronoiIteration(hist, candidate, p.minOpaqueVal, p.pool, adjust)
		firstTrial = false

		improved := best == nil || totalError < leastError ||
			(totalError <= p.targetMSE && len(candidate.Palette) < maxColors)

		if improved {
			best = candidate
			if totalError < p.targetMSE && totalError > 0 {
				overshoot = minf(overshoot*1.25, p.targetMSE/totalError)
			}
			leastError = totalError
			maxColors = minInt(len(candidate.Palette)+1, maxColors)
			trials--
		} else {
			for i := range hist.Items {
				it := &hist.Items[i]
				it.AdjustedWeight = (it.PerceptualWeight + it.AdjustedWeight) / 2
			}
			overshoot = 1.0
			trials -= 6
			if totalError > leastError*4 {
				trials -= 3
			}
		}

		if p.logger != nil {
			p.logger.Debug("selecting colors", "trials_remaining", trials, "error", leastError)
		}

		if trials <= 0 {
			break
		}
	}

	return best, leastError
}

func adjustHistogramCallback(item *HistItem, diff float64) {
	item.AdjustedWeight = (item.PerceptualWeight + item.AdjustedWeight) * math.Sqrt(1+diff)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// RefineVoronoi runs additional Voronoi iterations against cm until
// either an iteration changes the error by less than iterationLimit,
// or maxIterations is hit, per C7's post-search-loop refinement.
func RefineVoronoi(hist *Histogram, cm *Colormap, minOpaqueVal, iterationLimit float64, maxIterations int, pool *parallel.Pool) float64 {
	previous := math.MaxFloat64
	var errv float64
	for i := 0; i < maxIterations; i++ {
		errv = VoronoiIteration(hist, cm, minOpaqueVal, pool, nil)
		if absf(previous-errv) < iterationLimit {
			break
		}
		previous = errv
	}
	return errv
}
