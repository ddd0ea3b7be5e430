package quant

import (
	"math"

	"picproc/quant/internal/gamma"
)

const defaultOutputGamma = 0.45455

// Quantize builds a palette and finalizes it for im under attr,
// returning a Result ready for RemapInto (C7+C10 driven from the
// top). It never mutates attr; it may mutate im (ApplyMinOpacity,
// attaching noise/edges maps) as a side effect of quantizing, per the
// image object's documented lifecycle (§3: "image may carry
// noise/edges/dither maps that outlive quantize").
func Quantize(im *Image, attr *Attr) (*Result, error) {
	if im == nil || attr == nil {
		return nil, ErrValueOutOfRange
	}

	minOpaqueVal := attr.minOpaqueFraction()
	if minOpaqueVal < 1 {
		im.ApplyMinOpacity(minOpaqueVal)
	}

	if im.noise == nil && im.width >= 4 && im.height >= 4 && attr.speed <= 7 {
		im.noise, im.edges = computeImportanceMaps(im)
	}

	hist := BuildHistogram(im, maxHistogramEntries(attr.speed), minPosterizationBits(attr.speed))

	logger := attr.logger.With("phase", "quantize")

	targetMSE := 0.0
	if attr.qualityTarget > 0 {
		targetMSE = qualityToMSE(attr.qualityTarget)
	}
	maxMSE := math.MaxFloat64
	if attr.qualityMin > 0 {
		maxMSE = qualityToMSE(attr.qualityMin)
	}

	var cm *Colormap
	var paletteErr float64

	if len(hist.Items) <= attr.maxColors && targetMSE == 0 {
		cm = histogramAsColormap(hist)
		paletteErr = 0
		logger.Debug("quality floor already met by histogram", "colors", len(cm.Palette))
	} else {
		sp := searchParams{
			maxColors:          attr.maxColors,
			targetMSE:          targetMSE,
			feedbackLoopTrials: feedbackTrials(attr.speed),
			minOpaqueVal:       minOpaqueVal,
			pool:               attr.pool,
			logger:             logger.WithGroup("search"),
		}

		best, searchErr := FindBestPalette(hist, sp)
		cm = best

		maxIterations, limit := refineIterations(attr.speed)
		if searchErr < 0 && maxMSE < math.MaxFloat64 {
			// feedback loop disabled but a quality floor is set: cm is a raw
			// median-cut pass with no Voronoi update yet, so force one
			// refinement pass before checking the floor.
			maxIterations = maxInt(maxIterations, 1)
		}
		paletteErr = RefineVoronoi(hist, cm, minOpaqueVal, limit, maxIterations, attr.pool)
		logger.Debug("voronoi refinement settled", "error", paletteErr, "colors", len(cm.Palette))
	}

	if paletteErr > maxMSE {
		return nil, ErrQualityTooLow
	}

	outGamma := gamma.New(defaultOutputGamma)
	pal := FinalizePalette(cm, outGamma, attr.lastIndexTransparent)

	return &Result{
		colormap:              cm,
		palette:               pal,
		outputGamma:           outGamma,
		ditherLevel:           1,
		useDitherMap:          im.edges != nil && attr.speed <= 5,
		minOpaqueVal:          minOpaqueVal,
		lastIndexTransparent:  attr.lastIndexTransparent,
		paletteErr:            paletteErr,
		baseError:             paletteErr,
		pool:                  attr.pool,
	}, nil
}

func histogramAsColormap(hist *Histogram) *Colormap {
	cm := &Colormap{Palette: make([]ColormapEntry, len(hist.Items))}
	for i, it := range hist.Items {
		cm.Palette[i] = ColormapEntry{Color: it.Color, Popularity: it.PerceptualWeight}
	}
	return cm
}

// qualityToMSE converts a 0..100 quality score into the engine's
// internal colordifference-space MSE budget (§6).
func qualityToMSE(q int) float64 {
	return 2.5 / math.Pow(float64(210+q), 1.2) * (100.1 - float64(q)) / 100.0
}

// maxHistogramEntries scales the posterization table size with speed:
// slower (lower speed number) keeps more distinct colors before
// collapsing them.
func maxHistogramEntries(speed int) int {
	return 2000 + (11-speed)*3000
}

func minPosterizationBits(speed int) int {
	if speed >= 8 {
		return 1
	}
	return 0
}

// feedbackTrials is the speed-derived palette search budget (§4.7).
func feedbackTrials(speed int) int {
	t := 56 - 9*speed
	if t < 1 {
		t = 1
	}
	return t
}

// refineIterations is the speed-derived post-search Voronoi budget
// (§4.7): iter = max(8-speed,0) + iter²/2, and the convergence
// threshold 2^-(23-speed).
func refineIterations(speed int) (maxIterations int, limit float64) {
	base := 8 - speed
	if base < 0 {
		base = 0
	}
	maxIterations = base + base*base/2
	limit = math.Pow(2, -(23 - float64(speed)))
	return
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
