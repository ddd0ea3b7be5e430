package quant

import "testing"

func gradientHistogram(n int) *Histogram {
	colors := make([]FPixel, n)
	weights := make([]float64, n)
	for i := 0; i < n; i++ {
		v := float64(i) / float64(n-1)
		colors[i] = FPixel{R: v, G: v, B: v, A: 1}
		weights[i] = 1
	}
	return histFromColors(colors, weights)
}

func TestFindBestPaletteDisabledTrialsReturnsRawMedianCut(t *testing.T) {
	hist := gradientHistogram(32)
	cm, err := FindBestPalette(hist, searchParams{maxColors: 8, feedbackLoopTrials: 0})
	if err != -1 {
		t.Errorf("err = %v, want -1 when feedback trials are disabled", err)
	}
	if len(cm.Palette) != 8 {
		t.Errorf("len(cm.Palette) = %d, want 8", len(cm.Palette))
	}
}

// TestFindBestPaletteGrowsTowardMaxColors runs the feedback loop with a
// generous trial budget: the first trial's median cut fills up to
// maxColors, later trials may only narrow the ceiling to one more than
// the accepted palette's size, so the result stays within [1,maxColors]
// and carries a real (non-negative) Voronoi error.
func TestFindBestPaletteGrowsTowardMaxColors(t *testing.T) {
	hist := gradientHistogram(64)
	cm, searchErr := FindBestPalette(hist, searchParams{maxColors: 4, feedbackLoopTrials: 56})

	if searchErr < 0 {
		t.Fatalf("searchErr = %v, want >= 0 with trials enabled", searchErr)
	}
	if len(cm.Palette) < 1 || len(cm.Palette) > 4 {
		t.Fatalf("len(cm.Palette) = %d, want in [1,4]", len(cm.Palette))
	}
}

func TestFindBestPaletteNeverExceedsMaxColors(t *testing.T) {
	hist := gradientHistogram(64)
	for _, trials := range []int{1, 5, 56} {
		cm, _ := FindBestPalette(hist, searchParams{maxColors: 4, feedbackLoopTrials: trials})
		if len(cm.Palette) > 4 {
			t.Errorf("trials=%d: len(cm.Palette) = %d, want <= 4", trials, len(cm.Palette))
		}
	}
}

func TestRefineVoronoiConverges(t *testing.T) {
	hist := gradientHistogram(64)
	cm := MedianCut(hist, 4, 0, 0)

	errv := RefineVoronoi(hist, cm, 0, 1e-6, 200, nil)
	again := VoronoiIteration(hist, cm, 0, nil, nil)

	if absf(again-errv) > 1e-6+1e-9 {
		t.Errorf("error still moving by %v after RefineVoronoi claimed convergence", absf(again-errv))
	}
}

func TestRefineVoronoiRespectsMaxIterations(t *testing.T) {
	hist := gradientHistogram(64)
	cm := MedianCut(hist, 4, 0, 0)
	// A convergence threshold of 0 can never be satisfied exactly in
	// float64 arithmetic, so maxIterations must be what stops the loop.
	RefineVoronoi(hist, cm, 0, 0, 3, nil)
}
