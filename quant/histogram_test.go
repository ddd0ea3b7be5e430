package quant

import "testing"

func TestBuildHistogramDedupesSolidImage(t *testing.T) {
	im := solidImage(t, 8, 8, Pixel{R: 10, G: 20, B: 30, A: 255})
	hist := BuildHistogram(im, 2000, 0)

	if len(hist.Items) != 1 {
		t.Fatalf("len(hist.Items) = %d, want 1", len(hist.Items))
	}
	if w := hist.Items[0].PerceptualWeight; w != 64 {
		t.Errorf("PerceptualWeight = %v, want 64", w)
	}
}

func TestBuildHistogramTwoColors(t *testing.T) {
	im := twoColorImage(t, 8, 8, Pixel{R: 0, G: 0, B: 0, A: 255}, Pixel{R: 255, G: 255, B: 255, A: 255})
	hist := BuildHistogram(im, 2000, 0)

	if len(hist.Items) != 2 {
		t.Fatalf("len(hist.Items) = %d, want 2", len(hist.Items))
	}
}

func TestBuildHistogramEscalatesIgnorebitsOnOverflow(t *testing.T) {
	// A gradient with 16 distinct colors, forced through a table that
	// can only hold 4 entries: ignorebits must rise until the
	// posterized color count fits.
	im := gradientImage(t, 16, 1)
	hist := BuildHistogram(im, 4, 0)

	if len(hist.Items) > 4 {
		t.Fatalf("len(hist.Items) = %d, want <= 4", len(hist.Items))
	}
	if len(hist.Items) == 0 {
		t.Fatalf("len(hist.Items) = 0, want at least 1")
	}
}

func TestBuildHistogramMinPosterizationForcesCollapse(t *testing.T) {
	im := twoColorImage(t, 4, 4, Pixel{R: 0, G: 0, B: 0, A: 255}, Pixel{R: 1, G: 1, B: 1, A: 255})
	hist := BuildHistogram(im, 2000, 1)

	if len(hist.Items) != 1 {
		t.Fatalf("len(hist.Items) with ignorebits=1 = %d, want 1 (0 and 1 collapse under the low bit mask)", len(hist.Items))
	}
}

func TestBuildHistogramWeightsByNoise(t *testing.T) {
	im := solidImage(t, 4, 4, Pixel{R: 5, G: 5, B: 5, A: 255})
	im.noise = make([]float64, 16)
	for i := range im.noise {
		im.noise[i] = 1.0
	}

	hist := BuildHistogram(im, 2000, 0)
	if len(hist.Items) != 1 {
		t.Fatalf("len(hist.Items) = %d, want 1", len(hist.Items))
	}
	// weight per pixel is 1+15*noise = 16, over 16 pixels = 256.
	if w := hist.Items[0].PerceptualWeight; w != 256 {
		t.Errorf("PerceptualWeight = %v, want 256", w)
	}
}
