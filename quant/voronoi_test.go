package quant

import "testing"

func TestVoronoiIterationConvergesToClusterMeans(t *testing.T) {
	hist := histFromColors(
		[]FPixel{
			{R: 0, G: 0, B: 0, A: 1},
			{R: 0.1, G: 0, B: 0, A: 1},
			{R: 1, G: 1, B: 1, A: 1},
			{R: 0.9, G: 1, B: 1, A: 1},
		},
		[]float64{1, 1, 1, 1},
	)
	cm := &Colormap{Palette: []ColormapEntry{
		{Color: FPixel{R: 0.05, G: 0, B: 0, A: 1}},
		{Color: FPixel{R: 0.95, G: 1, B: 1, A: 1}},
	}}

	for i := 0; i < 10; i++ {
		VoronoiIteration(hist, cm, 0, nil, nil)
	}

	if got := cm.Palette[0].Color.R; got < 0.04 || got > 0.06 {
		t.Errorf("cluster 0 centroid R = %v, want ~0.05", got)
	}
	if got := cm.Palette[1].Color.R; got < 0.94 || got > 0.96 {
		t.Errorf("cluster 1 centroid R = %v, want ~0.95", got)
	}
}

func TestVoronoiIterationLeavesFixedEntryUnchanged(t *testing.T) {
	hist := histFromColors(
		[]FPixel{{R: 0.9, G: 0.9, B: 0.9, A: 1}},
		[]float64{1},
	)
	cm := &Colormap{Palette: []ColormapEntry{
		{Color: FPixel{R: 0, G: 0, B: 0, A: 1}, Fixed: true},
	}}

	VoronoiIteration(hist, cm, 0, nil, nil)

	if cm.Palette[0].Color != (FPixel{R: 0, G: 0, B: 0, A: 1}) {
		t.Errorf("fixed entry moved to %v, want unchanged", cm.Palette[0].Color)
	}
}

func TestVoronoiIterationCallsAdjust(t *testing.T) {
	hist := histFromColors(
		[]FPixel{{R: 0.5, G: 0.5, B: 0.5, A: 1}},
		[]float64{1},
	)
	cm := &Colormap{Palette: []ColormapEntry{
		{Color: FPixel{R: 0, G: 0, B: 0, A: 1}},
	}}

	called := false
	VoronoiIteration(hist, cm, 0, nil, func(item *HistItem, diff float64) {
		called = true
		if diff <= 0 {
			t.Errorf("adjust callback diff = %v, want > 0", diff)
		}
	})
	if !called {
		t.Error("adjust callback was never called")
	}
}

func TestVoronoiIterationEmptyHistogramReturnsZero(t *testing.T) {
	hist := &Histogram{}
	cm := &Colormap{Palette: []ColormapEntry{{Color: FPixel{R: 1, G: 1, B: 1, A: 1}}}}
	if got := VoronoiIteration(hist, cm, 0, nil, nil); got != 0 {
		t.Errorf("VoronoiIteration with empty histogram = %v, want 0", got)
	}
}
