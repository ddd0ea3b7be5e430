package quant

import "testing"

func twoEntryColormap() *Colormap {
	return &Colormap{Palette: []ColormapEntry{
		{Color: FPixel{R: 0, G: 0, B: 0, A: 1}},
		{Color: FPixel{R: 1, G: 1, B: 1, A: 1}},
	}}
}

func TestRemapPlainAssignsNearestIndex(t *testing.T) {
	im := twoColorImage(t, 4, 4, Pixel{R: 0, G: 0, B: 0, A: 255}, Pixel{R: 255, G: 255, B: 255, A: 255})
	cm := twoEntryColormap()
	out := make([]uint8, 16)

	errv := RemapPlain(im, cm, 0, out, nil)
	if errv != 0 {
		t.Errorf("RemapPlain error = %v, want 0 (palette matches the image exactly)", errv)
	}

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := uint8(0)
			if x >= 2 {
				want = 1
			}
			if got := out[y*4+x]; got != want {
				t.Errorf("out[%d][%d] = %d, want %d", y, x, got, want)
			}
		}
	}
}

func TestRemapPlainTransparentPixelsUseTransparentSlot(t *testing.T) {
	im := solidImage(t, 2, 2, Pixel{R: 10, G: 10, B: 10, A: 0})
	cm := &Colormap{Palette: []ColormapEntry{
		{Color: FPixel{R: 0, G: 0, B: 0, A: 1}},
		{Color: FPixel{R: 0, G: 0, B: 0, A: 0}},
	}}
	out := make([]uint8, 4)
	RemapPlain(im, cm, 0, out, nil)

	for i, idx := range out {
		if idx != 1 {
			t.Errorf("out[%d] = %d, want 1 (the transparent palette entry)", i, idx)
		}
	}
}

func TestRemapDitheredProducesValidIndices(t *testing.T) {
	im := gradientImage(t, 16, 4)
	cm := twoEntryColormap()
	out := make([]uint8, 64)

	RemapDithered(im, cm, 0, 1.0, 0.2, false, false, out)

	for i, idx := range out {
		if idx > 1 {
			t.Fatalf("out[%d] = %d, want 0 or 1", i, idx)
		}
	}
}

func TestRemapDitheredIsDeterministic(t *testing.T) {
	im := gradientImage(t, 16, 4)
	cm1 := twoEntryColormap()
	cm2 := twoEntryColormap()
	out1 := make([]uint8, 64)
	out2 := make([]uint8, 64)

	RemapDithered(im, cm1, 0, 1.0, 0.2, false, false, out1)
	RemapDithered(im, cm2, 0, 1.0, 0.2, false, false, out2)

	for i := range out1 {
		if out1[i] != out2[i] {
			t.Fatalf("dithered remap not deterministic at pixel %d: %d != %d", i, out1[i], out2[i])
		}
	}
}

func TestDitherPRNGDeterministicSequence(t *testing.T) {
	a := newDitherPRNG()
	b := newDitherPRNG()
	for i := 0; i < 10; i++ {
		va, vb := a.next(), b.next()
		if va != vb {
			t.Fatalf("step %d: %v != %v", i, va, vb)
		}
		if va < 0 || va >= 1 {
			t.Errorf("step %d: %v out of [0,1)", i, va)
		}
	}
}

func TestDistanceFromClosestOther(t *testing.T) {
	pal := []ColormapEntry{
		{Color: FPixel{R: 0, G: 0, B: 0, A: 1}},
		{Color: FPixel{R: 0.1, G: 0, B: 0, A: 1}},
		{Color: FPixel{R: 1, G: 1, B: 1, A: 1}},
	}
	got := distanceFromClosestOther(pal, 0)
	want := ColorDifference(pal[0].Color, pal[1].Color)
	if got != want {
		t.Errorf("distanceFromClosestOther(0) = %v, want %v (the nearer neighbor at index 1)", got, want)
	}
}
