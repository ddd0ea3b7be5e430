package quant

import (
	"errors"
	"testing"
)

func TestQuantizeRejectsNilArgs(t *testing.T) {
	a := NewAttr()
	defer a.Close()
	im := solidImage(t, 2, 2, Pixel{R: 1, G: 2, B: 3, A: 255})

	if _, err := Quantize(nil, a); !errors.Is(err, ErrValueOutOfRange) {
		t.Errorf("Quantize(nil, attr) = %v, want ErrValueOutOfRange", err)
	}
	if _, err := Quantize(im, nil); !errors.Is(err, ErrValueOutOfRange) {
		t.Errorf("Quantize(im, nil) = %v, want ErrValueOutOfRange", err)
	}
}

func TestQuantizeSolidImageFastPath(t *testing.T) {
	a := NewAttr()
	defer a.Close()
	a.SetMaxColors(256)

	im := solidImage(t, 8, 8, Pixel{R: 20, G: 40, B: 60, A: 255})
	result, err := Quantize(im, a)
	if err != nil {
		t.Fatalf("Quantize() = %v, want nil", err)
	}

	pal := result.Palette()
	if len(pal) != 1 {
		t.Fatalf("len(Palette()) = %d, want 1 (histogram already fits max_colors)", len(pal))
	}
	if pal[0].R != 20 || pal[0].G != 40 || pal[0].B != 60 {
		t.Errorf("Palette()[0] = %v, want {20,40,60,255}", pal[0])
	}
}

func TestQuantizeReducesColorsToMaxColors(t *testing.T) {
	a := NewAttr()
	defer a.Close()
	if err := a.SetMaxColors(4); err != nil {
		t.Fatalf("SetMaxColors(4) = %v", err)
	}
	if err := a.SetSpeed(1); err != nil {
		t.Fatalf("SetSpeed(1) = %v", err)
	}

	im := gradientImage(t, 32, 32)
	result, err := Quantize(im, a)
	if err != nil {
		t.Fatalf("Quantize() = %v, want nil", err)
	}

	pal := result.Palette()
	if len(pal) > 4 {
		t.Fatalf("len(Palette()) = %d, want <= 4", len(pal))
	}
	if len(pal) == 0 {
		t.Fatalf("len(Palette()) = 0, want at least 1")
	}
}

func TestQuantizeRemapIntoEndToEnd(t *testing.T) {
	a := NewAttr()
	defer a.Close()
	a.SetMaxColors(4)
	a.SetSpeed(3)

	im := gradientImage(t, 16, 16)
	result, err := Quantize(im, a)
	if err != nil {
		t.Fatalf("Quantize() = %v", err)
	}
	if err := result.SetDitheringLevel(0); err != nil {
		t.Fatalf("SetDitheringLevel(0) = %v", err)
	}

	out := make([]uint8, 16*16)
	if _, err := result.RemapInto(im, out); err != nil {
		t.Fatalf("RemapInto() = %v", err)
	}

	maxIdx := len(result.Palette())
	for i, idx := range out {
		if int(idx) >= maxIdx {
			t.Fatalf("out[%d] = %d, out of range for a %d-entry palette", i, idx, maxIdx)
		}
	}
}

func TestQuantizeFailsQualityFloor(t *testing.T) {
	a := NewAttr()
	defer a.Close()
	a.SetMaxColors(2)
	if err := a.SetQuality(99, 99); err != nil {
		t.Fatalf("SetQuality(99, 99) = %v", err)
	}

	// A wide gradient squeezed into 2 colors cannot meet a near-perfect
	// quality floor.
	im := gradientImage(t, 64, 64)
	if _, err := Quantize(im, a); !errors.Is(err, ErrQualityTooLow) {
		t.Errorf("Quantize() = %v, want ErrQualityTooLow", err)
	}
}

func TestQualityToMSEDecreasesWithQuality(t *testing.T) {
	low := qualityToMSE(10)
	high := qualityToMSE(90)
	if high >= low {
		t.Errorf("qualityToMSE(90) = %v, want < qualityToMSE(10) = %v", high, low)
	}
}

func TestFeedbackTrialsFloorsAtOne(t *testing.T) {
	if got := feedbackTrials(10); got != 1 {
		t.Errorf("feedbackTrials(10) = %d, want 1", got)
	}
	if got := feedbackTrials(1); got != 47 {
		t.Errorf("feedbackTrials(1) = %d, want 47", got)
	}
}

func TestRefineIterationsFloorsAtZero(t *testing.T) {
	iters, _ := refineIterations(10)
	if iters != 0 {
		t.Errorf("refineIterations(10) iterations = %d, want 0", iters)
	}
	iters, _ = refineIterations(1)
	if iters != 31 {
		t.Errorf("refineIterations(1) iterations = %d, want 31 (base=7, 7+7*7/2=31)", iters)
	}
}
