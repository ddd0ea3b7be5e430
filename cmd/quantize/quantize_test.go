package quantize

import (
	"image"
	"image/color"
	"testing"

	"picproc/quant"
)

func TestToQuantImageConvertsPixels(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	src.Set(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	src.Set(1, 1, color.NRGBA{R: 1, G: 2, B: 3, A: 40})

	im, err := toQuantImage(src)
	if err != nil {
		t.Fatalf("toQuantImage() = %v", err)
	}
	if im.Width() != 2 || im.Height() != 2 {
		t.Fatalf("size = %dx%d, want 2x2", im.Width(), im.Height())
	}
}

func TestPixelsToColorPalette(t *testing.T) {
	entries := []quant.Pixel{
		{R: 1, G: 2, B: 3, A: 255},
		{R: 4, G: 5, B: 6, A: 0},
	}
	pal := pixelsToColorPalette(entries)
	if len(pal) != 2 {
		t.Fatalf("len(pal) = %d, want 2", len(pal))
	}
	want := color.NRGBA{R: 1, G: 2, B: 3, A: 255}
	if pal[0] != want {
		t.Errorf("pal[0] = %v, want {1,2,3,255}", pal[0])
	}
}

func TestQuantizeImageStdlibProducesPalettedImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			src.Set(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 30), B: 128, A: 255})
		}
	}

	dest := quantizeImageStdlib(src, true)
	if dest.Bounds().Dx() != 8 || dest.Bounds().Dy() != 8 {
		t.Fatalf("dest size = %v, want 8x8", dest.Bounds())
	}
}
