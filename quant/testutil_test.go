package quant

import "testing"

// solidImage returns a width x height image filled with a single color.
func solidImage(t *testing.T, width, height int, px Pixel) *Image {
	pix := make([]Pixel, width*height)
	for i := range pix {
		pix[i] = px
	}
	im, err := NewImage(pix, width, height, 0)
	if err != nil {
		t.Fatalf("solidImage: %v", err)
	}
	return im
}

// twoColorImage fills the left half of the image with a and the right
// half with b.
func twoColorImage(t *testing.T, width, height int, a, b Pixel) *Image {
	pix := make([]Pixel, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x < width/2 {
				pix[y*width+x] = a
			} else {
				pix[y*width+x] = b
			}
		}
	}
	im, err := NewImage(pix, width, height, 0)
	if err != nil {
		t.Fatalf("twoColorImage: %v", err)
	}
	return im
}

// gradientImage fills the image with a left-to-right ramp from black to
// white, useful for exercising median-cut splitting and nearest search
// against more than two distinct colors.
func gradientImage(t *testing.T, width, height int) *Image {
	pix := make([]Pixel, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8(255 * x / maxIntT(width-1, 1))
			pix[y*width+x] = Pixel{R: v, G: v, B: v, A: 255}
		}
	}
	im, err := NewImage(pix, width, height, 0)
	if err != nil {
		t.Fatalf("gradientImage: %v", err)
	}
	return im
}

func maxIntT(a, b int) int {
	if a > b {
		return a
	}
	return b
}
