package quant

import (
	"fmt"

	"picproc/quant/internal/gamma"
)

// Image owns the RGBA pixel grid fed to Quantize, plus the optional
// per-pixel importance maps consumed by the dithered remapper. Rows
// are addressed through a row vector so callers may supply
// non-contiguous rasters (C11's row-pointer contract).
type Image struct {
	gamma  *gamma.Table
	width  int
	height int
	rows   [][]Pixel

	noise     []float64
	edges     []float64
	ditherMap []float64

	modified bool
}

// NewImage creates an image from a contiguous row-major pixel buffer.
// gamma 0 is interpreted as "assume 1/2.2".
func NewImage(pix []Pixel, width, height int, g float64) (*Image, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("%w: width=%d height=%d", ErrValueOutOfRange, width, height)
	}
	if len(pix) < width*height {
		return nil, fmt.Errorf("%w: pixel buffer too small for %dx%d", ErrValueOutOfRange, width, height)
	}

	rows := make([][]Pixel, height)
	for y := 0; y < height; y++ {
		rows[y] = pix[y*width : (y+1)*width]
	}
	return &Image{gamma: gamma.New(g), width: width, height: height, rows: rows}, nil
}

// NewImageRows creates an image from an explicit row-pointer vector,
// allowing non-contiguous storage.
func NewImageRows(rows [][]Pixel, width, height int, g float64) (*Image, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("%w: width=%d height=%d", ErrValueOutOfRange, width, height)
	}
	if len(rows) != height {
		return nil, fmt.Errorf("%w: expected %d rows, got %d", ErrValueOutOfRange, height, len(rows))
	}
	for y, row := range rows {
		if len(row) < width {
			return nil, fmt.Errorf("%w: row %d shorter than width %d", ErrValueOutOfRange, y, width)
		}
	}
	return &Image{gamma: gamma.New(g), width: width, height: height, rows: rows}, nil
}

// Width returns the image width in pixels.
func (im *Image) Width() int { return im.width }

// Height returns the image height in pixels.
func (im *Image) Height() int { return im.height }

// Gamma returns the gamma.Table this image decodes through.
func (im *Image) Gamma() *gamma.Table { return im.gamma }

func (im *Image) at(x, y int) Pixel { return im.rows[y][x] }

// ApplyMinOpacity is the IE6 alpha-rounding workaround: pixels whose
// alpha is at least 169/256 of minOpaqueVal are linearly ramped the
// rest of the way to fully opaque, avoiding a visible banding step at
// the threshold. minOpaqueVal is in [0,1]; 0 (unset) and 1 are no-ops.
func (im *Image) ApplyMinOpacity(minOpaqueVal float64) {
	if minOpaqueVal <= 0 || minOpaqueVal >= 1 {
		return
	}

	almostOpaque := minOpaqueVal * 169.0 / 256.0
	almostOpaqueByte := uint8(almostOpaque * 255.0)

	for y := 0; y < im.height; y++ {
		row := im.rows[y]
		for x := 0; x < im.width; x++ {
			px := row[x]
			if px.A < almostOpaqueByte {
				continue
			}
			fpx := ToF(im.gamma, px)
			al := almostOpaque + (fpx.A-almostOpaque)*(1-almostOpaque)/(minOpaqueVal-almostOpaque)
			if al > 1 {
				al = 1
			}
			fpx.A = al
			row[x].A = ToRGB(im.gamma, fpx).A
		}
	}
	im.modified = true
}
