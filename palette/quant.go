package palette

import (
	"fmt"
	"image/color"
	"io"

	"picproc/quant"
)

// FromQuantPalette converts a finalized quant.Palette into a
// color.Palette, for handing to image.Paletted or to WriteTo.
func FromQuantPalette(p *quant.Palette) color.Palette {
	pal := make(color.Palette, len(p.Entries))
	for i, e := range p.Entries {
		pal[i] = color.NRGBA{R: e.R, G: e.G, B: e.B, A: e.A}
	}
	return pal
}

// WriteQuantPalette RIFF-encodes a quant.Palette as a single PAL chunk.
func WriteQuantPalette(w io.Writer, p *quant.Palette) (int64, error) {
	n, err := WriteTo(w, []color.Palette{FromQuantPalette(p)})
	if err != nil {
		return n, fmt.Errorf("could not write quant palette: %w", err)
	}
	return n, nil
}

// ReadQuantPalette reads the first PAL chunk from r back into a
// quant.Palette. The format carries no alpha, so every entry comes
// back fully opaque with its stored RGB bytes.
func ReadQuantPalette(r io.Reader) (*quant.Palette, error) {
	pals, err := ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("could not read quant palette: %w", err)
	}
	if len(pals) == 0 {
		return &quant.Palette{}, nil
	}

	cp := pals[0]
	entries := make([]quant.Pixel, len(cp))
	for i, c := range cp {
		r, g, b, _ := c.RGBA()
		entries[i] = quant.Pixel{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 255}
	}
	return &quant.Palette{Entries: entries}, nil
}
