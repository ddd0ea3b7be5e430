package quantize

import (
	"fmt"
	"image"
	"image/color"
	stdpalette "image/color/palette"
	"log/slog"

	"golang.org/x/image/draw"

	"picproc/quant"
)

// toQuantImage copies img's pixels into a quant.Image in non-premultiplied
// byte RGBA, the byte layout quant.Pixel expects.
func toQuantImage(img image.Image) (*quant.Image, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	pix := make([]quant.Pixel, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			n := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			pix[y*w+x] = quant.Pixel{R: n.R, G: n.G, B: n.B, A: n.A}
		}
	}

	return quant.NewImage(pix, w, h, 0)
}

// quantizeImage runs the full engine (Attr → Quantize → RemapInto) over
// img and returns a paletted image ready for encoding.
func quantizeImage(logger *slog.Logger, img image.Image, c *CLICmd) (*image.Paletted, *quant.Result, error) {
	qimg, err := toQuantImage(img)
	if err != nil {
		return nil, nil, fmt.Errorf("could not build quantizer image: %w", err)
	}

	attr := quant.NewAttr()
	if err := attr.SetMaxColors(c.MaxColors); err != nil {
		return nil, nil, fmt.Errorf("invalid max-colors: %w", err)
	}
	if err := attr.SetSpeed(c.Speed); err != nil {
		return nil, nil, fmt.Errorf("invalid speed: %w", err)
	}
	if err := attr.SetQuality(c.QualityTarget, c.QualityMin); err != nil {
		return nil, nil, fmt.Errorf("invalid quality: %w", err)
	}
	attr.SetLastIndexTransparent(c.LastIndexTransparent)
	attr.SetLogger(logger)
	defer attr.Close()

	result, err := quant.Quantize(qimg, attr)
	if err != nil {
		return nil, nil, fmt.Errorf("could not quantize: %w", err)
	}

	if err := result.SetDitheringLevel(c.DitherLevel); err != nil {
		return nil, nil, fmt.Errorf("invalid dither-level: %w", err)
	}

	b := img.Bounds()
	idx := make([]uint8, qimg.Width()*qimg.Height())
	quantErr, err := result.RemapInto(qimg, idx)
	if err != nil {
		return nil, nil, fmt.Errorf("could not remap: %w", err)
	}
	logger.Debug("remapped", "error", quantErr, "palette_error", result.Error())

	dest := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), pixelsToColorPalette(result.Palette()))
	copy(dest.Pix, idx)
	return dest, result, nil
}

func pixelsToColorPalette(entries []quant.Pixel) color.Palette {
	pal := make(color.Palette, len(entries))
	for i, e := range entries {
		pal[i] = color.NRGBA{R: e.R, G: e.G, B: e.B, A: e.A}
	}
	return pal
}

// quantizeImageStdlib is the "-engine=stdlib" comparison path: a fixed
// 256-entry palette and golang.org/x/image/draw's own Floyd-Steinberg
// ditherer, used as a baseline to diff the engine's output against.
func quantizeImageStdlib(img image.Image, dither bool) *image.Paletted {
	sr := img.Bounds()
	dr := image.Rect(0, 0, sr.Dx(), sr.Dy())
	dest := image.NewPaletted(dr, stdpalette.Plan9)

	if dither {
		draw.FloydSteinberg.Draw(dest, dr, img, sr.Min)
	} else {
		draw.Draw(dest, dr, img, sr.Min, draw.Src)
	}
	return dest
}
