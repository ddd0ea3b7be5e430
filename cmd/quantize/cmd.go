// Package quantize is the CLI batch driver for the color-quantization
// engine: it scans a folder of images, optionally resizes each one,
// runs it through quant.Quantize/RemapInto (or, for comparison, the
// stdlib's own Floyd-Steinberg ditherer), and writes the result plus
// an optional RIFF .PAL palette dump.
package quantize

import (
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/alecthomas/kong"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/vp8l"
	_ "golang.org/x/image/webp"

	"picproc/palette"
	"picproc/parallel"
	"picproc/quant"
)

type CLICmd struct {
	Scan   string `help:"Source folder to scan" default:"."`
	Dest   string `help:"Destination folder for processed pictures. Relative to scan dir if not absolute." default:"quantized"`
	Resize bool   `help:"Resize image before quantizing" default:"false" group:"resize"`
	Width  int    `help:"Max width" group:"resize"`
	Height int    `help:"Max height" group:"resize"`
	Crop   bool   `help:"Crop image to maintain requested aspect ratio" default:"false" group:"resize"`

	Engine               string  `help:"Quantization engine" enum:"quant,stdlib" default:"quant" group:"quantize"`
	MaxColors            int     `help:"Maximum palette size" default:"256" group:"quantize"`
	Speed                int     `help:"Speed/quality dial, 1=slow/best .. 10=fast/worst" default:"4" group:"quantize"`
	QualityTarget        int     `help:"Target quality, 0..100 (0 = no target)" default:"0" group:"quantize"`
	QualityMin           int     `help:"Minimum acceptable quality, 0..100 (0 = no floor)" default:"0" group:"quantize"`
	DitherLevel          float64 `help:"Floyd-Steinberg dithering amplitude, 0..1" default:"1" group:"quantize"`
	LastIndexTransparent bool    `help:"Swap a fully transparent palette entry into the final slot" default:"false" group:"quantize"`
	PaletteOut           string  `help:"If set, a directory to write each image's finalized palette as a RIFF .PAL file" group:"quantize"`

	Format string `help:"Output format of quantized image" enum:"png,gif,bmp,tiff" default:"png"`
}

func (c *CLICmd) Validate(kctx *kong.Context) error {
	scanDir, err := filepath.Abs(c.Scan)
	var info os.FileInfo
	if err == nil {
		if info, err = os.Stat(scanDir); err == nil && !info.IsDir() {
			err = fmt.Errorf("not a directory")
		}
	}
	if err != nil {
		return fmt.Errorf("invalid scan path %q: %w", c.Scan, err)
	}
	c.Scan = scanDir

	if !filepath.IsAbs(c.Dest) {
		c.Dest = filepath.Join(scanDir, c.Dest)
	}

	if c.Resize {
		switch {
		case c.Width < 0:
			return fmt.Errorf("invalid resize width: %d", c.Width)
		case c.Height < 0:
			return fmt.Errorf("invalid resize height: %d", c.Height)
		case c.Width == 0 && c.Height == 0:
			return fmt.Errorf("no resize dimensions given")
		}
	}

	if c.MaxColors < 2 || c.MaxColors > 256 {
		return fmt.Errorf("invalid max-colors: %d", c.MaxColors)
	}
	if c.Speed < 1 || c.Speed > 10 {
		return fmt.Errorf("invalid speed: %d", c.Speed)
	}
	if c.DitherLevel < 0 || c.DitherLevel > 1 {
		return fmt.Errorf("invalid dither-level: %f", c.DitherLevel)
	}

	if c.PaletteOut != "" && !filepath.IsAbs(c.PaletteOut) {
		c.PaletteOut = filepath.Join(scanDir, c.PaletteOut)
	}

	return nil
}

// Run processes every file in Scan, fanning the work out across pool.
func (c *CLICmd) Run(pool *parallel.Pool) error {
	if err := os.MkdirAll(c.Dest, os.ModeDir); err != nil {
		return fmt.Errorf("unable to create destination folder %q: %w", c.Dest, err)
	}
	if c.PaletteOut != "" {
		if err := os.MkdirAll(c.PaletteOut, os.ModeDir); err != nil {
			return fmt.Errorf("unable to create palette destination folder %q: %w", c.PaletteOut, err)
		}
	}

	files, err := os.ReadDir(c.Scan)
	if err != nil {
		return fmt.Errorf("unable to read folder %q: %w", c.Scan, err)
	}

	var processedCount, errCount atomic.Uint64

	fns := make([]func(), 0, len(files))
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		fileName := file.Name()
		fns = append(fns, func() {
			filePath := filepath.Join(c.Scan, fileName)
			logger := slog.Default().With("file", filePath)

			if err := c.processOne(logger, filePath, fileName); err != nil {
				errCount.Add(1)
				logger.Error("could not process image", "error", err)
				return
			}
			processedCount.Add(1)
		})
	}
	pool.RunAll(fns)

	processed := processedCount.Load()
	failed := errCount.Load()
	slog.Info("stats", "processed", processed, "errors", failed, "total", processed+failed)

	if failed > 0 {
		return fmt.Errorf("error processing %d files", failed)
	}
	return nil
}

func (c *CLICmd) processOne(logger *slog.Logger, filePath, fileName string) error {
	imgFile, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("could not open image: %w", err)
	}
	defer imgFile.Close()

	img, imgType, err := image.Decode(imgFile)
	if err != nil {
		return fmt.Errorf("could not decode image: %w", err)
	}

	if c.Resize {
		img, err = resize(logger, img, c.Width, c.Height, c.Crop, nil)
		if err != nil {
			return fmt.Errorf("could not resize image: %w", err)
		}
	}

	var dest *image.Paletted
	if c.Engine == "stdlib" {
		dest = quantizeImageStdlib(img, c.DitherLevel > 0)
	} else {
		var result *quant.Result
		dest, result, err = quantizeImage(logger, img, c)
		if err != nil {
			return err
		}
		if c.PaletteOut != "" {
			pal := &quant.Palette{Entries: result.Palette(), NumTrans: result.NumTransparent()}
			if err := writePaletteFile(c.PaletteOut, fileName, pal); err != nil {
				logger.Warn("could not write palette file", "error", err)
			}
		}
	}

	return save(dest, imgType, c.Format, c.Dest, fileName)
}

func writePaletteFile(dir, srcName string, pal *quant.Palette) error {
	destName := fmt.Sprintf("%s.pal", srcName)
	f, err := os.Create(filepath.Join(dir, destName))
	if err != nil {
		return fmt.Errorf("could not create palette file %q: %w", destName, err)
	}
	defer f.Close()

	if _, err := palette.WriteQuantPalette(f, pal); err != nil {
		return fmt.Errorf("could not write palette file %q: %w", destName, err)
	}
	return nil
}

func save(img image.Image, imgType, outType, destDir, srcName string) (err error) {
	if outType == "" {
		outType = imgType
	}

	oldExt := filepath.Ext(srcName)
	destName := fmt.Sprintf("%s.%s", srcName[:len(srcName)-len(oldExt)], outType)

	outFile, err := os.CreateTemp(destDir, destName)
	if err != nil {
		return fmt.Errorf("could not create temporary destination %q: %w", destName, err)
	}
	canRename := false
	defer func() {
		if defErr := outFile.Sync(); defErr != nil {
			err = fmt.Errorf("could not flush temporary destination %q: %w", destName, defErr)
		}
		if defErr := outFile.Close(); defErr != nil {
			err = fmt.Errorf("could not close temporary destination %q: %w", destName, defErr)
		}
		if canRename {
			if defErr := os.Rename(outFile.Name(), filepath.Join(destDir, destName)); defErr != nil {
				err = fmt.Errorf("could not rename destination file %q: %w", destName, defErr)
			}
		}
	}()

	switch outType {
	case "gif":
		if err = gif.Encode(outFile, img, nil); err != nil {
			return fmt.Errorf("could not encode GIF destination %q: %w", destName, err)
		}
	case "jpeg":
		if err = jpeg.Encode(outFile, img, &jpeg.Options{Quality: 100}); err != nil {
			return fmt.Errorf("could not encode JPEG destination %q: %w", destName, err)
		}
	case "png":
		enc := png.Encoder{CompressionLevel: png.BestCompression, BufferPool: pngPool}
		if err = enc.Encode(outFile, img); err != nil {
			return fmt.Errorf("could not encode PNG destination %q: %w", destName, err)
		}
	case "bmp":
		if err = bmp.Encode(outFile, img); err != nil {
			return fmt.Errorf("could not encode BMP destination %q: %w", destName, err)
		}
	case "tiff":
		if err = tiff.Encode(outFile, img, nil); err != nil {
			return fmt.Errorf("could not encode TIFF destination %q: %w", destName, err)
		}
	default:
		return fmt.Errorf("unsupported output format: %s", outType)
	}

	canRename = true
	return err
}

type pngEncoderBufferPool struct {
	pool sync.Pool
}

func (p *pngEncoderBufferPool) Get() *png.EncoderBuffer {
	return p.pool.Get().(*png.EncoderBuffer)
}

func (p *pngEncoderBufferPool) Put(buf *png.EncoderBuffer) {
	p.pool.Put(buf)
}

var pngPool = &pngEncoderBufferPool{
	pool: sync.Pool{
		New: func() any { return &png.EncoderBuffer{} },
	},
}
