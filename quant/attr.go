package quant

import (
	"log/slog"

	"picproc/parallel"
)

// Attr is the attribute object (C11): per-batch tunables plus the
// worker pool and logger every derived Image/Result inherits. Setters
// validate and leave state untouched on failure (§7) — callers never
// need to check for a panic.
type Attr struct {
	maxColors            int
	speed                int
	qualityTarget        int
	qualityMin           int
	minOpacity           uint8
	lastIndexTransparent bool

	pool   *parallel.Pool
	logger *slog.Logger
}

// NewAttr returns an attribute object with the engine's defaults:
// max_colors=256, speed=4 (middle of the 1..10 dial), no quality
// target/floor (target_mse=0, max_mse unbounded, matching §8 S1-S3's
// "no target" behavior), min_opacity=0, last_index_transparent=false,
// a single-worker pool, and slog.Default().
func NewAttr() *Attr {
	return &Attr{
		maxColors: 256,
		speed:     4,
		pool:      parallel.Start(1),
		logger:    slog.Default(),
	}
}

// SetMaxColors sets the palette size ceiling, 2..256.
func (a *Attr) SetMaxColors(n int) error {
	if n < 2 || n > 256 {
		return ErrValueOutOfRange
	}
	a.maxColors = n
	return nil
}

// MaxColors returns the current palette size ceiling.
func (a *Attr) MaxColors() int { return a.maxColors }

// SetSpeed sets the speed/quality dial, 1 (slowest, best) .. 10
// (fastest, worst).
func (a *Attr) SetSpeed(s int) error {
	if s < 1 || s > 10 {
		return ErrValueOutOfRange
	}
	a.speed = s
	return nil
}

// Speed returns the current speed dial value.
func (a *Attr) Speed() int { return a.speed }

// SetQuality sets the target and minimum quality, each 0..100 with
// min <= target. 0 for both means "no target, no floor": median-cut
// and Voronoi refinement run to fill max_colors without an early MSE
// goal, and quantize never fails on quality.
func (a *Attr) SetQuality(target, min int) error {
	if target < 0 || target > 100 || min < 0 || min > 100 || min > target {
		return ErrValueOutOfRange
	}
	a.qualityTarget = target
	a.qualityMin = min
	return nil
}

// Quality returns the current (target, min) quality pair.
func (a *Attr) Quality() (target, min int) { return a.qualityTarget, a.qualityMin }

// SetMinOpacity sets the IE6 alpha-rounding workaround threshold,
// 0..255.
func (a *Attr) SetMinOpacity(v int) error {
	if v < 0 || v > 255 {
		return ErrValueOutOfRange
	}
	a.minOpacity = uint8(v)
	return nil
}

// MinOpacity returns the current min_opacity byte value.
func (a *Attr) MinOpacity() int { return int(a.minOpacity) }

func (a *Attr) minOpaqueFraction() float64 { return float64(a.minOpacity) / 255.0 }

// SetLastIndexTransparent sets whether a fully transparent palette
// entry, if any, is swapped into the final slot instead of clustering
// with the other low-alpha entries at the front.
func (a *Attr) SetLastIndexTransparent(v bool) { a.lastIndexTransparent = v }

// LastIndexTransparent reports the current setting.
func (a *Attr) LastIndexTransparent() bool { return a.lastIndexTransparent }

// SetConcurrency replaces the attribute's worker pool with one running
// workers goroutines. The previous pool, if any, is closed.
func (a *Attr) SetConcurrency(workers int) error {
	if workers < 1 {
		return ErrValueOutOfRange
	}
	if a.pool != nil {
		a.pool.Close()
	}
	a.pool = parallel.Start(workers)
	return nil
}

// SetLogger installs l as the attribute's logger. A nil l restores
// slog.Default().
func (a *Attr) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	a.logger = l
}

// Logger returns the attribute's current logger.
func (a *Attr) Logger() *slog.Logger { return a.logger }

// Close releases the attribute's worker pool. Safe to call once after
// all derived images/results are done.
func (a *Attr) Close() {
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
}
