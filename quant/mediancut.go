package quant

import "sort"

// mcBox is a working median-cut box: a contiguous slice of histogram
// item pointers plus its cached per-channel stats.
type mcBox struct {
	items    []*HistItem
	variance float64 // sum of per-channel weighted variance
	widest   int      // channel index with the largest variance: 0=R,1=G,2=B,3=A
	weight   float64
}

// MedianCut builds an initial palette from the histogram by recursive
// variance-splitting (C4). targetColors bounds the box count; a box
// stops being a split candidate once its variance falls to or below
// acceptMSE. targetMSE currently only participates via the box
// acceptance threshold acceptMSE passed in by the caller (C7 computes
// it); it is accepted here for signature symmetry with the spec.
func MedianCut(hist *Histogram, targetColors int, targetMSE, acceptMSE float64) *Colormap {
	_ = targetMSE

	if len(hist.Items) == 0 {
		return &Colormap{}
	}

	ptrs := make([]*HistItem, len(hist.Items))
	for i := range hist.Items {
		ptrs[i] = &hist.Items[i]
	}

	root := &mcBox{items: ptrs}
	computeBoxStats(root)
	boxes := []*mcBox{root}

	for len(boxes) < targetColors {
		idx := pickSplitCandidate(boxes, acceptMSE)
		if idx < 0 {
			break
		}
		left, right := splitBox(boxes[idx])
		boxes[idx] = left
		boxes = append(boxes, right)
	}

	cm := &Colormap{Palette: make([]ColormapEntry, len(boxes))}
	for i, b := range boxes {
		cm.Palette[i] = boxCentroid(b)
	}
	return cm
}

// pickSplitCandidate returns the index of the box with the largest
// variance among those exceeding acceptMSE, or -1 if none qualifies.
func pickSplitCandidate(boxes []*mcBox, acceptMSE float64) int {
	best := -1
	bestVar := acceptMSE
	for i, b := range boxes {
		if len(b.items) < 2 {
			continue
		}
		if b.variance > bestVar {
			bestVar = b.variance
			best = i
		}
	}
	return best
}

func computeBoxStats(b *mcBox) {
	var sumW float64
	var mean [4]float64
	for _, it := range b.items {
		w := it.AdjustedWeight
		sumW += w
		mean[0] += it.Color.R * w
		mean[1] += it.Color.G * w
		mean[2] += it.Color.B * w
		mean[3] += it.Color.A * w
	}
	if sumW == 0 {
		sumW = weightFloor
	}
	for c := range mean {
		mean[c] /= sumW
	}

	var varr [4]float64
	for _, it := range b.items {
		w := it.AdjustedWeight
		ch := [4]float64{it.Color.R, it.Color.G, it.Color.B, it.Color.A}
		for c := range varr {
			d := ch[c] - mean[c]
			varr[c] += w * d * d
		}
	}
	for c := range varr {
		varr[c] /= sumW
	}

	b.weight = sumW
	b.variance = varr[0] + varr[1] + varr[2] + varr[3]

	// Rounding in the weighted mean can leave a tiny positive variance on
	// a box whose members all share one color; such a box has nothing to
	// split.
	uniform := true
	for _, it := range b.items {
		if it.Color != b.items[0].Color {
			uniform = false
			break
		}
	}
	if uniform {
		b.variance = 0
	}

	// Widest channel, ties broken R,G,B,A order (first strictly-greater wins).
	widest := 0
	for c := 1; c < 4; c++ {
		if varr[c] > varr[widest] {
			widest = c
		}
	}
	b.widest = widest
}

func channelOf(p FPixel, c int) float64 {
	switch c {
	case 0:
		return p.R
	case 1:
		return p.G
	case 2:
		return p.B
	default:
		return p.A
	}
}

// splitBox partitions b along its widest channel at the weighted
// median, returning two fresh boxes with recomputed stats.
func splitBox(b *mcBox) (*mcBox, *mcBox) {
	items := b.items
	sort.Slice(items, func(i, j int) bool {
		return channelOf(items[i].Color, b.widest) < channelOf(items[j].Color, b.widest)
	})

	var total float64
	for _, it := range items {
		total += it.AdjustedWeight
	}

	half := total / 2
	var acc float64
	cut := 1
	for i, it := range items {
		acc += it.AdjustedWeight
		if acc >= half {
			cut = i + 1
			break
		}
	}
	if cut <= 0 {
		cut = 1
	}
	if cut >= len(items) {
		cut = len(items) - 1
	}

	left := &mcBox{items: items[:cut]}
	right := &mcBox{items: items[cut:]}
	computeBoxStats(left)
	computeBoxStats(right)
	return left, right
}

func boxCentroid(b *mcBox) ColormapEntry {
	var sum FPixel
	var weight float64
	for _, it := range b.items {
		w := it.AdjustedWeight
		sum.R += it.Color.R * w
		sum.G += it.Color.G * w
		sum.B += it.Color.B * w
		sum.A += it.Color.A * w
		weight += w
	}
	if weight == 0 {
		weight = weightFloor
	}

	var popularity float64
	for _, it := range b.items {
		popularity += it.PerceptualWeight
	}

	return ColormapEntry{
		Color: FPixel{
			R: sum.R / weight,
			G: sum.G / weight,
			B: sum.B / weight,
			A: sum.A / weight,
		},
		Popularity: popularity,
	}
}
