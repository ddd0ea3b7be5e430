package quant

import "math"

// NearestIndex answers nearest(q, minOpaqueVal) -> (index, distSq),
// honoring the transparent-slot rule: a query near fully transparent
// returns the palette entry with the smallest alpha, if one exists
// (C5). Which entry is "transparent" when none of the palette is
// actually transparent is implementation-defined (whichever has the
// smallest alpha) — see DESIGN.md.
type NearestIndex interface {
	Nearest(q FPixel, minOpaqueVal float64) (index int, distSq float64)
}

// NewNearestIndex builds an accelerated lookup over a colormap.
// Palettes with fewer than 16 entries fall back to a linear scan;
// larger ones are organized into a bounding-box partition tree whose
// pruning bound is sound under the asymmetric colordifference metric
// (C1's distance weights chroma by the reference color's alpha, so a
// vantage-point tree's usual symmetric-metric pruning does not apply
// directly; the bound below is derived instead from the alpha range of
// each subtree).
func NewNearestIndex(palette []ColormapEntry) NearestIndex {
	transparentIdx := findTransparentSlot(palette)

	if len(palette) < 16 {
		return &linearNearest{palette: palette, transparentIdx: transparentIdx}
	}
	return &treeNearest{
		palette:        palette,
		transparentIdx: transparentIdx,
		root:           buildBSPNode(indexRange(len(palette)), palette),
	}
}

func findTransparentSlot(palette []ColormapEntry) int {
	idx, minAlpha := -1, math.MaxFloat64
	for i, e := range palette {
		if e.Color.A < minAlpha {
			minAlpha = e.Color.A
			idx = i
		}
	}
	return idx
}

func indexRange(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// transparentThreshold picks the decision boundary for "nearly
// transparent", pulled by minOpaqueVal per the spec.
func transparentThreshold(minOpaqueVal float64) float64 {
	if minOpaqueVal <= 0 {
		return 1.0 / 256.0
	}
	return minOpaqueVal / 2
}

type linearNearest struct {
	palette        []ColormapEntry
	transparentIdx int
}

func (n *linearNearest) Nearest(q FPixel, minOpaqueVal float64) (int, float64) {
	if n.transparentIdx >= 0 && q.A < transparentThreshold(minOpaqueVal) {
		e := n.palette[n.transparentIdx]
		return n.transparentIdx, ColorDifference(q, e.Color)
	}

	best, bestDist := 0, math.MaxFloat64
	for i, e := range n.palette {
		d := ColorDifference(q, e.Color)
		if d < bestDist {
			if d == 0 {
				return i, 0
			}
			best, bestDist = i, d
		}
	}
	return best, bestDist
}

// bspNode is a node of the bounding-box partition tree: either a leaf
// holding a handful of palette indices, or an internal node splitting
// on the channel with the widest spread among its members.
type bspNode struct {
	indices     []int
	axis        int
	splitVal    float64
	left, right *bspNode
	bbox        [4][2]float64 // per-channel [min,max] over members
}

const bspLeafSize = 4

func buildBSPNode(indices []int, palette []ColormapEntry) *bspNode {
	n := &bspNode{indices: indices, bbox: computeBBox(indices, palette)}
	if len(indices) <= bspLeafSize {
		return n
	}

	axis := widestAxis(n.bbox)
	sorted := append([]int(nil), indices...)
	sortIndicesByAxis(sorted, palette, axis)

	mid := len(sorted) / 2
	n.axis = axis
	n.splitVal = channelOf(palette[sorted[mid]].Color, axis)
	n.indices = nil
	n.left = buildBSPNode(sorted[:mid], palette)
	n.right = buildBSPNode(sorted[mid:], palette)
	return n
}

func computeBBox(indices []int, palette []ColormapEntry) [4][2]float64 {
	var box [4][2]float64
	for c := 0; c < 4; c++ {
		box[c][0] = math.MaxFloat64
		box[c][1] = -math.MaxFloat64
	}
	for _, i := range indices {
		col := palette[i].Color
		ch := [4]float64{col.R, col.G, col.B, col.A}
		for c := 0; c < 4; c++ {
			if ch[c] < box[c][0] {
				box[c][0] = ch[c]
			}
			if ch[c] > box[c][1] {
				box[c][1] = ch[c]
			}
		}
	}
	return box
}

func widestAxis(box [4][2]float64) int {
	widest := 0
	widestSpan := box[0][1] - box[0][0]
	for c := 1; c < 4; c++ {
		span := box[c][1] - box[c][0]
		if span > widestSpan {
			widest, widestSpan = c, span
		}
	}
	return widest
}

func sortIndicesByAxis(idx []int, palette []ColormapEntry, axis int) {
	// insertion sort: palettes are small (<=256 entries) so tree
	// construction cost is dominated by comparisons, not algorithmic
	// sort complexity.
	for i := 1; i < len(idx); i++ {
		v := idx[i]
		vv := channelOf(palette[v].Color, axis)
		j := i - 1
		for j >= 0 && channelOf(palette[idx[j]].Color, axis) > vv {
			idx[j+1] = idx[j]
			j--
		}
		idx[j+1] = v
	}
}

// lowerBound computes a sound lower bound on colordifference(q, ref)
// for any ref inside box, used to prune subtrees.
func lowerBound(q FPixel, box [4][2]float64) float64 {
	rgbLB := axisLowerBoundSq(q.R, box[0]) + axisLowerBoundSq(q.G, box[1]) + axisLowerBoundSq(q.B, box[2])
	alphaLB := box[3][0] // smallest possible ref.A in this subtree, always >= 0
	chromaLB := rgbLB * alphaLB

	daLB := axisLowerBoundSq(q.A, box[3])
	return chromaLB + daLB*4
}

func axisLowerBoundSq(v float64, rng [2]float64) float64 {
	switch {
	case v < rng[0]:
		d := rng[0] - v
		return d * d
	case v > rng[1]:
		d := v - rng[1]
		return d * d
	default:
		return 0
	}
}

type treeNearest struct {
	palette        []ColormapEntry
	transparentIdx int
	root           *bspNode
}

func (n *treeNearest) Nearest(q FPixel, minOpaqueVal float64) (int, float64) {
	if n.transparentIdx >= 0 && q.A < transparentThreshold(minOpaqueVal) {
		e := n.palette[n.transparentIdx]
		return n.transparentIdx, ColorDifference(q, e.Color)
	}

	best, bestDist := -1, math.MaxFloat64
	searchBSP(n.root, q, n.palette, &best, &bestDist)
	return best, bestDist
}

func searchBSP(node *bspNode, q FPixel, palette []ColormapEntry, best *int, bestDist *float64) {
	if node == nil {
		return
	}
	if lowerBound(q, node.bbox) > *bestDist {
		return
	}

	if node.indices != nil {
		for _, i := range node.indices {
			d := ColorDifference(q, palette[i].Color)
			if d < *bestDist {
				*best, *bestDist = i, d
			}
		}
		return
	}

	// Visit the side containing q first so bestDist tightens before the
	// sibling's bound is checked.
	first, second := node.left, node.right
	if channelOf(q, node.axis) > node.splitVal {
		first, second = node.right, node.left
	}
	searchBSP(first, q, palette, best, bestDist)
	searchBSP(second, q, palette, best, bestDist)
}
