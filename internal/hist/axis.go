package hist

import (
	"fmt"
	"math"
)

// Axis describes one binned dimension of a histogram: a title plus a
// monotonically increasing set of bin edges. Edges are fixed at
// construction and never change afterwards.
type Axis struct {
	title string
	edges []float64 // len == bins+1, strictly increasing
}

// NewUniformAxis builds an axis with nbins equal-width bins over [min,max).
func NewUniformAxis(title string, nbins int, min, max float64) (Axis, error) {
	if nbins <= 0 {
		return Axis{}, fmt.Errorf("axis %q: bin count must be positive, got %d", title, nbins)
	}
	if !(min < max) {
		return Axis{}, fmt.Errorf("axis %q: invalid range [%g,%g]", title, min, max)
	}
	if math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) {
		return Axis{}, fmt.Errorf("axis %q: range must be finite", title)
	}
	edges := make([]float64, nbins+1)
	width := (max - min) / float64(nbins)
	for i := 0; i <= nbins; i++ {
		edges[i] = min + float64(i)*width
	}
	// Avoid accumulation drift on the last edge.
	edges[nbins] = max
	return Axis{title: title, edges: edges}, nil
}

// NewVariableAxis builds an axis from explicit bin edges. The edges must be
// strictly increasing and there must be at least two of them.
func NewVariableAxis(title string, edges []float64) (Axis, error) {
	if len(edges) < 2 {
		return Axis{}, fmt.Errorf("axis %q: need at least 2 edges, got %d", title, len(edges))
	}
	cp := make([]float64, len(edges))
	copy(cp, edges)
	for i := 1; i < len(cp); i++ {
		if !(cp[i] > cp[i-1]) {
			return Axis{}, fmt.Errorf("axis %q: edges not strictly increasing at index %d (%g >= %g)", title, i, cp[i-1], cp[i])
		}
	}
	return Axis{title: title, edges: cp}, nil
}

// Title returns the axis title.
func (a Axis) Title() string { return a.title }

// Bins returns the number of in-range bins (flow bins excluded).
func (a Axis) Bins() int { return len(a.edges) - 1 }

// Min returns the lower edge of the first in-range bin.
func (a Axis) Min() float64 { return a.edges[0] }

// Max returns the upper edge of the last in-range bin.
func (a Axis) Max() float64 { return a.edges[len(a.edges)-1] }

// Edges returns a copy of the bin edges.
func (a Axis) Edges() []float64 {
	cp := make([]float64, len(a.edges))
	copy(cp, a.edges)
	return cp
}

// FindBin locates the bin containing x. Bins are numbered 1..Bins();
// 0 is the underflow bin and Bins()+1 the overflow bin. The lower edge
// of each bin is inclusive, the upper edge exclusive, except the very
// last edge which is inclusive so Max() lands in the last bin.
// NaN lands in the overflow bin.
func (a Axis) FindBin(x float64) int {
	n := a.Bins()
	if math.IsNaN(x) {
		return n + 1
	}
	if x < a.edges[0] {
		return 0
	}
	if x > a.edges[n] {
		return n + 1
	}
	if x == a.edges[n] {
		return n
	}
	// Binary search over the edge array.
	lo, hi := 0, n
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if x < a.edges[mid] {
			hi = mid
		} else {
			lo = mid
		}
	}
	return lo + 1
}

// BinLowEdge returns the lower edge of the given in-range bin (1-based).
func (a Axis) BinLowEdge(bin int) float64 { return a.edges[bin-1] }

// BinUpEdge returns the upper edge of the given in-range bin (1-based).
func (a Axis) BinUpEdge(bin int) float64 { return a.edges[bin] }

// BinCenter returns the midpoint of the given in-range bin (1-based).
func (a Axis) BinCenter(bin int) float64 {
	return 0.5 * (a.edges[bin-1] + a.edges[bin])
}
