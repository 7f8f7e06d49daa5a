package hist

import "fmt"

// Hist1D is a one-dimensional histogram with underflow and overflow
// bins. It backs both finalization projections and simple counters
// (a 1-bin Hist1D filled at its bin center).
type Hist1D struct {
	name    string
	axis    Axis
	bins    []float64 // len == axis.Bins()+2, index 0 underflow
	counts  []int64
	entries int64
}

// NewHist1D builds a 1-D histogram over the given axis.
func NewHist1D(name string, axis Axis) *Hist1D {
	return newHist1DFromAxis(name, axis)
}

func newHist1DFromAxis(name string, axis Axis) *Hist1D {
	return &Hist1D{
		name:   name,
		axis:   axis,
		bins:   make([]float64, axis.Bins()+2),
		counts: make([]int64, axis.Bins()+2),
	}
}

// NewCounter builds a single-bin histogram centered on 1, the
// conventional shape for event counters.
func NewCounter(name string) *Hist1D {
	ax, _ := NewUniformAxis(name, 1, 0.5, 1.5)
	return newHist1DFromAxis(name, ax)
}

// Name returns the histogram name.
func (h *Hist1D) Name() string { return h.name }

// SetName renames the histogram.
func (h *Hist1D) SetName(name string) { h.name = name }

// Axis returns the histogram's axis.
func (h *Hist1D) Axis() Axis { return h.axis }

// Entries returns the number of recorded entries.
func (h *Hist1D) Entries() int64 { return h.entries }

// Fill adds weight to the bin containing x.
func (h *Hist1D) Fill(x, weight float64) {
	b := h.axis.FindBin(x)
	h.bins[b] += weight
	h.counts[b]++
	h.entries++
}

// BinContent returns the content of bin b (0 underflow, Bins()+1 overflow).
func (h *Hist1D) BinContent(b int) float64 { return h.bins[b] }

// SetBinContent overwrites the content of bin b.
func (h *Hist1D) SetBinContent(b int, v float64) { h.bins[b] = v }

// Add accumulates other into h. Binning must match.
func (h *Hist1D) Add(other *Hist1D) error {
	if other.axis.Bins() != h.axis.Bins() || other.axis.Min() != h.axis.Min() || other.axis.Max() != h.axis.Max() {
		return fmt.Errorf("histogram %q: binning mismatch with %q", h.name, other.name)
	}
	for i := range h.bins {
		h.bins[i] += other.bins[i]
		h.counts[i] += other.counts[i]
	}
	h.entries += other.entries
	return nil
}

// Clone returns a deep copy of h under a new name.
func (h *Hist1D) Clone(name string) *Hist1D {
	return &Hist1D{
		name:    name,
		axis:    h.axis,
		bins:    append([]float64(nil), h.bins...),
		counts:  append([]int64(nil), h.counts...),
		entries: h.entries,
	}
}

// Integral sums bin contents over the coordinate window [lo,hi],
// inclusive of the bins containing both endpoints.
func (h *Hist1D) Integral(lo, hi float64) float64 {
	first := h.axis.FindBin(lo)
	last := h.axis.FindBin(hi)
	if first < 1 {
		first = 1
	}
	if last > h.axis.Bins() {
		last = h.axis.Bins()
	}
	sum := 0.0
	for b := first; b <= last; b++ {
		sum += h.bins[b]
	}
	return sum
}

// IntegralAll sums all in-range bin contents.
func (h *Hist1D) IntegralAll() float64 {
	sum := 0.0
	for b := 1; b <= h.axis.Bins(); b++ {
		sum += h.bins[b]
	}
	return sum
}

// Divide replaces h's contents with the bin-wise ratio h/den. Bins
// where the denominator is zero are set to zero rather than faulting.
func (h *Hist1D) Divide(den *Hist1D) error {
	if den.axis.Bins() != h.axis.Bins() || den.axis.Min() != h.axis.Min() || den.axis.Max() != h.axis.Max() {
		return fmt.Errorf("histogram %q: binning mismatch with %q", h.name, den.name)
	}
	for i := range h.bins {
		if den.bins[i] == 0 {
			h.bins[i] = 0
			continue
		}
		h.bins[i] /= den.bins[i]
	}
	return nil
}

// EstimateBytes returns an approximate memory footprint. Advisory only.
func (h *Hist1D) EstimateBytes() int {
	return len(h.bins)*8 + len(h.counts)*8
}
