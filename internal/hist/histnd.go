package hist

import (
	"fmt"
	"sort"
)

// cell holds the accumulated weight and unweighted entry count of one
// occupied bin.
type cell struct {
	weight float64
	count  int64
}

// HistND is a fixed-dimension multi-axis histogram. The number of axes
// is set at construction; each axis carries its own binning plus
// underflow and overflow bins. Storage is sparse: only occupied bins
// are kept, addressed by their flattened bin index, so wide bin grids
// cost memory in proportion to the number of distinct fills rather
// than the product of the axis sizes.
//
// A HistND is owned by a single processing unit; it carries no internal
// locking. Results from independent units are combined with Add.
type HistND struct {
	name    string
	axes    []Axis
	strides []uint64
	nCells  uint64
	cells   map[uint64]cell
	entries int64

	// Projection range restriction per axis, as inclusive [first,last]
	// in-range bin numbers. rangeSet marks axes whose restriction was
	// explicitly applied; unrestricted axes span their full in-range
	// width and additionally contribute flow content when projected.
	rangeLo  []int
	rangeHi  []int
	rangeSet []bool
}

// NewHistND builds an N-dimensional histogram from the given axes.
func NewHistND(name string, axes ...Axis) (*HistND, error) {
	if len(axes) == 0 {
		return nil, fmt.Errorf("histogram %q: need at least one axis", name)
	}
	h := &HistND{
		name:     name,
		axes:     make([]Axis, len(axes)),
		strides:  make([]uint64, len(axes)),
		cells:    make(map[uint64]cell),
		rangeLo:  make([]int, len(axes)),
		rangeHi:  make([]int, len(axes)),
		rangeSet: make([]bool, len(axes)),
	}
	copy(h.axes, axes)
	size := uint64(1)
	for i := len(axes) - 1; i >= 0; i-- {
		h.strides[i] = size
		size *= uint64(axes[i].Bins() + 2)
	}
	h.nCells = size
	for i, ax := range axes {
		h.rangeLo[i] = 1
		h.rangeHi[i] = ax.Bins()
	}
	return h, nil
}

// Name returns the histogram name.
func (h *HistND) Name() string { return h.name }

// SetName renames the histogram.
func (h *HistND) SetName(name string) { h.name = name }

// Dim returns the number of axes.
func (h *HistND) Dim() int { return len(h.axes) }

// Axis returns the i-th axis.
func (h *HistND) Axis(i int) Axis { return h.axes[i] }

// Entries returns the number of Fill calls recorded.
func (h *HistND) Entries() int64 { return h.entries }

// NumOccupied returns the number of distinct bins holding content.
func (h *HistND) NumOccupied() int { return len(h.cells) }

// Fill adds weight to the bin containing coords. Out-of-range
// coordinates land in the per-axis underflow/overflow bins.
func (h *HistND) Fill(coords []float64, weight float64) error {
	if len(coords) != len(h.axes) {
		return fmt.Errorf("histogram %q: got %d coordinates, want %d", h.name, len(coords), len(h.axes))
	}
	idx := uint64(0)
	for i, ax := range h.axes {
		idx += uint64(ax.FindBin(coords[i])) * h.strides[i]
	}
	c := h.cells[idx]
	c.weight += weight
	c.count++
	h.cells[idx] = c
	h.entries++
	return nil
}

// Add accumulates the bin contents of other into h. The two histograms
// must share the same axis structure.
func (h *HistND) Add(other *HistND) error {
	if err := h.checkCompatible(other); err != nil {
		return err
	}
	for idx, oc := range other.cells {
		c := h.cells[idx]
		c.weight += oc.weight
		c.count += oc.count
		h.cells[idx] = c
	}
	h.entries += other.entries
	return nil
}

func (h *HistND) checkCompatible(other *HistND) error {
	if len(other.axes) != len(h.axes) {
		return fmt.Errorf("histogram %q: dimension mismatch (%d vs %d)", h.name, len(h.axes), len(other.axes))
	}
	for i := range h.axes {
		if h.axes[i].Bins() != other.axes[i].Bins() ||
			h.axes[i].Min() != other.axes[i].Min() ||
			h.axes[i].Max() != other.axes[i].Max() {
			return fmt.Errorf("histogram %q: axis %d binning mismatch", h.name, i)
		}
	}
	return nil
}

// Clone returns a deep copy of h under a new name, including bin
// contents and any projection range restrictions.
func (h *HistND) Clone(name string) *HistND {
	cp := &HistND{
		name:     name,
		axes:     append([]Axis(nil), h.axes...),
		strides:  append([]uint64(nil), h.strides...),
		nCells:   h.nCells,
		cells:    make(map[uint64]cell, len(h.cells)),
		entries:  h.entries,
		rangeLo:  append([]int(nil), h.rangeLo...),
		rangeHi:  append([]int(nil), h.rangeHi...),
		rangeSet: append([]bool(nil), h.rangeSet...),
	}
	for idx, c := range h.cells {
		cp.cells[idx] = c
	}
	return cp
}

// SetRange restricts the in-range span of one axis to [lo,hi] in
// coordinate space. The restriction applies to Project and Integral,
// not to Fill. Passing lo > hi resets the axis to its full span.
func (h *HistND) SetRange(axis int, lo, hi float64) error {
	if axis < 0 || axis >= len(h.axes) {
		return fmt.Errorf("histogram %q: axis %d out of range", h.name, axis)
	}
	ax := h.axes[axis]
	if lo > hi {
		h.rangeLo[axis] = 1
		h.rangeHi[axis] = ax.Bins()
		h.rangeSet[axis] = false
		return nil
	}
	first := ax.FindBin(lo)
	last := ax.FindBin(hi)
	if first < 1 {
		first = 1
	}
	if last > ax.Bins() {
		last = ax.Bins()
	}
	h.rangeLo[axis] = first
	h.rangeHi[axis] = last
	h.rangeSet[axis] = true
	return nil
}

// binAt decodes the per-axis bin number of a flattened cell index.
func (h *HistND) binAt(idx uint64, axis int) int {
	return int(idx / h.strides[axis] % uint64(h.axes[axis].Bins()+2))
}

// Project sums over all axes except the chosen one and returns the
// result as a 1-D histogram preserving that axis's binning and title.
// Only bins inside the per-axis ranges set via SetRange contribute.
// When the projected axis itself carries no explicit range it keeps
// its own underflow/overflow content; with a range set, bins outside
// the window are excluded like on any other axis.
func (h *HistND) Project(axis int) (*Hist1D, error) {
	if axis < 0 || axis >= len(h.axes) {
		return nil, fmt.Errorf("histogram %q: axis %d out of range", h.name, axis)
	}
	out := newHist1DFromAxis(fmt.Sprintf("%s_proj%d", h.name, axis), h.axes[axis])

	for idx, c := range h.cells {
		keep := true
		for i := range h.axes {
			if i == axis && !h.rangeSet[i] {
				continue
			}
			b := h.binAt(idx, i)
			if b < h.rangeLo[i] || b > h.rangeHi[i] {
				keep = false
				break
			}
		}
		if !keep {
			continue
		}
		b := h.binAt(idx, axis)
		out.bins[b] += c.weight
		out.counts[b] += c.count
	}
	for _, c := range out.counts {
		out.entries += c
	}
	return out, nil
}

// Integral returns the summed weight of all bins inside the current
// per-axis ranges (flow bins excluded).
func (h *HistND) Integral() float64 {
	sum := 0.0
	for idx, c := range h.cells {
		keep := true
		for i := range h.axes {
			b := h.binAt(idx, i)
			if b < h.rangeLo[i] || b > h.rangeHi[i] {
				keep = false
				break
			}
		}
		if keep {
			sum += c.weight
		}
	}
	return sum
}

// occupiedIndices returns the flattened indices of occupied cells in
// ascending order, for deterministic serialization.
func (h *HistND) occupiedIndices() []uint64 {
	idxs := make([]uint64, 0, len(h.cells))
	for idx := range h.cells {
		idxs = append(idxs, idx)
	}
	sort.Slice(idxs, func(i, j int) bool { return idxs[i] < idxs[j] })
	return idxs
}

// EstimateBytes returns an approximate memory footprint. Advisory only.
func (h *HistND) EstimateBytes() int {
	return len(h.cells) * 24
}
