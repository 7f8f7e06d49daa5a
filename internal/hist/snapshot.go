package hist

import "fmt"

// Snapshot types provide a stable serialized form for histograms so a
// collection can be persisted and merged across processing units.

// AxisSnapshot is the serialized form of an Axis.
type AxisSnapshot struct {
	Title string    `json:"title"`
	Edges []float64 `json:"edges"`
}

// HistNDSnapshot is the serialized form of a HistND. Only occupied
// cells are captured: Cells holds their flattened bin indices with
// Bins and Counts as parallel payloads.
type HistNDSnapshot struct {
	Name    string         `json:"name"`
	Axes    []AxisSnapshot `json:"axes"`
	Cells   []uint64       `json:"cells"`
	Bins    []float64      `json:"bins"`
	Counts  []int64        `json:"counts"`
	Entries int64          `json:"entries"`
}

// Hist1DSnapshot is the serialized form of a Hist1D.
type Hist1DSnapshot struct {
	Name    string       `json:"name"`
	Axis    AxisSnapshot `json:"axis"`
	Bins    []float64    `json:"bins"`
	Counts  []int64      `json:"counts"`
	Entries int64        `json:"entries"`
}

// Snapshot captures the histogram's full state. Projection range
// restrictions are transient and deliberately not captured.
func (h *HistND) Snapshot() HistNDSnapshot {
	idxs := h.occupiedIndices()
	s := HistNDSnapshot{
		Name:    h.name,
		Axes:    make([]AxisSnapshot, len(h.axes)),
		Cells:   idxs,
		Bins:    make([]float64, len(idxs)),
		Counts:  make([]int64, len(idxs)),
		Entries: h.entries,
	}
	for i, idx := range idxs {
		c := h.cells[idx]
		s.Bins[i] = c.weight
		s.Counts[i] = c.count
	}
	for i, ax := range h.axes {
		s.Axes[i] = AxisSnapshot{Title: ax.Title(), Edges: ax.Edges()}
	}
	return s
}

// RestoreHistND rebuilds a HistND from its snapshot.
func RestoreHistND(s HistNDSnapshot) (*HistND, error) {
	axes := make([]Axis, len(s.Axes))
	for i, as := range s.Axes {
		ax, err := NewVariableAxis(as.Title, as.Edges)
		if err != nil {
			return nil, fmt.Errorf("restore %q: axis %d: %w", s.Name, i, err)
		}
		axes[i] = ax
	}
	h, err := NewHistND(s.Name, axes...)
	if err != nil {
		return nil, err
	}
	if len(s.Bins) != len(s.Cells) || len(s.Counts) != len(s.Cells) {
		return nil, fmt.Errorf("restore %q: cell payload size mismatch (%d indices, %d bins, %d counts)",
			s.Name, len(s.Cells), len(s.Bins), len(s.Counts))
	}
	for i, idx := range s.Cells {
		if idx >= h.nCells {
			return nil, fmt.Errorf("restore %q: cell index %d outside grid of %d cells", s.Name, idx, h.nCells)
		}
		h.cells[idx] = cell{weight: s.Bins[i], count: s.Counts[i]}
	}
	h.entries = s.Entries
	return h, nil
}

// Snapshot captures the histogram's full state.
func (h *Hist1D) Snapshot() Hist1DSnapshot {
	return Hist1DSnapshot{
		Name:    h.name,
		Axis:    AxisSnapshot{Title: h.axis.Title(), Edges: h.axis.Edges()},
		Bins:    append([]float64(nil), h.bins...),
		Counts:  append([]int64(nil), h.counts...),
		Entries: h.entries,
	}
}

// RestoreHist1D rebuilds a Hist1D from its snapshot.
func RestoreHist1D(s Hist1DSnapshot) (*Hist1D, error) {
	ax, err := NewVariableAxis(s.Axis.Title, s.Axis.Edges)
	if err != nil {
		return nil, fmt.Errorf("restore %q: %w", s.Name, err)
	}
	h := newHist1DFromAxis(s.Name, ax)
	if len(s.Bins) != len(h.bins) {
		return nil, fmt.Errorf("restore %q: bin payload size mismatch (%d bins for %d cells)", s.Name, len(s.Bins), len(h.bins))
	}
	copy(h.bins, s.Bins)
	copy(h.counts, s.Counts)
	h.entries = s.Entries
	return h, nil
}
