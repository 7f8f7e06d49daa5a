// Package tracklets implements the cascading-threshold counting of
// per-event tracklet measurements. For each candidate pair the counter
// reports, per distance cut, how many tracklets inside the azimuthal
// acceptance window around the pair pass that cut, plus an
// unconditional bucket counting every in-window tracklet.
package tracklets

import (
	"fmt"
	"math"
	"sort"
)

// Tracklet is one auxiliary per-event angular measurement: an azimuth
// and a scalar distance metric.
type Tracklet struct {
	Phi  float64 `json:"phi"`
	Dist float64 `json:"dist"`
}

// Counter evaluates tracklet distance cuts. Cuts are kept sorted in
// descending order; the ordering is load-bearing, because counting
// short-circuits on the first failed cut (failing a loose cut implies
// failing every stricter one).
type Counter struct {
	cuts       []float64 // descending
	halfWindow float64   // azimuthal acceptance half-width around the pair
}

// DefaultHalfWindow is the default azimuthal acceptance half-width.
const DefaultHalfWindow = math.Pi / 2

// NewCounter builds a counter from the given distance cuts. The cuts
// may arrive in any order; they are copied and sorted descending.
// halfWindow must be positive.
func NewCounter(cuts []float64, halfWindow float64) (*Counter, error) {
	if halfWindow <= 0 {
		return nil, fmt.Errorf("tracklet counter: half window must be positive, got %g", halfWindow)
	}
	sorted := append([]float64(nil), cuts...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	return &Counter{cuts: sorted, halfWindow: halfWindow}, nil
}

// NumBuckets returns the number of count buckets: one per cut plus the
// unconditional bucket.
func (c *Counter) NumBuckets() int { return len(c.cuts) + 1 }

// BucketNames returns the categorical bucket labels, cut buckets first
// (loosest to strictest) and the unconditional bucket last.
func (c *Counter) BucketNames() []string {
	names := make([]string, 0, len(c.cuts)+1)
	for _, cut := range c.cuts {
		names = append(names, fmt.Sprintf("trackletDistCuts_%g", cut))
	}
	return append(names, "trackletDistCuts_none")
}

// Cuts returns a copy of the cuts in evaluation (descending) order.
func (c *Counter) Cuts() []float64 {
	return append([]float64(nil), c.cuts...)
}

// Count evaluates one pair against the event's tracklets and returns
// one count per bucket, the unconditional bucket last. A nil or empty
// tracklet slice yields all zeros; the counting step is best-effort
// auxiliary information and never fails.
func (c *Counter) Count(pairPhi float64, tks []Tracklet) []int {
	counts := make([]int, len(c.cuts)+1)
	for _, tk := range tks {
		if !c.inWindow(pairPhi, tk.Phi) {
			continue
		}
		for i, cut := range c.cuts {
			// Cuts are ordered, so the first failure implies
			// failure of every stricter cut.
			if tk.Dist > cut {
				break
			}
			counts[i]++
		}
		counts[len(c.cuts)]++
	}
	return counts
}

// inWindow reports whether trackletPhi lies within the acceptance
// window around pairPhi, accounting for azimuthal wrap-around.
func (c *Counter) inWindow(pairPhi, trackletPhi float64) bool {
	d := math.Mod(math.Abs(pairPhi-trackletPhi), 2*math.Pi)
	if d > math.Pi {
		d = 2*math.Pi - d
	}
	return d <= c.halfWindow
}
