// Package analysis drives the per-event pair loop: select tracks,
// decorate them, build all unordered pairs, classify each pair, count
// tracklets and fill the accumulator store.
package analysis

import (
	"github.com/spectro-data/dimuon.report/internal/fourvec"
	"github.com/spectro-data/dimuon.report/internal/tracklets"
)

// Track is one detected or generated track as handed over by the
// event source. Status and Mother are only meaningful for truth
// tracks.
type Track struct {
	P      fourvec.Vec
	Q      float64
	PDG    int
	Status int
	// Label is the physical track label: for reconstructed tracks the
	// index of the matched truth particle (-1 if unmatched), for truth
	// tracks their own index in the truth block.
	Label int
	// Mother is the truth-block index of the parent particle, -1 for
	// primaries. Truth tracks only.
	Mother int
}

// Momentum returns the track four-momentum.
func (t *Track) Momentum() fourvec.Vec { return t.P }

// Charge returns the track charge.
func (t *Track) Charge() float64 { return t.Q }

// Event is one collision event as consumed by the Task. Tracks holds
// the reconstructed tracks, Truth the generated particles when Monte
// Carlo information is present.
type Event struct {
	ID         string
	Centrality float64
	Triggers   []string
	Tracks     []Track
	Truth      []Track
	Tracklets  []tracklets.Tracklet
}

// HasTruth reports whether generated-level information is present.
func (e *Event) HasTruth() bool { return len(e.Truth) > 0 }

// EventCuts is the externally supplied event selection. Events failing
// IsSelected are skipped entirely; SelectedTrigClasses lists the
// trigger classes the event fires for the reconstructed pass.
type EventCuts interface {
	IsSelected(ev *Event) bool
	SelectedTrigClasses(ev *Event) []string
}

// TrackCuts is the externally supplied reconstructed-track selection.
type TrackCuts interface {
	IsSelected(t *Track) bool
}

// PairTrigMatchFunc decides whether a reconstructed pair satisfies the
// pt thresholds of a trigger class. The default accepts everything.
type PairTrigMatchFunc func(a, b *Track, trigClass string) bool

// defaultEventCuts selects any event that fired at least one trigger.
type defaultEventCuts struct{}

func (defaultEventCuts) IsSelected(ev *Event) bool              { return len(ev.Triggers) > 0 }
func (defaultEventCuts) SelectedTrigClasses(ev *Event) []string { return ev.Triggers }

// defaultTrackCuts accepts every track; the event source is expected
// to have applied the detector-level selection already.
type defaultTrackCuts struct{}

func (defaultTrackCuts) IsSelected(t *Track) bool { return true }
