// Package pairs classifies candidate track pairs by particle origin.
// Each selected track is decorated once per event with its particle
// type, ancestry history and label; the classifier combines two
// decorated tracks with an ancestry resolver into a pair-type label
// drawn from a configurable taxonomy.
package pairs

import "github.com/spectro-data/dimuon.report/internal/fourvec"

// Track is the minimal view of a detected or generated track the pair
// analysis needs. Concrete track types are supplied by the event
// source.
type Track interface {
	Momentum() fourvec.Vec
	Charge() float64
}

// DecoratedTrack wraps one selected track with context derived during
// event processing. It lives for the duration of a single event and is
// never persisted. The underlying track is not owned.
type DecoratedTrack struct {
	Track        Track
	ParticleType string // source classification, ParticleUnidentified when unknown
	History      string // human-readable ancestry chain
	Label        int    // physical track label, or loop index for truth items
}

// ChargeCombination returns "OS" for opposite-sign pairs and "SS" for
// same-sign (or uncharged) pairs.
func ChargeCombination(a, b Track) string {
	if a.Charge()*b.Charge() >= 0 {
		return "SS"
	}
	return "OS"
}
