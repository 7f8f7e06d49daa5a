package analysis

import (
	"fmt"
	"strings"

	"github.com/spectro-data/dimuon.report/internal/pairs"
)

// truthResolver answers ancestry questions from an event's truth
// block, following Mother links from a track's label upward.
type truthResolver struct {
	truth []Track
}

func newTruthResolver(truth []Track) *truthResolver {
	return &truthResolver{truth: truth}
}

// chainLabels returns the truth-block indices of the ancestry chain
// starting at label, the track itself first. Cycles and out-of-range
// links terminate the walk.
func (r *truthResolver) chainLabels(label int) []int {
	var chain []int
	seen := make(map[int]bool)
	for label >= 0 && label < len(r.truth) && !seen[label] {
		chain = append(chain, label)
		seen[label] = true
		label = r.truth[label].Mother
	}
	return chain
}

// chainPDG returns the PDG codes along the ancestry chain of label,
// the track itself first.
func (r *truthResolver) chainPDG(label int) []int {
	labels := r.chainLabels(label)
	pdgs := make([]int, len(labels))
	for i, l := range labels {
		pdgs[i] = r.truth[l].PDG
	}
	return pdgs
}

// CommonAncestor returns the truth label of the nearest common proper
// ancestor of a and b, or pairs.NoAncestor. The computation is
// symmetric in the two tracks.
func (r *truthResolver) CommonAncestor(a, b *pairs.DecoratedTrack) int {
	chainA := r.chainLabels(a.Label)
	if len(chainA) == 0 {
		return pairs.NoAncestor
	}
	ancestorsA := make(map[int]bool, len(chainA))
	for _, l := range chainA[1:] {
		ancestorsA[l] = true
	}
	for _, l := range r.chainLabels(b.Label)[1:] {
		if ancestorsA[l] {
			return l
		}
	}
	return pairs.NoAncestor
}

// History renders a track's ancestry chain as a readable string of
// PDG codes, nearest first.
func (r *truthResolver) History(t *pairs.DecoratedTrack) string {
	pdgs := r.chainPDG(t.Label)
	if len(pdgs) == 0 {
		return ""
	}
	parts := make([]string, len(pdgs))
	for i, pdg := range pdgs {
		parts[i] = fmt.Sprintf("%d", pdg)
	}
	return strings.Join(parts, " <- ")
}

var _ pairs.AncestryResolver = (*truthResolver)(nil)
