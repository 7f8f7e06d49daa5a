package pairs

import (
	"fmt"
	"regexp"
	"strings"
)

// PairUnknown is the fallback pair-type label used when ancestry
// information is unavailable or no taxonomy rule matches.
const PairUnknown = "unknown"

// NoAncestor marks the absence of a common ancestor.
const NoAncestor = -1

// AncestryResolver answers ancestry questions about decorated tracks.
// It is supplied by the truth collaborator; real-data runs have none.
type AncestryResolver interface {
	// CommonAncestor returns the label of the nearest common ancestor
	// of a and b, or NoAncestor if they share none.
	CommonAncestor(a, b *DecoratedTrack) int
	// History returns the full ancestry chain of a track as a
	// human-readable string.
	History(t *DecoratedTrack) string
}

// Rule maps an ordered (first, second) particle-type combination to a
// pair-type label. The "*" wildcard matches any particle type.
// WithAncestor, when non-nil, additionally requires the presence (true)
// or absence (false) of a common ancestor.
type Rule struct {
	First        string
	Second       string
	WithAncestor *bool
	Label        string
}

func (r Rule) matches(first, second string, hasAncestor bool) bool {
	if r.First != "*" && r.First != first {
		return false
	}
	if r.Second != "*" && r.Second != second {
		return false
	}
	if r.WithAncestor != nil && *r.WithAncestor != hasAncestor {
		return false
	}
	return true
}

// Taxonomy is an ordered rule list; the first matching rule wins.
// The taxonomy is domain calibration data, not structure: callers may
// install their own rules, and the defaults below only cover the
// built-in particle-type labels.
type Taxonomy struct {
	rules    []Rule
	fallback string
}

// NewTaxonomy builds a taxonomy from an ordered rule list. Every rule
// needs a non-empty label.
func NewTaxonomy(rules []Rule, fallback string) (*Taxonomy, error) {
	if fallback == "" {
		fallback = PairUnknown
	}
	for i, r := range rules {
		if r.Label == "" {
			return nil, fmt.Errorf("taxonomy rule %d: empty label", i)
		}
		if r.First == "" || r.Second == "" {
			return nil, fmt.Errorf("taxonomy rule %d (%s): empty particle-type slot", i, r.Label)
		}
	}
	return &Taxonomy{rules: append([]Rule(nil), rules...), fallback: fallback}, nil
}

func boolPtr(v bool) *bool { return &v }

// DefaultTaxonomy returns the built-in pair-type rule table for the
// built-in particle-type labels.
func DefaultTaxonomy() *Taxonomy {
	tax, err := NewTaxonomy([]Rule{
		{First: ParticleQuarkoniumMu, Second: ParticleQuarkoniumMu, WithAncestor: boolPtr(true), Label: "Quarkonium"},
		{First: ParticleZBosonMu, Second: ParticleZBosonMu, Label: "Zboson"},
		{First: ParticleWBosonMu, Second: ParticleWBosonMu, Label: "Wpair"},
		{First: ParticleBeautyMu, Second: ParticleBeautyMu, WithAncestor: boolPtr(true), Label: "Bchain"},
		{First: ParticleBeautyMu, Second: ParticleBeautyMu, Label: "BBpair"},
		{First: ParticleCharmMu, Second: ParticleCharmMu, WithAncestor: boolPtr(true), Label: "Cchain"},
		{First: ParticleCharmMu, Second: ParticleCharmMu, Label: "CCpair"},
		{First: ParticleBeautyMu, Second: ParticleCharmMu, Label: "BCpair"},
		{First: ParticleCharmMu, Second: ParticleBeautyMu, Label: "CBpair"},
		{First: ParticleDecayMu, Second: "*", Label: "DecayBkg"},
		{First: "*", Second: ParticleDecayMu, Label: "DecayBkg"},
		{First: ParticleHadron, Second: "*", Label: "HadronBkg"},
		{First: "*", Second: ParticleHadron, Label: "HadronBkg"},
		{First: ParticleUnidentified, Second: "*", Label: PairUnknown},
		{First: "*", Second: ParticleUnidentified, Label: PairUnknown},
		{First: "*", Second: "*", Label: "Uncorrelated"},
	}, PairUnknown)
	if err != nil {
		panic(err) // static table
	}
	return tax
}

// Classifier labels candidate pairs. It is a pure function of its
// inputs: deterministic and without shared mutable state, so one
// classifier may serve many events.
type Classifier struct {
	tax *Taxonomy
}

// NewClassifier builds a classifier over the given taxonomy; nil means
// DefaultTaxonomy.
func NewClassifier(tax *Taxonomy) *Classifier {
	if tax == nil {
		tax = DefaultTaxonomy()
	}
	return &Classifier{tax: tax}
}

// Classify returns the pair-type label and common-ancestor identifier
// for two decorated tracks. The ancestor computation is symmetric in
// the two tracks; the label lookup is order-sensitive in which
// particle-type slot each track occupies. Without a resolver (real
// data, no truth) it returns (PairUnknown, NoAncestor) rather than
// failing.
func (c *Classifier) Classify(a, b *DecoratedTrack, resolver AncestryResolver) (pairType string, ancestor int) {
	if resolver == nil {
		return PairUnknown, NoAncestor
	}
	ancestor = resolver.CommonAncestor(a, b)
	for _, r := range c.tax.rules {
		if r.matches(a.ParticleType, b.ParticleType, ancestor != NoAncestor) {
			return r.Label, ancestor
		}
	}
	return c.tax.fallback, ancestor
}

// Filter restricts processing to a whitelist of pair-type labels given
// as a comma-separated string. A nil filter or empty whitelist allows
// everything.
type Filter struct {
	selected string
}

// NewFilter builds a filter from a comma-separated whitelist; an empty
// string yields a nil filter (allow all).
func NewFilter(selected string) *Filter {
	selected = strings.TrimSpace(selected)
	if selected == "" {
		return nil
	}
	return &Filter{selected: selected}
}

// Allows reports whether the label is on the whitelist. Labels that do
// not compile as patterns fall back to literal segment comparison, so
// a malformed whitelist never aborts the event loop.
func (f *Filter) Allows(label string) bool {
	if f == nil {
		return true
	}
	re, err := regexp.Compile("(^|,)" + label + "(,|$)")
	if err == nil {
		return re.MatchString(f.selected)
	}
	for _, part := range strings.Split(f.selected, ",") {
		if strings.TrimSpace(part) == label {
			return true
		}
	}
	return false
}
