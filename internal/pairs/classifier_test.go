package pairs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spectro-data/dimuon.report/internal/fourvec"
)

type stubTrack struct {
	p fourvec.Vec
	q float64
}

func (s stubTrack) Momentum() fourvec.Vec { return s.p }
func (s stubTrack) Charge() float64       { return s.q }

// stubResolver returns a fixed ancestor for every pair.
type stubResolver struct {
	ancestor int
}

func (r stubResolver) CommonAncestor(a, b *DecoratedTrack) int { return r.ancestor }
func (r stubResolver) History(t *DecoratedTrack) string        { return t.History }

func decorated(ptype string, label int) *DecoratedTrack {
	return &DecoratedTrack{
		Track:        stubTrack{q: 1},
		ParticleType: ptype,
		Label:        label,
	}
}

func TestClassifyNoResolver(t *testing.T) {
	c := NewClassifier(nil)
	pairType, ancestor := c.Classify(decorated(ParticleBeautyMu, 1), decorated(ParticleBeautyMu, 2), nil)
	assert.Equal(t, PairUnknown, pairType)
	assert.Equal(t, NoAncestor, ancestor)
}

func TestClassifyDefaultTaxonomy(t *testing.T) {
	c := NewClassifier(nil)
	tests := []struct {
		name     string
		first    string
		second   string
		ancestor int
		want     string
	}{
		{"beauty chain with ancestor", ParticleBeautyMu, ParticleBeautyMu, 42, "Bchain"},
		{"beauty pair without ancestor", ParticleBeautyMu, ParticleBeautyMu, NoAncestor, "BBpair"},
		{"charm chain with ancestor", ParticleCharmMu, ParticleCharmMu, 7, "Cchain"},
		{"charm pair without ancestor", ParticleCharmMu, ParticleCharmMu, NoAncestor, "CCpair"},
		{"quarkonium", ParticleQuarkoniumMu, ParticleQuarkoniumMu, 3, "Quarkonium"},
		{"order-sensitive slots BC", ParticleBeautyMu, ParticleCharmMu, NoAncestor, "BCpair"},
		{"order-sensitive slots CB", ParticleCharmMu, ParticleBeautyMu, NoAncestor, "CBpair"},
		{"decay background", ParticleDecayMu, ParticleBeautyMu, NoAncestor, "DecayBkg"},
		{"unidentified falls back", ParticleUnidentified, ParticleBeautyMu, NoAncestor, PairUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, anc := c.Classify(decorated(tt.first, 1), decorated(tt.second, 2), stubResolver{ancestor: tt.ancestor})
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ancestor, anc)
		})
	}
}

func TestClassifyDeterministic(t *testing.T) {
	c := NewClassifier(nil)
	a := decorated(ParticleBeautyMu, 1)
	b := decorated(ParticleCharmMu, 2)
	r := stubResolver{ancestor: 5}

	t1, a1 := c.Classify(a, b, r)
	for i := 0; i < 10; i++ {
		t2, a2 := c.Classify(a, b, r)
		require.Equal(t, t1, t2)
		require.Equal(t, a1, a2)
	}
}

func TestNewTaxonomyValidation(t *testing.T) {
	_, err := NewTaxonomy([]Rule{{First: "a", Second: "b", Label: ""}}, "")
	assert.Error(t, err)
	_, err = NewTaxonomy([]Rule{{First: "", Second: "b", Label: "x"}}, "")
	assert.Error(t, err)
}

func TestFilterAllows(t *testing.T) {
	tests := []struct {
		name     string
		selected string
		label    string
		want     bool
	}{
		{"empty whitelist allows all", "", "BBpair", true},
		{"single match", "BBpair", "BBpair", true},
		{"member of list", "CCpair,BBpair,Quarkonium", "BBpair", true},
		{"not in list", "CCpair,Quarkonium", "BBpair", false},
		{"no substring confusion", "BBpairX", "BBpair", false},
		{"malformed label falls back to literal", "weird(label", "weird(label", true},
		{"malformed label mismatch", "CCpair", "weird(label", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFilter(tt.selected)
			assert.Equal(t, tt.want, f.Allows(tt.label))
		})
	}
}

func TestChargeCombination(t *testing.T) {
	plus := stubTrack{q: 1}
	minus := stubTrack{q: -1}
	assert.Equal(t, "OS", ChargeCombination(plus, minus))
	assert.Equal(t, "SS", ChargeCombination(plus, plus))
	assert.Equal(t, "SS", ChargeCombination(minus, minus))
	assert.Equal(t, "SS", ChargeCombination(stubTrack{q: 0}, minus))
}

func TestSourceFromChain(t *testing.T) {
	tests := []struct {
		name  string
		chain []int
		want  string
	}{
		{"empty chain", nil, ParticleUnidentified},
		{"bare muon", []int{13}, ParticleUnidentified},
		{"beauty meson", []int{13, -511}, ParticleBeautyMu},
		{"beauty to charm chain", []int{13, 421, -511}, ParticleBeautyMu},
		{"charm meson", []int{-13, 421}, ParticleCharmMu},
		{"charm baryon", []int{13, 4122}, ParticleCharmMu},
		{"jpsi", []int{13, 443}, ParticleQuarkoniumMu},
		{"z boson", []int{13, 23}, ParticleZBosonMu},
		{"w boson", []int{-13, -24}, ParticleWBosonMu},
		{"pion decay", []int{13, 211}, ParticleDecayMu},
		{"kaon decay", []int{-13, -321}, ParticleDecayMu},
		{"punch-through hadron", []int{211}, ParticleHadron},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SourceFromChain(tt.chain))
		})
	}
}
