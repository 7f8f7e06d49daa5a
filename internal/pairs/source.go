package pairs

// Particle-type labels assigned to single tracks from their ancestry.
// The set is open-ended string data from the generator side; these are
// the labels the built-in classification produces, but a custom
// decorator may introduce others.
const (
	ParticleBeautyMu     = "BeautyMu"
	ParticleCharmMu      = "CharmMu"
	ParticleQuarkoniumMu = "QuarkoniumMu"
	ParticleWBosonMu     = "WBosonMu"
	ParticleZBosonMu     = "ZBosonMu"
	ParticleDecayMu      = "DecayMu"
	ParticleSecondaryMu  = "SecondaryMu"
	ParticleHadron       = "Hadron"
	ParticleUnidentified = "Unidentified"
)

// PDG codes consulted by the built-in source classification.
const (
	pdgZ = 23
	pdgW = 24
)

var quarkoniumPDG = map[int]bool{
	443: true, 100443: true, // J/psi, psi(2S)
	553: true, 100553: true, 200553: true, // Upsilon family
}

// SourceFromChain classifies a muon candidate from the PDG codes of
// its ancestry chain, ordered from the track itself up to the primary
// ancestor. Heavier sources win: a beauty-to-charm chain counts as
// beauty. An empty chain yields ParticleUnidentified.
func SourceFromChain(pdgs []int) string {
	if len(pdgs) == 0 {
		return ParticleUnidentified
	}

	hasBeauty, hasCharm, hasLight := false, false, false
	for _, pdg := range pdgs[1:] {
		a := abs(pdg)
		switch {
		case a == pdgZ:
			return ParticleZBosonMu
		case a == pdgW:
			return ParticleWBosonMu
		case quarkoniumPDG[a]:
			return ParticleQuarkoniumMu
		case heavyFlavor(a) == 5:
			hasBeauty = true
		case heavyFlavor(a) == 4:
			hasCharm = true
		case lightHadron(a):
			hasLight = true
		}
	}
	switch {
	case hasBeauty:
		return ParticleBeautyMu
	case hasCharm:
		return ParticleCharmMu
	case hasLight:
		return ParticleDecayMu
	}
	if abs(pdgs[0]) != 13 {
		return ParticleHadron
	}
	return ParticleUnidentified
}

// heavyFlavor returns the heavy-quark flavor digit (4 charm, 5 beauty)
// of a hadron PDG code, or 0 for anything else.
func heavyFlavor(pdg int) int {
	if pdg < 100 {
		return 0
	}
	meson := pdg / 100 % 10
	baryon := pdg / 1000 % 10
	if baryon == 4 || baryon == 5 {
		return baryon
	}
	if baryon == 0 && (meson == 4 || meson == 5) {
		return meson
	}
	return 0
}

// lightHadron reports whether pdg is a light meson whose decay feeds
// the muon background (pions and kaons).
func lightHadron(pdg int) bool {
	switch pdg {
	case 211, 321, 130, 310:
		return true
	}
	return false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
