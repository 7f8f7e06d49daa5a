// Command gen-events writes a synthetic JSONL event file for testing
// the analysis chain end to end. Events carry forward muon pairs from
// a charmonium-like resonance plus combinatorial single muons, and
// optionally a matching truth block.
package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"

	"github.com/google/uuid"

	"github.com/spectro-data/dimuon.report/internal/analysis"
	"github.com/spectro-data/dimuon.report/internal/eventio"
	"github.com/spectro-data/dimuon.report/internal/fourvec"
	"github.com/spectro-data/dimuon.report/internal/tracklets"
)

const (
	muonMass   = 0.1056583755
	jpsiMass   = 3.0969
	jpsiPDG    = 443
	muonPDG    = 13
	trigSingle = "CMSL7"
	trigDimuon = "CMUL7"
)

func main() {
	n := flag.Int("n", 1000, "Number of events to generate")
	out := flag.String("out", "events.jsonl", "Output JSONL file")
	seed := flag.Int64("seed", 1, "Random seed")
	mc := flag.Bool("mc", false, "Include a truth block with ancestry")
	resonanceFrac := flag.Float64("resonance-frac", 0.3, "Fraction of events with a resonance pair")
	flag.Parse()

	f, err := os.Create(*out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create error: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	rng := rand.New(rand.NewSource(*seed))
	w := eventio.NewWriter(f)
	for i := 0; i < *n; i++ {
		ev := generate(rng, *mc, *resonanceFrac)
		if err := w.Write(ev); err != nil {
			fmt.Fprintf(os.Stderr, "write error: %v\n", err)
			os.Exit(1)
		}
	}
	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "flush error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d events to %s\n", *n, *out)
}

func forwardMuon(rng *rand.Rand, q float64) analysis.Track {
	pt := rng.ExpFloat64() * 1.5
	eta := -4.0 + 1.5*rng.Float64()
	phi := 2 * math.Pi * rng.Float64()
	return analysis.Track{
		P:      fourvec.FromPtEtaPhiM(pt, eta, phi, muonMass),
		Q:      q,
		Label:  -1,
		Mother: -1,
	}
}

// resonancePair splits a charmonium-like parent into two muons with a
// crude opening angle, enough structure to populate the mass axis
// around the parent mass.
func resonancePair(rng *rand.Rand) (analysis.Track, analysis.Track, analysis.Track) {
	pt := rng.ExpFloat64() * 2
	eta := -3.7 + 0.9*rng.Float64()
	phi := 2 * math.Pi * rng.Float64()
	parentVec := fourvec.FromPtEtaPhiM(pt, eta, phi, jpsiMass)
	parent := analysis.Track{P: parentVec, PDG: jpsiPDG, Status: 11, Mother: -1}

	split := 0.3 + 0.4*rng.Float64()
	dphi := 0.1 + 0.3*rng.Float64()
	deta := 0.05 + 0.2*rng.Float64()
	muA := analysis.Track{
		P:      fourvec.FromPtEtaPhiM(pt*split+0.5, eta+deta/2, math.Mod(phi+dphi, 2*math.Pi), muonMass),
		Q:      -1,
		PDG:    muonPDG,
		Status: 1,
	}
	muB := analysis.Track{
		P:      fourvec.FromPtEtaPhiM(pt*(1-split)+0.5, eta-deta/2, math.Mod(phi-dphi+2*math.Pi, 2*math.Pi), muonMass),
		Q:      1,
		PDG:    -muonPDG,
		Status: 1,
	}
	return parent, muA, muB
}

func generate(rng *rand.Rand, mc bool, resonanceFrac float64) *analysis.Event {
	ev := &analysis.Event{
		ID:         uuid.NewString(),
		Centrality: 100 * rng.Float64(),
	}

	hasResonance := rng.Float64() < resonanceFrac
	var muons []analysis.Track

	if hasResonance {
		parent, muA, muB := resonancePair(rng)
		if mc {
			parent.Label = 0
			muA.Label, muA.Mother = 1, 0
			muB.Label, muB.Mother = 2, 0
			ev.Truth = append(ev.Truth, parent, muA, muB)
		}
		muons = append(muons, muA, muB)
	}

	for extra := rng.Intn(3); extra > 0; extra-- {
		q := 1.0
		if rng.Intn(2) == 0 {
			q = -1
		}
		mu := forwardMuon(rng, q)
		if mc {
			mu.PDG = int(-q) * muonPDG
			mu.Status = 1
			mu.Label = len(ev.Truth)
			ev.Truth = append(ev.Truth, mu)
		}
		muons = append(muons, mu)
	}

	// Reconstruction keeps every muon here; detector inefficiency is
	// modeled by a flat 10% loss.
	for _, mu := range muons {
		if rng.Float64() < 0.1 {
			continue
		}
		reco := analysis.Track{P: mu.P, Q: mu.Q, Label: mu.Label, Mother: -1}
		if !mc {
			reco.Label = -1
		}
		ev.Tracks = append(ev.Tracks, reco)
	}

	switch {
	case len(ev.Tracks) >= 2:
		ev.Triggers = []string{trigDimuon, trigSingle}
	case len(ev.Tracks) == 1:
		ev.Triggers = []string{trigSingle}
	}

	for k := rng.Intn(20); k > 0; k-- {
		ev.Tracklets = append(ev.Tracklets, tracklets.Tracklet{
			Phi:  2 * math.Pi * rng.Float64(),
			Dist: 10 * rng.Float64(),
		})
	}
	return ev
}
