// Package fourvec provides the minimal four-momentum arithmetic the
// pair analysis needs: building vectors from detector-style
// (pt, eta, phi, m) coordinates, summing them, and reading back the
// pair kinematics.
package fourvec

import "math"

// Vec is a four-momentum in Cartesian components.
type Vec struct {
	Px float64 `json:"px"`
	Py float64 `json:"py"`
	Pz float64 `json:"pz"`
	E  float64 `json:"e"`
}

// FromPtEtaPhiM builds a four-momentum from transverse momentum,
// pseudorapidity, azimuth and mass.
func FromPtEtaPhiM(pt, eta, phi, m float64) Vec {
	px := pt * math.Cos(phi)
	py := pt * math.Sin(phi)
	pz := pt * math.Sinh(eta)
	p2 := px*px + py*py + pz*pz
	return Vec{Px: px, Py: py, Pz: pz, E: math.Sqrt(p2 + m*m)}
}

// Add returns the component-wise sum v + w.
func (v Vec) Add(w Vec) Vec {
	return Vec{Px: v.Px + w.Px, Py: v.Py + w.Py, Pz: v.Pz + w.Pz, E: v.E + w.E}
}

// Pt returns the transverse momentum.
func (v Vec) Pt() float64 {
	return math.Hypot(v.Px, v.Py)
}

// Phi returns the azimuthal angle normalized to [0, 2π).
func (v Vec) Phi() float64 {
	phi := math.Atan2(v.Py, v.Px)
	if phi < 0 {
		phi += 2 * math.Pi
	}
	return phi
}

// Eta returns the pseudorapidity. It is infinite for vectors along
// the beam axis.
func (v Vec) Eta() float64 {
	p := math.Sqrt(v.Px*v.Px + v.Py*v.Py + v.Pz*v.Pz)
	if p == v.Pz {
		return math.Inf(1)
	}
	if p == -v.Pz {
		return math.Inf(-1)
	}
	return 0.5 * math.Log((p+v.Pz)/(p-v.Pz))
}

// Rapidity returns the longitudinal rapidity y = ½·ln((E+pz)/(E−pz)).
func (v Vec) Rapidity() float64 {
	return 0.5 * math.Log((v.E+v.Pz)/(v.E-v.Pz))
}

// M returns the invariant mass. Small negative mass-squared values
// from rounding are clamped to zero.
func (v Vec) M() float64 {
	m2 := v.E*v.E - (v.Px*v.Px + v.Py*v.Py + v.Pz*v.Pz)
	if m2 < 0 {
		return 0
	}
	return math.Sqrt(m2)
}
