package hist

import (
	"math"
	"testing"
)

func TestNewUniformAxis(t *testing.T) {
	tests := []struct {
		name    string
		nbins   int
		min     float64
		max     float64
		wantErr bool
	}{
		{"valid axis", 100, 0, 100, false},
		{"single bin", 1, 0.5, 1.5, false},
		{"zero bins", 0, 0, 1, true},
		{"negative bins", -5, 0, 1, true},
		{"inverted range", 10, 5, 1, true},
		{"degenerate range", 10, 3, 3, true},
		{"nan bound", 10, math.NaN(), 1, true},
		{"infinite bound", 10, 0, math.Inf(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ax, err := NewUniformAxis("x", tt.nbins, tt.min, tt.max)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewUniformAxis() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if ax.Bins() != tt.nbins {
				t.Errorf("Bins() = %d, want %d", ax.Bins(), tt.nbins)
			}
			if ax.Min() != tt.min || ax.Max() != tt.max {
				t.Errorf("range = [%g,%g], want [%g,%g]", ax.Min(), ax.Max(), tt.min, tt.max)
			}
		})
	}
}

func TestNewVariableAxis(t *testing.T) {
	if _, err := NewVariableAxis("m", []float64{0, 1, 3, 10}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := NewVariableAxis("m", []float64{0, 1, 1, 10}); err == nil {
		t.Error("expected error for non-increasing edges")
	}
	if _, err := NewVariableAxis("m", []float64{5}); err == nil {
		t.Error("expected error for single edge")
	}
}

func TestAxisFindBin(t *testing.T) {
	ax, err := NewUniformAxis("pt", 10, 0, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name string
		x    float64
		want int
	}{
		{"underflow", -0.5, 0},
		{"first bin lower edge", 0, 1},
		{"inside first bin", 0.999, 1},
		{"second bin lower edge", 1, 2},
		{"middle", 5.5, 6},
		{"last bin", 9.5, 10},
		{"upper edge inclusive", 10, 10},
		{"overflow", 10.5, 11},
		{"nan routed to overflow", math.NaN(), 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ax.FindBin(tt.x); got != tt.want {
				t.Errorf("FindBin(%g) = %d, want %d", tt.x, got, tt.want)
			}
		})
	}
}

func TestAxisFindBinVariable(t *testing.T) {
	ax, err := NewVariableAxis("m", []float64{0, 1, 3, 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cases := map[float64]int{-1: 0, 0: 1, 0.9: 1, 1: 2, 2.9: 2, 3: 3, 9.9: 3, 10: 3, 11: 4}
	for x, want := range cases {
		if got := ax.FindBin(x); got != want {
			t.Errorf("FindBin(%g) = %d, want %d", x, got, want)
		}
	}
}

func TestAxisBinEdges(t *testing.T) {
	ax, err := NewUniformAxis("y", 25, -4.5, -2.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ax.BinLowEdge(1); got != -4.5 {
		t.Errorf("BinLowEdge(1) = %g, want -4.5", got)
	}
	if got := ax.BinUpEdge(25); got != -2.0 {
		t.Errorf("BinUpEdge(25) = %g, want -2.0", got)
	}
	center := ax.BinCenter(1)
	if math.Abs(center-(-4.45)) > 1e-9 {
		t.Errorf("BinCenter(1) = %g, want -4.45", center)
	}
}
