// Package config holds the analysis configuration: accumulator axis
// binning, tracklet distance cuts, the pair-type whitelist and the
// finalization windows. Configuration errors fail fast at load time,
// before any event is processed.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// AxisSpec describes one accumulator axis. Fields left nil fall back
// to the built-in defaults via the Get* accessors, so partial configs
// are safe.
type AxisSpec struct {
	Bins *int     `json:"bins,omitempty"`
	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`
}

// Config is the root analysis configuration. The zero value (all nil)
// reproduces the canonical binning of the dimuon analysis.
type Config struct {
	// Accumulator axes
	PtAxis         *AxisSpec `json:"pt_axis,omitempty"`
	RapidityAxis   *AxisSpec `json:"rapidity_axis,omitempty"`
	PhiAxis        *AxisSpec `json:"phi_axis,omitempty"`
	MassAxis       *AxisSpec `json:"mass_axis,omitempty"`
	CentralityAxis *AxisSpec `json:"centrality_axis,omitempty"`
	TrackletAxis   *AxisSpec `json:"tracklet_axis,omitempty"`

	// Pair selection
	TrackletDistCuts      []float64 `json:"tracklet_dist_cuts,omitempty"`
	TrackletHalfWindowRad *float64  `json:"tracklet_half_window_rad,omitempty"`
	SelectedPairTypes     *string   `json:"selected_pair_types,omitempty"`

	// Truth-pass track selection
	TruthMaxStatus *int     `json:"truth_max_status,omitempty"`
	TruthEtaMin    *float64 `json:"truth_eta_min,omitempty"`
	TruthEtaMax    *float64 `json:"truth_eta_max,omitempty"`

	// Finalization windows
	RapidityWindowMin *float64 `json:"rapidity_window_min,omitempty"`
	RapidityWindowMax *float64 `json:"rapidity_window_max,omitempty"`
	MassWindowMin     *float64 `json:"mass_window_min,omitempty"`
	MassWindowMax     *float64 `json:"mass_window_max,omitempty"`

	// Trigger class used for the generated pass
	GeneratedClass *string `json:"generated_class,omitempty"`
}

// Default returns a Config with all fields unset, meaning every Get*
// accessor yields its built-in default.
func Default() *Config {
	return &Config{}
}

// Load reads a Config from a JSON file. Partial configs are safe:
// omitted fields keep their defaults.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration. Any violation here would only
// surface mid-run otherwise, so it is rejected before the first event.
func (c *Config) Validate() error {
	axes := map[string]*AxisSpec{
		"pt_axis":         c.PtAxis,
		"rapidity_axis":   c.RapidityAxis,
		"phi_axis":        c.PhiAxis,
		"mass_axis":       c.MassAxis,
		"centrality_axis": c.CentralityAxis,
		"tracklet_axis":   c.TrackletAxis,
	}
	for name, spec := range axes {
		if spec == nil {
			continue
		}
		if spec.Bins != nil && *spec.Bins <= 0 {
			return fmt.Errorf("%s: bins must be positive, got %d", name, *spec.Bins)
		}
		if spec.Min != nil && spec.Max != nil && !(*spec.Min < *spec.Max) {
			return fmt.Errorf("%s: invalid range [%g,%g]", name, *spec.Min, *spec.Max)
		}
	}

	seen := make(map[float64]bool)
	for _, cut := range c.TrackletDistCuts {
		if cut <= 0 {
			return fmt.Errorf("tracklet_dist_cuts: cuts must be positive, got %g", cut)
		}
		if seen[cut] {
			return fmt.Errorf("tracklet_dist_cuts: duplicate cut %g", cut)
		}
		seen[cut] = true
	}

	if c.TrackletHalfWindowRad != nil && *c.TrackletHalfWindowRad <= 0 {
		return fmt.Errorf("tracklet_half_window_rad must be positive, got %g", *c.TrackletHalfWindowRad)
	}
	if c.MassWindowMin != nil && c.MassWindowMax != nil && !(*c.MassWindowMin < *c.MassWindowMax) {
		return fmt.Errorf("mass window: invalid range [%g,%g]", *c.MassWindowMin, *c.MassWindowMax)
	}
	if c.RapidityWindowMin != nil && c.RapidityWindowMax != nil && !(*c.RapidityWindowMin < *c.RapidityWindowMax) {
		return fmt.Errorf("rapidity window: invalid range [%g,%g]", *c.RapidityWindowMin, *c.RapidityWindowMax)
	}
	if c.TruthEtaMin != nil && c.TruthEtaMax != nil && !(*c.TruthEtaMin < *c.TruthEtaMax) {
		return fmt.Errorf("truth eta window: invalid range [%g,%g]", *c.TruthEtaMin, *c.TruthEtaMax)
	}
	return nil
}

func axisOrDefault(spec *AxisSpec, bins int, min, max float64) (int, float64, float64) {
	if spec == nil {
		return bins, min, max
	}
	if spec.Bins != nil {
		bins = *spec.Bins
	}
	if spec.Min != nil {
		min = *spec.Min
	}
	if spec.Max != nil {
		max = *spec.Max
	}
	return bins, min, max
}

// GetPtAxis returns the pt axis binning or the default 100×[0,100].
func (c *Config) GetPtAxis() (int, float64, float64) {
	return axisOrDefault(c.PtAxis, 100, 0, 100)
}

// GetRapidityAxis returns the rapidity axis binning or the default 25×[-4.5,-2].
func (c *Config) GetRapidityAxis() (int, float64, float64) {
	return axisOrDefault(c.RapidityAxis, 25, -4.5, -2.0)
}

// GetPhiAxis returns the azimuth axis binning or the default 36×[0,2π].
func (c *Config) GetPhiAxis() (int, float64, float64) {
	return axisOrDefault(c.PhiAxis, 36, 0, 2*math.Pi)
}

// GetMassAxis returns the invariant-mass axis binning or the default 750×[0,15].
func (c *Config) GetMassAxis() (int, float64, float64) {
	return axisOrDefault(c.MassAxis, 750, 0, 15)
}

// GetCentralityAxis returns the centrality axis binning or the default 10×[0,100].
func (c *Config) GetCentralityAxis() (int, float64, float64) {
	return axisOrDefault(c.CentralityAxis, 10, 0, 100)
}

// GetTrackletAxis returns the tracklet-count axis binning or the default 150×[-0.5,149.5].
func (c *Config) GetTrackletAxis() (int, float64, float64) {
	return axisOrDefault(c.TrackletAxis, 150, -0.5, 149.5)
}

// GetTrackletHalfWindow returns the azimuthal acceptance half-width or π/2.
func (c *Config) GetTrackletHalfWindow() float64 {
	if c.TrackletHalfWindowRad == nil {
		return math.Pi / 2
	}
	return *c.TrackletHalfWindowRad
}

// GetSelectedPairTypes returns the comma-separated pair-type whitelist
// or "" (all pair types).
func (c *Config) GetSelectedPairTypes() string {
	if c.SelectedPairTypes == nil {
		return ""
	}
	return *c.SelectedPairTypes
}

// GetTruthMaxStatus returns the exclusive status-code bound below which
// generated particles count as final state. Defaults to 10, rejecting
// the duplicate initial-state records some generators leave on the
// stack (status 11 and 21).
func (c *Config) GetTruthMaxStatus() int {
	if c.TruthMaxStatus == nil {
		return 10
	}
	return *c.TruthMaxStatus
}

// GetTruthEtaWindow returns the generated-pass eta acceptance,
// default (-4, -2.5).
func (c *Config) GetTruthEtaWindow() (float64, float64) {
	min, max := -4.0, -2.5
	if c.TruthEtaMin != nil {
		min = *c.TruthEtaMin
	}
	if c.TruthEtaMax != nil {
		max = *c.TruthEtaMax
	}
	return min, max
}

// GetRapidityWindow returns the finalization rapidity window,
// default (-3.999, -2.501).
func (c *Config) GetRapidityWindow() (float64, float64) {
	min, max := -3.999, -2.501
	if c.RapidityWindowMin != nil {
		min = *c.RapidityWindowMin
	}
	if c.RapidityWindowMax != nil {
		max = *c.RapidityWindowMax
	}
	return min, max
}

// GetMassWindow returns the scalar-efficiency mass window,
// default (60.001, 119.999).
func (c *Config) GetMassWindow() (float64, float64) {
	min, max := 60.001, 119.999
	if c.MassWindowMin != nil {
		min = *c.MassWindowMin
	}
	if c.MassWindowMax != nil {
		max = *c.MassWindowMax
	}
	return min, max
}

// GetGeneratedClass returns the trigger-class label used for the
// generated pass, default "generated".
func (c *Config) GetGeneratedClass() string {
	if c.GeneratedClass == nil {
		return "generated"
	}
	return *c.GeneratedClass
}
