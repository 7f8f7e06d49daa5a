// Package finalize turns a merged accumulation store into the derived
// result set: restricted-range projections, reconstructed-over-generated
// efficiency ratios and scalar efficiencies over a mass window.
package finalize

import (
	"fmt"
	"io"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/spectro-data/dimuon.report/internal/analysis"
	"github.com/spectro-data/dimuon.report/internal/collection"
	"github.com/spectro-data/dimuon.report/internal/config"
	"github.com/spectro-data/dimuon.report/internal/hist"
	"github.com/spectro-data/dimuon.report/internal/monitoring"
)

// Options controls finalization. The zero value is not useful; build
// one with FromConfig or fill every field.
type Options struct {
	RapidityMin float64
	RapidityMax float64
	MassMin     float64
	MassMax     float64
	// GeneratedClass names the trigger branch holding the generated
	// pass. Efficiencies are only computed when it is present.
	GeneratedClass string
}

// FromConfig derives finalization options from a run configuration.
func FromConfig(cfg *config.Config) Options {
	if cfg == nil {
		cfg = config.Default()
	}
	rapMin, rapMax := cfg.GetRapidityWindow()
	massMin, massMax := cfg.GetMassWindow()
	return Options{
		RapidityMin:    rapMin,
		RapidityMax:    rapMax,
		MassMin:        massMin,
		MassMax:        massMax,
		GeneratedClass: cfg.GetGeneratedClass(),
	}
}

// ScalarEfficiency is one reconstructed-over-generated yield ratio,
// integrated over the mass window.
type ScalarEfficiency struct {
	Trigger     string
	Bucket      string
	PairType    string
	Charge      string
	Numerator   float64
	Denominator float64
	Value       float64
}

// Result holds everything finalization derives from a store.
type Result struct {
	// Projections maps projection name to the 1D histogram, one per
	// leaf and axis, rapidity range applied.
	Projections map[string]*hist.Hist1D
	// EventCounts maps trigger class to the event normalization count.
	EventCounts map[string]float64
	// Efficiencies maps projection name to the per-bin ratio of the
	// reconstructed projection over its generated counterpart.
	Efficiencies map[string]*hist.Hist1D
	// Scalars lists the mass-window yield ratios, ordered by path.
	Scalars []ScalarEfficiency
}

// Projection names carry the charge segment before the pair type,
// unlike the store path.
func projName(trig, bucket, pairType, charge string, axis int) string {
	return fmt.Sprintf("%s_%s_%s_%s_proj%d", trig, bucket, charge, pairType, axis)
}

// Run walks every leaf of the store, restricts the pair rapidity to
// the configured window and projects each axis. Leaves are probed by
// cross product of the observed path segments, so absent combinations
// are skipped silently. With a generated branch present it also
// derives efficiencies against the matching generated leaf.
func Run(coll *collection.Collection, opts Options) (*Result, error) {
	res := &Result{
		Projections:  make(map[string]*hist.Hist1D),
		EventCounts:  make(map[string]float64),
		Efficiencies: make(map[string]*hist.Hist1D),
	}

	trigs := coll.KeysAtDepth(0)
	buckets := coll.KeysAtDepth(1)
	pairTypes := coll.KeysAtDepth(2)
	charges := coll.KeysAtDepth(3)

	for _, trig := range trigs {
		if obj, ok := coll.Get("/"+trig, analysis.ObjNEvents); ok {
			res.EventCounts[trig] = obj.(*hist.Hist1D).BinContent(1)
		}
	}

	hasGenerated := false
	for _, trig := range trigs {
		if trig == opts.GeneratedClass {
			hasGenerated = true
			break
		}
	}

	for _, trig := range trigs {
		for _, bucket := range buckets {
			for _, pairType := range pairTypes {
				for _, charge := range charges {
					path := "/" + trig + "/" + bucket + "/" + pairType + "/" + charge
					obj, ok := coll.Get(path, analysis.ObjSparse)
					if !ok {
						continue
					}
					sparse := obj.(*hist.HistND).Clone(analysis.ObjSparse)
					if err := sparse.SetRange(analysis.AxisRapidity, opts.RapidityMin, opts.RapidityMax); err != nil {
						return nil, fmt.Errorf("finalize %s: %w", path, err)
					}
					for axis := 0; axis < analysis.NumAxes; axis++ {
						p, err := sparse.Project(axis)
						if err != nil {
							return nil, fmt.Errorf("finalize %s: %w", path, err)
						}
						// The rapidity window can empty individual
						// projections even when the leaf holds fills.
						if p.Entries() == 0 {
							continue
						}
						name := projName(trig, bucket, pairType, charge, axis)
						p.SetName(name)
						res.Projections[name] = p
					}
				}
			}
		}
	}

	if hasGenerated {
		if err := deriveEfficiencies(res, opts, trigs, buckets, pairTypes, charges); err != nil {
			return nil, err
		}
	}

	monitoring.Logf("[Finalize] %d projections, %d efficiency ratios, %d scalar efficiencies",
		len(res.Projections), len(res.Efficiencies), len(res.Scalars))
	return res, nil
}

func deriveEfficiencies(res *Result, opts Options, trigs, buckets, pairTypes, charges []string) error {
	for _, trig := range trigs {
		if trig == opts.GeneratedClass {
			continue
		}
		for _, bucket := range buckets {
			for _, pairType := range pairTypes {
				for _, charge := range charges {
					for axis := 0; axis < analysis.NumAxes; axis++ {
						rec := res.Projections[projName(trig, bucket, pairType, charge, axis)]
						gen := res.Projections[projName(opts.GeneratedClass, bucket, pairType, charge, axis)]
						if rec == nil || gen == nil {
							continue
						}

						if axis == analysis.AxisMass {
							num := rec.Integral(opts.MassMin, opts.MassMax)
							den := gen.Integral(opts.MassMin, opts.MassMax)
							value := 0.0
							if den != 0 {
								value = num / den
							}
							res.Scalars = append(res.Scalars, ScalarEfficiency{
								Trigger:     trig,
								Bucket:      bucket,
								PairType:    pairType,
								Charge:      charge,
								Numerator:   num,
								Denominator: den,
								Value:       value,
							})
						}

						name := projName(trig, bucket, pairType, charge, axis) + "_Efficiency"
						eff := rec.Clone(name)
						if err := eff.Divide(gen); err != nil {
							return fmt.Errorf("efficiency %s: %w", name, err)
						}
						res.Efficiencies[name] = eff
					}
				}
			}
		}
	}

	sort.Slice(res.Scalars, func(i, j int) bool {
		a, b := res.Scalars[i], res.Scalars[j]
		if a.Trigger != b.Trigger {
			return a.Trigger < b.Trigger
		}
		if a.Bucket != b.Bucket {
			return a.Bucket < b.Bucket
		}
		if a.PairType != b.PairType {
			return a.PairType < b.PairType
		}
		return a.Charge < b.Charge
	})
	return nil
}

// WriteReport writes a plain-text summary of the result.
func (r *Result) WriteReport(w io.Writer) error {
	trigs := make([]string, 0, len(r.EventCounts))
	for trig := range r.EventCounts {
		trigs = append(trigs, trig)
	}
	sort.Strings(trigs)

	fmt.Fprintf(w, "Event counts\n")
	for _, trig := range trigs {
		fmt.Fprintf(w, "  %-24s %12.0f\n", trig, r.EventCounts[trig])
	}

	fmt.Fprintf(w, "\nProjections: %d\nEfficiency ratios: %d\n", len(r.Projections), len(r.Efficiencies))

	if len(r.Scalars) == 0 {
		return nil
	}
	fmt.Fprintf(w, "\nScalar efficiencies (mass window)\n")
	values := make([]float64, 0, len(r.Scalars))
	for _, s := range r.Scalars {
		fmt.Fprintf(w, "  %s/%s/%s/%s: %.4f (%.0f / %.0f)\n",
			s.Trigger, s.Bucket, s.PairType, s.Charge, s.Value, s.Numerator, s.Denominator)
		values = append(values, s.Value)
	}
	if len(values) > 1 {
		mean, std := stat.MeanStdDev(values, nil)
		fmt.Fprintf(w, "  mean %.4f stddev %.4f over %d entries\n", mean, std, len(values))
	}
	return nil
}
