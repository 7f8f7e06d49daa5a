package analysis

import (
	"fmt"

	"github.com/spectro-data/dimuon.report/internal/collection"
	"github.com/spectro-data/dimuon.report/internal/config"
	"github.com/spectro-data/dimuon.report/internal/hist"
	"github.com/spectro-data/dimuon.report/internal/monitoring"
	"github.com/spectro-data/dimuon.report/internal/pairs"
	"github.com/spectro-data/dimuon.report/internal/tracklets"
)

// Accumulator axis indices. The order is fixed; the finalizer depends
// on it when projecting and when restricting the rapidity range.
const (
	AxisPt = iota
	AxisRapidity
	AxisPhi
	AxisMass
	AxisCentrality
	AxisTracklets
	NumAxes
)

// Store object names.
const (
	ObjSparse  = "DimuSparse"
	ObjNEvents = "nevents"
)

// Pass identifies which side of the event the loop is processing.
type Pass int

const (
	// PassReconstructed processes detector-level tracks.
	PassReconstructed Pass = iota
	// PassGenerated processes the truth block, labeled under the
	// configured generated trigger class.
	PassGenerated
)

// Task owns one processing unit's accumulation state: the collection,
// the tracklet counter, the pair classifier and the prototype
// accumulator cloned for every new leaf. One Task processes events
// strictly sequentially.
type Task struct {
	name       string
	cfg        *config.Config
	coll       *collection.Collection
	counter    *tracklets.Counter
	classifier *pairs.Classifier
	filter     *pairs.Filter
	proto      *hist.HistND

	eventCuts EventCuts
	trackCuts TrackCuts
	trigMatch PairTrigMatchFunc

	generatedClass string
	eventsSeen     int
	eventsSelected int
}

// NewTask builds a Task from the given configuration. Configuration
// errors surface here, before any event is processed.
func NewTask(name string, cfg *config.Config) (*Task, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("task %s: %w", name, err)
	}

	proto, err := buildPrototype(cfg)
	if err != nil {
		return nil, fmt.Errorf("task %s: %w", name, err)
	}
	counter, err := tracklets.NewCounter(cfg.TrackletDistCuts, cfg.GetTrackletHalfWindow())
	if err != nil {
		return nil, fmt.Errorf("task %s: %w", name, err)
	}

	t := &Task{
		name:           name,
		cfg:            cfg,
		coll:           collection.New(name),
		counter:        counter,
		classifier:     pairs.NewClassifier(nil),
		filter:         pairs.NewFilter(cfg.GetSelectedPairTypes()),
		proto:          proto,
		eventCuts:      defaultEventCuts{},
		trackCuts:      defaultTrackCuts{},
		trigMatch:      func(a, b *Track, trigClass string) bool { return true },
		generatedClass: cfg.GetGeneratedClass(),
	}

	if sel := cfg.GetSelectedPairTypes(); sel != "" {
		monitoring.Logf("[Task] %s: storing results for pair types %s", name, sel)
	} else {
		monitoring.Logf("[Task] %s: storing results for all pair types", name)
	}
	monitoring.Logf("[Task] %s: tracklet distance cuts: %v", name, counter.Cuts())
	return t, nil
}

func buildPrototype(cfg *config.Config) (*hist.HistND, error) {
	type axisDef struct {
		title string
		bins  int
		min   float64
		max   float64
	}
	defs := make([]axisDef, NumAxes)
	defs[AxisPt].title = "pt (GeV/c)"
	defs[AxisPt].bins, defs[AxisPt].min, defs[AxisPt].max = cfg.GetPtAxis()
	defs[AxisRapidity].title = "y"
	defs[AxisRapidity].bins, defs[AxisRapidity].min, defs[AxisRapidity].max = cfg.GetRapidityAxis()
	defs[AxisPhi].title = "phi (rad)"
	defs[AxisPhi].bins, defs[AxisPhi].min, defs[AxisPhi].max = cfg.GetPhiAxis()
	defs[AxisMass].title = "mass (GeV/c^2)"
	defs[AxisMass].bins, defs[AxisMass].min, defs[AxisMass].max = cfg.GetMassAxis()
	defs[AxisCentrality].title = "centrality"
	defs[AxisCentrality].bins, defs[AxisCentrality].min, defs[AxisCentrality].max = cfg.GetCentralityAxis()
	defs[AxisTracklets].title = "tracklets"
	defs[AxisTracklets].bins, defs[AxisTracklets].min, defs[AxisTracklets].max = cfg.GetTrackletAxis()

	axes := make([]hist.Axis, NumAxes)
	for i, d := range defs {
		ax, err := hist.NewUniformAxis(d.title, d.bins, d.min, d.max)
		if err != nil {
			return nil, err
		}
		axes[i] = ax
	}
	return hist.NewHistND(ObjSparse, axes...)
}

// SetEventCuts replaces the event selection. Nil restores the default.
func (t *Task) SetEventCuts(cuts EventCuts) {
	if cuts == nil {
		t.eventCuts = defaultEventCuts{}
		return
	}
	t.eventCuts = cuts
}

// SetTrackCuts replaces the reconstructed-track selection. Nil
// restores the default pass-through.
func (t *Task) SetTrackCuts(cuts TrackCuts) {
	if cuts == nil {
		t.trackCuts = defaultTrackCuts{}
		return
	}
	t.trackCuts = cuts
}

// SetPairTrigMatch replaces the trigger pt-cut matcher applied to
// reconstructed pairs. Nil restores the accept-all default.
func (t *Task) SetPairTrigMatch(f PairTrigMatchFunc) {
	if f == nil {
		t.trigMatch = func(a, b *Track, trigClass string) bool { return true }
		return
	}
	t.trigMatch = f
}

// Collection returns the task's accumulation store.
func (t *Task) Collection() *collection.Collection { return t.coll }

// Counter returns the task's tracklet counter.
func (t *Task) Counter() *tracklets.Counter { return t.counter }

// EventsSeen returns the number of events offered to Process.
func (t *Task) EventsSeen() int { return t.eventsSeen }

// EventsSelected returns the number of events passing the event cuts.
func (t *Task) EventsSelected() int { return t.eventsSelected }

// Process runs one event through the full pair loop. Events failing
// the event selection are skipped with no side effect.
func (t *Task) Process(ev *Event) error {
	t.eventsSeen++
	if !t.eventCuts.IsSelected(ev) {
		return nil
	}
	t.eventsSelected++

	passes := []Pass{PassReconstructed}
	if ev.HasTruth() {
		passes = append(passes, PassGenerated)
	}

	var resolver pairs.AncestryResolver
	if ev.HasTruth() {
		resolver = newTruthResolver(ev.Truth)
	}

	for _, pass := range passes {
		var selTrig []string
		if pass == PassReconstructed {
			selTrig = t.eventCuts.SelectedTrigClasses(ev)
		} else {
			selTrig = []string{t.generatedClass}
		}

		// The event counter is filled once per matching trigger class,
		// before any pair processing, so normalization holds even for
		// events yielding no pairs.
		for _, trig := range selTrig {
			obj, err := t.coll.GetOrCreate("/"+trig, ObjNEvents, func() collection.Object {
				return hist.NewCounter(ObjNEvents)
			})
			if err != nil {
				return err
			}
			obj.(*hist.Hist1D).Fill(1, 1)
		}

		selected := t.selectTracks(ev, pass, resolver)
		if len(selected) < 2 {
			continue
		}

		if err := t.pairLoop(ev, pass, selTrig, selected, resolver); err != nil {
			return err
		}
	}
	return nil
}

// selectTracks applies the pass-specific selection and decorates the
// survivors with their source classification and ancestry.
func (t *Task) selectTracks(ev *Event, pass Pass, resolver pairs.AncestryResolver) []*pairs.DecoratedTrack {
	tr := resolverAsTruth(resolver)
	var selected []*pairs.DecoratedTrack

	if pass == PassReconstructed {
		for i := range ev.Tracks {
			track := &ev.Tracks[i]
			if !t.trackCuts.IsSelected(track) {
				continue
			}
			selected = append(selected, t.decorate(track, track.Label, tr))
		}
		return selected
	}

	etaMin, etaMax := t.cfg.GetTruthEtaWindow()
	maxStatus := t.cfg.GetTruthMaxStatus()
	for i := range ev.Truth {
		track := &ev.Truth[i]
		// Generators leave duplicate initial-state muons on the stack
		// (status 11 and 21); only final-state entries count.
		if track.PDG != 13 && track.PDG != -13 {
			continue
		}
		if track.Status >= maxStatus {
			continue
		}
		eta := track.P.Eta()
		if eta <= etaMin || eta >= etaMax {
			continue
		}
		selected = append(selected, t.decorate(track, i, tr))
	}
	return selected
}

func resolverAsTruth(r pairs.AncestryResolver) *truthResolver {
	tr, _ := r.(*truthResolver)
	return tr
}

func (t *Task) decorate(track *Track, label int, tr *truthResolver) *pairs.DecoratedTrack {
	d := &pairs.DecoratedTrack{
		Track:        track,
		ParticleType: pairs.ParticleUnidentified,
		Label:        label,
	}
	if tr != nil {
		d.ParticleType = pairs.SourceFromChain(tr.chainPDG(label))
		d.History = tr.History(d)
	}
	return d
}

// pairLoop builds all unordered pairs of the selected tracks and
// fills the accumulators.
func (t *Task) pairLoop(ev *Event, pass Pass, selTrig []string, selected []*pairs.DecoratedTrack, resolver pairs.AncestryResolver) error {
	coords := make([]float64, NumAxes)
	coords[AxisCentrality] = ev.Centrality
	bucketNames := t.counter.BucketNames()

	for i := 0; i < len(selected); i++ {
		a := selected[i]
		trackA := a.Track.(*Track)
		for j := i + 1; j < len(selected); j++ {
			b := selected[j]
			trackB := b.Track.(*Track)

			charge := pairs.ChargeCombination(a.Track, b.Track)
			pairType, _ := t.classifier.Classify(a, b, resolver)
			if !t.filter.Allows(pairType) {
				continue
			}

			pair := a.Track.Momentum().Add(b.Track.Momentum())
			phi := pair.Phi()
			coords[AxisPt] = pair.Pt()
			coords[AxisRapidity] = pair.Rapidity()
			coords[AxisPhi] = phi
			coords[AxisMass] = pair.M()

			counts := t.counter.Count(phi, ev.Tracklets)

			for _, trig := range selTrig {
				if pass == PassReconstructed && !t.trigMatch(trackA, trackB, trig) {
					continue
				}
				for icut, bucket := range bucketNames {
					coords[AxisTracklets] = float64(counts[icut])
					path := "/" + trig + "/" + bucket + "/" + pairType + "/" + charge
					obj, err := t.coll.GetOrCreate(path, ObjSparse, func() collection.Object {
						return t.proto.Clone(ObjSparse)
					})
					if err != nil {
						return err
					}
					if err := obj.(*hist.HistND).Fill(coords, 1); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}
