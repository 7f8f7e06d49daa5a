// Package eventio reads and writes events as JSON Lines: one JSON
// object per line, streamed, so event files of any size can be
// processed with constant memory.
package eventio

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spectro-data/dimuon.report/internal/analysis"
	"github.com/spectro-data/dimuon.report/internal/fourvec"
	"github.com/spectro-data/dimuon.report/internal/tracklets"
)

// TrackRecord is the wire form of one track. Kinematics travel as
// (pt, eta, phi, m) rather than raw four-momentum components.
type TrackRecord struct {
	Pt     float64 `json:"pt"`
	Eta    float64 `json:"eta"`
	Phi    float64 `json:"phi"`
	M      float64 `json:"m"`
	Charge float64 `json:"charge"`
	PDG    int     `json:"pdg,omitempty"`
	Status int     `json:"status,omitempty"`
	Label  int     `json:"label"`
	Mother int     `json:"mother"`
}

// TrackletRecord is the wire form of one tracklet.
type TrackletRecord struct {
	Phi  float64 `json:"phi"`
	Dist float64 `json:"dist"`
}

// EventRecord is the wire form of one event.
type EventRecord struct {
	ID         string           `json:"id"`
	Centrality float64          `json:"centrality"`
	Triggers   []string         `json:"triggers"`
	Tracks     []TrackRecord    `json:"tracks"`
	Truth      []TrackRecord    `json:"truth,omitempty"`
	Tracklets  []TrackletRecord `json:"tracklets,omitempty"`
}

func toTrack(rec TrackRecord) analysis.Track {
	return analysis.Track{
		P:      fourvec.FromPtEtaPhiM(rec.Pt, rec.Eta, rec.Phi, rec.M),
		Q:      rec.Charge,
		PDG:    rec.PDG,
		Status: rec.Status,
		Label:  rec.Label,
		Mother: rec.Mother,
	}
}

func fromTrack(t analysis.Track) TrackRecord {
	return TrackRecord{
		Pt:     t.P.Pt(),
		Eta:    t.P.Eta(),
		Phi:    t.P.Phi(),
		M:      t.P.M(),
		Charge: t.Q,
		PDG:    t.PDG,
		Status: t.Status,
		Label:  t.Label,
		Mother: t.Mother,
	}
}

// ToEvent converts a wire record into the in-memory event form.
func (rec *EventRecord) ToEvent() *analysis.Event {
	ev := &analysis.Event{
		ID:         rec.ID,
		Centrality: rec.Centrality,
		Triggers:   rec.Triggers,
	}
	for _, tr := range rec.Tracks {
		ev.Tracks = append(ev.Tracks, toTrack(tr))
	}
	for _, tr := range rec.Truth {
		ev.Truth = append(ev.Truth, toTrack(tr))
	}
	for _, tk := range rec.Tracklets {
		ev.Tracklets = append(ev.Tracklets, tracklets.Tracklet{Phi: tk.Phi, Dist: tk.Dist})
	}
	return ev
}

// FromEvent converts an in-memory event into its wire record.
func FromEvent(ev *analysis.Event) *EventRecord {
	rec := &EventRecord{
		ID:         ev.ID,
		Centrality: ev.Centrality,
		Triggers:   ev.Triggers,
	}
	for _, tr := range ev.Tracks {
		rec.Tracks = append(rec.Tracks, fromTrack(tr))
	}
	for _, tr := range ev.Truth {
		rec.Truth = append(rec.Truth, fromTrack(tr))
	}
	for _, tk := range ev.Tracklets {
		rec.Tracklets = append(rec.Tracklets, TrackletRecord{Phi: tk.Phi, Dist: tk.Dist})
	}
	return rec
}

// Reader streams events off a JSONL source. Blank lines are skipped;
// a malformed line aborts the stream with an error naming the line.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader wraps r. Lines up to 16 MB are accepted.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &Reader{scanner: sc}
}

// Next returns the next event, or io.EOF when the stream is done.
func (r *Reader) Next() (*analysis.Event, error) {
	for r.scanner.Scan() {
		r.line++
		data := r.scanner.Bytes()
		if len(data) == 0 {
			continue
		}
		var rec EventRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", r.line, err)
		}
		return rec.ToEvent(), nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// Writer streams events to a JSONL sink.
type Writer struct {
	w   *bufio.Writer
	enc *json.Encoder
}

// NewWriter wraps w. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	bw := bufio.NewWriter(w)
	return &Writer{w: bw, enc: json.NewEncoder(bw)}
}

// Write appends one event as a single line.
func (w *Writer) Write(ev *analysis.Event) error {
	return w.enc.Encode(FromEvent(ev))
}

// Flush forces buffered lines to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}
