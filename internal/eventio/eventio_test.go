package eventio

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spectro-data/dimuon.report/internal/analysis"
	"github.com/spectro-data/dimuon.report/internal/fourvec"
	"github.com/spectro-data/dimuon.report/internal/tracklets"
)

func TestRoundTrip(t *testing.T) {
	ev := &analysis.Event{
		ID:         "run1-ev42",
		Centrality: 17.5,
		Triggers:   []string{"CMUL7", "CMSL7"},
		Tracks: []analysis.Track{
			{P: fourvec.FromPtEtaPhiM(2.0, -3.0, 0.3, 0.1057), Q: 1, Label: 4, Mother: -1},
			{P: fourvec.FromPtEtaPhiM(1.5, -3.4, 2.1, 0.1057), Q: -1, Label: -1, Mother: -1},
		},
		Truth: []analysis.Track{
			{P: fourvec.FromPtEtaPhiM(3.0, -3.2, 1.0, 3.0969), PDG: 443, Status: 11, Label: 0, Mother: -1},
		},
		Tracklets: []tracklets.Tracklet{{Phi: 0.3, Dist: 1.2}},
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Write(ev))
	require.NoError(t, w.Flush())

	r := NewReader(&buf)
	got, err := r.Next()
	require.NoError(t, err)

	assert.Equal(t, ev.ID, got.ID)
	assert.Equal(t, ev.Centrality, got.Centrality)
	assert.Equal(t, ev.Triggers, got.Triggers)
	require.Len(t, got.Tracks, 2)
	assert.InDelta(t, 2.0, got.Tracks[0].P.Pt(), 1e-9)
	assert.InDelta(t, -3.0, got.Tracks[0].P.Eta(), 1e-9)
	assert.Equal(t, 4, got.Tracks[0].Label)
	require.Len(t, got.Truth, 1)
	assert.Equal(t, 443, got.Truth[0].PDG)
	assert.Equal(t, ev.Tracklets, got.Tracklets)

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestReaderSkipsBlankLines(t *testing.T) {
	input := `{"id":"a","centrality":0,"triggers":["CMUL7"]}

{"id":"b","centrality":0,"triggers":["CMUL7"]}
`
	r := NewReader(strings.NewReader(input))

	ev, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "a", ev.ID)

	ev, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, "b", ev.ID)

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestReaderReportsLineOnError(t *testing.T) {
	input := "{\"id\":\"a\",\"triggers\":[\"CMUL7\"]}\nnot json\n"
	r := NewReader(strings.NewReader(input))

	_, err := r.Next()
	require.NoError(t, err)
	_, err = r.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}
