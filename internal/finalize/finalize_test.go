package finalize

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spectro-data/dimuon.report/internal/analysis"
	"github.com/spectro-data/dimuon.report/internal/collection"
	"github.com/spectro-data/dimuon.report/internal/hist"
	"github.com/spectro-data/dimuon.report/internal/monitoring"
)

func TestMain(m *testing.M) {
	restore := monitoring.Mute()
	code := m.Run()
	restore()
	os.Exit(code)
}

func makeProto(t *testing.T) *hist.HistND {
	t.Helper()
	mk := func(title string, bins int, min, max float64) hist.Axis {
		ax, err := hist.NewUniformAxis(title, bins, min, max)
		require.NoError(t, err)
		return ax
	}
	h, err := hist.NewHistND(analysis.ObjSparse,
		mk("pt", 20, 0, 20),
		mk("y", 25, -4.5, -2),
		mk("phi", 36, 0, 2*math.Pi),
		mk("mass", 150, 0, 150),
		mk("centrality", 10, 0, 100),
		mk("tracklets", 150, -0.5, 149.5),
	)
	require.NoError(t, err)
	return h
}

func fillLeaf(t *testing.T, c *collection.Collection, proto *hist.HistND, path string, n int, coords []float64) {
	t.Helper()
	obj, err := c.GetOrCreate(path, analysis.ObjSparse, func() collection.Object {
		return proto.Clone(analysis.ObjSparse)
	})
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		require.NoError(t, obj.(*hist.HistND).Fill(coords, 1))
	}
}

func addCounter(t *testing.T, c *collection.Collection, trig string, n int) {
	t.Helper()
	obj, err := c.GetOrCreate("/"+trig, analysis.ObjNEvents, func() collection.Object {
		return hist.NewCounter(analysis.ObjNEvents)
	})
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		obj.(*hist.Hist1D).Fill(1, 1)
	}
}

func TestRunProjectionsAndScalarEfficiency(t *testing.T) {
	proto := makeProto(t)
	c := collection.New("merged")
	coords := []float64{2, -3, 1, 90, 50, 5}

	addCounter(t, c, "CMUL7", 3)
	addCounter(t, c, "generated", 5)
	fillLeaf(t, c, proto, "/CMUL7/trackletDistCuts_none/Zboson/OS", 10, coords)
	fillLeaf(t, c, proto, "/generated/trackletDistCuts_none/Zboson/OS", 100, coords)

	res, err := Run(c, FromConfig(nil))
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{"CMUL7": 3, "generated": 5}, res.EventCounts)

	// Six projections per leaf, two leaves.
	assert.Len(t, res.Projections, 12)
	massProj := res.Projections["CMUL7_trackletDistCuts_none_OS_Zboson_proj3"]
	require.NotNil(t, massProj)
	assert.Equal(t, 10.0, massProj.IntegralAll())

	eff := res.Efficiencies["CMUL7_trackletDistCuts_none_OS_Zboson_proj3_Efficiency"]
	require.NotNil(t, eff)
	assert.InDelta(t, 0.1, eff.BinContent(eff.Axis().FindBin(90)), 1e-12)

	require.Len(t, res.Scalars, 1)
	s := res.Scalars[0]
	assert.Equal(t, "CMUL7", s.Trigger)
	assert.Equal(t, "Zboson", s.PairType)
	assert.InDelta(t, 10.0, s.Numerator, 1e-12)
	assert.InDelta(t, 100.0, s.Denominator, 1e-12)
	assert.InDelta(t, 0.10, s.Value, 1e-12)
}

func TestRunZeroDenominatorEfficiency(t *testing.T) {
	proto := makeProto(t)
	c := collection.New("merged")
	// Fills far below the mass window on both sides.
	coords := []float64{2, -3, 1, 3, 50, 5}

	fillLeaf(t, c, proto, "/CMUL7/trackletDistCuts_none/unknown/OS", 4, coords)
	fillLeaf(t, c, proto, "/generated/trackletDistCuts_none/unknown/OS", 8, coords)

	res, err := Run(c, FromConfig(nil))
	require.NoError(t, err)

	require.Len(t, res.Scalars, 1)
	assert.Equal(t, 0.0, res.Scalars[0].Denominator)
	assert.Equal(t, 0.0, res.Scalars[0].Value)
}

func TestRunRapidityWindowRestrictsProjections(t *testing.T) {
	proto := makeProto(t)
	c := collection.New("merged")

	fillLeaf(t, c, proto, "/CMUL7/trackletDistCuts_none/unknown/OS", 7, []float64{2, -3, 1, 90, 50, 5})
	fillLeaf(t, c, proto, "/CMUL7/trackletDistCuts_none/unknown/OS", 5, []float64{2, -4.4, 1, 90, 50, 5})

	res, err := Run(c, FromConfig(nil))
	require.NoError(t, err)

	massProj := res.Projections["CMUL7_trackletDistCuts_none_OS_unknown_proj3"]
	require.NotNil(t, massProj)
	assert.Equal(t, 7.0, massProj.IntegralAll())
}

func TestRunDropsProjectionsOutsideRapidityWindow(t *testing.T) {
	proto := makeProto(t)
	c := collection.New("merged")

	// All fills sit below the rapidity window, so the leaf has entries
	// but every projection comes out empty.
	fillLeaf(t, c, proto, "/CMUL7/trackletDistCuts_none/unknown/OS", 5, []float64{2, -4.4, 1, 90, 50, 5})

	res, err := Run(c, FromConfig(nil))
	require.NoError(t, err)
	assert.Empty(t, res.Projections)
	assert.Empty(t, res.Scalars)
}

func TestRunSkipsUnfilledLeaves(t *testing.T) {
	proto := makeProto(t)
	c := collection.New("merged")
	_, err := c.GetOrCreate("/CMUL7/trackletDistCuts_none/unknown/OS", analysis.ObjSparse, func() collection.Object {
		return proto.Clone(analysis.ObjSparse)
	})
	require.NoError(t, err)

	res, err := Run(c, FromConfig(nil))
	require.NoError(t, err)
	assert.Empty(t, res.Projections)
	assert.Empty(t, res.Scalars)
}

func TestWriteReport(t *testing.T) {
	proto := makeProto(t)
	c := collection.New("merged")
	coords := []float64{2, -3, 1, 90, 50, 5}
	addCounter(t, c, "CMUL7", 3)
	fillLeaf(t, c, proto, "/CMUL7/trackletDistCuts_none/unknown/OS", 2, coords)
	fillLeaf(t, c, proto, "/generated/trackletDistCuts_none/unknown/OS", 4, coords)

	res, err := Run(c, FromConfig(nil))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, res.WriteReport(&buf))
	out := buf.String()
	assert.Contains(t, out, "Event counts")
	assert.Contains(t, out, "CMUL7")
	assert.Contains(t, out, "0.5000")
}

func TestWriteChartsHTML(t *testing.T) {
	proto := makeProto(t)
	c := collection.New("merged")
	fillLeaf(t, c, proto, "/CMUL7/trackletDistCuts_none/unknown/OS", 2, []float64{2, -3, 1, 90, 50, 5})

	res, err := Run(c, FromConfig(nil))
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "results.html")
	require.NoError(t, res.WriteChartsHTML(file, 4))
	info, err := os.Stat(file)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestWritePlots(t *testing.T) {
	proto := makeProto(t)
	c := collection.New("merged")
	fillLeaf(t, c, proto, "/CMUL7/trackletDistCuts_none/unknown/OS", 2, []float64{2, -3, 1, 90, 50, 5})

	res, err := Run(c, FromConfig(nil))
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, res.WritePlots(dir, 2))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
