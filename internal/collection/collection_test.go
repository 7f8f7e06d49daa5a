package collection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spectro-data/dimuon.report/internal/hist"
	"github.com/spectro-data/dimuon.report/internal/monitoring"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	m.Run()
}

func counterFactory(name string) Factory {
	return func() Object { return hist.NewCounter(name) }
}

func histFactory(t *testing.T, name string) Factory {
	t.Helper()
	return func() Object {
		ax, err := hist.NewUniformAxis("pt", 10, 0, 10)
		require.NoError(t, err)
		h, err := hist.NewHistND(name, ax)
		require.NoError(t, err)
		return h
	}
}

func TestGetOrCreateIdempotent(t *testing.T) {
	c := New("dimu")
	calls := 0
	f := func() Object {
		calls++
		return hist.NewCounter("nevents")
	}

	a, err := c.GetOrCreate("/CMUL7/nocut", "nevents", f)
	require.NoError(t, err)
	b, err := c.GetOrCreate("CMUL7/nocut/", "nevents", f)
	require.NoError(t, err)

	assert.Same(t, a, b, "repeated access must return the identical instance")
	assert.Equal(t, 1, calls, "factory must run exactly once")
}

func TestLookupDoesNotCreate(t *testing.T) {
	c := New("dimu")
	_, ok := c.Lookup("/CMUL7/nocut/nevents")
	assert.False(t, ok)
	assert.Equal(t, 0, c.NumObjects())

	_, err := c.GetOrCreate("/CMUL7/nocut", "nevents", counterFactory("nevents"))
	require.NoError(t, err)
	obj, ok := c.Lookup("/CMUL7/nocut/nevents")
	assert.True(t, ok)
	assert.Equal(t, "nevents", obj.Name())
}

func TestKeysAtDepth(t *testing.T) {
	c := New("dimu")
	paths := []string{
		"/CMUL7/trackletDistCuts_none/unknown/OS",
		"/CMUL7/trackletDistCuts_1.5/unknown/OS",
		"/generated/trackletDistCuts_none/BBpair/SS",
	}
	for _, p := range paths {
		_, err := c.GetOrCreate(p, "DimuSparse", histFactory(t, "DimuSparse"))
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"CMUL7", "generated"}, c.KeysAtDepth(0))
	assert.Equal(t, []string{"trackletDistCuts_1.5", "trackletDistCuts_none"}, c.KeysAtDepth(1))
	assert.Equal(t, []string{"BBpair", "unknown"}, c.KeysAtDepth(2))
	assert.Equal(t, []string{"OS", "SS"}, c.KeysAtDepth(3))
	assert.Empty(t, c.KeysAtDepth(4))
}

func fillPair(t *testing.T, c *Collection, path string, pt float64) {
	t.Helper()
	obj, err := c.GetOrCreate(path, "DimuSparse", histFactory(t, "DimuSparse"))
	require.NoError(t, err)
	require.NoError(t, obj.(*hist.HistND).Fill([]float64{pt}, 1))
}

func TestMergeEqualsSharedFills(t *testing.T) {
	a := New("unitA")
	b := New("unitB")
	shared := New("shared")

	fillPair(t, a, "/CMUL7/nocut/unknown/OS", 1)
	fillPair(t, shared, "/CMUL7/nocut/unknown/OS", 1)
	fillPair(t, a, "/CMUL7/nocut/unknown/OS", 3)
	fillPair(t, shared, "/CMUL7/nocut/unknown/OS", 3)
	fillPair(t, b, "/CMUL7/nocut/unknown/OS", 7)
	fillPair(t, shared, "/CMUL7/nocut/unknown/OS", 7)
	// A path only unit B observed must survive the merge.
	fillPair(t, b, "/generated/nocut/BBpair/SS", 2)
	fillPair(t, shared, "/generated/nocut/BBpair/SS", 2)

	require.NoError(t, a.Merge(b))

	assert.ElementsMatch(t, shared.Paths(), a.Paths())
	for _, path := range shared.Paths() {
		want, ok := shared.Get(path, "DimuSparse")
		require.True(t, ok)
		got, ok := a.Get(path, "DimuSparse")
		require.True(t, ok)
		assert.Equal(t, want.(*hist.HistND).Entries(), got.(*hist.HistND).Entries(), "path %s", path)
		assert.Equal(t, want.(*hist.HistND).Integral(), got.(*hist.HistND).Integral(), "path %s", path)
	}

	// Merge must deep-copy: filling the merged store must not touch B.
	fillPair(t, a, "/generated/nocut/BBpair/SS", 2)
	objB, _ := b.Get("/generated/nocut/BBpair/SS", "DimuSparse")
	assert.Equal(t, int64(1), objB.(*hist.HistND).Entries())
}

func TestMergeCommutative(t *testing.T) {
	build := func(first bool) *Collection {
		x := New("x")
		y := New("y")
		fillPair(t, x, "/CMUL7/nocut/unknown/OS", 1)
		fillPair(t, y, "/CMUL7/nocut/unknown/OS", 5)
		fillPair(t, y, "/CMSL7/nocut/unknown/SS", 5)
		if first {
			require.NoError(t, x.Merge(y))
			return x
		}
		require.NoError(t, y.Merge(x))
		return y
	}
	ab := build(true)
	ba := build(false)

	assert.Equal(t, ab.Paths(), ba.Paths())
	for _, path := range ab.Paths() {
		h1, _ := ab.Get(path, "DimuSparse")
		h2, _ := ba.Get(path, "DimuSparse")
		assert.Equal(t, h1.(*hist.HistND).Integral(), h2.(*hist.HistND).Integral(), "path %s", path)
	}
}

func TestMergeKindMismatch(t *testing.T) {
	a := New("a")
	b := New("b")
	_, err := a.GetOrCreate("/p", "obj", counterFactory("obj"))
	require.NoError(t, err)
	_, err = b.GetOrCreate("/p", "obj", histFactory(t, "obj"))
	require.NoError(t, err)
	assert.Error(t, a.Merge(b))
}

func TestOwnershipTransfer(t *testing.T) {
	c := New("dimu")
	_, err := c.GetOrCreate("/p", "nevents", counterFactory("nevents"))
	require.NoError(t, err)

	c.TransferToOutputManager()
	assert.Equal(t, BorrowedByOutputManager, c.Ownership())

	_, err = c.GetOrCreate("/q", "nevents", counterFactory("nevents"))
	assert.Error(t, err)
	assert.Error(t, c.Merge(New("other")))

	// Read-only access stays valid after the transfer.
	_, ok := c.Lookup("/p/nevents")
	assert.True(t, ok)
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/a/b/c", "/a/b/c"},
		{"a/b/c", "/a/b/c"},
		{"//a//b/", "/a/b"},
		{"", "/"},
		{"/", "/"},
	}
	for _, tt := range tests {
		if got := NormalizePath(tt.in); got != tt.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEstimateBytes(t *testing.T) {
	c := New("dimu")
	assert.Equal(t, 0, c.EstimateBytes())
	_, err := c.GetOrCreate("/p", "nevents", counterFactory("nevents"))
	require.NoError(t, err)
	assert.Greater(t, c.EstimateBytes(), 0)
}
