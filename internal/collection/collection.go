// Package collection implements the hierarchical, lazily populated,
// mergeable object store that accumulates analysis results. Objects are
// keyed by a slash-separated categorical path plus a name; independent
// processing units each own one Collection and combine them with Merge
// at the end of a run.
package collection

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spectro-data/dimuon.report/internal/hist"
	"github.com/spectro-data/dimuon.report/internal/monitoring"
)

// Object is a leaf stored in a Collection. Both histogram kinds
// implement it; merging two leaves of the same kind sums their
// contents.
type Object interface {
	Name() string
	EstimateBytes() int
}

// OwnershipMode records who is responsible for a Collection's leaves
// once the run finishes.
type OwnershipMode int

const (
	// Owned means the Collection owns its leaves (the default).
	Owned OwnershipMode = iota
	// BorrowedByOutputManager means the leaves were handed to an
	// external output manager; the Collection must no longer be
	// mutated locally.
	BorrowedByOutputManager
)

// Factory builds a leaf object on first access for a (path, name) pair.
type Factory func() Object

// Collection maps hierarchical paths to named leaf objects. It is lazy
// (leaves are built on first access), idempotent (repeated access
// returns the same instance) and mergeable. A Collection is owned by a
// single processing unit and carries no internal locking.
type Collection struct {
	name    string
	objects map[string]map[string]Object // normalized path -> object name -> leaf
	mode    OwnershipMode
}

// New creates an empty Collection with the given name.
func New(name string) *Collection {
	return &Collection{
		name:    name,
		objects: make(map[string]map[string]Object),
	}
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// Ownership returns the current ownership mode.
func (c *Collection) Ownership() OwnershipMode { return c.mode }

// TransferToOutputManager marks the collection as borrowed by an
// external output manager. After the transfer the collection must not
// be mutated locally.
func (c *Collection) TransferToOutputManager() { c.mode = BorrowedByOutputManager }

// NormalizePath canonicalizes a categorical path: single leading slash,
// no trailing slash, empty segments dropped.
func NormalizePath(path string) string {
	segs := Segments(path)
	if len(segs) == 0 {
		return "/"
	}
	return "/" + strings.Join(segs, "/")
}

// Segments splits a path into its non-empty segments.
func Segments(path string) []string {
	parts := strings.Split(path, "/")
	segs := parts[:0]
	for _, p := range parts {
		if p != "" {
			segs = append(segs, p)
		}
	}
	return segs
}

// GetOrCreate returns the leaf at (path, name), building it with
// factory on first access. The factory is invoked at most once per
// (path, name) over the collection's lifetime.
func (c *Collection) GetOrCreate(path, name string, factory Factory) (Object, error) {
	if c.mode == BorrowedByOutputManager {
		return nil, fmt.Errorf("collection %s: mutated after transfer to output manager", c.name)
	}
	p := NormalizePath(path)
	if byName, ok := c.objects[p]; ok {
		if obj, ok := byName[name]; ok {
			return obj, nil
		}
	}
	obj := factory()
	if obj == nil {
		return nil, fmt.Errorf("collection %s: factory returned nil for %s/%s", c.name, p, name)
	}
	if c.objects[p] == nil {
		c.objects[p] = make(map[string]Object)
	}
	c.objects[p][name] = obj
	monitoring.Logf("[Collection] %s: adopted %s/%s (total %.2f MB)", c.name, p, name, float64(c.EstimateBytes())/1024.0/1024.0)
	return obj, nil
}

// Lookup resolves a full path of the form "/a/b/c/name" without
// creating anything. The final segment is the object name.
func (c *Collection) Lookup(fullPath string) (Object, bool) {
	segs := Segments(fullPath)
	if len(segs) == 0 {
		return nil, false
	}
	name := segs[len(segs)-1]
	path := "/" + strings.Join(segs[:len(segs)-1], "/")
	return c.Get(path, name)
}

// Get returns the leaf at (path, name) if present.
func (c *Collection) Get(path, name string) (Object, bool) {
	byName, ok := c.objects[NormalizePath(path)]
	if !ok {
		return nil, false
	}
	obj, ok := byName[name]
	if !ok {
		monitoring.Logf("[Collection] %s: unknown object %s at %s", c.name, name, NormalizePath(path))
	}
	return obj, ok
}

// KeysAtDepth returns the sorted distinct segment values observed at
// the given zero-based depth across all registered paths. It lets the
// finalizer walk categories it did not know in advance.
func (c *Collection) KeysAtDepth(depth int) []string {
	seen := make(map[string]struct{})
	for path := range c.objects {
		segs := Segments(path)
		if depth < len(segs) {
			seen[segs[depth]] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Paths returns all registered paths, sorted.
func (c *Collection) Paths() []string {
	paths := make([]string, 0, len(c.objects))
	for p := range c.objects {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// ObjectNames returns the sorted names registered under a path.
func (c *Collection) ObjectNames(path string) []string {
	byName := c.objects[NormalizePath(path)]
	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Merge combines other into c. Leaves present in both are summed
// bin-wise; paths present only in other are deep-copied in, so c never
// aliases other's leaves. Merging is associative and commutative.
func (c *Collection) Merge(other *Collection) error {
	if c.mode == BorrowedByOutputManager {
		return fmt.Errorf("collection %s: mutated after transfer to output manager", c.name)
	}
	for path, byName := range other.objects {
		for name, theirs := range byName {
			mine, ok := c.objects[path][name]
			if !ok {
				if c.objects[path] == nil {
					c.objects[path] = make(map[string]Object)
				}
				c.objects[path][name] = cloneObject(theirs)
				continue
			}
			if err := mergeObjects(mine, theirs); err != nil {
				return fmt.Errorf("collection %s: merge %s/%s: %w", c.name, path, name, err)
			}
		}
	}
	return nil
}

func cloneObject(obj Object) Object {
	switch o := obj.(type) {
	case *hist.HistND:
		return o.Clone(o.Name())
	case *hist.Hist1D:
		return o.Clone(o.Name())
	}
	return obj
}

func mergeObjects(dst, src Object) error {
	switch d := dst.(type) {
	case *hist.HistND:
		s, ok := src.(*hist.HistND)
		if !ok {
			return fmt.Errorf("kind mismatch: %T vs %T", dst, src)
		}
		return d.Add(s)
	case *hist.Hist1D:
		s, ok := src.(*hist.Hist1D)
		if !ok {
			return fmt.Errorf("kind mismatch: %T vs %T", dst, src)
		}
		return d.Add(s)
	}
	return fmt.Errorf("unmergeable leaf kind %T", dst)
}

// EstimateBytes returns an approximate total memory footprint of all
// leaves. Advisory only, used for operational logging.
func (c *Collection) EstimateBytes() int {
	total := 0
	for _, byName := range c.objects {
		for _, obj := range byName {
			total += obj.EstimateBytes()
		}
	}
	return total
}

// NumObjects returns the number of stored leaves.
func (c *Collection) NumObjects() int {
	n := 0
	for _, byName := range c.objects {
		n += len(byName)
	}
	return n
}
