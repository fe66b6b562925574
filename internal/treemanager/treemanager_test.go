package treemanager

import (
	"testing"

	"go.uber.org/zap"

	"github.com/Faultbox/lodbodies/internal/tile"
	"github.com/Faultbox/lodbodies/internal/tileid"
	"github.com/Faultbox/lodbodies/pkg/spacemath"
)

type fakePool struct {
	capacity int32
	free     []int32
	uploads  map[int32][]byte
}

func newFakePool(capacity int32) *fakePool {
	p := &fakePool{capacity: capacity, uploads: make(map[int32][]byte)}
	for i := capacity - 1; i >= 0; i-- {
		p.free = append(p.free, i)
	}
	return p
}

func (p *fakePool) Acquire() (int32, bool) {
	if len(p.free) == 0 {
		return -1, false
	}
	n := len(p.free) - 1
	l := p.free[n]
	p.free = p.free[:n]
	return l, true
}

func (p *fakePool) Release(layer int32) {
	delete(p.uploads, layer)
	p.free = append(p.free, layer)
}

func (p *fakePool) Upload(layer int32, data []byte) {
	p.uploads[layer] = data
}

type fakeSource struct {
	requested   []tileid.ID
	completions []Completion[float32]
}

func (s *fakeSource) Init() error { return nil }
func (s *fakeSource) Fini()       {}
func (s *fakeSource) Request(ids []tileid.ID) {
	s.requested = append(s.requested, ids...)
}
func (s *fakeSource) Poll() []Completion[float32] {
	out := s.completions
	s.completions = nil
	return out
}

func encodeElevation(t *tile.Tile[float32]) []byte {
	return make([]byte, len(t.Samples())*4)
}

func newManager(capacity int, graceK uint64) (*Manager[float32], *fakePool, *fakeSource) {
	pool := newFakePool(64)
	m := New[float32](pool, capacity, graceK, encodeElevation, zap.NewNop())
	src := &fakeSource{}
	m.SetSource(src)
	return m, pool, src
}

func TestRequestIsIdempotent(t *testing.T) {
	m, _, src := newManager(16, 2)
	root := tileid.Root(0)
	m.Request([]tileid.ID{root})
	m.Request([]tileid.ID{root})
	if len(src.requested) != 1 {
		t.Errorf("expected exactly one forwarded request, got %d", len(src.requested))
	}
}

func TestIntegrateRootBecomesResident(t *testing.T) {
	m, pool, src := newManager(16, 2)
	root := tileid.Root(0)
	m.Request([]tileid.ID{root})
	src.completions = []Completion[float32]{{ID: root, Tile: tile.NewElevation(root, 2, []float32{1, 2, 3, 4})}}

	m.SetFrameCount(1)
	m.Update()

	idx, ok := m.Index(root)
	if !ok {
		t.Fatalf("expected root to be indexed after integration")
	}
	rd := m.Tree().Node(idx).RData
	if rd == nil || !rd.Resident() {
		t.Fatalf("expected root to be resident with a texture layer")
	}
	if len(pool.uploads) != 1 {
		t.Errorf("expected exactly one GPU upload, got %d", len(pool.uploads))
	}
}

func TestPermanentFailureForgetsRequest(t *testing.T) {
	m, _, src := newManager(16, 2)
	root := tileid.Root(0)
	m.Request([]tileid.ID{root})
	src.completions = []Completion[float32]{{ID: root, Err: errPermanent}}

	m.Update()

	if _, ok := m.Index(root); ok {
		t.Errorf("expected failed tile to not be indexed")
	}
	// Re-requesting after a permanent failure should be forwarded again,
	// since the manager forgot it rather than treating it as pending.
	m.Request([]tileid.ID{root})
	if len(src.requested) != 2 {
		t.Errorf("expected the retry to be forwarded, got %d requests", len(src.requested))
	}
}

func TestEvictionProtectsInteriorNodeWithResidentDescendant(t *testing.T) {
	m, _, src := newManager(1, 1)
	root := tileid.Root(0)
	child := tileid.ChildID(root, 0)
	grandchild := tileid.ChildID(child, 0)

	src.completions = []Completion[float32]{{ID: root, Tile: tile.NewElevation(root, 2, []float32{0, 0, 0, 0})}}
	m.SetFrameCount(0)
	m.Update()

	src.completions = []Completion[float32]{{ID: child, Tile: tile.NewElevation(child, 2, []float32{0, 0, 0, 0})}}
	m.SetFrameCount(1)
	m.Update()

	src.completions = []Completion[float32]{{ID: grandchild, Tile: tile.NewElevation(grandchild, 2, []float32{0, 0, 0, 0})}}
	m.SetFrameCount(2)
	m.Update()

	// Both child and grandchild are now well past the grace window, but
	// child still has a resident descendant this pass, so only the
	// grandchild leaf goes.
	m.SetFrameCount(20)
	m.Update()

	if _, ok := m.Index(grandchild); ok {
		t.Errorf("expected stale grandchild to be evicted")
	}
	if _, ok := m.Index(child); !ok {
		t.Errorf("expected child to survive while it still has a resident descendant")
	}

	// With the grandchild gone, child has no resident descendant left and
	// becomes eligible on the next pass.
	m.Update()

	if _, ok := m.Index(child); ok {
		t.Errorf("expected child to be evicted once its descendant is gone")
	}
	if _, ok := m.Index(root); !ok {
		t.Errorf("expected root to never be evicted")
	}
}

func TestEvictionReclaimsStaleLeaves(t *testing.T) {
	m, pool, src := newManager(1, 1)
	root := tileid.Root(0)
	child := tileid.ChildID(root, 0)

	src.completions = []Completion[float32]{{ID: root, Tile: tile.NewElevation(root, 2, []float32{0, 0, 0, 0})}}
	m.SetFrameCount(0)
	m.Update()

	src.completions = []Completion[float32]{{ID: child, Tile: tile.NewElevation(child, 2, []float32{0, 0, 0, 0})}}
	m.SetFrameCount(1)
	m.Update()

	// Advance well past the grace window without touching the child again.
	m.SetFrameCount(10)
	m.Update()

	if _, ok := m.Index(child); ok {
		t.Errorf("expected stale child to be evicted")
	}
	if len(pool.uploads) != 1 {
		t.Errorf("expected only the root's layer to remain uploaded, got %d", len(pool.uploads))
	}
}

func TestReboundRecomputesBoundsFromCurrentFn(t *testing.T) {
	m, _, src := newManager(16, 2)
	root := tileid.Root(0)
	m.Request([]tileid.ID{root})
	src.completions = []Completion[float32]{{ID: root, Tile: tile.NewElevation(root, 2, []float32{1, 2, 3, 4})}}
	m.SetFrameCount(1)
	m.Update()

	idx, _ := m.Index(root)
	before := m.Tree().Node(idx).RData.Bounds

	m.SetBoundsFn(func(tileid.ID, *tile.MinMaxPyramid) [2][3]float64 {
		return [2][3]float64{{-9, -9, -9}, {9, 9, 9}}
	})
	m.Rebound()

	after := m.Tree().Node(idx).RData.Bounds
	if after == before {
		t.Errorf("expected Rebound to apply the new BoundsFn, bounds unchanged: %+v", after)
	}
	if after.Max != (spacemath.Vec3{9, 9, 9}) {
		t.Errorf("Bounds.Max = %+v, want {9 9 9}", after.Max)
	}
}

type permanentErr struct{}

func (permanentErr) Error() string { return "permanent failure" }

var errPermanent = permanentErr{}
