package lodvisitor

import (
	"testing"

	"go.uber.org/zap"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/lodbodies/internal/quadtree"
	"github.com/Faultbox/lodbodies/internal/tile"
	"github.com/Faultbox/lodbodies/internal/tileid"
	"github.com/Faultbox/lodbodies/internal/treemanager"
	"github.com/Faultbox/lodbodies/pkg/spacemath"
)

func TestFrontFacingMissesSphere(t *testing.T) {
	v := &Visitor{camPos: spacemath.Vec3{0, 0, 10}, proxyRadius: 1}
	if !v.frontFacing(spacemath.Vec3{5, 0, 0}) {
		t.Errorf("expected a point far off-axis to miss the proxy sphere")
	}
}

func TestFrontFacingOccludedBehindPlanet(t *testing.T) {
	v := &Visitor{camPos: spacemath.Vec3{0, 0, 10}, proxyRadius: 1}
	if v.frontFacing(spacemath.Vec3{0, 0, -10}) {
		t.Errorf("expected a point on the far side of the planet to be occluded")
	}
}

func TestFrontFacingUnoccludedInFront(t *testing.T) {
	v := &Visitor{camPos: spacemath.Vec3{0, 0, 10}, proxyRadius: 1}
	if !v.frontFacing(spacemath.Vec3{0, 0, 5}) {
		t.Errorf("expected a point between camera and planet to be unoccluded")
	}
}

func TestRefinementRatioIncreasesWithProximity(t *testing.T) {
	rd := &quadtree.RenderData{Bounds: spacemath.AABB{
		Min: spacemath.Vec3{-1, -1, -1},
		Max: spacemath.Vec3{1, 1, 1},
	}}
	far := &Visitor{camPos: spacemath.Vec3{0, 0, 100}, horizFov: 1, vertFov: 1, params: Params{LODFactor: 1}}
	near := &Visitor{camPos: spacemath.Vec3{0, 0, 3}, horizFov: 1, vertFov: 1, params: Params{LODFactor: 1}}

	if near.refinementRatio(rd) <= far.refinementRatio(rd) {
		t.Errorf("expected closer camera to yield a larger refinement ratio")
	}
}

type fakeLayerPool struct {
	free []int32
}

func newFakeLayerPool(capacity int32) *fakeLayerPool {
	p := &fakeLayerPool{}
	for i := capacity - 1; i >= 0; i-- {
		p.free = append(p.free, i)
	}
	return p
}

func (p *fakeLayerPool) Acquire() (int32, bool) {
	if len(p.free) == 0 {
		return -1, false
	}
	n := len(p.free) - 1
	l := p.free[n]
	p.free = p.free[:n]
	return l, true
}
func (p *fakeLayerPool) Release(layer int32) { p.free = append(p.free, layer) }
func (p *fakeLayerPool) Upload(int32, []byte) {}

type fakeElevationSource struct {
	completions []treemanager.Completion[float32]
}

func (s *fakeElevationSource) Init() error { return nil }
func (s *fakeElevationSource) Fini()       {}
func (s *fakeElevationSource) Request(ids []tileid.ID) {
	for _, id := range ids {
		s.completions = append(s.completions, treemanager.Completion[float32]{
			ID:   id,
			Tile: tile.NewElevation(id, 2, []float32{0, 0, 0, 0}),
		})
	}
}
func (s *fakeElevationSource) Poll() []treemanager.Completion[float32] {
	out := s.completions
	s.completions = nil
	return out
}

func unitBoxBounds(tileid.ID, *tile.MinMaxPyramid) [2][3]float64 {
	return [2][3]float64{{-1, -1, -1}, {1, 1, 1}}
}

func newResidentFloatManager(t *testing.T) *treemanager.Manager[float32] {
	t.Helper()
	m := treemanager.New[float32](newFakeLayerPool(64), 64, 1, func(tl *tile.Tile[float32]) []byte {
		return make([]byte, len(tl.Samples())*4)
	}, zap.NewNop())
	m.SetBoundsFn(unitBoxBounds)
	if err := m.SetSource(&fakeElevationSource{}); err != nil {
		t.Fatalf("SetSource: %v", err)
	}

	var roots []tileid.ID
	for r := 0; r < 12; r++ {
		roots = append(roots, tileid.Root(r))
	}
	m.Request(roots)
	m.SetFrameCount(0)
	m.Update()
	return m
}

func TestVisitColdStartRequestsAllRoots(t *testing.T) {
	dem := treemanager.New[float32](newFakeLayerPool(8), 64, 1, func(tl *tile.Tile[float32]) []byte {
		return make([]byte, len(tl.Samples())*4)
	}, zap.NewNop())

	v := New(dem, nil, Params{MaxLevel: 10})
	ok := v.Visit(spacemath.Mat4{}, spacemath.Mat4{}, 0)
	if ok {
		t.Fatalf("expected Visit to report false with empty trees")
	}
	if len(v.LoadDEM()) != 12 {
		t.Errorf("expected all 12 roots requested, got %d", len(v.LoadDEM()))
	}
}

func TestSetUpdateLODPanicsBeforeEnabled(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic disabling updateLOD before it was ever enabled")
		}
	}()
	v := &Visitor{}
	v.SetUpdateLOD(false)
}

func TestSetUpdateCullingPanicsBeforeEnabled(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic disabling updateCulling before it was ever enabled")
		}
	}()
	v := &Visitor{}
	v.SetUpdateCulling(false)
}

func TestNeedsRefineForcesMinLevel(t *testing.T) {
	dem := newResidentFloatManager(t)
	root := tileid.Root(0)
	idx, ok := dem.Index(root)
	if !ok {
		t.Fatalf("expected root to be resident")
	}

	v := &Visitor{dem: dem, params: Params{MinLevel: 5, MaxLevel: 10}}
	state := lodState{demIdx: idx, demRD: dem.Tree().Node(idx).RData}
	if !v.needsRefine(state) {
		t.Errorf("expected a level-0 node to force refine under minLevel=5")
	}
}

func TestVisitDrawsFrontFacingRoots(t *testing.T) {
	dem := newResidentFloatManager(t)

	v := New(dem, nil, Params{MaxLevel: 0, LODFactor: 1})
	view := mgl64.LookAtV(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 1, 0})
	proj := mgl64.Perspective(1.0, 1.0, 0.1, 1000)
	v.SetUpdateLOD(true)
	v.SetUpdateCulling(true)

	ok := v.Visit(view, proj, 1)
	if !ok {
		t.Fatalf("expected Visit to succeed once all roots are resident")
	}
	if len(v.RenderDEM()) == 0 {
		t.Errorf("expected at least one root in renderDEM")
	}
	if len(v.LoadDEM()) != 0 {
		t.Errorf("expected no further DEM loads at maxLevel=0, got %v", v.LoadDEM())
	}
}
