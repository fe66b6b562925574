// Package treemanager bridges an async TileSource to a GPU texture array,
// owning one quad tree per data channel and enforcing a bounded residency
// budget with a recency-based eviction policy.
package treemanager

import (
	"go.uber.org/zap"

	"github.com/Faultbox/lodbodies/internal/quadtree"
	"github.com/Faultbox/lodbodies/internal/tile"
	"github.com/Faultbox/lodbodies/internal/tileid"
)

// Completion is one result of a TileSource.Poll call: either a decoded
// tile or a permanent failure for id. Transient failures are never
// reported here - the source retries those on its own.
type Completion[T tile.Sample] struct {
	ID   tileid.ID
	Tile *tile.Tile[T]
	Err  error
}

// Source is the async tile producer TreeManager drives. Implementations
// must make Request idempotent and Poll non-blocking.
type Source[T tile.Sample] interface {
	Init() error
	Fini()
	Request(ids []tileid.ID)
	Poll() []Completion[T]
}

// LayerPool is the allocation side of a GPU texture array: acquire/release
// a layer, upload sample bytes into one. gpu.TextureArray implements this;
// tests use a fake so TreeManager needs no live GL context.
type LayerPool interface {
	Acquire() (int32, bool)
	Release(layer int32)
	Upload(layer int32, data []byte)
}

// BoundsFn computes a node's model-space bounding box from its elevation
// range. Only the DEM manager needs one; the IMG manager's RenderData
// bounds are unused (visibility tests are decided by the DEM box).
type BoundsFn func(id tileid.ID, mm *tile.MinMaxPyramid) [2][3]float64

// Manager owns one quad tree, its GPU-side texture array, and the
// bookkeeping to keep the two in sync with a bounded residency budget.
type Manager[T tile.Sample] struct {
	log      *zap.Logger
	pool     LayerPool
	capacity int
	graceK   uint64
	encode   func(*tile.Tile[T]) []byte
	bounds   BoundsFn

	source  Source[T]
	tree    *quadtree.Tree[T]
	index   map[tileid.ID]quadtree.Index
	pending map[tileid.ID]bool

	frame    uint64
	resident int
}

// New builds a Manager. encode converts a tile's samples into the byte
// layout the pool's texture format expects.
func New[T tile.Sample](pool LayerPool, capacity int, graceK uint64, encode func(*tile.Tile[T]) []byte, log *zap.Logger) *Manager[T] {
	return &Manager[T]{
		log:      log,
		pool:     pool,
		capacity: capacity,
		graceK:   graceK,
		encode:   encode,
		tree:     quadtree.New[T](),
		index:    make(map[tileid.ID]quadtree.Index),
		pending:  make(map[tileid.ID]bool),
	}
}

// SetBoundsFn installs the function used to compute a node's bounding box
// at integration time and during a Rebound pass.
func (m *Manager[T]) SetBoundsFn(fn BoundsFn) {
	m.bounds = fn
}

// SetSource attaches src, tearing down any previous source and tree
// first. Passing nil detaches the current source, draining in-flight work
// and clearing the tree.
func (m *Manager[T]) SetSource(src Source[T]) error {
	if m.source != nil {
		m.source.Fini()
	}
	m.tree = quadtree.New[T]()
	m.index = make(map[tileid.ID]quadtree.Index)
	m.pending = make(map[tileid.ID]bool)
	m.resident = 0
	m.source = src
	if src == nil {
		return nil
	}
	return src.Init()
}

// SetFrameCount records the current frame number, used to timestamp
// lastUsedFrame on RenderData this manager touches.
func (m *Manager[T]) SetFrameCount(n uint64) {
	m.frame = n
}

// Tree returns the manager's quad tree.
func (m *Manager[T]) Tree() *quadtree.Tree[T] {
	return m.tree
}

// Index returns the arena index for id, if it has been integrated into the
// tree. Ids that are only requested and still in flight are not found.
func (m *Manager[T]) Index(id tileid.ID) (quadtree.Index, bool) {
	idx, ok := m.index[id]
	return idx, ok
}

// Request forwards ids not already resident or in flight to the source.
// Idempotent: repeat calls with the same ids are no-ops.
func (m *Manager[T]) Request(ids []tileid.ID) {
	if m.source == nil || len(ids) == 0 {
		return
	}
	novel := ids[:0:0]
	for _, id := range ids {
		if _, ok := m.index[id]; ok {
			continue
		}
		if m.pending[id] {
			continue
		}
		m.pending[id] = true
		novel = append(novel, id)
	}
	if len(novel) > 0 {
		m.source.Request(novel)
	}
}

// Touch stamps the lastUsedFrame of id's RenderData, if it exists. The
// visitor uses this to reserve a node against eviction while it draws or
// waits on the node's children.
func (m *Manager[T]) Touch(id tileid.ID) {
	idx, ok := m.index[id]
	if !ok {
		return
	}
	if rd := m.tree.Node(idx).RData; rd != nil {
		rd.LastUsedFrame = m.frame
	}
}

// Update polls the source for completions, integrates each into the tree
// and GPU texture array, then runs an eviction pass if the pool is over
// budget.
func (m *Manager[T]) Update() {
	if m.source == nil {
		return
	}
	for _, c := range m.source.Poll() {
		delete(m.pending, c.ID)
		if c.Err != nil {
			m.log.Debug("permanent tile failure, forgetting request",
				zap.Int("level", c.ID.Level), zap.Int("root", c.ID.Root), zap.Error(c.Err))
			continue
		}
		m.integrate(c.ID, c.Tile)
	}
	if m.resident > m.capacity {
		m.evict()
	}
}

func (m *Manager[T]) integrate(id tileid.ID, tl *tile.Tile[T]) {
	var idx quadtree.Index
	if parentID, ok := tileid.ParentID(id); ok {
		parentIdx, ok := m.index[parentID]
		if !ok {
			// Parent was evicted before this completion arrived; the
			// request is stale, discard it.
			return
		}
		idx = m.tree.InsertChild(parentIdx, childQuadrant(id), id, tl)
	} else {
		idx = m.tree.InsertRoot(id, tl)
	}

	layer, ok := m.pool.Acquire()
	if !ok {
		m.evict()
		layer, ok = m.pool.Acquire()
	}
	if !ok {
		// Still unsatisfiable: defer this tile's integration to the next
		// frame by undoing the insert and letting the caller re-request.
		m.tree.Remove(idx)
		return
	}

	m.pool.Upload(layer, m.encode(tl))

	rd := &quadtree.RenderData{TextureLayer: layer, LastUsedFrame: m.frame}
	if m.bounds != nil {
		if mm := tl.MinMaxPyramid(); mm != nil {
			corners := m.bounds(id, mm)
			rd.Bounds.Min = [3]float64(corners[0])
			rd.Bounds.Max = [3]float64(corners[1])
		}
	}
	m.tree.Node(idx).RData = rd
	m.index[id] = idx
	m.resident++
}

// Rebound recomputes RenderData.Bounds for every resident node using the
// current BoundsFn. Callers invoke this once after a parameter change that
// invalidates previously computed bounds - e.g. a new heightScale or
// ellipsoid radii - rather than on every frame.
func (m *Manager[T]) Rebound() {
	if m.bounds == nil {
		return
	}
	for id, idx := range m.index {
		n := m.tree.Node(idx)
		if n.RData == nil || n.Tile == nil {
			continue
		}
		mm := n.Tile.MinMaxPyramid()
		if mm == nil {
			continue
		}
		corners := m.bounds(id, mm)
		n.RData.Bounds.Min = [3]float64(corners[0])
		n.RData.Bounds.Max = [3]float64(corners[1])
	}
}

// childQuadrant returns which of its parent's four child slots id
// occupies.
func childQuadrant(id tileid.ID) int {
	return int(id.Patch & 3)
}

// evict walks the tree post-order, releasing any node whose lastUsedFrame
// is older than the grace window and that has no resident descendant to
// protect. Candidates are collected in one post-order walk before anything
// is removed, so a stale parent whose stale child is still resident during
// that walk is kept; a stale subtree therefore collapses one level per
// pass, the parent becoming eligible on the pass after its last child goes.
func (m *Manager[T]) evict() {
	if m.frame < m.graceK {
		return
	}
	cutoff := m.frame - m.graceK

	var victims []quadtree.Index
	m.tree.Walk(func(idx quadtree.Index) bool {
		n := m.tree.Node(idx)
		if n.Parent == quadtree.NoIndex {
			// Never evict a root that has completed its initial load.
			return true
		}
		rd := n.RData
		if rd == nil {
			return true
		}
		if rd.Flags&quadtree.FlagReserved != 0 {
			return true
		}
		if rd.LastUsedFrame >= cutoff {
			return true
		}
		if m.tree.HasResidentDescendant(idx) {
			// A descendant is still resident; keep this node as its
			// ancestor even though it is itself stale.
			return true
		}
		victims = append(victims, idx)
		return true
	})

	for _, idx := range victims {
		if !m.tree.IsLeaf(idx) {
			// A sibling branch under idx survived this pass; idx becomes
			// eligible again once it does too.
			continue
		}
		n := m.tree.Node(idx)
		if n.RData != nil && n.RData.Resident() {
			m.pool.Release(n.RData.TextureLayer)
			m.resident--
		}
		delete(m.index, n.ID)
		m.tree.Remove(idx)
	}
}
