// Package quadtree holds the arena-backed tree of TileNodes TreeManager
// operates on. Nodes live in a flat slice; a parent link is an index into
// that slice rather than a pointer, matching the "downward links are
// strong, upward links are indices" rule for the back-reference.
package quadtree

import (
	"github.com/Faultbox/lodbodies/internal/tile"
	"github.com/Faultbox/lodbodies/internal/tileid"
	"github.com/Faultbox/lodbodies/pkg/spacemath"
)

// Index names a node's slot in a Tree's arena. NoIndex means "absent".
type Index int32

// NoIndex is the sentinel for an absent node reference.
const NoIndex Index = -1

// FlagReserved marks a node as reserved for an in-flight child load,
// exempting it from the eviction pass even if its lastUsedFrame is stale.
const FlagReserved uint32 = 1 << 0

// RenderData is the per-node residency metadata mutated by TreeManager and
// LODVisitor: bounding box, recency timestamp, GPU layer, and flags.
type RenderData struct {
	Bounds        spacemath.AABB
	LastUsedFrame uint64
	TextureLayer  int32 // -1 until resident
	Flags         uint32
}

// Resident reports whether the node's samples are currently uploaded.
func (rd *RenderData) Resident() bool {
	return rd != nil && rd.TextureLayer >= 0
}

// Node is one tile in the quad tree: its id, an index back to its parent,
// exactly four child slots, and the tile payload it exclusively owns.
type Node[T tile.Sample] struct {
	ID       tileid.ID
	Parent   Index
	Children [4]Index
	Tile     *tile.Tile[T]
	RData    *RenderData
}

func emptyNode[T tile.Sample](id tileid.ID, parent Index, tl *tile.Tile[T]) Node[T] {
	return Node[T]{
		ID:       id,
		Parent:   parent,
		Children: [4]Index{NoIndex, NoIndex, NoIndex, NoIndex},
		Tile:     tl,
	}
}

// Tree is one channel's quad tree: twelve independent roots, one per
// HEALPix base patch, with interior nodes owned by their parents.
type Tree[T tile.Sample] struct {
	nodes []Node[T]
	free  []Index
	roots [12]Index
}

// New returns an empty tree with all twelve roots absent.
func New[T tile.Sample]() *Tree[T] {
	t := &Tree[T]{}
	for i := range t.roots {
		t.roots[i] = NoIndex
	}
	return t
}

// Root returns the arena index of base patch root, or NoIndex if it has
// not been integrated yet.
func (t *Tree[T]) Root(root int) Index {
	return t.roots[root]
}

// Node returns a pointer to the node at idx. idx must be valid.
func (t *Tree[T]) Node(idx Index) *Node[T] {
	return &t.nodes[idx]
}

func (t *Tree[T]) alloc(n Node[T]) Index {
	if k := len(t.free); k > 0 {
		idx := t.free[k-1]
		t.free = t.free[:k-1]
		t.nodes[idx] = n
		return idx
	}
	t.nodes = append(t.nodes, n)
	return Index(len(t.nodes) - 1)
}

// InsertRoot creates base patch root's node. root must not already exist.
func (t *Tree[T]) InsertRoot(id tileid.ID, tl *tile.Tile[T]) Index {
	idx := t.alloc(emptyNode(id, NoIndex, tl))
	t.roots[id.Root] = idx
	return idx
}

// InsertChild creates the k-th child of parent (k in [0,3]).
func (t *Tree[T]) InsertChild(parent Index, k int, id tileid.ID, tl *tile.Tile[T]) Index {
	idx := t.alloc(emptyNode(id, parent, tl))
	t.nodes[parent].Children[k] = idx
	return idx
}

// Remove detaches idx from its parent (or its root slot) and frees the
// arena slot for reuse. idx must have no remaining children.
func (t *Tree[T]) Remove(idx Index) {
	n := &t.nodes[idx]
	if n.Parent == NoIndex {
		t.roots[n.ID.Root] = NoIndex
	} else {
		p := &t.nodes[n.Parent]
		for i, c := range p.Children {
			if c == idx {
				p.Children[i] = NoIndex
			}
		}
	}
	t.nodes[idx] = Node[T]{Parent: NoIndex, Children: [4]Index{NoIndex, NoIndex, NoIndex, NoIndex}}
	t.free = append(t.free, idx)
}

// HasResidentDescendant reports whether any node below idx (exclusive) is
// currently resident, the guard eviction uses to retain interior nodes.
func (t *Tree[T]) HasResidentDescendant(idx Index) bool {
	n := &t.nodes[idx]
	for _, c := range n.Children {
		if c == NoIndex {
			continue
		}
		cn := &t.nodes[c]
		if cn.RData.Resident() {
			return true
		}
		if t.HasResidentDescendant(c) {
			return true
		}
	}
	return false
}

// IsLeaf reports whether idx has no children.
func (t *Tree[T]) IsLeaf(idx Index) bool {
	n := &t.nodes[idx]
	for _, c := range n.Children {
		if c != NoIndex {
			return false
		}
	}
	return true
}

// Walk calls fn for every live node reachable from any root, post-order
// (children before their parent). fn returning false stops the walk.
func (t *Tree[T]) Walk(fn func(idx Index) bool) {
	for _, r := range t.roots {
		if r != NoIndex {
			if !t.walk(r, fn) {
				return
			}
		}
	}
}

func (t *Tree[T]) walk(idx Index, fn func(idx Index) bool) bool {
	n := &t.nodes[idx]
	for _, c := range n.Children {
		if c != NoIndex {
			if !t.walk(c, fn) {
				return false
			}
		}
	}
	return fn(idx)
}
