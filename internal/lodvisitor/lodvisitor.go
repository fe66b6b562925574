// Package lodvisitor implements the joint DEM/IMG quad-tree traversal that
// turns a camera and a pair of resident tile trees into load and render
// lists for one frame.
package lodvisitor

import (
	"math"

	"github.com/Faultbox/lodbodies/internal/quadtree"
	"github.com/Faultbox/lodbodies/internal/tile"
	"github.com/Faultbox/lodbodies/internal/tileid"
	"github.com/Faultbox/lodbodies/pkg/spacemath"
)

// ChannelView is the slice of TreeManager the visitor needs: read access
// to the tree, an id-to-node lookup, and the ability to reserve a node
// against eviction by touching its lastUsedFrame.
type ChannelView[T tile.Sample] interface {
	Tree() *quadtree.Tree[T]
	Index(id tileid.ID) (quadtree.Index, bool)
	Touch(id tileid.ID)
}

// Params are the LOD-affecting parameters of the planet being visited.
type Params struct {
	Radii       spacemath.Vec3
	HeightScale float64
	LODFactor   float64
	MinLevel    int
	MaxLevel    int
}

// lodState is one level of joint DEM/IMG traversal state: DEM is always
// present once pre-traverse has validated all roots; IMG is absent (index
// NoIndex, RData nil or inherited) whenever the IMG channel isn't active
// or hasn't gone as deep as DEM at this point in the tree.
type lodState struct {
	demIdx quadtree.Index
	imgIdx quadtree.Index
	demRD  *quadtree.RenderData
	imgRD  *quadtree.RenderData
}

type frame struct {
	state         lodState
	children      [4]lodState
	nextChild     int
	childrenReady bool
}

// Visitor is the stateful joint traversal. It owns a preallocated,
// bounded-depth stack so a frame's traversal performs no allocation
// beyond growing the output lists.
type Visitor struct {
	dem ChannelView[float32]
	img ChannelView[tile.Color] // nil interface value: IMG channel inactive

	params Params

	updateLOD, updateCulling           bool
	lodEverEnabled, cullingEverEnabled bool

	horizFov, vertFov float64
	cullFrustum       spacemath.Frustum
	camPos            spacemath.Vec3
	proxyRadius       float64

	loadDEM, loadIMG     []tileid.ID
	renderDEM, renderIMG []*quadtree.RenderData

	stack [32]frame
	sp    int

	frame uint64
}

// New builds a Visitor over the given DEM channel and, optionally, IMG
// channel (pass a nil ChannelView[tile.Color] for one-channel mode).
func New(dem ChannelView[float32], img ChannelView[tile.Color], params Params) *Visitor {
	return &Visitor{dem: dem, img: img, params: params}
}

// SetParams updates the planet parameters the visitor tests against.
func (v *Visitor) SetParams(p Params) {
	v.params = p
}

// SetUpdateLOD enables or disables recomputation of the LOD-affecting
// derived state (field-of-view angles). Disabling before ever having been
// enabled is a programmer error.
func (v *Visitor) SetUpdateLOD(enabled bool) {
	if !enabled && !v.lodEverEnabled {
		panic("lodvisitor: updateLOD disabled before any enabled frame")
	}
	v.updateLOD = enabled
}

// SetUpdateCulling enables or disables recomputation of the culling
// frustum, camera position, and proxy sphere radius. Disabling before
// ever having been enabled is a programmer error.
func (v *Visitor) SetUpdateCulling(enabled bool) {
	if !enabled && !v.cullingEverEnabled {
		panic("lodvisitor: updateCulling disabled before any enabled frame")
	}
	v.updateCulling = enabled
}

// Visit runs one frame of traversal. view/proj are the camera's matrices;
// frameCount is the current frame number. It returns false if any of the
// twelve base patches is missing from an attached tree, in which case the
// missing roots have been appended to the appropriate load list and no
// traversal was performed.
func (v *Visitor) Visit(view, proj spacemath.Mat4, frameCount uint64) bool {
	v.frame = frameCount
	v.loadDEM = v.loadDEM[:0]
	v.loadIMG = v.loadIMG[:0]
	v.renderDEM = v.renderDEM[:0]
	v.renderIMG = v.renderIMG[:0]

	if v.updateLOD {
		v.horizFov = spacemath.HorizontalFOV(proj)
		v.vertFov = spacemath.VerticalFOV(proj)
		v.lodEverEnabled = true
	}
	if v.updateCulling {
		mvp := proj.Mul4(view)
		v.cullFrustum = spacemath.FrustumFromMatrix(mvp)
		v.camPos = spacemath.CameraPosition(view)
		v.proxyRadius = v.computeProxyRadius()
		v.cullingEverEnabled = true
	}

	ok := true
	for root := 0; root < 12; root++ {
		if _, present := v.dem.Index(tileid.Root(root)); !present {
			v.loadDEM = append(v.loadDEM, tileid.Root(root))
			ok = false
		}
		if v.img != nil {
			if _, present := v.img.Index(tileid.Root(root)); !present {
				v.loadIMG = append(v.loadIMG, tileid.Root(root))
				ok = false
			}
		}
	}
	if !ok {
		return false
	}

	for root := 0; root < 12; root++ {
		v.visitRoot(root)
	}
	return true
}

// LoadDEM, LoadIMG, RenderDEM, RenderIMG expose the lists produced by the
// most recent Visit call. Consumers must copy or drain before the next
// Visit.
func (v *Visitor) LoadDEM() []tileid.ID              { return v.loadDEM }
func (v *Visitor) LoadIMG() []tileid.ID              { return v.loadIMG }
func (v *Visitor) RenderDEM() []*quadtree.RenderData { return v.renderDEM }
func (v *Visitor) RenderIMG() []*quadtree.RenderData { return v.renderIMG }

func (v *Visitor) computeProxyRadius() float64 {
	minRadius := math.Min(v.params.Radii[0], math.Min(v.params.Radii[1], v.params.Radii[2]))
	minHeight := math.MaxFloat64
	found := false
	for root := 0; root < 12; root++ {
		idx, ok := v.dem.Index(tileid.Root(root))
		if !ok {
			continue
		}
		mm := v.dem.Tree().Node(idx).Tile.MinMaxPyramid()
		if mm == nil {
			continue
		}
		found = true
		if h := float64(mm.Min()); h < minHeight {
			minHeight = h
		}
	}
	if !found {
		minHeight = 0
	}
	return minRadius + minHeight*v.params.HeightScale
}

func (v *Visitor) visitRoot(root int) {
	demIdx := v.dem.Tree().Root(root)
	demRD := v.dem.Tree().Node(demIdx).RData
	v.dem.Touch(tileid.Root(root))

	var imgIdx quadtree.Index = quadtree.NoIndex
	var imgRD *quadtree.RenderData
	if v.img != nil {
		imgIdx = v.img.Tree().Root(root)
		imgRD = v.img.Tree().Node(imgIdx).RData
		v.img.Touch(tileid.Root(root))
	}

	v.sp = 0
	v.push(frame{state: lodState{demIdx: demIdx, imgIdx: imgIdx, demRD: demRD, imgRD: imgRD}})
	v.drain()
}

func (v *Visitor) push(f frame) {
	v.stack[v.sp] = f
	v.sp++
}

func (v *Visitor) drain() {
	for v.sp > 0 {
		top := &v.stack[v.sp-1]

		if top.childrenReady {
			if top.nextChild < 4 {
				child := top.children[top.nextChild]
				top.nextChild++
				v.push(frame{state: child})
				continue
			}
			v.sp--
			continue
		}

		if !v.testVisible(top.state.demRD) {
			v.sp--
			continue
		}

		if v.needsRefine(top.state) {
			children, drawInstead := v.handleRefine(top.state)
			if drawInstead {
				v.drawLevel(top.state)
				v.sp--
				continue
			}
			top.children = children
			top.childrenReady = true
			continue
		}

		v.drawLevel(top.state)
		v.sp--
	}
}

func (v *Visitor) drawLevel(s lodState) {
	if s.demRD == nil {
		panic("lodvisitor: drawLevel with nil DEM render data")
	}
	v.renderDEM = append(v.renderDEM, s.demRD)
	if v.img != nil {
		if s.imgRD == nil {
			panic("lodvisitor: drawLevel with nil IMG render data in two-channel mode")
		}
		v.renderIMG = append(v.renderIMG, s.imgRD)
	}
}
