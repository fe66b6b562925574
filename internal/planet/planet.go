// Package planet orchestrates one body's DEM/IMG tree managers and LOD
// visitor into the per-frame sequence VistaPlanet::draw follows: refresh
// invalidated bounds, integrate newly loaded tiles and evict stale ones,
// traverse for the current camera, forward load requests, then hand the
// render lists to a caller-supplied renderer.
package planet

import (
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/lodbodies/internal/diagnostics"
	"github.com/Faultbox/lodbodies/internal/lodvisitor"
	"github.com/Faultbox/lodbodies/internal/quadtree"
	"github.com/Faultbox/lodbodies/internal/tile"
	"github.com/Faultbox/lodbodies/internal/treemanager"
	"github.com/Faultbox/lodbodies/pkg/spacemath"
)

// boundsReason is a bit in the invalid-bounds set: each reason is cleared
// independently once the phase that consumes it runs, rather than a single
// process-wide "dirty" flag that every setter and every consumer has to
// agree on the meaning of.
type boundsReason uint32

const (
	boundsReasonRadii boundsReason = 1 << iota
	boundsReasonHeightScale
)

// Params mirrors lodvisitor.Params: the LOD-affecting configuration a
// caller can change at runtime.
type Params = lodvisitor.Params

// Renderer is the drawing backend Planet hands its per-frame render lists
// to. It knows nothing about tiles or quad trees, only render data.
type Renderer interface {
	Draw(dem, img []*quadtree.RenderData)
}

// Planet ties together one DEM tree manager, one optional IMG tree
// manager, the LOD visitor over them, and periodic diagnostics. The
// elevation channel is always float32 samples and the imagery channel is
// always tile.Color, so both managers use concrete types rather than a
// generic Planet[T] - there is exactly one meaningful instantiation.
type Planet struct {
	log *zap.Logger

	dem *treemanager.Manager[float32]
	img *treemanager.Manager[tile.Color] // nil in one-channel mode

	visitor *lodvisitor.Visitor
	stats   *diagnostics.Stats

	params        Params
	boundsInvalid boundsReason

	frame uint64
}

// New builds a Planet. img may be nil for one-channel mode.
func New(log *zap.Logger, dem *treemanager.Manager[float32], img *treemanager.Manager[tile.Color], visitor *lodvisitor.Visitor, params Params) *Planet {
	dem.SetBoundsFn(BoundsForTile(params.Radii, params.HeightScale))
	return &Planet{
		log:     log,
		dem:     dem,
		img:     img,
		visitor: visitor,
		stats:   diagnostics.New(log),
		params:  params,
	}
}

// SetRadii updates the ellipsoid radii used for bounding boxes and horizon
// culling, invalidating cached bounds so the next Frame call recomputes
// them.
func (p *Planet) SetRadii(radii spacemath.Vec3) {
	p.params.Radii = radii
	p.boundsInvalid |= boundsReasonRadii
	p.visitor.SetParams(p.params)
}

// SetHeightScale updates the DEM height exaggeration factor, also
// invalidating bounds since a tile's elevated corners depend on it.
func (p *Planet) SetHeightScale(scale float64) {
	p.params.HeightScale = scale
	p.boundsInvalid |= boundsReasonHeightScale
	p.visitor.SetParams(p.params)
}

// SetLODFactor updates the screen-space refinement aggressiveness.
func (p *Planet) SetLODFactor(f float64) {
	p.params.LODFactor = f
	p.visitor.SetParams(p.params)
}

// SetLevelRange updates the minimum and maximum quad-tree depth.
func (p *Planet) SetLevelRange(min, max int) {
	p.params.MinLevel = min
	p.params.MaxLevel = max
	p.visitor.SetParams(p.params)
}

// Params returns the planet's current LOD parameters.
func (p *Planet) Params() Params { return p.params }

// updateBounds re-derives the DEM manager's BoundsFn from the current
// radii/heightScale and reruns it over every resident node, then clears
// whichever reasons triggered it. IMG nodes never carry their own bounds -
// visibility is decided entirely from the DEM box - so only dem.Rebound is
// needed.
func (p *Planet) updateBounds() {
	if p.boundsInvalid == 0 {
		return
	}
	p.dem.SetBoundsFn(BoundsForTile(p.params.Radii, p.params.HeightScale))
	p.dem.Rebound()
	p.boundsInvalid = 0
}

// Frame runs one full update/traverse/render cycle: refresh bounds if
// invalidated, integrate completions and evict stale tiles for both
// channels, traverse for the given camera, forward any resulting load
// requests, record diagnostics, and hand the render lists to r.
func (p *Planet) Frame(now time.Time, view, proj spacemath.Mat4, r Renderer) {
	p.frame++

	p.updateBounds()

	p.dem.SetFrameCount(p.frame)
	p.dem.Update()
	if p.img != nil {
		p.img.SetFrameCount(p.frame)
		p.img.Update()
	}

	p.visitor.Visit(view, proj, p.frame)

	if loadDEM := p.visitor.LoadDEM(); len(loadDEM) > 0 {
		p.dem.Request(loadDEM)
	}
	if p.img != nil {
		if loadIMG := p.visitor.LoadIMG(); len(loadIMG) > 0 {
			p.img.Request(loadIMG)
		}
	}

	renderDEM := p.visitor.RenderDEM()
	renderIMG := p.visitor.RenderIMG()
	p.stats.Record(now, len(renderDEM), len(p.visitor.LoadDEM())+len(p.visitor.LoadIMG()))

	r.Draw(renderDEM, renderIMG)
}
