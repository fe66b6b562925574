package lodvisitor

import (
	"math"

	"github.com/Faultbox/lodbodies/internal/quadtree"
	"github.com/Faultbox/lodbodies/internal/tile"
	"github.com/Faultbox/lodbodies/internal/tileid"
)

// refineThreshold is the calibration constant from the original screen-
// space refinement heuristic: refine iff r = angle/fov*lodFactor exceeds
// this. Preserved as-is; see the design notes on hysteresis.
const refineThreshold = 10.0

// needsRefine forces refinement above the configured minimum level, and
// otherwise applies the screen-space angular criterion to the DEM box.
func (v *Visitor) needsRefine(s lodState) bool {
	level := v.dem.Tree().Node(s.demIdx).ID.Level
	if level < v.params.MinLevel {
		return true
	}
	return v.refinementRatio(s.demRD) > refineThreshold
}

func (v *Visitor) refinementRatio(rd *quadtree.RenderData) float64 {
	center := rd.Bounds.Center()
	var maxAngle float64
	for _, corner := range rd.Bounds.Corners() {
		toCorner := corner.Sub(v.camPos).Normalize()
		toCenter := center.Sub(v.camPos).Normalize()
		cosAngle := clamp(toCorner.Dot(toCenter), -1, 1)
		angle := math.Acos(cosAngle)
		if angle > maxAngle {
			maxAngle = angle
		}
	}
	fov := math.Max(v.horizFov, v.vertFov)
	if fov == 0 {
		return 0
	}
	return maxAngle / fov * v.params.LODFactor
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// handleRefine decides whether s's node descends into its four children
// or is drawn at its current level with load requests issued for
// whichever channel isn't ready.
func (v *Visitor) handleRefine(s lodState) (children [4]lodState, drawInstead bool) {
	demNode := v.dem.Tree().Node(s.demIdx)
	demOK := childrenResident(v.dem.Tree(), demNode)

	imgActiveHere := v.img != nil && s.imgIdx != quadtree.NoIndex
	imgOK := true
	var imgNode *quadtree.Node[tile.Color]
	if imgActiveHere {
		imgNode = v.img.Tree().Node(s.imgIdx)
		imgOK = childrenResident(v.img.Tree(), imgNode)
	}

	if !demOK || (v.img != nil && imgActiveHere && !imgOK) {
		if !demOK {
			emitLoadChildren(v.dem, demNode.ID, demNode.ID.Level, v.params.MaxLevel, &v.loadDEM)
		}
		if imgActiveHere && !imgOK {
			emitLoadChildren(v.img, imgNode.ID, imgNode.ID.Level, v.params.MaxLevel, &v.loadIMG)
		}
		return children, true
	}

	for k := 0; k < 4; k++ {
		childID := tileid.ChildID(demNode.ID, k)
		demChildIdx, _ := v.dem.Index(childID)
		v.dem.Touch(childID)
		children[k].demIdx = demChildIdx
		children[k].demRD = v.dem.Tree().Node(demChildIdx).RData

		if imgActiveHere {
			imgChildID := tileid.ChildID(imgNode.ID, k)
			if imgChildIdx, ok := v.img.Index(imgChildID); ok {
				v.img.Touch(imgChildID)
				children[k].imgIdx = imgChildIdx
				children[k].imgRD = v.img.Tree().Node(imgChildIdx).RData
				continue
			}
		}
		children[k].imgIdx = quadtree.NoIndex
		children[k].imgRD = s.imgRD
	}
	return children, false
}

func childrenResident[T tile.Sample](t *quadtree.Tree[T], node *quadtree.Node[T]) bool {
	for _, c := range node.Children {
		if c == quadtree.NoIndex {
			return false
		}
		if !t.Node(c).RData.Resident() {
			return false
		}
	}
	return true
}

func emitLoadChildren[T tile.Sample](view ChannelView[T], parentID tileid.ID, level, maxLevel int, loadList *[]tileid.ID) {
	if level >= maxLevel {
		return
	}
	for k := 0; k < 4; k++ {
		childID := tileid.ChildID(parentID, k)
		if _, ok := view.Index(childID); ok {
			view.Touch(childID)
		} else {
			*loadList = append(*loadList, childID)
		}
	}
}
