package tileid

import (
	"math"
	"testing"
)

func TestChildParentRoundTrip(t *testing.T) {
	p := Root(3)
	for k := 0; k < 4; k++ {
		c := ChildID(p, k)
		got, ok := ParentID(c)
		if !ok {
			t.Fatalf("expected ParentID to succeed for child %d", k)
		}
		if got != p {
			t.Errorf("child %d: expected parent %+v, got %+v", k, p, got)
		}
	}
}

func TestParentIDOfRootFails(t *testing.T) {
	_, ok := ParentID(Root(0))
	if ok {
		t.Errorf("expected ParentID(root) to report no parent")
	}
}

func TestXYRoundTrip(t *testing.T) {
	for level := 0; level <= 8; level++ {
		n := 1 << uint(level)
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				id := FromXY(level, 5, x, y)
				root, gx, gy := BaseXY(id)
				if root != 5 || gx != x || gy != y {
					t.Fatalf("level %d: FromXY(%d,%d) -> BaseXY = (%d,%d,%d)", level, x, y, root, gx, gy)
				}
			}
		}
	}
}

func TestChildXYMatchesQuadrant(t *testing.T) {
	p := FromXY(2, 0, 1, 1)
	_, px, py := BaseXY(p)
	wantOffsets := map[int][2]int{
		0: {0, 0},
		1: {1, 0},
		2: {0, 1},
		3: {1, 1},
	}
	for k := 0; k < 4; k++ {
		c := ChildID(p, k)
		_, cx, cy := BaseXY(c)
		off := wantOffsets[k]
		if cx != px*2+off[0] || cy != py*2+off[1] {
			t.Errorf("child %d: expected xy (%d,%d), got (%d,%d)", k, px*2+off[0], py*2+off[1], cx, cy)
		}
	}
}

func TestNSide(t *testing.T) {
	cases := []struct {
		level int
		want  int
	}{{0, 1}, {1, 2}, {5, 32}}
	for _, c := range cases {
		if got := NSide(ID{Level: c.level}); got != c.want {
			t.Errorf("NSide(level %d) = %d, want %d", c.level, got, c.want)
		}
	}
}

func TestCornersAverageToCentroid(t *testing.T) {
	root, x, y := 4, 3, 5
	id := FromXY(4, root, x, y)
	corners := CornersLngLat(id)

	var sum [3]float64
	for _, c := range corners {
		v := [3]float64{
			math.Cos(c.Lat) * math.Cos(c.Lng),
			math.Sin(c.Lat),
			math.Cos(c.Lat) * math.Sin(c.Lng),
		}
		sum[0] += v[0]
		sum[1] += v[1]
		sum[2] += v[2]
	}
	// The average of four unit vectors is shorter than one; compare its
	// direction.
	sum = normalize(sum)

	n := float64(NSide(id))
	center, right, up := baseBasis(root)
	cu := (float64(x)+0.5)/n*2 - 1
	cv := (float64(y)+0.5)/n*2 - 1
	want := [3]float64{
		center[0] + cu*right[0] + cv*up[0],
		center[1] + cu*right[1] + cv*up[1],
		center[2] + cu*right[2] + cv*up[2],
	}
	want = normalize(want)

	// The tangent-plane projection is not linear, so the corner average only
	// converges on the projected centre as tiles shrink: the gap falls with
	// the square of the tile size and is just under 1e-3 at level 4.
	const eps = 2e-3
	for i := range sum {
		if math.Abs(sum[i]-want[i]) > eps {
			t.Errorf("corner average %v does not match expected centroid direction %v", sum, want)
			break
		}
	}
}

func TestF1F2(t *testing.T) {
	id := FromXY(3, 0, 2, 5)
	if got, want := F1(id), 1.0/8.0; got != want {
		t.Errorf("F1 = %v, want %v", got, want)
	}
	u, v := F2(id)
	if u != 2.0/8.0 || v != 5.0/8.0 {
		t.Errorf("F2 = (%v,%v), want (0.25,0.625)", u, v)
	}
}

func TestRootBaseCentersDistinct(t *testing.T) {
	seen := map[[2]float64]bool{}
	for r := 0; r < 12; r++ {
		key := baseCenters[r]
		if seen[key] {
			t.Errorf("root %d duplicates an existing base center %v", r, key)
		}
		seen[key] = true
	}
}
