package tile

// MinMax is the height range of one pyramid cell.
type MinMax struct {
	Min, Max float32
}

// MinMaxPyramid is a mip pyramid of elevation ranges: level 0 mirrors the
// tile's full resolution grid, and each subsequent level halves the
// dimension (rounding up) by taking the min/max of the up to four cells
// below it, ending at a
// single 1x1 cell holding the tile's overall min/max. The average is the
// plain mean of every finest-level sample, computed once at build time.
type MinMaxPyramid struct {
	levels [][]MinMax // levels[0] = finest, levels[len-1] = 1x1
	res    []int      // side length of each level, parallel to levels
	avg    float32
}

// BuildMinMaxPyramid reduces a resolution*resolution elevation grid into a
// min/max mip pyramid plus its overall average. resolution need not be a
// power of two: an odd side keeps its last row and column in the next
// level, so the top cell covers every sample.
func BuildMinMaxPyramid(samples []float32, resolution int) *MinMaxPyramid {
	p := &MinMaxPyramid{}

	finest := make([]MinMax, resolution*resolution)
	var sum float64
	for i, s := range samples {
		finest[i] = MinMax{Min: s, Max: s}
		sum += float64(s)
	}
	if len(samples) > 0 {
		p.avg = float32(sum / float64(len(samples)))
	}
	p.levels = append(p.levels, finest)
	p.res = append(p.res, resolution)

	res := resolution
	cur := finest
	for res > 1 {
		next := reduceLevel(cur, res)
		res = (res + 1) / 2
		p.levels = append(p.levels, next)
		p.res = append(p.res, res)
		cur = next
	}

	return p
}

func reduceLevel(cur []MinMax, res int) []MinMax {
	half := (res + 1) / 2
	next := make([]MinMax, half*half)
	for y := 0; y < half; y++ {
		for x := 0; x < half; x++ {
			var mm MinMax
			first := true
			for dy := 0; dy < 2; dy++ {
				for dx := 0; dx < 2; dx++ {
					sx, sy := x*2+dx, y*2+dy
					if sx >= res || sy >= res {
						continue
					}
					c := cur[sy*res+sx]
					if first {
						mm = c
						first = false
						continue
					}
					if c.Min < mm.Min {
						mm.Min = c.Min
					}
					if c.Max > mm.Max {
						mm.Max = c.Max
					}
				}
			}
			next[y*half+x] = mm
		}
	}
	return next
}

// Min returns the tile's overall minimum elevation, O(1).
func (p *MinMaxPyramid) Min() float32 {
	return p.top().Min
}

// Max returns the tile's overall maximum elevation, O(1).
func (p *MinMaxPyramid) Max() float32 {
	return p.top().Max
}

// Average returns the plain mean of every sample in the tile, O(1).
func (p *MinMaxPyramid) Average() float32 {
	return p.avg
}

func (p *MinMaxPyramid) top() MinMax {
	return p.levels[len(p.levels)-1][0]
}
