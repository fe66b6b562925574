package main

import (
	"math"

	"github.com/Faultbox/lodbodies/internal/tile"
	"github.com/Faultbox/lodbodies/internal/tileid"
)

// proceduralElevation returns a Generator producing a smooth, deterministic
// height field from each sample's longitude/latitude - a few overlapping
// sine waves - so planetview has DEM data to traverse without a real tile
// server configured.
func proceduralElevation(resolution int) func(id tileid.ID) (*tile.Tile[float32], error) {
	return func(id tileid.ID) (*tile.Tile[float32], error) {
		samples := make([]float32, resolution*resolution)
		for y := 0; y < resolution; y++ {
			for x := 0; x < resolution; x++ {
				lng, lat := sampleLngLat(id, resolution, x, y)
				h := math.Sin(lng*3)*math.Cos(lat*5) + 0.5*math.Sin(lat*11)
				samples[y*resolution+x] = float32(h)
			}
		}
		return tile.NewElevation(id, resolution, samples), nil
	}
}

// proceduralColor returns a Generator producing a latitude-banded color
// field, standing in for real imagery.
func proceduralColor(resolution int) func(id tileid.ID) (*tile.Tile[tile.Color], error) {
	return func(id tileid.ID) (*tile.Tile[tile.Color], error) {
		samples := make([]tile.Color, resolution*resolution)
		for y := 0; y < resolution; y++ {
			for x := 0; x < resolution; x++ {
				_, lat := sampleLngLat(id, resolution, x, y)
				t := (lat + math.Pi/2) / math.Pi
				samples[y*resolution+x] = tile.Color{
					R: uint8(60 + 120*t),
					G: uint8(90 + 100*(1-t)),
					B: uint8(160),
				}
			}
		}
		return tile.New(id, resolution, samples), nil
	}
}

// sampleLngLat approximates the longitude/latitude of grid position (x,y)
// within tile id by bilinearly interpolating between its four sphere
// corners, which is precise enough for a procedural texture even though it
// is not the exact per-sample HEALPix projection.
func sampleLngLat(id tileid.ID, resolution, x, y int) (lng, lat float64) {
	corners := tileid.CornersLngLat(id) // N, W, S, E
	u := float64(x) / float64(resolution-1)
	v := float64(y) / float64(resolution-1)

	top := lerpLngLat(corners[1], corners[0], u)
	bottom := lerpLngLat(corners[2], corners[3], u)
	mid := lerpLngLat(top, bottom, v)
	return mid.Lng, mid.Lat
}

func lerpLngLat(a, b tileid.LngLat, t float64) tileid.LngLat {
	return tileid.LngLat{
		Lng: a.Lng + (b.Lng-a.Lng)*t,
		Lat: a.Lat + (b.Lat-a.Lat)*t,
	}
}
