package tilesource

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Faultbox/lodbodies/internal/tile"
	"github.com/Faultbox/lodbodies/internal/tileid"
)

// ElevationCodec decodes a raw payload of resolution*resolution
// little-endian float32 samples into a DEM tile.
type ElevationCodec struct {
	Resolution int
}

// Decode implements Codec[float32].
func (c ElevationCodec) Decode(id tileid.ID, raw []byte) (*tile.Tile[float32], error) {
	n := c.Resolution * c.Resolution
	if len(raw) != n*4 {
		return nil, fmt.Errorf("tilesource: elevation payload has %d bytes, want %d", len(raw), n*4)
	}
	samples := make([]float32, n)
	for i := range samples {
		bits := binary.LittleEndian.Uint32(raw[i*4:])
		samples[i] = math.Float32frombits(bits)
	}
	return tile.NewElevation(id, c.Resolution, samples), nil
}

// ColorCodec decodes a raw payload of resolution*resolution packed RGB
// triples into an IMG tile.
type ColorCodec struct {
	Resolution int
}

// Decode implements Codec[tile.Color].
func (c ColorCodec) Decode(id tileid.ID, raw []byte) (*tile.Tile[tile.Color], error) {
	n := c.Resolution * c.Resolution
	if len(raw) != n*3 {
		return nil, fmt.Errorf("tilesource: color payload has %d bytes, want %d", len(raw), n*3)
	}
	samples := make([]tile.Color, n)
	for i := range samples {
		samples[i] = tile.Color{R: raw[i*3], G: raw[i*3+1], B: raw[i*3+2]}
	}
	return tile.New(id, c.Resolution, samples), nil
}
