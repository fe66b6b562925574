// Package gpu holds the GPU-facing texture array TreeManager uploads tile
// samples into. It is deliberately small: allocation bookkeeping (which
// layer is free) is ordinary Go state, and only New, Upload and Destroy
// touch an actual GL texture object.
package gpu

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Format describes the per-texel layout of one channel's texture array.
type Format struct {
	InternalFormat int32
	PixelFormat    uint32
	PixelType      uint32
}

// ElevationFormat is a single-channel float texture, used for DEM tiles.
var ElevationFormat = Format{InternalFormat: gl.R32F, PixelFormat: gl.RED, PixelType: gl.FLOAT}

// ColorFormat is an 8-bit RGB texture, used for IMG tiles.
var ColorFormat = Format{InternalFormat: gl.RGB8, PixelFormat: gl.RGB, PixelType: gl.UNSIGNED_BYTE}

// TextureArray is a fixed-capacity GL_TEXTURE_2D_ARRAY. Layers are handed
// out from a free list; TreeManager is the only caller that allocates or
// releases one, on the render thread, during update.
type TextureArray struct {
	id         uint32
	resolution int32
	capacity   int32
	format     Format
	free       []int32 // free layer indices, LIFO
}

// New creates a texture array with the given per-tile resolution and layer
// capacity, storage allocated up front via a single TexImage3D call.
func New(resolution, capacity int32, format Format) (*TextureArray, error) {
	ta := &TextureArray{resolution: resolution, capacity: capacity, format: format}

	gl.GenTextures(1, &ta.id)
	gl.BindTexture(gl.TEXTURE_2D_ARRAY, ta.id)
	gl.TexImage3D(gl.TEXTURE_2D_ARRAY, 0, format.InternalFormat, resolution, resolution, capacity,
		0, format.PixelFormat, format.PixelType, nil)
	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	if err := gl.GetError(); err != 0 {
		ta.Destroy()
		return nil, fmt.Errorf("gpu: creating texture array: gl error 0x%x", err)
	}

	ta.free = make([]int32, capacity)
	for i := range ta.free {
		ta.free[i] = capacity - 1 - int32(i)
	}
	return ta, nil
}

// Capacity returns the total number of layers.
func (ta *TextureArray) Capacity() int32 {
	return ta.capacity
}

// Available returns the number of unallocated layers.
func (ta *TextureArray) Available() int {
	return len(ta.free)
}

// Acquire pops a free layer index, or returns (-1, false) if the array is
// full - the out-of-memory case TreeManager handles by forcing an
// eviction pass.
func (ta *TextureArray) Acquire() (int32, bool) {
	if len(ta.free) == 0 {
		return -1, false
	}
	n := len(ta.free) - 1
	layer := ta.free[n]
	ta.free = ta.free[:n]
	return layer, true
}

// Release returns a layer to the free list. Callers must not touch layer
// again until it is reacquired.
func (ta *TextureArray) Release(layer int32) {
	ta.free = append(ta.free, layer)
}

// Upload writes data into the given layer. data must have
// resolution*resolution texels in the array's pixel format.
func (ta *TextureArray) Upload(layer int32, data []byte) {
	gl.BindTexture(gl.TEXTURE_2D_ARRAY, ta.id)
	gl.TexSubImage3D(gl.TEXTURE_2D_ARRAY, 0, 0, 0, layer, ta.resolution, ta.resolution, 1,
		ta.format.PixelFormat, ta.format.PixelType, gl.Ptr(data))
}

// ID returns the underlying GL texture name, for binding by the renderer.
func (ta *TextureArray) ID() uint32 {
	return ta.id
}

// Destroy releases the GL texture object.
func (ta *TextureArray) Destroy() {
	if ta.id != 0 {
		gl.DeleteTextures(1, &ta.id)
		ta.id = 0
	}
}

// SoftPool implements the same free-list allocation as TextureArray without
// ever touching a GL context: TreeManager only needs Acquire/Release/Upload,
// so a headless caller with no window - a demo binary, a data preprocessor -
// can drive the exact same residency logic in memory.
type SoftPool struct {
	free []int32
}

// NewSoftPool returns a SoftPool with capacity free layers.
func NewSoftPool(capacity int32) *SoftPool {
	p := &SoftPool{free: make([]int32, capacity)}
	for i := range p.free {
		p.free[i] = capacity - 1 - int32(i)
	}
	return p
}

// Acquire pops a free layer index, or (-1, false) if none remain.
func (p *SoftPool) Acquire() (int32, bool) {
	if len(p.free) == 0 {
		return -1, false
	}
	n := len(p.free) - 1
	layer := p.free[n]
	p.free = p.free[:n]
	return layer, true
}

// Release returns layer to the free list.
func (p *SoftPool) Release(layer int32) {
	p.free = append(p.free, layer)
}

// Upload is a no-op: there is no backing texture to write into.
func (p *SoftPool) Upload(int32, []byte) {}
