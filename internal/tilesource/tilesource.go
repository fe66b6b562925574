// Package tilesource holds tile-source implementations against
// treemanager.Source: an in-memory synchronous fake for tests and demos,
// plus (in the net subpackage) a websocket-backed asynchronous one. The
// actual tile-data decoding - turning a provider's raw bytes into
// samples - is out of scope here and left to a pluggable Codec.
package tilesource

import (
	"sync"

	"github.com/Faultbox/lodbodies/internal/tile"
	"github.com/Faultbox/lodbodies/internal/tileid"
	"github.com/Faultbox/lodbodies/internal/treemanager"
)

// Codec turns a provider's raw tile payload into a decoded Tile. It is the
// seam where an actual DEM/IMG format decoder would plug in; this module
// only needs the shape of the contract.
type Codec[T tile.Sample] interface {
	Decode(id tileid.ID, raw []byte) (*tile.Tile[T], error)
}

// Generator synchronously produces a Tile for an id without going through
// raw bytes at all - used by MemorySource for tests and offline demos
// where there is no real backing provider.
type Generator[T tile.Sample] func(id tileid.ID) (*tile.Tile[T], error)

// MemorySource is a treemanager.Source that resolves every request
// synchronously against a Generator, queuing the results for the next
// Poll. It never reports transient failures; Generator errors surface as
// permanent ones.
type MemorySource[T tile.Sample] struct {
	generate Generator[T]

	mu      sync.Mutex
	pending []treemanager.Completion[T]
}

// NewMemorySource builds a MemorySource backed by generate.
func NewMemorySource[T tile.Sample](generate Generator[T]) *MemorySource[T] {
	return &MemorySource[T]{generate: generate}
}

// Init satisfies treemanager.Source; MemorySource needs no setup.
func (s *MemorySource[T]) Init() error { return nil }

// Fini satisfies treemanager.Source; MemorySource has nothing to drain,
// since Request already resolved synchronously.
func (s *MemorySource[T]) Fini() {}

// Request resolves every id immediately, queuing completions for Poll.
func (s *MemorySource[T]) Request(ids []tileid.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		tl, err := s.generate(id)
		s.pending = append(s.pending, treemanager.Completion[T]{ID: id, Tile: tl, Err: err})
	}
}

// Poll drains and returns all queued completions.
func (s *MemorySource[T]) Poll() []treemanager.Completion[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.pending
	s.pending = nil
	return out
}
