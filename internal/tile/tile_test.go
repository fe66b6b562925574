package tile

import (
	"testing"

	"github.com/Faultbox/lodbodies/internal/tileid"
)

func TestNewPanicsOnSizeMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic on mismatched sample count")
		}
	}()
	New[float32](tileid.Root(0), 4, make([]float32, 3))
}

func TestAtIndexesRowMajor(t *testing.T) {
	samples := []float32{0, 1, 2, 3}
	tl := New(tileid.Root(0), 2, samples)
	if got := tl.At(1, 0); got != 1 {
		t.Errorf("At(1,0) = %v, want 1", got)
	}
	if got := tl.At(0, 1); got != 2 {
		t.Errorf("At(0,1) = %v, want 2", got)
	}
}

func TestColorTileHasNoPyramid(t *testing.T) {
	samples := make([]Color, 4)
	tl := New(tileid.Root(0), 2, samples)
	if tl.MinMaxPyramid() != nil {
		t.Errorf("expected nil pyramid for color tile")
	}
}

func TestElevationTileBuildsPyramid(t *testing.T) {
	tl := NewElevation(tileid.Root(0), 2, []float32{1, 2, 3, 4})
	p := tl.MinMaxPyramid()
	if p == nil {
		t.Fatalf("expected non-nil pyramid for elevation tile")
	}
	if p.Min() != 1 {
		t.Errorf("Min() = %v, want 1", p.Min())
	}
	if p.Max() != 4 {
		t.Errorf("Max() = %v, want 4", p.Max())
	}
	if p.Average() != 2.5 {
		t.Errorf("Average() = %v, want 2.5", p.Average())
	}
}
