package diagnostics

import (
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestMaxCountsTrackLifetimePeak(t *testing.T) {
	s := New(zaptest.NewLogger(t))
	base := time.Unix(0, 0)

	s.Record(base, 3, 1)
	s.Record(base.Add(16*time.Millisecond), 7, 12)
	s.Record(base.Add(32*time.Millisecond), 2, 0)

	if s.MaxDrawTiles() != 7 {
		t.Errorf("MaxDrawTiles() = %d, want 7", s.MaxDrawTiles())
	}
	if s.MaxLoadTiles() != 12 {
		t.Errorf("MaxLoadTiles() = %d, want 12", s.MaxLoadTiles())
	}
}

func TestWindowResetsAfterReportInterval(t *testing.T) {
	s := New(zaptest.NewLogger(t))
	base := time.Unix(0, 0)

	for i := 0; i < reportInterval; i++ {
		s.Record(base.Add(time.Duration(i)*16*time.Millisecond), 5, 5)
	}
	if s.frames != 0 {
		t.Errorf("expected window to reset after %d frames, frames=%d", reportInterval, s.frames)
	}
	if s.sumDrawTiles != 0 || s.sumLoadTiles != 0 {
		t.Errorf("expected rolling sums to reset, got draw=%d load=%d", s.sumDrawTiles, s.sumLoadTiles)
	}

	// peaks survive the reset
	if s.MaxDrawTiles() != 5 || s.MaxLoadTiles() != 5 {
		t.Errorf("expected lifetime peaks to survive reset, got draw=%d load=%d", s.MaxDrawTiles(), s.MaxLoadTiles())
	}
}

func TestFirstFrameContributesNoFrameTime(t *testing.T) {
	s := New(zaptest.NewLogger(t))
	s.Record(time.Unix(0, 0), 1, 1)
	if s.sumFrameTime != 0 {
		t.Errorf("expected zero elapsed time on the first recorded frame, got %v", s.sumFrameTime)
	}
}
