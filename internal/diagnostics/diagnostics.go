// Package diagnostics tracks rolling per-frame statistics for a Planet -
// tiles drawn, tiles queued for load, and frame time - and periodically
// logs a summary the way VistaPlanet's Do() loop reports fps and tile
// counts every 60 frames.
package diagnostics

import (
	"time"

	"go.uber.org/zap"
)

const reportInterval = 60

// Stats accumulates counters across reportInterval frames and logs a
// summary once the window fills, then resets. It is not safe for
// concurrent use; callers drive it from a single render/update loop.
type Stats struct {
	log *zap.Logger

	lastFrame time.Time

	sumFrameTime time.Duration
	sumDrawTiles int
	sumLoadTiles int

	maxDrawTiles int
	maxLoadTiles int

	frames int
}

// New builds a Stats that logs to log.
func New(log *zap.Logger) *Stats {
	return &Stats{log: log}
}

// Record folds one frame's counts into the rolling window, logging and
// resetting the window every reportInterval calls. now is the current
// wall-clock time, supplied by the caller rather than read internally so
// Stats stays deterministic under test.
func (s *Stats) Record(now time.Time, drawTiles, loadTiles int) {
	if !s.lastFrame.IsZero() {
		s.sumFrameTime += now.Sub(s.lastFrame)
	}
	s.lastFrame = now

	if drawTiles > s.maxDrawTiles {
		s.maxDrawTiles = drawTiles
	}
	if loadTiles > s.maxLoadTiles {
		s.maxLoadTiles = loadTiles
	}
	s.sumDrawTiles += drawTiles
	s.sumLoadTiles += loadTiles
	s.frames++

	if s.frames < reportInterval {
		return
	}
	s.report()
	s.sumFrameTime = 0
	s.sumDrawTiles = 0
	s.sumLoadTiles = 0
	s.frames = 0
}

func (s *Stats) report() {
	avgFrameTime := s.sumFrameTime / time.Duration(s.frames)
	fps := 0.0
	if avgFrameTime > 0 {
		fps = float64(time.Second) / float64(avgFrameTime)
	}

	s.log.Info("planet frame stats",
		zap.Float64("fps", fps),
		zap.Duration("avgFrameTime", avgFrameTime),
		zap.Float64("avgDrawTiles", float64(s.sumDrawTiles)/float64(s.frames)),
		zap.Float64("avgLoadTiles", float64(s.sumLoadTiles)/float64(s.frames)),
		zap.Int("maxDrawTiles", s.maxDrawTiles),
		zap.Int("maxLoadTiles", s.maxLoadTiles),
	)
}

// MaxDrawTiles reports the largest draw-tile count seen since
// construction, mirroring VistaPlanet's lifetime mMaxDrawTiles counter.
func (s *Stats) MaxDrawTiles() int { return s.maxDrawTiles }

// MaxLoadTiles reports the largest load-tile count seen since
// construction.
func (s *Stats) MaxLoadTiles() int { return s.maxLoadTiles }
