// Command planetview drives a Planet through a fixed camera fly-by and
// logs the resulting frame statistics, exercising the full tile-residency
// and LOD-traversal pipeline without a graphical front end - the shader
// and window-system pipeline are out of scope for this module.
package main

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/lodbodies/internal/config"
	"github.com/Faultbox/lodbodies/internal/gpu"
	"github.com/Faultbox/lodbodies/internal/lodvisitor"
	"github.com/Faultbox/lodbodies/internal/logger"
	"github.com/Faultbox/lodbodies/internal/planet"
	"github.com/Faultbox/lodbodies/internal/quadtree"
	"github.com/Faultbox/lodbodies/internal/tile"
	"github.com/Faultbox/lodbodies/internal/tilesource"
	tilesourcenet "github.com/Faultbox/lodbodies/internal/tilesource/net"
	"github.com/Faultbox/lodbodies/internal/treemanager"
	"github.com/Faultbox/lodbodies/pkg/spacemath"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== planetview ===")
	logger.Sugar.Debugf("config: %+v", cfg)

	p, err := buildPlanet(cfg, logger.Log)
	if err != nil {
		logger.Error("failed to build planet", zap.Error(err))
		os.Exit(1)
	}

	renderer := &loggingRenderer{log: logger.Log}
	radii := spacemath.Vec3{cfg.Planet.RadiusX, cfg.Planet.RadiusY, cfg.Planet.RadiusZ}
	distance := radii[0] * 3

	const frames = 600
	for i := 0; i < frames; i++ {
		angle := 2 * math.Pi * float64(i) / frames
		eye := mgl64.Vec3{distance * math.Cos(angle), distance * 0.3, distance * math.Sin(angle)}
		view := mgl64.LookAtV(eye, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 1, 0})
		proj := mgl64.Perspective(mgl64.DegToRad(60), 16.0/9.0, distance*0.001, distance*10)

		p.Frame(frameTime(i), view, proj, renderer)
	}

	logger.Info("planetview finished")
}

// frameTime fabricates a monotonically increasing timestamp for frame i, a
// stand-in for the real wall clock since this module never calls time.Now
// directly - callers driving a real render loop pass actual frame times.
func frameTime(i int) time.Time {
	return time.Unix(0, int64(i)*16_666_667)
}

type loggingRenderer struct {
	log *zap.Logger
}

func (r *loggingRenderer) Draw(dem, img []*quadtree.RenderData) {
	r.log.Debug("draw", zap.Int("demTiles", len(dem)), zap.Int("imgTiles", len(img)))
}

// buildPlanet wires the configured tile sources, tree managers, and LOD
// visitor into a Planet, choosing a websocket source when an endpoint is
// configured and a procedural in-memory one otherwise.
func buildPlanet(cfg *config.Config, log *zap.Logger) (*planet.Planet, error) {
	demPool := gpu.NewSoftPool(int32(cfg.Pool.DEMCapacity))
	imgPool := gpu.NewSoftPool(int32(cfg.Pool.IMGCapacity))

	demEncode := func(t *tile.Tile[float32]) []byte {
		samples := t.Samples()
		out := make([]byte, len(samples)*4)
		for i, s := range samples {
			binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(s))
		}
		return out
	}
	imgEncode := func(t *tile.Tile[tile.Color]) []byte {
		samples := t.Samples()
		out := make([]byte, len(samples)*3)
		for i, c := range samples {
			out[i*3] = c.R
			out[i*3+1] = c.G
			out[i*3+2] = c.B
		}
		return out
	}

	dem := treemanager.New[float32](demPool, cfg.Pool.DEMCapacity, uint64(cfg.Pool.EvictGraceK), demEncode, log)
	img := treemanager.New[tile.Color](imgPool, cfg.Pool.IMGCapacity, uint64(cfg.Pool.EvictGraceK), imgEncode, log)

	demSource, err := buildDEMSource(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := dem.SetSource(demSource); err != nil {
		return nil, fmt.Errorf("dem source init: %w", err)
	}

	imgSource, err := buildIMGSource(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := img.SetSource(imgSource); err != nil {
		return nil, fmt.Errorf("img source init: %w", err)
	}

	params := lodvisitor.Params{
		Radii:       spacemath.Vec3{cfg.Planet.RadiusX, cfg.Planet.RadiusY, cfg.Planet.RadiusZ},
		HeightScale: cfg.Planet.HeightScale,
		LODFactor:   cfg.Planet.LODFactor,
		MinLevel:    cfg.Planet.MinLevel,
		MaxLevel:    cfg.Planet.MaxLevel,
	}
	visitor := lodvisitor.New(dem, img, params)
	visitor.SetUpdateLOD(true)
	visitor.SetUpdateCulling(true)

	return planet.New(log, dem, img, visitor, params), nil
}

func buildDEMSource(cfg *config.Config, log *zap.Logger) (treemanager.Source[float32], error) {
	if cfg.Sources.DEMEndpoint == "" {
		return tilesource.NewMemorySource(proceduralElevation(cfg.Pool.TileResDEM)), nil
	}
	codec := tilesource.ElevationCodec{Resolution: cfg.Pool.TileResDEM}
	return tilesourcenet.New[float32](cfg.Sources.DEMEndpoint, codec, log), nil
}

func buildIMGSource(cfg *config.Config, log *zap.Logger) (treemanager.Source[tile.Color], error) {
	if cfg.Sources.IMGEndpoint == "" {
		return tilesource.NewMemorySource(proceduralColor(cfg.Pool.TileResIMG)), nil
	}
	codec := tilesource.ColorCodec{Resolution: cfg.Pool.TileResIMG}
	return tilesourcenet.New[tile.Color](cfg.Sources.IMGEndpoint, codec, log), nil
}
