// internal/motion/simulator.go
package motion

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/aquilax/go-perlin"
	"go.uber.org/zap"

	"github.com/xkilldash9x/ghost/internal/geometry"
)

// ErrInterrupted is returned by Animate when the halt condition fired before
// the path completed.
var ErrInterrupted = errors.New("motion: animation interrupted")

// Simulator plans and plays back humanlike cursor movements.
type Simulator struct {
	// mu guards rng and the noise generators; math/rand sources are not safe
	// for concurrent use.
	mu     sync.Mutex
	cfg    Config
	clock  Clock
	logger *zap.Logger
	rng    *rand.Rand
	noiseX *perlin.Perlin
	noiseY *perlin.Perlin
	// noiseTime offsets successive movements along the noise field so that two
	// identical moves do not wobble identically.
	noiseTime float64
}

// NewSimulator creates a Simulator. A nil clock selects the wall clock.
func NewSimulator(cfg Config, clock Clock, logger *zap.Logger) *Simulator {
	cfg.normalize()
	if clock == nil {
		clock = NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	seed := time.Now().UnixNano()
	rng := cfg.Rng
	if rng == nil {
		rng = rand.New(rand.NewSource(seed))
	} else {
		seed = rng.Int63()
	}

	// Standard Perlin parameters.
	alpha, beta, n := 2.0, 2.0, int32(3)

	return &Simulator{
		cfg:    cfg,
		clock:  clock,
		logger: logger.Named("motion"),
		rng:    rng,
		noiseX: perlin.NewPerlin(alpha, beta, n, seed),
		noiseY: perlin.NewPerlin(alpha, beta, n, seed+1),
	}
}

// Clock exposes the simulator's time source.
func (s *Simulator) Clock() Clock { return s.clock }

// Config returns a copy of the active configuration.
func (s *Simulator) Config() Config { return s.cfg }

// MoveDuration computes the travel time for a distance: a fixed base plus a
// linear term, clamped to the configured bounds.
func (s *Simulator) MoveDuration(distance float64) time.Duration {
	if distance < 0 || math.IsNaN(distance) {
		distance = 0
	}
	// Compare in float64 first: a huge distance would wrap the int64.
	linear := float64(s.cfg.BaseDuration) + distance*float64(s.cfg.PerPixel)
	if linear >= float64(s.cfg.MaxDuration) {
		return s.cfg.MaxDuration
	}
	d := time.Duration(linear)
	if d < s.cfg.MinDuration {
		d = s.cfg.MinDuration
	}
	if d > s.cfg.MaxDuration {
		d = s.cfg.MaxDuration
	}
	return d
}

// PlanMove builds an arcing trajectory from start to target. The two control
// points sit near one third and two thirds of the straight line, pushed to a
// single randomly chosen side by an offset proportional to the distance.
func (s *Simulator) PlanMove(start, target geometry.Point) *BezierPath {
	dist := start.Dist(target)
	arc := math.Min(dist*s.cfg.ArcFactor, s.cfg.ArcCap)
	lateral := target.Sub(start).Normalize().Perp()

	s.mu.Lock()
	side := 1.0
	if s.rng.Float64() < 0.5 {
		side = -1.0
	}
	off1 := s.rng.Float64() * arc * side
	off2 := s.rng.Float64() * arc * 0.5 * side
	noiseStart := s.noiseTime
	s.noiseTime += 10
	s.mu.Unlock()

	path := &BezierPath{
		Start:    start,
		Control1: start.Lerp(target, 0.3).Add(lateral.Mul(off1)),
		Control2: start.Lerp(target, 0.7).Add(lateral.Mul(off2)),
		Target:   target,
		Length:   s.MoveDuration(dist),
	}

	if amp := s.cfg.TremorAmplitude; amp > 0 && dist > 0 {
		seconds := path.Length.Seconds()
		path.drift = func(progress float64) geometry.Point {
			x := noiseStart + progress*seconds*0.8
			s.mu.Lock()
			nx, ny := s.noiseX.Noise1D(x), s.noiseY.Noise1D(x)
			s.mu.Unlock()
			k := amp * taper(progress)
			return geometry.Point{X: nx * k, Y: ny * k}
		}
	}
	return path
}

// Animate plays a path back frame by frame, handing each position to onFrame.
// Before every frame it checks ctx and the optional halt condition; either one
// ends the animation early without reaching the target. On normal completion
// the final frame is exactly path.End().
func (s *Simulator) Animate(ctx context.Context, path Path, onFrame func(geometry.Point), halt func() bool) error {
	start := s.clock.Now()
	duration := path.Duration()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if halt != nil && halt() {
			return ErrInterrupted
		}

		progress := 1.0
		if duration > 0 {
			progress = math.Min(float64(s.clock.Now().Sub(start))/float64(duration), 1)
		}

		if progress >= 1 {
			// Snap exactly to the end to shed floating point residue.
			onFrame(path.End())
			return nil
		}
		onFrame(path.At(progress))

		if err := s.clock.Sleep(ctx, s.cfg.FrameInterval); err != nil {
			return err
		}
	}
}

// MoveTo plans and plays an arcing movement in one call.
func (s *Simulator) MoveTo(ctx context.Context, start, target geometry.Point, onFrame func(geometry.Point), halt func() bool) error {
	path := s.PlanMove(start, target)
	s.logger.Debug("Planned cursor movement",
		zap.Float64("distance", start.Dist(target)),
		zap.Duration("duration", path.Length))
	return s.Animate(ctx, path, onFrame, halt)
}
