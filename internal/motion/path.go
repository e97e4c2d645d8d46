// internal/motion/path.go
package motion

import (
	"math"
	"time"

	"github.com/xkilldash9x/ghost/internal/geometry"
)

// Path is a timed trajectory. At maps linear progress in [0,1] to a position;
// At(1) must equal End().
type Path interface {
	Duration() time.Duration
	At(progress float64) geometry.Point
	End() geometry.Point
}

// BezierPath is a cubic Bezier movement whose parameter is driven through an
// ease-in-out curve, so the cursor accelerates away from rest and settles
// into the target.
type BezierPath struct {
	Start, Control1, Control2, Target geometry.Point
	Length                            time.Duration

	// drift returns an additive offset for the given progress. It must be
	// zero at progress 0 and 1.
	drift func(progress float64) geometry.Point
}

func (p *BezierPath) Duration() time.Duration { return p.Length }
func (p *BezierPath) End() geometry.Point      { return p.Target }

func (p *BezierPath) At(progress float64) geometry.Point {
	progress = clamp01(progress)
	if progress >= 1 {
		return p.Target
	}
	pos := cubicBezier(EaseInOutCubic(progress), p.Start, p.Control1, p.Control2, p.Target)
	if p.drift != nil {
		pos = pos.Add(p.drift(progress))
	}
	return pos
}

// cubicBezier evaluates the cubic Bezier curve at t.
func cubicBezier(t float64, p0, p1, p2, p3 geometry.Point) geometry.Point {
	omt := 1.0 - t
	omt2 := omt * omt
	omt3 := omt2 * omt
	t2 := t * t
	t3 := t2 * t
	return p0.Mul(omt3).Add(p1.Mul(3 * omt2 * t)).Add(p2.Mul(3 * omt * t2)).Add(p3.Mul(t3))
}

// Segment is a straight, eased movement between two points over a fixed
// duration. Drags use it to carry an object and the cursor in lock-step.
type Segment struct {
	From, To geometry.Point
	Length   time.Duration
	Ease     EasingFunc
}

func (s Segment) Duration() time.Duration { return s.Length }
func (s Segment) End() geometry.Point      { return s.To }

func (s Segment) At(progress float64) geometry.Point {
	progress = clamp01(progress)
	if progress >= 1 {
		return s.To
	}
	ease := s.Ease
	if ease == nil {
		ease = Linear
	}
	return s.From.Lerp(s.To, ease(progress))
}

// taper is 0 at both ends and 1 at the midpoint.
func taper(progress float64) float64 {
	return math.Sin(math.Pi * clamp01(progress))
}
