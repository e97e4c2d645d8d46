// internal/motion/easing.go
package motion

import "math"

// EasingFunc remaps linear progress in [0,1] onto eased progress in [0,1].
type EasingFunc func(t float64) float64

// EaseInOutCubic accelerates through the first half and decelerates through
// the second.
func EaseInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

// EaseOutQuad starts fast and settles into the target. Used for drags.
func EaseOutQuad(t float64) float64 {
	return 1 - (1-t)*(1-t)
}

// Linear is the identity easing.
func Linear(t float64) float64 { return t }

func clamp01(t float64) float64 {
	return math.Max(0, math.Min(1, t))
}
