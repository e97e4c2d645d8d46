// internal/geometry/transform.go
package geometry

import (
	"errors"
	"fmt"
)

// ErrSingularTransform is returned when a transform has no inverse.
var ErrSingularTransform = errors.New("geometry: transform is not invertible")

// Transform is a 2D affine transform in the conventional six-element layout
// [a b c d e f], mapping (x, y) to (a*x + c*y + e, b*x + d*y + f).
//
// A pan/zoom viewport is the special case [zoom 0 0 zoom panX panY]. Viewport
// snapshots are plain values so a captured snapshot never changes when the
// live viewport moves.
type Transform [6]float64

// Identity is the transform that leaves every point unchanged.
var Identity = Transform{1, 0, 0, 1, 0, 0}

// NewViewport builds a uniform scale plus translation transform.
func NewViewport(zoom, panX, panY float64) Transform {
	return Transform{zoom, 0, 0, zoom, panX, panY}
}

// FromSlice converts a six-element slice into a Transform.
func FromSlice(v []float64) (Transform, error) {
	if len(v) != 6 {
		return Transform{}, fmt.Errorf("geometry: transform needs 6 elements, got %d", len(v))
	}
	var t Transform
	copy(t[:], v)
	return t, nil
}

// Apply maps p through the transform.
func (t Transform) Apply(p Point) Point {
	return Point{
		X: t[0]*p.X + t[2]*p.Y + t[4],
		Y: t[1]*p.X + t[3]*p.Y + t[5],
	}
}

// Determinant of the linear part.
func (t Transform) Determinant() float64 {
	return t[0]*t[3] - t[1]*t[2]
}

// Invert returns the inverse affine transform.
func (t Transform) Invert() (Transform, error) {
	det := t.Determinant()
	if det == 0 {
		return Transform{}, ErrSingularTransform
	}
	inv := 1 / det
	a := t[3] * inv
	b := -t[1] * inv
	c := -t[2] * inv
	d := t[0] * inv
	return Transform{
		a, b, c, d,
		-(a*t[4] + c*t[5]),
		-(b*t[4] + d*t[5]),
	}, nil
}

// ToWorld converts a screen-space point into world space using the inverse of
// the given snapshot. The snapshot must be the one captured when the screen
// image the point refers to was produced.
func ToWorld(screen Point, snapshot Transform) (Point, error) {
	inv, err := snapshot.Invert()
	if err != nil {
		return Point{}, err
	}
	return inv.Apply(screen), nil
}

// ToScreen converts a world-space point into screen space.
func ToScreen(world Point, snapshot Transform) Point {
	return snapshot.Apply(world)
}

// VisibleRegion returns the world-space rectangle that is visible through a
// viewport of the given pixel size. The logical canvas corners are mapped
// through the inverse snapshot.
func VisibleRegion(snapshot Transform, width, height float64) (Rect, error) {
	inv, err := snapshot.Invert()
	if err != nil {
		return Rect{}, err
	}
	tl := inv.Apply(Point{X: 0, Y: 0})
	br := inv.Apply(Point{X: width, Y: height})
	return RectFromPoints(tl, br), nil
}
