// internal/render/frame.go
package render

import (
	"context"
	"fmt"
	"math"

	"github.com/xkilldash9x/ghost/internal/geometry"
	"github.com/xkilldash9x/ghost/internal/scene"
	"github.com/xkilldash9x/ghost/internal/state"
)

// Frame is one capture request: the scene contents, and the world region
// that maps onto a Width x Height image.
type Frame struct {
	Objects  []scene.Object
	Overlays map[string]state.OverlayElement
	Region   geometry.Rect
	Width    int
	Height   int
}

// Renderer produces a PNG of a frame.
type Renderer interface {
	Render(ctx context.Context, f Frame) ([]byte, error)
}

// Capture builds a frame of exactly the part of sc visible under snapshot.
func Capture(sc scene.Scene, overlays map[string]state.OverlayElement, snapshot geometry.Transform) (Frame, error) {
	w, h := sc.Size()
	region, err := geometry.VisibleRegion(snapshot, w, h)
	if err != nil {
		return Frame{}, fmt.Errorf("computing visible region: %w", err)
	}
	return Frame{
		Objects:  sc.Objects(),
		Overlays: overlays,
		Region:   region,
		Width:    int(math.Round(w)),
		Height:   int(math.Round(h)),
	}, nil
}

func (f Frame) validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("render: invalid output size %dx%d", f.Width, f.Height)
	}
	if f.Region.Width <= 0 || f.Region.Height <= 0 {
		return fmt.Errorf("render: empty region")
	}
	return nil
}

// scale returns output pixels per world unit on each axis.
func (f Frame) scale() (float64, float64) {
	return float64(f.Width) / f.Region.Width, float64(f.Height) / f.Region.Height
}

// ToPixel maps a world point into output image coordinates.
func (f Frame) ToPixel(p geometry.Point) geometry.Point {
	sx, sy := f.scale()
	return geometry.Pt((p.X-f.Region.X)*sx, (p.Y-f.Region.Y)*sy)
}

// mark is one drawable piece of an object, in world space.
type mark struct {
	polys  [][]geometry.Point
	fill   string
	stroke string
	width  float64
}

// place maps object-local points (relative to offset) into world space,
// applying scale, then rotation about the center.
func place(obj *scene.Object, offset geometry.Point, polys [][]geometry.Point) [][]geometry.Point {
	sx, sy := obj.ScaleX, obj.ScaleY
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	sin, cos := math.Sincos(obj.Angle * math.Pi / 180)
	out := make([][]geometry.Point, len(polys))
	for i, poly := range polys {
		placed := make([]geometry.Point, len(poly))
		for j, p := range poly {
			q := p.Sub(offset)
			q = geometry.Pt(q.X*sx, q.Y*sy)
			q = geometry.Pt(q.X*cos-q.Y*sin, q.X*sin+q.Y*cos)
			placed[j] = q.Add(obj.Center)
		}
		out[i] = placed
	}
	return out
}

func box(w, h float64) [][]geometry.Point {
	return [][]geometry.Point{{
		geometry.Pt(-w/2, -h/2), geometry.Pt(w/2, -h/2),
		geometry.Pt(w/2, h/2), geometry.Pt(-w/2, h/2),
		geometry.Pt(-w/2, -h/2),
	}}
}

// marks decomposes an object into drawable pieces. Paths and groups keep
// their own geometry; everything else is its bounding box.
func marks(obj *scene.Object) []mark {
	switch obj.Kind {
	case scene.KindPath:
		polys, err := scene.FlattenPath(obj.PathData)
		if err != nil {
			return nil
		}
		return []mark{{polys: place(obj, obj.PathOffset, polys), fill: obj.Fill, stroke: obj.Stroke, width: obj.StrokeWidth}}
	case scene.KindGroup:
		out := make([]mark, 0, len(obj.Shapes))
		for _, s := range obj.Shapes {
			out = append(out, mark{polys: place(obj, obj.PathOffset, s.Outline), fill: s.Fill, stroke: s.Stroke, width: s.StrokeWidth})
		}
		return out
	default:
		return []mark{{polys: place(obj, geometry.Point{}, box(obj.Width, obj.Height)), fill: obj.Fill, stroke: obj.Stroke, width: obj.StrokeWidth}}
	}
}
