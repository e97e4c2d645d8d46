// internal/scene/svg.go
package scene

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/xkilldash9x/ghost/internal/geometry"
)

// ShapeKind names the SVG primitive a Shape came from.
type ShapeKind string

const (
	ShapePath     ShapeKind = "path"
	ShapeRect     ShapeKind = "rect"
	ShapeCircle   ShapeKind = "circle"
	ShapeEllipse  ShapeKind = "ellipse"
	ShapeLine     ShapeKind = "line"
	ShapePolyline ShapeKind = "polyline"
	ShapePolygon  ShapeKind = "polygon"
	ShapeText     ShapeKind = "text"
)

// Shape is one drawable element of a vector group, in the SVG's own user
// space. Outline holds the flattened geometry used for bounds and raster
// drawing; closed shapes repeat their first point.
type Shape struct {
	Kind        ShapeKind          `json:"kind"`
	Outline     [][]geometry.Point `json:"outline"`
	Fill        string             `json:"fill,omitempty"`
	Stroke      string             `json:"stroke,omitempty"`
	StrokeWidth float64            `json:"strokeWidth,omitempty"`
	Text        string             `json:"text,omitempty"`
}

// ParseSVG turns an SVG document into a group object centered on the origin.
// The caller positions it. A document with no drawable elements is malformed.
func ParseSVG(src string) (Object, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(src); err != nil {
		return Object{}, fmt.Errorf("%w: %v", ErrMalformedContent, err)
	}
	root := doc.Root()
	if root == nil || !strings.EqualFold(root.Tag, "svg") {
		return Object{}, fmt.Errorf("%w: root element is not <svg>", ErrMalformedContent)
	}

	var shapes []Shape
	collectShapes(root, style{fill: "black"}.inherit(root), &shapes)
	if len(shapes) == 0 {
		return Object{}, fmt.Errorf("%w: svg contains no drawable elements", ErrMalformedContent)
	}

	outlines := make([][]geometry.Point, 0, len(shapes))
	for _, s := range shapes {
		outlines = append(outlines, s.Outline...)
	}
	bounds := boundsOf(outlines...)

	return Object{
		Kind:       KindGroup,
		Width:      bounds.Width,
		Height:     bounds.Height,
		ScaleX:     1,
		ScaleY:     1,
		PathOffset: bounds.Center(),
		Fill:       uniformFill(shapes),
		SVGSource:  src,
		Shapes:     shapes,
	}, nil
}

// style is the inherited presentation state while walking the tree.
type style struct {
	fill, stroke string
	strokeWidth  float64
}

func (s style) inherit(el *etree.Element) style {
	out := s
	if v := attr(el, "fill"); v != "" {
		out.fill = v
	}
	if v := attr(el, "stroke"); v != "" {
		out.stroke = v
	}
	if v := attr(el, "stroke-width"); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSuffix(v, "px"), 64); err == nil {
			out.strokeWidth = f
		}
	}
	return out
}

// attr reads a presentation attribute, letting an inline style declaration
// override it.
func attr(el *etree.Element, name string) string {
	for _, decl := range strings.Split(el.SelectAttrValue("style", ""), ";") {
		k, v, ok := strings.Cut(decl, ":")
		if ok && strings.TrimSpace(k) == name {
			return strings.TrimSpace(v)
		}
	}
	return strings.TrimSpace(el.SelectAttrValue(name, ""))
}

func num(el *etree.Element, name string) float64 {
	v := strings.TrimSuffix(strings.TrimSpace(el.SelectAttrValue(name, "0")), "px")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

func collectShapes(el *etree.Element, inherited style, out *[]Shape) {
	for _, child := range el.ChildElements() {
		st := inherited.inherit(child)
		switch strings.ToLower(child.Tag) {
		case "g", "a", "svg":
			collectShapes(child, st, out)
		case "defs", "clippath", "mask", "pattern", "lineargradient", "radialgradient", "style", "title", "desc", "metadata":
			// Not rendered directly.
		default:
			if s, ok := shapeOf(child, st); ok {
				*out = append(*out, s)
			}
		}
	}
}

func shapeOf(el *etree.Element, st style) (Shape, bool) {
	s := Shape{Fill: st.fill, Stroke: st.stroke, StrokeWidth: st.strokeWidth}
	switch strings.ToLower(el.Tag) {
	case "path":
		polys, err := FlattenPath(el.SelectAttrValue("d", ""))
		if err != nil {
			return Shape{}, false
		}
		s.Kind, s.Outline = ShapePath, polys
	case "rect":
		x, y, w, h := num(el, "x"), num(el, "y"), num(el, "width"), num(el, "height")
		if w <= 0 || h <= 0 {
			return Shape{}, false
		}
		s.Kind = ShapeRect
		s.Outline = [][]geometry.Point{{
			geometry.Pt(x, y), geometry.Pt(x+w, y), geometry.Pt(x+w, y+h), geometry.Pt(x, y+h), geometry.Pt(x, y),
		}}
	case "circle":
		r := num(el, "r")
		if r <= 0 {
			return Shape{}, false
		}
		s.Kind, s.Outline = ShapeCircle, [][]geometry.Point{ellipse(num(el, "cx"), num(el, "cy"), r, r)}
	case "ellipse":
		rx, ry := num(el, "rx"), num(el, "ry")
		if rx <= 0 || ry <= 0 {
			return Shape{}, false
		}
		s.Kind, s.Outline = ShapeEllipse, [][]geometry.Point{ellipse(num(el, "cx"), num(el, "cy"), rx, ry)}
	case "line":
		s.Kind = ShapeLine
		s.Outline = [][]geometry.Point{{geometry.Pt(num(el, "x1"), num(el, "y1")), geometry.Pt(num(el, "x2"), num(el, "y2"))}}
	case "polyline", "polygon":
		pts := parsePoints(el.SelectAttrValue("points", ""))
		if len(pts) < 2 {
			return Shape{}, false
		}
		s.Kind = ShapePolyline
		if strings.EqualFold(el.Tag, "polygon") {
			s.Kind = ShapePolygon
			pts = append(pts, pts[0])
		}
		s.Outline = [][]geometry.Point{pts}
	case "text":
		text := strings.TrimSpace(el.Text())
		if text == "" {
			return Shape{}, false
		}
		size := num(el, "font-size")
		if size <= 0 {
			size = 16
		}
		x, y := num(el, "x"), num(el, "y")
		w := size * 0.6 * float64(len([]rune(text)))
		s.Kind, s.Text = ShapeText, text
		s.Outline = [][]geometry.Point{{geometry.Pt(x, y-size), geometry.Pt(x+w, y)}}
	default:
		return Shape{}, false
	}
	return s, true
}

func ellipse(cx, cy, rx, ry float64) []geometry.Point {
	pts := make([]geometry.Point, 0, 4*curveSteps+1)
	for i := 0; i <= 4*curveSteps; i++ {
		a := 2 * math.Pi * float64(i) / float64(4*curveSteps)
		pts = append(pts, geometry.Pt(cx+rx*math.Cos(a), cy+ry*math.Sin(a)))
	}
	return pts
}

func parsePoints(s string) []geometry.Point {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' || r == '\n' || r == '\t' })
	var pts []geometry.Point
	for i := 0; i+1 < len(fields); i += 2 {
		x, errX := strconv.ParseFloat(fields[i], 64)
		y, errY := strconv.ParseFloat(fields[i+1], 64)
		if errX != nil || errY != nil {
			return nil
		}
		pts = append(pts, geometry.Pt(x, y))
	}
	return pts
}

// uniformFill returns the shared fill of every shape, or "" when they differ.
func uniformFill(shapes []Shape) string {
	fill := shapes[0].Fill
	for _, s := range shapes[1:] {
		if s.Fill != fill {
			return ""
		}
	}
	return fill
}
