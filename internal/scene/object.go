// internal/scene/object.go
package scene

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/xkilldash9x/ghost/internal/geometry"
)

var (
	// ErrNotFound is returned when no object has the requested id.
	ErrNotFound = errors.New("scene: object not found")
	// ErrDuplicateID is returned when adding an object whose id is taken.
	ErrDuplicateID = errors.New("scene: duplicate object id")
	// ErrMalformedContent is returned when vector, markup or image content
	// cannot be turned into a usable object.
	ErrMalformedContent = errors.New("scene: malformed content")
)

// Kind is the object type as reported to the planner.
type Kind string

const (
	KindText  Kind = "i-text"
	KindPath  Kind = "path"
	KindGroup Kind = "group"
	KindImage Kind = "image"
	KindRect  Kind = "rect"
)

// Object is one item in the scene. Geometry is center-anchored: Center is
// where the object sits in world space, Width and Height are unscaled.
type Object struct {
	ID     string         `json:"id"`
	Kind   Kind           `json:"type"`
	Center geometry.Point `json:"center"`
	Width  float64        `json:"width"`
	Height float64        `json:"height"`
	ScaleX float64        `json:"scaleX"`
	ScaleY float64        `json:"scaleY"`
	Angle  float64        `json:"angle"`

	Fill        string  `json:"fill,omitempty"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`

	Text       string  `json:"text,omitempty"`
	FontSize   float64 `json:"fontSize,omitempty"`
	FontFamily string  `json:"fontFamily,omitempty"`

	// PathData is the raw path description; PathOffset is the center of its
	// natural bounding box, subtracted when drawing so the path sits on Center.
	PathData   string         `json:"pathData,omitempty"`
	PathOffset geometry.Point `json:"pathOffset"`

	SVGSource string  `json:"svgSource,omitempty"`
	Shapes    []Shape `json:"shapes,omitempty"`

	ImageData []byte `json:"-"`
	ImageMIME string `json:"imageMime,omitempty"`

	// Placeholder marks a rectangle that backs an overlay element.
	Placeholder bool `json:"placeholder,omitempty"`
}

// NewID returns a fresh object id with a readable prefix such as "text".
func NewID(prefix string) string {
	id, err := uuid.NewV7()
	if err != nil {
		return prefix + "_" + uuid.NewString()
	}
	return prefix + "_" + strings.ReplaceAll(id.String(), "-", "")[:20]
}

// ScaledSize returns the object's on-canvas width and height.
func (o *Object) ScaledSize() (float64, float64) {
	return o.Width * orOne(o.ScaleX), o.Height * orOne(o.ScaleY)
}

// Bounds returns the axis-aligned world rectangle of the object, ignoring
// rotation.
func (o *Object) Bounds() geometry.Rect {
	w, h := o.ScaledSize()
	return geometry.Rect{X: o.Center.X - w/2, Y: o.Center.Y - h/2, Width: w, Height: h}
}

// Clone returns a deep copy.
func (o *Object) Clone() Object {
	c := *o
	if o.Shapes != nil {
		c.Shapes = make([]Shape, len(o.Shapes))
		copy(c.Shapes, o.Shapes)
	}
	if o.ImageData != nil {
		c.ImageData = append([]byte(nil), o.ImageData...)
	}
	return c
}

func orOne(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}
