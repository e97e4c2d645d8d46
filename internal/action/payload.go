// internal/action/payload.go
package action

import "github.com/xkilldash9x/ghost/internal/geometry"

// MoveCursor moves the cursor for attention signalling only.
type MoveCursor struct {
	X float64 `mapstructure:"x" json:"x"`
	Y float64 `mapstructure:"y" json:"y"`
}

// WriteText creates an editable text object centered on (X, Y).
type WriteText struct {
	Text     string  `mapstructure:"text" json:"text"`
	X        float64 `mapstructure:"x" json:"x"`
	Y        float64 `mapstructure:"y" json:"y"`
	FontSize float64 `mapstructure:"fontSize" json:"fontSize,omitempty"`
	Color    string  `mapstructure:"color" json:"color,omitempty"`
}

// DrawPath creates a freehand stroke from an SVG path description, re-anchored
// so that its bounding box is centered on (X, Y).
type DrawPath struct {
	PathSVG     string  `mapstructure:"pathSvg" json:"pathSvg"`
	X           float64 `mapstructure:"x" json:"x"`
	Y           float64 `mapstructure:"y" json:"y"`
	StrokeColor string  `mapstructure:"strokeColor" json:"strokeColor,omitempty"`
	StrokeWidth float64 `mapstructure:"strokeWidth" json:"strokeWidth,omitempty"`
}

// CreateSVG parses a vector graphic into a group centered on (X, Y).
type CreateSVG struct {
	SVGXML string  `mapstructure:"svgXml" json:"svgXml"`
	X      float64 `mapstructure:"x" json:"x"`
	Y      float64 `mapstructure:"y" json:"y"`
}

// EditSVG replaces an existing vector group, keeping its placement.
type EditSVG struct {
	ObjectID string `mapstructure:"objectId" json:"objectId"`
	SVGXML   string `mapstructure:"svgXml" json:"svgXml"`
}

// CreateImage places a decoded image centered on (X, Y), optionally resized.
type CreateImage struct {
	Base64 string  `mapstructure:"base64" json:"base64"`
	X      float64 `mapstructure:"x" json:"x"`
	Y      float64 `mapstructure:"y" json:"y"`
	Width  float64 `mapstructure:"width" json:"width,omitempty"`
	Height float64 `mapstructure:"height" json:"height,omitempty"`
}

// RenderHTML creates a placeholder rectangle bound to a rich overlay element.
type RenderHTML struct {
	HTML   string  `mapstructure:"html" json:"html"`
	Width  float64 `mapstructure:"width" json:"width,omitempty"`
	Height float64 `mapstructure:"height" json:"height,omitempty"`
	X      float64 `mapstructure:"x" json:"x"`
	Y      float64 `mapstructure:"y" json:"y"`
}

// EditHTML replaces the markup of an existing overlay element.
type EditHTML struct {
	ObjectID string `mapstructure:"objectId" json:"objectId"`
	HTML     string `mapstructure:"html" json:"html"`
}

// DeleteObject removes a scene object and any overlay bound to it.
type DeleteObject struct {
	ObjectID string `mapstructure:"objectId" json:"objectId"`
}

// DragObject carries an object from its current center to (ToX, ToY).
type DragObject struct {
	ObjectID string  `mapstructure:"objectId" json:"objectId"`
	ToX      float64 `mapstructure:"toX" json:"toX"`
	ToY      float64 `mapstructure:"toY" json:"toY"`
}

func (MoveCursor) Tag() Tag   { return TagMoveCursor }
func (WriteText) Tag() Tag    { return TagWriteText }
func (DrawPath) Tag() Tag     { return TagDrawPath }
func (CreateSVG) Tag() Tag    { return TagCreateSVG }
func (EditSVG) Tag() Tag      { return TagEditSVG }
func (CreateImage) Tag() Tag  { return TagCreateImage }
func (RenderHTML) Tag() Tag   { return TagRenderHTML }
func (EditHTML) Tag() Tag     { return TagEditHTML }
func (DeleteObject) Tag() Tag { return TagDeleteObject }
func (DragObject) Tag() Tag   { return TagDragObject }

func (MoveCursor) isPayload()   {}
func (WriteText) isPayload()    {}
func (DrawPath) isPayload()     {}
func (CreateSVG) isPayload()    {}
func (EditSVG) isPayload()      {}
func (CreateImage) isPayload()  {}
func (RenderHTML) isPayload()   {}
func (EditHTML) isPayload()     {}
func (DeleteObject) isPayload() {}
func (DragObject) isPayload()   {}

func (p MoveCursor) Target() geometry.Point  { return geometry.Pt(p.X, p.Y) }
func (p WriteText) Target() geometry.Point   { return geometry.Pt(p.X, p.Y) }
func (p DrawPath) Target() geometry.Point    { return geometry.Pt(p.X, p.Y) }
func (p CreateSVG) Target() geometry.Point   { return geometry.Pt(p.X, p.Y) }
func (p CreateImage) Target() geometry.Point { return geometry.Pt(p.X, p.Y) }
func (p RenderHTML) Target() geometry.Point  { return geometry.Pt(p.X, p.Y) }

func (p EditSVG) Ref() string      { return p.ObjectID }
func (p EditHTML) Ref() string     { return p.ObjectID }
func (p DeleteObject) Ref() string { return p.ObjectID }
func (p DragObject) Ref() string   { return p.ObjectID }

// Destination is where a drag ends, in world coordinates.
func (p DragObject) Destination() geometry.Point { return geometry.Pt(p.ToX, p.ToY) }
