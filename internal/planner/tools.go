// internal/planner/tools.go
package planner

import (
	"fmt"
	"math"
	"reflect"

	"github.com/go-viper/mapstructure/v2"

	"github.com/xkilldash9x/ghost/internal/action"
	"github.com/xkilldash9x/ghost/internal/geometry"
)

// The closed set of tool names a planner may return.
const (
	ToolMoveCursor          = "move_cursor"
	ToolWriteText           = "write_text"
	ToolDrawPath            = "draw_path"
	ToolRenderHTMLElement   = "render_html_element"
	ToolEditHTMLElement     = "edit_html_element"
	ToolCreateVectorGraphic = "create_vector_graphic"
	ToolEditVectorGraphic   = "edit_vector_graphic"
	ToolCreateImage         = "create_image"
	ToolDragObject          = "drag_object"
	ToolDeleteObject        = "delete_object"
)

type paramKind int

const (
	kindNumber paramKind = iota
	kindString
)

type param struct {
	name        string
	kind        paramKind
	description string
}

// tool describes one entry of the tool set: its declaration for the model
// and the payload its arguments decode into.
type tool struct {
	name        string
	description string
	tag         action.Tag
	params      []param
	required    []string
	decode      func(map[string]any) (action.Payload, error)
}

func num(name string) param { return param{name: name, kind: kindNumber} }
func str(name string) param { return param{name: name, kind: kindString} }
func (p param) describe(desc string) param { p.description = desc; return p }

var tools = []tool{
	{
		name:        ToolMoveCursor,
		description: "Moves the virtual cursor to specific coordinates. Use this to 'look' at things or before starting a sequence.",
		tag:         action.TagMoveCursor,
		params:      []param{num("x"), num("y")},
		required:    []string{"x", "y"},
		decode:      decodeAs[action.MoveCursor],
	},
	{
		name:        ToolWriteText,
		description: "Writes text directly on the canvas.",
		tag:         action.TagWriteText,
		params: []param{
			str("text"), num("x"), num("y"),
			num("fontSize").describe("Default is 20"),
			str("color").describe("Hex code, default #ffffff"),
		},
		required: []string{"text", "x", "y"},
		decode:   decodeAs[action.WriteText],
	},
	{
		name:        ToolDrawPath,
		description: "Draws a freehand-style line or shape. The path should be relative to 0,0. The X,Y parameters determine where the center of this drawing is placed.",
		tag:         action.TagDrawPath,
		params: []param{
			str("pathSvg").describe("SVG 'd' attribute string (e.g., 'M 0 0 L 50 50'). Keep paths simple."),
			num("x").describe("Center X position of the drawing"),
			num("y").describe("Center Y position of the drawing"),
			str("strokeColor").describe("Hex code"),
			num("strokeWidth"),
		},
		required: []string{"pathSvg", "x", "y"},
		decode:   decodeAs[action.DrawPath],
	},
	{
		name:        ToolRenderHTMLElement,
		description: "Creates a FUNCTIONAL INTERFACE or WEB APP.",
		tag:         action.TagRenderHTML,
		params: []param{
			str("html").describe("Full HTML + CSS <style>."),
			num("width"), num("height"), num("x"), num("y"),
		},
		required: []string{"html", "width", "height", "x", "y"},
		decode:   decodeAs[action.RenderHTML],
	},
	{
		name:        ToolEditHTMLElement,
		description: "Refactors or updates an EXISTING HTML element.",
		tag:         action.TagEditHTML,
		params: []param{
			str("objectId").describe("ID of the element to edit."),
			str("html").describe("New full HTML/CSS source."),
		},
		required: []string{"objectId", "html"},
		decode:   decodeAs[action.EditHTML],
	},
	{
		name:        ToolCreateVectorGraphic,
		description: "Creates a detailed VECTOR ILLUSTRATION.",
		tag:         action.TagCreateSVG,
		params: []param{
			str("svgXml").describe("Valid SVG XML string."),
			num("x"), num("y"),
		},
		required: []string{"svgXml", "x", "y"},
		decode:   decodeAs[action.CreateSVG],
	},
	{
		name:        ToolEditVectorGraphic,
		description: "Updates an EXISTING SVG element.",
		tag:         action.TagEditSVG,
		params: []param{
			str("objectId").describe("ID of the SVG to edit."),
			str("svgXml").describe("New SVG XML source."),
		},
		required: []string{"objectId", "svgXml"},
		decode:   decodeAs[action.EditSVG],
	},
	{
		name:        ToolCreateImage,
		description: "Places a specific image onto the canvas.",
		tag:         action.TagCreateImage,
		params: []param{
			str("base64").describe("Base64 image data."),
			num("x"), num("y"), num("width"), num("height"),
		},
		required: []string{"base64", "x", "y"},
		decode:   decodeAs[action.CreateImage],
	},
	{
		name:        ToolDragObject,
		description: "Moves an existing object to new coordinates.",
		tag:         action.TagDragObject,
		params:      []param{str("objectId"), num("toX"), num("toY")},
		required:    []string{"objectId", "toX", "toY"},
		decode:      decodeAs[action.DragObject],
	},
	{
		name:        ToolDeleteObject,
		description: "Removes an object from the workspace.",
		tag:         action.TagDeleteObject,
		params:      []param{str("objectId")},
		required:    []string{"objectId"},
		decode:      decodeAs[action.DeleteObject],
	},
}

var toolsByName = func() map[string]*tool {
	m := make(map[string]*tool, len(tools))
	for i := range tools {
		m[tools[i].name] = &tools[i]
	}
	return m
}()

// ToolNames lists the recognized tool names in declaration order.
func ToolNames() []string {
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.name
	}
	return names
}

func decodeAs[T action.Payload](args map[string]any) (action.Payload, error) {
	var p T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &p,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(args); err != nil {
		return nil, err
	}
	return p, nil
}

// Decode turns a tool call into an action payload. Screen-space x/y and
// toX/toY arguments are mapped through toWorld.
func Decode(call ToolCall, toWorld func(geometry.Point) geometry.Point) (action.Payload, error) {
	t, ok := toolsByName[call.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, call.Name)
	}
	for _, key := range t.required {
		if v, present := call.Args[key]; !present || v == nil {
			return nil, fmt.Errorf("%w: %s requires %q", ErrInvalidArguments, call.Name, key)
		}
	}
	p, err := t.decode(call.Args)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArguments, call.Name, err)
	}
	if toWorld != nil {
		p = localize(p, toWorld)
	}
	if !finite(p) {
		return nil, fmt.Errorf("%w: %s: non-finite number", ErrInvalidArguments, call.Name)
	}
	return p, nil
}

// finite reports whether every numeric field of p is a real number. Weakly
// typed decoding accepts "NaN" and "Inf" strings, and a huge screen point
// can overflow once mapped to world space.
func finite(p action.Payload) bool {
	v := reflect.ValueOf(p)
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		if f.Kind() != reflect.Float64 {
			continue
		}
		if x := f.Float(); math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func localize(p action.Payload, toWorld func(geometry.Point) geometry.Point) action.Payload {
	at := func(x, y float64) (float64, float64) {
		w := toWorld(geometry.Pt(x, y))
		return w.X, w.Y
	}
	switch v := p.(type) {
	case action.MoveCursor:
		v.X, v.Y = at(v.X, v.Y)
		return v
	case action.WriteText:
		v.X, v.Y = at(v.X, v.Y)
		return v
	case action.DrawPath:
		v.X, v.Y = at(v.X, v.Y)
		return v
	case action.CreateSVG:
		v.X, v.Y = at(v.X, v.Y)
		return v
	case action.CreateImage:
		v.X, v.Y = at(v.X, v.Y)
		return v
	case action.RenderHTML:
		v.X, v.Y = at(v.X, v.Y)
		return v
	case action.DragObject:
		v.ToX, v.ToY = at(v.ToX, v.ToY)
		return v
	}
	return p
}
