// internal/planner/tools_test.go
package planner

import (
	"math"
	"testing"

	fuzz "github.com/AdaLogics/go-fuzz-headers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/ghost/internal/action"
	"github.com/xkilldash9x/ghost/internal/geometry"
)

// Screen (300,150) under zoom 2 and pan (-100,-50) is world (200,100).
func viewportToWorld() func(geometry.Point) geometry.Point {
	inv, err := geometry.NewViewport(2, -100, -50).Invert()
	if err != nil {
		panic(err)
	}
	return inv.Apply
}

func TestToolTable(t *testing.T) {
	assert.Equal(t, []string{
		ToolMoveCursor, ToolWriteText, ToolDrawPath, ToolRenderHTMLElement, ToolEditHTMLElement,
		ToolCreateVectorGraphic, ToolEditVectorGraphic, ToolCreateImage, ToolDragObject, ToolDeleteObject,
	}, ToolNames())

	tags := map[action.Tag]bool{}
	for _, name := range ToolNames() {
		tool, ok := toolsByName[name]
		require.True(t, ok, name)
		tags[tool.tag] = true
	}
	assert.Len(t, tags, 10, "every tool maps to a distinct tag")

	_, ok := toolsByName["teleport"]
	assert.False(t, ok)
}

func TestDecode(t *testing.T) {
	toWorld := viewportToWorld()

	tests := []struct {
		name string
		call ToolCall
		want action.Payload
	}{
		{
			name: "move cursor maps the point",
			call: ToolCall{Name: ToolMoveCursor, Args: map[string]any{"x": 300.0, "y": 150.0}},
			want: action.MoveCursor{X: 200, Y: 100},
		},
		{
			name: "write text keeps style fields",
			call: ToolCall{Name: ToolWriteText, Args: map[string]any{"text": "Hi", "x": 300, "y": 150, "fontSize": 32, "color": "#00ff00"}},
			want: action.WriteText{Text: "Hi", X: 200, Y: 100, FontSize: 32, Color: "#00ff00"},
		},
		{
			name: "numbers given as strings are accepted",
			call: ToolCall{Name: ToolDrawPath, Args: map[string]any{"pathSvg": "M 0 0 L 10 10", "x": "300", "y": "150"}},
			want: action.DrawPath{PathSVG: "M 0 0 L 10 10", X: 200, Y: 100},
		},
		{
			name: "render html",
			call: ToolCall{Name: ToolRenderHTMLElement, Args: map[string]any{"html": "<b>x</b>", "width": 200, "height": 100, "x": 100, "y": 50}},
			want: action.RenderHTML{HTML: "<b>x</b>", Width: 200, Height: 100, X: 100, Y: 50},
		},
		{
			name: "edit html has no point",
			call: ToolCall{Name: ToolEditHTMLElement, Args: map[string]any{"objectId": "rect_1", "html": "<i>y</i>"}},
			want: action.EditHTML{ObjectID: "rect_1", HTML: "<i>y</i>"},
		},
		{
			name: "create vector graphic",
			call: ToolCall{Name: ToolCreateVectorGraphic, Args: map[string]any{"svgXml": "<svg/>", "x": 300, "y": 150}},
			want: action.CreateSVG{SVGXML: "<svg/>", X: 200, Y: 100},
		},
		{
			name: "edit vector graphic",
			call: ToolCall{Name: ToolEditVectorGraphic, Args: map[string]any{"objectId": "group_1", "svgXml": "<svg/>"}},
			want: action.EditSVG{ObjectID: "group_1", SVGXML: "<svg/>"},
		},
		{
			name: "create image with optional size",
			call: ToolCall{Name: ToolCreateImage, Args: map[string]any{"base64": "AAAA", "x": 300, "y": 150, "width": 64}},
			want: action.CreateImage{Base64: "AAAA", X: 200, Y: 100, Width: 64},
		},
		{
			name: "drag maps the destination",
			call: ToolCall{Name: ToolDragObject, Args: map[string]any{"objectId": "text_1", "toX": 300, "toY": 150}},
			want: action.DragObject{ObjectID: "text_1", ToX: 200, ToY: 100},
		},
		{
			name: "delete",
			call: ToolCall{Name: ToolDeleteObject, Args: map[string]any{"objectId": "text_1"}},
			want: action.DeleteObject{ObjectID: "text_1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.call, toWorld)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, toolsByName[tt.call.Name].tag, got.Tag())
		})
	}
}

func TestDecodeFailures(t *testing.T) {
	_, err := Decode(ToolCall{Name: "launch_missiles", Args: map[string]any{}}, nil)
	assert.ErrorIs(t, err, ErrUnknownTool)

	_, err = Decode(ToolCall{Name: ToolWriteText, Args: map[string]any{"text": "Hi", "x": 1}}, nil)
	assert.ErrorIs(t, err, ErrInvalidArguments, "missing y")

	_, err = Decode(ToolCall{Name: ToolMoveCursor, Args: map[string]any{"x": "left", "y": 2}}, nil)
	assert.ErrorIs(t, err, ErrInvalidArguments)

	_, err = Decode(ToolCall{Name: ToolDeleteObject, Args: nil}, nil)
	assert.ErrorIs(t, err, ErrInvalidArguments)

	for _, args := range []map[string]any{
		{"x": "NaN", "y": 1},
		{"x": 1, "y": "Inf"},
		{"x": math.Inf(-1), "y": 1},
	} {
		_, err = Decode(ToolCall{Name: ToolMoveCursor, Args: args}, nil)
		assert.ErrorIs(t, err, ErrInvalidArguments, "args %v", args)
	}

	_, err = Decode(ToolCall{Name: ToolDragObject, Args: map[string]any{"objectId": "o", "toX": 1, "toY": "nan"}}, nil)
	assert.ErrorIs(t, err, ErrInvalidArguments)

	_, err = Decode(ToolCall{Name: ToolCreateImage, Args: map[string]any{"base64": "x", "x": 1, "y": 1, "width": "+Inf"}}, nil)
	assert.ErrorIs(t, err, ErrInvalidArguments)

	// Finite on screen, infinite once zoomed out into world space.
	tiny := geometry.NewViewport(1e-10, 0, 0)
	inv, err := tiny.Invert()
	require.NoError(t, err)
	_, err = Decode(ToolCall{Name: ToolMoveCursor, Args: map[string]any{"x": 1e300, "y": 0}}, inv.Apply)
	assert.ErrorIs(t, err, ErrInvalidArguments)
}

func TestDecodeWithoutTransformKeepsScreenPoint(t *testing.T) {
	got, err := Decode(ToolCall{Name: ToolMoveCursor, Args: map[string]any{"x": 7, "y": 9}}, nil)
	require.NoError(t, err)
	assert.Equal(t, action.MoveCursor{X: 7, Y: 9}, got)
}

type fuzzedCall struct {
	Tool     uint8
	X, Y     float64
	ToX, ToY float64
	Text     string
	ObjectID string
	Numeric  bool
	Omit     uint8
}

func FuzzDecode(f *testing.F) {
	f.Add([]byte("seed"))
	f.Add([]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a})
	toWorld := viewportToWorld()
	names := ToolNames()

	f.Fuzz(func(t *testing.T, data []byte) {
		var fc fuzzedCall
		if err := fuzz.NewConsumer(data).GenerateStruct(&fc); err != nil {
			return
		}
		name := names[int(fc.Tool)%len(names)]
		args := map[string]any{
			"x": fc.X, "y": fc.Y, "toX": fc.ToX, "toY": fc.ToY,
			"text": fc.Text, "html": fc.Text, "svgXml": fc.Text, "pathSvg": fc.Text, "base64": fc.Text,
			"objectId": fc.ObjectID, "width": fc.X, "height": fc.Y,
		}
		if !fc.Numeric {
			args["x"] = fc.Text
		}
		keys := []string{"x", "y", "toX", "toY", "text", "objectId"}
		delete(args, keys[int(fc.Omit)%len(keys)])

		p, err := Decode(ToolCall{Name: name, Args: args}, toWorld)
		if err != nil {
			assert.ErrorIs(t, err, ErrInvalidArguments)
			return
		}
		assert.Equal(t, toolsByName[name].tag, p.Tag())
		assert.True(t, finite(p))
	})
}
