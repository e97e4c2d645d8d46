package scene

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/ghost/internal/geometry"
)

func TestPathBounds(t *testing.T) {
	tests := []struct {
		name string
		d    string
		want geometry.Rect
	}{
		{"absolute lines", "M 10 10 L 110 10 L 110 60 Z", geometry.Rect{X: 10, Y: 10, Width: 100, Height: 50}},
		{"relative with implicit lineto", "m0,0 10,0 0,10 -10,0z", geometry.Rect{X: 0, Y: 0, Width: 10, Height: 10}},
		{"horizontal and vertical", "M5 5 H 25 V 45 h -20 v -40", geometry.Rect{X: 5, Y: 5, Width: 20, Height: 40}},
		{"compact numbers", "M0-5L10-5L10.5.5", geometry.Rect{X: 0, Y: -5, Width: 10.5, Height: 5.5}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := PathBounds(tc.d)
			require.NoError(t, err)
			assert.InDelta(t, tc.want.X, got.X, 1e-9)
			assert.InDelta(t, tc.want.Y, got.Y, 1e-9)
			assert.InDelta(t, tc.want.Width, got.Width, 1e-9)
			assert.InDelta(t, tc.want.Height, got.Height, 1e-9)
		})
	}
}

func TestPathBounds_Curves(t *testing.T) {
	// A symmetric cubic bulges to 3/4 of its control height.
	got, err := PathBounds("M 0 0 C 0 100 100 100 100 0")
	require.NoError(t, err)
	assert.InDelta(t, 75, got.Height, 0.5)
	assert.InDelta(t, 100, got.Width, 1e-9)

	// A half circle arc of radius 50.
	got, err = PathBounds("M 0 50 A 50 50 0 0 1 100 50")
	require.NoError(t, err)
	assert.InDelta(t, 100, got.Width, 1e-6)
	assert.InDelta(t, 50, got.Height, 0.5)

	got, err = PathBounds("M 0 0 Q 50 100 100 0 T 200 0")
	require.NoError(t, err)
	assert.InDelta(t, 200, got.Width, 1e-9)
	assert.InDelta(t, 100, got.Height, 0.5)
}

func TestPathBounds_Malformed(t *testing.T) {
	for _, d := range []string{"", "M 10 10", "10 10 L 20 20", "M 0 0 L 5", "M 0 0 X 1 1"} {
		_, err := PathBounds(d)
		assert.ErrorIs(t, err, ErrMalformedContent, "path %q", d)
	}
}

func TestParseSVG(t *testing.T) {
	src := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 200 100">
  <defs><linearGradient id="g"/></defs>
  <g fill="#00f0ff">
    <rect x="10" y="10" width="80" height="40"/>
    <circle cx="150" cy="50" r="40" style="fill: red"/>
  </g>
</svg>`
	obj, err := ParseSVG(src)
	require.NoError(t, err)

	assert.Equal(t, KindGroup, obj.Kind)
	require.Len(t, obj.Shapes, 2)
	assert.Equal(t, ShapeRect, obj.Shapes[0].Kind)
	assert.Equal(t, "#00f0ff", obj.Shapes[0].Fill)
	assert.Equal(t, "red", obj.Shapes[1].Fill)
	assert.Empty(t, obj.Fill, "mixed fills have no uniform value")

	assert.InDelta(t, 180, obj.Width, 1e-6)
	assert.InDelta(t, 80, obj.Height, 1e-6)
	assert.InDelta(t, 100, obj.PathOffset.X, 1e-6)
	assert.InDelta(t, 50, obj.PathOffset.Y, 1e-6)
	assert.Equal(t, src, obj.SVGSource)
}

func TestParseSVG_Malformed(t *testing.T) {
	for name, src := range map[string]string{
		"not xml":     "<<<",
		"wrong root":  `<div><rect width="1" height="1"/></div>`,
		"empty":       `<svg xmlns="http://www.w3.org/2000/svg"></svg>`,
		"only defs":   `<svg><defs><rect width="10" height="10"/></defs></svg>`,
		"degenerate":  `<svg><rect width="0" height="10"/><circle r="-1"/></svg>`,
		"blank input": "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSVG(src)
			assert.ErrorIs(t, err, ErrMalformedContent)
		})
	}
}

func TestValidateMarkup(t *testing.T) {
	assert.NoError(t, ValidateMarkup("<b>x</b>"))
	assert.NoError(t, ValidateMarkup("plain text"))
	assert.NoError(t, ValidateMarkup(`<div style="color:red"><button>Go</button></div>`))

	assert.ErrorIs(t, ValidateMarkup(""), ErrMalformedContent)
	assert.ErrorIs(t, ValidateMarkup("   \n"), ErrMalformedContent)
	assert.ErrorIs(t, ValidateMarkup("<!-- only a comment -->"), ErrMalformedContent)
}

func pngBase64(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestDecodeImage(t *testing.T) {
	raw := pngBase64(t, 40, 20)

	for _, payload := range []string{raw, "data:image/png;base64," + raw} {
		img, err := DecodeImage(payload)
		require.NoError(t, err)
		assert.Equal(t, "image/png", img.MIMEType)
		assert.Equal(t, 40, img.Width)
		assert.Equal(t, 20, img.Height)
		assert.NotEmpty(t, img.Data)
	}

	_, err := DecodeImage("data:text/plain,hello")
	assert.ErrorIs(t, err, ErrMalformedContent)
	_, err = DecodeImage("!!!not base64!!!")
	assert.ErrorIs(t, err, ErrMalformedContent)
	_, err = DecodeImage(base64.StdEncoding.EncodeToString([]byte("not an image")))
	assert.ErrorIs(t, err, ErrMalformedContent)
}

func TestFit(t *testing.T) {
	obj := Object{Width: 200, Height: 100}
	Fit(&obj, 100, 0)
	assert.Equal(t, 0.5, obj.ScaleX)
	assert.Equal(t, 0.5, obj.ScaleY)

	obj = Object{Width: 200, Height: 100}
	Fit(&obj, 100, 200)
	assert.Equal(t, 2.0, obj.ScaleX, "height is applied last and wins")
	assert.Equal(t, 2.0, obj.ScaleY)

	obj = Object{Width: 200, Height: 100, ScaleX: 1, ScaleY: 1}
	Fit(&obj, 0, 0)
	assert.Equal(t, 1.0, obj.ScaleX)
}
