// internal/render/raster.go
package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"sort"

	// Decoders for image objects.
	_ "image/gif"
	_ "image/jpeg"

	"github.com/xkilldash9x/ghost/internal/geometry"
	"github.com/xkilldash9x/ghost/internal/scene"
)

// Background is the workspace colour behind all objects.
var Background = color.NRGBA{R: 0x1a, G: 0x1a, B: 0x1a, A: 0xff}

// RasterRenderer draws frames in process. Text and overlay markup are drawn
// as their boxes; the picture is for spatial reasoning, not reading.
type RasterRenderer struct{}

// NewRasterRenderer returns the in-process renderer.
func NewRasterRenderer() *RasterRenderer {
	return &RasterRenderer{}
}

func (r *RasterRenderer) Render(ctx context.Context, f Frame) ([]byte, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	img := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: Background}, image.Point{}, draw.Src)

	sx, _ := f.scale()
	for i := range f.Objects {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		obj := &f.Objects[i]
		if obj.Kind == scene.KindImage && len(obj.ImageData) > 0 {
			drawImage(img, f, obj)
			continue
		}
		for _, m := range marks(obj) {
			polys := make([][]geometry.Point, len(m.polys))
			for j, poly := range m.polys {
				polys[j] = make([]geometry.Point, len(poly))
				for k, p := range poly {
					polys[j][k] = f.ToPixel(p)
				}
			}
			if c, ok := ParseColor(m.fill); ok {
				fillPolygons(img, polys, c)
			}
			if c, ok := ParseColor(m.stroke); ok {
				w := math.Max(m.width*sx, 1)
				for _, poly := range polys {
					strokePolyline(img, poly, w, c)
				}
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}

// blend composites c over the pixel at (x, y).
func blend(img *image.NRGBA, x, y int, c color.NRGBA) {
	if !(image.Point{X: x, Y: y}).In(img.Rect) || c.A == 0 {
		return
	}
	i := img.PixOffset(x, y)
	a := float64(c.A) / 255
	px := img.Pix[i : i+4 : i+4]
	px[0] = uint8(float64(c.R)*a + float64(px[0])*(1-a))
	px[1] = uint8(float64(c.G)*a + float64(px[1])*(1-a))
	px[2] = uint8(float64(c.B)*a + float64(px[2])*(1-a))
	px[3] = 255
}

// fillPolygons fills with the even-odd rule, sampling pixel centers.
func fillPolygons(img *image.NRGBA, polys [][]geometry.Point, c color.NRGBA) {
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, poly := range polys {
		for _, p := range poly {
			minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
		}
	}
	if math.IsInf(minY, 0) {
		return
	}
	y0 := int(math.Max(math.Floor(minY), float64(img.Rect.Min.Y)))
	y1 := int(math.Min(math.Ceil(maxY), float64(img.Rect.Max.Y-1)))

	var xs []float64
	for y := y0; y <= y1; y++ {
		cy := float64(y) + 0.5
		xs = xs[:0]
		for _, poly := range polys {
			n := len(poly)
			for i := 0; i < n; i++ {
				a, b := poly[i], poly[(i+1)%n]
				if (a.Y <= cy) == (b.Y <= cy) {
					continue
				}
				xs = append(xs, a.X+(cy-a.Y)*(b.X-a.X)/(b.Y-a.Y))
			}
		}
		sort.Float64s(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			for x := int(math.Ceil(xs[i] - 0.5)); float64(x)+0.5 <= xs[i+1]; x++ {
				blend(img, x, y, c)
			}
		}
	}
}

// strokePolyline stamps a square pen of the given width along each
// segment. Translucent strokes are drawn one pixel wide so overlapping
// stamps do not darken them.
func strokePolyline(img *image.NRGBA, poly []geometry.Point, width float64, c color.NRGBA) {
	half := width / 2
	stamp := func(p geometry.Point) {
		if c.A < 255 {
			blend(img, int(math.Floor(p.X)), int(math.Floor(p.Y)), c)
			return
		}
		for y := int(math.Floor(p.Y - half)); float64(y) < p.Y+half; y++ {
			for x := int(math.Floor(p.X - half)); float64(x) < p.X+half; x++ {
				blend(img, x, y, c)
			}
		}
	}
	if len(poly) == 1 {
		stamp(poly[0])
		return
	}
	for i := 0; i+1 < len(poly); i++ {
		a, b := poly[i], poly[i+1]
		steps := int(math.Ceil(a.Dist(b)*2)) + 1
		for s := 0; s <= steps; s++ {
			stamp(a.Lerp(b, float64(s)/float64(steps)))
		}
	}
}

// drawImage samples the decoded bitmap nearest-neighbour into the
// object's projected bounds. Rotation is ignored.
func drawImage(img *image.NRGBA, f Frame, obj *scene.Object) {
	src, _, err := image.Decode(bytes.NewReader(obj.ImageData))
	if err != nil {
		return
	}
	b := obj.Bounds()
	tl := f.ToPixel(geometry.Pt(b.X, b.Y))
	br := f.ToPixel(geometry.Pt(b.X+b.Width, b.Y+b.Height))
	dw, dh := br.X-tl.X, br.Y-tl.Y
	if dw <= 0 || dh <= 0 {
		return
	}
	sb := src.Bounds()
	for y := int(math.Floor(tl.Y)); float64(y) < br.Y; y++ {
		for x := int(math.Floor(tl.X)); float64(x) < br.X; x++ {
			u := int((float64(x) + 0.5 - tl.X) / dw * float64(sb.Dx()))
			v := int((float64(y) + 0.5 - tl.Y) / dh * float64(sb.Dy()))
			if u < 0 || v < 0 || u >= sb.Dx() || v >= sb.Dy() {
				continue
			}
			blend(img, x, y, color.NRGBAModel.Convert(src.At(sb.Min.X+u, sb.Min.Y+v)).(color.NRGBA))
		}
	}
}
