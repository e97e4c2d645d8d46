// internal/render/document.go
package render

import (
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/xkilldash9x/ghost/internal/scene"
)

// Document lays the frame out as a standalone HTML page of exactly
// Width x Height pixels. World coordinates are mapped with one CSS
// transform on the stage, so objects keep their world geometry.
func Document(f Frame) string {
	sx, sy := f.scale()
	var b strings.Builder
	fmt.Fprintf(&b, `<!DOCTYPE html><html><head><meta charset="utf-8"><style>
html,body{margin:0;padding:0;overflow:hidden;background:#1a1a1a;width:%dpx;height:%dpx}
#stage{position:absolute;left:0;top:0;transform-origin:0 0;transform:matrix(%g,0,0,%g,%g,%g)}
.obj{position:absolute;box-sizing:border-box}
</style></head><body><div id="stage">`,
		f.Width, f.Height, sx, sy, -f.Region.X*sx, -f.Region.Y*sy)

	for i := range f.Objects {
		writeObject(&b, f, &f.Objects[i])
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

func writeObject(b *strings.Builder, f Frame, obj *scene.Object) {
	w, h := obj.Width, obj.Height
	// Positioned by the unscaled box; scale and rotation happen about the center.
	fmt.Fprintf(b, `<div class="obj" id="%s" style="left:%gpx;top:%gpx;width:%gpx;height:%gpx;transform:rotate(%gdeg) scale(%g,%g)">`,
		html.EscapeString(obj.ID), obj.Center.X-w/2, obj.Center.Y-h/2, w, h, obj.Angle, orOne(obj.ScaleX), orOne(obj.ScaleY))

	switch {
	case obj.Placeholder:
		markup := ""
		if el, ok := f.Overlays[obj.ID]; ok {
			markup = el.HTML
		}
		fmt.Fprintf(b, `<div style="width:100%%;height:100%%;overflow:hidden;outline:%gpx solid %s">%s</div>`,
			obj.StrokeWidth, cssColor(obj.Stroke), markup)
	case obj.Kind == scene.KindText:
		fmt.Fprintf(b, `<span style="white-space:pre;font-family:%s;font-size:%gpx;color:%s">%s</span>`,
			cssString(obj.FontFamily), obj.FontSize, cssColor(obj.Fill), html.EscapeString(obj.Text))
	case obj.Kind == scene.KindPath:
		fmt.Fprintf(b, `<svg width="%g" height="%g" viewBox="%g %g %g %g" overflow="visible"><path d="%s" fill="%s" stroke="%s" stroke-width="%g"/></svg>`,
			w, h, obj.PathOffset.X-w/2, obj.PathOffset.Y-h/2, w, h,
			html.EscapeString(obj.PathData), svgPaint(obj.Fill), svgPaint(obj.Stroke), obj.StrokeWidth)
	case obj.Kind == scene.KindGroup:
		fmt.Fprintf(b, `<svg width="%g" height="%g" viewBox="%g %g %g %g" overflow="visible">%s</svg>`,
			w, h, obj.PathOffset.X-w/2, obj.PathOffset.Y-h/2, w, h, svgBody(obj.SVGSource))
	case obj.Kind == scene.KindImage && len(obj.ImageData) > 0:
		fmt.Fprintf(b, `<img style="width:100%%;height:100%%" src="data:%s;base64,%s">`,
			obj.ImageMIME, base64.StdEncoding.EncodeToString(obj.ImageData))
	default:
		fmt.Fprintf(b, `<div style="width:100%%;height:100%%;background:%s;border:%gpx solid %s"></div>`,
			cssColor(obj.Fill), obj.StrokeWidth, cssColor(obj.Stroke))
	}
	b.WriteString(`</div>`)
}

// svgBody strips the outer <svg> element so the content can be re-hosted
// under a viewBox that matches the parsed bounds.
func svgBody(src string) string {
	open := strings.Index(strings.ToLower(src), "<svg")
	if open < 0 {
		return ""
	}
	start := strings.IndexByte(src[open:], '>')
	end := strings.LastIndex(strings.ToLower(src), "</svg>")
	if start < 0 || end < open+start {
		return ""
	}
	return src[open+start+1 : end]
}

func cssColor(c string) string {
	if _, ok := ParseColor(c); !ok {
		return "transparent"
	}
	return c
}

func svgPaint(c string) string {
	if _, ok := ParseColor(c); !ok {
		return "none"
	}
	return c
}

func cssString(s string) string {
	if s == "" {
		return "monospace"
	}
	return `'` + strings.ReplaceAll(html.EscapeString(s), `'`, `\'`) + `'`
}

func orOne(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}
