// internal/planner/listing_test.go
package planner

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/xkilldash9x/ghost/internal/geometry"
	"github.com/xkilldash9x/ghost/internal/scene"
	"github.com/xkilldash9x/ghost/internal/state"
)

func TestDescribe(t *testing.T) {
	objects := []scene.Object{
		{ID: "text_1", Kind: scene.KindText, Center: geometry.Pt(100.4, 99.6), Width: 41.2, Height: 22.6, ScaleX: 1, ScaleY: 1, Fill: "#ffffff", Text: "Step 1: Layout"},
		{ID: "rect_1", Kind: scene.KindRect, Center: geometry.Pt(300, 200), Width: 400, Height: 300, ScaleX: 0.5, ScaleY: 2, Fill: "rgba(255,255,255,0.01)", Placeholder: true, Angle: 12.7},
		{ID: "group_1", Kind: scene.KindGroup, Center: geometry.Pt(10, 20), Width: 10, Height: 10, ScaleX: 1, ScaleY: 1, SVGSource: "<svg/>"},
		{ID: "image_1", Kind: scene.KindImage, Center: geometry.Pt(0, 0), Width: 64, Height: 32, ImageData: []byte{1, 2, 3}},
		{ID: "path_1", Kind: scene.KindPath, Center: geometry.Pt(5, 5), Width: 10, Height: 10, ScaleX: 1, ScaleY: 1, PathData: "M0 0L10 10"},
	}
	overlays := map[string]state.OverlayElement{"rect_1": {ID: "rect_1", HTML: "<button>Go</button>"}}

	want := []ObjectDescription{
		{ID: "text_1", Type: "i-text", Left: 100, Top: 100, Width: 41, Height: 23, Fill: "#ffffff", TextContent: "Step 1: Layout"},
		{ID: "rect_1", Type: "rect", Left: 300, Top: 200, Width: 200, Height: 600, Fill: "rgba(255,255,255,0.01)", Angle: 13, HTMLContent: "<button>Go</button>"},
		{ID: "group_1", Type: "group", Left: 10, Top: 20, Width: 10, Height: 10, Fill: "mixed", SVGContent: "<svg/>"},
		{ID: "image_1", Type: "image", Width: 64, Height: 32, ImageURL: "[Image present on canvas]"},
		{ID: "path_1", Type: "path", Left: 5, Top: 5, Width: 10, Height: 10},
	}
	if diff := cmp.Diff(want, Describe(objects, overlays)); diff != "" {
		t.Errorf("Describe() mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarize(t *testing.T) {
	got := Summarize([]ObjectDescription{
		{ID: "text_1", Type: "i-text", Left: 1, Top: 2, TextContent: "Hi"},
		{ID: "rect_1", Type: "rect", Left: 3, Top: 4},
	})
	want := "text_1 (i-text) at 1,2 [Text: Hi] | rect_1 (rect) at 3,4"
	if got != want {
		t.Errorf("Summarize() = %q, want %q", got, want)
	}
	if Summarize(nil) != "" {
		t.Error("empty listing should summarize to an empty string")
	}
}
