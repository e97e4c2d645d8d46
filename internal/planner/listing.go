// internal/planner/listing.go
package planner

import (
	"fmt"
	"math"
	"strings"

	"github.com/xkilldash9x/ghost/internal/scene"
	"github.com/xkilldash9x/ghost/internal/state"
)

// imageRedacted replaces image payloads in listings.
const imageRedacted = "[Image present on canvas]"

// ObjectDescription is the planner's view of one scene object. Left and Top
// are the object's anchor, which is its center.
type ObjectDescription struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Left        int    `json:"left"`
	Top         int    `json:"top"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Fill        string `json:"fill"`
	Angle       int    `json:"angle"`
	HTMLContent string `json:"htmlContent,omitempty"`
	SVGContent  string `json:"svgContent,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	TextContent string `json:"textContent,omitempty"`
}

// Describe builds the object listing. Placeholders report their overlay
// markup; vector groups their source; images are redacted.
func Describe(objects []scene.Object, overlays map[string]state.OverlayElement) []ObjectDescription {
	out := make([]ObjectDescription, 0, len(objects))
	for i := range objects {
		obj := &objects[i]
		w, h := obj.ScaledSize()
		d := ObjectDescription{
			ID:     obj.ID,
			Type:   string(obj.Kind),
			Left:   round(obj.Center.X),
			Top:    round(obj.Center.Y),
			Width:  round(w),
			Height: round(h),
			Fill:   obj.Fill,
			Angle:  round(obj.Angle),
		}
		// A group with differently filled children has no single colour.
		if obj.Kind == scene.KindGroup && obj.Fill == "" {
			d.Fill = "mixed"
		}

		switch {
		case obj.Placeholder:
			if el, ok := overlays[obj.ID]; ok {
				d.HTMLContent = el.HTML
			}
		case obj.SVGSource != "":
			d.SVGContent = obj.SVGSource
		case obj.Kind == scene.KindImage:
			d.ImageURL = imageRedacted
		case obj.Kind == scene.KindText:
			d.TextContent = obj.Text
		}
		out = append(out, d)
	}
	return out
}

// Summarize renders the listing as one line for the system instruction.
func Summarize(objects []ObjectDescription) string {
	parts := make([]string, len(objects))
	for i, o := range objects {
		s := fmt.Sprintf("%s (%s) at %d,%d", o.ID, o.Type, o.Left, o.Top)
		if o.TextContent != "" {
			s += fmt.Sprintf(" [Text: %s]", o.TextContent)
		}
		parts[i] = s
	}
	return strings.Join(parts, " | ")
}

func round(v float64) int {
	return int(math.Round(v))
}
