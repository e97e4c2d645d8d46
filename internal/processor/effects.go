// internal/processor/effects.go
package processor

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/xkilldash9x/ghost/internal/action"
	"github.com/xkilldash9x/ghost/internal/geometry"
	"github.com/xkilldash9x/ghost/internal/motion"
	"github.com/xkilldash9x/ghost/internal/scene"
	"github.com/xkilldash9x/ghost/internal/state"
)

const (
	defaultFontSize    = 20
	defaultTextColor   = "#ffffff"
	defaultStrokeColor = "#ff003c"
	defaultStrokeWidth = 2
	defaultHTMLWidth   = 400
	defaultHTMLHeight  = 300
	overlayZIndex      = 10
	textFontFamily     = "JetBrains Mono"

	// Placeholder stroke colours: resting accent and edit highlight.
	accentColor     = "#00f0ff"
	highlightColor  = "#ff003c"
	placeholderFill = "rgba(255,255,255,0.01)"
)

func payloadAs[T action.Payload](a *action.Action) (T, error) {
	v, ok := a.Payload.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("action %s: payload %T does not match tag %s", a.ID, a.Payload, a.Tag())
	}
	return v, nil
}

// lookup resolves an object reference. A missing object turns the whole
// action into a no-op.
func (p *Processor) lookup(a *action.Action, id string) (scene.Object, bool) {
	obj, err := p.scene.Find(id)
	if err != nil {
		p.logger.Info("Action target no longer exists, skipping.",
			zap.String("action_id", a.ID), zap.String("tag", string(a.Tag())), zap.String("object_id", id))
		return scene.Object{}, false
	}
	return obj, true
}

// target resolves where an action happens: the world point it carries, or
// the center of the object it references. ok is false when the referenced
// object no longer exists.
func (p *Processor) target(a *action.Action) (geometry.Point, bool) {
	switch pl := a.Payload.(type) {
	case action.Targeted:
		return pl.Target(), true
	case action.ObjectRef:
		obj, ok := p.lookup(a, pl.Ref())
		return obj.Center, ok
	default:
		return geometry.Point{}, false
	}
}

// skip logs content that could not be turned into an object. The effect
// step completes without creating anything.
func (p *Processor) skip(a *action.Action, err error) error {
	p.logger.Info("Skipping effect with unusable content.",
		zap.String("action_id", a.ID), zap.String("tag", string(a.Tag())), zap.Error(err))
	return nil
}

func (p *Processor) add(obj scene.Object) error {
	if err := p.scene.Add(obj); err != nil {
		return fmt.Errorf("adding %s object: %w", obj.Kind, err)
	}
	p.scene.RequestRender()
	return nil
}

func (p *Processor) handleMoveCursor(ctx context.Context, a *action.Action) error {
	if _, err := payloadAs[action.MoveCursor](a); err != nil {
		return err
	}
	at, _ := p.target(a)
	p.store.SetLabel(LabelObserving)
	if err := p.approach(ctx, at); err != nil {
		return err
	}
	return p.clock.Sleep(ctx, p.cfg.LookPause)
}

func (p *Processor) handleWriteText(ctx context.Context, a *action.Action) error {
	pl, err := payloadAs[action.WriteText](a)
	if err != nil {
		return err
	}
	size := pl.FontSize
	if size <= 0 {
		size = defaultFontSize
	}
	color := pl.Color
	if color == "" {
		color = defaultTextColor
	}
	return p.perform(ctx, a, pl.Target(), LabelTyping, func() error {
		return p.add(scene.Object{
			ID:         scene.NewID("text"),
			Kind:       scene.KindText,
			Center:     pl.Target(),
			Width:      size * 0.6 * float64(utf8.RuneCountInString(pl.Text)),
			Height:     size * 1.16,
			ScaleX:     1,
			ScaleY:     1,
			Fill:       color,
			Text:       pl.Text,
			FontSize:   size,
			FontFamily: textFontFamily,
		})
	})
}

func (p *Processor) handleDrawPath(ctx context.Context, a *action.Action) error {
	pl, err := payloadAs[action.DrawPath](a)
	if err != nil {
		return err
	}
	stroke := pl.StrokeColor
	if stroke == "" {
		stroke = defaultStrokeColor
	}
	width := pl.StrokeWidth
	if width <= 0 {
		width = defaultStrokeWidth
	}
	return p.perform(ctx, a, pl.Target(), LabelScribbling, func() error {
		bounds, err := scene.PathBounds(pl.PathSVG)
		if err != nil {
			return p.skip(a, err)
		}
		// Re-anchor the path on the target instead of its natural origin.
		return p.add(scene.Object{
			ID:          scene.NewID("draw"),
			Kind:        scene.KindPath,
			Center:      pl.Target(),
			Width:       bounds.Width,
			Height:      bounds.Height,
			ScaleX:      1,
			ScaleY:      1,
			Fill:        "transparent",
			Stroke:      stroke,
			StrokeWidth: width,
			PathData:    pl.PathSVG,
			PathOffset:  bounds.Center(),
		})
	})
}

func (p *Processor) handleCreateSVG(ctx context.Context, a *action.Action) error {
	pl, err := payloadAs[action.CreateSVG](a)
	if err != nil {
		return err
	}
	return p.perform(ctx, a, pl.Target(), LabelDrawing, func() error {
		obj, err := scene.ParseSVG(pl.SVGXML)
		if err != nil {
			return p.skip(a, err)
		}
		obj.ID = scene.NewID("svg")
		obj.Center = pl.Target()
		return p.add(obj)
	})
}

func (p *Processor) handleEditSVG(ctx context.Context, a *action.Action) error {
	pl, err := payloadAs[action.EditSVG](a)
	if err != nil {
		return err
	}
	at, ok := p.target(a)
	if !ok {
		return nil
	}
	return p.perform(ctx, a, at, LabelModifying, func() error {
		obj, err := scene.ParseSVG(pl.SVGXML)
		if err != nil {
			return p.skip(a, err)
		}
		// Placement is read again here: the user may have moved the object
		// while the cursor approached.
		current, ok := p.lookup(a, pl.ObjectID)
		if !ok {
			return nil
		}
		obj.Center = current.Center
		obj.Angle = current.Angle
		obj.ScaleX = current.ScaleX
		obj.ScaleY = current.ScaleY
		if err := p.scene.Replace(pl.ObjectID, obj); err != nil {
			if errors.Is(err, scene.ErrNotFound) {
				return nil
			}
			return err
		}
		p.scene.RequestRender()
		return nil
	})
}

func (p *Processor) handleCreateImage(ctx context.Context, a *action.Action) error {
	pl, err := payloadAs[action.CreateImage](a)
	if err != nil {
		return err
	}
	return p.perform(ctx, a, pl.Target(), LabelImporting, func() error {
		img, err := scene.DecodeImage(pl.Base64)
		if err != nil {
			return p.skip(a, err)
		}
		obj := scene.Object{
			ID:        scene.NewID("img"),
			Kind:      scene.KindImage,
			Center:    pl.Target(),
			Width:     float64(img.Width),
			Height:    float64(img.Height),
			ScaleX:    1,
			ScaleY:    1,
			ImageData: img.Data,
			ImageMIME: img.MIMEType,
		}
		scene.Fit(&obj, pl.Width, pl.Height)
		return p.add(obj)
	})
}

func (p *Processor) handleRenderHTML(ctx context.Context, a *action.Action) error {
	pl, err := payloadAs[action.RenderHTML](a)
	if err != nil {
		return err
	}
	w, h := pl.Width, pl.Height
	if w <= 0 {
		w = defaultHTMLWidth
	}
	if h <= 0 {
		h = defaultHTMLHeight
	}
	return p.perform(ctx, a, pl.Target(), LabelSynthesizing, func() error {
		if err := scene.ValidateMarkup(pl.HTML); err != nil {
			return p.skip(a, err)
		}
		id := scene.NewID("web")
		if err := p.add(scene.Object{
			ID:          id,
			Kind:        scene.KindRect,
			Center:      pl.Target(),
			Width:       w,
			Height:      h,
			ScaleX:      1,
			ScaleY:      1,
			Fill:        placeholderFill,
			Stroke:      accentColor,
			StrokeWidth: 1,
			Placeholder: true,
		}); err != nil {
			return err
		}
		p.store.PutOverlay(state.OverlayElement{
			ID:     id,
			HTML:   pl.HTML,
			X:      pl.X,
			Y:      pl.Y,
			Width:  w,
			Height: h,
			ScaleX: 1,
			ScaleY: 1,
			ZIndex: overlayZIndex,
		})
		return nil
	})
}

func (p *Processor) handleEditHTML(ctx context.Context, a *action.Action) error {
	pl, err := payloadAs[action.EditHTML](a)
	if err != nil {
		return err
	}
	at, ok := p.target(a)
	if !ok {
		return nil
	}
	return p.perform(ctx, a, at, LabelRefactoring, func() error {
		if err := scene.ValidateMarkup(pl.HTML); err != nil {
			return p.skip(a, err)
		}
		if !p.store.UpdateOverlay(pl.ObjectID, func(el *state.OverlayElement) { el.HTML = pl.HTML }) {
			p.logger.Info("Edit target has no overlay, skipping.", zap.String("object_id", pl.ObjectID))
			return nil
		}
		p.flash(pl.ObjectID)
		return nil
	})
}

// flash highlights a placeholder's stroke and reverts it after EditFlash.
func (p *Processor) flash(id string) {
	setStroke := func(color string) {
		if err := p.scene.Update(id, func(o *scene.Object) { o.Stroke = color }); err == nil {
			p.scene.RequestRender()
		}
	}
	setStroke(highlightColor)
	p.clock.AfterFunc(p.cfg.EditFlash, func() { setStroke(accentColor) })
}

func (p *Processor) handleDeleteObject(ctx context.Context, a *action.Action) error {
	pl, err := payloadAs[action.DeleteObject](a)
	if err != nil {
		return err
	}
	at, ok := p.target(a)
	if !ok {
		return nil
	}
	return p.perform(ctx, a, at, LabelDeleting, func() error {
		if err := p.scene.Remove(pl.ObjectID); err != nil && !errors.Is(err, scene.ErrNotFound) {
			return err
		}
		p.store.RemoveOverlay(pl.ObjectID)
		p.scene.RequestRender()
		return nil
	})
}

// handleDragObject models click-and-drag: approach the object's center,
// press, carry the object (and its overlay) to the destination with the
// cursor in lock-step, then release.
func (p *Processor) handleDragObject(ctx context.Context, a *action.Action) error {
	pl, err := payloadAs[action.DragObject](a)
	if err != nil {
		return err
	}
	start, ok := p.target(a)
	if !ok {
		return nil
	}

	p.store.SetLabel(LabelGrabbing)
	if err := p.approach(ctx, start); err != nil {
		return err
	}

	p.store.SetPressing(true)
	defer p.store.SetPressing(false)
	if err := p.clock.Sleep(ctx, p.cfg.DragHold); err != nil {
		return err
	}

	p.store.SetLabel(LabelDragging)
	carry := motion.Segment{From: start, To: pl.Destination(), Length: p.cfg.DragDuration, Ease: motion.EaseOutQuad}
	err = p.sim.Animate(ctx, carry, func(pt geometry.Point) {
		if err := p.scene.Update(pl.ObjectID, func(o *scene.Object) { o.Center = pt }); err != nil {
			return
		}
		p.store.UpdateOverlay(pl.ObjectID, func(el *state.OverlayElement) {
			el.X, el.Y = pt.X, pt.Y
		})
		p.store.SetCursor(pt)
		p.scene.RequestRender()
	}, p.store.Halted)
	if err != nil {
		return err
	}

	p.store.SetPressing(false)
	return p.clock.Sleep(ctx, p.cfg.DragSettle)
}
