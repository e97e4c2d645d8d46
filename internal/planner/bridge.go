// internal/planner/bridge.go
package planner

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/xkilldash9x/ghost/internal/action"
	"github.com/xkilldash9x/ghost/internal/render"
	"github.com/xkilldash9x/ghost/internal/scene"
	"github.com/xkilldash9x/ghost/internal/speech"
	"github.com/xkilldash9x/ghost/internal/state"
)

// User-facing replies.
const (
	ReplyAcknowledged = "Understood. Re-encoding parameters."
	ReplyNoCommand    = "No specific command detected."
	ReplyLinkError    = "Core link error. System reset."
)

// Outcome summarizes one round-trip.
type Outcome struct {
	Reply    string
	Enqueued []*action.Action
	// Dropped counts tool calls that were unknown or undecodable.
	Dropped int
	// Err is the failure behind ReplyLinkError, if any.
	Err error
}

// Bridge runs planning round-trips: capture, plan, reply, enqueue.
type Bridge struct {
	logger   *zap.Logger
	store    *state.Store
	scene    scene.Scene
	renderer render.Renderer
	planner  Planner
	speaker  speech.Speaker
}

// NewBridge wires a bridge. A nil speaker disables speech.
func NewBridge(logger *zap.Logger, store *state.Store, sc scene.Scene, r render.Renderer, p Planner, sp speech.Speaker) *Bridge {
	if sp == nil {
		sp = speech.Nop{}
	}
	return &Bridge{
		logger:   logger.Named("bridge"),
		store:    store,
		scene:    sc,
		renderer: r,
		planner:  p,
		speaker:  sp,
	}
}

// Submit runs one round-trip for instruction. Only one may be outstanding;
// a second concurrent call returns ErrBusy. Planner failures do not
// return an error: they are reported through the store and Outcome.Err.
// An abort while the planner is working cancels the round-trip, and its
// result is discarded with Outcome.Err set to ErrAborted.
func (b *Bridge) Submit(ctx context.Context, instruction string) (Outcome, error) {
	ctx, token, ok := b.store.BeginThinking(ctx)
	if !ok {
		return Outcome{}, ErrBusy
	}
	defer b.store.EndThinking(token)

	b.store.AddMessage(state.RoleUser, instruction)
	b.store.AddLog(fmt.Sprintf("Neural scan initiated for: %q", instruction))

	actions, reply, dropped, err := b.roundTrip(ctx, instruction)
	if !b.store.OwnsThinking(token) {
		b.logger.Info("Discarding aborted planning round-trip", zap.String("instruction", instruction))
		return Outcome{Err: ErrAborted}, nil
	}
	if err != nil {
		b.logger.Error("Planning round-trip failed", zap.String("instruction", instruction), zap.Error(err))
		b.publishReply(ctx, ReplyLinkError)
		return Outcome{Reply: ReplyLinkError, Err: err}, nil
	}

	b.publishReply(ctx, reply)
	// One atomic burst so the processor never sees a partial plan.
	if !b.store.EnqueuePlan(token, actions...) {
		b.logger.Info("Planning round-trip aborted before enqueue", zap.String("instruction", instruction))
		return Outcome{Reply: reply, Dropped: dropped, Err: ErrAborted}, nil
	}
	b.logger.Info("Planning round-trip complete",
		zap.Int("enqueued", len(actions)), zap.Int("dropped", dropped))
	return Outcome{Reply: reply, Enqueued: actions, Dropped: dropped}, nil
}

// roundTrip does everything that can fail, without touching the queue.
func (b *Bridge) roundTrip(ctx context.Context, instruction string) (actions []*action.Action, reply string, dropped int, err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Panic during planning round-trip", zap.Any("panic", r), zap.String("stack", string(debug.Stack())))
			actions, reply, dropped = nil, "", 0
			err = fmt.Errorf("panic during planning: %v", r)
		}
	}()

	// The snapshot is copied here; later pans do not affect this round-trip.
	snapshot := b.scene.Viewport()
	inverse, err := snapshot.Invert()
	if err != nil {
		return nil, "", 0, fmt.Errorf("viewport snapshot: %w", err)
	}

	overlays := b.store.Overlays()
	frame, err := render.Capture(b.scene, overlays, snapshot)
	if err != nil {
		return nil, "", 0, err
	}
	image, err := b.renderer.Render(ctx, frame)
	if err != nil {
		return nil, "", 0, fmt.Errorf("capturing viewport: %w", err)
	}

	resp, err := b.planner.Plan(ctx, Request{
		Instruction: instruction,
		Image:       image,
		Objects:     Describe(frame.Objects, overlays),
		Width:       frame.Width,
		Height:      frame.Height,
		Reference:   b.store.LastUploadedImage(),
	})
	if err != nil {
		return nil, "", 0, err
	}
	if resp == nil {
		return nil, "", 0, errors.New("planner returned no response")
	}

	for _, call := range resp.Calls {
		p, err := Decode(call, inverse.Apply)
		if err != nil {
			dropped++
			level := b.logger.Warn
			if errors.Is(err, ErrUnknownTool) {
				level = b.logger.Info
			}
			level("Dropping tool call", zap.String("tool", call.Name), zap.Error(err))
			continue
		}
		actions = append(actions, action.New(p))
	}

	reply = resp.Text
	if reply == "" {
		// The default depends on whether the planner proposed anything,
		// not on how many calls survived decoding.
		reply = ReplyNoCommand
		if len(resp.Calls) > 0 {
			reply = ReplyAcknowledged
		}
	}
	return actions, reply, dropped, nil
}

func (b *Bridge) publishReply(ctx context.Context, text string) {
	b.store.AddMessage(state.RoleModel, text)
	b.store.SetMessage(text)
	if err := b.speaker.Speak(ctx, text); err != nil {
		b.logger.Debug("Speech unavailable", zap.Error(err))
	}
}
