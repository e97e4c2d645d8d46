// internal/processor/processor.go
package processor

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/ghost/internal/action"
	"github.com/xkilldash9x/ghost/internal/geometry"
	"github.com/xkilldash9x/ghost/internal/motion"
	"github.com/xkilldash9x/ghost/internal/scene"
	"github.com/xkilldash9x/ghost/internal/state"
)

// Activity labels shown while an action runs.
const (
	LabelObserving    = "Observing..."
	LabelTyping       = "Typing..."
	LabelScribbling   = "Scribbling..."
	LabelDrawing      = "Drawing Vector..."
	LabelModifying    = "Modifying Vector..."
	LabelImporting    = "Importing Asset..."
	LabelSynthesizing = "Synthesizing App..."
	LabelRefactoring  = "Refactoring Code..."
	LabelDeleting     = "Deleting..."
	LabelGrabbing     = "Grabbing..."
	LabelDragging     = "Dragging..."
)

// actionHandler runs one action end to end.
type actionHandler func(ctx context.Context, a *action.Action) error

// Processor is the single consumer of the action queue. It executes one
// action at a time: approach, pause, press, effect, verify.
type Processor struct {
	logger *zap.Logger
	cfg    Config
	store  *state.Store
	scene  scene.Scene
	sim    *motion.Simulator
	clock  motion.Clock

	rngMu sync.Mutex
	rng   *rand.Rand

	handlers map[action.Tag]actionHandler
}

// New creates a Processor. The simulator's clock drives every delay.
func New(logger *zap.Logger, cfg Config, store *state.Store, sc scene.Scene, sim *motion.Simulator) *Processor {
	cfg.normalize()
	rng := cfg.Rng
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	p := &Processor{
		logger:   logger.Named("processor"),
		cfg:      cfg,
		store:    store,
		scene:    sc,
		sim:      sim,
		clock:    sim.Clock(),
		rng:      rng,
		handlers: make(map[action.Tag]actionHandler),
	}
	p.registerHandlers()
	return p
}

func (p *Processor) registerHandlers() {
	p.handlers[action.TagMoveCursor] = p.handleMoveCursor
	p.handlers[action.TagWriteText] = p.handleWriteText
	p.handlers[action.TagDrawPath] = p.handleDrawPath
	p.handlers[action.TagCreateSVG] = p.handleCreateSVG
	p.handlers[action.TagEditSVG] = p.handleEditSVG
	p.handlers[action.TagCreateImage] = p.handleCreateImage
	p.handlers[action.TagRenderHTML] = p.handleRenderHTML
	p.handlers[action.TagEditHTML] = p.handleEditHTML
	p.handlers[action.TagDeleteObject] = p.handleDeleteObject
	p.handlers[action.TagDragObject] = p.handleDragObject
}

// Run polls the queue until ctx is done, executing actions one by one.
func (p *Processor) Run(ctx context.Context) error {
	p.logger.Info("Action processor started.", zap.Duration("poll_interval", p.cfg.PollInterval))
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Action processor stopped.")
			return nil
		case <-ticker.C:
			p.Step(ctx)
		}
	}
}

// Step claims and executes the next action if the processor is idle. It
// reports whether an action was executed.
func (p *Processor) Step(ctx context.Context) bool {
	a, actx, ok := p.store.Claim(ctx)
	if !ok {
		return false
	}

	logger := p.logger.With(zap.String("action_id", a.ID), zap.String("tag", string(a.Tag())))
	logger.Debug("Executing action.")
	started := p.clock.Now()

	err := p.execute(actx, a)

	p.store.SetPressing(false)
	p.store.SetLabel("")
	p.store.Finish(a, err)

	switch {
	case err == nil:
		logger.Debug("Action completed.", zap.Duration("elapsed", p.clock.Now().Sub(started)))
		p.store.AddLog(fmt.Sprintf("Executed %s", a.Tag()))
	case errors.Is(err, motion.ErrInterrupted) || errors.Is(err, context.Canceled):
		logger.Info("Action abandoned.", zap.Error(err))
		p.store.AddLog(fmt.Sprintf("Abandoned %s", a.Tag()))
	default:
		logger.Error("Action failed.", zap.Error(err))
		p.store.AddLog(fmt.Sprintf("Failed %s: %v", a.Tag(), err))
	}
	return true
}

// execute dispatches to the tag handler. Panics are recovered so that no
// action can stall the queue.
func (p *Processor) execute(ctx context.Context, a *action.Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Recovered from panic during action.",
				zap.String("action_id", a.ID),
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())))
			err = fmt.Errorf("panic executing %s: %v", a.Tag(), r)
		}
	}()

	handler, ok := p.handlers[a.Tag()]
	if !ok {
		return fmt.Errorf("no handler for action type %q", a.Tag())
	}
	return handler(ctx, a)
}

// perform is the standard protocol around an effect: approach the target,
// hesitate, press, apply the effect, then pause to observe the result.
func (p *Processor) perform(ctx context.Context, a *action.Action, target geometry.Point, label string, effect func() error) error {
	p.store.SetLabel(label)

	if err := p.approach(ctx, target); err != nil {
		return err
	}
	if err := p.clock.Sleep(ctx, p.hesitation(a)); err != nil {
		return err
	}
	if err := p.press(ctx); err != nil {
		return err
	}
	if err := effect(); err != nil {
		return err
	}
	return p.clock.Sleep(ctx, p.cfg.VerifyPause)
}

func (p *Processor) approach(ctx context.Context, target geometry.Point) error {
	return p.sim.MoveTo(ctx, p.store.Cursor().Position, target, p.store.SetCursor, p.store.Halted)
}

func (p *Processor) press(ctx context.Context) error {
	p.store.SetPressing(true)
	err := p.clock.Sleep(ctx, p.cfg.PressHold)
	p.store.SetPressing(false)
	return err
}

// hesitation draws the cognitive pause for an action.
func (p *Processor) hesitation(a *action.Action) time.Duration {
	d := p.cfg.MinHesitation
	if span := p.cfg.MaxHesitation - p.cfg.MinHesitation; span > 0 {
		p.rngMu.Lock()
		d += time.Duration(p.rng.Int63n(int64(span)))
		p.rngMu.Unlock()
	}
	if a.IsComplex() {
		d += p.cfg.ComplexBonus
	}
	return d
}
