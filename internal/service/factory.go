// File: internal/service/factory.go
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/ghost/internal/config"
	"github.com/xkilldash9x/ghost/internal/events"
	"github.com/xkilldash9x/ghost/internal/motion"
	"github.com/xkilldash9x/ghost/internal/planner"
	"github.com/xkilldash9x/ghost/internal/processor"
	"github.com/xkilldash9x/ghost/internal/scene"
	"github.com/xkilldash9x/ghost/internal/state"
	"github.com/xkilldash9x/ghost/internal/stream"
)

// ComponentFactory builds the engine. Commands depend on the interface so
// they can be tested against a stub.
type ComponentFactory interface {
	Create(ctx context.Context, cfg config.Interface, logger *zap.Logger) (*Components, error)
}

// Options adjust what a factory builds.
type Options struct {
	// Clock overrides the wall clock, typically with a manual clock in tests.
	Clock motion.Clock
	// WithStream wires the WebSocket hub.
	WithStream bool
}

type concreteFactory struct {
	opts Options
}

// NewComponentFactory creates the production factory.
func NewComponentFactory(opts Options) ComponentFactory {
	return &concreteFactory{opts: opts}
}

// processorConfig translates the processor section into processor timings.
func processorConfig(cfg config.ProcessorConfig) processor.Config {
	return processor.Config{
		PollInterval:  cfg.PollInterval,
		MinHesitation: cfg.MinHesitation,
		MaxHesitation: cfg.MaxHesitation,
		ComplexBonus:  cfg.ComplexBonus,
		PressHold:     cfg.PressHold,
		VerifyPause:   cfg.VerifyPause,
		LookPause:     cfg.LookPause,
		DragHold:      cfg.DragHold,
		DragDuration:  cfg.DragDuration,
		DragSettle:    cfg.DragSettle,
		EditFlash:     cfg.EditFlash,
	}
}

// motionConfig translates the motion section into a trajectory profile.
func motionConfig(cfg config.MotionConfig) motion.Config {
	return motion.Config{
		BaseDuration:    cfg.BaseDuration,
		PerPixel:        cfg.PerPixel,
		MinDuration:     cfg.MinDuration,
		MaxDuration:     cfg.MaxDuration,
		ArcFactor:       cfg.ArcFactor,
		ArcCap:          cfg.ArcCap,
		FrameInterval:   cfg.FrameInterval,
		TremorAmplitude: cfg.TremorAmplitude,
	}
}

// Create wires every component. On failure the partially built set is shut
// down before returning.
func (f *concreteFactory) Create(ctx context.Context, cfg config.Interface, logger *zap.Logger) (*Components, error) {
	c := &Components{Logger: logger}

	var initializationErr error
	defer func() {
		if initializationErr != nil {
			logger.Warn("Initialization failed, shutting down partially created components.", zap.Error(initializationErr))
			c.Shutdown()
		}
	}()

	// 1. Event bus and clock.
	c.Bus = events.NewBus(logger, cfg.Stream().BufferSize)
	c.onShutdown(c.Bus.Shutdown)
	c.Clock = f.opts.Clock
	if c.Clock == nil {
		c.Clock = motion.NewRealClock()
	}

	// 2. State container.
	c.Store = state.NewStore(logger, c.Bus, c.Clock)
	c.onShutdown(c.Store.Close)

	// 3. Scene. The store mirrors the viewport for presentation layers.
	canvasCfg := cfg.Canvas()
	c.Canvas = scene.NewCanvas(float64(canvasCfg.Width), float64(canvasCfg.Height))
	c.Canvas.OnViewportChange(c.Store.SetViewport)
	c.Store.SetViewport(c.Canvas.Viewport())
	logger.Debug("Scene initialized.", zap.Int("width", canvasCfg.Width), zap.Int("height", canvasCfg.Height))

	// 4. Motion and processor.
	c.Simulator = motion.NewSimulator(motionConfig(cfg.Motion()), c.Clock, logger)
	c.Processor = processor.New(logger, processorConfig(cfg.Processor()), c.Store, c.Canvas, c.Simulator)
	logger.Debug("Action processor initialized.")

	// 5. Speech.
	c.Speaker = InitializeSpeaker(cfg.Speech(), logger)
	c.Store.SetSpeaker(c.Speaker)
	c.onShutdown(c.Speaker.Cancel)

	// 6. Planner.
	p, err := planner.New(ctx, cfg.Planner(), logger)
	if err != nil {
		initializationErr = fmt.Errorf("failed to initialize planner: %w", err)
		return nil, initializationErr
	}
	c.Planner = p
	logger.Debug("Planner initialized.", zap.String("provider", cfg.Planner().Provider))

	// 7. Viewport renderer.
	r, closeRenderer, err := InitializeRenderer(ctx, cfg.Render(), logger)
	if err != nil {
		initializationErr = fmt.Errorf("failed to initialize renderer: %w", err)
		return nil, initializationErr
	}
	c.Renderer = r
	if closeRenderer != nil {
		c.onShutdown(closeRenderer)
	}
	logger.Debug("Renderer initialized.", zap.String("engine", cfg.Render().Engine))

	// 8. Planning bridge.
	c.Bridge = planner.NewBridge(logger, c.Store, c.Canvas, c.Renderer, c.Planner, c.Speaker)

	// 9. Presentation stream.
	if f.opts.WithStream {
		c.Hub = stream.NewHub(logger, c.Bus, c.Store, c.Canvas, c.Bridge, cfg.Stream().BufferSize)
		logger.Debug("Stream hub initialized.")
	}

	logger.Info("Engine components initialized.")
	return c, nil
}
