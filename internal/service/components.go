// File: internal/service/components.go
package service

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/ghost/internal/events"
	"github.com/xkilldash9x/ghost/internal/motion"
	"github.com/xkilldash9x/ghost/internal/planner"
	"github.com/xkilldash9x/ghost/internal/processor"
	"github.com/xkilldash9x/ghost/internal/render"
	"github.com/xkilldash9x/ghost/internal/scene"
	"github.com/xkilldash9x/ghost/internal/speech"
	"github.com/xkilldash9x/ghost/internal/state"
	"github.com/xkilldash9x/ghost/internal/stream"
)

// Components holds every wired piece of a running engine and owns their
// lifecycle.
type Components struct {
	Logger    *zap.Logger
	Bus       *events.Bus
	Clock     motion.Clock
	Store     *state.Store
	Canvas    *scene.Canvas
	Simulator *motion.Simulator
	Processor *processor.Processor
	Planner   planner.Planner
	Renderer  render.Renderer
	Speaker   speech.Speaker
	Bridge    *planner.Bridge
	Hub       *stream.Hub

	// closers run in reverse order on Shutdown.
	closers      []func()
	shutdownOnce sync.Once
}

func (c *Components) onShutdown(fn func()) {
	c.closers = append(c.closers, fn)
}

// Start runs the processor loop, and the stream hub when one is wired, until
// ctx is cancelled.
func (c *Components) Start(ctx context.Context) error {
	if c.Processor == nil {
		return errors.New("service: processor is not initialized")
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.Processor.Run(gctx) })
	if c.Hub != nil {
		g.Go(func() error { return c.Hub.Run(gctx) })
	}
	return g.Wait()
}

// Shutdown releases components in reverse construction order. It is safe to
// call on a partially built set and more than once.
func (c *Components) Shutdown() {
	c.shutdownOnce.Do(func() {
		logger := c.Logger
		if logger == nil {
			logger = zap.NewNop()
		}
		logger.Debug("Beginning components shutdown sequence.")
		for i := len(c.closers) - 1; i >= 0; i-- {
			c.closers[i]()
		}
		logger.Debug("Components shut down.")
	})
}
