// File: cmd/session.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"

	"github.com/xkilldash9x/ghost/internal/observability"
	"github.com/xkilldash9x/ghost/internal/planner"
	"github.com/xkilldash9x/ghost/internal/service"
	"github.com/xkilldash9x/ghost/internal/state"
)

const idlePoll = 50 * time.Millisecond

// session is a running engine bound to one command invocation.
type session struct {
	c      *service.Components
	out    io.Writer
	logger *zap.Logger
	cancel context.CancelFunc
	done   chan error
}

// build wires the engine from the resolved configuration.
func (a *app) build(ctx context.Context, withStream bool) (*service.Components, error) {
	opts := a.options
	opts.WithStream = withStream
	return a.newFactory(opts).Create(ctx, a.cfg, observability.GetLogger())
}

// startSession builds the engine and starts its processor loop.
func (a *app) startSession(ctx context.Context, out io.Writer) (*session, error) {
	c, err := a.build(ctx, false)
	if err != nil {
		return nil, err
	}
	runCtx, cancel := context.WithCancel(ctx)
	s := &session{c: c, out: out, logger: observability.GetLogger(), cancel: cancel, done: make(chan error, 1)}
	go func() { s.done <- c.Start(runCtx) }()
	return s, nil
}

// submit hands an instruction to the planning bridge and prints the reply.
func (s *session) submit(ctx context.Context, instruction string) error {
	fmt.Fprintf(s.out, "you> %s\n", instruction)
	out, err := s.c.Bridge.Submit(ctx, instruction)
	if err != nil {
		return err
	}
	if errors.Is(out.Err, planner.ErrAborted) {
		fmt.Fprintln(s.out, "ghost> (aborted)")
		return nil
	}
	fmt.Fprintf(s.out, "ghost> %s\n", out.Reply)
	if out.Err != nil {
		s.logger.Warn("Planning round-trip failed.", zap.Error(out.Err))
	}
	if n := len(out.Enqueued); n > 0 || out.Dropped > 0 {
		fmt.Fprintf(s.out, "       %d action(s) queued, %d dropped\n", n, out.Dropped)
	}
	return nil
}

// waitIdle blocks until every queued action has finished.
func (s *session) waitIdle(ctx context.Context) error {
	ticker := time.NewTicker(idlePoll)
	defer ticker.Stop()
	for !s.c.Store.Halted() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-s.done:
			// The processor only exits early on failure; put it back for close.
			s.done <- err
			return errors.New("processor stopped unexpectedly")
		case <-ticker.C:
		}
	}
	return nil
}

// summary prints the scene listing the planner would see.
func (s *session) summary() {
	listing := planner.Describe(s.c.Canvas.Objects(), s.c.Store.Overlays())
	if len(listing) == 0 {
		fmt.Fprintln(s.out, "scene: empty")
		return
	}
	fmt.Fprintf(s.out, "scene: %s\n", planner.Summarize(listing))
}

// close stops the processor and releases every component.
func (s *session) close() error {
	s.cancel()
	err := <-s.done
	s.c.Shutdown()
	return err
}

// loadReference reads an image file for attachment to the next planning
// request.
func loadReference(path string) (*state.ReferenceImage, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("could not expand reference path %q: %w", path, err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("could not read reference image: %w", err)
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return nil, fmt.Errorf("reference %q is not an image (detected %s)", path, mime)
	}
	return &state.ReferenceImage{Data: data, MIMEType: mime}, nil
}
