// internal/speech/speech.go
package speech

import (
	"context"
	"fmt"
	"os/exec"
	"sync"

	"go.uber.org/zap"

	"github.com/xkilldash9x/ghost/internal/config"
)

// Speaker voices short replies. Implementations are best-effort: callers
// ignore Speak errors.
type Speaker interface {
	// Speak starts an utterance, cancelling any still in progress. It does
	// not wait for the utterance to finish.
	Speak(ctx context.Context, text string) error
	// Cancel stops the current utterance, if any.
	Cancel()
}

// Nop is the speaker used when speech is disabled.
type Nop struct{}

func (Nop) Speak(context.Context, string) error { return nil }
func (Nop) Cancel()                             {}

// CommandSpeaker runs an external text-to-speech command with the text as
// its final argument.
type CommandSpeaker struct {
	name   string
	args   []string
	logger *zap.Logger

	// speakMu serializes Speak so an utterance is never replaced before
	// it is recorded as current.
	speakMu sync.Mutex
	mu      sync.Mutex
	current *exec.Cmd
	done    chan struct{}
}

// New returns the speaker selected by cfg.
func New(cfg config.SpeechConfig, logger *zap.Logger) Speaker {
	if !cfg.Enabled {
		return Nop{}
	}
	return NewCommandSpeaker(cfg.Command, cfg.Args, logger)
}

func NewCommandSpeaker(name string, args []string, logger *zap.Logger) *CommandSpeaker {
	return &CommandSpeaker{
		name:   name,
		args:   append([]string(nil), args...),
		logger: logger.Named("speech"),
	}
}

func (s *CommandSpeaker) Speak(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.speakMu.Lock()
	defer s.speakMu.Unlock()
	s.Cancel()

	cmd := exec.Command(s.name, append(append([]string(nil), s.args...), text)...)
	done := make(chan struct{})
	s.mu.Lock()
	if err := cmd.Start(); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("starting %s: %w", s.name, err)
	}
	s.current, s.done = cmd, done
	s.mu.Unlock()

	go func() {
		defer close(done)
		if err := cmd.Wait(); err != nil {
			s.logger.Debug("Utterance ended", zap.Error(err))
		}
		s.mu.Lock()
		if s.current == cmd {
			s.current, s.done = nil, nil
		}
		s.mu.Unlock()
	}()
	return nil
}

// Cancel kills the running utterance and waits for it to be reaped.
func (s *CommandSpeaker) Cancel() {
	s.mu.Lock()
	cmd, done := s.current, s.done
	s.current, s.done = nil, nil
	s.mu.Unlock()
	if cmd == nil {
		return
	}
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
	<-done
}

// Speaking reports whether an utterance is in progress.
func (s *CommandSpeaker) Speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}
