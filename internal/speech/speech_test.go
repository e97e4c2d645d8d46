// internal/speech/speech_test.go
package speech

import (
	"context"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/ghost/internal/config"
)

func TestNewSelectsImplementation(t *testing.T) {
	logger := zaptest.NewLogger(t)
	assert.IsType(t, Nop{}, New(config.SpeechConfig{Enabled: false, Command: "say"}, logger))
	assert.IsType(t, &CommandSpeaker{}, New(config.SpeechConfig{Enabled: true, Command: "say"}, logger))
}

func TestNopNeverFails(t *testing.T) {
	var s Speaker = Nop{}
	assert.NoError(t, s.Speak(context.Background(), "hello"))
	s.Cancel()
}

func TestCommandSpeaker(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}
	defer goleak.VerifyNone(t)

	t.Run("cancel stops the utterance", func(t *testing.T) {
		s := NewCommandSpeaker("sleep", nil, zaptest.NewLogger(t))
		require.NoError(t, s.Speak(context.Background(), "30"))
		assert.True(t, s.Speaking())

		s.Cancel()
		assert.False(t, s.Speaking())
		s.Cancel()
	})

	t.Run("a new utterance replaces the old one", func(t *testing.T) {
		s := NewCommandSpeaker("sleep", nil, zaptest.NewLogger(t))
		require.NoError(t, s.Speak(context.Background(), "30"))
		require.NoError(t, s.Speak(context.Background(), "30"))
		assert.True(t, s.Speaking())
		s.Cancel()
		assert.False(t, s.Speaking())
	})

	t.Run("overlapping utterances leave none behind", func(t *testing.T) {
		s := NewCommandSpeaker("sleep", nil, zaptest.NewLogger(t))
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, s.Speak(context.Background(), "30"))
			}()
		}
		wg.Wait()
		assert.True(t, s.Speaking())

		// Every replaced process was reaped, so one Cancel silences all of
		// them and goleak finds no waiter still blocked on a sleep.
		s.Cancel()
		assert.False(t, s.Speaking())
	})

	t.Run("finished utterances clear themselves", func(t *testing.T) {
		s := NewCommandSpeaker("sleep", []string{"0"}, zaptest.NewLogger(t))
		require.NoError(t, s.Speak(context.Background(), "0"))
		assert.Eventually(t, func() bool { return !s.Speaking() }, 5*time.Second, 10*time.Millisecond)
	})

	t.Run("missing command is reported", func(t *testing.T) {
		s := NewCommandSpeaker("ghost-no-such-tts-binary", nil, zaptest.NewLogger(t))
		assert.Error(t, s.Speak(context.Background(), "hi"))
		assert.False(t, s.Speaking())
	})
}
