// File: internal/service/factory_test.go
package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/ghost/internal/config"
	"github.com/xkilldash9x/ghost/internal/geometry"
	"github.com/xkilldash9x/ghost/internal/motion"
	"github.com/xkilldash9x/ghost/internal/processor"
	"github.com/xkilldash9x/ghost/internal/render"
	"github.com/xkilldash9x/ghost/internal/scene"
	"github.com/xkilldash9x/ghost/internal/speech"
)

const script = `{"responses": [
  {"text": "Writing.", "calls": [{"name": "write_text", "args": {"text": "Hello", "x": 200, "y": 100}}]}
]}`

func scriptedConfig(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.json")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o600))
	cfg := config.NewDefaultConfig()
	cfg.SetPlannerProvider(config.ProviderScript)
	cfg.SetPlannerScriptPath(path)
	return cfg
}

func TestCreate_ScriptedEngineEndToEnd(t *testing.T) {
	logger := zaptest.NewLogger(t)
	clock := motion.NewManualClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	f := NewComponentFactory(Options{Clock: clock, WithStream: true})

	c, err := f.Create(context.Background(), scriptedConfig(t), logger)
	require.NoError(t, err)
	defer c.Shutdown()

	assert.NotNil(t, c.Hub)
	assert.IsType(t, &render.RasterRenderer{}, c.Renderer)
	assert.Equal(t, speech.Nop{}, c.Speaker)

	// Viewport changes are mirrored into the store.
	c.Canvas.SetViewport(geometry.NewViewport(2, 0, 0))
	assert.Equal(t, geometry.NewViewport(2, 0, 0), c.Store.Viewport())

	out, err := c.Bridge.Submit(context.Background(), "say hello")
	require.NoError(t, err)
	require.NoError(t, out.Err)
	assert.Equal(t, "Writing.", out.Reply)
	require.Len(t, out.Enqueued, 1)

	require.True(t, c.Processor.Step(context.Background()))
	objs := c.Canvas.Objects()
	require.Len(t, objs, 1)
	assert.Equal(t, scene.KindText, objs[0].Kind)
	assert.Equal(t, "Hello", objs[0].Text)
	// Screen (200,100) at zoom 2 is world (100,50).
	assert.Equal(t, geometry.Pt(100, 50), objs[0].Center)
	assert.Greater(t, clock.Slept(), time.Duration(0))
}

func TestCreate_Failures(t *testing.T) {
	logger := zaptest.NewLogger(t)
	f := NewComponentFactory(Options{})

	t.Run("gemini without key", func(t *testing.T) {
		cfg := config.NewDefaultConfig()
		cfg.PlannerCfg.APIKey = ""
		_, err := f.Create(context.Background(), cfg, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to initialize planner")
	})

	t.Run("missing script", func(t *testing.T) {
		cfg := config.NewDefaultConfig()
		cfg.SetPlannerProvider(config.ProviderScript)
		cfg.SetPlannerScriptPath(filepath.Join(t.TempDir(), "absent.json"))
		_, err := f.Create(context.Background(), cfg, logger)
		require.Error(t, err)
	})

	t.Run("unknown render engine", func(t *testing.T) {
		cfg := scriptedConfig(t)
		cfg.RenderCfg.Engine = "vulkan"
		_, err := f.Create(context.Background(), cfg, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported render engine: vulkan")
	})
}

func TestComponents_StartAndShutdown(t *testing.T) {
	defer goleak.VerifyNone(t)
	logger := zaptest.NewLogger(t)

	c, err := NewComponentFactory(Options{WithStream: true}).Create(context.Background(), scriptedConfig(t), logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop")
	}

	c.Shutdown()
	c.Shutdown()
}

func TestComponents_StartRequiresProcessor(t *testing.T) {
	c := &Components{}
	assert.Error(t, c.Start(context.Background()))
	c.Shutdown()
}

func TestConfigTranslation(t *testing.T) {
	cfg := config.NewDefaultConfig()

	want := processor.DefaultConfig()
	if diff := cmp.Diff(want, processorConfig(cfg.Processor())); diff != "" {
		t.Errorf("processor config mismatch (-want +got):\n%s", diff)
	}

	m := motionConfig(cfg.Motion())
	assert.Equal(t, cfg.Motion().BaseDuration, m.BaseDuration)
	assert.Equal(t, cfg.Motion().FrameInterval, m.FrameInterval)
	assert.Equal(t, cfg.Motion().ArcCap, m.ArcCap)
	assert.Nil(t, m.Rng)
}

func TestInitializeSpeaker(t *testing.T) {
	logger := zaptest.NewLogger(t)

	assert.Equal(t, speech.Nop{}, InitializeSpeaker(config.SpeechConfig{}, logger))
	assert.Equal(t, speech.Nop{}, InitializeSpeaker(config.SpeechConfig{Enabled: true, Command: "no-such-voice-binary"}, logger))

	sp := InitializeSpeaker(config.SpeechConfig{Enabled: true, Command: "true"}, logger)
	assert.IsType(t, &speech.CommandSpeaker{}, sp)
}
