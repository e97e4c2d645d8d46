// internal/planner/script_test.go
package planner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/ghost/internal/config"
)

const recorded = `{
  "responses": [
    {"text": "Sketching the plan.", "calls": [
      {"name": "write_text", "args": {"text": "Step 1", "x": 100, "y": 80}},
      {"name": "draw_path", "args": {"pathSvg": "M 0 0 L 40 0", "x": 100, "y": 120}}
    ]},
    {"calls": [{"name": "delete_object", "args": {"objectId": "text_1"}}]}
  ]
}`

func TestParseScript(t *testing.T) {
	t.Run("wrapped", func(t *testing.T) {
		resps, err := ParseScript([]byte(recorded))
		require.NoError(t, err)
		require.Len(t, resps, 2)
		assert.Equal(t, "Sketching the plan.", resps[0].Text)
		require.Len(t, resps[0].Calls, 2)
		assert.Equal(t, ToolDrawPath, resps[0].Calls[1].Name)
		assert.EqualValues(t, 120, resps[0].Calls[1].Args["y"])
	})

	t.Run("array", func(t *testing.T) {
		resps, err := ParseScript([]byte(` [{"text":"a"},{"text":"b"}]`))
		require.NoError(t, err)
		assert.Len(t, resps, 2)
	})

	t.Run("single", func(t *testing.T) {
		resps, err := ParseScript([]byte(`{"text":"only","calls":[{"name":"move_cursor","args":{"x":1,"y":2}}]}`))
		require.NoError(t, err)
		require.Len(t, resps, 1)
		assert.Equal(t, "only", resps[0].Text)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ParseScript([]byte("{not json"))
		assert.Error(t, err)
		_, err = ParseScript([]byte("   "))
		assert.Error(t, err)
	})
}

func TestScriptedPlanner(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.json")
	require.NoError(t, os.WriteFile(path, []byte(recorded), 0o600))

	p, err := LoadScript(path)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Remaining())

	ctx := context.Background()
	first, err := p.Plan(ctx, Request{Instruction: "one"})
	require.NoError(t, err)
	assert.Len(t, first.Calls, 2)

	second, err := p.Plan(ctx, Request{Instruction: "two"})
	require.NoError(t, err)
	assert.Equal(t, ToolDeleteObject, second.Calls[0].Name)

	_, err = p.Plan(ctx, Request{Instruction: "three"})
	assert.ErrorIs(t, err, ErrScriptExhausted)

	reqs := p.Requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, "two", reqs[1].Instruction)

	_, err = LoadScript(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestScriptedPlannerHonoursContext(t *testing.T) {
	p := NewScriptedPlanner(Response{Text: "x"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Plan(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, p.Remaining())
}

func TestFactory(t *testing.T) {
	logger := zaptest.NewLogger(t)
	ctx := context.Background()

	_, err := New(ctx, config.PlannerConfig{Provider: config.ProviderScript}, logger)
	assert.ErrorContains(t, err, "script_path is required")

	_, err = New(ctx, config.PlannerConfig{Provider: "oracle"}, logger)
	assert.ErrorContains(t, err, "unsupported planner provider")

	_, err = New(ctx, config.PlannerConfig{Provider: config.ProviderGemini, Model: "m"}, logger)
	assert.ErrorContains(t, err, "API key is required")

	path := filepath.Join(t.TempDir(), "plan.json")
	require.NoError(t, os.WriteFile(path, []byte(recorded), 0o600))
	p, err := New(ctx, config.PlannerConfig{Provider: config.ProviderScript, ScriptPath: path}, logger)
	require.NoError(t, err)
	assert.IsType(t, &ScriptedPlanner{}, p)
}
