package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func engineWithScript(t *testing.T, body string) *Engine {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "ai"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ai", "idle.lua"), []byte(body), 0o644))
	eng, err := NewEngine(dir, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(eng.Close)
	return eng
}

func sampleCtx(roll, stopRoll float64) IdleContext {
	return IdleContext{
		NpcType:    "rabbit",
		X:          5, Y: 5,
		SpawnX:     5, SpawnY: 5,
		Radius:     3,
		StopChance: 0.5,
		Roll:       roll,
		StopRoll:   stopRoll,
		Steps: []IdleStep{
			{Dir: 0, X: 5, Y: 4},
			{Dir: 2, X: 6, Y: 5},
			{Dir: 4, X: 5, Y: 6},
		},
	}
}

func TestDecideIdleCallsScript(t *testing.T) {
	eng := engineWithScript(t, `
function npc_idle_decide(ctx)
  -- always take the last candidate, stop when told to
  return { step = #ctx.steps, stop = ctx.stop_roll < ctx.stop_chance }
end
`)
	dec := eng.DecideIdle(sampleCtx(0.0, 0.1))
	assert.Equal(t, 2, dec.StepIndex)
	assert.True(t, dec.Stop)

	dec = eng.DecideIdle(sampleCtx(0.0, 0.9))
	assert.False(t, dec.Stop)
}

func TestScriptSeesContextFields(t *testing.T) {
	eng := engineWithScript(t, `
function npc_idle_decide(ctx)
  -- pick step 2 only when the context arrived intact
  if ctx.npc_type == "rabbit" and ctx.radius == 3 and ctx.steps[2].x == 6 then
    return { step = 2, stop = false }
  end
  return { step = 1, stop = false }
end
`)
	dec := eng.DecideIdle(sampleCtx(0.0, 0.0))
	assert.Equal(t, 1, dec.StepIndex)
}

func TestFallbackWhenScriptMissing(t *testing.T) {
	eng, err := NewEngine(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	defer eng.Close()

	// Roll 0.34 over 3 candidates lands on index 1.
	dec := eng.DecideIdle(sampleCtx(0.34, 0.6))
	assert.Equal(t, 1, dec.StepIndex)
	assert.False(t, dec.Stop)

	dec = eng.DecideIdle(sampleCtx(0.99, 0.2))
	assert.Equal(t, 2, dec.StepIndex)
	assert.True(t, dec.Stop)
}

func TestFallbackWhenScriptMisbehaves(t *testing.T) {
	for name, body := range map[string]string{
		"error":      `function npc_idle_decide(ctx) error("nope") end`,
		"non-table":  `function npc_idle_decide(ctx) return 7 end`,
		"bad index":  `function npc_idle_decide(ctx) return { step = 99, stop = false } end`,
		"zero index": `function npc_idle_decide(ctx) return { step = 0, stop = false } end`,
	} {
		t.Run(name, func(t *testing.T) {
			eng := engineWithScript(t, body)
			dec := eng.DecideIdle(sampleCtx(0.0, 0.9))
			assert.Equal(t, 0, dec.StepIndex, "fallback decision")
			assert.False(t, dec.Stop)
		})
	}
}

func TestBundledIdleScriptMatchesFallback(t *testing.T) {
	// The shipped script and the Go fallback must agree, so script
	// hot-removal does not change NPC behavior.
	raw, err := os.ReadFile("../../scripts/ai/idle.lua")
	require.NoError(t, err)
	eng := engineWithScript(t, string(raw))

	for _, roll := range []float64{0.0, 0.33, 0.5, 0.99} {
		for _, stopRoll := range []float64{0.1, 0.49, 0.51, 0.9} {
			ctx := sampleCtx(roll, stopRoll)
			got := eng.DecideIdle(ctx)
			want := fallbackIdle(ctx)
			assert.Equal(t, want, got, "roll=%v stopRoll=%v", roll, stopRoll)
		}
	}
}
