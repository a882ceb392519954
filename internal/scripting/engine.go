package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for game decision logic.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given
// directory tree. Missing subdirectories are skipped.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	for _, sub := range []string{"core", "ai", "economy"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}

	return e, nil
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	if e != nil && e.vm != nil {
		e.vm.Close()
	}
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// IdleStep is one pre-validated step an idle NPC may take. The engine
// only chooses among steps Go has already checked for walkability and
// occupancy.
type IdleStep struct {
	Dir int
	X   int
	Y   int
}

// IdleContext is the pre-packed state handed to the idle decision script.
type IdleContext struct {
	NpcType    string
	X, Y       int
	SpawnX     int
	SpawnY     int
	Radius     int
	StopChance float64
	Roll       float64 // uniform [0,1), picks the step
	StopRoll   float64 // uniform [0,1), rolled against stop chance after the step
	Steps      []IdleStep
}

// IdleDecision is what the script (or the fallback) decided: which step
// to take now, and whether to transition to Stopped afterwards.
type IdleDecision struct {
	Stop      bool
	StepIndex int // index into ctx.Steps
}

// DecideIdle calls the Lua npc_idle_decide function. When the script is
// missing or misbehaves it falls back to a deterministic Go choice so
// wandering never stalls on script trouble.
func (e *Engine) DecideIdle(ctx IdleContext) IdleDecision {
	if e == nil || e.vm == nil {
		return fallbackIdle(ctx)
	}
	fn := e.vm.GetGlobal("npc_idle_decide")
	if fn == lua.LNil {
		return fallbackIdle(ctx)
	}

	t := e.vm.NewTable()
	t.RawSetString("npc_type", lua.LString(ctx.NpcType))
	t.RawSetString("x", lua.LNumber(ctx.X))
	t.RawSetString("y", lua.LNumber(ctx.Y))
	t.RawSetString("spawn_x", lua.LNumber(ctx.SpawnX))
	t.RawSetString("spawn_y", lua.LNumber(ctx.SpawnY))
	t.RawSetString("radius", lua.LNumber(ctx.Radius))
	t.RawSetString("stop_chance", lua.LNumber(ctx.StopChance))
	t.RawSetString("roll", lua.LNumber(ctx.Roll))
	t.RawSetString("stop_roll", lua.LNumber(ctx.StopRoll))

	steps := e.vm.NewTable()
	for i, st := range ctx.Steps {
		row := e.vm.NewTable()
		row.RawSetString("dir", lua.LNumber(st.Dir))
		row.RawSetString("x", lua.LNumber(st.X))
		row.RawSetString("y", lua.LNumber(st.Y))
		steps.RawSetInt(i+1, row)
	}
	t.RawSetString("steps", steps)

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua npc_idle_decide error", zap.Error(err))
		return fallbackIdle(ctx)
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		e.log.Error("lua npc_idle_decide returned non-table")
		return fallbackIdle(ctx)
	}

	dec := IdleDecision{
		Stop:      rt.RawGetString("stop") == lua.LTrue,
		StepIndex: int(lua.LVAsNumber(rt.RawGetString("step"))) - 1,
	}
	if dec.StepIndex < 0 || dec.StepIndex >= len(ctx.Steps) {
		return fallbackIdle(ctx)
	}
	return dec
}

// fallbackIdle mirrors the default script: take a roll-weighted step
// among the candidates, then roll the stop chance.
func fallbackIdle(ctx IdleContext) IdleDecision {
	idx := int(ctx.Roll * float64(len(ctx.Steps)))
	if idx >= len(ctx.Steps) {
		idx = len(ctx.Steps) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return IdleDecision{
		Stop:      ctx.StopRoll < ctx.StopChance,
		StepIndex: idx,
	}
}
