package system

import (
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/embervale/server/internal/core/sched"
	"github.com/embervale/server/internal/data"
	"github.com/embervale/server/internal/net/message"
	"github.com/embervale/server/internal/scripting"
	"github.com/embervale/server/internal/world"
)

// NpcEngine runs the per-NPC Moving ⇄ Stopped wander state machine, with
// a Returning sub-mode whenever an NPC finds itself outside its wander
// radius. All methods run on the game loop goroutine.
type NpcEngine struct {
	world   *world.State
	mapData *data.MapTable
	npcs    *data.NpcTable
	sched   *sched.Scheduler
	gw      Gateway
	scripts *scripting.Engine
	rng     *rand.Rand
	now     func() time.Time
	log     *zap.Logger
}

func NewNpcEngine(
	ws *world.State,
	mapData *data.MapTable,
	npcs *data.NpcTable,
	sc *sched.Scheduler,
	gw Gateway,
	scripts *scripting.Engine,
	rng *rand.Rand,
	now func() time.Time,
	log *zap.Logger,
) *NpcEngine {
	return &NpcEngine{
		world:   ws,
		mapData: mapData,
		npcs:    npcs,
		sched:   sc,
		gw:      gw,
		scripts: scripts,
		rng:     rng,
		now:     now,
		log:     log,
	}
}

// SpawnAll instantiates every spawn-list placement and starts its timer.
func (e *NpcEngine) SpawnAll(spawns []data.NpcSpawn) int {
	created := 0
	for _, sp := range spawns {
		tpl := e.npcs.Get(sp.NpcID)
		if tpl == nil {
			e.log.Warn("spawn references unknown npc template", zap.String("npc", sp.NpcID))
			continue
		}
		for i := 0; i < sp.Count; i++ {
			e.Spawn(tpl, world.Position{X: sp.X, Y: sp.Y})
			created++
		}
	}
	return created
}

// Spawn creates one NPC instance at the given spawn tile and arms its
// movement timer.
func (e *NpcEngine) Spawn(tpl *data.NpcTemplate, spawn world.Position) *world.NpcInfo {
	n := &world.NpcInfo{
		ID:           world.NextNpcID(),
		Type:         tpl.ID,
		Pos:          spawn,
		Spawn:        spawn,
		WanderRadius: tpl.WanderRadius,
		MoveMin:      time.Duration(tpl.MoveMinMs) * time.Millisecond,
		MoveMax:      time.Duration(tpl.MoveMaxMs) * time.Millisecond,
		StopMin:      time.Duration(tpl.StopMinMs) * time.Millisecond,
		StopMax:      time.Duration(tpl.StopMaxMs) * time.Millisecond,
		StopChance:   tpl.StopChance,
		Phase:        world.PhaseMoving,
		Dir:          world.DirNone,
	}
	e.world.AddNpc(n)
	e.gw.BroadcastAll("npc_create", message.NpcCreate{
		ID: n.ID, NpcType: n.Type, X: n.Pos.X, Y: n.Pos.Y,
	})
	e.scheduleMove(n)
	return n
}

// Remove destroys an NPC, cancelling both timers before the registry
// entry goes away. A positive respawnAfter schedules a fresh instance
// from the same template at the same spawn tile.
func (e *NpcEngine) Remove(id string, respawnAfter time.Duration) {
	n := e.world.RemoveNpc(id)
	if n == nil {
		return
	}
	e.gw.BroadcastAll("npc_remove", message.NpcRemove{ID: n.ID})

	if respawnAfter > 0 {
		tpl := e.npcs.Get(n.Type)
		spawn := n.Spawn
		if tpl != nil {
			e.sched.After(e.now(), respawnAfter, func() {
				e.Spawn(tpl, spawn)
			})
		}
	}
}

// ForcePosition relocates an NPC on behalf of an external system (combat
// luring). The wander machine notices the excursion on its next tick and
// contracts it.
func (e *NpcEngine) ForcePosition(id string, pos world.Position) {
	n := e.world.Npc(id)
	if n == nil {
		return
	}
	e.world.MoveNpc(id, pos, n.Pos.DirectionTo(pos))
	e.gw.BroadcastAll("npc_move", message.NpcMove{ID: n.ID, X: pos.X, Y: pos.Y, Dir: int(n.Dir)})
}

// SetCombat flags an NPC as owned by the combat engine. While flagged,
// its idle timers keep re-arming but take no action.
func (e *NpcEngine) SetCombat(id string, engaged bool) {
	if n := e.world.Npc(id); n != nil {
		n.InCombat = engaged
	}
}

// Snapshot returns the full NPC list for join or snapshot requests.
func (e *NpcEngine) Snapshot() []message.NpcState {
	npcs := e.world.NpcList()
	out := make([]message.NpcState, 0, len(npcs))
	for _, n := range npcs {
		out = append(out, message.NpcState{
			ID:      n.ID,
			NpcType: n.Type,
			X:       n.Pos.X,
			Y:       n.Pos.Y,
			Stopped: n.Phase == world.PhaseStopped,
		})
	}
	return out
}

func (e *NpcEngine) scheduleMove(n *world.NpcInfo) {
	id := n.ID
	n.MoveTask = e.sched.After(e.now(), e.randRange(n.MoveMin, n.MoveMax), func() {
		e.onMoveTick(id)
	})
}

// onMoveTick is the movement timer callback. Re-checks existence first:
// a cancelled-but-racing callback on a removed NPC is a normal outcome.
func (e *NpcEngine) onMoveTick(id string) {
	n := e.world.Npc(id)
	if n == nil {
		return
	}
	if n.InCombat {
		e.scheduleMove(n)
		return
	}

	if n.OutsideRadius() {
		e.returnStep(n)
		e.scheduleMove(n)
		return
	}
	if n.Phase == world.PhaseReturning {
		n.Phase = world.PhaseMoving
	}

	e.wanderStep(n)
}

// returnStep walks one tile toward spawn, greedy per-axis sign. Diagonal
// steps that would clip a wall corner fall back to the single-axis
// component that still shrinks the distance; with nothing walkable the
// tick is skipped. Stop-chance is suppressed for the whole phase, so
// the way back takes bounded time.
func (e *NpcEngine) returnStep(n *world.NpcInfo) {
	n.Phase = world.PhaseReturning

	dir := n.Pos.DirectionTo(n.Spawn)
	if dir == world.DirNone {
		return
	}
	for _, d := range e.returnCandidates(n, dir) {
		to := n.Pos.Step(d)
		if to.Manhattan(n.Spawn) >= n.Pos.Manhattan(n.Spawn) {
			continue
		}
		if !e.canStep(n.Pos, to, d) {
			continue
		}
		e.moveNpc(n, to, d)
		if !n.OutsideRadius() {
			n.Phase = world.PhaseMoving
		}
		return
	}
}

// returnCandidates orders the greedy direction first, then its single
// axis components for the diagonal case.
func (e *NpcEngine) returnCandidates(n *world.NpcInfo, dir world.Direction) []world.Direction {
	if !dir.Diagonal() {
		return []world.Direction{dir}
	}
	dx := world.DirDX[dir]
	dy := world.DirDY[dir]
	return []world.Direction{
		dir,
		n.Pos.DirectionTo(n.Pos.Add(dx, 0)),
		n.Pos.DirectionTo(n.Pos.Add(0, dy)),
	}
}

// wanderStep enumerates the 8 offsets, filters to legal survivors, and
// lets the decision script pick one and roll the stop chance.
func (e *NpcEngine) wanderStep(n *world.NpcInfo) {
	var steps []scripting.IdleStep
	var dirs []world.Direction
	for d := world.DirNorth; d <= world.DirNorthWest; d++ {
		to := n.Pos.Step(d)
		if to.Manhattan(n.Spawn) > n.WanderRadius {
			continue
		}
		if !e.canStep(n.Pos, to, d) {
			continue
		}
		if e.world.NpcAt(to, n.ID) {
			continue
		}
		steps = append(steps, scripting.IdleStep{Dir: int(d), X: to.X, Y: to.Y})
		dirs = append(dirs, d)
	}
	if len(steps) == 0 {
		// boxed in this tick; timer still re-arms
		e.scheduleMove(n)
		return
	}

	dec := e.scripts.DecideIdle(scripting.IdleContext{
		NpcType:    n.Type,
		X:          n.Pos.X,
		Y:          n.Pos.Y,
		SpawnX:     n.Spawn.X,
		SpawnY:     n.Spawn.Y,
		Radius:     n.WanderRadius,
		StopChance: n.StopChance,
		Roll:       e.rng.Float64(),
		StopRoll:   e.rng.Float64(),
		Steps:      steps,
	})

	d := dirs[dec.StepIndex]
	e.moveNpc(n, n.Pos.Step(d), d)

	if dec.Stop {
		e.enterStopped(n)
		return
	}
	e.scheduleMove(n)
}

func (e *NpcEngine) moveNpc(n *world.NpcInfo, to world.Position, d world.Direction) {
	e.world.MoveNpc(n.ID, to, d)
	e.gw.BroadcastAll("npc_move", message.NpcMove{ID: n.ID, X: to.X, Y: to.Y, Dir: int(d)})
}

func (e *NpcEngine) enterStopped(n *world.NpcInfo) {
	n.MoveTask = nil // the timer that brought us here already fired
	n.Phase = world.PhaseStopped
	e.gw.BroadcastAll("npc_stop", message.NpcStop{ID: n.ID})

	id := n.ID
	n.ResumeTask = e.sched.After(e.now(), e.randRange(n.StopMin, n.StopMax), func() {
		e.onResume(id)
	})
}

func (e *NpcEngine) onResume(id string) {
	n := e.world.Npc(id)
	if n == nil {
		return
	}
	n.ResumeTask = nil
	n.Phase = world.PhaseMoving
	e.gw.BroadcastAll("npc_resume", message.NpcResume{ID: n.ID})
	e.scheduleMove(n)
}

// canStep applies the walkability and diagonal-clip rules: a diagonal
// move requires both orthogonal neighbor tiles to be independently
// walkable, so NPCs cannot cut through wall corners.
func (e *NpcEngine) canStep(from, to world.Position, d world.Direction) bool {
	if !e.mapData.IsWalkablePos(to) {
		return false
	}
	if d.Diagonal() {
		if !e.mapData.IsWalkable(from.X, to.Y) || !e.mapData.IsWalkable(to.X, from.Y) {
			return false
		}
	}
	return true
}

func (e *NpcEngine) randRange(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(e.rng.Int63n(int64(max-min)))
}
