package world

import (
	"time"

	"github.com/embervale/server/internal/core/sched"
)

// NpcPhase is the NPC movement state machine phase.
type NpcPhase int

const (
	// PhaseMoving — movement timer armed, wandering inside the radius.
	PhaseMoving NpcPhase = iota
	// PhaseStopped — movement suspended, resume timer armed.
	PhaseStopped
	// PhaseReturning — outside the wander radius, stepping back toward
	// spawn with stop-chance suppressed. A sub-mode of Moving: the
	// movement timer is the one armed.
	PhaseReturning
)

func (p NpcPhase) String() string {
	switch p {
	case PhaseMoving:
		return "moving"
	case PhaseStopped:
		return "stopped"
	case PhaseReturning:
		return "returning"
	}
	return "unknown"
}

// NpcInfo holds runtime state for one NPC instance. Accessed only from
// the game loop goroutine — no locks.
type NpcInfo struct {
	ID    string
	Type  string // template id
	Pos   Position
	Spawn Position

	WanderRadius int
	MoveMin      time.Duration
	MoveMax      time.Duration
	StopMin      time.Duration
	StopMax      time.Duration
	StopChance   float64

	Phase NpcPhase
	Dir   Direction

	// InCombat excludes the NPC from idle AI entirely; the combat engine
	// owns its positioning while engaged.
	InCombat bool

	// Exactly one of these is pending at a time: MoveTask while
	// Moving/Returning, ResumeTask while Stopped. Removal cancels both.
	MoveTask   *sched.Handle
	ResumeTask *sched.Handle
}

// OutsideRadius reports whether the NPC has strayed past its wander
// radius (Manhattan distance from spawn).
func (n *NpcInfo) OutsideRadius() bool {
	return n.Pos.Manhattan(n.Spawn) > n.WanderRadius
}

// CancelTimers cancels both scheduled tasks unconditionally. Must be
// called before the registry entry is erased so no stale callback acts
// on a removed NPC.
func (n *NpcInfo) CancelTimers() {
	n.MoveTask.Cancel()
	n.ResumeTask.Cancel()
	n.MoveTask = nil
	n.ResumeTask = nil
}
