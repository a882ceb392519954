package world

import "time"

// PlayerInfo holds in-memory state for a connected player. Accessed
// only from the game loop goroutine — no locks needed.
type PlayerInfo struct {
	SessionID uint64
	Name      string
	Pos       Position
	Inv       *Inventory

	// Dirty marks unsaved profile changes. The persistence system only
	// saves dirty players and clears the flag after a successful save.
	Dirty bool
}

// ActionKind names what a player is doing with a world object.
type ActionKind string

const (
	ActionHarvest ActionKind = "harvest"
	ActionMine    ActionKind = "mine"
)

// ActiveAction is the single in-flight world interaction for one
// player: at most one entry per player; a request for a different
// target supersedes it, a repeat within the debounce window is a no-op.
type ActiveAction struct {
	Kind         ActionKind
	ResourceType string
	Pos          Position
	StartTime    time.Time
}

// SameTarget reports whether a new request addresses the same action.
func (a *ActiveAction) SameTarget(kind ActionKind, resourceType string, pos Position) bool {
	return a.Kind == kind && a.ResourceType == resourceType && a.Pos == pos
}
