package world

import (
	"time"

	"github.com/embervale/server/internal/core/sched"
)

// Depletion records who emptied a node and when. A node is available
// iff its Depleted pointer is nil — the two fields can never be set on
// an available node by construction.
type Depletion struct {
	By string
	At time.Time
}

// ResourceNode is a harvestable world object keyed by position. Nodes
// are lazily materialized as available the first time they are
// referenced and never destroyed, only toggled.
type ResourceNode struct {
	Type     string
	Pos      Position
	Depleted *Depletion // nil = available

	RespawnTask *sched.Handle
}

// Available reports whether the node can currently be depleted.
func (r *ResourceNode) Available() bool { return r.Depleted == nil }

// Deplete flips the node to unavailable, stamping the winner.
func (r *ResourceNode) Deplete(by string, at time.Time) {
	r.Depleted = &Depletion{By: by, At: at}
}

// Respawn flips the node back to available.
func (r *ResourceNode) Respawn() {
	r.Depleted = nil
	r.RespawnTask = nil
}
