package world

import (
	"time"

	"github.com/embervale/server/internal/core/sched"
)

// SystemOwner is the sentinel DroppedBy value for items placed by a
// ground spawn point rather than a player. System items never despawn
// on a timer; their spawn point's cooldown drives their lifecycle.
const SystemOwner = "~system"

// FloorItem is an item instance resting on the ground. Held in two
// structures that must stay mutually consistent: the id-keyed map
// (authoritative) and the position index used for stacking and
// proximity queries.
type FloorItem struct {
	ID        string
	Item      ItemStack
	Pos       Position
	SpawnTime time.Time
	DroppedBy string

	DespawnTask *sched.Handle
}

// SystemSpawned reports whether the item came from a ground spawn point.
func (f *FloorItem) SystemSpawned() bool { return f.DroppedBy == SystemOwner }
