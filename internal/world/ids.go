package world

import (
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"
)

// npcIDCounter generates unique NPC instance ids. The counter survives
// removal/respawn cycles so an id is never reused within a process.
var npcIDCounter atomic.Int64

// NextNpcID returns a fresh opaque NPC instance id.
func NextNpcID() string {
	return fmt.Sprintf("npc-%d", npcIDCounter.Add(1))
}

// NewFloorItemID derives a floor item id from the spawn time plus a
// random suffix. Callers must still check the registry for the (rare)
// same-millisecond collision and re-roll.
func NewFloorItemID(now time.Time) string {
	return fmt.Sprintf("fi-%d-%04d", now.UnixMilli(), rand.Intn(10000))
}

// NewStockKey synthesizes a stock key for a player-sold item carrying
// authoring attributes, so it can never merge with generic stock.
func NewStockKey(itemID string, now time.Time) string {
	return fmt.Sprintf("%s#%d%03d", itemID, now.UnixMilli(), rand.Intn(1000))
}
