package handler

import (
	"encoding/json"

	"github.com/embervale/server/internal/net"
	"github.com/embervale/server/internal/net/message"
	"github.com/embervale/server/internal/world"
)

// HandleItemDrop drops from an inventory slot onto the ground. An
// exactly matching floor stack absorbs the drop.
func HandleItemDrop(sess *net.Session, env message.Envelope, deps *Deps) {
	var req message.ItemDrop
	if err := json.Unmarshal(env.Data, &req); err != nil {
		sess.SendMsg("drop_denied", message.Denial{Reason: "malformed request"})
		return
	}
	p := deps.World.PlayerBySession(sess.ID)
	if p == nil {
		return
	}

	fi, stacked, err := deps.Ground.Drop(p, req.SlotIndex, req.Quantity, world.Position{X: req.X, Y: req.Y})
	if err != nil {
		sess.SendMsg("drop_denied", message.Denial{Reason: err.Error()})
		return
	}
	sess.SendMsg("drop_confirmed", message.DropConfirmed{
		FloorItemID: fi.ID,
		Stacked:     stacked,
		Inventory:   inventorySnapshot(p.Inv),
	})
}

// HandleItemPickup lifts a floor item into the requester's inventory.
func HandleItemPickup(sess *net.Session, env message.Envelope, deps *Deps) {
	var req message.ItemPickup
	if err := json.Unmarshal(env.Data, &req); err != nil {
		sess.SendMsg("pickup_denied", message.Denial{Reason: "malformed request"})
		return
	}
	p := deps.World.PlayerBySession(sess.ID)
	if p == nil {
		return
	}

	stack, err := deps.Ground.Pickup(p, req.FloorItemID)
	if err != nil {
		sess.SendMsg("pickup_denied", message.Denial{Reason: err.Error()})
		return
	}
	sess.SendMsg("pickup_confirmed", message.PickupConfirmed{
		FloorItemID: req.FloorItemID,
		ItemID:      stack.ID,
		Quantity:    stack.Quantity,
		Inventory:   inventorySnapshot(p.Inv),
	})
}
