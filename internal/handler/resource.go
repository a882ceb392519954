package handler

import (
	"encoding/json"

	"github.com/embervale/server/internal/net"
	"github.com/embervale/server/internal/net/message"
	"github.com/embervale/server/internal/world"
)

// HandleResourceAction claims intent on a node before depleting it.
// Approval is advisory; the depletion request is the authoritative race.
func HandleResourceAction(sess *net.Session, env message.Envelope, deps *Deps) {
	var req message.ResourceAction
	if err := json.Unmarshal(env.Data, &req); err != nil {
		sess.SendMsg("action_denied", message.Denial{Reason: "malformed request"})
		return
	}
	p := deps.World.PlayerBySession(sess.ID)
	if p == nil {
		return
	}

	pos := world.Position{X: req.X, Y: req.Y}
	reply, err := deps.Resources.StartAction(p, req.ResourceType, pos, req.Action)
	if err != nil {
		sess.SendMsg("action_denied", message.Denial{Reason: err.Error()})
		return
	}
	if !reply {
		// duplicate inside the debounce window: silently ignored
		return
	}
	sess.SendMsg("action_approved", message.ActionApproved{
		ResourceType: req.ResourceType,
		X:            req.X,
		Y:            req.Y,
		Action:       req.Action,
	})
}

// HandleResourceDeplete is the authoritative depletion request. Losers
// of the race get a denial naming the current holder.
func HandleResourceDeplete(sess *net.Session, env message.Envelope, deps *Deps) {
	var req message.ResourceDeplete
	if err := json.Unmarshal(env.Data, &req); err != nil {
		sess.SendMsg("deplete_denied", message.DepleteDenied{Reason: "malformed request"})
		return
	}
	p := deps.World.PlayerBySession(sess.ID)
	if p == nil {
		return
	}

	pos := world.Position{X: req.X, Y: req.Y}
	tpl, err := deps.Resources.Deplete(p, req.ResourceType, pos)
	if err != nil {
		denied := message.DepleteDenied{Reason: err.Error()}
		if node := deps.World.NodeAt(pos); node != nil && node.Depleted != nil {
			denied.HolderID = node.Depleted.By
			denied.HolderAt = node.Depleted.At.UnixMilli()
		}
		sess.SendMsg("deplete_denied", denied)
		return
	}

	sess.SendMsg("deplete_confirmed", message.DepleteConfirmed{
		ResourceType: req.ResourceType,
		X:            req.X,
		Y:            req.Y,
		RespawnMs:    int64(tpl.RespawnMs),
		YieldItem:    tpl.YieldItem,
		YieldQty:     tpl.YieldQty,
		Inventory:    inventorySnapshot(p.Inv),
	})
}
