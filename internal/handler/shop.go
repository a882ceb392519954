package handler

import (
	"encoding/json"

	"github.com/embervale/server/internal/net"
	"github.com/embervale/server/internal/net/message"
)

// HandleShopBuy purchases from a shop's stock.
func HandleShopBuy(sess *net.Session, env message.Envelope, deps *Deps) {
	var req message.ShopBuy
	if err := json.Unmarshal(env.Data, &req); err != nil {
		sess.SendMsg("buy_denied", message.Denial{Reason: "malformed request"})
		return
	}
	p := deps.World.PlayerBySession(sess.ID)
	if p == nil {
		return
	}

	cost, err := deps.Shops.Buy(p, req.ShopID, req.ItemID, req.Quantity)
	if err != nil {
		sess.SendMsg("buy_denied", message.Denial{Reason: err.Error()})
		return
	}
	sess.SendMsg("buy_confirmed", message.BuyConfirmed{
		ShopID:    req.ShopID,
		ItemID:    req.ItemID,
		Quantity:  req.Quantity,
		Cost:      cost,
		Inventory: inventorySnapshot(p.Inv),
	})
}

// HandleShopSell sells from an inventory slot to a shop.
func HandleShopSell(sess *net.Session, env message.Envelope, deps *Deps) {
	var req message.ShopSell
	if err := json.Unmarshal(env.Data, &req); err != nil {
		sess.SendMsg("sell_denied", message.Denial{Reason: "malformed request"})
		return
	}
	p := deps.World.PlayerBySession(sess.ID)
	if p == nil {
		return
	}

	slot := p.Inv.Slot(req.SlotIndex)
	itemID := ""
	if slot != nil {
		itemID = slot.ID
	}

	value, err := deps.Shops.Sell(p, req.ShopID, req.SlotIndex, req.Quantity)
	if err != nil {
		sess.SendMsg("sell_denied", message.Denial{Reason: err.Error()})
		return
	}
	sess.SendMsg("sell_confirmed", message.SellConfirmed{
		ShopID:    req.ShopID,
		ItemID:    itemID,
		Quantity:  req.Quantity,
		Value:     value,
		Inventory: inventorySnapshot(p.Inv),
	})
}

// HandleNpcSnapshotReq answers with the full NPC list.
func HandleNpcSnapshotReq(sess *net.Session, _ message.Envelope, deps *Deps) {
	sess.SendMsg("npc_snapshot", message.SnapshotNpcs{Npcs: deps.Npcs.Snapshot()})
}
