package handler

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/embervale/server/internal/net"
	"github.com/embervale/server/internal/net/message"
	"github.com/embervale/server/internal/persist"
	"github.com/embervale/server/internal/world"
)

// joinRequest extends the wire Join with the optional account token.
type joinRequest struct {
	Name  string `json:"name"`
	Token string `json:"token"`
}

// HandleJoin admits a player into the world: account check (auto-create
// on first join), profile load, registration, welcome reply, then the
// four world snapshots.
func HandleJoin(sess *net.Session, env message.Envelope, deps *Deps) {
	var req joinRequest
	if err := json.Unmarshal(env.Data, &req); err != nil || req.Name == "" {
		sess.SendMsg("join_denied", message.Denial{Reason: "join requires a name"})
		return
	}
	if deps.World.PlayerByName(req.Name) != nil {
		sess.SendMsg("join_denied", message.Denial{Reason: "already connected"})
		return
	}

	p := &world.PlayerInfo{
		SessionID: sess.ID,
		Name:      req.Name,
		Pos:       world.Position{X: deps.Config.World.StartX, Y: deps.Config.World.StartY},
		Inv:       world.NewInventory(),
	}

	if deps.AccountRepo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if _, ok, err := deps.AccountRepo.Ensure(ctx, req.Name, req.Token); err != nil {
			deps.Log.Error("account lookup failed", zap.String("name", req.Name), zap.Error(err))
			sess.SendMsg("join_denied", message.Denial{Reason: "try again later"})
			return
		} else if !ok {
			sess.SendMsg("join_denied", message.Denial{Reason: "bad token"})
			return
		}

		row, err := deps.PlayerRepo.Load(ctx, req.Name)
		if err != nil {
			deps.Log.Error("profile load failed", zap.String("name", req.Name), zap.Error(err))
			sess.SendMsg("join_denied", message.Denial{Reason: "try again later"})
			return
		}
		if row != nil {
			p.Pos = world.Position{X: row.X, Y: row.Y}
			restoreInventory(p.Inv, row.Inventory)
		}
	}

	sess.PlayerName = p.Name
	sess.SetState(message.StateInWorld)
	deps.World.AddPlayer(p)

	deps.Log.Info("player joined",
		zap.String("name", p.Name),
		zap.Uint64("session", sess.ID),
	)

	sess.SendMsg("welcome", message.Welcome{
		SessionID: sess.ID,
		Name:      p.Name,
		X:         p.Pos.X,
		Y:         p.Pos.Y,
		Inventory: inventorySnapshot(p.Inv),
	})
	sess.SendMsg("snapshot_resources", message.SnapshotResources{Depleted: deps.Resources.DepletedSnapshot()})
	sess.SendMsg("snapshot_items", message.SnapshotItems{Items: deps.Ground.ItemsSnapshot()})
	sess.SendMsg("snapshot_shops", message.SnapshotShops{Shops: deps.Shops.ShopsSnapshot()})
	sess.SendMsg("snapshot_npcs", message.SnapshotNpcs{Npcs: deps.Npcs.Snapshot()})
}

func restoreInventory(inv *world.Inventory, rows []persist.SlotRow) {
	for _, row := range rows {
		stack := world.ItemStack{
			ID:       row.ItemID,
			Quantity: row.Quantity,
			Noted:    row.Noted,
			Attrs:    row.Attrs,
		}
		// restore the saved arrangement; a corrupt index falls back to
		// first-free placement
		if !inv.Place(row.Index, stack) {
			inv.Add(stack, false)
		}
	}
}

// ProfileRow converts live player state into its stored form.
func ProfileRow(p *world.PlayerInfo) *persist.PlayerRow {
	row := &persist.PlayerRow{
		Name: p.Name,
		X:    p.Pos.X,
		Y:    p.Pos.Y,
	}
	for i, s := range p.Inv.Slots() {
		if s == nil {
			continue
		}
		row.Inventory = append(row.Inventory, persist.SlotRow{
			Index:    i,
			ItemID:   s.ID,
			Quantity: s.Quantity,
			Noted:    s.Noted,
			Attrs:    s.CopyAttrs(),
		})
	}
	return row
}
