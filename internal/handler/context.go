package handler

import (
	"time"

	"go.uber.org/zap"

	"github.com/embervale/server/internal/config"
	"github.com/embervale/server/internal/net"
	"github.com/embervale/server/internal/net/message"
	"github.com/embervale/server/internal/persist"
	"github.com/embervale/server/internal/system"
	"github.com/embervale/server/internal/world"
)

// Deps holds shared dependencies injected into all message handlers.
type Deps struct {
	Config *config.Config
	Log    *zap.Logger
	World  *world.State
	Store  *net.SessionStore

	Npcs      *system.NpcEngine
	Resources *system.ResourceManager
	Ground    *system.GroundItemManager
	Shops     *system.ShopManager

	AccountRepo *persist.AccountRepo
	PlayerRepo  *persist.PlayerRepo

	Now func() time.Time
}

// RegisterAll registers all message handlers into the registry.
func RegisterAll(reg *message.Registry, deps *Deps) {
	reg.Register("join",
		[]message.SessionState{message.StateConnected},
		func(sess any, env message.Envelope) {
			HandleJoin(sess.(*net.Session), env, deps)
		},
	)

	inWorld := []message.SessionState{message.StateInWorld}

	reg.Register("resource_action", inWorld,
		func(sess any, env message.Envelope) {
			HandleResourceAction(sess.(*net.Session), env, deps)
		},
	)
	reg.Register("resource_deplete", inWorld,
		func(sess any, env message.Envelope) {
			HandleResourceDeplete(sess.(*net.Session), env, deps)
		},
	)
	reg.Register("item_drop", inWorld,
		func(sess any, env message.Envelope) {
			HandleItemDrop(sess.(*net.Session), env, deps)
		},
	)
	reg.Register("item_pickup", inWorld,
		func(sess any, env message.Envelope) {
			HandleItemPickup(sess.(*net.Session), env, deps)
		},
	)
	reg.Register("shop_buy", inWorld,
		func(sess any, env message.Envelope) {
			HandleShopBuy(sess.(*net.Session), env, deps)
		},
	)
	reg.Register("shop_sell", inWorld,
		func(sess any, env message.Envelope) {
			HandleShopSell(sess.(*net.Session), env, deps)
		},
	)
	reg.Register("npc_snapshot_req", inWorld,
		func(sess any, env message.Envelope) {
			HandleNpcSnapshotReq(sess.(*net.Session), env, deps)
		},
	)
}

// inventorySnapshot converts a player's inventory into wire slots.
func inventorySnapshot(inv *world.Inventory) []message.Slot {
	var out []message.Slot
	for i, s := range inv.Slots() {
		if s == nil {
			continue
		}
		out = append(out, message.Slot{
			Index:    i,
			ItemID:   s.ID,
			Quantity: s.Quantity,
			Noted:    s.Noted,
			Attrs:    s.CopyAttrs(),
		})
	}
	return out
}
