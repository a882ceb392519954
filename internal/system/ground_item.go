package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/embervale/server/internal/core/sched"
	"github.com/embervale/server/internal/data"
	"github.com/embervale/server/internal/net/message"
	"github.com/embervale/server/internal/world"
)

// spawnPoint tracks one recurring system spawn: the floor item it
// currently owns (if any) and when that item was last taken.
type spawnPoint struct {
	def     data.GroundSpawn
	itemID  string
	takenAt time.Time
}

// GroundItemManager owns floor item creation, stacking, pickup, despawn
// and the recurring system spawn points.
type GroundItemManager struct {
	world        *world.State
	items        *data.ItemTable
	sched        *sched.Scheduler
	gw           Gateway
	despawnAfter time.Duration
	pickupRange  int
	now          func() time.Time
	log          *zap.Logger

	points   []*spawnPoint
	scanTask *sched.Handle
}

func NewGroundItemManager(
	ws *world.State,
	items *data.ItemTable,
	sc *sched.Scheduler,
	gw Gateway,
	despawnAfter time.Duration,
	pickupRange int,
	now func() time.Time,
	log *zap.Logger,
) *GroundItemManager {
	return &GroundItemManager{
		world:        ws,
		items:        items,
		sched:        sc,
		gw:           gw,
		despawnAfter: despawnAfter,
		pickupRange:  pickupRange,
		now:          now,
		log:          log,
	}
}

// Drop moves items from a player's inventory slot onto the ground.
// An exactly matching stack on the target tile absorbs the drop instead
// of creating a second floor item.
func (m *GroundItemManager) Drop(p *world.PlayerInfo, slotIdx, qty int, pos world.Position) (*world.FloorItem, bool, error) {
	if qty <= 0 {
		return nil, false, world.Validationf("drop quantity must be positive")
	}
	if p.Pos.Manhattan(pos) > m.pickupRange {
		return nil, false, world.Policyf("drop target too far away")
	}

	stack, err := p.Inv.Remove(slotIdx, qty)
	if err != nil {
		return nil, false, err
	}
	p.Dirty = true

	// Stack attempt before create: exact kind match only. Spawn-point
	// piles are skipped so a player drop never inherits their despawn
	// exemption or starves the respawn scan.
	for _, fi := range m.world.FloorItemsAt(pos) {
		if !fi.SystemSpawned() && fi.Item.SameKind(stack) {
			fi.Item.Quantity += stack.Quantity
			m.gw.BroadcastAll("item_updated", message.ItemUpdated{
				FloorItemID: fi.ID,
				Quantity:    fi.Item.Quantity,
			})
			return fi, true, nil
		}
	}

	fi := m.create(stack, pos, p.Name)
	return fi, false, nil
}

// create inserts a new floor item into both indexes and, for non-system
// drops, arms the despawn timer.
func (m *GroundItemManager) create(stack world.ItemStack, pos world.Position, droppedBy string) *world.FloorItem {
	now := m.now()
	id := world.NewFloorItemID(now)
	for m.world.FloorItem(id) != nil {
		// same-millisecond suffix collision, re-roll
		id = world.NewFloorItemID(now)
	}
	fi := &world.FloorItem{
		ID:        id,
		Item:      stack,
		Pos:       pos,
		SpawnTime: now,
		DroppedBy: droppedBy,
	}
	m.world.AddFloorItem(fi)

	if !fi.SystemSpawned() {
		fi.DespawnTask = m.sched.After(now, m.despawnAfter, func() {
			m.onDespawn(id)
		})
	}

	m.gw.BroadcastAll("item_created", message.ItemCreated{
		FloorItemID: fi.ID,
		ItemID:      stack.ID,
		Quantity:    stack.Quantity,
		Noted:       stack.Noted,
		Attrs:       stack.CopyAttrs(),
		X:           pos.X,
		Y:           pos.Y,
		DroppedBy:   droppedBy,
		SpawnTime:   now.UnixMilli(),
	})
	return fi
}

// Pickup hands a floor item to a player. Both indexes update in the
// same handler, so no observer ever sees them disagree.
func (m *GroundItemManager) Pickup(p *world.PlayerInfo, floorItemID string) (world.ItemStack, error) {
	fi := m.world.FloorItem(floorItemID)
	if fi == nil {
		return world.ItemStack{}, world.NotFoundf("floor item %s not found", floorItemID)
	}
	if p.Pos.Manhattan(fi.Pos) > m.pickupRange {
		return world.ItemStack{}, world.Policyf("too far away to pick that up")
	}
	if !p.Inv.HasRoom(fi.Item, m.items.Stackable(fi.Item.ID)) {
		return world.ItemStack{}, world.Conflictf("inventory full")
	}

	fi.DespawnTask.Cancel()
	m.world.RemoveFloorItem(fi.ID)
	p.Inv.Add(fi.Item, m.items.Stackable(fi.Item.ID))
	p.Dirty = true

	// The retriever already applied the change locally; tell the rest.
	m.gw.BroadcastExcept(p.SessionID, "item_pickedup", message.ItemPickedUp{
		FloorItemID: fi.ID,
		By:          p.Name,
	})
	return fi.Item, nil
}

// onDespawn is the despawn timer callback; an already-removed item is a
// normal outcome.
func (m *GroundItemManager) onDespawn(id string) {
	fi := m.world.RemoveFloorItem(id)
	if fi == nil {
		return
	}
	m.gw.BroadcastAll("item_despawned", message.ItemDespawned{FloorItemID: fi.ID})
}

// StartSystemSpawns seeds every spawn point immediately and arms the
// periodic scan that re-seeds a point once its item is gone and the
// cooldown has elapsed.
func (m *GroundItemManager) StartSystemSpawns(points []data.GroundSpawn, scanEvery time.Duration) {
	m.points = make([]*spawnPoint, len(points))
	for i, def := range points {
		sp := &spawnPoint{def: def}
		m.points[i] = sp
		m.seed(sp)
	}
	if len(m.points) > 0 && scanEvery > 0 {
		m.scanTask = m.sched.Every(m.now(), scanEvery, m.scan)
	}
}

func (m *GroundItemManager) seed(sp *spawnPoint) {
	stack := world.ItemStack{ID: sp.def.ItemID, Quantity: sp.def.Quantity}
	fi := m.create(stack, world.Position{X: sp.def.X, Y: sp.def.Y}, world.SystemOwner)
	sp.itemID = fi.ID
}

// scan runs on the spawn-scan interval. A point whose item is still on
// the ground is left alone; one whose item was taken starts its
// cooldown, and re-seeds once the cooldown has passed.
func (m *GroundItemManager) scan() {
	now := m.now()
	for _, sp := range m.points {
		if sp.itemID != "" {
			if m.world.FloorItem(sp.itemID) != nil {
				continue
			}
			sp.itemID = ""
			sp.takenAt = now
			continue
		}
		if now.Sub(sp.takenAt) >= sp.def.Cooldown() {
			m.seed(sp)
		}
	}
}

// ItemsSnapshot lists all floor items for the join snapshot.
func (m *GroundItemManager) ItemsSnapshot() []message.ItemCreated {
	items := m.world.AllFloorItems()
	out := make([]message.ItemCreated, 0, len(items))
	for _, fi := range items {
		out = append(out, message.ItemCreated{
			FloorItemID: fi.ID,
			ItemID:      fi.Item.ID,
			Quantity:    fi.Item.Quantity,
			Noted:       fi.Item.Noted,
			Attrs:       fi.Item.CopyAttrs(),
			X:           fi.Pos.X,
			Y:           fi.Pos.Y,
			DroppedBy:   fi.DroppedBy,
			SpawnTime:   fi.SpawnTime.UnixMilli(),
		})
	}
	return out
}
