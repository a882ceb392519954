package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/embervale/server/internal/core/sched"
	"github.com/embervale/server/internal/data"
	"github.com/embervale/server/internal/net/message"
	"github.com/embervale/server/internal/world"
)

// ResourceManager arbitrates resource node depletion and respawn, plus
// the advisory action-start reservation that precedes depletion.
type ResourceManager struct {
	world     *world.State
	resources *data.ResourceTable
	items     *data.ItemTable
	sched     *sched.Scheduler
	gw        Gateway
	debounce  time.Duration
	now       func() time.Time
	log       *zap.Logger
}

func NewResourceManager(
	ws *world.State,
	resources *data.ResourceTable,
	items *data.ItemTable,
	sc *sched.Scheduler,
	gw Gateway,
	debounce time.Duration,
	now func() time.Time,
	log *zap.Logger,
) *ResourceManager {
	return &ResourceManager{
		world:     ws,
		resources: resources,
		items:     items,
		sched:     sc,
		gw:        gw,
		debounce:  debounce,
		now:       now,
		log:       log,
	}
}

// StartAction claims intent on a node before depletion. Approval is
// advisory, not a lock — final arbitration happens at depletion time.
// A repeat request for the same target inside the debounce window is a
// silent no-op (reply=false, no error); a different target supersedes
// the previous slot.
func (m *ResourceManager) StartAction(p *world.PlayerInfo, resourceType string, pos world.Position, action string) (reply bool, err error) {
	tpl := m.resources.Get(resourceType)
	if tpl == nil {
		return true, world.NotFoundf("unknown resource type %q", resourceType)
	}
	if action != tpl.Action {
		return true, world.Validationf("resource %q does not support action %q", resourceType, action)
	}

	node := m.world.Node(resourceType, pos)
	if !node.Available() {
		return true, world.Conflictf("resource already depleted by %s", node.Depleted.By)
	}

	kind := world.ActionKind(action)
	now := m.now()
	if cur := m.world.Action(p.Name); cur != nil {
		if cur.SameTarget(kind, resourceType, pos) && now.Sub(cur.StartTime) < m.debounce {
			return false, nil
		}
	}
	m.world.SetAction(p.Name, &world.ActiveAction{
		Kind:         kind,
		ResourceType: resourceType,
		Pos:          pos,
		StartTime:    now,
	})
	return true, nil
}

// Deplete is the authoritative arbitration point. Exactly one of N
// racing requests succeeds; the rest get a conflict denial naming the
// winner. On success the node flips to depleted, the depleter's action
// slot clears, the yield lands in their inventory if it fits, everyone
// else hears about it, and the respawn is scheduled.
func (m *ResourceManager) Deplete(p *world.PlayerInfo, resourceType string, pos world.Position) (*data.ResourceTemplate, error) {
	tpl := m.resources.Get(resourceType)
	if tpl == nil {
		return nil, world.NotFoundf("unknown resource type %q", resourceType)
	}

	node := m.world.Node(resourceType, pos)
	if !node.Available() {
		return nil, world.Conflictf("resource already depleted by %s", node.Depleted.By)
	}

	now := m.now()
	node.Deplete(p.Name, now)
	m.world.ClearAction(p.Name)

	if tpl.YieldItem != "" {
		yield := world.ItemStack{ID: tpl.YieldItem, Quantity: tpl.YieldQty}
		if p.Inv.Add(yield, m.items.Stackable(tpl.YieldItem)) {
			p.Dirty = true
		} else {
			m.log.Debug("yield lost, inventory full",
				zap.String("player", p.Name),
				zap.String("item", tpl.YieldItem),
			)
		}
	}

	m.gw.BroadcastExcept(p.SessionID, "resource_depleted", message.ResourceDepleted{
		ResourceType: resourceType,
		X:            pos.X,
		Y:            pos.Y,
		By:           p.Name,
		At:           now.UnixMilli(),
	})

	node.RespawnTask = m.sched.After(now, tpl.Respawn(), func() {
		m.onRespawn(resourceType, pos)
	})
	return tpl, nil
}

// onRespawn flips a node back to available. A node already available
// (reload, manual reset) is a normal no-op.
func (m *ResourceManager) onRespawn(resourceType string, pos world.Position) {
	node := m.world.NodeAt(pos)
	if node == nil || node.Available() {
		return
	}
	node.Respawn()
	node.RespawnTask = nil
	m.gw.BroadcastAll("resource_respawned", message.ResourceRespawned{
		ResourceType: resourceType,
		X:            pos.X,
		Y:            pos.Y,
	})
}

// DepletedSnapshot lists currently depleted nodes for the join snapshot.
func (m *ResourceManager) DepletedSnapshot() []message.DepletedNode {
	nodes := m.world.DepletedNodes()
	out := make([]message.DepletedNode, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, message.DepletedNode{
			ResourceType: n.Type,
			X:            n.Pos.X,
			Y:            n.Pos.Y,
			By:           n.Depleted.By,
			At:           n.Depleted.At.UnixMilli(),
		})
	}
	return out
}
