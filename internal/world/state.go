package world

import "sort"

// State owns every live registry: players, NPCs, resource nodes, floor
// items, shops and active player actions. Single-goroutine access only
// (game loop); the managers in internal/system are the only callers
// that mutate, so every invariant holds between handlers.
type State struct {
	bySession map[uint64]*PlayerInfo
	byName    map[string]*PlayerInfo

	npcs    map[string]*NpcInfo
	npcList []*NpcInfo
	grid    *npcGrid

	resources map[Position]*ResourceNode

	floorItems  map[string]*FloorItem   // authoritative
	itemsByPos  map[Position][]*FloorItem // proximity/stacking index
	shops       map[string]*ShopLive
	actions     map[string]*ActiveAction // player name → slot
}

func NewState() *State {
	return &State{
		bySession:  make(map[uint64]*PlayerInfo),
		byName:     make(map[string]*PlayerInfo),
		npcs:       make(map[string]*NpcInfo),
		grid:       newNpcGrid(),
		resources:  make(map[Position]*ResourceNode),
		floorItems: make(map[string]*FloorItem),
		itemsByPos: make(map[Position][]*FloorItem),
		shops:      make(map[string]*ShopLive),
		actions:    make(map[string]*ActiveAction),
	}
}

// --- Players ---

func (s *State) AddPlayer(p *PlayerInfo) {
	s.bySession[p.SessionID] = p
	s.byName[p.Name] = p
}

func (s *State) RemovePlayer(sessionID uint64) *PlayerInfo {
	p, ok := s.bySession[sessionID]
	if !ok {
		return nil
	}
	delete(s.bySession, sessionID)
	delete(s.byName, p.Name)
	delete(s.actions, p.Name)
	return p
}

func (s *State) PlayerBySession(sessionID uint64) *PlayerInfo {
	return s.bySession[sessionID]
}

func (s *State) PlayerByName(name string) *PlayerInfo {
	return s.byName[name]
}

func (s *State) PlayerCount() int { return len(s.bySession) }

// AllPlayers iterates all connected players.
func (s *State) AllPlayers(fn func(*PlayerInfo)) {
	for _, p := range s.bySession {
		fn(p)
	}
}

// --- NPCs ---

func (s *State) AddNpc(n *NpcInfo) {
	s.npcs[n.ID] = n
	s.npcList = append(s.npcList, n)
	s.grid.occupy(n.Pos, n.ID)
}

func (s *State) Npc(id string) *NpcInfo { return s.npcs[id] }

// NpcList returns the live NPC slice for iteration. Callers must not
// add or remove while ranging.
func (s *State) NpcList() []*NpcInfo { return s.npcList }

func (s *State) NpcCount() int { return len(s.npcs) }

// MoveNpc updates an NPC's position and the occupancy grid together.
// All NPC position changes go through here to keep the index honest.
func (s *State) MoveNpc(id string, to Position, dir Direction) {
	n := s.npcs[id]
	if n == nil {
		return
	}
	s.grid.move(n.Pos, to, id)
	n.Pos = to
	n.Dir = dir
}

// RemoveNpc erases an NPC after cancelling its timers. Returns the
// removed NPC, or nil when the id is unknown.
func (s *State) RemoveNpc(id string) *NpcInfo {
	n, ok := s.npcs[id]
	if !ok {
		return nil
	}
	n.CancelTimers()
	s.grid.vacate(n.Pos, id)
	delete(s.npcs, id)
	for i, cur := range s.npcList {
		if cur.ID == id {
			s.npcList[i] = s.npcList[len(s.npcList)-1]
			s.npcList = s.npcList[:len(s.npcList)-1]
			break
		}
	}
	return n
}

// NpcAt reports whether any NPC other than excludeID occupies the tile.
func (s *State) NpcAt(pos Position, excludeID string) bool {
	return s.grid.occupied(pos, excludeID)
}

// --- Resource nodes ---

// Node returns the resource node at pos, lazily materializing an
// available node of the given type when unseen.
func (s *State) Node(resourceType string, pos Position) *ResourceNode {
	if n, ok := s.resources[pos]; ok {
		return n
	}
	n := &ResourceNode{Type: resourceType, Pos: pos}
	s.resources[pos] = n
	return n
}

// NodeAt returns the node at pos without materializing, or nil.
func (s *State) NodeAt(pos Position) *ResourceNode { return s.resources[pos] }

// DepletedNodes returns every currently depleted node, ordered by
// depletion time for stable snapshots.
func (s *State) DepletedNodes() []*ResourceNode {
	var out []*ResourceNode
	for _, n := range s.resources {
		if !n.Available() {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Depleted.At.Before(out[j].Depleted.At)
	})
	return out
}

// --- Floor items ---

// AddFloorItem inserts into both structures. Both updates happen in one
// call so no handler can observe a half-inserted item. A duplicate id
// evicts the previous holder from both indexes first, so the id map and
// the tile index can never drift apart.
func (s *State) AddFloorItem(f *FloorItem) {
	if _, ok := s.floorItems[f.ID]; ok {
		s.RemoveFloorItem(f.ID)
	}
	s.floorItems[f.ID] = f
	s.itemsByPos[f.Pos] = append(s.itemsByPos[f.Pos], f)
}

// FloorItem returns a floor item by id, or nil.
func (s *State) FloorItem(id string) *FloorItem { return s.floorItems[id] }

// FloorItemsAt returns the items resting on a tile.
func (s *State) FloorItemsAt(pos Position) []*FloorItem {
	return s.itemsByPos[pos]
}

// RemoveFloorItem deletes from both structures together. Returns the
// removed item, or nil when the id is unknown.
func (s *State) RemoveFloorItem(id string) *FloorItem {
	f, ok := s.floorItems[id]
	if !ok {
		return nil
	}
	delete(s.floorItems, id)
	list := s.itemsByPos[f.Pos]
	for i, cur := range list {
		if cur.ID == id {
			list[i] = list[len(list)-1]
			list = list[:len(list)-1]
			break
		}
	}
	if len(list) == 0 {
		delete(s.itemsByPos, f.Pos)
	} else {
		s.itemsByPos[f.Pos] = list
	}
	return f
}

// FloorItemCount returns the number of live floor items.
func (s *State) FloorItemCount() int { return len(s.floorItems) }

// AllFloorItems returns every floor item, oldest first.
func (s *State) AllFloorItems() []*FloorItem {
	out := make([]*FloorItem, 0, len(s.floorItems))
	for _, f := range s.floorItems {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SpawnTime.Equal(out[j].SpawnTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].SpawnTime.Before(out[j].SpawnTime)
	})
	return out
}

// --- Shops ---

func (s *State) AddShop(shop *ShopLive) { s.shops[shop.ID] = shop }

func (s *State) Shop(id string) *ShopLive { return s.shops[id] }

func (s *State) ShopCount() int { return len(s.shops) }

// AllShops returns every shop ordered by id.
func (s *State) AllShops() []*ShopLive {
	out := make([]*ShopLive, 0, len(s.shops))
	for _, sh := range s.shops {
		out = append(out, sh)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// --- Active actions ---

// Action returns the in-flight action slot for a player, or nil.
func (s *State) Action(player string) *ActiveAction { return s.actions[player] }

// SetAction overwrites the player's single action slot.
func (s *State) SetAction(player string, a *ActiveAction) {
	s.actions[player] = a
}

// ClearAction empties the slot (depletion, completion, disconnect).
func (s *State) ClearAction(player string) {
	delete(s.actions, player)
}
