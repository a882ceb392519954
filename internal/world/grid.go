package world

// npcGrid is a tile occupancy index for O(1) NPC collision checks.
// Players are deliberately not tracked: NPC movement only avoids other
// NPCs.
type npcGrid struct {
	tiles map[Position]string // tile → occupying NPC id
}

func newNpcGrid() *npcGrid {
	return &npcGrid{tiles: make(map[Position]string)}
}

func (g *npcGrid) occupy(pos Position, id string) {
	g.tiles[pos] = id
}

func (g *npcGrid) vacate(pos Position, id string) {
	if g.tiles[pos] == id {
		delete(g.tiles, pos)
	}
}

func (g *npcGrid) move(from, to Position, id string) {
	if from == to {
		return
	}
	g.vacate(from, id)
	g.occupy(to, id)
}

// occupied reports whether any NPC other than excludeID holds the tile.
func (g *npcGrid) occupied(pos Position, excludeID string) bool {
	id, ok := g.tiles[pos]
	return ok && id != excludeID
}
