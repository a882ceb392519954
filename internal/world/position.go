package world

// Position is a tile coordinate, usable directly as a map key.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Manhattan returns the Manhattan distance to other.
func (p Position) Manhattan(other Position) int {
	dx := p.X - other.X
	dy := p.Y - other.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// Add returns p offset by (dx, dy).
func (p Position) Add(dx, dy int) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}

// Direction is one of the 8 compass headings, or DirNone.
type Direction int

const (
	DirNone Direction = iota - 1
	DirNorth
	DirNorthEast
	DirEast
	DirSouthEast
	DirSouth
	DirSouthWest
	DirWest
	DirNorthWest
)

// Offset deltas indexed by Direction, matching the heading order above.
var (
	DirDX = [8]int{0, 1, 1, 1, 0, -1, -1, -1}
	DirDY = [8]int{-1, -1, 0, 1, 1, 1, 0, -1}
)

// DirectionTo returns the heading from p toward other, per-axis sign.
func (p Position) DirectionTo(other Position) Direction {
	dx := sign(other.X - p.X)
	dy := sign(other.Y - p.Y)
	if dx == 0 && dy == 0 {
		return DirNone
	}
	for d := 0; d < 8; d++ {
		if DirDX[d] == dx && DirDY[d] == dy {
			return Direction(d)
		}
	}
	return DirNone
}

// Step returns the neighbor tile one step in direction d.
func (p Position) Step(d Direction) Position {
	if d < 0 || d > 7 {
		return p
	}
	return Position{X: p.X + DirDX[d], Y: p.Y + DirDY[d]}
}

// Diagonal reports whether d moves on both axes.
func (d Direction) Diagonal() bool {
	return d >= 0 && d <= 7 && DirDX[d] != 0 && DirDY[d] != 0
}

func (d Direction) String() string {
	names := [...]string{"north", "northeast", "east", "southeast",
		"south", "southwest", "west", "northwest"}
	if d < 0 || int(d) >= len(names) {
		return "none"
	}
	return names[d]
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
