package data

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/embervale/server/internal/world"
)

// Terrain codes that block movement. Everything else is traversable
// ground as far as the terrain layer is concerned.
const (
	terrainWater = 1
	terrainCliff = 2
	terrainLava  = 3
	terrainVoid  = 9
)

var nonWalkableTerrain = map[int]bool{
	terrainWater: true,
	terrainCliff: true,
	terrainLava:  true,
	terrainVoid:  true,
}

// MapInfo is the map descriptor from map.yaml.
type MapInfo struct {
	Name   string `yaml:"name"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	// Interactive-object codes a player or NPC can walk through
	// (archways, open gates). Any other nonzero code obstructs.
	PassThrough []int `yaml:"pass_through"`
}

// MapTable answers walkability queries from the three static layers:
// terrain, ground objects, interactive objects. Pure lookups over
// immutable data — safe to call from anywhere.
type MapTable struct {
	info        MapInfo
	terrain     []int // flat [y*width + x]
	objects     []int
	interactive []int
	passThrough map[int]bool
}

// LoadMapData loads the descriptor plus the three layer grids from dir:
// map.yaml, terrain.txt, objects.txt, interactive.txt. Layer files are
// comma-separated rows, one line per Y.
func LoadMapData(dir string) (*MapTable, error) {
	raw, err := os.ReadFile(filepath.Join(dir, "map.yaml"))
	if err != nil {
		return nil, fmt.Errorf("read map descriptor: %w", err)
	}
	var info MapInfo
	if err := yaml.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("parse map descriptor: %w", err)
	}
	if info.Width <= 0 || info.Height <= 0 {
		return nil, fmt.Errorf("map descriptor: bad dimensions %dx%d", info.Width, info.Height)
	}

	t := &MapTable{
		info:        info,
		passThrough: make(map[int]bool, len(info.PassThrough)),
	}
	for _, code := range info.PassThrough {
		t.passThrough[code] = true
	}

	if t.terrain, err = loadLayer(filepath.Join(dir, "terrain.txt"), info.Width, info.Height); err != nil {
		return nil, fmt.Errorf("terrain layer: %w", err)
	}
	if t.objects, err = loadLayer(filepath.Join(dir, "objects.txt"), info.Width, info.Height); err != nil {
		return nil, fmt.Errorf("object layer: %w", err)
	}
	if t.interactive, err = loadLayer(filepath.Join(dir, "interactive.txt"), info.Width, info.Height); err != nil {
		return nil, fmt.Errorf("interactive layer: %w", err)
	}
	return t, nil
}

// NewMapTable builds a table from in-memory layers. Layer slices are
// row-major [y*width + x]; nil layers are treated as all-zero.
func NewMapTable(width, height int, terrain, objects, interactive []int, passThrough ...int) *MapTable {
	t := &MapTable{
		info:        MapInfo{Width: width, Height: height, PassThrough: passThrough},
		terrain:     padLayer(terrain, width*height),
		objects:     padLayer(objects, width*height),
		interactive: padLayer(interactive, width*height),
		passThrough: make(map[int]bool, len(passThrough)),
	}
	for _, code := range passThrough {
		t.passThrough[code] = true
	}
	return t
}

func padLayer(layer []int, n int) []int {
	if len(layer) >= n {
		return layer[:n]
	}
	out := make([]int, n)
	copy(out, layer)
	return out
}

func loadLayer(path string, width, height int) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	layer := make([]int, width*height)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024)

	y := 0
	for scanner.Scan() && y < height {
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		x := 0
		for _, tok := range strings.Split(line, ",") {
			if x >= width {
				break
			}
			val, err := strconv.Atoi(strings.TrimSpace(tok))
			if err != nil {
				val = 0
			}
			layer[y*width+x] = val
			x++
		}
		y++
	}
	return layer, scanner.Err()
}

// InBounds reports whether (x, y) is inside the map.
func (t *MapTable) InBounds(x, y int) bool {
	return x >= 0 && x < t.info.Width && y >= 0 && y < t.info.Height
}

// Width returns the map width in tiles.
func (t *MapTable) Width() int { return t.info.Width }

// Height returns the map height in tiles.
func (t *MapTable) Height() int { return t.info.Height }

// IsWalkable reports whether a tile can be stood on. Out-of-bounds is
// never walkable. A tile is walkable iff its terrain code is not in the
// blocked set, no ground object obstructs it, and any interactive
// object on it is a pass-through marker.
func (t *MapTable) IsWalkable(x, y int) bool {
	if !t.InBounds(x, y) {
		return false
	}
	idx := y*t.info.Width + x
	if nonWalkableTerrain[t.terrain[idx]] {
		return false
	}
	if t.objects[idx] != 0 {
		return false
	}
	if code := t.interactive[idx]; code != 0 && !t.passThrough[code] {
		return false
	}
	return true
}

// IsWalkablePos is IsWalkable for a Position value.
func (t *MapTable) IsWalkablePos(pos world.Position) bool {
	return t.IsWalkable(pos.X, pos.Y)
}
