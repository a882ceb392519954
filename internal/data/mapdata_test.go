package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embervale/server/internal/world"
)

func TestMapTableWalkability(t *testing.T) {
	// 3x3 map: water in the corner, a rock object in the middle,
	// an archway (interactive code 5, pass-through) at (2,1).
	terrain := []int{
		terrainWater, 0, 0,
		0, 0, 0,
		0, 0, 0,
	}
	objects := []int{
		0, 0, 0,
		0, 7, 0,
		0, 0, 0,
	}
	interactive := []int{
		0, 0, 0,
		0, 0, 5,
		0, 3, 0,
	}
	m := NewMapTable(3, 3, terrain, objects, interactive, 5)

	assert.False(t, m.IsWalkable(0, 0), "water blocks")
	assert.False(t, m.IsWalkable(1, 1), "object blocks")
	assert.True(t, m.IsWalkable(2, 1), "pass-through interactive walks")
	assert.False(t, m.IsWalkable(1, 2), "opaque interactive blocks")
	assert.True(t, m.IsWalkable(2, 2))

	assert.False(t, m.IsWalkable(-1, 0))
	assert.False(t, m.IsWalkable(3, 0))
	assert.False(t, m.IsWalkable(0, 3))

	assert.True(t, m.IsWalkablePos(world.Position{X: 2, Y: 2}))
}

func TestLoadMapData(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	write("map.yaml", "name: test\nwidth: 2\nheight: 2\npass_through: [4]\n")
	write("terrain.txt", "# terrain\n0,1\n0,0\n")
	write("objects.txt", "0,0\n0,0\n")
	write("interactive.txt", "0,0\n4,0\n")

	m, err := LoadMapData(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Width())
	assert.Equal(t, 2, m.Height())
	assert.True(t, m.IsWalkable(0, 0))
	assert.False(t, m.IsWalkable(1, 0), "water from file blocks")
	assert.True(t, m.IsWalkable(0, 1), "pass-through from descriptor walks")
}

func TestLoadMapDataBadDescriptor(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "map.yaml"), []byte("width: 0\nheight: 5\n"), 0o644))
	_, err := LoadMapData(dir)
	assert.Error(t, err)
}
