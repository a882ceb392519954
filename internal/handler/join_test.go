package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embervale/server/internal/persist"
	"github.com/embervale/server/internal/world"
)

func TestProfileRoundTripKeepsSlotLayout(t *testing.T) {
	p := &world.PlayerInfo{Name: "ada", Pos: world.Position{X: 4, Y: 9}, Inv: world.NewInventory()}
	require.True(t, p.Inv.Place(0, world.ItemStack{ID: "coins", Quantity: 120}))
	require.True(t, p.Inv.Place(5, world.ItemStack{ID: "bronze_hatchet", Quantity: 1}))
	require.True(t, p.Inv.Place(27, world.ItemStack{ID: "oak_log", Quantity: 3, Noted: true}))

	row := ProfileRow(p)
	require.Len(t, row.Inventory, 3)

	restored := world.NewInventory()
	restoreInventory(restored, row.Inventory)

	require.NotNil(t, restored.Slot(0))
	assert.Equal(t, 120, restored.Slot(0).Quantity)
	assert.Nil(t, restored.Slot(1), "gaps survive the round trip")
	require.NotNil(t, restored.Slot(5))
	assert.Equal(t, "bronze_hatchet", restored.Slot(5).ID)
	require.NotNil(t, restored.Slot(27))
	assert.True(t, restored.Slot(27).Noted)
}

func TestRestoreInventoryFallsBackOnBadIndex(t *testing.T) {
	inv := world.NewInventory()
	restoreInventory(inv, []persist.SlotRow{
		{Index: 99, ItemID: "bread", Quantity: 2},
		{Index: 3, ItemID: "oak_log", Quantity: 1},
	})

	require.NotNil(t, inv.Slot(0), "out-of-range index takes the first free slot")
	assert.Equal(t, "bread", inv.Slot(0).ID)
	require.NotNil(t, inv.Slot(3))
	assert.Equal(t, "oak_log", inv.Slot(3).ID)
}
