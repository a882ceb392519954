package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventoryStackableMerges(t *testing.T) {
	inv := NewInventory()

	require.True(t, inv.Add(ItemStack{ID: "oak_log", Quantity: 3}, true))
	require.True(t, inv.Add(ItemStack{ID: "oak_log", Quantity: 2}, true))

	assert.Equal(t, 5, inv.Slot(0).Quantity)
	assert.Nil(t, inv.Slot(1))
	assert.Equal(t, 5, inv.CountID("oak_log"))
}

func TestInventoryNonStackableTakesSeparateSlots(t *testing.T) {
	inv := NewInventory()

	require.True(t, inv.Add(ItemStack{ID: "hatchet", Quantity: 1}, false))
	require.True(t, inv.Add(ItemStack{ID: "hatchet", Quantity: 1}, false))

	assert.Equal(t, 1, inv.Slot(0).Quantity)
	assert.Equal(t, 1, inv.Slot(1).Quantity)
	assert.Equal(t, InventorySize-2, inv.FreeSlots())
}

func TestInventoryStackIdentity(t *testing.T) {
	inv := NewInventory()

	require.True(t, inv.Add(ItemStack{ID: "oak_log", Quantity: 1}, true))
	// Noted variant must not merge with the plain stack.
	require.True(t, inv.Add(ItemStack{ID: "oak_log", Quantity: 1, Noted: true}, true))
	// Attribute-carrying variant must not merge either.
	require.True(t, inv.Add(ItemStack{ID: "oak_log", Quantity: 1, Attrs: map[string]string{"quality": "fine"}}, true))

	assert.NotNil(t, inv.Slot(0))
	assert.NotNil(t, inv.Slot(1))
	assert.NotNil(t, inv.Slot(2))
	assert.Equal(t, 3, inv.CountID("oak_log"))
	assert.Equal(t, 1, inv.Count(ItemStack{ID: "oak_log"}))
}

func TestInventoryFullRejectsWithoutMutating(t *testing.T) {
	inv := NewInventory()
	for i := 0; i < InventorySize; i++ {
		require.True(t, inv.Add(ItemStack{ID: "rock", Quantity: 1}, false))
	}

	assert.False(t, inv.Add(ItemStack{ID: "gem", Quantity: 1}, false))
	assert.Equal(t, 0, inv.CountID("gem"))
	// A stackable add still merges into an existing stack when full.
	assert.True(t, inv.Add(ItemStack{ID: "rock", Quantity: 1}, true))
	assert.Equal(t, InventorySize+1, inv.CountID("rock"))
}

func TestInventoryPlace(t *testing.T) {
	inv := NewInventory()
	attrs := map[string]string{"quality": "fine"}
	require.True(t, inv.Place(4, ItemStack{ID: "oak_log", Quantity: 2, Attrs: attrs}))

	assert.False(t, inv.Place(4, ItemStack{ID: "bread", Quantity: 1}), "occupied slot")
	assert.False(t, inv.Place(-1, ItemStack{ID: "bread", Quantity: 1}))
	assert.False(t, inv.Place(InventorySize, ItemStack{ID: "bread", Quantity: 1}))
	assert.False(t, inv.Place(2, ItemStack{ID: "bread", Quantity: 0}))

	attrs["quality"] = "poor"
	assert.Equal(t, "fine", inv.Slot(4).Attrs["quality"], "attrs copied on place")
}

func TestInventoryRemove(t *testing.T) {
	inv := NewInventory()
	require.True(t, inv.Add(ItemStack{ID: "oak_log", Quantity: 5}, true))

	out, err := inv.Remove(0, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Quantity)
	assert.Equal(t, 3, inv.Slot(0).Quantity)

	out, err = inv.Remove(0, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Quantity)
	assert.Nil(t, inv.Slot(0), "emptied slot is cleared")

	_, err = inv.Remove(0, 1)
	assert.Equal(t, FaultNotFound, CodeOf(err))

	require.True(t, inv.Add(ItemStack{ID: "oak_log", Quantity: 2}, true))
	_, err = inv.Remove(0, 3)
	assert.Equal(t, FaultValidation, CodeOf(err), "over-remove is rejected")
	assert.Equal(t, 2, inv.Slot(0).Quantity, "failed remove leaves the slot intact")
}

func TestInventoryRemoveCopiesAttrs(t *testing.T) {
	inv := NewInventory()
	require.True(t, inv.Add(ItemStack{ID: "sword", Quantity: 2, Attrs: map[string]string{"rune": "ember"}}, true))

	out, err := inv.Remove(0, 1)
	require.NoError(t, err)

	out.Attrs["rune"] = "frost"
	assert.Equal(t, "ember", inv.Slot(0).Attrs["rune"], "removed stack owns its attr map")
}

func TestInventoryRemoveID(t *testing.T) {
	inv := NewInventory()
	require.True(t, inv.Add(ItemStack{ID: "coins", Quantity: 30}, true))
	require.True(t, inv.Add(ItemStack{ID: "coins", Quantity: 20, Noted: true}, true))

	assert.False(t, inv.RemoveID("coins", 51), "short holdings change nothing")
	assert.Equal(t, 50, inv.CountID("coins"))

	// Spans across stacks regardless of noted flag, first slot first.
	assert.True(t, inv.RemoveID("coins", 40))
	assert.Equal(t, 10, inv.CountID("coins"))
	assert.Nil(t, inv.Slot(0))
	assert.Equal(t, 10, inv.Slot(1).Quantity)
}

func TestInventoryHasRoom(t *testing.T) {
	inv := NewInventory()
	for i := 0; i < InventorySize; i++ {
		require.True(t, inv.Add(ItemStack{ID: "rock", Quantity: 1}, false))
	}

	assert.True(t, inv.HasRoom(ItemStack{ID: "rock", Quantity: 1}, true))
	assert.False(t, inv.HasRoom(ItemStack{ID: "rock", Quantity: 1}, false))
	assert.False(t, inv.HasRoom(ItemStack{ID: "gem", Quantity: 1}, true))
}
