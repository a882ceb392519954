package world

// InventorySize is the fixed number of carry slots per player.
const InventorySize = 28

// CoinItemID is the currency template id used by shop transactions.
const CoinItemID = "coins"

// Inventory is a fixed slot array. Placement is greedy: merge into an
// existing stack of the same kind first, then take the first empty slot.
// Accessed only from the game loop goroutine.
type Inventory struct {
	slots [InventorySize]*ItemStack
}

func NewInventory() *Inventory { return &Inventory{} }

// Slot returns the stack at idx, or nil for empty/out-of-range.
func (inv *Inventory) Slot(idx int) *ItemStack {
	if idx < 0 || idx >= InventorySize {
		return nil
	}
	return inv.slots[idx]
}

// Slots returns the raw slot view for snapshots. Callers must not
// mutate through it.
func (inv *Inventory) Slots() []*ItemStack { return inv.slots[:] }

// Count returns the total quantity held across all stacks of kind.
func (inv *Inventory) Count(kind ItemStack) int {
	total := 0
	for _, s := range inv.slots {
		if s != nil && s.SameKind(kind) {
			total += s.Quantity
		}
	}
	return total
}

// CountID returns the total quantity of an item template regardless of
// noted flag or attributes. Used for coin scans.
func (inv *Inventory) CountID(itemID string) int {
	total := 0
	for _, s := range inv.slots {
		if s != nil && s.ID == itemID {
			total += s.Quantity
		}
	}
	return total
}

// Add places a stack. When stackable, it merges into the first slot of
// the same kind; otherwise (or with no match) it takes the first empty
// slot. Returns false when the inventory cannot hold the stack; the
// inventory is unchanged in that case.
func (inv *Inventory) Add(stack ItemStack, stackable bool) bool {
	if stack.Quantity <= 0 {
		return false
	}
	if stackable {
		for _, s := range inv.slots {
			if s != nil && s.SameKind(stack) {
				s.Quantity += stack.Quantity
				return true
			}
		}
	}
	for i, s := range inv.slots {
		if s == nil {
			cp := stack
			cp.Attrs = stack.CopyAttrs()
			inv.slots[i] = &cp
			return true
		}
	}
	return false
}

// Place puts a stack into a specific slot, for restoring a saved
// layout. Returns false when the slot is occupied or out of range; the
// caller falls back to Add.
func (inv *Inventory) Place(idx int, stack ItemStack) bool {
	if idx < 0 || idx >= InventorySize || inv.slots[idx] != nil || stack.Quantity <= 0 {
		return false
	}
	cp := stack
	cp.Attrs = stack.CopyAttrs()
	inv.slots[idx] = &cp
	return true
}

// Remove takes qty from the slot at idx, clearing it when emptied.
// Returns the removed stack.
func (inv *Inventory) Remove(idx, qty int) (ItemStack, error) {
	s := inv.Slot(idx)
	if s == nil {
		return ItemStack{}, NotFoundf("no item in slot %d", idx)
	}
	if qty <= 0 || qty > s.Quantity {
		return ItemStack{}, Validationf("bad quantity %d for slot %d", qty, idx)
	}
	out := *s
	out.Quantity = qty
	out.Attrs = s.CopyAttrs()
	s.Quantity -= qty
	if s.Quantity == 0 {
		inv.slots[idx] = nil
	}
	return out, nil
}

// RemoveID takes qty of an item template across slots, first-slot-first.
// Returns false (and changes nothing) when the holdings are short.
func (inv *Inventory) RemoveID(itemID string, qty int) bool {
	if inv.CountID(itemID) < qty {
		return false
	}
	for i, s := range inv.slots {
		if qty == 0 {
			break
		}
		if s == nil || s.ID != itemID {
			continue
		}
		take := qty
		if take > s.Quantity {
			take = s.Quantity
		}
		s.Quantity -= take
		qty -= take
		if s.Quantity == 0 {
			inv.slots[i] = nil
		}
	}
	return true
}

// FreeSlots returns the number of empty slots.
func (inv *Inventory) FreeSlots() int {
	n := 0
	for _, s := range inv.slots {
		if s == nil {
			n++
		}
	}
	return n
}

// HasRoom reports whether a stack could be placed without mutating.
func (inv *Inventory) HasRoom(stack ItemStack, stackable bool) bool {
	if stackable {
		for _, s := range inv.slots {
			if s != nil && s.SameKind(stack) {
				return true
			}
		}
	}
	return inv.FreeSlots() > 0
}
