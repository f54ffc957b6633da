package world

import (
	"testing"

	"gridforge.dev/internal/sim/catalogs"
)

func TestFactory_ProductionTimeline(t *testing.T) {
	w := newTestWorld(t)
	sm := mustPlace(t, w, catalogs.TileRigtoriumSmelter, 2, 5, DirRight)
	out := mustPlace(t, w, catalogs.TileConveyor, 3, 5, DirRight)
	sm.Inventory[catalogs.ItemRawRigtorium] = 1
	sm.Inventory[catalogs.ItemElectrine] = 1

	// Interval 2: two warm-up applies, then the third consumes the recipe.
	tickN(w, 3)
	if sm.Slot != catalogs.ItemNone || sm.Ticks != 2 {
		t.Fatalf("mid-cycle: slot=%v ticks=%d", sm.Slot, sm.Ticks)
	}
	tickN(w, 1)
	if sm.Slot != catalogs.ItemRigtorium {
		t.Fatalf("no output after full cycle: slot=%v", sm.Slot)
	}
	if sm.Ticks != 0 || len(sm.Inventory) != 0 {
		t.Fatalf("cycle did not reset: ticks=%d inv=%v", sm.Ticks, sm.Inventory)
	}

	tickN(w, 1)
	if out.Slot != catalogs.ItemRigtorium || sm.Slot != catalogs.ItemNone {
		t.Fatalf("output not pushed: out=%v slot=%v", out.Slot, sm.Slot)
	}
}

func TestFactory_IncompleteRecipeIdles(t *testing.T) {
	w := newTestWorld(t)
	sm := mustPlace(t, w, catalogs.TileRigtoriumSmelter, 2, 5, DirRight)
	mustPlace(t, w, catalogs.TileConveyor, 3, 5, DirRight)
	sm.Inventory[catalogs.ItemRawRigtorium] = 1 // no electrine

	tickN(w, 8)
	if sm.Slot != catalogs.ItemNone || sm.Ticks != 0 {
		t.Fatalf("produced without full recipe: slot=%v ticks=%d", sm.Slot, sm.Ticks)
	}
	if sm.Inventory[catalogs.ItemRawRigtorium] != 1 {
		t.Fatalf("input consumed: %v", sm.Inventory)
	}
}

func TestFactory_InsertionHonorsCapacity(t *testing.T) {
	w := newTestWorld(t)
	feed := mustPlace(t, w, catalogs.TileConveyor, 1, 5, DirRight)
	sm := mustPlace(t, w, catalogs.TileRigtoriumSmelter, 2, 5, DirRight)
	mustPlace(t, w, catalogs.TileConveyor, 3, 5, DirRight)

	sm.Inventory[catalogs.ItemRawRigtorium] = 1
	feed.Slot = catalogs.ItemRawRigtorium
	tickN(w, 2)
	if sm.Inventory[catalogs.ItemRawRigtorium] != 2 || feed.Slot != catalogs.ItemNone {
		t.Fatalf("insert below capacity failed: inv=%v feed=%v", sm.Inventory, feed.Slot)
	}

	// Capacity for raw rigtorium is 2: the next unit must wait on the belt.
	feed.Slot = catalogs.ItemRawRigtorium
	tickN(w, 4)
	if feed.Slot != catalogs.ItemRawRigtorium {
		t.Fatalf("item vanished into a full factory: feed=%v inv=%v", feed.Slot, sm.Inventory)
	}
	if sm.Inventory[catalogs.ItemRawRigtorium] != 2 {
		t.Fatalf("capacity exceeded: %v", sm.Inventory)
	}
}

func TestFactory_ConstructorBuildsConveyorItem(t *testing.T) {
	w := newTestWorld(t)
	cc := mustPlace(t, w, catalogs.TileConveyorConstructor, 2, 5, DirRight)
	mustPlace(t, w, catalogs.TileConveyor, 3, 5, DirRight)
	cc.Inventory[catalogs.ItemFlextorium] = 4
	cc.Inventory[catalogs.ItemRigtoriumRod] = 2
	cc.Inventory[catalogs.ItemElectrine] = 1

	// Interval 5: five warm-up applies plus the producing one.
	tickN(w, 7)
	if cc.Slot != catalogs.ItemConveyor {
		t.Fatalf("slot=%v ticks=%d inv=%v", cc.Slot, cc.Ticks, cc.Inventory)
	}
	if len(cc.Inventory) != 0 {
		t.Fatalf("inputs not fully consumed: %v", cc.Inventory)
	}
}
