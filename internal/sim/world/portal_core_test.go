package world

import (
	"testing"

	"gridforge.dev/internal/sim/catalogs"
)

func TestPortal_ConvertsTileItemToCredit(t *testing.T) {
	w := newTestWorld(t)
	p := mustPlace(t, w, catalogs.TilePortal, 2, 5, DirUp)
	p.Slot = catalogs.ItemConveyor

	tickN(w, 2)
	if p.Slot != catalogs.ItemNone {
		t.Fatalf("portal did not consume the item: %v", p.Slot)
	}
	if w.LedgerCount(catalogs.TileConveyor) != 1 {
		t.Fatalf("ledger = %d", w.LedgerCount(catalogs.TileConveyor))
	}
}

func TestPortal_HoldsItemsWithNoTileIdentity(t *testing.T) {
	w := newTestWorld(t)
	p := mustPlace(t, w, catalogs.TilePortal, 2, 5, DirUp)
	p.Slot = catalogs.ItemRigtorium

	tickN(w, 6)
	if p.Slot != catalogs.ItemRigtorium {
		t.Fatalf("portal consumed a raw material: %v", p.Slot)
	}
	if w.LedgerCount(catalogs.TileConveyor) != 0 {
		t.Fatalf("phantom credit: %d", w.LedgerCount(catalogs.TileConveyor))
	}
}

func TestPortal_TeleportRevalidatesHeldItem(t *testing.T) {
	w := newTestWorld(t)
	p := mustPlace(t, w, catalogs.TilePortal, 2, 5, DirUp)
	p.Slot = catalogs.ItemConveyor

	tickN(w, 1) // queue the teleport
	p.Slot = catalogs.ItemRigtorium
	tickN(w, 1) // apply sees a different item and must not credit

	if p.Slot != catalogs.ItemRigtorium {
		t.Fatalf("slot = %v", p.Slot)
	}
	if w.LedgerCount(catalogs.TileConveyor) != 0 {
		t.Fatalf("stale teleport credited: %d", w.LedgerCount(catalogs.TileConveyor))
	}
}

func TestCore_SpawnsTargetTileOnInterval(t *testing.T) {
	w := newTestWorld(t)
	core := w.grid.At(Position{})
	if core == nil || core.Kind != KindCore {
		t.Fatalf("no core at origin")
	}
	if core.Target != catalogs.TileConveyor || core.Interval != 10 {
		t.Fatalf("default core config: target=%v interval=%d", core.Target, core.Interval)
	}

	// Ten progress applies, one teleport apply: first credit on tick 12.
	tickN(w, 11)
	if w.LedgerCount(catalogs.TileConveyor) != 0 {
		t.Fatalf("credited early at tick %d", w.CurrentTick())
	}
	tickN(w, 1)
	if w.LedgerCount(catalogs.TileConveyor) != 1 || core.Ticks != 0 {
		t.Fatalf("first cycle: ledger=%d ticks=%d", w.LedgerCount(catalogs.TileConveyor), core.Ticks)
	}

	// The next cycle takes 11 more ticks.
	tickN(w, 11)
	if w.LedgerCount(catalogs.TileConveyor) != 2 {
		t.Fatalf("second cycle: ledger=%d", w.LedgerCount(catalogs.TileConveyor))
	}
}
