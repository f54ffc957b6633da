package world

import (
	"testing"

	"gridforge.dev/internal/sim/catalogs"
)

func TestConveyor_SingleItemOneHopPerTick(t *testing.T) {
	w := newTestWorld(t)
	a := mustPlace(t, w, catalogs.TileConveyor, 1, 5, DirRight)
	b := mustPlace(t, w, catalogs.TileConveyor, 2, 5, DirRight)
	c := mustPlace(t, w, catalogs.TileConveyor, 3, 5, DirRight)
	d := mustPlace(t, w, catalogs.TileConveyor, 4, 5, DirRight)
	a.Slot = catalogs.ItemRigtorium

	// First step only proposes; each following step commits one hop.
	tickN(w, 1)
	if a.Slot != catalogs.ItemRigtorium {
		t.Fatalf("item moved before any apply")
	}
	tickN(w, 1)
	if a.Slot != catalogs.ItemNone || b.Slot != catalogs.ItemRigtorium {
		t.Fatalf("after hop 1: a=%v b=%v", a.Slot, b.Slot)
	}
	tickN(w, 1)
	if c.Slot != catalogs.ItemRigtorium {
		t.Fatalf("after hop 2: c=%v", c.Slot)
	}
	tickN(w, 1)
	if d.Slot != catalogs.ItemRigtorium {
		t.Fatalf("after hop 3: d=%v", d.Slot)
	}
	// No downstream tile: the item stays on d.
	tickN(w, 3)
	if d.Slot != catalogs.ItemRigtorium || totalItems(w) != 1 {
		t.Fatalf("item lost at chain end: d=%v total=%d", d.Slot, totalItems(w))
	}
}

func TestConveyor_FullChainCascadesInOneTick(t *testing.T) {
	w := newTestWorld(t)
	a := mustPlace(t, w, catalogs.TileConveyor, 1, 5, DirRight)
	b := mustPlace(t, w, catalogs.TileConveyor, 2, 5, DirRight)
	c := mustPlace(t, w, catalogs.TileConveyor, 3, 5, DirRight)
	d := mustPlace(t, w, catalogs.TileConveyor, 4, 5, DirRight)
	a.Slot = catalogs.ItemRigtorium
	b.Slot = catalogs.ItemFlextorium
	c.Slot = catalogs.ItemElectrine

	tickN(w, 1) // propose all three moves
	tickN(w, 1) // the reversed order drains the chain head-first
	if a.Slot != catalogs.ItemNone {
		t.Fatalf("a not vacated: %v", a.Slot)
	}
	if b.Slot != catalogs.ItemRigtorium || c.Slot != catalogs.ItemFlextorium || d.Slot != catalogs.ItemElectrine {
		t.Fatalf("cascade broke: b=%v c=%v d=%v", b.Slot, c.Slot, d.Slot)
	}
	if totalItems(w) != 3 {
		t.Fatalf("conservation: total=%d", totalItems(w))
	}
}

func TestConveyor_BlockedDestinationKeepsItem(t *testing.T) {
	w := newTestWorld(t)
	a := mustPlace(t, w, catalogs.TileConveyor, 1, 5, DirRight)
	b := mustPlace(t, w, catalogs.TileConveyor, 2, 5, DirLeft) // faces back at a
	a.Slot = catalogs.ItemRigtorium
	b.Slot = catalogs.ItemFlextorium

	// Both propose into each other's occupied cell; both drop and retain.
	tickN(w, 4)
	if a.Slot != catalogs.ItemRigtorium || b.Slot != catalogs.ItemFlextorium {
		t.Fatalf("head-on pair corrupted: a=%v b=%v", a.Slot, b.Slot)
	}
}

func TestConveyor_LoopRotatesWithOneGap(t *testing.T) {
	w := newTestWorld(t)
	// Closed square loop: (1,1) -> (2,1) -> (2,2) -> (1,2) -> (1,1).
	p1 := mustPlace(t, w, catalogs.TileConveyor, 1, 1, DirRight)
	p2 := mustPlace(t, w, catalogs.TileConveyor, 2, 1, DirUp)
	p3 := mustPlace(t, w, catalogs.TileConveyor, 2, 2, DirLeft)
	p4 := mustPlace(t, w, catalogs.TileConveyor, 1, 2, DirDown)
	p1.Slot = catalogs.ItemRigtorium
	p2.Slot = catalogs.ItemFlextorium
	p3.Slot = catalogs.ItemElectrine
	// p4 empty.

	tickN(w, 1)
	tickN(w, 1)
	// Everything shifts one step clockwise into the gap.
	if p1.Slot != catalogs.ItemNone {
		t.Fatalf("gap did not advance: p1=%v", p1.Slot)
	}
	if p2.Slot != catalogs.ItemRigtorium || p3.Slot != catalogs.ItemFlextorium || p4.Slot != catalogs.ItemElectrine {
		t.Fatalf("loop rotation broke: p2=%v p3=%v p4=%v", p2.Slot, p3.Slot, p4.Slot)
	}
	if totalItems(w) != 3 {
		t.Fatalf("conservation: total=%d", totalItems(w))
	}
}

func TestConveyor_SaturatedLoopConservesItems(t *testing.T) {
	w := newTestWorld(t)
	p1 := mustPlace(t, w, catalogs.TileConveyor, 1, 1, DirRight)
	p2 := mustPlace(t, w, catalogs.TileConveyor, 2, 1, DirUp)
	p3 := mustPlace(t, w, catalogs.TileConveyor, 2, 2, DirLeft)
	p4 := mustPlace(t, w, catalogs.TileConveyor, 1, 2, DirDown)
	p1.Slot = catalogs.ItemRigtorium
	p2.Slot = catalogs.ItemFlextorium
	p3.Slot = catalogs.ItemElectrine
	p4.Slot = catalogs.ItemRigtoriumRod

	before := countItems(w)
	tickN(w, 10)
	after := countItems(w)
	for it, n := range before {
		if after[it] != n {
			t.Fatalf("item %v count changed: %d -> %d", it, n, after[it])
		}
	}
	if totalItems(w) != 4 {
		t.Fatalf("total=%d", totalItems(w))
	}
}
