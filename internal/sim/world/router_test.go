package world

import (
	"testing"

	"gridforge.dev/internal/sim/catalogs"
)

func TestRouter_DistributesRightLeftForward(t *testing.T) {
	w := newTestWorld(t)
	r := mustPlace(t, w, catalogs.TileRouter, 5, 5, DirUp)
	fwd := mustPlace(t, w, catalogs.TileConveyor, 5, 6, DirUp)
	right := mustPlace(t, w, catalogs.TileConveyor, 6, 5, DirRight)
	left := mustPlace(t, w, catalogs.TileConveyor, 4, 5, DirLeft)

	// A fresh router scans from the slot after its zero-value rotor, so the
	// first item goes right.
	r.Slot = catalogs.ItemRigtorium
	tickN(w, 2)
	if right.Slot != catalogs.ItemRigtorium || r.Slot != catalogs.ItemNone {
		t.Fatalf("first item: right=%v router=%v", right.Slot, r.Slot)
	}
	if r.LastOutput != OutRight {
		t.Fatalf("rotor = %v, want %v", r.LastOutput, OutRight)
	}

	r.Slot = catalogs.ItemFlextorium
	tickN(w, 2)
	if left.Slot != catalogs.ItemFlextorium {
		t.Fatalf("second item: left=%v", left.Slot)
	}

	r.Slot = catalogs.ItemElectrine
	tickN(w, 2)
	if fwd.Slot != catalogs.ItemElectrine {
		t.Fatalf("third item: fwd=%v", fwd.Slot)
	}
}

func TestRouter_SkipsMissingAndFullOutputs(t *testing.T) {
	w := newTestWorld(t)
	r := mustPlace(t, w, catalogs.TileRouter, 5, 5, DirUp)
	fwd := mustPlace(t, w, catalogs.TileConveyor, 5, 6, DirUp)
	left := mustPlace(t, w, catalogs.TileConveyor, 4, 5, DirLeft)
	// No tile to the right at all.

	r.Slot = catalogs.ItemRigtorium
	tickN(w, 2)
	if left.Slot != catalogs.ItemRigtorium {
		t.Fatalf("expected left delivery, left=%v fwd=%v", left.Slot, fwd.Slot)
	}

	// Left is still full, right still missing: forward is the only exit.
	r.Slot = catalogs.ItemFlextorium
	tickN(w, 2)
	if fwd.Slot != catalogs.ItemFlextorium || r.Slot != catalogs.ItemNone {
		t.Fatalf("expected forward delivery, fwd=%v router=%v", fwd.Slot, r.Slot)
	}
}

func TestRouter_RotorHoldsWhenMoveDropped(t *testing.T) {
	w := newTestWorld(t)
	r := mustPlace(t, w, catalogs.TileRouter, 5, 5, DirUp)
	right := mustPlace(t, w, catalogs.TileConveyor, 6, 5, DirRight)

	r.Slot = catalogs.ItemRigtorium
	tickN(w, 1) // queue the route to the right
	right.Slot = catalogs.ItemElectrine
	tickN(w, 1) // destination filled in the meantime: drop

	if r.Slot != catalogs.ItemRigtorium {
		t.Fatalf("item lost on dropped route: %v", r.Slot)
	}
	if r.LastOutput != OutForward {
		t.Fatalf("rotor advanced without a commit: %v", r.LastOutput)
	}

	right.Slot = catalogs.ItemNone
	tickN(w, 2)
	if right.Slot != catalogs.ItemRigtorium || r.LastOutput != OutRight {
		t.Fatalf("retry failed: right=%v rotor=%v", right.Slot, r.LastOutput)
	}
}
