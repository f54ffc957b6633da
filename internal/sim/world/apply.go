package world

import "gridforge.dev/internal/sim/catalogs"

// applyActions drains the list queued by the previous tick. Every action is
// re-validated against the authoritative state as it stands now; a stale
// action is dropped and the item stays where it was. Returns how many
// item-transfer actions committed and how many were dropped.
func (w *World) applyActions() (applied, dropped int) {
	for _, a := range w.actions {
		switch a.Kind {
		case ActionMove:
			if w.applyMove(a, false) {
				applied++
			} else {
				dropped++
			}
		case ActionRouteMove:
			if w.applyMove(a, true) {
				applied++
			} else {
				dropped++
			}
		case ActionProduce:
			w.applyProduce(a.From)
		case ActionTeleport:
			w.applyTeleport(a.From, a.Tile)
		case ActionIncrementProgress:
			if t := w.grid.At(a.From); t != nil && t.Kind == KindCore {
				t.Ticks++
			}
		}
	}
	w.actions = nil
	return applied, dropped
}

// applyMove commits the destination before clearing the source, so a failed
// destination check leaves the item in place and the world conserves items
// under any interleaving.
func (w *World) applyMove(a Action, route bool) bool {
	dst := w.grid.At(a.To)
	if dst == nil {
		return false
	}

	committed := false
	switch dst.Kind {
	case KindConveyor, KindRouter, KindPortal:
		if dst.Slot == catalogs.ItemNone {
			dst.Slot = a.Item
			committed = true
		}
	case KindFactory:
		if dst.Factory.Capacity()[a.Item] > dst.Inventory[a.Item] {
			dst.Inventory[a.Item]++
			committed = true
		}
	case KindJunction:
		// Lane selection is exact here: the travel axis is known.
		lane := Lane{Item: a.Item, From: incomingSide(a.From, a.To)}
		if lane.From.Horizontal() {
			if dst.Horizontal.Item == catalogs.ItemNone {
				dst.Horizontal = lane
				committed = true
			}
		} else if dst.Vertical.Item == catalogs.ItemNone {
			dst.Vertical = lane
			committed = true
		}
	}
	if !committed {
		return false
	}

	src := w.grid.At(a.From)
	if src == nil {
		// Source tile was removed after proposing; destination keeps the
		// item, there is nothing left to clear.
		return true
	}
	switch src.Kind {
	case KindJunction:
		if a.From.X != a.To.X {
			src.Horizontal = Lane{}
		} else {
			src.Vertical = Lane{}
		}
	case KindRouter:
		src.Slot = catalogs.ItemNone
		if route {
			src.LastOutput = src.LastOutput.Next()
		}
	default:
		src.Slot = catalogs.ItemNone
	}
	return true
}

// incomingSide is the side of dst the item arrives through, pointing back
// toward src.
func incomingSide(src, dst Position) Direction {
	switch {
	case dst.X > src.X:
		return DirLeft
	case dst.X < src.X:
		return DirRight
	case dst.Y > src.Y:
		return DirDown
	default:
		return DirUp
	}
}

func (w *World) applyProduce(at Position) {
	t := w.grid.At(at)
	if t == nil {
		return
	}
	switch t.Kind {
	case KindFactory:
		if t.Ticks >= t.Interval {
			if out := t.produce(); out != catalogs.ItemNone {
				t.Ticks = 0
				t.Slot = out
			}
		} else {
			t.Ticks++
		}
	case KindExtractor:
		if t.Slot == catalogs.ItemNone {
			t.Slot = t.Extractor.Output()
		}
	case KindStorage:
		it := t.Storage.Stored()
		if t.Inventory[it] == 0 {
			return
		}
		dst := w.grid.At(at.Shift(t.Dir))
		if dst == nil || dst.Kind != KindConveyor || dst.Slot != catalogs.ItemNone {
			return
		}
		dst.Slot = it
		t.Inventory[it]--
		if t.Inventory[it] == 0 {
			delete(t.Inventory, it)
		}
	}
}

// applyTeleport credits one tile to the ledger, consuming the portal's held
// item or resetting the core's countdown.
func (w *World) applyTeleport(at Position, tile catalogs.TileID) {
	t := w.grid.At(at)
	if t == nil {
		return
	}
	switch t.Kind {
	case KindPortal:
		// Re-resolve from the slot actually held now, not the one seen at
		// propose time.
		id, ok := t.Slot.AsTile()
		if !ok {
			return
		}
		tile = id
		t.Slot = catalogs.ItemNone
	case KindCore:
		if t.Ticks < t.Interval {
			return
		}
		t.Ticks = 0
	default:
		return
	}
	w.ledger[tile]++
}
