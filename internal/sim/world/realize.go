package world

import "gridforge.dev/internal/sim/catalogs"

// RealizedMove is one item transfer the queued actions will commit next
// tick, precomputed so clients can animate it while the tick plays out.
type RealizedMove struct {
	From Position      `json:"from"`
	To   Position      `json:"to"`
	Item catalogs.Item `json:"item"`
}

// realizedMoves dry-runs the sorted action list against a shadow occupancy
// model and keeps only the transfers that will land. The world itself is
// not touched; filled/empty track which cells each earlier action in the
// list has already claimed or vacated.
func (w *World) realizedMoves(actions []Action) []RealizedMove {
	filled := make(map[Position]bool)
	empty := make(map[Position]bool)
	for _, p := range w.grid.Positions() {
		t := w.grid.At(p)
		switch t.Kind {
		case KindConveyor, KindRouter:
			if t.Slot == catalogs.ItemNone {
				empty[p] = true
			}
		case KindFactory:
			empty[p] = true
		}
	}

	var out []RealizedMove
	now := w.tick.Load()
	for _, a := range actions {
		switch a.Kind {
		case ActionMove, ActionRouteMove:
			dst := w.grid.At(a.To)
			if dst == nil {
				continue
			}
			ok := false
			switch dst.Kind {
			case KindConveyor, KindRouter:
				ok = !filled[a.To] && empty[a.To]
				if ok {
					filled[a.To] = true
					delete(empty, a.To)
				}
			case KindFactory:
				ok = dst.Factory.Capacity()[a.Item] > dst.Inventory[a.Item]
			case KindPortal:
				ok = dst.Slot == catalogs.ItemNone && !filled[a.To]
				if ok {
					filled[a.To] = true
				}
			case KindJunction:
				if incomingSide(a.From, a.To).Horizontal() {
					ok = dst.Horizontal.Item == catalogs.ItemNone && !filled[a.To]
				} else {
					ok = dst.Vertical.Item == catalogs.ItemNone && !filled[a.To]
				}
				if ok {
					filled[a.To] = true
				}
			}
			if !ok {
				continue
			}
			delete(filled, a.From)
			empty[a.From] = true
			out = append(out, RealizedMove{From: a.From, To: a.To, Item: a.Item})

		case ActionProduce:
			t := w.grid.At(a.From)
			if t == nil {
				continue
			}
			dest, hasDest := w.produceDestination(a.From)
			if !hasDest {
				continue
			}
			d := w.grid.At(dest)
			if d == nil {
				continue
			}
			var item catalogs.Item
			switch t.Kind {
			case KindFactory:
				if !t.canProduce() || t.Ticks < t.Interval {
					continue
				}
				item = t.Factory.Recipe().Output
			case KindExtractor:
				if t.Slot != catalogs.ItemNone || now%int64(t.Extractor.Interval()) != 0 ||
					w.terrain.At(a.From) != t.Extractor.Deposit() {
					continue
				}
				item = t.Extractor.Output()
			case KindStorage:
				if t.Inventory[t.Storage.Stored()] == 0 || d.Kind != KindConveyor {
					continue
				}
				item = t.Storage.Stored()
			default:
				continue
			}
			// Output lands only where the destination will take it, claiming
			// the cell so a later action cannot double-book it.
			ok := false
			switch d.Kind {
			case KindConveyor, KindRouter:
				ok = !filled[dest] && empty[dest]
				if ok {
					filled[dest] = true
					delete(empty, dest)
				}
			case KindFactory:
				ok = d.Factory.Capacity()[item] > d.Inventory[item]
			case KindPortal:
				ok = d.Slot == catalogs.ItemNone && !filled[dest]
				if ok {
					filled[dest] = true
				}
			}
			if !ok {
				continue
			}
			out = append(out, RealizedMove{From: a.From, To: dest, Item: item})
		}
	}
	return out
}
