package world

import (
	"sort"

	"gridforge.dev/internal/protocol"
	"gridforge.dev/internal/sim/catalogs"
)

// buildState renders the full wire-visible state for one tick. Tiles and
// ledger lines come out in sorted order so identical worlds serialize
// identically.
func (w *World) buildState(nowTick int64, moves []RealizedMove, digest string) protocol.StateMsg {
	tiles := make([]protocol.TileState, 0, w.grid.Len())
	for _, p := range w.grid.Positions() {
		tiles = append(tiles, tileState(w.grid.At(p)))
	}

	ledger := make([]protocol.LedgerEntry, 0, len(w.ledger))
	for id, n := range w.ledger {
		def, ok := catalogs.TileByID(id)
		if !ok {
			continue
		}
		ledger = append(ledger, protocol.LedgerEntry{Tile: def.Name, Count: n})
	}
	sort.Slice(ledger, func(i, j int) bool { return ledger[i].Tile < ledger[j].Tile })

	wireMoves := make([]protocol.MoveState, 0, len(moves))
	for _, m := range moves {
		wireMoves = append(wireMoves, protocol.MoveState{
			From: [2]int{int(m.From.X), int(m.From.Y)},
			To:   [2]int{int(m.To.X), int(m.To.Y)},
			Item: m.Item.String(),
		})
	}

	return protocol.StateMsg{
		Type:            protocol.TypeState,
		ProtocolVersion: protocol.Version,
		Tick:            nowTick,
		Money:           w.money,
		Ledger:          ledger,
		Tiles:           tiles,
		Moves:           wireMoves,
		PendingActions:  len(w.actions),
		Digest:          digest,
	}
}

func tileState(t *Tile) protocol.TileState {
	def, _ := catalogs.TileByID(t.Type)
	ts := protocol.TileState{
		Pos:  [2]int{int(t.Pos.X), int(t.Pos.Y)},
		Kind: t.Kind.String(),
		Tile: def.Name,
	}
	switch t.Kind {
	case KindConveyor:
		ts.Dir = t.Dir.String()
		ts.Item = itemName(t.Slot)
	case KindRouter:
		ts.Dir = t.Dir.String()
		ts.Item = itemName(t.Slot)
		ts.LastOutput = int(t.LastOutput)
	case KindJunction:
		ts.Horizontal = laneState(t.Horizontal)
		ts.Vertical = laneState(t.Vertical)
	case KindExtractor:
		ts.Dir = t.Dir.String()
		ts.Item = itemName(t.Slot)
	case KindFactory:
		ts.Dir = t.Dir.String()
		ts.Item = itemName(t.Slot)
		ts.Inventory = inventoryLines(t.Inventory)
		ts.Progress = t.Ticks
		ts.Interval = t.Interval
	case KindStorage:
		ts.Dir = t.Dir.String()
		ts.Inventory = inventoryLines(t.Inventory)
	case KindPortal:
		ts.Item = itemName(t.Slot)
	case KindCore:
		ts.Progress = t.Ticks
		ts.Interval = t.Interval
		if def, ok := catalogs.TileByID(t.Target); ok {
			ts.Target = def.Name
		}
	}
	return ts
}

func itemName(it catalogs.Item) string {
	if it == catalogs.ItemNone {
		return ""
	}
	return it.String()
}

func laneState(l Lane) *protocol.LaneState {
	if l.Item == catalogs.ItemNone {
		return nil
	}
	return &protocol.LaneState{Item: l.Item.String(), From: l.From.String()}
}

func inventoryLines(inv map[catalogs.Item]int) []protocol.ItemCount {
	if len(inv) == 0 {
		return nil
	}
	items := make([]catalogs.Item, 0, len(inv))
	for it := range inv {
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i] < items[j] })
	out := make([]protocol.ItemCount, 0, len(items))
	for _, it := range items {
		out = append(out, protocol.ItemCount{Item: it.String(), Count: inv[it]})
	}
	return out
}
