package world

import (
	"fmt"

	"gridforge.dev/internal/protocol"
	"gridforge.dev/internal/sim/catalogs"
)

// applyCommand validates and executes one player command against the
// authoritative state. Commands never touch the action queue directly;
// placement and removal purge stale proposals instead.
func (w *World) applyCommand(cmd protocol.CommandReq) protocol.ResultEvent {
	fail := func(code, detail string) protocol.ResultEvent {
		return protocol.ResultEvent{Ref: cmd.ID, OK: false, Code: code, Detail: detail}
	}
	ok := func() protocol.ResultEvent {
		return protocol.ResultEvent{Ref: cmd.ID, OK: true}
	}

	switch cmd.Type {
	case protocol.CmdPlace, protocol.CmdRedeem:
		if cmd.Pos == nil {
			return fail(protocol.ErrBadRequest, "pos required")
		}
		def, okTile := catalogs.TileByName(cmd.Tile)
		if !okTile {
			return fail(protocol.ErrBadRequest, fmt.Sprintf("unknown tile %q", cmd.Tile))
		}
		if def.ID == catalogs.TileCore {
			return fail(protocol.ErrInvalidTarget, "cores cannot be placed")
		}
		dir := DirUp
		if cmd.Dir != "" {
			d, okDir := DirectionByName(cmd.Dir)
			if !okDir {
				return fail(protocol.ErrBadRequest, fmt.Sprintf("unknown dir %q", cmd.Dir))
			}
			dir = d
		}
		pos := Position{X: int32(cmd.Pos[0]), Y: int32(cmd.Pos[1])}
		if w.grid.At(pos) != nil {
			return fail(protocol.ErrOccupied, pos.String())
		}
		if cmd.Type == protocol.CmdRedeem {
			if w.ledger[def.ID] == 0 {
				return fail(protocol.ErrNoCredit, def.Name)
			}
		} else if w.money < def.Price {
			return fail(protocol.ErrNoFunds, fmt.Sprintf("%s costs %d", def.Name, def.Price))
		}
		t, err := NewTile(def.ID, pos, dir)
		if err != nil {
			return fail(protocol.ErrInternal, err.Error())
		}
		if cmd.Type == protocol.CmdRedeem {
			w.ledger[def.ID]--
			if w.ledger[def.ID] == 0 {
				delete(w.ledger, def.ID)
			}
		} else {
			w.money -= def.Price
		}
		w.grid.Set(t)
		w.purgeActionsAt(pos)
		return ok()

	case protocol.CmdRemove:
		if cmd.Pos == nil {
			return fail(protocol.ErrBadRequest, "pos required")
		}
		pos := Position{X: int32(cmd.Pos[0]), Y: int32(cmd.Pos[1])}
		t := w.grid.At(pos)
		if t == nil {
			return fail(protocol.ErrNotFound, pos.String())
		}
		if t.Kind == KindCore {
			return fail(protocol.ErrInvalidTarget, "cores cannot be removed")
		}
		w.grid.Remove(pos)
		w.purgeActionsAt(pos)
		// Removal refunds the tile as a credit; held items are lost.
		w.ledger[t.Type]++
		return ok()

	case protocol.CmdConfigureCore:
		if cmd.Pos == nil {
			return fail(protocol.ErrBadRequest, "pos required")
		}
		pos := Position{X: int32(cmd.Pos[0]), Y: int32(cmd.Pos[1])}
		t := w.grid.At(pos)
		if t == nil || t.Kind != KindCore {
			return fail(protocol.ErrInvalidTarget, "no core at "+pos.String())
		}
		def, okTile := catalogs.TileByName(cmd.Tile)
		if !okTile || def.CoreInterval <= 0 {
			return fail(protocol.ErrBadRequest, fmt.Sprintf("core cannot produce %q", cmd.Tile))
		}
		if t.Target != def.ID {
			t.Target = def.ID
			t.Interval = def.CoreInterval
			t.Ticks = 0
		}
		return ok()

	case protocol.CmdSetHotkey:
		if cmd.Slot < 0 || cmd.Slot > 9 {
			return fail(protocol.ErrBadRequest, "slot must be 0..9")
		}
		if cmd.Tile == "" {
			delete(w.hotkeys, uint8(cmd.Slot))
			return ok()
		}
		def, okTile := catalogs.TileByName(cmd.Tile)
		if !okTile {
			return fail(protocol.ErrBadRequest, fmt.Sprintf("unknown tile %q", cmd.Tile))
		}
		w.hotkeys[uint8(cmd.Slot)] = def.ID
		return ok()

	default:
		return fail(protocol.ErrBadRequest, fmt.Sprintf("unknown command %q", cmd.Type))
	}
}

// purgeActionsAt drops every queued action proposed by the tile at pos.
// Actions merely targeting pos stay queued; apply re-validates those.
func (w *World) purgeActionsAt(pos Position) {
	kept := w.actions[:0]
	for _, a := range w.actions {
		if a.From == pos {
			continue
		}
		kept = append(kept, a)
	}
	w.actions = kept
}

// Money reports the current balance. Loop-goroutine only.
func (w *World) Money() int { return w.money }

// LedgerCount reports the credit balance for one tile kind.
func (w *World) LedgerCount(id catalogs.TileID) int { return w.ledger[id] }
