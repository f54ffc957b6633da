package world

import "gridforge.dev/internal/sim/catalogs"

// proposeAll walks every tile in position order and collects at most one
// action per tile. Proposals are optimistic: they read the world as it
// stands now and are re-validated when applied next tick.
func (w *World) proposeAll() []Action {
	var out []Action
	for _, pos := range w.grid.Positions() {
		if a, ok := w.proposeFor(w.grid.At(pos)); ok {
			out = append(out, a)
		}
	}
	return out
}

func (w *World) proposeFor(t *Tile) (Action, bool) {
	switch t.Kind {
	case KindConveyor:
		return w.proposeForward(t)
	case KindRouter:
		return w.proposeRoute(t)
	case KindJunction:
		return w.proposeJunction(t)
	case KindExtractor:
		return w.proposeExtract(t)
	case KindFactory:
		return w.proposeFactory(t)
	case KindStorage:
		return w.proposeStorage(t)
	case KindPortal:
		return w.proposePortal(t)
	case KindCore:
		return w.proposeCore(t)
	}
	return Action{}, false
}

// proposeForward is the plain belt rule: push the held item to the facing
// neighbor if one exists. Occupancy is apply's problem, not ours.
func (w *World) proposeForward(t *Tile) (Action, bool) {
	if t.Slot == catalogs.ItemNone {
		return Action{}, false
	}
	dest := t.Pos.Shift(t.Dir)
	if w.grid.At(dest) == nil {
		return Action{}, false
	}
	return Action{Kind: ActionMove, From: t.Pos, To: dest, Item: t.Slot}, true
}

// proposeRoute scans the three outputs starting after the last confirmed
// one, taking the first neighbor that can accept. The rotor itself only
// advances when the move commits.
func (w *World) proposeRoute(t *Tile) (Action, bool) {
	if t.Slot == catalogs.ItemNone {
		return Action{}, false
	}
	out := t.LastOutput
	for i := 0; i < 3; i++ {
		out = out.Next()
		dest := t.Pos.Shift(out.Direction(t.Dir))
		if canAccept(w.grid.At(dest), t.Slot) {
			return Action{Kind: ActionRouteMove, From: t.Pos, To: dest, Item: t.Slot, Output: out}, true
		}
	}
	return Action{}, false
}

// proposeJunction forwards whichever lane holds an item straight across,
// horizontal lane first; a lane whose exit cannot accept yields to the
// other. A junction never turns traffic.
func (w *World) proposeJunction(t *Tile) (Action, bool) {
	for _, lane := range []Lane{t.Horizontal, t.Vertical} {
		if lane.Item == catalogs.ItemNone {
			continue
		}
		dest := t.Pos.Shift(lane.From.Opposite())
		if canAccept(w.grid.At(dest), lane.Item) {
			return Action{Kind: ActionMove, From: t.Pos, To: dest, Item: lane.Item}, true
		}
	}
	return Action{}, false
}

func (w *World) proposeExtract(t *Tile) (Action, bool) {
	if t.Slot == catalogs.ItemNone &&
		w.tick.Load()%int64(t.Extractor.Interval()) == 0 &&
		w.terrain.At(t.Pos) == t.Extractor.Deposit() {
		return Action{Kind: ActionProduce, From: t.Pos}, true
	}
	return w.proposeForward(t)
}

func (w *World) proposeFactory(t *Tile) (Action, bool) {
	if t.canProduce() {
		return Action{Kind: ActionProduce, From: t.Pos}, true
	}
	return w.proposeForward(t)
}

// proposeStorage drips one stored unit onto the facing belt when it is free.
// Storage only ever emits onto conveyors; it never feeds machines directly.
func (w *World) proposeStorage(t *Tile) (Action, bool) {
	if t.Inventory[t.Storage.Stored()] == 0 {
		return Action{}, false
	}
	dest := w.grid.At(t.Pos.Shift(t.Dir))
	if dest == nil || dest.Kind != KindConveyor || dest.Slot != catalogs.ItemNone {
		return Action{}, false
	}
	return Action{Kind: ActionProduce, From: t.Pos}, true
}

// proposePortal converts a held fabricated item into a tile credit. Items
// with no tile identity sit in the portal until removed by hand.
func (w *World) proposePortal(t *Tile) (Action, bool) {
	id, ok := t.Slot.AsTile()
	if !ok {
		return Action{}, false
	}
	return Action{Kind: ActionTeleport, From: t.Pos, Tile: id}, true
}

func (w *World) proposeCore(t *Tile) (Action, bool) {
	if t.Ticks >= t.Interval {
		return Action{Kind: ActionTeleport, From: t.Pos, Tile: t.Target}, true
	}
	return Action{Kind: ActionIncrementProgress, From: t.Pos}, true
}
