package world

import "gridforge.dev/internal/sim/catalogs"

// canAccept is the propose-time admission check: whether t could take one
// unit of item right now. It is advisory only; apply re-validates against
// the state that actually holds when the action lands a tick later.
//
// Junctions are the one asymmetric case. At propose time only the horizontal
// lane is consulted, because the sender cannot know which lane it will land
// in until apply resolves the travel axis.
func canAccept(t *Tile, item catalogs.Item) bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case KindConveyor, KindRouter, KindPortal:
		return t.Slot == catalogs.ItemNone
	case KindFactory:
		return t.Factory.Capacity()[item] > t.Inventory[item]
	case KindJunction:
		return t.Horizontal.Item == catalogs.ItemNone
	default:
		// Storage, core and extractor never take pushed items.
		return false
	}
}
