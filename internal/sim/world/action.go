package world

import (
	"fmt"

	"gridforge.dev/internal/sim/catalogs"
)

// ActionKind discriminates the proposal variants.
type ActionKind uint8

const (
	// ActionMove transfers an item one cell, source slot to destination.
	ActionMove ActionKind = iota + 1
	// ActionRouteMove is a Move that also advances the router's rotor on
	// success, so the three outputs share traffic evenly.
	ActionRouteMove
	// ActionProduce asks an extractor, factory or storage at From to emit.
	ActionProduce
	// ActionTeleport cashes in the item or progress at From for one tile
	// credit in the ledger.
	ActionTeleport
	// ActionIncrementProgress advances a core's spawn countdown.
	ActionIncrementProgress
)

func (k ActionKind) String() string {
	switch k {
	case ActionMove:
		return "move"
	case ActionRouteMove:
		return "route_move"
	case ActionProduce:
		return "produce"
	case ActionTeleport:
		return "teleport"
	case ActionIncrementProgress:
		return "increment_progress"
	default:
		return fmt.Sprintf("action(%d)", uint8(k))
	}
}

// Action is one tile's queued intent for the next tick. From is always the
// proposing tile's cell; To and the payload fields are variant-specific.
type Action struct {
	Kind   ActionKind
	From   Position
	To     Position
	Item   catalogs.Item
	Output RouterOutput
	Tile   catalogs.TileID
}
