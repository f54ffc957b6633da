package world

import (
	"fmt"

	"gridforge.dev/internal/sim/catalogs"
)

// TileKind discriminates the tile variants. Each variant only reads the
// Tile fields listed next to it below; everything else stays zero.
type TileKind uint8

const (
	KindConveyor TileKind = iota + 1
	KindRouter
	KindJunction
	KindExtractor
	KindFactory
	KindStorage
	KindPortal
	KindCore
)

var kindNames = map[TileKind]string{
	KindConveyor:  "conveyor",
	KindRouter:    "router",
	KindJunction:  "junction",
	KindExtractor: "extractor",
	KindFactory:   "factory",
	KindStorage:   "storage",
	KindPortal:    "portal",
	KindCore:      "core",
}

func (k TileKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// RouterOutput indexes the three non-reverse exits of a router relative to
// its facing.
type RouterOutput uint8

const (
	OutForward RouterOutput = iota
	OutRight
	OutLeft
)

// Next cycles forward -> right -> left -> forward.
func (o RouterOutput) Next() RouterOutput { return (o + 1) % 3 }

// Direction resolves the output to an absolute facing given the router's.
func (o RouterOutput) Direction(base Direction) Direction {
	switch o {
	case OutRight:
		return base.Rotate(1)
	case OutLeft:
		return base.Rotate(3)
	default:
		return base
	}
}

// Lane is one of a junction's two independent channels: the item in transit
// and the side it entered from. From points back toward the source cell.
type Lane struct {
	Item catalogs.Item
	From Direction
}

// Tile is one grid-cell occupant. Kind selects which fields are live:
//
//	Conveyor            Dir, Slot
//	Router              Dir, Slot, LastOutput
//	Junction            Horizontal, Vertical
//	Extractor           Dir, Slot, Extractor
//	Factory             Dir, Slot, Factory, Inventory, Interval, Ticks
//	Storage             Dir, Storage, Inventory
//	Portal              Slot
//	Core                Dir, Target, Interval, Ticks
type Tile struct {
	Kind TileKind
	Type catalogs.TileID
	Pos  Position
	Dir  Direction

	Slot catalogs.Item

	LastOutput RouterOutput

	Extractor catalogs.ExtractorKind
	Factory   catalogs.FactoryKind
	Storage   catalogs.StorageKind

	Inventory map[catalogs.Item]int
	Interval  int
	Ticks     int

	Horizontal Lane
	Vertical   Lane

	Target catalogs.TileID
}

// NewTile builds a tile of the given catalog id at pos, facing dir.
func NewTile(id catalogs.TileID, pos Position, dir Direction) (*Tile, error) {
	t := &Tile{Type: id, Pos: pos, Dir: dir}
	switch {
	case id == catalogs.TileConveyor:
		t.Kind = KindConveyor
	case id == catalogs.TileRouter:
		t.Kind = KindRouter
	case id == catalogs.TileJunction:
		t.Kind = KindJunction
	case id == catalogs.TilePortal:
		t.Kind = KindPortal
	case id == catalogs.TileCore:
		t.Kind = KindCore
		t.Target = catalogs.TileConveyor
		t.Interval = coreInterval(t.Target)
	default:
		if ek, ok := catalogs.ExtractorByTile(id); ok {
			t.Kind = KindExtractor
			t.Extractor = ek
			break
		}
		if fk, ok := catalogs.FactoryByTile(id); ok {
			t.Kind = KindFactory
			t.Factory = fk
			t.Interval = fk.Interval()
			t.Inventory = make(map[catalogs.Item]int)
			break
		}
		if sk, ok := catalogs.StorageByTile(id); ok {
			t.Kind = KindStorage
			t.Storage = sk
			t.Inventory = make(map[catalogs.Item]int)
			break
		}
		return nil, fmt.Errorf("unknown tile id %v", id)
	}
	return t, nil
}

func coreInterval(target catalogs.TileID) int {
	if def, ok := catalogs.TileByID(target); ok && def.CoreInterval > 0 {
		return def.CoreInterval
	}
	return 10
}

// Item reads the single-slot content. Variants without a slot always report
// empty; junction lanes are addressed explicitly, never through Item.
func (t *Tile) Item() catalogs.Item {
	switch t.Kind {
	case KindJunction, KindStorage, KindCore:
		return catalogs.ItemNone
	default:
		return t.Slot
	}
}

// SetItem writes the single-slot content; a no-op on slotless variants.
func (t *Tile) SetItem(it catalogs.Item) {
	switch t.Kind {
	case KindJunction, KindStorage, KindCore:
	default:
		t.Slot = it
	}
}

// canProduce reports whether a factory holds every recipe input, has a free
// output slot, and nothing else blocks production this tick.
func (t *Tile) canProduce() bool {
	if t.Kind != KindFactory || t.Slot != catalogs.ItemNone {
		return false
	}
	for it, n := range t.Factory.Recipe().Inputs {
		if t.Inventory[it] < n {
			return false
		}
	}
	return true
}

// produce consumes one recipe's inputs and returns the output item, or
// ItemNone when the inputs are not all present.
func (t *Tile) produce() catalogs.Item {
	if !t.canProduce() {
		return catalogs.ItemNone
	}
	r := t.Factory.Recipe()
	for it, n := range r.Inputs {
		t.Inventory[it] -= n
		if t.Inventory[it] <= 0 {
			delete(t.Inventory, it)
		}
	}
	return r.Output
}
