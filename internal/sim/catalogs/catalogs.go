// Package catalogs holds the closed item and tile definitions shared by the
// simulation, the wire protocol, and persistence. Everything here is static
// data; the world never mutates a catalog.
package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// Item is one transportable material kind. The set is closed: adding a kind
// means touching the recipes below, never downcasting at a call site.
type Item uint8

const (
	ItemNone Item = iota
	ItemRawFlextorium
	ItemRawRigtorium
	ItemFlextorium
	ItemRigtorium
	ItemElectrine
	ItemRigtoriumRod
	ItemConveyor
)

var itemNames = map[Item]string{
	ItemNone:          "none",
	ItemRawFlextorium: "raw_flextorium",
	ItemRawRigtorium:  "raw_rigtorium",
	ItemFlextorium:    "flextorium",
	ItemRigtorium:     "rigtorium",
	ItemElectrine:     "electrine",
	ItemRigtoriumRod:  "rigtorium_rod",
	ItemConveyor:      "conveyor",
}

func (i Item) String() string {
	if s, ok := itemNames[i]; ok {
		return s
	}
	return fmt.Sprintf("item(%d)", uint8(i))
}

// ItemByName is the inverse of Item.String for protocol decoding.
func ItemByName(s string) (Item, bool) {
	for it, name := range itemNames {
		if name == s {
			return it, true
		}
	}
	return ItemNone, false
}

// AsTile maps a fabricated item onto the tile it unpacks into when fed
// through a portal. Raw and refined materials carry no tile identity.
func (i Item) AsTile() (TileID, bool) {
	switch i {
	case ItemConveyor:
		return TileConveyor, true
	}
	return TileID{}, false
}

// TileID is the (category, variant) pair used for placement, pricing and the
// resource ledger. Category groups tiles by role; variant selects within it.
type TileID struct {
	Category uint8 `json:"category"`
	Variant  uint8 `json:"variant"`
}

var (
	TileConveyor            = TileID{1, 1}
	TileRouter              = TileID{1, 2}
	TileJunction            = TileID{1, 3}
	TileRigtoriumSmelter    = TileID{2, 1}
	TileFlextoriumFab       = TileID{2, 2}
	TileConveyorConstructor = TileID{2, 3}
	TileRodMolder           = TileID{2, 4}
	TileRigtoriumExtractor  = TileID{3, 1}
	TileFlextoriumExtractor = TileID{3, 2}
	TileElectrineExtractor  = TileID{3, 3}
	TilePortal              = TileID{4, 1}
	TileRigtoriumVault      = TileID{5, 1}
	TileFlextoriumVault     = TileID{5, 2}
	TileBattery             = TileID{5, 3}
	TileCore                = TileID{6, 1}
)

// TileDef is the static description of one placeable tile kind.
type TileDef struct {
	ID    TileID `json:"id"`
	Name  string `json:"name"`
	Price int    `json:"price"`
	// CoreInterval is the tick spacing a core uses when configured to spawn
	// this tile. Zero means a core will not produce it.
	CoreInterval int `json:"core_interval,omitempty"`
}

// tileDefs is ordered; wire palettes and digests depend on this order.
var tileDefs = []TileDef{
	{ID: TileConveyor, Name: "conveyor", Price: 10, CoreInterval: 10},
	{ID: TileRouter, Name: "router", Price: 30, CoreInterval: 30},
	{ID: TileJunction, Name: "junction", Price: 20, CoreInterval: 20},
	{ID: TileRigtoriumSmelter, Name: "rigtorium_smelter", Price: 120, CoreInterval: 120},
	{ID: TileFlextoriumFab, Name: "flextorium_fabricator", Price: 120, CoreInterval: 120},
	{ID: TileConveyorConstructor, Name: "conveyor_constructor", Price: 200, CoreInterval: 200},
	{ID: TileRodMolder, Name: "rigtorium_rod_molder", Price: 160, CoreInterval: 160},
	{ID: TileRigtoriumExtractor, Name: "rigtorium_extractor", Price: 80, CoreInterval: 80},
	{ID: TileFlextoriumExtractor, Name: "flextorium_extractor", Price: 80, CoreInterval: 80},
	{ID: TileElectrineExtractor, Name: "electrine_extractor", Price: 100, CoreInterval: 100},
	{ID: TilePortal, Name: "portal", Price: 150, CoreInterval: 150},
	{ID: TileRigtoriumVault, Name: "rigtorium_vault", Price: 60, CoreInterval: 60},
	{ID: TileFlextoriumVault, Name: "flextorium_vault", Price: 60, CoreInterval: 60},
	{ID: TileBattery, Name: "battery", Price: 60, CoreInterval: 60},
	{ID: TileCore, Name: "core", Price: 0},
}

// TileDefs returns the full placeable-tile table in palette order.
func TileDefs() []TileDef { return tileDefs }

// TileByID looks up a tile definition; ok is false for unknown pairs.
func TileByID(id TileID) (TileDef, bool) {
	for _, d := range tileDefs {
		if d.ID == id {
			return d, true
		}
	}
	return TileDef{}, false
}

// TileByName is the inverse of TileDef.Name for protocol decoding.
func TileByName(name string) (TileDef, bool) {
	for _, d := range tileDefs {
		if d.Name == name {
			return d, true
		}
	}
	return TileDef{}, false
}

// TerrainKind classifies the ground under one cell. Deposits gate extractors.
type TerrainKind uint8

const (
	TerrainStone TerrainKind = iota
	TerrainRawFlextoriumDeposit
	TerrainRawRigtoriumDeposit
	TerrainElectrineDeposit
)

func (t TerrainKind) String() string {
	switch t {
	case TerrainRawFlextoriumDeposit:
		return "raw_flextorium_deposit"
	case TerrainRawRigtoriumDeposit:
		return "raw_rigtorium_deposit"
	case TerrainElectrineDeposit:
		return "electrine_deposit"
	default:
		return "stone"
	}
}

// ExtractorKind selects what an extractor pulls out of the ground.
type ExtractorKind uint8

const (
	ExtractRawRigtorium ExtractorKind = iota
	ExtractRawFlextorium
	ExtractElectrine
)

type extractorDef struct {
	output   Item
	deposit  TerrainKind
	interval int
}

var extractorDefs = map[ExtractorKind]extractorDef{
	ExtractRawRigtorium:  {ItemRawRigtorium, TerrainRawRigtoriumDeposit, 5},
	ExtractRawFlextorium: {ItemRawFlextorium, TerrainRawFlextoriumDeposit, 5},
	ExtractElectrine:     {ItemElectrine, TerrainElectrineDeposit, 2},
}

// Output is the item an extractor of this kind emits.
func (k ExtractorKind) Output() Item { return extractorDefs[k].output }

// Deposit is the terrain the extractor must stand on to work.
func (k ExtractorKind) Deposit() TerrainKind { return extractorDefs[k].deposit }

// Interval is the tick spacing between extraction attempts.
func (k ExtractorKind) Interval() int { return extractorDefs[k].interval }

// ExtractorByTile maps an extractor tile id to its kind.
func ExtractorByTile(id TileID) (ExtractorKind, bool) {
	switch id {
	case TileRigtoriumExtractor:
		return ExtractRawRigtorium, true
	case TileFlextoriumExtractor:
		return ExtractRawFlextorium, true
	case TileElectrineExtractor:
		return ExtractElectrine, true
	}
	return 0, false
}

// FactoryKind selects a factory's recipe and input capacities.
type FactoryKind uint8

const (
	FactoryRigtoriumSmelter FactoryKind = iota
	FactoryFlextoriumFab
	FactoryConveyorConstructor
	FactoryRodMolder
)

// Recipe is one production rule: consume Inputs, emit a single Output.
type Recipe struct {
	Inputs map[Item]int `json:"inputs"`
	Output Item         `json:"output"`
}

type factoryDef struct {
	capacity map[Item]int
	recipe   Recipe
	interval int
}

var factoryDefs = map[FactoryKind]factoryDef{
	FactoryRigtoriumSmelter: {
		capacity: map[Item]int{ItemRawRigtorium: 2, ItemElectrine: 2},
		recipe:   Recipe{Inputs: map[Item]int{ItemRawRigtorium: 1, ItemElectrine: 1}, Output: ItemRigtorium},
		interval: 2,
	},
	FactoryFlextoriumFab: {
		capacity: map[Item]int{ItemRawFlextorium: 2, ItemElectrine: 2},
		recipe:   Recipe{Inputs: map[Item]int{ItemRawFlextorium: 1, ItemElectrine: 1}, Output: ItemFlextorium},
		interval: 2,
	},
	FactoryConveyorConstructor: {
		capacity: map[Item]int{ItemFlextorium: 8, ItemRigtoriumRod: 4, ItemElectrine: 2},
		recipe:   Recipe{Inputs: map[Item]int{ItemFlextorium: 4, ItemRigtoriumRod: 2, ItemElectrine: 1}, Output: ItemConveyor},
		interval: 5,
	},
	FactoryRodMolder: {
		capacity: map[Item]int{ItemRigtorium: 4, ItemElectrine: 2},
		recipe:   Recipe{Inputs: map[Item]int{ItemRigtorium: 2, ItemElectrine: 1}, Output: ItemRigtoriumRod},
		interval: 2,
	},
}

// Capacity returns the per-item input limits for a factory of this kind.
// Items absent from the map cannot be accepted at all.
func (k FactoryKind) Capacity() map[Item]int { return factoryDefs[k].capacity }

// Recipe returns the production rule for this factory kind.
func (k FactoryKind) Recipe() Recipe { return factoryDefs[k].recipe }

// Interval is the tick spacing between finished productions.
func (k FactoryKind) Interval() int { return factoryDefs[k].interval }

// FactoryByTile maps a factory tile id to its kind.
func FactoryByTile(id TileID) (FactoryKind, bool) {
	switch id {
	case TileRigtoriumSmelter:
		return FactoryRigtoriumSmelter, true
	case TileFlextoriumFab:
		return FactoryFlextoriumFab, true
	case TileConveyorConstructor:
		return FactoryConveyorConstructor, true
	case TileRodMolder:
		return FactoryRodMolder, true
	}
	return 0, false
}

// StorageKind selects the single item kind a storage tile buffers.
type StorageKind uint8

const (
	StoreRigtorium StorageKind = iota
	StoreFlextorium
	StoreElectrine
)

// StorageCapacity is the uniform unit limit for every storage kind.
const StorageCapacity = 10

// Stored is the only item a storage of this kind holds.
func (k StorageKind) Stored() Item {
	switch k {
	case StoreFlextorium:
		return ItemFlextorium
	case StoreElectrine:
		return ItemElectrine
	default:
		return ItemRigtorium
	}
}

// StorageByTile maps a storage tile id to its kind.
func StorageByTile(id TileID) (StorageKind, bool) {
	switch id {
	case TileRigtoriumVault:
		return StoreRigtorium, true
	case TileFlextoriumVault:
		return StoreFlextorium, true
	case TileBattery:
		return StoreElectrine, true
	}
	return 0, false
}

// Catalogs bundles the static tables with content digests so clients can
// cache palettes across sessions and detect drift on reconnect.
type Catalogs struct {
	ItemPalette []string
	TileTable   []TileDef

	ItemPaletteDigest string
	TileTableDigest   string
	RecipesDigest     string
}

// New assembles the catalog bundle and computes its digests.
func New() *Catalogs {
	items := make([]string, 0, len(itemNames)-1)
	for it := ItemRawFlextorium; it <= ItemConveyor; it++ {
		items = append(items, it.String())
	}

	type recipeRow struct {
		Factory string   `json:"factory"`
		Inputs  []string `json:"inputs"`
		Output  string   `json:"output"`
	}
	rows := make([]recipeRow, 0, len(factoryDefs))
	for k := FactoryRigtoriumSmelter; k <= FactoryRodMolder; k++ {
		def := factoryDefs[k]
		ins := make([]string, 0, len(def.recipe.Inputs))
		for it, n := range def.recipe.Inputs {
			ins = append(ins, fmt.Sprintf("%s:%d", it, n))
		}
		sort.Strings(ins)
		rows = append(rows, recipeRow{
			Factory: fmt.Sprintf("%d", k),
			Inputs:  ins,
			Output:  def.recipe.Output.String(),
		})
	}

	return &Catalogs{
		ItemPalette:       items,
		TileTable:         tileDefs,
		ItemPaletteDigest: digestJSON(items),
		TileTableDigest:   digestJSON(tileDefs),
		RecipesDigest:     digestJSON(rows),
	}
}

func digestJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("catalogs: digest marshal: %v", err))
	}
	sum := sha256.Sum256(b)
	return "sha256:" + hex.EncodeToString(sum[:])
}
