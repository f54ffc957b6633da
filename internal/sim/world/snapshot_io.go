package world

import (
	"fmt"
	"sort"

	"gridforge.dev/internal/persistence/snapshot"
	"gridforge.dev/internal/sim/catalogs"
)

const snapshotVersion = 1

// ExportSnapshot captures the full world state as a V1 image. Safe to call
// only from the world loop goroutine; the returned value shares nothing
// with live state and may be written off-thread.
func (w *World) ExportSnapshot(nowTick int64) snapshot.WorldV1 {
	snap := snapshot.WorldV1{
		Header: snapshot.Header{
			Version: snapshotVersion,
			WorldID: w.cfg.ID,
			Tick:    nowTick,
		},
		Seed:               w.cfg.Seed,
		TickMs:             w.cfg.TickMs,
		SnapshotEveryTicks: w.cfg.SnapshotEveryTicks,
		Money:              w.money,
	}

	for _, p := range w.grid.Positions() {
		t := w.grid.At(p)
		tv := snapshot.TileV1{
			Key:        p.Key(),
			Kind:       uint8(t.Kind),
			Tile:       [2]uint8{t.Type.Category, t.Type.Variant},
			Dir:        uint8(t.Dir),
			Item:       uint8(t.Slot),
			LastOutput: uint8(t.LastOutput),
			Interval:   t.Interval,
			Ticks:      t.Ticks,
			HItem:      uint8(t.Horizontal.Item),
			HFrom:      uint8(t.Horizontal.From),
			VItem:      uint8(t.Vertical.Item),
			VFrom:      uint8(t.Vertical.From),
			Target:     [2]uint8{t.Target.Category, t.Target.Variant},
		}
		items := make([]catalogs.Item, 0, len(t.Inventory))
		for it := range t.Inventory {
			items = append(items, it)
		}
		sort.Slice(items, func(i, j int) bool { return items[i] < items[j] })
		for _, it := range items {
			tv.Inventory = append(tv.Inventory, snapshot.ItemLineV1{Item: uint8(it), Count: t.Inventory[it]})
		}
		snap.Tiles = append(snap.Tiles, tv)
	}

	ids := make([]catalogs.TileID, 0, len(w.ledger))
	for id := range w.ledger {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Category != ids[j].Category {
			return ids[i].Category < ids[j].Category
		}
		return ids[i].Variant < ids[j].Variant
	})
	for _, id := range ids {
		snap.Ledger = append(snap.Ledger, snapshot.LedgerLineV1{
			Tile:  [2]uint8{id.Category, id.Variant},
			Count: w.ledger[id],
		})
	}

	for slot := uint8(0); slot <= 9; slot++ {
		if id, ok := w.hotkeys[slot]; ok {
			snap.Hotkeys = append(snap.Hotkeys, snapshot.HotkeyV1{
				Slot: slot,
				Tile: [2]uint8{id.Category, id.Variant},
			})
		}
	}

	pins := make([]Position, 0, len(w.terrain.overrides))
	for p := range w.terrain.overrides {
		pins = append(pins, p)
	}
	sort.Slice(pins, func(i, j int) bool { return pins[i].Less(pins[j]) })
	for _, p := range pins {
		snap.Terrain = append(snap.Terrain, snapshot.TerrainPinV1{
			Key:  p.Key(),
			Kind: uint8(w.terrain.overrides[p]),
		})
	}

	return snap
}

// NewFromSnapshot rebuilds a world from a V1 image. The action queue starts
// empty; the first tick after resume proposes fresh from tile state.
func NewFromSnapshot(snap snapshot.WorldV1, cats *catalogs.Catalogs) (*World, error) {
	if snap.Header.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}
	w, err := New(Config{
		ID:                 snap.Header.WorldID,
		TickMs:             snap.TickMs,
		Seed:               snap.Seed,
		SnapshotEveryTicks: snap.SnapshotEveryTicks,
	}, cats)
	if err != nil {
		return nil, err
	}
	w.tick.Store(snap.Header.Tick)
	w.money = snap.Money
	// New seeds a core at the origin; the snapshot's tiles are canonical.
	w.grid = NewGrid()

	for _, tv := range snap.Tiles {
		id := catalogs.TileID{Category: tv.Tile[0], Variant: tv.Tile[1]}
		t, err := NewTile(id, PositionFromKey(tv.Key), Direction(tv.Dir%4))
		if err != nil {
			return nil, fmt.Errorf("snapshot tile %d: %w", tv.Key, err)
		}
		if uint8(t.Kind) != tv.Kind {
			return nil, fmt.Errorf("snapshot tile %d: kind %d does not match id %v", tv.Key, tv.Kind, id)
		}
		t.Slot = catalogs.Item(tv.Item)
		t.LastOutput = RouterOutput(tv.LastOutput % 3)
		if tv.Interval > 0 {
			t.Interval = tv.Interval
		}
		t.Ticks = tv.Ticks
		t.Horizontal = Lane{Item: catalogs.Item(tv.HItem), From: Direction(tv.HFrom % 4)}
		t.Vertical = Lane{Item: catalogs.Item(tv.VItem), From: Direction(tv.VFrom % 4)}
		if t.Kind == KindCore {
			target := catalogs.TileID{Category: tv.Target[0], Variant: tv.Target[1]}
			if def, ok := catalogs.TileByID(target); ok && def.CoreInterval > 0 {
				t.Target = target
			}
		}
		if len(tv.Inventory) > 0 {
			if t.Inventory == nil {
				t.Inventory = make(map[catalogs.Item]int)
			}
			for _, line := range tv.Inventory {
				n := line.Count
				// A tampered or stale snapshot must not restore a vault past
				// its unit limit.
				if t.Kind == KindStorage && n > catalogs.StorageCapacity {
					n = catalogs.StorageCapacity
				}
				t.Inventory[catalogs.Item(line.Item)] = n
			}
		}
		w.grid.Set(t)
	}

	for _, line := range snap.Ledger {
		w.ledger[catalogs.TileID{Category: line.Tile[0], Variant: line.Tile[1]}] = line.Count
	}
	for _, hk := range snap.Hotkeys {
		w.hotkeys[hk.Slot] = catalogs.TileID{Category: hk.Tile[0], Variant: hk.Tile[1]}
	}
	for _, pin := range snap.Terrain {
		w.terrain.Override(PositionFromKey(pin.Key), catalogs.TerrainKind(pin.Kind))
	}
	return w, nil
}
