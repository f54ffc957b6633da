package world

import (
	"testing"

	"gridforge.dev/internal/sim/catalogs"
)

func newTestWorld(t *testing.T) *World {
	t.Helper()
	w, err := New(Config{
		ID:            "test",
		TickMs:        50,
		Seed:          42,
		StartingMoney: 1_000_000,
	}, catalogs.New())
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	return w
}

func mustPlace(t *testing.T, w *World, id catalogs.TileID, x, y int32, dir Direction) *Tile {
	t.Helper()
	tile, err := NewTile(id, Position{X: x, Y: y}, dir)
	if err != nil {
		t.Fatalf("tile %v at (%d,%d): %v", id, x, y, err)
	}
	w.grid.Set(tile)
	return tile
}

func tickN(w *World, n int) {
	for i := 0; i < n; i++ {
		w.step(nil, nil, nil)
	}
}

// countItems sweeps every slot, lane and inventory. Conservation checks
// compare the result across ticks.
func countItems(w *World) map[catalogs.Item]int {
	out := map[catalogs.Item]int{}
	for _, p := range w.grid.Positions() {
		tile := w.grid.At(p)
		if tile.Slot != catalogs.ItemNone {
			out[tile.Slot]++
		}
		if tile.Horizontal.Item != catalogs.ItemNone {
			out[tile.Horizontal.Item]++
		}
		if tile.Vertical.Item != catalogs.ItemNone {
			out[tile.Vertical.Item]++
		}
		for it, n := range tile.Inventory {
			out[it] += n
		}
	}
	return out
}

func totalItems(w *World) int {
	n := 0
	for _, c := range countItems(w) {
		n += c
	}
	return n
}
