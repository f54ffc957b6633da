package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sort"

	"gridforge.dev/internal/sim/catalogs"
)

// stateDigest hashes the complete simulation state for drift detection.
// Everything is written in sorted order; two worlds with equal digests will
// evolve identically under the same inputs.
func (w *World) stateDigest(nowTick int64) string {
	h := sha256.New()
	buf := make([]byte, 8)
	wr64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf, v)
		h.Write(buf)
	}
	wr64(uint64(nowTick))
	wr64(uint64(w.cfg.Seed))
	wr64(uint64(int64(w.money)))

	for _, p := range w.grid.Positions() {
		t := w.grid.At(p)
		wr64(p.Key())
		h.Write([]byte{
			byte(t.Kind), t.Type.Category, t.Type.Variant, byte(t.Dir),
			byte(t.Slot), byte(t.LastOutput),
			byte(t.Horizontal.Item), byte(t.Horizontal.From),
			byte(t.Vertical.Item), byte(t.Vertical.From),
			t.Target.Category, t.Target.Variant,
		})
		wr64(uint64(int64(t.Interval)))
		wr64(uint64(int64(t.Ticks)))
		items := make([]catalogs.Item, 0, len(t.Inventory))
		for it := range t.Inventory {
			items = append(items, it)
		}
		sort.Slice(items, func(i, j int) bool { return items[i] < items[j] })
		for _, it := range items {
			h.Write([]byte{byte(it)})
			wr64(uint64(int64(t.Inventory[it])))
		}
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
		h.Write([]byte{id.Category, id.Variant})
		wr64(uint64(int64(w.ledger[id])))
	}

	return hex.EncodeToString(h.Sum(nil))
}
