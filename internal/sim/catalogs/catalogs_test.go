package catalogs

import "testing"

func TestDigestsStable(t *testing.T) {
	a := New()
	b := New()
	if a.ItemPaletteDigest == "" || a.TileTableDigest == "" || a.RecipesDigest == "" {
		t.Fatalf("empty digest in %+v", a)
	}
	if a.ItemPaletteDigest != b.ItemPaletteDigest {
		t.Fatalf("item palette digest not stable: %s vs %s", a.ItemPaletteDigest, b.ItemPaletteDigest)
	}
	if a.TileTableDigest != b.TileTableDigest {
		t.Fatalf("tile table digest not stable")
	}
	if a.RecipesDigest != b.RecipesDigest {
		t.Fatalf("recipes digest not stable")
	}
}

func TestRecipeClosure(t *testing.T) {
	// Every recipe input and output must stay inside the item enum, and
	// capacity must cover each input or the factory can never fill it.
	for k := FactoryRigtoriumSmelter; k <= FactoryRodMolder; k++ {
		r := k.Recipe()
		if r.Output == ItemNone {
			t.Fatalf("factory %d has no output", k)
		}
		cap := k.Capacity()
		for it, n := range r.Inputs {
			if it == ItemNone || n <= 0 {
				t.Fatalf("factory %d has bad input %v x%d", k, it, n)
			}
			if cap[it] < n {
				t.Fatalf("factory %d capacity %d for %v below recipe need %d", k, cap[it], it, n)
			}
		}
	}
}

func TestItemNameRoundTrip(t *testing.T) {
	for it := ItemRawFlextorium; it <= ItemConveyor; it++ {
		got, ok := ItemByName(it.String())
		if !ok || got != it {
			t.Fatalf("ItemByName(%q) = %v, %v", it.String(), got, ok)
		}
	}
	if _, ok := ItemByName("plutonium"); ok {
		t.Fatalf("unknown item name resolved")
	}
}

func TestTileLookups(t *testing.T) {
	for _, d := range TileDefs() {
		byID, ok := TileByID(d.ID)
		if !ok || byID.Name != d.Name {
			t.Fatalf("TileByID(%v) = %+v, %v", d.ID, byID, ok)
		}
		byName, ok := TileByName(d.Name)
		if !ok || byName.ID != d.ID {
			t.Fatalf("TileByName(%q) = %+v, %v", d.Name, byName, ok)
		}
	}
	if _, ok := TileByID(TileID{9, 9}); ok {
		t.Fatalf("unknown tile id resolved")
	}
}

func TestConveyorItemUnpacksToTile(t *testing.T) {
	id, ok := ItemConveyor.AsTile()
	if !ok || id != TileConveyor {
		t.Fatalf("ItemConveyor.AsTile() = %v, %v", id, ok)
	}
	if _, ok := ItemRigtorium.AsTile(); ok {
		t.Fatalf("rigtorium should not unpack to a tile")
	}
}
