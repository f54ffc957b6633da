package world

import "gridforge.dev/internal/sim/catalogs"

// depositLayer places one deposit kind on a jittered cluster lattice. Every
// grid-aligned cluster cell rolls for a deposit blob of the given radius;
// the roll and the blob center both derive from the world seed, so terrain
// is a pure function of (seed, position).
type depositLayer struct {
	kind        catalogs.TerrainKind
	seedOffset  int64
	clusterSize int32
	radius      int32
	permille    uint32
}

var depositLayers = []depositLayer{
	{catalogs.TerrainRawRigtoriumDeposit, 101, 16, 2, 180},
	{catalogs.TerrainRawFlextoriumDeposit, 202, 16, 2, 180},
	{catalogs.TerrainElectrineDeposit, 303, 24, 1, 140},
}

// Terrain is the read-only ground map. Lookups are cached; the cache is
// never invalidated because terrain never changes after world creation.
type Terrain struct {
	seed      int64
	cache     map[Position]catalogs.TerrainKind
	overrides map[Position]catalogs.TerrainKind
}

func NewTerrain(seed int64) *Terrain {
	return &Terrain{
		seed:      seed,
		cache:     make(map[Position]catalogs.TerrainKind),
		overrides: make(map[Position]catalogs.TerrainKind),
	}
}

// At returns the deposit kind under p. Layers are checked in fixed order,
// first hit wins, so overlapping blobs resolve the same way every run.
func (t *Terrain) At(p Position) catalogs.TerrainKind {
	if k, ok := t.overrides[p]; ok {
		return k
	}
	if k, ok := t.cache[p]; ok {
		return k
	}
	k := catalogs.TerrainStone
	for _, layer := range depositLayers {
		if inCluster(t.seed+layer.seedOffset, p.X, p.Y, layer.clusterSize, layer.radius, layer.permille) {
			k = layer.kind
			break
		}
	}
	t.cache[p] = k
	return k
}

// Override pins the deposit under p, shadowing the generated value. Used by
// the debug API and tests to stage deterministic scenarios.
func (t *Terrain) Override(p Position, k catalogs.TerrainKind) {
	t.overrides[p] = k
}
