package world

import "sort"

// Grid is the sparse tile map. It owns no simulation logic; the world drives
// all mutation through it.
type Grid struct {
	tiles map[Position]*Tile
}

func NewGrid() *Grid {
	return &Grid{tiles: make(map[Position]*Tile)}
}

// At returns the tile occupying p, or nil.
func (g *Grid) At(p Position) *Tile { return g.tiles[p] }

// Set installs t at its own position, replacing any occupant.
func (g *Grid) Set(t *Tile) { g.tiles[t.Pos] = t }

// Remove deletes and returns the occupant of p, or nil.
func (g *Grid) Remove(p Position) *Tile {
	t := g.tiles[p]
	delete(g.tiles, p)
	return t
}

func (g *Grid) Len() int { return len(g.tiles) }

// Positions returns every occupied cell in lexicographic (X, Y) order.
// Tick iteration goes through here so runs are reproducible.
func (g *Grid) Positions() []Position {
	out := make([]Position, 0, len(g.tiles))
	for p := range g.tiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
