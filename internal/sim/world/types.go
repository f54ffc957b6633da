package world

import "fmt"

// Position is a signed grid coordinate. X grows rightward, Y grows upward.
type Position struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

// Less orders positions lexicographically by (X, Y). The simulation iterates
// tiles in this order so every tick is reproducible.
func (p Position) Less(o Position) bool {
	if p.X != o.X {
		return p.X < o.X
	}
	return p.Y < o.Y
}

// Key packs the position into a single uint64 for snapshot encoding.
func (p Position) Key() uint64 {
	return uint64(uint32(p.X))<<32 | uint64(uint32(p.Y))
}

// PositionFromKey is the inverse of Key.
func PositionFromKey(k uint64) Position {
	return Position{X: int32(k >> 32), Y: int32(k)}
}

// Shift returns the neighbor one cell away in dir.
func (p Position) Shift(dir Direction) Position {
	switch dir {
	case DirUp:
		return Position{p.X, p.Y + 1}
	case DirRight:
		return Position{p.X + 1, p.Y}
	case DirDown:
		return Position{p.X, p.Y - 1}
	default:
		return Position{p.X - 1, p.Y}
	}
}

func (p Position) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }

// Direction is one of the four cardinal facings, ordered clockwise so that
// rotation is modular arithmetic.
type Direction uint8

const (
	DirUp Direction = iota
	DirRight
	DirDown
	DirLeft
)

// Rotate advances n steps clockwise.
func (d Direction) Rotate(n int) Direction {
	return Direction((int(d) + n) % 4)
}

// Opposite is the 180-degree turn.
func (d Direction) Opposite() Direction { return d.Rotate(2) }

// Horizontal reports whether the direction lies on the X axis.
func (d Direction) Horizontal() bool { return d == DirLeft || d == DirRight }

var dirNames = [4]string{"up", "right", "down", "left"}

func (d Direction) String() string { return dirNames[d%4] }

// DirectionByName parses a wire-format direction string.
func DirectionByName(s string) (Direction, bool) {
	for i, n := range dirNames {
		if n == s {
			return Direction(i), true
		}
	}
	return DirUp, false
}
