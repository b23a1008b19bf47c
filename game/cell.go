package game

// Cell is one packed grid square.
//
//	bit 7    head     a bike head currently sits here
//	bit 6    boost    laid while boosting, or a live projectile
//	bit 5    exploded permanently blocked
//	bits 0-4 owner+1  0 means the cell is empty
//
// An empty cell never has any other bit set.
type Cell uint8

const (
	ownerBits   Cell = 0b0001_1111
	explodedBit Cell = 1 << 5
	boostBit    Cell = 1 << 6
	headBit     Cell = 1 << 7
)

// MaxOwners is the number of distinct owner ids a cell can record.
// The all-ones owner value is reserved for the wall sentinel.
const MaxOwners = int(ownerBits) - 1

// WallCell is what CellAt reports outside the grid: owned, exploded, never free.
const WallCell = ownerBits | explodedBit

func newCell(owner uint8, head, boost bool) Cell {
	c := Cell(owner+1) & ownerBits
	if head {
		c |= headBit
	}
	if boost {
		c |= boostBit
	}
	return c
}

// Occupied reports whether anything owns the cell.
func (c Cell) Occupied() bool {
	return c&ownerBits != 0
}

// Owner returns the owning bike id. Only meaningful when Occupied.
func (c Cell) Owner() uint8 {
	if !c.Occupied() {
		return 0
	}
	return uint8(c&ownerBits) - 1
}

func (c Cell) IsHead() bool     { return c&headBit != 0 }
func (c Cell) IsBoost() bool    { return c&boostBit != 0 }
func (c Cell) IsExploded() bool { return c&explodedBit != 0 }
func (c Cell) IsWall() bool     { return c&ownerBits == ownerBits }

// Rune is a compact single-character rendering used by logs and tests.
func (c Cell) Rune() rune {
	switch {
	case !c.Occupied():
		return '.'
	case c.IsWall():
		return '#'
	case c.IsExploded():
		return '*'
	case c.IsHead():
		return 'A' + rune(c.Owner()%26)
	case c.IsBoost():
		return '+'
	default:
		return 'a' + rune(c.Owner()%26)
	}
}
