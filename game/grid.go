package game

import (
	"fmt"
	"strings"
)

// Grid is the occupancy grid. It is owned by a single simulation and is never
// shared between goroutines.
type Grid struct {
	width  int16
	height int16
	cells  []Cell
}

// NewGrid allocates an empty grid for the given size tier.
func NewGrid(size GridSize) *Grid {
	w, h := size.Dim()
	return NewGridDims(w, h)
}

// NewGridDims allocates an empty grid with explicit dimensions.
func NewGridDims(width, height int16) *Grid {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("invalid grid dimensions %dx%d", width, height))
	}
	return &Grid{
		width:  width,
		height: height,
		cells:  make([]Cell, int(width)*int(height)),
	}
}

func (g *Grid) Width() int16  { return g.width }
func (g *Grid) Height() int16 { return g.height }

func (g *Grid) Size() (int16, int16) {
	return g.width, g.height
}

func (g *Grid) InBounds(p Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < g.width && p.Y < g.height
}

func (g *Grid) index(p Point) int {
	return int(p.Y)*int(g.width) + int(p.X)
}

// CellAt returns the cell at p. Positions off the grid report WallCell so
// that leaving the arena is indistinguishable from hitting a trail.
func (g *Grid) CellAt(p Point) Cell {
	if !g.InBounds(p) {
		return WallCell
	}
	return g.cells[g.index(p)]
}

// IsOccupied is CellAt(p).Occupied().
func (g *Grid) IsOccupied(p Point) bool {
	return g.CellAt(p).Occupied()
}

// Occupy places a bike head owned by owner at p.
// It returns true on collision, in which case the cell is left untouched.
func (g *Grid) Occupy(p Point, owner uint8, boost bool) bool {
	return g.place(p, owner, true, boost)
}

func (g *Grid) place(p Point, owner uint8, head, boost bool) bool {
	if int(owner) >= MaxOwners {
		panic(fmt.Sprintf("owner %d exceeds cell capacity", owner))
	}
	if !g.InBounds(p) {
		return true
	}
	i := g.index(p)
	if g.cells[i].Occupied() {
		return true
	}
	g.cells[i] = newCell(owner, head, boost)
	return false
}

// Free turns owner's head at p into plain trail. It returns false when the
// cell was exploded from outside, meaning the bike was destroyed in place.
func (g *Grid) Free(p Point, owner uint8) bool {
	c := g.CellAt(p)
	if c.IsExploded() {
		return false
	}
	if !c.Occupied() || c.Owner() != owner {
		panic(fmt.Sprintf("free %v: cell %08b not owned by %d", p, uint8(c), owner))
	}
	g.cells[g.index(p)] = c &^ headBit
	return true
}

// Explode permanently blocks an occupied cell and clears its head flag.
// Empty and out-of-bounds cells are left alone.
func (g *Grid) Explode(p Point) bool {
	if !g.InBounds(p) {
		return false
	}
	i := g.index(p)
	c := g.cells[i]
	if !c.Occupied() {
		return false
	}
	g.cells[i] = (c | explodedBit) &^ headBit
	return true
}

// clearTransient removes a projectile cell owned by owner. Heads, plain trail
// and exploded cells are never cleared.
func (g *Grid) clearTransient(p Point, owner uint8) {
	if !g.InBounds(p) {
		return
	}
	i := g.index(p)
	c := g.cells[i]
	if c.Occupied() && c.Owner() == owner && c.IsBoost() && !c.IsHead() && !c.IsExploded() {
		g.cells[i] = 0
	}
}

// Each walks every cell in row-major order. It is the read-only view handed
// to renderers.
func (g *Grid) Each(fn func(p Point, c Cell)) {
	for y := int16(0); y < g.height; y++ {
		for x := int16(0); x < g.width; x++ {
			p := Point{X: x, Y: y}
			fn(p, g.cells[g.index(p)])
		}
	}
}

// Clone returns an independent copy.
func (g *Grid) Clone() *Grid {
	out := &Grid{width: g.width, height: g.height, cells: make([]Cell, len(g.cells))}
	copy(out.cells, g.cells)
	return out
}

// String renders the grid one rune per cell, top row first.
func (g *Grid) String() string {
	var b strings.Builder
	b.Grow(int(g.width+1) * int(g.height))
	for y := int16(0); y < g.height; y++ {
		for x := int16(0); x < g.width; x++ {
			b.WriteRune(g.cells[g.index(Point{X: x, Y: y})].Rune())
		}
		b.WriteByte('\n')
	}
	return b.String()
}
