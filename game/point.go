// Package game defines the core arena types: the occupancy grid, bikes,
// projectiles and the commands that steer them.
//
// Everything in this package is deterministic and single-threaded. Two peers
// that apply the same commands in the same order end up with identical grids.
package game

// Point is a grid coordinate or a unit heading.
// (0,0) is the top-left cell and Y grows downward.
type Point struct {
	_msgpack struct{} `msgpack:",as_array"`

	X int16
	Y int16
}

// P is shorthand for building a Point.
func P(x, y int16) Point {
	return Point{X: x, Y: y}
}

var (
	Up    = Point{X: 0, Y: -1}
	Down  = Point{X: 0, Y: 1}
	Left  = Point{X: -1, Y: 0}
	Right = Point{X: 1, Y: 0}
)

// Directions is the fixed search order used wherever a heading must be picked
// deterministically.
var Directions = [4]Point{Up, Down, Left, Right}

// DirectionsReversed is Directions walked backwards.
var DirectionsReversed = [4]Point{Right, Left, Down, Up}

func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

func (p Point) Scale(n int16) Point {
	return Point{X: p.X * n, Y: p.Y * n}
}

// Eq compares coordinates only.
func (p Point) Eq(q Point) bool {
	return p.X == q.X && p.Y == q.Y
}

// IsDirection reports whether p is one of the four unit headings.
func IsDirection(p Point) bool {
	for _, d := range Directions {
		if p.Eq(d) {
			return true
		}
	}
	return false
}

// Invert returns the opposite heading.
func Invert(d Point) Point {
	return Point{X: -d.X, Y: -d.Y}
}

// RotateRight turns a heading clockwise (Up -> Right -> Down -> Left).
func RotateRight(d Point) Point {
	return Point{X: -d.Y, Y: d.X}
}

// RotateLeft turns a heading counter-clockwise.
func RotateLeft(d Point) Point {
	return Point{X: d.Y, Y: -d.X}
}

// DirectionName is used by logs and the terminal client.
func DirectionName(d Point) string {
	switch {
	case d.Eq(Up):
		return "up"
	case d.Eq(Down):
		return "down"
	case d.Eq(Left):
		return "left"
	case d.Eq(Right):
		return "right"
	default:
		return "none"
	}
}
