package game

// StartPosition returns the deterministic spawn head and heading for a
// (team, player) pair on a width x height arena.
//
// Teams spawn on the middle of a side facing inward. Extra players fan out
// behind the leader, alternating to the right and left of its heading.
func StartPosition(w, h int16, team, player uint8) (Point, Point) {
	var base, dir Point
	switch team % 4 {
	case 0:
		base, dir = Point{X: 8, Y: h / 2}, Right
	case 1:
		base, dir = Point{X: w - 9, Y: h / 2}, Left
	case 2:
		base, dir = Point{X: w / 2, Y: 8}, Down
	default:
		base, dir = Point{X: w / 2, Y: h - 8}, Up
	}

	back := Invert(dir)
	var off Point
	switch player % 4 {
	case 1:
		off = RotateRight(dir).Scale(3).Add(back)
	case 2:
		off = RotateLeft(dir).Scale(3).Add(back)
	case 3:
		off = RotateRight(dir).Scale(6).Add(back.Scale(3))
	}
	return base.Add(off), dir
}
