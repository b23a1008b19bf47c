package ai

import (
	"github.com/brensch/tronio/game"
	"github.com/brensch/tronio/rules"
)

// successors is the expansion order of the search.
var successors = [4]game.Point{game.Right, game.Left, game.Down, game.Up}

// targets returns the cells just ahead of every living opposing head.
func targets(s *rules.Simulation, b *game.Bike, t Tuning) map[game.Point]struct{} {
	out := make(map[game.Point]struct{})
	for i := range s.Bikes {
		o := &s.Bikes[i]
		if !o.Alive || o.Team == b.Team {
			continue
		}
		for k := t.LookaheadMin; k <= t.LookaheadMax; k++ {
			p := o.Head.Add(o.Dir.Scale(k))
			if s.Grid.InBounds(p) && !s.Grid.IsOccupied(p) {
				out[p] = struct{}{}
			}
		}
	}
	return out
}

// nearHead reports whether p touches a living head other than self.
func nearHead(s *rules.Simulation, self uint8, p game.Point) bool {
	for i := range s.Bikes {
		o := &s.Bikes[i]
		if !o.Alive || o.ID == self {
			continue
		}
		dx, dy := p.X-o.Head.X, p.Y-o.Head.Y
		if (dx == 0 && (dy == 1 || dy == -1)) || (dy == 0 && (dx == 1 || dx == -1)) {
			return true
		}
	}
	return false
}

// shortestPath runs a breadth-first search from b's head to the nearest
// target. It returns the first heading of the path and the path length.
func shortestPath(s *rules.Simulation, b *game.Bike, t Tuning) (game.Point, int, bool) {
	goals := targets(s, b, t)
	if len(goals) == 0 {
		return game.Point{}, 0, false
	}

	w, h := s.Grid.Size()
	idx := func(p game.Point) int { return int(p.Y)*int(w) + int(p.X) }

	// first[i] is the heading taken out of the start cell on the way to i;
	// dist[i] is zero for unvisited cells.
	first := make([]game.Point, int(w)*int(h))
	dist := make([]int32, int(w)*int(h))
	frontier := make([]game.Point, 0, 256)

	for _, d := range successors {
		p := b.Head.Add(d)
		if d.Eq(game.Invert(b.Dir)) || !s.Grid.InBounds(p) || s.Grid.IsOccupied(p) {
			continue
		}
		_, goal := goals[p]
		if !goal && nearHead(s, b.ID, p) {
			continue
		}
		if goal {
			return d, 1, true
		}
		i := idx(p)
		first[i] = d
		dist[i] = 1
		frontier = append(frontier, p)
	}

	visits := 0
	for head := 0; head < len(frontier); head++ {
		cur := frontier[head]
		ci := idx(cur)
		visits++
		if t.MaxVisits > 0 && visits > t.MaxVisits {
			break
		}
		for _, d := range successors {
			p := cur.Add(d)
			if !s.Grid.InBounds(p) || p.Eq(b.Head) {
				continue
			}
			i := idx(p)
			if dist[i] != 0 || s.Grid.IsOccupied(p) {
				continue
			}
			_, goal := goals[p]
			if !goal && nearHead(s, b.ID, p) {
				continue
			}
			dist[i] = dist[ci] + 1
			first[i] = first[ci]
			if goal {
				return first[i], int(dist[i]), true
			}
			frontier = append(frontier, p)
		}
	}
	return game.Point{}, 0, false
}
