// Package ai steers bikes that no human has claimed.
package ai

import (
	"fmt"
	"strings"

	"github.com/brensch/tronio/game"
	"github.com/brensch/tronio/rules"
)

type Difficulty uint8

const (
	Easy Difficulty = iota
	Medium
	Hard
)

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	default:
		return fmt.Sprintf("difficulty(%d)", uint8(d))
	}
}

func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy, nil
	case "medium", "":
		return Medium, nil
	case "hard":
		return Hard, nil
	default:
		return Easy, fmt.Errorf("unknown difficulty %q", s)
	}
}

// Tuning holds the knobs of the controller. None of them affect determinism
// of the simulation, only which commands the server issues.
type Tuning struct {
	// BoostChance is the per-tick probability of boosting when a short path
	// to a target exists.
	BoostChance float64
	// BoostPathMax is the path length below which boosting is considered.
	BoostPathMax int
	// LookaheadMin and LookaheadMax bound how far ahead of an opponent's head
	// targets are placed.
	LookaheadMin int16
	LookaheadMax int16
	// PathEvery is how often Medium runs the path search, in ticks.
	PathEvery uint32
	// MaxVisits caps the number of cells one search may expand.
	MaxVisits int
}

func DefaultTuning() Tuning {
	return Tuning{
		BoostChance:  0.1,
		BoostPathMax: 10,
		LookaheadMin: 2,
		LookaheadMax: 4,
		PathEvery:    4,
		MaxVisits:    8192,
	}
}

// Decide returns the command for bike id this tick, if any. It only reads the
// simulation, apart from drawing from its RNG.
func Decide(s *rules.Simulation, id uint8, d Difficulty, t Tuning) (game.BikeUpdate, bool) {
	b := s.Bike(id)
	if b == nil || !b.Alive {
		return game.BikeUpdate{}, false
	}

	if s.Grid.IsOccupied(b.Head.Add(b.Dir)) {
		return survive(s, b)
	}

	switch d {
	case Easy:
		return game.BikeUpdate{}, false
	case Medium:
		if t.PathEvery > 1 && s.Tick%t.PathEvery != 0 {
			return game.BikeUpdate{}, false
		}
	}

	step, dist, ok := shortestPath(s, b, t)
	if !ok {
		return game.BikeUpdate{}, false
	}
	u := game.BikeUpdate{ID: b.ID, Dir: b.Dir}
	turn := !step.Eq(b.Dir) && !step.Eq(game.Invert(b.Dir))
	if turn {
		u.Dir = step
	}
	boost := d == Hard && b.CanBoost() && dist < t.BoostPathMax && s.RNG.Float64() < t.BoostChance
	if boost {
		u.Boost = true
	}
	if !turn && !boost {
		return game.BikeUpdate{}, false
	}
	return u, true
}

// survive picks the first free side from a fixed order, walked forwards or
// backwards on a coin flip.
func survive(s *rules.Simulation, b *game.Bike) (game.BikeUpdate, bool) {
	order := game.Directions
	if s.RNG.Intn(2) == 1 {
		order = game.DirectionsReversed
	}
	back := game.Invert(b.Dir)
	for _, d := range order {
		if d.Eq(b.Dir) || d.Eq(back) {
			continue
		}
		if !s.Grid.IsOccupied(b.Head.Add(d)) {
			return game.BikeUpdate{ID: b.ID, Dir: d}, true
		}
	}
	return game.BikeUpdate{}, false
}
