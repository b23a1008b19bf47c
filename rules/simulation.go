// Package rules advances a match one tick at a time.
//
// A Simulation is only ever stepped by ApplyUpdates or Step; nothing advances
// it lazily. Stepping never blocks and never consults the RNG, so every peer
// that feeds the same commands reaches the same checksum.
package rules

import (
	"math/rand"

	"github.com/brensch/tronio/game"
)

// Death records a bike that died on a tick and where.
type Death struct {
	ID  uint8
	Pos game.Point
}

// StepResult is what one tick produced.
type StepResult struct {
	Outcome Outcome
	Deaths  []Death
}

// Simulation owns the grid and the bikes of one round.
type Simulation struct {
	Tick    uint32
	Hash    uint64
	Options game.GridOptions

	Grid        *game.Grid
	Bikes       []game.Bike
	Projectiles []game.Projectile

	// RNG is only read by AI controllers on the authoritative side.
	RNG *rand.Rand
}

// New builds the round-start state: a fresh grid with every slot's bike on its
// start cell. Bike ids equal their index.
func New(opts game.GridOptions, seed int64) *Simulation {
	opts = opts.Clamp()
	g := game.NewGrid(opts.Size)
	bikes := make([]game.Bike, 0, opts.Slots())
	for team := uint8(0); team < opts.Teams; team++ {
		for player := uint8(0); player < opts.Players; player++ {
			bikes = append(bikes, game.NewBike(g, opts, team, player))
		}
	}
	s := &Simulation{
		Options: opts,
		Grid:    g,
		Bikes:   bikes,
		RNG:     rand.New(rand.NewSource(seed)),
	}
	s.Hash = game.Checksum(s.Bikes)
	return s
}

// Bike returns the bike with the given id, or nil.
func (s *Simulation) Bike(id uint8) *game.Bike {
	if int(id) >= len(s.Bikes) {
		return nil
	}
	return &s.Bikes[id]
}

// ApplyUpdates records every command in msg and advances to msg.Tick. It
// reports whether a step ran.
//
// A repeated tick is dropped whole, commands included, so a duplicated
// delivery cannot queue a second boost. This deliberately differs from
// applying the commands' intent and only skipping the step.
func (s *Simulation) ApplyUpdates(msg *game.GridUpdateMsg) (StepResult, bool) {
	if msg == nil || msg.Tick == s.Tick {
		return StepResult{}, false
	}
	for _, u := range msg.Updates {
		if b := s.Bike(u.ID); b != nil {
			b.ApplyUpdate(u)
		}
	}
	res := s.Step()
	s.Tick = msg.Tick
	return res, true
}

// Step runs one tick: pending boosts, projectiles, bikes in index order, then
// the checksum. Tick is left to the caller.
func (s *Simulation) Step() StepResult {
	var res StepResult

	for i := range s.Bikes {
		b := &s.Bikes[i]
		if !b.PendingBoost {
			continue
		}
		if !b.TakeBoost() {
			continue
		}
		if s.Options.Projectiles {
			if p, ok := game.Fire(s.Grid, b); ok {
				s.Projectiles = append(s.Projectiles, p)
			}
			continue
		}
		b.BoostTime = game.BoostTime
	}

	live := s.Projectiles[:0]
	for i := range s.Projectiles {
		p := s.Projectiles[i]
		p.Step(s.Grid)
		if p.Live {
			live = append(live, p)
		}
	}
	s.Projectiles = live

	for i := range s.Bikes {
		b := &s.Bikes[i]
		if b.Step(s.Grid) {
			res.Deaths = append(res.Deaths, Death{ID: b.ID, Pos: b.Head})
		}
	}

	s.Hash = game.Checksum(s.Bikes)
	res.Outcome = Evaluate(s.Options.Teams, s.Bikes)
	return res
}

// Alive reports the number of living bikes on team.
func (s *Simulation) Alive(team uint8) int {
	n := 0
	for i := range s.Bikes {
		if s.Bikes[i].Team == team && s.Bikes[i].Alive {
			n++
		}
	}
	return n
}
