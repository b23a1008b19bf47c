package rules

import (
	"fmt"
	"strings"

	"github.com/brensch/tronio/game"
)

// Render draws the grid plus a one-line bike summary. Used by logs, tests and
// the status API.
func Render(s *Simulation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "tick=%d hash=%016x %s\n", s.Tick, s.Hash, s.Options)
	for i := range s.Bikes {
		bk := &s.Bikes[i]
		state := "alive"
		if !bk.Alive {
			state = "dead"
		}
		fmt.Fprintf(&b, "  bike %d team=%d at (%d,%d) heading %s boosts=%d %s\n",
			bk.ID, bk.Team, bk.Head.X, bk.Head.Y, game.DirectionName(bk.Dir), bk.BoostCount, state)
	}
	b.WriteString(s.Grid.String())
	return b.String()
}
