package rules

import (
	"fmt"

	"github.com/brensch/tronio/game"
)

// NoWinner is the Winner of a tied outcome.
const NoWinner int8 = -1

// Outcome is the round verdict for one tick.
type Outcome struct {
	Decided bool
	Winner  int8
}

func (o Outcome) Tie() bool {
	return o.Decided && o.Winner < 0
}

func (o Outcome) String() string {
	switch {
	case !o.Decided:
		return "undecided"
	case o.Tie():
		return "tie"
	default:
		return fmt.Sprintf("team %d", o.Winner)
	}
}

// Evaluate decides a round: a single team with living bikes wins, no team
// with living bikes is a tie, anything else is still running.
func Evaluate(teams uint8, bikes []game.Bike) Outcome {
	var alive [game.MaxTeams]bool
	n := 0
	for i := range bikes {
		b := &bikes[i]
		if !b.Alive || b.Team >= teams || int(b.Team) >= len(alive) {
			continue
		}
		if !alive[b.Team] {
			alive[b.Team] = true
			n++
		}
	}
	switch n {
	case 0:
		return Outcome{Decided: true, Winner: NoWinner}
	case 1:
		for t := range alive {
			if alive[t] {
				return Outcome{Decided: true, Winner: int8(t)}
			}
		}
	}
	return Outcome{Winner: NoWinner}
}

// Judge holds the first decided outcome for Grace more ticks before
// declaring it, so a near-simultaneous wipe-out still ends in a tie.
type Judge struct {
	Grace int

	pending   Outcome
	remaining int
}

// Observe feeds one tick's outcome and reports the final verdict once the
// grace window has run out.
func (j *Judge) Observe(o Outcome) (Outcome, bool) {
	if !j.pending.Decided {
		if !o.Decided {
			return Outcome{}, false
		}
		j.pending = o
		j.remaining = j.Grace
	} else {
		if o.Decided && o.Winner != j.pending.Winner {
			j.pending = o
		}
		j.remaining--
	}
	if j.remaining > 0 {
		return Outcome{}, false
	}
	final := j.pending
	j.Reset()
	return final, true
}

// Pending reports whether a verdict is being held.
func (j *Judge) Pending() bool {
	return j.pending.Decided
}

func (j *Judge) Reset() {
	j.pending = Outcome{}
	j.remaining = 0
}
