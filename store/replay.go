package store

import (
	"fmt"

	"github.com/brensch/tronio/rules"
)

// Divergence is the first recorded tick whose hash a fresh replay does not
// reproduce.
type Divergence struct {
	Tick     uint32
	Recorded uint64
	Replayed uint64
}

func (d Divergence) String() string {
	return fmt.Sprintf("tick %d: recorded %016x replayed %016x", d.Tick, d.Recorded, d.Replayed)
}

// ReplayResult summarises one replayed round.
type ReplayResult struct {
	Ticks      int
	Outcome    rules.Outcome
	Divergence *Divergence
}

// Replay runs one round's rows through a fresh simulation and checks every
// recorded hash. Rows must belong to a single round and be in tick order.
func Replay(rows []TickRow) (ReplayResult, error) {
	var res ReplayResult
	if len(rows) == 0 {
		return res, nil
	}
	opts, err := rows[0].Options()
	if err != nil {
		return res, err
	}
	sim := rules.New(opts, 0)
	for _, row := range rows {
		msg := row.Delta()
		step, ok := sim.ApplyUpdates(&msg)
		if !ok {
			return res, fmt.Errorf("tick %d: duplicate of tick %d", msg.Tick, sim.Tick)
		}
		res.Ticks++
		res.Outcome = step.Outcome
		if sim.Hash != row.Hash {
			res.Divergence = &Divergence{Tick: msg.Tick, Recorded: row.Hash, Replayed: sim.Hash}
			return res, nil
		}
	}
	return res, nil
}
