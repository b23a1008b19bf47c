package game

const (
	// BoostCount is the number of boosts each bike starts a round with.
	BoostCount uint8 = 3
	// BoostTime is how many ticks a speed boost lasts.
	BoostTime uint8 = 20
	// NormalSpeed and BoostSpeed are speed-counter reloads: a bike moves once
	// every reload+1 ticks.
	NormalSpeed uint8 = 1
	BoostSpeed  uint8 = 0
)

// Bike is one vehicle. A bike only ever holds positions into the grid; all
// writes go through Grid methods.
type Bike struct {
	ID     uint8
	Team   uint8
	Player uint8
	Color  uint8

	Head  Point
	Dir   Point
	Alive bool

	Speed      uint8
	BoostTime  uint8
	BoostCount uint8

	// PendingBoost is set by a command and consumed at the start of the next
	// step.
	PendingBoost bool
}

// NewBike places a bike at its start position and claims the start cell.
func NewBike(g *Grid, opts GridOptions, team, player uint8) Bike {
	w, h := g.Size()
	head, dir := StartPosition(w, h, team, player)
	b := Bike{
		ID:         opts.SlotID(team, player),
		Team:       team,
		Player:     player,
		Color:      ColorIndex(team, player),
		Head:       head,
		Dir:        dir,
		Alive:      true,
		BoostCount: BoostCount,
	}
	if g.Occupy(head, b.ID, false) {
		// Start cells never overlap on legal options, but a bike placed on an
		// occupied cell is dead on arrival rather than corrupting the grid.
		b.Alive = false
	}
	return b
}

// Boosting reports whether the bike is inside an active speed boost.
func (b *Bike) Boosting() bool {
	return b.BoostTime > 0
}

// CanBoost reports whether a boost request would be accepted.
func (b *Bike) CanBoost() bool {
	return b.Alive && b.BoostCount > 0 && b.BoostTime == 0 && !b.PendingBoost
}

// HandleAction turns a local input into a command for this bike. Turning onto
// the current heading or its reverse is rejected, as is boosting without a
// charge. The bike itself is not modified.
func (b *Bike) HandleAction(a Action) (BikeUpdate, bool) {
	if !b.Alive {
		return BikeUpdate{}, false
	}
	if a == ActionBoost {
		if !b.CanBoost() {
			return BikeUpdate{}, false
		}
		return BikeUpdate{ID: b.ID, Dir: b.Dir, Boost: true}, true
	}
	dir, ok := a.Direction()
	if !ok || dir.Eq(b.Dir) || dir.Eq(Invert(b.Dir)) {
		return BikeUpdate{}, false
	}
	return BikeUpdate{ID: b.ID, Dir: dir}, true
}

// ApplyUpdate records the intent of a command. Reversals and non-unit
// headings are ignored so every peer reaches the same decision.
func (b *Bike) ApplyUpdate(u BikeUpdate) {
	if !b.Alive {
		return
	}
	if IsDirection(u.Dir) && !u.Dir.Eq(Invert(b.Dir)) {
		b.Dir = u.Dir
	}
	if u.Boost && b.BoostCount > 0 && b.BoostTime == 0 {
		b.PendingBoost = true
	}
}

// TakeBoost consumes a pending boost. It reports whether a charge was spent.
func (b *Bike) TakeBoost() bool {
	if !b.PendingBoost {
		return false
	}
	b.PendingBoost = false
	if !b.Alive || b.BoostCount == 0 || b.BoostTime > 0 {
		return false
	}
	b.BoostCount--
	return true
}

// Step advances the bike by one tick. It returns true if the bike died on
// this tick.
func (b *Bike) Step(g *Grid) bool {
	if !b.Alive {
		return false
	}
	if b.Speed > 0 {
		b.Speed--
		return false
	}
	boosting := b.BoostTime > 0
	if boosting {
		b.BoostTime--
		b.Speed = BoostSpeed
	} else {
		b.Speed = NormalSpeed
	}

	if !g.Free(b.Head, b.ID) {
		// Head was exploded from outside this tick.
		b.Alive = false
		return true
	}
	next := b.Head.Add(b.Dir)
	if g.Occupy(next, b.ID, boosting) {
		b.Alive = false
		g.Explode(b.Head)
		return true
	}
	b.Head = next
	return false
}
