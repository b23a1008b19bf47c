package game

import (
	"testing"
)

func newTestBike(g *Grid, head, dir Point) Bike {
	g.Occupy(head, 0, false)
	return Bike{ID: 0, Head: head, Dir: dir, Alive: true, Speed: 0, BoostCount: BoostCount}
}

func TestBike_StepMovesEveryOtherTick(t *testing.T) {
	g := NewGridDims(10, 3)
	b := newTestBike(g, P(1, 1), Right)
	b.Speed = NormalSpeed

	var xs []int16
	for i := 0; i < 6; i++ {
		if b.Step(g) {
			t.Fatalf("bike died on open grid at step %d", i)
		}
		xs = append(xs, b.Head.X)
	}
	want := []int16{1, 2, 2, 3, 3, 4}
	for i := range want {
		if xs[i] != want[i] {
			t.Fatalf("step %d x=%d want %d (trace %v)", i, xs[i], want[i], xs)
		}
	}
	t.Logf("after 6 steps:\n%s", g)
}

func TestBike_TrailLeftBehind(t *testing.T) {
	g := NewGridDims(6, 1)
	b := newTestBike(g, P(0, 0), Right)
	b.Step(g)
	b.Step(g)
	if c := g.CellAt(P(0, 0)); !c.Occupied() || c.IsHead() {
		t.Fatalf("origin should be plain trail, got %08b", uint8(c))
	}
	if c := g.CellAt(b.Head); !c.IsHead() {
		t.Fatalf("current head not flagged")
	}
}

func TestBike_CollisionExplodesPriorHead(t *testing.T) {
	g := NewGridDims(5, 1)
	b := newTestBike(g, P(1, 0), Right)
	g.Occupy(P(2, 0), 1, false)
	g.Free(P(2, 0), 1)

	before := g.CellAt(P(2, 0))
	if !b.Step(g) {
		t.Fatalf("expected death")
	}
	if b.Alive {
		t.Fatalf("bike still alive")
	}
	if !g.CellAt(P(1, 0)).IsExploded() {
		t.Fatalf("prior head not exploded:\n%s", g)
	}
	if g.CellAt(P(2, 0)) != before {
		t.Fatalf("destination altered: %08b -> %08b", uint8(before), uint8(g.CellAt(P(2, 0))))
	}
	if !b.Head.Eq(P(1, 0)) {
		t.Fatalf("dead bike moved to %v", b.Head)
	}
	if b.Step(g) {
		t.Fatalf("dead bike reported a second death")
	}
}

func TestBike_WallIsCollision(t *testing.T) {
	g := NewGridDims(3, 3)
	b := newTestBike(g, P(2, 1), Right)
	if !b.Step(g) {
		t.Fatalf("moving off grid should kill")
	}
	if !g.CellAt(P(2, 1)).IsExploded() {
		t.Fatalf("death point not exploded")
	}
}

func TestBike_RammedHeadDiesInPlace(t *testing.T) {
	g := NewGridDims(4, 4)
	b := newTestBike(g, P(1, 1), Down)
	g.Explode(P(1, 1))
	if !b.Step(g) {
		t.Fatalf("rammed bike should die on its next move")
	}
	if !b.Head.Eq(P(1, 1)) || g.IsOccupied(P(1, 2)) {
		t.Fatalf("rammed bike moved")
	}
}

func TestBike_SpeedCounterSkipsFreeWhileWaiting(t *testing.T) {
	g := NewGridDims(4, 4)
	b := newTestBike(g, P(1, 1), Down)
	b.Speed = 1
	g.Explode(P(1, 1))
	if b.Step(g) {
		t.Fatalf("bike should only count down this tick")
	}
	if !b.Step(g) {
		t.Fatalf("bike should die when due to move")
	}
}

func TestBike_HandleAction(t *testing.T) {
	b := Bike{ID: 4, Dir: Right, Alive: true, BoostCount: 1}
	tests := []struct {
		name string
		act  Action
		ok   bool
		dir  Point
	}{
		{"same heading rejected", ActionRight, false, Point{}},
		{"reverse rejected", ActionLeft, false, Point{}},
		{"turn up", ActionUp, true, Up},
		{"turn down", ActionDown, true, Down},
		{"confirm ignored", ActionConfirm, false, Point{}},
	}
	for _, tt := range tests {
		u, ok := b.HandleAction(tt.act)
		if ok != tt.ok {
			t.Fatalf("%s: ok=%v want %v", tt.name, ok, tt.ok)
		}
		if ok && (u.ID != 4 || !u.Dir.Eq(tt.dir) || u.Boost) {
			t.Fatalf("%s: got %+v", tt.name, u)
		}
	}

	u, ok := b.HandleAction(ActionBoost)
	if !ok || !u.Boost || !u.Dir.Eq(Right) {
		t.Fatalf("boost with charge should be accepted, got %+v ok=%v", u, ok)
	}
	b.BoostCount = 0
	if _, ok := b.HandleAction(ActionBoost); ok {
		t.Fatalf("boost without charge should be rejected")
	}
}

func TestBike_ApplyUpdateIgnoresReverse(t *testing.T) {
	b := Bike{Dir: Up, Alive: true}
	b.ApplyUpdate(BikeUpdate{Dir: Down})
	if !b.Dir.Eq(Up) {
		t.Fatalf("reverse applied")
	}
	b.ApplyUpdate(BikeUpdate{Dir: P(2, 0)})
	if !b.Dir.Eq(Up) {
		t.Fatalf("non-unit heading applied")
	}
	b.ApplyUpdate(BikeUpdate{Dir: Left})
	if !b.Dir.Eq(Left) {
		t.Fatalf("turn not applied")
	}
}

func TestBike_BoostMovesEveryTick(t *testing.T) {
	g := NewGridDims(30, 1)
	b := newTestBike(g, P(0, 0), Right)
	b.ApplyUpdate(BikeUpdate{Dir: Right, Boost: true})
	if !b.TakeBoost() {
		t.Fatalf("boost not taken")
	}
	b.BoostTime = BoostTime
	if b.BoostCount != BoostCount-1 {
		t.Fatalf("charge not consumed: %d", b.BoostCount)
	}
	for i := 0; i < 5; i++ {
		b.Step(g)
	}
	if b.Head.X != 5 {
		t.Fatalf("boosted bike at x=%d want 5", b.Head.X)
	}
	if !g.CellAt(P(2, 0)).IsBoost() {
		t.Fatalf("boost trail not flagged:\n%s", g)
	}
}

func TestStartPositions_Distinct(t *testing.T) {
	for _, size := range []GridSize{Small, Medium, Large} {
		w, h := size.Dim()
		seen := map[Point]bool{}
		for team := uint8(0); team < MaxTeams; team++ {
			for player := uint8(0); player < MaxPlayers; player++ {
				p, dir := StartPosition(w, h, team, player)
				if p.X < 0 || p.Y < 0 || p.X >= w || p.Y >= h {
					t.Fatalf("%v team=%d player=%d off grid at %v", size, team, player, p)
				}
				if !IsDirection(dir) {
					t.Fatalf("bad heading %v", dir)
				}
				if seen[p] {
					t.Fatalf("%v duplicate start %v", size, p)
				}
				seen[p] = true
			}
		}
	}
	p, d := StartPosition(80, 80, 0, 0)
	if !p.Eq(P(8, 40)) || !d.Eq(Right) {
		t.Fatalf("team 0 leader at %v %v", p, d)
	}
	p, d = StartPosition(80, 80, 1, 0)
	if !p.Eq(P(71, 40)) || !d.Eq(Left) {
		t.Fatalf("team 1 leader at %v %v", p, d)
	}
}

func TestProjectile_ExplodesFirstOccupied(t *testing.T) {
	g := NewGridDims(10, 1)
	b := newTestBike(g, P(0, 0), Right)
	g.Occupy(P(5, 0), 1, false)

	pr, ok := Fire(g, &b)
	if !ok {
		t.Fatalf("fire failed")
	}
	for i := 0; i < 10 && pr.Live; i++ {
		pr.Step(g)
	}
	if pr.Live {
		t.Fatalf("projectile should have hit")
	}
	if !g.CellAt(P(5, 0)).IsExploded() {
		t.Fatalf("target not exploded:\n%s", g)
	}
	for x := int16(1); x < 5; x++ {
		if g.IsOccupied(P(x, 0)) {
			t.Fatalf("projectile left debris at x=%d:\n%s", x, g)
		}
	}
}

func TestProjectile_HeadOnBothSpent(t *testing.T) {
	g := NewGridDims(30, 3)
	g.Occupy(P(1, 1), 2, true)

	shots := []Projectile{
		{Owner: 0, Pos: P(3, 1), Dir: Right, Range: ProjectileRange, Live: true},
		{Owner: 1, Pos: P(8, 1), Dir: Left, Range: ProjectileRange, Live: true},
	}
	for i := range shots {
		g.place(shots[i].Pos, shots[i].Owner, false, true)
	}

	for tick := 1; tick <= 25; tick++ {
		for i := range shots {
			shots[i].Step(g)
		}
		if tick == 3 {
			if !g.CellAt(P(6, 1)).IsExploded() {
				t.Fatalf("projectiles did not meet at x=6:\n%s", g)
			}
		}
	}
	for i, pr := range shots {
		if pr.Live {
			t.Fatalf("projectile %d still live at %v:\n%s", i, pr.Pos, g)
		}
	}
	if g.CellAt(P(1, 1)).IsExploded() {
		t.Fatalf("spent projectile reached the bike:\n%s", g)
	}
	for x := int16(2); x < 6; x++ {
		if g.IsOccupied(P(x, 1)) {
			t.Fatalf("debris at x=%d:\n%s", x, g)
		}
	}
}

func TestChecksum_OrderAndFields(t *testing.T) {
	a := []Bike{
		{ID: 0, Head: P(1, 2), Dir: Right, Alive: true},
		{ID: 1, Head: P(3, 4), Dir: Left, Alive: true},
	}
	b := []Bike{a[1], a[0]}
	if Checksum(a) == Checksum(b) {
		t.Fatalf("checksum should depend on order")
	}
	c := []Bike{a[0], a[1]}
	c[1].Alive = false
	if Checksum(a) == Checksum(c) {
		t.Fatalf("checksum should depend on alive")
	}
	d := []Bike{a[0], a[1]}
	d[0].BoostCount = 2
	if Checksum(a) != Checksum(d) {
		t.Fatalf("checksum should ignore boost counters")
	}
}
