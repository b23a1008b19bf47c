package game

// ProjectileRange is how many cells a projectile travels before expiring.
const ProjectileRange uint8 = 20

// Projectile is a short-lived cell that travels one cell per tick and
// explodes whatever it reaches.
type Projectile struct {
	Owner uint8
	Pos   Point
	Dir   Point
	Range uint8
	Live  bool
}

// Fire launches a projectile from the cell ahead of b. If that cell is already
// occupied it is exploded immediately and no projectile is returned.
func Fire(g *Grid, b *Bike) (Projectile, bool) {
	start := b.Head.Add(b.Dir)
	if g.IsOccupied(start) {
		g.Explode(start)
		return Projectile{}, false
	}
	g.place(start, b.ID, false, true)
	return Projectile{Owner: b.ID, Pos: start, Dir: b.Dir, Range: ProjectileRange, Live: true}, true
}

// Step moves the projectile one cell. It returns the cell it exploded, if any.
// A projectile whose own cell was exploded is spent.
func (p *Projectile) Step(g *Grid) (Point, bool) {
	if !p.Live {
		return Point{}, false
	}
	if g.CellAt(p.Pos).IsExploded() {
		p.Live = false
		return Point{}, false
	}
	g.clearTransient(p.Pos, p.Owner)
	if p.Range == 0 {
		p.Live = false
		return Point{}, false
	}
	p.Range--
	next := p.Pos.Add(p.Dir)
	if !g.InBounds(next) {
		p.Live = false
		return Point{}, false
	}
	if g.IsOccupied(next) {
		p.Live = false
		g.Explode(next)
		return next, true
	}
	g.place(next, p.Owner, false, true)
	p.Pos = next
	return Point{}, false
}
