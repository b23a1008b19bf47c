package game

import (
	"fmt"
	"strings"
)

// GridSize is the enumerated arena size.
type GridSize uint8

const (
	Small GridSize = iota
	Medium
	Large
)

// Dim returns the arena width and height in cells.
func (s GridSize) Dim() (int16, int16) {
	switch s {
	case Medium:
		return 100, 100
	case Large:
		return 120, 120
	default:
		return 80, 80
	}
}

func (s GridSize) String() string {
	switch s {
	case Small:
		return "small"
	case Medium:
		return "medium"
	case Large:
		return "large"
	default:
		return fmt.Sprintf("size(%d)", uint8(s))
	}
}

// Incr steps to the next larger size, saturating at Large.
func (s GridSize) Incr() GridSize {
	if s >= Large {
		return Large
	}
	return s + 1
}

// Decr steps to the next smaller size, saturating at Small.
func (s GridSize) Decr() GridSize {
	if s == Small || s > Large {
		return Small
	}
	return s - 1
}

// ParseGridSize accepts the names produced by String.
func ParseGridSize(name string) (GridSize, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "small", "s", "":
		return Small, nil
	case "medium", "m":
		return Medium, nil
	case "large", "l":
		return Large, nil
	default:
		return Small, fmt.Errorf("unknown grid size %q", name)
	}
}

const (
	MinTeams   uint8 = 2
	MaxTeams   uint8 = 4
	MinPlayers uint8 = 1
	MaxPlayers uint8 = 4
)

// GridOptions is fixed for the lifetime of a match.
type GridOptions struct {
	_msgpack struct{} `msgpack:",as_array"`

	Size    GridSize
	Teams   uint8
	Players uint8 // per team

	// Projectiles switches boosts from a speed burst to firing a projectile.
	Projectiles bool
}

func DefaultGridOptions() GridOptions {
	return GridOptions{Size: Small, Teams: MinTeams, Players: MinPlayers}
}

// Clamp forces teams and players into their legal ranges.
func (o GridOptions) Clamp() GridOptions {
	o.Teams = min(max(o.Teams, MinTeams), MaxTeams)
	o.Players = min(max(o.Players, MinPlayers), MaxPlayers)
	if o.Size > Large {
		o.Size = Large
	}
	return o
}

// Slots is the fixed roster capacity, teams x players.
func (o GridOptions) Slots() int {
	return int(o.Teams) * int(o.Players)
}

// SlotID maps (team, player) to the stable slot/bike id.
func (o GridOptions) SlotID(team, player uint8) uint8 {
	return team*o.Players + player
}

// TeamOf is the inverse of SlotID for the team half.
func (o GridOptions) TeamOf(slot uint8) uint8 {
	if o.Players == 0 {
		return 0
	}
	return slot / o.Players
}

// PlayerOf is the inverse of SlotID for the player half.
func (o GridOptions) PlayerOf(slot uint8) uint8 {
	if o.Players == 0 {
		return 0
	}
	return slot % o.Players
}

func (o GridOptions) Equal(other GridOptions) bool {
	return o.Size == other.Size && o.Teams == other.Teams && o.Players == other.Players && o.Projectiles == other.Projectiles
}

func (o GridOptions) String() string {
	mode := "boost"
	if o.Projectiles {
		mode = "projectiles"
	}
	return fmt.Sprintf("%s %dx%d %s", o.Size, o.Teams, o.Players, mode)
}
