package game

// Action is a discrete input produced by an input device.
type Action uint8

const (
	ActionNone Action = iota
	ActionUp
	ActionDown
	ActionLeft
	ActionRight
	ActionBoost
	ActionConfirm
	ActionCancel
)

// Direction maps a steering action to its heading.
func (a Action) Direction() (Point, bool) {
	switch a {
	case ActionUp:
		return Up, true
	case ActionDown:
		return Down, true
	case ActionLeft:
		return Left, true
	case ActionRight:
		return Right, true
	}
	return Point{}, false
}

func (a Action) String() string {
	switch a {
	case ActionUp:
		return "up"
	case ActionDown:
		return "down"
	case ActionLeft:
		return "left"
	case ActionRight:
		return "right"
	case ActionBoost:
		return "boost"
	case ActionConfirm:
		return "confirm"
	case ActionCancel:
		return "cancel"
	default:
		return "none"
	}
}
