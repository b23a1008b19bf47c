package game

// BikeUpdate is a single steering command. Commands only set intent; the bike
// moves in the next step.
type BikeUpdate struct {
	_msgpack struct{} `msgpack:",as_array"`

	ID    uint8
	Dir   Point
	Boost bool
}

// GridUpdateMsg is the per-tick delta exchanged between peers. Tick and Hash
// are the values the sender reached after applying Updates.
type GridUpdateMsg struct {
	_msgpack struct{} `msgpack:",as_array"`

	Tick    uint32
	Hash    uint64
	Updates []BikeUpdate
}

// Empty reports whether the message carries no commands.
func (m *GridUpdateMsg) Empty() bool {
	return m == nil || len(m.Updates) == 0
}

// Clone returns a copy that shares nothing with m.
func (m *GridUpdateMsg) Clone() *GridUpdateMsg {
	if m == nil {
		return nil
	}
	out := &GridUpdateMsg{Tick: m.Tick, Hash: m.Hash}
	if len(m.Updates) > 0 {
		out.Updates = make([]BikeUpdate, len(m.Updates))
		copy(out.Updates, m.Updates)
	}
	return out
}
