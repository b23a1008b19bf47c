package tui

import (
	"github.com/brensch/tronio/game"
)

// Device is one half of a shared keyboard.
type Device int

const (
	DeviceWASD Device = iota
	DeviceArrows
	numDevices
)

func (d Device) String() string {
	if d == DeviceArrows {
		return "arrows"
	}
	return "wasd"
}

// key is what a key press means before the game phase is known. primary is
// confirm in the lobby and boost while playing.
type key struct {
	device  Device
	action  game.Action
	primary bool
}

var keymap = map[string]key{
	"w":     {device: DeviceWASD, action: game.ActionUp},
	"a":     {device: DeviceWASD, action: game.ActionLeft},
	"s":     {device: DeviceWASD, action: game.ActionDown},
	"d":     {device: DeviceWASD, action: game.ActionRight},
	" ":     {device: DeviceWASD, primary: true},
	"space": {device: DeviceWASD, primary: true},
	"x":     {device: DeviceWASD, action: game.ActionCancel},

	"up":        {device: DeviceArrows, action: game.ActionUp},
	"left":      {device: DeviceArrows, action: game.ActionLeft},
	"down":      {device: DeviceArrows, action: game.ActionDown},
	"right":     {device: DeviceArrows, action: game.ActionRight},
	"enter":     {device: DeviceArrows, primary: true},
	"backspace": {device: DeviceArrows, action: game.ActionCancel},
}

// resolve maps a key name to a device and action. joined reports whether the
// device already has a local player; unjoined devices only ever confirm.
func resolve(name string, lobby, joined bool) (Device, game.Action, bool) {
	k, ok := keymap[name]
	if !ok {
		return 0, game.ActionNone, false
	}
	if !k.primary {
		return k.device, k.action, true
	}
	if lobby || !joined {
		return k.device, game.ActionConfirm, true
	}
	return k.device, game.ActionBoost, true
}
