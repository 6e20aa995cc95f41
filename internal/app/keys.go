package app

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// keyBindings maps keys to commands. Several keys may share a command.
var keyBindings = []struct {
	key ebiten.Key
	cmd Command
}{
	{ebiten.KeyQ, CommandQuit},
	{ebiten.KeyEscape, CommandQuit},
	{ebiten.KeySpace, CommandSpin},
	{ebiten.KeyEqual, CommandMoreSegments},
	{ebiten.KeyNumpadAdd, CommandMoreSegments},
	{ebiten.KeyMinus, CommandFewerSegments},
	{ebiten.KeyNumpadSubtract, CommandFewerSegments},
	{ebiten.KeyT, CommandToggleTracking},
}

// pressedCommands returns the commands for keys pressed since the last tick.
// Equal with or without shift covers '+' and '='; Minus covers '-' and '_'.
func pressedCommands() []Command {
	var cmds []Command
	for _, b := range keyBindings {
		if inpututil.IsKeyJustPressed(b.key) {
			cmds = append(cmds, b.cmd)
		}
	}
	return cmds
}
