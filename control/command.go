// Package control drives an environment from outside: command intake, tick
// pacing and the hand-off of frames to the reporter.
package control

import (
	"errors"
	"fmt"
	"strings"
)

// Command is a discrete control input. No command changes what a tick does,
// only when ticks happen and what is shown.
type Command uint8

const (
	Pause Command = iota + 1
	Resume
	TogglePause
	SpeedUp
	SlowDown
	ToggleMetrics
	Save
	Quit
)

// ErrUnknownCommand is returned by ParseCommand for unrecognized input.
var ErrUnknownCommand = errors.New("unknown command")

var commandNames = map[Command]string{
	Pause:         "pause",
	Resume:        "resume",
	TogglePause:   "toggle_pause",
	SpeedUp:       "speed_up",
	SlowDown:      "slow_down",
	ToggleMetrics: "toggle_metrics",
	Save:          "save",
	Quit:          "quit",
}

var commandAliases = map[string]Command{
	"pause":          Pause,
	"resume":         Resume,
	"toggle_pause":   TogglePause,
	"p":              TogglePause,
	"space":          TogglePause,
	"speed_up":       SpeedUp,
	"faster":         SpeedUp,
	"+":              SpeedUp,
	"slow_down":      SlowDown,
	"slower":         SlowDown,
	"-":              SlowDown,
	"toggle_metrics": ToggleMetrics,
	"metrics":        ToggleMetrics,
	"m":              ToggleMetrics,
	"save":           Save,
	"s":              Save,
	"quit":           Quit,
	"exit":           Quit,
	"q":              Quit,
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("command(%d)", uint8(c))
}

// ParseCommand maps one line of input to a command. Case and surrounding
// space are ignored.
func ParseCommand(line string) (Command, error) {
	key := strings.ToLower(strings.TrimSpace(line))
	if c, ok := commandAliases[key]; ok {
		return c, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCommand, line)
}
