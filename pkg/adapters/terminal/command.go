package terminal

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/canopy/pkg/domain"
)

var (
	// ErrUnknownCommand is returned for input that is not a known command.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrEmptyCommand is returned for a blank line.
	ErrEmptyCommand = errors.New("empty command")
)

// Command names.
const (
	CommandClick = "click"
	CommandQuit  = "quit"
)

// Command is one line typed by the user.
type Command struct {
	// Name is CommandClick or CommandQuit.
	Name   string
	Target string
	Data   []any
}

// ParseCommand parses a sanitised line of the form
//
//	click <target> [json array]
//	quit
func ParseCommand(line string) (Command, error) {
	line = strings.TrimSpace(line)
	name, rest, _ := strings.Cut(line, " ")
	switch name {
	case "":
		return Command{}, ErrEmptyCommand
	case "quit", "exit", "q":
		return Command{Name: CommandQuit}, nil
	case "click", "c":
		rest = strings.TrimSpace(rest)
		target, args, _ := strings.Cut(rest, " ")
		if target == "" {
			return Command{}, fmt.Errorf("click: missing target")
		}
		cmd := Command{Name: CommandClick, Target: target, Data: []any{}}
		if args = strings.TrimSpace(args); args != "" {
			if err := json.Unmarshal([]byte(args), &cmd.Data); err != nil {
				return Command{}, fmt.Errorf("click: data must be a JSON array: %w", err)
			}
		}
		return cmd, nil
	default:
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
}

// Message converts a click into the inbound dom-event message for view id.
func (c Command) Message(id domain.ViewID) map[string]any {
	return map[string]any{
		"type":   domain.MessageDOMEvent,
		"viewId": string(id),
		"data":   map[string]any{"target": c.Target, "data": c.Data},
	}
}
