package model

import "strings"

// Action is a GitHub issues-event action this bot reconciles.
type Action string

const (
	ActionOpened   Action = "opened"
	ActionLabeled  Action = "labeled"
	ActionAssigned Action = "assigned"
	ActionClosed   Action = "closed"
	ActionUnknown  Action = "unknown"
)

// Actions lists every handled action.
var Actions = []Action{ActionOpened, ActionLabeled, ActionAssigned, ActionClosed}

// ParseAction maps a raw payload action onto the closed set. Anything else is ActionUnknown.
func ParseAction(raw string) Action {
	switch Action(strings.ToLower(strings.TrimSpace(raw))) {
	case ActionOpened:
		return ActionOpened
	case ActionLabeled:
		return ActionLabeled
	case ActionAssigned:
		return ActionAssigned
	case ActionClosed:
		return ActionClosed
	default:
		return ActionUnknown
	}
}

func (a Action) Known() bool {
	switch a {
	case ActionOpened, ActionLabeled, ActionAssigned, ActionClosed:
		return true
	default:
		return false
	}
}

func (a Action) String() string {
	return string(a)
}
