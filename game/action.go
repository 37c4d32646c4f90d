package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Action is a betting decision. The zero value means no action yet.
type Action string

const (
	ActionNone  Action = ""
	ActionFold  Action = "FOLD"
	ActionStay  Action = "STAY"
	ActionRaise Action = "RAISE"
)

var ErrUnknownAction = errors.New("unknown action")

// ParseAction turns a wire token into an Action. Only FOLD, STAY and RAISE are accepted.
func ParseAction(token string) (Action, error) {
	switch a := Action(strings.ToUpper(strings.TrimSpace(token))); a {
	case ActionFold, ActionStay, ActionRaise:
		return a, nil
	}
	return ActionNone, fmt.Errorf("%w: %q", ErrUnknownAction, token)
}

// Valid reports whether a is one of the three betting actions
func (a Action) Valid() bool {
	return a == ActionFold || a == ActionStay || a == ActionRaise
}

// MarshalJSON encodes ActionNone as null
func (a Action) MarshalJSON() ([]byte, error) {
	if a == ActionNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(a))
}

// UnmarshalJSON accepts null or one of the action tokens
func (a *Action) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = ActionNone
		return nil
	}

	var token string
	if err := json.Unmarshal(data, &token); err != nil {
		return err
	}

	parsed, err := ParseAction(token)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
