package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		token   string
		want    Action
		wantErr bool
	}{
		{"FOLD", ActionFold, false},
		{"STAY", ActionStay, false},
		{"RAISE", ActionRaise, false},
		{"raise", ActionRaise, false},
		{" stay ", ActionStay, false},
		{"CHECK", ActionNone, true},
		{"CALL", ActionNone, true},
		{"", ActionNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := ParseAction(tt.token)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownAction)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAction_JSON(t *testing.T) {
	var payload struct {
		Action Action `json:"action"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"action":"RAISE"}`), &payload))
	assert.Equal(t, ActionRaise, payload.Action)

	require.NoError(t, json.Unmarshal([]byte(`{"action":null}`), &payload))
	assert.Equal(t, ActionNone, payload.Action)

	err := json.Unmarshal([]byte(`{"action":"ALL_IN"}`), &payload)
	assert.ErrorIs(t, err, ErrUnknownAction)

	data, err := json.Marshal(struct {
		A Action `json:"a"`
		B Action `json:"b"`
	}{A: ActionFold})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"FOLD","b":null}`, string(data))
}
