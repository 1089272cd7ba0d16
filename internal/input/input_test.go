package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoveIntent(t *testing.T) {
	tests := []struct {
		action Action
		want   Intent
		ok     bool
	}{
		{Up, Intent{}, true},
		{Down, Intent{IsReversed: true}, true},
		{Left, Intent{ChangeAxis: true}, true},
		{Right, Intent{IsReversed: true, ChangeAxis: true}, true},
		{Enter, Intent{}, false},
		{Escape, Intent{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.action.String(), func(t *testing.T) {
			got, ok := MoveIntent(tt.action)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBatch_IntentsOnlyPressed(t *testing.T) {
	b := Batch{
		{Action: Up, IsClicked: true},
		{Action: Left, IsPressed: true},
		{Action: Enter, IsPressed: true},
	}
	assert.Equal(t, []Intent{{ChangeAxis: true}}, b.Intents())
	assert.True(t, b.IncludesClick(Up))
	assert.False(t, b.IncludesClick(Left))
}

func TestParseLine(t *testing.T) {
	b, err := ParseLine("up, Right  -")
	require.NoError(t, err)
	assert.Equal(t, Pressed(Up, Right), b)

	b, err = ParseLine("")
	require.NoError(t, err)
	assert.Empty(t, b)

	_, err = ParseLine("jump")
	assert.Error(t, err)
}
