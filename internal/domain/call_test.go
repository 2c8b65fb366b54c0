package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallStatusTransitions(t *testing.T) {
	tests := []struct {
		from    CallStatus
		to      CallStatus
		allowed bool
	}{
		{CallStatusInitiated, CallStatusRinging, true},
		{CallStatusInitiated, CallStatusAnswered, true},
		{CallStatusInitiated, CallStatusMissed, true},
		{CallStatusInitiated, CallStatusFailed, true},
		{CallStatusInitiated, CallStatusEnded, false},
		{CallStatusRinging, CallStatusAnswered, true},
		{CallStatusRinging, CallStatusMissed, true},
		{CallStatusRinging, CallStatusFailed, true},
		{CallStatusRinging, CallStatusEnded, false},
		{CallStatusRinging, CallStatusInitiated, false},
		{CallStatusAnswered, CallStatusEnded, true},
		{CallStatusAnswered, CallStatusMissed, false},
		{CallStatusAnswered, CallStatusRinging, false},
		{CallStatusEnded, CallStatusAnswered, false},
		{CallStatusEnded, CallStatusEnded, false},
		{CallStatusMissed, CallStatusAnswered, false},
		{CallStatusFailed, CallStatusRinging, false},
	}

	for _, tt := range tests {
		got := tt.from.CanTransition(tt.to)
		assert.Equal(t, tt.allowed, got, "%s -> %s", tt.from, tt.to)
	}
}

func TestCallStatusTerminal(t *testing.T) {
	assert.False(t, CallStatusInitiated.Terminal())
	assert.False(t, CallStatusRinging.Terminal())
	assert.False(t, CallStatusAnswered.Terminal())
	assert.True(t, CallStatusEnded.Terminal())
	assert.True(t, CallStatusMissed.Terminal())
	assert.True(t, CallStatusFailed.Terminal())
}

func TestCallIsParty(t *testing.T) {
	caller := uuid.New()
	callee := uuid.New()

	call := &Call{CallerID: caller, CalleeID: &callee}
	assert.True(t, call.IsParty(caller))
	assert.True(t, call.IsParty(callee))
	assert.False(t, call.IsParty(uuid.New()))

	external := &Call{CallerID: caller}
	assert.True(t, external.IsParty(caller))
	assert.False(t, external.IsParty(callee))
	assert.True(t, external.IsExternal())
}

func TestCallOtherParty(t *testing.T) {
	caller := uuid.New()
	callee := uuid.New()
	call := &Call{CallerID: caller, CalleeID: &callee}

	other := call.OtherParty(caller)
	require.NotNil(t, other)
	assert.Equal(t, callee, *other)

	other = call.OtherParty(callee)
	require.NotNil(t, other)
	assert.Equal(t, caller, *other)

	assert.Nil(t, call.OtherParty(uuid.New()))

	external := &Call{CallerID: caller}
	assert.Nil(t, external.OtherParty(caller))
}

func TestComputeDuration(t *testing.T) {
	answered := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ended := answered.Add(95 * time.Second)

	call := &Call{AnsweredAt: &answered, EndedAt: &ended}
	assert.Equal(t, 95, call.ComputeDuration())

	// Never answered
	assert.Equal(t, 0, (&Call{EndedAt: &ended}).ComputeDuration())
	assert.Equal(t, 0, (&Call{AnsweredAt: &answered}).ComputeDuration())

	// Out-of-order timestamps clamp to zero
	before := answered.Add(-time.Minute)
	assert.Equal(t, 0, (&Call{AnsweredAt: &answered, EndedAt: &before}).ComputeDuration())
}

func TestCallTypeValid(t *testing.T) {
	assert.True(t, CallTypeVoice.Valid())
	assert.True(t, CallTypeVideo.Valid())
	assert.False(t, CallType("hologram").Valid())
	assert.False(t, CallType("").Valid())
}
