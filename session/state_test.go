package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snipcast.app/snipcast/capture"
)

func machineIn(state State) *Machine {
	m := NewMachine()
	m.state = state
	return m
}

func TestMachineStartsIdle(t *testing.T) {
	m := NewMachine()
	assert.Equal(t, StateIdle, m.State())
	assert.Nil(t, m.LastError())
}

func TestMachineTransitionTable(t *testing.T) {
	states := []State{StateIdle, StateSelecting, StateRecording, StatePaused, StateFinalizing, StateError}

	valid := map[State][]State{
		StateIdle:       {StateSelecting, StateError},
		StateSelecting:  {StateRecording, StateIdle, StateError},
		StateRecording:  {StatePaused, StateFinalizing, StateError},
		StatePaused:     {StateRecording, StateFinalizing, StateError},
		StateFinalizing: {StateIdle, StateError},
		StateError:      {StateIdle},
	}

	isValid := func(from, to State) bool {
		if from == to {
			return true
		}
		for _, v := range valid[from] {
			if v == to {
				return true
			}
		}
		return false
	}

	for _, from := range states {
		for _, to := range states {
			m := machineIn(from)
			got, err := m.transition(to)

			if isValid(from, to) {
				require.NoError(t, err, "transition %s -> %s", from, to)
				assert.Equal(t, to, got)
				assert.Equal(t, to, m.State())
			} else {
				require.Error(t, err, "transition %s -> %s", from, to)
				var terr *TransitionError
				require.ErrorAs(t, err, &terr)
				assert.Equal(t, from, terr.From)
				assert.Equal(t, to, terr.To)
				assert.Equal(t, from, m.State(), "rejected transition must not change state")
			}
		}
	}
}

func TestMachineSameStateIsNoOp(t *testing.T) {
	m := machineIn(StateRecording)
	got, err := m.Resume()
	require.NoError(t, err)
	assert.Equal(t, StateRecording, got)
}

func TestMachineSetErrorFromAnyState(t *testing.T) {
	for _, from := range []State{StateIdle, StateSelecting, StateRecording, StatePaused, StateFinalizing, StateError} {
		m := machineIn(from)
		capErr := capture.NewError(capture.PortalError, "portal gone")
		got := m.SetError(capErr)
		assert.Equal(t, StateError, got)
		assert.Equal(t, StateError, m.State())
		assert.Same(t, capErr, m.LastError())
	}
}

func TestMachineResetClearsError(t *testing.T) {
	m := NewMachine()
	m.SetError(capture.NewError(capture.Internal, "boom"))
	require.NotNil(t, m.LastError())

	got, err := m.Reset()
	require.NoError(t, err)
	assert.Equal(t, StateIdle, got)
	assert.Nil(t, m.LastError())
}

func TestMachineNonErrorEntryClearsError(t *testing.T) {
	m := NewMachine()
	m.SetError(capture.NewError(capture.Internal, "boom"))
	_, err := m.Reset()
	require.NoError(t, err)

	_, err = m.StartSelecting()
	require.NoError(t, err)
	assert.Nil(t, m.LastError())
}

func TestMachineErrorOnlyLeavesViaReset(t *testing.T) {
	m := machineIn(StateError)

	_, err := m.StartSelecting()
	require.Error(t, err)
	_, err = m.Stop()
	require.Error(t, err)
	assert.Equal(t, StateError, m.State())

	_, err = m.Reset()
	require.NoError(t, err)
	assert.Equal(t, StateIdle, m.State())
}

func TestMachineFullRecordingCycle(t *testing.T) {
	m := NewMachine()

	steps := []struct {
		op   func() (State, error)
		want State
	}{
		{m.StartSelecting, StateSelecting},
		{m.BeginRecording, StateRecording},
		{m.Pause, StatePaused},
		{m.Resume, StateRecording},
		{m.Stop, StateFinalizing},
		{m.FinalizeComplete, StateIdle},
	}
	for _, step := range steps {
		got, err := step.op()
		require.NoError(t, err)
		assert.Equal(t, step.want, got)
	}
}
