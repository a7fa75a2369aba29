// Package session drives the capture lifecycle: a deterministic state
// machine, the orchestrator that pairs it with a capture backend, and the
// notification types relayed to outer layers.
package session

import (
	"fmt"

	"snipcast.app/snipcast/capture"
)

// State is one of the capture session lifecycle states.
type State string

const (
	StateIdle       State = "idle"
	StateSelecting  State = "selecting"
	StateRecording  State = "recording"
	StatePaused     State = "paused"
	StateFinalizing State = "finalizing"
	StateError      State = "error"
)

// TransitionError reports a rejected state transition. It marks a sequencing
// bug in the caller, not a capture failure.
type TransitionError struct {
	From    State
	To      State
	Message string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s: %s", e.From, e.To, e.Message)
}

// Machine is the synchronous session state machine. It starts in StateIdle
// and never mutates state on a rejected transition. It is not safe for
// concurrent use; the orchestrator serializes access.
type Machine struct {
	state   State
	lastErr *capture.Error
}

// NewMachine returns a machine in StateIdle with no recorded error.
func NewMachine() *Machine {
	return &Machine{state: StateIdle}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// LastError returns the error recorded by SetError, or nil. Entering any
// state other than StateError clears it.
func (m *Machine) LastError() *capture.Error {
	return m.lastErr
}

// allowed holds the transition table. A transition to the current state is
// always accepted as a no-op and is not listed here.
func allowed(from, to State) bool {
	switch from {
	case StateIdle:
		return to == StateSelecting || to == StateError
	case StateSelecting:
		return to == StateRecording || to == StateIdle || to == StateError
	case StateRecording:
		return to == StatePaused || to == StateFinalizing || to == StateError
	case StatePaused:
		return to == StateRecording || to == StateFinalizing || to == StateError
	case StateFinalizing:
		return to == StateIdle || to == StateError
	case StateError:
		return to == StateIdle
	default:
		return false
	}
}

func (m *Machine) transition(to State) (State, error) {
	from := m.state
	if from != to && !allowed(from, to) {
		return from, &TransitionError{
			From:    from,
			To:      to,
			Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
		}
	}
	m.state = to
	if to != StateError {
		m.lastErr = nil
	}
	return to, nil
}

// StartSelecting moves Idle to Selecting.
func (m *Machine) StartSelecting() (State, error) {
	return m.transition(StateSelecting)
}

// CancelSelection moves Selecting back to Idle.
func (m *Machine) CancelSelection() (State, error) {
	return m.transition(StateIdle)
}

// BeginRecording moves Selecting to Recording.
func (m *Machine) BeginRecording() (State, error) {
	return m.transition(StateRecording)
}

// Pause moves Recording to Paused.
func (m *Machine) Pause() (State, error) {
	return m.transition(StatePaused)
}

// Resume moves Paused back to Recording.
func (m *Machine) Resume() (State, error) {
	return m.transition(StateRecording)
}

// Stop moves Recording or Paused to Finalizing.
func (m *Machine) Stop() (State, error) {
	return m.transition(StateFinalizing)
}

// FinalizeComplete moves Finalizing to Idle.
func (m *Machine) FinalizeComplete() (State, error) {
	return m.transition(StateIdle)
}

// Reset moves Error back to Idle.
func (m *Machine) Reset() (State, error) {
	return m.transition(StateIdle)
}

// SetError records err and moves to StateError unconditionally. It does not
// go through the transition table: it models an externally detected failure,
// not a user action.
func (m *Machine) SetError(err *capture.Error) State {
	m.lastErr = err
	m.state = StateError
	return StateError
}
