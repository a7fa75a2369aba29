// Package request handles org.freedesktop.portal.Request objects: the
// short-lived handles the portal returns for every asynchronous call, whose
// Response signal carries the actual result.
package request

import (
	"context"
	"errors"

	"github.com/godbus/dbus/v5"
)

var ErrUnexpectedResponse = errors.New("unexpected response from dbus")

const (
	interfaceName  = "org.freedesktop.portal.Request"
	responseMember = "Response"
)

type ResponseStatus = uint32

const (
	Success   ResponseStatus = 0
	Cancelled ResponseStatus = 1
	Ended     ResponseStatus = 2
)

// Listener subscribes to Response signals. Subscribe before issuing the
// portal call: the portal may emit the Response before the call returns, and
// a match rule added afterwards would miss it.
type Listener struct {
	conn    *dbus.Conn
	signals chan *dbus.Signal
}

// Listen registers a match rule for portal Response signals on the session
// bus. Callers must Close the listener once the response arrived.
func Listen() (*Listener, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, err
	}

	err = conn.AddMatchSignal(
		dbus.WithMatchInterface(interfaceName),
		dbus.WithMatchMember(responseMember),
	)
	if err != nil {
		return nil, err
	}

	signals := make(chan *dbus.Signal, 10)
	conn.Signal(signals)

	return &Listener{conn: conn, signals: signals}, nil
}

// Wait blocks until the Response signal for the given request path arrives,
// skipping responses that belong to other requests.
func (l *Listener) Wait(ctx context.Context, path dbus.ObjectPath) (ResponseStatus, map[string]dbus.Variant, error) {
	for {
		select {
		case <-ctx.Done():
			return Ended, nil, ctx.Err()
		case signal, ok := <-l.signals:
			if !ok {
				return Ended, nil, ErrUnexpectedResponse
			}
			if signal.Path != path {
				continue
			}
			if len(signal.Body) != 2 {
				return Ended, nil, ErrUnexpectedResponse
			}

			status, ok := signal.Body[0].(ResponseStatus)
			if !ok {
				return Ended, nil, ErrUnexpectedResponse
			}
			results, ok := signal.Body[1].(map[string]dbus.Variant)
			if !ok {
				return Ended, nil, ErrUnexpectedResponse
			}
			return status, results, nil
		}
	}
}

// Close removes the match rule and detaches the signal channel.
func (l *Listener) Close() error {
	l.conn.RemoveSignal(l.signals)
	return l.conn.RemoveMatchSignal(
		dbus.WithMatchInterface(interfaceName),
		dbus.WithMatchMember(responseMember),
	)
}
