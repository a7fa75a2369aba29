package capture

import (
	"errors"
	"fmt"
)

// Kind classifies a capture failure. Every error crossing the backend
// boundary carries exactly one kind.
type Kind int

const (
	// KindUnknown is the zero value and never produced by this package.
	KindUnknown Kind = iota
	// PermissionDenied means the user declined or cancelled the
	// authorization flow.
	PermissionDenied
	// PortalError means communication with the authorization service failed.
	PortalError
	// NoSourceAvailable means the service returned zero usable streams.
	NoSourceAvailable
	// NotSupported means the platform or feature is absent.
	NotSupported
	// Internal means a protocol or state violation, such as starting a
	// second recording while one is active.
	Internal
)

func (k Kind) String() string {
	switch k {
	case PermissionDenied:
		return "permission_denied"
	case PortalError:
		return "portal_error"
	case NoSourceAvailable:
		return "no_source_available"
	case NotSupported:
		return "not_supported"
	case Internal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is the taxonomy error shared by every capture component.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a taxonomy error with a fixed message.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Errorf builds a taxonomy error with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError attaches a cause to a taxonomy error.
func WrapError(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the taxonomy kind from err, or KindUnknown if err does not
// carry one.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}

// AsError normalizes err into a taxonomy error. Errors that already carry a
// kind pass through unchanged; anything else becomes Internal.
func AsError(err error) *Error {
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}
	return &Error{Kind: Internal, Message: err.Error(), Err: err}
}

// ConfigError reports an invalid configuration field. It is raised before any
// state transition and is deliberately distinct from the capture taxonomy.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
