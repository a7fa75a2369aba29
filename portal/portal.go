// Package portal is a client for the org.freedesktop.portal.ScreenCast
// D-Bus interface. It drives the CreateSession / SelectSources / Start
// handshake that pops the compositor's source picker and hands back PipeWire
// stream descriptors, plus OpenPipeWireRemote for a connected PipeWire fd.
package portal

import (
	"context"
	"errors"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/google/uuid"

	"snipcast.app/snipcast/capture"
	"snipcast.app/snipcast/internal/apis"
	"snipcast.app/snipcast/internal/request"
)

const (
	interfaceName      = apis.CallBaseName + ".ScreenCast"
	createSessionName  = interfaceName + ".CreateSession"
	selectSourcesName  = interfaceName + ".SelectSources"
	startName          = interfaceName + ".Start"
	openPipeWireRemote = interfaceName + ".OpenPipeWireRemote"

	sessionInterfaceName = apis.CallBaseName + ".Session"
	sessionCloseName     = sessionInterfaceName + ".Close"
)

const (
	SourceTypeMonitor uint32 = 1
	SourceTypeWindow  uint32 = 2
	SourceTypeVirtual uint32 = 4
)

const (
	CursorModeHidden   uint32 = 1
	CursorModeEmbedded uint32 = 2
	CursorModeMetadata uint32 = 4
)

const (
	PersistModeNone       uint32 = 0
	PersistModeRunning    uint32 = 1
	PersistModePersistent uint32 = 2
)

// ErrCancelled reports that the user dismissed the portal's source picker
// or ended the session.
var ErrCancelled = errors.New("portal request cancelled")

type Stream struct {
	NodeID     uint32
	Position   [2]int32
	Size       [2]int32
	SourceType uint32
	MappingID  string
	ID         string
}

// Session is a live ScreenCast portal session. It stays valid until Close
// or until the compositor revokes it.
type Session struct {
	Path  dbus.ObjectPath
	token string
}

type SessionOptions struct {
	HandleToken        string
	SessionHandleToken string
}

type SelectSourcesOptions struct {
	HandleToken  string
	Types        uint32
	Multiple     bool
	CursorMode   uint32
	RestoreToken string
	PersistMode  uint32
}

// generateToken makes a handle token the portal accepts: the spec restricts
// tokens to [A-Za-z0-9_], so the uuid's dashes get stripped.
func generateToken() string {
	return "snipcast_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// CreateSession opens a new ScreenCast session on the desktop portal.
func CreateSession(ctx context.Context, options *SessionOptions) (*Session, error) {
	handleToken := generateToken()
	sessionToken := generateToken()
	if options != nil {
		if options.HandleToken != "" {
			handleToken = options.HandleToken
		}
		if options.SessionHandleToken != "" {
			sessionToken = options.SessionHandleToken
		}
	}

	data := map[string]dbus.Variant{
		"handle_token":         apis.VariantString(handleToken),
		"session_handle_token": apis.VariantString(sessionToken),
	}

	listener, err := request.Listen()
	if err != nil {
		return nil, err
	}
	defer listener.Close()

	result, err := apis.Call(ctx, createSessionName, data)
	if err != nil {
		return nil, err
	}

	status, results, err := listener.Wait(ctx, result.(dbus.ObjectPath))
	if err != nil {
		return nil, err
	}
	if status >= request.Cancelled {
		return nil, ErrCancelled
	}

	sessionHandle, ok := results["session_handle"].Value().(string)
	if !ok {
		return nil, request.ErrUnexpectedResponse
	}

	return &Session{Path: dbus.ObjectPath(sessionHandle), token: handleToken}, nil
}

// SelectSources tells the portal which kinds of sources the picker should
// offer. The picker itself does not appear until Start.
func (s *Session) SelectSources(ctx context.Context, options *SelectSourcesOptions) error {
	data := map[string]dbus.Variant{
		"handle_token": apis.VariantString(generateToken()),
	}
	if options != nil {
		if options.HandleToken != "" {
			data["handle_token"] = apis.VariantString(options.HandleToken)
		}
		if options.Types != 0 {
			data["types"] = apis.VariantUint32(options.Types)
		}
		if options.Multiple {
			data["multiple"] = apis.VariantBool(options.Multiple)
		}
		if options.CursorMode != 0 {
			data["cursor_mode"] = apis.VariantUint32(options.CursorMode)
		}
		if options.RestoreToken != "" {
			data["restore_token"] = apis.VariantString(options.RestoreToken)
		}
		if options.PersistMode != 0 {
			data["persist_mode"] = apis.VariantUint32(options.PersistMode)
		}
	}

	listener, err := request.Listen()
	if err != nil {
		return err
	}
	defer listener.Close()

	result, err := apis.Call(ctx, selectSourcesName, s.Path, data)
	if err != nil {
		return err
	}

	status, _, err := listener.Wait(ctx, result.(dbus.ObjectPath))
	if err != nil {
		return err
	}
	if status >= request.Cancelled {
		return ErrCancelled
	}

	return nil
}

// Start shows the source picker and blocks until the user chose a source or
// dismissed the dialog. On success it returns the selected PipeWire streams.
func (s *Session) Start(ctx context.Context, parentWindow string) ([]Stream, error) {
	data := map[string]dbus.Variant{
		"handle_token": apis.VariantString(generateToken()),
	}

	listener, err := request.Listen()
	if err != nil {
		return nil, err
	}
	defer listener.Close()

	result, err := apis.Call(ctx, startName, s.Path, parentWindow, data)
	if err != nil {
		return nil, err
	}

	status, results, err := listener.Wait(ctx, result.(dbus.ObjectPath))
	if err != nil {
		return nil, err
	}
	if status >= request.Cancelled {
		return nil, ErrCancelled
	}

	return parseStreams(results), nil
}

// parseStreams unpacks the a(ua{sv}) streams property of the Start response.
// Depending on the bus library's decoding it arrives either as [][]any or as
// []any of []any.
func parseStreams(results map[string]dbus.Variant) []Stream {
	streamsVariant, ok := results["streams"]
	if !ok {
		return nil
	}

	var rawStreams [][]any
	switch rs := streamsVariant.Value().(type) {
	case [][]any:
		rawStreams = rs
	case []any:
		rawStreams = make([][]any, 0, len(rs))
		for _, r := range rs {
			if slice, ok := r.([]any); ok {
				rawStreams = append(rawStreams, slice)
			}
		}
	default:
		return nil
	}

	streams := []Stream{}
	for _, streamSlice := range rawStreams {
		if len(streamSlice) < 2 {
			continue
		}

		stream := Stream{}

		if nodeID, ok := streamSlice[0].(uint32); ok {
			stream.NodeID = nodeID
		}

		props, ok := streamSlice[1].(map[string]dbus.Variant)
		if ok {
			if pos, ok := props["position"]; ok {
				if posVal, ok := pos.Value().([]any); ok && len(posVal) == 2 {
					stream.Position = [2]int32{posVal[0].(int32), posVal[1].(int32)}
				}
			}
			if size, ok := props["size"]; ok {
				if sizeVal, ok := size.Value().([]any); ok && len(sizeVal) == 2 {
					stream.Size = [2]int32{sizeVal[0].(int32), sizeVal[1].(int32)}
				}
			}
			if sourceType, ok := props["source_type"]; ok {
				if st, ok := sourceType.Value().(uint32); ok {
					stream.SourceType = st
				}
			}
			if mappingID, ok := props["mapping_id"]; ok {
				if m, ok := mappingID.Value().(string); ok {
					stream.MappingID = m
				}
			}
			if id, ok := props["id"]; ok {
				if i, ok := id.Value().(string); ok {
					stream.ID = i
				}
			}
		}

		streams = append(streams, stream)
	}

	return streams
}

// OpenPipeWireRemote returns a file descriptor connected to the PipeWire
// instance that carries the session's streams.
func (s *Session) OpenPipeWireRemote(ctx context.Context) (int, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return -1, err
	}

	data := map[string]dbus.Variant{}
	obj := conn.Object(apis.ObjectName, apis.ObjectPath)
	call := obj.CallWithContext(ctx, openPipeWireRemote, 0, s.Path, data)
	if call.Err != nil {
		return -1, call.Err
	}

	var fd dbus.UnixFD
	if err := call.Store(&fd); err != nil {
		return -1, err
	}
	return int(fd), nil
}

// Close ends the portal session, releasing the user's grant.
func (s *Session) Close() error {
	return apis.CallOnObject(context.Background(), s.Path, sessionCloseName)
}

// AvailableSourceTypes reports the source kinds the compositor can share.
func AvailableSourceTypes(ctx context.Context) (uint32, error) {
	value, err := apis.GetProperty(ctx, interfaceName, "AvailableSourceTypes")
	if err != nil {
		return 0, err
	}
	return value.(uint32), nil
}

// AvailableCursorModes reports the cursor modes the compositor supports.
func AvailableCursorModes(ctx context.Context) (uint32, error) {
	value, err := apis.GetProperty(ctx, interfaceName, "AvailableCursorModes")
	if err != nil {
		return 0, err
	}
	return value.(uint32), nil
}

// Version reports the ScreenCast interface version.
func Version(ctx context.Context) (uint32, error) {
	value, err := apis.GetProperty(ctx, interfaceName, "version")
	if err != nil {
		return 0, err
	}
	return value.(uint32), nil
}

// SourceTypesFor maps a capture source to the portal source type bitmask.
// Region capture has no portal equivalent, so a full monitor is shared and
// the region handled downstream.
func SourceTypesFor(source capture.Source) uint32 {
	switch source {
	case capture.SourceWindow:
		return SourceTypeWindow
	default:
		return SourceTypeMonitor
	}
}

// CursorModeFor picks embedded cursor rendering when the cursor should be
// part of the frames, hidden otherwise.
func CursorModeFor(includeCursor bool) uint32 {
	if includeCursor {
		return CursorModeEmbedded
	}
	return CursorModeHidden
}
