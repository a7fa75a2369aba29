package portal

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snipcast.app/snipcast/capture"
)

func TestParseStreams(t *testing.T) {
	results := map[string]dbus.Variant{
		"streams": dbus.MakeVariant([][]any{
			{
				uint32(71),
				map[string]dbus.Variant{
					"position":    dbus.MakeVariant([]any{int32(0), int32(0)}),
					"size":        dbus.MakeVariant([]any{int32(2560), int32(1440)}),
					"source_type": dbus.MakeVariant(uint32(1)),
					"id":          dbus.MakeVariant("monitor-0"),
				},
			},
		}),
	}

	streams := parseStreams(results)
	require.Len(t, streams, 1)
	assert.Equal(t, uint32(71), streams[0].NodeID)
	assert.Equal(t, [2]int32{2560, 1440}, streams[0].Size)
	assert.Equal(t, SourceTypeMonitor, streams[0].SourceType)
	assert.Equal(t, "monitor-0", streams[0].ID)
}

func TestParseStreamsNestedSlices(t *testing.T) {
	// Some bus decodings deliver a(ua{sv}) as []any of []any.
	results := map[string]dbus.Variant{
		"streams": dbus.MakeVariant([]any{
			[]any{uint32(5), map[string]dbus.Variant{}},
			[]any{uint32(6), map[string]dbus.Variant{}},
		}),
	}

	streams := parseStreams(results)
	require.Len(t, streams, 2)
	assert.Equal(t, uint32(5), streams[0].NodeID)
	assert.Equal(t, uint32(6), streams[1].NodeID)
}

func TestParseStreamsMalformed(t *testing.T) {
	assert.Empty(t, parseStreams(map[string]dbus.Variant{}))
	assert.Empty(t, parseStreams(map[string]dbus.Variant{
		"streams": dbus.MakeVariant("not streams"),
	}))
	// Entries that are too short are skipped.
	assert.Empty(t, parseStreams(map[string]dbus.Variant{
		"streams": dbus.MakeVariant([][]any{{uint32(9)}}),
	}))
}

func TestSourceTypesFor(t *testing.T) {
	assert.Equal(t, SourceTypeMonitor, SourceTypesFor(capture.SourceScreen))
	assert.Equal(t, SourceTypeMonitor, SourceTypesFor(capture.SourceMonitor))
	assert.Equal(t, SourceTypeMonitor, SourceTypesFor(capture.SourceRegion))
	assert.Equal(t, SourceTypeWindow, SourceTypesFor(capture.SourceWindow))
}

func TestCursorModeFor(t *testing.T) {
	assert.Equal(t, CursorModeEmbedded, CursorModeFor(true))
	assert.Equal(t, CursorModeHidden, CursorModeFor(false))
}

func TestGenerateToken(t *testing.T) {
	first := generateToken()
	second := generateToken()
	assert.NotEqual(t, first, second)

	// Portal handle tokens may only contain [A-Za-z0-9_].
	for _, r := range first {
		valid := r == '_' ||
			(r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9')
		assert.True(t, valid, "invalid token rune %q", r)
	}
}
