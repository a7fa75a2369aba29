// Package capture defines the data model and the backend contract for screen
// capture sessions: source selection through an OS authorization flow,
// one-shot screenshots, and recording control.
package capture

import "context"

// NoStreamFD marks a selection without a low-level stream descriptor.
const NoStreamFD = -1

// Selection is the opaque handle produced by a successful source selection.
// It is owned exclusively by the session that created it and is discarded
// when that session ends; it is never shared across sessions.
type Selection struct {
	// NodeID identifies the external stream.
	NodeID uint32 `json:"node_id"`
	// StreamFD is the low-level stream descriptor, or NoStreamFD when the
	// authorization service did not provide one.
	StreamFD int `json:"stream_fd"`
	// Width and Height are zero until the stream reports its size.
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// ScreenshotResult reports a completed one-shot capture.
type ScreenshotResult struct {
	Path   string `json:"path"`
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// RecordingResult reports a finalized recording. DurationMS is wall-clock
// time from pipeline start to stop; paused intervals are not excluded.
type RecordingResult struct {
	Path       string `json:"path"`
	DurationMS uint64 `json:"duration_ms"`
	Width      uint32 `json:"width"`
	Height     uint32 `json:"height"`
}

// Backend is the capability set every platform implementation satisfies.
// Implementations are selected once at process start; at most one recording
// may be active per backend instance.
type Backend interface {
	// RequestSelection opens the authorization flow and returns a stream
	// handle. It fails with PermissionDenied when the user declines,
	// PortalError on service failure, and NoSourceAvailable when the service
	// returns zero usable streams. On success the backend keeps whatever
	// resources are needed to hold the stream open until CancelSelection or
	// StopRecording.
	RequestSelection(ctx context.Context, cfg Config) (*Selection, error)

	// CancelSelection releases any held selection resources. It is a no-op
	// when nothing is held.
	CancelSelection(ctx context.Context) error

	// CaptureScreenshot runs a single-frame encode of the selection to
	// outputPath and reports the resolved dimensions.
	CaptureScreenshot(ctx context.Context, sel *Selection, outputPath string) (*ScreenshotResult, error)

	// StartRecording negotiates encoders, builds a pipeline for the
	// selection, and starts it. Fails with Internal when a recording is
	// already active.
	StartRecording(ctx context.Context, sel *Selection, cfg Config) error

	// StopRecording finalizes the active pipeline and clears the recording
	// slot. Fails with Internal when no recording is active.
	StopRecording(ctx context.Context) (*RecordingResult, error)

	// PauseRecording suspends the active pipeline without losing buffered
	// data. Fails with Internal when no recording is active or it is
	// already paused.
	PauseRecording(ctx context.Context) error

	// ResumeRecording continues a paused pipeline. Fails with Internal when
	// no recording is active or it is not paused.
	ResumeRecording(ctx context.Context) error
}
