package capture

import "context"

// Unsupported is the stub backend for platforms without a capture
// implementation. Every operation except CancelSelection fails with
// NotSupported.
type Unsupported struct{}

var _ Backend = Unsupported{}

// NewUnsupported returns the stub backend.
func NewUnsupported() Backend {
	return Unsupported{}
}

func (Unsupported) RequestSelection(context.Context, Config) (*Selection, error) {
	return nil, NewError(NotSupported, "capture is not implemented on this platform")
}

func (Unsupported) CancelSelection(context.Context) error {
	return nil
}

func (Unsupported) CaptureScreenshot(context.Context, *Selection, string) (*ScreenshotResult, error) {
	return nil, NewError(NotSupported, "screenshots are not implemented on this platform")
}

func (Unsupported) StartRecording(context.Context, *Selection, Config) error {
	return NewError(NotSupported, "recording is not implemented on this platform")
}

func (Unsupported) StopRecording(context.Context) (*RecordingResult, error) {
	return nil, NewError(NotSupported, "recording is not implemented on this platform")
}

func (Unsupported) PauseRecording(context.Context) error {
	return NewError(NotSupported, "recording is not implemented on this platform")
}

func (Unsupported) ResumeRecording(context.Context) error {
	return NewError(NotSupported, "recording is not implemented on this platform")
}
