package session

import "snipcast.app/snipcast/capture"

// Notifier receives the results the orchestrator emits for outer layers to
// relay. Calls are made synchronously from orchestrator operations, after the
// corresponding state change took effect; implementations should return
// quickly.
type Notifier interface {
	StateChanged(previous, current State)
	Error(err *capture.Error)
	SelectionComplete(sel capture.Selection)
	ScreenshotComplete(res capture.ScreenshotResult)
	RecordingStarted(outputPath string)
	RecordingStopped(res capture.RecordingResult)
}

// NopNotifier ignores every notification.
type NopNotifier struct{}

var _ Notifier = NopNotifier{}

func (NopNotifier) StateChanged(State, State)                   {}
func (NopNotifier) Error(*capture.Error)                        {}
func (NopNotifier) SelectionComplete(capture.Selection)         {}
func (NopNotifier) ScreenshotComplete(capture.ScreenshotResult) {}
func (NopNotifier) RecordingStarted(string)                     {}
func (NopNotifier) RecordingStopped(capture.RecordingResult)    {}
