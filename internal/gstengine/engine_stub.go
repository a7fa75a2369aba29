//go:build !linux || !cgo

package gstengine

import (
	"errors"

	"snipcast.app/snipcast/pipeline"
)

// ErrEngineUnavailable reports that no GStreamer runtime is linked into
// this build.
var ErrEngineUnavailable = errors.New("gstreamer engine is not available on this platform")

func New() (pipeline.Engine, error) {
	return nil, ErrEngineUnavailable
}
