//go:build !linux

package snipcast

import (
	"snipcast.app/snipcast/capture"
)

// New returns a stub backend on platforms without portal support.
func New(_ Options) (capture.Backend, error) {
	return capture.NewUnsupported(), nil
}
