// Package snipcast provides screen and window capture backends for the
// session orchestrator. On Linux it drives the xdg-desktop-portal ScreenCast
// interface for source selection and GStreamer for encoding; elsewhere New
// returns a stub that reports every operation as unsupported.
package snipcast

import (
	"github.com/rs/zerolog"
)

// Options configures a capture backend.
type Options struct {
	// Logger receives backend diagnostics. The zero value discards them.
	Logger zerolog.Logger
}
