package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"snipcast.app/snipcast/capture"
)

const defaultSnapshotTimeout = 10 * time.Second

// SnapshotOptions describes a one-shot single-frame capture.
type SnapshotOptions struct {
	NodeID   uint32
	StreamFD int
	// OutputPath is the PNG file to write.
	OutputPath string
	// Width and Height are the selection's dimensions, zero when unknown.
	Width, Height uint32
	// Timeout bounds the whole capture; defaults to 10s. Unlike recording
	// finalization, a snapshot that never completes is an error.
	Timeout time.Duration
	// Logger defaults to a disabled logger.
	Logger *zerolog.Logger
}

// Snapshot builds a single-frame encode graph, runs it to completion, and
// verifies the output file. Only the trivially available image encoder is
// needed; video/audio encoder negotiation does not apply.
func Snapshot(ctx context.Context, engine Engine, opts SnapshotOptions) (*capture.ScreenshotResult, error) {
	if engine == nil {
		return nil, capture.NewError(capture.Internal, "no pipeline engine available")
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	desc := fmt.Sprintf("%s num-buffers=1 ! videoconvert ! pngenc ! filesink location=%s",
		sourceElement(opts.NodeID, opts.StreamFD), opts.OutputPath)
	log.Debug().Str("description", desc).Msg("building snapshot graph")

	graph, err := engine.Launch(desc)
	if err != nil {
		return nil, capture.WrapError(capture.Internal, err, "build snapshot graph")
	}
	defer func() {
		if cerr := graph.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("snapshot graph teardown reported an error")
		}
	}()

	if err := graph.Play(); err != nil {
		return nil, capture.WrapError(capture.Internal, err, "start snapshot graph")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultSnapshotTimeout
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := graph.WaitEOS(waitCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, capture.NewError(capture.Internal, "snapshot graph timed out")
		}
		return nil, capture.WrapError(capture.Internal, err, "snapshot graph failed")
	}

	width, height, ok := graph.VideoSize()
	if !ok {
		width, height = opts.Width, opts.Height
	}
	if width == 0 || height == 0 {
		width, height = 100, 100
	}

	if _, err := os.Stat(opts.OutputPath); err != nil {
		return nil, capture.NewError(capture.Internal, "screenshot file was not created")
	}

	log.Info().Str("path", opts.OutputPath).Uint32("width", width).Uint32("height", height).Msg("screenshot captured")
	return &capture.ScreenshotResult{Path: opts.OutputPath, Width: width, Height: height}, nil
}
