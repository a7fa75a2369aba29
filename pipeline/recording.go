package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"snipcast.app/snipcast/capture"
)

const defaultEOSTimeout = 5 * time.Second

// Options describes the recording graph to build.
type Options struct {
	// NodeID names the external video stream.
	NodeID uint32
	// StreamFD is the stream descriptor, or capture.NoStreamFD.
	StreamFD int
	// OutputPath is the container file to write.
	OutputPath string
	// FPS constrains the video branch frame rate.
	FPS int
	// Container picks the muxer.
	Container capture.Container
	// Audio picks the audio branch topology.
	Audio capture.AudioConfig
	// Width and Height are the selection's dimensions, zero when unknown.
	Width, Height uint32
	// EOSTimeout bounds the finalization wait; defaults to 5s.
	EOSTimeout time.Duration
	// Logger defaults to a disabled logger.
	Logger *zerolog.Logger
}

// Recording wraps one live encode graph through its lifecycle:
// constructed, running, paused, running, stopped.
type Recording struct {
	graph      Graph
	outputPath string
	eosTimeout time.Duration
	width      uint32
	height     uint32
	startedAt  time.Time
	log        zerolog.Logger
}

// NewRecording negotiates encoders, assembles the launch description, and
// constructs the graph without starting it. It fails with Internal when no
// suitable video encoder, or audio encoder when audio is requested, can be
// negotiated.
func NewRecording(engine Engine, opts Options) (*Recording, error) {
	if engine == nil {
		return nil, capture.NewError(capture.Internal, "no pipeline engine available")
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	reg := engine.Registry()
	videoEnc, ok := DetectVideoEncoder(reg)
	if !ok {
		return nil, capture.NewError(capture.Internal, "no H.264 encoder available")
	}
	audioEnc := ""
	if opts.Audio.Enabled() {
		audioEnc, ok = DetectAudioEncoder(reg, opts.Container)
		if !ok {
			return nil, capture.Errorf(capture.Internal, "no audio encoder available for %s", opts.Container)
		}
	}

	desc := launchDescription(opts, videoEnc, audioEnc)
	log.Debug().Str("description", desc).Msg("building recording graph")

	graph, err := engine.Launch(desc)
	if err != nil {
		return nil, capture.WrapError(capture.Internal, err, "build recording graph")
	}

	timeout := opts.EOSTimeout
	if timeout <= 0 {
		timeout = defaultEOSTimeout
	}
	width, height := opts.Width, opts.Height
	if width == 0 || height == 0 {
		width, height = 1920, 1080
	}
	return &Recording{
		graph:      graph,
		outputPath: opts.OutputPath,
		eosTimeout: timeout,
		width:      width,
		height:     height,
		log:        log,
	}, nil
}

// Start moves the graph to running and records the start timestamp, the
// origin for duration accounting.
func (r *Recording) Start() error {
	if err := r.graph.Play(); err != nil {
		return capture.WrapError(capture.Internal, err, "start recording graph")
	}
	r.startedAt = time.Now()
	r.log.Info().Str("path", r.outputPath).Msg("recording graph running")
	return nil
}

// Pause suspends the graph without losing buffered data. Sub-state
// bookkeeping belongs to the backend; the pipeline just flips run state.
func (r *Recording) Pause() error {
	if err := r.graph.Pause(); err != nil {
		return capture.WrapError(capture.Internal, err, "pause recording graph")
	}
	return nil
}

// Resume continues a paused graph.
func (r *Recording) Resume() error {
	if err := r.graph.Play(); err != nil {
		return capture.WrapError(capture.Internal, err, "resume recording graph")
	}
	return nil
}

// Stop signals end-of-stream, waits up to the configured timeout for the
// graph to finalize, tears it down, and verifies the output file. On timeout
// it proceeds optimistically: the file may still be valid. Duration is
// wall-clock since Start, paused intervals included.
func (r *Recording) Stop(ctx context.Context) (*capture.RecordingResult, error) {
	var durationMS uint64
	if !r.startedAt.IsZero() {
		durationMS = uint64(time.Since(r.startedAt).Milliseconds())
	}

	r.graph.SendEOS()

	waitCtx, cancel := context.WithTimeout(ctx, r.eosTimeout)
	defer cancel()
	waitErr := r.graph.WaitEOS(waitCtx)

	width, height := r.width, r.height
	if w, h, ok := r.graph.VideoSize(); ok {
		width, height = w, h
	}

	if cerr := r.graph.Close(); cerr != nil {
		r.log.Warn().Err(cerr).Msg("recording graph teardown reported an error")
	}

	switch {
	case waitErr == nil:
	case errors.Is(waitErr, context.DeadlineExceeded), errors.Is(waitErr, context.Canceled):
		r.log.Warn().Dur("timeout", r.eosTimeout).Msg("timed out waiting for end-of-stream, keeping output")
	default:
		return nil, capture.WrapError(capture.Internal, waitErr, "recording graph failed")
	}

	if _, err := os.Stat(r.outputPath); err != nil {
		return nil, capture.NewError(capture.Internal, "recording file was not created")
	}

	r.log.Info().Str("path", r.outputPath).Uint64("duration_ms", durationMS).Msg("recording finalized")
	return &capture.RecordingResult{
		Path:       r.outputPath,
		DurationMS: durationMS,
		Width:      width,
		Height:     height,
	}, nil
}

// launchDescription renders the graph description. The video branch is
// always present; audio branches join through a named muxer, and when both
// mic and system audio are requested an audiomixer combines them into a
// single encode branch.
func launchDescription(opts Options, videoEnc, audioEnc string) string {
	muxer := MuxerFor(opts.Container)
	var b strings.Builder

	video := fmt.Sprintf("%s ! videoconvert ! videoscale ! video/x-raw,framerate=%d/1 ! %s",
		sourceElement(opts.NodeID, opts.StreamFD), opts.FPS, videoEnc)

	if !opts.Audio.Enabled() {
		fmt.Fprintf(&b, "%s ! %s ! filesink location=%s", video, muxer, opts.OutputPath)
		return b.String()
	}

	fmt.Fprintf(&b, "%s ! mux. ", video)
	switch {
	case opts.Audio.Mic && opts.Audio.System:
		fmt.Fprintf(&b, "audiomixer name=mix ! audioconvert ! audioresample ! %s ! mux. ", audioEnc)
		b.WriteString("pulsesrc ! audioconvert ! audioresample ! mix. ")
		fmt.Fprintf(&b, "pulsesrc device=%s ! audioconvert ! audioresample ! mix. ", SystemAudioSource)
	case opts.Audio.System:
		fmt.Fprintf(&b, "pulsesrc device=%s ! audioconvert ! audioresample ! %s ! mux. ", SystemAudioSource, audioEnc)
	default:
		fmt.Fprintf(&b, "pulsesrc ! audioconvert ! audioresample ! %s ! mux. ", audioEnc)
	}
	fmt.Fprintf(&b, "%s name=mux ! filesink location=%s", muxer, opts.OutputPath)
	return b.String()
}

// sourceElement renders the stream source, attaching the descriptor when the
// authorization service provided one. Portal streams require the descriptor
// to connect.
func sourceElement(nodeID uint32, streamFD int) string {
	if streamFD >= 0 {
		return fmt.Sprintf("pipewiresrc fd=%d path=%d", streamFD, nodeID)
	}
	return fmt.Sprintf("pipewiresrc path=%d", nodeID)
}
