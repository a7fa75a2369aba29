//go:build linux

package snipcast

import (
	"context"
	"errors"
	"sync"
	"syscall"

	"github.com/rs/zerolog"

	"snipcast.app/snipcast/capture"
	"snipcast.app/snipcast/internal/gstengine"
	"snipcast.app/snipcast/pipeline"
	"snipcast.app/snipcast/portal"
)

// New returns the portal-backed capture backend. It fails with NotSupported
// when no GStreamer runtime is available in this build.
func New(opts Options) (capture.Backend, error) {
	engine, err := gstengine.New()
	if err != nil {
		return nil, capture.WrapError(capture.NotSupported, err, "initialize media engine")
	}

	return &linuxBackend{
		engine: engine,
		log:    opts.Logger,
	}, nil
}

// activeSelection is a granted portal session together with the PipeWire
// plumbing it unlocked. Closing the session revokes the grant, so it stays
// open for as long as the selection is usable.
type activeSelection struct {
	session   *portal.Session
	fd        int
	selection capture.Selection
}

type linuxBackend struct {
	engine pipeline.Engine
	log    zerolog.Logger

	selMu     sync.Mutex
	selection *activeSelection

	recMu     sync.Mutex
	recording *pipeline.Recording
	paused    bool
}

var _ capture.Backend = (*linuxBackend)(nil)

func (b *linuxBackend) RequestSelection(ctx context.Context, cfg capture.Config) (*capture.Selection, error) {
	// Replacing the selection slot closes the previous portal session, and
	// with it the stream an active recording's pipewiresrc is consuming.
	b.recMu.Lock()
	active := b.recording != nil
	b.recMu.Unlock()
	if active {
		return nil, capture.NewError(capture.Internal, "selection cannot be replaced while a recording is active")
	}

	session, err := portal.CreateSession(ctx, nil)
	if err != nil {
		return nil, mapPortalError(err, "create portal session")
	}

	granted := false
	defer func() {
		if !granted {
			if cerr := session.Close(); cerr != nil {
				b.log.Debug().Err(cerr).Msg("closing portal session after failed selection")
			}
		}
	}()

	err = session.SelectSources(ctx, &portal.SelectSourcesOptions{
		Types:      portal.SourceTypesFor(cfg.Source),
		CursorMode: portal.CursorModeFor(cfg.IncludeCursor),
	})
	if err != nil {
		return nil, mapPortalError(err, "select portal sources")
	}

	streams, err := session.Start(ctx, "")
	if err != nil {
		return nil, mapPortalError(err, "start portal session")
	}
	if len(streams) == 0 {
		return nil, capture.NewError(capture.NoSourceAvailable, "portal session started with no streams")
	}
	stream := streams[0]

	fd, err := session.OpenPipeWireRemote(ctx)
	if err != nil {
		// pipewiresrc can still reach the node through its own connection.
		b.log.Warn().Err(err).Msg("open pipewire remote failed, falling back to default connection")
		fd = capture.NoStreamFD
	}

	sel := capture.Selection{
		NodeID:   stream.NodeID,
		StreamFD: fd,
	}
	if stream.Size[0] > 0 && stream.Size[1] > 0 {
		sel.Width = uint32(stream.Size[0])
		sel.Height = uint32(stream.Size[1])
	}

	b.log.Info().
		Uint32("node_id", sel.NodeID).
		Uint32("width", sel.Width).
		Uint32("height", sel.Height).
		Msg("portal selection granted")

	current := &activeSelection{session: session, fd: fd, selection: sel}

	b.selMu.Lock()
	previous := b.selection
	b.selection = current
	b.selMu.Unlock()

	granted = true
	if previous != nil {
		b.release(previous)
	}

	return &sel, nil
}

func (b *linuxBackend) CancelSelection(_ context.Context) error {
	b.selMu.Lock()
	active := b.selection
	b.selection = nil
	b.selMu.Unlock()

	if active != nil {
		b.release(active)
	}
	return nil
}

// release closes the portal session and the PipeWire fd. Errors are logged
// only: a revoked grant is already released.
func (b *linuxBackend) release(active *activeSelection) {
	if err := active.session.Close(); err != nil {
		b.log.Debug().Err(err).Msg("closing portal session")
	}
	if active.fd != capture.NoStreamFD {
		if err := syscall.Close(active.fd); err != nil {
			b.log.Debug().Err(err).Msg("closing pipewire fd")
		}
	}
}

func (b *linuxBackend) CaptureScreenshot(ctx context.Context, sel *capture.Selection, outputPath string) (*capture.ScreenshotResult, error) {
	return pipeline.Snapshot(ctx, b.engine, pipeline.SnapshotOptions{
		NodeID:     sel.NodeID,
		StreamFD:   sel.StreamFD,
		OutputPath: outputPath,
		Width:      sel.Width,
		Height:     sel.Height,
		Logger:     &b.log,
	})
}

func (b *linuxBackend) StartRecording(ctx context.Context, sel *capture.Selection, cfg capture.Config) error {
	b.recMu.Lock()
	defer b.recMu.Unlock()

	if b.recording != nil {
		return capture.NewError(capture.Internal, "recording already in progress")
	}

	rec, err := pipeline.NewRecording(b.engine, pipeline.Options{
		NodeID:     sel.NodeID,
		StreamFD:   sel.StreamFD,
		OutputPath: cfg.OutputPath,
		FPS:        cfg.FPS,
		Container:  cfg.Container,
		Audio:      cfg.Audio,
		Width:      sel.Width,
		Height:     sel.Height,
		Logger:     &b.log,
	})
	if err != nil {
		return err
	}

	if err := rec.Start(); err != nil {
		return capture.WrapError(capture.Internal, err, "start recording graph")
	}

	b.recording = rec
	b.paused = false
	b.log.Info().Str("output", cfg.OutputPath).Uint32("node_id", sel.NodeID).Msg("recording started")
	return nil
}

func (b *linuxBackend) StopRecording(ctx context.Context) (*capture.RecordingResult, error) {
	b.recMu.Lock()
	rec := b.recording
	b.recording = nil
	b.paused = false
	b.recMu.Unlock()

	if rec == nil {
		return nil, capture.NewError(capture.Internal, "no recording in progress")
	}

	result, err := rec.Stop(ctx)
	if err != nil {
		return nil, err
	}

	// The grant served its purpose once the file is finalized.
	if cerr := b.CancelSelection(ctx); cerr != nil {
		b.log.Debug().Err(cerr).Msg("releasing selection after stop")
	}

	b.log.Info().
		Str("output", result.Path).
		Uint64("duration_ms", result.DurationMS).
		Msg("recording stopped")
	return result, nil
}

func (b *linuxBackend) PauseRecording(_ context.Context) error {
	b.recMu.Lock()
	defer b.recMu.Unlock()

	if b.recording == nil {
		return capture.NewError(capture.Internal, "no recording in progress")
	}
	if b.paused {
		return capture.NewError(capture.Internal, "recording is already paused")
	}
	if err := b.recording.Pause(); err != nil {
		return capture.WrapError(capture.Internal, err, "pause recording graph")
	}
	b.paused = true
	return nil
}

func (b *linuxBackend) ResumeRecording(_ context.Context) error {
	b.recMu.Lock()
	defer b.recMu.Unlock()

	if b.recording == nil {
		return capture.NewError(capture.Internal, "no recording in progress")
	}
	if !b.paused {
		return capture.NewError(capture.Internal, "recording is not paused")
	}
	if err := b.recording.Resume(); err != nil {
		return capture.WrapError(capture.Internal, err, "resume recording graph")
	}
	b.paused = false
	return nil
}

// mapPortalError folds portal failures into the taxonomy: a dismissed picker
// is a permission denial, everything else on the bus is a portal error.
func mapPortalError(err error, op string) error {
	if errors.Is(err, portal.ErrCancelled) {
		return capture.WrapError(capture.PermissionDenied, err, op)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return capture.WrapError(capture.Internal, err, op)
	}
	return capture.WrapError(capture.PortalError, err, op)
}
