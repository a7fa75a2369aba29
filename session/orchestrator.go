package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"snipcast.app/snipcast/capture"
)

// Orchestrator owns one capture session at a time: the state machine, the
// accepted configuration, and the selection handle. It serializes every
// check-and-mutate step behind one mutex but releases it across portal and
// pipeline round trips so cancellation is never starved.
type Orchestrator struct {
	backend capture.Backend
	notify  Notifier
	log     zerolog.Logger

	mu        sync.Mutex
	machine   *Machine
	cfg       *capture.Config
	selection *capture.Selection
	recActive bool
}

// OrchestratorOptions configures optional collaborators.
type OrchestratorOptions struct {
	// Notifier receives emitted results; defaults to NopNotifier.
	Notifier Notifier
	// Logger defaults to a disabled logger.
	Logger *zerolog.Logger
}

// NewOrchestrator builds an orchestrator around a backend. The backend is
// chosen once at process start; the orchestrator never inspects its concrete
// type.
func NewOrchestrator(backend capture.Backend, opts OrchestratorOptions) *Orchestrator {
	notify := opts.Notifier
	if notify == nil {
		notify = NopNotifier{}
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	return &Orchestrator{
		backend: backend,
		notify:  notify,
		log:     log,
		machine: NewMachine(),
	}
}

// State returns the current session state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.machine.State()
}

// LastError returns the error recorded by the most recent failure, or nil.
func (o *Orchestrator) LastError() *capture.Error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.machine.LastError()
}

// Start validates cfg, opens the authorization flow, and on success leaves
// the session in StateRecording, ready for StartRecording. Invalid
// configuration is reported before any state transition.
func (o *Orchestrator) Start(ctx context.Context, cfg capture.Config) (State, error) {
	if cerr := cfg.Validate(); cerr != nil {
		o.log.Warn().Str("field", cerr.Field).Str("reason", cerr.Message).Msg("rejecting capture config")
		return o.State(), cerr
	}

	o.mu.Lock()
	prev := o.machine.State()
	st, err := o.machine.StartSelecting()
	if err != nil {
		o.mu.Unlock()
		return st, err
	}
	stored := cfg
	o.cfg = &stored
	o.mu.Unlock()
	o.notify.StateChanged(prev, st)

	o.log.Info().Str("source", string(cfg.Source)).Msg("requesting source selection")
	sel, serr := o.backend.RequestSelection(ctx, cfg)
	if serr != nil {
		return StateError, o.fail(capture.AsError(serr))
	}

	o.mu.Lock()
	o.selection = sel
	prev = o.machine.State()
	st, err = o.machine.BeginRecording()
	if err != nil {
		// A concurrent Cancel won the race while the selection was in
		// flight. The grant just stored has no owner; release it.
		o.cfg = nil
		o.selection = nil
		o.mu.Unlock()
		if cerr := o.backend.CancelSelection(ctx); cerr != nil {
			o.log.Warn().Err(cerr).Msg("releasing orphaned selection failed")
		}
		return o.State(), err
	}
	o.mu.Unlock()
	o.notify.SelectionComplete(*sel)
	o.notify.StateChanged(prev, st)
	o.log.Info().Uint32("node_id", sel.NodeID).Msg("selection complete")
	return st, nil
}

// Cancel aborts an in-flight selection, releases any held resources, and
// returns the session to StateIdle.
func (o *Orchestrator) Cancel(ctx context.Context) (State, error) {
	o.mu.Lock()
	prev := o.machine.State()
	st, err := o.machine.CancelSelection()
	if err != nil {
		o.mu.Unlock()
		return st, err
	}
	o.cfg = nil
	o.selection = nil
	o.mu.Unlock()

	if cerr := o.backend.CancelSelection(ctx); cerr != nil {
		return StateError, o.fail(capture.AsError(cerr))
	}
	o.notify.StateChanged(prev, st)
	o.log.Info().Msg("selection cancelled")
	return st, nil
}

// StartRecording starts the pipeline for the stored selection. The session
// must already be in StateRecording, which Start leaves it in.
func (o *Orchestrator) StartRecording(ctx context.Context) error {
	o.mu.Lock()
	if o.recActive {
		o.mu.Unlock()
		return capture.NewError(capture.Internal, "recording already in progress")
	}
	if o.cfg == nil {
		o.mu.Unlock()
		return capture.NewError(capture.Internal, "no capture config set, call Start first")
	}
	if o.selection == nil {
		o.mu.Unlock()
		return capture.NewError(capture.Internal, "no selection available, call Start first")
	}
	cfg := *o.cfg
	sel := *o.selection
	o.mu.Unlock()

	if err := o.backend.StartRecording(ctx, &sel, cfg); err != nil {
		return o.fail(capture.AsError(err))
	}
	o.mu.Lock()
	o.recActive = true
	o.mu.Unlock()
	o.notify.RecordingStarted(cfg.OutputPath)
	o.log.Info().Str("path", cfg.OutputPath).Msg("recording started")
	return nil
}

// PauseRecording suspends the active recording. A pause while already
// paused is an accepted no-op. Backend rejections leave the session and the
// recording untouched.
func (o *Orchestrator) PauseRecording(ctx context.Context) (State, error) {
	o.mu.Lock()
	prev := o.machine.State()
	st, err := o.machine.Pause()
	o.mu.Unlock()
	if err != nil {
		return st, err
	}
	if prev == st {
		return st, nil
	}
	if berr := o.backend.PauseRecording(ctx); berr != nil {
		// The graph never changed state; undo the transition.
		o.mu.Lock()
		o.machine.Resume()
		o.mu.Unlock()
		return prev, capture.AsError(berr)
	}
	o.notify.StateChanged(prev, st)
	return st, nil
}

// ResumeRecording continues a paused recording. A resume while already
// recording is an accepted no-op. Backend rejections leave the session and
// the recording untouched.
func (o *Orchestrator) ResumeRecording(ctx context.Context) (State, error) {
	o.mu.Lock()
	prev := o.machine.State()
	st, err := o.machine.Resume()
	o.mu.Unlock()
	if err != nil {
		return st, err
	}
	if prev == st {
		return st, nil
	}
	if berr := o.backend.ResumeRecording(ctx); berr != nil {
		// The graph never changed state; undo the transition.
		o.mu.Lock()
		o.machine.Pause()
		o.mu.Unlock()
		return prev, capture.AsError(berr)
	}
	o.notify.StateChanged(prev, st)
	return st, nil
}

// StopRecording finalizes the active recording, clears the session, and
// returns the result. The session passes through StateFinalizing and ends in
// StateIdle.
func (o *Orchestrator) StopRecording(ctx context.Context) (*capture.RecordingResult, error) {
	o.mu.Lock()
	prev := o.machine.State()
	st, err := o.machine.Stop()
	o.mu.Unlock()
	if err != nil {
		return nil, err
	}
	o.notify.StateChanged(prev, st)

	res, serr := o.backend.StopRecording(ctx)
	if serr != nil {
		return nil, o.fail(capture.AsError(serr))
	}

	o.mu.Lock()
	prev = o.machine.State()
	st, err = o.machine.FinalizeComplete()
	o.cfg = nil
	o.selection = nil
	o.recActive = false
	o.mu.Unlock()
	if err != nil {
		return nil, err
	}
	o.notify.StateChanged(prev, st)
	o.notify.RecordingStopped(*res)
	o.log.Info().Str("path", res.Path).Uint64("duration_ms", res.DurationMS).Msg("recording stopped")
	return res, nil
}

// TakeScreenshot runs a standalone selection plus one-shot capture to
// cfg.OutputPath. It does not touch the session state machine and releases
// its selection when the capture finishes. Backends whose selection keeps a
// live stream alive refuse a new selection while a recording is active, so
// the failure surfaces here as an error rather than a starved recording.
func (o *Orchestrator) TakeScreenshot(ctx context.Context, cfg capture.Config) (*capture.ScreenshotResult, error) {
	if cerr := cfg.Validate(); cerr != nil {
		return nil, cerr
	}

	o.log.Info().Str("source", string(cfg.Source)).Msg("requesting screenshot selection")
	sel, err := o.backend.RequestSelection(ctx, cfg)
	if err != nil {
		cerr := capture.AsError(err)
		o.notify.Error(cerr)
		return nil, cerr
	}
	defer func() {
		if cerr := o.backend.CancelSelection(ctx); cerr != nil {
			o.log.Warn().Err(cerr).Msg("releasing screenshot selection failed")
		}
	}()

	res, err := o.backend.CaptureScreenshot(ctx, sel, cfg.OutputPath)
	if err != nil {
		cerr := capture.AsError(err)
		o.notify.Error(cerr)
		return nil, cerr
	}
	o.notify.ScreenshotComplete(*res)
	o.log.Info().Str("path", res.Path).Uint32("width", res.Width).Uint32("height", res.Height).Msg("screenshot captured")
	return res, nil
}

// Reset returns the session from StateError to StateIdle. The system stays
// usable after any failure without a restart.
func (o *Orchestrator) Reset() (State, error) {
	o.mu.Lock()
	prev := o.machine.State()
	st, err := o.machine.Reset()
	if err == nil {
		o.cfg = nil
		o.selection = nil
		o.recActive = false
	}
	o.mu.Unlock()
	if err != nil {
		return st, err
	}
	o.notify.StateChanged(prev, st)
	return st, nil
}

// fail records err, moves the machine to StateError, clears the session
// slots, releases backend selection resources, and notifies. It returns err
// for convenient propagation.
func (o *Orchestrator) fail(err *capture.Error) error {
	o.mu.Lock()
	o.machine.SetError(err)
	o.cfg = nil
	o.selection = nil
	o.recActive = false
	o.mu.Unlock()

	if cerr := o.backend.CancelSelection(context.Background()); cerr != nil {
		o.log.Warn().Err(cerr).Msg("releasing selection after failure failed")
	}
	o.notify.Error(err)
	o.log.Error().Str("kind", err.Kind.String()).Str("reason", err.Message).Msg("capture failed")
	return err
}

// TempScreenshotPath returns a unique PNG path under the system temp
// directory, for callers that do not care where the screenshot lands.
func TempScreenshotPath() string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("snipcast-%s.png", uuid.NewString()))
}
