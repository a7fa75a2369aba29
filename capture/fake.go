package capture

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"sync"
	"time"
)

// Fake is a deterministic in-memory backend for tests and development. It
// honors the full backend contract, counts every call, and can be switched
// into a failing mode that returns a chosen taxonomy kind.
type Fake struct {
	mu sync.Mutex

	failWith Kind // KindUnknown means succeed
	nodeID   uint32
	width    uint32
	height   uint32

	selectionCount int
	cancelCount    int
	startCount     int
	stopCount      int
	pauseCount     int
	resumeCount    int

	recording      bool
	paused         bool
	recordingStart time.Time
	outputPath     string

	clock func() time.Time
}

var _ Backend = (*Fake)(nil)

// NewFake returns a succeeding fake that reports node 42 at 1920x1080.
func NewFake() *Fake {
	return &Fake{
		nodeID: 42,
		width:  1920,
		height: 1080,
		clock:  time.Now,
	}
}

// FailWith switches the fake into a failing mode for selection, screenshot
// and recording-start calls.
func (f *Fake) FailWith(kind Kind) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWith = kind
}

// Succeed clears a previously set failing mode.
func (f *Fake) Succeed() {
	f.FailWith(KindUnknown)
}

// SetNodeID changes the node id returned by subsequent selections.
func (f *Fake) SetNodeID(id uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nodeID = id
}

// SetSelectionSize changes the dimensions reported by subsequent selections.
// Zero values mean the stream size is unknown.
func (f *Fake) SetSelectionSize(width, height uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.width, f.height = width, height
}

// SetClock overrides the time source used for duration accounting.
func (f *Fake) SetClock(clock func() time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock = clock
}

func (f *Fake) SelectionCount() int { return f.count(&f.selectionCount) }
func (f *Fake) CancelCount() int    { return f.count(&f.cancelCount) }
func (f *Fake) StartCount() int     { return f.count(&f.startCount) }
func (f *Fake) StopCount() int      { return f.count(&f.stopCount) }
func (f *Fake) PauseCount() int     { return f.count(&f.pauseCount) }
func (f *Fake) ResumeCount() int    { return f.count(&f.resumeCount) }

func (f *Fake) count(p *int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *p
}

// IsRecording reports whether a recording is active.
func (f *Fake) IsRecording() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recording
}

// IsPaused reports whether the active recording is paused.
func (f *Fake) IsPaused() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paused
}

func (f *Fake) failure(op string) *Error {
	switch f.failWith {
	case PermissionDenied:
		return Errorf(PermissionDenied, "%s was declined", op)
	case PortalError:
		return Errorf(PortalError, "portal unavailable for %s", op)
	case NoSourceAvailable:
		return Errorf(NoSourceAvailable, "no source available for %s", op)
	case NotSupported:
		return Errorf(NotSupported, "%s is not supported", op)
	case Internal:
		return Errorf(Internal, "%s failed", op)
	default:
		return nil
	}
}

func (f *Fake) RequestSelection(_ context.Context, _ Config) (*Selection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selectionCount++
	if err := f.failure("selection"); err != nil {
		return nil, err
	}
	return &Selection{
		NodeID:   f.nodeID,
		StreamFD: NoStreamFD,
		Width:    f.width,
		Height:   f.height,
	}, nil
}

func (f *Fake) CancelSelection(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelCount++
	return nil
}

func (f *Fake) CaptureScreenshot(_ context.Context, sel *Selection, outputPath string) (*ScreenshotResult, error) {
	f.mu.Lock()
	if err := f.failure("screenshot"); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	f.mu.Unlock()

	width, height := sel.Width, sel.Height
	if width == 0 || height == 0 {
		width, height = 100, 100
	}
	if err := writePlaceholderPNG(outputPath, int(width), int(height)); err != nil {
		return nil, WrapError(Internal, err, "write placeholder png")
	}
	return &ScreenshotResult{Path: outputPath, Width: width, Height: height}, nil
}

func (f *Fake) StartRecording(_ context.Context, _ *Selection, cfg Config) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startCount++
	if err := f.failure("recording"); err != nil {
		return err
	}
	if f.recording {
		return NewError(Internal, "recording already in progress")
	}
	f.recording = true
	f.paused = false
	f.recordingStart = f.clock()
	f.outputPath = cfg.OutputPath
	return nil
}

func (f *Fake) StopRecording(_ context.Context) (*RecordingResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopCount++
	if !f.recording {
		return nil, NewError(Internal, "no recording in progress")
	}
	duration := f.clock().Sub(f.recordingStart)
	if duration < 0 {
		duration = 0
	}
	res := &RecordingResult{
		Path:       f.outputPath,
		DurationMS: uint64(duration.Milliseconds()),
		Width:      1920,
		Height:     1080,
	}
	f.recording = false
	f.paused = false
	f.outputPath = ""
	return res, nil
}

func (f *Fake) PauseRecording(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pauseCount++
	if !f.recording {
		return NewError(Internal, "no recording in progress")
	}
	if f.paused {
		return NewError(Internal, "recording is already paused")
	}
	f.paused = true
	return nil
}

func (f *Fake) ResumeRecording(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resumeCount++
	if !f.recording {
		return NewError(Internal, "no recording in progress")
	}
	if !f.paused {
		return NewError(Internal, "recording is not paused")
	}
	f.paused = false
	return nil
}

// writePlaceholderPNG fills the file with a solid cornflower blue frame.
func writePlaceholderPNG(path string, width, height int) error {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	blue := color.RGBA{R: 100, G: 149, B: 237, A: 255}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, blue)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return png.Encode(file, img)
}
