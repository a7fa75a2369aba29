package capture

import (
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeSelectionDefaults(t *testing.T) {
	f := NewFake()
	sel, err := f.RequestSelection(context.Background(), DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, uint32(42), sel.NodeID)
	assert.Equal(t, NoStreamFD, sel.StreamFD)
	assert.Equal(t, uint32(1920), sel.Width)
	assert.Equal(t, uint32(1080), sel.Height)
	assert.Equal(t, 1, f.SelectionCount())
}

func TestFakeFailureMode(t *testing.T) {
	f := NewFake()
	f.FailWith(PermissionDenied)

	_, err := f.RequestSelection(context.Background(), DefaultConfig())
	require.Error(t, err)
	assert.Equal(t, PermissionDenied, KindOf(err))

	// Cancellation still succeeds in failing mode.
	assert.NoError(t, f.CancelSelection(context.Background()))

	f.Succeed()
	_, err = f.RequestSelection(context.Background(), DefaultConfig())
	assert.NoError(t, err)
}

func TestFakeScreenshotWritesDecodablePNG(t *testing.T) {
	f := NewFake()
	f.SetSelectionSize(64, 48)
	path := filepath.Join(t.TempDir(), "shot.png")

	sel, err := f.RequestSelection(context.Background(), DefaultConfig())
	require.NoError(t, err)

	res, err := f.CaptureScreenshot(context.Background(), sel, path)
	require.NoError(t, err)
	assert.Equal(t, path, res.Path)
	assert.Equal(t, uint32(64), res.Width)
	assert.Equal(t, uint32(48), res.Height)

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	img, err := png.Decode(file)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 48, img.Bounds().Dy())
}

func TestFakeScreenshotFallbackSize(t *testing.T) {
	f := NewFake()
	path := filepath.Join(t.TempDir(), "shot.png")

	sel := &Selection{NodeID: 7, StreamFD: NoStreamFD}
	res, err := f.CaptureScreenshot(context.Background(), sel, path)
	require.NoError(t, err)
	assert.Equal(t, uint32(100), res.Width)
	assert.Equal(t, uint32(100), res.Height)
}

func TestFakeRecordingLifecycle(t *testing.T) {
	f := NewFake()
	now := time.Unix(1000, 0)
	f.SetClock(func() time.Time { return now })

	cfg := DefaultConfig()
	cfg.OutputPath = "/tmp/rec.mp4"
	sel := &Selection{NodeID: 42, StreamFD: NoStreamFD}

	require.NoError(t, f.StartRecording(context.Background(), sel, cfg))
	assert.True(t, f.IsRecording())

	err := f.StartRecording(context.Background(), sel, cfg)
	require.Error(t, err)
	assert.Equal(t, Internal, KindOf(err))

	now = now.Add(2500 * time.Millisecond)
	res, err := f.StopRecording(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/tmp/rec.mp4", res.Path)
	assert.Equal(t, uint64(2500), res.DurationMS)
	assert.False(t, f.IsRecording())

	_, err = f.StopRecording(context.Background())
	require.Error(t, err)
	assert.Equal(t, Internal, KindOf(err))
}

func TestFakePauseResumeRules(t *testing.T) {
	f := NewFake()
	ctx := context.Background()

	// Not recording yet.
	assert.Error(t, f.PauseRecording(ctx))
	assert.Error(t, f.ResumeRecording(ctx))

	cfg := DefaultConfig()
	cfg.OutputPath = "/tmp/rec.mp4"
	require.NoError(t, f.StartRecording(ctx, &Selection{NodeID: 42}, cfg))

	// Resume without pause is rejected.
	assert.Error(t, f.ResumeRecording(ctx))

	require.NoError(t, f.PauseRecording(ctx))
	assert.True(t, f.IsPaused())
	assert.Error(t, f.PauseRecording(ctx))

	require.NoError(t, f.ResumeRecording(ctx))
	assert.False(t, f.IsPaused())
}

func TestUnsupportedBackend(t *testing.T) {
	b := NewUnsupported()
	ctx := context.Background()

	_, err := b.RequestSelection(ctx, DefaultConfig())
	assert.Equal(t, NotSupported, KindOf(err))
	_, err = b.CaptureScreenshot(ctx, &Selection{}, "/tmp/x.png")
	assert.Equal(t, NotSupported, KindOf(err))
	assert.Equal(t, NotSupported, KindOf(b.StartRecording(ctx, &Selection{}, DefaultConfig())))
	_, err = b.StopRecording(ctx)
	assert.Equal(t, NotSupported, KindOf(err))
	assert.Equal(t, NotSupported, KindOf(b.PauseRecording(ctx)))
	assert.Equal(t, NotSupported, KindOf(b.ResumeRecording(ctx)))

	// Cancel is always a safe no-op.
	assert.NoError(t, b.CancelSelection(ctx))
}
