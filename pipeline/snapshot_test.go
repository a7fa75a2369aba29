package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snipcast.app/snipcast/capture"
)

func snapshotOptions(t *testing.T) SnapshotOptions {
	t.Helper()
	return SnapshotOptions{
		NodeID:     55,
		StreamFD:   capture.NoStreamFD,
		OutputPath: filepath.Join(t.TempDir(), "shot.png"),
	}
}

func TestSnapshotDescription(t *testing.T) {
	opts := snapshotOptions(t)
	opts.StreamFD = 9
	graph := &fakeGraph{
		width:  640,
		height: 480,
		onPlay: func() {
			require.NoError(t, os.WriteFile(opts.OutputPath, []byte("png"), 0o644))
		},
	}
	engine := &fakeEngine{graph: graph}

	res, err := Snapshot(context.Background(), engine, opts)
	require.NoError(t, err)

	require.Len(t, engine.descriptions, 1)
	desc := engine.descriptions[0]
	assert.Contains(t, desc, "pipewiresrc fd=9 path=55 num-buffers=1")
	assert.Contains(t, desc, "videoconvert ! pngenc ! filesink location="+opts.OutputPath)

	assert.Equal(t, uint32(640), res.Width)
	assert.Equal(t, uint32(480), res.Height)
	assert.True(t, graph.closed)
}

func TestSnapshotDimensionFallbacks(t *testing.T) {
	// Graph dimensions unknown, selection known.
	opts := snapshotOptions(t)
	opts.Width, opts.Height = 300, 200
	graph := &fakeGraph{onPlay: func() {
		require.NoError(t, os.WriteFile(opts.OutputPath, []byte("png"), 0o644))
	}}
	res, err := Snapshot(context.Background(), &fakeEngine{graph: graph}, opts)
	require.NoError(t, err)
	assert.Equal(t, uint32(300), res.Width)
	assert.Equal(t, uint32(200), res.Height)

	// Neither known: placeholder dimensions.
	opts2 := snapshotOptions(t)
	graph2 := &fakeGraph{onPlay: func() {
		require.NoError(t, os.WriteFile(opts2.OutputPath, []byte("png"), 0o644))
	}}
	res, err = Snapshot(context.Background(), &fakeEngine{graph: graph2}, opts2)
	require.NoError(t, err)
	assert.Equal(t, uint32(100), res.Width)
	assert.Equal(t, uint32(100), res.Height)
}

func TestSnapshotTimeoutIsError(t *testing.T) {
	opts := snapshotOptions(t)
	opts.Timeout = 20 * time.Millisecond
	graph := &fakeGraph{waitErr: context.DeadlineExceeded}

	_, err := Snapshot(context.Background(), &fakeEngine{graph: graph}, opts)
	require.Error(t, err)
	assert.Equal(t, capture.Internal, capture.KindOf(err))
	assert.Contains(t, err.Error(), "timed out")
	assert.True(t, graph.closed)
}

func TestSnapshotGraphError(t *testing.T) {
	graph := &fakeGraph{waitErr: errors.New("no frames")}

	_, err := Snapshot(context.Background(), &fakeEngine{graph: graph}, snapshotOptions(t))
	require.Error(t, err)
	assert.Equal(t, capture.Internal, capture.KindOf(err))
	assert.True(t, graph.closed)
}

func TestSnapshotMissingFile(t *testing.T) {
	graph := &fakeGraph{width: 640, height: 480}

	_, err := Snapshot(context.Background(), &fakeEngine{graph: graph}, snapshotOptions(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not created")
}

func TestSnapshotLaunchFailure(t *testing.T) {
	engine := &fakeEngine{launchErr: errors.New("bad description")}

	_, err := Snapshot(context.Background(), engine, snapshotOptions(t))
	require.Error(t, err)
	assert.Equal(t, capture.Internal, capture.KindOf(err))
}
