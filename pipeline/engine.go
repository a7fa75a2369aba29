// Package pipeline negotiates encoders against a codec registry and drives
// the lifecycle of media encode graphs: long-lived recordings with
// pause/resume and graceful finalization, and one-shot screenshot captures.
package pipeline

import "context"

// Registry answers availability queries against the engine's codec registry.
type Registry interface {
	// CanCreate reports whether the named element can actually be
	// instantiated. An element listed in the registry whose plugin fails to
	// load must report false.
	CanCreate(element string) bool
}

// Engine builds processing graphs from launch descriptions.
type Engine interface {
	Registry() Registry
	Launch(description string) (Graph, error)
}

// Graph is one live processing graph. A graph is single-owner: the pipeline
// that launched it is the only caller.
type Graph interface {
	// Play starts or resumes the graph.
	Play() error
	// Pause suspends the graph without tearing it down.
	Pause() error
	// SendEOS asks the graph to flush and finalize its output.
	SendEOS()
	// WaitEOS blocks until the graph reports end-of-stream, fails with the
	// graph's own error, or ctx expires.
	WaitEOS(ctx context.Context) error
	// VideoSize reports the negotiated frame dimensions once the graph has
	// seen media, or ok=false before that.
	VideoSize() (width, height uint32, ok bool)
	// Close tears the graph down. Safe to call more than once.
	Close() error
}
