package capture

// Source selects what the user is asked to share.
type Source string

const (
	SourceScreen  Source = "screen"
	SourceMonitor Source = "monitor"
	SourceWindow  Source = "window"
	SourceRegion  Source = "region"
)

// Container selects the output container format.
type Container string

const (
	ContainerMp4 Container = "mp4"
	ContainerMkv Container = "mkv"
)

// AudioConfig enables the independent audio inputs of a recording.
type AudioConfig struct {
	// System captures the default output device's loopback.
	System bool `json:"system"`
	// Mic captures the default microphone.
	Mic bool `json:"mic"`
}

// Enabled reports whether any audio input is requested.
func (a AudioConfig) Enabled() bool {
	return a.System || a.Mic
}

// Config describes one capture session. It is immutable once accepted by the
// orchestrator: callers hand over a value and the orchestrator keeps its own
// copy.
type Config struct {
	Source        Source      `json:"source"`
	FPS           int         `json:"fps"`
	IncludeCursor bool        `json:"include_cursor"`
	Audio         AudioConfig `json:"audio"`
	Container     Container   `json:"container"`
	OutputPath    string      `json:"output_path"`
}

// DefaultConfig returns the baseline configuration: full-screen capture at
// 30 fps with the cursor embedded, no audio, MP4 output. The output path must
// still be provided by the caller.
func DefaultConfig() Config {
	return Config{
		Source:        SourceScreen,
		FPS:           30,
		IncludeCursor: true,
		Container:     ContainerMp4,
	}
}

// Validate checks the configuration and returns a field-tagged error for the
// first violation found.
func (c Config) Validate() *ConfigError {
	switch c.Source {
	case SourceScreen, SourceMonitor, SourceWindow, SourceRegion:
	default:
		return &ConfigError{Field: "source", Message: "unknown capture source"}
	}
	if c.FPS < 1 || c.FPS > 60 {
		return &ConfigError{Field: "fps", Message: "fps must be between 1 and 60"}
	}
	switch c.Container {
	case ContainerMp4, ContainerMkv:
	default:
		return &ConfigError{Field: "container", Message: "unknown container format"}
	}
	if c.OutputPath == "" {
		return &ConfigError{Field: "output_path", Message: "output path cannot be empty"}
	}
	return nil
}
