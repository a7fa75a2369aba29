package pipeline

import "snipcast.app/snipcast/capture"

// H.264 encoders in priority order, hardware first, software last.
var videoEncoders = []string{
	"vaapih264enc", // Intel/AMD iGPU via VA-API
	"nvh264enc",    // NVIDIA NVENC
	"x264enc",      // software fallback
}

// AAC encoders in priority order, used for MP4 and as the MKV fallback.
var aacEncoders = []string{
	"fdkaacenc",
	"voaacenc",
	"avenc_aac",
}

// Opus encoders, the preferred family for MKV.
var opusEncoders = []string{
	"opusenc",
}

// MuxerFor maps a container format to its muxer element. The mapping is
// total and constant.
func MuxerFor(container capture.Container) string {
	switch container {
	case capture.ContainerMkv:
		return "matroskamux"
	default:
		return "mp4mux"
	}
}

// DetectVideoEncoder returns the highest-priority H.264 encoder the registry
// can instantiate. A nil or empty registry yields ok=false; callers treat
// that as a hard precondition failure for recording.
func DetectVideoEncoder(reg Registry) (string, bool) {
	if reg == nil {
		return "", false
	}
	for _, name := range videoEncoders {
		if reg.CanCreate(name) {
			return name, true
		}
	}
	return "", false
}

// DetectAudioEncoder returns the best audio encoder for the container. MKV
// prefers Opus but falls back to the AAC family, which matroskamux also
// accepts.
func DetectAudioEncoder(reg Registry, container capture.Container) (string, bool) {
	if reg == nil {
		return "", false
	}
	candidates := aacEncoders
	if container == capture.ContainerMkv {
		candidates = opusEncoders
	}
	for _, name := range candidates {
		if reg.CanCreate(name) {
			return name, true
		}
	}
	if container == capture.ContainerMkv {
		for _, name := range aacEncoders {
			if reg.CanCreate(name) {
				return name, true
			}
		}
	}
	return "", false
}

// SystemAudioSource is the loopback device for system audio capture.
// @DEFAULT_MONITOR@ resolves to the monitor source of the current default
// output device, under both PulseAudio and PipeWire's PulseAudio shim.
const SystemAudioSource = "@DEFAULT_MONITOR@"
