package recorder

import (
	"os/exec"
	"strings"
)

// BackendType identifies a capture backend implementation.
type BackendType string

const (
	BackendTypePortAudio BackendType = "portaudio"
	BackendTypeArecord   BackendType = "arecord"
	BackendTypeAuto      BackendType = "auto"
)

// New creates a recorder using the requested backend. "auto" prefers
// PortAudio and falls back to arecord when the ALSA tool is the only thing
// available.
func New(backend string) Recorder {
	switch determineBackend(backend) {
	case BackendTypeArecord:
		return NewArecord()
	default:
		return NewPortAudio()
	}
}

func determineBackend(backend string) BackendType {
	switch strings.ToLower(backend) {
	case "portaudio":
		return BackendTypePortAudio
	case "arecord":
		return BackendTypeArecord
	case "auto", "":
		// PortAudio is linked in; use it unless it has no input device and
		// arecord is present.
		if NewPortAudio().RequestPermission() == PermissionGranted {
			return BackendTypePortAudio
		}
		if _, err := exec.LookPath("arecord"); err == nil {
			return BackendTypeArecord
		}
		return BackendTypePortAudio
	default:
		return BackendTypePortAudio
	}
}
