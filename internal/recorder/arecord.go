package recorder

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
)

// Arecord captures through the ALSA `arecord` tool. Used on hosts where the
// PortAudio runtime is unavailable.
type Arecord struct{}

func NewArecord() *Arecord {
	return &Arecord{}
}

type arecordSession struct {
	cmd  *exec.Cmd
	path string
}

func (r *Arecord) RequestPermission() Permission {
	if _, err := exec.LookPath("arecord"); err != nil {
		return PermissionDenied
	}
	return PermissionGranted
}

func (r *Arecord) Start(preset Preset) (Handle, error) {
	if err := os.MkdirAll(preset.Directory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create recording directory: %w", err)
	}

	path := tempArtifactPath(preset.Directory)
	cmd := exec.Command("arecord",
		"-q",
		"-f", "S16_LE",
		"-r", strconv.Itoa(preset.SampleRate),
		"-c", strconv.Itoa(preset.Channels),
		"-t", "wav",
		path,
	)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to launch arecord: %w", err)
	}

	slog.Debug("arecord capture started", "path", path, "pid", cmd.Process.Pid)
	return &arecordSession{cmd: cmd, path: path}, nil
}

func (r *Arecord) Stop(h Handle) (string, error) {
	s, ok := h.(*arecordSession)
	if !ok || s == nil || s.cmd.Process == nil {
		return "", fmt.Errorf("invalid recorder handle")
	}

	// SIGINT lets arecord flush and close the WAV header properly.
	if err := s.cmd.Process.Signal(os.Interrupt); err != nil {
		_ = s.cmd.Process.Kill()
	}
	_ = s.cmd.Wait()

	info, err := os.Stat(s.path)
	if err != nil || info.Size() == 0 {
		slog.Warn("arecord produced no artifact", "path", s.path)
		return "", nil
	}

	slog.Debug("arecord capture stopped", "path", s.path, "size", info.Size())
	return s.path, nil
}
