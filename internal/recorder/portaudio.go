package recorder

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/uuid"
	"github.com/gordonklaus/portaudio"
)

// PortAudio captures from the default input device and writes a WAV artifact
// when stopped.
type PortAudio struct{}

func NewPortAudio() *PortAudio {
	return &PortAudio{}
}

// portAudioSession is the handle for one in-progress capture.
type portAudioSession struct {
	preset   Preset
	stream   *portaudio.Stream
	in       []int16
	frames   []int16
	stopChan chan struct{}
	doneChan chan struct{}
	readErr  error
}

func (r *PortAudio) RequestPermission() Permission {
	if err := portaudio.Initialize(); err != nil {
		return PermissionDenied
	}
	defer portaudio.Terminate()

	dev, err := portaudio.DefaultInputDevice()
	if err != nil || dev == nil || dev.MaxInputChannels < 1 {
		return PermissionDenied
	}
	return PermissionGranted
}

func (r *PortAudio) Start(preset Preset) (Handle, error) {
	if err := os.MkdirAll(preset.Directory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create recording directory: %w", err)
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init failed: %w", err)
	}

	s := &portAudioSession{
		preset:   preset,
		in:       make([]int16, 1024),
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}

	stream, err := portaudio.OpenDefaultStream(preset.Channels, 0, float64(preset.SampleRate), len(s.in), s.in)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open input stream: %w", err)
	}
	s.stream = stream

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to start input stream: %w", err)
	}

	go s.captureLoop()

	slog.Debug("PortAudio capture started", "sample_rate", preset.SampleRate, "channels", preset.Channels)
	return s, nil
}

func (s *portAudioSession) captureLoop() {
	defer close(s.doneChan)

	for {
		select {
		case <-s.stopChan:
			return
		default:
		}

		if err := s.stream.Read(); err != nil {
			// Overflows are expected under load; anything else ends the loop.
			if err == portaudio.InputOverflowed {
				continue
			}
			s.readErr = err
			return
		}
		s.frames = append(s.frames, s.in...)
	}
}

func (r *PortAudio) Stop(h Handle) (string, error) {
	s, ok := h.(*portAudioSession)
	if !ok || s == nil {
		return "", fmt.Errorf("invalid recorder handle")
	}

	close(s.stopChan)
	<-s.doneChan

	stopErr := s.stream.Stop()
	closeErr := s.stream.Close()
	portaudio.Terminate()

	if s.readErr != nil {
		return "", fmt.Errorf("capture stream failed: %w", s.readErr)
	}
	if stopErr != nil {
		return "", fmt.Errorf("failed to stop input stream: %w", stopErr)
	}
	if closeErr != nil {
		return "", fmt.Errorf("failed to close input stream: %w", closeErr)
	}

	if len(s.frames) == 0 {
		slog.Warn("Capture produced no samples")
		return "", nil
	}

	path := tempArtifactPath(s.preset.Directory)
	if err := writeWav(path, s.frames, s.preset.SampleRate, s.preset.Channels); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}

	slog.Debug("PortAudio capture stopped", "path", path, "samples", len(s.frames))
	return path, nil
}

func tempArtifactPath(dir string) string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
	return filepath.Join(dir, fmt.Sprintf("capture_%s_%d.wav", id, time.Now().Unix()))
}

func writeWav(path string, frames []int16, sampleRate, channels int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	data := make([]int, len(frames))
	for i, v := range frames {
		data[i] = int(v)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}
