package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/voicedroplab/voicedrop/internal/config"
	"github.com/voicedroplab/voicedrop/internal/netwatch"
	"github.com/voicedroplab/voicedrop/internal/notify"
	"github.com/voicedroplab/voicedrop/internal/recorder"
	"github.com/voicedroplab/voicedrop/internal/session"
	"github.com/voicedroplab/voicedrop/internal/upload"
)

// Service wires the session controller, upload retrier, connectivity watcher
// and notifier into one facade used by the CLI commands and the control
// server.
type Service struct {
	cfg        *config.Config
	controller *session.Controller
	retrier    *upload.Retrier
	watcher    netwatch.Watcher
	notifier   notify.Notifier
	httpClient *http.Client

	prober      *netwatch.Prober
	unsubscribe func()

	// Error tracking
	lastError      string
	lastErrorMutex sync.RWMutex
}

// Status is the snapshot polled by the record command and served by the
// control server.
type Status struct {
	Session       session.Info `json:"session"`
	UploadsActive int          `json:"uploads_active"`
	Connected     bool         `json:"connected"`
	LastError     string       `json:"last_error,omitempty"`
}

// New builds a fully wired service from configuration.
func New(cfg *config.Config) *Service {
	var notifier notify.Notifier
	if cfg.Notify.Desktop {
		notifier = notify.NewDesktop()
	} else {
		notifier = notify.NewLog()
	}

	prober := netwatch.NewProber(cfg.ProbeAddress(), cfg.Connectivity.ProbeInterval, cfg.Connectivity.ProbeTimeout)
	prober.Start()

	uploader := upload.NewHTTPUploader(cfg.Server.Timeout)
	retrier := upload.NewRetrier(uploader, prober, notifier, upload.Options{
		MaxAttempts:       cfg.Upload.MaxAttempts,
		BaseDelay:         cfg.Upload.BaseDelay,
		AttemptTimeout:    cfg.Server.Timeout,
		ResumeOnReconnect: cfg.Upload.ResumeOnReconnect,
	})

	rec := recorder.New(cfg.Recording.Backend)
	controller := session.NewController(rec, prober, retrier, recorder.Preset{
		SampleRate: cfg.Recording.SampleRate,
		Channels:   cfg.Recording.Channels,
		Directory:  cfg.Recording.Directory,
	})

	s := &Service{
		cfg:        cfg,
		controller: controller,
		retrier:    retrier,
		watcher:    prober,
		notifier:   notifier,
		prober:     prober,
		httpClient: &http.Client{Timeout: cfg.Server.Timeout},
	}

	// Losing connectivity while idle is worth telling the user about; during
	// a session the start/stop paths surface it themselves.
	s.unsubscribe = prober.Subscribe(func(connected bool) {
		if !connected && s.controller.Status().State == session.StateIdle {
			s.notifier.Info("Offline", "Network connection lost.")
		}
	})

	return s
}

// StartRecording parses the duration text fields and starts a session bound
// to the given server URL and optional file name. Empty arguments fall back
// to the configured values.
func (s *Service) StartRecording(hoursText, minutesText, fileName, serverURL string) error {
	endpoint := strings.TrimSpace(serverURL)
	if endpoint == "" {
		endpoint = s.cfg.Server.URL
	}
	if err := config.ValidateServerURL(endpoint); err != nil {
		s.setLastError(fmt.Sprintf("Invalid server URL: %v", err))
		return err
	}
	if fileName == "" {
		fileName = s.cfg.Recording.FileName
	}

	dc := session.ParseDuration(hoursText, minutesText)
	err := s.controller.Start(dc, session.Form{Endpoint: endpoint, FileName: fileName})
	if err != nil {
		slog.Error("Service.StartRecording failed", "error", err)
		s.setLastError(fmt.Sprintf("Failed to start recording: %v", err))
		s.notifier.Error("Recording not started", err.Error())
		return err
	}

	s.clearLastError()
	return nil
}

// StopRecording ends the active session; the artifact upload continues in
// the background.
func (s *Service) StopRecording() error {
	err := s.controller.Stop()
	if err != nil {
		if err == session.ErrNoActiveRecording {
			// Benign: surface it and move on.
			s.notifier.Info("Nothing to stop", "No recording is in progress.")
			return err
		}
		slog.Error("Service.StopRecording failed", "error", err)
		s.setLastError(fmt.Sprintf("Failed to stop recording: %v", err))
		s.notifier.Error("Recording stop failed", err.Error())
		return err
	}

	s.clearLastError()
	return nil
}

// GetStatus returns the current session state, upload busy indicator and
// connectivity.
func (s *Service) GetStatus() Status {
	return Status{
		Session:       s.controller.Status(),
		UploadsActive: s.retrier.Active(),
		Connected:     s.watcher.IsConnected(),
		LastError:     s.GetLastError(),
	}
}

// CheckServer issues GET {serverUrl}/status and reports whether the server
// answered 200.
func (s *Service) CheckServer(ctx context.Context, serverURL string) error {
	endpoint := strings.TrimSpace(serverURL)
	if endpoint == "" {
		endpoint = s.cfg.Server.URL
	}
	if err := config.ValidateServerURL(endpoint); err != nil {
		return err
	}

	url := strings.TrimSuffix(endpoint, "/") + "/status"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	return nil
}

// Config returns the effective configuration.
func (s *Service) Config() *config.Config {
	return s.cfg
}

// Close releases the watcher subscription and stops the connectivity prober.
// Submitted upload jobs keep running to their terminal state.
func (s *Service) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.retrier.Close()
	if s.prober != nil {
		s.prober.Stop()
	}
}

// GetLastError returns the last error message (thread-safe).
func (s *Service) GetLastError() string {
	s.lastErrorMutex.RLock()
	defer s.lastErrorMutex.RUnlock()
	return s.lastError
}

func (s *Service) setLastError(err string) {
	s.lastErrorMutex.Lock()
	defer s.lastErrorMutex.Unlock()
	s.lastError = err
}

func (s *Service) clearLastError() {
	s.lastErrorMutex.Lock()
	defer s.lastErrorMutex.Unlock()
	s.lastError = ""
}
