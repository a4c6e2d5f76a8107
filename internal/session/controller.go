package session

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/voicedroplab/voicedrop/internal/netwatch"
	"github.com/voicedroplab/voicedrop/internal/recorder"
	"github.com/voicedroplab/voicedrop/internal/upload"
)

// State is the lifecycle state of the recording session.
type State string

const (
	StateIdle     State = "IDLE"
	StateActive   State = "ACTIVE"
	StateStopping State = "STOPPING"
)

// Form carries the user-entered upload parameters captured when a recording
// starts. The controller reads it; it never writes it back anywhere.
type Form struct {
	Endpoint string // server URL the artifact is posted to
	FileName string // optional; empty synthesizes a timestamped name
}

// Submitter receives the completed recording artifact. Once handed off, the
// job belongs to the submitter; the controller keeps no reference.
type Submitter interface {
	Submit(job *upload.Job)
}

// Info is a read-only snapshot of the current session for status surfaces.
type Info struct {
	State     State         `json:"state"`
	StartedAt time.Time     `json:"started_at,omitempty"`
	Bound     time.Duration `json:"bound,omitempty"` // configured duration, 0 = unbounded
}

// Controller owns the recording lifecycle: Idle -> Active -> Stopping -> Idle.
// At most one session is active; the recorder handle is released on every
// exit from Active.
type Controller struct {
	rec     recorder.Recorder
	watcher netwatch.Watcher
	submit  Submitter
	preset  recorder.Preset

	mu         sync.Mutex
	state      State
	handle     recorder.Handle
	startedAt  time.Time
	bound      time.Duration
	timer      *time.Timer
	generation uint64
	form       Form

	// afterFunc and now are swapped out in tests.
	afterFunc func(d time.Duration, fn func()) *time.Timer
	now       func() time.Time
}

// NewController creates an idle controller.
func NewController(rec recorder.Recorder, watcher netwatch.Watcher, submit Submitter, preset recorder.Preset) *Controller {
	return &Controller{
		rec:       rec,
		watcher:   watcher,
		submit:    submit,
		preset:    preset,
		state:     StateIdle,
		afterFunc: time.AfterFunc,
		now:       time.Now,
	}
}

// Start begins a recording session. When the duration config is non-zero a
// one-shot timer stops the session automatically on expiry.
func (c *Controller) Start(dc DurationConfig, form Form) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle {
		return ErrAlreadyRecording
	}
	if c.rec.RequestPermission() != recorder.PermissionGranted {
		return ErrPermissionDenied
	}
	// The watcher's last known value is authoritative; no blocking poll.
	if !c.watcher.IsConnected() {
		return ErrOffline
	}

	handle, err := c.rec.Start(c.preset)
	if err != nil {
		// Roll back to Idle; nothing was acquired.
		return fmt.Errorf("%w: %v", ErrRecorderFailure, err)
	}

	c.handle = handle
	c.startedAt = c.now()
	c.bound = dc.Duration()
	c.form = form
	c.state = StateActive
	c.generation++

	if d := dc.Duration(); d > 0 {
		gen := c.generation
		c.timer = c.afterFunc(d, func() { c.timerExpired(gen) })
		slog.Info("Recording started", "bound", d, "endpoint", form.Endpoint)
	} else {
		slog.Info("Recording started", "bound", "none", "endpoint", form.Endpoint)
	}

	return nil
}

// timerExpired is the single source of automatic stop. Firings from a
// previous session, or after a manual stop won the race, are rejected by the
// generation check.
func (c *Controller) timerExpired(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation != gen || c.state != StateActive {
		slog.Debug("Stale recording timer ignored", "generation", gen)
		return
	}

	slog.Info("Recording duration reached, stopping")
	if err := c.stopLocked(); err != nil {
		slog.Error("Automatic stop failed", "error", err)
	}
}

// Stop ends the active session, releases the recorder handle and hands the
// artifact to the submitter. Stopping when idle is a benign error.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopLocked()
}

func (c *Controller) stopLocked() error {
	if c.state == StateIdle {
		return ErrNoActiveRecording
	}

	// Canceling an unarmed timer is a no-op.
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}

	c.state = StateStopping
	handle := c.handle
	c.handle = nil

	uri, err := c.rec.Stop(handle)
	if err != nil {
		c.state = StateIdle
		return fmt.Errorf("%w: %v", ErrRecorderFailure, err)
	}
	if uri == "" {
		slog.Warn("Recording produced no artifact, nothing to upload")
		c.state = StateIdle
		return nil
	}

	name := strings.TrimSpace(c.form.FileName)
	if name == "" {
		name = fmt.Sprintf("recording_%s.m4a", c.now().UTC().Format(time.RFC3339))
	}

	job := upload.NewJob(uri, name, c.form.Endpoint)
	c.submit.Submit(job)
	slog.Info("Recording stopped", "uri", uri, "file", name)

	c.state = StateIdle
	return nil
}

// Status returns a snapshot of the session.
func (c *Controller) Status() Info {
	c.mu.Lock()
	defer c.mu.Unlock()

	info := Info{State: c.state}
	if c.state != StateIdle {
		info.StartedAt = c.startedAt
		info.Bound = c.bound
	}
	return info
}
