package upload

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/voicedroplab/voicedrop/internal/netwatch"
	"github.com/voicedroplab/voicedrop/internal/notify"
)

const (
	// DefaultMaxAttempts is the total attempt ceiling per job: the first
	// attempt plus four retries.
	DefaultMaxAttempts = 5

	// DefaultBaseDelay is the wait before the first retry; it doubles after
	// every failed attempt (30s, 60s, 120s, 240s).
	DefaultBaseDelay = 30 * time.Second

	// DefaultAttemptTimeout bounds a single HTTP attempt.
	DefaultAttemptTimeout = 60 * time.Second
)

// Options tune a Retrier. Zero values fall back to the defaults above.
type Options struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	AttemptTimeout time.Duration

	// ResumeOnReconnect re-ticks jobs that were stalled by an offline check
	// once connectivity returns. Off by default: the stock behavior leaves a
	// stalled job waiting until something else resumes it.
	ResumeOnReconnect bool

	// Schedule overrides the retry timer. Tests use it to observe the exact
	// backoff delays; nil means time.AfterFunc.
	Schedule func(d time.Duration, fn func())
}

// Retrier drives every submitted job to Succeeded or Exhausted. Submission is
// fire-and-forget; the outcome is observed only through the notifier.
type Retrier struct {
	uploader       Uploader
	watcher        netwatch.Watcher
	notifier       notify.Notifier
	maxAttempts    int
	baseDelay      time.Duration
	attemptTimeout time.Duration
	resume         bool

	// schedule is time.AfterFunc unless a test swaps it out.
	schedule func(d time.Duration, fn func())

	mu          sync.Mutex
	active      int
	stalled     []*Job
	unsubscribe func()
}

// NewRetrier wires a retrier to its collaborators. When opts.ResumeOnReconnect
// is set the retrier subscribes to the watcher; call Close to release that
// subscription.
func NewRetrier(uploader Uploader, watcher netwatch.Watcher, notifier notify.Notifier, opts Options) *Retrier {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = DefaultBaseDelay
	}
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = DefaultAttemptTimeout
	}
	if opts.Schedule == nil {
		opts.Schedule = func(d time.Duration, fn func()) {
			time.AfterFunc(d, fn)
		}
	}

	r := &Retrier{
		uploader:       uploader,
		watcher:        watcher,
		notifier:       notifier,
		maxAttempts:    opts.MaxAttempts,
		baseDelay:      opts.BaseDelay,
		attemptTimeout: opts.AttemptTimeout,
		resume:         opts.ResumeOnReconnect,
		schedule:       opts.Schedule,
	}

	if r.resume {
		r.unsubscribe = watcher.Subscribe(func(connected bool) {
			if connected {
				r.resumeStalled()
			}
		})
	}

	return r
}

// Close releases the watcher subscription, if any. Submitted jobs keep
// running to their terminal state.
func (r *Retrier) Close() {
	r.mu.Lock()
	unsub := r.unsubscribe
	r.unsubscribe = nil
	r.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// Submit starts the attempt loop for the job and returns immediately.
func (r *Retrier) Submit(job *Job) {
	job.initDelay(r.baseDelay)

	r.mu.Lock()
	r.active++
	r.mu.Unlock()

	slog.Info("Upload job submitted", "job", job.ID, "file", job.FileName, "endpoint", job.Endpoint)
	go r.tick(job)
}

// Active returns the number of submitted jobs that have not yet reached a
// terminal state. Drives the busy indicator on the status surface.
func (r *Retrier) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// tick runs one step of the attempt loop. Ticks for a given job are
// serialized: the next one is scheduled only after the current one finishes.
func (r *Retrier) tick(job *Job) {
	if !r.watcher.IsConnected() {
		// No attempt is consumed and no retry is scheduled while offline.
		slog.Warn("Upload tick skipped, offline", "job", job.ID, "attempt", job.Attempt())
		r.notifier.Info("Upload postponed", "No network connection; upload of "+job.FileName+" is on hold.")
		r.markStalled(job)
		return
	}

	attempt := job.beginAttempt()

	ctx, cancel := context.WithTimeout(context.Background(), r.attemptTimeout)
	err := r.uploader.Upload(ctx, Request{
		FileURI:  job.FileURI,
		FileName: job.FileName,
		Endpoint: job.Endpoint,
	})
	cancel()

	if err == nil {
		job.setState(JobSucceeded)
		r.finish()
		slog.Info("Upload succeeded", "job", job.ID, "file", job.FileName, "attempt", attempt)
		r.notifier.Info("Upload complete", job.FileName+" was uploaded.")
		return
	}

	if attempt >= r.maxAttempts {
		job.setState(JobExhausted)
		r.finish()
		slog.Error("Upload exhausted", "job", job.ID, "file", job.FileName, "attempts", attempt, "error", err)
		r.notifier.Error("Upload failed", "Giving up on "+job.FileName+" after repeated failures.")
		return
	}

	delay := job.backoff()
	slog.Warn("Upload attempt failed, will retry",
		"job", job.ID, "attempt", attempt, "retry_in", delay, "error", err)
	r.schedule(delay, func() { r.tick(job) })
}

func (r *Retrier) finish() {
	r.mu.Lock()
	if r.active > 0 {
		r.active--
	}
	r.mu.Unlock()
}

func (r *Retrier) markStalled(job *Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.resume {
		return
	}
	r.stalled = append(r.stalled, job)
}

func (r *Retrier) resumeStalled() {
	r.mu.Lock()
	jobs := r.stalled
	r.stalled = nil
	r.mu.Unlock()

	for _, job := range jobs {
		slog.Info("Resuming stalled upload", "job", job.ID, "file", job.FileName)
		go r.tick(job)
	}
}
