package session

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/voicedroplab/voicedrop/internal/netwatch"
	"github.com/voicedroplab/voicedrop/internal/notify"
	"github.com/voicedroplab/voicedrop/internal/recorder"
	"github.com/voicedroplab/voicedrop/internal/upload"
)

// TestTimerBoundRecordingWithUploadRetry exercises the full flow: a one
// minute bounded recording auto-stops, the artifact is handed to the retrier
// and uploaded successfully on the fourth attempt after 30+60+120 seconds of
// scheduled backoff.
func TestTimerBoundRecordingWithUploadRetry(t *testing.T) {
	fail := errors.New("transient server error")
	uploader := upload.NewMockUploader(fail, fail, fail)
	watcher := netwatch.NewManual(true)
	notifier := notify.NewMemory()

	type scheduled struct {
		delay time.Duration
		fn    func()
	}
	ticks := make(chan scheduled, 16)

	retrier := upload.NewRetrier(uploader, watcher, notifier, upload.Options{
		Schedule: func(d time.Duration, fn func()) {
			ticks <- scheduled{delay: d, fn: fn}
		},
	})
	defer retrier.Close()

	rec := recorder.NewMock()
	rec.SetStopURI("/tmp/capture_e2e.wav")

	c := NewController(rec, watcher, retrier, recorder.Preset{SampleRate: 44100, Channels: 1, Directory: t.TempDir()})

	var timerDelay time.Duration
	var timerFn func()
	c.afterFunc = func(d time.Duration, fn func()) *time.Timer {
		timerDelay = d
		timerFn = fn
		tm := time.NewTimer(time.Hour)
		tm.Stop()
		return tm
	}

	dc := ParseDuration("0", "1")
	if err := c.Start(dc, Form{Endpoint: "http://example.com/upload"}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if timerDelay != 60*time.Second {
		t.Fatalf("timer armed for %v, want 60s", timerDelay)
	}

	// No manual stop: the timer fires.
	timerFn()
	if c.Status().State != StateIdle {
		t.Fatalf("state = %s, want IDLE after automatic stop", c.Status().State)
	}

	// Three failed attempts back off 30s, 60s, 120s; the fourth succeeds.
	wantDelays := []time.Duration{30 * time.Second, 60 * time.Second, 120 * time.Second}
	for _, want := range wantDelays {
		select {
		case tick := <-ticks:
			if tick.delay != want {
				t.Errorf("retry scheduled after %v, want %v", tick.delay, want)
			}
			tick.fn()
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for the %v retry", want)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for retrier.Active() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if retrier.Active() != 0 {
		t.Fatal("upload never reached a terminal state")
	}

	if uploader.Calls() != 4 {
		t.Errorf("uploader called %d times, want 4", uploader.Calls())
	}

	reqs := uploader.Requests()
	if len(reqs) == 0 {
		t.Fatal("no upload requests recorded")
	}
	namePattern := regexp.MustCompile(`^recording_\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z\.m4a$`)
	if !namePattern.MatchString(reqs[0].FileName) {
		t.Errorf("upload file name = %q, want recording_<RFC3339>.m4a", reqs[0].FileName)
	}

	msgs := notifier.Messages()
	if len(msgs) == 0 || msgs[len(msgs)-1].Level != "info" {
		t.Errorf("messages = %+v, want a final success notification", msgs)
	}
}
