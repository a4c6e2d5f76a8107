package upload

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobState is the lifecycle state of one upload job.
type JobState string

const (
	JobPending   JobState = "PENDING"
	JobInFlight  JobState = "IN_FLIGHT"
	JobSucceeded JobState = "SUCCEEDED"
	JobExhausted JobState = "EXHAUSTED"
)

// Terminal reports whether the state is final for the job.
func (s JobState) Terminal() bool {
	return s == JobSucceeded || s == JobExhausted
}

// Job is one upload attempt sequence for a single completed recording
// artifact. FileURI, FileName and Endpoint are immutable after creation;
// attempt, delay and state are mutated only by the retrier that owns the job.
type Job struct {
	ID       uuid.UUID
	FileURI  string
	FileName string
	Endpoint string

	mu        sync.Mutex
	attempt   int
	nextDelay time.Duration
	state     JobState
}

// NewJob creates a pending job for the given artifact.
func NewJob(fileURI, fileName, endpoint string) *Job {
	return &Job{
		ID:       uuid.New(),
		FileURI:  fileURI,
		FileName: fileName,
		Endpoint: endpoint,
		state:    JobPending,
	}
}

// State returns the current lifecycle state.
func (j *Job) State() JobState {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Attempt returns how many upload attempts have been issued so far.
func (j *Job) Attempt() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.attempt
}

func (j *Job) setState(s JobState) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.state = s
}

// beginAttempt marks the job in flight and consumes one attempt, returning
// the new attempt number. The counter moves before the call is issued.
func (j *Job) beginAttempt() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.state = JobInFlight
	j.attempt++
	return j.attempt
}

// backoff returns the delay to wait before the next attempt and doubles the
// stored delay for the one after that.
func (j *Job) backoff() time.Duration {
	j.mu.Lock()
	defer j.mu.Unlock()
	d := j.nextDelay
	j.nextDelay *= 2
	j.state = JobPending
	return d
}

func (j *Job) initDelay(base time.Duration) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.nextDelay == 0 {
		j.nextDelay = base
	}
}
