package session

import "errors"

var (
	// ErrAlreadyRecording is returned by Start when a session is active.
	ErrAlreadyRecording = errors.New("a recording is already in progress")

	// ErrNoActiveRecording is returned by Stop when nothing is recording.
	// Benign: surfacing it to the user is enough.
	ErrNoActiveRecording = errors.New("no recording is in progress")

	// ErrPermissionDenied is returned by Start when microphone capture is
	// not allowed.
	ErrPermissionDenied = errors.New("microphone permission denied")

	// ErrOffline is returned by Start when the last known connectivity
	// value is false.
	ErrOffline = errors.New("no network connection")

	// ErrRecorderFailure wraps hardware start/stop errors.
	ErrRecorderFailure = errors.New("recorder failure")
)
