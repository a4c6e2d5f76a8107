package recorder

// Permission is the result of a microphone permission check.
type Permission int

const (
	PermissionGranted Permission = iota
	PermissionDenied
)

// Preset carries the capture parameters for one recording.
type Preset struct {
	SampleRate int
	Channels   int
	Directory  string // where the artifact file is written
}

// Handle is an opaque reference to one in-progress hardware capture. It is
// owned exclusively by the session controller between Start and Stop.
type Handle interface{}

// Recorder abstracts the audio capture hardware.
type Recorder interface {
	// RequestPermission reports whether microphone capture is allowed.
	RequestPermission() Permission

	// Start begins a hardware capture session and returns its handle.
	Start(preset Preset) (Handle, error)

	// Stop ends the capture identified by the handle and returns the URI
	// (local path) of the recorded artifact. An empty URI with a nil error
	// means the capture produced nothing usable.
	Stop(h Handle) (string, error)
}
