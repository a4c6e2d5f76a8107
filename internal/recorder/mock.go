package recorder

import (
	"fmt"
	"sync"
)

// Mock is a scriptable recorder for tests. The zero value grants permission,
// starts successfully and returns "mock://recording.wav" on stop.
type Mock struct {
	mu sync.Mutex

	// Script knobs.
	Permission  Permission
	StartErr    error
	StopErr     error
	StopURI     string
	stopURISet  bool
	activeCount int

	// Call log.
	StartCalls int
	StopCalls  int
}

type mockHandle struct {
	id int
}

func NewMock() *Mock {
	return &Mock{}
}

// SetStopURI scripts the URI returned by Stop. Use the empty string to
// simulate a capture that produced nothing.
func (m *Mock) SetStopURI(uri string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StopURI = uri
	m.stopURISet = true
}

func (m *Mock) RequestPermission() Permission {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Permission
}

func (m *Mock) Start(preset Preset) (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StartCalls++
	if m.StartErr != nil {
		return nil, m.StartErr
	}
	m.activeCount++
	return &mockHandle{id: m.StartCalls}, nil
}

func (m *Mock) Stop(h Handle) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StopCalls++
	if _, ok := h.(*mockHandle); !ok {
		return "", fmt.Errorf("invalid recorder handle")
	}
	if m.activeCount > 0 {
		m.activeCount--
	}
	if m.StopErr != nil {
		return "", m.StopErr
	}
	if m.stopURISet {
		return m.StopURI, nil
	}
	return "mock://recording.wav", nil
}

// Active reports how many captures are currently started but not stopped.
func (m *Mock) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeCount
}
