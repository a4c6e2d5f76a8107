package upload

import (
	"context"
	"sync"
)

// MockUploader is a scriptable uploader for tests. Errs is consumed one entry
// per call; once exhausted every further call succeeds.
type MockUploader struct {
	mu       sync.Mutex
	Errs     []error
	requests []Request
}

func NewMockUploader(errs ...error) *MockUploader {
	return &MockUploader{Errs: errs}
}

func (m *MockUploader) Upload(ctx context.Context, req Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if len(m.Errs) == 0 {
		return nil
	}
	err := m.Errs[0]
	m.Errs = m.Errs[1:]
	return err
}

// Calls returns how many upload attempts were issued.
func (m *MockUploader) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns a copy of all requests seen.
func (m *MockUploader) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}
