package camera

import (
	"sync"
	"time"
)

// MockSource implements Source for testing without camera hardware.
type MockSource struct {
	// Frames are returned in order; the last frame repeats once exhausted.
	Frames [][]byte

	// Err, if set, is returned by every CaptureJPEG call.
	Err error

	// Delay simulates capture latency.
	Delay time.Duration

	mu    sync.Mutex
	index int
	calls int
}

// NewMockSource creates a mock source that always returns frame.
func NewMockSource(frame []byte) *MockSource {
	return &MockSource{Frames: [][]byte{frame}}
}

// CaptureJPEG returns the next scripted frame.
func (m *MockSource) CaptureJPEG() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Delay > 0 {
		time.Sleep(m.Delay)
	}

	m.calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Frames) == 0 {
		return nil, ErrClosed
	}

	frame := m.Frames[m.index]
	if m.index < len(m.Frames)-1 {
		m.index++
	}
	return frame, nil
}

// Calls returns how many times CaptureJPEG was invoked.
func (m *MockSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
