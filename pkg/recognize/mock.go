package recognize

import (
	"context"
	"sync"
	"time"

	"github.com/binsight/go-binsight/pkg/waste"
)

// Mock implements Recognizer for testing.
type Mock struct {
	// RecognizeFunc is called when Recognize is invoked.
	RecognizeFunc func(ctx context.Context, jpeg []byte) (Result, error)

	// CloseFunc is called when Close is invoked.
	CloseFunc func() error

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a method invocation.
type MockCall struct {
	Method string
	Bytes  int
	Time   time.Time
}

// NewMock creates a mock recognizer that classifies everything as a
// confidently recyclable plastic bottle.
func NewMock() *Mock {
	return &Mock{
		RecognizeFunc: func(ctx context.Context, jpeg []byte) (Result, error) {
			return Result{
				Label:      "plastic_bottle",
				Category:   waste.Recyclable,
				Confidence: 0.85,
			}, nil
		},
	}
}

// Recognize calls RecognizeFunc and records the call.
func (m *Mock) Recognize(ctx context.Context, jpeg []byte) (Result, error) {
	m.record("Recognize", len(jpeg))
	if m.RecognizeFunc != nil {
		return m.RecognizeFunc(ctx, jpeg)
	}
	return Result{}, ErrUnavailable
}

// Close calls CloseFunc and records the call.
func (m *Mock) Close() error {
	m.record("Close", 0)
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Calls returns all recorded calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of Recognize invocations.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == "Recognize" {
			n++
		}
	}
	return n
}

func (m *Mock) record(method string, bytes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Method: method, Bytes: bytes, Time: time.Now()})
}
