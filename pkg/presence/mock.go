package presence

import (
	"sync"
	"time"
)

// MockLevelReader implements LevelReader with a scripted sequence of
// levels and errors for testing.
type MockLevelReader struct {
	// Levels are returned in order; the last level repeats once exhausted.
	Levels []bool

	// Errs maps read indexes (0-based) to injected errors.
	Errs map[int]error

	mu    sync.Mutex
	index int
	reads int
}

// ReadLevel returns the next scripted level.
func (m *MockLevelReader) ReadLevel() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.reads
	m.reads++

	if err, ok := m.Errs[i]; ok {
		return false, err
	}
	if len(m.Levels) == 0 {
		return false, nil
	}

	level := m.Levels[m.index]
	if m.index < len(m.Levels)-1 {
		m.index++
	}
	return level, nil
}

// Reads returns how many times ReadLevel was invoked.
func (m *MockLevelReader) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

// SimulatedReader produces a repeating presence cycle without hardware:
// active for OnFor, then inactive for OffFor. Useful for demos and
// development on machines without the sensor board.
type SimulatedReader struct {
	OnFor  time.Duration
	OffFor time.Duration

	start time.Time
	once  sync.Once
}

// NewSimulatedReader returns a reader cycling 8s active, 5s inactive.
func NewSimulatedReader() *SimulatedReader {
	return &SimulatedReader{
		OnFor:  8 * time.Second,
		OffFor: 5 * time.Second,
	}
}

// ReadLevel reports the level for the current point in the cycle.
func (s *SimulatedReader) ReadLevel() (bool, error) {
	s.once.Do(func() { s.start = time.Now() })

	period := s.OnFor + s.OffFor
	if period <= 0 {
		return false, nil
	}
	phase := time.Since(s.start) % period
	return phase < s.OnFor, nil
}
