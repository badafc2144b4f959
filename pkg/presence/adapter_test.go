package presence

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollEmitsRawLevels(t *testing.T) {
	reader := &MockLevelReader{Levels: []bool{false, true, true, false}}
	a := NewAdapter(reader, DefaultConfig())

	now := time.Now()
	var got []bool
	for i := 0; i < 4; i++ {
		sig, ok := a.Poll(now.Add(time.Duration(i) * 50 * time.Millisecond))
		require.True(t, ok, "read %d should emit", i)
		got = append(got, sig.Active)
	}

	assert.Equal(t, []bool{false, true, true, false}, got,
		"adapter must not debounce: every raw read is emitted")
	assert.False(t, a.Degraded())
}

func TestPollReadFailureEmitsNothing(t *testing.T) {
	reader := &MockLevelReader{
		Levels: []bool{true, true, true},
		Errs:   map[int]error{1: errors.New("bus fault")},
	}
	a := NewAdapter(reader, DefaultConfig())
	now := time.Now()

	_, ok := a.Poll(now)
	require.True(t, ok)

	_, ok = a.Poll(now.Add(50 * time.Millisecond))
	assert.False(t, ok, "failed read must emit no signal")
	assert.True(t, a.Degraded(), "failed read marks the adapter degraded")

	sig, ok := a.Poll(now.Add(100 * time.Millisecond))
	require.True(t, ok, "adapter recovers on the next good read")
	assert.True(t, sig.Active)
	assert.False(t, a.Degraded())
}

func TestPollTimestampsMonotonic(t *testing.T) {
	reader := &MockLevelReader{Levels: []bool{true}}
	a := NewAdapter(reader, DefaultConfig())

	now := time.Now()
	first, ok := a.Poll(now)
	require.True(t, ok)

	// Same wall-clock instant must still produce a later timestamp.
	second, ok := a.Poll(now)
	require.True(t, ok)
	assert.True(t, second.Timestamp.After(first.Timestamp))
}

func TestSimulatedReaderCycle(t *testing.T) {
	s := &SimulatedReader{OnFor: 20 * time.Millisecond, OffFor: 20 * time.Millisecond}

	level, err := s.ReadLevel()
	require.NoError(t, err)
	assert.True(t, level, "cycle starts active")

	time.Sleep(25 * time.Millisecond)
	level, err = s.ReadLevel()
	require.NoError(t, err)
	assert.False(t, level, "cycle goes inactive after OnFor")
}

func TestAdapterDefaultsAppliedForZeroInterval(t *testing.T) {
	a := NewAdapter(&MockLevelReader{}, Config{})
	assert.Equal(t, DefaultConfig().PollInterval, a.cfg.PollInterval)
}
