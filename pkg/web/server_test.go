package web

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/binsight/go-binsight/pkg/camera"
	"github.com/binsight/go-binsight/pkg/dispatch"
	"github.com/binsight/go-binsight/pkg/recognize"
	"github.com/binsight/go-binsight/pkg/trigger"
	"github.com/binsight/go-binsight/pkg/waste"
)

type stubPresence struct{ degraded bool }

func (s stubPresence) Degraded() bool { return s.degraded }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	coord, err := trigger.New(trigger.DefaultConfig(),
		camera.NewMockSource([]byte("frame")), nil, dispatch.New())
	require.NoError(t, err)
	return NewServer("0", coord, stubPresence{degraded: true})
}

func getJSON(t *testing.T, s *Server, path string, out any) int {
	t.Helper()
	resp, err := s.app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if out != nil {
		require.NoError(t, json.Unmarshal(body, out))
	}
	return resp.StatusCode
}

func TestStateEndpoint(t *testing.T) {
	s := newTestServer(t)

	var st Status
	require.Equal(t, 200, getJSON(t, s, "/api/state", &st))
	require.Equal(t, trigger.StateIdle, st.Trigger.State)
	require.True(t, st.PresenceDegraded)
	require.Zero(t, st.Subscribers)
}

func TestResultsEndpointAfterOutcome(t *testing.T) {
	s := newTestServer(t)

	s.HandleOutcome(dispatch.Outcome{
		RequestID:  7,
		CycleID:    uuid.New(),
		Origin:     "motion",
		Label:      "plastic_bottle",
		Category:   waste.Recyclable,
		Confidence: 0.88,
		At:         time.Now(),
	})

	var results []ResultEntry
	require.Equal(t, 200, getJSON(t, s, "/api/results", &results))
	require.Len(t, results, 1)
	require.Equal(t, uint64(7), results[0].RequestID)
	require.Equal(t, waste.Recyclable, results[0].Category)
	require.Empty(t, results[0].Error)
	require.Equal(t, waste.Recyclable, results[0].Guidance.Category)
}

func TestFailedOutcomeHidesClassification(t *testing.T) {
	s := newTestServer(t)

	s.HandleOutcome(dispatch.Outcome{
		RequestID: 3,
		CycleID:   uuid.New(),
		Origin:    "presence",
		ErrKind:   recognize.KindTimeout,
		Message:   "no result within 10s",
		At:        time.Now(),
	})

	var results []ResultEntry
	getJSON(t, s, "/api/results", &results)
	require.Len(t, results, 1)
	require.Equal(t, "no result within 10s", results[0].Error)
	require.Empty(t, results[0].Label)
	require.Equal(t, waste.Unknown, results[0].Guidance.Category)
}

func TestResultsRingCapped(t *testing.T) {
	s := newTestServer(t)

	for i := 0; i < maxResults+25; i++ {
		s.HandleOutcome(dispatch.Outcome{
			RequestID: uint64(i + 1),
			CycleID:   uuid.New(),
			At:        time.Now(),
		})
	}

	var results []ResultEntry
	getJSON(t, s, "/api/results", &results)
	require.Len(t, results, maxResults)
	// Oldest entries dropped first.
	require.Equal(t, uint64(26), results[0].RequestID)
}

func TestCategoriesEndpoint(t *testing.T) {
	s := newTestServer(t)

	var infos []waste.Info
	require.Equal(t, 200, getJSON(t, s, "/api/categories", &infos))
	require.NotEmpty(t, infos)
}

func TestOperatorCommandsAccepted(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.app.Test(httptest.NewRequest("POST", "/api/trigger", nil))
	require.NoError(t, err)
	require.Equal(t, 202, resp.StatusCode)
	resp.Body.Close()

	resp, err = s.app.Test(httptest.NewRequest("POST", "/api/stop", nil))
	require.NoError(t, err)
	require.Equal(t, 202, resp.StatusCode)
	resp.Body.Close()
}

func TestWebsocketRouteRequiresUpgrade(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.app.Test(httptest.NewRequest("GET", "/ws/events", nil))
	require.NoError(t, err)
	require.Equal(t, 426, resp.StatusCode)
	resp.Body.Close()
}
