package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/floodline/hazard-etl/internal/adapter/http"
	"github.com/floodline/hazard-etl/internal/domain"
	"github.com/floodline/hazard-etl/internal/tracker"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, readyErr error) (*httpadapter.Server, *tracker.Tracker) {
	t.Helper()
	tr := tracker.New(tracker.NewMemoryStore())
	clock := clockwork.NewFakeClockAt(time.Date(2015, 7, 23, 12, 0, 0, 0, time.UTC))
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, tr, clock, testLogger()), tr
}

func TestHealthzReturns200(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv, _ := newTestServer(t, fmt.Errorf("not ready yet"))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "not ready yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestEventsListsActiveOnly(t *testing.T) {
	srv, tr := newTestServer(t, nil)

	seen := time.Date(2015, 7, 23, 3, 0, 0, 0, time.UTC)
	active := domain.VtecEvent{
		Action: domain.ActionContinue, RawAction: "CON",
		Office: "KSGF", Phenomena: "FF", Significance: "W", ETN: 71,
		Begin: domain.EventInstant{Open: true},
		End:   domain.EventInstant{Time: time.Date(2015, 7, 23, 15, 0, 0, 0, time.UTC)},
	}
	_, err := tr.Apply(context.Background(), "p1", active, seen)
	require.NoError(t, err)

	lapsed := active
	lapsed.ETN = 70
	lapsed.End = domain.EventInstant{Time: time.Date(2015, 7, 22, 0, 0, 0, 0, time.UTC)}
	_, err = tr.Apply(context.Background(), "p2", lapsed, seen)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count  int                  `json:"count"`
		Events []tracker.EventState `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, 71, body.Events[0].Key.ETN)
}

func TestEventsDisabled(t *testing.T) {
	srv := httpadapter.NewServer(":0", &mockReadiness{}, nil, nil, testLogger())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/events", nil)

	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
