package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Darkatse/StatusHub/internal/domain/entity"
	"github.com/Darkatse/StatusHub/internal/ports/in"
)

type stubTracker struct {
	snapshot in.PresenceSnapshot
}

func (s *stubTracker) Observe(context.Context, entity.PresenceObservation) *entity.NotificationEvent {
	return nil
}

func (s *stubTracker) CollectReminder(time.Time) *entity.NotificationEvent { return nil }

func (s *stubTracker) Snapshot() in.PresenceSnapshot { return s.snapshot }

func newTestServer(snapshot in.PresenceSnapshot) *Server {
	return NewServer("127.0.0.1:0", &stubTracker{snapshot: snapshot})
}

func TestHealthz(t *testing.T) {
	server := newTestServer(in.PresenceSnapshot{})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestPresenceSnapshot(t *testing.T) {
	server := newTestServer(in.PresenceSnapshot{
		Known:          true,
		Status:         entity.StatusOnline,
		AnchorKey:      "playing:online",
		AnchorSequence: 2,
	})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/presence", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var snapshot in.PresenceSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	assert.True(t, snapshot.Known)
	assert.Equal(t, entity.StatusOnline, snapshot.Status)
	assert.Equal(t, "playing:online", snapshot.AnchorKey)
	assert.Equal(t, int64(2), snapshot.AnchorSequence)
}

func TestSetLogLevel(t *testing.T) {
	server := newTestServer(in.PresenceSnapshot{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/log/level", strings.NewReader(`{"level":"debug"}`))
	req.Header.Set("Content-Type", "application/json")
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"level":"debug"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/log/level", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	server := newTestServer(in.PresenceSnapshot{})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
