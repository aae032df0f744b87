package http

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contas/internal/cache"
	"contas/internal/core"
	applog "contas/internal/log"
)

func newRouterFixture(t *testing.T, logBuf *bytes.Buffer, ready func() bool) (*handlerFixture, http.Handler) {
	t.Helper()
	f := &handlerFixture{
		upstream:    &fakeUpstream{snap: testSnapshot()},
		snapStore:   &fakeSnapshotStore{},
		exportStore: &fakeExportStore{},
		publisher:   &fakePublisher{},
	}
	logger := applog.New(applog.Config{
		Component: applog.ComponentHTTP,
		Handler:   slog.NewTextHandler(logBuf, nil),
	})
	svc := NewSnapshotService(f.upstream, f.snapStore, cache.NewLRUCache[core.Snapshot](4, time.Minute), logger)
	h := NewHandler(svc, f.exportStore, f.publisher, logger)
	h.now = func() core.CalendarDate { return testToday }

	router := NewRouter(h, RouterConfig{
		AllowedOrigins: []string{"http://localhost:5173"},
		Logger:         logger,
		Ready:          ready,
	}, nil)
	return f, router
}

func TestRouter_HealthAndReadiness(t *testing.T) {
	ready := true
	_, router := newRouterFixture(t, &bytes.Buffer{}, func() bool { return ready })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	ready = false
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_RequestIDAndSecurityHeaders(t *testing.T) {
	_, router := newRouterFixture(t, &bytes.Buffer{}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))

	// A caller-supplied request id is kept, not replaced.
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "caller-id")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "caller-id", rec.Header().Get("X-Request-ID"))
}

func TestRouter_HandlerLogsCarryRequestID(t *testing.T) {
	var buf bytes.Buffer
	f, router := newRouterFixture(t, &buf, nil)
	f.upstream.err = errors.New("connection refused")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/republics/7/expenses", nil)
	req.Header.Set("X-Request-ID", "req-snapshot-fail")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)

	// The handler's error line comes from the request-scoped logger, so it
	// carries the request id attached by the middleware chain.
	out := buf.String()
	assert.Contains(t, out, "failed to load snapshot")
	assert.Contains(t, out, "request_id=req-snapshot-fail")
}
