package slogx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func captureLogger(t *testing.T) (*bytes.Buffer, func(http.Handler) http.Handler) {
	t.Helper()
	var buf bytes.Buffer
	logger := New(Config{Service: "test", Env: "test", Level: "debug", Format: "json", Output: &buf})
	return &buf, HTTPMiddleware(logger)
}

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

func TestHTTPMiddlewareRequestID(t *testing.T) {
	buf, mw := captureLogger(t)

	var seen string
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
		require.NotSame(t, FromContext(context.Background()), FromContext(r.Context()))
	}))

	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, "abc-123", seen)
	require.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))

	entry := lastLine(t, buf)
	require.Equal(t, "http_request", entry["msg"])
	require.Equal(t, "abc-123", entry["req_id"])
	require.Equal(t, "INFO", entry["level"])

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/home", nil))
	require.NotEmpty(t, seen)
	require.NotEqual(t, "abc-123", seen)
}

func TestHTTPMiddlewareLevels(t *testing.T) {
	tests := []struct {
		path   string
		status int
		level  string
	}{
		{"/livez", http.StatusOK, "DEBUG"},
		{"/login", http.StatusTooManyRequests, "WARN"},
		{"/admin", http.StatusForbidden, "WARN"},
		{"/signup", http.StatusInternalServerError, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			buf, mw := captureLogger(t)
			h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

			entry := lastLine(t, buf)
			require.Equal(t, tt.level, entry["level"])
			require.EqualValues(t, tt.status, entry["status"])
		})
	}
}

func TestHTTPMiddlewareLogsRedirectTarget(t *testing.T) {
	buf, mw := captureLogger(t)
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login?error=x", http.StatusFound)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/home", nil))

	require.Equal(t, "/login?error=x", lastLine(t, buf)["location"])
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	require.NotNil(t, FromContext(context.Background()))
	require.Empty(t, RequestID(context.Background()))
}
