package ratelimit

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unicred/pkg/requestcontext"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func doRequest(handler http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/vc/verify", nil)
	req = req.WithContext(requestcontext.WithClientMetadata(req.Context(), ip, "", ""))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestLimiterBlocksBeyondLimit(t *testing.T) {
	limiter := New(3, time.Minute, discardLogger())
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		rec := doRequest(handler, "203.0.113.7")
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}

	rec := doRequest(handler, "203.0.113.7")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	t.Run("other clients are unaffected", func(t *testing.T) {
		rec := doRequest(handler, "198.51.100.3")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestLimiterWindowResets(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	limiter := New(1, time.Minute, discardLogger(), WithClock(func() time.Time { return now }))
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	require.Equal(t, http.StatusOK, doRequest(handler, "203.0.113.7").Code)
	require.Equal(t, http.StatusTooManyRequests, doRequest(handler, "203.0.113.7").Code)

	now = now.Add(61 * time.Second)
	assert.Equal(t, http.StatusOK, doRequest(handler, "203.0.113.7").Code)
}
