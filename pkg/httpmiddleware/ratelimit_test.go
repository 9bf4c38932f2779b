package httpmiddleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serve(h http.Handler, prepare func(r *http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/orders/price", nil)
	if prepare != nil {
		prepare(req)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func fromAddr(addr string) func(*http.Request) {
	return func(r *http.Request) { r.RemoteAddr = addr }
}

func TestRateLimit_UnderAndOverLimit(t *testing.T) {
	h := RateLimit(RateLimitConfig{Max: 3, Window: time.Minute})(okHandler())

	for i := range 3 {
		w := serve(h, fromAddr("10.0.0.1:1000"))
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
		assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	}

	w := serve(h, fromAddr("10.0.0.1:2000"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(429), body["code"])
	assert.Equal(t, "rate limit exceeded", body["message"])

	// Another client has its own budget.
	assert.Equal(t, http.StatusOK, serve(h, fromAddr("10.0.0.2:1000")).Code)
}

func TestRateLimit_KeyFunc(t *testing.T) {
	h := RateLimit(RateLimitConfig{
		Max:     1,
		Window:  time.Minute,
		KeyFunc: func(r *http.Request) string { return r.Header.Get("X-Client") },
	})(okHandler())
	client := func(name string) func(*http.Request) {
		return func(r *http.Request) { r.Header.Set("X-Client", name) }
	}

	assert.Equal(t, http.StatusOK, serve(h, client("a")).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(h, client("a")).Code)
	assert.Equal(t, http.StatusOK, serve(h, client("b")).Code)
}

func TestRateLimit_ForwardedFor(t *testing.T) {
	h := RateLimit(RateLimitConfig{Max: 1, Window: time.Minute})(okHandler())
	forwarded := func(remote string) func(*http.Request) {
		return func(r *http.Request) {
			r.RemoteAddr = remote
			r.Header.Set("X-Forwarded-For", "203.0.113.50, 70.41.3.18")
		}
	}

	assert.Equal(t, http.StatusOK, serve(h, forwarded("192.168.1.1:1")).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(h, forwarded("192.168.1.2:2")).Code)
}

func TestLimiter_SlidingWindow(t *testing.T) {
	l := newLimiter(RateLimitConfig{Max: 4, Window: time.Minute})
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for range 4 {
		_, _, ok := l.take("k", start)
		require.True(t, ok)
	}
	_, reset, ok := l.take("k", start.Add(30*time.Second))
	assert.False(t, ok)
	assert.Equal(t, start.Add(time.Minute), reset)

	// A quarter into the next window, 3/4 of the previous 4 still count.
	remaining, _, ok := l.take("k", start.Add(75*time.Second))
	assert.True(t, ok)
	assert.Equal(t, 0, remaining)
	_, _, ok = l.take("k", start.Add(75*time.Second))
	assert.False(t, ok)

	// After two idle windows the client starts fresh and can be evicted.
	remaining, _, ok = l.take("k", start.Add(5*time.Minute))
	assert.True(t, ok)
	assert.Equal(t, 3, remaining)

	l.evict(start.Add(10 * time.Minute))
	assert.Empty(t, l.clients)
}
