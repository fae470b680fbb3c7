package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestCORSReflectsOrigin(t *testing.T) {
	h := CORS(nil)(okHandler)
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Origin", "https://play.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://play.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", rec.Header().Get("Vary"))
}

func TestCORSPreflightShortCircuits(t *testing.T) {
	called := false
	h := CORS([]string{"https://ok.example"})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://ok.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, called)

	req = httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimitPerClient(t *testing.T) {
	rl := NewIPRateLimiter(rate.Every(time.Hour), 2)
	h := RateLimit(rl, nil)(okHandler)

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = ip + ":5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusNoContent, do("10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, do("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, do("10.0.0.2"))
}

func TestSweepDropsIdleBuckets(t *testing.T) {
	rl := NewIPRateLimiter(rate.Inf, 1)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	rl.Allow("a")
	now = now.Add(limiterIdleTTL + time.Second)
	rl.Allow("b")
	rl.Sweep()
	assert.Equal(t, 1, rl.Len())
}

func TestClientIP(t *testing.T) {
	trusted, err := ParseTrustedProxies([]string{"192.0.2.0/24"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", ClientIP(req, trusted))

	req.Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", ClientIP(req, trusted))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", ClientIP(req, trusted))
}

func TestClientIPIgnoresHeadersFromUntrustedPeers(t *testing.T) {
	trusted, err := ParseTrustedProxies([]string{"10.1.1.1"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	req.Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "192.0.2.1", ClientIP(req, trusted))
	assert.Equal(t, "192.0.2.1", ClientIP(req, nil))
}

func TestRateLimitIgnoresRotatingForwardedHeaders(t *testing.T) {
	rl := NewIPRateLimiter(rate.Every(time.Hour), 1)
	h := RateLimit(rl, nil)(okHandler)

	codes := make([]int, 0, 3)
	for _, fwd := range []string{"203.0.113.1", "203.0.113.2", "203.0.113.3"} {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "192.0.2.1:5555"
		req.Header.Set("X-Forwarded-For", fwd)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
	assert.Equal(t, 1, rl.Len())
}

func TestParseTrustedProxies(t *testing.T) {
	trusted, err := ParseTrustedProxies([]string{" 10.0.0.0/8 ", "", "::1"})
	require.NoError(t, err)
	assert.Len(t, trusted, 2)
	assert.True(t, trusted.Contains("10.20.30.40"))
	assert.True(t, trusted.Contains("::1"))
	assert.False(t, trusted.Contains("11.0.0.1"))
	assert.False(t, trusted.Contains("not-an-ip"))

	_, err = ParseTrustedProxies([]string{"10.0.0.0/99"})
	require.Error(t, err)
	_, err = ParseTrustedProxies([]string{"proxy.internal"})
	require.Error(t, err)
}
