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

func limitedGet(handler http.Handler, remoteAddr string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestRateLimit_UnderLimit(t *testing.T) {
	handler := RateLimit(RateLimitConfig{Max: 5, Window: time.Minute})(okHandler())

	for i := 0; i < 5; i++ {
		w := limitedGet(handler, "192.168.1.1:12345", nil)
		assert.Equal(t, http.StatusOK, w.Code, "request %d should pass", i+1)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	}
}

func TestRateLimit_OverLimit(t *testing.T) {
	handler := RateLimit(RateLimitConfig{Max: 2, Window: time.Minute})(okHandler())

	for i := 0; i < 2; i++ {
		w := limitedGet(handler, "10.0.0.1:9999", nil)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := limitedGet(handler, "10.0.0.1:9999", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, float64(429), body["code"])
	assert.Equal(t, "rate limit exceeded", body["message"])
}

func TestRateLimit_KeysAreIndependent(t *testing.T) {
	handler := RateLimit(RateLimitConfig{Max: 1, Window: time.Minute})(okHandler())

	assert.Equal(t, http.StatusOK, limitedGet(handler, "10.0.0.1:1234", nil).Code)
	assert.Equal(t, http.StatusOK, limitedGet(handler, "10.0.0.2:1234", nil).Code)
	// Same IP, different source port: still the same key.
	assert.Equal(t, http.StatusTooManyRequests, limitedGet(handler, "10.0.0.1:5678", nil).Code)
}

func TestRateLimit_CustomKeyFunc(t *testing.T) {
	handler := RateLimit(RateLimitConfig{
		Max:    1,
		Window: time.Minute,
		KeyFunc: func(r *http.Request) string {
			return r.Header.Get("X-API-Key")
		},
	})(okHandler())

	keyA := http.Header{"X-Api-Key": []string{"key-a"}}
	keyB := http.Header{"X-Api-Key": []string{"key-b"}}

	assert.Equal(t, http.StatusOK, limitedGet(handler, "1.1.1.1:1", keyA).Code)
	assert.Equal(t, http.StatusTooManyRequests, limitedGet(handler, "2.2.2.2:2", keyA).Code)
	assert.Equal(t, http.StatusOK, limitedGet(handler, "1.1.1.1:1", keyB).Code)
}

func TestRateLimit_XForwardedFor(t *testing.T) {
	handler := RateLimit(RateLimitConfig{Max: 1, Window: time.Minute})(okHandler())
	xff := http.Header{"X-Forwarded-For": []string{"203.0.113.50, 70.41.3.18"}}

	assert.Equal(t, http.StatusOK, limitedGet(handler, "192.168.1.1:4444", xff).Code)
	// Different socket, same forwarded client: limited.
	assert.Equal(t, http.StatusTooManyRequests, limitedGet(handler, "192.168.1.2:5555", xff).Code)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		header     http.Header
		want       string
	}{
		{"socket address", "10.1.2.3:9000", nil, "10.1.2.3"},
		{"socket address without port", "10.1.2.3", nil, "10.1.2.3"},
		{"x-forwarded-for single", "10.1.2.3:9000", http.Header{"X-Forwarded-For": []string{"203.0.113.9"}}, "203.0.113.9"},
		{"x-forwarded-for chain", "10.1.2.3:9000", http.Header{"X-Forwarded-For": []string{"203.0.113.9, 10.0.0.1"}}, "203.0.113.9"},
		{"x-real-ip", "10.1.2.3:9000", http.Header{"X-Real-Ip": []string{"198.51.100.4"}}, "198.51.100.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, vs := range tt.header {
				for _, v := range vs {
					r.Header.Add(k, v)
				}
			}
			assert.Equal(t, tt.want, clientIP(r))
		})
	}
}
