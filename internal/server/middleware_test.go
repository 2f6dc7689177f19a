package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCORSMiddleware_Headers(t *testing.T) {
	s := newTestServer(t, &fakePipeline{})

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	s := newTestServer(t, &fakePipeline{})

	rec := doRequest(s, httptest.NewRequest(http.MethodOptions, "/api/v1/process-image", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Max-Age"))
}

func TestRateLimitMiddleware_Enforced(t *testing.T) {
	s := newTestServer(t, &fakePipeline{})
	s.rateLimiter = NewRateLimiter(2, 0)

	for i := 0; i < 2; i++ {
		rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/v1/process-image", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, "request %d should pass the limiter", i)
	}

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/v1/process-image", nil))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "rate_limit_exceeded")
}

func TestRateLimitMiddleware_PerClient(t *testing.T) {
	s := newTestServer(t, &fakePipeline{})
	s.rateLimiter = NewRateLimiter(1, 0)

	reqA := httptest.NewRequest(http.MethodGet, "/api/v1/process-image", nil)
	reqA.Header.Set("X-Forwarded-For", "10.0.0.1")
	reqB := httptest.NewRequest(http.MethodGet, "/api/v1/process-image", nil)
	reqB.Header.Set("X-Forwarded-For", "10.0.0.2")

	assert.Equal(t, http.StatusMethodNotAllowed, doRequest(s, reqA).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, doRequest(s, reqB).Code,
		"a second client must not be throttled by the first")
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded single", map[string]string{"X-Forwarded-For": "1.2.3.4"}, "9.9.9.9:1234", "1.2.3.4"},
		{"forwarded chain", map[string]string{"X-Forwarded-For": "1.2.3.4, 5.6.7.8"}, "9.9.9.9:1234", "1.2.3.4"},
		{"real ip", map[string]string{"X-Real-IP": "2.3.4.5"}, "9.9.9.9:1234", "2.3.4.5"},
		{"remote addr", nil, "9.9.9.9:1234", "9.9.9.9"},
		{"remote addr without port", nil, "9.9.9.9", "9.9.9.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(r))
		})
	}
}
