package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

// TestRateLimiter_AllowRefill verifies the bucket empties and refills with time.
func TestRateLimiter_AllowRefill(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl := NewRateLimiter(ctx, 2, time.Second)
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("1.2.3.4") {
		t.Error("third request within the interval should be limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("other IPs have their own bucket")
	}
	now = now.Add(time.Second)
	if !rl.Allow("1.2.3.4") {
		t.Error("bucket should refill after the interval")
	}

	now = now.Add(10 * time.Minute)
	rl.evict(5 * time.Minute)
	if len(rl.visitors) != 0 {
		t.Errorf("stale visitors not evicted: %d left", len(rl.visitors))
	}
}

// TestRateLimit_SharesBucketAcrossPorts verifies the limit keys on host, not host:port.
func TestRateLimit_SharesBucketAcrossPorts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := RateLimit(NewRateLimiter(ctx, 1, time.Hour))(okHandler)

	codes := []int{}
	for _, addr := range []string{"10.0.0.1:1000", "10.0.0.1:2000"} {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 429]", codes)
	}
}

// TestSecurityHeaders verifies OWASP headers are set.
func TestSecurityHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	SecurityHeaders(okHandler).ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	for _, h := range []string{"Content-Security-Policy", "X-Frame-Options", "X-Content-Type-Options", "Referrer-Policy"} {
		if rr.Header().Get(h) == "" {
			t.Errorf("missing header %s", h)
		}
	}
}

// TestCSRF_ExemptsJSON verifies JSON posts pass and form posts without a token are rejected.
func TestCSRF_ExemptsJSON(t *testing.T) {
	h := CSRF([]byte(strings.Repeat("k", 32)), false, nil)(okHandler)

	req := httptest.NewRequest("POST", "/api/sync", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("JSON post: status = %d, want 200", rr.Code)
	}

	req = httptest.NewRequest("POST", "/api/sync", strings.NewReader("a=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("form post: status = %d, want 403", rr.Code)
	}
}

// TestChain_Order verifies the last middleware listed runs first.
func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	Chain(okHandler, mark("inner"), mark("outer")).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	if strings.Join(order, ",") != "outer,inner" {
		t.Errorf("order = %v", order)
	}
}
