package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"gymcrm/internal/adapters/http/perf"
)

func newTimedRouter(metrics *perf.Metrics, status int) *mux.Router {
	r := mux.NewRouter()
	r.Use(Timing(metrics))
	r.HandleFunc("/api/clients/{id}/membership", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	})
	return r
}

// TestTimingMiddleware_ObservesRouteTemplate verifies requests are labelled by route template.
func TestTimingMiddleware_ObservesRouteTemplate(t *testing.T) {
	metrics := perf.New()
	router := newTimedRouter(metrics, http.StatusOK)

	for _, id := range []string{"1", "2", "3"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/clients/"+id+"/membership", nil))
	}

	n, err := testutil.GatherAndCount(metrics.Registry(), "gymcrm_http_request_duration_seconds")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if n != 1 {
		t.Errorf("series = %d, want 1 (one route template)", n)
	}
}

// TestTimingMiddleware_CapturesStatusCode verifies the status code is passed through.
func TestTimingMiddleware_CapturesStatusCode(t *testing.T) {
	metrics := perf.New()
	router := newTimedRouter(metrics, http.StatusNotFound)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/clients/9/membership", nil))

	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

// TestTimingMiddleware_NilMetrics verifies middleware works without metrics.
func TestTimingMiddleware_NilMetrics(t *testing.T) {
	router := newTimedRouter(nil, http.StatusOK)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/clients/1/membership", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}

// TestStatusWriter_CapturesCode verifies the wrapper records WriteHeader.
func TestStatusWriter_CapturesCode(t *testing.T) {
	rr := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rr, status: http.StatusOK}
	sw.WriteHeader(http.StatusTeapot)
	if sw.status != http.StatusTeapot || rr.Code != http.StatusTeapot {
		t.Errorf("status = %d/%d, want 418", sw.status, rr.Code)
	}
}

// BenchmarkTimingMiddleware measures per-request overhead.
func BenchmarkTimingMiddleware(b *testing.B) {
	router := newTimedRouter(perf.New(), http.StatusOK)
	req := httptest.NewRequest("GET", "/api/clients/1/membership", nil)
	b.ReportAllocs()
	for b.Loop() {
		router.ServeHTTP(httptest.NewRecorder(), req)
	}
}
