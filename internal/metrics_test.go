package internal

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func scrape(t *testing.T, metrics *Metrics) string {
	t.Helper()
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 from /metrics, got %d", w.Code)
	}
	return w.Body.String()
}

func TestMetricsEndpoint(t *testing.T) {
	metrics := NewMetrics()

	router := chi.NewRouter()
	router.Use(metrics.Middleware())
	router.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})
	router.Get("/metrics", metrics.Handler().ServeHTTP)

	testReq := httptest.NewRequest("GET", "/ping", nil)
	testW := httptest.NewRecorder()
	router.ServeHTTP(testW, testReq)

	if testW.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", testW.Code)
	}
	if testW.Body.String() != "pong" {
		t.Errorf("Expected body 'pong', got '%s'", testW.Body.String())
	}

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	body := w.Body.String()
	for _, metric := range []string{"http_requests_total", "http_request_duration_seconds"} {
		if !strings.Contains(body, metric) {
			t.Errorf("Expected metric '%s' not found in response", metric)
		}
	}
	if !strings.Contains(body, `path="/ping"`) {
		t.Error("Expected metrics to contain path label for /ping endpoint")
	}
	if !strings.Contains(body, `status="200"`) {
		t.Error("Expected numeric status label")
	}
}

func TestMetricsMiddleware_ImplicitStatus(t *testing.T) {
	metrics := NewMetrics()

	router := chi.NewRouter()
	router.Use(metrics.Middleware())
	router.Get("/test", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("test response"))
	})
	router.Get("/teapot", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusInternalServerError)
	})

	for _, path := range []string{"/test", "/teapot"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, nil))
	}

	body := scrape(t, metrics)
	if !strings.Contains(body, `http_requests_total{method="GET",path="/test",status="200"} 1`) {
		t.Errorf("Expected implicit 200 for /test, got:\n%s", body)
	}
	if !strings.Contains(body, `http_requests_total{method="GET",path="/teapot",status="418"} 1`) {
		t.Errorf("Expected first written status for /teapot, got:\n%s", body)
	}
}

func TestMetricsWithChiRoutePatterns(t *testing.T) {
	metrics := NewMetrics()
	router := chi.NewRouter()
	router.Use(metrics.Middleware())
	router.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/items/123", nil))

	body := scrape(t, metrics)
	if !strings.Contains(body, `path="/items/{id}"`) {
		t.Error("Expected metrics to contain Chi route pattern, not actual path")
	}
	if strings.Contains(body, `path="/items/123"`) {
		t.Error("Raw path must not be used as a label")
	}
}

func TestMetricsRecorder(t *testing.T) {
	metrics := NewMetrics()

	metrics.Entry("Computer", true)
	metrics.Entry("Computer", false)
	metrics.Entry("Monitor", true)
	metrics.Resolution("serial", true)
	metrics.Resolution("secondary", false)
	metrics.UpstreamFailure("search")
	metrics.UpstreamFailure("search")

	body := scrape(t, metrics)
	expected := []string{
		`intake_entries_total{item_type="Computer",outcome="created"} 1`,
		`intake_entries_total{item_type="Computer",outcome="updated"} 1`,
		`intake_entries_total{item_type="Monitor",outcome="created"} 1`,
		`intake_resolutions_total{kind="serial",result="found"} 1`,
		`intake_resolutions_total{kind="secondary",result="not_found"} 1`,
		`intake_upstream_failures_total{operation="search"} 2`,
	}
	for _, line := range expected {
		if !strings.Contains(body, line) {
			t.Errorf("Expected %q in metrics output", line)
		}
	}
}

func TestMetricsRegistriesAreIndependent(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.UpstreamFailure("create")

	if strings.Contains(scrape(t, b), `intake_upstream_failures_total{operation="create"}`) {
		t.Error("Metrics instances must not share a registry")
	}
}
