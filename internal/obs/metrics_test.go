package obs

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInstrumentLabelsByRoutePattern(t *testing.T) {
	m := NewMetrics()
	r := chi.NewRouter()
	r.Use(m.Instrument)
	r.Get("/admin/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/"+id, nil))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	if got := testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/admin/{id}", "418")); got != 3 {
		t.Fatalf("expected 3 requests on route pattern, got %v", got)
	}
	if got := testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "unmatched", "404")); got != 1 {
		t.Fatalf("expected 1 unmatched request, got %v", got)
	}
	if got := testutil.ToFloat64(m.httpInFlight); got != 0 {
		t.Fatalf("in-flight gauge should return to zero, got %v", got)
	}
}

func TestDomainCounters(t *testing.T) {
	m := NewMetrics()
	m.ObserveVerification("success")
	m.ObserveVerification("mismatch")
	m.ObserveVerification("mismatch")
	m.ErrorRendered("CONFLICT")
	m.ObserveHash(20 * time.Millisecond)

	if got := testutil.ToFloat64(m.verifications.WithLabelValues("mismatch")); got != 2 {
		t.Fatalf("mismatch count = %v", got)
	}
	if got := testutil.ToFloat64(m.httpErrorsTotal.WithLabelValues("CONFLICT")); got != 1 {
		t.Fatalf("conflict count = %v", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, name := range []string{"build_info", "password_hash_seconds", "credential_verifications_total"} {
		if !strings.Contains(body, name) {
			t.Fatalf("metrics output missing %s", name)
		}
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]string{"debug": "DEBUG", "WARN": "WARN", "error": "ERROR", "": "INFO", "bogus": "INFO"}
	for in, want := range cases {
		if got := ParseLevel(in).String(); got != want {
			t.Fatalf("ParseLevel(%q)=%s, want %s", in, got, want)
		}
	}
}
