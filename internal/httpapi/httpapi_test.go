package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/srec-dev/srec-go/internal/runregistry"
)

func TestHealthzReportsActiveRuns(t *testing.T) {
	reg := runregistry.New()
	reg.Start("run-1", "https://example.invalid/live.m3u8", "mesio-hls")

	s := NewServer(DefaultConfig(), reg, "test-version")

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body.ActiveRuns != 1 {
		t.Fatalf("expected 1 active run, got %d", body.ActiveRuns)
	}
	if body.Version != "test-version" {
		t.Fatalf("expected version echoed back, got %q", body.Version)
	}
}

func TestGetRunNotFound(t *testing.T) {
	s := NewServer(DefaultConfig(), runregistry.New(), "")

	req := httptest.NewRequest(http.MethodGet, "/runs/missing", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetRunReturnsSnapshot(t *testing.T) {
	reg := runregistry.New()
	reg.Start("run-2", "https://example.invalid/live.m3u8", "mesio-flv")
	reg.Update("run-2", func(r *runregistry.Run) {
		r.Status = runregistry.StatusRunning
		r.Segments = 3
	})

	s := NewServer(DefaultConfig(), reg, "")

	req := httptest.NewRequest(http.MethodGet, "/runs/run-2", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var run runregistry.Run
	if err := json.Unmarshal(rec.Body.Bytes(), &run); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if run.Status != runregistry.StatusRunning || run.Segments != 3 {
		t.Fatalf("unexpected run snapshot: %+v", run)
	}
}

func TestMetricsEndpointServesPrometheusFormat(t *testing.T) {
	s := NewServer(DefaultConfig(), runregistry.New(), "")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	ct := rec.Header().Get("Content-Type")
	if ct == "" {
		t.Fatal("expected a Content-Type header from promhttp.Handler")
	}
}
