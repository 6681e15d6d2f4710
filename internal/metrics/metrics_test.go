package metrics_test

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Paintersrp/procwarden/internal/metrics"
)

func scrape(t *testing.T) string {
	t.Helper()
	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}).ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("unexpected status code from metrics handler: %d", rec.Code)
	}
	return rec.Body.String()
}

func TestRegistryExposesMetrics(t *testing.T) {
	metrics.EmitBuildInfo()
	metrics.ChildSpawned("metrics_test")
	metrics.ChildExited("metrics_test", 0, 10*time.Millisecond)
	metrics.ChildExited("metrics_test", 3, 10*time.Millisecond)
	metrics.StreamFailed("metrics_test")
	metrics.SetOutstanding(2)
	metrics.InterruptObserved()

	body := scrape(t)

	for _, line := range []string{
		`procwarden_children_spawned_total{mode="metrics_test"} 1`,
		`procwarden_child_exit_total{mode="metrics_test",result="success"} 1`,
		`procwarden_child_exit_total{mode="metrics_test",result="failure"} 1`,
		`procwarden_child_exit_total{mode="metrics_test",result="stream_error"} 1`,
		`procwarden_child_duration_seconds_count{mode="metrics_test"} 2`,
		`procwarden_children_outstanding 2`,
		`procwarden_build_info{`,
		`go_version=`,
	} {
		if !strings.Contains(body, line) {
			t.Fatalf("expected %q in metrics body:\n%s", line, body)
		}
	}
}

func TestSetOutstandingClampsNegative(t *testing.T) {
	metrics.SetOutstanding(-5)
	if body := scrape(t); !strings.Contains(body, "procwarden_children_outstanding 0") {
		t.Fatalf("expected outstanding gauge clamped to zero:\n%s", body)
	}
}

func TestWriteTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "procwarden.prom")
	metrics.ChildSpawned("textfile_test")

	if err := metrics.WriteTextfile(path); err != nil {
		t.Fatalf("write textfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(data), `procwarden_children_spawned_total{mode="textfile_test"} 1`) {
		t.Fatalf("expected spawn counter in textfile:\n%s", data)
	}
}
