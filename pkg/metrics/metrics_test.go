package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func TestRegistry(t *testing.T) {
	if Registry != prometheus.DefaultRegisterer {
		t.Error("Registry should be the default Prometheus registerer")
	}
	if Gatherer != prometheus.DefaultGatherer {
		t.Error("Gatherer should be the default Prometheus gatherer")
	}
}

func TestHandler(t *testing.T) {
	probe := promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Name: "dictcrawl_metrics_handler_probe_total",
		Help: "Registered by TestHandler",
	})
	probe.Add(3)

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	out := string(body)
	if !strings.Contains(out, "# HELP") || !strings.Contains(out, "# TYPE") {
		t.Error("expected Prometheus text format output")
	}
	if !strings.Contains(out, "dictcrawl_metrics_handler_probe_total 3") {
		t.Errorf("probe counter missing from output:\n%s", out)
	}
}
