package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.IncOutcome("pin_send", "OTP_SENT")
	m.IncOutcome("pin_send", "OTP_SENT")
	m.IncHoldback("INVALID_PIN")
	m.IncFallback("sibling")
	m.IncAdaptiveOverride()
	m.ObserveHTTP("POST", "/api/v1/pin/send", 200, 10*time.Millisecond)

	if got := testutil.ToFloat64(m.pinOutcomes.WithLabelValues("pin_send", "OTP_SENT")); got != 2 {
		t.Fatalf("outcomes=%v", got)
	}
	if got := testutil.ToFloat64(m.holdbacks.WithLabelValues("INVALID_PIN")); got != 1 {
		t.Fatalf("holdbacks=%v", got)
	}
	if got := testutil.ToFloat64(m.adaptiveOverrides); got != 1 {
		t.Fatalf("overrides=%v", got)
	}
	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/api/v1/pin/send", "200")); got != 1 {
		t.Fatalf("http requests=%v", got)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.IncOutcome("pin_send", "FAILED")
	m.ObserveHTTP("GET", "", 500, time.Second)
	m.SetRecorderQueueDepth(3)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("nil handler code=%d", rec.Code)
	}
}

func TestMetricsHandlerExposes(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.IncOutcome("pin_verify", "SUCCESS")
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `pin_outcomes_total{status="SUCCESS",step="pin_verify"} 1`) {
		t.Fatalf("metric missing from exposition:\n%s", body)
	}
}
