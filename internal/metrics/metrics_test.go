package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *ServiceMetrics
	m.RecordError("network")
	m.RecordOp("gate.evaluate", time.Now())
	m.RecordOpError("gate.evaluate")
	m.RecordGateDecision(false, "TOKEN")
	m.RecordGateRule("TOKEN", false)
	m.RecordVerification("like", true)
	m.RecordRateLimited("rpc")
	if m.Registry() != nil {
		t.Fatal("nil metrics must have no registry")
	}
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 404 {
		t.Fatalf("expected 404 from nil handler, got %d", rec.Code)
	}
}

func TestCountersByLabel(t *testing.T) {
	m := New()
	m.RecordError("network")
	m.RecordError("network")
	m.RecordError("crypto")
	m.RecordGateDecision(false, "GENESIS")
	m.RecordGateDecision(true, "TOKEN")
	m.RecordVerification("like", false)

	if got := testutil.ToFloat64(m.errors.WithLabelValues("network")); got != 2 {
		t.Fatalf("expected 2 network errors, got %v", got)
	}
	if got := testutil.ToFloat64(m.gateDecisions.WithLabelValues("denied", "GENESIS")); got != 1 {
		t.Fatalf("expected 1 genesis denial, got %v", got)
	}
	if got := testutil.ToFloat64(m.gateDecisions.WithLabelValues("admitted", "none")); got != 1 {
		t.Fatalf("expected admitted decision without rule type, got %v", got)
	}
	if got := testutil.ToFloat64(m.verifications.WithLabelValues("like", "fail")); got != 1 {
		t.Fatalf("expected 1 failed like verification, got %v", got)
	}
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.RecordRateLimited("rpc")
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `saga_rate_limited_total{route="rpc"} 1`) {
		t.Fatalf("expected rate limit counter in scrape, got:\n%s", body)
	}
}
