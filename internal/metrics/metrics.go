// Package metrics exposes daemon counters in Prometheus format. A nil
// *ServiceMetrics is valid and records nothing, so libraries can take one
// optionally.
package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "saga"

type ServiceMetrics struct {
	registry      *prometheus.Registry
	errors        *prometheus.CounterVec
	opDuration    *prometheus.HistogramVec
	opErrors      *prometheus.CounterVec
	gateDecisions *prometheus.CounterVec
	gateRules     *prometheus.CounterVec
	verifications *prometheus.CounterVec
	rateLimited   *prometheus.CounterVec
}

// New registers the collectors on a private registry.
func New() *ServiceMetrics {
	m := &ServiceMetrics{
		registry: prometheus.NewRegistry(),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Service errors by category.",
		}, []string{"category"}),
		opDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Latency of service operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		opErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_errors_total",
			Help:      "Failed service operations.",
		}, []string{"operation"}),
		gateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_decisions_total",
			Help:      "Gate decisions by outcome and first failing rule type.",
		}, []string{"outcome", "rule_type"}),
		gateRules: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_rule_evaluations_total",
			Help:      "Individual rule evaluations by type and result.",
		}, []string{"rule_type", "result"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "action_verifications_total",
			Help:      "Signed action verifications by kind and result.",
		}, []string{"kind", "result"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}, []string{"route"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		m.errors,
		m.opDuration,
		m.opErrors,
		m.gateDecisions,
		m.gateRules,
		m.verifications,
		m.rateLimited,
	)
	return m
}

func (m *ServiceMetrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the private registry. A nil receiver serves 404.
func (m *ServiceMetrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *ServiceMetrics) RecordError(category string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(label(category)).Inc()
}

func (m *ServiceMetrics) RecordOp(operation string, started time.Time) {
	if m == nil {
		return
	}
	m.opDuration.WithLabelValues(label(operation)).Observe(time.Since(started).Seconds())
}

func (m *ServiceMetrics) RecordOpError(operation string) {
	if m == nil {
		return
	}
	m.opErrors.WithLabelValues(label(operation)).Inc()
}

func (m *ServiceMetrics) RecordGateDecision(admitted bool, ruleType string) {
	if m == nil {
		return
	}
	outcome := "denied"
	if admitted {
		outcome = "admitted"
		ruleType = ""
	}
	m.gateDecisions.WithLabelValues(outcome, label(ruleType)).Inc()
}

func (m *ServiceMetrics) RecordGateRule(ruleType string, passed bool) {
	if m == nil {
		return
	}
	m.gateRules.WithLabelValues(label(ruleType), result(passed)).Inc()
}

func (m *ServiceMetrics) RecordVerification(kind string, valid bool) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(label(kind), result(valid)).Inc()
}

func (m *ServiceMetrics) RecordRateLimited(route string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(label(route)).Inc()
}

func label(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "none"
	}
	return v
}

func result(ok bool) string {
	if ok {
		return "pass"
	}
	return "fail"
}
