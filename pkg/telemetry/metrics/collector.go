// Package metrics registers and records the Prometheus metrics emitted by
// the decision pipeline: decision counts, rule hits, audit append latency,
// compliance check outcomes, and LM call latency.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Phase labels which pipeline check produced a decision.
type Phase string

const (
	PhasePre  Phase = "pre"
	PhasePost Phase = "post"
)

// Collector owns the pipeline's metric instruments. A nil *Collector is a
// valid no-op recorder, so callers never need to guard their calls.
type Collector struct {
	decisionsTotal   *prometheus.CounterVec
	ruleHitsTotal    *prometheus.CounterVec
	appendDuration   prometheus.Histogram
	appendFailures   prometheus.Counter
	complianceChecks *prometheus.CounterVec
	llmDuration      *prometheus.HistogramVec
}

// NewCollector creates and registers the pipeline metrics with the given
// registry. A nil registry uses a fresh one.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		decisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mizan",
				Subsystem: "core",
				Name:      "decisions_total",
				Help:      "Total decisions by pipeline phase and result",
			},
			[]string{"phase", "result"},
		),

		ruleHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mizan",
				Subsystem: "core",
				Name:      "rule_hits_total",
				Help:      "Number of times each rule matched",
			},
			[]string{"rule_id"},
		),

		appendDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "mizan",
				Subsystem: "core",
				Name:      "audit_append_duration_seconds",
				Help:      "Duration of audit log appends in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 2, 14), // 10µs to ~80ms
			},
		),

		appendFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "mizan",
				Subsystem: "core",
				Name:      "audit_append_failures_total",
				Help:      "Journal writes that failed and degraded the audit log",
			},
		),

		complianceChecks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mizan",
				Subsystem: "core",
				Name:      "compliance_checks_total",
				Help:      "Compliance checks by framework and status",
			},
			[]string{"framework", "status"},
		),

		llmDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "mizan",
				Subsystem: "core",
				Name:      "llm_request_duration_seconds",
				Help:      "LM completion latency in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
			},
			[]string{"outcome"},
		),
	}

	registry.MustRegister(
		c.decisionsTotal,
		c.ruleHitsTotal,
		c.appendDuration,
		c.appendFailures,
		c.complianceChecks,
		c.llmDuration,
	)
	return c
}

// RecordDecision counts a decision by phase and result.
func (c *Collector) RecordDecision(phase Phase, result string) {
	if c == nil {
		return
	}
	c.decisionsTotal.WithLabelValues(string(phase), result).Inc()
}

// RecordRuleHit counts a rule match.
func (c *Collector) RecordRuleHit(ruleID string) {
	if c == nil {
		return
	}
	c.ruleHitsTotal.WithLabelValues(ruleID).Inc()
}

// RecordAppend observes an audit append.
func (c *Collector) RecordAppend(d time.Duration, degraded bool) {
	if c == nil {
		return
	}
	c.appendDuration.Observe(d.Seconds())
	if degraded {
		c.appendFailures.Inc()
	}
}

// RecordComplianceCheck counts one compliance check outcome.
func (c *Collector) RecordComplianceCheck(framework, status string) {
	if c == nil {
		return
	}
	c.complianceChecks.WithLabelValues(framework, status).Inc()
}

// RecordLLM observes an LM completion.
func (c *Collector) RecordLLM(outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.llmDuration.WithLabelValues(outcome).Observe(d.Seconds())
}
