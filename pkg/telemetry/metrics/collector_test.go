package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewCollector(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewCollector(registry)

	if collector == nil {
		t.Fatal("expected non-nil collector")
	}

	// Vec instruments only gather once a label set exists; record through
	// each instrument so every family shows up.
	collector.RecordDecision(PhasePre, "APPROVED")
	collector.RecordRuleHit("r1")
	collector.RecordAppend(time.Millisecond, true)
	collector.RecordComplianceCheck("PDPL", "COMPLIANT")
	collector.RecordLLM("ok", time.Second)

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	if len(families) != 6 {
		t.Errorf("gathered %d metric families, want 6", len(families))
	}
}

func TestCollector_RecordDecision(t *testing.T) {
	collector := NewCollector(prometheus.NewRegistry())

	tests := []struct {
		name   string
		phase  Phase
		result string
		times  int
	}{
		{"pre approvals", PhasePre, "APPROVED", 3},
		{"pre rejections", PhasePre, "REJECTED", 1},
		{"post reviews", PhasePost, "REVIEW", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < tt.times; i++ {
				collector.RecordDecision(tt.phase, tt.result)
			}

			count := testutil.ToFloat64(
				collector.decisionsTotal.WithLabelValues(string(tt.phase), tt.result))
			if int(count) != tt.times {
				t.Errorf("decisions_total{%s,%s} = %v, want %d",
					tt.phase, tt.result, count, tt.times)
			}
		})
	}
}

func TestCollector_RecordRuleHit(t *testing.T) {
	collector := NewCollector(prometheus.NewRegistry())

	collector.RecordRuleHit("risk-gate")
	collector.RecordRuleHit("risk-gate")

	count := testutil.ToFloat64(collector.ruleHitsTotal.WithLabelValues("risk-gate"))
	if count != 2 {
		t.Errorf("rule_hits_total{risk-gate} = %v, want 2", count)
	}
}

func TestCollector_RecordAppend(t *testing.T) {
	collector := NewCollector(prometheus.NewRegistry())

	collector.RecordAppend(time.Millisecond, false)
	collector.RecordAppend(time.Millisecond, true)

	failures := testutil.ToFloat64(collector.appendFailures)
	if failures != 1 {
		t.Errorf("append_failures_total = %v, want 1", failures)
	}

	if got := testutil.CollectAndCount(collector.appendDuration); got != 1 {
		t.Errorf("append duration histogram metrics = %d, want 1", got)
	}
}

func TestCollector_RecordComplianceCheck(t *testing.T) {
	collector := NewCollector(prometheus.NewRegistry())

	collector.RecordComplianceCheck("PDPL", "COMPLIANT")
	collector.RecordComplianceCheck("PDPL", "NON_COMPLIANT")
	collector.RecordComplianceCheck("NESA", "COMPLIANT")

	count := testutil.ToFloat64(collector.complianceChecks.WithLabelValues("PDPL", "COMPLIANT"))
	if count != 1 {
		t.Errorf("compliance_checks_total{PDPL,COMPLIANT} = %v, want 1", count)
	}
	count = testutil.ToFloat64(collector.complianceChecks.WithLabelValues("PDPL", "NON_COMPLIANT"))
	if count != 1 {
		t.Errorf("compliance_checks_total{PDPL,NON_COMPLIANT} = %v, want 1", count)
	}
}

func TestCollector_NilIsNoop(t *testing.T) {
	// A nil collector must absorb every call without panicking; the
	// pipeline relies on this when metrics are disabled.
	var collector *Collector

	collector.RecordDecision(PhasePre, "APPROVED")
	collector.RecordRuleHit("r1")
	collector.RecordAppend(time.Millisecond, true)
	collector.RecordComplianceCheck("PDPL", "COMPLIANT")
	collector.RecordLLM("ok", time.Second)
}
