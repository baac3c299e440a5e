package compliance

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"hisba-ai/mizan/pkg/facts"
)

// timestampLayout is ISO-8601 UTC with millisecond precision, matching the
// audit log's timestamp format.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Evaluator aggregates framework checkers into signed bilingual reports.
//
// An evaluator is immutable after construction and safe for concurrent use.
type Evaluator struct {
	cfg      *Config
	checkers map[Framework]Checker
	logger   *slog.Logger

	// now is the clock, replaceable in tests.
	now func() time.Time
}

// NewEvaluator creates an evaluator with the four implemented framework
// checkers registered. Frameworks configured without a registered checker
// (currently ADGM) are skipped.
func NewEvaluator(cfg *Config, logger *slog.Logger) *Evaluator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	checkers := map[Framework]Checker{}
	for _, c := range []Checker{
		NewPDPLChecker(),
		NewAIEthicsChecker(),
		NewNESAChecker(),
		NewDubaiAILawChecker(),
	} {
		checkers[c.Framework()] = c
	}

	return &Evaluator{
		cfg:      cfg,
		checkers: checkers,
		logger:   logger.With("component", "compliance.evaluator"),
		now:      time.Now,
	}
}

// Config returns the evaluator configuration.
func (e *Evaluator) Config() *Config { return e.cfg }

// Evaluate runs every configured framework checker over the invocation and
// aggregates the results into a report. Checks are ordered framework-first
// (in configured order) and article-second (in checker emission order).
//
// A checker failure never propagates: the returned report degrades to
// REVIEW_REQUIRED with zero checks and a synthetic summary.
func (e *Evaluator) Evaluate(input facts.Map, decision DecisionInfo, entry EntryInfo) (report *Report) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("compliance evaluation panicked", "panic", r)
			report = e.degenerateReport(fmt.Sprintf("compliance evaluation failed: %v", r))
		}
	}()

	var checks []Check
	var evaluated []Framework

	for _, fw := range e.cfg.Frameworks {
		checker, ok := e.checkers[fw]
		if !ok {
			e.logger.Debug("no checker registered for framework, skipping", "framework", fw)
			continue
		}
		evaluated = append(evaluated, fw)
		checks = append(checks, checker.Check(input, decision, entry, e.cfg)...)
	}

	return e.buildReport(evaluated, checks)
}

// QuickCheck runs the PDPL and AI-Ethics checkers only and collects the
// NON_COMPLIANT results. It is the cheap pre-flight used where a full
// report is not needed.
func (e *Evaluator) QuickCheck(input facts.Map, decision DecisionInfo) QuickResult {
	var issues []Check
	for _, fw := range []Framework{FrameworkPDPL, FrameworkAIEthics} {
		for _, check := range e.checkers[fw].Check(input, decision, EntryInfo{}, e.cfg) {
			if check.Status == StatusNonCompliant {
				issues = append(issues, check)
			}
		}
	}
	return QuickResult{Passed: len(issues) == 0, Issues: issues}
}

func (e *Evaluator) buildReport(frameworks []Framework, checks []Check) *Report {
	report := &Report{
		ReportID:      uuid.NewString(),
		Timestamp:     e.now().UTC().Format(timestampLayout),
		Frameworks:    frameworks,
		Checks:        checks,
		OverallStatus: overallStatus(checks),
		Score:         score(checks),
	}

	passed, nonCompliant, review := tally(checks)
	if e.cfg.Language != LanguageArabic {
		report.Summary = fmt.Sprintf("Passed %d/%d checks. Non-compliant: %d. Review-required: %d.",
			passed, len(checks), nonCompliant, review)
	}
	if e.cfg.Language != LanguageEnglish {
		report.SummaryAr = fmt.Sprintf("اجتاز %d من %d من الفحوصات. غير متوافق: %d. يتطلب مراجعة: %d.",
			passed, len(checks), nonCompliant, review)
	}

	report.AuditHash = reportHash(report)
	return report
}

// degenerateReport is the zero-check fallback produced when a checker fails.
func (e *Evaluator) degenerateReport(summary string) *Report {
	report := &Report{
		ReportID:      uuid.NewString(),
		Timestamp:     e.now().UTC().Format(timestampLayout),
		OverallStatus: StatusReviewRequired,
		Frameworks:    nil,
		Checks:        nil,
		Score:         100,
		Summary:       summary,
	}
	report.AuditHash = reportHash(report)
	return report
}

// overallStatus derives the aggregate status with the precedence
// NON_COMPLIANT > REVIEW_REQUIRED > COMPLIANT.
func overallStatus(checks []Check) Status {
	status := StatusCompliant
	for _, check := range checks {
		switch check.Status {
		case StatusNonCompliant:
			return StatusNonCompliant
		case StatusReviewRequired:
			status = StatusReviewRequired
		}
	}
	return status
}

// score is the percentage of passed checks, rounded half-up. An empty check
// list scores 100.
func score(checks []Check) int {
	if len(checks) == 0 {
		return 100
	}
	passed, _, _ := tally(checks)
	return int(math.Floor(100*float64(passed)/float64(len(checks)) + 0.5))
}

func tally(checks []Check) (passed, nonCompliant, review int) {
	for _, check := range checks {
		switch check.Status {
		case StatusCompliant:
			passed++
		case StatusNonCompliant:
			nonCompliant++
		case StatusReviewRequired:
			review++
		}
	}
	return passed, nonCompliant, review
}

// reportHash seals the report: SHA-256 over the canonical encoding of its
// identifying fields.
func reportHash(report *Report) string {
	preImage := map[string]any{
		"reportId":   report.ReportID,
		"timestamp":  report.Timestamp,
		"checks":     report.Checks,
		"frameworks": report.Frameworks,
	}

	data, err := facts.Canonical(preImage)
	if err != nil {
		// Reports are built from plain JSON-able values, so this does not
		// occur; an empty hash is still detectable downstream.
		return ""
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
