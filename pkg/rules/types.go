package rules

import (
	"fmt"

	"hisba-ai/mizan/pkg/compliance"
)

// Action is the outcome a rule assigns when its condition matches.
type Action string

const (
	// ActionApproved allows the request to proceed.
	ActionApproved Action = "APPROVED"
	// ActionRejected blocks the request.
	ActionRejected Action = "REJECTED"
	// ActionReview flags the request for manual review.
	ActionReview Action = "REVIEW"
)

// Valid reports whether the action is one of the three recognised values.
func (a Action) Valid() bool {
	switch a {
	case ActionApproved, ActionRejected, ActionReview:
		return true
	}
	return false
}

// Default decision scores per action, applied when a rule carries no
// explicit score override.
const (
	DefaultScoreApproved = 85
	DefaultScoreRejected = 15
	DefaultScoreReview   = 50
)

// NoMatchReason is the reason attached to the default decision returned
// when no rule matches.
const NoMatchReason = "No matching rule found — manual review required"

// Rule is a single predicate-with-action policy unit.
//
// Rules are value-semantics snapshots: once loaded into an engine they are
// immutable, and the copy embedded in a decision or audit entry never
// changes when the rule set is reloaded.
type Rule struct {
	// ID is the stable rule identifier.
	ID string `json:"id"`

	// Name is the human-readable label.
	Name string `json:"name"`

	// Condition is the predicate source in the restricted expression
	// grammar. It is stored verbatim and compiled at load time.
	Condition string `json:"condition"`

	// Action is the decision result when the condition matches.
	Action Action `json:"action"`

	// Reason is the human explanation attached to matching decisions.
	Reason string `json:"reason"`

	// Priority orders evaluation; a lower numeric value wins.
	Priority int `json:"priority"`

	// Score optionally overrides the default decision score (0-100).
	Score *int `json:"score,omitempty"`
}

// Validate checks the rule's structural invariants without compiling the
// condition.
func (r *Rule) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("rule has no id")
	}
	if !r.Action.Valid() {
		return fmt.Errorf("rule %q: invalid action %q", r.ID, r.Action)
	}
	if r.Score != nil && (*r.Score < 0 || *r.Score > 100) {
		return fmt.Errorf("rule %q: score %d out of range [0, 100]", r.ID, *r.Score)
	}
	return nil
}

// DecisionScore returns the score a decision matching this rule carries:
// the explicit override when present, the per-action default otherwise.
func (r *Rule) DecisionScore() int {
	if r.Score != nil {
		return *r.Score
	}
	switch r.Action {
	case ActionApproved:
		return DefaultScoreApproved
	case ActionRejected:
		return DefaultScoreRejected
	default:
		return DefaultScoreReview
	}
}

// Decision is the outcome of evaluating facts against a rule set.
type Decision struct {
	// Result is the decision action.
	Result Action `json:"result"`

	// MatchedRule is a snapshot of the rule that fired, or nil when no
	// rule matched.
	MatchedRule *Rule `json:"matchedRule"`

	// Reason explains the decision.
	Reason string `json:"reason"`

	// Score is the decision score in [0, 100].
	Score int `json:"score"`

	// AuditID uniquely identifies the decision for audit correlation.
	AuditID string `json:"auditId"`

	// Confidence optionally carries a model-supplied confidence in [0, 1];
	// compliance checkers fall back to Score/100 when absent.
	Confidence *float64 `json:"confidence,omitempty"`

	// Compliance is the attached compliance report, populated by the
	// agent pipeline after the decision is appended to the audit log.
	Compliance *compliance.Report `json:"complianceReport,omitempty"`
}

// Blocked reports whether the decision rejects the request.
func (d *Decision) Blocked() bool {
	return d.Result == ActionRejected
}
