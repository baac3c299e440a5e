package rules

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"hisba-ai/mizan/pkg/expr"
	"hisba-ai/mizan/pkg/facts"
)

// compiledRule pairs a rule snapshot with its compiled predicate and its
// position in the load order, which breaks priority ties.
type compiledRule struct {
	rule  Rule
	pred  *expr.Predicate
	order int
}

// ruleSet is an immutable, priority-ordered compiled rule set. Engines swap
// whole sets atomically so readers never observe a torn state.
type ruleSet struct {
	compiled []compiledRule
}

// Engine compiles a rule set and evaluates facts against it in priority
// order. After a successful load, Evaluate and DetectConflicts are safe for
// concurrent use from any number of goroutines.
type Engine struct {
	set    atomic.Pointer[ruleSet]
	loadMu sync.Mutex // serialises LoadRules and AddRule
	logger *slog.Logger
}

// NewEngine creates an engine with an empty rule set.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{logger: logger.With("component", "rules.engine")}
	e.set.Store(&ruleSet{})
	return e
}

// LoadRules validates and compiles the given rules and replaces the entire
// loaded set. A rule whose condition fails to compile, or whose fields are
// structurally invalid, rejects the whole load and leaves the previous set
// in place.
//
// Rules are ordered by ascending priority; rules sharing a priority keep
// their relative order as given.
func (e *Engine) LoadRules(ruleList []Rule) error {
	compiled, err := compileAll(ruleList)
	if err != nil {
		return err
	}

	e.loadMu.Lock()
	defer e.loadMu.Unlock()
	e.set.Store(&ruleSet{compiled: compiled})

	e.logger.Info("rule set loaded", "rule_count", len(compiled))
	return nil
}

// AddRule validates, compiles, and appends a single rule to the loaded set,
// re-sorting by priority.
func (e *Engine) AddRule(rule Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	pred, err := expr.Compile(rule.Condition)
	if err != nil {
		return fmt.Errorf("rule %q: condition does not compile: %w", rule.ID, err)
	}

	e.loadMu.Lock()
	defer e.loadMu.Unlock()

	current := e.set.Load().compiled
	next := make([]compiledRule, len(current), len(current)+1)
	copy(next, current)
	next = append(next, compiledRule{rule: rule, pred: pred, order: len(next)})
	sortByPriority(next)

	e.set.Store(&ruleSet{compiled: next})
	e.logger.Info("rule added", "rule_id", rule.ID, "rule_count", len(next))
	return nil
}

// Rules returns a snapshot of the loaded rules in evaluation order.
func (e *Engine) Rules() []Rule {
	compiled := e.set.Load().compiled
	out := make([]Rule, len(compiled))
	for i, c := range compiled {
		out[i] = c.rule
	}
	return out
}

// Size returns the number of loaded rules.
func (e *Engine) Size() int {
	return len(e.set.Load().compiled)
}

// Evaluate runs the facts through the rule set in priority order and returns
// the decision of the first rule whose predicate matches. Predicates that
// fail at runtime evaluate to false and are skipped. When no rule matches,
// the default REVIEW decision is returned with a nil MatchedRule.
//
// Every decision carries a fresh audit identifier.
func (e *Engine) Evaluate(input facts.Map) *Decision {
	for _, c := range e.set.Load().compiled {
		if !c.pred.Eval(input) {
			continue
		}

		snapshot := c.rule
		return &Decision{
			Result:      snapshot.Action,
			MatchedRule: &snapshot,
			Reason:      snapshot.Reason,
			Score:       snapshot.DecisionScore(),
			AuditID:     uuid.NewString(),
		}
	}

	return &Decision{
		Result:      ActionReview,
		MatchedRule: nil,
		Reason:      NoMatchReason,
		Score:       DefaultScoreReview,
		AuditID:     uuid.NewString(),
	}
}

func compileAll(ruleList []Rule) ([]compiledRule, error) {
	compiled := make([]compiledRule, 0, len(ruleList))
	for i, rule := range ruleList {
		if err := rule.Validate(); err != nil {
			return nil, err
		}
		pred, err := expr.Compile(rule.Condition)
		if err != nil {
			return nil, fmt.Errorf("rule %q: condition does not compile: %w", rule.ID, err)
		}
		compiled = append(compiled, compiledRule{rule: rule, pred: pred, order: i})
	}
	sortByPriority(compiled)
	return compiled, nil
}

func sortByPriority(compiled []compiledRule) {
	sort.SliceStable(compiled, func(i, j int) bool {
		if compiled[i].rule.Priority != compiled[j].rule.Priority {
			return compiled[i].rule.Priority < compiled[j].rule.Priority
		}
		return compiled[i].order < compiled[j].order
	})
}
