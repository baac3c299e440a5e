package rules

import (
	"fmt"
	"strings"
)

// ConflictKind classifies a detected rule conflict.
type ConflictKind string

const (
	// ConflictActionMismatch marks two rules with byte-equal conditions
	// but different actions. This is the conflict class that makes a rule
	// set ambiguous.
	ConflictActionMismatch ConflictKind = "action_mismatch"

	// ConflictDuplicate marks two rules with byte-equal conditions and the
	// same action. Informational: the lower-priority rule can never fire.
	ConflictDuplicate ConflictKind = "duplicate"
)

// Conflict describes a pair of rules whose conditions collide.
type Conflict struct {
	RuleA       Rule
	RuleB       Rule
	Kind        ConflictKind
	Description string
}

// DetectConflicts compares every pair of loaded rules. Two rules conflict
// when their conditions are byte-equal after trimming surrounding whitespace
// but their actions differ; pairs with equal conditions and equal actions
// are reported as informational duplicates.
//
// The comparison is O(n²) over the rule count, which is acceptable at the
// hundreds-of-rules scale this engine targets.
func (e *Engine) DetectConflicts() []Conflict {
	compiled := e.set.Load().compiled

	var conflicts []Conflict
	for i := 0; i < len(compiled); i++ {
		for j := i + 1; j < len(compiled); j++ {
			a, b := compiled[i].rule, compiled[j].rule

			condA := strings.TrimSpace(a.Condition)
			condB := strings.TrimSpace(b.Condition)
			if condA != condB {
				continue
			}

			if a.Action != b.Action {
				conflicts = append(conflicts, Conflict{
					RuleA: a,
					RuleB: b,
					Kind:  ConflictActionMismatch,
					Description: fmt.Sprintf(
						"rules %q and %q share condition %q but disagree on action (%s vs %s)",
						a.ID, b.ID, condA, a.Action, b.Action),
				})
				continue
			}

			conflicts = append(conflicts, Conflict{
				RuleA: a,
				RuleB: b,
				Kind:  ConflictDuplicate,
				Description: fmt.Sprintf(
					"rules %q and %q duplicate condition %q with the same action",
					a.ID, b.ID, condA),
			})
		}
	}

	return conflicts
}
