package rules

import (
	"strings"
	"testing"

	"hisba-ai/mizan/pkg/facts"
)

func intPtr(n int) *int { return &n }

func scoreBandRules() []Rule {
	return []Rule{
		{ID: "R1", Name: "High", Condition: "score >= 80", Action: ActionApproved, Reason: "High", Priority: 1},
		{ID: "R2", Name: "Low", Condition: "score < 30", Action: ActionRejected, Reason: "Low", Priority: 2},
		{ID: "R3", Name: "Mid", Condition: "score >= 30 && score < 80", Action: ActionReview, Reason: "Mid", Priority: 3},
	}
}

func TestEngine_Evaluate_HighScoreApproves(t *testing.T) {
	engine := NewEngine(nil)
	if err := engine.LoadRules(scoreBandRules()); err != nil {
		t.Fatalf("LoadRules failed: %v", err)
	}

	decision := engine.Evaluate(facts.Map{"score": 90.0})

	if decision.Result != ActionApproved {
		t.Errorf("result = %s, want APPROVED", decision.Result)
	}
	if decision.MatchedRule == nil || decision.MatchedRule.ID != "R1" {
		t.Errorf("matched rule = %+v, want R1", decision.MatchedRule)
	}
	if decision.Score != DefaultScoreApproved {
		t.Errorf("score = %d, want %d", decision.Score, DefaultScoreApproved)
	}
	if decision.AuditID == "" {
		t.Error("decision carries no audit id")
	}
}

func TestEngine_Evaluate_CountryGate(t *testing.T) {
	engine := NewEngine(nil)
	err := engine.LoadRules([]Rule{{
		ID:        "R1",
		Condition: `country === "AE" && amount > 500000`,
		Action:    ActionApproved,
		Priority:  1,
		Reason:    "UAE large investment",
	}})
	if err != nil {
		t.Fatalf("LoadRules failed: %v", err)
	}

	approved := engine.Evaluate(facts.Map{"country": "AE", "amount": 1000000.0})
	if approved.Result != ActionApproved {
		t.Errorf("AE facts: result = %s, want APPROVED", approved.Result)
	}

	review := engine.Evaluate(facts.Map{"country": "US", "amount": 1000000.0})
	if review.Result != ActionReview {
		t.Errorf("US facts: result = %s, want REVIEW", review.Result)
	}
	if review.MatchedRule != nil {
		t.Error("no-match decision must carry a nil matched rule")
	}
	if review.Reason != NoMatchReason {
		t.Errorf("no-match reason = %q, want %q", review.Reason, NoMatchReason)
	}
	if review.Score != DefaultScoreReview {
		t.Errorf("no-match score = %d, want %d", review.Score, DefaultScoreReview)
	}
}

func TestEngine_PriorityOrder(t *testing.T) {
	engine := NewEngine(nil)
	err := engine.LoadRules([]Rule{
		{ID: "later", Condition: "x > 0", Action: ActionReview, Priority: 5, Reason: "later"},
		{ID: "winner", Condition: "x > 0", Action: ActionApproved, Priority: 1, Reason: "winner"},
	})
	if err != nil {
		t.Fatalf("LoadRules failed: %v", err)
	}

	decision := engine.Evaluate(facts.Map{"x": 1.0})
	if decision.MatchedRule.ID != "winner" {
		t.Errorf("matched %s, want the lowest-priority-value rule", decision.MatchedRule.ID)
	}
}

func TestEngine_PriorityTiesKeepInsertionOrder(t *testing.T) {
	engine := NewEngine(nil)
	err := engine.LoadRules([]Rule{
		{ID: "first", Condition: "x > 0", Action: ActionApproved, Priority: 1},
		{ID: "second", Condition: "x > 0", Action: ActionRejected, Priority: 1},
	})
	if err != nil {
		t.Fatalf("LoadRules failed: %v", err)
	}

	decision := engine.Evaluate(facts.Map{"x": 1.0})
	if decision.MatchedRule.ID != "first" {
		t.Errorf("matched %s, want insertion-order winner \"first\"", decision.MatchedRule.ID)
	}
}

func TestEngine_LoadRules_RejectsBadCondition(t *testing.T) {
	engine := NewEngine(nil)
	if err := engine.LoadRules(scoreBandRules()); err != nil {
		t.Fatalf("LoadRules failed: %v", err)
	}

	err := engine.LoadRules([]Rule{
		{ID: "ok", Condition: "x > 0", Action: ActionApproved},
		{ID: "bad", Condition: "x >", Action: ActionApproved},
	})
	if err == nil {
		t.Fatal("LoadRules accepted an uncompilable condition")
	}
	if !strings.Contains(err.Error(), "bad") {
		t.Errorf("error %q does not name the offending rule", err)
	}

	// The previous set must survive a rejected load.
	if engine.Size() != 3 {
		t.Errorf("engine size = %d after rejected load, want 3", engine.Size())
	}
}

func TestEngine_LoadRules_RejectsBadAction(t *testing.T) {
	engine := NewEngine(nil)
	err := engine.LoadRules([]Rule{{ID: "r", Condition: "x > 0", Action: "MAYBE"}})
	if err == nil {
		t.Fatal("LoadRules accepted an invalid action")
	}
}

func TestEngine_ScoreOverride(t *testing.T) {
	engine := NewEngine(nil)
	err := engine.LoadRules([]Rule{
		{ID: "r", Condition: "x > 0", Action: ActionRejected, Priority: 1, Score: intPtr(5)},
	})
	if err != nil {
		t.Fatalf("LoadRules failed: %v", err)
	}

	decision := engine.Evaluate(facts.Map{"x": 1.0})
	if decision.Score != 5 {
		t.Errorf("score = %d, want the rule override 5", decision.Score)
	}
}

func TestEngine_ScoreBounds(t *testing.T) {
	engine := NewEngine(nil)
	err := engine.LoadRules([]Rule{
		{ID: "r", Condition: "x > 0", Action: ActionApproved, Score: intPtr(150)},
	})
	if err == nil {
		t.Fatal("LoadRules accepted an out-of-range score")
	}
}

func TestEngine_AddRule(t *testing.T) {
	engine := NewEngine(nil)
	if err := engine.LoadRules(scoreBandRules()); err != nil {
		t.Fatalf("LoadRules failed: %v", err)
	}

	err := engine.AddRule(Rule{ID: "R0", Condition: "vip === true", Action: ActionApproved, Priority: 0, Reason: "VIP"})
	if err != nil {
		t.Fatalf("AddRule failed: %v", err)
	}

	decision := engine.Evaluate(facts.Map{"vip": true, "score": 10.0})
	if decision.MatchedRule.ID != "R0" {
		t.Errorf("matched %s, want the newly added lowest-priority rule", decision.MatchedRule.ID)
	}
}

func TestEngine_DetectConflicts(t *testing.T) {
	engine := NewEngine(nil)
	err := engine.LoadRules([]Rule{
		{ID: "a", Condition: "x > 0", Action: ActionApproved, Priority: 1},
		{ID: "b", Condition: "  x > 0  ", Action: ActionRejected, Priority: 2},
		{ID: "c", Condition: "x > 0", Action: ActionApproved, Priority: 3},
		{ID: "d", Condition: "y < 1", Action: ActionReview, Priority: 4},
	})
	if err != nil {
		t.Fatalf("LoadRules failed: %v", err)
	}

	conflicts := engine.DetectConflicts()

	var mismatches, duplicates int
	for _, c := range conflicts {
		switch c.Kind {
		case ConflictActionMismatch:
			mismatches++
		case ConflictDuplicate:
			duplicates++
		}
	}

	// a/b and b/c disagree on action; a/c duplicate.
	if mismatches != 2 {
		t.Errorf("action mismatches = %d, want 2", mismatches)
	}
	if duplicates != 1 {
		t.Errorf("duplicates = %d, want 1", duplicates)
	}
}

func TestEngine_SkipsErroringPredicates(t *testing.T) {
	engine := NewEngine(nil)
	err := engine.LoadRules([]Rule{
		// Ordering against a structured value is not numeric, so this
		// predicate is false for these facts and the rule is skipped.
		{ID: "skipped", Condition: "user > 5", Action: ActionRejected, Priority: 1},
		{ID: "fires", Condition: "score >= 1", Action: ActionApproved, Priority: 2},
	})
	if err != nil {
		t.Fatalf("LoadRules failed: %v", err)
	}

	decision := engine.Evaluate(facts.Map{
		"user":  map[string]any{"role": "admin"},
		"score": 50.0,
	})
	if decision.MatchedRule == nil || decision.MatchedRule.ID != "fires" {
		t.Errorf("matched %+v, want the second rule", decision.MatchedRule)
	}
}
