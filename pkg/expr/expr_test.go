package expr

import (
	"errors"
	"sync"
	"testing"
)

func TestEvaluate_Comparisons(t *testing.T) {
	env := map[string]any{
		"score":   90.0,
		"country": "AE",
		"amount":  1000000.0,
		"active":  true,
		"name":    "mizan",
		"ratio":   0.5,
		"empty":   "",
		"nothing": nil,
		"user": map[string]any{
			"role": "admin",
			"profile": map[string]any{
				"verified": true,
			},
		},
	}

	tests := []struct {
		expr string
		want bool
	}{
		// Ordering
		{"score >= 80", true},
		{"score > 90", false},
		{"score <= 90", true},
		{"amount > 500000", true},
		{"ratio < 1", true},

		// Strict equality
		{`country === "AE"`, true},
		{`country === "US"`, false},
		{`country !== "US"`, true},
		{"active === true", true},
		{"score === 90", true},
		{`score === "90"`, false},
		{"nothing === null", true},

		// Loose equality with coercion
		{`score == "90"`, true},
		{`score != "91"`, true},
		{"active == 1", true},
		{"active == true", true},
		{"nothing == null", true},
		{`country == 90`, false},

		// Boolean combinators
		{`country === "AE" && amount > 500000`, true},
		{`country === "US" || amount > 500000`, true},
		{`country === "US" && amount > 500000`, false},
		{"!active", false},
		{"!empty", true},
		{`!(country === "US")`, true},

		// Dotted paths
		{`user.role === "admin"`, true},
		{"user.profile.verified", true},
		{"user.profile.missing == null", true},
		{`user.missing.deeper === "x"`, false},

		// Missing keys resolve to undefined: falsy, loosely null
		{"ghost", false},
		{"ghost == null", true},
		{"ghost === null", false},
		{`ghost == "anything"`, false},
		{"ghost > 0", false},

		// Truthiness of bare values
		{"score", true},
		{"empty", false},
		{"name", true},
		{"user", true},

		// Literals
		{"true", true},
		{"false", false},
		{"null", false},
		{"undefined == null", true},
		{"1 < 2 && 2 < 3", true},
		{`"a" === 'a'`, true},
		{`"5" < 10`, true},
		{`"abc" < 10`, false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			if got := Evaluate(tt.expr, env); got != tt.want {
				t.Errorf("Evaluate(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestCompile_SyntaxErrors(t *testing.T) {
	tests := []string{
		"",
		"score >",
		"(score > 1",
		"score && ",
		"score >= 80 extra",
		"a & b",
		"a | b",
		`"unterminated`,
		"'also unterminated",
		"a = b",
		"foo..bar",
		"# nope",
	}

	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			_, err := Compile(src)
			if err == nil {
				t.Fatalf("Compile(%q) succeeded, want parse error", src)
			}
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Errorf("Compile(%q) returned %T, want *ParseError", src, err)
			}
		})
	}
}

func TestEvaluate_InvalidExpressionIsFalse(t *testing.T) {
	if Evaluate("score >", map[string]any{"score": 1.0}) {
		t.Error("invalid expression must evaluate to false")
	}
}

func TestPredicate_EscapedStrings(t *testing.T) {
	env := map[string]any{"quote": `say "hi"`, "tick": "it's"}

	if !Evaluate(`quote === "say \"hi\""`, env) {
		t.Error("double-quote escape did not match")
	}
	if !Evaluate(`tick === 'it\'s'`, env) {
		t.Error("single-quote escape did not match")
	}
}

func TestPredicate_ShortCircuit(t *testing.T) {
	// The right side of a satisfied || (and a failed &&) resolves against
	// missing keys; short-circuiting means that cannot affect the result.
	env := map[string]any{"a": true}

	if !Evaluate("a || missing.deep.path > 5", env) {
		t.Error("|| did not short-circuit")
	}
	if Evaluate("!a && missing.deep.path > 5", env) {
		t.Error("&& did not short-circuit")
	}
}

func TestPredicate_DeterministicAndConcurrent(t *testing.T) {
	pred, err := Compile(`user.role === "admin" && score >= 50`)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	env := map[string]any{
		"score": 75.0,
		"user":  map[string]any{"role": "admin"},
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				if !pred.Eval(env) {
					t.Error("concurrent evaluation diverged")
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestPredicate_NumberLiterals(t *testing.T) {
	tests := []struct {
		expr string
		want bool
	}{
		{"1.5 > 1", true},
		{"0.5 < 0.6", true},
		{"100 === 100.0", true},
		{"42 == 42", true},
	}

	for _, tt := range tests {
		if got := Evaluate(tt.expr, nil); got != tt.want {
			t.Errorf("Evaluate(%q) = %v, want %v", tt.expr, got, tt.want)
		}
	}
}

func TestPredicate_SourceRoundTrip(t *testing.T) {
	src := `country === "AE" && amount > 500000`
	pred, err := Compile(src)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if pred.Source() != src {
		t.Errorf("Source() = %q, want %q", pred.Source(), src)
	}
}
