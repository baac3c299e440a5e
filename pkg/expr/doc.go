// Package expr compiles and evaluates the restricted predicate language
// used by rule conditions.
//
// The language supports comparison operators (strict and coercing), boolean
// combinators with short-circuit evaluation, parenthesised grouping, and
// dotted identifier paths resolved against a facts mapping:
//
//	country === "AE" && amount > 500000
//	user.role == "admin" || (score >= 80 && !flagged)
//
// Conditions are compiled once with Compile and the resulting Predicate is
// reused for every evaluation. Compilation is a self-contained tokenizer and
// recursive-descent parser; no host-language dynamic evaluation is involved,
// so conditions loaded from configuration cannot execute arbitrary code.
//
// Error handling is split across the two phases. Syntax errors are raised at
// compile time so invalid rules are rejected when loaded. Runtime failures
// (missing keys, type mismatches) never propagate: the predicate simply
// evaluates to false. Missing identifier segments resolve to a distinguished
// undefined value which is falsy and unequal to every non-null value.
package expr
