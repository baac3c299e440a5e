// Package facts models the input mapping evaluated by rules and compliance
// checkers.
//
// A facts mapping is a plain map[string]any whose values are restricted to
// the JSON value set: nil, bool, float64, string, []any, and nested
// map[string]any. Facts typically arrive from JSON documents decoded with
// encoding/json, so the package works directly with that representation
// instead of introducing a bespoke variant type.
//
// The package provides three things on top of the raw map:
//
//   - Dotted-path lookup ("user.role") with explicit missing-key reporting,
//     used by the expression evaluator.
//   - Shallow merge, used by the agent pipeline to fold the LM output into
//     the post-check facts.
//   - Canonical JSON serialisation, the byte-exact encoding used as the
//     pre-image for all audit and compliance hashing. Object keys are
//     sorted lexicographically at every nesting level, strings are
//     NFC-normalised before escaping, and numbers are emitted in their
//     shortest decimal form.
package facts
