// Package compliance evaluates pipeline decisions against UAE regulatory
// frameworks and produces signed bilingual reports.
//
// Four framework checkers are implemented: PDPL (Federal Decree-Law 45/2021
// on personal data protection), the UAE AI Ethics principles, the NESA
// information-assurance controls, and Dubai Law 9/2023 on AI systems. Each
// checker inspects the request facts, the decision, and the audit entry and
// emits a list of per-article check results with English and Arabic
// requirement text. An aggregating Evaluator concatenates the configured
// checkers' results, derives an overall status, scores the report, and
// seals it with a SHA-256 audit hash over its canonical form.
//
// Detection is deliberately shallow: checkers match patterns against the
// lowercased JSON rendering of the input, so a field named
// "password_policy_version" will trip the credential scanner. The checks
// are pattern-matching heuristics that surface review work, not legal
// opinions, and the false-positive bias is the intended failure direction.
//
// The package depends only on the facts mapping; the agent pipeline adapts
// its decision and audit types into the narrow DecisionInfo and EntryInfo
// views defined here.
package compliance
