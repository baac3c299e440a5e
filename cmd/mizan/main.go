// Mizan is a governed-agent runtime: a deterministic policy-decision
// pipeline that wraps LM invocations in a rule-engine pre-check, a
// post-check, a tamper-evident audit chain, and a multi-framework
// compliance evaluator.
//
// Usage:
//
//	# Validate a rules file and report conflicts
//	mizan validate rules.json
//
//	# Evaluate facts against rules and append the decision to the journal
//	mizan decide rules.json facts.json
//
//	# Verify the audit journal's hash chain
//	mizan audit verify --full
//
//	# Export the journal
//	mizan audit export --format csv
//
//	# Show version information
//	mizan version
package main

func main() {
	Execute()
}
