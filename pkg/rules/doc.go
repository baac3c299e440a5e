// Package rules defines the policy rule model and the engine that evaluates
// facts against a loaded rule set.
//
// A Rule pairs a predicate condition (compiled by pkg/expr) with an action,
// a reason, and a priority. The engine validates every condition at load
// time, orders rules by ascending priority, and returns the first matching
// rule's decision. When no rule matches, the engine returns the default
// REVIEW decision so that unmatched traffic is never silently approved.
//
// The loaded rule set is replaced by atomic pointer swap: readers always
// observe either the old complete set or the new complete set, so Evaluate
// and DetectConflicts may be called concurrently with reloads and with each
// other without synchronisation.
package rules
