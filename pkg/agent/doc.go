// Package agent implements the governed-agent pipeline: every LM
// invocation is wrapped in a rule-engine pre-check, an audit append, a
// compliance evaluation, the model call, and a post-check over the facts
// merged with the model output.
//
// A Pipeline composes an engine, an audit log, a compliance evaluator, and
// a ThinkFn, the single capability a concrete agent provides. The default
// ThinkFn forwards the canonical rendering of the facts to the configured
// LM adapter; agents with richer prompting install their own with
// WithThink.
//
// Run is the single-shot variant; RunStream delivers the model output as an
// ordered sequence of chunks through a caller-supplied callback, delegating
// to the adapter's native streaming when available and simulating it by
// whitespace tokenisation otherwise. Both honour context cancellation: the
// pre-check entry is never reverted; a cancellation before the model call
// (or one that fails it) yields a synthetic REVIEW post-decision rather than
// an error, and a cancellation mid-stream stops emission and runs the
// post-check over the output accumulated so far.
package agent
