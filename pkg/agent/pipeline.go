package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"hisba-ai/mizan/pkg/audit"
	"hisba-ai/mizan/pkg/compliance"
	"hisba-ai/mizan/pkg/facts"
	"hisba-ai/mizan/pkg/llm"
	"hisba-ai/mizan/pkg/rules"
	"hisba-ai/mizan/pkg/telemetry/metrics"
)

// BlockedPrefix starts the output string of every decision blocked by the
// pre-check.
const BlockedPrefix = "Blocked by rule: "

// cancelledReason annotates the synthetic post-decision produced when the
// caller's context fires between the pre-check and the model call.
const cancelledReason = "cancelled"

// ThinkFn is the single capability a concrete agent supplies: produce the
// model output for the given facts.
type ThinkFn func(ctx context.Context, input facts.Map) (string, error)

// Result is the outcome of one pipeline invocation.
type Result struct {
	// Output is the model output, or the block message when the pre-check
	// rejected the request. It is always meaningful.
	Output string `json:"output"`

	// Decisions holds the pre-check decision and, unless the pre-check
	// rejected, the post-check decision.
	Decisions []*rules.Decision `json:"decisions"`

	// AuditTrail holds the audit entries appended during the invocation.
	AuditTrail []*audit.Entry `json:"auditTrail"`

	// Cancelled is set when the caller's context fired after the
	// pre-check; the decisions and trail reflect the work completed up to
	// that point.
	Cancelled bool `json:"cancelled,omitempty"`
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithThink installs a custom ThinkFn. Pipelines with a custom ThinkFn
// always simulate streaming from its output, since the function may not use
// the adapter at all.
func WithThink(fn ThinkFn) Option {
	return func(p *Pipeline) { p.think = fn; p.customThink = true }
}

// WithMetrics attaches a metrics collector.
func WithMetrics(c *metrics.Collector) Option {
	return func(p *Pipeline) { p.metrics = c }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// Pipeline sequences pre-check, model call, and post-check around an LM
// adapter, appending every decision to the audit log and attaching a
// compliance report to each.
//
// A pipeline is safe for concurrent use; the audit log serialises the
// appends of concurrent invocations.
type Pipeline struct {
	engine      *rules.Engine
	log         *audit.Log
	evaluator   *compliance.Evaluator
	adapter     llm.Adapter
	think       ThinkFn
	customThink bool
	metrics     *metrics.Collector
	logger      *slog.Logger
}

// New assembles a pipeline. The adapter may be nil when a custom ThinkFn is
// installed.
func New(engine *rules.Engine, log *audit.Log, evaluator *compliance.Evaluator, adapter llm.Adapter, opts ...Option) *Pipeline {
	p := &Pipeline{
		engine:    engine,
		log:       log,
		evaluator: evaluator,
		adapter:   adapter,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.logger = p.logger.With("component", "agent.pipeline")

	if p.think == nil {
		p.think = p.defaultThink
	}
	return p
}

// defaultThink forwards the canonical rendering of the facts to the adapter.
func (p *Pipeline) defaultThink(ctx context.Context, input facts.Map) (string, error) {
	if p.adapter == nil {
		return "", fmt.Errorf("pipeline has no adapter and no think function")
	}
	return p.adapter.Complete(ctx, facts.CanonicalString(input))
}

// Run executes pre-check → model call → post-check for the given facts.
//
// A REJECTED pre-check short-circuits: the model is never invoked and the
// output is the block message. A model failure propagates after the
// pre-check entry has been persisted. Context cancellation after the
// pre-check yields a synthetic REVIEW post-decision instead of an error.
func (p *Pipeline) Run(ctx context.Context, input facts.Map) (*Result, error) {
	preDecision, preEntry, err := p.check(metrics.PhasePre, input)
	if err != nil {
		return nil, err
	}

	if preDecision.Blocked() {
		p.logger.Info("request blocked by pre-check",
			"rule_id", matchedRuleID(preDecision),
			"audit_id", preDecision.AuditID,
		)
		return &Result{
			Output:     BlockedPrefix + preDecision.Reason,
			Decisions:  []*rules.Decision{preDecision},
			AuditTrail: []*audit.Entry{preEntry},
		}, nil
	}

	if ctx.Err() != nil {
		return p.cancelledResult(preDecision, preEntry), nil
	}

	start := time.Now()
	output, err := p.think(ctx, input)
	if err != nil {
		if ctx.Err() != nil {
			p.metrics.RecordLLM("cancelled", time.Since(start))
			return p.cancelledResult(preDecision, preEntry), nil
		}
		p.metrics.RecordLLM("error", time.Since(start))
		return nil, fmt.Errorf("model call failed: %w", err)
	}
	p.metrics.RecordLLM("ok", time.Since(start))

	return p.finish(input, output, preDecision, preEntry, false)
}

// RunStream executes the pipeline delivering the model output through
// onChunk. Chunks are delivered serially in a prefix-stable total order;
// the function returns only after the final chunk has been delivered and
// the post-check recorded.
//
// When the pre-check rejects, the block message is emitted as the single
// chunk. Cancellation mid-stream stops emission; the post-check then runs
// over the output accumulated so far and the result reports Cancelled.
func (p *Pipeline) RunStream(ctx context.Context, input facts.Map, onChunk func(string)) (*Result, error) {
	preDecision, preEntry, err := p.check(metrics.PhasePre, input)
	if err != nil {
		return nil, err
	}

	if preDecision.Blocked() {
		onChunk(BlockedPrefix + preDecision.Reason)
		return &Result{
			Output:     BlockedPrefix + preDecision.Reason,
			Decisions:  []*rules.Decision{preDecision},
			AuditTrail: []*audit.Entry{preEntry},
		}, nil
	}

	if ctx.Err() != nil {
		return p.cancelledResult(preDecision, preEntry), nil
	}

	output, cancelled, err := p.streamOutput(ctx, input, onChunk)
	if err != nil {
		return nil, err
	}

	return p.finish(input, output, preDecision, preEntry, cancelled)
}

// streamOutput produces the model output as chunks. Native adapter
// streaming is used when available; otherwise the single-shot output is
// tokenised on whitespace and each token emitted followed by a space.
func (p *Pipeline) streamOutput(ctx context.Context, input facts.Map, onChunk func(string)) (output string, cancelled bool, err error) {
	start := time.Now()

	if streamer, ok := p.adapter.(llm.StreamingAdapter); ok && !p.customThink {
		accumulated, streamErr := streamer.CompleteStream(ctx, facts.CanonicalString(input), func(chunk string) {
			if ctx.Err() == nil {
				onChunk(chunk)
			}
		})
		if streamErr != nil {
			if ctx.Err() != nil {
				p.metrics.RecordLLM("cancelled", time.Since(start))
				return accumulated, true, nil
			}
			p.metrics.RecordLLM("error", time.Since(start))
			return "", false, fmt.Errorf("model stream failed: %w", streamErr)
		}
		p.metrics.RecordLLM("ok", time.Since(start))
		return accumulated, ctx.Err() != nil, nil
	}

	full, thinkErr := p.think(ctx, input)
	if thinkErr != nil {
		if ctx.Err() != nil {
			p.metrics.RecordLLM("cancelled", time.Since(start))
			return "", true, nil
		}
		p.metrics.RecordLLM("error", time.Since(start))
		return "", false, fmt.Errorf("model call failed: %w", thinkErr)
	}
	p.metrics.RecordLLM("ok", time.Since(start))

	var emitted strings.Builder
	for _, tok := range strings.Fields(full) {
		if ctx.Err() != nil {
			return emitted.String(), true, nil
		}
		chunk := tok + " "
		emitted.WriteString(chunk)
		onChunk(chunk)
	}
	return full, false, nil
}

// check evaluates one phase, appends the decision, and attaches its
// compliance report.
func (p *Pipeline) check(phase metrics.Phase, input facts.Map) (*rules.Decision, *audit.Entry, error) {
	decision := p.engine.Evaluate(input)
	p.metrics.RecordDecision(phase, string(decision.Result))
	if decision.MatchedRule != nil {
		p.metrics.RecordRuleHit(decision.MatchedRule.ID)
	}

	start := time.Now()
	entry, err := p.log.Append(decision, input)
	if err != nil {
		return nil, nil, fmt.Errorf("audit append failed: %w", err)
	}
	p.metrics.RecordAppend(time.Since(start), p.log.Degraded())

	p.attachCompliance(input, decision, entry)
	return decision, entry, nil
}

// finish runs the post-check over the merged facts and assembles the result.
func (p *Pipeline) finish(input facts.Map, output string, preDecision *rules.Decision, preEntry *audit.Entry, cancelled bool) (*Result, error) {
	postFacts := facts.Merge(input, facts.Map{"llmOutput": output})

	postDecision, postEntry, err := p.check(metrics.PhasePost, postFacts)
	if err != nil {
		return nil, err
	}

	return &Result{
		Output:     output,
		Decisions:  []*rules.Decision{preDecision, postDecision},
		AuditTrail: []*audit.Entry{preEntry, postEntry},
		Cancelled:  cancelled,
	}, nil
}

// cancelledResult builds the return record for a cancellation that fired
// between the pre-check append and the model call: the pre-check stands,
// and a synthetic REVIEW post-decision marks the abandoned call. Nothing
// further is appended, since no model output exists to seal.
func (p *Pipeline) cancelledResult(preDecision *rules.Decision, preEntry *audit.Entry) *Result {
	post := &rules.Decision{
		Result:  rules.ActionReview,
		Reason:  cancelledReason,
		Score:   rules.DefaultScoreReview,
		AuditID: uuid.NewString(),
	}

	return &Result{
		Output:     "",
		Decisions:  []*rules.Decision{preDecision, post},
		AuditTrail: []*audit.Entry{preEntry},
		Cancelled:  true,
	}
}

// attachCompliance evaluates the configured frameworks and attaches the
// report to both the decision and its audit entry. Evaluation failures
// degrade to a synthetic report inside the evaluator and never abort the
// pipeline.
func (p *Pipeline) attachCompliance(input facts.Map, decision *rules.Decision, entry *audit.Entry) {
	if p.evaluator == nil {
		return
	}

	report := p.evaluator.Evaluate(input,
		compliance.DecisionInfo{
			Result:     string(decision.Result),
			Score:      decision.Score,
			Reason:     decision.Reason,
			AuditID:    decision.AuditID,
			Confidence: decision.Confidence,
		},
		compliance.EntryInfo{
			Hash:         entry.Hash,
			PreviousHash: entry.PreviousHash,
		},
	)

	decision.Compliance = report
	entry.Compliance = report

	for _, check := range report.Checks {
		p.metrics.RecordComplianceCheck(string(check.Framework), string(check.Status))
	}
}

func matchedRuleID(d *rules.Decision) string {
	if d.MatchedRule == nil {
		return ""
	}
	return d.MatchedRule.ID
}
