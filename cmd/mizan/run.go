package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"hisba-ai/mizan/pkg/agent"
	"hisba-ai/mizan/pkg/audit"
	"hisba-ai/mizan/pkg/audit/archive"
	"hisba-ai/mizan/pkg/audit/retention"
	"hisba-ai/mizan/pkg/compliance"
	"hisba-ai/mizan/pkg/facts"
	"hisba-ai/mizan/pkg/llm"
	"hisba-ai/mizan/pkg/rules"
	"hisba-ai/mizan/pkg/rules/source"
	"hisba-ai/mizan/pkg/telemetry/metrics"
)

var runStream bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the governed pipeline over facts read from stdin",
	Long: `Run starts the full governed-agent pipeline: rules are loaded (and
hot-reloaded when rules.watch is enabled), the audit journal and optional
SQLite archive are opened, and each line of stdin is treated as a JSON
facts document. Every document goes through pre-check, LM call, and
post-check; the decision record is printed as JSON.

With --stream, model output is printed chunk by chunk as it arrives.`,
	Args: cobra.NoArgs,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().BoolVar(&runStream, "stream", false, "stream model output chunk by chunk")
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return exitWith(exitBadInput, err)
	}
	logger, err := setupLogger(cfg)
	if err != nil {
		return exitWith(exitBadInput, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Rule engine, with hot reload when configured.
	engine := rules.NewEngine(logger)
	src := source.NewFileSource(cfg.Rules.Path, logger)
	if err := src.Apply(engine); err != nil {
		return exitWith(exitBadInput, err)
	}
	if cfg.Rules.Watch {
		go func() {
			if err := src.Watch(ctx, engine); err != nil && ctx.Err() == nil {
				logger.Error("rules watcher stopped", "error", err)
			}
		}()
	}

	if version, err := source.GitVersion(cfg.Rules.Path); err == nil && version != nil {
		logger.Info("rules version resolved", "commit", version.CommitSHA, "branch", version.Branch)
	}

	// Audit journal plus optional derived archive and retention.
	log, err := audit.Open(cfg.Audit.Path, audit.WithLogger(logger))
	if err != nil {
		return exitWith(exitBadInput, err)
	}
	defer log.Close()

	var mirror *archive.Mirror
	if cfg.Audit.Archive.Enabled {
		mirror, err = archive.Open(cfg.Audit.Archive.SQLite, logger)
		if err != nil {
			return exitWith(exitInternal, err)
		}
		defer mirror.Close()

		pruner := retention.NewPruner(mirror, cfg.Audit.Retention, logger)
		if err := pruner.Start(ctx); err != nil {
			return exitWith(exitBadInput, err)
		}
	}

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(prometheus.NewRegistry())
	}

	evaluator := compliance.NewEvaluator(&cfg.Compliance, logger)
	adapter := llm.NewHTTPAdapter(cfg.LLM, logger)

	pipeline := agent.New(engine, log, evaluator, adapter,
		agent.WithMetrics(collector),
		agent.WithLogger(logger),
	)

	return processStdin(ctx, pipeline, mirror, logger)
}

func processStdin(ctx context.Context, pipeline *agent.Pipeline, mirror *archive.Mirror, logger *slog.Logger) error {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	encoder := json.NewEncoder(os.Stdout)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		input, err := facts.Parse(line)
		if err != nil {
			logger.Error("skipping malformed facts line", "error", err)
			continue
		}

		var result *agent.Result
		if runStream {
			result, err = pipeline.RunStream(ctx, input, func(chunk string) {
				fmt.Print(chunk)
			})
			fmt.Println()
		} else {
			result, err = pipeline.Run(ctx, input)
		}
		if err != nil {
			logger.Error("pipeline run failed", "error", err)
			continue
		}

		if mirror != nil {
			for _, entry := range result.AuditTrail {
				if err := mirror.Record(ctx, entry); err != nil {
					logger.Error("archive mirror failed", "error", err)
				}
			}
		}

		if err := encoder.Encode(result); err != nil {
			return exitWith(exitInternal, err)
		}
	}
	return scanner.Err()
}
