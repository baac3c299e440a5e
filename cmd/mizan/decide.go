package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hisba-ai/mizan/pkg/audit"
	"hisba-ai/mizan/pkg/facts"
	"hisba-ai/mizan/pkg/rules"
	"hisba-ai/mizan/pkg/rules/source"
)

var decideCmd = &cobra.Command{
	Use:   "decide <rules.json> <facts.json>",
	Short: "Evaluate facts against rules and journal the decision",
	Long: `Decide loads a rules file, evaluates the facts against it, appends the
decision to the audit journal, and prints the decision. Any decision,
including REVIEW, exits 0; malformed input exits 2.`,
	Args: cobra.ExactArgs(2),
	RunE: runDecide,
}

func init() {
	rootCmd.AddCommand(decideCmd)
}

func runDecide(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return exitWith(exitBadInput, err)
	}
	logger, err := setupLogger(cfg)
	if err != nil {
		return exitWith(exitBadInput, err)
	}

	engine := rules.NewEngine(logger)
	if err := source.NewFileSource(args[0], logger).Apply(engine); err != nil {
		return exitWith(exitBadInput, err)
	}

	version, err := source.GitVersion(args[0])
	if err != nil {
		logger.Warn("could not resolve rules version", "error", err)
	} else if version != nil {
		logger.Info("rules version resolved",
			"commit", version.CommitSHA,
			"branch", version.Branch,
		)
	}

	factsData, err := os.ReadFile(args[1])
	if err != nil {
		return exitWith(exitBadInput, fmt.Errorf("failed to read facts file %q: %w", args[1], err))
	}
	input, err := facts.Parse(factsData)
	if err != nil {
		return exitWith(exitBadInput, err)
	}

	decision := engine.Evaluate(input)

	log, err := audit.Open(cfg.Audit.Path, audit.WithLogger(logger))
	if err != nil {
		return exitWith(exitBadInput, err)
	}
	defer log.Close()

	entry, err := log.Append(decision, input)
	if err != nil {
		return exitWith(exitInternal, err)
	}

	ruleName := "(none)"
	if decision.MatchedRule != nil {
		ruleName = decision.MatchedRule.Name
	}

	fmt.Printf("result:   %s\n", decision.Result)
	fmt.Printf("score:    %d\n", decision.Score)
	fmt.Printf("reason:   %s\n", decision.Reason)
	fmt.Printf("rule:     %s\n", ruleName)
	fmt.Printf("audit id: %s\n", entry.ID)
	if version != nil {
		fmt.Printf("rules:    %s\n", version.CommitSHA)
	}
	return nil
}
