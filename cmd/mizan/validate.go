package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hisba-ai/mizan/pkg/expr"
	"hisba-ai/mizan/pkg/rules"
	"hisba-ai/mizan/pkg/rules/source"
)

var validateCmd = &cobra.Command{
	Use:   "validate <rules.json>",
	Short: "Validate a rules file and report conflicts",
	Long: `Validate loads a rules file, reports each rule as valid or invalid
(identifier present, condition compiles, action recognised), and lists
pairwise conflicts. The command exits 0 only when every rule is valid and
no conflicting pair exists.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return exitWith(exitBadInput, err)
	}
	if _, err := setupLogger(cfg); err != nil {
		return exitWith(exitBadInput, err)
	}

	ruleList, err := source.NewFileSource(args[0], nil).Load()
	if err != nil {
		return exitWith(exitBadInput, err)
	}

	// Report each rule individually so one bad rule does not hide the rest.
	valid := make([]rules.Rule, 0, len(ruleList))
	invalid := 0
	for _, rule := range ruleList {
		if problem := validateRule(rule); problem != "" {
			fmt.Printf("INVALID  %-20s %s\n", rule.ID, problem)
			invalid++
			continue
		}
		fmt.Printf("valid    %-20s %s\n", rule.ID, rule.Condition)
		valid = append(valid, rule)
	}

	engine := rules.NewEngine(nil)
	if err := engine.LoadRules(valid); err != nil {
		return exitWith(exitBadInput, err)
	}

	conflicts := engine.DetectConflicts()
	blocking := 0
	for _, conflict := range conflicts {
		switch conflict.Kind {
		case rules.ConflictActionMismatch:
			fmt.Printf("CONFLICT %s\n", conflict.Description)
			blocking++
		case rules.ConflictDuplicate:
			fmt.Printf("note     %s\n", conflict.Description)
		}
	}

	fmt.Printf("\n%d rules: %d valid, %d invalid, %d conflicts\n",
		len(ruleList), len(valid), invalid, blocking)

	if invalid > 0 || blocking > 0 {
		return exitWith(exitDenied, nil)
	}
	return nil
}

func validateRule(rule rules.Rule) string {
	if rule.ID == "" {
		return "rule has no id"
	}
	if !rule.Action.Valid() {
		return fmt.Sprintf("invalid action %q", rule.Action)
	}
	if _, err := expr.Compile(rule.Condition); err != nil {
		return fmt.Sprintf("condition does not compile: %v", err)
	}
	if err := rule.Validate(); err != nil {
		return err.Error()
	}
	return ""
}
