package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"hisba-ai/mizan/pkg/config"
	"hisba-ai/mizan/pkg/telemetry/logging"
)

// Exit codes: 0 success, 1 policy denial or integrity failure, 2 bad input.
const (
	exitOK       = 0
	exitDenied   = 1
	exitBadInput = 2
	exitInternal = 1
)

var (
	cfgFile string
	verbose bool
)

// exitError carries a specific process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func exitWith(code int, err error) error {
	return &exitError{code: code, err: err}
}

var rootCmd = &cobra.Command{
	Use:   "mizan",
	Short: "Mizan - governed-agent runtime and policy decision pipeline",
	Long: `Mizan wraps every LM invocation in a deterministic policy pipeline:
a rule-engine pre-check, the model call, a post-check over the model output,
a hash-chained audit journal, and UAE compliance-framework evaluation
(PDPL, AI Ethics, NESA, Dubai AI Law).`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and maps errors to exit codes.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			if exit.err != nil {
				fmt.Fprintln(os.Stderr, exit.err)
			}
			os.Exit(exit.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitInternal)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig resolves the runtime configuration: the --config file when
// given, defaults plus environment overrides otherwise.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.Load(cfgFile)
	}
	return config.Default(), nil
}

// setupLogger builds the process logger and installs it as the slog
// default.
func setupLogger(cfg *config.Config) (*slog.Logger, error) {
	logCfg := cfg.Logging
	if verbose {
		logCfg.Level = "debug"
	}

	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}
