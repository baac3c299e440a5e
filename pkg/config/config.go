// Package config loads, defaults, and validates the runtime configuration.
//
// Configuration comes from a YAML file, with a small set of environment
// overrides applied on top (MIZAN_* variables, plus AUDIT_PATH for the
// journal location). Environment variables always win over file values.
package config

import (
	"hisba-ai/mizan/pkg/audit/archive"
	"hisba-ai/mizan/pkg/audit/retention"
	"hisba-ai/mizan/pkg/compliance"
	"hisba-ai/mizan/pkg/llm"
	"hisba-ai/mizan/pkg/telemetry/logging"
)

// Config is the full runtime configuration.
type Config struct {
	Rules      RulesConfig       `yaml:"rules"`
	Audit      AuditConfig       `yaml:"audit"`
	Compliance compliance.Config `yaml:"compliance"`
	LLM        llm.HTTPConfig    `yaml:"llm"`
	Logging    logging.Config    `yaml:"logging"`
	Metrics    MetricsConfig     `yaml:"metrics"`
}

// RulesConfig locates the rule set.
type RulesConfig struct {
	// Path is the JSON rules file.
	Path string `yaml:"path"`

	// Watch enables fsnotify hot reloading of the rules file.
	Watch bool `yaml:"watch"`
}

// AuditConfig configures the journal and its derived archive.
type AuditConfig struct {
	// Path is the JSONL journal location.
	Path string `yaml:"path"`

	// Preload loads journal history into memory at startup.
	Preload bool `yaml:"preload"`

	// Archive configures the optional SQLite mirror.
	Archive ArchiveConfig `yaml:"archive"`

	// Retention configures archive pruning.
	Retention retention.Config `yaml:"retention"`
}

// ArchiveConfig enables and locates the SQLite mirror.
type ArchiveConfig struct {
	Enabled bool           `yaml:"enabled"`
	SQLite  archive.Config `yaml:"sqlite"`
}

// MetricsConfig enables Prometheus metrics collection.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}
