package config

import (
	"time"

	"hisba-ai/mizan/pkg/audit"
	"hisba-ai/mizan/pkg/compliance"
)

// ApplyDefaults fills unset fields with their defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Rules.Path == "" {
		cfg.Rules.Path = "./rules.json"
	}

	if cfg.Audit.Path == "" {
		cfg.Audit.Path = audit.DefaultPath
	}
	if cfg.Audit.Archive.SQLite.Path == "" {
		cfg.Audit.Archive.SQLite.Path = "./data/audit.db"
	}
	if cfg.Audit.Retention.RetentionDays == 0 {
		cfg.Audit.Retention.RetentionDays = 90
	}

	if len(cfg.Compliance.Frameworks) == 0 {
		cfg.Compliance.Frameworks = compliance.DefaultConfig().Frameworks
	}
	if cfg.Compliance.Language == "" {
		cfg.Compliance.Language = compliance.LanguageBoth
	}
	if cfg.Compliance.AuditLevel == "" {
		cfg.Compliance.AuditLevel = compliance.AuditFull
	}
	if cfg.Compliance.DataResidency == "" {
		cfg.Compliance.DataResidency = compliance.ResidencyAny
	}

	if cfg.LLM.Name == "" {
		cfg.LLM.Name = "llm"
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 60 * time.Second
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}
