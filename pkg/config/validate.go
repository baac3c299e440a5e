package config

import (
	"fmt"

	"hisba-ai/mizan/pkg/compliance"
)

// Validate checks the configuration's cross-field invariants.
func Validate(cfg *Config) error {
	switch cfg.Compliance.Language {
	case compliance.LanguageEnglish, compliance.LanguageArabic, compliance.LanguageBoth:
	default:
		return fmt.Errorf("compliance.language: invalid value %q (expected en, ar, or both)", cfg.Compliance.Language)
	}

	switch cfg.Compliance.AuditLevel {
	case compliance.AuditBasic, compliance.AuditFull:
	default:
		return fmt.Errorf("compliance.audit_level: invalid value %q (expected basic or full)", cfg.Compliance.AuditLevel)
	}

	switch cfg.Compliance.DataResidency {
	case compliance.ResidencyUAE, compliance.ResidencyAny:
	default:
		return fmt.Errorf("compliance.data_residency: invalid value %q (expected UAE or ANY)", cfg.Compliance.DataResidency)
	}

	known := map[compliance.Framework]bool{
		compliance.FrameworkPDPL:       true,
		compliance.FrameworkAIEthics:   true,
		compliance.FrameworkNESA:       true,
		compliance.FrameworkDubaiAILaw: true,
		compliance.FrameworkADGM:       true,
	}
	for _, fw := range cfg.Compliance.Frameworks {
		if !known[fw] {
			return fmt.Errorf("compliance.frameworks: unknown framework %q", fw)
		}
	}

	if cfg.Audit.Path == "" {
		return fmt.Errorf("audit.path: must not be empty")
	}
	if cfg.Audit.Archive.Enabled && cfg.Audit.Archive.SQLite.Path == "" {
		return fmt.Errorf("audit.archive.sqlite.path: required when the archive is enabled")
	}

	return nil
}
