package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"hisba-ai/mizan/pkg/compliance"
)

func TestLoad_ValidFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")

	content := `
rules:
  path: "./policies/rules.json"
  watch: true

audit:
  path: "./data/audit.jsonl"
  archive:
    enabled: true
    sqlite:
      path: "./data/audit.db"
  retention:
    schedule: "0 3 * * *"
    retention_days: 30

compliance:
  frameworks: [PDPL, DUBAI_AI_LAW]
  language: "ar"
  audit_level: "basic"
  data_residency: "UAE"

llm:
  base_url: "http://localhost:11434/v1"
  model: "qwen2"
  timeout: "30s"

logging:
  level: "debug"
  format: "json"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Rules.Path != "./policies/rules.json" || !cfg.Rules.Watch {
		t.Errorf("rules config = %+v", cfg.Rules)
	}
	if cfg.Audit.Retention.RetentionDays != 30 {
		t.Errorf("retention days = %d", cfg.Audit.Retention.RetentionDays)
	}
	if cfg.Compliance.Language != compliance.LanguageArabic {
		t.Errorf("language = %s", cfg.Compliance.Language)
	}
	if cfg.Compliance.DataResidency != compliance.ResidencyUAE {
		t.Errorf("residency = %s", cfg.Compliance.DataResidency)
	}
	if cfg.LLM.Timeout != 30*time.Second {
		t.Errorf("llm timeout = %v", cfg.LLM.Timeout)
	}
	if len(cfg.Compliance.Frameworks) != 2 {
		t.Errorf("frameworks = %v", cfg.Compliance.Frameworks)
	}
}

func TestLoad_InvalidValuesRejected(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad language", "compliance:\n  language: klingon\n"},
		{"bad audit level", "compliance:\n  audit_level: extreme\n"},
		{"bad residency", "compliance:\n  data_residency: MOON\n"},
		{"unknown framework", "compliance:\n  frameworks: [GDPR]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Load accepted invalid configuration")
			}
		})
	}
}

func TestDefault_AppliesDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Audit.Path == "" {
		t.Error("default audit path is empty")
	}
	if cfg.Compliance.Language != compliance.LanguageBoth {
		t.Errorf("default language = %s", cfg.Compliance.Language)
	}
	if len(cfg.Compliance.Frameworks) != 4 {
		t.Errorf("default frameworks = %v", cfg.Compliance.Frameworks)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("AUDIT_PATH", "/var/log/mizan/audit.jsonl")
	t.Setenv("MIZAN_LOG_LEVEL", "error")

	cfg := Default()

	if cfg.Audit.Path != "/var/log/mizan/audit.jsonl" {
		t.Errorf("AUDIT_PATH override not applied: %s", cfg.Audit.Path)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("MIZAN_LOG_LEVEL override not applied: %s", cfg.Logging.Level)
	}
}
