package source

import (
	"os"
	"path/filepath"
	"testing"

	"hisba-ai/mizan/pkg/rules"
)

func writeRules(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "rules.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write rules file: %v", err)
	}
	return path
}

func TestFileSource_LoadAndApply(t *testing.T) {
	path := writeRules(t, t.TempDir(), `[
		{"id": "r1", "name": "High", "condition": "score >= 80", "action": "APPROVED", "priority": 1, "reason": "High"},
		{"id": "r2", "name": "Low", "condition": "score < 30", "action": "REJECTED", "priority": 2, "reason": "Low"}
	]`)

	engine := rules.NewEngine(nil)
	if err := NewFileSource(path, nil).Apply(engine); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if engine.Size() != 2 {
		t.Errorf("engine size = %d, want 2", engine.Size())
	}
}

func TestFileSource_MalformedJSON(t *testing.T) {
	path := writeRules(t, t.TempDir(), `{not json`)

	if _, err := NewFileSource(path, nil).Load(); err == nil {
		t.Error("Load accepted malformed JSON")
	}
}

func TestFileSource_BadRuleKeepsPreviousSet(t *testing.T) {
	dir := t.TempDir()
	path := writeRules(t, dir, `[
		{"id": "good", "condition": "x > 0", "action": "APPROVED", "priority": 1}
	]`)

	engine := rules.NewEngine(nil)
	src := NewFileSource(path, nil)
	if err := src.Apply(engine); err != nil {
		t.Fatalf("initial Apply failed: %v", err)
	}

	writeRules(t, dir, `[
		{"id": "broken", "condition": "x >", "action": "APPROVED", "priority": 1}
	]`)
	if err := src.Apply(engine); err == nil {
		t.Fatal("Apply accepted an uncompilable rule")
	}

	if engine.Size() != 1 {
		t.Errorf("engine size = %d after failed reload, want the previous set", engine.Size())
	}
}

func TestGitVersion_OutsideRepository(t *testing.T) {
	path := writeRules(t, t.TempDir(), `[]`)

	info, err := GitVersion(path)
	if err != nil {
		t.Fatalf("GitVersion failed: %v", err)
	}
	if info != nil {
		t.Errorf("GitVersion = %+v outside a repository, want nil", info)
	}
}
