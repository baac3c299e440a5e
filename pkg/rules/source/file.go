package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"hisba-ai/mizan/pkg/rules"
)

// FileSource loads rules from a JSON file: a top-level array of rule
// objects.
type FileSource struct {
	path   string
	logger *slog.Logger
}

// NewFileSource creates a file-based rule source.
func NewFileSource(path string, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{
		path:   path,
		logger: logger.With("component", "rules.source", "path", path),
	}
}

// Load reads and decodes the rules file. Rule validity is the engine's
// concern; Load only guarantees well-formed JSON.
func (s *FileSource) Load() ([]rules.Rule, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file %q: %w", s.path, err)
	}

	var ruleList []rules.Rule
	if err := json.Unmarshal(data, &ruleList); err != nil {
		return nil, fmt.Errorf("failed to parse rules file %q: %w", s.path, err)
	}
	return ruleList, nil
}

// Apply loads the file into the engine. Compile failures reject the whole
// load and leave the engine's previous set in place.
func (s *FileSource) Apply(engine *rules.Engine) error {
	ruleList, err := s.Load()
	if err != nil {
		return err
	}
	if err := engine.LoadRules(ruleList); err != nil {
		return fmt.Errorf("rules file %q rejected: %w", s.path, err)
	}
	return nil
}

// Watch blocks until the context is done, hot-reloading the engine whenever
// the rules file changes. A failed reload keeps the previously loaded set
// and logs the failure.
//
// The watch is registered on the parent directory so that atomic
// rename-into-place deploys are observed.
func (s *FileSource) Watch(ctx context.Context, engine *rules.Engine) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create rules watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", dir, err)
	}

	target := filepath.Clean(s.path)
	s.logger.Info("watching rules file for changes")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			if err := s.Apply(engine); err != nil {
				s.logger.Warn("rules reload failed, keeping previous set", "error", err)
				continue
			}
			s.logger.Info("rules reloaded", "rule_count", engine.Size())

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("rules watcher error", "error", err)
		}
	}
}
