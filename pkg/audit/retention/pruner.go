// Package retention prunes the audit archive on a cron schedule.
//
// Retention applies only to the derived SQLite archive: pruning the JSONL
// journal would sever the hash chain and destroy verifiability, so the
// journal is never touched here.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"hisba-ai/mizan/pkg/audit/archive"
)

// Config controls the pruning schedule and window.
type Config struct {
	// Schedule is a standard cron expression, e.g. "0 3 * * *" for daily
	// at 03:00. Empty disables scheduled pruning.
	Schedule string `yaml:"schedule"`

	// RetentionDays is the age beyond which archive rows are pruned.
	// Default: 90.
	RetentionDays int `yaml:"retention_days"`
}

// Pruner deletes archive rows older than the retention window.
type Pruner struct {
	mirror *archive.Mirror
	cfg    Config
	cron   *cron.Cron
	logger *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewPruner creates a pruner over the given archive.
func NewPruner(mirror *archive.Mirror, cfg Config, logger *slog.Logger) *Pruner {
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 90
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{
		mirror: mirror,
		cfg:    cfg,
		cron:   cron.New(),
		logger: logger.With("component", "audit.retention"),
	}
}

// PruneOnce deletes rows older than the retention window and returns the
// number removed.
func (p *Pruner) PruneOnce(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -p.cfg.RetentionDays).Format("2006-01-02T15:04:05.000Z")

	deleted, err := p.mirror.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	p.logger.Info("archive pruned", "deleted", deleted, "cutoff", cutoff)
	return deleted, nil
}

// Start schedules pruning per the configured cron expression and returns
// immediately. With an empty schedule it does nothing. The scheduler stops
// when the context is done.
func (p *Pruner) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cfg.Schedule == "" {
		p.logger.Info("prune schedule not configured, skipping scheduler")
		return nil
	}
	if p.running {
		return nil
	}

	if _, err := cron.ParseStandard(p.cfg.Schedule); err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", p.cfg.Schedule, err)
	}

	if _, err := p.cron.AddFunc(p.cfg.Schedule, func() {
		if _, err := p.PruneOnce(ctx); err != nil {
			p.logger.Error("scheduled prune failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule pruning: %w", err)
	}

	p.cron.Start()
	p.running = true
	p.logger.Info("retention scheduler started",
		"schedule", p.cfg.Schedule,
		"retention_days", p.cfg.RetentionDays,
	)

	go func() {
		<-ctx.Done()
		p.Stop()
	}()
	return nil
}

// Stop halts the scheduler, waiting for an in-flight prune to finish.
func (p *Pruner) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	<-p.cron.Stop().Done()
	p.running = false
	p.logger.Info("retention scheduler stopped")
}
