package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"hisba-ai/mizan/pkg/facts"
	"hisba-ai/mizan/pkg/rules"
)

// DefaultPath is the journal location used when neither configuration nor
// the AUDIT_PATH environment variable overrides it.
const DefaultPath = "./data/audit.jsonl"

// CorruptError reports a journal line that failed to parse.
type CorruptError struct {
	Path string
	Line int
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupt journal %s: line %d: %v", e.Path, e.Line, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

// Option configures Open.
type Option func(*Log)

// WithPreload loads the full journal history into memory at Open, so Verify
// and Query cover pre-restart entries.
func WithPreload() Option {
	return func(l *Log) { l.preload = true }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Log) { l.logger = logger }
}

// Log is the append-only, hash-chained decision journal.
type Log struct {
	path    string
	preload bool
	logger  *slog.Logger

	// mu guards the chain pointer, the entry list, the file handle, and
	// the degraded flag. Append holds it across the pointer advance and
	// the file write; readers take it shared.
	mu           sync.RWMutex
	file         *os.File
	previousHash string
	entries      []*Entry
	degraded     bool

	// now is the clock, replaceable in tests.
	now func() time.Time
}

// Open opens (creating as needed) the journal at path and restores chain
// continuity.
//
// By default every line is parsed but only the last entry is kept: its hash
// becomes the chain pointer and the in-memory list starts empty, so a
// restarted process appends onto the existing chain without holding history
// in memory. WithPreload keeps every parsed entry in memory instead. An
// absent or empty file starts the chain at the genesis value. A malformed
// line anywhere in the file aborts Open with a *CorruptError; silently
// restarting a damaged chain would mask tampering.
func Open(path string, opts ...Option) (*Log, error) {
	l := &Log{
		path:         path,
		previousHash: GenesisHash,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	l.logger = l.logger.With("component", "audit.log", "path", path)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	if err := l.restore(); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	l.file = file

	l.logger.Info("audit log opened",
		"preload", l.preload,
		"resumed", l.previousHash != GenesisHash,
		"entries_in_memory", len(l.entries),
	)
	return l, nil
}

// restore rebuilds the chain pointer (and, with preload, the entry list)
// from the journal on disk.
func (l *Log) restore() error {
	entries, err := readJournal(l.path, l.preload)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	l.previousHash = entries[len(entries)-1].Hash
	if l.preload {
		l.entries = entries
	}
	return nil
}

// Close closes the journal file handle. The log must not be appended to
// afterwards.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Append seals the decision and its input into a new chain entry, writes it
// to the journal, advances the chain pointer, and returns the entry.
//
// The entry id is the decision's audit id, or a fresh identifier when the
// decision carries none. A failed journal write does not fail the append:
// the entry still joins the in-memory chain and the log is marked degraded.
func (l *Log) Append(decision *rules.Decision, input facts.Map) (*Entry, error) {
	id := decision.AuditID
	if id == "" {
		id = uuid.NewString()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry := &Entry{
		ID:           id,
		Timestamp:    l.now().UTC().Format(timestampLayout),
		Input:        input,
		Output:       decision,
		Rule:         decision.MatchedRule,
		PreviousHash: l.previousHash,
	}

	hash, err := entry.computeHash()
	if err != nil {
		return nil, fmt.Errorf("failed to hash audit entry: %w", err)
	}
	entry.Hash = hash

	if err := l.writeLine(entry); err != nil {
		l.degraded = true
		l.logger.Error("journal write failed, audit log degraded", "error", err, "entry_id", entry.ID)
	}

	l.previousHash = entry.Hash
	l.entries = append(l.entries, entry)
	return entry, nil
}

func (l *Log) writeLine(entry *Entry) error {
	if l.file == nil {
		return errors.New("journal file is closed")
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	line = append(line, '\n')
	_, err = l.file.Write(line)
	return err
}

// Degraded reports whether any journal write has failed since Open. A
// degraded log still chains entries in memory but the on-disk journal is
// incomplete.
func (l *Log) Degraded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.degraded
}

// Size returns the number of in-memory entries.
func (l *Log) Size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Entries returns a snapshot of the in-memory entry list.
func (l *Log) Entries() []*Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Verify checks the continuity of the in-memory chain: every entry's
// previousHash must equal its predecessor's hash and every recorded hash
// must match its recomputed value. The chain is anchored at the first
// in-memory entry's previousHash, which is not necessarily genesis after a
// restart. Verify is a continuity check; VerifyFull is the authoritative
// integrity check.
//
// An empty list is vacuously valid.
func (l *Log) Verify() bool {
	return l.BrokenAt() == -1
}

// BrokenAt returns the index of the first in-memory entry that fails
// verification, or -1 when the chain is intact.
func (l *Log) BrokenAt() int {
	entries := l.Entries()
	if len(entries) == 0 {
		return -1
	}
	return verifyChain(entries, entries[0].PreviousHash)
}

// VerifyFull parses the journal from disk and verifies the whole chain from
// the genesis value. This is the authoritative tamper check; it never
// mutates the journal.
func (l *Log) VerifyFull() bool {
	return l.BrokenAtFull() == -1
}

// BrokenAtFull returns the index of the first on-disk entry that fails
// verification, or -1 when the chain is intact. A journal that cannot be
// parsed reports index 0.
func (l *Log) BrokenAtFull() int {
	entries, err := readJournal(l.path, true)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return -1
		}
		return 0
	}
	if len(entries) == 0 {
		return -1
	}
	return verifyChain(entries, GenesisHash)
}

// verifyChain returns the index of the first entry breaking the chain
// anchored at anchor, or -1.
func verifyChain(entries []*Entry, anchor string) int {
	previous := anchor
	for i, entry := range entries {
		if entry.PreviousHash != previous {
			return i
		}
		if !entry.wellFormed() {
			return i
		}
		previous = entry.Hash
	}
	return -1
}

// Filter selects entries for Query and QueryFromDisk. Zero-valued fields
// match everything; set fields combine by conjunction.
type Filter struct {
	// StartDate and EndDate are inclusive ISO-8601 timestamp bounds,
	// compared as strings (the timestamp format is lexicographically
	// ordered).
	StartDate string
	EndDate   string

	// Result filters by decision result.
	Result rules.Action
}

func (f *Filter) matches(entry *Entry) bool {
	if f.StartDate != "" && entry.Timestamp < f.StartDate {
		return false
	}
	if f.EndDate != "" && entry.Timestamp > f.EndDate {
		return false
	}
	if f.Result != "" && (entry.Output == nil || entry.Output.Result != f.Result) {
		return false
	}
	return true
}

// Query returns the in-memory entries matching the filter.
func (l *Log) Query(filter Filter) []*Entry {
	var out []*Entry
	for _, entry := range l.Entries() {
		if filter.matches(entry) {
			out = append(out, entry)
		}
	}
	return out
}

// QueryFromDisk parses the journal and returns the on-disk entries matching
// the filter, independent of the in-memory state.
func (l *Log) QueryFromDisk(filter Filter) ([]*Entry, error) {
	entries, err := readJournal(l.path, true)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var out []*Entry
	for _, entry := range entries {
		if filter.matches(entry) {
			out = append(out, entry)
		}
	}
	return out, nil
}

// readJournal parses the journal file. With all=false only the final entry
// is returned (tail restore); with all=true every entry is.
func readJournal(path string, all bool) ([]*Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var entries []*Entry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, &CorruptError{Path: path, Line: lineNo, Err: err}
		}

		if all {
			entries = append(entries, &entry)
		} else {
			entries = entries[:0]
			entries = append(entries, &entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read journal %s: %w", path, err)
	}

	return entries, nil
}
