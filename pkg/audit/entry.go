package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"hisba-ai/mizan/pkg/compliance"
	"hisba-ai/mizan/pkg/facts"
	"hisba-ai/mizan/pkg/rules"
)

// GenesisHash is the previousHash of the first entry ever appended to an
// empty journal.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// timestampLayout is ISO-8601 UTC with millisecond precision.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Entry is one link of the audit hash chain. Field order matters: the
// journal line serialisation follows this declaration order.
type Entry struct {
	ID           string             `json:"id"`
	Timestamp    string             `json:"timestamp"`
	Input        facts.Map          `json:"input"`
	Output       *rules.Decision    `json:"output"`
	Rule         *rules.Rule        `json:"rule"`
	PreviousHash string             `json:"previousHash"`
	Hash         string             `json:"hash"`
	Compliance   *compliance.Report `json:"compliance,omitempty"`
}

// preImage returns the canonical bytes hashed into the entry's chain hash:
// the entry without its hash field and without compliance data, which is
// attached only after the append and therefore sits outside the sealed
// portion.
func (e *Entry) preImage() ([]byte, error) {
	// Round-trip through the JSON value model so struct tags decide field
	// names and canonicalisation decides ordering.
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("entry is not serialisable: %w", err)
	}

	var tree map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("entry round-trip failed: %w", err)
	}

	delete(tree, "hash")
	delete(tree, "compliance")
	if output, ok := tree["output"].(map[string]any); ok {
		delete(output, "complianceReport")
	}

	return facts.Canonical(tree)
}

// computeHash returns the chain hash for the entry:
// SHA256(previousHash bytes || canonical pre-image bytes).
func (e *Entry) computeHash() (string, error) {
	pre, err := e.preImage()
	if err != nil {
		return "", err
	}

	h := sha256.New()
	h.Write([]byte(e.PreviousHash))
	h.Write(pre)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// wellFormed reports whether the entry's recorded hash matches the hash
// recomputed from its contents.
func (e *Entry) wellFormed() bool {
	computed, err := e.computeHash()
	return err == nil && computed == e.Hash
}
