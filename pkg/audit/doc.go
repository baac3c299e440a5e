// Package audit implements the tamper-evident decision journal.
//
// Every decision append produces an Entry whose hash covers the previous
// entry's hash, forming a SHA-256 chain anchored at the 64-zero genesis
// value. Deleting, reordering, or editing any journal line breaks the chain
// for every later entry and is detected by VerifyFull.
//
// Entries are persisted as line-delimited JSON. The hash pre-image is the
// canonical (sorted-key) encoding of the entry without its hash field and
// without any compliance report; reports are attached after the append, so
// they are deliberately outside the sealed portion.
//
// The log is single-writer, multi-reader: Append serialises the chain
// pointer advance and the file write under one lock, while Verify, Query,
// Size, and the disk-reading variants may run concurrently. A failed file
// write degrades the log (the in-memory chain continues and Degraded
// reports true) instead of failing the decision; the journal is a sidecar
// to the decision, not a gatekeeper.
package audit
