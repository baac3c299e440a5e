package expr

import (
	"fmt"
	"strings"
)

// ParseError describes a syntax error detected while compiling an expression.
// It carries the byte offset of the offending token and the full source,
// which Error prints with a caret under that offset.
type ParseError struct {
	// Src is the full expression source.
	Src string

	// Pos is the byte offset of the error within Src.
	Pos int

	// Message describes what went wrong.
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s\n  %s\n  %s^",
		e.Pos, e.Message, e.Src, strings.Repeat(" ", clamp(e.Pos, 0, len(e.Src))))
}

func newParseError(src string, pos int, message string) *ParseError {
	return &ParseError{Src: src, Pos: pos, Message: message}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
