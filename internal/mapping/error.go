// internal/mapping/error.go
package mapping

import (
	"fmt"
	"strings"
)

// Problem is one located validation finding.
type Problem struct {
	// Line and Column are best-effort document positions (1-based).
	// Zero means the position is unknown.
	Line   int
	Column int

	// Path names the offending field, e.g. "entities[2].read.address".
	Path string

	Msg string

	// Warning marks a non-fatal finding.
	Warning bool
}

func (p Problem) String() string {
	pos := "unknown position"
	switch {
	case p.Line > 0 && p.Column > 0:
		pos = fmt.Sprintf("line %d, col %d", p.Line, p.Column)
	case p.Line > 0:
		pos = fmt.Sprintf("line %d", p.Line)
	}
	return fmt.Sprintf("%s: %s: %s", pos, p.Path, p.Msg)
}

// Error reports every structural problem found in a mapping document.
// Validation is collect-all: the caller sees the full list, not just the
// first finding.
type Error struct {
	Filename string
	Problems []Problem
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "invalid mapping %s:", e.Filename)
	for _, p := range e.Problems {
		b.WriteString("\n- ")
		b.WriteString(p.String())
	}
	return b.String()
}
