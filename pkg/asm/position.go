package asm

import (
	"fmt"
	"strings"
)

// Position is a span of columns on one source line. Line, Start and End are
// 0-based; End is exclusive. Columns count runes, not bytes.
type Position struct {
	Line  int
	Start int
	End   int
}

func (p Position) Length() int {
	return p.End - p.Start
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d-%d", p.Line+1, p.Start+1, p.End+1)
}

// Excerpt renders the source line under a header built from format (which
// receives the 1-based line number) with a caret run under the span:
//
//	On line 3:
//	    LOOP BRZ LOOP
//	         ^^^
func (p Position) Excerpt(lines []string, format string) string {
	if format == "" {
		format = "On line %d:"
	}
	var text string
	if p.Line >= 0 && p.Line < len(lines) {
		text = lines[p.Line]
	}
	var b strings.Builder
	fmt.Fprintf(&b, format, p.Line+1)
	b.WriteString("\n    ")
	b.WriteString(text)
	b.WriteString("\n    ")
	b.WriteString(strings.Repeat(" ", max(p.Start, 0)))
	b.WriteString(strings.Repeat("^", max(p.Length(), 1)))
	return b.String()
}
