package asm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInError is returned when a program has at least one error-category problem.
var ErrInError = errors.New("program contains errors")

type Category int

const (
	CategoryError Category = iota
	CategoryWarning
)

func (c Category) String() string {
	if c == CategoryError {
		return "error"
	}
	return "warning"
}

type ProblemKind int

const (
	SyntaxError ProblemKind = iota
	SemanticError
	StyleWarning
	RuntimeWarning
)

// Name is the header used when a problem is shown to the user.
func (k ProblemKind) Name() string {
	switch k {
	case SyntaxError:
		return "Syntax Error"
	case SemanticError:
		return "Semantic Error"
	case StyleWarning:
		return "Style Warning"
	case RuntimeWarning:
		return "Runtime Warning"
	}
	return "Problem"
}

func (k ProblemKind) Category() Category {
	if k == SyntaxError || k == SemanticError {
		return CategoryError
	}
	return CategoryWarning
}

// Extra cross-references another token, e.g. the first definition of a
// duplicated label.
type Extra struct {
	Label string
	Token TokenID
	Pos   Position
}

type Problem struct {
	Kind   ProblemKind
	Msg    string
	Pos    Position
	Extras []Extra
}

func (p Problem) Category() Category {
	return p.Kind.Category()
}

func (p Problem) Error() string {
	return fmt.Sprintf("line %d: %s: %s", p.Pos.Line+1, p.Kind.Name(), p.Msg)
}

// Show renders the problem against the source, followed by an excerpt for
// every cross-reference.
func (p Problem) Show(lines []string) string {
	var b strings.Builder
	b.WriteString(p.Pos.Excerpt(lines, ""))
	fmt.Fprintf(&b, "\n%s: %s", p.Kind.Name(), p.Msg)
	for _, e := range p.Extras {
		b.WriteString("\n\n")
		b.WriteString(e.Pos.Excerpt(lines, e.Label+" on line %d:"))
	}
	return b.String()
}

// ProblemList is the error form of a set of error-category problems.
type ProblemList []Problem

func (l ProblemList) Error() string {
	switch len(l) {
	case 0:
		return ErrInError.Error()
	case 1:
		return l[0].Error()
	}
	msgs := make([]string, len(l))
	for i, p := range l {
		msgs[i] = p.Error()
	}
	return fmt.Sprintf("%d errors:\n%s", len(l), strings.Join(msgs, "\n"))
}

func (l ProblemList) Unwrap() error {
	return ErrInError
}
