package asm

import (
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	"golmc/pkg/isa"
)

// Program is a parsed source: every token lives in Tokens and is referred
// to elsewhere by its TokenID.
type Program struct {
	Lines        [][]TokenID
	Tokens       []Token
	Labels       map[string]TokenID
	Instructions []TokenID
}

// Token returns the token with the given id.
func (p *Program) Token(id TokenID) Token {
	return p.Tokens[id]
}

// Problems lists every diagnostic in source order.
func (p *Program) Problems() []Problem {
	var out []Problem
	for _, line := range p.Lines {
		for _, id := range line {
			out = append(out, p.Tokens[id].Problems...)
		}
	}
	return out
}

// Errors returns the error-category problems, or nil.
func (p *Program) Errors() error {
	var list ProblemList
	for _, prob := range p.Problems() {
		if prob.Category() == CategoryError {
			list = append(list, prob)
		}
	}
	if len(list) == 0 {
		return nil
	}
	return list
}

func (p *Program) InError() bool {
	for _, t := range p.Tokens {
		if t.InError() {
			return true
		}
	}
	return false
}

// TokenAt finds the token whose span is exactly pos.
func (p *Program) TokenAt(pos Position) (Token, bool) {
	if pos.Line < 0 || pos.Line >= len(p.Lines) {
		return Token{}, false
	}
	for _, id := range p.Lines[pos.Line] {
		if p.Tokens[id].Pos == pos {
			return p.Tokens[id], true
		}
	}
	return Token{}, false
}

func (p *Program) report(id TokenID, kind ProblemKind, msg string, extras ...Extra) {
	t := &p.Tokens[id]
	t.Problems = append(t.Problems, Problem{Kind: kind, Msg: msg, Pos: t.Pos, Extras: extras})
}

func (p *Program) extra(label string, id TokenID) Extra {
	return Extra{Label: label, Token: id, Pos: p.Tokens[id].Pos}
}

// lineState tracks which statement fields a line has already filled.
type lineState struct {
	label    bool
	mnemonic bool
	argument bool
}

// builder classifies raw tokens into typed ones. Links between tokens are
// left for resolve.
type builder struct {
	tokens []Token
	lines  [][]TokenID
	labels map[string]TokenID
}

func build(raw [][]string) *builder {
	b := &builder{labels: make(map[string]TokenID)}
	for lineNo, line := range raw {
		var st lineState
		ids := make([]TokenID, 0, len(line))
		col := 0
		for _, text := range line {
			n := utf8.RuneCountInString(text)
			pos := Position{Line: lineNo, Start: col, End: col + n}
			col += n
			ids = append(ids, b.classify(text, pos, &st))
		}
		b.lines = append(b.lines, ids)
	}
	return b
}

func (b *builder) add(t Token) TokenID {
	t.ID = TokenID(len(b.tokens))
	b.tokens = append(b.tokens, t)
	return t.ID
}

func problem(kind ProblemKind, msg string, pos Position, extras ...Extra) Problem {
	return Problem{Kind: kind, Msg: msg, Pos: pos, Extras: extras}
}

func (b *builder) classify(text string, pos Position, st *lineState) TokenID {
	first, _ := utf8.DecodeRuneInString(text)
	switch {
	case text == "":
		return b.add(newToken(KindText, text, pos))
	case isWordRune(first):
		if m, ok := isa.Lookup(text); ok {
			return b.mnemonic(m, text, pos, st)
		}
		if st.mnemonic {
			return b.argument(text, pos, st)
		}
		return b.label(text, pos, st)
	case first == '#':
		return b.add(newToken(KindComment, text, pos))
	}
	return b.add(newToken(KindText, text, pos))
}

func (b *builder) mnemonic(m isa.Mnemonic, text string, pos Position, st *lineState) TokenID {
	t := newToken(KindMnemonic, text, pos)
	t.Mnemonic = m
	if st.mnemonic {
		t.Problems = append(t.Problems, problem(SyntaxError, "Multiple mnemonics on one line", pos))
	}
	if text != string(m) {
		t.Problems = append(t.Problems, problem(StyleWarning, "Mnemonics should be uppercase", pos))
	}
	st.mnemonic = true
	return b.add(t)
}

func (b *builder) argument(text string, pos Position, st *lineState) TokenID {
	var t Token
	if v, ok := parseLiteral(text); ok {
		t = newToken(KindNumber, text, pos)
		t.Value = v
		t.Capped = capped(v)
		if v > isa.MaxValue {
			t.Problems = append(t.Problems, problem(SemanticError, fmt.Sprintf("Number too large (> %d)", isa.MaxValue), pos))
		}
		if v < isa.MinValue {
			t.Problems = append(t.Problems, problem(SemanticError, fmt.Sprintf("Number too small (< %d)", isa.MinValue), pos))
		}
	} else {
		t = newToken(KindLabelRef, text, pos)
	}
	if st.argument {
		t.Problems = append(t.Problems, problem(SyntaxError, "Multiple arguments for mnemonic", pos))
	}
	st.argument = true
	return b.add(t)
}

func (b *builder) label(text string, pos Position, st *lineState) TokenID {
	t := newToken(KindLabel, text, pos)
	if st.label {
		t.Problems = append(t.Problems, problem(SyntaxError, "Multiple labels for one line", pos))
	}
	first, dup := b.labels[text]
	if dup {
		prev := b.tokens[first]
		t.Problems = append(t.Problems, problem(SemanticError, "Duplicate label", pos,
			Extra{Label: "First defined", Token: first, Pos: prev.Pos}))
	}
	st.label = true
	id := b.add(t)
	if !dup {
		b.labels[text] = id
	}
	return id
}

// parseLiteral parses a decimal integer argument. Values too large for an
// int still count as numbers so the range check can report them.
func parseLiteral(text string) (int, bool) {
	v, err := strconv.Atoi(text)
	if err == nil {
		return v, true
	}
	var ne *strconv.NumError
	if errors.As(err, &ne) && errors.Is(ne.Err, strconv.ErrRange) {
		return v, true
	}
	return 0, false
}

// resolve links label references, arguments and addresses on a copy of the
// built tokens and returns the resulting Program.
func resolve(b *builder) *Program {
	p := &Program{
		Lines:  b.lines,
		Tokens: make([]Token, len(b.tokens)),
		Labels: b.labels,
	}
	for i, t := range b.tokens {
		t.Problems = append([]Problem(nil), t.Problems...)
		p.Tokens[i] = t
	}

	address := 0
	for _, line := range p.Lines {
		arg := NoToken
		for _, id := range line {
			if p.Tokens[id].IsArgument() {
				arg = id
				break
			}
		}

		for _, id := range line {
			switch p.Tokens[id].Kind {
			case KindLabelRef:
				p.linkLabel(id)
			case KindLabel:
				p.Tokens[id].Address = address
			case KindMnemonic:
				if address == isa.MemorySize {
					p.report(id, SemanticError, fmt.Sprintf("Program does not fit in memory (more than %d instructions)", isa.MemorySize))
				}
				p.Tokens[id].Address = address
				p.Instructions = append(p.Instructions, id)
				address++
				p.linkArgument(id, arg)
			}
		}
	}
	p.checkLabelAddresses()
	return p
}

// checkLabelAddresses rejects label arguments that point past the end of
// memory, which happens when a label follows a full program. DAT may still
// store such an address as a plain value.
func (p *Program) checkLabelAddresses() {
	for _, id := range p.Instructions {
		m := p.Tokens[id]
		if m.Mnemonic == isa.DAT || m.Arg == NoToken || p.Tokens[m.Arg].Kind != KindLabelRef {
			continue
		}
		if addr, ok := p.operand(m); ok && addr >= isa.MemorySize {
			p.report(m.Arg, SemanticError, fmt.Sprintf("Address out of range (0-%d)", isa.MemorySize-1))
		}
	}
}

func (p *Program) linkLabel(id TokenID) {
	lbl, ok := p.Labels[p.Tokens[id].Text]
	if !ok {
		p.report(id, SemanticError, "Label not defined")
		return
	}
	p.Tokens[id].Label = lbl
	p.Tokens[lbl].Refs = append(p.Tokens[lbl].Refs, id)
}

func (p *Program) linkArgument(id, arg TokenID) {
	m := p.Tokens[id].Mnemonic
	if arg == NoToken {
		if m.NeedsArg() {
			p.report(id, SyntaxError, "Mnemonic takes an argument")
		}
		return
	}
	if !m.TakesArg() {
		p.report(id, SyntaxError, "Mnemonic does not take an argument")
		return
	}
	p.Tokens[id].Arg = arg

	a := p.Tokens[arg]
	if m != isa.DAT && a.Kind == KindNumber && a.Value >= isa.MinValue && a.Value <= isa.MaxValue &&
		(a.Value < 0 || a.Value >= isa.MemorySize) {
		p.report(arg, SemanticError, fmt.Sprintf("Address out of range (0-%d)", isa.MemorySize-1))
	}
}

// operand resolves a mnemonic's argument to its unsigned value.
func (p *Program) operand(t Token) (int, bool) {
	if t.Arg == NoToken {
		return 0, false
	}
	a := p.Tokens[t.Arg]
	switch a.Kind {
	case KindNumber:
		return a.Capped, true
	case KindLabelRef:
		if a.Label == NoToken {
			return 0, false
		}
		addr := p.Tokens[a.Label].Address
		return addr, addr != NoAddress
	}
	return 0, false
}

// Parse runs every pass over already tokenized lines.
func Parse(raw [][]string) *Program {
	p := resolve(build(raw))
	p.analyze()
	return p
}
