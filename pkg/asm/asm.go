package asm

// State records how far an Assembler has processed its current source.
type State int

const (
	StateFresh State = iota
	StateTokenized
	StateParsed
	StateAssembled
)

func (s State) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateTokenized:
		return "tokenized"
	case StateParsed:
		return "parsed"
	case StateAssembled:
		return "assembled"
	}
	return "unknown"
}

// Assembler holds one source text and the results derived from it. Each
// stage runs at most once per source; UpdateCode discards everything.
type Assembler struct {
	lines     []string
	state     State
	tokenized [][]string
	program   *Program
	image     Image
}

func New() *Assembler {
	return &Assembler{}
}

// Assemble assembles code in one go. The error is a ProblemList when the
// program contains errors.
func Assemble(code string) (Image, *Program, error) {
	a := New()
	a.UpdateCode(code)
	img := a.Assemble()
	return img, a.program, a.program.Errors()
}

func (a *Assembler) UpdateCode(code string) {
	a.UpdateLines(splitLines(code))
}

func (a *Assembler) UpdateLines(lines []string) {
	a.lines = append([]string(nil), lines...)
	a.state = StateFresh
	a.tokenized = nil
	a.program = nil
	a.image = Image{}
}

func (a *Assembler) State() State {
	return a.state
}

// Lines returns the source lines, indexed like Position.Line.
func (a *Assembler) Lines() []string {
	return a.lines
}

func (a *Assembler) Tokenize() [][]string {
	if a.state >= StateTokenized {
		return a.tokenized
	}
	a.tokenized = make([][]string, len(a.lines))
	for i, line := range a.lines {
		a.tokenized[i] = Tokenize(line)
	}
	a.state = StateTokenized
	return a.tokenized
}

func (a *Assembler) Parse() *Program {
	if a.state >= StateParsed {
		return a.program
	}
	a.program = Parse(a.Tokenize())
	a.state = StateParsed
	return a.program
}

// Assemble returns the machine image. It is all zeros when InError is true.
func (a *Assembler) Assemble() Image {
	if a.state >= StateAssembled {
		return a.image
	}
	a.image = a.Parse().generate()
	a.state = StateAssembled
	return a.image
}

func (a *Assembler) Problems() []Problem {
	return a.Parse().Problems()
}

func (a *Assembler) InError() bool {
	return a.Parse().InError()
}

func (a *Assembler) TokenAt(pos Position) (Token, bool) {
	return a.Parse().TokenAt(pos)
}

// Instructions returns the mnemonic tokens in address order.
func (a *Assembler) Instructions() []Token {
	p := a.Parse()
	out := make([]Token, len(p.Instructions))
	for i, id := range p.Instructions {
		out[i] = p.Tokens[id]
	}
	return out
}
