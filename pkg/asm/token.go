package asm

import (
	"fmt"

	"golmc/pkg/isa"
)

// TokenID indexes a token in its Program's arena.
type TokenID int

// NoToken marks an absent link.
const NoToken TokenID = -1

// NoAddress marks a label or mnemonic whose address has not been assigned.
const NoAddress = -1

type Kind int

const (
	KindText     Kind = iota // whitespace and punctuation
	KindComment              // "#" to end of line
	KindLabel                // label definition
	KindLabelRef             // symbolic argument
	KindNumber               // literal argument
	KindMnemonic             // one of the eleven instructions
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "Text"
	case KindComment:
		return "Comment"
	case KindLabel:
		return "Label"
	case KindLabelRef:
		return "LabelRef"
	case KindNumber:
		return "Number"
	case KindMnemonic:
		return "Mnemonic"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is one lexical element of a source line. Only the fields belonging
// to its Kind are meaningful:
//
//	Label:    Address, Refs
//	LabelRef: Label
//	Number:   Value, Capped
//	Mnemonic: Mnemonic, Arg, Address
type Token struct {
	ID       TokenID
	Kind     Kind
	Text     string
	Pos      Position
	Problems []Problem

	Address  int
	Refs     []TokenID
	Label    TokenID
	Value    int
	Capped   int
	Mnemonic isa.Mnemonic
	Arg      TokenID
}

func newToken(kind Kind, text string, pos Position) Token {
	return Token{
		Kind:    kind,
		Text:    text,
		Pos:     pos,
		Address: NoAddress,
		Label:   NoToken,
		Arg:     NoToken,
	}
}

// Style is the highlighting tag for the token.
func (t Token) Style() string {
	switch t.Kind {
	case KindComment:
		return "comment"
	case KindLabel, KindLabelRef:
		return "label"
	case KindNumber:
		return "number"
	case KindMnemonic:
		return "mnemonic"
	}
	return "text"
}

// IsArgument reports whether the token sits in a mnemonic's argument position.
func (t Token) IsArgument() bool {
	return t.Kind == KindNumber || t.Kind == KindLabelRef
}

func (t Token) InError() bool {
	for _, p := range t.Problems {
		if p.Category() == CategoryError {
			return true
		}
	}
	return false
}

func (t Token) String() string {
	return fmt.Sprintf("<%s(%s) %q>", t.Kind, t.Style(), t.Text)
}

// capped returns the unsigned word form of a literal.
func capped(v int) int {
	if v < 0 {
		return 1000 + v
	}
	return v
}
