// Package isa describes the fixed eleven-mnemonic instruction set shared by
// the assembler and the runner.
package isa

import (
	"strconv"
	"strings"
)

// MemorySize is the number of words in a machine image.
const MemorySize = 100

// Signed range of a literal argument and of a decoded memory word.
const (
	MinValue = -500
	MaxValue = 499
)

type Mnemonic string

const (
	HLT Mnemonic = "HLT"
	ADD Mnemonic = "ADD"
	SUB Mnemonic = "SUB"
	STA Mnemonic = "STA"
	LDA Mnemonic = "LDA"
	BRA Mnemonic = "BRA"
	BRZ Mnemonic = "BRZ"
	BRP Mnemonic = "BRP"
	INP Mnemonic = "INP"
	OUT Mnemonic = "OUT"
	DAT Mnemonic = "DAT"
)

// Info holds the numeric template of a mnemonic ("1xx", "901", "xxx") and the
// descriptions shown in tooltips and dumps.
type Info struct {
	Template string
	Short    string
	Long     string
}

var table = map[Mnemonic]Info{
	HLT: {"000", "Halt", "Stop the processor. Every program should end with this."},
	ADD: {"1xx", "Add", "Add the contents of address `xx` to the accumulator"},
	SUB: {"2xx", "Subtract", "Subtract the contents of address `xx` from the accumulator"},
	STA: {"3xx", "Store", "Store the value of the accumulator to address `xx`"},
	LDA: {"5xx", "Load", "Load the value at address `xx` into the accumulator"},
	BRA: {"6xx", "Branch", "Unconditionally set the program counter to `xx`"},
	BRZ: {"7xx", "Branch if zero", "Set the program counter to `xx` if the accumulator is `0`"},
	BRP: {"8xx", "Branch if positive", "Set the program counter to `xx` if the accumulator is `0` or greater"},
	INP: {"901", "Input", "Set the accumulator to a value supplied by the user"},
	OUT: {"902", "Output", "Output the value of the accumulator"},
	DAT: {"xxx", "Data declaration", "Set the value at its address to `xxx`. Defaults to `0`"},
}

// Mnemonics lists the instruction set in opcode order.
var Mnemonics = []Mnemonic{HLT, ADD, SUB, STA, LDA, BRA, BRZ, BRP, INP, OUT, DAT}

// Lookup matches text against the instruction set, ignoring case.
func Lookup(text string) (Mnemonic, bool) {
	m := Mnemonic(strings.ToUpper(text))
	_, ok := table[m]
	return m, ok
}

func (m Mnemonic) Info() Info {
	return table[m]
}

// TakesArg reports whether the mnemonic has an operand field.
func (m Mnemonic) TakesArg() bool {
	return strings.Contains(table[m].Template, "x")
}

// NeedsArg reports whether the operand is mandatory. DAT's is optional.
func (m Mnemonic) NeedsArg() bool {
	return m.TakesArg() && m != DAT
}

func (m Mnemonic) IsBranch() bool {
	return m == BRA || m == BRZ || m == BRP
}

// Encode builds the machine word for m with the given unsigned operand.
// Operands are ignored by mnemonics without an operand field.
func Encode(m Mnemonic, operand int) (int, bool) {
	info, ok := table[m]
	if !ok {
		return 0, false
	}
	if !m.TakesArg() {
		v, err := strconv.Atoi(info.Template)
		return v, err == nil
	}
	prefix := strings.ReplaceAll(info.Template, "x", "")
	digits := strconv.Itoa(operand)
	if len(digits) < 2 {
		digits = "0" + digits
	}
	v, err := strconv.Atoi(prefix + digits)
	if err != nil || v < 0 || v >= 1000 {
		return 0, false
	}
	return v, true
}

// ToComplement maps a signed value onto the unsigned [0, 999] word range.
func ToComplement(i int) int {
	return ((1000+i)%1000 + 1000) % 1000
}

// FromComplement maps a word back to its signed value; words >= 500 are negative.
func FromComplement(i int) int {
	if i >= 500 {
		return i - 1000
	}
	return i
}
