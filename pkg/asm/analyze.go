package asm

import (
	"fmt"

	"golmc/pkg/isa"
)

// analyze attaches warnings for code that assembles but is unlikely to
// behave as intended. It never adds errors.
func (p *Program) analyze() {
	p.checkHalt()
	p.checkLoops()
	p.checkNumericAddresses()
	p.checkTrailingData()
	p.checkDataAccess()
}

func (p *Program) checkHalt() {
	for _, id := range p.Instructions {
		if p.Tokens[id].Mnemonic == isa.HLT {
			return
		}
	}
	for i := len(p.Lines) - 1; i >= 0; i-- {
		if line := p.Lines[i]; len(line) > 0 {
			p.report(line[len(line)-1], RuntimeWarning, "No HLT instruction, execution will run past the end of the program")
			return
		}
	}
}

// checkLoops flags backward branches whose loop body contains no other
// branch. For BRZ and BRP only a branch to itself is flagged, since the
// accumulator cannot change before the condition is tested again.
func (p *Program) checkLoops() {
	for _, id := range p.Instructions {
		m := p.Tokens[id]
		if !m.Mnemonic.IsBranch() {
			continue
		}
		target, ok := p.operand(m)
		if !ok || target >= len(p.Instructions) || target > m.Address {
			continue
		}
		if m.Mnemonic != isa.BRA && target != m.Address {
			continue
		}
		exits := false
		for _, other := range p.Instructions[target:m.Address] {
			if p.Tokens[other].Mnemonic.IsBranch() {
				exits = true
				break
			}
		}
		if !exits {
			p.report(id, RuntimeWarning, "Possible infinite loop", p.extra("Loop starts", p.Instructions[target]))
		}
	}
}

// checkNumericAddresses skips literals outside memory, which resolve has
// already reported as errors.
func (p *Program) checkNumericAddresses() {
	for _, id := range p.Instructions {
		m := p.Tokens[id]
		if m.Mnemonic == isa.DAT || m.Arg == NoToken || p.Tokens[m.Arg].Kind != KindNumber {
			continue
		}
		if v := p.Tokens[m.Arg].Value; v < 0 || v >= isa.MemorySize {
			continue
		}
		if p.Tokens[m.Arg].Capped >= len(p.Instructions) {
			p.report(m.Arg, RuntimeWarning, "Address does not point at an initialised position")
		} else {
			p.report(m.Arg, StyleWarning, "Use labels instead of numerical addresses")
		}
	}
}

func (p *Program) checkTrailingData() {
	last := -1
	for i, id := range p.Instructions {
		if p.Tokens[id].Mnemonic != isa.DAT {
			last = i
		}
	}
	for _, id := range p.Instructions[:max(last, 0)] {
		if p.Tokens[id].Mnemonic == isa.DAT {
			p.report(id, StyleWarning, "DAT not at end of program")
		}
	}
}

func (p *Program) checkDataAccess() {
	for _, id := range p.Instructions {
		m := p.Tokens[id]
		var action string
		switch m.Mnemonic {
		case isa.LDA:
			action = "load from"
		case isa.STA:
			action = "store to"
		default:
			continue
		}
		target, ok := p.operand(m)
		if !ok || target >= len(p.Instructions) {
			continue
		}
		tid := p.Instructions[target]
		if p.Tokens[tid].Mnemonic != isa.DAT {
			p.report(id, RuntimeWarning, fmt.Sprintf("%s will not %s a DAT instruction", m.Mnemonic, action),
				p.extra("Target", tid))
		}
	}
}
