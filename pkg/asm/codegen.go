package asm

import "golmc/pkg/isa"

// Image is an assembled program padded to the full memory size.
type Image struct {
	Code   [isa.MemorySize]int
	Length int // instructions before padding
}

// MachineInstruction computes the machine word for a mnemonic token. It
// returns false when a required argument cannot be resolved.
func (p *Program) MachineInstruction(id TokenID) (int, bool) {
	t := p.Tokens[id]
	if t.Kind != KindMnemonic {
		return 0, false
	}
	if !t.Mnemonic.TakesArg() {
		return isa.Encode(t.Mnemonic, 0)
	}
	operand, ok := p.operand(t)
	if !ok {
		if t.Mnemonic != isa.DAT {
			return 0, false
		}
		operand = 0
	}
	return isa.Encode(t.Mnemonic, operand)
}

// generate emits one word per instruction. A program in error, or one with
// an instruction that cannot be encoded, yields an all-zero image of
// length 0.
func (p *Program) generate() Image {
	var img Image
	if p.InError() {
		return img
	}
	for i, id := range p.Instructions {
		if i >= isa.MemorySize {
			return Image{}
		}
		v, ok := p.MachineInstruction(id)
		if !ok {
			return Image{}
		}
		img.Code[i] = v
		img.Length++
	}
	return img
}

// Words returns the instructions without padding.
func (img Image) Words() []int {
	out := make([]int, img.Length)
	copy(out, img.Code[:img.Length])
	return out
}
