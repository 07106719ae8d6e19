package cpu

import "golmc/pkg/isa"

// Checkpoint is a copy of the runner state that stepping changes. Loaded
// values, breakpoints and source links are not part of it, so a checkpoint
// is only meaningful for the program it was taken from.
type Checkpoint struct {
	counter         int
	instructionAddr int
	accumulator     int
	accState        ValueState
	halt            HaltReason
	fault           error
	hint            string
	steps           int
	values          [isa.MemorySize]int
	states          [isa.MemorySize]ValueState
}

// Steps is the step count at the time the checkpoint was taken.
func (c Checkpoint) Steps() int {
	return c.steps
}

func (r *Runner) Checkpoint() (Checkpoint, error) {
	if !r.loaded {
		return Checkpoint{}, ErrNotLoaded
	}
	c := Checkpoint{
		counter:         r.Counter,
		instructionAddr: r.InstructionAddr,
		accumulator:     r.Accumulator.Value,
		accState:        r.Accumulator.State,
		halt:            r.halt,
		fault:           r.fault,
		hint:            r.hint,
		steps:           r.steps,
	}
	for i, m := range r.Memory {
		c.values[i] = m.Value
		c.states[i] = m.State
	}
	return c, nil
}

// Restore rewinds the runner to c.
func (r *Runner) Restore(c Checkpoint) error {
	if !r.loaded {
		return ErrNotLoaded
	}
	if c.counter < 0 || c.counter >= isa.MemorySize {
		return ErrInvalidAddress
	}
	r.Counter = c.counter
	r.InstructionAddr = c.instructionAddr
	r.Accumulator.Value = c.accumulator
	r.Accumulator.State = c.accState
	r.halt = c.halt
	r.fault = c.fault
	r.hint = c.hint
	r.steps = c.steps
	for i, m := range r.Memory {
		m.Value = c.values[i]
		m.State = c.states[i]
	}
	return nil
}
