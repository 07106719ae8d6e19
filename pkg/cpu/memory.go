package cpu

import (
	"fmt"

	"golmc/pkg/asm"
	"golmc/pkg/isa"
)

// ValueState is the last access a cell saw during the current step.
type ValueState int

const (
	StateNormal ValueState = iota
	StateRead
	StateWritten
	StateExecuted
	StateNextExec
)

func (s ValueState) String() string {
	switch s {
	case StateNormal:
		return "nothing"
	case StateRead:
		return "read"
	case StateWritten:
		return "written"
	case StateExecuted:
		return "executed"
	case StateNextExec:
		return "executed next"
	}
	return fmt.Sprintf("ValueState(%d)", int(s))
}

type BreakpointState int

const (
	BreakOff BreakpointState = iota
	BreakExecute
	BreakRead
	BreakWrite
)

func (b BreakpointState) String() string {
	switch b {
	case BreakOff:
		return "off"
	case BreakExecute:
		return "execute"
	case BreakRead:
		return "read"
	case BreakWrite:
		return "write"
	}
	return fmt.Sprintf("BreakpointState(%d)", int(b))
}

// ParseBreakpointState accepts the names printed by BreakpointState.String.
func ParseBreakpointState(s string) (BreakpointState, error) {
	switch s {
	case "off", "":
		return BreakOff, nil
	case "execute", "x":
		return BreakExecute, nil
	case "read", "r":
		return BreakRead, nil
	case "write", "w":
		return BreakWrite, nil
	}
	return BreakOff, fmt.Errorf("unknown breakpoint kind %q", s)
}

// AccumulatorAddress is the Address of the accumulator cell.
const AccumulatorAddress = -1

// MemoryValue is one breakable cell: a memory word or the accumulator.
// Values are stored in complement form, always in [0, 999].
type MemoryValue struct {
	Address    int
	Source     asm.TokenID
	Initial    int
	Value      int
	State      ValueState
	Breakpoint BreakpointState
}

func newMemoryValue(addr int) *MemoryValue {
	return &MemoryValue{Address: addr, Source: asm.NoToken}
}

// Reset restores the assembled value and clears the access state. The
// breakpoint survives.
func (m *MemoryValue) Reset() {
	m.Value = m.Initial
	m.State = StateNormal
}

func (m *MemoryValue) ResetState() {
	m.State = StateNormal
}

func (m *MemoryValue) read() int {
	m.State = StateRead
	return m.Value
}

func (m *MemoryValue) write(v int) {
	m.State = StateWritten
	m.Value = isa.ToComplement(v)
}

func (m *MemoryValue) execute() int {
	m.State = StateExecuted
	return m.Value
}

// HitBreakpoint reports whether the cell's breakpoint matches its state.
func (m *MemoryValue) HitBreakpoint() bool {
	switch m.Breakpoint {
	case BreakExecute:
		return m.State == StateExecuted
	case BreakRead:
		return m.State == StateRead
	case BreakWrite:
		return m.State == StateWritten
	}
	return false
}

// Name is "acc" for the accumulator and the zero-padded address otherwise.
func (m *MemoryValue) Name() string {
	if m.Address == AccumulatorAddress {
		return "acc"
	}
	return fmt.Sprintf("%03d", m.Address)
}
