package cpu

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strconv"

	"golmc/pkg/asm"
	"golmc/pkg/isa"
)

var (
	ErrNotLoaded        = errors.New("no program loaded")
	ErrHalted           = errors.New("runner has halted")
	ErrAwaitingInput    = errors.New("runner is waiting for input")
	ErrNotAwaitingInput = errors.New("runner is not waiting for input")
	ErrInputRange       = errors.New("value out of range (-500 to 499)")
	ErrInvalidAddress   = errors.New("address out of range (0-99)")
	ErrStepLimit        = errors.New("step limit reached")
)

// InvalidInstructionError is the fatal decode failure. Pos is the source
// span of the cell's mnemonic when HasPos is set.
type InvalidInstructionError struct {
	Address int
	Value   int
	Pos     asm.Position
	HasPos  bool
}

func (e *InvalidInstructionError) Error() string {
	if e.HasPos {
		return fmt.Sprintf("invalid instruction %03d at address %02d (line %d)", e.Value, e.Address, e.Pos.Line+1)
	}
	return fmt.Sprintf("invalid instruction %03d at address %02d", e.Value, e.Address)
}

type HaltReason int

const (
	HaltStep HaltReason = iota
	HaltHLT
	HaltInput
	HaltBreakpoint
)

func (h HaltReason) String() string {
	switch h {
	case HaltStep:
		return "step"
	case HaltHLT:
		return "hlt"
	case HaltInput:
		return "input"
	case HaltBreakpoint:
		return "breakpoint"
	}
	return fmt.Sprintf("HaltReason(%d)", int(h))
}

type OutputKind int

const (
	OutputValue OutputKind = iota // OUT
	OutputDone                    // HLT
)

// DoneMessage is the text emitted with OutputDone.
const DoneMessage = "Done! Coffee break!"

type Output struct {
	Kind  OutputKind
	Value int
	Text  string
}

type OutputFunc func(Output)

// Runner executes a 100-word image one instruction at a time, tracking the
// last access of every cell for display and breakpoints.
type Runner struct {
	Memory      [isa.MemorySize]*MemoryValue
	Accumulator *MemoryValue

	Counter         int
	InstructionAddr int

	// Output receives OUT values and the HLT message. If nil, values are
	// printed to Stdout.
	Output OutputFunc
	Stdout io.Writer

	Logger     *log.Logger
	TraceLevel TraceLevel

	program *asm.Program
	loaded  bool
	halt    HaltReason
	fault   error
	hint    string
	steps   int
}

func NewRunner(out OutputFunc) *Runner {
	r := &Runner{Output: out, Accumulator: newMemoryValue(AccumulatorAddress)}
	for i := range r.Memory {
		r.Memory[i] = newMemoryValue(i)
	}
	return r
}

func (r *Runner) emit(o Output) {
	if r.Output != nil {
		r.Output(o)
		return
	}
	w := r.Stdout
	if w == nil {
		w = os.Stdout
	}
	fmt.Fprintln(w, ">>>", o.Text)
}

// LoadCode assembles a and loads its image, keeping a link from every cell
// to the mnemonic it came from. Breakpoints are kept.
func (r *Runner) LoadCode(a *asm.Assembler) error {
	img := a.Assemble()
	p := a.Parse()
	if err := p.Errors(); err != nil {
		return fmt.Errorf("load code: %w", err)
	}
	r.LoadImage(img)
	r.program = p
	for addr, id := range p.Instructions {
		if addr < isa.MemorySize {
			r.Memory[addr].Source = id
		}
	}
	return nil
}

// LoadImage loads a bare image with no source links.
func (r *Runner) LoadImage(img asm.Image) {
	r.program = nil
	for i, m := range r.Memory {
		m.Initial = img.Code[i]
		m.Source = asm.NoToken
	}
	r.loaded = true
	r.Reset()
}

// Program returns the parsed source of the loaded code, or nil for an image.
func (r *Runner) Program() *asm.Program {
	return r.program
}

// SourceToken returns the mnemonic that produced the cell at addr.
func (r *Runner) SourceToken(addr int) (asm.Token, bool) {
	if r.program == nil || addr < 0 || addr >= isa.MemorySize || r.Memory[addr].Source == asm.NoToken {
		return asm.Token{}, false
	}
	return r.program.Token(r.Memory[addr].Source), true
}

// Reset restores every cell to its loaded value and rewinds to address 0.
func (r *Runner) Reset() {
	r.Counter = 0
	r.InstructionAddr = 0
	r.halt = HaltStep
	r.fault = nil
	r.hint = ""
	r.steps = 0
	r.Accumulator.Reset()
	for _, m := range r.Memory {
		m.Reset()
	}
	r.Memory[r.Counter].State = StateNextExec
}

func (r *Runner) HaltReason() HaltReason {
	return r.halt
}

// Hint describes the last executed instruction.
func (r *Runner) Hint() string {
	return r.hint
}

// Steps counts instructions executed since the last Reset.
func (r *Runner) Steps() int {
	return r.steps
}

func (r *Runner) cell(addr int) (*MemoryValue, error) {
	if addr == AccumulatorAddress {
		return r.Accumulator, nil
	}
	if addr < 0 || addr >= isa.MemorySize {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAddress, addr)
	}
	return r.Memory[addr], nil
}

// SetBreakpoint sets the breakpoint of a memory cell, or of the accumulator
// when addr is AccumulatorAddress.
func (r *Runner) SetBreakpoint(addr int, state BreakpointState) error {
	m, err := r.cell(addr)
	if err != nil {
		return err
	}
	m.Breakpoint = state
	return nil
}

// LoadBreakpoints replaces the memory breakpoints with breakpoints given by
// source line. A breakpoint binds to the first instruction on or after its
// line; breakpoints past the last instruction are dropped.
func (r *Runner) LoadBreakpoints(lines map[int]BreakpointState) error {
	if r.program == nil {
		return ErrNotLoaded
	}
	for _, m := range r.Memory {
		m.Breakpoint = BreakOff
	}
	pending := make([]int, 0, len(lines))
	for l := range lines {
		pending = append(pending, l)
	}
	sort.Ints(pending)

	for _, id := range r.program.Instructions {
		t := r.program.Token(id)
		if t.Address < 0 || t.Address >= isa.MemorySize {
			continue
		}
		for len(pending) > 0 && pending[0] <= t.Pos.Line {
			r.Memory[t.Address].Breakpoint = lines[pending[0]]
			pending = pending[1:]
		}
	}
	return nil
}

// SetMemory overwrites a cell. value may be signed ([-500, 499]) or a raw
// word ([0, 999]). The loaded value that Reset restores is unchanged.
func (r *Runner) SetMemory(addr, value int) error {
	m, err := r.cell(addr)
	if err != nil {
		return err
	}
	if value < isa.MinValue || value > 999 {
		return fmt.Errorf("%w: %d", ErrInputRange, value)
	}
	m.Value = isa.ToComplement(value)
	return nil
}

// HitBreakpoints lists every cell, accumulator last, whose breakpoint
// matches its current state.
func (r *Runner) HitBreakpoints() []*MemoryValue {
	var hit []*MemoryValue
	for _, m := range r.Memory {
		if m.HitBreakpoint() {
			hit = append(hit, m)
		}
	}
	if r.Accumulator.HitBreakpoint() {
		hit = append(hit, r.Accumulator)
	}
	return hit
}

// NextStep executes the instruction at Counter.
func (r *Runner) NextStep() (HaltReason, error) {
	if !r.loaded {
		return r.halt, ErrNotLoaded
	}
	switch {
	case r.fault != nil, r.halt == HaltHLT:
		return r.halt, ErrHalted
	case r.halt == HaltInput:
		return r.halt, ErrAwaitingInput
	}

	for _, m := range r.Memory {
		m.ResetState()
	}
	r.Accumulator.ResetState()

	r.traceHigh("Executing next instruction at %03d", r.Counter)
	instruction := r.Memory[r.Counter].execute()
	r.traceMedium(instruction)
	r.InstructionAddr = r.Counter
	r.Counter = (r.Counter + 1) % isa.MemorySize
	r.traceHigh("Incrementing counter to %d", r.Counter)
	r.steps++

	addr := instruction % 100
	acc := r.Accumulator
	r.halt = HaltStep

	switch {
	case instruction == 0:
		r.hint = "HLT"
		r.emit(Output{Kind: OutputDone, Text: DoneMessage})
		r.halt = HaltHLT

	case instruction < 100:
		return r.invalid(instruction)

	case instruction < 200:
		memval := r.Memory[addr].read()
		value := isa.ToComplement(acc.read() + memval)
		r.hint = fmt.Sprintf("ADD %03d: accumulator = %03d (accumulator) + %03d (#%03d) = %03d", addr, acc.Value, memval, addr, value)
		acc.write(value)

	case instruction < 300:
		memval := r.Memory[addr].read()
		value := isa.ToComplement(acc.read() - memval)
		r.hint = fmt.Sprintf("SUB %03d: accumulator = %03d (accumulator) - %03d (#%03d) = %03d", addr, acc.Value, memval, addr, value)
		acc.write(value)

	case instruction < 400:
		r.hint = fmt.Sprintf("STA %03d: store %03d (accumulator) to #%03d", addr, acc.Value, addr)
		r.Memory[addr].write(acc.read())

	case instruction < 500:
		return r.invalid(instruction)

	case instruction < 600:
		memval := r.Memory[addr].read()
		r.hint = fmt.Sprintf("LDA %03d: load %03d (#%03d) to accumulator", addr, memval, addr)
		acc.write(memval)

	case instruction < 700:
		r.hint = fmt.Sprintf("BRA %03d: branch to #%03d", addr, addr)
		r.Counter = addr

	case instruction < 800:
		if acc.read() == 0 {
			r.hint = fmt.Sprintf("BRZ %03d: %03d (accumulator) == 000, so branch to #%03d", addr, acc.Value, addr)
			r.Counter = addr
		} else {
			r.hint = fmt.Sprintf("BRZ %03d: %03d (accumulator) != 000, so don't branch to #%03d", addr, acc.Value, addr)
		}

	case instruction < 900:
		if acc.read() < 500 {
			r.hint = fmt.Sprintf("BRP %03d: %03d (accumulator) < 500, so branch to #%03d", addr, acc.Value, addr)
			r.Counter = addr
		} else {
			r.hint = fmt.Sprintf("BRP %03d: %03d (accumulator) >= 500, so don't branch to #%03d", addr, acc.Value, addr)
		}

	case instruction == 901:
		r.hint = "INP"
		r.halt = HaltInput

	case instruction == 902:
		r.hint = "OUT"
		v := isa.FromComplement(acc.read())
		r.emit(Output{Kind: OutputValue, Value: v, Text: strconv.Itoa(v)})

	default:
		return r.invalid(instruction)
	}

	if next := r.Memory[r.Counter]; next.State == StateNormal {
		next.State = StateNextExec
	}
	r.trace(TraceLow, "%s", r.hint)

	if r.halt == HaltStep && len(r.HitBreakpoints()) > 0 {
		r.halt = HaltBreakpoint
		r.traceBreakpoints()
	}
	return r.halt, nil
}

func (r *Runner) invalid(instruction int) (HaltReason, error) {
	err := &InvalidInstructionError{Address: r.InstructionAddr, Value: instruction}
	if t, ok := r.SourceToken(r.InstructionAddr); ok {
		err.Pos = t.Pos
		err.HasPos = true
	}
	r.fault = err
	r.halt = HaltHLT
	r.hint = fmt.Sprintf("Invalid instruction %03d", instruction)
	return r.halt, err
}

// GiveInput supplies the value for a pending INP.
func (r *Runner) GiveInput(value int) error {
	if r.halt != HaltInput {
		return ErrNotAwaitingInput
	}
	if value < isa.MinValue || value > isa.MaxValue {
		return fmt.Errorf("%w: %d", ErrInputRange, value)
	}
	r.Accumulator.write(value)
	r.trace(TraceLow, "INP: accumulator = %03d", r.Accumulator.Value)
	r.halt = HaltStep
	if len(r.HitBreakpoints()) > 0 {
		r.halt = HaltBreakpoint
		r.traceBreakpoints()
	}
	return nil
}

// Run steps until HLT or INP, passing over breakpoints. A maxSteps of zero
// or less means no limit.
func (r *Runner) Run(maxSteps int) (HaltReason, error) {
	return r.loop(maxSteps, func(h HaltReason) bool { return h == HaltHLT || h == HaltInput })
}

// Continue steps until anything other than a plain step happens.
func (r *Runner) Continue(maxSteps int) (HaltReason, error) {
	return r.loop(maxSteps, func(h HaltReason) bool { return h != HaltStep })
}

func (r *Runner) loop(maxSteps int, stop func(HaltReason) bool) (HaltReason, error) {
	for n := 0; maxSteps <= 0 || n < maxSteps; n++ {
		h, err := r.NextStep()
		if err != nil || stop(h) {
			return h, err
		}
	}
	return r.halt, ErrStepLimit
}
