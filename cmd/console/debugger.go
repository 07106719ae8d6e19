package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golmc/pkg/asm"
	"golmc/pkg/cpu"
	"golmc/pkg/grid"
	"golmc/pkg/isa"
	"golmc/pkg/utils"
)

const helpText = `commands:
  step [n]             execute n instructions (default 1)
  continue [max]       run until a breakpoint, INP or HLT
  run [max]            run until INP or HLT, passing over breakpoints
  input VALUE          answer a pending INP
  break ADDR STATE     set a cell breakpoint (ADDR may be "acc")
  bline LINE STATE     set a breakpoint on a source line
  set ADDR VALUE       overwrite a cell
  mem                  show memory
  regs                 show accumulator, counter and halt reason
  src ADDR             show the source of a cell
  reset                rewind to the loaded program
  back                 undo the last step, run or edit
  reload               re-read and re-assemble the source file
  quit                 leave
STATE is one of off, execute, read, write (or x, r, w).`

const maxHistory = 1000

var (
	errUsage     = errors.New("usage")
	errNoHistory = errors.New("nothing to undo")
)

// debugger drives a Runner from text commands.
type debugger struct {
	runner  *cpu.Runner
	asm     *asm.Assembler
	path    string
	lines   map[int]cpu.BreakpointState
	history []cpu.Checkpoint
	out     io.Writer
	pal     utils.Palette
}

func newDebugger(out io.Writer, pal utils.Palette) *debugger {
	d := &debugger{out: out, pal: pal, lines: map[int]cpu.BreakpointState{}}
	d.runner = cpu.NewRunner(func(o cpu.Output) {
		if o.Kind == cpu.OutputDone {
			fmt.Fprintln(d.out, pal.Blue(o.Text))
			return
		}
		fmt.Fprintln(d.out, pal.Green(">>> "+o.Text))
	})
	return d
}

// load assembles path and loads it, keeping line breakpoints.
func (d *debugger) load(path string) error {
	src, err := utils.ReadSource(path)
	if err != nil {
		return err
	}
	a := asm.New()
	a.UpdateCode(src)
	a.Assemble()
	for _, p := range a.Problems() {
		text := p.Show(a.Lines())
		if p.Category() == asm.CategoryError {
			text = d.pal.Red(text)
		} else {
			text = d.pal.Yellow(text)
		}
		fmt.Fprintf(d.out, "%s\n\n", text)
	}
	if err := d.runner.LoadCode(a); err != nil {
		return err
	}
	d.asm = a
	d.path = path
	d.history = nil
	if len(d.lines) > 0 {
		return d.runner.LoadBreakpoints(d.lines)
	}
	return nil
}

// exec runs one command line. quit reports a request to leave.
func (d *debugger) exec(line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "q", "quit", "exit":
		return true, nil
	case "h", "help", "?":
		fmt.Fprintln(d.out, helpText)
	case "s", "step":
		n, err := optionalInt(args, 1)
		if err != nil {
			return false, err
		}
		d.remember()
		for i := 0; i < n; i++ {
			if _, err := d.runner.NextStep(); err != nil {
				return false, err
			}
			d.showHint()
			if d.runner.HaltReason() != cpu.HaltStep {
				break
			}
		}
		d.showHalt()
	case "c", "continue":
		return false, d.run(args, d.runner.Continue)
	case "r", "run":
		return false, d.run(args, d.runner.Run)
	case "i", "input":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: input VALUE", errUsage)
		}
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return false, err
		}
		d.remember()
		if err := d.runner.GiveInput(v); err != nil {
			return false, err
		}
		d.showHalt()
	case "b", "break":
		if len(args) != 2 {
			return false, fmt.Errorf("%w: break ADDR STATE", errUsage)
		}
		addr, err := parseAddress(args[0])
		if err != nil {
			return false, err
		}
		state, err := cpu.ParseBreakpointState(args[1])
		if err != nil {
			return false, err
		}
		return false, d.runner.SetBreakpoint(addr, state)
	case "bline":
		if len(args) != 2 {
			return false, fmt.Errorf("%w: bline LINE STATE", errUsage)
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return false, fmt.Errorf("bad line %q", args[0])
		}
		state, err := cpu.ParseBreakpointState(args[1])
		if err != nil {
			return false, err
		}
		if state == cpu.BreakOff {
			delete(d.lines, n-1)
		} else {
			d.lines[n-1] = state
		}
		return false, d.runner.LoadBreakpoints(d.lines)
	case "set":
		if len(args) != 2 {
			return false, fmt.Errorf("%w: set ADDR VALUE", errUsage)
		}
		addr, err := parseAddress(args[0])
		if err != nil {
			return false, err
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return false, err
		}
		d.remember()
		return false, d.runner.SetMemory(addr, v)
	case "m", "mem":
		d.showMemory()
	case "regs":
		d.showRegisters()
	case "src":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: src ADDR", errUsage)
		}
		addr, err := parseAddress(args[0])
		if err != nil {
			return false, err
		}
		t, ok := d.runner.SourceToken(addr)
		if !ok || d.asm == nil {
			return false, fmt.Errorf("no source for address %d", addr)
		}
		fmt.Fprintln(d.out, t.Pos.Excerpt(d.asm.Lines(), ""))
	case "reset":
		d.runner.Reset()
		d.history = nil
	case "back":
		if len(d.history) == 0 {
			return false, errNoHistory
		}
		last := d.history[len(d.history)-1]
		d.history = d.history[:len(d.history)-1]
		if err := d.runner.Restore(last); err != nil {
			return false, err
		}
		d.showRegisters()
	case "reload":
		if d.path == "" {
			return false, errors.New("no source file loaded")
		}
		return false, d.load(d.path)
	default:
		return false, fmt.Errorf("unknown command %q, try help", cmd)
	}
	return false, nil
}

func (d *debugger) run(args []string, fn func(int) (cpu.HaltReason, error)) error {
	limit, err := optionalInt(args, 0)
	if err != nil {
		return err
	}
	d.remember()
	if _, err := fn(limit); err != nil && !errors.Is(err, cpu.ErrStepLimit) {
		return err
	}
	d.showHint()
	d.showHalt()
	return nil
}

// remember records the current state for back. Failed commands leave a
// redundant entry.
func (d *debugger) remember() {
	c, err := d.runner.Checkpoint()
	if err != nil {
		return
	}
	if len(d.history) == maxHistory {
		d.history = d.history[1:]
	}
	d.history = append(d.history, c)
}

func (d *debugger) showHint() {
	if h := d.runner.Hint(); h != "" {
		fmt.Fprintln(d.out, d.pal.Bold(h))
	}
}

func (d *debugger) showHalt() {
	switch d.runner.HaltReason() {
	case cpu.HaltInput:
		fmt.Fprintln(d.out, d.pal.Yellow("waiting for input"))
	case cpu.HaltBreakpoint:
		for _, m := range d.runner.HitBreakpoints() {
			fmt.Fprintln(d.out, d.pal.Yellow(fmt.Sprintf("breakpoint: %s on %s", m.Name(), m.Breakpoint)))
		}
	}
}

func (d *debugger) showRegisters() {
	r := d.runner
	fmt.Fprintf(d.out, "acc %03d (%d)  counter %02d  halt %s  steps %d\n",
		r.Accumulator.Value, isa.FromComplement(r.Accumulator.Value), r.Counter, r.HaltReason(), r.Steps())
}

func (d *debugger) showMemory() {
	const cols = 10
	var b strings.Builder
	for i, m := range d.runner.Memory {
		x, _ := grid.GetGridCoords(i, cols)
		if x == 0 {
			fmt.Fprintf(&b, "%02d ", i)
		}
		b.WriteString(" " + d.colorCell(m))
		if x == cols-1 {
			b.WriteByte('\n')
		}
	}
	fmt.Fprint(d.out, b.String())
	d.showRegisters()
}

func (d *debugger) colorCell(m *cpu.MemoryValue) string {
	s := fmt.Sprintf("%03d", m.Value)
	if m.Breakpoint != cpu.BreakOff {
		s = d.pal.Bold(s)
	}
	switch m.State {
	case cpu.StateNextExec:
		return d.pal.Yellow(s)
	case cpu.StateExecuted:
		return d.pal.Green(s)
	case cpu.StateRead:
		return d.pal.Blue(s)
	case cpu.StateWritten:
		return d.pal.Red(s)
	}
	return s
}

func optionalInt(args []string, def int) (int, error) {
	if len(args) == 0 {
		return def, nil
	}
	return strconv.Atoi(args[0])
}

func parseAddress(s string) (int, error) {
	if s == "acc" {
		return cpu.AccumulatorAddress, nil
	}
	addr, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bad address %q", s)
	}
	return addr, nil
}
