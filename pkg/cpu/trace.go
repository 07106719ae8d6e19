package cpu

import (
	"fmt"
	"strings"
)

// TraceLevel selects how much the Runner writes to its Logger.
type TraceLevel int

const (
	TraceOff    TraceLevel = iota
	TraceLow               // one hint per instruction
	TraceMedium            // plus the fetched instruction, registers and memory
	TraceHigh              // plus counter movement
)

func (l TraceLevel) String() string {
	switch l {
	case TraceOff:
		return "off"
	case TraceLow:
		return "low"
	case TraceMedium:
		return "medium"
	case TraceHigh:
		return "high"
	}
	return fmt.Sprintf("TraceLevel(%d)", int(l))
}

func (r *Runner) trace(level TraceLevel, format string, args ...any) {
	if r.Logger == nil || level > r.TraceLevel || level == TraceOff {
		return
	}
	r.Logger.Printf(format, args...)
}

func (r *Runner) traceHigh(format string, args ...any) {
	r.trace(TraceHigh, format, args...)
}

func (r *Runner) traceMedium(instruction int) {
	if r.Logger == nil || r.TraceLevel < TraceMedium {
		return
	}
	r.trace(TraceMedium, "Next instruction is %03d", instruction)
	r.trace(TraceMedium, "Memory: %s", r.DumpMemory())
	r.trace(TraceMedium, "Accumulator: %03d", r.Accumulator.Value)
	r.trace(TraceMedium, "Counter: %d", r.Counter)
}

func (r *Runner) traceBreakpoints() {
	for _, m := range r.HitBreakpoints() {
		r.trace(TraceLow, "Breakpoint: %s on %s", m.Name(), m.Breakpoint)
	}
}

// DumpMemory formats every cell as "addr: value".
func (r *Runner) DumpMemory() string {
	parts := make([]string, len(r.Memory))
	for i, m := range r.Memory {
		parts[i] = fmt.Sprintf("%d: %03d", i, m.Value)
	}
	return strings.Join(parts, ", ")
}
