package cpu

import (
	"bytes"
	"errors"
	"log"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golmc/pkg/asm"
)

// loadSource assembles src into a runner that records its output.
func loadSource(t *testing.T, src string) (*Runner, *[]Output) {
	t.Helper()
	out := &[]Output{}
	r := NewRunner(func(o Output) { *out = append(*out, o) })
	a := asm.New()
	a.UpdateCode(src)
	require.NoError(t, r.LoadCode(a))
	return r, out
}

// loadWords loads raw machine words starting at address 0.
func loadWords(words ...int) *Runner {
	var img asm.Image
	copy(img.Code[:], words)
	img.Length = len(words)
	r := NewRunner(func(Output) {})
	r.LoadImage(img)
	return r
}

func step(t *testing.T, r *Runner, want HaltReason) {
	t.Helper()
	got, err := r.NextStep()
	require.NoError(t, err)
	require.Equal(t, want, got, "hint: %s", r.Hint())
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name  string
		words []int
		acc   int
		hint  string
	}{
		{"add wraps", []int{503, 104, 0, 999, 2}, 1, "ADD 004: accumulator = 999 (accumulator) + 002 (#004) = 001"},
		{"add", []int{503, 104, 0, 10, 3}, 13, "ADD 004: accumulator = 010 (accumulator) + 003 (#004) = 013"},
		{"sub wraps", []int{503, 204, 0, 0, 1}, 999, "SUB 004: accumulator = 000 (accumulator) - 001 (#004) = 999"},
		{"sub negative operand", []int{503, 204, 0, 5, 998}, 7, "SUB 004: accumulator = 005 (accumulator) - 998 (#004) = 007"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)
			r := loadWords(tc.words...)
			step(t, r, HaltStep)
			step(t, r, HaltStep)
			assert.Equal(tc.acc, r.Accumulator.Value)
			assert.Equal(tc.hint, r.Hint())
			assert.Equal(StateRead, r.Memory[4].State)
			assert.Equal(StateWritten, r.Accumulator.State)
			assert.Equal(StateExecuted, r.Memory[1].State)
			assert.Equal(StateNextExec, r.Memory[2].State)
			assert.Equal(StateNormal, r.Memory[0].State)
		})
	}
}

func TestStoreAndLoad(t *testing.T) {
	assert := assert.New(t)
	r, _ := loadSource(t, "        LDA x\n        STA y\n        HLT\nx       DAT -3\ny       DAT")

	step(t, r, HaltStep)
	assert.Equal(997, r.Accumulator.Value)
	assert.Equal("LDA 003: load 997 (#003) to accumulator", r.Hint())
	assert.Equal(StateRead, r.Memory[3].State)

	step(t, r, HaltStep)
	assert.Equal(997, r.Memory[4].Value)
	assert.Equal(StateWritten, r.Memory[4].State)
	assert.Equal(StateRead, r.Accumulator.State)
	assert.Equal("STA 004: store 997 (accumulator) to #004", r.Hint())
}

func TestBranches(t *testing.T) {
	tests := []struct {
		name    string
		words   []int
		steps   int
		counter int
		hint    string
	}{
		{"bra", []int{605}, 1, 5, "BRA 005: branch to #005"},
		{"brz taken", []int{705}, 1, 5, "BRZ 005: 000 (accumulator) == 000, so branch to #005"},
		{"brz not taken", []int{509, 705, 0, 0, 0, 0, 0, 0, 0, 1}, 2, 2, "BRZ 005: 001 (accumulator) != 000, so don't branch to #005"},
		{"brp taken", []int{509, 805, 0, 0, 0, 0, 0, 0, 0, 499}, 2, 5, "BRP 005: 499 (accumulator) < 500, so branch to #005"},
		{"brp not taken", []int{509, 805, 0, 0, 0, 0, 0, 0, 0, 500}, 2, 2, "BRP 005: 500 (accumulator) >= 500, so don't branch to #005"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := loadWords(tc.words...)
			for i := 0; i < tc.steps; i++ {
				step(t, r, HaltStep)
			}
			assert.Equal(t, tc.counter, r.Counter)
			assert.Equal(t, tc.hint, r.Hint())
			assert.Equal(t, StateNextExec, r.Memory[tc.counter].State)
		})
	}
}

func TestSelfLoop(t *testing.T) {
	assert := assert.New(t)
	r, _ := loadSource(t, "LOOP BRZ LOOP\nHLT")
	for i := 0; i < 5; i++ {
		step(t, r, HaltStep)
		assert.Equal(0, r.Counter)
		assert.Equal(0, r.InstructionAddr)
	}

	require.NoError(t, r.SetBreakpoint(0, BreakExecute))
	step(t, r, HaltBreakpoint)
}

func TestInputSuspendResume(t *testing.T) {
	assert := assert.New(t)
	r, out := loadSource(t, "INP\nOUT\nHLT")

	step(t, r, HaltInput)
	assert.Equal(1, r.Counter)
	_, err := r.NextStep()
	assert.ErrorIs(err, ErrAwaitingInput)

	assert.ErrorIs(r.GiveInput(500), ErrInputRange)
	assert.NoError(r.GiveInput(42))
	assert.Equal(42, r.Accumulator.Value)
	assert.Equal(1, r.Counter)
	assert.Equal(HaltStep, r.HaltReason())
	assert.ErrorIs(r.GiveInput(1), ErrNotAwaitingInput)

	step(t, r, HaltStep)
	step(t, r, HaltHLT)
	assert.Equal([]Output{
		{Kind: OutputValue, Value: 42, Text: "42"},
		{Kind: OutputDone, Text: DoneMessage},
	}, *out)

	_, err = r.NextStep()
	assert.ErrorIs(err, ErrHalted)
}

func TestNegativeInput(t *testing.T) {
	r, out := loadSource(t, "INP\nOUT\nHLT")
	step(t, r, HaltInput)
	require.NoError(t, r.GiveInput(-42))
	assert.Equal(t, 958, r.Accumulator.Value)
	step(t, r, HaltStep)
	assert.Equal(t, -42, (*out)[0].Value)
}

const breakProgram = `        LDA x
        STA y
        OUT
        HLT
x       DAT 5
y       DAT
`

func TestBreakpoints(t *testing.T) {
	tests := []struct {
		name   string
		addr   int
		state  BreakpointState
		breaks []int // 1-based steps that report a breakpoint
	}{
		{"execute", 2, BreakExecute, []int{3}},
		{"read", 4, BreakRead, []int{1}},
		{"write", 5, BreakWrite, []int{2}},
		{"accumulator write", AccumulatorAddress, BreakWrite, []int{1}},
		{"accumulator read", AccumulatorAddress, BreakRead, []int{2, 3}},
		{"never hit", 5, BreakRead, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := loadSource(t, breakProgram)
			require.NoError(t, r.SetBreakpoint(tc.addr, tc.state))
			for n := 1; n <= 3; n++ {
				want := HaltStep
				if slices.Contains(tc.breaks, n) {
					want = HaltBreakpoint
				}
				step(t, r, want)
				if want == HaltBreakpoint {
					hit := r.HitBreakpoints()
					require.Len(t, hit, 1)
					assert.Equal(t, tc.addr, hit[0].Address)
				}
			}
			step(t, r, HaltHLT)
		})
	}
}

func TestBreakpointOnHaltIsIgnored(t *testing.T) {
	r, _ := loadSource(t, "HLT")
	require.NoError(t, r.SetBreakpoint(0, BreakExecute))
	step(t, r, HaltHLT)
}

func TestBreakpointAfterInput(t *testing.T) {
	r, _ := loadSource(t, "INP\nHLT")
	require.NoError(t, r.SetBreakpoint(AccumulatorAddress, BreakWrite))
	step(t, r, HaltInput)
	require.NoError(t, r.GiveInput(3))
	assert.Equal(t, HaltBreakpoint, r.HaltReason())
}

func TestRunAndContinue(t *testing.T) {
	assert := assert.New(t)
	r, out := loadSource(t, breakProgram)
	require.NoError(t, r.SetBreakpoint(4, BreakRead))

	h, err := r.Continue(0)
	assert.NoError(err)
	assert.Equal(HaltBreakpoint, h)
	assert.Equal(1, r.Steps())

	r.Reset()
	h, err = r.Run(0)
	assert.NoError(err)
	assert.Equal(HaltHLT, h)
	assert.Equal(4, r.Steps())
	assert.Len(*out, 2)

	loop, _ := loadSource(t, "LOOP BRA LOOP")
	_, err = loop.Run(10)
	assert.ErrorIs(err, ErrStepLimit)
	assert.Equal(10, loop.Steps())
}

func TestLoadBreakpoints(t *testing.T) {
	assert := assert.New(t)
	src := "# header\n        INP\n\n        OUT\n        HLT\n"
	r, _ := loadSource(t, src)
	require.NoError(t, r.SetBreakpoint(5, BreakWrite))
	require.NoError(t, r.SetBreakpoint(AccumulatorAddress, BreakRead))

	require.NoError(t, r.LoadBreakpoints(map[int]BreakpointState{
		0: BreakExecute,
		2: BreakRead,
		9: BreakWrite,
	}))
	assert.Equal(BreakExecute, r.Memory[0].Breakpoint)
	assert.Equal(BreakRead, r.Memory[1].Breakpoint)
	assert.Equal(BreakOff, r.Memory[2].Breakpoint)
	assert.Equal(BreakOff, r.Memory[5].Breakpoint)
	assert.Equal(BreakRead, r.Accumulator.Breakpoint)

	img := loadWords(0)
	assert.ErrorIs(img.LoadBreakpoints(map[int]BreakpointState{0: BreakExecute}), ErrNotLoaded)
}

func TestReset(t *testing.T) {
	assert := assert.New(t)
	r, _ := loadSource(t, breakProgram)
	require.NoError(t, r.SetBreakpoint(1, BreakExecute))
	_, err := r.Run(0)
	require.NoError(t, err)
	assert.Equal(5, r.Memory[5].Value)

	r.Reset()
	assert.Equal(0, r.Memory[5].Value)
	assert.Equal(0, r.Accumulator.Value)
	assert.Equal(0, r.Counter)
	assert.Equal(HaltStep, r.HaltReason())
	assert.Equal(StateNextExec, r.Memory[0].State)
	assert.Equal(BreakExecute, r.Memory[1].Breakpoint)
	tok, ok := r.SourceToken(1)
	assert.True(ok)
	assert.Equal("STA", tok.Text)
}

func TestInvalidInstruction(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		value  int
		hasPos bool
	}{
		{"opcode 4", "DAT 450", 450, true},
		{"below 100", "DAT 5", 5, true},
		{"above 902", "DAT -1", 999, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := loadSource(t, tc.src)
			h, err := r.NextStep()
			var inv *InvalidInstructionError
			require.True(t, errors.As(err, &inv), "error %v", err)
			assert.Equal(t, tc.value, inv.Value)
			assert.Equal(t, 0, inv.Address)
			assert.Equal(t, tc.hasPos, inv.HasPos)
			assert.Equal(t, asm.Position{Line: 0, Start: 0, End: 3}, inv.Pos)
			assert.Equal(t, HaltHLT, h)

			_, err = r.NextStep()
			assert.ErrorIs(t, err, ErrHalted)
		})
	}

	r := loadWords(903)
	_, err := r.NextStep()
	var inv *InvalidInstructionError
	require.True(t, errors.As(err, &inv))
	assert.False(t, inv.HasPos)
	assert.Equal(t, "invalid instruction 903 at address 00", inv.Error())
}

func TestLoadErrors(t *testing.T) {
	r := NewRunner(nil)
	_, err := r.NextStep()
	assert.ErrorIs(t, err, ErrNotLoaded)

	a := asm.New()
	a.UpdateCode("LDA X\nHLT")
	assert.ErrorIs(t, r.LoadCode(a), asm.ErrInError)
}

func TestSetMemory(t *testing.T) {
	assert := assert.New(t)
	r, _ := loadSource(t, breakProgram)
	assert.NoError(r.SetMemory(4, -1))
	assert.Equal(999, r.Memory[4].Value)
	assert.NoError(r.SetMemory(3, 901))
	assert.Equal(901, r.Memory[3].Value)
	assert.NoError(r.SetMemory(AccumulatorAddress, 12))
	assert.Equal(12, r.Accumulator.Value)

	assert.ErrorIs(r.SetMemory(100, 1), ErrInvalidAddress)
	assert.ErrorIs(r.SetMemory(-2, 1), ErrInvalidAddress)
	assert.ErrorIs(r.SetMemory(0, 1000), ErrInputRange)
	assert.ErrorIs(r.SetBreakpoint(100, BreakRead), ErrInvalidAddress)

	r.Reset()
	assert.Equal(5, r.Memory[4].Value)
	assert.Equal(0, r.Memory[3].Value)
}

func TestCounterWraps(t *testing.T) {
	var img asm.Image
	img.Code[0] = 699
	img.Code[99] = 902
	r := NewRunner(func(Output) {})
	r.LoadImage(img)
	step(t, r, HaltStep)
	step(t, r, HaltStep)
	assert.Equal(t, 0, r.Counter)
	assert.Equal(t, StateNextExec, r.Memory[0].State)
}

func TestDefaultOutput(t *testing.T) {
	var buf bytes.Buffer
	r := NewRunner(nil)
	r.Stdout = &buf
	a := asm.New()
	a.UpdateCode("LDA x\nOUT\nHLT\nx DAT 7")
	require.NoError(t, r.LoadCode(a))
	_, err := r.Run(0)
	require.NoError(t, err)
	assert.Equal(t, ">>> 7\n>>> Done! Coffee break!\n", buf.String())
}

func TestTrace(t *testing.T) {
	tests := []struct {
		level   TraceLevel
		want    []string
		notWant []string
	}{
		{TraceOff, nil, []string{"LDA"}},
		{TraceLow, []string{"LDA 003: load 007 (#003) to accumulator", "OUT", "HLT"}, []string{"Next instruction"}},
		{TraceMedium, []string{"Next instruction is 503", "Accumulator: 007", "Memory: 0: 503, 1: 902"}, []string{"Incrementing"}},
		{TraceHigh, []string{"Executing next instruction at 000", "Incrementing counter to 1"}, nil},
	}
	for _, tc := range tests {
		t.Run(tc.level.String(), func(t *testing.T) {
			var buf bytes.Buffer
			r, _ := loadSource(t, "LDA x\nOUT\nHLT\nx DAT 7")
			r.Logger = log.New(&buf, "", 0)
			r.TraceLevel = tc.level
			_, err := r.Run(0)
			require.NoError(t, err)
			for _, s := range tc.want {
				assert.Contains(t, buf.String(), s)
			}
			for _, s := range tc.notWant {
				assert.NotContains(t, buf.String(), s)
			}
		})
	}
}

func TestParseBreakpointState(t *testing.T) {
	for _, b := range []BreakpointState{BreakOff, BreakExecute, BreakRead, BreakWrite} {
		got, err := ParseBreakpointState(b.String())
		assert.NoError(t, err)
		assert.Equal(t, b, got)
	}
	_, err := ParseBreakpointState("sometimes")
	assert.Error(t, err)
}

func TestSourceToken(t *testing.T) {
	r, _ := loadSource(t, "# echo\nstart   INP\n        OUT\n        BRA start\n")
	tok, ok := r.SourceToken(2)
	require.True(t, ok)
	assert.Equal(t, "BRA", tok.Text)
	assert.Equal(t, asm.Position{Line: 3, Start: 8, End: 11}, tok.Pos)

	_, ok = r.SourceToken(3)
	assert.False(t, ok)
	_, ok = r.SourceToken(-1)
	assert.False(t, ok)

	r.Reset()
	_, ok = r.SourceToken(0)
	assert.True(t, ok, "source links survive Reset")
}
