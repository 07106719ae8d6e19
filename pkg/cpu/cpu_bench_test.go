package cpu

import (
	"testing"

	"golmc/pkg/asm"
)

// newSilentRunner creates a runner that discards all output.
func newSilentRunner() *Runner {
	return NewRunner(func(Output) {})
}

// BenchmarkRunner_Countdown runs a 999-iteration loop of SUB/BRP/OUT.
func BenchmarkRunner_Countdown(b *testing.B) {
	img, _, err := asm.Assemble(`
        LDA start
loop    OUT
        SUB one
        BRP loop
        HLT
start   DAT 499
one     DAT 1
`)
	if err != nil {
		b.Fatal(err)
	}
	r := newSilentRunner()
	r.LoadImage(img)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Reset()
		if _, err := r.Run(0); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkRunner_Breakpoints measures the per-step breakpoint scan with
// every cell armed.
func BenchmarkRunner_Breakpoints(b *testing.B) {
	var img asm.Image
	img.Code[0] = 600 // BRA 00
	r := newSilentRunner()
	r.LoadImage(img)
	for i := 1; i < len(r.Memory); i++ {
		r.Memory[i].Breakpoint = BreakRead
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := r.NextStep(); err != nil {
			b.Fatal(err)
		}
	}
}
