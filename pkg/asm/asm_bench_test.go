package asm

import "testing"

// smallProgram adds two inputs.
const smallProgram = addProgram

// mediumProgram multiplies two inputs by repeated addition.
const mediumProgram = `
        INP
        STA a
        INP
        STA b
loop    LDA b
        BRZ done
        SUB one
        STA b
        LDA prod
        ADD a
        STA prod
        BRA loop
done    LDA prod
        OUT
        HLT
a       DAT
b       DAT
one     DAT 1
prod    DAT 0
`

// largeProgram fills most of memory: a countdown, a running sum and a
// sequence of outputs, representative of the longest programs that fit.
const largeProgram = `
        INP             # count
        STA count
        LDA zero
        STA sum
count1  LDA count
        BRZ report
        ADD sum
        STA sum
        LDA count
        SUB one
        STA count
        BRA count1
report  LDA sum
        OUT
        LDA ten
loop2   OUT
        SUB one
        BRP loop2
        LDA sum
        BRP pos
        LDA zero
        SUB sum
        OUT
        BRA tail
pos     LDA sum
        OUT
tail    LDA v1
        ADD v2
        ADD v3
        ADD v4
        ADD v5
        OUT
        SUB v1
        SUB v2
        SUB v3
        OUT
        LDA v6
        ADD v7
        ADD v8
        ADD v9
        OUT
        LDA v10
        SUB v11
        SUB v12
        OUT
        LDA v13
        ADD v14
        OUT
        HLT
count   DAT
sum     DAT
zero    DAT 0
one     DAT 1
ten     DAT 10
v1      DAT 11
v2      DAT 12
v3      DAT 13
v4      DAT 14
v5      DAT 15
v6      DAT -16
v7      DAT -17
v8      DAT 18
v9      DAT 19
v10     DAT 20
v11     DAT 21
v12     DAT -22
v13     DAT 23
v14     DAT 24
`

func BenchmarkAssemble_Small(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _, err := Assemble(smallProgram)
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAssemble_Medium(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _, err := Assemble(mediumProgram)
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAssemble_Large(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _, err := Assemble(largeProgram)
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkTokenize(b *testing.B) {
	lines := splitLines(largeProgram)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		for _, l := range lines {
			Tokenize(l)
		}
	}
}
