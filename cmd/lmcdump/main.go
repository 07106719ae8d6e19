package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/k0kubun/pp/v3"

	"golmc/pkg/asm"
	"golmc/pkg/utils"
)

type tokenDump struct {
	ID      asm.TokenID
	Kind    string
	Text    string
	Pos     string
	Address int
	Link    asm.TokenID
}

type lineDump struct {
	Line   int
	Source string
	Tokens []tokenDump
}

func dumpToken(t asm.Token) tokenDump {
	d := tokenDump{ID: t.ID, Kind: t.Kind.String(), Text: t.Text, Pos: t.Pos.String(), Address: t.Address, Link: asm.NoToken}
	switch t.Kind {
	case asm.KindLabelRef:
		d.Link = t.Label
	case asm.KindMnemonic:
		d.Link = t.Arg
	}
	return d
}

// verify checks that the tokens of every line rebuild the line and that
// each token's text is the source under its position.
func verify(a *asm.Assembler) []string {
	p := a.Parse()
	lines := a.Lines()
	var failures []string
	for n, ids := range p.Lines {
		var b strings.Builder
		for _, id := range ids {
			t := p.Token(id)
			b.WriteString(t.Text)
			src := []rune(lines[n])
			if t.Pos.Line != n || t.Pos.Start < 0 || t.Pos.End > len(src) || string(src[t.Pos.Start:t.Pos.End]) != t.Text {
				failures = append(failures, fmt.Sprintf("line %d: token %d %q does not match position %s", n+1, id, t.Text, t.Pos))
			}
		}
		if b.String() != lines[n] {
			failures = append(failures, fmt.Sprintf("line %d: tokens rebuild %q, source is %q", n+1, b.String(), lines[n]))
		}
	}
	return failures
}

func dump(w io.Writer, a *asm.Assembler, showTokens, showLabels, showImage bool) {
	printer := pp.New()
	printer.SetOutput(w)
	printer.SetColoringEnabled(utils.NewPalette(w).Enabled)

	p := a.Parse()
	if showTokens {
		for n, ids := range p.Lines {
			ld := lineDump{Line: n + 1, Source: a.Lines()[n]}
			for _, id := range ids {
				if t := p.Token(id); t.Kind != asm.KindText {
					ld.Tokens = append(ld.Tokens, dumpToken(t))
				}
			}
			printer.Println(ld)
		}
	}
	if showLabels {
		labels := make(map[string]int, len(p.Labels))
		for name, id := range p.Labels {
			labels[name] = p.Token(id).Address
		}
		printer.Println(labels)
	}
	for _, prob := range a.Problems() {
		fmt.Fprintln(w, prob.Error())
	}
	if showImage && !a.InError() {
		printer.Println(a.Assemble().Words())
	}
}

func main() {
	showTokens := flag.Bool("tokens", true, "dump the tokens of every line")
	showLabels := flag.Bool("labels", true, "dump the label table")
	showImage := flag.Bool("image", true, "dump the machine code")
	flag.Parse()

	var src string
	if flag.NArg() > 0 {
		s, err := utils.ReadSource(flag.Arg(0))
		if err != nil {
			log.Fatalf("read error: %v", err)
		}
		src = s
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			log.Fatalf("read error: %v", err)
		}
		src = strings.ReplaceAll(string(data), "\r\n", "\n")
	}

	a := asm.New()
	a.UpdateCode(src)
	a.Assemble()
	dump(os.Stdout, a, *showTokens, *showLabels, *showImage)

	if failures := verify(a); len(failures) > 0 {
		for _, f := range failures {
			fmt.Fprintln(os.Stderr, f)
		}
		os.Exit(1)
	}
}
