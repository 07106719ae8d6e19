package utils

import (
	"io"
	"os"

	"golang.org/x/term"
)

// Palette colours text with ANSI escapes when its writer is a terminal.
type Palette struct {
	Enabled bool
}

func NewPalette(w io.Writer) Palette {
	f, ok := w.(*os.File)
	return Palette{Enabled: ok && term.IsTerminal(int(f.Fd()))}
}

func (p Palette) wrap(code, s string) string {
	if !p.Enabled {
		return s
	}
	return "\x1b[" + code + "m" + s + "\x1b[0m"
}

func (p Palette) Red(s string) string    { return p.wrap("31", s) }
func (p Palette) Green(s string) string  { return p.wrap("32", s) }
func (p Palette) Yellow(s string) string { return p.wrap("33", s) }
func (p Palette) Blue(s string) string   { return p.wrap("94", s) }
func (p Palette) Bold(s string) string   { return p.wrap("1", s) }
