package asm

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-'
}

// Tokenize splits one source line into maximal runs of word characters
// (letters, digits, '-') and of everything else. A '#' starts a final token
// holding the rest of the line. Joining the result gives back the line, even
// when it is not valid UTF-8.
func Tokenize(line string) []string {
	line = strings.TrimSuffix(line, "\n")
	var out []string

	for i := 0; i < len(line); {
		start := i
		r, _ := utf8.DecodeRuneInString(line[i:])
		switch {
		case r == '#':
			i = len(line)
		case isWordRune(r):
			i = scan(line, i, isWordRune)
		default:
			i = scan(line, i, func(r rune) bool { return !isWordRune(r) && r != '#' })
		}
		out = append(out, line[start:i])
	}
	return out
}

// scan returns the byte offset of the first rune at or after i that does
// not satisfy keep.
func scan(line string, i int, keep func(rune) bool) int {
	for i < len(line) {
		r, size := utf8.DecodeRuneInString(line[i:])
		if !keep(r) {
			break
		}
		i += size
	}
	return i
}

// splitLines breaks source text into lines without their terminators.
func splitLines(code string) []string {
	lines := strings.Split(code, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
