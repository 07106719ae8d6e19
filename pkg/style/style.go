// Package style checks the column layout of LMC source files:
//
//	label   MNE arg     # comment
//	                    # continued comment
//
// Labels start in column 0, mnemonics in column 8, arguments in column 12
// and comments in column 20.
package style

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"golmc/pkg/isa"
)

const (
	mnemonicColumn = 8
	argumentColumn = 12
	commentColumn  = 20
)

// Issue is one layout violation. Line is 0-based.
type Issue struct {
	Line int
	Msg  string
	Text string
}

func (i Issue) String() string {
	return fmt.Sprintf("%d: %s", i.Line+1, i.Msg)
}

// Check returns the layout issues of a whole source file, at most one
// per line plus the end-of-file checks.
func Check(src string) []Issue {
	if src == "" {
		return nil
	}
	terminated := strings.HasSuffix(src, "\n")
	lines := strings.Split(strings.TrimSuffix(src, "\n"), "\n")

	var issues []Issue
	for n, line := range lines {
		if msg := checkLine(line); msg != "" {
			issues = append(issues, Issue{Line: n, Msg: msg, Text: line})
		}
	}

	last := len(lines) - 1
	if !terminated {
		issues = append(issues, Issue{Line: last, Msg: "file does not end with newline", Text: lines[last]})
	}
	if len(lines) > 1 && lines[last] == "" {
		issues = append(issues, Issue{Line: last, Msg: "file ends with too many newlines"})
	}
	return issues
}

func isMnemonic(word string) bool {
	_, ok := isa.Lookup(word)
	return ok
}

func from(s string, n int) string {
	if n >= len(s) {
		return ""
	}
	return s[n:]
}

func startsWithSpace(s string) bool {
	return s != "" && unicode.IsSpace(rune(s[0]))
}

func padded(word string, width int) string {
	return fmt.Sprintf("%-*s", width, word)
}

func checkComment(comment string) string {
	if !strings.HasPrefix(comment, "# ") {
		return "comment does not begin with '# '"
	}
	return ""
}

func checkLine(line string) string {
	trimmed := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(line, "#"):
		return checkComment(line)
	case strings.HasPrefix(trimmed, "#"):
		if msg := checkComment(trimmed); msg != "" {
			return msg
		}
		if !strings.HasPrefix(line, strings.Repeat(" ", commentColumn)+"#") {
			return "continuing comment should be padded by twenty spaces"
		}
		return ""
	case line == "":
		return ""
	case unicode.IsSpace(rune(line[len(line)-1])):
		return "line ends with whitespace"
	}

	fields := strings.Fields(line)
	if isMnemonic(fields[0]) {
		if !strings.HasPrefix(line, strings.Repeat(" ", mnemonicColumn)) {
			return "line with no label should be indented by 8 spaces"
		}
	} else {
		if startsWithSpace(line) {
			return "line with label begins with space"
		}
		if !strings.HasPrefix(line, padded(fields[0], mnemonicColumn)) {
			return "label not padded to 8 spaces"
		}
		fields = fields[1:]
	}

	if len(fields) == 0 || !isMnemonic(fields[0]) {
		return "mnemonic missing"
	}
	if strings.ToUpper(fields[0]) != fields[0] {
		return "mnemonics should be uppercase"
	}
	if len(fields) == 1 {
		return ""
	}

	rest := from(line, mnemonicColumn)
	if !strings.HasPrefix(rest, fields[0]) {
		return "mnemonic not in column 8"
	}
	fields = fields[1:]
	rest = from(rest, argumentColumn-mnemonicColumn)

	if after := strings.TrimSpace(rest); strings.HasPrefix(after, "#") {
		if !strings.HasPrefix(rest, strings.Repeat(" ", commentColumn-argumentColumn)+"#") {
			return "comment not padded enough"
		}
		return checkComment(after)
	}
	if startsWithSpace(rest) {
		return "mnemonic padded too much"
	}
	if len(fields) == 1 {
		return ""
	}
	if !strings.HasPrefix(rest, padded(fields[0], commentColumn-argumentColumn)) {
		return "argument not padded enough"
	}

	rest = from(rest, commentColumn-argumentColumn)
	switch {
	case startsWithSpace(rest):
		return "argument padded too much"
	case !strings.HasPrefix(rest, "#"):
		return "too many arguments"
	}
	return checkComment(rest)
}

// CheckFile reads and checks one file.
func CheckFile(path string) ([]Issue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Check(string(data)), nil
}

// Walk checks root if it is a file, or every .lmc file below it if it is a
// directory, calling fn for each checked file.
func Walk(root string, fn func(path string, issues []Issue)) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		issues, err := CheckFile(root)
		if err != nil {
			return err
		}
		fn(root, issues)
		return nil
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".lmc" {
			return nil
		}
		issues, err := CheckFile(path)
		if err != nil {
			return fmt.Errorf("check %s: %w", path, err)
		}
		fn(path, issues)
		return nil
	})
}
