//go:build !js

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"golmc/pkg/asm"
	"golmc/pkg/cpu"
	"golmc/pkg/style"
	"golmc/pkg/utils"
)

var (
	errCheckFailed = errors.New("check failed")
	errLintFailed  = errors.New("style problems found")
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "golmc",
		Short: "Little Man Computer assembler and runner",
		Long: `golmc assembles LMC assembly into a 100-word machine image and runs it.

Source lines have the form

    [label] [MNEMONIC [argument]] [# comment]

with the mnemonics HLT ADD SUB STA LDA BRA BRZ BRP INP OUT DAT.`,
		SilenceUsage: true,
	}
	root.AddCommand(newAssembleCmd(), newRunCmd(), newCheckCmd(), newLintCmd())
	return root
}

func newAssembleCmd() *cobra.Command {
	var outPath string
	var quiet bool
	cmd := &cobra.Command{
		Use:   "assemble FILE",
		Short: "Assemble a source file into an image file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := assembleFile(args[0])
			if a != nil {
				problems := a.Problems()
				if quiet {
					problems = onlyErrors(problems)
				}
				reportProblems(cmd.ErrOrStderr(), problems, a.Lines())
			}
			if err != nil {
				return err
			}

			output := outPath
			if output == "" {
				output = utils.ReplaceExt(args[0], ".bin")
			}
			img := a.Assemble()
			if err := cpu.WriteImageFile(output, img); err != nil {
				return fmt.Errorf("failed to write image file %q: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "assembled %d instructions -> %s\n", img.Length, output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output image path (default: input with .bin extension)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print warnings")
	return cmd
}

func newCheckCmd() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "check FILE",
		Short: "Print every diagnostic for a source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := assembleFile(args[0])
			if a == nil {
				return err
			}
			problems := a.Problems()
			reportProblems(cmd.OutOrStdout(), problems, a.Lines())

			errs := len(onlyErrors(problems))
			warns := len(problems) - errs
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d errors, %d warnings\n", args[0], errs, warns)
			if errs > 0 || strict && warns > 0 {
				return errCheckFailed
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "fail on warnings too")
	return cmd
}

func newLintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint PATH...",
		Short: "Check the column layout of .lmc files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			pal := utils.NewPalette(w)
			failed := false
			for _, root := range args {
				err := style.Walk(root, func(path string, issues []style.Issue) {
					if len(issues) == 0 {
						return
					}
					failed = true
					fmt.Fprintln(w, pal.Bold(path))
					for _, is := range issues {
						fmt.Fprintf(w, "%s\n\t%q\n", pal.Yellow(is.String()), is.Text)
					}
				})
				if err != nil {
					return err
				}
			}
			if failed {
				return errLintFailed
			}
			return nil
		},
	}
}

// assembleFile reads and assembles path. The assembler is returned even
// when the source has errors so they can be reported.
func assembleFile(path string) (*asm.Assembler, error) {
	src, err := utils.ReadSource(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file %q: %w", path, err)
	}
	a := asm.New()
	a.UpdateCode(src)
	a.Assemble()
	if a.InError() {
		return a, fmt.Errorf("assembly of %s failed: %w", path, asm.ErrInError)
	}
	return a, nil
}

func onlyErrors(problems []asm.Problem) []asm.Problem {
	var out []asm.Problem
	for _, p := range problems {
		if p.Category() == asm.CategoryError {
			out = append(out, p)
		}
	}
	return out
}

func reportProblems(w io.Writer, problems []asm.Problem, lines []string) {
	pal := utils.NewPalette(w)
	for _, p := range problems {
		text := p.Show(lines)
		if p.Category() == asm.CategoryError {
			text = pal.Red(text)
		} else {
			text = pal.Yellow(text)
		}
		fmt.Fprintf(w, "%s\n\n", text)
	}
}
