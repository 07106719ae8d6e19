//go:build !js

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"golmc/pkg/cpu"
	"golmc/pkg/utils"
)

type runOptions struct {
	bin      bool
	debug    int
	maxSteps int
	inputs   []int
}

func newRunCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Assemble and run a program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFile(args[0], opts, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().BoolVar(&opts.bin, "bin", false, "FILE is an image written by assemble")
	cmd.Flags().CountVarP(&opts.debug, "debug", "d", "trace level (repeat for more info, 3 is the max)")
	cmd.Flags().IntVar(&opts.maxSteps, "max-steps", 0, "stop after this many instructions (0 means no limit)")
	cmd.Flags().IntSliceVar(&opts.inputs, "input", nil, "values for INP, used before prompting")
	return cmd
}

func runFile(path string, opts runOptions, stdin io.Reader, stdout, stderr io.Writer) error {
	pal := utils.NewPalette(stdout)
	r := cpu.NewRunner(func(o cpu.Output) {
		if o.Kind == cpu.OutputDone {
			fmt.Fprintln(stdout, pal.Blue(o.Text))
			return
		}
		fmt.Fprintln(stdout, pal.Green(">>> "+o.Text))
	})
	if opts.debug > 0 {
		r.Logger = log.New(stderr, "", 0)
		r.TraceLevel = cpu.TraceLevel(min(opts.debug, int(cpu.TraceHigh)))
	}

	if opts.bin {
		img, err := cpu.ReadImageFile(path)
		if err != nil {
			return fmt.Errorf("failed to read image %q: %w", path, err)
		}
		r.LoadImage(img)
	} else {
		a, err := assembleFile(path)
		if a != nil {
			reportProblems(stderr, onlyErrors(a.Problems()), a.Lines())
		}
		if err != nil {
			return err
		}
		if err := r.LoadCode(a); err != nil {
			return err
		}
	}

	in := &inputSource{queued: opts.inputs, in: bufio.NewReader(stdin), out: stdout}
	return execute(r, opts.maxSteps, in)
}

// execute runs r to HLT, feeding INP from in.
func execute(r *cpu.Runner, maxSteps int, in *inputSource) error {
	for {
		limit := 0
		if maxSteps > 0 {
			limit = maxSteps - r.Steps()
			if limit <= 0 {
				return cpu.ErrStepLimit
			}
		}
		h, err := r.Run(limit)
		if err != nil {
			return err
		}
		if h == cpu.HaltHLT {
			return nil
		}
		for {
			v, err := in.next()
			if err != nil {
				return err
			}
			err = r.GiveInput(v)
			if err == nil {
				break
			}
			if !errors.Is(err, cpu.ErrInputRange) || in.fromQueue {
				return err
			}
			fmt.Fprintln(in.out, err)
		}
	}
}

// inputSource hands out queued values first, then prompts.
type inputSource struct {
	queued    []int
	in        *bufio.Reader
	out       io.Writer
	fromQueue bool
}

func (s *inputSource) next() (int, error) {
	if len(s.queued) > 0 {
		v := s.queued[0]
		s.queued = s.queued[1:]
		s.fromQueue = true
		return v, nil
	}
	s.fromQueue = false
	for {
		fmt.Fprint(s.out, "<<< ")
		line, err := s.in.ReadString('\n')
		text := strings.TrimSpace(line)
		if text == "" && err != nil {
			return 0, fmt.Errorf("reading input: %w", io.ErrUnexpectedEOF)
		}
		v, perr := strconv.Atoi(text)
		if perr == nil {
			return v, nil
		}
		fmt.Fprintf(s.out, "%q is not a number\n", text)
		if err != nil {
			return 0, fmt.Errorf("reading input: %w", io.ErrUnexpectedEOF)
		}
	}
}
