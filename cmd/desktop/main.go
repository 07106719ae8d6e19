package main

import (
	"errors"
	"fmt"
	"image/color"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.design/x/clipboard"
	"golang.org/x/image/font/basicfont"

	"golmc/pkg/asm"
	"golmc/pkg/cpu"
	"golmc/pkg/grid"
	"golmc/pkg/isa"
	"golmc/pkg/utils"
)

const (
	screenW       = 520
	screenH       = 420
	stepsPerFrame = 20
	maxOutputs    = 8
)

var memoryLayout = grid.Layout{Cols: 10, Count: isa.MemorySize, OriginX: 10, OriginY: 30, CellW: 36, CellH: 24}

var (
	colorBackground = color.RGBA{20, 20, 28, 255}
	colorCell       = color.RGBA{45, 45, 60, 255}
	colorText       = color.RGBA{220, 220, 220, 255}
	colorDim        = color.RGBA{140, 140, 140, 255}
	colorBreak      = color.RGBA{200, 40, 40, 255}
	colorOutput     = color.RGBA{0, 220, 90, 255}
)

// stateColor is the fill of a cell in the given access state.
func stateColor(s cpu.ValueState) color.RGBA {
	switch s {
	case cpu.StateRead:
		return color.RGBA{40, 90, 170, 255}
	case cpu.StateWritten:
		return color.RGBA{170, 60, 40, 255}
	case cpu.StateExecuted:
		return color.RGBA{40, 140, 60, 255}
	case cpu.StateNextExec:
		return color.RGBA{170, 150, 30, 255}
	}
	return colorCell
}

type Game struct {
	runner        *cpu.Runner
	image         asm.Image
	running       bool
	input         string
	outputs       []string
	status        string
	clipboardOnce sync.Once
	clipboardOK   bool
}

func newGame(img asm.Image, a *asm.Assembler) (*Game, error) {
	g := &Game{image: img}
	g.runner = cpu.NewRunner(g.output)
	if a != nil {
		if err := g.runner.LoadCode(a); err != nil {
			return nil, err
		}
	} else {
		g.runner.LoadImage(img)
	}
	g.status = "space: step  r: run  esc: reset  c: copy code"
	return g, nil
}

func (g *Game) output(o cpu.Output) {
	g.outputs = append(g.outputs, o.Text)
	if len(g.outputs) > maxOutputs {
		g.outputs = g.outputs[len(g.outputs)-maxOutputs:]
	}
}

// step executes one instruction, or up to stepsPerFrame while running.
func (g *Game) step() {
	n := 1
	if g.running {
		n = stepsPerFrame
	}
	if _, err := g.runner.Continue(n); err != nil && !errors.Is(err, cpu.ErrStepLimit) {
		g.status = err.Error()
		g.running = false
		return
	}
	g.status = g.runner.Hint()
	if h := g.runner.HaltReason(); h != cpu.HaltStep {
		g.running = false
		if h == cpu.HaltInput {
			g.status = "type a number and press enter"
		}
	}
}

func (g *Game) submitInput() {
	v, err := strconv.Atoi(strings.TrimSpace(g.input))
	if err == nil {
		err = g.runner.GiveInput(v)
	}
	if err != nil {
		g.status = err.Error()
		return
	}
	g.input = ""
	g.status = fmt.Sprintf("input %d", v)
}

func (g *Game) toggleBreakpoint(addr int) {
	m := g.runner.Memory[addr]
	next := cpu.BreakExecute
	if m.Breakpoint != cpu.BreakOff {
		next = cpu.BreakOff
	}
	if err := g.runner.SetBreakpoint(addr, next); err == nil {
		g.status = fmt.Sprintf("breakpoint %s: %s", m.Name(), next)
	}
}

// machineCode lists the image as the words a user would type in by hand.
func machineCode(img asm.Image) string {
	words := img.Words()
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = fmt.Sprintf("%03d", w)
	}
	return strings.Join(parts, " ")
}

func (g *Game) copyMachineCode() {
	g.clipboardOnce.Do(func() {
		g.clipboardOK = clipboard.Init() == nil
	})
	if !g.clipboardOK {
		g.status = "clipboard unavailable"
		return
	}
	clipboard.Write(clipboard.FmtText, []byte(machineCode(g.image)))
	g.status = "machine code copied"
}

func (g *Game) Update() error {
	if g.runner.HaltReason() == cpu.HaltInput {
		for _, r := range ebiten.AppendInputChars(nil) {
			if r == '-' || (r >= '0' && r <= '9') {
				g.input += string(r)
			}
		}
		if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) && g.input != "" {
			g.input = g.input[:len(g.input)-1]
		}
		if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
			g.submitInput()
		}
		return nil
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		g.runner.Reset()
		g.running = false
		g.outputs = nil
		g.status = "reset"
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		g.step()
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		g.running = !g.running
	case inpututil.IsKeyJustPressed(ebiten.KeyC):
		g.copyMachineCode()
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		if addr, ok := memoryLayout.Hit(ebiten.CursorPosition()); ok {
			g.toggleBreakpoint(addr)
		}
	}
	if g.running {
		g.step()
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colorBackground)
	face := basicfont.Face7x13

	for i, m := range g.runner.Memory {
		px, py := memoryLayout.Cell(i)
		w, h := float64(memoryLayout.CellW-2), float64(memoryLayout.CellH-2)
		if m.Breakpoint != cpu.BreakOff {
			ebitenutil.DrawRect(screen, float64(px-1), float64(py-1), w+2, h+2, colorBreak)
		}
		ebitenutil.DrawRect(screen, float64(px), float64(py), w, h, stateColor(m.State))
		text.Draw(screen, fmt.Sprintf("%03d", m.Value), face, px+6, py+15, colorText)
	}

	r := g.runner
	text.Draw(screen, fmt.Sprintf("ACC %03d (%d)   PC %02d   %s   steps %d",
		r.Accumulator.Value, isa.FromComplement(r.Accumulator.Value), r.Counter, r.HaltReason(), r.Steps()),
		face, 10, 18, colorText)

	x := memoryLayout.OriginX + memoryLayout.Cols*memoryLayout.CellW + 10
	text.Draw(screen, "OUTPUT", face, x, 40, colorDim)
	for i, o := range g.outputs {
		text.Draw(screen, o, face, x, 58+i*15, colorOutput)
	}

	bottom := memoryLayout.OriginY + 10*memoryLayout.CellH + 20
	if r.HaltReason() == cpu.HaltInput {
		text.Draw(screen, "<<< "+g.input+"_", face, 10, bottom, colorText)
	}
	text.Draw(screen, g.status, face, 10, bottom+20, colorDim)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenW, screenH
}

func load(path string) (asm.Image, *asm.Assembler, error) {
	if strings.HasSuffix(path, ".bin") {
		img, err := cpu.ReadImageFile(path)
		return img, nil, err
	}
	src, err := utils.ReadSource(path)
	if err != nil {
		return asm.Image{}, nil, err
	}
	a := asm.New()
	a.UpdateCode(src)
	img := a.Assemble()
	if a.InError() {
		for _, p := range a.Problems() {
			log.Print(p.Show(a.Lines()))
		}
		return asm.Image{}, nil, asm.ErrInError
	}
	return img, a, nil
}

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("usage: desktop FILE.lmc|FILE.bin")
	}
	fullPath, _, err := utils.GetPathInfo(os.Args[1])
	if err != nil {
		log.Fatalf("Failed to resolve path: %v", err)
	}
	img, a, err := load(fullPath)
	if err != nil {
		log.Fatalf("Failed to load %s: %v", fullPath, err)
	}
	game, err := newGame(img, a)
	if err != nil {
		log.Fatalf("Failed to load program: %v", err)
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(screenW*2, screenH*2)
	ebiten.SetWindowTitle("Little Man Computer")
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
