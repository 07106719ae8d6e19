package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"golmc/pkg/utils"
)

const historyFile = ".golmc_history"

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("usage: %s FILE.lmc", filepath.Base(os.Args[0]))
	}
	fullPath, _, err := utils.GetPathInfo(os.Args[1])
	if err != nil {
		log.Fatalf("Failed to resolve source path: %v", err)
	}

	pal := utils.NewPalette(os.Stdout)
	d := newDebugger(os.Stdout, pal)
	if err := d.load(fullPath); err != nil {
		log.Fatalf("Failed to load %s: %v", fullPath, err)
	}
	fmt.Printf("Loaded %s, type help for commands\n", fullPath)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	for {
		line, err := ln.Prompt("lmc> ")
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Println()
			return
		}
		if err != nil {
			log.Printf("read error: %v", err)
			return
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		ln.AppendHistory(line)

		quit, err := d.exec(line)
		if err != nil {
			fmt.Fprintln(os.Stderr, pal.Red(err.Error()))
		}
		if quit {
			return
		}
	}
}
