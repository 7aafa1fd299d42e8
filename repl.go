package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"

	"github.com/rfielding/lispy/internal/config"
	"github.com/rfielding/lispy/lisp"
)

const prompt = "> "

// shell evaluates source text against one evaluator and reports results
// and errors the way the interactive prompt shows them.
type shell struct {
	ev     *lisp.Evaluator
	out    io.Writer
	errw   io.Writer
	color  bool
	logger *slog.Logger
}

func formatError(msg string, color bool) string {
	if !color {
		return msg
	}
	return "\033[91m" + msg + "\033[0m"
}

// useColor decides whether errors written to f are colored.
func useColor(mode config.ColorMode, f *os.File) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (sh *shell) report(err error) {
	fmt.Fprintln(sh.errw, formatError(err.Error(), sh.color))
}

// eval runs every form in src, printing non-void results. A failing form is
// reported and the remaining forms still run. It returns the number of
// failures; a parse error counts as one and nothing is evaluated.
func (sh *shell) eval(src string) int {
	exprs, err := lisp.Parse(src)
	if err != nil {
		sh.report(err)
		return 1
	}
	failed := 0
	for _, expr := range exprs {
		v, err := sh.ev.Eval(expr, nil)
		if err != nil {
			sh.report(err)
			failed++
			continue
		}
		if !v.IsVoid() {
			fmt.Fprintln(sh.out, lisp.Render(v))
		}
	}
	return failed
}

// runFile evaluates a whole file as one program.
func (sh *shell) runFile(filename string) error {
	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("reading %s: %w", filename, err)
	}
	if n := sh.eval(string(content)); n > 0 {
		return fmt.Errorf("%s: %d form(s) failed", filename, n)
	}
	return nil
}

// runREPL reads lines until Ctrl-C or Ctrl-D. History is loaded from
// historyFile on start and rewritten after every line.
func (sh *shell) runREPL(historyFile string) {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(historyFile); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	for {
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Fprintln(sh.out)
			return
		}
		if err != nil {
			sh.logger.Error("reading input", "err", err)
			return
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		ln.AppendHistory(line)
		if err := writeHistory(ln, historyFile); err != nil {
			sh.logger.Warn("saving history", "file", historyFile, "err", err)
		}
		sh.eval(line)
	}
}

func writeHistory(ln *liner.State, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := ln.WriteHistory(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
