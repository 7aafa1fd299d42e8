// Command lispy is an interactive prompt for the lisp interpreter. Given a
// file argument it evaluates the file instead and exits.
package main

import (
	"fmt"
	"os"

	"github.com/rfielding/lispy/internal/config"
	"github.com/rfielding/lispy/internal/logging"
	"github.com/rfielding/lispy/lisp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	logger := logging.New(os.Stderr, logging.Options{Level: level, JSON: cfg.LogJSON})

	sh := &shell{
		ev: lisp.NewEvaluator(
			lisp.WithOutput(os.Stdout),
			lisp.WithMaxDepth(cfg.MaxDepth),
			lisp.WithLogger(logging.For(logger, logging.ChannelEval)),
		),
		out:    os.Stdout,
		errw:   os.Stdout,
		color:  useColor(cfg.Color, os.Stdout),
		logger: logging.For(logger, logging.ChannelREPL),
	}

	if len(os.Args) > 1 {
		if err := sh.runFile(os.Args[1]); err != nil {
			fmt.Fprintln(os.Stderr, formatError(err.Error(), useColor(cfg.Color, os.Stderr)))
			os.Exit(1)
		}
		return
	}
	sh.runREPL(cfg.HistoryFile)
}
