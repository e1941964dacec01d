// Command phosphene-expr is an interactive calculator for the effect
// expression language. It runs the same engine the renderer embeds, so
// an expression that works here works in a preset. Audio and MIDI
// context variables read as zero outside the render loop.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/veskel/phosphene/pkg/script"
)

const (
	appName     = "phosphene-expr"
	historyFile = ".phosphene_expr_history"
	prompt      = "==> "
	banner      = "phosphene expression calculator. Ctrl+C cancels input, Ctrl+D exits. Type :help for commands."
	helpText    = `
Expressions are statements separated by ';' on one line, e.g.
  ==> a = 3; b = 4; sqrt(a*a + b*b)
Assignments persist for the rest of the session.

REPL commands:
  :help            Show this help
  :quit / :exit    Exit
  :reset           Start a fresh engine, clearing all variables
  :load <file>     Evaluate a file line by line in this session
`
)

func main() {
	var evalStr string
	flag.StringVar(&evalStr, "e", "", "Evaluate the given expression and exit")
	flag.Parse()

	args := flag.Args()

	switch {
	case evalStr != "":
		os.Exit(runEval(evalStr))
	case len(args) > 0:
		os.Exit(runFile(args[0]))
	default:
		os.Exit(runREPL())
	}
}

func runEval(code string) int {
	eng := script.New()
	v, err := eval(eng, code)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}
	fmt.Printf("%g\n", v)
	return 0
}

func runFile(path string) int {
	eng := script.New()
	v, err := loadFile(eng, path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s: %v\n", appName, path, err)
		return 1
	}
	fmt.Printf("%g\n", v)
	return 0
}

func runREPL() int {
	fmt.Println(banner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	// Load history (best-effort).
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	eng := script.New()

	for {
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			fmt.Println()
			break
		}
		if err != nil {
			// Ctrl+C aborts the current input; start over.
			continue
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, ":") {
			if done := handleCommand(eng, trimmed); done {
				break
			}
			ln.AppendHistory(trimmed)
			continue
		}

		v, err := eval(eng, trimmed)
		if err != nil {
			fmt.Println(err)
			continue
		}
		fmt.Printf("%g\n", v)
		ln.AppendHistory(trimmed)
	}

	// Persist history (best-effort).
	if f, err := os.Create(histPath); err == nil {
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}
	return 0
}

// handleCommand handles :help, :quit, :reset and :load. It returns true
// when the REPL should exit.
func handleCommand(eng *script.Engine, line string) bool {
	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case ":help":
		fmt.Print(helpText)

	case ":quit", ":exit":
		return true

	case ":reset":
		*eng = *script.New()
		fmt.Println("engine reset.")

	case ":load":
		if len(fields) < 2 {
			fmt.Println("usage: :load <file>")
			return false
		}
		v, err := loadFile(eng, fields[1])
		if err != nil {
			fmt.Printf("%s: %v\n", fields[1], err)
			return false
		}
		fmt.Printf("%g\n", v)

	default:
		fmt.Println("unknown command. Type :help for help.")
	}
	return false
}

// eval compiles and runs one script on the session engine. Compiled
// scripts bind assignments straight into engine storage, so variables
// persist across calls.
func eval(eng *script.Engine, source string) (float64, error) {
	c := eng.Compile(source)
	if c.ErrorText() != "" {
		return 0, errors.New(c.ErrorText())
	}
	return eng.Execute(c), nil
}

// loadFile evaluates a file line by line, skipping blank lines and
// comment lines starting with # or ;, and returns the last value.
func loadFile(eng *script.Engine, path string) (float64, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	var last float64
	for i, line := range strings.Split(string(src), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		v, err := eval(eng, line)
		if err != nil {
			return 0, fmt.Errorf("line %d: %w", i+1, err)
		}
		last = v
	}
	return last, nil
}
