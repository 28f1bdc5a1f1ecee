package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/google/subcommands"

	"lox/interpreter"
	"lox/lexer"
	"lox/parser"
	"lox/resolver"
)

// replCmd implements the tree-walk REPL command.
type replCmd struct{}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Start a tree-walk REPL session" }
func (*replCmd) Usage() string {
	return `repl:
  Start an interactive tree-walk REPL session.
`
}
func (r *replCmd) SetFlags(f *flag.FlagSet) {}

func repl(rl *readline.Instance) {
	interp := interpreter.Make()
	errorPrefix := color.New(color.FgRed).SprintFunc()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, errorPrefix("💥"), err)
			return
		}
		if line == "exit" {
			return
		}
		if line == "" {
			continue
		}

		lex := lexer.New(line)
		tokens, lexErr := lex.Scan()
		if lexErr != nil {
			fmt.Fprintln(os.Stderr, errorPrefix("💥"), lexErr)
			continue
		}

		p := parser.Make(tokens)
		statements, parseErrors := p.Parse()
		if len(parseErrors) > 0 {
			for _, e := range parseErrors {
				fmt.Fprintln(os.Stderr, errorPrefix("💥"), e)
			}
			continue
		}

		res := resolver.New(interp)
		if resolveErrors := res.Resolve(statements); len(resolveErrors) > 0 {
			for _, e := range resolveErrors {
				fmt.Fprintln(os.Stderr, errorPrefix("💥"), e)
			}
			continue
		}

		if err := interp.Interpret(statements); err != nil {
			fmt.Fprintln(os.Stderr, errorPrefix("💥"), err)
		}
	}
}

func (r *replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	color.New(color.FgGreen, color.Bold).Println("\nWelcome to Lox!")

	rl, err := readline.New(color.CyanString(">>> "))
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to start REPL: %v\n", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	repl(rl)
	return subcommands.ExitSuccess
}
