package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"lox/interpreter"
	"lox/lexer"
	"lox/parser"
	"lox/resolver"
)

// runCmd implements the tree-walk "run" command
type runCmd struct {
	treeWalk bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "Execute Lox code from a source file" }
func (*runCmd) Usage() string {
	return `run:
  Execute Lox code using the tree-walk evaluator.
`
}
func (r *runCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&r.treeWalk, "t", true, "force tree-walk mode (the default, and only mode this command supports)")
}

func (r *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 File not provided\n")
		return subcommands.ExitUsageError
	}
	filename := args[0]

	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	lex := lexer.New(string(data))
	tokens, err := lex.Scan()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Lexing error: %v\n", err)
		return subcommands.ExitFailure
	}
	p := parser.Make(tokens)
	statements, parseErrors := p.Parse()
	if len(parseErrors) > 0 {
		for _, e := range parseErrors {
			fmt.Fprintln(os.Stderr, e)
		}
		return subcommands.ExitFailure
	}

	interp := interpreter.Make()
	res := resolver.New(interp)
	if resolveErrors := res.Resolve(statements); len(resolveErrors) > 0 {
		for _, e := range resolveErrors {
			fmt.Fprintln(os.Stderr, e)
		}
		return subcommands.ExitFailure
	}

	if err := interp.Interpret(statements); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
