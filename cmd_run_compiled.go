package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"lox/compiler"
	"lox/vm"

	"github.com/google/subcommands"
)

// runCompiledCmd implements the bytecode-VM "runC" command
type runCompiledCmd struct {
	diassemble bool
}

func (*runCompiledCmd) Name() string { return "runC" }
func (*runCompiledCmd) Synopsis() string {
	return "Execute Lox code from a source file via the bytecode VM"
}
func (*runCompiledCmd) Usage() string {
	return `runC:
  Compile and execute Lox code on the stack-based bytecode VM.
`
}
func (r *runCompiledCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&r.diassemble, "diassemble", false, "diassemble the compiled chunk to stdout before running it")
	f.BoolVar(&r.diassemble, "di", false, "shorthand for diassemble")
}

func (r *runCompiledCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	bytecode, err := compiler.Compile(string(data))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	if r.diassemble {
		text, err := compiler.DisassembleBytecode(*bytecode, filename)
		if err != nil {
			fmt.Fprintf(os.Stderr, "💥 Bytecode diassemble error:\n\t%s\n", err.Error())
			return subcommands.ExitFailure
		}
		printDisassembly(text)
	}

	machine := vm.New()
	if err := machine.Run(*bytecode); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}
