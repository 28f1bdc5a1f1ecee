package main

import (
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"lox/compiler"

	"github.com/fatih/color"
	"github.com/google/subcommands"
)

// opcodeHighlight colors just the opcode mnemonic in a disassembled
// instruction line, e.g. "opcode: OP_ADD, operand: None, ..." prints with
// OP_ADD in bold magenta, leaving the rest of the line plain.
var opcodeHighlight = color.New(color.FgMagenta, color.Bold).SprintFunc()

// printDisassembly writes a DisassembleBytecode listing to stdout with its
// opcode mnemonics colorized, one line at a time.
func printDisassembly(text string) {
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		prefix := strings.Index(line, "opcode: ")
		if prefix == -1 {
			fmt.Println(line)
			continue
		}
		rest := line[prefix+len("opcode: "):]
		comma := strings.Index(rest, ",")
		if comma == -1 {
			fmt.Println(line)
			continue
		}
		fmt.Printf("%sopcode: %s%s\n", line[:prefix], opcodeHighlight(rest[:comma]), rest[comma:])
	}
}

type emitBytecodeCmd struct {
	diassemble   bool
	dumpBytecode bool
}

func (*emitBytecodeCmd) Name() string { return "emit" }
func (*emitBytecodeCmd) Synopsis() string {
	return "Emit the bytecode representation from a source file"
}
func (*emitBytecodeCmd) Usage() string {
	return `lox emit <file>`
}

func (cmd *emitBytecodeCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.diassemble, "diassemble", true, "diassemble the bytecode and dump it to a .dloxc text file.")
	f.BoolVar(&cmd.dumpBytecode, "dumpBytecode", true, "write the encoded bytecode as raw bytes to a .loxc file")
}

func (cmd *emitBytecodeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 File not provided\n")
		return subcommands.ExitUsageError
	}
	sourceFile := args[0]
	data, err := os.ReadFile(sourceFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to read file:\n\t%v\n", err)
		return subcommands.ExitFailure
	}

	bytecode, err := compiler.Compile(string(data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Compilation error:\n\t%v\n", err)
		return subcommands.ExitFailure
	}

	baseName := strings.TrimSuffix(sourceFile, filepath.Ext(sourceFile))

	if cmd.diassemble {
		text, err := compiler.DisassembleBytecode(*bytecode, baseName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "💥 Bytecode diassemble error:\n\t%s\n", err.Error())
			return subcommands.ExitFailure
		}
		printDisassembly(text)
		if err := os.WriteFile(baseName+".dloxc", []byte(text), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "💥 Failed to write diassembled bytecode:\n\t%s\n", err.Error())
			return subcommands.ExitFailure
		}
	}

	if cmd.dumpBytecode {
		if err := dumpBytecode(*bytecode, baseName+".loxc"); err != nil {
			fmt.Fprintf(os.Stderr, "💥 Dump bytecode error:\n\t%s\n", err.Error())
			return subcommands.ExitFailure
		}
	}

	return subcommands.ExitSuccess
}

// dumpBytecode writes a chunk's instruction stream to path as raw bytes,
// prefixed with a 4-byte big-endian byte length of the instruction stream
// for a sanity check on read-back.
func dumpBytecode(bytecode compiler.Bytecode, path string) error {
	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, uint32(len(bytecode.Instructions)))
	return os.WriteFile(path, append(header, bytecode.Instructions...), 0o644)
}
