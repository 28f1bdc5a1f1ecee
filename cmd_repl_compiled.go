package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"lox/compiler"
	"lox/lexer"
	"lox/parser"
	"lox/token"
	"lox/vm"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/google/subcommands"
)

type replCompiledCmd struct {
	diassemble   bool
	dumpBytecode bool
	dumpAST      bool
}

func (*replCompiledCmd) Name() string { return "replC" }
func (*replCompiledCmd) Synopsis() string {
	return "Start a REPL session backed by the bytecode compiler and VM"
}
func (*replCompiledCmd) Usage() string {
	return `lox replC`
}

func (cmd *replCompiledCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.diassemble, "diassemble", false, "diassemble each compiled line and dump it to a .dloxc file")
	f.BoolVar(&cmd.dumpBytecode, "dumpBytecode", false, "write each line's encoded bytecode to a .loxc file")
	f.BoolVar(&cmd.dumpAST, "dumpAST", false, "write the AST as JSON to a file")
	f.BoolVar(&cmd.diassemble, "di", false, "shorthand for diassemble")
	f.BoolVar(&cmd.dumpBytecode, "du", false, "shorthand for dumpBytecode")
	f.BoolVar(&cmd.dumpAST, "da", false, "shorthand for dumpAST")
}

func (cmd *replCompiledCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	color.New(color.FgGreen, color.Bold).Println("\nWelcome to the Lox bytecode REPL!")
	fmt.Println("")

	rl, err := readline.New(color.CyanString(">>> "))
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to start REPL: %v\n", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	machine := vm.New()
	var buffer strings.Builder
	errorPrefix := color.New(color.FgRed).SprintFunc()

	for {
		if buffer.Len() == 0 {
			rl.SetPrompt(color.CyanString(">>> "))
		} else {
			rl.SetPrompt(color.CyanString("... "))
		}
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			buffer.Reset()
			continue
		}
		if err == io.EOF {
			return subcommands.ExitSuccess
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, errorPrefix("💥"), err)
			return subcommands.ExitFailure
		}

		if strings.TrimSpace(line) == "exit" && buffer.Len() == 0 {
			return subcommands.ExitSuccess
		}

		if buffer.Len() > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(line)
		source := buffer.String()

		lex := lexer.New(source)
		tokens, err := lex.Scan()
		if err != nil {
			fmt.Println(err)
			buffer.Reset()
			continue
		}

		if !isInputReady(tokens) {
			continue
		}

		p := parser.Make(tokens)
		statements, parseErrs := p.Parse()
		if len(parseErrs) > 0 {
			// If all parse errors are syntax errors that occur at the position of
			// the EOF token, the user hasn't finished typing their input yet:
			// wait for more input instead of showing an error.
			if allParseErrorsAtEOF(parseErrs, tokens[len(tokens)-1]) {
				continue
			}
			fmt.Fprint(os.Stdout, "Parse error: ")
			for _, pErr := range parseErrs {
				fmt.Fprintf(os.Stdout, "%v\n", pErr)
			}
			buffer.Reset()
			continue
		}

		if cmd.dumpAST {
			if err := p.PrintToFile(statements, "ast.json"); err != nil {
				fmt.Fprintln(os.Stderr, errorPrefix("💥"), "Dump AST error:", err)
			}
		}

		bytecode, err := compiler.Compile(source)
		if err != nil {
			fmt.Fprintln(os.Stderr, errorPrefix("💥"), err)
			buffer.Reset()
			continue
		}

		if cmd.diassemble {
			text, err := compiler.DisassembleBytecode(*bytecode, "repl")
			if err != nil {
				fmt.Fprintln(os.Stderr, errorPrefix("💥"), "Bytecode diassemble error:", err)
			} else {
				fmt.Print(text)
			}
		}
		if cmd.dumpBytecode {
			if err := dumpBytecode(*bytecode, "repl.loxc"); err != nil {
				fmt.Fprintln(os.Stderr, errorPrefix("💥"), "Dump bytecode error:", err)
			}
		}

		if runtimeErr := machine.Run(*bytecode); runtimeErr != nil {
			fmt.Fprintln(os.Stderr, errorPrefix("💥"), runtimeErr)
			buffer.Reset()
			continue
		}
		buffer.Reset()
	}
}

// isInputReady reports whether the buffered input is complete enough to
// compile: braces balanced, and the last non-EOF token isn't an operator
// or keyword that obviously expects a continuation (e.g. typing
// `if (x > 5) {` should wait for the closing brace before running).
func isInputReady(tokens []token.Token) bool {
	braceBalance := 0
	for _, tok := range tokens {
		switch tok.TokenType {
		case token.LCUR:
			braceBalance++
		case token.RCUR:
			braceBalance--
		}
	}
	if braceBalance > 0 {
		return false
	}

	last := lastNonEOF(tokens)
	if last == nil {
		return true
	}

	switch last.TokenType {
	case token.ASSIGN,
		token.ADD,
		token.SUB,
		token.MULT,
		token.DIV,
		token.BANG,
		token.EQUAL_EQUAL,
		token.NOT_EQUAL,
		token.LESS,
		token.LESS_EQUAL,
		token.LARGER,
		token.LARGER_EQUAL,
		token.COMMA,
		token.LPA,
		token.LCUR,
		token.IF,
		token.ELSE,
		token.WHILE,
		token.FOR,
		token.FUNC,
		token.RETURN,
		token.VAR,
		token.AND,
		token.OR,
		token.PRINT:
		return false
	}

	return true
}

// lastNonEOF returns the last non-EOF token, or nil if every token is EOF.
func lastNonEOF(tokens []token.Token) *token.Token {
	for i := len(tokens) - 1; i >= 0; i-- {
		if tokens[i].TokenType != token.EOF {
			return &tokens[i]
		}
	}
	return nil
}

// allParseErrorsAtEOF reports whether every parse error is a syntax error
// positioned at the EOF token - a signal the buffered input is simply
// incomplete rather than actually malformed.
func allParseErrorsAtEOF(parseErrs []error, eof token.Token) bool {
	for _, parseErr := range parseErrs {
		syntaxErr, ok := parseErr.(parser.SyntaxError)
		if !ok {
			return false
		}
		if syntaxErr.Line != eof.Line || syntaxErr.Column != eof.Column {
			return false
		}
	}
	return len(parseErrs) > 0
}
