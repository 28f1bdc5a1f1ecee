package fixtures

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lox/compiler"
	"lox/interpreter"
	"lox/lexer"
	"lox/parser"
	"lox/resolver"
	"lox/vm"
)

func runTreeWalk(t *testing.T, source string) []string {
	t.Helper()

	tokens, err := lexer.New(source).Scan()
	require.NoError(t, err)

	statements, parseErrors := parser.Make(tokens).Parse()
	require.Empty(t, parseErrors)

	printer := &interpreter.CapturingPrinter{}
	interp := interpreter.MakeWithPrinter(printer)

	res := resolver.New(interp)
	require.Empty(t, res.Resolve(statements))

	require.NoError(t, interp.Interpret(statements))
	return printer.Lines
}

func runVM(t *testing.T, source string) []string {
	t.Helper()

	bytecode, err := compiler.Compile(source)
	require.NoError(t, err)

	printer := &vm.CapturingPrinter{}
	machine := vm.NewWithPrinter(printer)
	require.NoError(t, machine.Run(*bytecode))
	return printer.Lines
}

// TestTreeWalkFixtures runs every fixture under testdata/dual and
// testdata/treewalk through the tree-walk evaluator, asserting its
// captured output matches the fixture's `expect:` comments line for line.
func TestTreeWalkFixtures(t *testing.T) {
	for _, dir := range []string{"testdata/dual", "testdata/treewalk"} {
		fixtures, err := LoadDir(dir)
		require.NoError(t, err)
		require.NotEmpty(t, fixtures)

		for _, fx := range fixtures {
			t.Run(fx.Name, func(t *testing.T) {
				assert.Equal(t, fx.Expected, runTreeWalk(t, fx.Source))
			})
		}
	}
}

// TestDualEvaluatorAgreement runs every fixture under testdata/dual
// through both the tree-walk evaluator and the bytecode VM, asserting
// they agree with each other and with the fixture's `expect:` comments.
// Fixtures under testdata/treewalk use functions and classes, which the
// bytecode compiler does not yet support, so they are tree-walk only.
func TestDualEvaluatorAgreement(t *testing.T) {
	fixtures, err := LoadDir("testdata/dual")
	require.NoError(t, err)
	require.NotEmpty(t, fixtures)

	for _, fx := range fixtures {
		t.Run(fx.Name, func(t *testing.T) {
			treeLines := runTreeWalk(t, fx.Source)
			vmLines := runVM(t, fx.Source)
			assert.Equal(t, fx.Expected, treeLines)
			assert.Equal(t, fx.Expected, vmLines)
		})
	}
}
