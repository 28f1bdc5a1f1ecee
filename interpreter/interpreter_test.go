package interpreter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"lox/lexer"
	"lox/parser"
	"lox/resolver"
)

// run lexes, parses, resolves and interprets source against a fresh
// interpreter with a CapturingPrinter, returning the captured output lines
// and the first error encountered at whichever stage produced one.
func run(t *testing.T, source string) ([]string, error) {
	t.Helper()

	tokens, err := lexer.New(source).Scan()
	if err != nil {
		return nil, err
	}

	statements, parseErrors := parser.Make(tokens).Parse()
	if len(parseErrors) > 0 {
		return nil, parseErrors[0]
	}

	printer := &CapturingPrinter{}
	interp := MakeWithPrinter(printer)

	res := resolver.New(interp)
	if resolveErrors := res.Resolve(statements); len(resolveErrors) > 0 {
		return nil, resolveErrors[0]
	}

	if err := interp.Interpret(statements); err != nil {
		return printer.Lines, err
	}
	return printer.Lines, nil
}

// a. Variables and shadowing
func TestVariablesAndShadowing(t *testing.T) {
	lines, err := run(t, `
	var a = "outer";
	{ var a = "inner"; print a; }
	print a;
	`)
	assert.NoError(t, err)
	assert.Equal(t, []string{"inner", "outer"}, lines)
}

// b. Closure captures a loop counter, not a snapshot of it.
func TestClosureCapturesMutableBinding(t *testing.T) {
	lines, err := run(t, `
	fun makeCounter() { var i = 0; fun c() { i = i + 1; print i; } return c; }
	var c = makeCounter(); c(); c();
	`)
	assert.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, lines)
}

// c. For-desugaring / Fibonacci-ish.
func TestForDesugaring(t *testing.T) {
	lines, err := run(t, `
	var a = 0; var temp = 0;
	for (var b = 1; a < 3; b = temp + b) { print a; temp = a; a = b; }
	`)
	assert.NoError(t, err)
	assert.Equal(t, []string{"0", "1", "1"}, lines)
}

// d. Class with "this".
func TestClassWithThis(t *testing.T) {
	lines, err := run(t, `
	class Cake { taste() { print "The " + this.flavor + " cake"; } }
	var k = Cake(); k.flavor = "chocolate"; k.taste();
	`)
	assert.NoError(t, err)
	assert.Equal(t, []string{"The chocolate cake"}, lines)
}

// e. Inheritance and "super".
func TestInheritanceAndSuper(t *testing.T) {
	lines, err := run(t, `
	class A { greet() { print "A"; } }
	class B < A { greet() { super.greet(); print "B"; } }
	B().greet();
	`)
	assert.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, lines)
}

// f. Arithmetic precedence.
func TestArithmeticPrecedence(t *testing.T) {
	lines, err := run(t, `print (5 - (3 - 1)) + -1;`)
	assert.NoError(t, err)
	assert.Equal(t, []string{"2"}, lines)
}

// g. Calling a non-function reports the exact wording and prints nothing
// for that statement.
func TestCallingNonFunctionReportsError(t *testing.T) {
	lines, err := run(t, `var notAFunction = 1; notAFunction();`)
	assert.Error(t, err)
	assert.Empty(t, lines)
	rtErr, ok := err.(RuntimeError)
	if !ok {
		t.Fatalf("expected RuntimeError, got %T", err)
	}
	assert.Equal(t, "Can only call functions and classes.", rtErr.Message)
}

// Universal invariant 3: closure capture survives the enclosing scope
// having already returned.
func TestClosureOutlivesEnclosingScope(t *testing.T) {
	lines, err := run(t, `
	fun outer() {
		var captured = "hi";
		fun inner() { print captured; }
		return inner;
	}
	var fn = outer();
	fn();
	`)
	assert.NoError(t, err)
	assert.Equal(t, []string{"hi"}, lines)
}

// Universal invariant 4: reading a bound method twice yields distinct
// function values sharing behavior but independently bound "this".
func TestMethodBindingProducesIndependentValues(t *testing.T) {
	lines, err := run(t, `
	class Box { show() { print this.label; } }
	var a = Box(); a.label = "a";
	var b = Box(); b.label = "b";
	var showA = a.show;
	var showB = b.show;
	showA(); showB();
	`)
	assert.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, lines)
}

// Universal invariant 5: calling a class with an "init" method always
// returns the constructed instance regardless of what init's body returns.
func TestInitializerAlwaysReturnsInstance(t *testing.T) {
	lines, err := run(t, `
	class Thing {
		init(label) { this.label = label; return; }
	}
	var t = Thing("widget");
	print t.label;
	`)
	assert.NoError(t, err)
	assert.Equal(t, []string{"widget"}, lines)
}

// Universal invariant 6: equality is reflexive on primitives and false
// across distinct types.
func TestEqualityReflexiveAndTypeAware(t *testing.T) {
	lines, err := run(t, `
	print 1 == 1;
	print "a" == "a";
	print 1 == "1";
	print nil == false;
	`)
	assert.NoError(t, err)
	assert.Equal(t, []string{"true", "true", "false", "false"}, lines)
}

// Universal invariant 7: the only falsy values are nil and false.
func TestTruthinessFalsySetIsExact(t *testing.T) {
	lines, err := run(t, `
	if (0) print "zero is truthy"; else print "zero is falsy";
	if ("") print "empty string is truthy"; else print "empty string is falsy";
	if (nil) print "nil is truthy"; else print "nil is falsy";
	if (false) print "false is truthy"; else print "false is falsy";
	`)
	assert.NoError(t, err)
	assert.Equal(t, []string{
		"zero is truthy",
		"empty string is truthy",
		"nil is falsy",
		"false is falsy",
	}, lines)
}

func TestUndefinedVariableIsRuntimeError(t *testing.T) {
	_, err := run(t, `print nowhere;`)
	assert.Error(t, err)
	_, ok := err.(RuntimeError)
	assert.True(t, ok, "expected RuntimeError, got %T", err)
}

func TestArityMismatchIsRuntimeError(t *testing.T) {
	_, err := run(t, `fun f(a, b) { return a + b; } f(1);`)
	assert.Error(t, err)
	rtErr, ok := err.(RuntimeError)
	if !ok {
		t.Fatalf("expected RuntimeError, got %T", err)
	}
	assert.Equal(t, "Expected 2 arguments but got 1.", rtErr.Message)
}
