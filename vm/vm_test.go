package vm

import (
	"testing"

	"lox/compiler"
)

func TestVMArithmetic(t *testing.T) {
	bytecode, err := compiler.Compile("print 1 + 2 * 3;")
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}

	printer := &CapturingPrinter{}
	machine := NewWithPrinter(printer)
	if err := machine.Run(*bytecode); err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}

	want := []string{"7"}
	if len(printer.Lines) != len(want) || printer.Lines[0] != want[0] {
		t.Errorf("got %v, want %v", printer.Lines, want)
	}
}

func TestVMStringConcatenation(t *testing.T) {
	bytecode, err := compiler.Compile(`print "foo" + "bar";`)
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}

	printer := &CapturingPrinter{}
	machine := NewWithPrinter(printer)
	if err := machine.Run(*bytecode); err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}

	if len(printer.Lines) != 1 || printer.Lines[0] != "foobar" {
		t.Errorf("got %v, want [foobar]", printer.Lines)
	}
}

func TestVMGlobalVariables(t *testing.T) {
	bytecode, err := compiler.Compile("var a = 1; var b = 2; print a + b;")
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}

	printer := &CapturingPrinter{}
	machine := NewWithPrinter(printer)
	if err := machine.Run(*bytecode); err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}

	if len(printer.Lines) != 1 || printer.Lines[0] != "3" {
		t.Errorf("got %v, want [3]", printer.Lines)
	}
}

func TestVMLocalScoping(t *testing.T) {
	source := `
	var a = "outer";
	{
		var a = "inner";
		print a;
	}
	print a;
	`
	bytecode, err := compiler.Compile(source)
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}

	printer := &CapturingPrinter{}
	machine := NewWithPrinter(printer)
	if err := machine.Run(*bytecode); err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}

	want := []string{"inner", "outer"}
	if len(printer.Lines) != len(want) || printer.Lines[0] != want[0] || printer.Lines[1] != want[1] {
		t.Errorf("got %v, want %v", printer.Lines, want)
	}
}

func TestVMIfElse(t *testing.T) {
	bytecode, err := compiler.Compile(`if (1 < 2) { print "yes"; } else { print "no"; }`)
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}

	printer := &CapturingPrinter{}
	machine := NewWithPrinter(printer)
	if err := machine.Run(*bytecode); err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}

	if len(printer.Lines) != 1 || printer.Lines[0] != "yes" {
		t.Errorf("got %v, want [yes]", printer.Lines)
	}
}

func TestVMWhileLoop(t *testing.T) {
	source := `
	var i = 0;
	while (i < 3) {
		print i;
		i = i + 1;
	}
	`
	bytecode, err := compiler.Compile(source)
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}

	printer := &CapturingPrinter{}
	machine := NewWithPrinter(printer)
	if err := machine.Run(*bytecode); err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}

	want := []string{"0", "1", "2"}
	if len(printer.Lines) != len(want) {
		t.Fatalf("got %v, want %v", printer.Lines, want)
	}
	for i, line := range want {
		if printer.Lines[i] != line {
			t.Errorf("line %d: got %q, want %q", i, printer.Lines[i], line)
		}
	}
}

func TestVMForLoop(t *testing.T) {
	source := `
	for (var i = 0; i < 3; i = i + 1) {
		print i;
	}
	`
	bytecode, err := compiler.Compile(source)
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}

	printer := &CapturingPrinter{}
	machine := NewWithPrinter(printer)
	if err := machine.Run(*bytecode); err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}

	want := []string{"0", "1", "2"}
	if len(printer.Lines) != len(want) {
		t.Fatalf("got %v, want %v", printer.Lines, want)
	}
	for i, line := range want {
		if printer.Lines[i] != line {
			t.Errorf("line %d: got %q, want %q", i, printer.Lines[i], line)
		}
	}
}

func TestVMTypeErrorOnArithmetic(t *testing.T) {
	bytecode, err := compiler.Compile(`print 1 + "two";`)
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}

	machine := New()
	err = machine.Run(*bytecode)
	if err == nil {
		t.Fatal("expected a runtime error")
	}
	if _, ok := err.(RuntimeError); !ok {
		t.Errorf("expected RuntimeError, got %T: %v", err, err)
	}
}

func TestVMUndefinedGlobal(t *testing.T) {
	bytecode, err := compiler.Compile(`print missing;`)
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}

	machine := New()
	err = machine.Run(*bytecode)
	if err == nil {
		t.Fatal("expected a runtime error")
	}
}
