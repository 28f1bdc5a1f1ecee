package vm

import (
	"encoding/binary"
	"fmt"
	"math"

	"lox/compiler"
	"lox/interpreter"
)

// numberComparisonEpsilon mirrors the tree-walk evaluator's tolerance for
// comparing two floats, so both terminals agree on what "equal" means for
// a Lox number.
const numberComparisonEpsilon = 2.220446049250313e-16

const stackMax = 256

// Printer is the VM's output sink, mirroring the tree-walk evaluator's
// LinePrinter collaborator: production binds it to standard output, tests
// bind a capturing implementation so assertions don't need to touch the
// console.
type Printer interface {
	Print(line string)
}

// StdoutPrinter writes each line to standard output, same as fmt.Println
// in the tree-walk evaluator's Print statement.
type StdoutPrinter struct{}

func (StdoutPrinter) Print(line string) {
	fmt.Println(line)
}

// CapturingPrinter records every printed line in order, for tests that
// assert on a program's output without touching the console.
type CapturingPrinter struct {
	Lines []string
}

func (p *CapturingPrinter) Print(line string) {
	p.Lines = append(p.Lines, line)
}

func (p *CapturingPrinter) History() []string {
	return p.Lines
}

// VM is a stack machine interpreting a compiler.Bytecode chunk: a value
// stack that grows by append with no capacity limit (stackMax is not
// checked anywhere), an instruction pointer, and a global
// variable table keyed by name (locals live purely on the stack at
// compile-known slots, so they need no runtime table).
type VM struct {
	stack   Stack
	ip      int
	globals map[string]any
	printer Printer
}

// New returns a VM that writes Print output to standard output.
func New() *VM {
	return &VM{globals: map[string]any{}, printer: StdoutPrinter{}}
}

// NewWithPrinter returns a VM writing Print output through printer,
// e.g. a CapturingPrinter in tests.
func NewWithPrinter(printer Printer) *VM {
	return &VM{globals: map[string]any{}, printer: printer}
}

func readUint16(instructions compiler.Instructions, at int) uint16 {
	return binary.BigEndian.Uint16(instructions[at : at+2])
}

// Run executes bytecode to completion. It returns nil on normal
// completion (an OP_RETURN was reached) or a RuntimeError carrying the
// source line of the faulting instruction.
func (vm *VM) Run(bytecode compiler.Bytecode) error {
	vm.ip = 0
	vm.stack = Stack{}

	lineAt := func(ip int) int32 {
		if ip >= 0 && ip < len(bytecode.Lines) {
			return bytecode.Lines[ip]
		}
		return 0
	}

	for {
		startIP := vm.ip
		opCode := compiler.Opcode(bytecode.Instructions[vm.ip])
		vm.ip++

		switch opCode {
		case compiler.OP_CONSTANT:
			idx := readUint16(bytecode.Instructions, vm.ip)
			vm.ip += 2
			vm.stack.Push(bytecode.ConstantsPool[idx])

		case compiler.OP_NIL:
			vm.stack.Push(nil)
		case compiler.OP_TRUE:
			vm.stack.Push(true)
		case compiler.OP_FALSE:
			vm.stack.Push(false)

		case compiler.OP_POP:
			vm.stack.Pop()

		case compiler.OP_EQUAL:
			right, _ := vm.stack.Pop()
			left, _ := vm.stack.Pop()
			vm.stack.Push(valuesEqual(left, right))

		case compiler.OP_GREATER, compiler.OP_LESS, compiler.OP_ADD,
			compiler.OP_SUBTRACT, compiler.OP_MULTIPLY, compiler.OP_DIVIDE:
			if err := vm.binaryOp(opCode); err != nil {
				return vm.runtimeError(lineAt(startIP), err.Error())
			}

		case compiler.OP_NOT:
			v, _ := vm.stack.Pop()
			vm.stack.Push(!isTruthy(v))

		case compiler.OP_NEGATE:
			v, ok := vm.stack.Peek()
			if !ok {
				return vm.runtimeError(lineAt(startIP), "Operands must be numbers.")
			}
			num, isNum := v.(float64)
			if !isNum {
				return vm.runtimeError(lineAt(startIP), "Operands must be numbers.")
			}
			vm.stack.Pop()
			vm.stack.Push(-num)

		case compiler.OP_PRINT:
			v, _ := vm.stack.Pop()
			vm.printer.Print(interpreter.Stringify(v))

		case compiler.OP_DEFINE_GLOBAL:
			idx := readUint16(bytecode.Instructions, vm.ip)
			vm.ip += 2
			name := bytecode.ConstantsPool[idx].(string)
			value, _ := vm.stack.Pop()
			vm.globals[name] = value

		case compiler.OP_GET_GLOBAL:
			idx := readUint16(bytecode.Instructions, vm.ip)
			vm.ip += 2
			name := bytecode.ConstantsPool[idx].(string)
			value, ok := vm.globals[name]
			if !ok {
				return vm.runtimeError(lineAt(startIP), fmt.Sprintf("Undefined variable '%s'.", name))
			}
			vm.stack.Push(value)

		case compiler.OP_SET_GLOBAL:
			idx := readUint16(bytecode.Instructions, vm.ip)
			vm.ip += 2
			name := bytecode.ConstantsPool[idx].(string)
			if _, ok := vm.globals[name]; !ok {
				return vm.runtimeError(lineAt(startIP), fmt.Sprintf("Undefined variable '%s'.", name))
			}
			value, _ := vm.stack.Peek()
			vm.globals[name] = value

		case compiler.OP_GET_LOCAL:
			slot := readUint16(bytecode.Instructions, vm.ip)
			vm.ip += 2
			vm.stack.Push(vm.stack[slot])

		case compiler.OP_SET_LOCAL:
			slot := readUint16(bytecode.Instructions, vm.ip)
			vm.ip += 2
			value, _ := vm.stack.Peek()
			vm.stack[slot] = value

		case compiler.OP_JUMP:
			offset := int16(readUint16(bytecode.Instructions, vm.ip))
			vm.ip += 2
			vm.ip = startIP + 3 + int(offset)

		case compiler.OP_JUMP_IF_FALSE:
			offset := int16(readUint16(bytecode.Instructions, vm.ip))
			vm.ip += 2
			v, _ := vm.stack.Peek()
			if !isTruthy(v) {
				vm.ip = startIP + 3 + int(offset)
			}

		case compiler.OP_LOOP:
			offset := int16(readUint16(bytecode.Instructions, vm.ip))
			vm.ip += 2
			vm.ip = startIP + 3 - int(offset)

		case compiler.OP_RETURN:
			return nil

		default:
			return vm.runtimeError(lineAt(startIP), fmt.Sprintf("unknown opcode %v", opCode))
		}
	}
}

func (vm *VM) runtimeError(line int32, message string) error {
	return RuntimeError{Message: fmt.Sprintf("%s\n[line %d] in script", message, line)}
}

func (vm *VM) binaryOp(op compiler.Opcode) error {
	right, _ := vm.stack.Pop()
	left, _ := vm.stack.Pop()

	leftNum, leftIsNum := left.(float64)
	rightNum, rightIsNum := right.(float64)

	if op == compiler.OP_ADD {
		leftStr, leftIsStr := left.(string)
		rightStr, rightIsStr := right.(string)
		if leftIsStr && rightIsStr {
			vm.stack.Push(leftStr + rightStr)
			return nil
		}
		if leftIsNum && rightIsNum {
			vm.stack.Push(leftNum + rightNum)
			return nil
		}
		return fmt.Errorf("Operands must be two numbers or two strings.")
	}

	if !leftIsNum || !rightIsNum {
		return fmt.Errorf("Operands must be numbers.")
	}

	switch op {
	case compiler.OP_SUBTRACT:
		vm.stack.Push(leftNum - rightNum)
	case compiler.OP_MULTIPLY:
		vm.stack.Push(leftNum * rightNum)
	case compiler.OP_DIVIDE:
		vm.stack.Push(leftNum / rightNum)
	case compiler.OP_GREATER:
		vm.stack.Push(leftNum > rightNum)
	case compiler.OP_LESS:
		vm.stack.Push(leftNum < rightNum)
	}
	return nil
}

// isTruthy mirrors the tree-walk evaluator's rule: nil and false are
// falsy, everything else is truthy.
func isTruthy(value any) bool {
	if value == nil {
		return false
	}
	if b, ok := value.(bool); ok {
		return b
	}
	return true
}

// valuesEqual mirrors the tree-walk evaluator's equality: numbers compare
// within numberComparisonEpsilon rather than exact bit equality.
func valuesEqual(left, right any) bool {
	if left == nil && right == nil {
		return true
	}
	if left == nil || right == nil {
		return false
	}
	leftNum, leftIsNum := left.(float64)
	rightNum, rightIsNum := right.(float64)
	if leftIsNum && rightIsNum {
		return math.Abs(leftNum-rightNum) < numberComparisonEpsilon
	}
	return left == right
}
