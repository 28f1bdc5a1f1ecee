package compiler

import (
	"testing"
)

func TestAssembleInstruction(t *testing.T) {
	operand := 65000
	tests := []struct {
		op       Opcode
		operands []int
		expected []byte
	}{
		{OP_CONSTANT, []int{operand}, []byte{byte(OP_CONSTANT), 253, 232}},
		{OP_RETURN, []int{}, []byte{byte(OP_RETURN)}},
		{OP_ADD, []int{}, []byte{byte(OP_ADD)}},
		{OP_MULTIPLY, []int{}, []byte{byte(OP_MULTIPLY)}},
		{OP_DIVIDE, []int{}, []byte{byte(OP_DIVIDE)}},
		{OP_SUBTRACT, []int{}, []byte{byte(OP_SUBTRACT)}},
		{OP_NEGATE, []int{}, []byte{byte(OP_NEGATE)}},
		{OP_NOT, []int{}, []byte{byte(OP_NOT)}},
		{OP_PRINT, []int{}, []byte{byte(OP_PRINT)}},
		{OP_EQUAL, []int{}, []byte{byte(OP_EQUAL)}},
		{OP_GREATER, []int{}, []byte{byte(OP_GREATER)}},
		{OP_LESS, []int{}, []byte{byte(OP_LESS)}},
		{OP_DEFINE_GLOBAL, []int{operand}, []byte{byte(OP_DEFINE_GLOBAL), 253, 232}},
		{OP_SET_GLOBAL, []int{operand}, []byte{byte(OP_SET_GLOBAL), 253, 232}},
		{OP_GET_GLOBAL, []int{operand}, []byte{byte(OP_GET_GLOBAL), 253, 232}},
		{OP_SET_LOCAL, []int{operand}, []byte{byte(OP_SET_LOCAL), 253, 232}},
		{OP_GET_LOCAL, []int{operand}, []byte{byte(OP_GET_LOCAL), 253, 232}},
		{OP_JUMP, []int{operand}, []byte{byte(OP_JUMP), 253, 232}},
		{OP_JUMP_IF_FALSE, []int{operand}, []byte{byte(OP_JUMP_IF_FALSE), 253, 232}},
		{OP_LOOP, []int{operand}, []byte{byte(OP_LOOP), 253, 232}},
		{OP_POP, []int{}, []byte{byte(OP_POP)}},
		{OP_NIL, []int{}, []byte{byte(OP_NIL)}},
		{OP_TRUE, []int{}, []byte{byte(OP_TRUE)}},
		{OP_FALSE, []int{}, []byte{byte(OP_FALSE)}},
	}

	for _, tt := range tests {
		instruction, err := AssembleInstruction(tt.op, tt.operands...)
		if err != nil {
			t.Errorf("error assembling instruction: %v", err)
		}
		if len(instruction) != len(tt.expected) {
			t.Errorf("instruction has wrong length - got: %d, want: %d", len(instruction), len(tt.expected))
		}
		for i, b := range tt.expected {
			if instruction[i] != b {
				t.Errorf("instruction has wrong byte at %d - got: %v, want: %v", i, instruction[i], b)
			}
		}
	}
}

func TestAssembleInstructionUnknownOpcode(t *testing.T) {
	_, err := AssembleInstruction(Opcode(255))
	if err == nil {
		t.Error("expected an error for an undefined opcode")
	}
}

func TestDiassembleInstruction(t *testing.T) {
	tests := []struct {
		instruction []byte
		expected    string
	}{
		{[]byte{byte(OP_CONSTANT), 253, 232}, "opcode: OP_CONSTANT, operand: 65000, operand widths: 2 bytes"},
		{[]byte{byte(OP_RETURN)}, "opcode: OP_RETURN, operand: None, operand widths: 0 bytes"},
		{[]byte{byte(OP_ADD)}, "opcode: OP_ADD, operand: None, operand widths: 0 bytes"},
		{[]byte{byte(OP_MULTIPLY)}, "opcode: OP_MULTIPLY, operand: None, operand widths: 0 bytes"},
		{[]byte{byte(OP_DIVIDE)}, "opcode: OP_DIVIDE, operand: None, operand widths: 0 bytes"},
		{[]byte{byte(OP_SUBTRACT)}, "opcode: OP_SUBTRACT, operand: None, operand widths: 0 bytes"},
		{[]byte{byte(OP_NEGATE)}, "opcode: OP_NEGATE, operand: None, operand widths: 0 bytes"},
		{[]byte{byte(OP_NOT)}, "opcode: OP_NOT, operand: None, operand widths: 0 bytes"},
		{[]byte{byte(OP_PRINT)}, "opcode: OP_PRINT, operand: None, operand widths: 0 bytes"},
		{[]byte{byte(OP_EQUAL)}, "opcode: OP_EQUAL, operand: None, operand widths: 0 bytes"},
		{[]byte{byte(OP_GREATER)}, "opcode: OP_GREATER, operand: None, operand widths: 0 bytes"},
		{[]byte{byte(OP_LESS)}, "opcode: OP_LESS, operand: None, operand widths: 0 bytes"},
		{[]byte{byte(OP_DEFINE_GLOBAL), 253, 232}, "opcode: OP_DEFINE_GLOBAL, operand: 65000, operand widths: 2 bytes"},
		{[]byte{byte(OP_SET_GLOBAL), 253, 232}, "opcode: OP_SET_GLOBAL, operand: 65000, operand widths: 2 bytes"},
		{[]byte{byte(OP_GET_GLOBAL), 253, 232}, "opcode: OP_GET_GLOBAL, operand: 65000, operand widths: 2 bytes"},
		{[]byte{byte(OP_SET_LOCAL), 253, 232}, "opcode: OP_SET_LOCAL, operand: 65000, operand widths: 2 bytes"},
		{[]byte{byte(OP_GET_LOCAL), 253, 232}, "opcode: OP_GET_LOCAL, operand: 65000, operand widths: 2 bytes"},
		{[]byte{byte(OP_JUMP), 253, 232}, "opcode: OP_JUMP, operand: 65000, operand widths: 2 bytes"},
		{[]byte{byte(OP_JUMP_IF_FALSE), 253, 232}, "opcode: OP_JUMP_IF_FALSE, operand: 65000, operand widths: 2 bytes"},
		{[]byte{byte(OP_LOOP), 253, 232}, "opcode: OP_LOOP, operand: 65000, operand widths: 2 bytes"},
		{[]byte{byte(OP_POP)}, "opcode: OP_POP, operand: None, operand widths: 0 bytes"},
	}

	for _, tt := range tests {
		result, err := DiassembleInstruction(tt.instruction)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if tt.expected != result {
			t.Errorf("wrong diassembled instruction - got: %s, want: %s", result, tt.expected)
		}
	}
}

func TestChunkAddConstantOverflow(t *testing.T) {
	chunk := NewChunk()
	for i := 0; i < 65536; i++ {
		if _, err := chunk.AddConstant(float64(i)); err != nil {
			t.Fatalf("unexpected error adding constant %d: %v", i, err)
		}
	}
	if _, err := chunk.AddConstant(float64(65536)); err == nil {
		t.Error("expected an error once the constant pool exceeds the 2-byte operand's 65536-entry range")
	}
}
