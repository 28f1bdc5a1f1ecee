package compiler

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Bytecode is the linear container produced by Compile: a flat instruction
// stream, a constant pool referenced by Constant/GetGlobal/etc. operands,
// and a line-number array shadowing Instructions byte-for-byte so a
// runtime error at any instruction pointer can be attributed to a source
// line.
type Bytecode struct {
	Instructions  Instructions
	ConstantsPool []any
	Lines         []int32
}

type Opcode byte
type Instructions []byte

// Opcodes. Operand widths are fixed per opcode (see definitions below):
// a zero-operand opcode is one byte; every other opcode here takes a
// single 2-byte big-endian operand, so constant and local-slot indices
// reach at most 65535, and jump and loop operands, which are stored and
// read as signed 16-bit values, reach at most 32767 bytes.
const (
	OP_CONSTANT Opcode = iota
	OP_NIL
	OP_TRUE
	OP_FALSE
	OP_POP
	OP_EQUAL
	OP_GREATER
	OP_LESS
	OP_ADD
	OP_SUBTRACT
	OP_MULTIPLY
	OP_DIVIDE
	OP_NOT
	OP_NEGATE
	OP_PRINT
	OP_JUMP
	OP_JUMP_IF_FALSE
	OP_LOOP
	OP_DEFINE_GLOBAL
	OP_GET_GLOBAL
	OP_SET_GLOBAL
	OP_GET_LOCAL
	OP_SET_LOCAL
	OP_RETURN
)

// OpCodeDefinition documents an opcode's mnemonic and the byte width of
// each of its operands (empty for a zero-operand opcode).
type OpCodeDefinition struct {
	Name          string
	OperandWidths []int
}

var definitions = map[Opcode]*OpCodeDefinition{
	OP_CONSTANT:      {Name: "OP_CONSTANT", OperandWidths: []int{2}},
	OP_NIL:           {Name: "OP_NIL", OperandWidths: []int{}},
	OP_TRUE:          {Name: "OP_TRUE", OperandWidths: []int{}},
	OP_FALSE:         {Name: "OP_FALSE", OperandWidths: []int{}},
	OP_POP:           {Name: "OP_POP", OperandWidths: []int{}},
	OP_EQUAL:         {Name: "OP_EQUAL", OperandWidths: []int{}},
	OP_GREATER:       {Name: "OP_GREATER", OperandWidths: []int{}},
	OP_LESS:          {Name: "OP_LESS", OperandWidths: []int{}},
	OP_ADD:           {Name: "OP_ADD", OperandWidths: []int{}},
	OP_SUBTRACT:      {Name: "OP_SUBTRACT", OperandWidths: []int{}},
	OP_MULTIPLY:      {Name: "OP_MULTIPLY", OperandWidths: []int{}},
	OP_DIVIDE:        {Name: "OP_DIVIDE", OperandWidths: []int{}},
	OP_NOT:           {Name: "OP_NOT", OperandWidths: []int{}},
	OP_NEGATE:        {Name: "OP_NEGATE", OperandWidths: []int{}},
	OP_PRINT:         {Name: "OP_PRINT", OperandWidths: []int{}},
	OP_JUMP:          {Name: "OP_JUMP", OperandWidths: []int{2}},
	OP_JUMP_IF_FALSE: {Name: "OP_JUMP_IF_FALSE", OperandWidths: []int{2}},
	OP_LOOP:          {Name: "OP_LOOP", OperandWidths: []int{2}},
	OP_DEFINE_GLOBAL: {Name: "OP_DEFINE_GLOBAL", OperandWidths: []int{2}},
	OP_GET_GLOBAL:    {Name: "OP_GET_GLOBAL", OperandWidths: []int{2}},
	OP_SET_GLOBAL:    {Name: "OP_SET_GLOBAL", OperandWidths: []int{2}},
	OP_GET_LOCAL:     {Name: "OP_GET_LOCAL", OperandWidths: []int{2}},
	OP_SET_LOCAL:     {Name: "OP_SET_LOCAL", OperandWidths: []int{2}},
	OP_RETURN:        {Name: "OP_RETURN", OperandWidths: []int{}},
}

// Get looks up an opcode's definition, failing for any byte that doesn't
// correspond to a known instruction.
func Get(op Opcode) (*OpCodeDefinition, error) {
	def, ok := definitions[op]
	if !ok {
		return nil, fmt.Errorf("opcode %d undefined", op)
	}
	return def, nil
}

// AssembleInstruction encodes a single instruction - opcode byte followed
// by its operands, each written big-endian at its defined width.
func AssembleInstruction(op Opcode, operands ...int) ([]byte, error) {
	def, err := Get(op)
	if err != nil {
		return nil, err
	}

	length := 1
	for _, w := range def.OperandWidths {
		length += w
	}
	instruction := make([]byte, length)
	instruction[0] = byte(op)

	offset := 1
	for i, width := range def.OperandWidths {
		switch width {
		case 2:
			binary.BigEndian.PutUint16(instruction[offset:], uint16(operands[i]))
		}
		offset += width
	}
	return instruction, nil
}

// instructionWidth returns the total byte length (opcode + operands) of
// an instruction whose opcode is op.
func instructionWidth(op Opcode) (int, error) {
	def, err := Get(op)
	if err != nil {
		return 0, err
	}
	width := 1
	for _, w := range def.OperandWidths {
		width += w
	}
	return width, nil
}

// DiassembleInstruction renders a single encoded instruction (opcode byte
// plus operand bytes) as a human-readable line.
func DiassembleInstruction(instruction []byte) (string, error) {
	if len(instruction) == 0 {
		return "", fmt.Errorf("empty instruction")
	}
	op := Opcode(instruction[0])
	def, err := Get(op)
	if err != nil {
		return "", err
	}
	if len(def.OperandWidths) == 0 {
		return fmt.Sprintf("opcode: %s, operand: None, operand widths: 0 bytes", def.Name), nil
	}
	width := def.OperandWidths[0]
	operand := uint16(0)
	if width == 2 && len(instruction) >= 3 {
		operand = binary.BigEndian.Uint16(instruction[1:3])
	}
	return fmt.Sprintf("opcode: %s, operand: %d, operand widths: %d bytes", def.Name, operand, width), nil
}

// DisassembleBytecode renders an entire chunk as a sequence of
// "OFFSET line LINE opcode: ..." lines, one per instruction, under a
// "== name ==" header naming the chunk (typically the source file the chunk was compiled from).
func DisassembleBytecode(bytecode Bytecode, name string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", name)

	offset := 0
	for offset < len(bytecode.Instructions) {
		op := Opcode(bytecode.Instructions[offset])
		width, err := instructionWidth(op)
		if err != nil {
			return "", err
		}
		line, err := DiassembleInstruction(bytecode.Instructions[offset : offset+width])
		if err != nil {
			return "", err
		}
		sourceLine := int32(0)
		if offset < len(bytecode.Lines) {
			sourceLine = bytecode.Lines[offset]
		}
		fmt.Fprintf(&b, "%04d line %-4d %s\n", offset, sourceLine, line)
		offset += width
	}
	return b.String(), nil
}

// Chunk is a thin builder over Bytecode: it owns appending instructions
// and constants while keeping Lines in lockstep with Instructions.
type Chunk struct {
	Bytecode
}

// NewChunk returns an empty chunk ready for emission.
func NewChunk() *Chunk {
	return &Chunk{Bytecode{
		Instructions:  Instructions{},
		ConstantsPool: []any{},
		Lines:         []int32{},
	}}
}

// Emit assembles and appends a single instruction at the given source
// line, returning the byte offset the instruction was written at (its
// opcode byte).
func (c *Chunk) Emit(line int32, op Opcode, operands ...int) (int, error) {
	instruction, err := AssembleInstruction(op, operands...)
	if err != nil {
		return 0, err
	}
	pos := len(c.Instructions)
	c.Instructions = append(c.Instructions, instruction...)
	for range instruction {
		c.Lines = append(c.Lines, line)
	}
	return pos, nil
}

// AddConstant appends a value to the constant pool, failing once it would
// exceed the 65536 entries (indices 0-65535) a 2-byte operand can address - the
// compiler emits this as a compile-time SemanticError rather than a
// generic range check.
func (c *Chunk) AddConstant(value any) (int, error) {
	if len(c.ConstantsPool) >= 65536 {
		return 0, fmt.Errorf("Too many constants in one chunk.")
	}
	c.ConstantsPool = append(c.ConstantsPool, value)
	return len(c.ConstantsPool) - 1, nil
}

// PatchJump overwrites the 2-byte operand of the jump instruction at
// jumpPos (the offset of its opcode byte) with the distance from just
// after that instruction to targetPos - the VM always applies jump
// operands relative to the byte immediately following the jump
// instruction itself.
func (c *Chunk) PatchJump(jumpPos int, targetPos int) {
	operandPos := jumpPos + 1
	offset := targetPos - (jumpPos + 3)
	binary.BigEndian.PutUint16(c.Instructions[operandPos:], uint16(int16(offset)))
}

// Len returns the current length of the instruction stream, i.e. the byte
// offset the next emitted instruction will be written at.
func (c *Chunk) Len() int {
	return len(c.Instructions)
}
