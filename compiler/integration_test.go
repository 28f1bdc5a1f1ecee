package compiler

import "testing"

// TestFullPipeline exercises Compile end to end: source text straight to a
// Bytecode chunk, without going through the shared lexer/parser/AST path -
// the compiler drives its own token stream, per the single-pass design.
func TestFullPipeline(t *testing.T) {
	tests := []struct {
		name                  string
		source                string
		expectedInstructions  []byte
		expectedConstantsPool []any
	}{
		{
			name:   "simple addition",
			source: "5 + 1;",
			expectedInstructions: []byte{
				byte(OP_CONSTANT), 0, 0,
				byte(OP_CONSTANT), 0, 1,
				byte(OP_ADD),
				byte(OP_POP),
				byte(OP_RETURN),
			},
			expectedConstantsPool: []any{float64(5), float64(1)},
		},
		{
			name:   "multiplication",
			source: "5 * 3;",
			expectedInstructions: []byte{
				byte(OP_CONSTANT), 0, 0,
				byte(OP_CONSTANT), 0, 1,
				byte(OP_MULTIPLY),
				byte(OP_POP),
				byte(OP_RETURN),
			},
			expectedConstantsPool: []any{float64(5), float64(3)},
		},
		{
			name:   "negation",
			source: "-5;",
			expectedInstructions: []byte{
				byte(OP_CONSTANT), 0, 0,
				byte(OP_NEGATE),
				byte(OP_POP),
				byte(OP_RETURN),
			},
			expectedConstantsPool: []any{float64(5)},
		},
		{
			name:   "precedence: multiplication binds tighter than addition",
			source: "5 * 3 + 2;",
			expectedInstructions: []byte{
				byte(OP_CONSTANT), 0, 0,
				byte(OP_CONSTANT), 0, 1,
				byte(OP_MULTIPLY),
				byte(OP_CONSTANT), 0, 2,
				byte(OP_ADD),
				byte(OP_POP),
				byte(OP_RETURN),
			},
			expectedConstantsPool: []any{float64(5), float64(3), float64(2)},
		},
		{
			name:   "not-equal desugars to equal then not",
			source: "1 != 2;",
			expectedInstructions: []byte{
				byte(OP_CONSTANT), 0, 0,
				byte(OP_CONSTANT), 0, 1,
				byte(OP_EQUAL),
				byte(OP_NOT),
				byte(OP_POP),
				byte(OP_RETURN),
			},
			expectedConstantsPool: []any{float64(1), float64(2)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bytecode, err := Compile(tt.source)
			if err != nil {
				t.Fatalf("compilation failed: %v", err)
			}

			if len(bytecode.Instructions) != len(tt.expectedInstructions) {
				t.Fatalf("bytecode length mismatch - got: %d, want: %d", len(bytecode.Instructions), len(tt.expectedInstructions))
			}
			for i, instr := range bytecode.Instructions {
				if instr != tt.expectedInstructions[i] {
					t.Errorf("instruction mismatch at index %d - got: %d, want: %d", i, instr, tt.expectedInstructions[i])
				}
			}

			if len(bytecode.ConstantsPool) != len(tt.expectedConstantsPool) {
				t.Fatalf("constants pool length mismatch - got: %d, want: %d", len(bytecode.ConstantsPool), len(tt.expectedConstantsPool))
			}
			for i, constant := range bytecode.ConstantsPool {
				if constant != tt.expectedConstantsPool[i] {
					t.Errorf("constant mismatch at index %d - got: %v, want: %v", i, constant, tt.expectedConstantsPool[i])
				}
			}

			if len(bytecode.Lines) != len(bytecode.Instructions) {
				t.Errorf("lines array must shadow instructions byte-for-byte - got: %d, want: %d", len(bytecode.Lines), len(bytecode.Instructions))
			}
		})
	}
}

func TestCompileSyntaxError(t *testing.T) {
	_, err := Compile("1 +;")
	if err == nil {
		t.Error("expected a compile error for a missing right operand")
	}
}
