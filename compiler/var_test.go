package compiler

import "testing"

func TestCompilerVariableBehavior(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		hasError bool
	}{
		{
			name:     "var declared with initializer then accessed -> success",
			source:   "var a = 0; print a;",
			hasError: false,
		},
		{
			name:     "var declared without initializer then accessed -> success",
			source:   "var a; print a;",
			hasError: false,
		},
		{
			name:     "redeclaration of a local in the same scope -> error",
			source:   "{ var a = 0; var a = 9; }",
			hasError: true,
		},
		{
			name:     "shadowing in a nested scope -> success",
			source:   "var a = 0; { var a = 9; print a; }",
			hasError: false,
		},
		{
			name:     "assignment to existing variable -> success",
			source:   "var a = 0; a = 1;",
			hasError: false,
		},
		{
			name:     "local reading itself in its own initializer -> error",
			source:   "{ var a = a; }",
			hasError: true,
		},
		{
			name:     "invalid assignment target -> error",
			source:   "1 = 2;",
			hasError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.source)
			if tt.hasError && err == nil {
				t.Errorf("expected error but got nil")
			}
			if !tt.hasError && err != nil {
				t.Errorf("unexpected compilation error: %s", err.Error())
			}
		})
	}
}
