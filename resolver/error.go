package resolver

import "fmt"

// ResolveError reports a static scope-resolution violation: an invalid
// `this`/`super` use, an illegal `return`, self-referencing initializer,
// shadowing violation, or similar rule named in the resolver's scope
// analysis - each carrying the source line/column it was found at.
type ResolveError struct {
	Line    int32
	Column  int
	Message string
}

func CreateResolveError(line int32, column int, message string) ResolveError {
	return ResolveError{Line: line, Column: column, Message: message}
}

func (e ResolveError) Error() string {
	return fmt.Sprintf("💥 Lox Resolve error:\nline:%d, column:%d - %s", e.Line, e.Column, e.Message)
}
