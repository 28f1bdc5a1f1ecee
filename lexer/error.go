package lexer

import "fmt"

// LexError reports a lexical failure: an unterminated string, an invalid
// number literal, or an unexpected character, each carrying the source
// line it occurred on.
type LexError struct {
	Line    int32
	Message string
}

func CreateLexError(line int32, message string) LexError {
	return LexError{Line: line, Message: message}
}

func (e LexError) Error() string {
	return fmt.Sprintf("💥 Lox Lex error:\nline:%d - %s", e.Line, e.Message)
}
