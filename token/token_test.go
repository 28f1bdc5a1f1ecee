package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateToken(t *testing.T) {
	tok := CreateToken(ASSIGN, 3, 7)
	assert.Equal(t, ASSIGN, tok.TokenType)
	assert.Equal(t, "=", tok.Lexeme)
	assert.Nil(t, tok.Literal)
	assert.EqualValues(t, 3, tok.Line)
	assert.Equal(t, 7, tok.Column)
}

func TestCreateLiteralToken(t *testing.T) {
	tok := CreateLiteralToken(NUMBER, 42.0, "42", 1, 0)
	assert.Equal(t, NUMBER, tok.TokenType)
	assert.Equal(t, "42", tok.Lexeme)
	assert.Equal(t, 42.0, tok.Literal)
}

func TestKeyWordsCoverReservedWords(t *testing.T) {
	for _, word := range []string{
		"and", "class", "else", "false", "for", "fun", "if", "nil",
		"or", "print", "return", "super", "this", "true", "var", "while",
	} {
		tokType, ok := KeyWords[word]
		assert.True(t, ok, "expected %q to be a reserved keyword", word)
		assert.NotEqual(t, IDENTIFIER, tokType)
	}
}

func TestStringIncludesTypeAndLexeme(t *testing.T) {
	tok := CreateToken(LPA, 0, 0)
	assert.Contains(t, tok.String(), "(")
	assert.Contains(t, tok.String(), string(LPA))
}
