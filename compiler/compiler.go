package compiler

import (
	"strconv"

	"lox/lexer"
	"lox/token"
)

// Precedence orders the binding strength of infix operators, lowest first.
// parsePrecedence only consumes an infix operator whose rule precedence is
// at least the level it was called with.
type Precedence int

const (
	PREC_NONE Precedence = iota
	PREC_ASSIGNMENT
	PREC_OR
	PREC_AND
	PREC_EQUALITY
	PREC_COMPARISON
	PREC_TERM
	PREC_FACTOR
	PREC_UNARY
	PREC_CALL
	PREC_PRIMARY
)

type parseFn func(c *Compiler, canAssign bool)

// ParseRule is the per-token-kind record a Pratt parser dispatches through:
// an optional prefix handler (this token starts an expression), an
// optional infix handler (this token continues one), and the precedence
// used when this token appears as an infix/postfix operator.
type ParseRule struct {
	Prefix     parseFn
	Infix      parseFn
	Precedence Precedence
}

var rules map[token.TokenType]ParseRule

func init() {
	rules = map[token.TokenType]ParseRule{
		token.LPA:          {Prefix: (*Compiler).grouping, Infix: nil, Precedence: PREC_NONE},
		token.SUB:          {Prefix: (*Compiler).unary, Infix: (*Compiler).binary, Precedence: PREC_TERM},
		token.ADD:          {Prefix: nil, Infix: (*Compiler).binary, Precedence: PREC_TERM},
		token.DIV:          {Prefix: nil, Infix: (*Compiler).binary, Precedence: PREC_FACTOR},
		token.MULT:         {Prefix: nil, Infix: (*Compiler).binary, Precedence: PREC_FACTOR},
		token.BANG:         {Prefix: (*Compiler).unary, Infix: nil, Precedence: PREC_NONE},
		token.NOT_EQUAL:    {Prefix: nil, Infix: (*Compiler).binary, Precedence: PREC_EQUALITY},
		token.EQUAL_EQUAL:  {Prefix: nil, Infix: (*Compiler).binary, Precedence: PREC_EQUALITY},
		token.LARGER:       {Prefix: nil, Infix: (*Compiler).binary, Precedence: PREC_COMPARISON},
		token.LARGER_EQUAL: {Prefix: nil, Infix: (*Compiler).binary, Precedence: PREC_COMPARISON},
		token.LESS:         {Prefix: nil, Infix: (*Compiler).binary, Precedence: PREC_COMPARISON},
		token.LESS_EQUAL:   {Prefix: nil, Infix: (*Compiler).binary, Precedence: PREC_COMPARISON},
		token.IDENTIFIER:   {Prefix: (*Compiler).variable, Infix: nil, Precedence: PREC_NONE},
		token.STRING:       {Prefix: (*Compiler).stringLiteral, Infix: nil, Precedence: PREC_NONE},
		token.NUMBER:       {Prefix: (*Compiler).number, Infix: nil, Precedence: PREC_NONE},
		token.AND:          {Prefix: nil, Infix: (*Compiler).and_, Precedence: PREC_AND},
		token.OR:           {Prefix: nil, Infix: (*Compiler).or_, Precedence: PREC_OR},
		token.FALSE:        {Prefix: (*Compiler).literal, Infix: nil, Precedence: PREC_NONE},
		token.TRUE:         {Prefix: (*Compiler).literal, Infix: nil, Precedence: PREC_NONE},
		token.NIL:          {Prefix: (*Compiler).literal, Infix: nil, Precedence: PREC_NONE},
	}
}

func getRule(t token.TokenType) ParseRule {
	rule, ok := rules[t]
	if !ok {
		return ParseRule{Precedence: PREC_NONE}
	}
	return rule
}

// local is a stack-resident variable: its declared name and the scope
// depth it was declared at. depth of -1 marks a local whose initializer
// is still being compiled (reading it would observe itself).
type local struct {
	name  string
	depth int
}

// Compiler drives a token stream straight into a Chunk: it owns no AST,
// only the parser state (current, previous, hadError, panicMode) the
// single-pass Pratt loop needs, plus the local-variable stack used to
// resolve GetLocal/SetLocal without runtime name lookups.
type Compiler struct {
	tokens    []token.Token
	current   int
	previous  token.Token
	hadError  bool
	panicMode bool
	errors    []error

	chunk *Chunk

	locals     []local
	scopeDepth int
}

// Compile compiles a complete Lox program into a Bytecode chunk. After a
// compile error it resynchronizes at the next statement boundary and keeps
// compiling, but it returns only the first compile error recorded.
func Compile(source string) (*Bytecode, error) {
	lx := lexer.New(source)
	tokens, err := lx.Scan()
	if err != nil {
		return nil, err
	}

	c := &Compiler{
		tokens:     tokens,
		current:    0,
		chunk:      NewChunk(),
		locals:     []local{},
		scopeDepth: 0,
	}

	for !c.check(token.EOF) {
		c.declaration()
	}

	line := int32(0)
	if len(c.tokens) > 0 {
		line = c.previous.Line
	}
	if _, err := c.chunk.Emit(line, OP_RETURN); err != nil {
		return nil, err
	}

	if c.hadError {
		return nil, c.errors[0]
	}
	return &c.chunk.Bytecode, nil
}

func (c *Compiler) advance() {
	c.previous = c.currentToken()
	if c.currentToken().TokenType != token.EOF {
		c.current++
	}
}

func (c *Compiler) currentToken() token.Token {
	if c.current >= len(c.tokens) {
		return c.tokens[len(c.tokens)-1]
	}
	return c.tokens[c.current]
}

func (c *Compiler) check(t token.TokenType) bool {
	return c.currentToken().TokenType == t
}

func (c *Compiler) match(t token.TokenType) bool {
	if !c.check(t) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(t token.TokenType, message string) {
	if c.check(t) {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

func (c *Compiler) errorAtCurrent(message string) {
	c.errorAt(c.currentToken(), message)
}

func (c *Compiler) error(message string) {
	c.errorAt(c.previous, message)
}

func (c *Compiler) errorAt(tok token.Token, message string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true
	c.errors = append(c.errors, SemanticError{Message: message})
}

// emit assembles and appends a single instruction at the previous token's
// line, folding an assembly failure into the compiler's error list rather
// than a panic. AddConstant's "too many constants" error is surfaced the
// same way, by makeConstant.
func (c *Compiler) emit(op Opcode, operands ...int) int {
	pos, err := c.chunk.Emit(c.previous.Line, op, operands...)
	if err != nil {
		c.error(err.Error())
	}
	return pos
}

func (c *Compiler) emitJump(op Opcode) int {
	return c.emit(op, 0)
}

func (c *Compiler) patchJump(jumpPos int) {
	c.chunk.PatchJump(jumpPos, c.chunk.Len())
}

func (c *Compiler) emitLoop(loopStart int) {
	offset := c.chunk.Len() - loopStart + 3
	c.emit(OP_LOOP, offset)
}

func (c *Compiler) makeConstant(value any) int {
	idx, err := c.chunk.AddConstant(value)
	if err != nil {
		c.error(err.Error())
		return 0
	}
	return idx
}

// ----- declarations & statements -----

var synchronizeTypes = map[token.TokenType]bool{
	token.CLASS:  true,
	token.FUNC:   true,
	token.VAR:    true,
	token.FOR:    true,
	token.IF:     true,
	token.WHILE:  true,
	token.PRINT:  true,
	token.RETURN: true,
}

func (c *Compiler) synchronize() {
	c.panicMode = false
	for !c.check(token.EOF) {
		if c.previous.TokenType == token.SEMICOLON {
			return
		}
		if synchronizeTypes[c.currentToken().TokenType] {
			return
		}
		c.advance()
	}
}

func (c *Compiler) declaration() {
	if c.match(token.VAR) {
		c.varDeclaration()
	} else {
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")

	if c.match(token.ASSIGN) {
		c.expression()
	} else {
		c.emit(OP_NIL)
	}
	c.consume(token.SEMICOLON, "Expect ';' after variable declaration.")
	c.defineVariable(global)
}

// parseVariable consumes the variable's name token and, for a local,
// declares it immediately; for a global it returns the constant-pool
// index of its name (defineVariable's operand). Locals carry no operand
// since they live at a known stack slot, so the returned value is only
// meaningful at global scope.
func (c *Compiler) parseVariable(message string) int {
	c.consume(token.IDENTIFIER, message)
	name := c.previous

	if c.scopeDepth > 0 {
		c.declareLocal(name)
		return 0
	}
	return c.makeConstant(name.Lexeme)
}

func (c *Compiler) declareLocal(name token.Token) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].depth != -1 && c.locals[i].depth < c.scopeDepth {
			break
		}
		if c.locals[i].name == name.Lexeme {
			c.error("Already a variable with this name in this scope.")
			return
		}
	}
	c.locals = append(c.locals, local{name: name.Lexeme, depth: -1})
}

func (c *Compiler) defineVariable(global int) {
	if c.scopeDepth > 0 {
		c.locals[len(c.locals)-1].depth = c.scopeDepth
		return
	}
	c.emit(OP_DEFINE_GLOBAL, global)
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.PRINT):
		c.printStatement()
	case c.match(token.IF):
		c.ifStatement()
	case c.match(token.WHILE):
		c.whileStatement()
	case c.match(token.FOR):
		c.forStatement()
	case c.match(token.LCUR):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) block() {
	for !c.check(token.RCUR) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RCUR, "Expect '}' after block.")
}

func (c *Compiler) beginScope() {
	c.scopeDepth++
}

func (c *Compiler) endScope() {
	c.scopeDepth--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].depth > c.scopeDepth {
		c.emit(OP_POP)
		c.locals = c.locals[:len(c.locals)-1]
	}
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after value.")
	c.emit(OP_PRINT)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after expression.")
	c.emit(OP_POP)
}

func (c *Compiler) ifStatement() {
	c.consume(token.LPA, "Expect '(' after 'if'.")
	c.expression()
	c.consume(token.RPA, "Expect ')' after condition.")

	thenJump := c.emitJump(OP_JUMP_IF_FALSE)
	c.emit(OP_POP)
	c.statement()

	elseJump := c.emitJump(OP_JUMP)
	c.patchJump(thenJump)
	c.emit(OP_POP)

	if c.match(token.ELSE) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := c.chunk.Len()
	c.consume(token.LPA, "Expect '(' after 'while'.")
	c.expression()
	c.consume(token.RPA, "Expect ')' after condition.")

	exitJump := c.emitJump(OP_JUMP_IF_FALSE)
	c.emit(OP_POP)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emit(OP_POP)
}

// forStatement desugars `for (init; cond; incr) body` into the equivalent
// while loop, in the same spirit as the tree-walk parser's desugaring -
// the bytecode compiler just emits the jumps directly instead of building
// synthetic AST nodes.
func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(token.LPA, "Expect '(' after 'for'.")

	switch {
	case c.match(token.SEMICOLON):
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := c.chunk.Len()
	exitJump := -1
	if !c.match(token.SEMICOLON) {
		c.expression()
		c.consume(token.SEMICOLON, "Expect ';' after loop condition.")
		exitJump = c.emitJump(OP_JUMP_IF_FALSE)
		c.emit(OP_POP)
	}

	if !c.check(token.RPA) {
		bodyJump := c.emitJump(OP_JUMP)
		incrementStart := c.chunk.Len()
		c.expression()
		c.emit(OP_POP)
		c.consume(token.RPA, "Expect ')' for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	} else {
		c.consume(token.RPA, "Expect ')' for clauses.")
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emit(OP_POP)
	}
	c.endScope()
}

// ----- expressions -----

func (c *Compiler) expression() {
	c.parsePrecedence(PREC_ASSIGNMENT)
}

func (c *Compiler) parsePrecedence(precedence Precedence) {
	c.advance()
	prefixRule := getRule(c.previous.TokenType).Prefix
	if prefixRule == nil {
		c.error("Expect expression.")
		return
	}

	canAssign := precedence <= PREC_ASSIGNMENT
	prefixRule(c, canAssign)

	for precedence <= getRule(c.currentToken().TokenType).Precedence {
		c.advance()
		infixRule := getRule(c.previous.TokenType).Infix
		infixRule(c, canAssign)
	}

	if canAssign && c.match(token.ASSIGN) {
		c.error("Invalid assignment target.")
	}
}

func (c *Compiler) number(canAssign bool) {
	value, err := strconv.ParseFloat(c.previous.Lexeme, 64)
	if err != nil {
		c.error("Expect expression.")
		return
	}
	c.emit(OP_CONSTANT, c.makeConstant(value))
}

func (c *Compiler) stringLiteral(canAssign bool) {
	c.emit(OP_CONSTANT, c.makeConstant(c.previous.Literal))
}

func (c *Compiler) literal(canAssign bool) {
	switch c.previous.TokenType {
	case token.FALSE:
		c.emit(OP_FALSE)
	case token.TRUE:
		c.emit(OP_TRUE)
	case token.NIL:
		c.emit(OP_NIL)
	}
}

func (c *Compiler) grouping(canAssign bool) {
	c.expression()
	c.consume(token.RPA, "Expect ')' after expression.")
}

func (c *Compiler) unary(canAssign bool) {
	operatorType := c.previous.TokenType
	c.parsePrecedence(PREC_UNARY)

	switch operatorType {
	case token.SUB:
		c.emit(OP_NEGATE)
	case token.BANG:
		c.emit(OP_NOT)
	}
}

func (c *Compiler) binary(canAssign bool) {
	operatorType := c.previous.TokenType
	rule := getRule(operatorType)
	c.parsePrecedence(rule.Precedence + 1)

	switch operatorType {
	case token.ADD:
		c.emit(OP_ADD)
	case token.SUB:
		c.emit(OP_SUBTRACT)
	case token.MULT:
		c.emit(OP_MULTIPLY)
	case token.DIV:
		c.emit(OP_DIVIDE)
	case token.EQUAL_EQUAL:
		c.emit(OP_EQUAL)
	case token.NOT_EQUAL:
		c.emit(OP_EQUAL)
		c.emit(OP_NOT)
	case token.LARGER:
		c.emit(OP_GREATER)
	case token.LARGER_EQUAL:
		c.emit(OP_LESS)
		c.emit(OP_NOT)
	case token.LESS:
		c.emit(OP_LESS)
	case token.LESS_EQUAL:
		c.emit(OP_GREATER)
		c.emit(OP_NOT)
	}
}

func (c *Compiler) and_(canAssign bool) {
	endJump := c.emitJump(OP_JUMP_IF_FALSE)
	c.emit(OP_POP)
	c.parsePrecedence(PREC_AND)
	c.patchJump(endJump)
}

func (c *Compiler) or_(canAssign bool) {
	elseJump := c.emitJump(OP_JUMP_IF_FALSE)
	endJump := c.emitJump(OP_JUMP)

	c.patchJump(elseJump)
	c.emit(OP_POP)

	c.parsePrecedence(PREC_OR)
	c.patchJump(endJump)
}

func (c *Compiler) variable(canAssign bool) {
	c.namedVariable(c.previous, canAssign)
}

func (c *Compiler) namedVariable(name token.Token, canAssign bool) {
	var getOp, setOp Opcode
	slot := c.resolveLocal(name.Lexeme)
	if slot != -1 {
		getOp, setOp = OP_GET_LOCAL, OP_SET_LOCAL
	} else {
		slot = c.makeConstant(name.Lexeme)
		getOp, setOp = OP_GET_GLOBAL, OP_SET_GLOBAL
	}

	if canAssign && c.match(token.ASSIGN) {
		c.expression()
		c.emit(setOp, slot)
	} else {
		c.emit(getOp, slot)
	}
}

func (c *Compiler) resolveLocal(name string) int {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].name == name {
			if c.locals[i].depth == -1 {
				c.error("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}
