// Recursive descent parser
// https://en.wikipedia.org/wiki/Recursive_descent_parser
//
// A Recursive descent parser is a top-down parser because it starts from the
// top grammar rule and works its way down into the nested sub-expressions
// before reaching the leaves of the syntax tree (terminal rules).
package parser

import (
	"fmt"
	"lox/ast"
	"lox/token"
)

var comparisonTokenTypes = []token.TokenType{
	token.LARGER,
	token.LARGER_EQUAL,
	token.LESS,
	token.LESS_EQUAL,
}

var equalityTokenTypes = []token.TokenType{
	token.NOT_EQUAL,
	token.EQUAL_EQUAL,
}

var termTokenTypes = []token.TokenType{
	token.SUB,
	token.ADD,
}

var factorExpressionTypes = []token.TokenType{
	token.MULT,
	token.DIV,
}

var unaryExpressionTypes = []token.TokenType{
	token.BANG,
	token.SUB,
}

// maxArgs is the parameter/argument count cap from the grammar: a call or
// function declaration with more than this many is still parsed, but
// reported as a non-fatal diagnostic.
const maxArgs = 255

// synchronizeTypes are the token kinds the parser resumes at after a parse
// error, one of which is assumed to begin a new statement.
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

// Parser turns a flat token stream into a list of statements via recursive
// descent. It assigns each expression node a unique incrementing ID so the
// resolver can key scope-distance annotations by expression identity rather
// than by pointer or structural hash.
type Parser struct {
	tokens   []token.Token
	position int
	nextID   int
	errors   []error
}

// NOTE: The parsers position is always one unit ahead of the most recently
// consumed token (previous); peek reads the token at position itself.

// Make constructs a Parser over the tokens produced by the lexer.
func Make(tokens []token.Token) *Parser {
	return &Parser{
		tokens:   tokens,
		position: 0,
	}
}

// nextExprID hands out the next stable identity for an expression node.
func (parser *Parser) nextExprID() int {
	id := parser.nextID
	parser.nextID++
	return id
}

// Print prints the AST as prettified JSON to standard output.
func (parser *Parser) Print(statements []ast.Stmt) {
	_, err := PrintASTJSON(statements)
	if err != nil {
		fmt.Println("error producing AST JSON:", err)
	}
}

// PrintToFile writes the AST for the provided statements to a .json file at the given path.
func (parser *Parser) PrintToFile(statements []ast.Stmt, path string) error {
	return WriteASTJSONToFile(statements, path)
}

// peek returns the token at the parser's current position without
// advancing the parser.
func (parser *Parser) peek() token.Token {
	return parser.tokens[parser.position]
}

// previous returns the token immediately behind the parser's current
// position - the token that was most recently consumed.
func (parser *Parser) previous() token.Token {
	return parser.tokens[parser.position-1]
}

// advance consumes the current token and returns it.
func (parser *Parser) advance() token.Token {
	if !parser.isFinished() {
		parser.position++
	}
	return parser.previous()
}

// isFinished reports whether the parser has reached the EOF token.
func (parser *Parser) isFinished() bool {
	tok := parser.peek()
	return tok.TokenType == token.EOF
}

// checkType reports whether the current token matches tokenType, without
// consuming it.
func (parser *Parser) checkType(tokenType token.TokenType) bool {
	if parser.isFinished() {
		return false
	}
	return parser.peek().TokenType == tokenType
}

// isMatch consumes the current token and returns true if its type is any of
// tokenTypes, otherwise leaves the parser's position unchanged.
func (parser *Parser) isMatch(tokenTypes []token.TokenType) bool {
	for i := range tokenTypes {
		if parser.checkType(tokenTypes[i]) {
			parser.advance()
			return true
		}
	}
	return false
}

// Parse parses the entire token stream into a slice of Stmt (statement)
// nodes, continuing until the end of input. Errors during parsing are
// collected and the parser synchronizes to a likely statement boundary so
// multiple independent errors in one source file can be reported together.
//
// Returns:
//   - []Stmt: the successfully parsed statements.
//   - []error: all errors that occurred during parsing.
func (parser *Parser) Parse() ([]ast.Stmt, []error) {
	statements := []ast.Stmt{}
	parser.errors = nil

	for !parser.isFinished() {
		statement, err := parser.declaration()
		if err != nil {
			parser.errors = append(parser.errors, err)
			parser.synchronize()
			continue
		}
		statements = append(statements, statement)
	}

	return statements, parser.errors
}

// synchronize discards tokens until it reaches a point a new statement
// likely begins, so parsing can recover from a syntax error and keep
// looking for further (independent) errors in the rest of the file.
func (parser *Parser) synchronize() {
	parser.advance()
	for !parser.isFinished() {
		if parser.previous().TokenType == token.SEMICOLON {
			return
		}
		if synchronizeTypes[parser.peek().TokenType] {
			return
		}
		parser.advance()
	}
}

// declaration = classDecl | funDecl | varDecl | statement
func (parser *Parser) declaration() (ast.Stmt, error) {
	if parser.isMatch([]token.TokenType{token.CLASS}) {
		return parser.classDeclaration()
	}
	if parser.isMatch([]token.TokenType{token.FUNC}) {
		return parser.function("function")
	}
	if parser.isMatch([]token.TokenType{token.VAR}) {
		return parser.variableDeclaration()
	}
	return parser.statement()
}

// classDecl = "class" IDENTIFIER ( "<" IDENTIFIER )? "{" function* "}"
func (parser *Parser) classDeclaration() (ast.Stmt, error) {
	name, err := parser.consume(token.IDENTIFIER, "Expect class name.")
	if err != nil {
		return nil, err
	}

	var superclass *ast.Variable
	if parser.isMatch([]token.TokenType{token.LESS}) {
		superName, err := parser.consume(token.IDENTIFIER, "Expect superclass name.")
		if err != nil {
			return nil, err
		}
		superclass = &ast.Variable{ID: parser.nextExprID(), Name: superName}
	}

	if _, err := parser.consume(token.LCUR, "Expect '{' before class body."); err != nil {
		return nil, err
	}

	methods := []ast.FunctionStmt{}
	for !parser.checkType(token.RCUR) && !parser.isFinished() {
		methodStmt, err := parser.function("method")
		if err != nil {
			return nil, err
		}
		methods = append(methods, methodStmt.(ast.FunctionStmt))
	}

	if _, err := parser.consume(token.RCUR, "Expect '}' after class body."); err != nil {
		return nil, err
	}

	return ast.ClassStmt{Name: name, Superclass: superclass, Methods: methods}, nil
}

// function parses a function or method declaration:
// IDENTIFIER "(" parameters? ")" block
func (parser *Parser) function(kind string) (ast.Stmt, error) {
	name, err := parser.consume(token.IDENTIFIER, fmt.Sprintf("Expect %s name.", kind))
	if err != nil {
		return nil, err
	}

	if _, err := parser.consume(token.LPA, fmt.Sprintf("Expect '(' after %s name.", kind)); err != nil {
		return nil, err
	}

	params := []token.Token{}
	if !parser.checkType(token.RPA) {
		for {
			if len(params) >= maxArgs {
				curr := parser.peek()
				parser.errors = append(parser.errors, CreateSyntaxError(curr.Line, curr.Column, fmt.Sprintf("Can't have more than %d parameters.", maxArgs)))
			}
			param, err := parser.consume(token.IDENTIFIER, "Expect parameter name.")
			if err != nil {
				return nil, err
			}
			params = append(params, param)
			if !parser.isMatch([]token.TokenType{token.COMMA}) {
				break
			}
		}
	}

	if _, err := parser.consume(token.RPA, "Expect ')' after parameters."); err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.LCUR, fmt.Sprintf("Expect '{' before %s body.", kind)); err != nil {
		return nil, err
	}

	body, err := parser.block()
	if err != nil {
		return nil, err
	}

	return ast.FunctionStmt{Name: name, Params: params, Body: body}, nil
}

// variableDeclaration parses a variable declaration statement.
// It expects an identifier token for the variable name followed by an
// optional '=' and an initializer expression.
func (parser *Parser) variableDeclaration() (ast.Stmt, error) {
	tok, err := parser.consume(token.IDENTIFIER, "Expect variable name.")
	if err != nil {
		return nil, err
	}

	var initialiser ast.Expression
	if parser.isMatch([]token.TokenType{token.ASSIGN}) {
		initialiser, err = parser.expression()
		if err != nil {
			return nil, err
		}
	}

	if _, err := parser.consume(token.SEMICOLON, "Expect ';' after variable declaration."); err != nil {
		return nil, err
	}

	return ast.VarStmt{Name: tok, Initializer: initialiser}, nil
}

// statement = exprStmt | forStmt | ifStmt | printStmt | returnStmt
//
//	| whileStmt | block
func (parser *Parser) statement() (ast.Stmt, error) {
	if parser.isMatch([]token.TokenType{token.PRINT}) {
		return parser.printStatement()
	}
	if parser.isMatch([]token.TokenType{token.RETURN}) {
		return parser.returnStatement()
	}
	if parser.isMatch([]token.TokenType{token.FOR}) {
		return parser.forStatement()
	}
	if parser.isMatch([]token.TokenType{token.IF}) {
		return parser.ifStatement()
	}
	if parser.isMatch([]token.TokenType{token.WHILE}) {
		return parser.whileStatement()
	}
	if parser.isMatch([]token.TokenType{token.LCUR}) {
		statements, err := parser.block()
		if err != nil {
			return nil, err
		}
		return ast.BlockStmt{Statements: statements}, nil
	}
	return parser.expressionStatement()
}

// printStatement parses a print statement of the form "print <expression>;".
func (parser *Parser) printStatement() (ast.Stmt, error) {
	expression, err := parser.expression()
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.SEMICOLON, "Expect ';' after value."); err != nil {
		return nil, err
	}
	return ast.PrintStmt{Expression: expression}, nil
}

// returnStatement parses "return" [expression] ";".
func (parser *Parser) returnStatement() (ast.Stmt, error) {
	keyword := parser.previous()
	var value ast.Expression
	if !parser.checkType(token.SEMICOLON) {
		var err error
		value, err = parser.expression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := parser.consume(token.SEMICOLON, "Expect ';' after return value."); err != nil {
		return nil, err
	}
	return ast.ReturnStmt{Keyword: keyword, Value: value}, nil
}

// forStatement parses a C-style "for" loop and desugars it into a Block
// wrapping an optional initializer and a While loop whose body is a Block
// of the original body followed by the increment expression - so the rest
// of the pipeline only ever has to know about WhileStmt.
func (parser *Parser) forStatement() (ast.Stmt, error) {
	if _, err := parser.consume(token.LPA, "Expect '(' after 'for'."); err != nil {
		return nil, err
	}

	var initializer ast.Stmt
	var err error
	if parser.isMatch([]token.TokenType{token.SEMICOLON}) {
		initializer = nil
	} else if parser.isMatch([]token.TokenType{token.VAR}) {
		initializer, err = parser.variableDeclaration()
		if err != nil {
			return nil, err
		}
	} else {
		initializer, err = parser.expressionStatement()
		if err != nil {
			return nil, err
		}
	}

	var condition ast.Expression
	if !parser.checkType(token.SEMICOLON) {
		condition, err = parser.expression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := parser.consume(token.SEMICOLON, "Expect ';' after loop condition."); err != nil {
		return nil, err
	}

	var increment ast.Expression
	if !parser.checkType(token.RPA) {
		increment, err = parser.expression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := parser.consume(token.RPA, "Expect ')' after for clauses."); err != nil {
		return nil, err
	}

	body, err := parser.statement()
	if err != nil {
		return nil, err
	}

	if increment != nil {
		body = ast.BlockStmt{Statements: []ast.Stmt{body, ast.ExpressionStmt{Expression: increment}}}
	}

	if condition == nil {
		condition = ast.Literal{ID: parser.nextExprID(), Value: true}
	}
	body = ast.WhileStmt{Condition: condition, Body: body}

	if initializer != nil {
		body = ast.BlockStmt{Statements: []ast.Stmt{initializer, body}}
	}

	return body, nil
}

// whileStatement parses "while" "(" expression ")" statement.
func (parser *Parser) whileStatement() (ast.Stmt, error) {
	if _, err := parser.consume(token.LPA, "Expect '(' after 'while'."); err != nil {
		return nil, err
	}
	condition, err := parser.expression()
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.RPA, "Expect ')' after condition."); err != nil {
		return nil, err
	}
	body, err := parser.statement()
	if err != nil {
		return nil, err
	}
	return ast.WhileStmt{Condition: condition, Body: body}, nil
}

// ifStatement parses "if" "(" expression ")" statement ( "else" statement )?
func (parser *Parser) ifStatement() (ast.Stmt, error) {
	if _, err := parser.consume(token.LPA, "Expect '(' after 'if'."); err != nil {
		return nil, err
	}
	conditionExpr, err := parser.expression()
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.RPA, "Expect ')' after if condition."); err != nil {
		return nil, err
	}

	thenStmt, err := parser.statement()
	if err != nil {
		return nil, err
	}
	var elseStmt ast.Stmt
	if parser.isMatch([]token.TokenType{token.ELSE}) {
		elseStmt, err = parser.statement()
		if err != nil {
			return nil, err
		}
	}

	return ast.IfStmt{Condition: conditionExpr, Then: thenStmt, Else: elseStmt}, nil
}

// expressionStatement parses a statement consisting of a single expression
// followed by a semicolon.
func (parser *Parser) expressionStatement() (ast.Stmt, error) {
	expression, err := parser.expression()
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.SEMICOLON, "Expect ';' after expression."); err != nil {
		return nil, err
	}
	return ast.ExpressionStmt{Expression: expression}, nil
}

// block parses a "{"-delimited sequence of declarations, with the opening
// brace already consumed by the caller.
func (parser *Parser) block() ([]ast.Stmt, error) {
	statements := []ast.Stmt{}

	for !parser.checkType(token.RCUR) && !parser.isFinished() {
		stmt, err := parser.declaration()
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
	}

	if _, err := parser.consume(token.RCUR, "Expect '}' after block."); err != nil {
		return nil, err
	}
	return statements, nil
}

// expression is the entry point for parsing expressions, beginning at the
// assignment rule which encompasses every lower-precedence rule.
func (parser *Parser) expression() (ast.Expression, error) {
	return parser.assignment()
}

// assignment parses a right-associative assignment expression. Only a
// previously-parsed Variable or Get expression is a valid assignment
// target; anything else is reported as "Invalid assignment target."
func (parser *Parser) assignment() (ast.Expression, error) {
	expression, err := parser.or()
	if err != nil {
		return nil, err
	}
	if parser.isMatch([]token.TokenType{token.ASSIGN}) {
		equalsToken := parser.previous()
		value, err := parser.assignment()
		if err != nil {
			return nil, err
		}

		switch target := expression.(type) {
		case ast.Variable:
			return ast.Assign{ID: parser.nextExprID(), Name: target.Name, Value: value}, nil
		case ast.Get:
			return ast.Set{ID: parser.nextExprID(), Object: target.Object, Name: target.Name, Value: value}, nil
		default:
			return nil, CreateSyntaxError(equalsToken.Line, equalsToken.Column, "Invalid assignment target.")
		}
	}
	return expression, nil
}

// or parses a sequence of "and"-expressions joined by "or".
func (parser *Parser) or() (ast.Expression, error) {
	expr, err := parser.and()
	if err != nil {
		return nil, err
	}
	for parser.isMatch([]token.TokenType{token.OR}) {
		op := parser.previous()
		rightExpr, err := parser.and()
		if err != nil {
			return nil, err
		}
		expr = ast.Logical{ID: parser.nextExprID(), Left: expr, Operator: op, Right: rightExpr}
	}
	return expr, nil
}

// and parses a sequence of equality expressions joined by "and".
func (parser *Parser) and() (ast.Expression, error) {
	expr, err := parser.equality()
	if err != nil {
		return nil, err
	}
	for parser.isMatch([]token.TokenType{token.AND}) {
		op := parser.previous()
		rightExpr, err := parser.equality()
		if err != nil {
			return nil, err
		}
		expr = ast.Logical{ID: parser.nextExprID(), Left: expr, Operator: op, Right: rightExpr}
	}
	return expr, nil
}

// equality parses equality expressions using operators "==" and "!=".
func (parser *Parser) equality() (ast.Expression, error) {
	exp, err := parser.comparison()
	if err != nil {
		return nil, err
	}
	for parser.isMatch(equalityTokenTypes) {
		operator := parser.previous()
		right, err := parser.comparison()
		if err != nil {
			return nil, err
		}
		exp = ast.Binary{ID: parser.nextExprID(), Left: exp, Operator: operator, Right: right}
	}
	return exp, nil
}

// comparison parses comparison expressions using operators "<", "<=", ">", ">=".
func (parser *Parser) comparison() (ast.Expression, error) {
	exp, err := parser.term()
	if err != nil {
		return nil, err
	}
	for parser.isMatch(comparisonTokenTypes) {
		operator := parser.previous()
		right, err := parser.term()
		if err != nil {
			return nil, err
		}
		exp = ast.Binary{ID: parser.nextExprID(), Left: exp, Operator: operator, Right: right}
	}
	return exp, nil
}

// term parses addition and subtraction expressions using operators "+" and "-".
func (parser *Parser) term() (ast.Expression, error) {
	exp, err := parser.factor()
	if err != nil {
		return nil, err
	}
	for parser.isMatch(termTokenTypes) {
		operator := parser.previous()
		right, err := parser.factor()
		if err != nil {
			return nil, err
		}
		exp = ast.Binary{ID: parser.nextExprID(), Left: exp, Operator: operator, Right: right}
	}
	return exp, nil
}

// factor parses multiplication and division expressions using operators "*" and "/".
func (parser *Parser) factor() (ast.Expression, error) {
	exp, err := parser.unary()
	if err != nil {
		return nil, err
	}
	for parser.isMatch(factorExpressionTypes) {
		operator := parser.previous()
		right, err := parser.unary()
		if err != nil {
			return nil, err
		}
		exp = ast.Binary{ID: parser.nextExprID(), Left: exp, Operator: operator, Right: right}
	}
	return exp, nil
}

// unary parses unary prefix expressions using operators "!" or "-".
func (parser *Parser) unary() (ast.Expression, error) {
	if parser.isMatch(unaryExpressionTypes) {
		operator := parser.previous()
		right, err := parser.unary()
		if err != nil {
			return nil, err
		}
		return ast.Unary{ID: parser.nextExprID(), Operator: operator, Right: right}, nil
	}
	return parser.call()
}

// call parses a primary expression followed by any number of call
// invocations "(...)" or property accesses ".name".
func (parser *Parser) call() (ast.Expression, error) {
	expr, err := parser.primary()
	if err != nil {
		return nil, err
	}

	for {
		if parser.isMatch([]token.TokenType{token.LPA}) {
			expr, err = parser.finishCall(expr)
			if err != nil {
				return nil, err
			}
		} else if parser.isMatch([]token.TokenType{token.DOT}) {
			name, err := parser.consume(token.IDENTIFIER, "Expect property name after '.'.")
			if err != nil {
				return nil, err
			}
			expr = ast.Get{ID: parser.nextExprID(), Object: expr, Name: name}
		} else {
			break
		}
	}

	return expr, nil
}

// finishCall parses the argument list of a call expression, with the
// callee and opening '(' already consumed.
func (parser *Parser) finishCall(callee ast.Expression) (ast.Expression, error) {
	arguments := []ast.Expression{}

	if !parser.checkType(token.RPA) {
		for {
			if len(arguments) >= maxArgs {
				curr := parser.peek()
				parser.errors = append(parser.errors, CreateSyntaxError(curr.Line, curr.Column, fmt.Sprintf("Can't have more than %d arguments.", maxArgs)))
			}
			arg, err := parser.expression()
			if err != nil {
				return nil, err
			}
			arguments = append(arguments, arg)
			if !parser.isMatch([]token.TokenType{token.COMMA}) {
				break
			}
		}
	}

	paren, err := parser.consume(token.RPA, "Expect ')' after arguments.")
	if err != nil {
		return nil, err
	}

	return ast.Call{ID: parser.nextExprID(), Callee: callee, Paren: paren, Arguments: arguments}, nil
}

// primary parses the most basic forms of expressions: literals, grouping,
// variables, "this" and "super".
func (parser *Parser) primary() (ast.Expression, error) {
	if parser.isMatch([]token.TokenType{token.FALSE}) {
		return ast.Literal{ID: parser.nextExprID(), Value: false}, nil
	}
	if parser.isMatch([]token.TokenType{token.TRUE}) {
		return ast.Literal{ID: parser.nextExprID(), Value: true}, nil
	}
	if parser.isMatch([]token.TokenType{token.NIL}) {
		return ast.Literal{ID: parser.nextExprID(), Value: nil}, nil
	}
	if parser.isMatch([]token.TokenType{token.NUMBER, token.STRING}) {
		return ast.Literal{ID: parser.nextExprID(), Value: parser.previous().Literal}, nil
	}

	if parser.isMatch([]token.TokenType{token.SUPER}) {
		keyword := parser.previous()
		if _, err := parser.consume(token.DOT, "Expect '.' after 'super'."); err != nil {
			return nil, err
		}
		method, err := parser.consume(token.IDENTIFIER, "Expect superclass method name.")
		if err != nil {
			return nil, err
		}
		return ast.Super{ID: parser.nextExprID(), Keyword: keyword, Method: method}, nil
	}

	if parser.isMatch([]token.TokenType{token.THIS}) {
		return ast.This{ID: parser.nextExprID(), Keyword: parser.previous()}, nil
	}

	if parser.isMatch([]token.TokenType{token.IDENTIFIER}) {
		return ast.Variable{ID: parser.nextExprID(), Name: parser.previous()}, nil
	}

	if parser.isMatch([]token.TokenType{token.LPA}) {
		expr, err := parser.expression()
		if err != nil {
			return nil, err
		}
		if _, err := parser.consume(token.RPA, "Expect ')' after expression."); err != nil {
			return nil, err
		}
		return ast.Grouping{ID: parser.nextExprID(), Expression: expr}, nil
	}

	currentToken := parser.peek()
	return nil, CreateSyntaxError(currentToken.Line, currentToken.Column, "Expect expression.")
}

// consume advances past the current token if it matches tokenType,
// otherwise reports a SyntaxError with errorMessage at the current
// position.
func (parser *Parser) consume(tokenType token.TokenType, errorMessage string) (token.Token, error) {
	if parser.checkType(tokenType) {
		return parser.advance(), nil
	}
	currentToken := parser.peek()
	return token.Token{}, CreateSyntaxError(currentToken.Line, currentToken.Column, errorMessage)
}
