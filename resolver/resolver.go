// Package resolver performs a static analysis pass between parsing and
// tree-walk evaluation. It walks the AST once, tracking lexical scopes as
// the parser would nest them, and records - for every variable reference,
// "this" and "super" expression - how many scopes out the interpreter
// must walk to find its binding. This turns what would otherwise be a
// dynamic environment-chain search into an O(1) indexed lookup, and lets
// closures over shadowed names resolve to the right variable.
package resolver

import (
	"fmt"
	"lox/ast"
	"lox/token"
)

// FunctionType tracks what kind of function body is currently being
// resolved, so "return" and "this" can be validated contextually.
type FunctionType int

const (
	FunctionTypeNone FunctionType = iota
	FunctionTypeFunction
	FunctionTypeMethod
	FunctionTypeInitializer
)

// ClassType tracks whether resolution is currently inside a class body,
// and whether that class has a superclass - three states, not two: the
// reference implementation's two-state version cannot distinguish a
// subclass (where "super" is legal) from a base class (where it isn't).
type ClassType int

const (
	ClassTypeNone ClassType = iota
	ClassTypeClass
	ClassTypeSubclass
)

// interpreter is the narrow interface the resolver needs from
// interpreter.TreeWalkInterpreter, avoiding an import of the whole
// interpreter package's surface.
type interpreter interface {
	Resolve(id int, distance int)
}

// scope maps a name to whether its declaration has finished initializing.
// A name present but false is "declared but not yet defined" - reading it
// from its own initializer is an error.
type scope map[string]bool

// Resolver walks an AST once, emitting scope-distance annotations into
// the supplied interpreter and a list of resolution errors (if any).
type Resolver struct {
	interp          interpreter
	scopes          []scope
	currentFunction FunctionType
	currentClass    ClassType
	errors          []error
}

func New(interp interpreter) *Resolver {
	return &Resolver{interp: interp}
}

// Resolve runs the resolver over a whole program's top-level statements
// and returns every resolution error encountered (the caller decides
// whether to report one or all of them).
func (r *Resolver) Resolve(statements []ast.Stmt) []error {
	r.resolveStatements(statements)
	return r.errors
}

func (r *Resolver) reportf(line int32, column int, format string, args ...any) {
	r.errors = append(r.errors, CreateResolveError(line, column, fmt.Sprintf(format, args...)))
}

func (r *Resolver) resolveStatements(statements []ast.Stmt) {
	for _, stmt := range statements {
		r.resolveStmt(stmt)
	}
}

func (r *Resolver) resolveStmt(stmt ast.Stmt) {
	_, _ = stmt.Accept(r)
}

func (r *Resolver) resolveExpr(expr ast.Expression) {
	_, _ = expr.Accept(r)
}

func (r *Resolver) beginScope() {
	r.scopes = append(r.scopes, make(scope))
}

func (r *Resolver) endScope() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

func (r *Resolver) declare(name token.Token) {
	if len(r.scopes) == 0 {
		return
	}
	current := r.scopes[len(r.scopes)-1]
	if _, exists := current[name.Lexeme]; exists {
		r.reportf(name.Line, name.Column, "Already a variable with this name in this scope.")
	}
	current[name.Lexeme] = false
}

func (r *Resolver) define(name token.Token) {
	if len(r.scopes) == 0 {
		return
	}
	r.scopes[len(r.scopes)-1][name.Lexeme] = true
}

// resolveLocal searches the scope stack from innermost outward for name,
// recording the distance against id the first time it finds a match. An
// unresolved name is left alone - the interpreter treats that as global.
func (r *Resolver) resolveLocal(id int, name token.Token) {
	for distance := 0; distance < len(r.scopes); distance++ {
		scopeIndex := len(r.scopes) - 1 - distance
		if _, ok := r.scopes[scopeIndex][name.Lexeme]; ok {
			r.interp.Resolve(id, distance)
			return
		}
	}
}

func (r *Resolver) resolveFunction(stmt ast.FunctionStmt, fnType FunctionType) {
	enclosingFunction := r.currentFunction
	r.currentFunction = fnType
	defer func() { r.currentFunction = enclosingFunction }()

	r.beginScope()
	defer r.endScope()
	for _, param := range stmt.Params {
		r.declare(param)
		r.define(param)
	}
	r.resolveStatements(stmt.Body)
}

func (r *Resolver) VisitBlockStmt(stmt ast.BlockStmt) (any, error) {
	r.beginScope()
	r.resolveStatements(stmt.Statements)
	r.endScope()
	return nil, nil
}

func (r *Resolver) VisitVarStmt(stmt ast.VarStmt) (any, error) {
	r.declare(stmt.Name)
	if stmt.Initializer != nil {
		r.resolveExpr(stmt.Initializer)
	}
	r.define(stmt.Name)
	return nil, nil
}

func (r *Resolver) VisitFunctionStmt(stmt ast.FunctionStmt) (any, error) {
	r.declare(stmt.Name)
	r.define(stmt.Name)
	r.resolveFunction(stmt, FunctionTypeFunction)
	return nil, nil
}

func (r *Resolver) VisitExpressionStmt(stmt ast.ExpressionStmt) (any, error) {
	r.resolveExpr(stmt.Expression)
	return nil, nil
}

func (r *Resolver) VisitIfStmt(stmt ast.IfStmt) (any, error) {
	r.resolveExpr(stmt.Condition)
	r.resolveStmt(stmt.Then)
	if stmt.Else != nil {
		r.resolveStmt(stmt.Else)
	}
	return nil, nil
}

func (r *Resolver) VisitPrintStmt(stmt ast.PrintStmt) (any, error) {
	r.resolveExpr(stmt.Expression)
	return nil, nil
}

func (r *Resolver) VisitReturnStmt(stmt ast.ReturnStmt) (any, error) {
	if r.currentFunction == FunctionTypeNone {
		r.reportf(stmt.Keyword.Line, stmt.Keyword.Column, "Can't return from top-level code.")
	}
	if stmt.Value != nil {
		if r.currentFunction == FunctionTypeInitializer {
			r.reportf(stmt.Keyword.Line, stmt.Keyword.Column, "Can't return a value from an initializer.")
		}
		r.resolveExpr(stmt.Value)
	}
	return nil, nil
}

func (r *Resolver) VisitWhileStmt(stmt ast.WhileStmt) (any, error) {
	r.resolveExpr(stmt.Condition)
	r.resolveStmt(stmt.Body)
	return nil, nil
}

func (r *Resolver) VisitClassStmt(stmt ast.ClassStmt) (any, error) {
	enclosingClass := r.currentClass
	r.currentClass = ClassTypeClass
	defer func() { r.currentClass = enclosingClass }()

	r.declare(stmt.Name)
	r.define(stmt.Name)

	if stmt.Superclass != nil {
		if stmt.Superclass.Name.Lexeme == stmt.Name.Lexeme {
			r.reportf(stmt.Superclass.Name.Line, stmt.Superclass.Name.Column, "A class can't inherit from itself.")
		}
		r.currentClass = ClassTypeSubclass
		r.resolveExpr(*stmt.Superclass)

		r.beginScope()
		r.scopes[len(r.scopes)-1]["super"] = true
		defer r.endScope()
	}

	r.beginScope()
	r.scopes[len(r.scopes)-1]["this"] = true
	defer r.endScope()

	for _, method := range stmt.Methods {
		fnType := FunctionTypeMethod
		if method.Name.Lexeme == "init" {
			fnType = FunctionTypeInitializer
		}
		r.resolveFunction(method, fnType)
	}

	return nil, nil
}

func (r *Resolver) VisitVariableExpression(expr ast.Variable) (any, error) {
	if len(r.scopes) > 0 {
		if initialized, declared := r.scopes[len(r.scopes)-1][expr.Name.Lexeme]; declared && !initialized {
			r.reportf(expr.Name.Line, expr.Name.Column, "Can't read local variable in its own initializer.")
		}
	}
	r.resolveLocal(expr.ID, expr.Name)
	return nil, nil
}

func (r *Resolver) VisitAssignExpression(expr ast.Assign) (any, error) {
	r.resolveExpr(expr.Value)
	r.resolveLocal(expr.ID, expr.Name)
	return nil, nil
}

func (r *Resolver) VisitBinary(expr ast.Binary) (any, error) {
	r.resolveExpr(expr.Left)
	r.resolveExpr(expr.Right)
	return nil, nil
}

func (r *Resolver) VisitCallExpression(expr ast.Call) (any, error) {
	r.resolveExpr(expr.Callee)
	for _, arg := range expr.Arguments {
		r.resolveExpr(arg)
	}
	return nil, nil
}

func (r *Resolver) VisitGetExpression(expr ast.Get) (any, error) {
	r.resolveExpr(expr.Object)
	return nil, nil
}

func (r *Resolver) VisitSetExpression(expr ast.Set) (any, error) {
	r.resolveExpr(expr.Value)
	r.resolveExpr(expr.Object)
	return nil, nil
}

func (r *Resolver) VisitThisExpression(expr ast.This) (any, error) {
	if r.currentClass == ClassTypeNone {
		r.reportf(expr.Keyword.Line, expr.Keyword.Column, "Can't use 'this' outside of a class.")
		return nil, nil
	}
	r.resolveLocal(expr.ID, expr.Keyword)
	return nil, nil
}

func (r *Resolver) VisitSuperExpression(expr ast.Super) (any, error) {
	switch r.currentClass {
	case ClassTypeNone:
		r.reportf(expr.Keyword.Line, expr.Keyword.Column, "Can't use 'super' outside of a class.")
	case ClassTypeClass:
		r.reportf(expr.Keyword.Line, expr.Keyword.Column, "Can't use 'super' in a class with no superclass.")
	}
	r.resolveLocal(expr.ID, expr.Keyword)
	return nil, nil
}

func (r *Resolver) VisitGrouping(expr ast.Grouping) (any, error) {
	r.resolveExpr(expr.Expression)
	return nil, nil
}

func (r *Resolver) VisitLiteral(_ ast.Literal) (any, error) {
	return nil, nil
}

func (r *Resolver) VisitLogicalExpression(expr ast.Logical) (any, error) {
	r.resolveExpr(expr.Left)
	r.resolveExpr(expr.Right)
	return nil, nil
}

func (r *Resolver) VisitUnary(expr ast.Unary) (any, error) {
	r.resolveExpr(expr.Right)
	return nil, nil
}
