package parser

import (
	"encoding/json"
	"fmt"
	"os"

	"lox/ast"
)

const (
	colorYellow = "\033[33m"
	colorReset  = "\033[0m"
)

// astPrinter implements both Visitor interfaces and builds a JSON-friendly
// representation of the AST using maps and slices. Each Visit method
// returns an object that can be marshaled to JSON.
type astPrinter struct{}

func (p astPrinter) VisitExpressionStmt(exprStmt ast.ExpressionStmt) (any, error) {
	expr, _ := exprStmt.Expression.Accept(p)
	return map[string]any{
		"type":       "ExpressionStmt",
		"expression": expr,
	}, nil
}

func (p astPrinter) VisitPrintStmt(printStmt ast.PrintStmt) (any, error) {
	expr, _ := printStmt.Expression.Accept(p)
	return map[string]any{
		"type":       "PrintStmt",
		"expression": expr,
	}, nil
}

func (p astPrinter) VisitVarStmt(varStmt ast.VarStmt) (any, error) {
	return map[string]any{
		"type":        "VarStmt",
		"name":        varStmt.Name.Lexeme,
		"initializer": nilOrAccept(varStmt.Initializer, p),
	}, nil
}

func (p astPrinter) VisitBlockStmt(blockStmt ast.BlockStmt) (any, error) {
	stmts := make([]any, 0, len(blockStmt.Statements))
	for _, stmt := range blockStmt.Statements {
		v, _ := stmt.Accept(p)
		stmts = append(stmts, v)
	}
	return map[string]any{
		"type":       "BlockStmt",
		"statements": stmts,
	}, nil
}

func (p astPrinter) VisitWhileStmt(stmt ast.WhileStmt) (any, error) {
	cond, _ := stmt.Condition.Accept(p)
	body, _ := stmt.Body.Accept(p)
	return map[string]any{
		"type":      "WhileStmt",
		"condition": cond,
		"body":      body,
	}, nil
}

func (p astPrinter) VisitIfStmt(stmt ast.IfStmt) (any, error) {
	var elseVal any
	if stmt.Else != nil {
		elseVal, _ = stmt.Else.Accept(p)
	}
	cond, _ := stmt.Condition.Accept(p)
	then, _ := stmt.Then.Accept(p)
	return map[string]any{
		"type":      "IfStmt",
		"condition": cond,
		"then":      then,
		"else":      elseVal,
	}, nil
}

func (p astPrinter) VisitFunctionStmt(stmt ast.FunctionStmt) (any, error) {
	params := make([]string, 0, len(stmt.Params))
	for _, param := range stmt.Params {
		params = append(params, param.Lexeme)
	}
	body := make([]any, 0, len(stmt.Body))
	for _, s := range stmt.Body {
		v, _ := s.Accept(p)
		body = append(body, v)
	}
	return map[string]any{
		"type":   "FunctionStmt",
		"name":   stmt.Name.Lexeme,
		"params": params,
		"body":   body,
	}, nil
}

func (p astPrinter) VisitReturnStmt(stmt ast.ReturnStmt) (any, error) {
	return map[string]any{
		"type":  "ReturnStmt",
		"value": nilOrAccept(stmt.Value, p),
	}, nil
}

func (p astPrinter) VisitClassStmt(stmt ast.ClassStmt) (any, error) {
	var super any
	if stmt.Superclass != nil {
		super, _ = stmt.Superclass.Accept(p)
	}
	methods := make([]any, 0, len(stmt.Methods))
	for _, m := range stmt.Methods {
		v, _ := m.Accept(p)
		methods = append(methods, v)
	}
	return map[string]any{
		"type":       "ClassStmt",
		"name":       stmt.Name.Lexeme,
		"superclass": super,
		"methods":    methods,
	}, nil
}

func (p astPrinter) VisitLogicalExpression(expr ast.Logical) (any, error) {
	left, _ := expr.Left.Accept(p)
	right, _ := expr.Right.Accept(p)
	return map[string]any{
		"type":     "Logical",
		"operator": expr.Operator.Lexeme,
		"left":     left,
		"right":    right,
	}, nil
}

func (p astPrinter) VisitAssignExpression(assign ast.Assign) (any, error) {
	value, _ := assign.Value.Accept(p)
	return map[string]any{
		"type":  "Assign",
		"name":  assign.Name.Lexeme,
		"value": value,
	}, nil
}

func (p astPrinter) VisitVariableExpression(variable ast.Variable) (any, error) {
	return map[string]any{
		"type": "Variable",
		"name": variable.Name.Lexeme,
	}, nil
}

func (p astPrinter) VisitBinary(b ast.Binary) (any, error) {
	left, _ := b.Left.Accept(p)
	right, _ := b.Right.Accept(p)
	return map[string]any{
		"type":     "Binary",
		"operator": b.Operator.Lexeme,
		"left":     left,
		"right":    right,
	}, nil
}

func (p astPrinter) VisitUnary(u ast.Unary) (any, error) {
	right, _ := u.Right.Accept(p)
	return map[string]any{
		"type":     "Unary",
		"operator": u.Operator.Lexeme,
		"right":    right,
	}, nil
}

func (p astPrinter) VisitLiteral(l ast.Literal) (any, error) {
	// literals are terminal values and can be used directly in JSON
	return l.Value, nil
}

func (p astPrinter) VisitGrouping(g ast.Grouping) (any, error) {
	inner, _ := g.Expression.Accept(p)
	return map[string]any{
		"type":       "Grouping",
		"expression": inner,
	}, nil
}

func (p astPrinter) VisitCallExpression(call ast.Call) (any, error) {
	callee, _ := call.Callee.Accept(p)
	args := make([]any, 0, len(call.Arguments))
	for _, arg := range call.Arguments {
		v, _ := arg.Accept(p)
		args = append(args, v)
	}
	return map[string]any{
		"type":      "Call",
		"callee":    callee,
		"arguments": args,
	}, nil
}

func (p astPrinter) VisitGetExpression(get ast.Get) (any, error) {
	obj, _ := get.Object.Accept(p)
	return map[string]any{
		"type":   "Get",
		"object": obj,
		"name":   get.Name.Lexeme,
	}, nil
}

func (p astPrinter) VisitSetExpression(set ast.Set) (any, error) {
	obj, _ := set.Object.Accept(p)
	value, _ := set.Value.Accept(p)
	return map[string]any{
		"type":   "Set",
		"object": obj,
		"name":   set.Name.Lexeme,
		"value":  value,
	}, nil
}

func (p astPrinter) VisitThisExpression(this ast.This) (any, error) {
	return map[string]any{"type": "This"}, nil
}

func (p astPrinter) VisitSuperExpression(super ast.Super) (any, error) {
	return map[string]any{
		"type":   "Super",
		"method": super.Method.Lexeme,
	}, nil
}

// nilOrAccept returns nil if expr is nil, otherwise it continues
// processing the expression and returns the result.
func nilOrAccept(expr ast.Expression, p ast.ExpressionVisitor) any {
	if expr == nil {
		return nil
	}
	v, _ := expr.Accept(p)
	return v
}

// PrintASTJSON converts a slice of statements into a prettified JSON string.
func PrintASTJSON(statements []ast.Stmt) (string, error) {
	printer := astPrinter{}
	out := make([]any, 0, len(statements))
	for _, s := range statements {
		v, _ := s.Accept(printer)
		out = append(out, v)
	}
	bytes, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}

	jsonStr := string(bytes)
	fmt.Println(colorYellow + "----- AST JSON -----")
	fmt.Println(colorYellow + jsonStr)
	fmt.Println(colorYellow + "-----" + colorReset)
	fmt.Println("")
	return jsonStr, nil
}

// WriteASTJSONToFile writes the prettified AST JSON to the given file path.
func WriteASTJSONToFile(statements []ast.Stmt, path string) error {
	s, err := PrintASTJSON(statements)
	if err != nil {
		return err
	}
	fDescriptor, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating AST file: %s", err.Error())
	}
	defer fDescriptor.Close()

	if _, err := fDescriptor.Write([]byte(s)); err != nil {
		return fmt.Errorf("error writing AST to file: %s", err.Error())
	}
	return nil
}
