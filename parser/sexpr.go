package parser

import (
	"strconv"
	"strings"

	"lox/ast"
)

// sexprPrinter renders expressions as canonical, fully-parenthesized
// S-expressions, e.g. "(+ 1 2)" for "1 + 2". No code or test in this
// repository calls Sexpr.
type sexprPrinter struct{}

// Sexpr renders a single expression in canonical S-expression form.
func Sexpr(expr ast.Expression) string {
	result, _ := expr.Accept(sexprPrinter{})
	return result.(string)
}

func parenthesize(name string, exprs ...ast.Expression) string {
	var b strings.Builder
	b.WriteByte('(')
	b.WriteString(name)
	for _, e := range exprs {
		b.WriteByte(' ')
		v, _ := e.Accept(sexprPrinter{})
		b.WriteString(v.(string))
	}
	b.WriteByte(')')
	return b.String()
}

func (p sexprPrinter) VisitBinary(b ast.Binary) (any, error) {
	return parenthesize(b.Operator.Lexeme, b.Left, b.Right), nil
}

func (p sexprPrinter) VisitUnary(u ast.Unary) (any, error) {
	return parenthesize(u.Operator.Lexeme, u.Right), nil
}

func (p sexprPrinter) VisitLiteral(l ast.Literal) (any, error) {
	if l.Value == nil {
		return "nil", nil
	}
	switch v := l.Value.(type) {
	case string:
		return strconv.Quote(v), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case bool:
		if v {
			return "true", nil
		}
		return "false", nil
	default:
		return "nil", nil
	}
}

func (p sexprPrinter) VisitGrouping(g ast.Grouping) (any, error) {
	return parenthesize("group", g.Expression), nil
}

func (p sexprPrinter) VisitVariableExpression(v ast.Variable) (any, error) {
	return v.Name.Lexeme, nil
}

func (p sexprPrinter) VisitAssignExpression(a ast.Assign) (any, error) {
	return parenthesize("= "+a.Name.Lexeme, a.Value), nil
}

func (p sexprPrinter) VisitLogicalExpression(l ast.Logical) (any, error) {
	return parenthesize(l.Operator.Lexeme, l.Left, l.Right), nil
}

func (p sexprPrinter) VisitCallExpression(c ast.Call) (any, error) {
	return parenthesize("call", append([]ast.Expression{c.Callee}, c.Arguments...)...), nil
}

func (p sexprPrinter) VisitGetExpression(g ast.Get) (any, error) {
	return parenthesize("get "+g.Name.Lexeme, g.Object), nil
}

func (p sexprPrinter) VisitSetExpression(s ast.Set) (any, error) {
	return parenthesize("set "+s.Name.Lexeme, s.Object, s.Value), nil
}

func (p sexprPrinter) VisitThisExpression(_ ast.This) (any, error) {
	return "this", nil
}

func (p sexprPrinter) VisitSuperExpression(s ast.Super) (any, error) {
	return "(super " + s.Method.Lexeme + ")", nil
}
