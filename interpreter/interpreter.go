package interpreter

import (
	"errors"
	"fmt"
	"lox/ast"
	"lox/token"
	"math"
	"time"
)

// numberComparisonEpsilon bounds the tolerance used when comparing two
// Lox numbers for equality, matching the reference implementation's use
// of float64's own machine epsilon rather than exact bit comparison.
const numberComparisonEpsilon = 2.220446049250313e-16

// LinePrinter is the tree-walk evaluator's output sink, mirrored by the
// VM's Printer interface: production binds it to standard output, tests
// bind a capturing implementation so assertions don't need to touch the
// console.
type LinePrinter interface {
	Print(line string)
}

// StdoutPrinter writes each line to standard output.
type StdoutPrinter struct{}

func (StdoutPrinter) Print(line string) {
	fmt.Println(line)
}

// CapturingPrinter records every printed line in order, for tests that
// assert on a program's output without touching the console.
type CapturingPrinter struct {
	Lines []string
}

func (p *CapturingPrinter) Print(line string) {
	p.Lines = append(p.Lines, line)
}

func (p *CapturingPrinter) History() []string {
	return p.Lines
}

// TreeWalkInterpreter executes a resolved program directly against its
// AST: every Visit method either produces a value or propagates an
// error, with no panic/recover in the ordinary evaluation path.
type TreeWalkInterpreter struct {
	globals     *Environment
	environment *Environment
	// locals maps an expression node's parser-assigned ID to the scope
	// distance the resolver computed for it. Populated by Resolve before
	// Interpret is ever called; Variable/Assign/This/Super lookups consult
	// it to decide between getAt/assignAt (local) and a global-environment
	// lookup (absent entry).
	locals  map[int]int
	printer LinePrinter
}

// Make creates a tree-walk interpreter with the standard global
// environment installed (currently just "clock") and Print output routed
// to standard output.
func Make() *TreeWalkInterpreter {
	return MakeWithPrinter(StdoutPrinter{})
}

// MakeWithPrinter creates a tree-walk interpreter whose Print output is
// routed through printer, e.g. a CapturingPrinter in tests.
func MakeWithPrinter(printer LinePrinter) *TreeWalkInterpreter {
	globals := MakeEnvironment()
	globals.set("clock", &NativeFunction{
		Label:  "clock",
		ArityN: 0,
		Execute: func(_ *TreeWalkInterpreter, _ []any) (any, error) {
			return float64(time.Now().UnixNano()) / 1e9, nil
		},
	})
	return &TreeWalkInterpreter{
		globals:     globals,
		environment: globals,
		locals:      make(map[int]int),
		printer:     printer,
	}
}

// Resolve records the scope distance the resolver computed for the
// expression node identified by id. Called by the resolver pass before
// Interpret runs.
func (i *TreeWalkInterpreter) Resolve(id int, distance int) {
	i.locals[id] = distance
}

// Interpret executes a program's statements in order, stopping and
// returning the first runtime error encountered.
func (i *TreeWalkInterpreter) Interpret(statements []ast.Stmt) error {
	for _, stmt := range statements {
		if _, err := i.execute(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (i *TreeWalkInterpreter) execute(stmt ast.Stmt) (any, error) {
	return stmt.Accept(i)
}

func (i *TreeWalkInterpreter) evaluate(expression ast.Expression) (any, error) {
	return expression.Accept(i)
}

// executeBlock runs statements against env, restoring the interpreter's
// previous environment before returning (including on error) so a
// non-local return or a thrown error can't leave the interpreter stuck
// inside a now-abandoned scope.
func (i *TreeWalkInterpreter) executeBlock(statements []ast.Stmt, env *Environment) error {
	previous := i.environment
	i.environment = env
	defer func() { i.environment = previous }()

	for _, stmt := range statements {
		if _, err := i.execute(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (i *TreeWalkInterpreter) VisitBlockStmt(blockStmt ast.BlockStmt) (any, error) {
	err := i.executeBlock(blockStmt.Statements, MakeNestedEnvironment(i.environment))
	return nil, err
}

func (i *TreeWalkInterpreter) VisitExpressionStmt(exprStatement ast.ExpressionStmt) (any, error) {
	_, err := i.evaluate(exprStatement.Expression)
	return nil, err
}

func (i *TreeWalkInterpreter) VisitIfStmt(stmt ast.IfStmt) (any, error) {
	condition, err := i.evaluate(stmt.Condition)
	if err != nil {
		return nil, err
	}
	if isTruthy(condition) {
		return i.execute(stmt.Then)
	} else if stmt.Else != nil {
		return i.execute(stmt.Else)
	}
	return nil, nil
}

func (i *TreeWalkInterpreter) VisitWhileStmt(stmt ast.WhileStmt) (any, error) {
	for {
		condition, err := i.evaluate(stmt.Condition)
		if err != nil {
			return nil, err
		}
		if !isTruthy(condition) {
			return nil, nil
		}
		if _, err := i.execute(stmt.Body); err != nil {
			return nil, err
		}
	}
}

func (i *TreeWalkInterpreter) VisitPrintStmt(printStmt ast.PrintStmt) (any, error) {
	value, err := i.evaluate(printStmt.Expression)
	if err != nil {
		return nil, err
	}
	i.printer.Print(Stringify(value))
	return nil, nil
}

func (i *TreeWalkInterpreter) VisitVarStmt(varStmt ast.VarStmt) (any, error) {
	var value any
	if varStmt.Initializer != nil {
		var err error
		value, err = i.evaluate(varStmt.Initializer)
		if err != nil {
			return nil, err
		}
	}
	i.environment.set(varStmt.Name.Lexeme, value)
	return nil, nil
}

func (i *TreeWalkInterpreter) VisitFunctionStmt(stmt ast.FunctionStmt) (any, error) {
	fn := &Function{Declaration: stmt, Closure: i.environment}
	i.environment.set(stmt.Name.Lexeme, fn)
	return nil, nil
}

func (i *TreeWalkInterpreter) VisitReturnStmt(stmt ast.ReturnStmt) (any, error) {
	var value any
	if stmt.Value != nil {
		var err error
		value, err = i.evaluate(stmt.Value)
		if err != nil {
			return nil, err
		}
	}
	return nil, &ControlReturn{Value: value}
}

func (i *TreeWalkInterpreter) VisitClassStmt(stmt ast.ClassStmt) (any, error) {
	var superclass *Class
	if stmt.Superclass != nil {
		value, err := i.evaluate(*stmt.Superclass)
		if err != nil {
			return nil, err
		}
		class, ok := value.(*Class)
		if !ok {
			return nil, CreateRuntimeError(stmt.Superclass.Name.Line, stmt.Superclass.Name.Column, "Superclass must be a class.")
		}
		superclass = class
	}

	i.environment.set(stmt.Name.Lexeme, nil)

	classEnv := i.environment
	if superclass != nil {
		classEnv = MakeNestedEnvironment(i.environment)
		classEnv.set("super", superclass)
	}

	methods := make(map[string]*Function, len(stmt.Methods))
	for _, method := range stmt.Methods {
		methods[method.Name.Lexeme] = &Function{
			Declaration:   method,
			Closure:       classEnv,
			IsInitializer: method.Name.Lexeme == "init",
		}
	}

	class := &Class{Name: stmt.Name.Lexeme, Superclass: superclass, Methods: methods}
	i.environment.assignAt(0, stmt.Name, class)
	return nil, nil
}

func (i *TreeWalkInterpreter) VisitAssignExpression(assign ast.Assign) (any, error) {
	value, err := i.evaluate(assign.Value)
	if err != nil {
		return nil, err
	}
	if distance, ok := i.locals[assign.ID]; ok {
		i.environment.assignAt(distance, assign.Name, value)
		return value, nil
	}
	if err := i.globals.assign(assign.Name, value); err != nil {
		return nil, err
	}
	return value, nil
}

func (i *TreeWalkInterpreter) VisitBinary(binary ast.Binary) (any, error) {
	left, err := i.evaluate(binary.Left)
	if err != nil {
		return nil, err
	}
	right, err := i.evaluate(binary.Right)
	if err != nil {
		return nil, err
	}
	op := binary.Operator

	switch op.TokenType {
	case token.ADD:
		leftNum, leftIsNum := left.(float64)
		rightNum, rightIsNum := right.(float64)
		if leftIsNum && rightIsNum {
			return leftNum + rightNum, nil
		}
		leftStr, leftIsStr := left.(string)
		rightStr, rightIsStr := right.(string)
		if leftIsStr && rightIsStr {
			return leftStr + rightStr, nil
		}
		return nil, CreateRuntimeError(op.Line, op.Column, "Operands must be two numbers or two strings.")
	case token.SUB:
		l, r, err := numericOperands(op, left, right)
		if err != nil {
			return nil, err
		}
		return l - r, nil
	case token.MULT:
		l, r, err := numericOperands(op, left, right)
		if err != nil {
			return nil, err
		}
		return l * r, nil
	case token.DIV:
		l, r, err := numericOperands(op, left, right)
		if err != nil {
			return nil, err
		}
		return l / r, nil
	case token.LARGER:
		l, r, err := numericOperands(op, left, right)
		if err != nil {
			return nil, err
		}
		return l > r, nil
	case token.LARGER_EQUAL:
		l, r, err := numericOperands(op, left, right)
		if err != nil {
			return nil, err
		}
		return l >= r, nil
	case token.LESS:
		l, r, err := numericOperands(op, left, right)
		if err != nil {
			return nil, err
		}
		return l < r, nil
	case token.LESS_EQUAL:
		l, r, err := numericOperands(op, left, right)
		if err != nil {
			return nil, err
		}
		return l <= r, nil
	case token.EQUAL_EQUAL:
		return valuesEqual(left, right), nil
	case token.NOT_EQUAL:
		return !valuesEqual(left, right), nil
	default:
		return nil, CreateRuntimeError(op.Line, op.Column, fmt.Sprintf("operator '%s' not supported", op.TokenType))
	}
}

func (i *TreeWalkInterpreter) VisitUnary(unary ast.Unary) (any, error) {
	right, err := i.evaluate(unary.Right)
	if err != nil {
		return nil, err
	}
	switch unary.Operator.TokenType {
	case token.SUB:
		num, ok := right.(float64)
		if !ok {
			return nil, CreateRuntimeError(unary.Operator.Line, unary.Operator.Column, "Operand must be a number.")
		}
		return -num, nil
	case token.BANG:
		return !isTruthy(right), nil
	default:
		return nil, CreateRuntimeError(unary.Operator.Line, unary.Operator.Column,
			fmt.Sprintf("operator '%s' not supported for unary operations", unary.Operator.TokenType))
	}
}

func (i *TreeWalkInterpreter) VisitLogicalExpression(logical ast.Logical) (any, error) {
	left, err := i.evaluate(logical.Left)
	if err != nil {
		return nil, err
	}
	if logical.Operator.TokenType == token.OR {
		if isTruthy(left) {
			return left, nil
		}
	} else {
		if !isTruthy(left) {
			return left, nil
		}
	}
	return i.evaluate(logical.Right)
}

func (i *TreeWalkInterpreter) VisitCallExpression(call ast.Call) (any, error) {
	callee, err := i.evaluate(call.Callee)
	if err != nil {
		return nil, err
	}

	arguments := make([]any, len(call.Arguments))
	for idx, argExpr := range call.Arguments {
		value, err := i.evaluate(argExpr)
		if err != nil {
			return nil, err
		}
		arguments[idx] = value
	}

	callable, ok := callee.(Callable)
	if !ok {
		return nil, CreateRuntimeError(call.Paren.Line, call.Paren.Column, "Can only call functions and classes.")
	}
	if len(arguments) != callable.Arity() {
		return nil, CreateRuntimeError(call.Paren.Line, call.Paren.Column,
			fmt.Sprintf("Expected %d arguments but got %d.", callable.Arity(), len(arguments)))
	}
	return callable.Call(i, arguments)
}

func (i *TreeWalkInterpreter) VisitGetExpression(get ast.Get) (any, error) {
	object, err := i.evaluate(get.Object)
	if err != nil {
		return nil, err
	}
	instance, ok := object.(*Instance)
	if !ok {
		return nil, CreateRuntimeError(get.Name.Line, get.Name.Column, "Only instances have properties.")
	}
	return instance.Get(get.Name)
}

func (i *TreeWalkInterpreter) VisitSetExpression(set ast.Set) (any, error) {
	object, err := i.evaluate(set.Object)
	if err != nil {
		return nil, err
	}
	instance, ok := object.(*Instance)
	if !ok {
		return nil, CreateRuntimeError(set.Name.Line, set.Name.Column, "Only instances have fields.")
	}
	value, err := i.evaluate(set.Value)
	if err != nil {
		return nil, err
	}
	instance.Set(set.Name, value)
	return value, nil
}

func (i *TreeWalkInterpreter) VisitThisExpression(this ast.This) (any, error) {
	return i.lookUpVariable(this.Keyword, this.ID)
}

func (i *TreeWalkInterpreter) VisitSuperExpression(super ast.Super) (any, error) {
	distance, ok := i.locals[super.ID]
	if !ok {
		return nil, CreateRuntimeError(super.Keyword.Line, super.Keyword.Column, "Can't resolve 'super' outside of a subclass method.")
	}
	superclass, _ := i.environment.getAt(distance, "super").(*Class)
	instance, _ := i.environment.getAt(distance-1, "this").(*Instance)

	method, found := superclass.FindMethod(super.Method.Lexeme)
	if !found {
		return nil, CreateRuntimeError(super.Method.Line, super.Method.Column,
			fmt.Sprintf("Undefined property '%s'.", super.Method.Lexeme))
	}
	return method.Bind(instance), nil
}

func (i *TreeWalkInterpreter) VisitVariableExpression(expression ast.Variable) (any, error) {
	return i.lookUpVariable(expression.Name, expression.ID)
}

func (i *TreeWalkInterpreter) lookUpVariable(name token.Token, id int) (any, error) {
	if distance, ok := i.locals[id]; ok {
		return i.environment.getAt(distance, name.Lexeme), nil
	}
	return i.globals.get(name)
}

func (i *TreeWalkInterpreter) VisitLiteral(literal ast.Literal) (any, error) {
	return literal.Value, nil
}

func (i *TreeWalkInterpreter) VisitGrouping(grouping ast.Grouping) (any, error) {
	return i.evaluate(grouping.Expression)
}

// isTruthy implements Lox's truthiness rule: nil and false are falsy,
// everything else (including 0 and the empty string) is truthy.
func isTruthy(value any) bool {
	if value == nil {
		return false
	}
	if b, ok := value.(bool); ok {
		return b
	}
	return true
}

// valuesEqual compares two Lox values. Numbers are compared within
// numberComparisonEpsilon to absorb floating-point rounding, rather than
// exact bit equality.
func valuesEqual(left, right any) bool {
	if left == nil && right == nil {
		return true
	}
	if left == nil || right == nil {
		return false
	}
	leftNum, leftIsNum := left.(float64)
	rightNum, rightIsNum := right.(float64)
	if leftIsNum && rightIsNum {
		return math.Abs(leftNum-rightNum) < numberComparisonEpsilon
	}
	return left == right
}

func numericOperands(op token.Token, left, right any) (float64, float64, error) {
	leftNum, leftOk := left.(float64)
	rightNum, rightOk := right.(float64)
	if leftOk && rightOk {
		return leftNum, rightNum, nil
	}
	return 0, 0, CreateRuntimeError(op.Line, op.Column, "Operands must be numbers.")
}

// Stringify formats a Lox value for "print" output and the REPL.
func Stringify(value any) string {
	if value == nil {
		return "nil"
	}
	switch v := value.(type) {
	case float64:
		return fmt.Sprintf("%g", v)
	case bool:
		if v {
			return "true"
		}
		return "false"
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// UnwrapControlReturn reports whether err is (or wraps) a ControlReturn,
// returning its carried value. Exposed so callers outside Function.Call
// (e.g. the REPL evaluating a bare statement) can recognize a non-local
// return escaping past where it should have been caught.
func UnwrapControlReturn(err error) (any, bool) {
	var ctrl *ControlReturn
	if errors.As(err, &ctrl) {
		return ctrl.Value, true
	}
	return nil, false
}
