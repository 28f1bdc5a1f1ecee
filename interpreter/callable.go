package interpreter

import (
	"errors"
	"fmt"
	"lox/ast"
	"lox/token"
)

// Callable is implemented by every value that can appear as the callee of
// a Call expression: user-defined functions/methods, native functions,
// and classes (instantiation).
type Callable interface {
	Arity() int
	Call(interp *TreeWalkInterpreter, arguments []any) (any, error)
	String() string
}

// Function is a user-defined Lox function or method value. It closes over
// the environment active at its declaration site, which is what makes
// nested functions and methods behave as closures.
type Function struct {
	Declaration   ast.FunctionStmt
	Closure       *Environment
	IsInitializer bool
}

func (f *Function) Arity() int {
	return len(f.Declaration.Params)
}

func (f *Function) String() string {
	return fmt.Sprintf("<fn %s>", f.Declaration.Name.Lexeme)
}

// Call runs the function body in a fresh scope nested under its closure,
// binding parameters to the supplied arguments. A "return" statement
// unwinds here via ControlReturn rather than via panic/recover.
func (f *Function) Call(interp *TreeWalkInterpreter, arguments []any) (any, error) {
	callEnv := MakeNestedEnvironment(f.Closure)
	for i, param := range f.Declaration.Params {
		callEnv.set(param.Lexeme, arguments[i])
	}

	err := interp.executeBlock(f.Declaration.Body, callEnv)
	if err != nil {
		var ctrl *ControlReturn
		if errors.As(err, &ctrl) {
			if f.IsInitializer {
				return f.Closure.getAt(0, "this"), nil
			}
			return ctrl.Value, nil
		}
		return nil, err
	}
	if f.IsInitializer {
		return f.Closure.getAt(0, "this"), nil
	}
	return nil, nil
}

// Bind returns a new Function whose closure additionally binds "this" to
// instance. Called whenever a method is looked up off an instance value,
// producing a fresh function value per lookup rather than mutating the
// one stored in the class's method table.
func (f *Function) Bind(instance *Instance) *Function {
	env := MakeNestedEnvironment(f.Closure)
	env.set("this", instance)
	return &Function{Declaration: f.Declaration, Closure: env, IsInitializer: f.IsInitializer}
}

// NativeFunction wraps a Go function as a callable Lox value (e.g. "clock").
type NativeFunction struct {
	Label   string
	ArityN  int
	Execute func(interp *TreeWalkInterpreter, arguments []any) (any, error)
}

func (n *NativeFunction) Arity() int { return n.ArityN }

func (n *NativeFunction) String() string {
	return fmt.Sprintf("<native fn %s>", n.Label)
}

func (n *NativeFunction) Call(interp *TreeWalkInterpreter, arguments []any) (any, error) {
	return n.Execute(interp, arguments)
}

// Class is a Lox class value: its name, optional superclass, and the
// methods declared directly on it (not including inherited ones, which
// FindMethod resolves by walking Superclass).
type Class struct {
	Name       string
	Superclass *Class
	Methods    map[string]*Function
}

// FindMethod looks up name on this class, falling back to the superclass
// chain. It returns the unbound Function; callers bind it to an instance
// via Function.Bind when appropriate.
func (c *Class) FindMethod(name string) (*Function, bool) {
	if method, ok := c.Methods[name]; ok {
		return method, true
	}
	if c.Superclass != nil {
		return c.Superclass.FindMethod(name)
	}
	return nil, false
}

// Arity defers to the "init" method's arity, or zero if the class has
// none (Lox classes with no initializer take no constructor arguments).
func (c *Class) Arity() int {
	if init, ok := c.FindMethod("init"); ok {
		return init.Arity()
	}
	return 0
}

func (c *Class) String() string { return c.Name }

// Call instantiates the class, running its "init" method (if any) against
// the new instance before returning it.
func (c *Class) Call(interp *TreeWalkInterpreter, arguments []any) (any, error) {
	instance := &Instance{Class: c, Fields: make(map[string]any)}
	if init, ok := c.FindMethod("init"); ok {
		if _, err := init.Bind(instance).Call(interp, arguments); err != nil {
			return nil, err
		}
	}
	return instance, nil
}

// Instance is a runtime object created by calling a Class. Fields are
// looked up before methods, so a field can shadow a method of the same
// name (standard Lox semantics).
type Instance struct {
	Class  *Class
	Fields map[string]any
}

func (inst *Instance) String() string {
	return fmt.Sprintf("%s instance", inst.Class.Name)
}

// Get resolves a property access: first as a field, then as a method
// bound to this instance.
func (inst *Instance) Get(name token.Token) (any, error) {
	if value, ok := inst.Fields[name.Lexeme]; ok {
		return value, nil
	}
	if method, ok := inst.Class.FindMethod(name.Lexeme); ok {
		return method.Bind(inst), nil
	}
	return nil, CreateRuntimeError(name.Line, name.Column, fmt.Sprintf("Undefined property '%s'.", name.Lexeme))
}

// Set assigns a field on the instance. Lox instances are open: assigning
// a field that doesn't exist yet simply creates it.
func (inst *Instance) Set(name token.Token, value any) {
	inst.Fields[name.Lexeme] = value
}
