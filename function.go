package vela

// FunctionExt is the Object.Ext payload for ClassFunction objects. A
// function is either bytecode-backed (compiled from an ECMAScript
// FunctionDeclaration/FunctionExpression, `Code` non-nil) or native
// (implemented directly in Go, `Native` non-nil) -- never both,
// mirroring how spec.md's C6 describes a call frame as either
// executing a BytecodeBlock or trapping out to a host function.
type FunctionExt struct {
	Name   string
	Length int // declared parameter count, for Function.prototype.length

	Code *BytecodeBlock // non-nil for a script-defined function
	Env  *ScopeContext  // compile-time closure scope, or nil

	// capturedEnv is the runtime EnvRecord live in the enclosing frame
	// at the moment OpMakeClosure built this function (spec.md §4.6):
	// the new frame VM.Call creates for this function chains to it as
	// its lexical parent, giving it access to the closed-over slots.
	capturedEnv *EnvRecord

	Native func(state *ExecutionState, this Value, args []Value) (Value, *Error)

	// BoundThis/BoundArgs/BoundTarget implement Function.prototype.bind
	// (ES5 §15.3.4.5): when BoundTarget is non-nil, calling this
	// function calls BoundTarget with BoundThis and BoundArgs prepended
	// to the caller's arguments instead of running Code or Native.
	BoundTarget Value
	BoundThis   Value
	BoundArgs   []Value

	IsConstructor bool
	// ConstructorKind distinguishes a class's derived-constructor
	// (which must call super() before touching `this`) from an
	// ordinary or base constructor; unused until class syntax is
	// compiled (compiler.go), kept here so FunctionExt's shape does
	// not need to change when it is.
	ConstructorKind ConstructorKind
}

type ConstructorKind uint8

const (
	ConstructorNone ConstructorKind = iota
	ConstructorBase
	ConstructorDerived
)

func (f *FunctionExt) isBound() bool { return f.BoundTarget.IsObject() }

// NewNativeFunction builds a callable Object around a Go closure, the
// shape every built-in (Number.prototype.toFixed, Array.prototype.push,
// ...) is installed through.
func NewNativeFunction(proto Value, name string, length int, fn func(state *ExecutionState, this Value, args []Value) (Value, *Error)) *Object {
	o := NewObjectWithClass(proto, ClassFunction, &FunctionExt{Name: name, Length: length, Native: fn})
	return o
}

// NewScriptFunction builds a callable Object backed by a compiled
// BytecodeBlock, closing over env (nil for a top-level function
// declaration with no enclosing function scope).
func NewScriptFunction(proto Value, code *BytecodeBlock, env *ScopeContext) *Object {
	ext := &FunctionExt{
		Name:   code.Name,
		Length: code.ParamCount,
		Code:   code,
		Env:    env,
	}
	return NewObjectWithClass(proto, ClassFunction, ext)
}
