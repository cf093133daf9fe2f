package vela

import "go.uber.org/zap"

// Context is the embedding boundary (spec.md §8): one Context owns one
// global object, one VM, and the Config that shaped it. Host code
// creates a Context, evaluates script text through it, and converts
// values across the boundary with ToHost/FromHost -- mirroring how
// the teacher's GrammarFromBytes/GrammarFromFile pair was the single
// entry point into the old grammar engine, generalized here to a
// running ECMAScript program instead of a parsed grammar.
type Context struct {
	vm     *VM
	global *Object
	cfg    *Config
	log    *zap.SugaredLogger

	state *ExecutionState
}

// NewContext builds a fresh global environment and VM. A nil cfg uses
// NewConfig()'s defaults.
func NewContext(cfg *Config) *Context {
	if cfg == nil {
		cfg = NewConfig()
	}
	global := NewObject(Undefined)
	vm := NewVM(global)
	vm.FuelLimit = int64(cfg.GetInt("runtime.fuel_limit"))
	vm.initRegexpCache(cfg.GetInt("regexp.cache_size"))
	strict := cfg.GetBool("runtime.strict_mode_default")

	ctx := &Context{vm: vm, global: global, cfg: cfg}
	ctx.state = newExecutionState(vm, strict)
	installGlobals(ctx)
	return ctx
}

// Global returns the context's global object, for installing
// additional host bindings beyond DefineNativeFunction/DefineGlobal.
func (c *Context) Global() *Object { return c.global }

// Evaluate compiles and runs source as a top-level program, returning
// its completion value (spec.md §8's "evaluate").
func (c *Context) Evaluate(source string) (Value, *Error) {
	prog, perr := ParseProgram(source)
	if perr != nil {
		return Value{}, newSyntaxError("%v", perr)
	}
	strict := c.cfg.GetBool("runtime.strict_mode_default")
	block, cerr := compileProgram(c.vm, prog, strict)
	if cerr != nil {
		return Value{}, cerr
	}
	c.state.ClearPendingThrow()
	return c.vm.RunProgram(c.state, block)
}

// CompileToBytecode parses and compiles source without running it,
// for callers that want to inspect the generated BytecodeBlock (the
// CLI's -bytecode-only flag, tooling built on top of a Context).
func (c *Context) CompileToBytecode(source string) (*BytecodeBlock, *Error) {
	prog, perr := ParseProgram(source)
	if perr != nil {
		return nil, newSyntaxError("%v", perr)
	}
	strict := c.cfg.GetBool("runtime.strict_mode_default")
	return compileProgram(c.vm, prog, strict)
}

// CallFunction invokes a callable Value with the given receiver and
// arguments (spec.md §8's "call"), the host-facing counterpart of
// VM.Call used internally by abstract operations.
func (c *Context) CallFunction(fn Value, this Value, args []Value) (Value, *Error) {
	c.state.ClearPendingThrow()
	return c.vm.Call(c.state, fn, this, args)
}

// DefineNativeFunction installs a Go-backed function as a property of
// the global object, the primary way a host extends the language
// surface a script can call into.
func (c *Context) DefineNativeFunction(name string, length int, fn func(state *ExecutionState, this Value, args []Value) (Value, *Error)) {
	obj := NewNativeFunction(c.vm.functionPrototype, name, length, fn)
	c.global.Set(c.state, name, HeapValue(obj), HeapValue(c.global))
}

// DefineGlobal installs an arbitrary value as a global binding.
func (c *Context) DefineGlobal(name string, v Value) {
	c.global.Set(c.state, name, v, HeapValue(c.global))
}

// ToHost converts a Value to the nearest plain Go representation:
// float64, string, bool, nil (Null/Undefined), []any (dense array),
// map[string]any (plain object), or the Value itself when no
// faithful conversion exists (a function, for instance).
func ToHost(state *ExecutionState, v Value) any {
	switch {
	case v.IsUndefined(), v.IsNull():
		return nil
	case v.IsBool():
		return v.AsBool()
	case v.IsNumber():
		return v.AsFloat64()
	case v.IsString():
		return v.AsString().Text()
	case v.IsObject():
		obj := v.AsObject()
		if ext := arrayExtOf(v); ext != nil && !ext.sparse {
			out := make([]any, len(ext.dense))
			for i, e := range ext.dense {
				out[i] = ToHost(state, e)
			}
			return out
		}
		if obj.Class == ClassFunction {
			return v
		}
		out := make(map[string]any, len(obj.OwnKeys()))
		for _, key := range obj.OwnKeys() {
			val, err := obj.Get(state, key, v)
			if err != nil {
				continue
			}
			out[key] = ToHost(state, val)
		}
		return out
	default:
		return v
	}
}

// FromHost lifts a plain Go value into the Value space, the inverse of
// ToHost, used to hand host data to DefineGlobal or to a native
// function's return value.
func FromHost(c *Context, v any) Value {
	switch x := v.(type) {
	case nil:
		return Undefined
	case Value:
		return x
	case bool:
		return BoolValue(x)
	case int:
		return NumberValue(float64(x))
	case int32:
		return Int32Value(x)
	case int64:
		return NumberValue(float64(x))
	case float64:
		return NumberValue(x)
	case string:
		return HeapValue(NewStringFromGoString(x))
	case []any:
		arr := NewArrayObject(c.vm.arrayPrototype)
		for i, e := range x {
			arr.arraySetIndexed(i, FromHost(c, e))
		}
		arr.setArrayLength(len(x))
		return HeapValue(arr)
	case map[string]any:
		obj := NewObject(c.vm.objectPrototype)
		for k, e := range x {
			obj.appendProperty(k, PropertyDescriptor{
				HasValue: true, Value: FromHost(c, e),
				HasWritable: true, Writable: true,
				HasEnumerable: true, Enumerable: true,
				HasConfigurable: true, Configurable: true,
			})
		}
		return HeapValue(obj)
	default:
		return Undefined
	}
}

// LastError returns the pending exception left over from the most
// recent Evaluate/CallFunction that returned one, or nil.
func (c *Context) LastError() *Error { return c.state.PendingThrow() }

// ToHostValue converts v to a plain Go value using this Context's
// execution state, the single-argument convenience form of ToHost for
// callers (the CLI, embedding hosts) that don't track a state handle
// themselves.
func (c *Context) ToHostValue(v Value) any { return ToHost(c.state, v) }
