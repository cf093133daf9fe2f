package vela

import (
	"math"
	"strconv"
	"strings"
)

// installGlobals populates the prototypes NewVM created bare and wires
// the constructor functions onto the global object, the runtime's
// equivalent of the teacher's grammar_builtin_handler.go registering
// the handful of built-in parsing expressions every loaded grammar
// gets for free.
func installGlobals(ctx *Context) {
	state := ctx.state
	vm := ctx.vm

	installObjectPrototype(ctx)
	installFunctionPrototype(ctx)
	installArrayPrototype(ctx)
	installStringPrototype(ctx)
	installNumberPrototype(ctx)
	installBooleanPrototype(ctx)
	installErrorPrototype(ctx)
	installRegExpPrototype(ctx)

	ctx.DefineGlobal("undefined", Undefined)
	ctx.DefineGlobal("NaN", NumberValue(math.NaN()))
	ctx.DefineGlobal("Infinity", NumberValue(math.Inf(1)))

	ctx.global.Set(state, "Object", HeapValue(makeObjectConstructor(ctx)), HeapValue(ctx.global))
	ctx.global.Set(state, "Function", HeapValue(makeFunctionConstructor(ctx)), HeapValue(ctx.global))
	ctx.global.Set(state, "Array", HeapValue(makeArrayConstructor(ctx)), HeapValue(ctx.global))
	ctx.global.Set(state, "String", HeapValue(makeStringConstructor(ctx)), HeapValue(ctx.global))
	ctx.global.Set(state, "Number", HeapValue(makeNumberConstructor(ctx)), HeapValue(ctx.global))
	ctx.global.Set(state, "Boolean", HeapValue(makeBooleanConstructor(ctx)), HeapValue(ctx.global))
	ctx.global.Set(state, "RegExp", HeapValue(makeRegExpConstructor(ctx)), HeapValue(ctx.global))

	for _, kind := range []ErrorKind{KindError, KindTypeError, KindRangeError, KindSyntaxError, KindReferenceError, KindURIError, KindEvalError} {
		ctx.global.Set(state, kind.String(), HeapValue(makeErrorConstructor(ctx, kind)), HeapValue(ctx.global))
	}

	installConsole(ctx)

	_ = vm
}

func defMethod(state *ExecutionState, obj *Object, proto Value, name string, length int, fn func(*ExecutionState, Value, []Value) (Value, *Error)) {
	m := NewNativeFunction(proto, name, length, fn)
	obj.appendProperty(name, PropertyDescriptor{
		HasValue: true, Value: HeapValue(m),
		HasWritable: true, Writable: true,
		HasEnumerable: false, Enumerable: false,
		HasConfigurable: true, Configurable: true,
	})
}

func arg(args []Value, i int) Value {
	if i < len(args) {
		return args[i]
	}
	return Undefined
}

// requireObject coerces v to an Object the way an ES5 built-in's
// ToObject(argument) step would, throwing a TypeError for null or
// undefined rather than silently wrapping them.
func requireObject(state *ExecutionState, v Value) (*Object, *Error) {
	if v.IsNullOrUndefined() {
		return nil, state.Throw(newTypeError("cannot convert null or undefined to object"))
	}
	if v.IsObject() {
		return v.AsObject(), nil
	}
	ov, err := ToObject(state, v)
	if err != nil {
		return nil, err
	}
	return ov.AsObject(), nil
}

// ---- Object ----

func installObjectPrototype(ctx *Context) {
	proto := ctx.vm.objectPrototype.AsObject()
	defMethod(ctx.state, proto, ctx.vm.functionPrototype, "hasOwnProperty", 1, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		obj, err := requireObject(state, this)
		if err != nil {
			return Value{}, err
		}
		key, err := ToString(state, arg(args, 0))
		if err != nil {
			return Value{}, err
		}
		_, ok := obj.GetOwnProperty(state, key.Text())
		return BoolValue(ok), nil
	})
	defMethod(ctx.state, proto, ctx.vm.functionPrototype, "toString", 0, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		return HeapValue(NewStringFromGoString("[object Object]")), nil
	})
	defMethod(ctx.state, proto, ctx.vm.functionPrototype, "isPrototypeOf", 1, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		target := arg(args, 0)
		if !target.IsObject() {
			return False, nil
		}
		proto := target.AsObject().GetPrototypeOf()
		for proto.IsObject() {
			if StrictEquals(proto, this) {
				return True, nil
			}
			proto = proto.AsObject().GetPrototypeOf()
		}
		return False, nil
	})
}

func makeObjectConstructor(ctx *Context) *Object {
	state := ctx.state
	ctor := NewNativeFunction(ctx.vm.functionPrototype, "Object", 1, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		v := arg(args, 0)
		if v.IsNullOrUndefined() || len(args) == 0 {
			return HeapValue(NewObject(ctx.vm.objectPrototype)), nil
		}
		return ToObject(state, v)
	})
	ctor.appendProperty("prototype", PropertyDescriptor{HasValue: true, Value: ctx.vm.objectPrototype})

	defMethod(state, ctor, ctx.vm.functionPrototype, "keys", 1, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		obj, err := requireObject(state, arg(args, 0))
		if err != nil {
			return Value{}, err
		}
		arr := NewArrayObject(ctx.vm.arrayPrototype)
		i := 0
		obj.Enumerate(true, func(name string) bool {
			arr.arraySetIndexed(i, HeapValue(NewStringFromGoString(name)))
			i++
			return true
		})
		arr.setArrayLength(i)
		return HeapValue(arr), nil
	})

	defMethod(state, ctor, ctx.vm.functionPrototype, "defineProperty", 3, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		target := arg(args, 0)
		if !target.IsObject() {
			return Value{}, state.Throw(newTypeError("Object.defineProperty called on non-object"))
		}
		obj := target.AsObject()
		key, err := ToString(state, arg(args, 1))
		if err != nil {
			return Value{}, err
		}
		descVal := arg(args, 2)
		if !descVal.IsObject() {
			return Value{}, state.Throw(newTypeError("Property description must be an object"))
		}
		desc, err := toPropertyDescriptor(state, descVal.AsObject())
		if err != nil {
			return Value{}, err
		}
		if err := ValidateDescriptor(desc); err != nil {
			return Value{}, state.Throw(err)
		}
		if _, err := obj.DefineOwnProperty(state, key.Text(), desc, true); err != nil {
			return Value{}, err
		}
		return target, nil
	})

	defMethod(state, ctor, ctx.vm.functionPrototype, "getOwnPropertyDescriptor", 2, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		obj, err := requireObject(state, arg(args, 0))
		if err != nil {
			return Value{}, err
		}
		key, err := ToString(state, arg(args, 1))
		if err != nil {
			return Value{}, err
		}
		desc, ok := obj.GetOwnProperty(state, key.Text())
		if !ok {
			return Undefined, nil
		}
		return fromPropertyDescriptor(ctx, desc), nil
	})

	defMethod(state, ctor, ctx.vm.functionPrototype, "getPrototypeOf", 1, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		obj, err := requireObject(state, arg(args, 0))
		if err != nil {
			return Value{}, err
		}
		return obj.GetPrototypeOf(), nil
	})

	defMethod(state, ctor, ctx.vm.functionPrototype, "create", 2, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		proto := arg(args, 0)
		if !proto.IsObject() && !proto.IsNull() {
			return Value{}, state.Throw(newTypeError("Object prototype may only be an Object or null"))
		}
		obj := NewObject(proto)
		if len(args) > 1 && args[1].IsObject() {
			props := args[1].AsObject()
			for _, name := range props.OwnKeys() {
				descVal, err := props.Get(state, name, args[1])
				if err != nil {
					return Value{}, err
				}
				if !descVal.IsObject() {
					continue
				}
				desc, err := toPropertyDescriptor(state, descVal.AsObject())
				if err != nil {
					return Value{}, err
				}
				if _, err := obj.DefineOwnProperty(state, name, desc, true); err != nil {
					return Value{}, err
				}
			}
		}
		return HeapValue(obj), nil
	})
	return ctor
}

func toPropertyDescriptor(state *ExecutionState, src *Object) (PropertyDescriptor, *Error) {
	var d PropertyDescriptor
	if src.HasProperty(state, "value") {
		v, err := src.Get(state, "value", HeapValue(src))
		if err != nil {
			return d, err
		}
		d.HasValue, d.Value = true, v
	}
	if src.HasProperty(state, "writable") {
		v, err := src.Get(state, "writable", HeapValue(src))
		if err != nil {
			return d, err
		}
		d.HasWritable, d.Writable = true, ToBoolean(v)
	}
	if src.HasProperty(state, "get") {
		v, err := src.Get(state, "get", HeapValue(src))
		if err != nil {
			return d, err
		}
		d.HasGet, d.Get = true, v
	}
	if src.HasProperty(state, "set") {
		v, err := src.Get(state, "set", HeapValue(src))
		if err != nil {
			return d, err
		}
		d.HasSet, d.Set = true, v
	}
	if src.HasProperty(state, "enumerable") {
		v, err := src.Get(state, "enumerable", HeapValue(src))
		if err != nil {
			return d, err
		}
		d.HasEnumerable, d.Enumerable = true, ToBoolean(v)
	}
	if src.HasProperty(state, "configurable") {
		v, err := src.Get(state, "configurable", HeapValue(src))
		if err != nil {
			return d, err
		}
		d.HasConfigurable, d.Configurable = true, ToBoolean(v)
	}
	return d, nil
}

func fromPropertyDescriptor(ctx *Context, d PropertyDescriptor) Value {
	obj := NewObject(ctx.vm.objectPrototype)
	set := func(name string, v Value) {
		obj.appendProperty(name, PropertyDescriptor{
			HasValue: true, Value: v,
			HasWritable: true, Writable: true,
			HasEnumerable: true, Enumerable: true,
			HasConfigurable: true, Configurable: true,
		})
	}
	if d.IsAccessor() {
		set("get", d.Get)
		set("set", d.Set)
	} else {
		set("value", d.Value)
		set("writable", BoolValue(d.Writable))
	}
	set("enumerable", BoolValue(d.Enumerable))
	set("configurable", BoolValue(d.Configurable))
	return HeapValue(obj)
}

// ---- Function ----

func installFunctionPrototype(ctx *Context) {
	proto := ctx.vm.functionPrototype.AsObject()
	defMethod(ctx.state, proto, ctx.vm.functionPrototype, "call", 1, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		var rest []Value
		if len(args) > 1 {
			rest = args[1:]
		}
		return ctx.vm.Call(state, this, arg(args, 0), rest)
	})
	defMethod(ctx.state, proto, ctx.vm.functionPrototype, "apply", 2, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		var rest []Value
		if arr := arg(args, 1); arr.IsObject() {
			if ext := arrayExtOf(arr); ext != nil {
				rest = append(rest, ext.dense...)
			}
		}
		return ctx.vm.Call(state, this, arg(args, 0), rest)
	})
	defMethod(ctx.state, proto, ctx.vm.functionPrototype, "bind", 1, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		if !this.IsCallable() {
			return Value{}, state.Throw(newTypeError("Bind must be called on a function"))
		}
		boundThis := arg(args, 0)
		var boundArgs []Value
		if len(args) > 1 {
			boundArgs = append(boundArgs, args[1:]...)
		}
		ext := &FunctionExt{Name: "bound", BoundTarget: this, BoundThis: boundThis, BoundArgs: boundArgs}
		return HeapValue(NewObjectWithClass(ctx.vm.functionPrototype, ClassFunction, ext)), nil
	})
	defMethod(ctx.state, proto, ctx.vm.functionPrototype, "toString", 0, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		return HeapValue(NewStringFromGoString("function () { [native code] }")), nil
	})
}

func makeFunctionConstructor(ctx *Context) *Object {
	ctor := NewNativeFunction(ctx.vm.functionPrototype, "Function", 1, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		return Value{}, state.Throw(newError(KindEvalError, "Function constructor is not supported"))
	})
	ctor.appendProperty("prototype", PropertyDescriptor{HasValue: true, Value: ctx.vm.functionPrototype})
	return ctor
}

// ---- Array ----

func installArrayPrototype(ctx *Context) {
	proto := ctx.vm.arrayPrototype.AsObject()
	state := ctx.state

	defMethod(state, proto, ctx.vm.functionPrototype, "push", 1, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		ext := arrayExtOf(this)
		if ext == nil {
			return Value{}, state.Throw(newTypeError("Array.prototype.push called on non-array"))
		}
		n := len(ext.dense)
		for i, a := range args {
			this.AsObject().arraySetIndexed(n+i, a)
		}
		this.AsObject().setArrayLength(n + len(args))
		return NumberValue(float64(n + len(args))), nil
	})
	defMethod(state, proto, ctx.vm.functionPrototype, "pop", 0, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		ext := arrayExtOf(this)
		if ext == nil || len(ext.dense) == 0 {
			return Undefined, nil
		}
		last := ext.dense[len(ext.dense)-1]
		this.AsObject().setArrayLength(len(ext.dense) - 1)
		return last, nil
	})
	defMethod(state, proto, ctx.vm.functionPrototype, "join", 1, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		ext := arrayExtOf(this)
		sep := ","
		if arg(args, 0) != Undefined && len(args) > 0 {
			s, err := ToString(state, args[0])
			if err != nil {
				return Value{}, err
			}
			sep = s.Text()
		}
		var parts []string
		if ext != nil {
			for _, e := range ext.dense {
				if e.IsNullOrUndefined() {
					parts = append(parts, "")
					continue
				}
				s, err := ToString(state, e)
				if err != nil {
					return Value{}, err
				}
				parts = append(parts, s.Text())
			}
		}
		return HeapValue(NewStringFromGoString(strings.Join(parts, sep))), nil
	})
	defMethod(state, proto, ctx.vm.functionPrototype, "indexOf", 1, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		ext := arrayExtOf(this)
		if ext == nil {
			return NumberValue(-1), nil
		}
		target := arg(args, 0)
		for i, e := range ext.dense {
			if StrictEquals(e, target) {
				return NumberValue(float64(i)), nil
			}
		}
		return NumberValue(-1), nil
	})
	defMethod(state, proto, ctx.vm.functionPrototype, "slice", 2, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		ext := arrayExtOf(this)
		if ext == nil {
			return HeapValue(NewArrayObject(ctx.vm.arrayPrototype)), nil
		}
		n := len(ext.dense)
		start, err := normalizeSliceIndex(state, args, 0, n, 0)
		if err != nil {
			return Value{}, err
		}
		end, err := normalizeSliceIndex(state, args, 1, n, n)
		if err != nil {
			return Value{}, err
		}
		out := NewArrayObject(ctx.vm.arrayPrototype)
		j := 0
		for i := start; i < end; i++ {
			out.arraySetIndexed(j, ext.dense[i])
			j++
		}
		out.setArrayLength(j)
		return HeapValue(out), nil
	})
	defMethod(state, proto, ctx.vm.functionPrototype, "toString", 0, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		joinFn, err := proto.Get(state, "join", this)
		if err != nil {
			return Value{}, err
		}
		return ctx.vm.Call(state, joinFn, this, nil)
	})
}

func normalizeSliceIndex(state *ExecutionState, args []Value, idx, length, def int) (int, *Error) {
	if idx >= len(args) || args[idx].IsUndefined() {
		return def, nil
	}
	fn, err := ToInteger(state, args[idx])
	if err != nil {
		return 0, err
	}
	var n int
	switch {
	case math.IsInf(fn, 1):
		n = length
	case math.IsInf(fn, -1):
		n = 0
	default:
		n = int(fn)
	}
	if n < 0 {
		n += length
	}
	if n < 0 {
		n = 0
	}
	if n > length {
		n = length
	}
	return n, nil
}

func makeArrayConstructor(ctx *Context) *Object {
	ctor := NewNativeFunction(ctx.vm.functionPrototype, "Array", 1, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		arr := NewArrayObject(ctx.vm.arrayPrototype)
		if len(args) == 1 && args[0].IsNumber() {
			arr.setArrayLength(int(args[0].AsFloat64()))
			return HeapValue(arr), nil
		}
		for i, a := range args {
			arr.arraySetIndexed(i, a)
		}
		arr.setArrayLength(len(args))
		return HeapValue(arr), nil
	})
	ctor.appendProperty("prototype", PropertyDescriptor{HasValue: true, Value: ctx.vm.arrayPrototype})
	defMethod(ctx.state, ctor, ctx.vm.functionPrototype, "isArray", 1, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		v := arg(args, 0)
		return BoolValue(v.IsObject() && v.AsObject().Class == ClassArray), nil
	})
	return ctor
}

// ---- String ----

func installStringPrototype(ctx *Context) {
	proto := ctx.vm.stringPrototype.AsObject()
	state := ctx.state

	thisString := func(state *ExecutionState, this Value) (string, *Error) {
		s, err := ToString(state, this)
		if err != nil {
			return "", err
		}
		return s.Text(), nil
	}

	defMethod(state, proto, ctx.vm.functionPrototype, "toString", 0, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		s, err := thisString(state, this)
		if err != nil {
			return Value{}, err
		}
		return HeapValue(NewStringFromGoString(s)), nil
	})
	defMethod(state, proto, ctx.vm.functionPrototype, "charAt", 1, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		s, err := thisString(state, this)
		if err != nil {
			return Value{}, err
		}
		runes := []rune(s)
		i, err := ToIntArg(state, args, 0)
		if err != nil {
			return Value{}, err
		}
		if i < 0 || i >= len(runes) {
			return HeapValue(NewStringFromGoString("")), nil
		}
		return HeapValue(NewStringFromGoString(string(runes[i]))), nil
	})
	defMethod(state, proto, ctx.vm.functionPrototype, "indexOf", 1, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		s, err := thisString(state, this)
		if err != nil {
			return Value{}, err
		}
		sub, err := ToString(state, arg(args, 0))
		if err != nil {
			return Value{}, err
		}
		return NumberValue(float64(strings.Index(s, sub.Text()))), nil
	})
	defMethod(state, proto, ctx.vm.functionPrototype, "slice", 2, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		s, err := thisString(state, this)
		if err != nil {
			return Value{}, err
		}
		runes := []rune(s)
		n := len(runes)
		start, err := normalizeSliceIndex(state, args, 0, n, 0)
		if err != nil {
			return Value{}, err
		}
		end, err := normalizeSliceIndex(state, args, 1, n, n)
		if err != nil {
			return Value{}, err
		}
		if end < start {
			end = start
		}
		return HeapValue(NewStringFromGoString(string(runes[start:end]))), nil
	})
	defMethod(state, proto, ctx.vm.functionPrototype, "split", 1, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		s, err := thisString(state, this)
		if err != nil {
			return Value{}, err
		}
		arr := NewArrayObject(ctx.vm.arrayPrototype)
		if len(args) == 0 || args[0].IsUndefined() {
			arr.arraySetIndexed(0, HeapValue(NewStringFromGoString(s)))
			arr.setArrayLength(1)
			return HeapValue(arr), nil
		}
		sep, err := ToString(state, args[0])
		if err != nil {
			return Value{}, err
		}
		var parts []string
		if sep.Text() == "" {
			for _, r := range s {
				parts = append(parts, string(r))
			}
		} else {
			parts = strings.Split(s, sep.Text())
		}
		for i, part := range parts {
			arr.arraySetIndexed(i, HeapValue(NewStringFromGoString(part)))
		}
		arr.setArrayLength(len(parts))
		return HeapValue(arr), nil
	})
	defMethod(state, proto, ctx.vm.functionPrototype, "toUpperCase", 0, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		s, err := thisString(state, this)
		if err != nil {
			return Value{}, err
		}
		return HeapValue(NewStringFromGoString(strings.ToUpper(s))), nil
	})
	defMethod(state, proto, ctx.vm.functionPrototype, "toLowerCase", 0, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		s, err := thisString(state, this)
		if err != nil {
			return Value{}, err
		}
		return HeapValue(NewStringFromGoString(strings.ToLower(s))), nil
	})
}

func makeStringConstructor(ctx *Context) *Object {
	ctor := NewNativeFunction(ctx.vm.functionPrototype, "String", 1, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		if len(args) == 0 {
			return HeapValue(NewStringFromGoString("")), nil
		}
		s, err := ToString(state, args[0])
		if err != nil {
			return Value{}, err
		}
		return HeapValue(s), nil
	})
	ctor.appendProperty("prototype", PropertyDescriptor{HasValue: true, Value: ctx.vm.stringPrototype})
	return ctor
}

// ---- Number ----

// roundHalfAwayFromZero rounds x to the nearest integer, ties away
// from zero; toFixed scales by it when number.tofixed_rounding
// (config.go) is "half_away_from_zero".
func roundHalfAwayFromZero(x float64) float64 {
	if x >= 0 {
		return math.Floor(x + 0.5)
	}
	return math.Ceil(x - 0.5)
}

const radixDigits = "0123456789abcdefghijklmnopqrstuvwxyz"

// numberToStringRadix implements ES5 §15.7.4.2's ToString(radix) for
// radix != 10: the integer part converts digit by digit same as
// strconv, the fractional part by repeated multiplication by radix,
// taking the integer digit produced each step (ES5 §9.8.1's "let
// about twice as many digits as necessary" is approximated here with
// a fixed iteration cap so the loop always terminates).
func numberToStringRadix(n float64, radix int) string {
	if math.IsNaN(n) {
		return "NaN"
	}
	if math.IsInf(n, 1) {
		return "Infinity"
	}
	if math.IsInf(n, -1) {
		return "-Infinity"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	intPart, frac := math.Modf(n)
	s := strconv.FormatInt(int64(intPart), radix)
	if frac > 0 {
		var b strings.Builder
		b.WriteString(s)
		b.WriteByte('.')
		for i := 0; i < 1100 && frac > 0; i++ {
			frac *= float64(radix)
			digit := int(math.Floor(frac))
			b.WriteByte(radixDigits[digit])
			frac -= float64(digit)
		}
		s = b.String()
	}
	if neg {
		s = "-" + s
	}
	return s
}

// normalizeExponent rewrites Go's "e+02"-style exponent (fixed width,
// zero-padded) into ECMAScript's "e+2" (no padding).
func normalizeExponent(s string) string {
	idx := strings.IndexAny(s, "eE")
	if idx < 0 {
		return s
	}
	mantissa, expPart := s[:idx], s[idx+1:]
	sign := expPart[0]
	digits := strings.TrimLeft(expPart[1:], "0")
	if digits == "" {
		digits = "0"
	}
	return mantissa + "e" + string(sign) + digits
}

// trimExponentialTrailingZeros drops a toExponential() mantissa's
// trailing fractional zeros when no explicit fractionDigits argument
// was given, per ES5 §15.7.4.6's "as many digits as necessary".
func trimExponentialTrailingZeros(s string) string {
	idx := strings.IndexAny(s, "eE")
	if idx < 0 {
		return s
	}
	mantissa, rest := s[:idx], s[idx:]
	if strings.Contains(mantissa, ".") {
		mantissa = strings.TrimRight(mantissa, "0")
		mantissa = strings.TrimRight(mantissa, ".")
	}
	return mantissa + rest
}

func installNumberPrototype(ctx *Context) {
	proto := ctx.vm.numberPrototype.AsObject()
	state := ctx.state
	rounding := ctx.cfg.GetString("number.tofixed_rounding")

	thisNumber := func(state *ExecutionState, this Value) (float64, *Error) {
		return ToNumber(state, this)
	}

	defMethod(state, proto, ctx.vm.functionPrototype, "toString", 1, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		n, err := thisNumber(state, this)
		if err != nil {
			return Value{}, err
		}
		radix := 10
		if len(args) > 0 && !args[0].IsUndefined() {
			radix, err = ToIntArg(state, args, 0)
			if err != nil {
				return Value{}, err
			}
		}
		if radix < 2 || radix > 36 {
			return Value{}, state.Throw(newRangeError("toString() radix argument must be between 2 and 36"))
		}
		if radix == 10 {
			return HeapValue(NewStringFromGoString(numberToString(n))), nil
		}
		return HeapValue(NewStringFromGoString(numberToStringRadix(n, radix))), nil
	})

	defMethod(state, proto, ctx.vm.functionPrototype, "toFixed", 1, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		n, err := thisNumber(state, this)
		if err != nil {
			return Value{}, err
		}
		digits := 0
		if len(args) > 0 {
			digits, err = ToIntArg(state, args, 0)
			if err != nil {
				return Value{}, err
			}
		}
		if digits < 0 || digits > 20 {
			return Value{}, state.Throw(newRangeError("toFixed() digits argument must be between 0 and 20"))
		}
		if math.IsNaN(n) {
			return HeapValue(NewStringFromGoString("NaN")), nil
		}
		var s string
		if rounding == "half_away_from_zero" {
			scale := math.Pow(10, float64(digits))
			s = strconv.FormatFloat(roundHalfAwayFromZero(n*scale)/scale, 'f', digits, 64)
		} else {
			s = strconv.FormatFloat(n, 'f', digits, 64)
		}
		return HeapValue(NewStringFromGoString(s)), nil
	})

	defMethod(state, proto, ctx.vm.functionPrototype, "toPrecision", 1, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		n, err := thisNumber(state, this)
		if err != nil {
			return Value{}, err
		}
		if len(args) == 0 || args[0].IsUndefined() {
			return HeapValue(NewStringFromGoString(numberToString(n))), nil
		}
		precision, err := ToIntArg(state, args, 0)
		if err != nil {
			return Value{}, err
		}
		if precision < 1 || precision > 21 {
			return Value{}, state.Throw(newRangeError("toPrecision() argument must be between 1 and 21"))
		}
		s := strconv.FormatFloat(n, 'g', precision, 64)
		return HeapValue(NewStringFromGoString(s)), nil
	})

	defMethod(state, proto, ctx.vm.functionPrototype, "toExponential", 1, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		n, err := thisNumber(state, this)
		if err != nil {
			return Value{}, err
		}
		if math.IsNaN(n) {
			return HeapValue(NewStringFromGoString("NaN")), nil
		}
		if math.IsInf(n, 1) {
			return HeapValue(NewStringFromGoString("Infinity")), nil
		}
		if math.IsInf(n, -1) {
			return HeapValue(NewStringFromGoString("-Infinity")), nil
		}
		hasDigits := len(args) > 0 && !args[0].IsUndefined()
		digits := 15
		if hasDigits {
			digits, err = ToIntArg(state, args, 0)
			if err != nil {
				return Value{}, err
			}
			if digits < 0 || digits > 20 {
				return Value{}, state.Throw(newRangeError("toExponential() argument must be between 0 and 20"))
			}
		}
		s := strconv.FormatFloat(n, 'e', digits, 64)
		if !hasDigits {
			s = trimExponentialTrailingZeros(s)
		}
		return HeapValue(NewStringFromGoString(normalizeExponent(s))), nil
	})

	defMethod(state, proto, ctx.vm.functionPrototype, "valueOf", 0, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		n, err := thisNumber(state, this)
		if err != nil {
			return Value{}, err
		}
		return NumberValue(n), nil
	})
}

func makeNumberConstructor(ctx *Context) *Object {
	ctor := NewNativeFunction(ctx.vm.functionPrototype, "Number", 1, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		if len(args) == 0 {
			return NumberValue(0), nil
		}
		n, err := ToNumber(state, args[0])
		if err != nil {
			return Value{}, err
		}
		return NumberValue(n), nil
	})
	ctor.appendProperty("prototype", PropertyDescriptor{HasValue: true, Value: ctx.vm.numberPrototype})
	consts := map[string]float64{
		"MAX_SAFE_INTEGER": 9007199254740991,
		"MIN_SAFE_INTEGER": -9007199254740991,
		"MAX_VALUE":        math.MaxFloat64,
		"MIN_VALUE":        5e-324,
		"EPSILON":          2.220446049250313e-16,
		"NaN":              math.NaN(),
		"POSITIVE_INFINITY": math.Inf(1),
		"NEGATIVE_INFINITY": math.Inf(-1),
	}
	for name, v := range consts {
		ctor.appendProperty(name, PropertyDescriptor{HasValue: true, Value: NumberValue(v)})
	}
	return ctor
}

// ---- Boolean ----

func installBooleanPrototype(ctx *Context) {
	proto := ctx.vm.booleanPrototype.AsObject()
	defMethod(ctx.state, proto, ctx.vm.functionPrototype, "toString", 0, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		if ToBoolean(this) {
			return HeapValue(NewStringFromGoString("true")), nil
		}
		return HeapValue(NewStringFromGoString("false")), nil
	})
	defMethod(ctx.state, proto, ctx.vm.functionPrototype, "valueOf", 0, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		return BoolValue(ToBoolean(this)), nil
	})
}

func makeBooleanConstructor(ctx *Context) *Object {
	ctor := NewNativeFunction(ctx.vm.functionPrototype, "Boolean", 1, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		return BoolValue(ToBoolean(arg(args, 0))), nil
	})
	ctor.appendProperty("prototype", PropertyDescriptor{HasValue: true, Value: ctx.vm.booleanPrototype})
	return ctor
}

// ---- Error ----

func installErrorPrototype(ctx *Context) {
	proto := ctx.vm.errorPrototype.AsObject()
	proto.appendProperty("name", PropertyDescriptor{
		HasValue: true, Value: HeapValue(NewStringFromGoString("Error")),
		HasWritable: true, Writable: true, HasConfigurable: true, Configurable: true,
	})
	proto.appendProperty("message", PropertyDescriptor{
		HasValue: true, Value: HeapValue(NewStringFromGoString("")),
		HasWritable: true, Writable: true, HasConfigurable: true, Configurable: true,
	})
	defMethod(ctx.state, proto, ctx.vm.functionPrototype, "toString", 0, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		if !this.IsObject() {
			return HeapValue(NewStringFromGoString("Error")), nil
		}
		obj := this.AsObject()
		name := "Error"
		if v, err := obj.Get(state, "name", this); err == nil && !v.IsUndefined() {
			if s, serr := ToString(state, v); serr == nil {
				name = s.Text()
			}
		}
		msg := ""
		if v, err := obj.Get(state, "message", this); err == nil && !v.IsUndefined() {
			if s, serr := ToString(state, v); serr == nil {
				msg = s.Text()
			}
		}
		if msg == "" {
			return HeapValue(NewStringFromGoString(name)), nil
		}
		return HeapValue(NewStringFromGoString(name + ": " + msg)), nil
	})
}

func makeErrorConstructor(ctx *Context, kind ErrorKind) *Object {
	proto := ctx.vm.errorPrototype
	if kind != KindError {
		sub := NewObjectWithClass(proto, ClassError, nil)
		sub.appendProperty("name", PropertyDescriptor{
			HasValue: true, Value: HeapValue(NewStringFromGoString(kind.String())),
			HasWritable: true, Writable: true, HasConfigurable: true, Configurable: true,
		})
		proto = HeapValue(sub)
	}
	ctorProto := proto
	ctor := NewNativeFunction(ctx.vm.functionPrototype, kind.String(), 1, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		obj := NewObjectWithClass(ctorProto, ClassError, nil)
		if len(args) > 0 && !args[0].IsUndefined() {
			msg, err := ToString(state, args[0])
			if err != nil {
				return Value{}, err
			}
			obj.appendProperty("message", PropertyDescriptor{
				HasValue: true, Value: HeapValue(msg),
				HasWritable: true, Writable: true, HasConfigurable: true, Configurable: true,
			})
		}
		return HeapValue(obj), nil
	})
	ctor.appendProperty("prototype", PropertyDescriptor{HasValue: true, Value: ctorProto})
	return ctor
}

// ---- console ----

func installConsole(ctx *Context) {
	console := NewObject(ctx.vm.objectPrototype)
	logFn := func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		parts := make([]string, len(args))
		for i, a := range args {
			s, err := ToString(state, a)
			if err != nil {
				return Value{}, err
			}
			parts[i] = s.Text()
		}
		ctx.logger().Info(strings.Join(parts, " "))
		return Undefined, nil
	}
	defMethod(ctx.state, console, ctx.vm.functionPrototype, "log", 0, logFn)
	defMethod(ctx.state, console, ctx.vm.functionPrototype, "error", 0, logFn)
	ctx.DefineGlobal("console", HeapValue(console))
}
