package vela

import (
	"github.com/dlclark/regexp2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// RegExpExt is a RegExpObject's class-specific payload (spec.md §9's
// HeapPointer payload list): the surface flags plus the compiled
// matcher. vela never implements matching itself -- regexp2 is the
// black-box compile/execute library spec.md §1 calls out as an
// out-of-scope external collaborator, grounded on the teacher's own
// dependency on an external PEG matcher for its parsing expressions.
type RegExpExt struct {
	Source     string
	Flags      string
	Global     bool
	IgnoreCase bool
	Multiline  bool
	DotAll     bool
	Unicode    bool
	Sticky     bool
	compiled   *regexp2.Regexp
}

func regexpExtOf(v Value) *RegExpExt {
	if !v.IsObject() {
		return nil
	}
	ext, _ := v.AsObject().Ext.(*RegExpExt)
	return ext
}

// initRegexpCache (re)sizes the engine-local compiled-pattern cache
// (spec.md §5: "capped at 256 entries ... on overflow the cache is
// cleared en bloc (not LRU)"). size<=0 falls back to 256.
func (vm *VM) initRegexpCache(size int) {
	if size <= 0 {
		size = 256
	}
	cache, _ := lru.New[string, *regexp2.Regexp](size)
	vm.regexpCache = cache
	vm.regexpCacheCap = size
}

// compileCached compiles source/flags into a *regexp2.Regexp, reusing
// a prior compile when one is cached. The cache is deliberately
// cleared whole rather than allowed to evict its own oldest entry --
// golang-lru/v2 gives an LRU eviction policy for free, but spec.md §5
// specifies en-bloc clearing, so the LRU behavior is bypassed by
// purging before the cache would otherwise grow past its cap. See
// DESIGN.md for the rationale.
func (vm *VM) compileCached(source, flags string) (*regexp2.Regexp, *Error) {
	key := flags + "\x00" + source
	if re, ok := vm.regexpCache.Get(key); ok {
		return re, nil
	}
	opts, ferr := parseRegExpFlags(flags)
	if ferr != nil {
		return nil, ferr
	}
	re, err := regexp2.Compile(source, opts.options())
	if err != nil {
		return nil, newSyntaxError("invalid regular expression /%s/%s: %v", source, flags, err)
	}
	if vm.regexpCache.Len() >= vm.regexpCacheCap {
		vm.regexpCache.Purge()
	}
	vm.regexpCache.Add(key, re)
	return re, nil
}

type regexpFlags struct {
	global, ignoreCase, multiline, dotAll, unicode, sticky bool
}

func (f regexpFlags) options() regexp2.RegexOptions {
	opts := regexp2.ECMAScript
	if f.ignoreCase {
		opts |= regexp2.IgnoreCase
	}
	if f.multiline {
		opts |= regexp2.Multiline
	}
	if f.dotAll {
		opts |= regexp2.Singleline
	}
	if f.unicode {
		opts |= regexp2.Unicode
	}
	return opts
}

// parseRegExpFlags validates a regex literal/constructor flag string,
// rejecting unknown letters and repeats ("gg" -> SyntaxError, per
// spec.md §8's S-series table).
func parseRegExpFlags(flags string) (regexpFlags, *Error) {
	var f regexpFlags
	seen := make(map[byte]bool, len(flags))
	for i := 0; i < len(flags); i++ {
		c := flags[i]
		if seen[c] {
			return f, newSyntaxError("invalid regular expression flags: duplicate flag %q", string(c))
		}
		seen[c] = true
		switch c {
		case 'g':
			f.global = true
		case 'i':
			f.ignoreCase = true
		case 'm':
			f.multiline = true
		case 's':
			f.dotAll = true
		case 'u':
			f.unicode = true
		case 'y':
			f.sticky = true
		default:
			return f, newSyntaxError("invalid regular expression flags: unknown flag %q", string(c))
		}
	}
	return f, nil
}

// newRegExp builds a RegExpObject from a pattern/flags pair, the path
// both a /pattern/flags literal (OpNewRegExp) and the RegExp
// constructor funnel through.
func (vm *VM) newRegExp(source, flags string) (*Object, *Error) {
	f, ferr := parseRegExpFlags(flags)
	if ferr != nil {
		return nil, ferr
	}
	compiled, cerr := vm.compileCached(source, flags)
	if cerr != nil {
		return nil, cerr
	}
	obj := NewObjectWithClass(vm.regexpPrototype, ClassRegExp, &RegExpExt{
		Source: source, Flags: flags,
		Global: f.global, IgnoreCase: f.ignoreCase, Multiline: f.multiline,
		DotAll: f.dotAll, Unicode: f.unicode, Sticky: f.sticky,
		compiled: compiled,
	})
	obj.appendProperty("lastIndex", PropertyDescriptor{
		HasValue: true, Value: NumberValue(0),
		HasWritable: true, Writable: true,
	})
	return obj, nil
}

// regExpExec runs RegExp.prototype.exec's algorithm (ES5 §15.10.6.2):
// a global or sticky pattern resumes at lastIndex and advances it on
// match (or resets it to 0 on failure); a plain pattern always
// searches from the start and never touches lastIndex.
func regExpExec(state *ExecutionState, ctx *Context, obj *Object, input *String) (Value, *Error) {
	ext := obj.Ext.(*RegExpExt)
	text := input.Text()

	useLastIndex := ext.Global || ext.Sticky
	start := 0
	if useLastIndex {
		li, err := obj.Get(state, "lastIndex", HeapValue(obj))
		if err != nil {
			return Value{}, err
		}
		n, err := ToNumber(state, li)
		if err != nil {
			return Value{}, err
		}
		start = int(n)
	}
	if start < 0 || start > len(text) {
		if useLastIndex {
			obj.Set(state, "lastIndex", NumberValue(0), HeapValue(obj))
		}
		return Null, nil
	}

	m, merr := ext.compiled.FindStringMatchStartingAt(text, start)
	if merr != nil {
		return Value{}, newError(KindError, "regular expression match failed: %v", merr)
	}
	if m == nil || (ext.Sticky && m.Index != start) {
		if useLastIndex {
			obj.Set(state, "lastIndex", NumberValue(0), HeapValue(obj))
		}
		return Null, nil
	}
	if useLastIndex {
		obj.Set(state, "lastIndex", NumberValue(float64(m.Index+m.Length)), HeapValue(obj))
	}
	return buildMatchResult(ctx, m, input), nil
}

func buildMatchResult(ctx *Context, m *regexp2.Match, input *String) Value {
	groups := m.Groups()
	arr := NewArrayObject(ctx.vm.arrayPrototype)
	for i, g := range groups {
		var v Value
		if g.Length > 0 || (len(g.Captures) > 0) {
			v = HeapValue(NewStringFromGoString(g.String()))
		} else {
			v = Undefined
		}
		arr.arraySetIndexed(i, v)
	}
	arr.setArrayLength(len(groups))
	arr.appendProperty("index", PropertyDescriptor{
		HasValue: true, Value: NumberValue(float64(m.Index)),
		HasWritable: true, HasEnumerable: true, Enumerable: true, HasConfigurable: true, Configurable: true,
	})
	arr.appendProperty("input", PropertyDescriptor{
		HasValue: true, Value: HeapValue(input),
		HasWritable: true, HasEnumerable: true, Enumerable: true, HasConfigurable: true, Configurable: true,
	})
	return HeapValue(arr)
}

// ---- prototype / constructor ----

func installRegExpPrototype(ctx *Context) {
	state := ctx.state
	proto := ctx.vm.regexpPrototype.AsObject()

	defMethod(state, proto, ctx.vm.functionPrototype, "exec", 1, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		obj, err := requireObject(state, this)
		if err != nil {
			return Value{}, err
		}
		if _, ok := obj.Ext.(*RegExpExt); !ok {
			return Value{}, state.Throw(newTypeError("RegExp.prototype.exec called on incompatible receiver"))
		}
		str, err := ToString(state, arg(args, 0))
		if err != nil {
			return Value{}, err
		}
		return regExpExec(state, ctx, obj, str)
	})

	defMethod(state, proto, ctx.vm.functionPrototype, "test", 1, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		obj, err := requireObject(state, this)
		if err != nil {
			return Value{}, err
		}
		if _, ok := obj.Ext.(*RegExpExt); !ok {
			return Value{}, state.Throw(newTypeError("RegExp.prototype.test called on incompatible receiver"))
		}
		str, err := ToString(state, arg(args, 0))
		if err != nil {
			return Value{}, err
		}
		result, err := regExpExec(state, ctx, obj, str)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(!result.IsNull()), nil
	})

	defMethod(state, proto, ctx.vm.functionPrototype, "toString", 0, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		obj, err := requireObject(state, this)
		if err != nil {
			return Value{}, err
		}
		ext, ok := obj.Ext.(*RegExpExt)
		if !ok {
			return Value{}, state.Throw(newTypeError("RegExp.prototype.toString called on incompatible receiver"))
		}
		return HeapValue(NewStringFromGoString("/" + ext.Source + "/" + ext.Flags)), nil
	})
}

func makeRegExpConstructor(ctx *Context) *Object {
	vm := ctx.vm
	ctor := NewNativeFunction(vm.functionPrototype, "RegExp", 2, func(state *ExecutionState, this Value, args []Value) (Value, *Error) {
		patternArg := arg(args, 0)
		flagsArg := arg(args, 1)

		if flagsArg.IsUndefined() {
			if existing := regexpExtOf(patternArg); existing != nil {
				obj, err := vm.newRegExp(existing.Source, existing.Flags)
				if err != nil {
					return Value{}, err
				}
				return HeapValue(obj), nil
			}
		}

		source := ""
		if existing := regexpExtOf(patternArg); existing != nil {
			source = existing.Source
		} else if !patternArg.IsUndefined() {
			s, err := ToString(state, patternArg)
			if err != nil {
				return Value{}, err
			}
			source = s.Text()
		}

		flags := ""
		if !flagsArg.IsUndefined() {
			s, err := ToString(state, flagsArg)
			if err != nil {
				return Value{}, err
			}
			flags = s.Text()
		}

		obj, err := vm.newRegExp(source, flags)
		if err != nil {
			return Value{}, err
		}
		return HeapValue(obj), nil
	})
	ctor.appendProperty("prototype", PropertyDescriptor{HasValue: true, Value: vm.regexpPrototype})
	return ctor
}
