package vela

import (
	"fmt"

	"github.com/dlclark/regexp2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// frameType distinguishes what a call frame is executing (spec.md
// §4.5's call-frame description): a bytecode-backed frame runs a
// BytecodeBlock's Code; a native frame is a Go function running on
// behalf of a call the interpreter made into it (kept on the frame
// stack only so a Throw raised from within a native callback unwinds
// through the right TryRegions of its caller).
type frameType int

const (
	frameBytecode frameType = iota
	frameNative
)

// callFrame is one activation record of the register VM: its own
// register file (sized to the executing block's MaxRegister), the
// declarative environment backing slot-addressed locals, and the
// bookkeeping the dispatch loop needs to resume after a nested call
// returns or to find the right exception handler on a Throw.
type callFrame struct {
	kind frameType

	block *BytecodeBlock
	env   *EnvRecord
	regs  []Value

	this Value
	fn   *Object // the FunctionExt-bearing Object running this frame
	pc   int
}

// VM executes compiled BytecodeBlocks (spec.md §6): a register
// machine with call frames and a TryRegions-driven exception
// propagation path, grounded on the teacher's backtracking
// virtualMachine dispatch loop (the original vm.go's opcode switch
// with goto fail/goto code) but replacing PEG backtrack frames with
// ordinary call frames, and replacing position-rewind-on-fail with
// stack unwind-to-handler-on-throw.
type VM struct {
	frames []*callFrame

	globalEnv    *EnvRecord
	globalObject *Object

	objectPrototype   Value
	functionPrototype Value
	arrayPrototype    Value
	stringPrototype   Value
	numberPrototype   Value
	booleanPrototype  Value
	errorPrototype    Value
	regexpPrototype   Value

	regexpCache    *lru.Cache[string, *regexp2.Regexp]
	regexpCacheCap int

	// FuelLimit bounds the number of instructions a single Run may
	// execute before it aborts with a RangeError (config key
	// "runtime.fuel_limit"; 0 means unbounded). It guards the
	// embedding host against a runaway script, not against any
	// adversarial bytecode -- BytecodeBlocks are always ones this VM
	// itself compiled.
	FuelLimit int64

	// MaxCallDepth bounds recursion (spec.md §6's "stack overflow is
	// fatal"); exceeding it raises a RangeError rather than growing
	// the Go stack without bound.
	MaxCallDepth int
}

const defaultMaxCallDepth = 2048

// NewVM builds a VM with fresh intrinsic prototypes wired to
// globalObject; Context (context.go) populates the prototypes with
// their standard methods before any script runs.
func NewVM(globalObject *Object) *VM {
	vm := &VM{
		globalObject: globalObject,
		MaxCallDepth: defaultMaxCallDepth,
	}
	vm.objectPrototype = HeapValue(NewObject(Undefined))
	vm.functionPrototype = HeapValue(NewObjectWithClass(vm.objectPrototype, ClassFunction, &FunctionExt{}))
	vm.arrayPrototype = HeapValue(NewArrayObject(vm.objectPrototype))
	vm.stringPrototype = HeapValue(NewObjectWithClass(vm.objectPrototype, ClassString, nil))
	vm.numberPrototype = HeapValue(NewObjectWithClass(vm.objectPrototype, ClassNumber, nil))
	vm.booleanPrototype = HeapValue(NewObjectWithClass(vm.objectPrototype, ClassBoolean, nil))
	vm.errorPrototype = HeapValue(NewObjectWithClass(vm.objectPrototype, ClassError, nil))
	vm.regexpPrototype = HeapValue(NewObjectWithClass(vm.objectPrototype, ClassRegExp, nil))
	vm.globalEnv = NewObjectEnv(nil, globalObject)
	vm.initRegexpCache(0)
	return vm
}

// RunProgram executes block (compiled from a ProgramNode) at global
// scope, returning the completion value of its last expression
// statement (spec.md §3's "Completion").
func (vm *VM) RunProgram(state *ExecutionState, block *BytecodeBlock) (Value, *Error) {
	frame := &callFrame{
		kind:  frameBytecode,
		block: block,
		env:   vm.globalEnv,
		regs:  make([]Value, block.MaxRegister+1),
		this:  HeapValue(vm.globalObject),
	}
	return vm.run(state, frame)
}

// Call invokes fn(this, args) (spec.md §6's "Call"): native functions
// run directly; script functions push a new callFrame and run the
// dispatch loop to completion.
func (vm *VM) Call(state *ExecutionState, fn Value, this Value, args []Value) (Value, *Error) {
	if len(vm.frames) >= vm.MaxCallDepth {
		return Value{}, state.Throw(newRangeError("call stack size exceeded"))
	}
	if !fn.IsCallable() {
		return Value{}, state.Throw(newTypeError("value is not a function"))
	}
	obj := fn.AsObject()
	ext, _ := obj.Ext.(*FunctionExt)
	if ext == nil {
		return Value{}, state.Throw(newTypeError("value is not a function"))
	}
	if ext.isBound() {
		boundArgs := append(append([]Value{}, ext.BoundArgs...), args...)
		return vm.Call(state, ext.BoundTarget, ext.BoundThis, boundArgs)
	}
	if ext.Native != nil {
		vm.frames = append(vm.frames, &callFrame{kind: frameNative, fn: obj})
		defer func() { vm.frames = vm.frames[:len(vm.frames)-1] }()
		return ext.Native(state, this, args)
	}
	if ext.Code == nil {
		return Value{}, state.Throw(newTypeError("value is not a function"))
	}

	block := ext.Code
	frame := &callFrame{
		kind:  frameBytecode,
		block: block,
		fn:    obj,
		regs:  make([]Value, block.MaxRegister+1),
		this:  this,
	}
	parent := vm.globalEnv
	if ext.capturedEnv != nil {
		parent = ext.capturedEnv
	}
	frame.env = NewDeclarativeEnv(parent, block.ParamCount)
	for i := 0; i < block.ParamCount; i++ {
		if i < len(args) {
			frame.env.slots[i] = args[i]
		} else {
			frame.env.slots[i] = Undefined
		}
	}
	return vm.run(state, frame)
}

// run is the dispatch loop: execute frame.block.Code starting at
// frame.pc until OpReturn/OpHalt completes it or an uncaught Throw
// propagates past its outermost TryRegion.
func (vm *VM) run(state *ExecutionState, frame *callFrame) (Value, *Error) {
	vm.frames = append(vm.frames, frame)
	defer func() { vm.frames = vm.frames[:len(vm.frames)-1] }()

	code := frame.block.Code
	var fuel int64
	for {
		if vm.FuelLimit > 0 {
			fuel++
			if fuel > vm.FuelLimit {
				return Value{}, state.Throw(newRangeError("instruction fuel exhausted"))
			}
		}
		if frame.pc >= len(code) {
			return Undefined, nil
		}
		ins := code[frame.pc]
		result, jumped, done, err := vm.step(state, frame, ins)
		if err != nil {
			caught := vm.propagate(state, frame, err)
			if !caught {
				return Value{}, err
			}
			continue
		}
		if done {
			return result, nil
		}
		if jumped {
			continue
		}
		frame.pc++
	}
}

// step executes one instruction. done=true means the frame completed
// (OpReturn/OpHalt) with result as its value; jumped=true means the
// instruction already updated frame.pc itself and run should not
// increment it again.
func (vm *VM) step(state *ExecutionState, frame *callFrame, ins Instruction) (result Value, jumped bool, done bool, errOut *Error) {
	regs := frame.regs
	block := frame.block

	switch ins.Op {
	case OpNop:
	case OpLoadLiteral:
		regs[ins.A] = block.Literals[ins.Imm]
	case OpLoadUndefined:
		regs[ins.A] = Undefined
	case OpLoadNull:
		regs[ins.A] = Null
	case OpLoadBool:
		regs[ins.A] = BoolValue(ins.B != 0)
	case OpMove:
		regs[ins.A] = regs[ins.B]
	case OpLoadByStackIndex:
		regs[ins.A] = frame.env.GetSlot(0, ins.B)
	case OpStoreByStackIndex:
		frame.env.SetSlot(0, ins.A, regs[ins.B])
	case OpLoadByHeapIndex:
		regs[ins.A] = frame.env.GetSlot(ins.B, ins.C)
	case OpStoreByHeapIndex:
		frame.env.SetSlot(ins.A, ins.B, regs[ins.C])
	case OpLoadByName:
		name := block.Names[ins.Imm]
		v, err := vm.lookupName(state, frame, name)
		if err != nil {
			return Value{}, false, false, err
		}
		regs[ins.A] = v
	case OpStoreByName:
		name := block.Names[ins.A]
		if err := vm.assignName(state, frame, name, regs[ins.B]); err != nil {
			return Value{}, false, false, err
		}
	case OpGetObject:
		v, err := vm.getKeyed(state, regs[ins.B], regs[ins.C])
		if err != nil {
			return Value{}, false, false, err
		}
		regs[ins.A] = v
	case OpSetObject:
		if err := vm.setKeyed(state, regs[ins.A], regs[ins.B], regs[ins.C]); err != nil {
			return Value{}, false, false, err
		}
	case OpGetObjectByName:
		name := block.Names[ins.Imm]
		v, err := vm.getNamed(state, regs[ins.B], name)
		if err != nil {
			return Value{}, false, false, err
		}
		regs[ins.A] = v
	case OpSetObjectByName:
		name := block.Names[ins.B]
		if err := vm.setNamed(state, regs[ins.A], name, regs[ins.C]); err != nil {
			return Value{}, false, false, err
		}
	case OpCreateArray:
		regs[ins.A] = HeapValue(NewArrayObject(vm.arrayPrototype))
	case OpCreateObject:
		regs[ins.A] = HeapValue(NewObject(vm.objectPrototype))
	case OpDefineOwnProperty:
		key, kerr := ToString(state, regs[ins.B])
		if kerr != nil {
			return Value{}, false, false, kerr
		}
		obj := regs[ins.A].AsObject()
		_, err := obj.DefineOwnProperty(state, key.Text(), PropertyDescriptor{
			HasValue: true, Value: regs[ins.C],
			HasWritable: true, Writable: true,
			HasEnumerable: true, Enumerable: true,
			HasConfigurable: true, Configurable: true,
		}, true)
		if err != nil {
			return Value{}, false, false, err
		}
	case OpGetIndexed:
		i, ierr := ToInt32(state, regs[ins.C])
		if ierr != nil {
			return Value{}, false, false, ierr
		}
		obj, oerr := vm.objectFromValue(state, regs[ins.B])
		if oerr != nil {
			return Value{}, false, false, oerr
		}
		v, err := obj.GetIndexed(state, int(i), regs[ins.B])
		if err != nil {
			return Value{}, false, false, err
		}
		regs[ins.A] = v
	case OpSetIndexed:
		i, ierr := ToInt32(state, regs[ins.B])
		if ierr != nil {
			return Value{}, false, false, ierr
		}
		obj, oerr := vm.objectFromValue(state, regs[ins.A])
		if oerr != nil {
			return Value{}, false, false, oerr
		}
		if err := obj.SetIndexed(state, int(i), regs[ins.C], regs[ins.A]); err != nil {
			return Value{}, false, false, err
		}
	case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpBitAnd, OpBitOr, OpBitXor, OpShl, OpShr, OpUShr:
		v, err := vm.binaryArith(state, ins.Op, regs[ins.B], regs[ins.C])
		if err != nil {
			return Value{}, false, false, err
		}
		regs[ins.A] = v
	case OpEqual, OpNotEqual, OpStrictEqual, OpStrictNotEqual,
		OpLessThan, OpLessThanEqual, OpGreaterThan, OpGreaterThanEqual:
		v, err := vm.compare(state, ins.Op, regs[ins.B], regs[ins.C])
		if err != nil {
			return Value{}, false, false, err
		}
		regs[ins.A] = v
	case OpInstanceOf:
		v, err := vm.instanceOf(state, regs[ins.B], regs[ins.C])
		if err != nil {
			return Value{}, false, false, err
		}
		regs[ins.A] = v
	case OpIn:
		v, err := vm.inOperator(state, regs[ins.B], regs[ins.C])
		if err != nil {
			return Value{}, false, false, err
		}
		regs[ins.A] = v
	case OpNeg:
		n, err := ToNumber(state, regs[ins.B])
		if err != nil {
			return Value{}, false, false, err
		}
		regs[ins.A] = NumberValue(-n)
	case OpUnaryPlus:
		n, err := ToNumber(state, regs[ins.B])
		if err != nil {
			return Value{}, false, false, err
		}
		regs[ins.A] = NumberValue(n)
	case OpNot:
		regs[ins.A] = BoolValue(!ToBoolean(regs[ins.B]))
	case OpBitNot:
		n, err := ToInt32(state, regs[ins.B])
		if err != nil {
			return Value{}, false, false, err
		}
		regs[ins.A] = Int32Value(^n)
	case OpTypeof:
		regs[ins.A] = HeapValue(NewStringFromGoString(typeofString(regs[ins.B])))
	case OpVoid:
		regs[ins.A] = Undefined
	case OpDeleteProperty:
		key, kerr := ToString(state, regs[ins.C])
		if kerr != nil {
			return Value{}, false, false, kerr
		}
		obj, oerr := vm.objectFromValue(state, regs[ins.B])
		if oerr != nil {
			return Value{}, false, false, oerr
		}
		ok, err := obj.Delete(state, key.Text(), false)
		if err != nil {
			return Value{}, false, false, err
		}
		regs[ins.A] = BoolValue(ok)
	case OpInc, OpDec:
		n, err := ToNumber(state, regs[ins.A])
		if err != nil {
			return Value{}, false, false, err
		}
		if ins.Op == OpInc {
			regs[ins.A] = NumberValue(n + 1)
		} else {
			regs[ins.A] = NumberValue(n - 1)
		}
	case OpJump:
		frame.pc = ins.Imm
		return Value{}, true, false, nil
	case OpJumpIfFalsy:
		if !ToBoolean(regs[ins.A]) {
			frame.pc = ins.Imm
			return Value{}, true, false, nil
		}
	case OpJumpIfTruthy:
		if ToBoolean(regs[ins.A]) {
			frame.pc = ins.Imm
			return Value{}, true, false, nil
		}
	case OpCall:
		argBase := ins.Imm >> 16
		argc := ins.Imm & 0xffff
		args := make([]Value, argc)
		copy(args, regs[argBase:argBase+argc])
		v, err := vm.Call(state, regs[ins.B], regs[ins.C], args)
		if err != nil {
			return Value{}, false, false, err
		}
		regs[ins.A] = v
	case OpConstruct:
		argBase := ins.Imm >> 16
		argc := ins.Imm & 0xffff
		args := make([]Value, argc)
		copy(args, regs[argBase:argBase+argc])
		v, err := vm.construct(state, regs[ins.B], args)
		if err != nil {
			return Value{}, false, false, err
		}
		regs[ins.A] = v
	case OpReturn:
		return regs[ins.A], false, true, nil
	case OpThrow:
		return Value{}, false, false, state.Throw(vm.errorFromValue(regs[ins.A]))
	case OpEnterTryRegion, OpLeaveTryRegion:
		// TryRegion bounds are read straight from block.TryRegions by
		// propagate; these markers exist only for symmetry with the
		// compiler's emission and carry no effect of their own here.
	case OpMakeClosure:
		child := block.Children[ins.Imm]
		obj := NewScriptFunction(vm.functionPrototype, child, nil)
		obj.Ext.(*FunctionExt).capturedEnv = frame.env
		regs[ins.A] = HeapValue(obj)
	case OpSpreadAppend:
		if err := vm.spreadAppend(state, regs[ins.A], regs[ins.B], ins.C, frame); err != nil {
			return Value{}, false, false, err
		}
	case OpNewRegExp:
		srcIdx := ins.Imm >> 16
		flagsIdx := ins.Imm & 0xffff
		source := block.Literals[srcIdx].AsString().Text()
		flags := block.Literals[flagsIdx].AsString().Text()
		obj, err := vm.newRegExp(source, flags)
		if err != nil {
			return Value{}, false, false, err
		}
		regs[ins.A] = HeapValue(obj)
	case OpHalt:
		return Undefined, false, true, nil
	default:
		return Value{}, false, false, state.Throw(newError(KindError, "unhandled opcode %s", ins.Op))
	}
	return Value{}, false, false, nil
}

// propagate handles a Throw raised mid-frame: find the innermost
// TryRegion covering frame.pc, put the error in register 0 (and its
// CatchSlot, if set) and resume at CatchPC, or jump to FinallyPC and leave the throw pending
// for the finally block to observe and re-raise (spec.md §4.5's
// exception-propagation walk -- the register-VM analogue of the
// teacher's backtrackToFrame stack rewind).
func (vm *VM) propagate(state *ExecutionState, frame *callFrame, err *Error) bool {
	region, ok := frame.block.findTryRegion(frame.pc)
	if !ok {
		return false
	}
	state.ClearPendingThrow()
	if region.CatchPC >= 0 {
		exc := vm.materializeError(err)
		if region.CatchSlot >= 0 {
			frame.env.SetSlot(0, region.CatchSlot, exc)
		}
		frame.regs[0] = exc
		frame.pc = region.CatchPC
		return true
	}
	if region.FinallyPC >= 0 {
		frame.pc = region.FinallyPC
		state.Throw(err)
		return true
	}
	return false
}

func (vm *VM) materializeError(err *Error) Value {
	// errorFromValue is the only source of a KindError with no message:
	// a script `throw` of any value, which is caught as that value.
	if err.Value.IsObject() || (err.Kind == KindError && err.Message == "") {
		return err.Value
	}
	obj := NewObjectWithClass(vm.errorPrototype, ClassError, nil)
	obj.appendProperty("message", PropertyDescriptor{
		HasValue: true, Value: HeapValue(NewStringFromGoString(err.Message)),
		HasWritable: true, Writable: true, HasConfigurable: true, Configurable: true,
	})
	obj.appendProperty("name", PropertyDescriptor{
		HasValue: true, Value: HeapValue(NewStringFromGoString(err.Kind.String())),
		HasWritable: true, Writable: true, HasConfigurable: true, Configurable: true,
	})
	v := HeapValue(obj)
	err.Value = v
	return v
}

func (vm *VM) errorFromValue(v Value) *Error {
	return &Error{Kind: KindError, Value: v}
}

func (vm *VM) objectFromValue(state *ExecutionState, v Value) (*Object, *Error) {
	if v.IsObject() {
		return v.AsObject(), nil
	}
	ov, err := ToObject(state, v)
	if err != nil {
		return nil, err
	}
	return ov.AsObject(), nil
}

func typeofString(v Value) string {
	switch {
	case v.IsUndefined():
		return "undefined"
	case v.IsNull():
		return "object"
	case v.IsBool():
		return "boolean"
	case v.IsNumber():
		return "number"
	case v.IsString():
		return "string"
	case v.IsCallable():
		return "function"
	case v.IsObject():
		return "object"
	default:
		return "undefined"
	}
}

// lookupName implements the slow path OpLoadByName falls back to when
// the compiler could not resolve an identifier to a stack/heap slot at
// compile time (spec.md §4.4): walk the environment chain, preferring
// an object-backed record's own property over continuing outward.
func (vm *VM) lookupName(state *ExecutionState, frame *callFrame, name string) (Value, *Error) {
	env := frame.env
	for env != nil {
		if env.backing != nil {
			if _, ok := env.backing.GetOwnProperty(state, name); ok {
				return env.backing.Get(state, name, HeapValue(env.backing))
			}
		}
		env = env.parent
	}
	return Value{}, state.Throw(newReferenceError("%s is not defined", name))
}

func (vm *VM) assignName(state *ExecutionState, frame *callFrame, name string, v Value) *Error {
	env := frame.env
	for env != nil {
		if env.backing != nil {
			if _, ok := env.backing.GetOwnProperty(state, name); ok {
				return env.backing.Set(state, name, v, HeapValue(env.backing))
			}
		}
		env = env.parent
	}
	return vm.globalObject.Set(state, name, v, HeapValue(vm.globalObject))
}

func (vm *VM) getKeyed(state *ExecutionState, objVal, keyVal Value) (Value, *Error) {
	key, err := ToString(state, keyVal)
	if err != nil {
		return Value{}, err
	}
	obj, err := vm.objectFromValue(state, objVal)
	if err != nil {
		return Value{}, err
	}
	if idx, ok := arrayIndexOf(key.Text()); ok && obj.Class == ClassArray {
		return obj.GetIndexed(state, idx, objVal)
	}
	return obj.Get(state, key.Text(), objVal)
}

func (vm *VM) setKeyed(state *ExecutionState, objVal, keyVal, value Value) *Error {
	key, err := ToString(state, keyVal)
	if err != nil {
		return err
	}
	obj, err := vm.objectFromValue(state, objVal)
	if err != nil {
		return err
	}
	if idx, ok := arrayIndexOf(key.Text()); ok && obj.Class == ClassArray {
		return obj.SetIndexed(state, idx, value, objVal)
	}
	return obj.Set(state, key.Text(), value, objVal)
}

func (vm *VM) getNamed(state *ExecutionState, objVal Value, name string) (Value, *Error) {
	obj, err := vm.objectFromValue(state, objVal)
	if err != nil {
		return Value{}, err
	}
	return obj.Get(state, name, objVal)
}

func (vm *VM) setNamed(state *ExecutionState, objVal Value, name string, value Value) *Error {
	obj, err := vm.objectFromValue(state, objVal)
	if err != nil {
		return err
	}
	return obj.Set(state, name, value, objVal)
}

func (vm *VM) binaryArith(state *ExecutionState, op Opcode, a, b Value) (Value, *Error) {
	if op == OpAdd {
		pa, err := ToPrimitive(state, a, HintDefault)
		if err != nil {
			return Value{}, err
		}
		pb, err := ToPrimitive(state, b, HintDefault)
		if err != nil {
			return Value{}, err
		}
		if pa.IsString() || pb.IsString() {
			sa, err := ToString(state, pa)
			if err != nil {
				return Value{}, err
			}
			sb, err := ToString(state, pb)
			if err != nil {
				return Value{}, err
			}
			builder := NewStringBuilder()
			builder.AppendString(sa)
			builder.AppendString(sb)
			s, ferr := builder.Finalize()
			if ferr != nil {
				if e, ok := ferr.(*Error); ok {
					return Value{}, state.Throw(e)
				}
				return Value{}, state.Throw(newRangeError("%v", ferr))
			}
			return HeapValue(s), nil
		}
		na, err := ToNumber(state, pa)
		if err != nil {
			return Value{}, err
		}
		nb, err := ToNumber(state, pb)
		if err != nil {
			return Value{}, err
		}
		return NumberValue(na + nb), nil
	}

	switch op {
	case OpBitAnd, OpBitOr, OpBitXor, OpShl, OpShr:
		ia, err := ToInt32(state, a)
		if err != nil {
			return Value{}, err
		}
		ib, err := ToInt32(state, b)
		if err != nil {
			return Value{}, err
		}
		switch op {
		case OpBitAnd:
			return Int32Value(ia & ib), nil
		case OpBitOr:
			return Int32Value(ia | ib), nil
		case OpBitXor:
			return Int32Value(ia ^ ib), nil
		case OpShl:
			return Int32Value(ia << (uint32(ib) & 31)), nil
		case OpShr:
			return Int32Value(ia >> (uint32(ib) & 31)), nil
		}
	case OpUShr:
		na, err := ToNumber(state, a)
		if err != nil {
			return Value{}, err
		}
		ua := ToUint32FromFloat(na)
		ib, err := ToInt32(state, b)
		if err != nil {
			return Value{}, err
		}
		return NumberValue(float64(ua >> (uint32(ib) & 31))), nil
	}

	na, err := ToNumber(state, a)
	if err != nil {
		return Value{}, err
	}
	nb, err := ToNumber(state, b)
	if err != nil {
		return Value{}, err
	}
	switch op {
	case OpSub:
		return NumberValue(na - nb), nil
	case OpMul:
		return NumberValue(na * nb), nil
	case OpDiv:
		return NumberValue(na / nb), nil
	case OpMod:
		return NumberValue(jsMod(na, nb)), nil
	}
	return Value{}, newFatalAsError("unreachable arithmetic opcode")
}

// jsMod implements ECMAScript's % (ES5 §11.5.3: result takes the sign
// of the dividend, unlike Go's math.Mod which agrees for this case
// already but is avoided here to keep vm.go import-free of math for
// the common integer path).
func jsMod(a, b float64) float64 {
	if b == 0 || a != a || b != b {
		return nanValue()
	}
	m := a - b*trunc(a/b)
	return m
}

func trunc(f float64) float64 {
	if f < 0 {
		return -float64(int64(-f))
	}
	return float64(int64(f))
}

func nanValue() float64 {
	var zero float64
	return zero / zero
}

func (vm *VM) compare(state *ExecutionState, op Opcode, a, b Value) (Value, *Error) {
	switch op {
	case OpStrictEqual:
		return BoolValue(StrictEquals(a, b)), nil
	case OpStrictNotEqual:
		return BoolValue(!StrictEquals(a, b)), nil
	case OpEqual:
		eq, err := LooseEquals(state, a, b)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(eq), nil
	case OpNotEqual:
		eq, err := LooseEquals(state, a, b)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(!eq), nil
	case OpLessThan:
		cmp, ok, err := OrdinaryCompare(state, a, b, true)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(ok && cmp < 0), nil
	case OpLessThanEqual:
		cmp, ok, err := OrdinaryCompare(state, a, b, true)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(ok && cmp <= 0), nil
	case OpGreaterThan:
		cmp, ok, err := OrdinaryCompare(state, b, a, false)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(ok && cmp < 0), nil
	case OpGreaterThanEqual:
		cmp, ok, err := OrdinaryCompare(state, b, a, false)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(ok && cmp <= 0), nil
	}
	return Value{}, newFatalAsError("unreachable comparison opcode")
}

func (vm *VM) instanceOf(state *ExecutionState, a, b Value) (Value, *Error) {
	if !b.IsCallable() {
		return Value{}, state.Throw(newTypeError("right-hand side of instanceof is not callable"))
	}
	if !a.IsObject() {
		return BoolValue(false), nil
	}
	ctor := b.AsObject()
	protoVal, err := ctor.Get(state, "prototype", b)
	if err != nil {
		return Value{}, err
	}
	if !protoVal.IsObject() {
		return Value{}, state.Throw(newTypeError("prototype is not an object"))
	}
	proto := protoVal.AsObject()
	cur := a.AsObject().GetPrototypeOf()
	for cur.IsObject() {
		if cur.AsObject() == proto {
			return BoolValue(true), nil
		}
		cur = cur.AsObject().GetPrototypeOf()
	}
	return BoolValue(false), nil
}

func (vm *VM) inOperator(state *ExecutionState, key, objVal Value) (Value, *Error) {
	if !objVal.IsObject() {
		return Value{}, state.Throw(newTypeError("cannot use 'in' operator on a non-object"))
	}
	keyStr, err := ToString(state, key)
	if err != nil {
		return Value{}, err
	}
	obj := objVal.AsObject()
	if _, ok := obj.GetOwnProperty(state, keyStr.Text()); ok {
		return BoolValue(true), nil
	}
	proto := obj.GetPrototypeOf()
	for proto.IsObject() {
		if _, ok := proto.AsObject().GetOwnProperty(state, keyStr.Text()); ok {
			return BoolValue(true), nil
		}
		proto = proto.AsObject().GetPrototypeOf()
	}
	return BoolValue(false), nil
}

// construct implements the `new` operator (ES5 §13.2.2): allocate a
// fresh object linked to fn.prototype, call fn with it as `this`, and
// keep the constructor's own return value only if it is an object.
func (vm *VM) construct(state *ExecutionState, fn Value, args []Value) (Value, *Error) {
	if !fn.IsCallable() {
		return Value{}, state.Throw(newTypeError("value is not a constructor"))
	}
	ctor := fn.AsObject()
	protoVal, err := ctor.Get(state, "prototype", fn)
	if err != nil {
		return Value{}, err
	}
	if !protoVal.IsObject() {
		protoVal = vm.objectPrototype
	}
	inst := HeapValue(NewObject(protoVal))
	result, cerr := vm.Call(state, fn, inst, args)
	if cerr != nil {
		return Value{}, cerr
	}
	if result.IsObject() {
		return result, nil
	}
	return inst, nil
}

// spreadAppend implements the runtime half of array spread
// (`[...a, ...b]`): append every element of iterableVal's dense
// storage onto arrayVal, advancing the counter in nextIndexReg.
// compiler.go emits OpSpreadAppend for every spread element; a spread
// of anything other than an array throws a TypeError here.
func (vm *VM) spreadAppend(state *ExecutionState, arrayVal, iterableVal Value, nextIndexReg int, frame *callFrame) *Error {
	if !arrayVal.IsObject() {
		return state.Throw(newTypeError("spread target is not an array"))
	}
	arr := arrayVal.AsObject()
	ext := arrayExtOf(iterableVal)
	if ext == nil {
		return state.Throw(newTypeError("spread element is not iterable"))
	}
	next, err := ToInt32(state, frame.regs[nextIndexReg])
	if err != nil {
		return err
	}
	n := int(next)
	for i, v := range ext.dense {
		arr.arraySetIndexed(n+i, v)
	}
	frame.regs[nextIndexReg] = Int32Value(int32(n + len(ext.dense)))
	return nil
}

func newFatalAsError(reason string) *Error {
	return &Error{Kind: KindError, Message: fmt.Sprintf("vela: fatal: %s", reason)}
}
