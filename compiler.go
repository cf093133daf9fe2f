package vela

// generator is the per-BytecodeBlock compilation context: patch-lists
// for break/continue, the current ScopeContext, and a register
// allocator. One generator exists per function body being compiled;
// nested functions get their own generator writing into a child
// BytecodeBlock, linked via Children.
type generator struct {
	block *BytecodeBlock
	scope *ScopeContext
	vm    *VM

	// regTop implements a strictly LIFO register stack: getRegister
	// returns regTop then increments it; freeRegister requires its
	// argument to be the top of the stack.
	regTop int

	loops []loopContext
}

// loopContext tracks the patch lists and target pcs a break/continue
// inside the current loop or labeled statement must resolve to.
type loopContext struct {
	label        string
	breakPatches []int
	contPatches  []int
	continuePC   int // -1 until known (e.g. for-loop update site)
}

func newGenerator(vm *VM, scope *ScopeContext, name string) *generator {
	return &generator{block: NewBytecodeBlock(name), scope: scope, vm: vm}
}

// getRegister allocates the next free register. Every emitter that
// produces a value leaves exactly one register live on return.
func (g *generator) getRegister() int {
	r := g.regTop
	g.regTop++
	if g.regTop > g.block.MaxRegister {
		g.block.MaxRegister = g.regTop
	}
	return r
}

// freeRegister releases register r, which must be the current top of
// the stack: the allocator's balance must be zero at the start and
// end of every statement emission.
func (g *generator) freeRegister(r int) {
	if r != g.regTop-1 {
		panic("vela: register stack imbalance")
	}
	g.regTop--
}

// depth returns the generator's current live-register count, used by
// callers that need to snapshot-and-restore around an emission whose
// net register effect must be zero (e.g. emitResultNotRequired).
func (g *generator) depth() int { return g.regTop }

func (g *generator) resetTo(depth int) { g.regTop = depth }

func (g *generator) emit(op Opcode, a, b, c int) int {
	g.block.Code = append(g.block.Code, Instruction{Op: op, A: a, B: b, C: c})
	g.block.SourceLoc = append(g.block.SourceLoc, Range{})
	return len(g.block.Code) - 1
}

func (g *generator) emitImm(op Opcode, a, imm int) int {
	g.block.Code = append(g.block.Code, Instruction{Op: op, A: a, Imm: imm})
	g.block.SourceLoc = append(g.block.SourceLoc, Range{})
	return len(g.block.Code) - 1
}

func (g *generator) pc() int { return len(g.block.Code) }

// patchJump rewrites the Imm field of the jump instruction at pc to
// target the generator's current pc (a forward jump being resolved).
func (g *generator) patchJump(pc int) {
	g.block.Code[pc].Imm = g.pc()
}

func (g *generator) patchJumpTo(pc, target int) {
	g.block.Code[pc].Imm = target
}

func (g *generator) pushLoop(label string) {
	g.loops = append(g.loops, loopContext{label: label, continuePC: -1})
}

func (g *generator) popLoop() loopContext {
	top := g.loops[len(g.loops)-1]
	g.loops = g.loops[:len(g.loops)-1]
	return top
}

func (g *generator) currentLoop() *loopContext {
	if len(g.loops) == 0 {
		return nil
	}
	return &g.loops[len(g.loops)-1]
}

func (g *generator) loopByLabel(label string) *loopContext {
	for i := len(g.loops) - 1; i >= 0; i-- {
		if label == "" || g.loops[i].label == label {
			return &g.loops[i]
		}
	}
	return nil
}

// compileProgram is the entry point invoked by Context.Evaluate
// (context.go): lowers the whole program body into the returned
// BytecodeBlock's top level.
func compileProgram(vm *VM, prog *ProgramNode, strict bool) (*BytecodeBlock, *Error) {
	scope := NewProgramScope(strict)
	prog.Scope = scope
	hoistDeclarations(scope, prog.Body)
	g := newGenerator(vm, scope, "<program>")
	g.block.StrictMode = strict
	g.getRegister() // register 0 stays free for the VM's current exception (see TryStatementNode)
	completion := g.getRegister()
	g.emit(OpLoadUndefined, completion, 0, 0)
	for _, stmt := range prog.Body {
		if es, ok := stmt.(*ExpressionStatementNode); ok {
			reg, err := es.Expr.emitExpression(g)
			if err != nil {
				return nil, err
			}
			g.emit(OpMove, completion, reg, 0)
			g.freeRegister(reg)
		} else if err := stmt.emitStatement(g); err != nil {
			return nil, err
		}
		if g.depth() != 2 {
			panic("vela: register leak after statement")
		}
	}
	g.emit(OpReturn, completion, 0, 0)
	return g.block, nil
}

// hoistDeclarations implements ES5 §10.5 variable/function hoisting:
// every `var` and function declaration reachable without crossing a
// function boundary is declared in scope before the body is walked,
// so a forward reference compiles to a real slot instead of the
// name-based slow path.
func hoistDeclarations(scope *ScopeContext, body []AstNode) {
	for _, stmt := range body {
		hoistOne(scope, stmt)
	}
}

func hoistOne(scope *ScopeContext, n AstNode) {
	switch s := n.(type) {
	case *VariableDeclarationNode:
		if s.Kind == "var" {
			for _, d := range s.Declarations {
				if id, ok := d.Name.(*IdentifierNode); ok {
					scope.Declare(id.Name, BindingVar)
				}
			}
		}
	case *FunctionDeclarationNode:
		scope.Declare(s.Fn.Name, BindingFunction)
	case *BlockStatementNode:
		hoistDeclarations(scope, s.Body)
	case *IfStatementNode:
		hoistOne(scope, s.Consequent)
		if s.Alternate != nil {
			hoistOne(scope, s.Alternate)
		}
	case *ForStatementNode:
		if s.Init != nil {
			hoistOne(scope, s.Init)
		}
		hoistOne(scope, s.Body)
	case *WhileStatementNode:
		hoistOne(scope, s.Body)
	case *TryStatementNode:
		hoistDeclarations(scope, s.Block.Body)
		if s.Handler != nil {
			hoistDeclarations(scope, s.Handler.Body.Body)
		}
		if s.Finally != nil {
			hoistDeclarations(scope, s.Finally.Body)
		}
	}
}

// ---- Literal ----

func (n *LiteralNode) emitExpression(g *generator) (int, *Error) {
	dst := g.getRegister()
	switch n.Kind {
	case LiteralUndefined:
		g.emit(OpLoadUndefined, dst, 0, 0)
	case LiteralNull:
		g.emit(OpLoadNull, dst, 0, 0)
	case LiteralBool:
		b := 0
		if n.Bool {
			b = 1
		}
		g.emit(OpLoadBool, dst, b, 0)
	case LiteralNumber:
		idx := g.block.internLiteral(NumberValue(n.Num))
		g.emitImm(OpLoadLiteral, dst, idx)
	case LiteralString:
		idx := g.block.internLiteral(HeapValue(NewStringFromGoString(n.Str)))
		g.emitImm(OpLoadLiteral, dst, idx)
	case LiteralRegExp:
		srcIdx := g.block.internLiteral(HeapValue(NewStringFromGoString(n.Str)))
		flagsIdx := g.block.internLiteral(HeapValue(NewStringFromGoString(n.ReFlags)))
		g.emitImm(OpNewRegExp, dst, srcIdx<<16|flagsIdx)
	default:
		idx := g.block.internLiteral(Undefined)
		g.emitImm(OpLoadLiteral, dst, idx)
	}
	return dst, nil
}

func (n *LiteralNode) emitResultNotRequired(g *generator) *Error { return nil }
func (n *LiteralNode) emitStatement(g *generator) *Error         { return n.emitResultNotRequired(g) }

// ---- Identifier ----

func (n *IdentifierNode) emitExpression(g *generator) (int, *Error) {
	res := g.scope.Resolve(n.Name)
	dst := g.getRegister()
	switch {
	case res.slow || !res.found:
		idx := g.block.internString(n.Name)
		g.emitImm(OpLoadByName, dst, idx)
	case res.depth == 0:
		g.emit(OpLoadByStackIndex, dst, res.slot, 0)
	default:
		g.emit(OpLoadByHeapIndex, dst, res.depth, res.slot)
	}
	return dst, nil
}

func (n *IdentifierNode) emitResultNotRequired(g *generator) *Error {
	res := g.scope.Resolve(n.Name)
	if res.slow || !res.found {
		// A bare reference to an undeclared name can throw
		// ReferenceError even when its value is discarded, so the
		// slow-path load must still run.
		reg, err := n.emitExpression(g)
		if err != nil {
			return err
		}
		g.freeRegister(reg)
	}
	return nil
}

func (n *IdentifierNode) emitStatement(g *generator) *Error { return n.emitResultNotRequired(g) }

func (n *IdentifierNode) emitResolveAddress(g *generator) (addrHandle, *Error) {
	res := g.scope.Resolve(n.Name)
	switch {
	case res.slow || !res.found:
		return addrHandle{kind: addrName, name: n.Name}, nil
	case res.depth == 0:
		return addrHandle{kind: addrStack, slot: res.slot}, nil
	default:
		return addrHandle{kind: addrHeap, depth: res.depth, slot: res.slot}, nil
	}
}

// ---- Member ----

func (n *MemberExpressionNode) emitExpression(g *generator) (int, *Error) {
	objReg, err := n.Object.emitExpression(g)
	if err != nil {
		return 0, err
	}
	dst := g.getRegister()
	if !n.Computed {
		name := n.Property.(*IdentifierNode).Name
		idx := g.block.internString(name)
		g.block.addCache()
		pc := g.emitImm(OpGetObjectByName, dst, idx)
		g.block.Code[pc].B = objReg
	} else {
		keyReg, err := n.Property.emitExpression(g)
		if err != nil {
			return 0, err
		}
		g.emit(OpGetObject, dst, objReg, keyReg)
		g.freeRegister(keyReg)
	}
	// dst sits above objReg on the register stack; collapse the two
	// down to objReg's slot directly rather than going through
	// freeRegister, whose top-of-stack assertion objReg no longer
	// satisfies once dst was allocated above it.
	if dst != objReg {
		g.emit(OpMove, objReg, dst, 0)
	}
	g.resetTo(objReg + 1)
	return objReg, nil
}

func (n *MemberExpressionNode) emitResultNotRequired(g *generator) *Error {
	// Property access on an object can invoke a getter, so it is
	// never side-effect free in general; evaluate and discard.
	reg, err := n.emitExpression(g)
	if err != nil {
		return err
	}
	g.freeRegister(reg)
	return nil
}

func (n *MemberExpressionNode) emitStatement(g *generator) *Error { return n.emitResultNotRequired(g) }

func (n *MemberExpressionNode) emitResolveAddress(g *generator) (addrHandle, *Error) {
	objReg, err := n.Object.emitExpression(g)
	if err != nil {
		return addrHandle{}, err
	}
	if !n.Computed {
		name := n.Property.(*IdentifierNode).Name
		return addrHandle{kind: addrMember, objReg: objReg, keyConst: name}, nil
	}
	keyReg, err := n.Property.emitExpression(g)
	if err != nil {
		return addrHandle{}, err
	}
	return addrHandle{kind: addrMember, objReg: objReg, keyReg: keyReg}, nil
}

// ---- Binary ----

var binaryOpcodes = map[BinaryOp]Opcode{
	BinAdd: OpAdd, BinSub: OpSub, BinMul: OpMul, BinDiv: OpDiv, BinMod: OpMod,
	BinEq: OpEqual, BinNeq: OpNotEqual, BinStrictEq: OpStrictEqual, BinStrictNeq: OpStrictNotEqual,
	BinLt: OpLessThan, BinLte: OpLessThanEqual, BinGt: OpGreaterThan, BinGte: OpGreaterThanEqual,
	BinBitAnd: OpBitAnd, BinBitOr: OpBitOr, BinBitXor: OpBitXor,
	BinShl: OpShl, BinShr: OpShr, BinUShr: OpUShr,
	BinInstanceOf: OpInstanceOf, BinIn: OpIn,
}

func (n *BinaryExpressionNode) emitExpression(g *generator) (int, *Error) {
	left, err := n.Left.emitExpression(g)
	if err != nil {
		return 0, err
	}
	right, err := n.Right.emitExpression(g)
	if err != nil {
		return 0, err
	}
	g.freeRegister(right)
	g.freeRegister(left)
	dst := g.getRegister()
	g.emit(binaryOpcodes[n.Op], dst, left, right)
	return dst, nil
}

func (n *BinaryExpressionNode) emitResultNotRequired(g *generator) *Error {
	reg, err := n.emitExpression(g)
	if err != nil {
		return err
	}
	g.freeRegister(reg)
	return nil
}

func (n *BinaryExpressionNode) emitStatement(g *generator) *Error { return n.emitResultNotRequired(g) }

// ---- Logical ----

func (n *LogicalExpressionNode) emitExpression(g *generator) (int, *Error) {
	left, err := n.Left.emitExpression(g)
	if err != nil {
		return 0, err
	}
	var patch int
	if n.Op == LogicalAnd {
		patch = g.emitImm(OpJumpIfFalsy, left, 0)
	} else {
		patch = g.emitImm(OpJumpIfTruthy, left, 0)
	}
	g.freeRegister(left)
	right, err := n.Right.emitExpression(g)
	if err != nil {
		return 0, err
	}
	if right != left {
		g.emit(OpMove, left, right, 0)
		g.freeRegister(right)
	}
	g.patchJump(patch)
	return left, nil
}

func (n *LogicalExpressionNode) emitResultNotRequired(g *generator) *Error {
	reg, err := n.emitExpression(g)
	if err != nil {
		return err
	}
	g.freeRegister(reg)
	return nil
}

func (n *LogicalExpressionNode) emitStatement(g *generator) *Error { return n.emitResultNotRequired(g) }

// ---- Unary ----

func (n *UnaryExpressionNode) emitExpression(g *generator) (int, *Error) {
	if n.Op == UnaryTypeof {
		if id, ok := n.Arg.(*IdentifierNode); ok {
			res := g.scope.Resolve(id.Name)
			if res.slow || !res.found {
				dst := g.getRegister()
				idx := g.block.internString(id.Name)
				g.emitImm(OpLoadByName, dst, idx)
				g.emit(OpTypeof, dst, dst, 0)
				return dst, nil
			}
		}
	}
	if n.Op == UnaryDelete {
		addr, ok := n.Arg.(addressable)
		if !ok {
			dst := g.getRegister()
			g.emit(OpLoadBool, dst, 1, 0)
			return dst, nil
		}
		if member, ok := addr.(*MemberExpressionNode); ok {
			handle, err := member.emitResolveAddress(g)
			if err != nil {
				return 0, err
			}
			dst := g.getRegister()
			if handle.keyConst != "" {
				keyReg := g.getRegister()
				litIdx := g.block.internLiteral(HeapValue(NewStringFromGoString(handle.keyConst)))
				g.emitImm(OpLoadLiteral, keyReg, litIdx)
				g.emit(OpDeleteProperty, dst, handle.objReg, keyReg)
				g.freeRegister(keyReg)
			} else {
				g.emit(OpDeleteProperty, dst, handle.objReg, handle.keyReg)
				g.freeRegister(handle.keyReg)
			}
			g.freeRegister(handle.objReg)
			return dst, nil
		}
		dst := g.getRegister()
		g.emit(OpLoadBool, dst, 1, 0)
		return dst, nil
	}
	argReg, err := n.Arg.emitExpression(g)
	if err != nil {
		return 0, err
	}
	dst := g.getRegister()
	op := map[UnaryOp]Opcode{
		UnaryNeg: OpNeg, UnaryPlus: OpUnaryPlus, UnaryNot: OpNot,
		UnaryBitNot: OpBitNot, UnaryTypeof: OpTypeof, UnaryVoid: OpVoid,
	}[n.Op]
	g.emit(op, dst, argReg, 0)
	return dst, nil
}

func (n *UnaryExpressionNode) emitResultNotRequired(g *generator) *Error {
	if n.Op == UnaryTypeof || n.Op == UnaryVoid {
		return n.Arg.emitResultNotRequired(g)
	}
	reg, err := n.emitExpression(g)
	if err != nil {
		return err
	}
	g.freeRegister(reg)
	return nil
}

func (n *UnaryExpressionNode) emitStatement(g *generator) *Error { return n.emitResultNotRequired(g) }

// ---- Update ----

func (n *UpdateExpressionNode) emitExpression(g *generator) (int, *Error) {
	handle, err := n.Arg.emitResolveAddress(g)
	if err != nil {
		return 0, err
	}
	cur, err := loadAddr(g, handle)
	if err != nil {
		return 0, err
	}
	op := OpInc
	if !n.Increment {
		op = OpDec
	}
	updated := g.getRegister()
	g.emit(op, updated, cur, 0)
	g.emitStoreRaw(handle, updated)

	base := storeBase(handle, cur)
	result := updated
	if !n.Prefix {
		result = cur
	}
	if result != base {
		g.emit(OpMove, base, result, 0)
	}
	g.resetTo(base + 1)
	return base, nil
}

func loadAddr(g *generator, h addrHandle) (int, *Error) {
	dst := g.getRegister()
	switch h.kind {
	case addrStack:
		g.emit(OpLoadByStackIndex, dst, h.slot, 0)
	case addrHeap:
		g.emit(OpLoadByHeapIndex, dst, h.depth, h.slot)
	case addrName:
		idx := g.block.internString(h.name)
		g.emitImm(OpLoadByName, dst, idx)
	case addrMember:
		if h.keyConst != "" {
			idx := g.block.internString(h.keyConst)
			pc := g.emitImm(OpGetObjectByName, dst, idx)
			g.block.Code[pc].B = h.objReg
		} else {
			g.emit(OpGetObject, dst, h.objReg, h.keyReg)
		}
	}
	return dst, nil
}

func (n *UpdateExpressionNode) emitResultNotRequired(g *generator) *Error {
	reg, err := n.emitExpression(g)
	if err != nil {
		return err
	}
	g.freeRegister(reg)
	return nil
}

func (n *UpdateExpressionNode) emitStatement(g *generator) *Error { return n.emitResultNotRequired(g) }

// ---- Assignment ----

var compoundBinaryOp = map[AssignmentOp]BinaryOp{
	AssignAdd: BinAdd, AssignSub: BinSub, AssignMul: BinMul, AssignDiv: BinDiv, AssignMod: BinMod,
}

func (n *AssignmentExpressionNode) emitExpression(g *generator) (int, *Error) {
	handle, err := n.Target.emitResolveAddress(g)
	if err != nil {
		return 0, err
	}
	var valueReg int
	if n.Op == AssignPlain {
		valueReg, err = n.Value.emitExpression(g)
		if err != nil {
			return 0, err
		}
	} else {
		cur, err := loadAddr(g, handle)
		if err != nil {
			return 0, err
		}
		rhs, err := n.Value.emitExpression(g)
		if err != nil {
			return 0, err
		}
		g.freeRegister(rhs)
		g.freeRegister(cur)
		valueReg = g.getRegister()
		g.emit(binaryOpcodes[compoundBinaryOp[n.Op]], valueReg, cur, rhs)
	}
	result, err := g.emitStore(handle, valueReg, true)
	if err != nil {
		return 0, err
	}
	return result, nil
}

func (n *AssignmentExpressionNode) emitResultNotRequired(g *generator) *Error {
	handle, err := n.Target.emitResolveAddress(g)
	if err != nil {
		return err
	}
	var valueReg int
	if n.Op == AssignPlain {
		valueReg, err = n.Value.emitExpression(g)
		if err != nil {
			return err
		}
	} else {
		cur, err := loadAddr(g, handle)
		if err != nil {
			return err
		}
		rhs, err := n.Value.emitExpression(g)
		if err != nil {
			return err
		}
		g.freeRegister(rhs)
		g.freeRegister(cur)
		valueReg = g.getRegister()
		g.emit(binaryOpcodes[compoundBinaryOp[n.Op]], valueReg, cur, rhs)
	}
	_, err = g.emitStore(handle, valueReg, false)
	return err
}

func (n *AssignmentExpressionNode) emitStatement(g *generator) *Error {
	return n.emitResultNotRequired(g)
}

// ---- Conditional ----

func (n *ConditionalExpressionNode) emitExpression(g *generator) (int, *Error) {
	test, err := n.Test.emitExpression(g)
	if err != nil {
		return 0, err
	}
	falsyPatch := g.emitImm(OpJumpIfFalsy, test, 0)
	g.freeRegister(test)
	dst := g.getRegister()
	cons, err := n.Consequent.emitExpression(g)
	if err != nil {
		return 0, err
	}
	if cons != dst {
		g.emit(OpMove, dst, cons, 0)
	}
	g.resetTo(dst + 1)
	endPatch := g.emitImm(OpJump, 0, 0)
	g.patchJump(falsyPatch)
	g.resetTo(dst)
	alt, err := n.Alternate.emitExpression(g)
	if err != nil {
		return 0, err
	}
	if alt != dst {
		g.emit(OpMove, dst, alt, 0)
	}
	g.resetTo(dst + 1)
	g.patchJump(endPatch)
	return dst, nil
}

func (n *ConditionalExpressionNode) emitResultNotRequired(g *generator) *Error {
	reg, err := n.emitExpression(g)
	if err != nil {
		return err
	}
	g.freeRegister(reg)
	return nil
}

func (n *ConditionalExpressionNode) emitStatement(g *generator) *Error {
	return n.emitResultNotRequired(g)
}

// ---- Call / New ----

func (n *CallExpressionNode) emitExpression(g *generator) (int, *Error) {
	var calleeReg, thisReg int
	// calleeOnTop records which of calleeReg/thisReg was allocated
	// last, since the two branches below build them in opposite
	// orders and freeRegister demands strict LIFO release.
	var calleeOnTop bool
	if member, ok := n.Callee.(*MemberExpressionNode); ok {
		objReg, err := member.Object.emitExpression(g)
		if err != nil {
			return 0, err
		}
		thisReg = objReg
		calleeReg = g.getRegister()
		calleeOnTop = true
		if !member.Computed {
			name := member.Property.(*IdentifierNode).Name
			idx := g.block.internString(name)
			g.block.addCache()
			pc := g.emitImm(OpGetObjectByName, calleeReg, idx)
			g.block.Code[pc].B = objReg
		} else {
			keyReg, err := member.Property.emitExpression(g)
			if err != nil {
				return 0, err
			}
			g.emit(OpGetObject, calleeReg, objReg, keyReg)
			g.freeRegister(keyReg)
		}
	} else {
		reg, err := n.Callee.emitExpression(g)
		if err != nil {
			return 0, err
		}
		calleeReg = reg
		thisReg = g.getRegister()
		calleeOnTop = false
		g.emit(OpLoadUndefined, thisReg, 0, 0)
	}
	argBase := g.regTop
	for _, a := range n.Arguments {
		if _, err := a.emitExpression(g); err != nil {
			return 0, err
		}
	}
	argc := g.regTop - argBase
	for i := 0; i < argc; i++ {
		g.freeRegister(argBase + argc - 1 - i)
	}
	if calleeOnTop {
		g.freeRegister(calleeReg)
		g.freeRegister(thisReg)
	} else {
		g.freeRegister(thisReg)
		g.freeRegister(calleeReg)
	}
	dst := g.getRegister()
	g.emit(OpCall, dst, calleeReg, thisReg)
	g.block.Code[len(g.block.Code)-1].Imm = argBase<<16 | argc
	return dst, nil
}

func (n *CallExpressionNode) emitResultNotRequired(g *generator) *Error {
	reg, err := n.emitExpression(g)
	if err != nil {
		return err
	}
	g.freeRegister(reg)
	return nil
}

func (n *CallExpressionNode) emitStatement(g *generator) *Error { return n.emitResultNotRequired(g) }

func (n *NewExpressionNode) emitExpression(g *generator) (int, *Error) {
	calleeReg, err := n.Callee.emitExpression(g)
	if err != nil {
		return 0, err
	}
	argBase := g.regTop
	for _, a := range n.Arguments {
		if _, err := a.emitExpression(g); err != nil {
			return 0, err
		}
	}
	argc := g.regTop - argBase
	for i := 0; i < argc; i++ {
		g.freeRegister(argBase + argc - 1 - i)
	}
	g.freeRegister(calleeReg)
	dst := g.getRegister()
	g.emit(OpConstruct, dst, calleeReg, 0)
	g.block.Code[len(g.block.Code)-1].Imm = argBase<<16 | argc
	return dst, nil
}

func (n *NewExpressionNode) emitResultNotRequired(g *generator) *Error {
	reg, err := n.emitExpression(g)
	if err != nil {
		return err
	}
	g.freeRegister(reg)
	return nil
}

func (n *NewExpressionNode) emitStatement(g *generator) *Error { return n.emitResultNotRequired(g) }

// ---- Array / Object literals ----

func (n *ArrayExpressionNode) emitExpression(g *generator) (int, *Error) {
	dst := g.getRegister()
	g.emitImm(OpCreateArray, dst, len(n.Elements))
	for i, el := range n.Elements {
		if el == nil {
			continue // elision hole, leaves the slot absent rather than undefined
		}
		if spread, ok := el.(*SpreadElementNode); ok {
			iterReg, err := spread.Arg.emitExpression(g)
			if err != nil {
				return 0, err
			}
			idxReg := g.getRegister()
			idx := g.block.internLiteral(NumberValue(float64(i)))
			g.emitImm(OpLoadLiteral, idxReg, idx)
			g.emit(OpSpreadAppend, dst, iterReg, idxReg)
			g.freeRegister(idxReg)
			g.freeRegister(iterReg)
			continue
		}
		valReg, err := el.emitExpression(g)
		if err != nil {
			return 0, err
		}
		idxReg := g.getRegister()
		idx := g.block.internLiteral(NumberValue(float64(i)))
		g.emitImm(OpLoadLiteral, idxReg, idx)
		g.emit(OpSetIndexed, dst, idxReg, valReg)
		g.freeRegister(idxReg)
		g.freeRegister(valReg)
	}
	if k := len(n.Elements); k > 0 && n.Elements[k-1] == nil {
		// trailing holes still count toward length
		lenReg := g.getRegister()
		g.emitImm(OpLoadLiteral, lenReg, g.block.internLiteral(NumberValue(float64(k))))
		g.emit(OpSetObjectByName, dst, g.block.internString("length"), lenReg)
		g.freeRegister(lenReg)
	}
	return dst, nil
}

func (n *ArrayExpressionNode) emitResultNotRequired(g *generator) *Error {
	reg, err := n.emitExpression(g)
	if err != nil {
		return err
	}
	g.freeRegister(reg)
	return nil
}

func (n *ArrayExpressionNode) emitStatement(g *generator) *Error { return n.emitResultNotRequired(g) }

func (n *ObjectExpressionNode) emitExpression(g *generator) (int, *Error) {
	dst := g.getRegister()
	g.emit(OpCreateObject, dst, 0, 0)
	for _, p := range n.Properties {
		var keyReg int
		if id, ok := p.Key.(*IdentifierNode); ok && !p.Computed {
			keyReg = g.getRegister()
			idx := g.block.internLiteral(HeapValue(NewStringFromGoString(id.Name)))
			g.emitImm(OpLoadLiteral, keyReg, idx)
		} else {
			reg, err := p.Key.emitExpression(g)
			if err != nil {
				return 0, err
			}
			keyReg = reg
		}
		valReg, err := p.Value.emitExpression(g)
		if err != nil {
			return 0, err
		}
		g.emit(OpDefineOwnProperty, dst, keyReg, valReg)
		g.freeRegister(valReg)
		g.freeRegister(keyReg)
	}
	return dst, nil
}

func (n *ObjectExpressionNode) emitResultNotRequired(g *generator) *Error {
	reg, err := n.emitExpression(g)
	if err != nil {
		return err
	}
	g.freeRegister(reg)
	return nil
}

func (n *ObjectExpressionNode) emitStatement(g *generator) *Error {
	return n.emitResultNotRequired(g)
}

// ---- Sequence ----

func (n *SequenceExpressionNode) emitExpression(g *generator) (int, *Error) {
	for i, e := range n.Expressions {
		if i == len(n.Expressions)-1 {
			return e.emitExpression(g)
		}
		if err := e.emitResultNotRequired(g); err != nil {
			return 0, err
		}
	}
	dst := g.getRegister()
	g.emit(OpLoadUndefined, dst, 0, 0)
	return dst, nil
}

func (n *SequenceExpressionNode) emitResultNotRequired(g *generator) *Error {
	for _, e := range n.Expressions {
		if err := e.emitResultNotRequired(g); err != nil {
			return err
		}
	}
	return nil
}

func (n *SequenceExpressionNode) emitStatement(g *generator) *Error {
	return n.emitResultNotRequired(g)
}

// ---- Spread (only meaningful inside array/call argument lists, which
// unwrap it directly; a bare spread elsewhere is a compile error) ----

func (n *SpreadElementNode) emitExpression(g *generator) (int, *Error) {
	return 0, newSyntaxError("Unexpected spread element")
}

func (n *SpreadElementNode) emitResultNotRequired(g *generator) *Error {
	return n.Arg.emitResultNotRequired(g)
}

func (n *SpreadElementNode) emitStatement(g *generator) *Error { return n.emitResultNotRequired(g) }

// ---- Function ----

func (n *FunctionExpressionNode) emitExpression(g *generator) (int, *Error) {
	child := compileFunctionBody(g.vm, g.scope, n)
	childIndex := len(g.block.Children)
	g.block.Children = append(g.block.Children, child)
	dst := g.getRegister()
	g.emitImm(OpMakeClosure, dst, childIndex)
	return dst, nil
}

func (n *FunctionExpressionNode) emitResultNotRequired(g *generator) *Error { return nil }
func (n *FunctionExpressionNode) emitStatement(g *generator) *Error {
	return n.emitResultNotRequired(g)
}

func compileFunctionBody(vm *VM, parent *ScopeContext, fn *FunctionExpressionNode) *BytecodeBlock {
	scope := parent.NewFunctionScope(fn.Name)
	for _, p := range fn.Params {
		scope.Declare(p, BindingParameter)
	}
	fn.Scope = scope
	hoistDeclarations(scope, fn.Body.Body)
	fg := newGenerator(vm, scope, fn.Name)
	fg.block.ParamCount = len(fn.Params)
	for _, stmt := range fn.Body.Body {
		if err := stmt.emitStatement(fg); err != nil {
			break
		}
	}
	retDst := fg.getRegister()
	fg.emit(OpLoadUndefined, retDst, 0, 0)
	fg.emit(OpReturn, retDst, 0, 0)
	return fg.block
}

func (n *FunctionDeclarationNode) emitExpression(g *generator) (int, *Error) {
	return 0, newSyntaxError("function declaration used as expression")
}

func (n *FunctionDeclarationNode) emitResultNotRequired(g *generator) *Error { return nil }

// emitStatement for a FunctionDeclarationNode materializes the
// closure into the slot hoisting already reserved for its name
// (ES5 §10.5 step 5: function declarations are bound before the body
// runs).
func (n *FunctionDeclarationNode) emitStatement(g *generator) *Error {
	reg, err := n.Fn.emitExpression(g)
	if err != nil {
		return err
	}
	res := g.scope.Resolve(n.Fn.Name)
	handle := addrHandle{kind: addrName, name: n.Fn.Name}
	if res.found && !res.slow {
		if res.depth == 0 {
			handle = addrHandle{kind: addrStack, slot: res.slot}
		} else {
			handle = addrHandle{kind: addrHeap, depth: res.depth, slot: res.slot}
		}
	}
	_, err = g.emitStore(handle, reg, false)
	return err
}

// ---- Statements ----

func (n *BlockStatementNode) emitExpression(g *generator) (int, *Error) {
	return 0, newSyntaxError("block used as expression")
}
func (n *BlockStatementNode) emitResultNotRequired(g *generator) *Error { return n.emitStatement(g) }
func (n *BlockStatementNode) emitStatement(g *generator) *Error {
	for _, stmt := range n.Body {
		if err := stmt.emitStatement(g); err != nil {
			return err
		}
	}
	return nil
}

func (n *ExpressionStatementNode) emitExpression(g *generator) (int, *Error) {
	return 0, newSyntaxError("expression statement used as expression")
}
func (n *ExpressionStatementNode) emitResultNotRequired(g *generator) *Error { return n.emitStatement(g) }
func (n *ExpressionStatementNode) emitStatement(g *generator) *Error {
	return n.Expr.emitResultNotRequired(g)
}

func (n *VariableDeclarationNode) emitExpression(g *generator) (int, *Error) {
	return 0, newSyntaxError("variable declaration used as expression")
}
func (n *VariableDeclarationNode) emitResultNotRequired(g *generator) *Error { return n.emitStatement(g) }
func (n *VariableDeclarationNode) emitStatement(g *generator) *Error {
	for _, d := range n.Declarations {
		if d.Init == nil {
			continue
		}
		handle, err := d.Name.emitResolveAddress(g)
		if err != nil {
			return err
		}
		valReg, err := d.Init.emitExpression(g)
		if err != nil {
			return err
		}
		if _, err := g.emitStore(handle, valReg, false); err != nil {
			return err
		}
	}
	return nil
}

func (n *IfStatementNode) emitExpression(g *generator) (int, *Error) {
	return 0, newSyntaxError("if statement used as expression")
}
func (n *IfStatementNode) emitResultNotRequired(g *generator) *Error { return n.emitStatement(g) }
func (n *IfStatementNode) emitStatement(g *generator) *Error {
	test, err := n.Test.emitExpression(g)
	if err != nil {
		return err
	}
	falsyPatch := g.emitImm(OpJumpIfFalsy, test, 0)
	g.freeRegister(test)
	if err := n.Consequent.emitStatement(g); err != nil {
		return err
	}
	if n.Alternate == nil {
		g.patchJump(falsyPatch)
		return nil
	}
	endPatch := g.emitImm(OpJump, 0, 0)
	g.patchJump(falsyPatch)
	if err := n.Alternate.emitStatement(g); err != nil {
		return err
	}
	g.patchJump(endPatch)
	return nil
}

func (n *WhileStatementNode) emitExpression(g *generator) (int, *Error) {
	return 0, newSyntaxError("while statement used as expression")
}
func (n *WhileStatementNode) emitResultNotRequired(g *generator) *Error { return n.emitStatement(g) }
func (n *WhileStatementNode) emitStatement(g *generator) *Error {
	g.pushLoop("")
	startPC := g.pc()
	var testPatch int
	if !n.DoWhile {
		test, err := n.Test.emitExpression(g)
		if err != nil {
			return err
		}
		testPatch = g.emitImm(OpJumpIfFalsy, test, 0)
		g.freeRegister(test)
	}
	bodyStart := g.pc()
	if err := n.Body.emitStatement(g); err != nil {
		return err
	}
	contPC := g.pc()
	if n.DoWhile {
		test, err := n.Test.emitExpression(g)
		if err != nil {
			return err
		}
		g.emitImm(OpJumpIfTruthy, test, bodyStart)
		g.freeRegister(test)
	} else {
		g.emitImm(OpJump, 0, startPC)
		g.patchJump(testPatch)
	}
	loop := g.popLoop()
	for _, p := range loop.breakPatches {
		g.patchJump(p)
	}
	for _, p := range loop.contPatches {
		g.patchJumpTo(p, contPC)
	}
	return nil
}

func (n *ForStatementNode) emitExpression(g *generator) (int, *Error) {
	return 0, newSyntaxError("for statement used as expression")
}
func (n *ForStatementNode) emitResultNotRequired(g *generator) *Error { return n.emitStatement(g) }
func (n *ForStatementNode) emitStatement(g *generator) *Error {
	if n.Init != nil {
		if err := n.Init.emitStatement(g); err != nil {
			return err
		}
	}
	g.pushLoop("")
	testPC := g.pc()
	var falsyPatch int
	hasTest := n.Test != nil
	if hasTest {
		test, err := n.Test.emitExpression(g)
		if err != nil {
			return err
		}
		falsyPatch = g.emitImm(OpJumpIfFalsy, test, 0)
		g.freeRegister(test)
	}
	if err := n.Body.emitStatement(g); err != nil {
		return err
	}
	updatePC := g.pc()
	if n.Update != nil {
		if err := n.Update.emitResultNotRequired(g); err != nil {
			return err
		}
	}
	g.emitImm(OpJump, 0, testPC)
	if hasTest {
		g.patchJump(falsyPatch)
	}
	loop := g.popLoop()
	for _, p := range loop.breakPatches {
		g.patchJump(p)
	}
	for _, p := range loop.contPatches {
		g.patchJumpTo(p, updatePC)
	}
	return nil
}

func (n *ReturnStatementNode) emitExpression(g *generator) (int, *Error) {
	return 0, newSyntaxError("return statement used as expression")
}
func (n *ReturnStatementNode) emitResultNotRequired(g *generator) *Error { return n.emitStatement(g) }
func (n *ReturnStatementNode) emitStatement(g *generator) *Error {
	var reg int
	if n.Arg == nil {
		reg = g.getRegister()
		g.emit(OpLoadUndefined, reg, 0, 0)
	} else {
		r, err := n.Arg.emitExpression(g)
		if err != nil {
			return err
		}
		reg = r
	}
	g.emit(OpReturn, reg, 0, 0)
	g.freeRegister(reg)
	return nil
}

func (n *BreakStatementNode) emitExpression(g *generator) (int, *Error) {
	return 0, newSyntaxError("break used as expression")
}
func (n *BreakStatementNode) emitResultNotRequired(g *generator) *Error { return n.emitStatement(g) }
func (n *BreakStatementNode) emitStatement(g *generator) *Error {
	loop := g.loopByLabel(n.Label)
	if loop == nil {
		return newSyntaxError("Illegal break statement")
	}
	patch := g.emitImm(OpJump, 0, 0)
	loop.breakPatches = append(loop.breakPatches, patch)
	return nil
}

func (n *ContinueStatementNode) emitExpression(g *generator) (int, *Error) {
	return 0, newSyntaxError("continue used as expression")
}
func (n *ContinueStatementNode) emitResultNotRequired(g *generator) *Error { return n.emitStatement(g) }
func (n *ContinueStatementNode) emitStatement(g *generator) *Error {
	loop := g.loopByLabel(n.Label)
	if loop == nil {
		return newSyntaxError("Illegal continue statement")
	}
	patch := g.emitImm(OpJump, 0, 0)
	loop.contPatches = append(loop.contPatches, patch)
	return nil
}

func (n *ThrowStatementNode) emitExpression(g *generator) (int, *Error) {
	return 0, newSyntaxError("throw used as expression")
}
func (n *ThrowStatementNode) emitResultNotRequired(g *generator) *Error { return n.emitStatement(g) }
func (n *ThrowStatementNode) emitStatement(g *generator) *Error {
	reg, err := n.Arg.emitExpression(g)
	if err != nil {
		return err
	}
	g.emit(OpThrow, reg, 0, 0)
	g.freeRegister(reg)
	return nil
}

func (n *CatchClauseNode) emitExpression(g *generator) (int, *Error) {
	return 0, newSyntaxError("catch clause used as expression")
}
func (n *CatchClauseNode) emitResultNotRequired(g *generator) *Error { return nil }
func (n *CatchClauseNode) emitStatement(g *generator) *Error         { return n.Body.emitStatement(g) }

// emitStatement for TryStatementNode lowers try/catch/finally into a
// TryRegion covering the protected block, with CatchPC/FinallyPC
// pointing at the handler streams emitted right after it. The finally
// block is emitted once, at FinallyPC: the try body's normal exit
// jumps past the catch handler and falls into it.
func (n *TryStatementNode) emitExpression(g *generator) (int, *Error) {
	return 0, newSyntaxError("try statement used as expression")
}
func (n *TryStatementNode) emitResultNotRequired(g *generator) *Error { return n.emitStatement(g) }
func (n *TryStatementNode) emitStatement(g *generator) *Error {
	region := TryRegion{CatchPC: -1, FinallyPC: -1, CatchSlot: -1}
	regionIdx := len(g.block.TryRegions)
	g.block.TryRegions = append(g.block.TryRegions, region)
	g.emitImm(OpEnterTryRegion, 0, regionIdx)
	region.PCStart = g.pc()

	if err := n.Block.emitStatement(g); err != nil {
		return err
	}
	g.emit(OpLeaveTryRegion, 0, 0, 0)
	region.PCEnd = g.pc()
	endPatch := g.emitImm(OpJump, 0, 0)

	if n.Handler != nil {
		region.CatchPC = g.pc()
		if n.Handler.Param != nil {
			handle, err := n.Handler.Param.emitResolveAddress(g)
			if err != nil {
				return err
			}
			errReg := g.getRegister()
			g.emit(OpMove, errReg, 0, 0) // 0 is the VM's reserved "current exception" register
			if _, err := g.emitStore(handle, errReg, false); err != nil {
				return err
			}
		}
		if err := n.Handler.Body.emitStatement(g); err != nil {
			return err
		}
	}
	g.patchJump(endPatch)

	if n.Finally != nil {
		region.FinallyPC = g.pc()
		if err := n.Finally.emitStatement(g); err != nil {
			return err
		}
	}

	g.block.TryRegions[regionIdx] = region
	return nil
}

func (n *ProgramNode) emitExpression(g *generator) (int, *Error) {
	return 0, newSyntaxError("program used as expression")
}
func (n *ProgramNode) emitResultNotRequired(g *generator) *Error { return n.emitStatement(g) }
func (n *ProgramNode) emitStatement(g *generator) *Error {
	for _, stmt := range n.Body {
		if err := stmt.emitStatement(g); err != nil {
			return err
		}
	}
	return nil
}
