package vela

import "fmt"

// AstNode is the capability set every syntax-tree node exposes to the
// bytecode generator (spec.md §3 "AST node" / §4.4): a node knows its
// own source Range, can print itself three ways, and can lower itself
// in up to four distinct modes depending on the context the generator
// found it in. Not every node implements every emit hook meaningfully
// -- a LiteralNode has no useful emitStore, for instance -- such nodes
// return a compile error from the hooks that do not apply to them,
// mirroring how the teacher's AstNode.Accept errors out of a visitor
// method a node type does not support.
type AstNode interface {
	Range() Range
	String() string
	PrettyString() string
	HighlightPrettyString() string
	Accept(AstNodeVisitor) error
	Equal(AstNode) bool

	// emitExpression lowers the node as a value-producing expression,
	// leaving exactly one live register (spec.md §4.4 register
	// allocator invariant) holding the result.
	emitExpression(gen *generator) (reg int, err *Error)

	// emitResultNotRequired lowers the node for its side effects only,
	// per spec.md §8's invariant that a side-effect-free expression in
	// this mode emits no writes to user-visible state.
	emitResultNotRequired(gen *generator) *Error

	// emitStatement lowers the node in statement context (no value is
	// produced); used for the statement-kind nodes (blocks, loops,
	// declarations, control flow). Expression-kind nodes implement it
	// by delegating to emitResultNotRequired.
	emitStatement(gen *generator) *Error
}

// addressable is implemented by the handful of node kinds that can
// appear on the left side of an assignment or as an update or catch
// binding target: Identifier and Member expressions (spec.md §4.4
// "Assignment").
type addressable interface {
	AstNode
	// emitResolveAddress computes and holds onto whatever registers
	// are needed to later commit a value to this location (e.g. the
	// object+key registers of a member expression), returning an
	// addrHandle emitStore consumes.
	emitResolveAddress(gen *generator) (addrHandle, *Error)
}

// addrHandle is produced by emitResolveAddress and consumed by
// emitStore; its shape depends on which addressable node produced it.
type addrHandle struct {
	kind     addrKind
	slot     int    // scope slot, for identifiers resolved to a local
	depth    int    // enclosing-scope depth, for LoadByHeapIndex targets
	name     string // for LoadByName/StoreByName slow path
	objReg   int    // member expression: register holding the object
	keyReg   int    // member expression: register holding the key
	keyConst string // member expression: statically known key (dot access)
}

type addrKind uint8

const (
	addrStack addrKind = iota
	addrHeap
	addrName
	addrMember
)

// emitStoreRaw emits the instruction that commits srcReg to h, doing
// no register bookkeeping: callers that need a non-default collapse
// (UpdateExpressionNode, which must keep the pre-increment value
// rather than the stored one for postfix `x++`) use this directly.
func (gen *generator) emitStoreRaw(h addrHandle, srcReg int) {
	switch h.kind {
	case addrStack:
		gen.emit(OpStoreByStackIndex, h.slot, srcReg, 0)
	case addrHeap:
		gen.emit(OpStoreByHeapIndex, h.depth, h.slot, srcReg)
	case addrName:
		nameIdx := gen.block.internString(h.name)
		gen.emit(OpStoreByName, nameIdx, srcReg, 0)
	case addrMember:
		if h.keyConst != "" {
			nameIdx := gen.block.internString(h.keyConst)
			gen.emit(OpSetObjectByName, h.objReg, nameIdx, srcReg)
		} else {
			gen.emit(OpSetObject, h.objReg, h.keyReg, srcReg)
		}
	}
}

// storeBase is the lowest register h's resolution occupies on the
// register stack: objReg for a member target (which also holds
// keyReg, for a computed key, directly above it), or srcReg itself
// when h addresses a slot or name-pool entry rather than a register.
func storeBase(h addrHandle, srcReg int) int {
	if h.kind == addrMember {
		return h.objReg
	}
	return srcReg
}

// emitStore commits srcReg to the location h addresses, returning the
// register that still holds the stored value when needSelfRef is true
// (used by expression-context assignment, e.g. `x = y = 1`) or -1
// otherwise. objReg/keyReg, when present, sit below srcReg on the
// register stack and so cannot be popped individually while srcReg
// stays live above them; emitStore always collapses down to
// storeBase's register instead of freeing through the normal LIFO
// path.
func (gen *generator) emitStore(h addrHandle, srcReg int, needSelfRef bool) (int, *Error) {
	gen.emitStoreRaw(h, srcReg)
	base := storeBase(h, srcReg)
	if !needSelfRef {
		gen.resetTo(base)
		return -1, nil
	}
	if srcReg != base {
		gen.emit(OpMove, base, srcReg, 0)
	}
	gen.resetTo(base + 1)
	return base, nil
}

// AstNodeVisitor is the double-dispatch target every AstNode.Accept
// calls into, used by the pretty printers (ast_printer.go) and by
// static analyses (the scope-declaration walk in scope.go) that need
// to traverse without duplicating the node-kind switch, following the
// teacher's grammar_ast_visitor.go pattern generalized to ES node
// kinds.
type AstNodeVisitor interface {
	VisitLiteralNode(*LiteralNode) error
	VisitIdentifierNode(*IdentifierNode) error
	VisitArrayExpressionNode(*ArrayExpressionNode) error
	VisitObjectExpressionNode(*ObjectExpressionNode) error
	VisitBinaryExpressionNode(*BinaryExpressionNode) error
	VisitLogicalExpressionNode(*LogicalExpressionNode) error
	VisitUnaryExpressionNode(*UnaryExpressionNode) error
	VisitUpdateExpressionNode(*UpdateExpressionNode) error
	VisitAssignmentExpressionNode(*AssignmentExpressionNode) error
	VisitConditionalExpressionNode(*ConditionalExpressionNode) error
	VisitCallExpressionNode(*CallExpressionNode) error
	VisitNewExpressionNode(*NewExpressionNode) error
	VisitMemberExpressionNode(*MemberExpressionNode) error
	VisitSequenceExpressionNode(*SequenceExpressionNode) error
	VisitFunctionExpressionNode(*FunctionExpressionNode) error
	VisitSpreadElementNode(*SpreadElementNode) error
	VisitBlockStatementNode(*BlockStatementNode) error
	VisitExpressionStatementNode(*ExpressionStatementNode) error
	VisitVariableDeclarationNode(*VariableDeclarationNode) error
	VisitFunctionDeclarationNode(*FunctionDeclarationNode) error
	VisitIfStatementNode(*IfStatementNode) error
	VisitForStatementNode(*ForStatementNode) error
	VisitWhileStatementNode(*WhileStatementNode) error
	VisitReturnStatementNode(*ReturnStatementNode) error
	VisitBreakStatementNode(*BreakStatementNode) error
	VisitContinueStatementNode(*ContinueStatementNode) error
	VisitTryStatementNode(*TryStatementNode) error
	VisitThrowStatementNode(*ThrowStatementNode) error
	VisitCatchClauseNode(*CatchClauseNode) error
	VisitProgramNode(*ProgramNode) error
}

// baseNode factors the Range bookkeeping every concrete node embeds,
// mirroring the teacher's `rg Range` field repeated on each node.
type baseNode struct{ rg Range }

func (n baseNode) Range() Range { return n.rg }

// ---- Literal ----

type LiteralKind uint8

const (
	LiteralNumber LiteralKind = iota
	LiteralString
	LiteralBool
	LiteralNull
	LiteralUndefined
	LiteralRegExp
)

type LiteralNode struct {
	baseNode
	Kind    LiteralKind
	Num     float64
	Str     string
	Bool    bool
	ReFlags string
}

func NewLiteralNode(kind LiteralKind, rg Range) *LiteralNode {
	return &LiteralNode{baseNode: baseNode{rg: rg}, Kind: kind}
}

func (n *LiteralNode) String() string {
	switch n.Kind {
	case LiteralNumber:
		return numberToString(n.Num)
	case LiteralString:
		return fmt.Sprintf("%q", n.Str)
	case LiteralBool:
		if n.Bool {
			return "true"
		}
		return "false"
	case LiteralNull:
		return "null"
	case LiteralUndefined:
		return "undefined"
	default:
		return "/" + n.Str + "/" + n.ReFlags
	}
}

func (n *LiteralNode) PrettyString() string          { return ppAstNode(n) }
func (n *LiteralNode) HighlightPrettyString() string { return ppAstNodeHighlighted(n) }
func (n *LiteralNode) Accept(v AstNodeVisitor) error  { return v.VisitLiteralNode(n) }

func (n *LiteralNode) Equal(o AstNode) bool {
	other, ok := o.(*LiteralNode)
	return ok && *n == *other
}

// ---- Identifier ----

type IdentifierNode struct {
	baseNode
	Name string
}

func NewIdentifierNode(name string, rg Range) *IdentifierNode {
	return &IdentifierNode{baseNode: baseNode{rg: rg}, Name: name}
}

func (n *IdentifierNode) String() string                { return n.Name }
func (n *IdentifierNode) PrettyString() string          { return ppAstNode(n) }
func (n *IdentifierNode) HighlightPrettyString() string { return ppAstNodeHighlighted(n) }
func (n *IdentifierNode) Accept(v AstNodeVisitor) error { return v.VisitIdentifierNode(n) }
func (n *IdentifierNode) Equal(o AstNode) bool {
	other, ok := o.(*IdentifierNode)
	return ok && n.Name == other.Name
}

// ---- ArrayExpression ----

// ArrayExpressionNode models an ES array literal, its Elements slice
// holding nil for elision holes so `[,,,]` (spec.md §8) is
// distinguishable from `[undefined,undefined,undefined]` (grounded on
// original_source/src/ArrayExpressionNode.h, which keeps element
// slots nullable for exactly this reason).
type ArrayExpressionNode struct {
	baseNode
	Elements []AstNode // nil entry = elision hole
}

func NewArrayExpressionNode(elements []AstNode, rg Range) *ArrayExpressionNode {
	return &ArrayExpressionNode{baseNode: baseNode{rg: rg}, Elements: elements}
}

func (n *ArrayExpressionNode) String() string {
	s := "["
	for i, e := range n.Elements {
		if i > 0 {
			s += ", "
		}
		if e != nil {
			s += e.String()
		}
	}
	return s + "]"
}

func (n *ArrayExpressionNode) PrettyString() string          { return ppAstNode(n) }
func (n *ArrayExpressionNode) HighlightPrettyString() string { return ppAstNodeHighlighted(n) }
func (n *ArrayExpressionNode) Accept(v AstNodeVisitor) error { return v.VisitArrayExpressionNode(n) }
func (n *ArrayExpressionNode) Equal(o AstNode) bool {
	other, ok := o.(*ArrayExpressionNode)
	if !ok || len(n.Elements) != len(other.Elements) {
		return false
	}
	for i, e := range n.Elements {
		oe := other.Elements[i]
		if (e == nil) != (oe == nil) {
			return false
		}
		if e != nil && !e.Equal(oe) {
			return false
		}
	}
	return true
}

// ---- ObjectExpression ----

type ObjectPropertyNode struct {
	Key      AstNode
	Computed bool
	Value    AstNode
	Kind     ObjectPropertyKind
}

type ObjectPropertyKind uint8

const (
	PropertyInit ObjectPropertyKind = iota
	PropertyGet
	PropertySet
)

type ObjectExpressionNode struct {
	baseNode
	Properties []ObjectPropertyNode
}

func NewObjectExpressionNode(props []ObjectPropertyNode, rg Range) *ObjectExpressionNode {
	return &ObjectExpressionNode{baseNode: baseNode{rg: rg}, Properties: props}
}

func (n *ObjectExpressionNode) String() string { return "{...}" }

func (n *ObjectExpressionNode) PrettyString() string          { return ppAstNode(n) }
func (n *ObjectExpressionNode) HighlightPrettyString() string { return ppAstNodeHighlighted(n) }
func (n *ObjectExpressionNode) Accept(v AstNodeVisitor) error {
	return v.VisitObjectExpressionNode(n)
}
func (n *ObjectExpressionNode) Equal(o AstNode) bool {
	_, ok := o.(*ObjectExpressionNode)
	return ok
}

// ---- Binary / Logical / Unary / Update ----

type BinaryOp uint8

const (
	BinAdd BinaryOp = iota
	BinSub
	BinMul
	BinDiv
	BinMod
	BinEq
	BinNeq
	BinStrictEq
	BinStrictNeq
	BinLt
	BinLte
	BinGt
	BinGte
	BinBitAnd
	BinBitOr
	BinBitXor
	BinShl
	BinShr
	BinUShr
	BinInstanceOf
	BinIn
)

type BinaryExpressionNode struct {
	baseNode
	Op          BinaryOp
	Left, Right AstNode
}

func NewBinaryExpressionNode(op BinaryOp, left, right AstNode, rg Range) *BinaryExpressionNode {
	return &BinaryExpressionNode{baseNode: baseNode{rg: rg}, Op: op, Left: left, Right: right}
}

func (n *BinaryExpressionNode) String() string { return n.Left.String() + " <binop> " + n.Right.String() }
func (n *BinaryExpressionNode) PrettyString() string          { return ppAstNode(n) }
func (n *BinaryExpressionNode) HighlightPrettyString() string { return ppAstNodeHighlighted(n) }
func (n *BinaryExpressionNode) Accept(v AstNodeVisitor) error {
	return v.VisitBinaryExpressionNode(n)
}
func (n *BinaryExpressionNode) Equal(o AstNode) bool {
	other, ok := o.(*BinaryExpressionNode)
	return ok && n.Op == other.Op && n.Left.Equal(other.Left) && n.Right.Equal(other.Right)
}

type LogicalOp uint8

const (
	LogicalAnd LogicalOp = iota
	LogicalOr
)

type LogicalExpressionNode struct {
	baseNode
	Op          LogicalOp
	Left, Right AstNode
}

func NewLogicalExpressionNode(op LogicalOp, left, right AstNode, rg Range) *LogicalExpressionNode {
	return &LogicalExpressionNode{baseNode: baseNode{rg: rg}, Op: op, Left: left, Right: right}
}

func (n *LogicalExpressionNode) String() string { return n.Left.String() + " <logical> " + n.Right.String() }
func (n *LogicalExpressionNode) PrettyString() string          { return ppAstNode(n) }
func (n *LogicalExpressionNode) HighlightPrettyString() string { return ppAstNodeHighlighted(n) }
func (n *LogicalExpressionNode) Accept(v AstNodeVisitor) error {
	return v.VisitLogicalExpressionNode(n)
}
func (n *LogicalExpressionNode) Equal(o AstNode) bool {
	other, ok := o.(*LogicalExpressionNode)
	return ok && n.Op == other.Op && n.Left.Equal(other.Left) && n.Right.Equal(other.Right)
}

type UnaryOp uint8

const (
	UnaryNeg UnaryOp = iota
	UnaryPlus
	UnaryNot
	UnaryBitNot
	UnaryTypeof
	UnaryVoid
	UnaryDelete
)

type UnaryExpressionNode struct {
	baseNode
	Op  UnaryOp
	Arg AstNode
}

func NewUnaryExpressionNode(op UnaryOp, arg AstNode, rg Range) *UnaryExpressionNode {
	return &UnaryExpressionNode{baseNode: baseNode{rg: rg}, Op: op, Arg: arg}
}

func (n *UnaryExpressionNode) String() string                { return "<unary> " + n.Arg.String() }
func (n *UnaryExpressionNode) PrettyString() string          { return ppAstNode(n) }
func (n *UnaryExpressionNode) HighlightPrettyString() string { return ppAstNodeHighlighted(n) }
func (n *UnaryExpressionNode) Accept(v AstNodeVisitor) error  { return v.VisitUnaryExpressionNode(n) }
func (n *UnaryExpressionNode) Equal(o AstNode) bool {
	other, ok := o.(*UnaryExpressionNode)
	return ok && n.Op == other.Op && n.Arg.Equal(other.Arg)
}

type UpdateExpressionNode struct {
	baseNode
	Increment bool
	Prefix    bool
	Arg       addressable
}

func NewUpdateExpressionNode(increment, prefix bool, arg addressable, rg Range) *UpdateExpressionNode {
	return &UpdateExpressionNode{baseNode: baseNode{rg: rg}, Increment: increment, Prefix: prefix, Arg: arg}
}

func (n *UpdateExpressionNode) String() string                { return n.Arg.String() + "<update>" }
func (n *UpdateExpressionNode) PrettyString() string          { return ppAstNode(n) }
func (n *UpdateExpressionNode) HighlightPrettyString() string { return ppAstNodeHighlighted(n) }
func (n *UpdateExpressionNode) Accept(v AstNodeVisitor) error { return v.VisitUpdateExpressionNode(n) }
func (n *UpdateExpressionNode) Equal(o AstNode) bool {
	other, ok := o.(*UpdateExpressionNode)
	return ok && n.Increment == other.Increment && n.Prefix == other.Prefix && n.Arg.Equal(other.Arg)
}

// ---- Assignment ----

type AssignmentOp uint8

const (
	AssignPlain AssignmentOp = iota
	AssignAdd
	AssignSub
	AssignMul
	AssignDiv
	AssignMod
)

type AssignmentExpressionNode struct {
	baseNode
	Op     AssignmentOp
	Target addressable
	Value  AstNode
}

func NewAssignmentExpressionNode(op AssignmentOp, target addressable, value AstNode, rg Range) *AssignmentExpressionNode {
	return &AssignmentExpressionNode{baseNode: baseNode{rg: rg}, Op: op, Target: target, Value: value}
}

func (n *AssignmentExpressionNode) String() string { return n.Target.String() + " = " + n.Value.String() }
func (n *AssignmentExpressionNode) PrettyString() string          { return ppAstNode(n) }
func (n *AssignmentExpressionNode) HighlightPrettyString() string { return ppAstNodeHighlighted(n) }
func (n *AssignmentExpressionNode) Accept(v AstNodeVisitor) error {
	return v.VisitAssignmentExpressionNode(n)
}
func (n *AssignmentExpressionNode) Equal(o AstNode) bool {
	other, ok := o.(*AssignmentExpressionNode)
	return ok && n.Op == other.Op && n.Target.Equal(other.Target) && n.Value.Equal(other.Value)
}

// ---- Conditional ----

type ConditionalExpressionNode struct {
	baseNode
	Test, Consequent, Alternate AstNode
}

func NewConditionalExpressionNode(test, cons, alt AstNode, rg Range) *ConditionalExpressionNode {
	return &ConditionalExpressionNode{baseNode: baseNode{rg: rg}, Test: test, Consequent: cons, Alternate: alt}
}

func (n *ConditionalExpressionNode) String() string {
	return n.Test.String() + " ? " + n.Consequent.String() + " : " + n.Alternate.String()
}
func (n *ConditionalExpressionNode) PrettyString() string          { return ppAstNode(n) }
func (n *ConditionalExpressionNode) HighlightPrettyString() string { return ppAstNodeHighlighted(n) }
func (n *ConditionalExpressionNode) Accept(v AstNodeVisitor) error {
	return v.VisitConditionalExpressionNode(n)
}
func (n *ConditionalExpressionNode) Equal(o AstNode) bool {
	other, ok := o.(*ConditionalExpressionNode)
	return ok && n.Test.Equal(other.Test) && n.Consequent.Equal(other.Consequent) && n.Alternate.Equal(other.Alternate)
}

// ---- Call / New / Member ----

type CallExpressionNode struct {
	baseNode
	Callee    AstNode
	Arguments []AstNode
}

func NewCallExpressionNode(callee AstNode, args []AstNode, rg Range) *CallExpressionNode {
	return &CallExpressionNode{baseNode: baseNode{rg: rg}, Callee: callee, Arguments: args}
}

func (n *CallExpressionNode) String() string { return n.Callee.String() + "(...)" }
func (n *CallExpressionNode) PrettyString() string          { return ppAstNode(n) }
func (n *CallExpressionNode) HighlightPrettyString() string { return ppAstNodeHighlighted(n) }
func (n *CallExpressionNode) Accept(v AstNodeVisitor) error { return v.VisitCallExpressionNode(n) }
func (n *CallExpressionNode) Equal(o AstNode) bool {
	other, ok := o.(*CallExpressionNode)
	if !ok || len(n.Arguments) != len(other.Arguments) || !n.Callee.Equal(other.Callee) {
		return false
	}
	for i, a := range n.Arguments {
		if !a.Equal(other.Arguments[i]) {
			return false
		}
	}
	return true
}

type NewExpressionNode struct {
	baseNode
	Callee    AstNode
	Arguments []AstNode
}

func NewNewExpressionNode(callee AstNode, args []AstNode, rg Range) *NewExpressionNode {
	return &NewExpressionNode{baseNode: baseNode{rg: rg}, Callee: callee, Arguments: args}
}

func (n *NewExpressionNode) String() string                { return "new " + n.Callee.String() + "(...)" }
func (n *NewExpressionNode) PrettyString() string          { return ppAstNode(n) }
func (n *NewExpressionNode) HighlightPrettyString() string { return ppAstNodeHighlighted(n) }
func (n *NewExpressionNode) Accept(v AstNodeVisitor) error { return v.VisitNewExpressionNode(n) }
func (n *NewExpressionNode) Equal(o AstNode) bool {
	other, ok := o.(*NewExpressionNode)
	return ok && n.Callee.Equal(other.Callee)
}

type MemberExpressionNode struct {
	baseNode
	Object   AstNode
	Property AstNode // IdentifierNode when !Computed, any expression when Computed
	Computed bool
}

func NewMemberExpressionNode(object, property AstNode, computed bool, rg Range) *MemberExpressionNode {
	return &MemberExpressionNode{baseNode: baseNode{rg: rg}, Object: object, Property: property, Computed: computed}
}

func (n *MemberExpressionNode) String() string {
	if n.Computed {
		return n.Object.String() + "[" + n.Property.String() + "]"
	}
	return n.Object.String() + "." + n.Property.String()
}
func (n *MemberExpressionNode) PrettyString() string          { return ppAstNode(n) }
func (n *MemberExpressionNode) HighlightPrettyString() string { return ppAstNodeHighlighted(n) }
func (n *MemberExpressionNode) Accept(v AstNodeVisitor) error { return v.VisitMemberExpressionNode(n) }
func (n *MemberExpressionNode) Equal(o AstNode) bool {
	other, ok := o.(*MemberExpressionNode)
	return ok && n.Computed == other.Computed && n.Object.Equal(other.Object) && n.Property.Equal(other.Property)
}

// ---- Sequence ----

type SequenceExpressionNode struct {
	baseNode
	Expressions []AstNode
}

func NewSequenceExpressionNode(exprs []AstNode, rg Range) *SequenceExpressionNode {
	return &SequenceExpressionNode{baseNode: baseNode{rg: rg}, Expressions: exprs}
}

func (n *SequenceExpressionNode) String() string { return "(...)" }
func (n *SequenceExpressionNode) PrettyString() string          { return ppAstNode(n) }
func (n *SequenceExpressionNode) HighlightPrettyString() string { return ppAstNodeHighlighted(n) }
func (n *SequenceExpressionNode) Accept(v AstNodeVisitor) error {
	return v.VisitSequenceExpressionNode(n)
}
func (n *SequenceExpressionNode) Equal(o AstNode) bool {
	_, ok := o.(*SequenceExpressionNode)
	return ok
}

// ---- Function ----

type FunctionExpressionNode struct {
	baseNode
	Name   string
	Params []string
	Body   *BlockStatementNode
	Scope  *ScopeContext
}

func NewFunctionExpressionNode(name string, params []string, body *BlockStatementNode, rg Range) *FunctionExpressionNode {
	return &FunctionExpressionNode{baseNode: baseNode{rg: rg}, Name: name, Params: params, Body: body}
}

func (n *FunctionExpressionNode) String() string { return "function " + n.Name + "(...) {...}" }
func (n *FunctionExpressionNode) PrettyString() string          { return ppAstNode(n) }
func (n *FunctionExpressionNode) HighlightPrettyString() string { return ppAstNodeHighlighted(n) }
func (n *FunctionExpressionNode) Accept(v AstNodeVisitor) error {
	return v.VisitFunctionExpressionNode(n)
}
func (n *FunctionExpressionNode) Equal(o AstNode) bool {
	other, ok := o.(*FunctionExpressionNode)
	return ok && n.Name == other.Name
}

type FunctionDeclarationNode struct {
	baseNode
	Fn *FunctionExpressionNode
}

func NewFunctionDeclarationNode(fn *FunctionExpressionNode, rg Range) *FunctionDeclarationNode {
	return &FunctionDeclarationNode{baseNode: baseNode{rg: rg}, Fn: fn}
}

func (n *FunctionDeclarationNode) String() string                { return n.Fn.String() }
func (n *FunctionDeclarationNode) PrettyString() string          { return ppAstNode(n) }
func (n *FunctionDeclarationNode) HighlightPrettyString() string { return ppAstNodeHighlighted(n) }
func (n *FunctionDeclarationNode) Accept(v AstNodeVisitor) error {
	return v.VisitFunctionDeclarationNode(n)
}
func (n *FunctionDeclarationNode) Equal(o AstNode) bool {
	other, ok := o.(*FunctionDeclarationNode)
	return ok && n.Fn.Equal(other.Fn)
}

// ---- Spread ----

type SpreadElementNode struct {
	baseNode
	Arg AstNode
}

func NewSpreadElementNode(arg AstNode, rg Range) *SpreadElementNode {
	return &SpreadElementNode{baseNode: baseNode{rg: rg}, Arg: arg}
}

func (n *SpreadElementNode) String() string                { return "..." + n.Arg.String() }
func (n *SpreadElementNode) PrettyString() string          { return ppAstNode(n) }
func (n *SpreadElementNode) HighlightPrettyString() string { return ppAstNodeHighlighted(n) }
func (n *SpreadElementNode) Accept(v AstNodeVisitor) error { return v.VisitSpreadElementNode(n) }
func (n *SpreadElementNode) Equal(o AstNode) bool {
	other, ok := o.(*SpreadElementNode)
	return ok && n.Arg.Equal(other.Arg)
}

// ---- Statements ----

type BlockStatementNode struct {
	baseNode
	Body []AstNode
}

func NewBlockStatementNode(body []AstNode, rg Range) *BlockStatementNode {
	return &BlockStatementNode{baseNode: baseNode{rg: rg}, Body: body}
}

func (n *BlockStatementNode) String() string                { return "{...}" }
func (n *BlockStatementNode) PrettyString() string          { return ppAstNode(n) }
func (n *BlockStatementNode) HighlightPrettyString() string { return ppAstNodeHighlighted(n) }
func (n *BlockStatementNode) Accept(v AstNodeVisitor) error { return v.VisitBlockStatementNode(n) }
func (n *BlockStatementNode) Equal(o AstNode) bool {
	_, ok := o.(*BlockStatementNode)
	return ok
}

type ExpressionStatementNode struct {
	baseNode
	Expr AstNode
}

func NewExpressionStatementNode(expr AstNode, rg Range) *ExpressionStatementNode {
	return &ExpressionStatementNode{baseNode: baseNode{rg: rg}, Expr: expr}
}

func (n *ExpressionStatementNode) String() string                { return n.Expr.String() + ";" }
func (n *ExpressionStatementNode) PrettyString() string          { return ppAstNode(n) }
func (n *ExpressionStatementNode) HighlightPrettyString() string { return ppAstNodeHighlighted(n) }
func (n *ExpressionStatementNode) Accept(v AstNodeVisitor) error {
	return v.VisitExpressionStatementNode(n)
}
func (n *ExpressionStatementNode) Equal(o AstNode) bool {
	other, ok := o.(*ExpressionStatementNode)
	return ok && n.Expr.Equal(other.Expr)
}

type VariableDeclaratorNode struct {
	Name addressable
	Init AstNode // nil when uninitialized
}

type VariableDeclarationNode struct {
	baseNode
	Kind         string // "var", "let", "const"
	Declarations []VariableDeclaratorNode
}

func NewVariableDeclarationNode(kind string, decls []VariableDeclaratorNode, rg Range) *VariableDeclarationNode {
	return &VariableDeclarationNode{baseNode: baseNode{rg: rg}, Kind: kind, Declarations: decls}
}

func (n *VariableDeclarationNode) String() string { return n.Kind + " ...;" }
func (n *VariableDeclarationNode) PrettyString() string          { return ppAstNode(n) }
func (n *VariableDeclarationNode) HighlightPrettyString() string { return ppAstNodeHighlighted(n) }
func (n *VariableDeclarationNode) Accept(v AstNodeVisitor) error {
	return v.VisitVariableDeclarationNode(n)
}
func (n *VariableDeclarationNode) Equal(o AstNode) bool {
	other, ok := o.(*VariableDeclarationNode)
	return ok && n.Kind == other.Kind
}

type IfStatementNode struct {
	baseNode
	Test                  AstNode
	Consequent, Alternate AstNode // Alternate nil when no else
}

func NewIfStatementNode(test, cons, alt AstNode, rg Range) *IfStatementNode {
	return &IfStatementNode{baseNode: baseNode{rg: rg}, Test: test, Consequent: cons, Alternate: alt}
}

func (n *IfStatementNode) String() string                { return "if (...) {...}" }
func (n *IfStatementNode) PrettyString() string          { return ppAstNode(n) }
func (n *IfStatementNode) HighlightPrettyString() string { return ppAstNodeHighlighted(n) }
func (n *IfStatementNode) Accept(v AstNodeVisitor) error { return v.VisitIfStatementNode(n) }
func (n *IfStatementNode) Equal(o AstNode) bool {
	_, ok := o.(*IfStatementNode)
	return ok
}

type ForStatementNode struct {
	baseNode
	Init, Test, Update AstNode // any may be nil
	Body               AstNode
}

func NewForStatementNode(init, test, update, body AstNode, rg Range) *ForStatementNode {
	return &ForStatementNode{baseNode: baseNode{rg: rg}, Init: init, Test: test, Update: update, Body: body}
}

func (n *ForStatementNode) String() string                { return "for (...) {...}" }
func (n *ForStatementNode) PrettyString() string          { return ppAstNode(n) }
func (n *ForStatementNode) HighlightPrettyString() string { return ppAstNodeHighlighted(n) }
func (n *ForStatementNode) Accept(v AstNodeVisitor) error { return v.VisitForStatementNode(n) }
func (n *ForStatementNode) Equal(o AstNode) bool {
	_, ok := o.(*ForStatementNode)
	return ok
}

type WhileStatementNode struct {
	baseNode
	Test AstNode
	Body AstNode
	// DoWhile marks a do-while loop, whose test runs after the first
	// body execution rather than before it.
	DoWhile bool
}

func NewWhileStatementNode(test, body AstNode, doWhile bool, rg Range) *WhileStatementNode {
	return &WhileStatementNode{baseNode: baseNode{rg: rg}, Test: test, Body: body, DoWhile: doWhile}
}

func (n *WhileStatementNode) String() string                { return "while (...) {...}" }
func (n *WhileStatementNode) PrettyString() string          { return ppAstNode(n) }
func (n *WhileStatementNode) HighlightPrettyString() string { return ppAstNodeHighlighted(n) }
func (n *WhileStatementNode) Accept(v AstNodeVisitor) error { return v.VisitWhileStatementNode(n) }
func (n *WhileStatementNode) Equal(o AstNode) bool {
	_, ok := o.(*WhileStatementNode)
	return ok
}

type ReturnStatementNode struct {
	baseNode
	Arg AstNode // nil for bare `return;`
}

func NewReturnStatementNode(arg AstNode, rg Range) *ReturnStatementNode {
	return &ReturnStatementNode{baseNode: baseNode{rg: rg}, Arg: arg}
}

func (n *ReturnStatementNode) String() string                { return "return ...;" }
func (n *ReturnStatementNode) PrettyString() string          { return ppAstNode(n) }
func (n *ReturnStatementNode) HighlightPrettyString() string { return ppAstNodeHighlighted(n) }
func (n *ReturnStatementNode) Accept(v AstNodeVisitor) error { return v.VisitReturnStatementNode(n) }
func (n *ReturnStatementNode) Equal(o AstNode) bool {
	_, ok := o.(*ReturnStatementNode)
	return ok
}

type BreakStatementNode struct {
	baseNode
	Label string
}

func NewBreakStatementNode(label string, rg Range) *BreakStatementNode {
	return &BreakStatementNode{baseNode: baseNode{rg: rg}, Label: label}
}

func (n *BreakStatementNode) String() string                { return "break;" }
func (n *BreakStatementNode) PrettyString() string          { return ppAstNode(n) }
func (n *BreakStatementNode) HighlightPrettyString() string { return ppAstNodeHighlighted(n) }
func (n *BreakStatementNode) Accept(v AstNodeVisitor) error { return v.VisitBreakStatementNode(n) }
func (n *BreakStatementNode) Equal(o AstNode) bool {
	other, ok := o.(*BreakStatementNode)
	return ok && n.Label == other.Label
}

type ContinueStatementNode struct {
	baseNode
	Label string
}

func NewContinueStatementNode(label string, rg Range) *ContinueStatementNode {
	return &ContinueStatementNode{baseNode: baseNode{rg: rg}, Label: label}
}

func (n *ContinueStatementNode) String() string                { return "continue;" }
func (n *ContinueStatementNode) PrettyString() string          { return ppAstNode(n) }
func (n *ContinueStatementNode) HighlightPrettyString() string { return ppAstNodeHighlighted(n) }
func (n *ContinueStatementNode) Accept(v AstNodeVisitor) error {
	return v.VisitContinueStatementNode(n)
}
func (n *ContinueStatementNode) Equal(o AstNode) bool {
	other, ok := o.(*ContinueStatementNode)
	return ok && n.Label == other.Label
}

type CatchClauseNode struct {
	baseNode
	Param addressable // nil for parameterless catch
	Body  *BlockStatementNode
}

func NewCatchClauseNode(param addressable, body *BlockStatementNode, rg Range) *CatchClauseNode {
	return &CatchClauseNode{baseNode: baseNode{rg: rg}, Param: param, Body: body}
}

func (n *CatchClauseNode) String() string                { return "catch (...) {...}" }
func (n *CatchClauseNode) PrettyString() string          { return ppAstNode(n) }
func (n *CatchClauseNode) HighlightPrettyString() string { return ppAstNodeHighlighted(n) }
func (n *CatchClauseNode) Accept(v AstNodeVisitor) error { return v.VisitCatchClauseNode(n) }
func (n *CatchClauseNode) Equal(o AstNode) bool {
	_, ok := o.(*CatchClauseNode)
	return ok
}

type TryStatementNode struct {
	baseNode
	Block   *BlockStatementNode
	Handler *CatchClauseNode   // nil if no catch
	Finally *BlockStatementNode // nil if no finally
}

func NewTryStatementNode(block *BlockStatementNode, handler *CatchClauseNode, finally *BlockStatementNode, rg Range) *TryStatementNode {
	return &TryStatementNode{baseNode: baseNode{rg: rg}, Block: block, Handler: handler, Finally: finally}
}

func (n *TryStatementNode) String() string                { return "try {...}" }
func (n *TryStatementNode) PrettyString() string          { return ppAstNode(n) }
func (n *TryStatementNode) HighlightPrettyString() string { return ppAstNodeHighlighted(n) }
func (n *TryStatementNode) Accept(v AstNodeVisitor) error { return v.VisitTryStatementNode(n) }
func (n *TryStatementNode) Equal(o AstNode) bool {
	_, ok := o.(*TryStatementNode)
	return ok
}

type ThrowStatementNode struct {
	baseNode
	Arg AstNode
}

func NewThrowStatementNode(arg AstNode, rg Range) *ThrowStatementNode {
	return &ThrowStatementNode{baseNode: baseNode{rg: rg}, Arg: arg}
}

func (n *ThrowStatementNode) String() string                { return "throw ...;" }
func (n *ThrowStatementNode) PrettyString() string          { return ppAstNode(n) }
func (n *ThrowStatementNode) HighlightPrettyString() string { return ppAstNodeHighlighted(n) }
func (n *ThrowStatementNode) Accept(v AstNodeVisitor) error { return v.VisitThrowStatementNode(n) }
func (n *ThrowStatementNode) Equal(o AstNode) bool {
	_, ok := o.(*ThrowStatementNode)
	return ok
}

// ---- Program (root) ----

type ProgramNode struct {
	baseNode
	Body  []AstNode
	Scope *ScopeContext
}

func NewProgramNode(body []AstNode, rg Range) *ProgramNode {
	return &ProgramNode{baseNode: baseNode{rg: rg}, Body: body}
}

func (n *ProgramNode) String() string                { return nodesString(n.Body, "\n") }
func (n *ProgramNode) PrettyString() string          { return ppAstNode(n) }
func (n *ProgramNode) HighlightPrettyString() string { return ppAstNodeHighlighted(n) }
func (n *ProgramNode) Accept(v AstNodeVisitor) error { return v.VisitProgramNode(n) }
func (n *ProgramNode) Equal(o AstNode) bool {
	_, ok := o.(*ProgramNode)
	return ok
}

// ---- helpers ----

type asString interface{ String() string }

func nodesString[T asString](items []T, sep string) string {
	s := ""
	for i, item := range items {
		if i > 0 {
			s += sep
		}
		s += item.String()
	}
	return s
}
