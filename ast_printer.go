package vela

import (
	"fmt"

	"github.com/vela-js/vela/ascii"
	"github.com/xlab/treeprint"
)

// ppAstNode renders n as an indented tree, one line per node, using
// the same double-dispatch Accept/Visitor pattern the teacher's
// grammar_ast_printer.go walks a grammar with -- generalized from a
// hand-rolled box-drawing writer to treeprint's AddBranch/AddNode
// builder (see DESIGN.md).
func ppAstNode(n AstNode) string {
	root := treeprint.New()
	p := &astPrinter{}
	p.render(root, n)
	return root.String()
}

// ppAstNodeHighlighted renders n the same way but colors each label by
// syntactic role (literal, operator, identifier) using the teacher's
// ascii.DefaultTheme, the terminal-output counterpart of the plain
// PrettyString rendering above.
func ppAstNodeHighlighted(n AstNode) string {
	root := treeprint.New()
	p := &astPrinter{highlight: true}
	p.render(root, n)
	return root.String()
}

type astPrinter struct {
	highlight bool
}

func (p *astPrinter) literal(s string) string {
	if !p.highlight {
		return s
	}
	return ascii.Color(ascii.DefaultTheme.Literal, "%s", s)
}

func (p *astPrinter) operator(s string) string {
	if !p.highlight {
		return s
	}
	return ascii.Color(ascii.DefaultTheme.Operator, "%s", s)
}

func (p *astPrinter) operand(s string) string {
	if !p.highlight {
		return s
	}
	return ascii.Color(ascii.DefaultTheme.Operand, "%s", s)
}

// render walks n and adds it (and its children) under parent. A node
// with no useful child structure is rendered as a single leaf line
// built from its String(); control-flow and list-bearing nodes recurse
// into a child branch per sub-node.
func (p *astPrinter) render(parent treeprint.Tree, n AstNode) {
	v := &printVisitor{p: p, parent: parent}
	if err := n.Accept(v); err != nil {
		parent.AddNode(fmt.Sprintf("<error: %v>", err))
	}
}

type printVisitor struct {
	p      *astPrinter
	parent treeprint.Tree
}

func (v *printVisitor) branch(label string) treeprint.Tree {
	return v.parent.AddBranch(label)
}

func (v *printVisitor) leaf(label string) {
	v.parent.AddNode(label)
}

func (v *printVisitor) VisitLiteralNode(n *LiteralNode) error {
	v.leaf(fmt.Sprintf("Literal[%s]", v.p.literal(n.String())))
	return nil
}

func (v *printVisitor) VisitIdentifierNode(n *IdentifierNode) error {
	v.leaf(fmt.Sprintf("Identifier[%s]", v.p.operand(n.Name)))
	return nil
}

func (v *printVisitor) VisitArrayExpressionNode(n *ArrayExpressionNode) error {
	b := v.branch("Array")
	for _, el := range n.Elements {
		if el == nil {
			b.AddNode("<hole>")
			continue
		}
		v.p.render(b, el)
	}
	return nil
}

func (v *printVisitor) VisitObjectExpressionNode(n *ObjectExpressionNode) error {
	b := v.branch("Object")
	for _, prop := range n.Properties {
		pb := b.AddBranch(fmt.Sprintf("Property[%s]", prop.Key.String()))
		v.p.render(pb, prop.Value)
	}
	return nil
}

func (v *printVisitor) VisitBinaryExpressionNode(n *BinaryExpressionNode) error {
	b := v.branch(fmt.Sprintf("Binary[%s]", v.p.operator(binaryOpName(n.Op))))
	v.p.render(b, n.Left)
	v.p.render(b, n.Right)
	return nil
}

func (v *printVisitor) VisitLogicalExpressionNode(n *LogicalExpressionNode) error {
	name := "&&"
	if n.Op == LogicalOr {
		name = "||"
	}
	b := v.branch(fmt.Sprintf("Logical[%s]", v.p.operator(name)))
	v.p.render(b, n.Left)
	v.p.render(b, n.Right)
	return nil
}

func (v *printVisitor) VisitUnaryExpressionNode(n *UnaryExpressionNode) error {
	b := v.branch(fmt.Sprintf("Unary[%s]", v.p.operator(unaryOpName(n.Op))))
	v.p.render(b, n.Arg)
	return nil
}

func (v *printVisitor) VisitUpdateExpressionNode(n *UpdateExpressionNode) error {
	op := "++"
	if !n.Increment {
		op = "--"
	}
	b := v.branch(fmt.Sprintf("Update[%s,prefix=%v]", op, n.Prefix))
	v.p.render(b, n.Arg)
	return nil
}

func (v *printVisitor) VisitAssignmentExpressionNode(n *AssignmentExpressionNode) error {
	b := v.branch(fmt.Sprintf("Assign[%s]", v.p.operator(assignOpName(n.Op))))
	v.p.render(b, n.Target)
	v.p.render(b, n.Value)
	return nil
}

func (v *printVisitor) VisitConditionalExpressionNode(n *ConditionalExpressionNode) error {
	b := v.branch("Conditional")
	v.p.render(b.AddBranch("test"), n.Test)
	v.p.render(b.AddBranch("consequent"), n.Consequent)
	v.p.render(b.AddBranch("alternate"), n.Alternate)
	return nil
}

func (v *printVisitor) VisitCallExpressionNode(n *CallExpressionNode) error {
	b := v.branch("Call")
	v.p.render(b.AddBranch("callee"), n.Callee)
	args := b.AddBranch("arguments")
	for _, a := range n.Arguments {
		v.p.render(args, a)
	}
	return nil
}

func (v *printVisitor) VisitNewExpressionNode(n *NewExpressionNode) error {
	b := v.branch("New")
	v.p.render(b.AddBranch("callee"), n.Callee)
	args := b.AddBranch("arguments")
	for _, a := range n.Arguments {
		v.p.render(args, a)
	}
	return nil
}

func (v *printVisitor) VisitMemberExpressionNode(n *MemberExpressionNode) error {
	label := "Member"
	if n.Computed {
		label = "Member[computed]"
	}
	b := v.branch(label)
	v.p.render(b.AddBranch("object"), n.Object)
	v.p.render(b.AddBranch("property"), n.Property)
	return nil
}

func (v *printVisitor) VisitSequenceExpressionNode(n *SequenceExpressionNode) error {
	b := v.branch("Sequence")
	for _, e := range n.Expressions {
		v.p.render(b, e)
	}
	return nil
}

func (v *printVisitor) VisitFunctionExpressionNode(n *FunctionExpressionNode) error {
	b := v.branch(fmt.Sprintf("Function[%s(%s)]", n.Name, nodesString(stringsAsNodes(n.Params), ", ")))
	v.p.render(b, n.Body)
	return nil
}

func (v *printVisitor) VisitSpreadElementNode(n *SpreadElementNode) error {
	b := v.branch("Spread")
	v.p.render(b, n.Arg)
	return nil
}

func (v *printVisitor) VisitBlockStatementNode(n *BlockStatementNode) error {
	b := v.branch("Block")
	for _, stmt := range n.Body {
		v.p.render(b, stmt)
	}
	return nil
}

func (v *printVisitor) VisitExpressionStatementNode(n *ExpressionStatementNode) error {
	b := v.branch("ExpressionStatement")
	v.p.render(b, n.Expr)
	return nil
}

func (v *printVisitor) VisitVariableDeclarationNode(n *VariableDeclarationNode) error {
	b := v.branch(fmt.Sprintf("VariableDeclaration[%s]", n.Kind))
	for _, d := range n.Declarations {
		db := b.AddBranch(d.Name.String())
		if d.Init != nil {
			v.p.render(db, d.Init)
		}
	}
	return nil
}

func (v *printVisitor) VisitFunctionDeclarationNode(n *FunctionDeclarationNode) error {
	return v.VisitFunctionExpressionNode(n.Fn)
}

func (v *printVisitor) VisitIfStatementNode(n *IfStatementNode) error {
	b := v.branch("If")
	v.p.render(b.AddBranch("test"), n.Test)
	v.p.render(b.AddBranch("consequent"), n.Consequent)
	if n.Alternate != nil {
		v.p.render(b.AddBranch("alternate"), n.Alternate)
	}
	return nil
}

func (v *printVisitor) VisitForStatementNode(n *ForStatementNode) error {
	b := v.branch("For")
	if n.Init != nil {
		v.p.render(b.AddBranch("init"), n.Init)
	}
	if n.Test != nil {
		v.p.render(b.AddBranch("test"), n.Test)
	}
	if n.Update != nil {
		v.p.render(b.AddBranch("update"), n.Update)
	}
	v.p.render(b.AddBranch("body"), n.Body)
	return nil
}

func (v *printVisitor) VisitWhileStatementNode(n *WhileStatementNode) error {
	label := "While"
	if n.DoWhile {
		label = "DoWhile"
	}
	b := v.branch(label)
	v.p.render(b.AddBranch("test"), n.Test)
	v.p.render(b.AddBranch("body"), n.Body)
	return nil
}

func (v *printVisitor) VisitReturnStatementNode(n *ReturnStatementNode) error {
	if n.Arg == nil {
		v.leaf("Return")
		return nil
	}
	b := v.branch("Return")
	v.p.render(b, n.Arg)
	return nil
}

func (v *printVisitor) VisitBreakStatementNode(n *BreakStatementNode) error {
	v.leaf(fmt.Sprintf("Break[%s]", n.Label))
	return nil
}

func (v *printVisitor) VisitContinueStatementNode(n *ContinueStatementNode) error {
	v.leaf(fmt.Sprintf("Continue[%s]", n.Label))
	return nil
}

func (v *printVisitor) VisitTryStatementNode(n *TryStatementNode) error {
	b := v.branch("Try")
	v.p.render(b.AddBranch("block"), n.Block)
	if n.Handler != nil {
		v.p.render(b.AddBranch("handler"), n.Handler)
	}
	if n.Finally != nil {
		v.p.render(b.AddBranch("finally"), n.Finally)
	}
	return nil
}

func (v *printVisitor) VisitThrowStatementNode(n *ThrowStatementNode) error {
	b := v.branch("Throw")
	v.p.render(b, n.Arg)
	return nil
}

func (v *printVisitor) VisitCatchClauseNode(n *CatchClauseNode) error {
	label := "Catch"
	if n.Param != nil {
		label = fmt.Sprintf("Catch[%s]", n.Param.String())
	}
	b := v.branch(label)
	v.p.render(b, n.Body)
	return nil
}

func (v *printVisitor) VisitProgramNode(n *ProgramNode) error {
	b := v.branch("Program")
	for _, stmt := range n.Body {
		v.p.render(b, stmt)
	}
	return nil
}

func binaryOpName(op BinaryOp) string {
	names := map[BinaryOp]string{
		BinAdd: "+", BinSub: "-", BinMul: "*", BinDiv: "/", BinMod: "%",
		BinEq: "==", BinNeq: "!=", BinStrictEq: "===", BinStrictNeq: "!==",
		BinLt: "<", BinLte: "<=", BinGt: ">", BinGte: ">=",
		BinBitAnd: "&", BinBitOr: "|", BinBitXor: "^",
		BinShl: "<<", BinShr: ">>", BinUShr: ">>>",
		BinInstanceOf: "instanceof", BinIn: "in",
	}
	if s, ok := names[op]; ok {
		return s
	}
	return "?"
}

func unaryOpName(op UnaryOp) string {
	names := map[UnaryOp]string{
		UnaryNeg: "-", UnaryPlus: "+", UnaryNot: "!", UnaryBitNot: "~",
		UnaryTypeof: "typeof", UnaryVoid: "void", UnaryDelete: "delete",
	}
	if s, ok := names[op]; ok {
		return s
	}
	return "?"
}

func assignOpName(op AssignmentOp) string {
	names := map[AssignmentOp]string{
		AssignPlain: "=", AssignAdd: "+=", AssignSub: "-=",
		AssignMul: "*=", AssignDiv: "/=", AssignMod: "%=",
	}
	if s, ok := names[op]; ok {
		return s
	}
	return "?"
}

// stringsAsNodes adapts a []string (function parameter names) to the
// asString-constrained generic nodesString helper already defined in
// ast.go.
func stringsAsNodes(names []string) []paramName {
	out := make([]paramName, len(names))
	for i, n := range names {
		out[i] = paramName(n)
	}
	return out
}

type paramName string

func (p paramName) String() string { return string(p) }
