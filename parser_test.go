package vela

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func parseOne(t *testing.T, src string) AstNode {
	t.Helper()
	prog, err := ParseProgram(src)
	require.NoError(t, err)
	require.Len(t, prog.Body, 1)
	return prog.Body[0]
}

func TestParseVariableDeclaration(t *testing.T) {
	stmt := parseOne(t, "var x = 1 + 2;")
	decl, ok := stmt.(*VariableDeclarationNode)
	require.True(t, ok)
	require.Equal(t, "var", decl.Kind)
	require.Len(t, decl.Declarations, 1)
	bin, ok := decl.Declarations[0].Init.(*BinaryExpressionNode)
	require.True(t, ok)
	require.Equal(t, BinAdd, bin.Op)
}

func TestParseFunctionDeclaration(t *testing.T) {
	stmt := parseOne(t, "function add(a, b) { return a + b; }")
	decl, ok := stmt.(*FunctionDeclarationNode)
	require.True(t, ok)
	require.Equal(t, "add", decl.Fn.Name)
	require.Equal(t, []string{"a", "b"}, decl.Fn.Params)
	require.Len(t, decl.Fn.Body.Body, 1)
}

func TestParseIfElse(t *testing.T) {
	stmt := parseOne(t, "if (x) { y(); } else { z(); }")
	ifs, ok := stmt.(*IfStatementNode)
	require.True(t, ok)
	require.NotNil(t, ifs.Alternate)
}

func TestParseForLoop(t *testing.T) {
	stmt := parseOne(t, "for (var i = 0; i < 10; i++) { sum += i; }")
	forS, ok := stmt.(*ForStatementNode)
	require.True(t, ok)
	require.NotNil(t, forS.Init)
	require.NotNil(t, forS.Test)
	require.NotNil(t, forS.Update)
}

func TestParseForInClauseSuppressesIn(t *testing.T) {
	// The NoIn grammar variant means `in` inside a for-init is not a
	// relational operator; this parser only implements the C-style
	// for loop, so `in` here must be rejected as a statement form it
	// doesn't support rather than silently misparsed.
	_, err := ParseProgram("for (var k in obj) {}")
	require.Error(t, err)
}

func TestParseMemberAndCallChain(t *testing.T) {
	stmt := parseOne(t, "a.b[c](1, 2);")
	exprStmt, ok := stmt.(*ExpressionStatementNode)
	require.True(t, ok)
	call, ok := exprStmt.Expr.(*CallExpressionNode)
	require.True(t, ok)
	require.Len(t, call.Arguments, 2)
	member, ok := call.Callee.(*MemberExpressionNode)
	require.True(t, ok)
	require.True(t, member.Computed)
}

func TestParseNewExpressionNoArgs(t *testing.T) {
	stmt := parseOne(t, "new Foo;")
	exprStmt, ok := stmt.(*ExpressionStatementNode)
	require.True(t, ok)
	newExpr, ok := exprStmt.Expr.(*NewExpressionNode)
	require.True(t, ok)
	require.Empty(t, newExpr.Arguments)
}

func TestParseArrayLiteralWithHolesAndSpread(t *testing.T) {
	stmt := parseOne(t, "var a = [1, , ...b];")
	decl := stmt.(*VariableDeclarationNode)
	arr := decl.Declarations[0].Init.(*ArrayExpressionNode)
	require.Len(t, arr.Elements, 3)
	require.Nil(t, arr.Elements[1])
	_, ok := arr.Elements[2].(*SpreadElementNode)
	require.True(t, ok)
}

func TestParseObjectLiteralGetterSetter(t *testing.T) {
	stmt := parseOne(t, "var o = { get x() { return 1; }, set x(v) { this.v = v; }, plain: 2 };")
	decl := stmt.(*VariableDeclarationNode)
	obj := decl.Declarations[0].Init.(*ObjectExpressionNode)
	require.Len(t, obj.Properties, 3)
	require.Equal(t, PropertyGet, obj.Properties[0].Kind)
	require.Equal(t, PropertySet, obj.Properties[1].Kind)
	require.Equal(t, PropertyInit, obj.Properties[2].Kind)
}

func TestParseRegexLiteral(t *testing.T) {
	stmt := parseOne(t, "var r = /a(b)c/gi;")
	decl := stmt.(*VariableDeclarationNode)
	lit := decl.Declarations[0].Init.(*LiteralNode)
	require.Equal(t, LiteralRegExp, lit.Kind)
	require.Equal(t, "a(b)c", lit.Str)
	require.Equal(t, "gi", lit.ReFlags)
}

func TestParseAutomaticSemicolonInsertion(t *testing.T) {
	prog, err := ParseProgram("var a = 1\nvar b = 2\n")
	require.NoError(t, err)
	require.Len(t, prog.Body, 2)
}

func TestParseInvalidAssignmentTarget(t *testing.T) {
	_, err := ParseProgram("1 = 2;")
	require.Error(t, err)
}

func TestParseTryCatchFinally(t *testing.T) {
	stmt := parseOne(t, "try { a(); } catch (e) { b(); } finally { c(); }")
	tryS, ok := stmt.(*TryStatementNode)
	require.True(t, ok)
	require.NotNil(t, tryS.Handler)
	require.NotNil(t, tryS.Finally)
	require.Equal(t, "e", tryS.Handler.Param.String())
}
