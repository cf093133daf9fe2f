package vela

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompileToBytecodeDump(t *testing.T) {
	ctx := NewContext(nil)
	block, err := ctx.CompileToBytecode(`
		function add(a, b) { return a + b; }
		add(1, 2);
	`)
	require.Nil(t, err)
	dump := block.Dump()
	require.Contains(t, dump, "add(params=2")
	require.Contains(t, dump, "Return")
}

func TestCompileToBytecodeSyntaxError(t *testing.T) {
	ctx := NewContext(nil)
	_, err := ctx.CompileToBytecode(`var x = ;`)
	require.NotNil(t, err)
}

func TestBytecodeDumpNestedClosure(t *testing.T) {
	ctx := NewContext(nil)
	block, err := ctx.CompileToBytecode(`
		function outer() {
			return function inner() { return 1; };
		}
	`)
	require.Nil(t, err)
	dump := block.Dump()
	require.True(t, strings.Contains(dump, "outer") && strings.Contains(dump, "inner"))
}
