package vela

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func evalOK(t *testing.T, src string) any {
	t.Helper()
	ctx := NewContext(nil)
	v, err := ctx.Evaluate(src)
	require.Nil(t, err, "eval error: %v", err)
	return ctx.ToHostValue(v)
}

func TestEvaluateArithmetic(t *testing.T) {
	require.Equal(t, 7.0, evalOK(t, "3 + 4;"))
	require.Equal(t, 2.0, evalOK(t, "10 % 4;"))
	require.Equal(t, 6.0, evalOK(t, "2 * 3;"))
}

func TestEvaluateStringConcat(t *testing.T) {
	require.Equal(t, "ab", evalOK(t, `"a" + "b";`))
	require.Equal(t, "a1", evalOK(t, `"a" + 1;`))
}

func TestEvaluateClosureCounter(t *testing.T) {
	got := evalOK(t, `
		function makeCounter() {
			var n = 0;
			return function() { n = n + 1; return n; };
		}
		var c = makeCounter();
		c();
		c();
		c();
	`)
	require.Equal(t, 3.0, got)
}

func TestEvaluateRecursiveFunction(t *testing.T) {
	got := evalOK(t, `
		function fib(n) {
			if (n < 2) return n;
			return fib(n - 1) + fib(n - 2);
		}
		fib(10);
	`)
	require.Equal(t, 55.0, got)
}

func TestEvaluateLoopAccumulation(t *testing.T) {
	got := evalOK(t, `
		var sum = 0;
		for (var i = 0; i < 5; i++) { sum += i; }
		sum;
	`)
	require.Equal(t, 10.0, got)
}

func TestEvaluateArrayLiteralAndLength(t *testing.T) {
	got := evalOK(t, `[1, 2, 3].length;`)
	require.Equal(t, 3.0, got)
}

func TestEvaluateObjectPropertyAccess(t *testing.T) {
	got := evalOK(t, `var o = { a: 1, b: 2 }; o.a + o["b"];`)
	require.Equal(t, 3.0, got)
}

func TestEvaluateTryCatchRecoversThrow(t *testing.T) {
	got := evalOK(t, `
		var result;
		try {
			throw "boom";
		} catch (e) {
			result = "caught:" + e;
		}
		result;
	`)
	require.Equal(t, "caught:boom", got)
}

func TestEvaluateTypeErrorOnCallingNonFunction(t *testing.T) {
	ctx := NewContext(nil)
	_, err := ctx.Evaluate(`var x = 1; x();`)
	require.NotNil(t, err)
}

func TestEvaluateHoistingOfVarDeclarations(t *testing.T) {
	got := evalOK(t, `
		function f() {
			if (false) {
				var hoisted = 1;
			}
			return typeof hoisted;
		}
		f();
	`)
	require.Equal(t, "undefined", got)
}

func TestEvaluateRegexExecAdvancesLastIndex(t *testing.T) {
	ctx := NewContext(nil)
	v, err := ctx.Evaluate(`
		var re = /a(b)c/g;
		re.exec("abcabc");
		re.lastIndex;
	`)
	require.Nil(t, err)
	require.Equal(t, 3.0, ctx.ToHostValue(v))
}

func TestEvaluateDuplicateRegexFlagIsSyntaxError(t *testing.T) {
	ctx := NewContext(nil)
	_, err := ctx.Evaluate(`var re = /a/gg;`)
	require.NotNil(t, err)
}
