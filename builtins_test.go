package vela

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArrayMethods(t *testing.T) {
	require.Equal(t, 3.0, evalOK(t, "[1,2,3].push(4); [1,2,3].length;"))
	require.Equal(t, "a,b,c", evalOK(t, `["a","b","c"].join(",");`))
	require.Equal(t, 1.0, evalOK(t, `["a","b","c"].indexOf("b");`))
	got := evalOK(t, `[1,2,3,4,5].slice(1, 3);`)
	require.Equal(t, []any{2.0, 3.0}, got)
	require.Equal(t, true, evalOK(t, `Array.isArray([1,2,3]);`))
	require.Equal(t, false, evalOK(t, `Array.isArray("no");`))
}

func TestStringMethods(t *testing.T) {
	require.Equal(t, "b", evalOK(t, `"abc".charAt(1);`))
	require.Equal(t, 1.0, evalOK(t, `"abc".indexOf("b");`))
	require.Equal(t, "bc", evalOK(t, `"abc".slice(1);`))
	require.Equal(t, "ABC", evalOK(t, `"abc".toUpperCase();`))
	require.Equal(t, "abc", evalOK(t, `"ABC".toLowerCase();`))
	got := evalOK(t, `"a,b,c".split(",");`)
	require.Equal(t, []any{"a", "b", "c"}, got)
}

func TestErrorConstructorsAndToString(t *testing.T) {
	got := evalOK(t, `new TypeError("bad arg").toString();`)
	require.Equal(t, "TypeError: bad arg", got)

	got = evalOK(t, `new Error().toString();`)
	require.Equal(t, "Error", got)
}

func TestThrownTypeErrorCaughtByScript(t *testing.T) {
	got := evalOK(t, `
		var msg;
		try {
			null.x;
		} catch (e) {
			msg = e.name;
		}
		msg;
	`)
	require.Equal(t, "TypeError", got)
}

func TestNumberToFixed(t *testing.T) {
	require.Equal(t, "3.14", evalOK(t, "(3.14159).toFixed(2);"))
}

func TestNumberFromBinaryAndOctalStrings(t *testing.T) {
	require.Equal(t, 15.0, evalOK(t, `Number("0o17");`))
	require.Equal(t, 5.0, evalOK(t, `Number("0b101");`))
	require.Equal(t, 31.0, evalOK(t, `Number("0x1F");`))
}

func TestNumberToStringRadix(t *testing.T) {
	require.Equal(t, "1010", evalOK(t, "(10).toString(2);"))
	require.Equal(t, "11.1", evalOK(t, "(3.5).toString(2);"))
	require.Equal(t, "ff", evalOK(t, "(255).toString(16);"))
}

func TestNumberToStringRadixOutOfRangeThrowsRangeError(t *testing.T) {
	ctx := NewContext(nil)
	_, err := ctx.Evaluate(`(10).toString(1);`)
	require.NotNil(t, err)

	ctx = NewContext(nil)
	_, err = ctx.Evaluate(`(10).toString(40);`)
	require.NotNil(t, err)
}

func TestNumberToExponential(t *testing.T) {
	require.Equal(t, "1.5e+1", evalOK(t, "(15).toExponential();"))
	require.Equal(t, "1.50e+1", evalOK(t, "(15).toExponential(2);"))
	require.Equal(t, "0e+0", evalOK(t, "(0).toExponential();"))
}

func TestBuiltinArgumentCoercionDoesNotPanic(t *testing.T) {
	require.Equal(t, "a", evalOK(t, `"abc".charAt("x");`))
	got := evalOK(t, `[1,2,3].slice("a");`)
	require.Equal(t, []any{1.0, 2.0, 3.0}, got)
	require.Equal(t, "1.50", evalOK(t, `(1.5).toFixed("2");`))
}

func TestSliceWithInfiniteBounds(t *testing.T) {
	got := evalOK(t, `[1,2,3].slice(0, Infinity);`)
	require.Equal(t, []any{1.0, 2.0, 3.0}, got)

	got = evalOK(t, `[1,2,3].slice(-Infinity);`)
	require.Equal(t, []any{1.0, 2.0, 3.0}, got)

	require.Equal(t, "abc", evalOK(t, `"abc".slice(0, Infinity);`))
}
