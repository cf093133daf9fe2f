package vela

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, src string) []token {
	t.Helper()
	lx := newLexer(src)
	var toks []token
	for {
		tok, err := lx.next()
		require.NoError(t, err)
		toks = append(toks, tok)
		if tok.kind == tokEOF {
			break
		}
	}
	return toks
}

func TestLexerNumbers(t *testing.T) {
	for _, test := range []struct {
		src  string
		want float64
	}{
		{"0", 0},
		{"42", 42},
		{"3.14", 3.14},
		{"1e3", 1000},
		{"1.5e-2", 0.015},
		{"0x1F", 31},
		{"0o17", 15},
		{"0b101", 5},
	} {
		toks := scanAll(t, test.src)
		require.Equal(t, tokNumber, toks[0].kind, test.src)
		require.InDelta(t, test.want, toks[0].num, 1e-9, test.src)
	}
}

func TestLexerStringEscapes(t *testing.T) {
	toks := scanAll(t, `"a\nb\tcA"`)
	require.Equal(t, tokString, toks[0].kind)
	require.Equal(t, "a\nb\tcA", toks[0].text)
}

func TestLexerRegexVsDivide(t *testing.T) {
	toks := scanAll(t, "a / b")
	require.Equal(t, tokPunct, toks[1].kind)
	require.Equal(t, "/", toks[1].text)

	toks = scanAll(t, "return /abc/g")
	require.Equal(t, tokRegExp, toks[1].kind)
	require.Equal(t, "abc", toks[1].text)
	require.Equal(t, "g", toks[1].reFlags)
}

func TestLexerRegexClassAllowsSlash(t *testing.T) {
	toks := scanAll(t, "x = /[a/b]/;")
	require.Equal(t, tokRegExp, toks[2].kind)
	require.Equal(t, "[a/b]", toks[2].text)
}

func TestLexerSpreadPunctuator(t *testing.T) {
	toks := scanAll(t, "[...a]")
	require.Equal(t, tokPunct, toks[1].kind)
	require.Equal(t, "...", toks[1].text)
}

func TestLexerLineTerminatorTracking(t *testing.T) {
	toks := scanAll(t, "a\n=1")
	require.False(t, toks[0].nlBefore)
	require.True(t, toks[1].nlBefore)
}

func TestLexerCompoundPunctuatorsLongestMatchFirst(t *testing.T) {
	toks := scanAll(t, ">>>=")
	require.Equal(t, ">>>=", toks[0].text)
}
