package vela

import (
	"fmt"
	"strconv"
	"strings"
)

// tokenKind enumerates the lexical categories an ES5 program needs
// (spec.md C4): lexer.go does not attempt to classify keywords at
// scan time, leaving that to the parser's name-based dispatch, the
// same split the teacher's grammar lexer kept between raw tokens and
// grammar-level keyword recognition.
type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokRegExp
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	num  float64
	// reFlags holds a regexp literal's trailing flags; only set when
	// kind == tokRegExp.
	reFlags string
	// nlBefore records whether a line terminator separated this token
	// from the previous one, the only state ASI needs (ES5 §7.9).
	nlBefore bool
	rg       Range
}

// lexer scans source text into tokens on demand. It has no lookahead
// buffer of its own; the parser drives it one token at a time and
// keeps the one token of lookahead it needs itself.
type lexer struct {
	src    string
	pos    int
	line   int
	lastOp string // previous significant token's text, for regex-vs-divide
}

func newLexer(src string) *lexer {
	return &lexer{src: src, pos: 0, line: 1}
}

func (lx *lexer) errorf(format string, args ...any) error {
	return fmt.Errorf("line %d: %s", lx.line, fmt.Sprintf(format, args...))
}

func (lx *lexer) peekByte() byte {
	if lx.pos >= len(lx.src) {
		return 0
	}
	return lx.src[lx.pos]
}

func (lx *lexer) byteAt(off int) byte {
	if lx.pos+off >= len(lx.src) {
		return 0
	}
	return lx.src[lx.pos+off]
}

// regexAllowed reports whether a `/` at the current position should be
// read as the start of a regexp literal rather than a division
// operator, based on the previous significant token (ES5 §7's
// well-known ambiguity).
func (lx *lexer) regexAllowed() bool {
	switch lx.lastOp {
	case "", "(", "[", "{", ",", ";", ":", "!", "&&", "||", "=", "==", "===",
		"!=", "!==", "+", "-", "*", "/", "%", "<", ">", "<=", ">=", "?",
		"return", "typeof", "instanceof", "in", "new", "delete", "void",
		"throw", "case", "!", "~", "&", "|", "^", "<<", ">>", ">>>":
		return true
	default:
		return false
	}
}

// next scans and returns the next token, skipping whitespace and
// comments but recording whether a line terminator was crossed.
func (lx *lexer) next() (token, error) {
	sawNL := false
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		switch {
		case c == '\n':
			sawNL = true
			lx.line++
			lx.pos++
		case c == ' ' || c == '\t' || c == '\r' || c == '\v' || c == '\f':
			lx.pos++
		case c == '/' && lx.byteAt(1) == '/':
			for lx.pos < len(lx.src) && lx.src[lx.pos] != '\n' {
				lx.pos++
			}
		case c == '/' && lx.byteAt(1) == '*':
			lx.pos += 2
			for lx.pos < len(lx.src) && !(lx.src[lx.pos] == '*' && lx.byteAt(1) == '/') {
				if lx.src[lx.pos] == '\n' {
					sawNL = true
					lx.line++
				}
				lx.pos++
			}
			lx.pos += 2
		default:
			goto scan
		}
	}
scan:
	start := lx.pos
	if lx.pos >= len(lx.src) {
		return token{kind: tokEOF, nlBefore: sawNL, rg: Range{start, start}}, nil
	}
	c := lx.src[lx.pos]

	switch {
	case isIdentStart(c):
		for lx.pos < len(lx.src) && isIdentPart(lx.src[lx.pos]) {
			lx.pos++
		}
		text := lx.src[start:lx.pos]
		lx.lastOp = text
		return token{kind: tokIdent, text: text, nlBefore: sawNL, rg: Range{start, lx.pos}}, nil

	case c >= '0' && c <= '9', c == '.' && lx.byteAt(1) >= '0' && lx.byteAt(1) <= '9':
		return lx.scanNumber(start, sawNL)

	case c == '"' || c == '\'':
		return lx.scanString(start, sawNL, c)

	case c == '/' && lx.regexAllowed():
		return lx.scanRegExp(start, sawNL)

	default:
		return lx.scanPunct(start, sawNL)
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func (lx *lexer) scanNumber(start int, nl bool) (token, error) {
	if lx.peekByte() == '0' && (lx.byteAt(1) == 'x' || lx.byteAt(1) == 'X') {
		lx.pos += 2
		s := lx.pos
		for lx.pos < len(lx.src) && isHexDigit(lx.src[lx.pos]) {
			lx.pos++
		}
		n, err := strconv.ParseUint(lx.src[s:lx.pos], 16, 64)
		if err != nil {
			return token{}, lx.errorf("invalid hex literal")
		}
		lx.lastOp = "<num>"
		return token{kind: tokNumber, num: float64(n), nlBefore: nl, rg: Range{start, lx.pos}}, nil
	}
	if lx.peekByte() == '0' && (lx.byteAt(1) == 'o' || lx.byteAt(1) == 'O') {
		lx.pos += 2
		s := lx.pos
		for lx.pos < len(lx.src) && lx.src[lx.pos] >= '0' && lx.src[lx.pos] <= '7' {
			lx.pos++
		}
		n, err := strconv.ParseUint(lx.src[s:lx.pos], 8, 64)
		if err != nil {
			return token{}, lx.errorf("invalid octal literal")
		}
		lx.lastOp = "<num>"
		return token{kind: tokNumber, num: float64(n), nlBefore: nl, rg: Range{start, lx.pos}}, nil
	}
	if lx.peekByte() == '0' && (lx.byteAt(1) == 'b' || lx.byteAt(1) == 'B') {
		lx.pos += 2
		s := lx.pos
		for lx.pos < len(lx.src) && (lx.src[lx.pos] == '0' || lx.src[lx.pos] == '1') {
			lx.pos++
		}
		n, err := strconv.ParseUint(lx.src[s:lx.pos], 2, 64)
		if err != nil {
			return token{}, lx.errorf("invalid binary literal")
		}
		lx.lastOp = "<num>"
		return token{kind: tokNumber, num: float64(n), nlBefore: nl, rg: Range{start, lx.pos}}, nil
	}
	for lx.pos < len(lx.src) && lx.src[lx.pos] >= '0' && lx.src[lx.pos] <= '9' {
		lx.pos++
	}
	if lx.peekByte() == '.' {
		lx.pos++
		for lx.pos < len(lx.src) && lx.src[lx.pos] >= '0' && lx.src[lx.pos] <= '9' {
			lx.pos++
		}
	}
	if lx.peekByte() == 'e' || lx.peekByte() == 'E' {
		save := lx.pos
		lx.pos++
		if lx.peekByte() == '+' || lx.peekByte() == '-' {
			lx.pos++
		}
		if lx.peekByte() >= '0' && lx.peekByte() <= '9' {
			for lx.pos < len(lx.src) && lx.src[lx.pos] >= '0' && lx.src[lx.pos] <= '9' {
				lx.pos++
			}
		} else {
			lx.pos = save
		}
	}
	n, err := strconv.ParseFloat(lx.src[start:lx.pos], 64)
	if err != nil {
		return token{}, lx.errorf("invalid number literal %q", lx.src[start:lx.pos])
	}
	lx.lastOp = "<num>"
	return token{kind: tokNumber, num: n, nlBefore: nl, rg: Range{start, lx.pos}}, nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func (lx *lexer) scanString(start int, nl bool, quote byte) (token, error) {
	lx.pos++
	var b strings.Builder
	for {
		if lx.pos >= len(lx.src) {
			return token{}, lx.errorf("unterminated string literal")
		}
		c := lx.src[lx.pos]
		if c == quote {
			lx.pos++
			break
		}
		if c == '\n' {
			return token{}, lx.errorf("unterminated string literal")
		}
		if c == '\\' {
			lx.pos++
			if lx.pos >= len(lx.src) {
				return token{}, lx.errorf("unterminated string literal")
			}
			esc := lx.src[lx.pos]
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case 'v':
				b.WriteByte('\v')
			case '0':
				b.WriteByte(0)
			case '\n':
				lx.line++
			case 'x':
				if lx.pos+2 >= len(lx.src) {
					return token{}, lx.errorf("invalid \\x escape")
				}
				n, err := strconv.ParseUint(lx.src[lx.pos+1:lx.pos+3], 16, 8)
				if err != nil {
					return token{}, lx.errorf("invalid \\x escape")
				}
				b.WriteByte(byte(n))
				lx.pos += 2
			case 'u':
				if lx.pos+4 >= len(lx.src) {
					return token{}, lx.errorf("invalid \\u escape")
				}
				n, err := strconv.ParseUint(lx.src[lx.pos+1:lx.pos+5], 16, 32)
				if err != nil {
					return token{}, lx.errorf("invalid \\u escape")
				}
				b.WriteRune(rune(n))
				lx.pos += 4
			default:
				b.WriteByte(esc)
			}
			lx.pos++
			continue
		}
		b.WriteByte(c)
		lx.pos++
	}
	lx.lastOp = "<str>"
	return token{kind: tokString, text: b.String(), nlBefore: nl, rg: Range{start, lx.pos}}, nil
}

// scanRegExp reads a regexp literal `/pattern/flags`, trusting the
// caller (regexAllowed) to have already decided `/` cannot be
// division here.
func (lx *lexer) scanRegExp(start int, nl bool) (token, error) {
	lx.pos++
	inClass := false
	bodyStart := lx.pos
	for {
		if lx.pos >= len(lx.src) {
			return token{}, lx.errorf("unterminated regular expression literal")
		}
		c := lx.src[lx.pos]
		if c == '\\' {
			lx.pos += 2
			continue
		}
		if c == '[' {
			inClass = true
		} else if c == ']' {
			inClass = false
		} else if c == '/' && !inClass {
			break
		} else if c == '\n' {
			return token{}, lx.errorf("unterminated regular expression literal")
		}
		lx.pos++
	}
	body := lx.src[bodyStart:lx.pos]
	lx.pos++
	flagsStart := lx.pos
	for lx.pos < len(lx.src) && isIdentPart(lx.src[lx.pos]) {
		lx.pos++
	}
	lx.lastOp = "<regexp>"
	return token{kind: tokRegExp, text: body, reFlags: lx.src[flagsStart:lx.pos], nlBefore: nl, rg: Range{start, lx.pos}}, nil
}

// punctuators is tried longest-first so `>>>=` is never split into
// `>>` followed by `>=`.
var punctuators = []string{
	">>>=", "===", "!==", ">>>", "<<=", ">>=", "**=", "...",
	"==", "!=", "<=", ">=", "&&", "||", "++", "--",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "<<", ">>", "=>",
	"{", "}", "(", ")", "[", "]", ".", ";", ",", "<", ">", "+", "-",
	"*", "/", "%", "&", "|", "^", "!", "~", "?", ":", "=",
}

func (lx *lexer) scanPunct(start int, nl bool) (token, error) {
	rest := lx.src[lx.pos:]
	for _, p := range punctuators {
		if strings.HasPrefix(rest, p) {
			lx.pos += len(p)
			lx.lastOp = p
			return token{kind: tokPunct, text: p, nlBefore: nl, rg: Range{start, lx.pos}}, nil
		}
	}
	return token{}, lx.errorf("unexpected character %q", rest[:1])
}

var keywordSet = map[string]bool{
	"var": true, "let": true, "const": true, "function": true, "return": true,
	"if": true, "else": true, "for": true, "while": true, "do": true,
	"break": true, "continue": true, "try": true, "catch": true, "finally": true,
	"throw": true, "new": true, "delete": true, "typeof": true, "instanceof": true,
	"in": true, "void": true, "this": true, "null": true, "true": true, "false": true,
	"undefined": true,
}
