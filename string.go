package vela

import (
	"unicode/utf16"
	"unicode/utf8"

	xunicode "golang.org/x/text/encoding/unicode"
)

// stringRepr distinguishes the two storage widths a String can carry.
// Per spec.md §4.1, a builder tracks the narrowest representation
// that still fits its content and only promotes to UTF-16 on demand
// (e.g. the first rune above U+00FF, or an explicit surrogate pair).
type stringRepr uint8

const (
	reprLatin1 stringRepr = iota
	reprUTF16
)

// String is the heap payload for every ECMAScript string value. It
// never mutates after construction: builders (below) are the only
// mutable path, finalized into an immutable String.
type String struct {
	repr   stringRepr
	latin1 []byte   // valid when repr == reprLatin1, one byte per code unit
	utf16  []uint16 // valid when repr == reprUTF16, one uint16 per code unit
}

func (*String) heapKind() HeapKind { return HeapString }

// Length returns the string's length in UTF-16 code units, matching
// ECMAScript's `.length` semantics (not rune count, not byte count).
func (s *String) Length() int {
	if s.repr == reprLatin1 {
		return len(s.latin1)
	}
	return len(s.utf16)
}

// CharAt returns the UTF-16 code unit at index i (0 <= i < Length()).
func (s *String) CharAt(i int) uint16 {
	if s.repr == reprLatin1 {
		return uint16(s.latin1[i])
	}
	return s.utf16[i]
}

// Text renders the string as a Go string (UTF-8), the form used by
// every external boundary (ToString results, error messages, the
// embedding API). Lone surrogates in the UTF-16 form are replaced per
// utf16.Decode's usual behavior (U+FFFD), since Go strings cannot
// carry them.
func (s *String) Text() string {
	if s.repr == reprLatin1 {
		// Latin-1 code units map 1:1 onto the first 256 Unicode code
		// points, so this is a direct rune-by-rune widen, never a
		// lossy transcode.
		runes := make([]rune, len(s.latin1))
		for i, b := range s.latin1 {
			runes[i] = rune(b)
		}
		return string(runes)
	}
	return string(utf16.Decode(s.utf16))
}

func (s *String) Equal(o *String) bool {
	if s.Length() != o.Length() {
		return false
	}
	for i := 0; i < s.Length(); i++ {
		if s.CharAt(i) != o.CharAt(i) {
			return false
		}
	}
	return true
}

// NewLatin1String builds a String directly from a byte slice already
// known to be Latin-1 (every byte <= 0xFF maps onto itself); used for
// literals discovered by the parser to be ASCII/Latin-1 only.
func NewLatin1String(b []byte) *String {
	cp := make([]byte, len(b))
	copy(cp, b)
	return &String{repr: reprLatin1, latin1: cp}
}

// NewStringFromGoString builds a String from a Go (UTF-8) string,
// picking the narrowest representation that fits: Latin-1 if every
// rune is <= U+00FF, UTF-16 otherwise.
func NewStringFromGoString(s string) *String {
	latin1 := true
	for _, r := range s {
		if r > 0xFF {
			latin1 = false
			break
		}
	}
	if latin1 {
		b := make([]byte, 0, len(s))
		for _, r := range s {
			b = append(b, byte(r))
		}
		return &String{repr: reprLatin1, latin1: b}
	}
	return &String{repr: reprUTF16, utf16: utf16.Encode([]rune(s))}
}

// maxStringLength bounds StringBuilder.Finalize, mirroring
// StringBuilder.h's content-length check (spec.md §4.1): a finalize
// that would exceed it fails with a range error rather than silently
// truncating.
const maxStringLength = 1 << 29

// StringBuilder accumulates code units while tracking the narrowest
// representation that still fits, promoting from Latin-1 to UTF-16
// the first time a code unit above 0xFF is appended. This mirrors
// the teacher's "narrowest on-demand" policy for compact syntax-tree
// text capture, generalized here to full UTF-16 (the teacher only
// ever captured raw source bytes).
type StringBuilder struct {
	repr   stringRepr
	latin1 []byte
	wide   []uint16
}

func NewStringBuilder() *StringBuilder {
	return &StringBuilder{repr: reprLatin1}
}

func (b *StringBuilder) AppendRune(r rune) {
	if b.repr == reprLatin1 && r <= 0xFF {
		b.latin1 = append(b.latin1, byte(r))
		return
	}
	b.promote()
	b.wide = utf16.AppendRune(b.wide, r)
}

func (b *StringBuilder) AppendString(s *String) {
	for i := 0; i < s.Length(); i++ {
		u := s.CharAt(i)
		if b.repr == reprLatin1 && u <= 0xFF {
			b.latin1 = append(b.latin1, byte(u))
			continue
		}
		b.promote()
		b.wide = append(b.wide, u)
	}
}

func (b *StringBuilder) promote() {
	if b.repr == reprUTF16 {
		return
	}
	b.repr = reprUTF16
	b.wide = make([]uint16, len(b.latin1))
	for i, c := range b.latin1 {
		b.wide[i] = uint16(c)
	}
	b.latin1 = nil
}

func (b *StringBuilder) contentLength() int {
	if b.repr == reprLatin1 {
		return len(b.latin1)
	}
	return len(b.wide)
}

// Finalize produces the immutable String, failing with a *range*
// error (spec.md §4.1) if the accumulated content exceeds
// maxStringLength.
func (b *StringBuilder) Finalize() (*String, error) {
	if b.contentLength() > maxStringLength {
		return nil, newRangeError("Invalid string length")
	}
	if b.repr == reprLatin1 {
		return &String{repr: reprLatin1, latin1: b.latin1}, nil
	}
	return &String{repr: reprUTF16, utf16: b.wide}, nil
}

// validateUTF16 round-trips s through golang.org/x/text's UTF-16
// codec to confirm it contains no unpaired surrogate (the stdlib
// utf16 package in Text() above is permissive). Nothing in the engine
// calls it.
func validateUTF16(units []uint16) bool {
	buf := make([]byte, 0, len(units)*2)
	for _, u := range units {
		buf = append(buf, byte(u>>8), byte(u))
	}
	dec := xunicode.UTF16(xunicode.BigEndian, xunicode.IgnoreBOM).NewDecoder()
	out, err := dec.Bytes(buf)
	if err != nil {
		return false
	}
	return utf8.Valid(out)
}
