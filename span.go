package vela

import (
	"fmt"
	"sort"
	"unicode/utf8"
)

// Location is a single point in the source text: a zero-based byte
// cursor plus the 1-based line/column it resolves to. BytecodeBlock's
// source-location table (spec.md C6) stores these, one per emitted
// instruction that can throw or that a debugger would want to map
// back to source.
type Location struct {
	Line   int32
	Column int32
	Cursor int
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// Span is a half-open [Start, End) region of source text. AST nodes
// carry a Span (spec.md C4: "source_location"); ParsingError and
// runtime Error objects report one when available.
type Span struct {
	Start Location
	End   Location
}

func NewSpan(start, end Location) Span {
	return Span{Start: start, End: end}
}

func (s Span) String() string {
	if s.Start.Line == s.End.Line && s.Start.Column == s.End.Column {
		return s.Start.String()
	}
	if s.Start.Line == s.End.Line {
		return fmt.Sprintf("%d:%d..%d", s.Start.Line, s.Start.Column, s.End.Column)
	}
	return fmt.Sprintf("%s..%s", s.Start, s.End)
}

// Range is a cheap, line-agnostic [Start, End) byte span, used where
// carrying full line/column information would be wasteful (e.g. the
// compact capture bookkeeping inside the bytecode generator). It is
// widened to a Span via a LineIndex when a diagnostic needs to be
// rendered.
type Range struct{ Start, End int }

func NewRange(start, end int) Range {
	return Range{Start: start, End: end}
}

func (r Range) String() string {
	if r.Start == r.End {
		return fmt.Sprintf("%d", r.Start)
	}
	return fmt.Sprintf("%d..%d", r.Start, r.End)
}

func (r Range) Str(v []byte) string {
	return string(v[r.Start:r.End])
}

func (r Range) Contains(other Range) bool {
	return other.Start >= r.Start && other.End <= r.End
}

// LineIndex allows fast conversion from byte cursor offsets to
// line/column pairs. It stores the start byte offset of each line
// (0-based); given a cursor it binary searches line starts
// (O(log lines)) and computes the column as runes-since-lineStart+1.
// Construction is O(n) over the input and is meant to be cached per
// source unit (one per BytecodeBlock's root, shared by child blocks).
type LineIndex struct {
	input     []byte
	lineStart []int
}

func NewLineIndex(input []byte) *LineIndex {
	lineStart := make([]int, 1, 64)
	lineStart[0] = 0
	for i, b := range input {
		if b == '\n' {
			lineStart = append(lineStart, i+1)
		}
	}
	return &LineIndex{input: input, lineStart: lineStart}
}

func (li *LineIndex) Span(r Range) Span {
	return Span{Start: li.LocationAt(r.Start), End: li.LocationAt(r.End)}
}

func (li *LineIndex) LocationAt(cursor int) Location {
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(li.input) {
		cursor = len(li.input)
	}

	lineIdx := sort.Search(len(li.lineStart), func(i int) bool {
		return li.lineStart[i] > cursor
	}) - 1
	if lineIdx < 0 {
		lineIdx = 0
	}

	lineStart := li.lineStart[lineIdx]
	col := int32(utf8.RuneCount(li.input[lineStart:cursor])) + 1

	return Location{Line: int32(lineIdx + 1), Column: col, Cursor: cursor}
}
