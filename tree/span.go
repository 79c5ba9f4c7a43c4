package tree

import "fmt"

// Span is a source range. Lines and columns are 1-based; the zero Span
// means "no position".
type Span struct {
	File string
	Line int
	Col  int
	// EndLine and EndCol are optional.
	EndLine int
	EndCol  int
}

// IsZero reports whether the span carries no position.
func (s Span) IsZero() bool {
	return s.Line == 0 && s.File == ""
}

func (s Span) String() string {
	if s.IsZero() {
		return "<unknown>"
	}
	file := s.File
	if file == "" {
		file = "<body>"
	}
	return fmt.Sprintf("%s:%d:%d", file, s.Line, s.Col)
}

// Join returns a span from the start of s to the end of o.
func (s Span) Join(o Span) Span {
	if s.IsZero() {
		return o
	}
	if o.IsZero() {
		return s
	}
	out := s
	out.EndLine, out.EndCol = o.EndLine, o.EndCol
	if out.EndLine == 0 {
		out.EndLine, out.EndCol = o.Line, o.Col
	}
	return out
}

// LeftEdge returns a zero-width span at the start of s.
func (s Span) LeftEdge() Span {
	return Span{File: s.File, Line: s.Line, Col: s.Col}
}

// RightEdge returns a zero-width span at the end of s.
func (s Span) RightEdge() Span {
	if s.EndLine == 0 {
		return s.LeftEdge()
	}
	return Span{File: s.File, Line: s.EndLine, Col: s.EndCol}
}
