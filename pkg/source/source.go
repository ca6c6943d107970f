package source

import "sync/atomic"

var idCounter atomic.Uint64

// ID identifies one loaded source (a file, a REPL line, a test snippet).
type ID uint64

// NewID allocates a fresh source identifier.
func NewID() ID {
	return ID(idCounter.Add(1))
}

// Span is a half-open byte range into one source.
type Span struct {
	Start  int
	End    int
	Source ID
}

// NewSpan builds a span over [start, end) in the given source.
func NewSpan(start, end int, src ID) Span {
	return Span{Start: start, End: end, Source: src}
}

// Join produces the smallest span covering both inputs.
func (s Span) Join(other Span) Span {
	start := s.Start
	if other.Start < start {
		start = other.Start
	}
	end := s.End
	if other.End > end {
		end = other.End
	}
	return Span{Start: start, End: end, Source: s.Source}
}

// Extract returns the span's text from the source it was produced against.
func (s Span) Extract(text string) string {
	if s.Start < 0 || s.End > len(text) || s.Start > s.End {
		return ""
	}
	return text[s.Start:s.End]
}

// LineColumn resolves a byte offset to a 1-based line/column pair.
func LineColumn(text string, offset int) (line, col int) {
	line, col = 1, 1
	if offset > len(text) {
		offset = len(text)
	}
	for _, r := range text[:offset] {
		if r == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
