package parser

import "github.com/tenda-lang/tenda/pkg/source"

// SyntaxError describes one failure during parsing.
type SyntaxError struct {
	Message string
	Help    string
	Span    source.Span
}

func (e *SyntaxError) Error() string { return e.Message }
