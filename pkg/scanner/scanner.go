// Package scanner turns Tenda source text into tokens.
package scanner

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/tenda-lang/tenda/pkg/source"
)

// LexicalError describes one failure during scanning.
type LexicalError struct {
	Message string
	Span    source.Span
}

func (e *LexicalError) Error() string { return e.Message }

// Scanner walks one source text producing tokens.
type Scanner struct {
	src    string
	runes  []rune
	pos    int // rune index
	offset int // byte offset of runes[pos]
	start  int // byte offset where the current token begins
	id     source.ID
}

// New builds a scanner over src attributed to the given source id.
func New(src string, id source.ID) *Scanner {
	return &Scanner{src: src, runes: []rune(src), id: id}
}

// Scan tokenizes the whole input. On failure it reports every lexical error
// found, resynchronizing at the next whitespace boundary.
func (s *Scanner) Scan() ([]Token, []*LexicalError) {
	var tokens []Token
	var errs []*LexicalError

	for !s.atEnd() {
		s.start = s.offset
		tok, err := s.next()
		if err != nil {
			errs = append(errs, err)
			s.synchronize()
			continue
		}
		if tok != nil {
			tokens = append(tokens, *tok)
		}
	}

	tokens = append(tokens, Token{Kind: EOF, Lexeme: "EOF", Span: s.span()})
	if len(errs) > 0 {
		return nil, errs
	}
	return tokens, nil
}

func (s *Scanner) next() (*Token, *LexicalError) {
	c := s.advance()

	switch c {
	case ' ', '\t', '\r':
		return nil, nil
	case '\n':
		return s.token(Newline, "\n"), nil
	case '(':
		return s.token(LeftParen, "("), nil
	case ')':
		return s.token(RightParen, ")"), nil
	case '[':
		return s.token(LeftBracket, "["), nil
	case ']':
		return s.token(RightBracket, "]"), nil
	case '{':
		return s.token(LeftBrace, "{"), nil
	case '}':
		return s.token(RightBrace, "}"), nil
	case ':':
		return s.token(Colon, ":"), nil
	case ',':
		return s.token(Comma, ","), nil
	case '.':
		return s.token(Dot, "."), nil
	case '+':
		return s.token(Plus, "+"), nil
	case '-':
		return s.token(Minus, "-"), nil
	case '*':
		return s.token(Star, "*"), nil
	case '%':
		return s.token(Percent, "%"), nil
	case '^':
		return s.token(Caret, "^"), nil
	case '=':
		return s.token(EqualSign, "="), nil
	case '>':
		if s.match('=') {
			return s.token(GreaterOrEqual, ">="), nil
		}
		return s.token(Greater, ">"), nil
	case '<':
		if s.match('=') {
			return s.token(LessOrEqual, "<="), nil
		}
		return s.token(Less, "<"), nil
	case '/':
		if s.match('/') {
			s.skipLineComment()
			return nil, nil
		}
		if s.match('*') {
			return nil, s.skipBlockComment()
		}
		return s.token(Slash, "/"), nil
	case '"':
		return s.text()
	}

	if unicode.IsDigit(c) {
		return s.number()
	}
	if isIdentStart(c) {
		return s.identifier(), nil
	}

	return nil, &LexicalError{
		Message: fmt.Sprintf("caractere inesperado: %q", c),
		Span:    s.span(),
	}
}

func (s *Scanner) text() (*Token, *LexicalError) {
	var b strings.Builder

	for {
		if s.atEnd() || s.peek() == '\n' {
			return nil, &LexicalError{Message: "texto não terminado", Span: s.span()}
		}
		c := s.advance()
		if c == '"' {
			break
		}
		if c != '\\' {
			b.WriteRune(c)
			continue
		}
		if s.atEnd() {
			return nil, &LexicalError{Message: "texto não terminado", Span: s.span()}
		}
		switch esc := s.advance(); esc {
		case 'n':
			b.WriteRune('\n')
		case 't':
			b.WriteRune('\t')
		case 'r':
			b.WriteRune('\r')
		case '\\':
			b.WriteRune('\\')
		case '"':
			b.WriteRune('"')
		default:
			return nil, &LexicalError{
				Message: fmt.Sprintf("sequência de escape inválida: \\%c", esc),
				Span:    s.span(),
			}
		}
	}

	tok := s.token(Text, s.lexeme())
	tok.Text = b.String()
	return tok, nil
}

func (s *Scanner) number() (*Token, *LexicalError) {
	for !s.atEnd() && unicode.IsDigit(s.peek()) {
		s.advance()
	}
	if !s.atEnd() && s.peek() == '.' && unicode.IsDigit(s.peekNext()) {
		s.advance()
		for !s.atEnd() && unicode.IsDigit(s.peek()) {
			s.advance()
		}
	}

	lexeme := s.lexeme()
	if strings.HasPrefix(lexeme, "0") && !strings.HasPrefix(lexeme, "0.") && lexeme != "0" {
		return nil, &LexicalError{
			Message: fmt.Sprintf("número com zero à esquerda: %s", lexeme),
			Span:    s.span(),
		}
	}

	value, err := strconv.ParseFloat(lexeme, 64)
	if err != nil {
		return nil, &LexicalError{
			Message: fmt.Sprintf("número inválido: %s", lexeme),
			Span:    s.span(),
		}
	}

	tok := s.token(Number, lexeme)
	tok.Number = value
	return tok, nil
}

func (s *Scanner) identifier() *Token {
	for !s.atEnd() && isIdentPart(s.peek()) {
		s.advance()
	}

	lexeme := s.lexeme()
	if kind, ok := keywords[lexeme]; ok {
		return s.token(kind, lexeme)
	}
	return s.token(Identifier, lexeme)
}

func (s *Scanner) skipLineComment() {
	for !s.atEnd() && s.peek() != '\n' {
		s.advance()
	}
}

func (s *Scanner) skipBlockComment() *LexicalError {
	depth := 1
	for depth > 0 {
		if s.atEnd() {
			return &LexicalError{Message: "comentário não terminado", Span: s.span()}
		}
		c := s.advance()
		if c == '/' && s.match('*') {
			depth++
		} else if c == '*' && s.match('/') {
			depth--
		}
	}
	return nil
}

func (s *Scanner) synchronize() {
	for !s.atEnd() && !unicode.IsSpace(s.peek()) {
		s.advance()
	}
}

func (s *Scanner) token(kind Kind, lexeme string) *Token {
	return &Token{Kind: kind, Lexeme: lexeme, Span: s.span()}
}

func (s *Scanner) span() source.Span {
	return source.NewSpan(s.start, s.offset, s.id)
}

func (s *Scanner) lexeme() string {
	return s.src[s.start:s.offset]
}

func (s *Scanner) advance() rune {
	c := s.runes[s.pos]
	s.pos++
	s.offset += len(string(c))
	return c
}

func (s *Scanner) match(want rune) bool {
	if s.atEnd() || s.runes[s.pos] != want {
		return false
	}
	s.advance()
	return true
}

func (s *Scanner) peek() rune {
	if s.atEnd() {
		return 0
	}
	return s.runes[s.pos]
}

func (s *Scanner) peekNext() rune {
	if s.pos+1 >= len(s.runes) {
		return 0
	}
	return s.runes[s.pos+1]
}

func (s *Scanner) atEnd() bool {
	return s.pos >= len(s.runes)
}

func isIdentStart(c rune) bool {
	return c == '_' || unicode.IsLetter(c)
}

func isIdentPart(c rune) bool {
	return c == '_' || unicode.IsLetter(c) || unicode.IsDigit(c)
}
