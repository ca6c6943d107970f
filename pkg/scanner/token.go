package scanner

import "github.com/tenda-lang/tenda/pkg/source"

// Kind tags a token.
type Kind int

const (
	Number Kind = iota
	Text
	True
	False
	Nil
	Identifier
	Newline
	EOF

	// Keywords.
	Let      // seja
	If       // se
	Then     // então
	Else     // senão
	BlockEnd // fim
	While    // enquanto
	Do       // faça
	For      // para
	Each     // cada
	In       // em
	Until    // até
	Return   // retorna
	Break    // pare
	Continue // continue
	Function // função
	Equals   // é
	Not      // não
	And      // e
	Or       // ou
	Has      // tem
	Raise    // lance
	Try      // tente
	Catch    // capture
	Import   // importe
	As       // como
	Export   // exporte

	// Punctuation and operators.
	EqualSign
	Plus
	Minus
	Star
	Slash
	Percent
	Caret
	Greater
	GreaterOrEqual
	Less
	LessOrEqual
	LeftParen
	RightParen
	LeftBracket
	RightBracket
	LeftBrace
	RightBrace
	Comma
	Dot
	Colon
)

// Token is one lexical unit with its source span.
type Token struct {
	Kind   Kind
	Lexeme string
	Span   source.Span

	// Literal payload, populated for Number and Text tokens.
	Number float64
	Text   string
}

// Literal spellings shared with the value printer.
const (
	TrueLiteral             = "verdadeiro"
	FalseLiteral            = "falso"
	NilLiteral              = "Nada"
	PositiveInfinityLiteral = "infinito"
	NegativeInfinityLiteral = "-infinito"
	NaNLiteral              = "NaN"
)

var keywords = map[string]Kind{
	"seja":       Let,
	"se":         If,
	"então":      Then,
	"senão":      Else,
	"fim":        BlockEnd,
	"enquanto":   While,
	"faça":       Do,
	"para":       For,
	"cada":       Each,
	"em":         In,
	"até":        Until,
	"retorna":    Return,
	"pare":       Break,
	"continue":   Continue,
	"função":     Function,
	"é":          Equals,
	"não":        Not,
	"e":          And,
	"ou":         Or,
	"tem":        Has,
	"lance":      Raise,
	"tente":      Try,
	"capture":    Catch,
	"importe":    Import,
	"como":       As,
	"exporte":    Export,
	TrueLiteral:  True,
	FalseLiteral: False,
	NilLiteral:   Nil,
}
