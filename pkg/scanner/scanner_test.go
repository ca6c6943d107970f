package scanner_test

import (
	"testing"

	"github.com/tenda-lang/tenda/pkg/scanner"
	"github.com/tenda-lang/tenda/pkg/source"
)

func scan(t *testing.T, src string) []scanner.Token {
	t.Helper()
	tokens, errs := scanner.New(src, source.NewID()).Scan()
	if len(errs) > 0 {
		t.Fatalf("scan %q: %v", src, errs[0])
	}
	return tokens
}

func kinds(tokens []scanner.Token) []scanner.Kind {
	out := make([]scanner.Kind, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Kind
	}
	return out
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	tokens := scan(t, "seja preço = 10")
	want := []scanner.Kind{scanner.Let, scanner.Identifier, scanner.EqualSign, scanner.Number, scanner.EOF}
	got := kinds(tokens)
	if len(got) != len(want) {
		t.Fatalf("want %d tokens, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: want %v, got %v", i, want[i], got[i])
		}
	}
	if tokens[1].Lexeme != "preço" {
		t.Fatalf("accented identifiers must scan whole, got %q", tokens[1].Lexeme)
	}
}

func TestLiterals(t *testing.T) {
	tokens := scan(t, `verdadeiro falso Nada 3.25 "olá"`)
	want := []scanner.Kind{scanner.True, scanner.False, scanner.Nil, scanner.Number, scanner.Text, scanner.EOF}
	for i, kind := range want {
		if tokens[i].Kind != kind {
			t.Fatalf("token %d: want %v, got %v", i, kind, tokens[i].Kind)
		}
	}
	if tokens[3].Number != 3.25 {
		t.Fatalf("want 3.25, got %v", tokens[3].Number)
	}
	if tokens[4].Text != "olá" {
		t.Fatalf("want olá, got %q", tokens[4].Text)
	}
}

func TestTextEscapes(t *testing.T) {
	tokens := scan(t, `"linha\nquebra \"aspas\" \\ tab\t"`)
	if tokens[0].Text != "linha\nquebra \"aspas\" \\ tab\t" {
		t.Fatalf("wrong unescaped payload: %q", tokens[0].Text)
	}
}

func TestNewlinesAreTokens(t *testing.T) {
	tokens := scan(t, "1\n2")
	want := []scanner.Kind{scanner.Number, scanner.Newline, scanner.Number, scanner.EOF}
	for i, kind := range want {
		if tokens[i].Kind != kind {
			t.Fatalf("token %d: want %v, got %v", i, kind, tokens[i].Kind)
		}
	}
}

func TestComments(t *testing.T) {
	tokens := scan(t, "1 // comentário até o fim\n/* bloco /* aninhado */ ainda dentro */ 2")
	var numbers int
	for _, tok := range tokens {
		if tok.Kind == scanner.Number {
			numbers++
		}
	}
	if numbers != 2 {
		t.Fatalf("comments must be skipped, got %d numbers", numbers)
	}
}

func TestCompoundOperators(t *testing.T) {
	tokens := scan(t, "a >= b <= c")
	want := []scanner.Kind{scanner.Identifier, scanner.GreaterOrEqual, scanner.Identifier, scanner.LessOrEqual, scanner.Identifier, scanner.EOF}
	for i, kind := range want {
		if tokens[i].Kind != kind {
			t.Fatalf("token %d: want %v, got %v", i, kind, tokens[i].Kind)
		}
	}
}

func TestLexicalErrors(t *testing.T) {
	cases := []string{
		`"texto sem fechar`,
		`"escape \q inválido"`,
		"007",
		"/* nunca fecha",
		"1 @ 2",
	}
	for _, src := range cases {
		_, errs := scanner.New(src, source.NewID()).Scan()
		if len(errs) == 0 {
			t.Errorf("%q: expected a lexical error", src)
		}
	}
}

func TestErrorRecoveryReportsAll(t *testing.T) {
	_, errs := scanner.New("@ depois #", source.NewID()).Scan()
	if len(errs) != 2 {
		t.Fatalf("want 2 errors after resync, got %d", len(errs))
	}
}

func TestSpansCoverLexemes(t *testing.T) {
	src := "seja x = 10"
	tokens := scan(t, src)
	for _, tok := range tokens {
		if tok.Kind == scanner.EOF {
			continue
		}
		if got := tok.Span.Extract(src); got != tok.Lexeme {
			t.Fatalf("span of %q extracts %q", tok.Lexeme, got)
		}
	}
}
