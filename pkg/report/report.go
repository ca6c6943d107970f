// Package report renders loader failures for humans: a headline, the source
// excerpt the diagnostic points at, an optional suggestion, and the call
// trace a runtime diagnostic unwound through.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/tenda-lang/tenda/pkg/driver"
	"github.com/tenda-lang/tenda/pkg/runtime"
	"github.com/tenda-lang/tenda/pkg/source"
)

// Lookup resolves a span's source id to its retained file.
type Lookup func(id source.ID) (*driver.SourceFile, bool)

// Render writes a failure to w.
func Render(w io.Writer, failure *driver.Failure, lookup Lookup) {
	switch {
	case failure.Host != nil:
		fmt.Fprintf(w, "erro: %s\n", failure.Host)
	case len(failure.Lexical) > 0:
		for _, lexErr := range failure.Lexical {
			fmt.Fprintf(w, "erro: %s\n", lexErr.Message)
			writeExcerpt(w, lexErr.Span, lookup)
		}
	case len(failure.Syntax) > 0:
		for _, synErr := range failure.Syntax {
			fmt.Fprintf(w, "erro: %s\n", synErr.Message)
			writeExcerpt(w, synErr.Span, lookup)
			if synErr.Help != "" {
				fmt.Fprintf(w, "ajuda: %s\n", synErr.Help)
			}
		}
	case failure.Runtime != nil:
		renderRuntime(w, failure.Runtime, lookup)
	default:
		fmt.Fprintf(w, "erro: %s\n", failure)
	}
}

func renderRuntime(w io.Writer, err *runtime.RuntimeError, lookup Lookup) {
	fmt.Fprintf(w, "erro: %s\n", headline(err))
	writeExcerpt(w, err.Span, lookup)
	if err.Help != "" {
		fmt.Fprintf(w, "ajuda: %s\n", err.Help)
	}
	for _, frame := range err.Trace {
		name := frame.Name
		if name == "" {
			name = "função anônima"
		}
		fmt.Fprintf(w, "chamada a partir de `%s`%s\n", name, location(frame.Span, lookup))
	}
}

// headline expands a diagnostic into its full message, payload included.
func headline(err *runtime.RuntimeError) string {
	switch err.Kind {
	case runtime.ErrAlreadyDeclared:
		return fmt.Sprintf("a variável `%s` já foi declarada neste escopo", err.Name)
	case runtime.ErrUndefinedReference:
		return fmt.Sprintf("a variável `%s` não foi definida", err.Name)
	case runtime.ErrTypeMismatch:
		return fmt.Sprintf("não é possível %s um valor do tipo %s e um valor do tipo %s",
			err.Operation, err.First, err.Second)
	case runtime.ErrUnexpectedType:
		return fmt.Sprintf("esperava um valor do tipo %s, mas encontrei um valor do tipo %s",
			err.Expected, err.Found)
	case runtime.ErrArityMismatch:
		return fmt.Sprintf("a função espera %d argumento(s), mas recebeu %d",
			err.ExpectedArity, err.FoundArity)
	case runtime.ErrDivisionByZero:
		return "não é possível dividir por zero"
	case runtime.ErrUserRaised:
		return "erro lançado: " + runtime.Format(err.Value)
	case runtime.ErrStackOverflow:
		return "o limite de chamadas aninhadas foi excedido"
	case runtime.ErrNotCallable:
		return fmt.Sprintf("um valor do tipo %s não pode ser chamado como função", err.Found)
	case runtime.ErrNotIterable:
		return fmt.Sprintf("um valor do tipo %s não pode ser percorrido", err.Found)
	case runtime.ErrIndexOutOfBounds:
		return fmt.Sprintf("o índice %d está fora dos limites (tamanho %d)", err.Index, err.Length)
	case runtime.ErrInvalidIndex:
		return fmt.Sprintf("%s não é um índice válido", runtime.Format(runtime.NumberValue{Val: err.Bound}))
	case runtime.ErrWrongIndexType:
		return fmt.Sprintf("um valor do tipo %s não pode ser indexado", err.Found)
	case runtime.ErrInvalidRangeBounds:
		return fmt.Sprintf("%s não é um limite de intervalo válido",
			runtime.Format(runtime.NumberValue{Val: err.Bound}))
	case runtime.ErrInvalidKey:
		return "chaves de dicionário precisam ser textos ou números inteiros"
	case runtime.ErrKeyNotFound:
		return fmt.Sprintf("a chave %s não existe no dicionário", err.Key)
	case runtime.ErrImmutableText:
		return "textos são imutáveis"
	case runtime.ErrReassignModule:
		return "os vínculos de um módulo importado não podem ser reatribuídos"
	case runtime.ErrAssignToBuiltin:
		return fmt.Sprintf("`%s` pertence à biblioteca padrão e não pode ser reatribuído", err.Name)
	case runtime.ErrImportFailed:
		return "falha ao importar o módulo"
	default:
		return err.Error()
	}
}

// writeExcerpt prints the offending line with a caret run under the span.
func writeExcerpt(w io.Writer, span source.Span, lookup Lookup) {
	src, ok := lookup(span.Source)
	if !ok {
		return
	}

	line, col := source.LineColumn(src.Text, span.Start)
	fmt.Fprintf(w, " --> %s:%d:%d\n", src.Path, line, col)

	text := lineAt(src.Text, line)
	fmt.Fprintf(w, "    |\n%3d | %s\n    | %s\n", line, text, caret(col, span, text))
}

func location(span source.Span, lookup Lookup) string {
	src, ok := lookup(span.Source)
	if !ok {
		return ""
	}
	line, col := source.LineColumn(src.Text, span.Start)
	return fmt.Sprintf(" (%s:%d:%d)", src.Path, line, col)
}

func lineAt(text string, line int) string {
	lines := strings.Split(text, "\n")
	if line < 1 || line > len(lines) {
		return ""
	}
	return lines[line-1]
}

// caret underlines the span, clamped to the excerpted line.
func caret(col int, span source.Span, line string) string {
	width := span.End - span.Start
	if rest := len(line) - (col - 1); width > rest && rest > 0 {
		width = rest
	}
	if width < 1 {
		width = 1
	}
	return strings.Repeat(" ", col-1) + strings.Repeat("^", width)
}
