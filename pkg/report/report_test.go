package report_test

import (
	"strings"
	"testing"

	"github.com/tenda-lang/tenda/pkg/driver"
	"github.com/tenda-lang/tenda/pkg/parser"
	"github.com/tenda-lang/tenda/pkg/report"
	"github.com/tenda-lang/tenda/pkg/runtime"
	"github.com/tenda-lang/tenda/pkg/scanner"
	"github.com/tenda-lang/tenda/pkg/source"
)

func renderRuntime(t *testing.T, src string) string {
	t.Helper()
	id := source.NewID()
	file := &driver.SourceFile{ID: id, Path: "teste.tnd", Text: src}
	lookup := func(want source.ID) (*driver.SourceFile, bool) {
		return file, want == id
	}

	tokens, lexErrs := scanner.New(src, id).Scan()
	if len(lexErrs) > 0 {
		t.Fatalf("scan: %v", lexErrs[0])
	}
	program, synErrs := parser.Parse(tokens)
	if len(synErrs) > 0 {
		t.Fatalf("parse: %v", synErrs[0])
	}

	rt := runtime.New(&runtime.RecordingPlatform{}, runtime.WithBase(runtime.Prelude()))
	_, err := rt.Eval(program)
	if err == nil {
		t.Fatal("expected a runtime diagnostic")
	}

	var out strings.Builder
	report.Render(&out, &driver.Failure{Path: "teste.tnd", Runtime: err}, lookup)
	return out.String()
}

func TestRenderUndefinedVariable(t *testing.T) {
	out := renderRuntime(t, "seja x = 1\nx + fantasma")
	for _, want := range []string{
		"a variável `fantasma` não foi definida",
		"teste.tnd:2:5",
		"x + fantasma",
		"^^^^^^^^",
		"ajuda:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRenderTypeMismatch(t *testing.T) {
	out := renderRuntime(t, "[1] - 2")
	if !strings.Contains(out, "não é possível subtrair um valor do tipo lista e um valor do tipo número") {
		t.Fatalf("wrong headline:\n%s", out)
	}
}

func TestRenderCallTrace(t *testing.T) {
	out := renderRuntime(t, `
função interna()
  lance "quebrou"
fim
função externa()
  retorna interna()
fim
externa()`)
	if !strings.Contains(out, "erro lançado: quebrou") {
		t.Fatalf("wrong headline:\n%s", out)
	}
	internaIdx := strings.Index(out, "chamada a partir de `interna`")
	externaIdx := strings.Index(out, "chamada a partir de `externa`")
	if internaIdx < 0 || externaIdx < 0 || internaIdx > externaIdx {
		t.Fatalf("trace must unwind innermost first:\n%s", out)
	}
}

func TestRenderSyntaxError(t *testing.T) {
	id := source.NewID()
	src := "seja = 1"
	file := &driver.SourceFile{ID: id, Path: "teste.tnd", Text: src}

	tokens, _ := scanner.New(src, id).Scan()
	_, synErrs := parser.Parse(tokens)
	if len(synErrs) == 0 {
		t.Fatal("expected a syntax error")
	}

	var out strings.Builder
	report.Render(&out, &driver.Failure{Path: "teste.tnd", Syntax: synErrs}, func(want source.ID) (*driver.SourceFile, bool) {
		return file, want == id
	})
	if !strings.Contains(out.String(), "esperava o nome da variável") {
		t.Fatalf("wrong message:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "teste.tnd:1:6") {
		t.Fatalf("wrong location:\n%s", out.String())
	}
}
