package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/tenda-lang/tenda/pkg/driver"
	"github.com/tenda-lang/tenda/pkg/parser"
	"github.com/tenda-lang/tenda/pkg/report"
	"github.com/tenda-lang/tenda/pkg/runtime"
	"github.com/tenda-lang/tenda/pkg/scanner"
	"github.com/tenda-lang/tenda/pkg/source"
)

// runRepl evaluates lines against one persistent runtime, so bindings from
// earlier lines stay visible. An unterminated block keeps reading lines.
func runRepl() int {
	fmt.Println(cliVersion)
	fmt.Println("escreva `sair` para encerrar")

	rt := runtime.New(runtime.NewOSPlatform(), runtime.WithBase(runtime.Prelude()))
	sources := make(map[source.ID]*driver.SourceFile)
	lookup := func(id source.ID) (*driver.SourceFile, bool) {
		src, ok := sources[id]
		return src, ok
	}

	stdin := bufio.NewScanner(os.Stdin)
	var buffer strings.Builder

	for {
		prompt := "> "
		if buffer.Len() > 0 {
			prompt = "… "
		}
		fmt.Print(prompt)

		if !stdin.Scan() {
			fmt.Println()
			return 0
		}
		line := stdin.Text()
		if buffer.Len() == 0 && strings.TrimSpace(line) == "sair" {
			return 0
		}

		buffer.WriteString(line)
		buffer.WriteString("\n")
		text := buffer.String()

		id := source.NewID()
		sources[id] = &driver.SourceFile{ID: id, Path: "repl", Text: text}

		tokens, lexErrs := scanner.New(text, id).Scan()
		if len(lexErrs) > 0 {
			buffer.Reset()
			report.Render(os.Stderr, &driver.Failure{Path: "repl", Lexical: lexErrs}, lookup)
			continue
		}

		program, synErrs := parser.Parse(tokens)
		if len(synErrs) > 0 {
			if unterminated(synErrs) {
				continue
			}
			buffer.Reset()
			report.Render(os.Stderr, &driver.Failure{Path: "repl", Syntax: synErrs}, lookup)
			continue
		}
		buffer.Reset()

		value, err := rt.Eval(program)
		if err != nil {
			report.Render(os.Stderr, &driver.Failure{Path: "repl", Runtime: err}, lookup)
			if err.Fatal() {
				return 1
			}
			continue
		}
		if _, isNil := value.(runtime.NilValue); !isNil {
			fmt.Println(runtime.Format(value))
		}
	}
}

// unterminated reports whether every error is an open block, meaning the
// user is mid-way through typing one.
func unterminated(errs []*parser.SyntaxError) bool {
	for _, err := range errs {
		if !strings.Contains(err.Message, "não terminado") {
			return false
		}
	}
	return len(errs) > 0
}
