package driver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tenda-lang/tenda/pkg/ast"
	"github.com/tenda-lang/tenda/pkg/parser"
	"github.com/tenda-lang/tenda/pkg/runtime"
	"github.com/tenda-lang/tenda/pkg/scanner"
	"github.com/tenda-lang/tenda/pkg/source"
)

// Extensions recognized as Tenda source files, tried in order.
var Extensions = []string{".tnd", ".tenda"}

// SourceFile is one loaded source text, kept for diagnostic rendering.
type SourceFile struct {
	ID   source.ID
	Path string
	Text string
}

// Failure aggregates everything that can go wrong loading and running a
// module: host errors, lexical and syntax errors, or a runtime diagnostic.
// The reporting layer renders it against the loader's retained sources.
type Failure struct {
	Path    string
	Host    error
	Lexical []*scanner.LexicalError
	Syntax  []*parser.SyntaxError
	Runtime *runtime.RuntimeError
}

func (f *Failure) Error() string {
	switch {
	case f.Host != nil:
		return f.Host.Error()
	case len(f.Lexical) > 0:
		return fmt.Sprintf("%s: %s", f.Path, f.Lexical[0].Message)
	case len(f.Syntax) > 0:
		return fmt.Sprintf("%s: %s", f.Path, f.Syntax[0].Message)
	case f.Runtime != nil:
		return fmt.Sprintf("%s: %s", f.Path, f.Runtime.Error())
	default:
		return f.Path + ": falha desconhecida"
	}
}

// Loader resolves imports into a module graph and executes each module
// exactly once, in dependency order. Every module runs on its own stack; the
// only sharing between modules is the prelude below and the exported cells a
// ModuleValue exposes.
type Loader struct {
	platform   runtime.Platform
	prelude    *runtime.Environment
	maxDepth   int
	searchDirs []string

	modules map[string]*runtime.ModuleValue
	loading map[string]bool
	sources map[source.ID]*SourceFile

	// failure carries a nested module's diagnostics out through the
	// resolver, which can only signal a RuntimeError.
	failure *Failure
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithSearchDir adds a directory imports are resolved against after the
// importing file's own directory.
func WithSearchDir(dir string) LoaderOption {
	return func(l *Loader) {
		if dir != "" {
			l.searchDirs = append(l.searchDirs, dir)
		}
	}
}

// WithMaxDepth overrides the recursion ceiling of every module's runtime.
func WithMaxDepth(depth int) LoaderOption {
	return func(l *Loader) { l.maxDepth = depth }
}

// NewLoader builds a loader bound to the given platform.
func NewLoader(platform runtime.Platform, opts ...LoaderOption) *Loader {
	l := &Loader{
		platform: platform,
		prelude:  runtime.Prelude(),
		modules:  make(map[string]*runtime.ModuleValue),
		loading:  make(map[string]bool),
		sources:  make(map[source.ID]*SourceFile),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Source returns the retained source for a diagnostic's span.
func (l *Loader) Source(id source.ID) (*SourceFile, bool) {
	src, ok := l.sources[id]
	return src, ok
}

// Run loads and executes the entry file, returning the value of its last
// top-level expression. When the project has a manifest, the dependency
// install directory joins the import search path.
func (l *Loader) Run(entry string) (runtime.Value, error) {
	abs, err := filepath.Abs(entry)
	if err != nil {
		return nil, &Failure{Path: entry, Host: err}
	}

	if manifestPath, err := FindManifest(filepath.Dir(abs)); err == nil && manifestPath != "" {
		manifest, merr := LoadManifest(manifestPath)
		if merr != nil {
			return nil, &Failure{Path: manifestPath, Host: merr}
		}
		l.searchDirs = append(l.searchDirs, manifest.ModulesPath())
	}

	program, src, failure := l.parseFile(abs)
	if failure != nil {
		return nil, failure
	}

	rt := l.newRuntime(filepath.Dir(abs))
	value, rerr := rt.Eval(program)
	if rerr != nil {
		if l.failure != nil {
			return nil, l.failure
		}
		return nil, &Failure{Path: src.Path, Runtime: rerr}
	}
	return value, nil
}

// RunText executes source text directly, for the REPL and the playground.
func (l *Loader) RunText(text, name string) (runtime.Value, error) {
	program, src, failure := l.parseText(text, name)
	if failure != nil {
		return nil, failure
	}

	rt := l.newRuntime(".")
	value, rerr := rt.Eval(program)
	if rerr != nil {
		if l.failure != nil {
			return nil, l.failure
		}
		return nil, &Failure{Path: src.Path, Runtime: rerr}
	}
	return value, nil
}

func (l *Loader) newRuntime(importerDir string) *runtime.Runtime {
	opts := []runtime.Option{
		runtime.WithBase(l.prelude),
		runtime.WithModuleResolver(l.resolverFor(importerDir)),
	}
	if l.maxDepth > 0 {
		opts = append(opts, runtime.WithMaxDepth(l.maxDepth))
	}
	return runtime.New(l.platform, opts...)
}

// resolverFor builds the import resolver for modules located in importerDir.
func (l *Loader) resolverFor(importerDir string) runtime.ModuleResolver {
	return func(path string) (*runtime.ModuleValue, *runtime.RuntimeError) {
		resolved, err := l.resolveImport(importerDir, path)
		if err != nil {
			l.failure = &Failure{Path: path, Host: err}
			return nil, runtime.NewError(runtime.ErrImportFailed)
		}
		module, failure := l.loadModule(resolved)
		if failure != nil {
			l.failure = failure
			return nil, runtime.NewError(runtime.ErrImportFailed)
		}
		return module, nil
	}
}

// resolveImport maps an import path to a source file: first against the
// importing file's directory, then against each search directory. A path
// naming a directory resolves to its `principal` file.
func (l *Loader) resolveImport(importerDir, path string) (string, error) {
	roots := append([]string{importerDir}, l.searchDirs...)
	for _, root := range roots {
		base := filepath.Join(root, filepath.FromSlash(path))
		for _, ext := range Extensions {
			if found, ok := fileExists(base + ext); ok {
				return found, nil
			}
		}
		if info, err := os.Stat(base); err == nil && info.IsDir() {
			for _, ext := range Extensions {
				if found, ok := fileExists(filepath.Join(base, "principal"+ext)); ok {
					return found, nil
				}
			}
		}
	}
	return "", fmt.Errorf("módulo %q não encontrado", path)
}

func fileExists(path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	return abs, true
}

// loadModule executes a module once and caches its exported surface. A
// module reached again while still executing is an import cycle.
func (l *Loader) loadModule(path string) (*runtime.ModuleValue, *Failure) {
	if module, ok := l.modules[path]; ok {
		return module, nil
	}
	if l.loading[path] {
		return nil, &Failure{
			Path: path,
			Host: fmt.Errorf("importação circular envolvendo %s", path),
		}
	}

	program, src, failure := l.parseFile(path)
	if failure != nil {
		return nil, failure
	}

	l.loading[path] = true
	defer delete(l.loading, path)

	rt := l.newRuntime(filepath.Dir(path))
	if _, err := rt.Eval(program); err != nil {
		if l.failure != nil {
			return nil, l.failure
		}
		return nil, &Failure{Path: src.Path, Runtime: err}
	}

	module := &runtime.ModuleValue{
		Name:     moduleName(path),
		Bindings: rt.Exports(),
	}
	l.modules[path] = module
	return module, nil
}

func moduleName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (l *Loader) parseFile(path string) (*ast.Program, *SourceFile, *Failure) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, &Failure{Path: path, Host: err}
	}
	return l.parseText(string(data), path)
}

func (l *Loader) parseText(text, name string) (*ast.Program, *SourceFile, *Failure) {
	src := &SourceFile{ID: source.NewID(), Path: name, Text: text}
	l.sources[src.ID] = src

	tokens, lexErrs := scanner.New(text, src.ID).Scan()
	if len(lexErrs) > 0 {
		return nil, src, &Failure{Path: name, Lexical: lexErrs}
	}
	program, synErrs := parser.Parse(tokens)
	if len(synErrs) > 0 {
		return nil, src, &Failure{Path: name, Syntax: synErrs}
	}
	return program, src, nil
}
