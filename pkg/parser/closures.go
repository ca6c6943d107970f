package parser

import "github.com/tenda-lang/tenda/pkg/ast"

// analyzeCaptures walks the program and flags every binding referenced from a
// function nested below the scope that declared it. The runtime backs flagged
// bindings with shared cells; everything else stays in a private owned cell.
//
// The analysis runs once, after parsing: cell flavour is a static property of
// the declaration site, never renegotiated at run time.
func analyzeCaptures(program *ast.Program) {
	a := &captureAnalyzer{}
	a.pushScope()
	for _, stmt := range program.Stmts {
		a.stmt(stmt)
	}
	a.popScope()
}

// binding ties a name to its declaration's capture flag and the function
// nesting depth where it was declared.
type binding struct {
	capturedFlag *bool
	fnDepth      int
}

type captureAnalyzer struct {
	scopes  []map[string]*binding
	fnDepth int
}

func (a *captureAnalyzer) pushScope() {
	a.scopes = append(a.scopes, make(map[string]*binding))
}

func (a *captureAnalyzer) popScope() {
	a.scopes = a.scopes[:len(a.scopes)-1]
}

func (a *captureAnalyzer) declare(name string, capturedFlag *bool) {
	a.scopes[len(a.scopes)-1][name] = &binding{
		capturedFlag: capturedFlag,
		fnDepth:      a.fnDepth,
	}
}

// reference resolves name through the scope chain. A hit declared in an
// enclosing function marks the declaration captured; the flag also lands on
// the reference so the runtime knows it reads a shared cell.
func (a *captureAnalyzer) reference(name string, refFlag *bool) {
	for i := len(a.scopes) - 1; i >= 0; i-- {
		b, ok := a.scopes[i][name]
		if !ok {
			continue
		}
		if b.fnDepth < a.fnDepth {
			*b.capturedFlag = true
			if refFlag != nil {
				*refFlag = true
			}
		}
		return
	}
	// Unresolved names are prelude bindings or run-time errors; neither
	// involves capture.
}

func (a *captureAnalyzer) stmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		a.expr(s.X)
	case *ast.LetDecl:
		a.expr(s.Value)
		a.declare(s.Name, &s.Captured)
	case *ast.FunctionDecl:
		a.declare(s.Name, &s.Captured)
		a.function(s.Params, s.Body)
	case *ast.Block:
		a.pushScope()
		for _, inner := range s.Stmts {
			a.stmt(inner)
		}
		a.popScope()
	case *ast.Cond:
		a.expr(s.Cond)
		a.stmt(s.Then)
		if s.OrElse != nil {
			a.stmt(s.OrElse)
		}
	case *ast.While:
		a.expr(s.Cond)
		a.stmt(s.Body)
	case *ast.ForEach:
		a.expr(s.Iterable)
		a.pushScope()
		a.declare(s.Item, &s.Captured)
		a.stmt(s.Body)
		a.popScope()
	case *ast.Return:
		if s.Value != nil {
			a.expr(s.Value)
		}
	case *ast.Raise:
		a.expr(s.Value)
	case *ast.Try:
		a.pushScope()
		for _, inner := range s.Body {
			a.stmt(inner)
		}
		a.popScope()
		a.pushScope()
		a.declare(s.Name, &s.Captured)
		for _, inner := range s.Handler {
			a.stmt(inner)
		}
		a.popScope()
	case *ast.Import:
		// The alias binds an immutable module value; modules are resolved
		// by name at the top level and never need a shared cell.
	case *ast.Break, *ast.Continue:
	}
}

func (a *captureAnalyzer) expr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.Variable:
		a.reference(e.Name, &e.Captured)
	case *ast.Literal:
	case *ast.Grouping:
		a.expr(e.X)
	case *ast.Unary:
		a.expr(e.RHS)
	case *ast.Binary:
		a.expr(e.LHS)
		a.expr(e.RHS)
	case *ast.Call:
		a.expr(e.Callee)
		for _, arg := range e.Args {
			a.expr(arg)
		}
	case *ast.Assign:
		a.expr(e.Target)
		a.expr(e.Value)
	case *ast.Access:
		a.expr(e.Subscripted)
		a.expr(e.Index)
	case *ast.List:
		for _, element := range e.Elements {
			a.expr(element)
		}
	case *ast.Dictionary:
		for _, entry := range e.Entries {
			a.expr(entry.Value)
		}
	case *ast.FunctionLit:
		a.function(e.Params, e.Body)
	}
}

// function analyzes a body one function level deeper, with the parameters
// declared in a fresh scope at that depth.
func (a *captureAnalyzer) function(params []*ast.Param, body *ast.Block) {
	a.fnDepth++
	a.pushScope()
	for _, param := range params {
		a.declare(param.Name, &param.Captured)
	}
	// The body block pushes its own scope in stmt; statements declared
	// there can shadow the parameters.
	a.stmt(body)
	a.popScope()
	a.fnDepth--
}
