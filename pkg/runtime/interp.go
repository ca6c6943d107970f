// Package runtime executes Tenda syntax trees with a recursive tree-walking
// evaluator: no bytecode, no VM, no implicit concurrency. Statement and
// expression evaluation run to completion in strict program order.
package runtime

import (
	"math"
	"strings"

	"github.com/tenda-lang/tenda/pkg/ast"
	"github.com/tenda-lang/tenda/pkg/source"
)

// ModuleResolver maps an import path to the already-executed module's
// exported surface. The driver installs one; a bare Runtime rejects imports.
type ModuleResolver func(path string) (*ModuleValue, *RuntimeError)

// Runtime is one in-flight execution. It exclusively owns its Stack;
// embedding hosts run one program per Runtime and may discard it at any
// point with no cleanup.
type Runtime struct {
	stack    *Stack
	platform Platform
	resolver ModuleResolver
	exports  map[string]Cell
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithBase seeds resolution with a read-only base environment (the prelude).
func WithBase(base *Environment) Option {
	return func(rt *Runtime) { rt.stack = NewStackWithBase(base) }
}

// WithMaxDepth overrides the recursion ceiling.
func WithMaxDepth(depth int) Option {
	return func(rt *Runtime) { rt.stack.SetMaxDepth(depth) }
}

// WithModuleResolver installs the import resolver.
func WithModuleResolver(resolver ModuleResolver) Option {
	return func(rt *Runtime) { rt.resolver = resolver }
}

// New builds a Runtime bound to the given platform.
func New(platform Platform, opts ...Option) *Runtime {
	rt := &Runtime{
		stack:    NewStack(),
		platform: platform,
		exports:  make(map[string]Cell),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Platform exposes the host bindings to the prelude.
func (rt *Runtime) Platform() Platform { return rt.platform }

// Stack exposes the live scope chain, mainly to tests asserting frame balance.
func (rt *Runtime) Stack() *Stack { return rt.stack }

// Exports returns the cells of top-level bindings declared with `exporte`,
// preserving their Shared or Owned character.
func (rt *Runtime) Exports() map[string]Cell { return rt.exports }

// Eval executes a program's top-level statements in the global scope and
// returns the value of the last expression statement, or the first
// unrecovered diagnostic.
func (rt *Runtime) Eval(prog *ast.Program) (Value, *RuntimeError) {
	var last Value = NilValue{}
	for _, stmt := range prog.Stmts {
		sig := rt.execStmt(stmt)
		switch sig.Kind {
		case SignalNormal:
			last = sig.Value
		case SignalRaised:
			return nil, sig.Err
		default:
			// Return, break and continue cannot reach the top level:
			// the parser rejects them outside their constructs.
			return last, nil
		}
	}
	return last, nil
}

//-----------------------------------------------------------------------------
// Statements
//-----------------------------------------------------------------------------

func (rt *Runtime) execStmt(stmt ast.Stmt) Signal {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		v, err := rt.evalExpr(s.X)
		if err != nil {
			return raisedSignal(err.WithSpan(s.Loc))
		}
		return normalValue(v)
	case *ast.LetDecl:
		return rt.execLet(s)
	case *ast.FunctionDecl:
		return rt.execFunctionDecl(s)
	case *ast.Block:
		return rt.execBlock(s)
	case *ast.Cond:
		return rt.execCond(s)
	case *ast.While:
		return rt.execWhile(s)
	case *ast.ForEach:
		return rt.execForEach(s)
	case *ast.Return:
		return rt.execReturn(s)
	case *ast.Break:
		return Signal{Kind: SignalBreak}
	case *ast.Continue:
		return Signal{Kind: SignalContinue}
	case *ast.Raise:
		return rt.execRaise(s)
	case *ast.Try:
		return rt.execTry(s)
	case *ast.Import:
		return rt.execImport(s)
	default:
		panic("runtime: unknown statement variant")
	}
}

// execStmts runs a statement sequence, short-circuiting on the first
// non-Normal signal without executing the remaining siblings.
func (rt *Runtime) execStmts(stmts []ast.Stmt) Signal {
	sig := normalSignal()
	for _, stmt := range stmts {
		sig = rt.execStmt(stmt)
		if sig.Kind != SignalNormal {
			return sig
		}
	}
	return sig
}

func (rt *Runtime) execLet(decl *ast.LetDecl) Signal {
	value, err := rt.evalExpr(decl.Value)
	if err != nil {
		return raisedSignal(err.WithSpan(decl.Loc))
	}

	cell := NewCell(value, decl.Captured)
	if err := rt.stack.Define(decl.Name, cell); err != nil {
		err.WithSpan(decl.Loc).
			WithHelp("declare a variável com outro nome ou use `=` para atribuir um novo valor a ela")
		return raisedSignal(err)
	}

	rt.recordExport(decl.Exported, decl.Name, cell)
	return normalSignal()
}

func (rt *Runtime) execFunctionDecl(decl *ast.FunctionDecl) Signal {
	fn := rt.makeFunction(decl.Params, decl.Body, Metadata{
		SelfName: decl.Name,
		Span:     decl.Loc,
	})

	cell := NewCell(fn, decl.Captured)
	if err := rt.stack.Define(decl.Name, cell); err != nil {
		err.WithSpan(decl.Loc).WithHelp("declare a função com outro nome")
		return raisedSignal(err)
	}

	rt.recordExport(decl.Exported, decl.Name, cell)
	return normalSignal()
}

func (rt *Runtime) recordExport(exported bool, name string, cell Cell) {
	if exported && rt.stack.Depth() == 0 {
		rt.exports[name] = cell
	}
}

func (rt *Runtime) execBlock(block *ast.Block) Signal {
	if err := rt.stack.Push(NewFrame()); err != nil {
		return raisedSignal(err.WithSpan(block.Loc))
	}
	sig := rt.execStmts(block.Stmts)
	rt.stack.Pop()

	if sig.Kind == SignalNormal {
		return normalSignal()
	}
	return sig
}

func (rt *Runtime) execCond(cond *ast.Cond) Signal {
	test, err := rt.evalExpr(cond.Cond)
	if err != nil {
		return raisedSignal(err.WithSpan(cond.Loc))
	}

	if Truthy(test) {
		return rt.execStmt(cond.Then)
	}
	if cond.OrElse != nil {
		return rt.execStmt(cond.OrElse)
	}
	return normalSignal()
}

func (rt *Runtime) execWhile(loop *ast.While) Signal {
	for {
		test, err := rt.evalExpr(loop.Cond)
		if err != nil {
			return raisedSignal(err.WithSpan(loop.Loc))
		}
		if !Truthy(test) {
			return normalSignal()
		}

		sig := rt.execStmt(loop.Body)
		switch sig.Kind {
		case SignalNormal, SignalContinue:
		case SignalBreak:
			return normalSignal()
		default:
			return sig
		}
	}
}

func (rt *Runtime) execForEach(loop *ast.ForEach) Signal {
	iterable, err := rt.evalExpr(loop.Iterable)
	if err != nil {
		return raisedSignal(err.WithSpan(loop.Loc))
	}

	items, err := iterationItems(iterable)
	if err != nil {
		return raisedSignal(err.WithSpan(loop.Loc))
	}

	for _, item := range items {
		frame := NewFrame()
		frame.Env().Upsert(loop.Item, NewCell(item, loop.Captured))
		if err := rt.stack.Push(frame); err != nil {
			return raisedSignal(err.WithSpan(loop.Loc))
		}

		sig := rt.execStmt(loop.Body)
		rt.stack.Pop()

		switch sig.Kind {
		case SignalNormal, SignalContinue:
		case SignalBreak:
			return normalSignal()
		default:
			return sig
		}
	}
	return normalSignal()
}

// iterationItems snapshots the iterable, so mutating a list inside its own
// loop does not disturb the traversal.
func iterationItems(v Value) ([]Value, *RuntimeError) {
	switch v := v.(type) {
	case *ListValue:
		items := make([]Value, len(v.Elements))
		copy(items, v.Elements)
		return items, nil
	case RangeValue:
		if v.End < v.Start {
			return nil, nil
		}
		items := make([]Value, 0, v.End-v.Start+1)
		for i := v.Start; i <= v.End; i++ {
			items = append(items, NumberValue{Val: float64(i)})
		}
		return items, nil
	default:
		return nil, &RuntimeError{Kind: ErrNotIterable, Found: v.Kind()}
	}
}

func (rt *Runtime) execReturn(ret *ast.Return) Signal {
	if ret.Value == nil {
		return returnSignal(NilValue{})
	}
	value, err := rt.evalExpr(ret.Value)
	if err != nil {
		return raisedSignal(err.WithSpan(ret.Loc))
	}
	return returnSignal(value)
}

func (rt *Runtime) execRaise(raise *ast.Raise) Signal {
	value, err := rt.evalExpr(raise.Value)
	if err != nil {
		return raisedSignal(err.WithSpan(raise.Loc))
	}
	userErr := &RuntimeError{Kind: ErrUserRaised, Value: value}
	return raisedSignal(userErr.WithSpan(raise.Loc))
}

func (rt *Runtime) execTry(try *ast.Try) Signal {
	if err := rt.stack.Push(NewFrame()); err != nil {
		return raisedSignal(err.WithSpan(try.Loc))
	}
	sig := rt.execStmts(try.Body)
	rt.stack.Pop()

	if sig.Kind != SignalRaised {
		if sig.Kind == SignalNormal {
			return normalSignal()
		}
		return sig
	}
	if sig.Err.Fatal() {
		return sig
	}

	frame := NewFrame()
	frame.Env().Upsert(try.Name, NewCell(diagnosticValue(sig.Err), try.Captured))
	if err := rt.stack.Push(frame); err != nil {
		return raisedSignal(err.WithSpan(try.Loc))
	}
	handlerSig := rt.execStmts(try.Handler)
	rt.stack.Pop()

	if handlerSig.Kind == SignalNormal {
		return normalSignal()
	}
	return handlerSig
}

// diagnosticValue exposes a caught diagnostic to the handler as a dictionary.
func diagnosticValue(err *RuntimeError) Value {
	dict := NewDict()
	dict.Set(TextKey("tipo"), TextValue{Val: err.Kind.Tag()})
	dict.Set(TextKey("mensagem"), TextValue{Val: err.Error()})
	if err.Value != nil {
		dict.Set(TextKey("valor"), err.Value)
	} else {
		dict.Set(TextKey("valor"), NilValue{})
	}
	return dict
}

func (rt *Runtime) execImport(imp *ast.Import) Signal {
	if rt.resolver == nil {
		err := &RuntimeError{Kind: ErrUndefinedReference, Name: imp.Alias}
		return raisedSignal(err.WithSpan(imp.Loc).
			WithHelp("importações não estão disponíveis neste contexto"))
	}

	module, err := rt.resolver(imp.Path)
	if err != nil {
		return raisedSignal(err.WithSpan(imp.Loc))
	}

	if err := rt.stack.Define(imp.Alias, OwnedCell{Value: module}); err != nil {
		return raisedSignal(err.WithSpan(imp.Loc))
	}
	return normalSignal()
}

//-----------------------------------------------------------------------------
// Expressions
//-----------------------------------------------------------------------------

func (rt *Runtime) evalExpr(expr ast.Expr) (Value, *RuntimeError) {
	switch e := expr.(type) {
	case *ast.Literal:
		return literalValue(e), nil
	case *ast.Variable:
		return rt.evalVariable(e)
	case *ast.Grouping:
		return rt.evalExpr(e.X)
	case *ast.List:
		return rt.evalList(e)
	case *ast.Dictionary:
		return rt.evalDictionary(e)
	case *ast.FunctionLit:
		return rt.makeFunction(e.Params, e.Body, Metadata{Span: e.Loc}), nil
	case *ast.Unary:
		return rt.evalUnary(e)
	case *ast.Binary:
		return rt.evalBinary(e)
	case *ast.Access:
		return rt.evalAccess(e)
	case *ast.Assign:
		return rt.evalAssign(e)
	case *ast.Call:
		return rt.evalCall(e)
	default:
		panic("runtime: unknown expression variant")
	}
}

func literalValue(lit *ast.Literal) Value {
	switch lit.Kind {
	case ast.LiteralNumber:
		return NumberValue{Val: lit.Number}
	case ast.LiteralText:
		return TextValue{Val: lit.Text}
	case ast.LiteralBoolean:
		return BooleanValue{Val: lit.Boolean}
	default:
		return NilValue{}
	}
}

func (rt *Runtime) evalVariable(v *ast.Variable) (Value, *RuntimeError) {
	cell, ok := rt.stack.Lookup(v.Name)
	if !ok {
		err := &RuntimeError{Kind: ErrUndefinedReference, Name: v.Name}
		return nil, err.WithSpan(v.Loc).
			WithHelp("você precisa definir a variável antes de usá-la: `seja " + v.Name + " = ...`")
	}
	return cell.Get(), nil
}

func (rt *Runtime) evalList(list *ast.List) (Value, *RuntimeError) {
	elements := make([]Value, 0, len(list.Elements))
	for _, e := range list.Elements {
		v, err := rt.evalExpr(e)
		if err != nil {
			return nil, err
		}
		elements = append(elements, v)
	}
	return &ListValue{Elements: elements}, nil
}

func (rt *Runtime) evalDictionary(lit *ast.Dictionary) (Value, *RuntimeError) {
	dict := NewDict()
	for _, entry := range lit.Entries {
		key, err := resolveKey(literalValue(entry.Key))
		if err != nil {
			return nil, err.WithSpan(entry.Key.Loc)
		}
		value, verr := rt.evalExpr(entry.Value)
		if verr != nil {
			return nil, verr
		}
		dict.Set(key, value)
	}
	return dict, nil
}

func (rt *Runtime) evalUnary(unary *ast.Unary) (Value, *RuntimeError) {
	rhs, err := rt.evalExpr(unary.RHS)
	if err != nil {
		return nil, err
	}

	switch unary.Op {
	case ast.OpNegative:
		n, ok := rhs.(NumberValue)
		if !ok {
			err := &RuntimeError{Kind: ErrUnexpectedType, Expected: KindNumber, Found: rhs.Kind()}
			return nil, err.WithSpan(unary.Loc)
		}
		return NumberValue{Val: -n.Val}, nil
	case ast.OpLogicalNot:
		return BooleanValue{Val: !Truthy(rhs)}, nil
	default:
		panic("runtime: unknown unary operator")
	}
}

func (rt *Runtime) evalBinary(binary *ast.Binary) (Value, *RuntimeError) {
	lhs, err := rt.evalExpr(binary.LHS)
	if err != nil {
		return nil, err
	}

	// Logical operators short-circuit and yield the deciding operand.
	switch binary.Op {
	case ast.OpLogicalAnd:
		if !Truthy(lhs) {
			return lhs, nil
		}
		return rt.evalExpr(binary.RHS)
	case ast.OpLogicalOr:
		if Truthy(lhs) {
			return lhs, nil
		}
		return rt.evalExpr(binary.RHS)
	}

	rhs, err := rt.evalExpr(binary.RHS)
	if err != nil {
		return nil, err
	}

	v, err := applyBinary(binary.Op, lhs, rhs)
	if err != nil {
		return nil, err.WithSpan(binary.Loc)
	}
	return v, nil
}

func applyBinary(op ast.BinaryOperator, lhs, rhs Value) (Value, *RuntimeError) {
	switch op {
	case ast.OpAdd:
		switch l := lhs.(type) {
		case NumberValue:
			if r, ok := rhs.(NumberValue); ok {
				return NumberValue{Val: l.Val + r.Val}, nil
			}
		case *ListValue:
			if r, ok := rhs.(*ListValue); ok {
				joined := make([]Value, 0, len(l.Elements)+len(r.Elements))
				joined = append(joined, l.Elements...)
				joined = append(joined, r.Elements...)
				return &ListValue{Elements: joined}, nil
			}
		}
		// Text concatenates with anything on either side.
		if _, ok := lhs.(TextValue); ok {
			return TextValue{Val: Format(lhs) + Format(rhs)}, nil
		}
		if _, ok := rhs.(TextValue); ok {
			return TextValue{Val: Format(lhs) + Format(rhs)}, nil
		}
		return nil, typeMismatch("somar", lhs, rhs)
	case ast.OpSubtract:
		if l, r, ok := numberOperands(lhs, rhs); ok {
			return NumberValue{Val: l - r}, nil
		}
		return nil, typeMismatch("subtrair", lhs, rhs)
	case ast.OpMultiply:
		if l, r, ok := numberOperands(lhs, rhs); ok {
			return NumberValue{Val: l * r}, nil
		}
		return nil, typeMismatch("multiplicar", lhs, rhs)
	case ast.OpDivide:
		l, r, ok := numberOperands(lhs, rhs)
		if !ok {
			return nil, typeMismatch("dividir", lhs, rhs)
		}
		if r == 0 {
			return nil, NewError(ErrDivisionByZero)
		}
		return NumberValue{Val: l / r}, nil
	case ast.OpModulo:
		if l, r, ok := numberOperands(lhs, rhs); ok {
			return NumberValue{Val: math.Mod(l, r)}, nil
		}
		return nil, typeMismatch("encontrar o resto da divisão de", lhs, rhs)
	case ast.OpExponent:
		if l, r, ok := numberOperands(lhs, rhs); ok {
			return NumberValue{Val: math.Pow(l, r)}, nil
		}
		return nil, typeMismatch("elevar", lhs, rhs)
	case ast.OpEquality:
		return BooleanValue{Val: Equal(lhs, rhs)}, nil
	case ast.OpInequality:
		return BooleanValue{Val: !Equal(lhs, rhs)}, nil
	case ast.OpGreater, ast.OpGreaterOrEqual, ast.OpLess, ast.OpLessOrEqual:
		return compareOrdered(op, lhs, rhs)
	case ast.OpRange:
		return makeRange(lhs, rhs)
	case ast.OpHas:
		return contains(lhs, rhs)
	case ast.OpLacks:
		v, err := contains(lhs, rhs)
		if err != nil {
			return nil, err
		}
		return BooleanValue{Val: !v.(BooleanValue).Val}, nil
	default:
		panic("runtime: unknown binary operator")
	}
}

func numberOperands(lhs, rhs Value) (float64, float64, bool) {
	l, lok := lhs.(NumberValue)
	r, rok := rhs.(NumberValue)
	if !lok || !rok {
		return 0, 0, false
	}
	return l.Val, r.Val, true
}

func typeMismatch(operation string, lhs, rhs Value) *RuntimeError {
	return &RuntimeError{
		Kind:      ErrTypeMismatch,
		First:     lhs.Kind(),
		Second:    rhs.Kind(),
		Operation: operation,
	}
}

func compareOrdered(op ast.BinaryOperator, lhs, rhs Value) (Value, *RuntimeError) {
	var cmp int
	switch l := lhs.(type) {
	case NumberValue:
		r, ok := rhs.(NumberValue)
		if !ok {
			return nil, typeMismatch("comparar", lhs, rhs)
		}
		switch {
		case l.Val < r.Val:
			cmp = -1
		case l.Val > r.Val:
			cmp = 1
		}
	case TextValue:
		r, ok := rhs.(TextValue)
		if !ok {
			return nil, typeMismatch("comparar", lhs, rhs)
		}
		switch {
		case l.Val < r.Val:
			cmp = -1
		case l.Val > r.Val:
			cmp = 1
		}
	default:
		return nil, typeMismatch("comparar", lhs, rhs)
	}

	switch op {
	case ast.OpGreater:
		return BooleanValue{Val: cmp > 0}, nil
	case ast.OpGreaterOrEqual:
		return BooleanValue{Val: cmp >= 0}, nil
	case ast.OpLess:
		return BooleanValue{Val: cmp < 0}, nil
	default:
		return BooleanValue{Val: cmp <= 0}, nil
	}
}

func makeRange(lhs, rhs Value) (Value, *RuntimeError) {
	l, lok := lhs.(NumberValue)
	r, rok := rhs.(NumberValue)
	if !lok || !rok {
		return nil, typeMismatch("criar um intervalo entre", lhs, rhs)
	}
	if !isWhole(l.Val) || l.Val < 0 {
		return nil, &RuntimeError{Kind: ErrInvalidRangeBounds, Bound: l.Val}
	}
	if !isWhole(r.Val) || r.Val < 0 {
		return nil, &RuntimeError{Kind: ErrInvalidRangeBounds, Bound: r.Val}
	}
	return RangeValue{Start: int(l.Val), End: int(r.Val)}, nil
}

func isWhole(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v) && math.Trunc(v) == v
}

func contains(container, item Value) (Value, *RuntimeError) {
	switch c := container.(type) {
	case *ListValue:
		for _, e := range c.Elements {
			if Equal(e, item) {
				return BooleanValue{Val: true}, nil
			}
		}
		return BooleanValue{Val: false}, nil
	case *DictValue:
		key, err := resolveKey(item)
		if err != nil {
			return nil, err
		}
		return BooleanValue{Val: c.Has(key)}, nil
	case TextValue:
		if needle, ok := item.(TextValue); ok {
			return BooleanValue{Val: strings.Contains(c.Val, needle.Val)}, nil
		}
		return nil, typeMismatch("verificar se", container, item)
	default:
		return nil, typeMismatch("verificar se", container, item)
	}
}

func resolveKey(v Value) (DictKey, *RuntimeError) {
	switch v := v.(type) {
	case TextValue:
		return TextKey(v.Val), nil
	case NumberValue:
		if !isWhole(v.Val) {
			return DictKey{}, &RuntimeError{Kind: ErrInvalidKey, Bound: v.Val}
		}
		return NumberKey(int64(v.Val)), nil
	default:
		return DictKey{}, &RuntimeError{Kind: ErrInvalidKey, Found: v.Kind()}
	}
}

func (rt *Runtime) evalAccess(access *ast.Access) (Value, *RuntimeError) {
	subscripted, err := rt.evalExpr(access.Subscripted)
	if err != nil {
		return nil, err
	}

	switch s := subscripted.(type) {
	case *ListValue:
		index, err := rt.resolveIndex(access.Index)
		if err != nil {
			return nil, err
		}
		if index >= len(s.Elements) {
			err := &RuntimeError{Kind: ErrIndexOutOfBounds, Index: index, Length: len(s.Elements)}
			return nil, err.WithSpan(access.Index.Span()).
				WithHelp("verifique se o índice está dentro dos limites da lista antes de acessá-lo")
		}
		return s.Elements[index], nil
	case TextValue:
		index, err := rt.resolveIndex(access.Index)
		if err != nil {
			return nil, err
		}
		runes := []rune(s.Val)
		if index >= len(runes) {
			err := &RuntimeError{Kind: ErrIndexOutOfBounds, Index: index, Length: len(runes)}
			return nil, err.WithSpan(access.Index.Span())
		}
		return TextValue{Val: string(runes[index])}, nil
	case *DictValue:
		keyVal, err := rt.evalExpr(access.Index)
		if err != nil {
			return nil, err
		}
		key, kerr := resolveKey(keyVal)
		if kerr != nil {
			return nil, kerr.WithSpan(access.Index.Span())
		}
		value, ok := s.Get(key)
		if !ok {
			err := &RuntimeError{Kind: ErrKeyNotFound, Key: key}
			return nil, err.WithSpan(access.Index.Span())
		}
		return value, nil
	case *ModuleValue:
		keyVal, err := rt.evalExpr(access.Index)
		if err != nil {
			return nil, err
		}
		name, ok := keyVal.(TextValue)
		if !ok {
			err := &RuntimeError{Kind: ErrInvalidKey, Found: keyVal.Kind()}
			return nil, err.WithSpan(access.Index.Span())
		}
		cell, found := s.Bindings[name.Val]
		if !found {
			err := &RuntimeError{Kind: ErrKeyNotFound, Key: TextKey(name.Val)}
			return nil, err.WithSpan(access.Index.Span()).
				WithHelp("somente vínculos marcados com `exporte` ficam visíveis fora do módulo")
		}
		return cell.Get(), nil
	default:
		err := &RuntimeError{Kind: ErrWrongIndexType, Found: subscripted.Kind()}
		return nil, err.WithSpan(access.Loc)
	}
}

func (rt *Runtime) resolveIndex(expr ast.Expr) (int, *RuntimeError) {
	v, err := rt.evalExpr(expr)
	if err != nil {
		return 0, err
	}
	n, ok := v.(NumberValue)
	if !ok {
		err := &RuntimeError{Kind: ErrUnexpectedType, Expected: KindNumber, Found: v.Kind()}
		return 0, err.WithSpan(expr.Span())
	}
	if !isWhole(n.Val) || n.Val < 0 {
		err := &RuntimeError{Kind: ErrInvalidIndex, Bound: n.Val}
		return 0, err.WithSpan(expr.Span())
	}
	return int(n.Val), nil
}

func (rt *Runtime) evalAssign(assign *ast.Assign) (Value, *RuntimeError) {
	switch target := assign.Target.(type) {
	case *ast.Variable:
		value, err := rt.evalExpr(assign.Value)
		if err != nil {
			return nil, err
		}
		if err := rt.stack.Assign(target.Name, value); err != nil {
			if err.Kind == ErrUndefinedReference {
				err.WithHelp("talvez você queria declarar a variável: `seja " + target.Name + " = ...`")
			}
			return nil, err.WithSpan(assign.Loc)
		}
		return value, nil
	case *ast.Access:
		return rt.evalAccessAssign(target, assign.Value)
	default:
		panic("runtime: invalid assignment target survived parsing")
	}
}

func (rt *Runtime) evalAccessAssign(target *ast.Access, valueExpr ast.Expr) (Value, *RuntimeError) {
	subscripted, err := rt.evalExpr(target.Subscripted)
	if err != nil {
		return nil, err
	}

	switch s := subscripted.(type) {
	case *ListValue:
		value, err := rt.evalExpr(valueExpr)
		if err != nil {
			return nil, err
		}
		index, ierr := rt.resolveIndex(target.Index)
		if ierr != nil {
			return nil, ierr
		}
		if index >= len(s.Elements) {
			oob := &RuntimeError{Kind: ErrIndexOutOfBounds, Index: index, Length: len(s.Elements)}
			return nil, oob.WithSpan(target.Index.Span()).
				WithHelp("para adicionar um novo elemento à lista, use `Lista.insira`")
		}
		s.Elements[index] = value
		return value, nil
	case *DictValue:
		value, err := rt.evalExpr(valueExpr)
		if err != nil {
			return nil, err
		}
		keyVal, kerr := rt.evalExpr(target.Index)
		if kerr != nil {
			return nil, kerr
		}
		key, rerr := resolveKey(keyVal)
		if rerr != nil {
			return nil, rerr.WithSpan(target.Index.Span())
		}
		s.Set(key, value)
		return value, nil
	case TextValue:
		err := NewError(ErrImmutableText)
		return nil, err.WithSpan(target.Loc).
			WithHelp("crie um novo texto concatenando: `texto = texto + ...`")
	case *ModuleValue:
		return nil, NewError(ErrReassignModule).WithSpan(target.Loc)
	default:
		err := &RuntimeError{Kind: ErrWrongIndexType, Found: subscripted.Kind()}
		return nil, err.WithSpan(target.Loc)
	}
}

//-----------------------------------------------------------------------------
// Calls and closures
//-----------------------------------------------------------------------------

func (rt *Runtime) evalCall(call *ast.Call) (Value, *RuntimeError) {
	callee, err := rt.evalExpr(call.Callee)
	if err != nil {
		return nil, err
	}

	args := make([]Value, 0, len(call.Args))
	for _, arg := range call.Args {
		v, err := rt.evalExpr(arg)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	return rt.CallValue(callee, args, call.Loc)
}

// CallValue invokes a callable with already-evaluated arguments. The prelude
// uses it to run user callbacks.
func (rt *Runtime) CallValue(callee Value, args []Value, span source.Span) (Value, *RuntimeError) {
	switch fn := callee.(type) {
	case *FunctionValue:
		if len(args) != fn.Arity() {
			err := &RuntimeError{Kind: ErrArityMismatch, ExpectedArity: fn.Arity(), FoundArity: len(args)}
			return nil, err.WithSpan(span)
		}
		return rt.callFunction(fn, args, span)
	case NativeFunctionValue:
		if len(args) != fn.Arity() {
			err := &RuntimeError{Kind: ErrArityMismatch, ExpectedArity: fn.Arity(), FoundArity: len(args)}
			return nil, err.WithSpan(span)
		}
		v, err := fn.Impl(rt, args)
		if err != nil {
			err.WithSpan(span)
			err.PushTrace(fn.Name, span)
			return nil, err
		}
		return v, nil
	default:
		err := &RuntimeError{Kind: ErrNotCallable, Found: callee.Kind()}
		return nil, err.WithSpan(span)
	}
}

// callFunction implements the call protocol: push one frame seeded from the
// closure's captured snapshot plus fresh parameter bindings, execute the
// body, pop on every exit path, and turn a Return signal into the call's
// value. Normal completion yields Nada.
func (rt *Runtime) callFunction(fn *FunctionValue, args []Value, span source.Span) (Value, *RuntimeError) {
	frame := NewCallFrame(fn.Env.Clone(), fn.Meta.SelfName)

	for i, param := range fn.Params {
		frame.Env().Upsert(param.Name, NewCell(args[i], param.Captured))
	}

	// Self-reference for recursion: bound into the call frame, not the
	// captured snapshot, unless a parameter shadows the name.
	if fn.Meta.SelfName != "" && !frame.Env().Has(fn.Meta.SelfName) {
		frame.Env().Upsert(fn.Meta.SelfName, OwnedCell{Value: fn})
	}

	if err := rt.stack.Push(frame); err != nil {
		return nil, err.WithSpan(span)
	}
	sig := rt.execStmts(fn.Body.Stmts)
	rt.stack.Pop()

	switch sig.Kind {
	case SignalReturn:
		return sig.Value, nil
	case SignalRaised:
		sig.Err.PushTrace(fn.Meta.SelfName, span)
		return nil, sig.Err
	default:
		return NilValue{}, nil
	}
}

// makeFunction builds a closure. The captured snapshot starts empty and
// receives every Shared cell reachable on the stack, innermost binding
// winning, except names shadowed by the parameters: a parameter always
// shadows an outer capture. Owned cells are never captured; a binding no
// closure references is unobservable outside its scope, so skipping it is
// behaviour preserving.
func (rt *Runtime) makeFunction(params []*ast.Param, body *ast.Block, meta Metadata) *FunctionValue {
	captured := NewEnvironment()

	rt.stack.Reachable(func(env *Environment) {
		env.Each(func(name string, cell Cell) {
			if !cell.Shared() {
				return
			}
			for _, param := range params {
				if param.Name == name {
					return
				}
			}
			captured.Upsert(name, cell)
		})
	})

	runtimeParams := make([]Param, len(params))
	for i, p := range params {
		runtimeParams[i] = Param{Name: p.Name, Captured: p.Captured}
	}

	fn := NewFunction(runtimeParams, captured, body)
	fn.Meta = meta
	return fn
}
