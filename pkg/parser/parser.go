// Package parser builds the syntax tree from tokens and runs the capture
// analysis that decides which bindings need shared cells at run time.
package parser

import (
	"fmt"

	"github.com/tenda-lang/tenda/pkg/ast"
	"github.com/tenda-lang/tenda/pkg/scanner"
	"github.com/tenda-lang/tenda/pkg/source"
)

// Parser is a recursive-descent parser over one token stream. Statements are
// separated by newlines; blocks close with `fim`.
type Parser struct {
	tokens []scanner.Token
	pos    int
	errs   []*SyntaxError

	imports []*ast.Import

	loopDepth int
	fnDepth   int
}

// Parse consumes the token stream and returns the analyzed program. On
// failure it reports every syntax error found, resynchronizing at statement
// boundaries.
func Parse(tokens []scanner.Token) (*ast.Program, []*SyntaxError) {
	p := &Parser{tokens: tokens}

	var stmts []ast.Stmt
	p.skipNewlines()
	for !p.atEnd() {
		stmt, err := p.statement()
		if err != nil {
			p.errs = append(p.errs, err)
			p.synchronize()
		} else {
			stmts = append(stmts, stmt)
		}
		p.skipNewlines()
	}

	if len(p.errs) > 0 {
		return nil, p.errs
	}

	program := &ast.Program{Stmts: stmts, Imports: p.imports, Loc: p.programSpan(stmts)}
	analyzeCaptures(program)
	return program, nil
}

func (p *Parser) programSpan(stmts []ast.Stmt) source.Span {
	if len(stmts) == 0 {
		return p.peek().Span
	}
	return stmts[0].Span().Join(stmts[len(stmts)-1].Span())
}

//-----------------------------------------------------------------------------
// Statements
//-----------------------------------------------------------------------------

func (p *Parser) statement() (ast.Stmt, *SyntaxError) {
	switch p.peek().Kind {
	case scanner.Export:
		return p.exportDecl()
	case scanner.Let:
		return p.letDecl(false)
	case scanner.Function:
		// `função(` with no name is an anonymous function expression.
		if p.peekNext().Kind == scanner.Identifier {
			return p.functionDecl(false)
		}
		return p.exprStmt()
	case scanner.If:
		return p.condStmt()
	case scanner.While:
		return p.whileStmt()
	case scanner.For:
		return p.forEachStmt()
	case scanner.Do:
		return p.doBlock()
	case scanner.Return:
		return p.returnStmt()
	case scanner.Break:
		tok := p.advance()
		if p.loopDepth == 0 {
			return nil, &SyntaxError{
				Message: "`pare` fora de um laço",
				Help:    "`pare` só pode aparecer dentro de `enquanto` ou `para cada`",
				Span:    tok.Span,
			}
		}
		return &ast.Break{Loc: tok.Span}, nil
	case scanner.Continue:
		tok := p.advance()
		if p.loopDepth == 0 {
			return nil, &SyntaxError{
				Message: "`continue` fora de um laço",
				Help:    "`continue` só pode aparecer dentro de `enquanto` ou `para cada`",
				Span:    tok.Span,
			}
		}
		return &ast.Continue{Loc: tok.Span}, nil
	case scanner.Raise:
		return p.raiseStmt()
	case scanner.Try:
		return p.tryStmt()
	case scanner.Import:
		return p.importStmt()
	default:
		return p.exprStmt()
	}
}

func (p *Parser) exportDecl() (ast.Stmt, *SyntaxError) {
	exportTok := p.advance()
	if p.fnDepth > 0 || p.loopDepth > 0 {
		return nil, &SyntaxError{
			Message: "`exporte` fora do nível principal do módulo",
			Help:    "mova a declaração exportada para fora de funções e laços",
			Span:    exportTok.Span,
		}
	}

	switch p.peek().Kind {
	case scanner.Let:
		return p.letDecl(true)
	case scanner.Function:
		return p.functionDecl(true)
	default:
		return nil, &SyntaxError{
			Message: "esperava `seja` ou `função` depois de `exporte`",
			Span:    p.peek().Span,
		}
	}
}

func (p *Parser) letDecl(exported bool) (ast.Stmt, *SyntaxError) {
	letTok := p.advance()

	name, err := p.expect(scanner.Identifier, "esperava o nome da variável depois de `seja`")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(scanner.EqualSign, "esperava `=` depois do nome da variável"); err != nil {
		return nil, err
	}
	value, err := p.expression()
	if err != nil {
		return nil, err
	}

	return &ast.LetDecl{
		Name:     name.Lexeme,
		Value:    value,
		Exported: exported,
		Loc:      letTok.Span.Join(value.Span()),
	}, nil
}

func (p *Parser) functionDecl(exported bool) (ast.Stmt, *SyntaxError) {
	fnTok := p.advance()

	name, err := p.expect(scanner.Identifier, "esperava o nome da função depois de `função`")
	if err != nil {
		return nil, err
	}
	params, err := p.parameters()
	if err != nil {
		return nil, err
	}
	body, endSpan, err := p.functionBody()
	if err != nil {
		return nil, err
	}

	return &ast.FunctionDecl{
		Name:     name.Lexeme,
		Params:   params,
		Body:     body,
		Exported: exported,
		Loc:      fnTok.Span.Join(endSpan),
	}, nil
}

func (p *Parser) parameters() ([]*ast.Param, *SyntaxError) {
	if _, err := p.expect(scanner.LeftParen, "esperava `(` depois do nome da função"); err != nil {
		return nil, err
	}

	var params []*ast.Param
	p.skipNewlines()
	if p.peek().Kind != scanner.RightParen {
		for {
			tok, err := p.expect(scanner.Identifier, "esperava o nome de um parâmetro")
			if err != nil {
				return nil, err
			}
			params = append(params, &ast.Param{Name: tok.Lexeme, Loc: tok.Span})
			p.skipNewlines()
			if !p.match(scanner.Comma) {
				break
			}
			p.skipNewlines()
			if p.peek().Kind == scanner.RightParen {
				break
			}
		}
	}
	if _, err := p.expect(scanner.RightParen, "esperava `)` depois dos parâmetros"); err != nil {
		return nil, err
	}
	return params, nil
}

// functionBody parses the statements up to `fim`. Loop context does not cross
// the function boundary: a `pare` inside a function must have its own loop.
func (p *Parser) functionBody() (*ast.Block, source.Span, *SyntaxError) {
	savedLoop := p.loopDepth
	p.loopDepth = 0
	p.fnDepth++
	defer func() {
		p.loopDepth = savedLoop
		p.fnDepth--
	}()

	return p.blockUntil(scanner.BlockEnd)
}

// blockUntil parses newline-separated statements until the closing token,
// which it consumes. It returns the closer's span for enclosing nodes.
func (p *Parser) blockUntil(closers ...scanner.Kind) (*ast.Block, source.Span, *SyntaxError) {
	open := p.peek().Span

	var stmts []ast.Stmt
	p.skipNewlines()
	for {
		if p.atEnd() {
			return nil, source.Span{}, &SyntaxError{
				Message: "bloco não terminado",
				Help:    "todo bloco precisa terminar com `fim`",
				Span:    p.peek().Span,
			}
		}
		if kindIn(p.peek().Kind, closers) {
			break
		}
		stmt, err := p.statement()
		if err != nil {
			return nil, source.Span{}, err
		}
		stmts = append(stmts, stmt)
		p.skipNewlines()
	}

	closer := p.advance()
	span := open.Join(closer.Span)
	if len(stmts) > 0 {
		span = stmts[0].Span().Join(closer.Span)
	}
	return &ast.Block{Stmts: stmts, Loc: span}, closer.Span, nil
}

func kindIn(kind scanner.Kind, set []scanner.Kind) bool {
	for _, k := range set {
		if kind == k {
			return true
		}
	}
	return false
}

func (p *Parser) condStmt() (ast.Stmt, *SyntaxError) {
	ifTok := p.advance()

	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(scanner.Then, "esperava `então` depois da condição"); err != nil {
		return nil, err
	}

	then, closerKind, closerSpan, err := p.condArm()
	if err != nil {
		return nil, err
	}

	var orElse ast.Stmt
	if closerKind == scanner.Else {
		if p.peek().Kind == scanner.If {
			// `senão se` chains as a nested conditional.
			orElse, err = p.condStmt()
			if err != nil {
				return nil, err
			}
			closerSpan = orElse.Span()
		} else {
			block, endSpan, berr := p.blockUntil(scanner.BlockEnd)
			if berr != nil {
				return nil, berr
			}
			orElse = block
			closerSpan = endSpan
		}
	}

	return &ast.Cond{Cond: cond, Then: then, OrElse: orElse, Loc: ifTok.Span.Join(closerSpan)}, nil
}

// condArm parses a conditional arm, stopping at `senão` or `fim` and
// reporting which closed it.
func (p *Parser) condArm() (ast.Stmt, scanner.Kind, source.Span, *SyntaxError) {
	var stmts []ast.Stmt
	open := p.peek().Span

	p.skipNewlines()
	for {
		if p.atEnd() {
			return nil, 0, source.Span{}, &SyntaxError{
				Message: "bloco não terminado",
				Help:    "todo `se` precisa terminar com `fim`",
				Span:    p.peek().Span,
			}
		}
		if p.peek().Kind == scanner.Else || p.peek().Kind == scanner.BlockEnd {
			break
		}
		stmt, err := p.statement()
		if err != nil {
			return nil, 0, source.Span{}, err
		}
		stmts = append(stmts, stmt)
		p.skipNewlines()
	}

	closer := p.advance()
	span := open.Join(closer.Span)
	if len(stmts) > 0 {
		span = stmts[0].Span().Join(closer.Span)
	}
	return &ast.Block{Stmts: stmts, Loc: span}, closer.Kind, closer.Span, nil
}

func (p *Parser) whileStmt() (ast.Stmt, *SyntaxError) {
	whileTok := p.advance()

	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(scanner.Do, "esperava `faça` depois da condição"); err != nil {
		return nil, err
	}

	p.loopDepth++
	body, endSpan, err := p.blockUntil(scanner.BlockEnd)
	p.loopDepth--
	if err != nil {
		return nil, err
	}

	return &ast.While{Cond: cond, Body: body, Loc: whileTok.Span.Join(endSpan)}, nil
}

func (p *Parser) forEachStmt() (ast.Stmt, *SyntaxError) {
	forTok := p.advance()

	if _, err := p.expect(scanner.Each, "esperava `cada` depois de `para`"); err != nil {
		return nil, err
	}
	item, err := p.expect(scanner.Identifier, "esperava o nome do item do laço")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(scanner.In, "esperava `em` depois do nome do item"); err != nil {
		return nil, err
	}
	iterable, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(scanner.Do, "esperava `faça` depois do iterável"); err != nil {
		return nil, err
	}

	p.loopDepth++
	body, endSpan, serr := p.blockUntil(scanner.BlockEnd)
	p.loopDepth--
	if serr != nil {
		return nil, serr
	}

	return &ast.ForEach{
		Item:     item.Lexeme,
		Iterable: iterable,
		Body:     body,
		Loc:      forTok.Span.Join(endSpan),
	}, nil
}

func (p *Parser) doBlock() (ast.Stmt, *SyntaxError) {
	doTok := p.advance()
	block, endSpan, err := p.blockUntil(scanner.BlockEnd)
	if err != nil {
		return nil, err
	}
	block.Loc = doTok.Span.Join(endSpan)
	return block, nil
}

func (p *Parser) returnStmt() (ast.Stmt, *SyntaxError) {
	retTok := p.advance()
	if p.fnDepth == 0 {
		return nil, &SyntaxError{
			Message: "`retorna` fora de uma função",
			Help:    "`retorna` só pode aparecer dentro de `função ... fim`",
			Span:    retTok.Span,
		}
	}

	if p.endOfStatement() {
		return &ast.Return{Loc: retTok.Span}, nil
	}
	value, err := p.expression()
	if err != nil {
		return nil, err
	}
	return &ast.Return{Value: value, Loc: retTok.Span.Join(value.Span())}, nil
}

func (p *Parser) raiseStmt() (ast.Stmt, *SyntaxError) {
	raiseTok := p.advance()
	value, err := p.expression()
	if err != nil {
		return nil, err
	}
	return &ast.Raise{Value: value, Loc: raiseTok.Span.Join(value.Span())}, nil
}

func (p *Parser) tryStmt() (ast.Stmt, *SyntaxError) {
	tryTok := p.advance()

	body, _, err := p.blockUntil(scanner.Catch)
	if err != nil {
		return nil, err
	}
	name, err := p.expect(scanner.Identifier, "esperava o nome do erro depois de `capture`")
	if err != nil {
		return nil, err
	}
	handler, endSpan, err := p.blockUntil(scanner.BlockEnd)
	if err != nil {
		return nil, err
	}

	return &ast.Try{
		Body:    body.Stmts,
		Name:    name.Lexeme,
		Handler: handler.Stmts,
		Loc:     tryTok.Span.Join(endSpan),
	}, nil
}

func (p *Parser) importStmt() (ast.Stmt, *SyntaxError) {
	importTok := p.advance()
	if p.fnDepth > 0 || p.loopDepth > 0 {
		return nil, &SyntaxError{
			Message: "`importe` fora do nível principal do módulo",
			Help:    "mova a importação para o início do arquivo",
			Span:    importTok.Span,
		}
	}

	path, err := p.expect(scanner.Text, "esperava o caminho do módulo entre aspas")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(scanner.As, "esperava `como` depois do caminho do módulo"); err != nil {
		return nil, err
	}
	alias, err := p.expect(scanner.Identifier, "esperava o nome do módulo depois de `como`")
	if err != nil {
		return nil, err
	}

	imp := &ast.Import{
		Path:  path.Text,
		Alias: alias.Lexeme,
		Loc:   importTok.Span.Join(alias.Span),
	}
	p.imports = append(p.imports, imp)
	return imp, nil
}

func (p *Parser) exprStmt() (ast.Stmt, *SyntaxError) {
	expr, err := p.expression()
	if err != nil {
		return nil, err
	}
	if !p.endOfStatement() {
		return nil, &SyntaxError{
			Message: fmt.Sprintf("símbolo inesperado: `%s`", p.peek().Lexeme),
			Help:    "cada instrução precisa terminar no fim da linha",
			Span:    p.peek().Span,
		}
	}
	return &ast.ExprStmt{X: expr, Loc: expr.Span()}, nil
}

//-----------------------------------------------------------------------------
// Expressions
//-----------------------------------------------------------------------------

func (p *Parser) expression() (ast.Expr, *SyntaxError) {
	return p.assignment()
}

func (p *Parser) assignment() (ast.Expr, *SyntaxError) {
	target, err := p.logicalOr()
	if err != nil {
		return nil, err
	}
	if p.peek().Kind != scanner.EqualSign {
		return target, nil
	}
	eq := p.advance()

	switch target.(type) {
	case *ast.Variable, *ast.Access:
	default:
		return nil, &SyntaxError{
			Message: "alvo de atribuição inválido",
			Help:    "só variáveis e posições de lista ou dicionário podem receber valores",
			Span:    eq.Span,
		}
	}

	value, err := p.assignment()
	if err != nil {
		return nil, err
	}
	return &ast.Assign{Target: target, Value: value, Loc: target.Span().Join(value.Span())}, nil
}

func (p *Parser) logicalOr() (ast.Expr, *SyntaxError) {
	lhs, err := p.logicalAnd()
	if err != nil {
		return nil, err
	}
	for p.match(scanner.Or) {
		rhs, err := p.logicalAnd()
		if err != nil {
			return nil, err
		}
		lhs = &ast.Binary{LHS: lhs, Op: ast.OpLogicalOr, RHS: rhs, Loc: lhs.Span().Join(rhs.Span())}
	}
	return lhs, nil
}

func (p *Parser) logicalAnd() (ast.Expr, *SyntaxError) {
	lhs, err := p.equality()
	if err != nil {
		return nil, err
	}
	for p.match(scanner.And) {
		rhs, err := p.equality()
		if err != nil {
			return nil, err
		}
		lhs = &ast.Binary{LHS: lhs, Op: ast.OpLogicalAnd, RHS: rhs, Loc: lhs.Span().Join(rhs.Span())}
	}
	return lhs, nil
}

// equality parses `é`, `não é`, `tem` and `não tem`.
func (p *Parser) equality() (ast.Expr, *SyntaxError) {
	lhs, err := p.comparison()
	if err != nil {
		return nil, err
	}

	for {
		var op ast.BinaryOperator
		switch {
		case p.match(scanner.Equals):
			op = ast.OpEquality
		case p.match(scanner.Has):
			op = ast.OpHas
		case p.peek().Kind == scanner.Not:
			notTok := p.advance()
			switch {
			case p.match(scanner.Equals):
				op = ast.OpInequality
			case p.match(scanner.Has):
				op = ast.OpLacks
			default:
				return nil, &SyntaxError{
					Message: "esperava `é` ou `tem` depois de `não`",
					Span:    notTok.Span,
				}
			}
		default:
			return lhs, nil
		}

		rhs, err := p.comparison()
		if err != nil {
			return nil, err
		}
		lhs = &ast.Binary{LHS: lhs, Op: op, RHS: rhs, Loc: lhs.Span().Join(rhs.Span())}
	}
}

func (p *Parser) comparison() (ast.Expr, *SyntaxError) {
	lhs, err := p.rangeExpr()
	if err != nil {
		return nil, err
	}

	for {
		var op ast.BinaryOperator
		switch {
		case p.match(scanner.Greater):
			op = ast.OpGreater
		case p.match(scanner.GreaterOrEqual):
			op = ast.OpGreaterOrEqual
		case p.match(scanner.Less):
			op = ast.OpLess
		case p.match(scanner.LessOrEqual):
			op = ast.OpLessOrEqual
		default:
			return lhs, nil
		}

		rhs, err := p.rangeExpr()
		if err != nil {
			return nil, err
		}
		lhs = &ast.Binary{LHS: lhs, Op: op, RHS: rhs, Loc: lhs.Span().Join(rhs.Span())}
	}
}

// rangeExpr parses `início até fim`, non-associative.
func (p *Parser) rangeExpr() (ast.Expr, *SyntaxError) {
	lhs, err := p.additive()
	if err != nil {
		return nil, err
	}
	if !p.match(scanner.Until) {
		return lhs, nil
	}
	rhs, err := p.additive()
	if err != nil {
		return nil, err
	}
	return &ast.Binary{LHS: lhs, Op: ast.OpRange, RHS: rhs, Loc: lhs.Span().Join(rhs.Span())}, nil
}

func (p *Parser) additive() (ast.Expr, *SyntaxError) {
	lhs, err := p.multiplicative()
	if err != nil {
		return nil, err
	}

	for {
		var op ast.BinaryOperator
		switch {
		case p.match(scanner.Plus):
			op = ast.OpAdd
		case p.match(scanner.Minus):
			op = ast.OpSubtract
		default:
			return lhs, nil
		}

		rhs, err := p.multiplicative()
		if err != nil {
			return nil, err
		}
		lhs = &ast.Binary{LHS: lhs, Op: op, RHS: rhs, Loc: lhs.Span().Join(rhs.Span())}
	}
}

func (p *Parser) multiplicative() (ast.Expr, *SyntaxError) {
	lhs, err := p.exponent()
	if err != nil {
		return nil, err
	}

	for {
		var op ast.BinaryOperator
		switch {
		case p.match(scanner.Star):
			op = ast.OpMultiply
		case p.match(scanner.Slash):
			op = ast.OpDivide
		case p.match(scanner.Percent):
			op = ast.OpModulo
		default:
			return lhs, nil
		}

		rhs, err := p.exponent()
		if err != nil {
			return nil, err
		}
		lhs = &ast.Binary{LHS: lhs, Op: op, RHS: rhs, Loc: lhs.Span().Join(rhs.Span())}
	}
}

// exponent is right-associative: 2^3^2 é 2^(3^2).
func (p *Parser) exponent() (ast.Expr, *SyntaxError) {
	lhs, err := p.unary()
	if err != nil {
		return nil, err
	}
	if !p.match(scanner.Caret) {
		return lhs, nil
	}
	rhs, err := p.exponent()
	if err != nil {
		return nil, err
	}
	return &ast.Binary{LHS: lhs, Op: ast.OpExponent, RHS: rhs, Loc: lhs.Span().Join(rhs.Span())}, nil
}

func (p *Parser) unary() (ast.Expr, *SyntaxError) {
	switch {
	case p.peek().Kind == scanner.Minus:
		tok := p.advance()
		rhs, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: ast.OpNegative, RHS: rhs, Loc: tok.Span.Join(rhs.Span())}, nil
	case p.peek().Kind == scanner.Not:
		tok := p.advance()
		rhs, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: ast.OpLogicalNot, RHS: rhs, Loc: tok.Span.Join(rhs.Span())}, nil
	default:
		return p.postfix()
	}
}

// postfix parses calls, subscripts and member access, left to right.
func (p *Parser) postfix() (ast.Expr, *SyntaxError) {
	expr, err := p.primary()
	if err != nil {
		return nil, err
	}

	for {
		switch {
		case p.match(scanner.LeftParen):
			args, closeSpan, err := p.arguments()
			if err != nil {
				return nil, err
			}
			expr = &ast.Call{Callee: expr, Args: args, Loc: expr.Span().Join(closeSpan)}
		case p.match(scanner.LeftBracket):
			p.skipNewlines()
			index, err := p.expression()
			if err != nil {
				return nil, err
			}
			p.skipNewlines()
			close, cerr := p.expect(scanner.RightBracket, "esperava `]` depois do índice")
			if cerr != nil {
				return nil, cerr
			}
			expr = &ast.Access{Subscripted: expr, Index: index, Loc: expr.Span().Join(close.Span)}
		case p.match(scanner.Dot):
			name, err := p.expect(scanner.Identifier, "esperava um nome depois de `.`")
			if err != nil {
				return nil, err
			}
			// Member access is subscript sugar: `m.nome` lê m["nome"].
			expr = &ast.Access{
				Subscripted: expr,
				Index:       &ast.Literal{Kind: ast.LiteralText, Text: name.Lexeme, Loc: name.Span},
				Loc:         expr.Span().Join(name.Span),
			}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) arguments() ([]ast.Expr, source.Span, *SyntaxError) {
	var args []ast.Expr

	p.skipNewlines()
	if p.peek().Kind != scanner.RightParen {
		for {
			arg, err := p.expression()
			if err != nil {
				return nil, source.Span{}, err
			}
			args = append(args, arg)
			p.skipNewlines()
			if !p.match(scanner.Comma) {
				break
			}
			p.skipNewlines()
			// Trailing comma before the closer.
			if p.peek().Kind == scanner.RightParen {
				break
			}
		}
	}

	close, err := p.expect(scanner.RightParen, "esperava `)` depois dos argumentos")
	if err != nil {
		return nil, source.Span{}, err
	}
	return args, close.Span, nil
}

func (p *Parser) primary() (ast.Expr, *SyntaxError) {
	tok := p.peek()

	switch tok.Kind {
	case scanner.Number:
		p.advance()
		return &ast.Literal{Kind: ast.LiteralNumber, Number: tok.Number, Loc: tok.Span}, nil
	case scanner.Text:
		p.advance()
		return &ast.Literal{Kind: ast.LiteralText, Text: tok.Text, Loc: tok.Span}, nil
	case scanner.True:
		p.advance()
		return &ast.Literal{Kind: ast.LiteralBoolean, Boolean: true, Loc: tok.Span}, nil
	case scanner.False:
		p.advance()
		return &ast.Literal{Kind: ast.LiteralBoolean, Boolean: false, Loc: tok.Span}, nil
	case scanner.Nil:
		p.advance()
		return &ast.Literal{Kind: ast.LiteralNil, Loc: tok.Span}, nil
	case scanner.Identifier:
		p.advance()
		return &ast.Variable{Name: tok.Lexeme, Loc: tok.Span}, nil
	case scanner.LeftParen:
		p.advance()
		p.skipNewlines()
		inner, err := p.expression()
		if err != nil {
			return nil, err
		}
		p.skipNewlines()
		close, cerr := p.expect(scanner.RightParen, "esperava `)` para fechar a expressão")
		if cerr != nil {
			return nil, cerr
		}
		return &ast.Grouping{X: inner, Loc: tok.Span.Join(close.Span)}, nil
	case scanner.LeftBracket:
		return p.listLiteral()
	case scanner.LeftBrace:
		return p.dictLiteral()
	case scanner.Function:
		return p.functionLit()
	default:
		return nil, &SyntaxError{
			Message: fmt.Sprintf("esperava uma expressão, encontrei `%s`", tok.Lexeme),
			Span:    tok.Span,
		}
	}
}

func (p *Parser) listLiteral() (ast.Expr, *SyntaxError) {
	open := p.advance()

	var elements []ast.Expr
	p.skipNewlines()
	if p.peek().Kind != scanner.RightBracket {
		for {
			element, err := p.expression()
			if err != nil {
				return nil, err
			}
			elements = append(elements, element)
			p.skipNewlines()
			if !p.match(scanner.Comma) {
				break
			}
			p.skipNewlines()
			if p.peek().Kind == scanner.RightBracket {
				break
			}
		}
	}

	close, err := p.expect(scanner.RightBracket, "esperava `]` para fechar a lista")
	if err != nil {
		return nil, err
	}
	return &ast.List{Elements: elements, Loc: open.Span.Join(close.Span)}, nil
}

func (p *Parser) dictLiteral() (ast.Expr, *SyntaxError) {
	open := p.advance()

	var entries []ast.DictEntry
	p.skipNewlines()
	if p.peek().Kind != scanner.RightBrace {
		for {
			key, err := p.dictKey()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(scanner.Colon, "esperava `:` depois da chave"); err != nil {
				return nil, err
			}
			p.skipNewlines()
			value, verr := p.expression()
			if verr != nil {
				return nil, verr
			}
			entries = append(entries, ast.DictEntry{Key: key, Value: value})
			p.skipNewlines()
			if !p.match(scanner.Comma) {
				break
			}
			p.skipNewlines()
			if p.peek().Kind == scanner.RightBrace {
				break
			}
		}
	}

	close, err := p.expect(scanner.RightBrace, "esperava `}` para fechar o dicionário")
	if err != nil {
		return nil, err
	}
	return &ast.Dictionary{Entries: entries, Loc: open.Span.Join(close.Span)}, nil
}

// dictKey accepts a text, a number or a bare identifier spelled as text.
func (p *Parser) dictKey() (*ast.Literal, *SyntaxError) {
	tok := p.peek()
	switch tok.Kind {
	case scanner.Text:
		p.advance()
		return &ast.Literal{Kind: ast.LiteralText, Text: tok.Text, Loc: tok.Span}, nil
	case scanner.Number:
		p.advance()
		return &ast.Literal{Kind: ast.LiteralNumber, Number: tok.Number, Loc: tok.Span}, nil
	case scanner.Identifier:
		p.advance()
		return &ast.Literal{Kind: ast.LiteralText, Text: tok.Lexeme, Loc: tok.Span}, nil
	default:
		return nil, &SyntaxError{
			Message: "esperava uma chave de dicionário",
			Help:    "chaves podem ser textos, números ou nomes simples",
			Span:    tok.Span,
		}
	}
}

func (p *Parser) functionLit() (ast.Expr, *SyntaxError) {
	fnTok := p.advance()

	params, err := p.parameters()
	if err != nil {
		return nil, err
	}
	body, endSpan, err := p.functionBody()
	if err != nil {
		return nil, err
	}

	return &ast.FunctionLit{Params: params, Body: body, Loc: fnTok.Span.Join(endSpan)}, nil
}

//-----------------------------------------------------------------------------
// Token plumbing
//-----------------------------------------------------------------------------

func (p *Parser) peek() scanner.Token {
	return p.tokens[p.pos]
}

func (p *Parser) peekNext() scanner.Token {
	if p.pos+1 >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+1]
}

func (p *Parser) advance() scanner.Token {
	tok := p.tokens[p.pos]
	if tok.Kind != scanner.EOF {
		p.pos++
	}
	return tok
}

func (p *Parser) match(kind scanner.Kind) bool {
	if p.peek().Kind != kind {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) expect(kind scanner.Kind, message string) (scanner.Token, *SyntaxError) {
	if p.peek().Kind != kind {
		return scanner.Token{}, &SyntaxError{Message: message, Span: p.peek().Span}
	}
	return p.advance(), nil
}

func (p *Parser) skipNewlines() {
	for p.peek().Kind == scanner.Newline {
		p.advance()
	}
}

func (p *Parser) endOfStatement() bool {
	switch p.peek().Kind {
	case scanner.Newline, scanner.EOF, scanner.BlockEnd, scanner.Else, scanner.Catch:
		return true
	default:
		return false
	}
}

func (p *Parser) atEnd() bool {
	return p.peek().Kind == scanner.EOF
}

// synchronize advances to the next statement boundary after a syntax error.
func (p *Parser) synchronize() {
	for !p.atEnd() && p.peek().Kind != scanner.Newline {
		p.advance()
	}
}
