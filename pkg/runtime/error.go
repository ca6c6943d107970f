package runtime

import "github.com/tenda-lang/tenda/pkg/source"

// ErrorKind enumerates the diagnostic kinds the runtime can produce.
type ErrorKind int

const (
	ErrAlreadyDeclared ErrorKind = iota
	ErrUndefinedReference
	ErrTypeMismatch
	ErrUnexpectedType
	ErrArityMismatch
	ErrDivisionByZero
	ErrUserRaised
	ErrStackOverflow
	ErrNotCallable
	ErrNotIterable
	ErrIndexOutOfBounds
	ErrInvalidIndex
	ErrWrongIndexType
	ErrInvalidRangeBounds
	ErrInvalidKey
	ErrKeyNotFound
	ErrImmutableText
	ErrReassignModule
	ErrAssignToBuiltin
	ErrImportFailed
)

// TraceFrame is one call-stack entry attached to a propagating diagnostic.
// An empty Name marks an anonymous function.
type TraceFrame struct {
	Name string
	Span source.Span
}

// RuntimeError is the structured diagnostic produced at a failure point and
// propagated as a Raised signal. It carries no rendered text: formatting is
// the reporting layer's job. Payload fields are populated per kind.
type RuntimeError struct {
	Kind ErrorKind
	Span source.Span
	Help string

	// Name is the offending identifier for declaration and reference kinds.
	Name string
	// First and Second are the operand kinds of a TypeMismatch.
	First, Second Kind
	// Expected and Found are the kinds of an UnexpectedType.
	Expected, Found Kind
	// ExpectedArity and FoundArity describe an ArityMismatch.
	ExpectedArity, FoundArity int
	// Index and Length describe an out-of-bounds access.
	Index, Length int
	// Bound is the offending bound of an invalid range or index.
	Bound float64
	// Key is the offending dictionary key.
	Key DictKey
	// Value is the payload of a UserRaised diagnostic.
	Value Value
	// Operation names the operation of a TypeMismatch ("somar", "dividir", ...).
	Operation string

	Trace []TraceFrame

	spanSet bool
}

// NewError builds a diagnostic of the given kind.
func NewError(kind ErrorKind) *RuntimeError {
	return &RuntimeError{Kind: kind}
}

// Error satisfies the error interface with a terse kind tag; user-facing
// rendering lives in pkg/report.
func (e *RuntimeError) Error() string {
	switch e.Kind {
	case ErrAlreadyDeclared:
		return "variável já declarada"
	case ErrUndefinedReference:
		return "variável não definida"
	case ErrTypeMismatch:
		return "tipos incompatíveis"
	case ErrUnexpectedType:
		return "tipo inesperado"
	case ErrArityMismatch:
		return "número de argumentos incorreto"
	case ErrDivisionByZero:
		return "divisão por zero"
	case ErrUserRaised:
		return "erro lançado"
	case ErrStackOverflow:
		return "limite de recursão excedido"
	case ErrNotCallable:
		return "valor não chamável"
	case ErrNotIterable:
		return "valor não iterável"
	case ErrIndexOutOfBounds:
		return "índice fora dos limites"
	case ErrInvalidIndex:
		return "índice inválido"
	case ErrWrongIndexType:
		return "valor não indexável"
	case ErrInvalidRangeBounds:
		return "limites de intervalo inválidos"
	case ErrInvalidKey:
		return "chave de dicionário inválida"
	case ErrKeyNotFound:
		return "chave de dicionário não encontrada"
	case ErrImmutableText:
		return "texto é imutável"
	case ErrReassignModule:
		return "módulo não pode ser reatribuído"
	case ErrAssignToBuiltin:
		return "não é possível reatribuir um nome da biblioteca padrão"
	case ErrImportFailed:
		return "falha ao importar o módulo"
	default:
		return "erro de execução"
	}
}

// Tag returns the stable identifier a `tente`/`capture` handler reads from
// the caught diagnostic's "tipo" entry.
func (k ErrorKind) Tag() string {
	switch k {
	case ErrAlreadyDeclared:
		return "ja_declarada"
	case ErrUndefinedReference:
		return "nao_definida"
	case ErrTypeMismatch:
		return "tipos_incompativeis"
	case ErrUnexpectedType:
		return "tipo_inesperado"
	case ErrArityMismatch:
		return "aridade_incorreta"
	case ErrDivisionByZero:
		return "divisao_por_zero"
	case ErrUserRaised:
		return "erro_do_usuario"
	case ErrStackOverflow:
		return "limite_de_recursao"
	case ErrNotCallable:
		return "nao_chamavel"
	case ErrNotIterable:
		return "nao_iteravel"
	case ErrIndexOutOfBounds:
		return "indice_fora_dos_limites"
	case ErrInvalidIndex:
		return "indice_invalido"
	case ErrWrongIndexType:
		return "nao_indexavel"
	case ErrInvalidRangeBounds:
		return "intervalo_invalido"
	case ErrInvalidKey:
		return "chave_invalida"
	case ErrKeyNotFound:
		return "chave_nao_encontrada"
	case ErrImmutableText:
		return "texto_imutavel"
	case ErrReassignModule:
		return "modulo_reatribuido"
	case ErrAssignToBuiltin:
		return "nome_reservado"
	case ErrImportFailed:
		return "importacao_falhou"
	default:
		return "erro"
	}
}

// Fatal reports whether the diagnostic aborts execution with no language
// level recovery. Only StackOverflow qualifies: past the recursion ceiling
// the runtime no longer trusts its own memory behaviour.
func (e *RuntimeError) Fatal() bool {
	return e.Kind == ErrStackOverflow
}

// WithSpan attaches the source span, keeping the innermost one already set.
// Empty spans are ignored so failure points inside prelude callbacks do not
// mask the user-visible location.
func (e *RuntimeError) WithSpan(span source.Span) *RuntimeError {
	if !e.spanSet && span != (source.Span{}) {
		e.Span = span
		e.spanSet = true
	}
	return e
}

// WithHelp attaches a suggestion rendered below the diagnostic.
func (e *RuntimeError) WithHelp(help string) *RuntimeError {
	e.Help = help
	return e
}

// PushTrace records the call frame the diagnostic is unwinding through.
func (e *RuntimeError) PushTrace(name string, span source.Span) {
	e.Trace = append(e.Trace, TraceFrame{Name: name, Span: span})
}
