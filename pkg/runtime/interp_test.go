package runtime_test

import (
	"math"
	"strings"
	"testing"

	"github.com/tenda-lang/tenda/pkg/parser"
	"github.com/tenda-lang/tenda/pkg/runtime"
	"github.com/tenda-lang/tenda/pkg/scanner"
	"github.com/tenda-lang/tenda/pkg/source"
)

func evalSource(t *testing.T, src string) (runtime.Value, *runtime.RuntimeError, *runtime.RecordingPlatform) {
	t.Helper()
	tokens, lexErrs := scanner.New(src, source.NewID()).Scan()
	if len(lexErrs) > 0 {
		t.Fatalf("scan: %v", lexErrs[0])
	}
	program, synErrs := parser.Parse(tokens)
	if len(synErrs) > 0 {
		t.Fatalf("parse: %v", synErrs[0])
	}

	platform := &runtime.RecordingPlatform{}
	rt := runtime.New(platform, runtime.WithBase(runtime.Prelude()))
	value, err := rt.Eval(program)
	return value, err, platform
}

func evalOK(t *testing.T, src string) runtime.Value {
	t.Helper()
	value, err, _ := evalSource(t, src)
	if err != nil {
		t.Fatalf("unexpected diagnostic: %v", err)
	}
	return value
}

func evalErr(t *testing.T, src string) *runtime.RuntimeError {
	t.Helper()
	_, err, _ := evalSource(t, src)
	if err == nil {
		t.Fatalf("expected a diagnostic, got none")
	}
	return err
}

func wantNumber(t *testing.T, v runtime.Value, want float64) {
	t.Helper()
	n, ok := v.(runtime.NumberValue)
	if !ok {
		t.Fatalf("want number %v, got %s (%s)", want, runtime.Format(v), v.Kind())
	}
	if n.Val != want {
		t.Fatalf("want %v, got %v", want, n.Val)
	}
}

func wantText(t *testing.T, v runtime.Value, want string) {
	t.Helper()
	text, ok := v.(runtime.TextValue)
	if !ok {
		t.Fatalf("want text %q, got %s (%s)", want, runtime.Format(v), v.Kind())
	}
	if text.Val != want {
		t.Fatalf("want %q, got %q", want, text.Val)
	}
}

func wantBool(t *testing.T, v runtime.Value, want bool) {
	t.Helper()
	b, ok := v.(runtime.BooleanValue)
	if !ok {
		t.Fatalf("want boolean %v, got %s (%s)", want, runtime.Format(v), v.Kind())
	}
	if b.Val != want {
		t.Fatalf("want %v, got %v", want, b.Val)
	}
}

func TestArithmetic(t *testing.T) {
	cases := []struct {
		src  string
		want float64
	}{
		{"1 + 2", 3},
		{"10 - 4", 6},
		{"3 * 4", 12},
		{"10 / 4", 2.5},
		{"10 % 3", 1},
		{"2 ^ 10", 1024},
		{"2 ^ 3 ^ 2", 512},
		{"1 + 2 * 3", 7},
		{"(1 + 2) * 3", 9},
		{"-5 + 2", -3},
	}
	for _, tc := range cases {
		wantNumber(t, evalOK(t, tc.src), tc.want)
	}
}

func TestTextConcatenation(t *testing.T) {
	wantText(t, evalOK(t, `"olá, " + "mundo"`), "olá, mundo")
	wantText(t, evalOK(t, `"total: " + 3`), "total: 3")
	wantText(t, evalOK(t, `1.5 + " metros"`), "1.5 metros")
}

func TestComparisons(t *testing.T) {
	cases := []struct {
		src  string
		want bool
	}{
		{"1 é 1", true},
		{"1 não é 2", true},
		{`"a" é "a"`, true},
		{"2 > 1", true},
		{"2 >= 2", true},
		{"1 < 2", true},
		{"3 <= 2", false},
		{`"abacate" < "banana"`, true},
		{"[1, 2] é [1, 2]", true},
		{"[1, 2] é [2, 1]", false},
		{"verdadeiro e falso", false},
		{"não falso", true},
		{"[1, 2, 3] tem 2", true},
		{"[1, 2, 3] não tem 5", true},
		{`"carro" tem "arr"`, true},
	}
	for _, tc := range cases {
		wantBool(t, evalOK(t, tc.src), tc.want)
	}
}

func TestLogicalOperatorsYieldOperand(t *testing.T) {
	wantNumber(t, evalOK(t, "0 ou 7"), 7)
	wantNumber(t, evalOK(t, "3 e 9"), 9)
	// Short circuit: the right side must not run.
	wantNumber(t, evalOK(t, "seja x = 0\nfalso e (x = 1)\nx"), 0)
	wantNumber(t, evalOK(t, "seja x = 0\nverdadeiro ou (x = 1)\nx"), 0)
}

func TestDivisionByZero(t *testing.T) {
	err := evalErr(t, "1 / 0")
	if err.Kind != runtime.ErrDivisionByZero {
		t.Fatalf("want DivisionByZero, got %v", err)
	}
	if err.Fatal() {
		t.Fatal("division by zero must be recoverable")
	}
}

func TestDeclarationAndAssignment(t *testing.T) {
	wantNumber(t, evalOK(t, "seja x = 1\nx = x + 1\nx"), 2)

	err := evalErr(t, "seja x = 1\nseja x = 2")
	if err.Kind != runtime.ErrAlreadyDeclared || err.Name != "x" {
		t.Fatalf("want AlreadyDeclared for x, got %v", err)
	}

	err = evalErr(t, "y = 1")
	if err.Kind != runtime.ErrUndefinedReference || err.Name != "y" {
		t.Fatalf("want UndefinedReference for y, got %v", err)
	}
}

func TestBlockScoping(t *testing.T) {
	// A nested block may shadow; the outer binding is untouched.
	wantNumber(t, evalOK(t, "seja x = 1\nfaça\n  seja x = 10\nfim\nx"), 1)
	// Assignment inside a block reaches the outer binding.
	wantNumber(t, evalOK(t, "seja x = 1\nfaça\n  x = 5\nfim\nx"), 5)
	// Block locals do not leak.
	err := evalErr(t, "faça\n  seja interno = 1\nfim\ninterno")
	if err.Kind != runtime.ErrUndefinedReference {
		t.Fatalf("want UndefinedReference, got %v", err)
	}
}

func TestConditional(t *testing.T) {
	src := `
seja resultado = ""
se 2 > 1 então
  resultado = "maior"
senão
  resultado = "menor"
fim
resultado`
	wantText(t, evalOK(t, src), "maior")

	src = `
seja n = 3
seja nome = ""
se n é 1 então
  nome = "um"
senão se n é 2 então
  nome = "dois"
senão
  nome = "muitos"
fim
nome`
	wantText(t, evalOK(t, src), "muitos")
}

func TestWhileLoop(t *testing.T) {
	src := `
seja soma = 0
seja i = 0
enquanto i < 5 faça
  i = i + 1
  soma = soma + i
fim
soma`
	wantNumber(t, evalOK(t, src), 15)
}

func TestBreakAndContinue(t *testing.T) {
	src := `
seja soma = 0
seja i = 0
enquanto verdadeiro faça
  i = i + 1
  se i > 10 então
    pare
  fim
  se i % 2 é 0 então
    continue
  fim
  soma = soma + i
fim
soma`
	wantNumber(t, evalOK(t, src), 25)
}

func TestForEachOverListAndRange(t *testing.T) {
	src := `
seja soma = 0
para cada n em [1, 2, 3, 4] faça
  soma = soma + n
fim
soma`
	wantNumber(t, evalOK(t, src), 10)

	src = `
seja soma = 0
para cada n em 1 até 5 faça
  soma = soma + n
fim
soma`
	wantNumber(t, evalOK(t, src), 15)

	// Empty descending range iterates zero times.
	src = `
seja passos = 0
para cada n em 5 até 1 faça
  passos = passos + 1
fim
passos`
	wantNumber(t, evalOK(t, src), 0)
}

func TestForEachSnapshotsTheList(t *testing.T) {
	src := `
seja itens = [1, 2, 3]
seja voltas = 0
para cada n em itens faça
  Lista.insira(itens, n)
  voltas = voltas + 1
fim
voltas`
	wantNumber(t, evalOK(t, src), 3)
}

func TestRangeValidation(t *testing.T) {
	err := evalErr(t, "1.5 até 3")
	if err.Kind != runtime.ErrInvalidRangeBounds {
		t.Fatalf("want InvalidRangeBounds, got %v", err)
	}
	err = evalErr(t, `para cada n em "texto" faça
fim`)
	if err.Kind != runtime.ErrNotIterable {
		t.Fatalf("want NotIterable, got %v", err)
	}
}

func TestFunctionCallAndReturn(t *testing.T) {
	src := `
função dobro(n)
  retorna n * 2
fim
dobro(21)`
	wantNumber(t, evalOK(t, src), 42)

	// Falling off the end yields Nada.
	src = `
função silenciosa()
  seja x = 1
fim
silenciosa()`
	if _, ok := evalOK(t, src).(runtime.NilValue); !ok {
		t.Fatal("implicit result must be Nada")
	}
}

func TestArityMismatch(t *testing.T) {
	src := `
função soma(a, b)
  retorna a + b
fim
soma(1)`
	err := evalErr(t, src)
	if err.Kind != runtime.ErrArityMismatch {
		t.Fatalf("want ArityMismatch, got %v", err)
	}
	if err.ExpectedArity != 2 || err.FoundArity != 1 {
		t.Fatalf("want 2/1, got %d/%d", err.ExpectedArity, err.FoundArity)
	}
}

func TestRecursionWithoutForwardDeclaration(t *testing.T) {
	src := `
função fatorial(n)
  se n <= 1 então
    retorna 1
  fim
  retorna n * fatorial(n - 1)
fim
fatorial(10)`
	wantNumber(t, evalOK(t, src), 3628800)
}

func TestMutualRecursionAtTopLevel(t *testing.T) {
	src := `
função par(n)
  se n é 0 então
    retorna verdadeiro
  fim
  retorna ímpar(n - 1)
fim
função ímpar(n)
  se n é 0 então
    retorna falso
  fim
  retorna par(n - 1)
fim
par(10)`
	wantBool(t, evalOK(t, src), true)
}

func TestClosureSharedState(t *testing.T) {
	src := `
função cria_contador()
  seja total = 0
  retorna função()
    total = total + 1
    retorna total
  fim
fim
seja conta = cria_contador()
conta()
conta()
conta()`
	wantNumber(t, evalOK(t, src), 3)
}

func TestClosureIsolationBetweenInstances(t *testing.T) {
	src := `
função cria_contador()
  seja total = 0
  retorna função()
    total = total + 1
    retorna total
  fim
fim
seja a = cria_contador()
seja b = cria_contador()
a()
a()
b()`
	wantNumber(t, evalOK(t, src), 1)
}

func TestTwoClosuresShareOneCell(t *testing.T) {
	src := `
seja total = 0
função soma(n)
  total = total + n
fim
função lê()
  retorna total
fim
soma(5)
soma(7)
lê()`
	wantNumber(t, evalOK(t, src), 12)
}

func TestParameterShadowsCapture(t *testing.T) {
	src := `
seja x = 100
função f(x)
  retorna x
fim
f(1)`
	wantNumber(t, evalOK(t, src), 1)
}

func TestFunctionsDoNotSeeCallerLocals(t *testing.T) {
	src := `
função lê_segredo()
  retorna segredo
fim
função chama()
  seja segredo = 42
  retorna lê_segredo()
fim
chama()`
	err := evalErr(t, src)
	if err.Kind != runtime.ErrUndefinedReference || err.Name != "segredo" {
		t.Fatalf("want UndefinedReference for segredo, got %v", err)
	}
}

func TestStackOverflowIsFatal(t *testing.T) {
	src := `
função infinita()
  retorna infinita()
fim
infinita()`
	err := evalErr(t, src)
	if err.Kind != runtime.ErrStackOverflow {
		t.Fatalf("want StackOverflow, got %v", err)
	}
	if !err.Fatal() {
		t.Fatal("stack overflow must be fatal")
	}
}

func TestStackOverflowEscapesHandlers(t *testing.T) {
	src := `
função infinita()
  retorna infinita()
fim
tente
  infinita()
capture erro
  "não deveria chegar aqui"
fim`
	err := evalErr(t, src)
	if err.Kind != runtime.ErrStackOverflow {
		t.Fatalf("fatal diagnostics must not be caught, got %v", err)
	}
}

func TestRaiseAndCatch(t *testing.T) {
	src := `
seja mensagem = ""
tente
  lance "deu ruim"
  mensagem = "inalcançável"
capture erro
  mensagem = erro["valor"]
fim
mensagem`
	wantText(t, evalOK(t, src), "deu ruim")
}

func TestCatchExposesDiagnosticKind(t *testing.T) {
	src := `
seja tipo = ""
tente
  1 / 0
capture erro
  tipo = erro["tipo"]
fim
tipo`
	wantText(t, evalOK(t, src), "divisao_por_zero")
}

func TestUncaughtRaiseCarriesPayload(t *testing.T) {
	err := evalErr(t, "lance 42")
	if err.Kind != runtime.ErrUserRaised {
		t.Fatalf("want UserRaised, got %v", err)
	}
	wantNumber(t, err.Value, 42)
}

func TestFrameBalanceAfterRecoveredError(t *testing.T) {
	src := `
função falha()
  seja local = 1
  lance "erro"
fim
tente
  falha()
capture erro
fim
seja depois = 7
depois`
	value, err, _ := evalSource(t, src)
	if err != nil {
		t.Fatalf("unexpected diagnostic: %v", err)
	}
	wantNumber(t, value, 7)
}

func TestListIndexing(t *testing.T) {
	wantNumber(t, evalOK(t, "seja l = [10, 20, 30]\nl[1]"), 20)
	wantNumber(t, evalOK(t, "seja l = [10, 20]\nl[0] = 99\nl[0]"), 99)

	err := evalErr(t, "seja l = [1]\nl[5]")
	if err.Kind != runtime.ErrIndexOutOfBounds || err.Index != 5 || err.Length != 1 {
		t.Fatalf("want IndexOutOfBounds 5/1, got %v", err)
	}
	err = evalErr(t, "seja l = [1]\nl[-1]")
	if err.Kind != runtime.ErrInvalidIndex {
		t.Fatalf("want InvalidIndex, got %v", err)
	}
	err = evalErr(t, "seja l = [1]\nl[0.5]")
	if err.Kind != runtime.ErrInvalidIndex {
		t.Fatalf("want InvalidIndex, got %v", err)
	}
}

func TestTextIndexing(t *testing.T) {
	wantText(t, evalOK(t, `seja t = "Ação"
t[1]`), "ç")

	err := evalErr(t, `seja t = "ab"
t[0] = "x"`)
	if err.Kind != runtime.ErrImmutableText {
		t.Fatalf("want ImmutableText, got %v", err)
	}
}

func TestDictionaryAccess(t *testing.T) {
	src := `
seja pessoa = { nome: "Ana", idade: 30 }
pessoa.nome`
	wantText(t, evalOK(t, src), "Ana")

	src = `
seja pessoa = { nome: "Ana" }
pessoa["idade"] = 31
pessoa.idade`
	wantNumber(t, evalOK(t, src), 31)

	err := evalErr(t, `seja d = { a: 1 }
d["x"]`)
	if err.Kind != runtime.ErrKeyNotFound {
		t.Fatalf("want KeyNotFound, got %v", err)
	}
}

func TestListsShareByReference(t *testing.T) {
	src := `
seja a = [1, 2]
seja b = a
Lista.insira(b, 3)
Lista.tamanho(a)`
	wantNumber(t, evalOK(t, src), 3)
}

func TestPreludeIsVisibleButNotAssignable(t *testing.T) {
	err := evalErr(t, "exiba = 1")
	if err.Kind != runtime.ErrAssignToBuiltin {
		t.Fatalf("want AssignToBuiltin, got %v", err)
	}
	// Shadowing with a declaration is allowed.
	wantNumber(t, evalOK(t, "seja exiba = 5\nexiba"), 5)
}

func TestPrintGoesThroughPlatform(t *testing.T) {
	_, err, platform := evalSource(t, `exiba("olá")
exiba([1, "dois"])`)
	if err != nil {
		t.Fatalf("unexpected diagnostic: %v", err)
	}
	want := "olá\n[1, \"dois\"]\n"
	if platform.Output.String() != want {
		t.Fatalf("want %q, got %q", want, platform.Output.String())
	}
}

func TestHigherOrderBuiltins(t *testing.T) {
	src := `
seja dobrados = Lista.transforma([1, 2, 3], função(n)
  retorna n * 2
fim)
Lista.junte(dobrados, ", ")`
	wantText(t, evalOK(t, src), "2, 4, 6")

	src = `
seja pares = Lista.filtra(1 até 10, função(n)
  retorna n % 2 é 0
fim)`
	// filtra only accepts lists; ranges must be materialized first.
	err := evalErr(t, src)
	if err.Kind != runtime.ErrUnexpectedType {
		t.Fatalf("want UnexpectedType, got %v", err)
	}

	src = `
Lista.reduz([1, 2, 3, 4], 0, função(total, n)
  retorna total + n
fim)`
	wantNumber(t, evalOK(t, src), 10)
}

func TestMathAndTextNamespaces(t *testing.T) {
	wantNumber(t, evalOK(t, "Matemática.raiz(144)"), 12)
	wantNumber(t, evalOK(t, "Matemática.máximo(3, 8)"), 8)
	wantText(t, evalOK(t, `Texto.maiúsculas("ação")`), "AÇÃO")
	wantNumber(t, evalOK(t, `Texto.número("  3.5 ")`), 3.5)
	if _, ok := evalOK(t, `Texto.número("xyz")`).(runtime.NilValue); !ok {
		t.Fatal("parsing a non-number must yield Nada")
	}
}

func TestNamespaceMembersAreImmutable(t *testing.T) {
	err := evalErr(t, "Matemática.pi = 3")
	if err.Kind != runtime.ErrReassignModule {
		t.Fatalf("want ReassignModule, got %v", err)
	}
}

func TestNotCallable(t *testing.T) {
	err := evalErr(t, "seja n = 4\nn(1)")
	if err.Kind != runtime.ErrNotCallable {
		t.Fatalf("want NotCallable, got %v", err)
	}
}

func TestTypeMismatchPayload(t *testing.T) {
	err := evalErr(t, "[1] - 2")
	if err.Kind != runtime.ErrTypeMismatch {
		t.Fatalf("want TypeMismatch, got %v", err)
	}
	if err.First != runtime.KindList || err.Second != runtime.KindNumber {
		t.Fatalf("wrong operand kinds: %s, %s", err.First, err.Second)
	}
}

func TestRaisedDiagnosticCarriesTrace(t *testing.T) {
	src := `
função interna()
  lance "falhou"
fim
função externa()
  retorna interna()
fim
externa()`
	err := evalErr(t, src)
	if err.Kind != runtime.ErrUserRaised {
		t.Fatalf("want UserRaised, got %v", err)
	}
	if len(err.Trace) != 2 {
		t.Fatalf("want 2 trace frames, got %d", len(err.Trace))
	}
	if err.Trace[0].Name != "interna" || err.Trace[1].Name != "externa" {
		t.Fatalf("wrong trace order: %v", err.Trace)
	}
}

func TestNumberFormatting(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"1 / 3", "0.3333333333333333"},
		{"0.1 + 0.2", "0.30000000000000004"},
		{"2.0", "2"},
		{"10 ^ 20", "100000000000000000000"},
	}
	for _, tc := range cases {
		value := evalOK(t, tc.src)
		if got := runtime.Format(value); got != tc.want {
			t.Errorf("%s: want %s, got %s", tc.src, tc.want, got)
		}
	}
}

func TestConfigurableRecursionCeiling(t *testing.T) {
	tokens, _ := scanner.New(`
função desce(n)
  se n é 0 então
    retorna 0
  fim
  retorna desce(n - 1)
fim
desce(50)`, source.NewID()).Scan()
	program, synErrs := parser.Parse(tokens)
	if len(synErrs) > 0 {
		t.Fatalf("parse: %v", synErrs[0])
	}

	rt := runtime.New(&runtime.RecordingPlatform{},
		runtime.WithBase(runtime.Prelude()),
		runtime.WithMaxDepth(20))
	_, err := rt.Eval(program)
	if err == nil || err.Kind != runtime.ErrStackOverflow {
		t.Fatalf("want StackOverflow under a low ceiling, got %v", err)
	}
}

func TestTopLevelResultIsLastExpression(t *testing.T) {
	wantNumber(t, evalOK(t, "1 + 1\n2 + 2\n3 + 3"), 6)
	if _, ok := evalOK(t, "seja x = 1").(runtime.NilValue); !ok {
		t.Fatal("a program ending in a declaration yields Nada")
	}
}

func TestFormatQuotedInCollections(t *testing.T) {
	value := evalOK(t, `[Nada, verdadeiro, "a\nb"]`)
	want := `[Nada, verdadeiro, "a\nb"]`
	if got := runtime.Format(value); got != want {
		t.Fatalf("want %s, got %s", want, got)
	}
}

func TestDictFormatKeepsInsertionOrder(t *testing.T) {
	value := evalOK(t, `{ zebra: 1, abelha: 2, 10: 3 }`)
	got := runtime.Format(value)
	wantOrder := []string{"zebra", "abelha", "10"}
	last := -1
	for _, key := range wantOrder {
		idx := strings.Index(got, key)
		if idx < 0 || idx < last {
			t.Fatalf("keys out of insertion order in %s", got)
		}
		last = idx
	}
}

func TestSpecialNumberConstants(t *testing.T) {
	v := evalOK(t, "infinito")
	n, ok := v.(runtime.NumberValue)
	if !ok || !math.IsInf(n.Val, 1) {
		t.Fatalf("want +infinito, got %s", runtime.Format(v))
	}
	if got := runtime.Format(v); got != "infinito" {
		t.Fatalf("infinito must print as its own name, got %q", got)
	}

	v = evalOK(t, "-infinito")
	n, ok = v.(runtime.NumberValue)
	if !ok || !math.IsInf(n.Val, -1) {
		t.Fatalf("want -infinito, got %s", runtime.Format(v))
	}
	if got := runtime.Format(v); got != "-infinito" {
		t.Fatalf("want -infinito, got %q", got)
	}

	v = evalOK(t, "NaN")
	n, ok = v.(runtime.NumberValue)
	if !ok || !math.IsNaN(n.Val) {
		t.Fatalf("want NaN, got %s", runtime.Format(v))
	}
	if got := runtime.Format(v); got != "NaN" {
		t.Fatalf("NaN must print as its own name, got %q", got)
	}

	wantBool(t, evalOK(t, "infinito > 1000000"), true)
	wantBool(t, evalOK(t, "NaN é NaN"), false)
	wantNumber(t, evalOK(t, "seja infinito = 7\ninfinito"), 7)
}

func TestClockBuiltin(t *testing.T) {
	// The recording platform pins the clock at the epoch.
	wantNumber(t, evalOK(t, "agora()"), 0)
}
