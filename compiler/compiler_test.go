package compiler

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tpplang/tppc/ast"
	"github.com/tpplang/tppc/lexer"
	"github.com/tpplang/tppc/parser"
	"github.com/tpplang/tppc/prune"
	"github.com/tpplang/tppc/token"
	"tinygo.org/x/go-llvm"
)

func mustProgram(t *testing.T, input string) *ast.Program {
	t.Helper()
	p := parser.New(lexer.New(t.Name()+".tpp", input))
	root := p.Parse()
	require.Empty(t, p.Diagnostics())
	program, err := prune.Program(root)
	require.NoError(t, err)
	return program
}

// compileErrors compiles input and returns the generator errors along with
// the IR, without requiring a clean compile.
func compileErrors(t *testing.T, input string) ([]*token.CompileError, string) {
	t.Helper()
	program := mustProgram(t, input)

	ctx := llvm.NewContext()
	defer ctx.Dispose()
	c := NewCompiler(ctx, "test")
	defer c.Dispose()

	errs := c.Compile(program)
	return errs, c.GenerateIR()
}

func compileIR(t *testing.T, input string) string {
	t.Helper()
	program := mustProgram(t, input)

	ctx := llvm.NewContext()
	defer ctx.Dispose()
	c := NewCompiler(ctx, "test")
	defer c.Dispose()

	errs := c.Compile(program)
	require.Empty(t, errs)
	ir := c.GenerateIR()
	require.NoError(t, c.Verify(), ir)
	return ir
}

func requireContains(t *testing.T, ir string, expected ...string) {
	t.Helper()
	for _, exp := range expected {
		if !strings.Contains(ir, exp) {
			t.Errorf("IR does not contain %q:\n%s", exp, ir)
		}
	}
}

func TestRuntimeAlwaysDeclared(t *testing.T) {
	ir := compileIR(t, `inteiro principal()
  retorna(0)
fim`)
	requireContains(t, ir,
		"declare i32 @leiaInteiro()",
		"declare float @leiaFlutuante()",
		"declare void @escrevaInteiro(i32)",
		"declare void @escrevaFlutuante(float)",
		"define i32 @main()",
	)
	assert.NotContains(t, ir, "@principal")
}

func TestReadWriteReturn(t *testing.T) {
	input := `inteiro: x
inteiro principal()
  leia(x)
  escreva(x)
  retorna(0)
fim`
	ir := compileIR(t, input)
	requireContains(t, ir,
		"@x = global i32 0, align 4",
		"call i32 @leiaInteiro()",
		"load i32, ",
		"call void @escrevaInteiro(i32 %",
		"br label %exit",
		"exit:",
		"ret i32 0",
	)
	assert.Regexp(t, `store i32 %\S+, (ptr|i32\*) @x, align 4`, ir)
}

func TestIfElseBothReturn(t *testing.T) {
	input := `inteiro principal()
  inteiro: a
  leia(a)
  se a > 0 então
    retorna(1)
  senão
    retorna(0)
  fim
fim`
	ir := compileIR(t, input)
	requireContains(t, ir, "icmp sgt i32", "label %then, label %else", "then:", "else:")
	assert.NotContains(t, ir, "merge")

	exits := regexp.MustCompile(`(?m)^exit\d*:`).FindAllString(ir, -1)
	assert.Len(t, exits, 2, "each arm returns from its own block")
	assert.Equal(t, 2, strings.Count(ir, "ret i32"))

	labels := regexp.MustCompile(`(?m)^[A-Za-z_][\w.]*:`).FindAllString(ir, -1)
	assert.Len(t, labels, 5, "entry, then, else and one exit block per arm")
}

func TestIfWithoutElse(t *testing.T) {
	input := `inteiro principal()
  inteiro: a
  leia(a)
  se a > 0 então
    escreva(a)
  fim
  retorna(0)
fim`
	ir := compileIR(t, input)
	requireContains(t, ir, "label %then, label %merge", "br label %merge", "merge:")
}

func TestIfOneArmReturns(t *testing.T) {
	input := `inteiro principal()
  inteiro: a
  leia(a)
  se a > 0 então
    retorna(1)
  senão
    escreva(a)
  fim
  retorna(0)
fim`
	ir := compileIR(t, input)
	requireContains(t, ir, "label %then, label %else", "br label %merge", "merge:")
	assert.Equal(t, 1, strings.Count(ir, "br label %merge"))
}

func TestRepeatUntil(t *testing.T) {
	input := `inteiro principal()
  inteiro: i
  i := 0
  repita
    i := i + 1
  até i = 10
  retorna(i)
fim`
	ir := compileIR(t, input)
	requireContains(t, ir, "br label %loop\n", "loop:", "br label %loop_val", "loop_val:", "loop_end:", "icmp eq i32")
	assert.Regexp(t, `br i1 %\S+, label %loop_end, label %loop\n`, ir)
}

func TestFunctionParams(t *testing.T) {
	input := `inteiro soma(inteiro: a, inteiro: b)
  retorna(a + b)
fim
inteiro principal()
  escreva(soma(1, 2))
  retorna(0)
fim`
	ir := compileIR(t, input)
	requireContains(t, ir,
		"define i32 @soma(i32 %a, i32 %b)",
		"%a.addr = alloca i32, align 4",
		"add i32",
		"call i32 @soma(i32 1, i32 2)",
	)
}

func TestVoidFunction(t *testing.T) {
	input := `imprime(inteiro: x)
  escreva(x)
fim
inteiro nada()
  escreva(1)
fim
inteiro principal()
  imprime(nada())
  retorna(0)
fim`
	ir := compileIR(t, input)
	requireContains(t, ir, "define void @imprime(i32 %x)", "ret void", "define i32 @nada()", "call void @imprime(i32 %")
}

func TestIntegerArithmetic(t *testing.T) {
	input := `inteiro: a, b
inteiro principal()
  leia(a)
  leia(b)
  escreva(a + b)
  escreva(a - b)
  escreva(a * b)
  escreva(a / b)
  escreva(-a)
  retorna(0)
fim`
	ir := compileIR(t, input)
	requireContains(t, ir, "add i32 %", "sub i32 %", "mul i32 %", "sdiv i32 %", "sub i32 0, %")
}

func TestFloatArithmeticAndConversions(t *testing.T) {
	input := `inteiro: a
flutuante: f
inteiro principal()
  leia(a)
  leia(f)
  f := f * a
  a := f
  escreva(f / 2.0)
  retorna(0)
fim`
	ir := compileIR(t, input)
	requireContains(t, ir,
		"@f = global float 0.000000e+00, align 4",
		"call float @leiaFlutuante()",
		"sitofp i32",
		"fmul float",
		"fptosi float",
		"fdiv float",
		"call void @escrevaFlutuante(float",
	)
}

func TestComparisons(t *testing.T) {
	tests := []struct {
		op       string
		expected string
	}{
		{"=", "icmp eq i32"},
		{"<>", "icmp ne i32"},
		{"<", "icmp slt i32"},
		{">", "icmp sgt i32"},
		{"<=", "icmp sle i32"},
		{">=", "icmp sge i32"},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			input := `inteiro: a, b
inteiro principal()
  leia(a)
  leia(b)
  se a ` + tt.op + ` b então
    escreva(1)
  fim
  retorna(0)
fim`
			ir := compileIR(t, input)
			requireContains(t, ir, tt.expected)
		})
	}
}

func TestFloatComparison(t *testing.T) {
	input := `flutuante: f
inteiro principal()
  leia(f)
  se f < 1.5 então
    escreva(f)
  fim
  retorna(0)
fim`
	ir := compileIR(t, input)
	requireContains(t, ir, "fcmp olt float")
}

func TestLogicalOperators(t *testing.T) {
	input := `inteiro: a, b
inteiro principal()
  leia(a)
  leia(b)
  se a > 0 && b > 0 então
    escreva(1)
  fim
  se a > 0 || b > 0 então
    escreva(2)
  fim
  se !a então
    escreva(3)
  fim
  retorna(0)
fim`
	ir := compileIR(t, input)
	requireContains(t, ir, "and i32", "or i32", "icmp ne i32", "zext i1", "icmp eq i32 %")
}

func TestArrays(t *testing.T) {
	input := `inteiro: v[10]
inteiro: m[2][3]
inteiro principal()
  inteiro: i
  leia(i)
  v[i] := 7
  m[1][i] := v[i]
  escreva(m[1][i])
  retorna(0)
fim`
	ir := compileIR(t, input)
	requireContains(t, ir,
		"@v = common global [10 x i32] zeroinitializer, align 4",
		"@m = common global [2 x [3 x i32]] zeroinitializer, align 4",
		"getelementptr [10 x i32]",
		"getelementptr [2 x [3 x i32]]",
	)
}

func TestLocalArray(t *testing.T) {
	input := `inteiro principal()
  inteiro: v[4]
  v[0] := 1
  escreva(v[0])
  retorna(0)
fim`
	ir := compileIR(t, input)
	requireContains(t, ir, "%v = alloca [4 x i32], align 4")
}

func TestArrayParameter(t *testing.T) {
	input := `inteiro: vet[10]
inteiro soma(inteiro: v[], inteiro: n)
  retorna(v[n])
fim
inteiro principal()
  escreva(soma(vet, 10))
  retorna(0)
fim`
	ir := compileIR(t, input)
	assert.Regexp(t, `define i32 @soma\((ptr|i32\*) %v, i32 %n\)`, ir)
	requireContains(t, ir, "call i32 @soma(")
}

func TestTopLevelInitialization(t *testing.T) {
	input := `inteiro: n
n := 5
inteiro principal()
  escreva(n)
  retorna(0)
fim`
	ir := compileIR(t, input)
	assert.Regexp(t, `store i32 5, (ptr|i32\*) @n, align 4`, ir)
}

func TestGlobalHidesLocal(t *testing.T) {
	input := `inteiro: x
inteiro principal()
  flutuante: x
  x := 2.5
  escreva(x)
  retorna(0)
fim`
	ir := compileIR(t, input)
	requireContains(t, ir, "%x = alloca float, align 4")
	assert.Regexp(t, `store i32 2, (ptr|i32\*) @x, align 4`, ir)
}

func TestCodeAfterReturnIsDropped(t *testing.T) {
	input := `inteiro principal()
  retorna(0)
  escreva(1)
fim`
	ir := compileIR(t, input)
	assert.NotContains(t, ir, "call void @escrevaInteiro")
	assert.Equal(t, 1, strings.Count(ir, "ret i32"))
}

func TestMissingReturnReturnsZero(t *testing.T) {
	input := `flutuante f()
  escreva(1)
fim
inteiro principal()
  escreva(f())
fim`
	ir := compileIR(t, input)
	requireContains(t, ir, "ret float 0.000000e+00", "ret i32 0")
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name: "undeclared function",
			input: `inteiro principal()
  g()
  retorna(0)
fim`,
			expected: "function g is not declared",
		},
		{
			name: "call before declaration",
			input: `inteiro principal()
  escreva(f())
  retorna(0)
fim
inteiro f()
  retorna(1)
fim`,
			expected: "function f is not declared",
		},
		{
			name: "undefined variable",
			input: `inteiro principal()
  escreva(y)
  retorna(0)
fim`,
			expected: "undefined variable y",
		},
		{
			name: "wrong arity",
			input: `inteiro f(inteiro: a)
  retorna(a)
fim
inteiro principal()
  escreva(f(1, 2))
  retorna(0)
fim`,
			expected: "function f takes 1 argument(s), got 2",
		},
		{
			name: "void value used",
			input: `g()
fim
inteiro principal()
  escreva(g())
  retorna(0)
fim`,
			expected: "g() does not return a value",
		},
		{
			name: "non literal array size",
			input: `inteiro: n
inteiro: v[n]
inteiro principal()
  retorna(0)
fim`,
			expected: "size of array v must be an integer literal",
		},
		{
			name: "function named like the entry symbol",
			input: `inteiro main()
  retorna(1)
fim
inteiro principal()
  retorna(0)
fim`,
			expected: "function main collides with the symbol of principal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs, _ := compileErrors(t, tt.input)
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0].Msg, tt.expected)
		})
	}
}

func TestVoidStorageRejected(t *testing.T) {
	name := token.Token{Type: token.IDENT, Literal: "x", Line: 2}
	program := &ast.Program{Decls: []ast.Statement{
		&ast.VarDecl{Token: token.Token{Type: token.IDENT, Literal: "vazio", Line: 1}, Type: "vazio", Vars: []*ast.Var{{Token: name, Name: "x"}}},
		&ast.FuncDecl{Token: name, ReturnType: "vazio", Name: "f", Params: []*ast.Param{{Token: name, Type: "vazio", Name: "p"}}},
	}}

	ctx := llvm.NewContext()
	defer ctx.Dispose()
	c := NewCompiler(ctx, "test")
	defer c.Dispose()

	errs := c.Compile(program)
	require.Len(t, errs, 2)
	assert.Equal(t, "type vazio cannot be stored", errs[0].Msg)
	assert.Equal(t, "type vazio cannot be stored", errs[1].Msg)
	assert.NotContains(t, c.GenerateIR(), "@x")
}

func TestScopeLookupOrder(t *testing.T) {
	scopes := []Scope[int]{NewScope[int](GlobalScope)}
	PushScope(&scopes, LocalScope)
	PushScope(&scopes, ParamScope)

	Put(scopes, ParamScope, "x", 3)
	Put(scopes, LocalScope, "x", 2)
	v, ok := Get(scopes, "x")
	require.True(t, ok)
	assert.Equal(t, 2, v, "locals hide parameters")

	Put(scopes, GlobalScope, "x", 1)
	v, _ = Get(scopes, "x")
	assert.Equal(t, 1, v, "globals hide locals")

	assert.True(t, Has(scopes, ParamScope, "x"))
	PopScope(&scopes)
	assert.False(t, Has(scopes, ParamScope, "x"))

	_, ok = Get(scopes, "missing")
	assert.False(t, ok)
}
