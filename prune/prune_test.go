package prune

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tpplang/tppc/ast"
	"github.com/tpplang/tppc/cst"
	"github.com/tpplang/tppc/lexer"
	"github.com/tpplang/tppc/parser"
	"github.com/tpplang/tppc/token"
)

func mustPrune(t *testing.T, input string) *ast.Program {
	t.Helper()
	p := parser.New(lexer.New("prune.tpp", input))
	root := p.Parse()
	require.Empty(t, p.Diagnostics())
	program, err := Program(root)
	require.NoError(t, err)
	return program
}

func TestPruneProgram(t *testing.T) {
	input := `inteiro: a[10], b
flutuante principal()
  a[1] := (b + 2) * -3
  se a[1] > 0 então escreva(a[1]) senão f(b, 1.5) fim
  repita leia(b) até b = 0
  retorna(0)
fim`
	program := mustPrune(t, input)
	require.Len(t, program.Decls, 2)

	expected := "inteiro: a[10], b\n" +
		"flutuante principal() a[1] := ((b + 2) * (-3)); se (a[1] > 0) então escreva(a[1]); senão f(b, 1.5); fim; repita leia(b); até (b = 0); retorna(0); fim\n"
	assert.Equal(t, expected, program.String())
}

func TestPruneShapes(t *testing.T) {
	program := mustPrune(t, `inteiro: m[2][3]
total := 0
soma(inteiro: v[], flutuante: x, inteiro: g[][])
  f()
  x := y := 1
fim`)
	require.Len(t, program.Decls, 3)

	decl := program.Decls[0].(*ast.VarDecl)
	require.Len(t, decl.Vars, 1)
	require.Len(t, decl.Vars[0].Indices, 2)
	assert.Equal(t, "2", decl.Vars[0].Indices[0].String())
	assert.Equal(t, "3", decl.Vars[0].Indices[1].String())

	init := program.Decls[1].(*ast.Assign)
	assert.Equal(t, "total", init.Target.Name)
	assert.Equal(t, token.ASSIGN, init.Token.Type)

	fn := program.Decls[2].(*ast.FuncDecl)
	assert.Equal(t, "vazio", fn.ReturnType)
	require.Len(t, fn.Params, 3)
	assert.Equal(t, 1, fn.Params[0].Dims)
	assert.Equal(t, "flutuante", fn.Params[1].Type)
	assert.Equal(t, 0, fn.Params[1].Dims)
	assert.Equal(t, 2, fn.Params[2].Dims)

	require.Len(t, fn.Body, 2)
	call := fn.Body[0].(*ast.ExprStmt).X.(*ast.Call)
	assert.Empty(t, call.Args)
	chained := fn.Body[1].(*ast.Assign)
	inner, ok := chained.Value.(*ast.Assign)
	require.True(t, ok)
	assert.Equal(t, "y", inner.Target.Name)
}

func TestPruneKeepsLiteralKinds(t *testing.T) {
	program := mustPrune(t, "x := 1 + 2.5 - 3e2")
	var kinds []token.TokenType
	ast.Inspect(program, func(n ast.Node) bool {
		if num, ok := n.(*ast.Number); ok {
			kinds = append(kinds, num.Kind)
		}
		return true
	})
	assert.Equal(t, []token.TokenType{token.INT, token.FLOAT, token.SCI}, kinds)
}

func TestPruneYieldsOnlyKnownShapes(t *testing.T) {
	program := mustPrune(t, `inteiro: v[5]
inteiro fat(inteiro: n)
  inteiro: r
  se n <= 1 então
    retorna(1)
  fim
  r := n * fat(n - 1)
  retorna(r)
fim
inteiro principal()
  inteiro: i
  i := 0
  repita
    v[i] := fat(i)
    escreva(v[i])
    i := i + 1
  até i >= 5 || !(i < 5)
  retorna(0)
fim`)

	count := 0
	ast.Inspect(program, func(n ast.Node) bool {
		count++
		switch n.(type) {
		case *ast.Program, *ast.VarDecl, *ast.Var, *ast.FuncDecl, *ast.Binary, *ast.Unary,
			*ast.Call, *ast.Number, *ast.If, *ast.Repeat, *ast.Assign, *ast.Read,
			*ast.Write, *ast.Return, *ast.ExprStmt:
		default:
			t.Errorf("unexpected node %T", n)
		}
		return true
	})
	assert.Greater(t, count, 20)
}

func TestPruneRejectsBrokenTrees(t *testing.T) {
	_, err := Program(nil)
	require.ErrorIs(t, err, ErrNoTree)

	p := parser.New(lexer.New("bad.tpp", "x := (1 +"))
	root := p.Parse()
	require.NotNil(t, root)
	_, err = Program(root)
	require.ErrorIs(t, err, ErrSyntaxError)
}

func TestPruneDoesNotMutateTree(t *testing.T) {
	p := parser.New(lexer.New("same.tpp", "inteiro: x\nprincipal()\n  x := 1 + 2\nfim"))
	root := p.Parse()
	before := root.String()

	_, err := Program(root)
	require.NoError(t, err)
	assert.Equal(t, before, root.String())
	assert.True(t, cst.Equal(root, root))
}
