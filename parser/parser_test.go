package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tpplang/tppc/cst"
	"github.com/tpplang/tppc/lexer"
)

func parse(t *testing.T, input string) (*cst.Node, *Parser) {
	t.Helper()
	p := New(lexer.New(t.Name()+".tpp", input))
	return p.Parse(), p
}

func mustParse(t *testing.T, input string) *cst.Node {
	t.Helper()
	root, p := parse(t, input)
	require.Empty(t, p.Diagnostics(), "unexpected diagnostics")
	require.NotNil(t, root)
	return root
}

const fullProgram = `{ soma de vetor }
inteiro: v[10]
flutuante: media
n := 10

inteiro soma(inteiro: a[], inteiro: tam)
  inteiro: i, s
  i := 0
  s := 0
  repita
    s := s + a[i]
    i := i + 1
  até i = tam
  retorna(s)
fim

inteiro principal()
  leia(v[0])
  se soma(v, n) > 100 && !(n <= 0) então
    escreva(soma(v, n))
  senão
    media := soma(v, n) / 2.0
    escreva(media)
  fim
  retorna(0)
fim
`

func TestValidProgram(t *testing.T) {
	root := mustParse(t, fullProgram)

	require.Equal(t, "programa", root.Name)
	require.Equal(t, "PROGRAMA", root.Type)
	require.Len(t, root.Children, 1)
	list := root.Children[0]
	require.Equal(t, "lista_declaracoes", list.Name)
	require.NotEmpty(t, list.Children)

	assert.Len(t, root.FindAll("declaracao"), 5)
	assert.Len(t, root.FindAll("cabecalho"), 2)
	assert.Len(t, root.FindAll("repita"), 1)
	assert.Len(t, root.FindAll("se"), 1)
	assert.Len(t, root.FindAll("chamada_funcao"), 3)
	assert.False(t, root.HasErrors())
}

func TestSimpleDeclarationTree(t *testing.T) {
	root := mustParse(t, "inteiro: x")
	assert.Equal(t,
		"(programa (lista_declaracoes (declaracao (declaracao_variaveis (tipo (INTEIRO inteiro)) (DOIS_PONTOS :) (lista_variaveis (var (ID x)))))))",
		root.String())
}

func TestLeftDeepLists(t *testing.T) {
	root := mustParse(t, "inteiro: a, b, c")
	lists := root.FindAll("lista_variaveis")
	require.Len(t, lists, 3)

	outer := lists[0]
	require.Len(t, outer.Children, 3)
	assert.Equal(t, "lista_variaveis", outer.Children[0].Name)
	assert.Equal(t, "VIRGULA", outer.Children[1].Name)
	assert.Equal(t, "c", outer.Children[2].Child(0).Text())

	innermost := lists[2]
	require.Len(t, innermost.Children, 1)
	assert.Equal(t, "a", innermost.Children[0].Child(0).Text())
}

func TestEmptyBodyAndParams(t *testing.T) {
	root := mustParse(t, "principal()\nfim")
	header := root.FindAll("cabecalho")[0]
	require.Len(t, header.Children, 6)
	assert.Equal(t, "(lista_parametros vazio)", header.Children[2].String())
	assert.Equal(t, "(corpo vazio)", header.Children[4].String())
}

func TestArrayParameter(t *testing.T) {
	root := mustParse(t, "f(inteiro: m[][])\nfim")
	params := root.FindAll("parametro")
	require.Len(t, params, 3)
	// parametro [ ] wraps the plain parameter twice
	assert.Equal(t, "ABRE_COLCHETE", params[0].Children[1].Name)
	assert.Equal(t, "FECHA_COLCHETE", params[0].Children[2].Name)
	assert.Len(t, params[2].Children, 3)
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input    string
		level    string
		operator string
	}{
		{"x := 1 + 2 * 3", "expressao_aditiva", "+"},
		{"x := 1 * 2 + 3", "expressao_aditiva", "+"},
		{"x := 1 < 2 + 3", "expressao_simples", "<"},
		{"x := 1 = 2 && 3 <> 4", "expressao_logica", "&&"},
		{"x := 1 || 2 >= 3", "expressao_logica", "||"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			root := mustParse(t, tt.input)
			value := root.FindAll("atribuicao")[0].Children[2]
			require.Equal(t, "expressao", value.Name)

			// the outermost binary node is the lowest precedence operator
			var top *cst.Node
			value.Walk(func(n *cst.Node) bool {
				if top == nil && len(n.Children) == 3 {
					top = n
				}
				return top == nil
			})
			require.NotNil(t, top)
			assert.Equal(t, tt.level, top.Name)
			assert.Equal(t, tt.operator, top.Children[1].Child(0).Text())
		})
	}
}

func TestLeftAssociativity(t *testing.T) {
	root := mustParse(t, "x := 8 - 4 - 2")
	adds := root.FindAll("expressao_aditiva")
	require.Len(t, adds, 3)
	// (8 - 4) - 2
	require.Len(t, adds[0].Children, 3)
	assert.Equal(t, "expressao_aditiva", adds[0].Children[0].Name)
	assert.Len(t, adds[0].Children[0].Children, 3)
	assert.Equal(t, "expressao_multiplicativa", adds[0].Children[2].Name)
}

func TestUnaryAndNumbers(t *testing.T) {
	root := mustParse(t, "x := -1.5e3\ny := !(x)\nz := +2.0")
	unary := root.FindAll("expressao_unaria")
	require.Len(t, unary, 4)
	assert.Equal(t, "operador_soma", unary[0].Children[0].Name)
	num := root.FindAll("numero")[0]
	assert.Equal(t, "NUM_NOTACAO_CIENTIFICA", num.Children[0].Name)
	assert.Equal(t, cst.Value, num.Children[0].Children[0].Type)
	assert.Equal(t, "operador_negacao", unary[1].Children[0].Name)
}

func TestAssignmentAsExpressionStatement(t *testing.T) {
	root := mustParse(t, "principal()\n  a[i] := b\n  f(a)\nfim")
	actions := root.FindAll("acao")
	require.Len(t, actions, 2)
	assert.Equal(t, "atribuicao", actions[0].Children[0].Children[0].Name)
	assert.Len(t, root.FindAll("indice"), 1)
	assert.Len(t, root.FindAll("chamada_funcao"), 1)
}

func TestReparseIsStable(t *testing.T) {
	a := mustParse(t, fullProgram)
	b := mustParse(t, "\n\n"+fullProgram)
	c := mustParse(t, "inteiro:v[ 10 ] flutuante :media n:=10 inteiro soma(inteiro:a[],inteiro:tam) inteiro:i,s i:=0 s:=0 repita s:=s+a[i] i:=i+1 até i=tam retorna(s) fim inteiro principal() leia(v[0]) se soma(v,n)>100&&!(n<=0) então escreva(soma(v,n)) senão media:=soma(v,n)/2.0 escreva(media) fim retorna(0) fim")

	assert.True(t, cst.Equal(a, b))
	assert.True(t, cst.Equal(a, c))
}

func TestLinesAreStamped(t *testing.T) {
	root := mustParse(t, "inteiro: x\n\nprincipal()\n  x := 1\nfim\n")
	assign := root.FindAll("atribuicao")[0]
	assert.Equal(t, 4, assign.Line)
	id := assign.Children[0].Children[0]
	assert.Equal(t, 4, id.Line)
	assert.Equal(t, 5, root.Line)
}

func TestEmptyStream(t *testing.T) {
	for _, input := range []string{"", "   \n\t", "{ só um comentário }", "@ #"} {
		root, p := parse(t, input)
		assert.Nil(t, root)
		codes := p.Diagnostics().Codes()
		require.NotEmpty(t, codes)
		assert.Equal(t, WarnNoSyntaxTree, codes[len(codes)-1])
	}
}

func TestRecovery(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		codes    []string
		survives string // a node that must still be parsed after the error
	}{
		{
			name:     "missing paren in escreva",
			input:    "inteiro: x\nprincipal()\n  escreva(x\n  x := 1\nfim",
			codes:    []string{ErrEscreva},
			survives: "atribuicao",
		},
		{
			name:     "se without então",
			input:    "principal()\n  se x > 1\n    x := 2\n  fim\n  escreva(1)\nfim",
			codes:    []string{ErrSe},
			survives: "escreva",
		},
		{
			name:     "stray top level token",
			input:    "fim\ninteiro: x",
			codes:    []string{ErrListaDeclaracoes},
			survives: "declaracao_variaveis",
		},
		{
			name:     "illegal character",
			input:    "inteiro: x @\nflutuante: y",
			codes:    []string{ErrInvalidChar},
			survives: "declaracao_variaveis",
		},
		{
			name:  "function without fim",
			input: "principal()\n  x := 1\n",
			codes: []string{ErrCabecalho},
		},
		{
			name:     "parameter without colon",
			input:    "inteiro f(inteiro x)\nfim\ninteiro: y",
			codes:    []string{ErrParametro},
			survives: "declaracao_variaveis",
		},
		{
			name:  "dangling unary operator",
			input: "x := - * 2",
			codes: []string{ErrExpressaoUnaria},
		},
		{
			name:     "additive without right operand",
			input:    "x := 1 +\ninteiro: y",
			codes:    []string{ErrExpressaoAditiva},
			survives: "declaracao_variaveis",
		},
		{
			name:     "repita without até",
			input:    "principal()\n  repita\n    x := 1\nfim\ninteiro: y",
			codes:    []string{ErrRepita},
			survives: "declaracao_variaveis",
		},
		{
			name:     "trailing comma in arguments",
			input:    "principal()\n  f(1,)\n  escreva(2)\nfim",
			codes:    []string{ErrListaArgumentos},
			survives: "escreva",
		},
		{
			name:  "unclosed index",
			input: "inteiro: v[10\n",
			codes: []string{ErrIndice},
		},
		{
			name:     "junk statement",
			input:    "principal()\n  ) )\n  escreva(1)\nfim",
			codes:    []string{ErrCorpo},
			survives: "escreva",
		},
		{
			name:     "missing declaration colon",
			input:    "inteiro x\nflutuante: y",
			codes:    []string{ErrCabecalho},
			survives: "declaracao_variaveis",
		},
		{
			name:     "type without name",
			input:    "inteiro 5\nflutuante: y",
			codes:    []string{ErrDeclaracaoFuncao},
			survives: "declaracao_variaveis",
		},
		{
			name:     "unclosed parenthesis",
			input:    "x := (1 + 2\ninteiro: y",
			codes:    []string{ErrFator},
			survives: "declaracao_variaveis",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, p := parse(t, tt.input)
			require.Equal(t, tt.codes, p.Diagnostics().Codes())
			require.NotNil(t, root)
			assert.Equal(t, "programa", root.Name)
			if tt.codes[0] != ErrInvalidChar {
				assert.True(t, root.HasErrors())
			}
			if tt.survives != "" {
				assert.NotEmpty(t, root.FindAll(tt.survives), "expected %s to survive recovery", tt.survives)
			}
		})
	}
}

func TestGarbageTerminates(t *testing.T) {
	inputs := []string{
		") ) ] := , : fim senão até",
		"se se se então então",
		"principal( repita até até fim fim fim",
		"inteiro: [ ] , , := 1",
		"f(((((",
	}
	for _, input := range inputs {
		root, p := parse(t, input)
		require.NotNil(t, root, input)
		assert.True(t, p.HasErrors(), input)
	}
}
