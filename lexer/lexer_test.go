package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tpplang/tppc/token"
)

type Test struct {
	expectedType    token.TokenType
	expectedLiteral string
}

func checkInput(t *testing.T, input string, tests []Test) {
	t.Helper()
	l := New("test.tpp", input)

	for i, tt := range tests {
		tok := l.NextToken()
		require.Equal(t, tt.expectedType, tok.Type, "tests[%d] - tokentype wrong (literal %q)", i, tok.Literal)
		require.Equal(t, tt.expectedLiteral, tok.Literal, "tests[%d] - literal wrong", i)
	}
}

func TestNextToken(t *testing.T) {
	input := `inteiro: a[10], b
flutuante: f
{ comentário
  em duas linhas }
inteiro soma(inteiro: x, flutuante: v[])
  se x <> 0 && !(x >= 2) || x <= 1 então
    a[0] := x + 1 - 2 * 3 / 4
  senão
    f := 3.14
  fim
  repita
    leia(b)
  até b = 1e-3
  escreva(f > 2.5E10)
  retorna(x < 0)
fim
`

	tests := []Test{
		{token.INT_TYPE, "inteiro"},
		{token.COLON, ":"},
		{token.IDENT, "a"},
		{token.LBRACK, "["},
		{token.INT, "10"},
		{token.RBRACK, "]"},
		{token.COMMA, ","},
		{token.IDENT, "b"},
		{token.FLOAT_TYPE, "flutuante"},
		{token.COLON, ":"},
		{token.IDENT, "f"},
		{token.INT_TYPE, "inteiro"},
		{token.IDENT, "soma"},
		{token.LPAREN, "("},
		{token.INT_TYPE, "inteiro"},
		{token.COLON, ":"},
		{token.IDENT, "x"},
		{token.COMMA, ","},
		{token.FLOAT_TYPE, "flutuante"},
		{token.COLON, ":"},
		{token.IDENT, "v"},
		{token.LBRACK, "["},
		{token.RBRACK, "]"},
		{token.RPAREN, ")"},
		{token.IF, "se"},
		{token.IDENT, "x"},
		{token.NEQ, "<>"},
		{token.INT, "0"},
		{token.AND, "&&"},
		{token.NOT, "!"},
		{token.LPAREN, "("},
		{token.IDENT, "x"},
		{token.GEQ, ">="},
		{token.INT, "2"},
		{token.RPAREN, ")"},
		{token.OR, "||"},
		{token.IDENT, "x"},
		{token.LEQ, "<="},
		{token.INT, "1"},
		{token.THEN, "então"},
		{token.IDENT, "a"},
		{token.LBRACK, "["},
		{token.INT, "0"},
		{token.RBRACK, "]"},
		{token.ASSIGN, ":="},
		{token.IDENT, "x"},
		{token.ADD, "+"},
		{token.INT, "1"},
		{token.SUB, "-"},
		{token.INT, "2"},
		{token.MUL, "*"},
		{token.INT, "3"},
		{token.QUO, "/"},
		{token.INT, "4"},
		{token.ELSE, "senão"},
		{token.IDENT, "f"},
		{token.ASSIGN, ":="},
		{token.FLOAT, "3.14"},
		{token.END, "fim"},
		{token.REPEAT, "repita"},
		{token.READ, "leia"},
		{token.LPAREN, "("},
		{token.IDENT, "b"},
		{token.RPAREN, ")"},
		{token.UNTIL, "até"},
		{token.IDENT, "b"},
		{token.EQL, "="},
		{token.SCI, "1e-3"},
		{token.WRITE, "escreva"},
		{token.LPAREN, "("},
		{token.IDENT, "f"},
		{token.GTR, ">"},
		{token.SCI, "2.5E10"},
		{token.RPAREN, ")"},
		{token.RETURN, "retorna"},
		{token.LPAREN, "("},
		{token.IDENT, "x"},
		{token.LSS, "<"},
		{token.INT, "0"},
		{token.RPAREN, ")"},
		{token.END, "fim"},
		{token.EOF, ""},
	}

	checkInput(t, input, tests)
}

func TestUnaccentedKeywords(t *testing.T) {
	checkInput(t, "se entao senao ate", []Test{
		{token.IF, "se"},
		{token.THEN, "entao"},
		{token.ELSE, "senao"},
		{token.UNTIL, "ate"},
		{token.EOF, ""},
	})
}

func TestIllegalCharacters(t *testing.T) {
	checkInput(t, "a # b & c | d", []Test{
		{token.IDENT, "a"},
		{token.ILLEGAL, "#"},
		{token.IDENT, "b"},
		{token.ILLEGAL, "&"},
		{token.IDENT, "c"},
		{token.ILLEGAL, "|"},
		{token.IDENT, "d"},
		{token.EOF, ""},
	})
}

func TestUnterminatedComment(t *testing.T) {
	checkInput(t, "x { never closed", []Test{
		{token.IDENT, "x"},
		{token.ILLEGAL, "{"},
		{token.EOF, ""},
	})
}

func TestExponentNeedsDigits(t *testing.T) {
	checkInput(t, "2e 3e+ 4e+1", []Test{
		{token.INT, "2"},
		{token.IDENT, "e"},
		{token.INT, "3"},
		{token.IDENT, "e"},
		{token.ADD, "+"},
		{token.SCI, "4e+1"},
		{token.EOF, ""},
	})
}

func TestPositions(t *testing.T) {
	l := New("pos.tpp", "inteiro: x\n  x := 1")
	expected := []struct {
		line, col int
	}{
		{1, 1}, {1, 8}, {1, 10}, {2, 3}, {2, 5}, {2, 8}, {2, 9},
	}
	for i, e := range expected {
		tok := l.NextToken()
		require.Equal(t, "pos.tpp", tok.FileName)
		require.Equal(t, e.line, tok.Line, "token %d (%q) line", i, tok.Literal)
		require.Equal(t, e.col, tok.Column, "token %d (%q) column", i, tok.Literal)
	}
}
