package token

import (
	"fmt"
	"strconv"
)

type TokenType int

const (
	ILLEGAL TokenType = iota
	EOF

	literal_beg
	// Identifiers + literals
	IDENT // x, soma, vetor_a
	INT   // 1343456
	FLOAT // 123.45
	SCI   // 1.5e-3
	literal_end

	operator_beg
	// Operators and delimiters
	ASSIGN // :=
	NOT    // !

	ADD // +
	SUB // -
	MUL // *
	QUO // /

	AND // &&
	OR  // ||

	LPAREN // (
	LBRACK // [
	COMMA  // ,
	COLON  // :

	RPAREN // )
	RBRACK // ]
	operator_end

	comparison_beg
	EQL // =
	LSS // <
	GTR // >

	NEQ // <>
	LEQ // <=
	GEQ // >=
	comparison_end

	keyword_beg
	IF     // se
	THEN   // então
	ELSE   // senão
	END    // fim
	REPEAT // repita
	UNTIL  // até
	READ   // leia
	WRITE  // escreva
	RETURN // retorna

	INT_TYPE   // inteiro
	FLOAT_TYPE // flutuante
	keyword_end
)

var tokens = [...]string{
	ILLEGAL: "ILLEGAL",
	EOF:     "EOF",

	IDENT: "IDENT",
	INT:   "INT",
	FLOAT: "FLOAT",
	SCI:   "SCI",

	ASSIGN: ":=",
	NOT:    "!",

	ADD: "+",
	SUB: "-",
	MUL: "*",
	QUO: "/",

	AND: "&&",
	OR:  "||",

	LPAREN: "(",
	LBRACK: "[",
	COMMA:  ",",
	COLON:  ":",

	RPAREN: ")",
	RBRACK: "]",

	EQL: "=",
	LSS: "<",
	GTR: ">",

	NEQ: "<>",
	LEQ: "<=",
	GEQ: ">=",

	IF:     "se",
	THEN:   "então",
	ELSE:   "senão",
	END:    "fim",
	REPEAT: "repita",
	UNTIL:  "até",
	READ:   "leia",
	WRITE:  "escreva",
	RETURN: "retorna",

	INT_TYPE:   "inteiro",
	FLOAT_TYPE: "flutuante",
}

// terminals holds the grammar name of every terminal, as it appears in the
// concrete syntax tree.
var terminals = [...]string{
	IDENT: "ID",
	INT:   "NUM_INTEIRO",
	FLOAT: "NUM_PONTO_FLUTUANTE",
	SCI:   "NUM_NOTACAO_CIENTIFICA",

	ASSIGN: "ATRIBUICAO",
	NOT:    "NAO",

	ADD: "MAIS",
	SUB: "MENOS",
	MUL: "VEZES",
	QUO: "DIVIDE",

	AND: "E",
	OR:  "OU",

	LPAREN: "ABRE_PARENTESE",
	LBRACK: "ABRE_COLCHETE",
	COMMA:  "VIRGULA",
	COLON:  "DOIS_PONTOS",

	RPAREN: "FECHA_PARENTESE",
	RBRACK: "FECHA_COLCHETE",

	EQL: "IGUAL",
	LSS: "MENOR",
	GTR: "MAIOR",

	NEQ: "DIFERENTE",
	LEQ: "MENOR_IGUAL",
	GEQ: "MAIOR_IGUAL",

	IF:     "SE",
	THEN:   "ENTAO",
	ELSE:   "SENAO",
	END:    "FIM",
	REPEAT: "REPITA",
	UNTIL:  "ATE",
	READ:   "LEIA",
	WRITE:  "ESCREVA",
	RETURN: "RETORNA",

	INT_TYPE:   "INTEIRO",
	FLOAT_TYPE: "FLUTUANTE",
}

var keywords = map[string]TokenType{
	"se":        IF,
	"então":     THEN,
	"entao":     THEN,
	"senão":     ELSE,
	"senao":     ELSE,
	"fim":       END,
	"repita":    REPEAT,
	"até":       UNTIL,
	"ate":       UNTIL,
	"leia":      READ,
	"escreva":   WRITE,
	"retorna":   RETURN,
	"inteiro":   INT_TYPE,
	"flutuante": FLOAT_TYPE,
}

// LookupIdent returns the keyword type for ident, or IDENT.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

type Token struct {
	FileName string
	Type     TokenType
	Literal  string
	Line     int
	Column   int
}

func (t Token) IsLiteral() bool {
	return literal_beg < t.Type && t.Type < literal_end
}

func (t Token) IsOperator() bool {
	return operator_beg < t.Type && t.Type < operator_end
}

func (t Token) IsComparison() bool {
	return comparison_beg < t.Type && t.Type < comparison_end
}

func (t Token) IsKeyword() bool {
	return keyword_beg < t.Type && t.Type < keyword_end
}

func (t Token) String() string {
	return t.Type.String()
}

func (tokenType TokenType) String() string {
	s := ""
	if 0 <= tokenType && tokenType < TokenType(len(tokens)) {
		s = tokens[tokenType]
	}

	if s == "" {
		s = "token(" + strconv.Itoa(int(tokenType)) + ")"
	}

	return s
}

// Terminal returns the grammar name of the token type, e.g. "ABRE_PARENTESE"
// for LPAREN. It panics for types that never reach the parser.
func (tokenType TokenType) Terminal() string {
	if 0 <= tokenType && tokenType < TokenType(len(terminals)) && terminals[tokenType] != "" {
		return terminals[tokenType]
	}
	panic(fmt.Sprintf("token type %s has no terminal name", tokenType))
}

var terminalTypes = func() map[string]TokenType {
	m := make(map[string]TokenType, len(terminals))
	for i, name := range terminals {
		if name != "" {
			m[name] = TokenType(i)
		}
	}
	return m
}()

// FromTerminal maps a grammar terminal name back to its token type.
func FromTerminal(name string) (TokenType, bool) {
	t, ok := terminalTypes[name]
	return t, ok
}

// CompileError is a problem found while lowering a program that does not stop
// the compiler from producing the rest of the module.
type CompileError struct {
	Token Token
	Msg   string
}

func (e *CompileError) Error() string {
	if e.Token.FileName == "" {
		return fmt.Sprintf("%d:%d: %s", e.Token.Line, e.Token.Column, e.Msg)
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.Token.FileName, e.Token.Line, e.Token.Column, e.Msg)
}
