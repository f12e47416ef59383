// Package parser turns a T++ token stream into a concrete syntax tree. The
// parser is recursive descent, but it builds the same left-deep tree an LR
// parser reducing the grammar would, and it recovers from malformed input by
// leaving an error node in place of the failed production.
package parser

import (
	"fmt"
	"strings"

	"github.com/tpplang/tppc/cst"
	"github.com/tpplang/tppc/diag"
	"github.com/tpplang/tppc/token"
)

// TokenSource yields tokens until it returns token.EOF, and EOF forever after.
type TokenSource interface {
	NextToken() token.Token
}

// Syntax diagnostic codes, one per production family.
const (
	ErrListaDeclaracoes        = "ERR-SYN-LISTA-DECLARACOES"
	ErrDeclaracaoVariaveis     = "ERR-SYN-LISTA-DECLARACAO-VARIAVEIS"
	ErrListaVariaveis          = "ERR-SYN-LISTA-VARIAVEIS"
	ErrVar                     = "ERR-SYN-VAR"
	ErrIndice                  = "ERR-SYN-INDICE"
	ErrDeclaracaoFuncao        = "ERR-SYN-DECLARACAO-FUNCAO"
	ErrCabecalho               = "ERR-SYN-CABECALHO"
	ErrListaParametros         = "ERR-SYN-LISTA-PARAMETROS"
	ErrParametro               = "ERR-SYN-PARAMETRO"
	ErrCorpo                   = "ERR-SYN-CORPO"
	ErrSe                      = "ERR-SYN-SE"
	ErrRepita                  = "ERR-SYN-REPITA"
	ErrAtribuicao              = "ERR-SYN-ATRIBUICAO"
	ErrLeia                    = "ERR-SYN-LEIA"
	ErrEscreva                 = "ERR-SYN-ESCREVA"
	ErrRetorna                 = "ERR-SYN-RETORNA"
	ErrExpressaoLogica         = "ERR-SYN-EXPRESSAO-LOGICA"
	ErrExpressaoSimples        = "ERR-SYN-EXPRESSAO-SIMPLES"
	ErrExpressaoAditiva        = "ERR-SYN-EXPRESSAO-ADITIVA"
	ErrExpressaoMultiplicativa = "ERR-SYN-EXPRESSAO-MULTIPLICATIVA"
	ErrExpressaoUnaria         = "ERR-SYN-EXPRESSAO-UNARIA"
	ErrFator                   = "ERR-SYN-FATOR"
	ErrChamadaFuncao           = "ERR-SYN-CHAMADA-FUNCAO"
	ErrListaArgumentos         = "ERR-SYN-LISTA-ARGUMENTOS"

	ErrInvalidChar   = "ERR-LEX-INV-CHAR"
	WarnNoSyntaxTree = "WAR-SYN-NOT-GEN-SYN-TREE"
)

type Parser struct {
	src   TokenSource
	diags diag.List

	curToken  token.Token
	peekToken token.Token

	// lastLine is the line of the most recently consumed token. Every
	// reduced node is stamped with it.
	lastLine int

	// recovering is set once an error has been reported and cleared at the
	// next synchronization point. While set, further failures build error
	// nodes without reporting, so one mistake yields one diagnostic.
	recovering bool
	errLine    int
}

func New(src TokenSource) *Parser {
	p := &Parser{src: src}

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()

	return p
}

// Diagnostics returns everything reported so far, in report order.
func (p *Parser) Diagnostics() diag.List {
	return p.diags
}

// HasErrors reports whether any syntax or lexical error was found.
func (p *Parser) HasErrors() bool {
	return p.diags.HasErrors()
}

func (p *Parser) nextToken() {
	if p.curToken.Type != token.ILLEGAL && p.curToken.Line > 0 {
		p.lastLine = p.curToken.Line
	}
	p.curToken = p.peekToken
	p.peekToken = p.fetch()
}

// fetch pulls the next token from the source, reporting and dropping illegal
// characters.
func (p *Parser) fetch() token.Token {
	for {
		tok := p.src.NextToken()
		if tok.Type != token.ILLEGAL {
			return tok
		}
		p.diags = append(p.diags, diag.New(ErrInvalidChar, tok.Line, tok.Column, "char", tok.Literal))
	}
}

func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) curTokenIn(ts ...token.TokenType) bool {
	for _, t := range ts {
		if p.curToken.Type == t {
			return true
		}
	}
	return false
}

// Parse consumes the whole stream and returns the root "programa" node. It
// returns nil only when the stream held no tokens at all.
func (p *Parser) Parse() *cst.Node {
	if p.curTokenIs(token.EOF) {
		p.diags = append(p.diags, diag.New(WarnNoSyntaxTree, 0, 0))
		return nil
	}
	list := p.parseListaDeclaracoes()
	return p.node("programa", list)
}

// node builds a reduced non-terminal. Its type tag is the upper-cased name.
func (p *Parser) node(name string, children ...*cst.Node) *cst.Node {
	return cst.New(name, strings.ToUpper(name), p.lastLine, children...)
}

// terminal wraps and consumes the current token.
func (p *Parser) terminal() *cst.Node {
	tok := p.curToken
	name := tok.Type.Terminal()
	var leafType string
	switch {
	case tok.Type == token.IDENT:
		leafType = cst.ID
	case tok.IsLiteral():
		leafType = cst.Value
	case tok.IsKeyword():
		leafType = name
	case tok.IsOperator() || tok.IsComparison():
		leafType = cst.Symbol
	default:
		panic(fmt.Sprintf("cannot wrap %s token as a terminal", tok.Type))
	}
	n := cst.New(name, name, tok.Line, cst.New(tok.Literal, leafType, tok.Line))
	p.nextToken()
	return n
}

// expect consumes the current token if it has type t.
func (p *Parser) expect(t token.TokenType) (*cst.Node, bool) {
	if !p.curTokenIs(t) {
		return nil, false
	}
	return p.terminal(), true
}

// fail reports code at the current token (unless already recovering) and
// returns the placeholder node for the failed production.
func (p *Parser) fail(code string) *cst.Node {
	if !p.recovering {
		tok := p.curToken
		near := tok.Literal
		if tok.Type == token.EOF {
			near = "EOF"
		}
		p.diags = append(p.diags, diag.New(code, tok.Line, tok.Column, "near", near))
		p.recovering = true
		p.errLine = p.lastLine
		if p.errLine == 0 {
			p.errLine = tok.Line
		}
	}
	line := p.lastLine
	if line == 0 {
		line = p.curToken.Line
	}
	return cst.NewError(code, line)
}

// skipToMatchingEnd discards tokens up to and including the fim that closes
// the construct being skipped, counting nested se blocks.
func (p *Parser) skipToMatchingEnd() {
	depth := 0
	for !p.curTokenIs(token.EOF) {
		switch p.curToken.Type {
		case token.IF:
			depth++
		case token.END:
			if depth == 0 {
				p.nextToken()
				return
			}
			depth--
		}
		p.nextToken()
	}
}

func isTypeToken(t token.TokenType) bool {
	return t == token.INT_TYPE || t == token.FLOAT_TYPE
}

func canStartExpression(t token.TokenType) bool {
	switch t {
	case token.IDENT, token.INT, token.FLOAT, token.SCI, token.LPAREN, token.ADD, token.SUB, token.NOT:
		return true
	}
	return false
}

func canStartStatement(t token.TokenType) bool {
	switch t {
	case token.IF, token.REPEAT, token.READ, token.WRITE, token.RETURN, token.INT_TYPE, token.FLOAT_TYPE:
		return true
	}
	return canStartExpression(t)
}

func endsBody(t token.TokenType) bool {
	return t == token.END || t == token.ELSE || t == token.UNTIL || t == token.EOF
}
