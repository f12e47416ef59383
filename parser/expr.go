package parser

import (
	"github.com/tpplang/tppc/cst"
	"github.com/tpplang/tppc/token"
)

// parseExpressao parses either an assignment or a logical expression. Both
// may start with a var, so the var is parsed first and handed down as the
// leftmost operand when no := follows.
func (p *Parser) parseExpressao() *cst.Node {
	if p.curTokenIs(token.IDENT) && !p.peekTokenIs(token.LPAREN) {
		v := p.parseVar()
		if p.curTokenIs(token.ASSIGN) {
			return p.node("expressao", p.finishAtribuicao(v))
		}
		seed := p.node("expressao_unaria", p.node("fator", v))
		return p.node("expressao", p.parseExpressaoLogica(seed))
	}
	return p.node("expressao", p.parseExpressaoLogica(nil))
}

// binaryLevel describes one rung of the precedence ladder.
type binaryLevel struct {
	name     string
	operator string
	code     string
	ops      []token.TokenType
}

var (
	logicalLevel = binaryLevel{
		name: "expressao_logica", operator: "operador_logico", code: ErrExpressaoLogica,
		ops: []token.TokenType{token.AND, token.OR},
	}
	relationalLevel = binaryLevel{
		name: "expressao_simples", operator: "operador_relacional", code: ErrExpressaoSimples,
		ops: []token.TokenType{token.EQL, token.NEQ, token.LSS, token.GTR, token.LEQ, token.GEQ},
	}
	additiveLevel = binaryLevel{
		name: "expressao_aditiva", operator: "operador_soma", code: ErrExpressaoAditiva,
		ops: []token.TokenType{token.ADD, token.SUB},
	}
	multiplicativeLevel = binaryLevel{
		name: "expressao_multiplicativa", operator: "operador_multiplicacao", code: ErrExpressaoMultiplicativa,
		ops: []token.TokenType{token.MUL, token.QUO},
	}
)

// parseLevel builds the left-deep chain for one level: the first operand
// comes from next(seed), every following one from next(nil).
func (p *Parser) parseLevel(lv binaryLevel, seed *cst.Node, next func(*cst.Node) *cst.Node) *cst.Node {
	left := p.node(lv.name, next(seed))
	for p.curTokenIn(lv.ops...) {
		op := p.node(lv.operator, p.terminal())
		if !canStartExpression(p.curToken.Type) {
			return p.node(lv.name, left, op, p.fail(lv.code))
		}
		right := next(nil)
		left = p.node(lv.name, left, op, right)
	}
	return left
}

func (p *Parser) parseExpressaoLogica(seed *cst.Node) *cst.Node {
	return p.parseLevel(logicalLevel, seed, p.parseExpressaoSimples)
}

func (p *Parser) parseExpressaoSimples(seed *cst.Node) *cst.Node {
	return p.parseLevel(relationalLevel, seed, p.parseExpressaoAditiva)
}

func (p *Parser) parseExpressaoAditiva(seed *cst.Node) *cst.Node {
	return p.parseLevel(additiveLevel, seed, p.parseExpressaoMultiplicativa)
}

func (p *Parser) parseExpressaoMultiplicativa(seed *cst.Node) *cst.Node {
	return p.parseLevel(multiplicativeLevel, seed, p.parseExpressaoUnaria)
}

func (p *Parser) parseExpressaoUnaria(seed *cst.Node) *cst.Node {
	if seed != nil {
		return seed
	}
	var op *cst.Node
	switch p.curToken.Type {
	case token.ADD, token.SUB:
		op = p.node("operador_soma", p.terminal())
	case token.NOT:
		op = p.node("operador_negacao", p.terminal())
	default:
		return p.node("expressao_unaria", p.parseFator())
	}
	if !canStartFator(p.curToken.Type) {
		return p.fail(ErrExpressaoUnaria)
	}
	f := p.parseFator()
	return p.node("expressao_unaria", op, f)
}

func canStartFator(t token.TokenType) bool {
	switch t {
	case token.IDENT, token.INT, token.FLOAT, token.SCI, token.LPAREN:
		return true
	}
	return false
}

func (p *Parser) parseFator() *cst.Node {
	switch p.curToken.Type {
	case token.LPAREN:
		open := p.terminal()
		if !canStartExpression(p.curToken.Type) {
			return p.fail(ErrFator)
		}
		e := p.parseExpressao()
		closing, ok := p.expect(token.RPAREN)
		if !ok {
			return p.fail(ErrFator)
		}
		return p.node("fator", open, e, closing)
	case token.IDENT:
		if p.peekTokenIs(token.LPAREN) {
			return p.node("fator", p.parseChamadaFuncao())
		}
		return p.node("fator", p.parseVar())
	case token.INT, token.FLOAT, token.SCI:
		num := p.node("numero", p.terminal())
		return p.node("fator", num)
	default:
		return p.fail(ErrFator)
	}
}

func (p *Parser) parseChamadaFuncao() *cst.Node {
	id := p.terminal()
	open := p.terminal()
	args := p.parseListaArgumentos()
	closing, ok := p.expect(token.RPAREN)
	if !ok {
		return p.fail(ErrChamadaFuncao)
	}
	return p.node("chamada_funcao", id, open, args, closing)
}

func (p *Parser) parseListaArgumentos() *cst.Node {
	if p.curTokenIs(token.RPAREN) {
		return p.node("lista_argumentos", p.node("vazio"))
	}
	if !canStartExpression(p.curToken.Type) {
		return p.fail(ErrListaArgumentos)
	}
	list := p.node("lista_argumentos", p.parseExpressao())
	for p.curTokenIs(token.COMMA) {
		comma := p.terminal()
		if !canStartExpression(p.curToken.Type) {
			return p.node("lista_argumentos", list, comma, p.fail(ErrListaArgumentos))
		}
		e := p.parseExpressao()
		list = p.node("lista_argumentos", list, comma, e)
	}
	return list
}
